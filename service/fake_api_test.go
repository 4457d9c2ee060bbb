package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"lexportal/models"
	"lexportal/repository"

	"go.uber.org/zap"
)

const testCitation = "2023 DL 101"

// fakeAPI serves both the persistence API (under /store) and the AI API (under /ai)
type fakeAPI struct {
	mu              sync.Mutex
	storedAnalysis  string // data JSON; empty means not stored
	storedDigest    string
	lookupStatus    int // non-zero forces this status for analysis lookups
	analyzeResponse string
	digestResponse  string
	createStatus    int
	createdBodies   []map[string]any
	analyzeQuery    string
	chatBody        map[string]any
	generateGate    chan struct{} // when set, analyze blocks until closed or the request is cancelled
	createGate      chan struct{} // same for record creation

	total    atomic.Int32
	lookups  atomic.Int32
	analyzes atomic.Int32
	digests  atomic.Int32
	creates  atomic.Int32
	cases    atomic.Int32
}

func newFakeAPI(t *testing.T) (*fakeAPI, *httptest.Server) {
	f := &fakeAPI{
		analyzeResponse: `{"success":true,"data":{"court":"Supreme Court","coram":["A","B"],"summary_of_facts":"Facts.","vector_store_id":"vs_1","file_id":"file_1"}}`,
		digestResponse:  `{"success":true,"data":{"facts":"Facts.","issues":["Issue one"],"holding":"Allowed"}}`,
	}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.total.Add(1)
	path := r.URL.Path

	if r.Method == http.MethodPost && path == "/ai/cases/analyze" {
		f.analyzes.Add(1)
		f.mu.Lock()
		f.analyzeQuery = r.URL.RawQuery
		gate, resp := f.generateGate, f.analyzeResponse
		f.mu.Unlock()

		if gate != nil {
			select {
			case <-gate:
			case <-r.Context().Done():
				return
			}
		}
		io.WriteString(w, resp)
		return
	}

	if r.Method == http.MethodPost && strings.HasPrefix(path, "/store/") {
		f.mu.Lock()
		gate := f.createGate
		f.mu.Unlock()
		if gate != nil {
			select {
			case <-gate:
			case <-r.Context().Done():
				return
			}
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.Method == http.MethodGet && strings.HasPrefix(path, "/store/case-analyses/citation/"):
		f.lookups.Add(1)
		if f.lookupStatus != 0 {
			w.WriteHeader(f.lookupStatus)
			return
		}
		writeStored(w, f.storedAnalysis)

	case r.Method == http.MethodGet && strings.HasPrefix(path, "/store/case-digests/citation/"):
		f.lookups.Add(1)
		writeStored(w, f.storedDigest)

	case r.Method == http.MethodGet && strings.HasPrefix(path, "/store/cases/citation/"):
		f.cases.Add(1)
		io.WriteString(w, `{"success":true,"data":{"dl_citation_no":"`+testCitation+`","title":"A v B","decision":"The appeal is dismissed."}}`)

	case r.Method == http.MethodPost && (path == "/store/case-analyses" || path == "/store/cases/digest"):
		f.creates.Add(1)
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.createdBodies = append(f.createdBodies, body)
		if f.createStatus != 0 {
			w.WriteHeader(f.createStatus)
			return
		}
		io.WriteString(w, `{"success":true,"data":{}}`)

	case r.Method == http.MethodPost && path == "/ai/cases/get-case-digest":
		f.digests.Add(1)
		io.WriteString(w, f.digestResponse)

	case r.Method == http.MethodPost && path == "/ai/case-chat":
		_ = json.NewDecoder(r.Body).Decode(&f.chatBody)
		io.WriteString(w, `{"response":"The court held X."}`)

	default:
		http.NotFound(w, r)
	}
}

func writeStored(w http.ResponseWriter, data string) {
	if data == "" {
		io.WriteString(w, `{"success":false,"message":"not found"}`)
		return
	}
	io.WriteString(w, `{"success":true,"data":`+data+`}`)
}

func (f *fakeAPI) set(fn func(f *fakeAPI)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeAPI) bodies() []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]any(nil), f.createdBodies...)
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func testWorkflow(srv *httptest.Server, logger *zap.Logger) *Workflow {
	retry := repository.WithRetryPolicy(repository.RetryPolicy{MaxRetries: 2, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond})
	store := repository.NewClient(srv.URL+"/store", retry)
	ai := NewAIClient(repository.NewClient(srv.URL + "/ai"))

	return &Workflow{
		Analyses:          repository.NewCaseAnalysisRepository(store, logger),
		Digests:           repository.NewCaseDigestRepository(store, logger),
		Cases:             repository.NewCaseRepository(store),
		AnalysisGenerator: ai,
		DigestGenerator:   ai,
		Logger:            logger,
		Clock:             func() time.Time { return fixedNow },
		PersistTimeout:    time.Second,
	}
}

type staticCases struct {
	record *models.CaseRecord
}

func (s staticCases) GetByCitation(context.Context, string, string) (*models.CaseRecord, error) {
	return s.record, nil
}

func mustRecord(t *testing.T, raw string) *models.CaseRecord {
	t.Helper()
	var r models.CaseRecord
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		t.Fatalf("bad case record: %v", err)
	}
	return &r
}
