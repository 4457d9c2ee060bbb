package repository

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"lexportal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func fastRetry(n int) ClientOption {
	return WithRetryPolicy(RetryPolicy{MaxRetries: n, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond})
}

func TestGetByCitationFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/case-analyses/citation/2023%20DL%2F1", r.URL.EscapedPath())
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		io.WriteString(w, `{"success":true,"data":{"dl_citation_no":"2023 DL/1","analysis":"md","coram":"[\"A\",\"B\"]"}}`)
	}))
	defer srv.Close()

	repo := NewCaseAnalysisRepository(NewClient(srv.URL+"/api"), zap.NewNop())
	a, err := repo.GetByCitation(context.Background(), "tok", "2023 DL/1")
	require.NoError(t, err)
	assert.Equal(t, "md", a.Analysis)
	assert.Equal(t, []string{"A", "B"}, a.Coram.Items)
}

func TestGetByCitationNotFound(t *testing.T) {
	tests := []struct {
		name string
		fn   http.HandlerFunc
	}{
		{"success false", func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"success":false,"message":"no analysis"}`)
		}},
		{"status 404", func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}},
		{"null data", func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"success":true,"data":null}`)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.fn)
			defer srv.Close()

			repo := NewCaseAnalysisRepository(NewClient(srv.URL, fastRetry(2)), zap.NewNop())
			_, err := repo.GetByCitation(context.Background(), "tok", "X")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestGetRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, `{"success":true,"data":{"dl_citation_no":"X","analysis":"ok"}}`)
	}))
	defer srv.Close()

	repo := NewCaseAnalysisRepository(NewClient(srv.URL, fastRetry(2)), zap.NewNop())
	a, err := repo.GetByCitation(context.Background(), "tok", "X")
	require.NoError(t, err)
	assert.Equal(t, "ok", a.Analysis)
	assert.EqualValues(t, 3, calls.Load())
}

func TestGetExhaustedRetriesIsNotNotFound(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	repo := NewCaseAnalysisRepository(NewClient(srv.URL, fastRetry(2)), zap.NewNop())
	_, err := repo.GetByCitation(context.Background(), "tok", "X")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.EqualValues(t, 3, calls.Load())
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, fastRetry(2)).Get(context.Background(), "tok", "/x")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.False(t, apiErr.Temporary())
	assert.EqualValues(t, 1, calls.Load())
}

func TestGetTransportErrorIsRetried(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, fastRetry(1)).Get(context.Background(), "", "/x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 2 attempts")
}

func TestGetStopsOnCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewClient(srv.URL, fastRetry(5)).Get(ctx, "", "/x")
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestCreateEncodesListFields(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/case-analyses", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		io.WriteString(w, `{"success":true,"data":{}}`)
	}))
	defer srv.Close()

	broken, _ := models.DecodeList("[oops")
	analysis := &models.CaseAnalysis{
		DLCitationNo: "X",
		Analysis:     "## Court\n\nSC\n",
		AnalysisFields: models.AnalysisFields{
			Court:      models.Str("SC"),
			Coram:      models.List("A", "B"),
			Catchwords: broken,
		},
		VectorFileID: models.Str("file_1"),
	}

	repo := NewCaseAnalysisRepository(NewClient(srv.URL), zap.NewNop())
	require.NoError(t, repo.Create(context.Background(), "tok", analysis))

	assert.Equal(t, `["A","B"]`, body["coram"])
	assert.Equal(t, "[oops", body["catchwords"])
	assert.Equal(t, "SC", body["court"])
	assert.Equal(t, "file_1", body["vector_file_id"])
	assert.NotContains(t, body, "holding")
}

func TestCreateRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"success":false,"message":"duplicate"}`)
	}))
	defer srv.Close()

	repo := NewCaseDigestRepository(NewClient(srv.URL), zap.NewNop())
	err := repo.Create(context.Background(), "tok", &models.CaseDigest{DLCitationNo: "X"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestMalformedListFieldIsLogged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/case-digests/citation/X", r.URL.Path)
		io.WriteString(w, `{"success":true,"data":{"dl_citation_no":"X","digest":"d","issues":"[broken"}}`)
	}))
	defer srv.Close()

	core, logs := observer.New(zapcore.WarnLevel)
	repo := NewCaseDigestRepository(NewClient(srv.URL), zap.New(core))

	d, err := repo.GetByCitation(context.Background(), "tok", "X")
	require.NoError(t, err)
	assert.True(t, d.Issues.Malformed())
	assert.Equal(t, "[broken", d.Issues.Raw)

	entries := logs.FilterField(zap.String("field", "issues")).All()
	require.Len(t, entries, 1)
	assert.Equal(t, "list field left undecoded", entries[0].Message)
}

func TestCaseRepository(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cases/citation/X", r.URL.Path)
		io.WriteString(w, `{"success":true,"data":{"dl_citation_no":"X","title":"A v B","decision":"..."}}`)
	}))
	defer srv.Close()

	c, err := NewCaseRepository(NewClient(srv.URL)).GetByCitation(context.Background(), "tok", "X")
	require.NoError(t, err)
	assert.Equal(t, "A v B", c.Title)
}

func TestRetryBackoff(t *testing.T) {
	p := RetryPolicy{InitialBackoff: 100 * time.Millisecond, MaxBackoff: 300 * time.Millisecond}
	assert.Equal(t, 100*time.Millisecond, p.backoff(0))
	assert.Equal(t, 200*time.Millisecond, p.backoff(1))
	assert.Equal(t, 300*time.Millisecond, p.backoff(2))
}
