package service

import (
	"context"
	"sync"
	"time"

	"lexportal/models"

	"go.uber.org/zap"
)

// AnalysisView resolves a case analysis
type AnalysisView = View[models.GeneratedAnalysis, models.CaseAnalysis]

// DigestView resolves a case digest
type DigestView = View[models.GeneratedDigest, models.CaseDigest]

// Workflow holds the collaborators shared by every case view
type Workflow struct {
	Analyses          AnalysisStore
	Digests           DigestStore
	Cases             CaseSource
	AnalysisGenerator AnalysisGenerator
	DigestGenerator   DigestGenerator
	Recorder          RunRecorder
	Logger            *zap.Logger
	Clock             func() time.Time
	PersistTimeout    time.Duration
	Persists          *PersistGroup
}

// CaseView is one mounted view of a case: an analysis view, a digest view and
// the case record they share. Each CaseView resolves independently of others.
type CaseView struct {
	id       string
	citation string
	creds    CredentialProvider

	Analysis *AnalysisView
	Digest   *DigestView

	cases *caseMemo
	ctx   context.Context
	close context.CancelFunc
}

// NewCaseView mounts a view of citation. creds is read once per workflow run.
func (w *Workflow) NewCaseView(id, citation string, creds CredentialProvider) *CaseView {
	ctx, cancel := context.WithCancel(context.Background())
	cv := &CaseView{
		id:       id,
		citation: citation,
		creds:    creds,
		cases:    &caseMemo{source: w.Cases, citation: citation},
		ctx:      ctx,
		close:    cancel,
	}

	var opts []ViewOption
	opts = append(opts, WithViewID(id))
	if w.Logger != nil {
		opts = append(opts, WithViewLogger(w.Logger.With(zap.String("view_id", id))))
	}
	if w.Recorder != nil {
		opts = append(opts, WithRunRecorder(w.Recorder))
	}
	if w.Clock != nil {
		opts = append(opts, WithClock(w.Clock))
	}
	if w.PersistTimeout > 0 {
		opts = append(opts, WithPersistTimeout(w.PersistTimeout))
	}
	if w.Persists != nil {
		opts = append(opts, WithPersistGroup(w.Persists))
	}

	cv.Analysis = NewView(citation, creds,
		Pipeline[models.GeneratedAnalysis, models.CaseAnalysis](NewAnalysisPipeline(w.Analyses, cv.cases, w.AnalysisGenerator)),
		opts...)
	cv.Digest = NewView(citation, creds,
		Pipeline[models.GeneratedDigest, models.CaseDigest](NewDigestPipeline(w.Digests, w.DigestGenerator, cv.vectorStore)),
		opts...)
	return cv
}

// ID returns the view id
func (cv *CaseView) ID() string {
	return cv.id
}

// Citation returns the case citation
func (cv *CaseView) Citation() string {
	return cv.citation
}

// Credentials returns the provider the view was mounted with
func (cv *CaseView) Credentials() CredentialProvider {
	return cv.creds
}

// Case returns the case record, fetching it at most once successfully per view
func (cv *CaseView) Case(ctx context.Context, creds CredentialProvider) (*models.CaseRecord, error) {
	token, err := creds.Token(ctx)
	if err != nil || token == "" {
		return nil, ErrAuthMissing
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(cv.ctx, cancel)
	defer stop()

	return cv.cases.GetByCitation(ctx, token, cv.citation)
}

// Close aborts in-flight requests of both views
func (cv *CaseView) Close() {
	cv.close()
	cv.Analysis.Close()
	cv.Digest.Close()
}

func (cv *CaseView) vectorStore(ctx context.Context) (string, error) {
	analysis, err := cv.Analysis.Resolve(ctx, nil)
	if err != nil {
		return "", err
	}
	return models.Deref(analysis.VectorStoreID), nil
}

// caseMemo caches the first successfully loaded case record
type caseMemo struct {
	source   CaseSource
	citation string

	mu     sync.Mutex
	record *models.CaseRecord
}

func (m *caseMemo) GetByCitation(ctx context.Context, token, citation string) (*models.CaseRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.record != nil && citation == m.citation {
		return m.record, nil
	}
	record, err := m.source.GetByCitation(ctx, token, citation)
	if err != nil {
		return nil, err
	}
	if citation == m.citation {
		m.record = record
	}
	return record, nil
}
