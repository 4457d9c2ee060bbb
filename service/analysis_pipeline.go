package service

import (
	"context"
	"time"

	"lexportal/models"
)

// AnalysisStore reads and creates stored analyses
type AnalysisStore interface {
	GetByCitation(ctx context.Context, token, citation string) (*models.CaseAnalysis, error)
	Create(ctx context.Context, token string, analysis *models.CaseAnalysis) error
}

// CaseSource loads raw case records
type CaseSource interface {
	GetByCitation(ctx context.Context, token, citation string) (*models.CaseRecord, error)
}

// AnalysisPipeline resolves a CaseAnalysis: stored record, else generated
// from the full case record.
type AnalysisPipeline struct {
	store     AnalysisStore
	cases     CaseSource
	generator AnalysisGenerator
}

// NewAnalysisPipeline creates a new analysis pipeline
func NewAnalysisPipeline(store AnalysisStore, cases CaseSource, generator AnalysisGenerator) *AnalysisPipeline {
	return &AnalysisPipeline{store: store, cases: cases, generator: generator}
}

func (p *AnalysisPipeline) Kind() models.RunKind {
	return models.RunKindAnalysis
}

func (p *AnalysisPipeline) Lookup(ctx context.Context, token, citation string) (*models.CaseAnalysis, error) {
	return p.store.GetByCitation(ctx, token, citation)
}

func (p *AnalysisPipeline) Generate(ctx context.Context, token, citation string) (*models.GeneratedAnalysis, error) {
	record, err := p.cases.GetByCitation(ctx, token, citation)
	if err != nil {
		return nil, generationError(err)
	}
	return p.generator.GenerateAnalysis(ctx, token, record, record.VectorStoreID)
}

func (p *AnalysisPipeline) Normalize(citation string, raw *models.GeneratedAnalysis, now time.Time) *models.CaseAnalysis {
	return NormalizeAnalysis(citation, raw, now)
}

func (p *AnalysisPipeline) Persist(ctx context.Context, token string, value *models.CaseAnalysis) error {
	return p.store.Create(ctx, token, value)
}
