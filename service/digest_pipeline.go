package service

import (
	"context"
	"fmt"
	"time"

	"lexportal/models"
)

// DigestStore reads and creates stored digests
type DigestStore interface {
	GetByCitation(ctx context.Context, token, citation string) (*models.CaseDigest, error)
	Create(ctx context.Context, token string, digest *models.CaseDigest) error
}

// VectorStoreResolver returns the provider vector store holding a case
type VectorStoreResolver func(ctx context.Context) (string, error)

// DigestPipeline resolves a CaseDigest. Generation needs the vector store
// produced by the case's analysis.
type DigestPipeline struct {
	store       DigestStore
	generator   DigestGenerator
	vectorStore VectorStoreResolver
}

// NewDigestPipeline creates a new digest pipeline
func NewDigestPipeline(store DigestStore, generator DigestGenerator, vectorStore VectorStoreResolver) *DigestPipeline {
	return &DigestPipeline{store: store, generator: generator, vectorStore: vectorStore}
}

func (p *DigestPipeline) Kind() models.RunKind {
	return models.RunKindDigest
}

func (p *DigestPipeline) Lookup(ctx context.Context, token, citation string) (*models.CaseDigest, error) {
	return p.store.GetByCitation(ctx, token, citation)
}

func (p *DigestPipeline) Generate(ctx context.Context, token, citation string) (*models.GeneratedDigest, error) {
	vectorStoreID, err := p.vectorStore(ctx)
	if err != nil {
		return nil, generationError(err)
	}
	if vectorStoreID == "" {
		return nil, fmt.Errorf("%w: case has no vector store", ErrGenerationFailed)
	}
	generated, err := p.generator.GenerateDigest(ctx, token, citation, vectorStoreID)
	if err != nil {
		return nil, err
	}
	if generated.VectorStoreID == "" {
		generated.VectorStoreID = vectorStoreID
	}
	return generated, nil
}

func (p *DigestPipeline) Normalize(citation string, raw *models.GeneratedDigest, now time.Time) *models.CaseDigest {
	return NormalizeDigest(citation, raw, now)
}

func (p *DigestPipeline) Persist(ctx context.Context, token string, value *models.CaseDigest) error {
	return p.store.Create(ctx, token, value)
}
