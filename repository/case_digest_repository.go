package repository

import (
	"context"
	"fmt"

	"lexportal/models"

	"go.uber.org/zap"
)

// CaseDigestRepository handles persistence API operations for case digests
type CaseDigestRepository struct {
	client *Client
	logger *zap.Logger
}

// NewCaseDigestRepository creates a new case digest repository
func NewCaseDigestRepository(client *Client, logger *zap.Logger) *CaseDigestRepository {
	return &CaseDigestRepository{client: client, logger: logger.With(zap.String("repository", "case_digest"))}
}

// GetByCitation retrieves the stored digest for a citation
func (r *CaseDigestRepository) GetByCitation(ctx context.Context, token, citation string) (*models.CaseDigest, error) {
	env, err := r.client.Get(ctx, token, citationPath("/case-digests/citation", citation))
	if err != nil {
		return nil, err
	}
	if !env.Success || !env.HasData() {
		return nil, ErrNotFound
	}

	digest := &models.CaseDigest{}
	if err := decodeRecord(r.logger, citation, env.Data, digest, digest.Lists()); err != nil {
		return nil, err
	}
	return digest, nil
}

// Create stores a new digest
func (r *CaseDigestRepository) Create(ctx context.Context, token string, digest *models.CaseDigest) error {
	record, err := wireRecord(digest, digest.Lists())
	if err != nil {
		return err
	}

	env, err := r.client.Post(ctx, token, "/cases/digest", record)
	if err != nil {
		return err
	}
	if !env.Success {
		return fmt.Errorf("create rejected: %s", env.Message)
	}
	return nil
}
