package repository

import (
	"context"
	"fmt"

	"lexportal/models"

	"go.uber.org/zap"
)

// CaseAnalysisRepository handles persistence API operations for case analyses
type CaseAnalysisRepository struct {
	client *Client
	logger *zap.Logger
}

// NewCaseAnalysisRepository creates a new case analysis repository
func NewCaseAnalysisRepository(client *Client, logger *zap.Logger) *CaseAnalysisRepository {
	return &CaseAnalysisRepository{client: client, logger: logger.With(zap.String("repository", "case_analysis"))}
}

// GetByCitation retrieves the stored analysis for a citation.
// It returns ErrNotFound when the API reports no record.
func (r *CaseAnalysisRepository) GetByCitation(ctx context.Context, token, citation string) (*models.CaseAnalysis, error) {
	env, err := r.client.Get(ctx, token, citationPath("/case-analyses/citation", citation))
	if err != nil {
		return nil, err
	}
	if !env.Success || !env.HasData() {
		return nil, ErrNotFound
	}

	analysis := &models.CaseAnalysis{}
	if err := decodeRecord(r.logger, citation, env.Data, analysis, analysis.Lists()); err != nil {
		return nil, err
	}
	return analysis, nil
}

// Create stores a new analysis. List fields are sent JSON-encoded.
func (r *CaseAnalysisRepository) Create(ctx context.Context, token string, analysis *models.CaseAnalysis) error {
	record, err := wireRecord(analysis, analysis.Lists())
	if err != nil {
		return err
	}

	env, err := r.client.Post(ctx, token, "/case-analyses", record)
	if err != nil {
		return err
	}
	if !env.Success {
		return fmt.Errorf("create rejected: %s", env.Message)
	}
	return nil
}
