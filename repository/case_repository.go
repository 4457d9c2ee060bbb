package repository

import (
	"context"
	"fmt"

	"lexportal/models"
)

// CaseRepository reads raw case records from the persistence API
type CaseRepository struct {
	client *Client
}

// NewCaseRepository creates a new case repository
func NewCaseRepository(client *Client) *CaseRepository {
	return &CaseRepository{client: client}
}

// GetByCitation retrieves the full case record for a citation
func (r *CaseRepository) GetByCitation(ctx context.Context, token, citation string) (*models.CaseRecord, error) {
	env, err := r.client.Get(ctx, token, citationPath("/cases/citation", citation))
	if err != nil {
		return nil, err
	}
	if !env.Success || !env.HasData() {
		return nil, ErrNotFound
	}

	record := &models.CaseRecord{}
	if err := record.UnmarshalJSON(env.Data); err != nil {
		return nil, fmt.Errorf("failed to decode case: %w", err)
	}
	return record, nil
}
