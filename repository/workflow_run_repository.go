package repository

import (
	"context"
	"errors"
	"time"

	"lexportal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WorkflowRunRepository handles database operations for workflow runs
type WorkflowRunRepository struct {
	db *pgxpool.Pool
}

// NewWorkflowRunRepository creates a new workflow run repository
func NewWorkflowRunRepository(db *pgxpool.Pool) *WorkflowRunRepository {
	return &WorkflowRunRepository{db: db}
}

// Save inserts the run or updates its progress if it already exists
func (r *WorkflowRunRepository) Save(ctx context.Context, run *models.WorkflowRun) error {
	query := `
		INSERT INTO workflow_runs (
			id, view_id, kind, dl_citation_no, status, current_step, steps,
			error_message, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			current_step = EXCLUDED.current_step,
			steps = EXCLUDED.steps,
			error_message = EXCLUDED.error_message,
			completed_at = EXCLUDED.completed_at,
			updated_at = NOW()
		RETURNING created_at, updated_at`

	return r.db.QueryRow(
		ctx, query,
		run.ID,
		run.ViewID,
		run.Kind,
		run.DLCitationNo,
		run.Status,
		run.CurrentStep,
		run.Steps,
		run.ErrorMessage,
		run.CompletedAt,
	).Scan(&run.CreatedAt, &run.UpdatedAt)
}

// GetByID retrieves a workflow run by ID
func (r *WorkflowRunRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.WorkflowRun, error) {
	query := `
		SELECT id, view_id, kind, dl_citation_no, status, current_step, steps,
			error_message, created_at, updated_at, completed_at
		FROM workflow_runs
		WHERE id = $1`

	run, err := scanRun(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return run, err
}

// ListByCitation retrieves the most recent runs for a citation
func (r *WorkflowRunRepository) ListByCitation(ctx context.Context, citation string, limit int) ([]*models.WorkflowRun, error) {
	query := `
		SELECT id, view_id, kind, dl_citation_no, status, current_step, steps,
			error_message, created_at, updated_at, completed_at
		FROM workflow_runs
		WHERE dl_citation_no = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, citation, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*models.WorkflowRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// DeleteOlderThan removes finished runs created before cutoff
func (r *WorkflowRunRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM workflow_runs
		WHERE created_at < $1 AND status IN ('completed', 'failed')`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanRun(row pgx.Row) (*models.WorkflowRun, error) {
	run := &models.WorkflowRun{}
	err := row.Scan(
		&run.ID,
		&run.ViewID,
		&run.Kind,
		&run.DLCitationNo,
		&run.Status,
		&run.CurrentStep,
		&run.Steps,
		&run.ErrorMessage,
		&run.CreatedAt,
		&run.UpdatedAt,
		&run.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	if run.Steps == nil {
		run.Steps = make(models.RunSteps, 0)
	}
	return run, nil
}
