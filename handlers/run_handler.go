package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"lexportal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultRunLimit = 20
	maxRunLimit     = 100
)

// RunReader reads the workflow run ledger
type RunReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.WorkflowRun, error)
	ListByCitation(ctx context.Context, citation string, limit int) ([]*models.WorkflowRun, error)
}

// RunHandler serves recorded workflow runs
type RunHandler struct {
	runs   RunReader
	logger *zap.Logger
}

// NewRunHandler creates a new run handler
func NewRunHandler(runs RunReader, logger *zap.Logger) *RunHandler {
	return &RunHandler{
		runs:   runs,
		logger: logger.With(zap.String("component", "run_handler")),
	}
}

// GetRun handles GET /api/runs/:id
func (h *RunHandler) GetRun(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid run ID")
		return
	}

	run, err := h.runs.GetByID(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	respondData(c, http.StatusOK, run)
}

// ListCaseRuns handles GET /api/cases/:citation/runs
func (h *RunHandler) ListCaseRuns(c *gin.Context) {
	citation := strings.TrimSpace(c.Param("citation"))
	if citation == "" {
		respondError(c, http.StatusBadRequest, "INVALID_CITATION", "Citation is required")
		return
	}

	limit := defaultRunLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(c, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a positive integer")
			return
		}
		limit = min(n, maxRunLimit)
	}

	runs, err := h.runs.ListByCitation(c.Request.Context(), citation, limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	if runs == nil {
		runs = []*models.WorkflowRun{}
	}
	respondData(c, http.StatusOK, runs)
}

func (h *RunHandler) fail(c *gin.Context, err error) {
	mapped := mapError(err, "run")
	if mapped.status >= http.StatusInternalServerError {
		h.logger.Error("failed to read workflow runs", zap.Error(err))
	}
	respondError(c, mapped.status, mapped.code, mapped.message)
}
