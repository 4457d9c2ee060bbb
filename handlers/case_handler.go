package handlers

import (
	"errors"
	"net/http"
	"strings"

	"lexportal/models"
	"lexportal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CaseHandler serves the case page: the case record, its analysis, digest and chat
type CaseHandler struct {
	workflow *service.Workflow
	views    *service.ViewRegistry
	chat     *service.ChatService
	logger   *zap.Logger
}

// NewCaseHandler creates a new case handler
func NewCaseHandler(workflow *service.Workflow, views *service.ViewRegistry, chat *service.ChatService, logger *zap.Logger) *CaseHandler {
	return &CaseHandler{
		workflow: workflow,
		views:    views,
		chat:     chat,
		logger:   logger.With(zap.String("component", "case_handler")),
	}
}

// mount returns the case view for the request, creating one when the client
// sent no view id or the id belongs to another citation. It writes the error
// response and returns nil when the request cannot be served.
func (h *CaseHandler) mount(c *gin.Context) *service.CaseView {
	citation := strings.TrimSpace(c.Param("citation"))
	if citation == "" {
		respondError(c, http.StatusBadRequest, "INVALID_CITATION", "Citation is required")
		return nil
	}
	token := bearerToken(c)
	if token == "" {
		respondError(c, http.StatusUnauthorized, "AUTH_REQUIRED", "Authentication required")
		return nil
	}

	id := strings.TrimSpace(c.GetHeader(ViewIDHeader))
	if id == "" {
		id = uuid.NewString()
	}

	cv, created := h.views.Mount(id, citation, func() *service.CaseView {
		return h.workflow.NewCaseView(id, citation, &service.SessionToken{})
	})
	if session, ok := cv.Credentials().(*service.SessionToken); ok {
		session.Set(token)
	}
	if created {
		h.logger.Debug("case view mounted", zap.String("view_id", id), zap.String("citation", citation))
	}

	c.Header(ViewIDHeader, id)
	return cv
}

func (h *CaseHandler) fail(c *gin.Context, err error, subject string) {
	mapped := mapError(err, subject)
	if mapped.status >= http.StatusInternalServerError {
		h.logger.Warn("request failed",
			zap.String("subject", subject),
			zap.String("code", mapped.code),
			zap.Error(err))
	}
	respondError(c, mapped.status, mapped.code, mapped.message)
}

// GetCase handles GET /api/cases/:citation
func (h *CaseHandler) GetCase(c *gin.Context) {
	cv := h.mount(c)
	if cv == nil {
		return
	}
	ctx := c.Request.Context()

	// A failed case fetch must not cancel the shared analysis run.
	var (
		g        errgroup.Group
		record   *models.CaseRecord
		analysis *models.CaseAnalysis
		caseErr  error
	)
	g.Go(func() error {
		record, caseErr = cv.Case(ctx, cv.Credentials())
		return nil
	})
	g.Go(func() error {
		var err error
		analysis, err = cv.Analysis.Resolve(ctx, nil)
		return err
	})
	analysisErr := g.Wait()

	if caseErr != nil {
		h.fail(c, caseErr, "case")
		return
	}
	if analysisErr != nil {
		h.fail(c, analysisErr, "analysis")
		return
	}

	respondData(c, http.StatusOK, gin.H{
		"case":     record,
		"analysis": analysis,
	})
}

// GetAnalysis handles GET /api/cases/:citation/analysis
func (h *CaseHandler) GetAnalysis(c *gin.Context) {
	cv := h.mount(c)
	if cv == nil {
		return
	}

	analysis, err := cv.Analysis.Resolve(c.Request.Context(), nil)
	if err != nil {
		h.fail(c, err, "analysis")
		return
	}
	respondData(c, http.StatusOK, analysis)
}

// GetDigest handles GET /api/cases/:citation/digest
func (h *CaseHandler) GetDigest(c *gin.Context) {
	cv := h.mount(c)
	if cv == nil {
		return
	}

	digest, err := cv.Digest.Resolve(c.Request.Context(), nil)
	if err != nil {
		h.fail(c, err, "digest")
		return
	}
	respondData(c, http.StatusOK, digest)
}

// ChatRequest is the body of POST /api/cases/:citation/chat
type ChatRequest struct {
	Messages []service.ChatMessage `json:"messages" binding:"required,min=1"`
}

// Chat handles POST /api/cases/:citation/chat
func (h *CaseHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	cv := h.mount(c)
	if cv == nil {
		return
	}
	ctx := c.Request.Context()

	analysis, err := cv.Analysis.Resolve(ctx, nil)
	if err != nil {
		h.fail(c, err, "analysis")
		return
	}

	reply, err := h.chat.Ask(ctx, cv.Credentials(), analysis, req.Messages)
	if err != nil {
		if errors.Is(err, service.ErrNoMessages) {
			respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
			return
		}
		h.fail(c, err, "chat response")
		return
	}
	respondData(c, http.StatusOK, gin.H{"response": reply})
}

// ViewStatus is the state of a mounted case view
type ViewStatus struct {
	ID       string              `json:"id"`
	Citation string              `json:"dl_citation_no"`
	Analysis service.StageStatus `json:"analysis"`
	Digest   service.StageStatus `json:"digest"`
}

// GetView handles GET /api/views/:id
func (h *CaseHandler) GetView(c *gin.Context) {
	cv, ok := h.views.Get(c.Param("id"))
	if !ok {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "View not found")
		return
	}

	respondData(c, http.StatusOK, ViewStatus{
		ID:       cv.ID(),
		Citation: cv.Citation(),
		Analysis: service.StatusOf(cv.Analysis.Snapshot()),
		Digest:   service.StatusOf(cv.Digest.Snapshot()),
	})
}

// DeleteView handles DELETE /api/views/:id
func (h *CaseHandler) DeleteView(c *gin.Context) {
	if !h.views.Unmount(c.Param("id")) {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "View not found")
		return
	}
	respondData(c, http.StatusOK, gin.H{"message": "View closed"})
}
