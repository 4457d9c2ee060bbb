package handlers

import (
	"fmt"
	"net/http"
	"path"
	"strings"

	"lexportal/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ExportHandler writes rendered analyses to storage and serves them back
type ExportHandler struct {
	cases   *CaseHandler
	storage storage.Storage
	logger  *zap.Logger
}

// NewExportHandler creates a new export handler
func NewExportHandler(cases *CaseHandler, store storage.Storage, logger *zap.Logger) *ExportHandler {
	return &ExportHandler{
		cases:   cases,
		storage: store,
		logger:  logger.With(zap.String("component", "export_handler")),
	}
}

// ExportAnalysis handles POST /api/cases/:citation/analysis/export
func (h *ExportHandler) ExportAnalysis(c *gin.Context) {
	cv := h.cases.mount(c)
	if cv == nil {
		return
	}
	ctx := c.Request.Context()

	analysis, err := cv.Analysis.Resolve(ctx, nil)
	if err != nil {
		h.cases.fail(c, err, "analysis")
		return
	}

	var doc strings.Builder
	fmt.Fprintf(&doc, "# %s\n\n", analysis.DLCitationNo)
	doc.WriteString(analysis.Analysis)

	exportID := uuid.New()
	storagePath, err := h.storage.Upload(ctx, exportID, analysis.DLCitationNo+" analysis.md", strings.NewReader(doc.String()))
	if err != nil {
		h.logger.Error("failed to store export", zap.String("citation", analysis.DLCitationNo), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "EXPORT_FAILED", "Failed to store export")
		return
	}

	respondData(c, http.StatusCreated, gin.H{
		"id":   exportID,
		"path": storagePath,
		"url":  "/api/exports/" + storagePath,
	})
}

// Download handles GET /api/exports/*path
func (h *ExportHandler) Download(c *gin.Context) {
	storagePath := strings.TrimPrefix(c.Param("path"), "/")

	body, err := h.storage.Download(c.Request.Context(), storagePath)
	if err != nil {
		h.cases.fail(c, err, "export")
		return
	}
	defer body.Close()

	c.DataFromReader(http.StatusOK, -1, storage.ContentType(storagePath), body, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", path.Base(storagePath)),
	})
}

// Delete handles DELETE /api/exports/*path
func (h *ExportHandler) Delete(c *gin.Context) {
	storagePath := strings.TrimPrefix(c.Param("path"), "/")

	if err := h.storage.Delete(c.Request.Context(), storagePath); err != nil {
		h.cases.fail(c, err, "export")
		return
	}
	respondData(c, http.StatusOK, gin.H{"message": "Export deleted"})
}
