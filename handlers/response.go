package handlers

import (
	"errors"
	"net/http"

	"lexportal/repository"
	"lexportal/service"
	"lexportal/storage"

	"github.com/gin-gonic/gin"
)

func respondData(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// apiError is the client-facing form of a workflow error
type apiError struct {
	status  int
	code    string
	message string
}

// mapError converts err to a status and code. subject names the record
// being resolved, e.g. "analysis".
func mapError(err error, subject string) apiError {
	var upstream *repository.APIError
	switch {
	case errors.Is(err, service.ErrAuthMissing):
		return apiError{http.StatusUnauthorized, "AUTH_REQUIRED", "Authentication required"}
	case errors.Is(err, service.ErrViewClosed):
		return apiError{http.StatusConflict, "VIEW_CLOSED", "The view was closed, retry with a new view"}
	case errors.Is(err, service.ErrChatUnavailable):
		return apiError{http.StatusConflict, "CHAT_UNAVAILABLE", "Chat is unavailable for this case"}
	case errors.Is(err, service.ErrGenerationFailed):
		return apiError{http.StatusBadGateway, "GENERATION_FAILED", "Failed to generate " + subject}
	case errors.Is(err, service.ErrFetchFailed):
		return apiError{http.StatusBadGateway, "FETCH_FAILED", "Failed to fetch " + subject}
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		return apiError{http.StatusNotFound, "NOT_FOUND", subject + " not found"}
	case errors.Is(err, storage.ErrInvalidPath):
		return apiError{http.StatusBadRequest, "INVALID_PATH", "Invalid export path"}
	case errors.As(err, &upstream):
		if upstream.Status == http.StatusUnauthorized || upstream.Status == http.StatusForbidden {
			return apiError{http.StatusUnauthorized, "AUTH_REQUIRED", "Authentication required"}
		}
		return apiError{http.StatusBadGateway, "FETCH_FAILED", "Failed to fetch " + subject}
	default:
		return apiError{http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error"}
	}
}
