package service

import (
	"context"
	"fmt"
	"strings"

	"lexportal/models"
)

// ChatBackend answers questions over an indexed case
type ChatBackend interface {
	Chat(ctx context.Context, token string, req ChatRequest) (string, error)
}

// ChatService runs case chat against the vector store of a resolved analysis
type ChatService struct {
	backend ChatBackend
}

// NewChatService creates a new chat service
func NewChatService(backend ChatBackend) *ChatService {
	return &ChatService{backend: backend}
}

// Ask sends the conversation about the analysed case and returns the reply
func (s *ChatService) Ask(ctx context.Context, creds CredentialProvider, analysis *models.CaseAnalysis, messages []ChatMessage) (string, error) {
	token, err := creds.Token(ctx)
	if err != nil || token == "" {
		return "", ErrAuthMissing
	}
	if analysis == nil || models.Deref(analysis.VectorStoreID) == "" {
		return "", ErrChatUnavailable
	}

	var cleaned []ChatMessage
	for _, m := range messages {
		content := strings.TrimSpace(m.Content)
		if content == "" {
			continue
		}
		role := m.Role
		if role == "" {
			role = "user"
		}
		cleaned = append(cleaned, ChatMessage{Role: role, Content: content})
	}
	if len(cleaned) == 0 {
		return "", ErrNoMessages
	}

	reply, err := s.backend.Chat(ctx, token, ChatRequest{
		Messages:      cleaned,
		VectorStoreID: models.Deref(analysis.VectorStoreID),
		FileID:        models.Deref(analysis.VectorFileID),
		DLCitationNo:  analysis.DLCitationNo,
	})
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	return reply, nil
}
