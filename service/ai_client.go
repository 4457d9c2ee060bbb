package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"lexportal/models"
	"lexportal/repository"
)

// AnalysisGenerator produces a structured analysis for a case
type AnalysisGenerator interface {
	GenerateAnalysis(ctx context.Context, token string, record *models.CaseRecord, vectorStoreID string) (*models.GeneratedAnalysis, error)
}

// DigestGenerator produces a structured digest for an indexed case
type DigestGenerator interface {
	GenerateDigest(ctx context.Context, token, citation, vectorStoreID string) (*models.GeneratedDigest, error)
}

// ChatMessage is one turn of a case chat
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body sent to the chat endpoint
type ChatRequest struct {
	Messages      []ChatMessage `json:"messages"`
	VectorStoreID string        `json:"vector_store_id"`
	FileID        string        `json:"file_id"`
	DLCitationNo  string        `json:"dl_citation_no"`
}

// AIClient talks to the AI generation API
type AIClient struct {
	client *repository.Client
}

// NewAIClient creates a new AI generation API client
func NewAIClient(client *repository.Client) *AIClient {
	return &AIClient{client: client}
}

// GenerateAnalysis posts the full case payload to the analyze endpoint.
// A known vectorStoreID lets the provider reuse its existing index.
func (c *AIClient) GenerateAnalysis(ctx context.Context, token string, record *models.CaseRecord, vectorStoreID string) (*models.GeneratedAnalysis, error) {
	payload, err := record.Payload()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	path := "/cases/analyze"
	if vectorStoreID != "" {
		path += "?vector_store_id=" + url.QueryEscape(vectorStoreID)
	}

	env, err := c.client.Post(ctx, token, path, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	if err := checkEnvelope(env); err != nil {
		return nil, err
	}

	generated, err := models.ParseGeneratedAnalysis(env.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	return generated, nil
}

// GenerateDigest asks the provider for a digest of an already indexed case
func (c *AIClient) GenerateDigest(ctx context.Context, token, citation, vectorStoreID string) (*models.GeneratedDigest, error) {
	body := map[string]string{
		"vector_store_id": vectorStoreID,
		"dl_citation_no":  citation,
	}

	env, err := c.client.Post(ctx, token, "/cases/get-case-digest", body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	if err := checkEnvelope(env); err != nil {
		return nil, err
	}

	generated, err := models.ParseGeneratedDigest(env.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	return generated, nil
}

// Chat sends the conversation to the case chat endpoint and returns the reply
func (c *AIClient) Chat(ctx context.Context, token string, req ChatRequest) (string, error) {
	var resp struct {
		Response string `json:"response"`
		Success  *bool  `json:"success"`
		Message  string `json:"message"`
	}
	if err := c.client.PostInto(ctx, token, "/case-chat", req, &resp); err != nil {
		return "", err
	}
	if resp.Success != nil && !*resp.Success {
		return "", fmt.Errorf("chat rejected: %s", resp.Message)
	}
	return resp.Response, nil
}

func checkEnvelope(env *repository.Envelope) error {
	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = "provider reported failure"
		}
		return fmt.Errorf("%w: %s", ErrGenerationFailed, msg)
	}
	if !env.HasData() {
		return fmt.Errorf("%w: %w", ErrGenerationFailed, &models.ShapeError{Reason: "data is missing"})
	}
	return nil
}

// generationError wraps err as a generation failure unless it already is one
func generationError(err error) error {
	if errors.Is(err, ErrGenerationFailed) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrGenerationFailed, err)
}
