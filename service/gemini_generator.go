package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"lexportal/models"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
)

const analysisPrompt = `You are a legal research assistant. Analyse the court decision below and
respond with a single JSON object using exactly these keys (omit any you cannot determine):
court, location, date_of_judgment, type_of_decision, opinion_by, nature_of_vote,
category_of_case, summary_of_facts, procedural_history, legal_arguments,
ratio_decidendi, obiter_dictum, orders_and_remedies, commentary (strings);
coram, counsel, area_of_law, subject_index, catchwords, issues_for_determination,
holding, important_quotes, cases_cited, legal_rules_referenced,
books_journals_cited (arrays of strings).

CASE:
%s`

// ContentGenerator is the part of a Gemini model used for generation
type ContentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// GeminiGenerator generates analyses directly with a Gemini model. It does not
// index the case, so its analyses carry no vector store.
type GeminiGenerator struct {
	model  ContentGenerator
	logger *zap.Logger
}

// NewGeminiGenerator configures a JSON-mode model from client
func NewGeminiGenerator(client *genai.Client, modelName string, logger *zap.Logger) *GeminiGenerator {
	model := client.GenerativeModel(modelName)
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(0.2)
	return NewGeminiGeneratorWithModel(model, logger)
}

// NewGeminiGeneratorWithModel wraps an already configured model
func NewGeminiGeneratorWithModel(model ContentGenerator, logger *zap.Logger) *GeminiGenerator {
	return &GeminiGenerator{model: model, logger: logger.With(zap.String("generator", "gemini"))}
}

// GenerateAnalysis asks the model for the analysis object of record
func (g *GeminiGenerator) GenerateAnalysis(ctx context.Context, _ string, record *models.CaseRecord, _ string) (*models.GeneratedAnalysis, error) {
	payload, err := record.Payload()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	resp, err := g.model.GenerateContent(ctx, genai.Text(fmt.Sprintf(analysisPrompt, payload)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	text := responseText(resp)
	if text == "" {
		return nil, fmt.Errorf("%w: empty model response", ErrGenerationFailed)
	}

	generated, err := models.ParseGeneratedAnalysis(json.RawMessage(stripFences(text)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	g.logger.Warn("analysis generated without vector store; chat and digest unavailable",
		zap.String("citation", record.DLCitationNo))
	return generated, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		if b.Len() > 0 {
			break
		}
	}
	return strings.TrimSpace(b.String())
}

// stripFences removes a markdown code fence around a JSON body
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
