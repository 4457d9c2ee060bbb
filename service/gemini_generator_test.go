package service

import (
	"context"
	"errors"
	"testing"

	"lexportal/models"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeModel struct {
	text   string
	err    error
	prompt string
}

func (m *fakeModel) GenerateContent(_ context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	if len(parts) > 0 {
		if t, ok := parts[0].(genai.Text); ok {
			m.prompt = string(t)
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text(m.text)}},
		}},
	}, nil
}

func TestGeminiGenerateAnalysis(t *testing.T) {
	model := &fakeModel{text: "```json\n{\"court\": \"High Court\", \"coram\": [\"A\"]}\n```"}
	g := NewGeminiGeneratorWithModel(model, zap.NewNop())

	record := &models.CaseRecord{DLCitationNo: "X", Title: "A v B"}
	out, err := g.GenerateAnalysis(context.Background(), "", record, "")
	require.NoError(t, err)

	assert.Equal(t, "High Court", models.Deref(out.Court))
	assert.Equal(t, []string{"A"}, out.Coram.Items)
	assert.Empty(t, out.VectorStoreID)
	assert.Contains(t, model.prompt, `"title":"A v B"`)
}

func TestGeminiGenerateAnalysisFailures(t *testing.T) {
	record := &models.CaseRecord{DLCitationNo: "X"}
	for name, model := range map[string]*fakeModel{
		"api error": {err: errors.New("quota")},
		"empty":     {text: "  "},
		"not json":  {text: "I cannot help with that"},
		"bad shape": {text: `{"coram": 5}`},
	} {
		t.Run(name, func(t *testing.T) {
			g := NewGeminiGeneratorWithModel(model, zap.NewNop())
			_, err := g.GenerateAnalysis(context.Background(), "", record, "")
			assert.ErrorIs(t, err, ErrGenerationFailed)
		})
	}
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences("```\n{\"a\":1}```"))
	assert.Equal(t, `{"a":1}`, stripFences(` {"a":1} `))
}
