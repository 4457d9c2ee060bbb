package service

import (
	"strings"
	"testing"
	"time"

	"lexportal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullGenerated() *models.GeneratedAnalysis {
	return &models.GeneratedAnalysis{
		AnalysisFields: models.AnalysisFields{
			Commentary:           models.Str("A landmark ruling."),
			Court:                models.Str("  Supreme Court "),
			Coram:                models.List("Justice A", " ", "Justice B"),
			Counsel:              models.List("X for the appellant"),
			CategoryOfCase:       models.Str("Civil Appeal"),
			Catchwords:           models.List("negligence"),
			SummaryOfFacts:       models.Str("The appellant sued.\nThe respondent denied."),
			Holding:              models.List("Appeal dismissed"),
			RatioDecidendi:       models.Str("Duty of care requires proximity."),
			CasesCited:           models.List("Donoghue v Stevenson"),
			BooksJournalsCited:   models.List("Winfield on Tort"),
			LegalRulesReferenced: models.List("Civil Procedure Rules, r 3"),
			DateOfJudgment:       models.Str("2023-01-10"),
		},
		VectorStoreID: "vs_1",
		FileID:        "file_1",
	}
}

func TestNormalizeAnalysisIsIdempotent(t *testing.T) {
	first := NormalizeAnalysis(testCitation, fullGenerated(), fixedNow)
	second := NormalizeAnalysis(first.DLCitationNo, first.Generated(), fixedNow.Add(time.Hour))

	assert.Equal(t, first.Analysis, second.Analysis)
	assert.Equal(t, first.AnalysisFields, second.AnalysisFields)
	assert.Equal(t, first.VectorStoreID, second.VectorStoreID)
	assert.Equal(t, first.VectorFileID, second.VectorFileID)
}

func TestNormalizeAnalysisOmitsMissingFields(t *testing.T) {
	g := &models.GeneratedAnalysis{AnalysisFields: models.AnalysisFields{
		SummaryOfFacts: models.Str("Facts here."),
		RatioDecidendi: models.Str("The ratio."),
		Commentary:     models.Str("   "),
		Coram:          models.List("", " "),
	}}

	a := NormalizeAnalysis(testCitation, g, fixedNow)

	want := "## Summary of Facts\n\nFacts here.\n\n## Ratio Decidendi\n\nThe ratio.\n"
	assert.Equal(t, want, a.Analysis)
	assert.NotContains(t, a.Analysis, "Holding")
	assert.Equal(t, 2, strings.Count(a.Analysis, "## "))
	assert.Nil(t, a.Commentary)
	assert.True(t, a.Coram.IsZero())
}

func TestNormalizeAnalysisSectionOrder(t *testing.T) {
	a := NormalizeAnalysis(testCitation, fullGenerated(), fixedNow)

	order := []string{
		"## Court", "## Date of Judgment", "## Coram", "## Counsel",
		"## Category of Case", "## Catchwords", "## Summary of Facts",
		"## Holding", "## Ratio Decidendi", "## Cases Cited",
		"## Legal Rules Referenced", "## Books and Journals Cited", "## Commentary",
	}
	last := -1
	for _, heading := range order {
		idx := strings.Index(a.Analysis, heading+"\n")
		require.NotEqual(t, -1, idx, "missing %s", heading)
		assert.Greater(t, idx, last, "%s out of order", heading)
		last = idx
	}
	assert.Contains(t, a.Analysis, "## Coram\n\n- Justice A\n- Justice B\n")
	assert.NotContains(t, a.Analysis, "## Location")
}

func TestNormalizeAnalysisCopiesProvenance(t *testing.T) {
	a := NormalizeAnalysis(" "+testCitation+" ", fullGenerated(), fixedNow)

	assert.Equal(t, testCitation, a.DLCitationNo)
	assert.Equal(t, "vs_1", models.Deref(a.VectorStoreID))
	assert.Equal(t, "file_1", models.Deref(a.VectorFileID))
	require.NotNil(t, a.CreatedAt)
	assert.True(t, a.CreatedAt.Equal(fixedNow))
	assert.Nil(t, a.UpdatedAt)
	assert.Equal(t, "Supreme Court", models.Deref(a.Court))
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	g := fullGenerated()
	NormalizeAnalysis(testCitation, g, fixedNow)
	assert.Equal(t, "  Supreme Court ", *g.Court)
	assert.Len(t, g.Coram.Items, 3)
}

func TestRenderMalformedListKeepsRaw(t *testing.T) {
	broken, _ := models.DecodeList(`["A", `)
	md := RenderAnalysis(models.AnalysisFields{Coram: broken})
	assert.Equal(t, "## Coram\n\n[\"A\",\n", md)
}

func TestNormalizeDigest(t *testing.T) {
	g := &models.GeneratedDigest{
		DigestFields: models.DigestFields{
			Citations:          models.List("[2019] 1 AC 1"),
			Holding:            models.Str("Allowed"),
			Facts:              models.Str("Facts."),
			Issues:             models.List("Issue one", "Issue two"),
			DissentingOpinions: models.List("Justice C"),
		},
		VectorStoreID: "vs_1",
	}

	d := NormalizeDigest(testCitation, g, fixedNow)
	want := "## Facts\n\nFacts.\n\n" +
		"## Issues\n\n- Issue one\n- Issue two\n\n" +
		"## Holding\n\nAllowed\n\n" +
		"## Dissenting Opinions\n\n- Justice C\n\n" +
		"## Citations\n\n- [2019] 1 AC 1\n"
	assert.Equal(t, want, d.Digest)
	assert.Equal(t, "vs_1", models.Deref(d.VectorStoreID))

	again := NormalizeDigest(testCitation, d.Generated(), fixedNow)
	assert.Equal(t, d.Digest, again.Digest)
}

func TestRenderEmpty(t *testing.T) {
	assert.Empty(t, RenderAnalysis(models.AnalysisFields{}))
}
