package service

import (
	"strings"
	"time"

	"lexportal/models"
)

// section is one rendered markdown heading with either a scalar or a list body
type section struct {
	title  string
	scalar *string
	list   *models.ListField
}

func scalarSection(title string, v *string) section { return section{title: title, scalar: v} }

func listSection(title string, v *models.ListField) section {
	return section{title: title, list: v}
}

// analysisSections lists analysis fields in display order: case information,
// judicial panel, representation, classification, case details, references,
// commentary.
func analysisSections(f *models.AnalysisFields) []section {
	return []section{
		scalarSection("Court", f.Court),
		scalarSection("Location", f.Location),
		scalarSection("Date of Judgment", f.DateOfJudgment),
		scalarSection("Type of Decision", f.TypeOfDecision),

		listSection("Coram", &f.Coram),
		scalarSection("Opinion By", f.OpinionBy),
		scalarSection("Nature of Vote", f.NatureOfVote),

		listSection("Counsel", &f.Counsel),

		scalarSection("Category of Case", f.CategoryOfCase),
		listSection("Area of Law", &f.AreaOfLaw),
		listSection("Subject Index", &f.SubjectIndex),
		listSection("Catchwords", &f.Catchwords),

		scalarSection("Summary of Facts", f.SummaryOfFacts),
		scalarSection("Procedural History", f.ProceduralHistory),
		listSection("Issues for Determination", &f.IssuesForDetermination),
		scalarSection("Legal Arguments", f.LegalArguments),
		listSection("Holding", &f.Holding),
		scalarSection("Ratio Decidendi", f.RatioDecidendi),
		scalarSection("Obiter Dictum", f.ObiterDictum),
		listSection("Important Quotes", &f.ImportantQuotes),
		scalarSection("Orders and Remedies", f.OrdersAndRemedies),

		listSection("Cases Cited", &f.CasesCited),
		listSection("Legal Rules Referenced", &f.LegalRulesReferenced),
		listSection("Books and Journals Cited", &f.BooksJournalsCited),

		scalarSection("Commentary", f.Commentary),
	}
}

func digestSections(f *models.DigestFields) []section {
	return []section{
		scalarSection("Facts", f.Facts),
		listSection("Issues", &f.Issues),
		scalarSection("Holding", f.Holding),
		listSection("Concurring Opinions", &f.ConcurringOpinions),
		listSection("Dissenting Opinions", &f.DissentingOpinions),
		listSection("Citations", &f.Citations),
	}
}

// RenderAnalysis renders the fields as markdown. Absent fields produce no section.
func RenderAnalysis(f models.AnalysisFields) string {
	return render(analysisSections(&f))
}

// RenderDigest renders the digest fields as markdown
func RenderDigest(f models.DigestFields) string {
	return render(digestSections(&f))
}

func render(sections []section) string {
	var b strings.Builder
	for _, s := range sections {
		body := s.body()
		if body == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("## ")
		b.WriteString(s.title)
		b.WriteString("\n\n")
		b.WriteString(body)
		b.WriteString("\n")
	}
	return b.String()
}

func (s section) body() string {
	if s.scalar != nil {
		return strings.TrimSpace(*s.scalar)
	}
	if s.list == nil {
		return ""
	}
	if s.list.Malformed() {
		return strings.TrimSpace(s.list.Raw)
	}

	var lines []string
	for _, item := range s.list.Items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		lines = append(lines, "- "+strings.ReplaceAll(item, "\n", "\n  "))
	}
	return strings.Join(lines, "\n")
}

// NormalizeAnalysis converts a provider response into the canonical stored
// shape. It is pure: now is stamped as created_at and nothing else varies.
func NormalizeAnalysis(citation string, g *models.GeneratedAnalysis, now time.Time) *models.CaseAnalysis {
	fields := g.AnalysisFields.Clean()
	return &models.CaseAnalysis{
		DLCitationNo:   strings.TrimSpace(citation),
		Analysis:       RenderAnalysis(fields),
		AnalysisFields: fields,
		VectorStoreID:  models.Str(g.VectorStoreID),
		VectorFileID:   models.Str(g.FileID),
		CreatedAt:      models.NewTimestamp(now),
	}
}

// NormalizeDigest converts a provider digest into the canonical stored shape
func NormalizeDigest(citation string, g *models.GeneratedDigest, now time.Time) *models.CaseDigest {
	fields := g.DigestFields.Clean()
	return &models.CaseDigest{
		DLCitationNo:  strings.TrimSpace(citation),
		Digest:        RenderDigest(fields),
		DigestFields:  fields,
		VectorStoreID: models.Str(g.VectorStoreID),
		CreatedAt:     models.NewTimestamp(now),
	}
}
