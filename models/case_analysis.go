package models

import (
	"encoding/json"
)

// AnalysisFields holds the structured fields of a case analysis.
// Every field is optional and independently nullable.
type AnalysisFields struct {
	// Case information
	Court          *string `json:"court,omitempty"`
	Location       *string `json:"location,omitempty"`
	DateOfJudgment *string `json:"date_of_judgment,omitempty"`
	TypeOfDecision *string `json:"type_of_decision,omitempty"`

	// Judicial panel
	Coram        ListField `json:"coram,omitzero"`
	OpinionBy    *string   `json:"opinion_by,omitempty"`
	NatureOfVote *string   `json:"nature_of_vote,omitempty"`

	// Representation
	Counsel ListField `json:"counsel,omitzero"`

	// Classification
	CategoryOfCase *string   `json:"category_of_case,omitempty"`
	AreaOfLaw      ListField `json:"area_of_law,omitzero"`
	SubjectIndex   ListField `json:"subject_index,omitzero"`
	Catchwords     ListField `json:"catchwords,omitzero"`

	// Case details
	SummaryOfFacts         *string   `json:"summary_of_facts,omitempty"`
	ProceduralHistory      *string   `json:"procedural_history,omitempty"`
	IssuesForDetermination ListField `json:"issues_for_determination,omitzero"`
	LegalArguments         *string   `json:"legal_arguments,omitempty"`
	Holding                ListField `json:"holding,omitzero"`
	RatioDecidendi         *string   `json:"ratio_decidendi,omitempty"`
	ObiterDictum           *string   `json:"obiter_dictum,omitempty"`
	ImportantQuotes        ListField `json:"important_quotes,omitzero"`
	OrdersAndRemedies      *string   `json:"orders_and_remedies,omitempty"`

	// References
	CasesCited           ListField `json:"cases_cited,omitzero"`
	LegalRulesReferenced ListField `json:"legal_rules_referenced,omitzero"`
	BooksJournalsCited   ListField `json:"books_journals_cited,omitzero"`

	Commentary *string `json:"commentary,omitempty"`
}

// Scalars returns the scalar fields keyed by wire name
func (f *AnalysisFields) Scalars() []NamedScalar {
	return []NamedScalar{
		{"court", &f.Court},
		{"location", &f.Location},
		{"date_of_judgment", &f.DateOfJudgment},
		{"type_of_decision", &f.TypeOfDecision},
		{"opinion_by", &f.OpinionBy},
		{"nature_of_vote", &f.NatureOfVote},
		{"category_of_case", &f.CategoryOfCase},
		{"summary_of_facts", &f.SummaryOfFacts},
		{"procedural_history", &f.ProceduralHistory},
		{"legal_arguments", &f.LegalArguments},
		{"ratio_decidendi", &f.RatioDecidendi},
		{"obiter_dictum", &f.ObiterDictum},
		{"orders_and_remedies", &f.OrdersAndRemedies},
		{"commentary", &f.Commentary},
	}
}

// Lists returns the list fields keyed by wire name
func (f *AnalysisFields) Lists() []NamedList {
	return []NamedList{
		{"coram", &f.Coram},
		{"counsel", &f.Counsel},
		{"area_of_law", &f.AreaOfLaw},
		{"subject_index", &f.SubjectIndex},
		{"catchwords", &f.Catchwords},
		{"issues_for_determination", &f.IssuesForDetermination},
		{"holding", &f.Holding},
		{"important_quotes", &f.ImportantQuotes},
		{"cases_cited", &f.CasesCited},
		{"legal_rules_referenced", &f.LegalRulesReferenced},
		{"books_journals_cited", &f.BooksJournalsCited},
	}
}

// Clean returns a copy with trimmed scalars and list items; blank values are dropped
func (f AnalysisFields) Clean() AnalysisFields {
	cleanScalars(f.Scalars())
	cleanLists(f.Lists())
	return f
}

// CaseAnalysis is the canonical stored record for one case's AI analysis.
// DLCitationNo is the unique lookup key.
type CaseAnalysis struct {
	DLCitationNo string `json:"dl_citation_no"`
	Analysis     string `json:"analysis"`

	AnalysisFields

	VectorStoreID *string    `json:"vector_store_id,omitempty"`
	VectorFileID  *string    `json:"vector_file_id,omitempty"`
	CreatedAt     *Timestamp `json:"created_at,omitempty"`
	UpdatedAt     *Timestamp `json:"updated_at,omitempty"`
}

// Generated converts a stored analysis back to the provider shape so it can
// be normalized again.
func (a *CaseAnalysis) Generated() *GeneratedAnalysis {
	return &GeneratedAnalysis{
		AnalysisFields: a.AnalysisFields,
		VectorStoreID:  Deref(a.VectorStoreID),
		FileID:         Deref(a.VectorFileID),
	}
}

// GeneratedAnalysis is the validated AI provider response for an analysis
type GeneratedAnalysis struct {
	AnalysisFields
	VectorStoreID string
	FileID        string
}

// ParseGeneratedAnalysis validates the provider's data object.
// Any field of the wrong shape is rejected with a *ShapeError.
func ParseGeneratedAnalysis(data json.RawMessage) (*GeneratedAnalysis, error) {
	obj, err := decodeObject(data)
	if err != nil {
		return nil, err
	}

	g := &GeneratedAnalysis{}
	if err := parseFields(obj, g.Scalars(), g.Lists()); err != nil {
		return nil, err
	}
	if g.VectorStoreID, err = optionalString(obj, "vector_store_id"); err != nil {
		return nil, err
	}
	if g.FileID, err = optionalString(obj, "file_id"); err != nil {
		return nil, err
	}
	return g, nil
}
