package models

import (
	"encoding/json"
)

// DigestFields holds the structured fields of a case digest
type DigestFields struct {
	Facts              *string   `json:"facts,omitempty"`
	Issues             ListField `json:"issues,omitzero"`
	Holding            *string   `json:"holding,omitempty"`
	ConcurringOpinions ListField `json:"concurring_opinions,omitzero"`
	DissentingOpinions ListField `json:"dissenting_opinions,omitzero"`
	Citations          ListField `json:"citations,omitzero"`
}

// Scalars returns the scalar fields keyed by wire name
func (f *DigestFields) Scalars() []NamedScalar {
	return []NamedScalar{
		{"facts", &f.Facts},
		{"holding", &f.Holding},
	}
}

// Lists returns the list fields keyed by wire name
func (f *DigestFields) Lists() []NamedList {
	return []NamedList{
		{"issues", &f.Issues},
		{"concurring_opinions", &f.ConcurringOpinions},
		{"dissenting_opinions", &f.DissentingOpinions},
		{"citations", &f.Citations},
	}
}

// Clean returns a copy with trimmed scalars and list items
func (f DigestFields) Clean() DigestFields {
	cleanScalars(f.Scalars())
	cleanLists(f.Lists())
	return f
}

// CaseDigest is a structured summary of a case keyed, like CaseAnalysis, by citation
type CaseDigest struct {
	DLCitationNo string `json:"dl_citation_no"`
	Digest       string `json:"digest"`

	DigestFields

	VectorStoreID *string    `json:"vector_store_id,omitempty"`
	CreatedAt     *Timestamp `json:"created_at,omitempty"`
	UpdatedAt     *Timestamp `json:"updated_at,omitempty"`
}

// Generated converts a stored digest back to the provider shape
func (d *CaseDigest) Generated() *GeneratedDigest {
	return &GeneratedDigest{
		DigestFields:  d.DigestFields,
		VectorStoreID: Deref(d.VectorStoreID),
	}
}

// GeneratedDigest is the validated AI provider response for a digest
type GeneratedDigest struct {
	DigestFields
	VectorStoreID string
}

// ParseGeneratedDigest validates the provider's digest payload
func ParseGeneratedDigest(data json.RawMessage) (*GeneratedDigest, error) {
	obj, err := decodeObject(data)
	if err != nil {
		return nil, err
	}

	g := &GeneratedDigest{}
	if err := parseFields(obj, g.Scalars(), g.Lists()); err != nil {
		return nil, err
	}
	if g.VectorStoreID, err = optionalString(obj, "vector_store_id"); err != nil {
		return nil, err
	}
	return g, nil
}
