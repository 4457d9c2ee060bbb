package models

import (
	"bytes"
	"encoding/json"
	"errors"
)

// CaseRecord is a raw case as served by the persistence API.
// The typed fields are read leniently; the original payload is kept verbatim
// so it can be forwarded whole to the AI provider.
type CaseRecord struct {
	DLCitationNo   string `json:"dl_citation_no"`
	Title          string `json:"title,omitempty"`
	Court          string `json:"court,omitempty"`
	DateOfJudgment string `json:"date_of_judgment,omitempty"`
	Decision       string `json:"decision,omitempty"`
	// VectorStoreID is set when the case text is already indexed by the AI provider
	VectorStoreID string `json:"vector_store_id,omitempty"`

	raw json.RawMessage
}

// Payload returns the JSON body describing the case
func (c *CaseRecord) Payload() (json.RawMessage, error) {
	return json.Marshal(c)
}

func (c CaseRecord) MarshalJSON() ([]byte, error) {
	if len(c.raw) > 0 {
		return c.raw, nil
	}
	type plain CaseRecord
	return json.Marshal(plain(c))
}

func (c *CaseRecord) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return errors.New("case record must be a JSON object")
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}

	read := func(key string) string {
		var s string
		if raw, ok := obj[key]; ok {
			_ = json.Unmarshal(raw, &s)
		}
		return s
	}

	*c = CaseRecord{
		DLCitationNo:   read("dl_citation_no"),
		Title:          read("title"),
		Court:          read("court"),
		DateOfJudgment: read("date_of_judgment"),
		Decision:       read("decision"),
		VectorStoreID:  read("vector_store_id"),
		raw:            append(json.RawMessage(nil), data...),
	}
	return nil
}
