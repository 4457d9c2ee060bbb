package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrDecodeFailed marks a list field whose wire value could not be decoded
var ErrDecodeFailed = errors.New("failed to decode list field")

// ListField represents a list-typed record field.
// The persistence API carries these as JSON-encoded strings inside an
// otherwise flat record; the AI provider sends plain JSON arrays.
type ListField struct {
	Items []string
	// Raw holds the undecoded wire value when decoding failed
	Raw string

	decodeErr error
}

// List builds a ListField from items
func List(items ...string) ListField {
	return ListField{Items: items}
}

// Malformed reports whether the wire value could not be decoded.
// A malformed field keeps its raw string form in Raw.
func (l ListField) Malformed() bool {
	return l.decodeErr != nil
}

// Err returns the decode error, if any
func (l ListField) Err() error {
	return l.decodeErr
}

// IsZero reports whether the field is absent
func (l ListField) IsZero() bool {
	return len(l.Items) == 0 && !l.Malformed()
}

// Clean trims every item and drops blank ones. Malformed fields are returned unchanged.
func (l ListField) Clean() ListField {
	if l.Malformed() {
		return l
	}
	var items []string
	for _, item := range l.Items {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return ListField{Items: items}
}

// Wire returns the JSON-encoded string form sent to the persistence API.
// Malformed fields are sent back exactly as they were received.
func (l ListField) Wire() string {
	if l.Malformed() {
		return l.Raw
	}
	return EncodeList(l.Items)
}

// EncodeList encodes items as JSON array text. A nil list encodes as "[]".
func EncodeList(items []string) string {
	if items == nil {
		items = []string{}
	}
	data, _ := json.Marshal(items)
	return string(data)
}

// DecodeList decodes a JSON-encoded list string.
// It never panics: on malformed input it returns a ListField carrying the raw
// string (Malformed reports true) together with an error wrapping ErrDecodeFailed.
func DecodeList(s string) (ListField, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" || trimmed == "null" {
		return ListField{}, nil
	}

	var values []any
	if err := json.Unmarshal([]byte(trimmed), &values); err != nil {
		return malformedList(s, err)
	}

	items, err := listItems(values)
	if err != nil {
		return malformedList(s, err)
	}
	return ListField{Items: items}, nil
}

func malformedList(raw string, cause error) (ListField, error) {
	err := fmt.Errorf("%w: %v", ErrDecodeFailed, cause)
	return ListField{Raw: raw, decodeErr: err}, err
}

// listItems converts decoded JSON array elements into strings.
// Scalars are stringified, nulls skipped, nested values rejected.
func listItems(values []any) ([]string, error) {
	items := make([]string, 0, len(values))
	for i, v := range values {
		switch val := v.(type) {
		case nil:
			continue
		case string:
			items = append(items, val)
		case float64:
			items = append(items, strconv.FormatFloat(val, 'f', -1, 64))
		case bool:
			items = append(items, strconv.FormatBool(val))
		default:
			return nil, fmt.Errorf("element %d is %T, want string", i, v)
		}
	}
	return items, nil
}

// MarshalJSON emits a JSON array, or the raw string when the field is malformed
func (l ListField) MarshalJSON() ([]byte, error) {
	if l.Malformed() {
		return json.Marshal(l.Raw)
	}
	if l.Items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.Items)
}

// UnmarshalJSON accepts a JSON array, a JSON-encoded array string, or null.
// It does not fail the enclosing record: undecodable values are kept raw.
func (l *ListField) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*l = ListField{}
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*l, _ = malformedList(string(data), err)
			return nil
		}
		*l, _ = DecodeList(s)
	case data[0] == '[':
		*l, _ = DecodeList(string(data))
	default:
		*l, _ = malformedList(string(data), fmt.Errorf("unexpected JSON value %.20q", data))
	}
	return nil
}

// NamedList pairs a list field with its wire name
type NamedList struct {
	Name  string
	Field *ListField
}

// NamedScalar pairs an optional scalar field with its wire name
type NamedScalar struct {
	Name  string
	Field **string
}

// Str returns a pointer to s, or nil when s is blank
func Str(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or ""
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
