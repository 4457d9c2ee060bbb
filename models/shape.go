package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ShapeError reports an AI provider payload that does not match the expected schema
type ShapeError struct {
	Field  string
	Reason string
}

func (e *ShapeError) Error() string {
	if e.Field == "" {
		return "invalid payload: " + e.Reason
	}
	return fmt.Sprintf("invalid payload field %q: %s", e.Field, e.Reason)
}

// decodeObject requires raw to be a JSON object
func decodeObject(raw json.RawMessage) (map[string]json.RawMessage, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, &ShapeError{Reason: "data is missing"}
	}
	if raw[0] != '{' {
		return nil, &ShapeError{Reason: "data is not an object"}
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, &ShapeError{Reason: err.Error()}
	}
	return obj, nil
}

// parseFields fills scalars and lists from obj, rejecting values of the wrong shape
func parseFields(obj map[string]json.RawMessage, scalars []NamedScalar, lists []NamedList) error {
	for _, s := range scalars {
		raw, ok := obj[s.Name]
		if !ok {
			continue
		}
		v, err := scalarValue(raw)
		if err != nil {
			return &ShapeError{Field: s.Name, Reason: err.Error()}
		}
		*s.Field = v
	}
	for _, l := range lists {
		raw, ok := obj[l.Name]
		if !ok {
			continue
		}
		v, err := listValue(raw)
		if err != nil {
			return &ShapeError{Field: l.Name, Reason: err.Error()}
		}
		*l.Field = v
	}
	return nil
}

func scalarValue(raw json.RawMessage) (*string, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		return Str(val), nil
	case float64, bool:
		return Str(string(bytes.TrimSpace(raw))), nil
	default:
		return nil, fmt.Errorf("got %T, want string", v)
	}
}

// listValue accepts an array of scalars, a JSON-encoded array string, or a
// bare string which becomes a single item.
func listValue(raw json.RawMessage) (ListField, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return ListField{}, err
	}
	switch val := v.(type) {
	case nil:
		return ListField{}, nil
	case []any:
		items, err := listItems(val)
		if err != nil {
			return ListField{}, err
		}
		return ListField{Items: items}, nil
	case string:
		if strings.HasPrefix(strings.TrimSpace(val), "[") {
			l, err := DecodeList(val)
			if err == nil {
				return l, nil
			}
		}
		return List(val), nil
	default:
		return ListField{}, fmt.Errorf("got %T, want array of strings", v)
	}
}

// optionalString decodes an identifier that may be absent, null or a string
func optionalString(obj map[string]json.RawMessage, name string) (string, error) {
	raw, ok := obj[name]
	if !ok {
		return "", nil
	}
	v, err := scalarValue(raw)
	if err != nil {
		return "", &ShapeError{Field: name, Reason: err.Error()}
	}
	return strings.TrimSpace(Deref(v)), nil
}

func cleanScalars(scalars []NamedScalar) {
	for _, s := range scalars {
		if *s.Field != nil {
			*s.Field = Str(strings.TrimSpace(**s.Field))
		}
	}
}

func cleanLists(lists []NamedList) {
	for _, l := range lists {
		*l.Field = l.Field.Clean()
	}
}

// Timestamp is a time that tolerates the formats the persistence API emits
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// NewTimestamp wraps t
func NewTimestamp(t time.Time) *Timestamp {
	return &Timestamp{Time: t}
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

// UnmarshalJSON leaves the zero time for values it cannot parse
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return nil
}
