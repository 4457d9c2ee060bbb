package repository

import (
	"encoding/json"
	"fmt"

	"lexportal/models"

	"go.uber.org/zap"
)

// wireRecord flattens v into the persistence API's record shape: list fields
// are replaced by their JSON-encoded string form.
func wireRecord(v any, lists []models.NamedList) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}

	record := make(map[string]any)
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to flatten record: %w", err)
	}

	for _, l := range lists {
		if l.Field.IsZero() {
			delete(record, l.Name)
			continue
		}
		record[l.Name] = l.Field.Wire()
	}
	return record, nil
}

// decodeRecord unmarshals data into dst and logs every list field that could
// not be decoded. Malformed fields keep their raw form and do not fail the decode.
func decodeRecord(logger *zap.Logger, citation string, data json.RawMessage, dst any, lists []models.NamedList) error {
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to decode record: %w", err)
	}
	for _, l := range lists {
		if l.Field.Malformed() {
			logger.Warn("list field left undecoded",
				zap.String("citation", citation),
				zap.String("field", l.Name),
				zap.Error(l.Field.Err()))
		}
	}
	return nil
}
