package utils

import (
	"encoding/json"
	"fmt"
)

// ToRawMessage marshals v once so publishers and storage writers can pass
// the encoded payload around without re-encoding it.
func ToRawMessage(v interface{}) (json.RawMessage, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal struct to JSON: %w", err)
	}
	return json.RawMessage(data), nil
}
