package domain

import (
	"crypto/sha1" //nolint:gosec // non-cryptographic content key
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
)

// Domain contains core models shared by the driver and publishers.

// AbsentMarker is rendered for fields that are missing or null.
const AbsentMarker = "None"

// Record is a single JSON object returned by a list endpoint. Fields are
// optional; nothing is validated.
type Record map[string]any

// Text renders field for display, falling back to AbsentMarker.
func (r Record) Text(field string) string {
	v, ok := r[field]
	if !ok || v == nil {
		return AbsentMarker
	}
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		raw, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(raw)
	}
}

// ContentKey returns a stable digest of the record's JSON form. Map keys are
// marshalled in sorted order, so equal records share a key.
func (r Record) ContentKey() string {
	raw, err := json.Marshal(map[string]any(r))
	if err != nil {
		raw = []byte(fmt.Sprint(map[string]any(r)))
	}
	sum := sha1.Sum(raw) //nolint:gosec // non-cryptographic content key
	return hex.EncodeToString(sum[:])
}
