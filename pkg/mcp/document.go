package mcp

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"github.com/samvad-hq/mcp-inventory-client/internal/domain"
)

// Document is a decoded JSON response body. No schema is enforced; the raw
// bytes are kept so the body can be re-rendered without reordering keys.
type Document struct {
	raw   json.RawMessage
	value any
}

// NewDocument decodes body into a Document. Numbers are kept as json.Number.
func NewDocument(body []byte) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return Document{}, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Document{}, errors.New("unexpected data after top-level value")
	}
	return Document{raw: append(json.RawMessage(nil), bytes.TrimSpace(body)...), value: v}, nil
}

// Value returns the decoded value: map[string]any, []any, string,
// json.Number, bool or nil.
func (d Document) Value() any { return d.value }

// Raw returns the body the document was decoded from.
func (d Document) Raw() json.RawMessage { return d.raw }

// Empty reports whether the response carried no body.
func (d Document) Empty() bool { return len(d.raw) == 0 }

// Indent renders the document as two-space indented JSON.
func (d Document) Indent() string {
	if d.Empty() {
		return "null"
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, d.raw, "", "  "); err != nil {
		return string(d.raw)
	}
	return buf.String()
}

// Field returns a top-level object field.
func (d Document) Field(name string) (any, bool) {
	obj, ok := d.value.(map[string]any)
	if !ok {
		return nil, false
	}
	v, ok := obj[name]
	return v, ok
}

// Records returns the objects listed under field. A missing field yields no
// records and well=true. A document that is not an object, or a field that is
// not an array, yields no records and well=false. Array elements that are not
// objects become empty records so the count matches the array length.
func (d Document) Records(field string) (records []domain.Record, well bool) {
	if d.Empty() {
		return nil, true
	}
	obj, ok := d.value.(map[string]any)
	if !ok {
		return nil, false
	}
	raw, ok := obj[field]
	if !ok || raw == nil {
		return nil, true
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, false
	}
	records = make([]domain.Record, 0, len(items))
	for _, item := range items {
		rec, _ := item.(map[string]any)
		if rec == nil {
			rec = map[string]any{}
		}
		records = append(records, domain.Record(rec))
	}
	return records, true
}
