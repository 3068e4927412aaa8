package mcp

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestRecordsHandlesShapes(t *testing.T) {
	cases := []struct {
		name      string
		body      string
		wantCount int
		wantWell  bool
	}{
		{"list", `{"value":[{"displayName":"Alice"},{"displayName":"Bob"}]}`, 2, true},
		{"empty list", `{"value":[]}`, 0, true},
		{"missing field", `{"other":1}`, 0, true},
		{"null field", `{"value":null}`, 0, true},
		{"object field", `{"value":{"displayName":"Alice"}}`, 0, false},
		{"scalar field", `{"value":"x"}`, 0, false},
		{"top-level array", `[{"displayName":"Alice"}]`, 0, false},
		{"non-object items", `{"value":[1,{"a":"b"}]}`, 2, true},
	}
	for _, tc := range cases {
		doc, err := NewDocument([]byte(tc.body))
		if err != nil {
			t.Fatalf("%s: NewDocument: %v", tc.name, err)
		}
		recs, well := doc.Records("value")
		if len(recs) != tc.wantCount || well != tc.wantWell {
			t.Fatalf("%s: got %d records well=%v, want %d well=%v", tc.name, len(recs), well, tc.wantCount, tc.wantWell)
		}
	}
}

func TestIndentPreservesKeyOrder(t *testing.T) {
	doc, err := NewDocument([]byte(`{"status":"ok","b":1,"a":[true]}`))
	if err != nil {
		t.Fatalf("NewDocument: %v", err)
	}
	want := "{\n  \"status\": \"ok\",\n  \"b\": 1,\n  \"a\": [\n    true\n  ]\n}"
	if got := doc.Indent(); got != want {
		t.Fatalf("Indent() =\n%s\nwant\n%s", got, want)
	}
}

func TestNewDocumentRejectsTrailingData(t *testing.T) {
	if _, err := NewDocument([]byte(`{"a":1} {"b":2}`)); err == nil {
		t.Fatalf("expected error for trailing data")
	}
	if _, err := NewDocument(nil); err == nil {
		t.Fatalf("expected error for empty body")
	}
}

func TestBodySummary(t *testing.T) {
	if got := bodySummary("  "); got != "<empty>" {
		t.Fatalf("empty summary = %q", got)
	}
	if got := bodySummary("<html><body><h1> Not   Found </h1></body></html>"); got != "Not Found" {
		t.Fatalf("heading summary = %q", got)
	}
	long := make([]byte, maxSummaryLen+10)
	for i := range long {
		long[i] = 'x'
	}
	if got := bodySummary(string(long)); len(got) != maxSummaryLen+3 {
		t.Fatalf("expected truncated summary, got len %d", len(got))
	}
}

func TestBodySummaryCutsOnRuneBoundary(t *testing.T) {
	got := bodySummary("a" + strings.Repeat("é", 400))
	if !utf8.ValidString(got) {
		t.Fatalf("summary is not valid UTF-8: %q", got[len(got)-8:])
	}
	if !strings.HasSuffix(got, "é...") {
		t.Fatalf("expected whole rune before ellipsis, got tail %q", got[len(got)-8:])
	}
	if len(got) > maxSummaryLen+3 {
		t.Fatalf("summary too long: %d", len(got))
	}
}
