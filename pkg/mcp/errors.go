package mcp

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnsupportedMethod is returned, before any network I/O, for verbs other
// than GET, POST, PATCH and DELETE.
var ErrUnsupportedMethod = errors.New("unsupported http method")

// FailureKind classifies a RequestFailure.
type FailureKind int

const (
	// KindTransport covers connection, DNS and timeout errors.
	KindTransport FailureKind = iota + 1
	// KindStatus is a 4xx/5xx response.
	KindStatus
	// KindDecode is a success response whose body is not JSON.
	KindDecode
	// KindEncode is a payload that could not be serialized.
	KindEncode
)

func (k FailureKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	case KindDecode:
		return "decode"
	case KindEncode:
		return "encode"
	default:
		return "unknown"
	}
}

// RequestFailure is the single failure signal of Dispatch for anything that
// went wrong once the verb was accepted.
type RequestFailure struct {
	Method string
	Path   string
	Kind   FailureKind

	// StatusCode and Status are set when a response was received.
	StatusCode int
	Status     string

	// Detail holds the response body when it is valid JSON.
	Detail json.RawMessage
	// Text holds the raw response body when it is not JSON.
	Text string

	Err error
}

func (f *RequestFailure) Error() string {
	call := fmt.Sprintf("%s %s", f.Method, f.Path)
	switch f.Kind {
	case KindStatus:
		if f.HasDetail() {
			return fmt.Sprintf("mcp request %s: status %d: %s", call, f.StatusCode, compactJSON(f.Detail))
		}
		return fmt.Sprintf("mcp request %s: status %d: %s", call, f.StatusCode, bodySummary(f.Text))
	case KindDecode:
		return fmt.Sprintf("mcp request %s: decode response: %v", call, f.Err)
	case KindEncode:
		return fmt.Sprintf("mcp request %s: encode payload: %v", call, f.Err)
	default:
		return fmt.Sprintf("mcp request %s: %v", call, f.Err)
	}
}

func (f *RequestFailure) Unwrap() error { return f.Err }

// HasDetail reports whether the remote service returned a JSON error body.
func (f *RequestFailure) HasDetail() bool { return len(f.Detail) > 0 }

// AsRequestFailure extracts a RequestFailure from err, if present.
func AsRequestFailure(err error) (*RequestFailure, bool) {
	var rf *RequestFailure
	if errors.As(err, &rf) {
		return rf, true
	}
	return nil, false
}

func compactJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
