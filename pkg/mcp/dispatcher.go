package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/samvad-hq/mcp-inventory-client/pkg/httpclient"
)

const contentTypeJSON = "application/json"

// Doer sends one MCP call and decodes its JSON response.
type Doer interface {
	Dispatch(ctx context.Context, method, path string, payload any) (Document, error)
}

// Dispatcher issues requests against a fixed base address.
type Dispatcher struct {
	baseURL string
	client  httpclient.Client
	log     Logger
}

// NewDispatcher builds a dispatcher. The base URL is used verbatim: paths are
// appended to it without any slash normalization.
func NewDispatcher(baseURL string, client httpclient.Client, log Logger) *Dispatcher {
	if client == nil {
		client = httpclient.NewRestyClient(30 * time.Second)
	}
	return &Dispatcher{
		baseURL: baseURL,
		client:  client,
		log:     ensureLogger(log),
	}
}

// BaseURL returns the configured base address.
func (d *Dispatcher) BaseURL() string { return d.baseURL }

// Dispatch sends exactly one request and returns the decoded response body.
// The payload is encoded only for POST and PATCH. Failures are logged once
// and returned as *RequestFailure; unknown verbs return ErrUnsupportedMethod
// without touching the network.
func (d *Dispatcher) Dispatch(ctx context.Context, method, path string, payload any) (Document, error) {
	verb, withBody, err := normalizeMethod(method)
	if err != nil {
		return Document{}, err
	}

	req := httpclient.Request{
		Method:  verb,
		URL:     d.baseURL + path,
		Headers: map[string]string{"Content-Type": contentTypeJSON},
	}
	if withBody && payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return Document{}, d.fail(&RequestFailure{Method: verb, Path: path, Kind: KindEncode, Err: err})
		}
		req.Body = body
	}

	start := time.Now()
	resp, err := d.client.Do(ctx, req)
	if err != nil {
		return Document{}, d.fail(&RequestFailure{Method: verb, Path: path, Kind: KindTransport, Err: err})
	}

	body := resp.Body()
	if resp.StatusCode() >= http.StatusBadRequest {
		f := &RequestFailure{
			Method:     verb,
			Path:       path,
			Kind:       KindStatus,
			StatusCode: resp.StatusCode(),
			Status:     resp.Status(),
		}
		if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 && json.Valid(trimmed) {
			f.Detail = append(json.RawMessage(nil), trimmed...)
		} else {
			f.Text = string(body)
		}
		return Document{}, d.fail(f)
	}

	if resp.StatusCode() == http.StatusNoContent && len(bytes.TrimSpace(body)) == 0 {
		return Document{}, nil
	}

	doc, err := NewDocument(body)
	if err != nil {
		return Document{}, d.fail(&RequestFailure{
			Method:     verb,
			Path:       path,
			Kind:       KindDecode,
			StatusCode: resp.StatusCode(),
			Status:     resp.Status(),
			Text:       string(body),
			Err:        err,
		})
	}

	d.log.DebugObj("mcp request completed", "mcp_request", map[string]any{
		"method":      verb,
		"path":        path,
		"status_code": resp.StatusCode(),
		"elapsed_ms":  time.Since(start).Milliseconds(),
	})
	return doc, nil
}

// fail emits the diagnostic line for a failed call and hands f back.
func (d *Dispatcher) fail(f *RequestFailure) error {
	fields := map[string]any{
		"method": f.Method,
		"path":   f.Path,
		"url":    d.baseURL + f.Path,
		"kind":   f.Kind.String(),
		"error":  f.Error(),
	}
	if f.StatusCode != 0 {
		fields["status_code"] = f.StatusCode
		fields["status"] = f.Status
	}
	if f.HasDetail() {
		fields["error_details"] = f.Detail
	} else if f.Text != "" {
		fields["response_text"] = bodySummary(f.Text)
	}
	d.log.ErrorObj(fmt.Sprintf("error calling MCP API (%s %s)", f.Method, f.Path), "mcp_request_error", fields)
	return f
}

// normalizeMethod maps a case-insensitive verb to its canonical form and
// reports whether it carries a body.
func normalizeMethod(method string) (string, bool, error) {
	switch verb := strings.ToUpper(strings.TrimSpace(method)); verb {
	case http.MethodGet, http.MethodDelete:
		return verb, false, nil
	case http.MethodPost, http.MethodPatch:
		return verb, true, nil
	default:
		return "", false, fmt.Errorf("%w: %q", ErrUnsupportedMethod, method)
	}
}
