package inventory

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/samvad-hq/mcp-inventory-client/internal/domain"
	"github.com/samvad-hq/mcp-inventory-client/internal/mcptest"
	"github.com/samvad-hq/mcp-inventory-client/pkg/httpclient"
	"github.com/samvad-hq/mcp-inventory-client/pkg/mcp"
)

func init() {
	color.NoColor = true
}

type captureSink struct {
	calls map[string][]domain.Record
	err   error
}

func (c *captureSink) Publish(_ context.Context, resource string, records []domain.Record) error {
	if c.calls == nil {
		c.calls = make(map[string][]domain.Record)
	}
	c.calls[resource] = records
	return c.err
}

type warnLogger struct {
	warnings []string
	errors   []string
}

func (l *warnLogger) InfoObj(string, string, interface{})   {}
func (l *warnLogger) DebugObj(string, string, interface{})  {}
func (l *warnLogger) WarnObj(msg, _ string, _ interface{})  { l.warnings = append(l.warnings, msg) }
func (l *warnLogger) ErrorObj(msg, _ string, _ interface{}) { l.errors = append(l.errors, msg) }

func newDispatcher(baseURL string) *mcp.Dispatcher {
	return mcp.NewDispatcher(baseURL, httpclient.NewRestyClient(5*time.Second), nil)
}

func TestRunRendersEveryStep(t *testing.T) {
	srv := mcptest.NewHealthyServer(
		`{"value":[{"displayName":"Alice","userPrincipalName":"alice@x.com"}]}`,
		`{"value":[{"deviceName":"LT-1","operatingSystem":"Windows","osVersion":"11","complianceState":"compliant"}]}`,
		`{"value":[{"displayName":"Require MFA","state":"enabled"},{"displayName":"Block legacy"}]}`,
	)
	defer srv.Close()

	var out bytes.Buffer
	res, err := NewRunner(newDispatcher(srv.URL), &out).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Succeeded() || len(res.Completed) != 4 {
		t.Fatalf("unexpected result %+v", res)
	}

	want := strings.Join([]string{
		"Checking MCP health...",
		"MCP health: {",
		`  "status": "ok"`,
		"}",
		"",
		"Listing all users...",
		"Found 1 users:",
		"- Alice (alice@x.com)",
		"",
		"Listing all devices...",
		"Found 1 devices:",
		"- LT-1 | OS: Windows 11 | Compliance: compliant",
		"",
		"Listing all conditional access policies...",
		"Found 2 policies:",
		"- Require MFA | State: enabled",
		"- Block legacy | State: None",
		"",
	}, "\n")
	if out.String() != want {
		t.Fatalf("transcript mismatch:\n got: %q\nwant: %q", out.String(), want)
	}
	if res.Counts[StepPolicies] != 2 || res.Counts[StepUsers] != 1 {
		t.Fatalf("unexpected counts %+v", res.Counts)
	}
}

func TestRunHealthKeepsKeyOrder(t *testing.T) {
	srv := mcptest.NewHealthyServer("", "", "")
	defer srv.Close()
	srv.Set("/health", mcptest.JSON(http.StatusOK, `{"status":"ok","version":"1.0","checks":{"graph":true}}`))

	var out bytes.Buffer
	if _, err := NewRunner(newDispatcher(srv.URL), &out).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := "MCP health: {\n  \"status\": \"ok\",\n  \"version\": \"1.0\",\n  \"checks\": {\n    \"graph\": true\n  }\n}\n"
	if !strings.Contains(out.String(), want) {
		t.Fatalf("health block not preserved:\n%s", out.String())
	}
}

func TestRunEmptyListsComplete(t *testing.T) {
	srv := mcptest.NewHealthyServer("", "", "")
	defer srv.Close()

	var out bytes.Buffer
	res, err := NewRunner(newDispatcher(srv.URL), &out).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.State != StateCompleted {
		t.Fatalf("state = %s", res.State)
	}
	for _, line := range []string{"Found 0 users:", "Found 0 devices:", "Found 0 policies:"} {
		if !strings.Contains(out.String(), line) {
			t.Fatalf("missing %q in transcript:\n%s", line, out.String())
		}
	}
}

func TestRunAbortsOnDeviceFailure(t *testing.T) {
	srv := mcptest.NewHealthyServer("", "", "")
	defer srv.Close()
	srv.Set("/devices", mcptest.JSON(http.StatusInternalServerError, `{"error":"boom"}`))

	var out bytes.Buffer
	runner := NewRunner(newDispatcher(srv.URL), &out)
	res, err := runner.Run(context.Background())
	if err == nil {
		t.Fatalf("expected failure")
	}
	failure, ok := mcp.AsRequestFailure(err)
	if !ok {
		t.Fatalf("expected RequestFailure in chain, got %T: %v", err, err)
	}
	if failure.StatusCode != http.StatusInternalServerError || string(failure.Detail) != `{"error":"boom"}` {
		t.Fatalf("unexpected failure %+v", failure)
	}
	if res.State != StateFailed || res.FailedStep != StepDevices {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(res.Completed) != 2 {
		t.Fatalf("expected health and users completed, got %v", res.Completed)
	}
	if srv.Hits("/conditional-access-policies") != 0 {
		t.Fatalf("policies step must not run")
	}
	if strings.Contains(out.String(), "policies") {
		t.Fatalf("policies heading must not be printed:\n%s", out.String())
	}
	if state, step := runner.State(); state != StateFailed || step != StepDevices {
		t.Fatalf("runner state = %s/%s", state, step)
	}
}

func TestRunMalformedValueCountsZero(t *testing.T) {
	srv := mcptest.NewHealthyServer(`{"value":{"displayName":"Alice"}}`, "", "")
	defer srv.Close()

	log := &warnLogger{}
	var out bytes.Buffer
	res, err := NewRunner(newDispatcher(srv.URL), &out, WithLogger(log)).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), "Found 0 users:") {
		t.Fatalf("expected zero users:\n%s", out.String())
	}
	if len(res.Malformed) != 1 || res.Malformed[0] != StepUsers {
		t.Fatalf("expected users flagged malformed, got %v", res.Malformed)
	}
	if len(log.warnings) != 1 {
		t.Fatalf("expected one warning, got %v", log.warnings)
	}
}

func TestRunForwardsRecordsAndToleratesSinkErrors(t *testing.T) {
	srv := mcptest.NewHealthyServer(`{"value":[{"displayName":"Alice"}]}`, "", `{"value":[{"displayName":"P"}]}`)
	defer srv.Close()

	sink := &captureSink{err: errors.New("sink down")}
	log := &warnLogger{}
	res, err := NewRunner(newDispatcher(srv.URL), nil, WithSink(sink), WithLogger(log)).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Succeeded() {
		t.Fatalf("sink errors must not abort the run")
	}
	if len(sink.calls["users"]) != 1 || len(sink.calls["conditional-access-policies"]) != 1 {
		t.Fatalf("unexpected sink calls %v", sink.calls)
	}
	if _, ok := sink.calls["devices"]; ok {
		t.Fatalf("empty lists must not reach the sink")
	}
	if len(log.errors) != 2 {
		t.Fatalf("expected two logged sink errors, got %v", log.errors)
	}
}
