// Package inventory runs the fixed MCP query sequence and renders each result
// as human-readable lines.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/samvad-hq/mcp-inventory-client/internal/domain"
	"github.com/samvad-hq/mcp-inventory-client/internal/logger"
	"github.com/samvad-hq/mcp-inventory-client/pkg/mcp"
)

// ErrAlreadyRunning is returned when Run is called while a pass is in flight.
var ErrAlreadyRunning = errors.New("inventory run already in progress")

// RecordSink receives the records of each successful list step.
type RecordSink interface {
	Publish(ctx context.Context, resource string, records []domain.Record) error
}

// Runner drives health, users, devices and policies through the dispatcher.
type Runner struct {
	client  *mcp.Client
	out     io.Writer
	log     logger.Logger
	sink    RecordSink
	heading *color.Color

	mu      sync.Mutex
	state   State
	current Step
}

// Option customizes a Runner.
type Option func(*Runner)

// WithSink forwards listed records to sink.
func WithSink(sink RecordSink) Option {
	return func(r *Runner) { r.sink = sink }
}

// WithLogger sets the diagnostics logger.
func WithLogger(log logger.Logger) Option {
	return func(r *Runner) { r.log = logger.Ensure(log) }
}

// NewRunner builds a driver that writes its transcript to out.
func NewRunner(d mcp.Doer, out io.Writer, opts ...Option) *Runner {
	if out == nil {
		out = io.Discard
	}
	r := &Runner{
		client:  mcp.NewClient(d),
		out:     out,
		log:     logger.NopLogger{},
		heading: color.New(color.FgCyan, color.Bold),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State returns the current lifecycle state and, while running, the step.
func (r *Runner) State() (State, Step) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state, r.current
}

// Run executes the sequence once. The first failing step aborts the rest and
// its error is returned unchanged; lines already written stay written.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	r.mu.Lock()
	if r.state == StateRunning {
		r.mu.Unlock()
		return Result{State: StateRunning}, ErrAlreadyRunning
	}
	r.state = StateRunning
	r.mu.Unlock()

	res := Result{Counts: make(map[Step]int, 3)}
	steps := []struct {
		step Step
		run  func(context.Context, *Result) error
	}{
		{StepHealth, r.health},
		{StepUsers, r.users},
		{StepDevices, r.devices},
		{StepPolicies, r.policies},
	}

	for i, s := range steps {
		r.enter(s.step)
		if i > 0 {
			fmt.Fprintln(r.out)
		}
		if err := s.run(ctx, &res); err != nil {
			res.State = StateFailed
			res.FailedStep = s.step
			r.finish(StateFailed)
			return res, fmt.Errorf("%s step: %w", s.step, err)
		}
		res.Completed = append(res.Completed, s.step)
	}

	res.State = StateCompleted
	r.finish(StateCompleted)
	return res, nil
}

func (r *Runner) enter(step Step) {
	r.mu.Lock()
	r.current = step
	r.mu.Unlock()
	r.log.DebugObj("inventory step started", "inventory_step", step.String())
}

func (r *Runner) finish(state State) {
	r.mu.Lock()
	r.state = state
	if state == StateCompleted {
		r.current = StepNone
	}
	r.mu.Unlock()
}

func (r *Runner) health(ctx context.Context, _ *Result) error {
	r.heading.Fprintln(r.out, "Checking MCP health...")
	doc, err := r.client.Health(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "MCP health: %s\n", doc.Indent())
	return nil
}

func (r *Runner) users(ctx context.Context, res *Result) error {
	r.heading.Fprintln(r.out, "Listing all users...")
	records, err := r.list(ctx, res, StepUsers, r.client.Users().List)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "Found %d users:\n", len(records))
	for _, u := range records {
		fmt.Fprintf(r.out, "- %s (%s)\n", u.Text("displayName"), u.Text("userPrincipalName"))
	}
	r.publish(ctx, mcp.PathUsers, records)
	return nil
}

func (r *Runner) devices(ctx context.Context, res *Result) error {
	r.heading.Fprintln(r.out, "Listing all devices...")
	records, err := r.list(ctx, res, StepDevices, r.client.Devices().List)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "Found %d devices:\n", len(records))
	for _, d := range records {
		fmt.Fprintf(r.out, "- %s | OS: %s %s | Compliance: %s\n",
			d.Text("deviceName"), d.Text("operatingSystem"), d.Text("osVersion"), d.Text("complianceState"))
	}
	r.publish(ctx, mcp.PathDevices, records)
	return nil
}

func (r *Runner) policies(ctx context.Context, res *Result) error {
	r.heading.Fprintln(r.out, "Listing all conditional access policies...")
	records, err := r.list(ctx, res, StepPolicies, r.client.ConditionalAccessPolicies().List)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "Found %d policies:\n", len(records))
	for _, p := range records {
		fmt.Fprintf(r.out, "- %s | State: %s\n", p.Text("displayName"), p.Text("state"))
	}
	r.publish(ctx, mcp.PathConditionalAccessPolicies, records)
	return nil
}

// list fetches a collection and extracts its value array. A response without
// a usable array counts as zero records.
func (r *Runner) list(ctx context.Context, res *Result, step Step, fetch func(context.Context) (mcp.Document, error)) ([]domain.Record, error) {
	doc, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	records, well := doc.Records("value")
	if !well {
		res.Malformed = append(res.Malformed, step)
		r.log.WarnObj("malformed response shape", "inventory_shape", map[string]any{
			"step": step.String(),
			"body": string(doc.Raw()),
		})
	}
	res.Counts[step] = len(records)
	return records, nil
}

func (r *Runner) publish(ctx context.Context, resource string, records []domain.Record) {
	if r.sink == nil || len(records) == 0 {
		return
	}
	resource = strings.TrimPrefix(resource, "/")
	if err := r.sink.Publish(ctx, resource, records); err != nil {
		r.log.ErrorObj("snapshot publish failed", "snapshot_error", map[string]any{
			"resource": resource,
			"error":    err.Error(),
		})
	}
}
