// Package snapshot forwards listed records to the configured publishers,
// skipping records already delivered in an earlier run.
package snapshot

import (
	"context"
	"errors"
	"fmt"

	"github.com/samvad-hq/mcp-inventory-client/internal/domain"
	"github.com/samvad-hq/mcp-inventory-client/internal/logger"
	"github.com/samvad-hq/mcp-inventory-client/pkg/publishers"
)

// EventPublisher delivers one event and reports how many sinks accepted it.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// Deduper remembers delivered record keys.
type Deduper interface {
	SeenRecord(key string) (bool, error)
	MarkRecords(keys ...string) error
}

// Sink publishes records and marks the ones that reached at least one publisher.
type Sink struct {
	runID     string
	publisher EventPublisher
	deduper   Deduper
	log       logger.Logger
}

// NewSink wires a sink for a single run.
func NewSink(runID string, pub EventPublisher, deduper Deduper, log logger.Logger) *Sink {
	return &Sink{
		runID:     runID,
		publisher: pub,
		deduper:   deduper,
		log:       logger.Ensure(log),
	}
}

// Publish emits one event per new record of resource.
func (s *Sink) Publish(ctx context.Context, resource string, records []domain.Record) error {
	if s == nil || s.publisher == nil || len(records) == 0 {
		return nil
	}

	fresh := s.filterNew(resource, records)

	var (
		errs      []error
		delivered []string
	)
	for _, rec := range fresh {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		evt := publishers.NewEvent(s.runID, resource, rec)
		n, err := s.publisher.Publish(ctx, evt)
		if err != nil {
			errs = append(errs, fmt.Errorf("publish %s: %w", evt.RecordKey, err))
		}
		if n > 0 {
			delivered = append(delivered, evt.RecordKey)
		}
	}

	if s.deduper != nil && len(delivered) > 0 {
		if err := s.deduper.MarkRecords(delivered...); err != nil {
			errs = append(errs, fmt.Errorf("mark delivered records: %w", err))
		}
	}

	s.log.InfoObj("snapshot published", "snapshot_result", map[string]any{
		"run_id":    s.runID,
		"resource":  resource,
		"listed":    len(records),
		"new":       len(fresh),
		"delivered": len(delivered),
	})
	return errors.Join(errs...)
}

// filterNew drops records already delivered and repeats within records.
// Lookup errors keep the record so it is published rather than lost.
func (s *Sink) filterNew(resource string, records []domain.Record) []domain.Record {
	out := make([]domain.Record, 0, len(records))
	accepted := make(map[string]struct{}, len(records))
	for _, rec := range records {
		key := publishers.RecordKey(resource, rec)
		if _, dup := accepted[key]; dup {
			continue
		}
		if s.deduper != nil {
			seen, err := s.deduper.SeenRecord(key)
			if err != nil {
				s.log.WarnObj("snapshot dedupe lookup failed", "snapshot_dedupe_error", map[string]any{
					"record_key": key,
					"error":      err.Error(),
				})
			} else if seen {
				continue
			}
		}
		accepted[key] = struct{}{}
		out = append(out, rec)
	}
	return out
}
