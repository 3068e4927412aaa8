package snapshot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/samvad-hq/mcp-inventory-client/internal/domain"
	"github.com/samvad-hq/mcp-inventory-client/pkg/publishers"
)

// fakePublisher records published events and can reject selected resources.
type fakePublisher struct {
	mu      sync.Mutex
	events  []publishers.Event
	failFor string
}

func (f *fakePublisher) Publish(_ context.Context, evt publishers.Event) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, evt)
	if f.failFor != "" && evt.Record.Text("displayName") == f.failFor {
		return 0, errors.New("boom")
	}
	return 1, nil
}

// fakeDeduper tracks seen keys.
type fakeDeduper struct {
	seen    map[string]bool
	failKey string
}

func (f *fakeDeduper) SeenRecord(key string) (bool, error) {
	if key == f.failKey {
		return false, errors.New("lookup failed")
	}
	return f.seen[key], nil
}

func (f *fakeDeduper) MarkRecords(keys ...string) error {
	if f.seen == nil {
		f.seen = make(map[string]bool)
	}
	for _, k := range keys {
		f.seen[k] = true
	}
	return nil
}

func TestSinkPublishesNewRecordsOnce(t *testing.T) {
	pub := &fakePublisher{}
	dedupe := &fakeDeduper{}
	sink := NewSink("run-1", pub, dedupe, nil)
	records := []domain.Record{{"displayName": "Alice"}, {"displayName": "Bob"}}

	if err := sink.Publish(context.Background(), "users", records); err != nil {
		t.Fatalf("first Publish: %v", err)
	}
	if len(pub.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(pub.events))
	}
	if pub.events[0].RunID != "run-1" || pub.events[0].Resource != "users" {
		t.Fatalf("unexpected event %+v", pub.events[0])
	}

	records = append(records, domain.Record{"displayName": "Carol"})
	if err := sink.Publish(context.Background(), "users", records); err != nil {
		t.Fatalf("second Publish: %v", err)
	}
	if len(pub.events) != 3 || pub.events[2].Record.Text("displayName") != "Carol" {
		t.Fatalf("expected only Carol to be republished, got %d events", len(pub.events))
	}
}

func TestSinkPublishesIdenticalRecordsInOneListOnce(t *testing.T) {
	for name, dedupe := range map[string]Deduper{"store": &fakeDeduper{}, "no store": nil} {
		pub := &fakePublisher{}
		sink := NewSink("run-1", pub, dedupe, nil)

		err := sink.Publish(context.Background(), "users", []domain.Record{{"displayName": "A"}, {"displayName": "A"}})
		if err != nil {
			t.Fatalf("%s: Publish: %v", name, err)
		}
		if len(pub.events) != 1 {
			t.Fatalf("%s: expected 1 event for identical records, got %d", name, len(pub.events))
		}
	}
}

func TestSinkDoesNotMarkFailedDeliveries(t *testing.T) {
	pub := &fakePublisher{failFor: "Bob"}
	dedupe := &fakeDeduper{}
	sink := NewSink("run-1", pub, dedupe, nil)

	err := sink.Publish(context.Background(), "users", []domain.Record{{"displayName": "Alice"}, {"displayName": "Bob"}})
	if err == nil || !strings.Contains(err.Error(), "users:") {
		t.Fatalf("expected error naming the record key, got %v", err)
	}
	if !dedupe.seen[publishers.RecordKey("users", domain.Record{"displayName": "Alice"})] {
		t.Fatalf("delivered record must be marked")
	}
	if dedupe.seen[publishers.RecordKey("users", domain.Record{"displayName": "Bob"})] {
		t.Fatalf("failed record must not be marked")
	}
}

func TestSinkKeepsRecordsOnLookupError(t *testing.T) {
	rec := domain.Record{"displayName": "Alice"}
	dedupe := &fakeDeduper{failKey: publishers.RecordKey("users", rec)}
	sink := NewSink("run-1", &fakePublisher{}, dedupe, nil)

	if got := sink.filterNew("users", []domain.Record{rec}); len(got) != 1 {
		t.Fatalf("expected record kept on lookup error, got %d", len(got))
	}
}

func TestNilSinkIsNoop(t *testing.T) {
	var sink *Sink
	if err := sink.Publish(context.Background(), "users", []domain.Record{{}}); err != nil {
		t.Fatalf("nil sink Publish: %v", err)
	}
}
