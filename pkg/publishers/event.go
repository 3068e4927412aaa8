package publishers

import (
	"time"

	"github.com/google/uuid"
	"github.com/samvad-hq/mcp-inventory-client/internal/domain"
)

// Event is one listed record, published downstream as JSON.
type Event struct {
	ID          string        `json:"id"`
	RunID       string        `json:"run_id"`
	Resource    string        `json:"resource"`
	RecordKey   string        `json:"record_key"`
	Record      domain.Record `json:"record"`
	CollectedAt time.Time     `json:"collected_at"`
}

// NewEvent builds an Event for a record listed from resource during run runID.
func NewEvent(runID, resource string, rec domain.Record) Event {
	return Event{
		ID:          uuid.NewString(),
		RunID:       runID,
		Resource:    resource,
		RecordKey:   RecordKey(resource, rec),
		Record:      rec,
		CollectedAt: time.Now().UTC(),
	}
}

// RecordKey identifies a record's content within a resource.
func RecordKey(resource string, rec domain.Record) string {
	return resource + ":" + rec.ContentKey()
}

// attributes are attached as message attributes by the queue publishers.
func (e Event) attributes() map[string]string {
	return map[string]string{
		"resource": e.Resource,
		"run_id":   e.RunID,
	}
}
