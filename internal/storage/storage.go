// Package storage remembers which snapshot records were already published.
package storage

import (
	"fmt"
	"strings"
	"time"
)

// Store tracks published record keys.
type Store interface {
	Close() error
	SeenRecord(key string) (bool, error)
	MarkRecords(keys ...string) error
}

// Options controls retention for concrete store implementations.
type Options struct {
	RecordTTL       time.Duration
	CleanupInterval time.Duration
}

const (
	TypeNone  = "none"
	TypeBBolt = "bbolt"

	defaultRecordTTL       = 5 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	opts = normalizeOptions(opts)

	switch strings.TrimSpace(strings.ToLower(typ)) {
	case "", TypeNone, "disabled":
		return noopStore{}, nil
	case TypeBBolt:
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		store, err := openBolt(path, opts)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.RecordTTL <= 0 {
		opts.RecordTTL = defaultRecordTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

// noopStore never remembers anything, so every record counts as new.
type noopStore struct{}

func (noopStore) Close() error                    { return nil }
func (noopStore) SeenRecord(string) (bool, error) { return false, nil }
func (noopStore) MarkRecords(...string) error     { return nil }
