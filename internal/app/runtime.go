package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/samvad-hq/mcp-inventory-client/internal/config"
	"github.com/samvad-hq/mcp-inventory-client/internal/inventory"
	"github.com/samvad-hq/mcp-inventory-client/internal/logger"
	"github.com/samvad-hq/mcp-inventory-client/internal/snapshot"
	"github.com/samvad-hq/mcp-inventory-client/internal/storage"
	"github.com/samvad-hq/mcp-inventory-client/pkg/httpclient"
	"github.com/samvad-hq/mcp-inventory-client/pkg/mcp"
	"github.com/samvad-hq/mcp-inventory-client/pkg/publishers"
)

// Runtime wires the dispatcher, the query driver and the optional snapshot
// publishers for a single run of the client.
type Runtime struct {
	cfg    *config.Config
	runID  string
	runner *inventory.Runner
	fanout *publishers.Fanout
	store  storage.Store
	log    logger.Logger
}

// New builds a runtime that writes its transcript to out.
func New(ctx context.Context, cfg *config.Config, out io.Writer, log logger.Logger) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)
	if ctx == nil {
		ctx = context.Background()
	}

	rt := &Runtime{
		cfg:   cfg,
		runID: uuid.NewString(),
		log:   log,
	}

	dispatcher := mcp.NewDispatcher(cfg.BaseURL, httpclient.NewRestyClient(cfg.Timeout), log)
	opts := []inventory.Option{inventory.WithLogger(log)}

	if cfg.PublishingEnabled() {
		sink, err := rt.initPublishing(ctx)
		if err != nil {
			return nil, err
		}
		opts = append(opts, inventory.WithSink(sink))
	}

	rt.runner = inventory.NewRunner(dispatcher, out, opts...)
	return rt, nil
}

func (rt *Runtime) initPublishing(ctx context.Context) (*snapshot.Sink, error) {
	cfg, log := rt.cfg, rt.log

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabled := publisherReg.Enabled()
	if len(enabled) == 0 {
		return nil, fmt.Errorf("no publishers enabled in %s", cfg.PublishersFile)
	}

	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}
	rt.fanout = publishers.NewFanout(pubClients)

	summaries := make([]map[string]string, 0, len(enabled))
	for _, pubCfg := range enabled {
		summaries = append(summaries, map[string]string{"id": pubCfg.ID, "type": pubCfg.Type})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})

	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		RecordTTL:       cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		_ = rt.fanout.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	rt.store = store
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"record_ttl_seconds":       int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	return snapshot.NewSink(rt.runID, rt.fanout, store, log), nil
}

// RunID identifies this run in published events.
func (rt *Runtime) RunID() string { return rt.runID }

// Run performs the query sequence once.
func (rt *Runtime) Run(ctx context.Context) (inventory.Result, error) {
	if rt == nil || rt.runner == nil {
		return inventory.Result{}, fmt.Errorf("runtime is not initialized")
	}

	start := time.Now()
	rt.log.InfoObj("inventory run started", "run_meta", map[string]any{
		"run_id":   rt.runID,
		"base_url": rt.cfg.BaseURL,
	})
	res, err := rt.runner.Run(ctx)
	meta := map[string]any{
		"run_id":     rt.runID,
		"state":      res.State.String(),
		"elapsed_ms": time.Since(start).Milliseconds(),
	}
	if err != nil {
		meta["failed_step"] = res.FailedStep.String()
		rt.log.ErrorObj("inventory run failed", "run_meta", meta)
		return res, err
	}
	rt.log.InfoObj("inventory run completed", "run_meta", meta)
	return res, nil
}

// Close releases the publishers and the storage backend.
func (rt *Runtime) Close() error {
	if rt == nil {
		return nil
	}
	var errs []error
	if rt.fanout != nil {
		if err := rt.fanout.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close publishers: %w", err))
		}
	}
	if rt.store != nil {
		if err := rt.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close storage: %w", err))
		}
	}
	return errors.Join(errs...)
}
