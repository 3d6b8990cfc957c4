package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/brunoscheufler/inkwell/constants"
	"github.com/brunoscheufler/inkwell/kv"
	"github.com/brunoscheufler/inkwell/telemetry"
)

// restoreStats merges the counters saved by the previous run into collector.
// A corrupt value is dropped.
func restoreStats(ctx context.Context, storage kv.Storage, collector telemetry.StatsCollector, logger *slog.Logger) error {
	raw, ok, err := storage.Get(ctx, constants.StatsKey)
	if err != nil {
		return fmt.Errorf("failed to read stats: %w", err)
	}
	if !ok {
		return nil
	}

	var stats telemetry.Stats
	if err := json.Unmarshal(raw, &stats); err != nil {
		logger.Warn("Discarding corrupt stats", "error", err)
		if err := storage.Delete(ctx, constants.StatsKey); err != nil {
			return fmt.Errorf("failed to clear stats: %w", err)
		}
		return nil
	}

	collector.Import(stats)
	logger.Debug("Restored stats", "operations", len(stats.StoreOperations), "storageAccess", len(stats.StorageAccess))
	return nil
}

func persistStats(ctx context.Context, storage kv.Storage, collector telemetry.StatsCollector) error {
	raw, err := json.Marshal(collector.Export())
	if err != nil {
		return fmt.Errorf("failed to encode stats: %w", err)
	}
	if err := storage.Set(ctx, constants.StatsKey, raw); err != nil {
		return fmt.Errorf("failed to save stats: %w", err)
	}
	return nil
}
