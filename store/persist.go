package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/brunoscheufler/inkwell/kv"
)

// loadJSON decodes key into target. A missing key leaves target untouched.
// A value that does not decode is deleted and reported as absent.
func loadJSON(ctx context.Context, storage kv.Storage, key string, target any, logger *slog.Logger) (bool, error) {
	raw, ok, err := storage.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to load %s: %w", key, err)
	}
	if !ok {
		return false, nil
	}

	if err := json.Unmarshal(raw, target); err != nil {
		logger.Warn("Discarding corrupt persisted value", "key", key, "error", err)
		if delErr := storage.Delete(ctx, key); delErr != nil {
			return false, fmt.Errorf("failed to discard corrupt %s: %w", key, delErr)
		}
		return false, nil
	}

	return true, nil
}

func saveJSON(ctx context.Context, storage kv.Storage, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := storage.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}
