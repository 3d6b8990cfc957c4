package kv

import (
	"context"
	"log/slog"
	"time"

	"github.com/brunoscheufler/inkwell/telemetry"
)

type instrumentedStorage struct {
	Storage
	backend string
	stats   telemetry.StatsCollector
	logger  *slog.Logger
}

// Instrument wraps storage so every access is tracked under backend.
func Instrument(storage Storage, backend string, stats telemetry.StatsCollector, logger *slog.Logger) Storage {
	if stats == nil {
		return storage
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &instrumentedStorage{Storage: storage, backend: backend, stats: stats, logger: logger}
}

func (s *instrumentedStorage) track(operation string, start time.Time, err error) {
	if trackErr := s.stats.TrackStorageAccess(s.backend, operation, time.Since(start), err == nil); trackErr != nil {
		s.logger.Info("Failed to track storage access", "operation", operation, "error", trackErr.Error())
	}
}

func (s *instrumentedStorage) Get(ctx context.Context, key string) ([]byte, bool, error) {
	start := time.Now()
	value, ok, err := s.Storage.Get(ctx, key)
	s.track("Get", start, err)
	return value, ok, err
}

func (s *instrumentedStorage) Set(ctx context.Context, key string, value []byte) error {
	start := time.Now()
	err := s.Storage.Set(ctx, key, value)
	s.track("Set", start, err)
	return err
}

func (s *instrumentedStorage) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := s.Storage.Delete(ctx, key)
	s.track("Delete", start, err)
	return err
}

func (s *instrumentedStorage) Keys(ctx context.Context) ([]string, error) {
	start := time.Now()
	keys, err := s.Storage.Keys(ctx)
	s.track("Keys", start, err)
	return keys, err
}
