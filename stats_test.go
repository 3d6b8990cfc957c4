package main

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/brunoscheufler/inkwell/constants"
	"github.com/brunoscheufler/inkwell/kv"
	"github.com/brunoscheufler/inkwell/telemetry"
	"github.com/stretchr/testify/require"
)

func TestStats_SurviveRestart(t *testing.T) {
	ctx := context.Background()
	storage := kv.NewMemoryStorage()

	first := telemetry.NewStatsCollector(telemetry.WithAutoStart(false))
	defer first.Stop()
	require.NoError(t, first.TrackStoreOperation("posts", "CreatePost", time.Millisecond, true))
	require.NoError(t, first.TrackStoreOperation("posts", "CreatePost", time.Millisecond, true))
	require.NoError(t, first.TrackStorageAccess("sqlite", "Set", time.Millisecond, false))
	require.NoError(t, persistStats(ctx, storage, first))

	second := telemetry.NewStatsCollector(telemetry.WithAutoStart(false))
	defer second.Stop()
	require.NoError(t, second.TrackStoreOperation("posts", "CreatePost", time.Millisecond, true))
	require.NoError(t, restoreStats(ctx, storage, second, slog.Default()))

	stats := second.Export()
	require.Equal(t, 3, stats.StoreOperations["posts-CreatePost-true"].Metrics.TotalCount)
	require.Equal(t, 1, stats.StorageAccess["sqlite-Set-false"].Metrics.TotalCount)
}

func TestStats_RestoreWithoutSavedStats(t *testing.T) {
	collector := telemetry.NewStatsCollector(telemetry.WithAutoStart(false))
	defer collector.Stop()

	require.NoError(t, restoreStats(context.Background(), kv.NewMemoryStorage(), collector, slog.Default()))
	require.Empty(t, collector.Export().StoreOperations)
}

func TestStats_CorruptValueIsDropped(t *testing.T) {
	ctx := context.Background()
	storage := kv.NewMemoryStorage()
	require.NoError(t, storage.Set(ctx, constants.StatsKey, []byte("{not json")))

	collector := telemetry.NewStatsCollector(telemetry.WithAutoStart(false))
	defer collector.Stop()

	require.NoError(t, restoreStats(ctx, storage, collector, slog.Default()))

	_, ok, err := storage.Get(ctx, constants.StatsKey)
	require.NoError(t, err)
	require.False(t, ok)
	require.Empty(t, collector.Export().StorageAccess)
}
