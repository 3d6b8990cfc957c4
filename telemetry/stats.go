package telemetry

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// TickInterval is the window over which per-minute rates and p95 durations
// are computed.
const TickInterval = 5 * time.Second

var ErrEmptyOperation = errors.New("operation name must not be empty")

// RequestMetrics holds counters for one tracked key. Rate and p95 are
// recalculated every tick from the current window.
type RequestMetrics struct {
	TotalCount     int `json:"totalCount"`
	RequestsPerMin int `json:"requestsPerMin"`
	DurationP95    int `json:"durationP95"`

	currentCount     int
	currentDurations []int
}

func (m *RequestMetrics) record(d time.Duration) {
	m.TotalCount++
	m.currentCount++
	m.currentDurations = append(m.currentDurations, int(d.Milliseconds()))
}

func (m *RequestMetrics) roll() {
	m.RequestsPerMin = calculateRPM(m.currentCount)
	m.DurationP95 = calculateP95(m.currentDurations)
	m.currentCount = 0
	m.currentDurations = nil
}

// OperationStats tracks calls to a store operation (Register, CreatePost, ...).
type OperationStats struct {
	Store     string         `json:"store"`
	Operation string         `json:"operation"`
	Success   bool           `json:"success"`
	Metrics   RequestMetrics `json:"metrics"`
}

// StorageStats tracks access to the durable key-value layer.
type StorageStats struct {
	Backend   string         `json:"backend"`
	Operation string         `json:"operation"`
	Success   bool           `json:"success"`
	Metrics   RequestMetrics `json:"metrics"`
}

type Stats struct {
	StoreOperations map[string]*OperationStats `json:"storeOperations"`
	StorageAccess   map[string]*StorageStats   `json:"storageAccess"`
}

type StatsCollector interface {
	TrackStoreOperation(store, operation string, duration time.Duration, success bool) error
	TrackStorageAccess(backend, operation string, duration time.Duration, success bool) error
	Export() Stats
	Import(stats Stats)
	Stop()
}

type inMemoryStatsCollector struct {
	mutex sync.RWMutex
	stats Stats

	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

type statsCollectorConfig struct {
	autoStart bool
}

// StatsCollectorOption configures a StatsCollector
type StatsCollectorOption func(*statsCollectorConfig)

// WithAutoStart controls whether the rate calculation ticker starts immediately
func WithAutoStart(enabled bool) StatsCollectorOption {
	return func(c *statsCollectorConfig) {
		c.autoStart = enabled
	}
}

func NewStatsCollector(options ...StatsCollectorOption) StatsCollector {
	config := &statsCollectorConfig{autoStart: true}
	for _, option := range options {
		option(config)
	}

	sc := &inMemoryStatsCollector{
		stats: Stats{
			StoreOperations: make(map[string]*OperationStats),
			StorageAccess:   make(map[string]*StorageStats),
		},
		done: make(chan struct{}),
	}

	if config.autoStart {
		sc.ticker = time.NewTicker(TickInterval)
		go sc.loop()
	}

	return sc
}

func (sc *inMemoryStatsCollector) loop() {
	for {
		select {
		case <-sc.done:
			return
		case <-sc.ticker.C:
			sc.calculateMetrics()
		}
	}
}

func operationKey(group, operation string, success bool) string {
	return fmt.Sprintf("%s-%s-%t", group, operation, success)
}

func (sc *inMemoryStatsCollector) TrackStoreOperation(store, operation string, duration time.Duration, success bool) error {
	if operation == "" {
		return ErrEmptyOperation
	}

	key := operationKey(store, operation, success)

	sc.mutex.Lock()
	defer sc.mutex.Unlock()

	stats, exists := sc.stats.StoreOperations[key]
	if !exists {
		stats = &OperationStats{Store: store, Operation: operation, Success: success}
		sc.stats.StoreOperations[key] = stats
	}
	stats.Metrics.record(duration)
	return nil
}

func (sc *inMemoryStatsCollector) TrackStorageAccess(backend, operation string, duration time.Duration, success bool) error {
	if operation == "" {
		return ErrEmptyOperation
	}

	key := operationKey(backend, operation, success)

	sc.mutex.Lock()
	defer sc.mutex.Unlock()

	stats, exists := sc.stats.StorageAccess[key]
	if !exists {
		stats = &StorageStats{Backend: backend, Operation: operation, Success: success}
		sc.stats.StorageAccess[key] = stats
	}
	stats.Metrics.record(duration)
	return nil
}

// Export returns a copy of the public counters.
func (sc *inMemoryStatsCollector) Export() Stats {
	sc.mutex.RLock()
	defer sc.mutex.RUnlock()

	out := Stats{
		StoreOperations: make(map[string]*OperationStats, len(sc.stats.StoreOperations)),
		StorageAccess:   make(map[string]*StorageStats, len(sc.stats.StorageAccess)),
	}
	for key, stats := range sc.stats.StoreOperations {
		out.StoreOperations[key] = &OperationStats{
			Store:     stats.Store,
			Operation: stats.Operation,
			Success:   stats.Success,
			Metrics:   exportMetrics(stats.Metrics),
		}
	}
	for key, stats := range sc.stats.StorageAccess {
		out.StorageAccess[key] = &StorageStats{
			Backend:   stats.Backend,
			Operation: stats.Operation,
			Success:   stats.Success,
			Metrics:   exportMetrics(stats.Metrics),
		}
	}
	return out
}

func exportMetrics(m RequestMetrics) RequestMetrics {
	return RequestMetrics{
		TotalCount:     m.TotalCount,
		RequestsPerMin: m.RequestsPerMin,
		DurationP95:    m.DurationP95,
	}
}

// Import merges counters saved by a previous run into this collector. Totals
// are added; rates and p95 take the imported values until the next tick.
func (sc *inMemoryStatsCollector) Import(stats Stats) {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()

	for key, imported := range stats.StoreOperations {
		if imported == nil {
			continue
		}
		existing, ok := sc.stats.StoreOperations[key]
		if !ok {
			existing = &OperationStats{Store: imported.Store, Operation: imported.Operation, Success: imported.Success}
			sc.stats.StoreOperations[key] = existing
		}
		mergeMetrics(&existing.Metrics, imported.Metrics)
	}
	for key, imported := range stats.StorageAccess {
		if imported == nil {
			continue
		}
		existing, ok := sc.stats.StorageAccess[key]
		if !ok {
			existing = &StorageStats{Backend: imported.Backend, Operation: imported.Operation, Success: imported.Success}
			sc.stats.StorageAccess[key] = existing
		}
		mergeMetrics(&existing.Metrics, imported.Metrics)
	}
}

func mergeMetrics(dst *RequestMetrics, src RequestMetrics) {
	dst.TotalCount += src.TotalCount
	dst.RequestsPerMin = src.RequestsPerMin
	dst.DurationP95 = src.DurationP95
}

func (sc *inMemoryStatsCollector) calculateMetrics() {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()

	for _, stats := range sc.stats.StoreOperations {
		stats.Metrics.roll()
	}
	for _, stats := range sc.stats.StorageAccess {
		stats.Metrics.roll()
	}
}

func (sc *inMemoryStatsCollector) Stop() {
	sc.once.Do(func() {
		if sc.ticker != nil {
			sc.ticker.Stop()
		}
		close(sc.done)
	})
}

func calculateRPM(count int) int {
	ticksPerMinute := int(time.Minute / TickInterval)
	return count * ticksPerMinute
}

func calculateP95(durations []int) int {
	if len(durations) == 0 {
		return 0
	}

	sorted := make([]int, len(durations))
	copy(sorted, durations)
	sort.Ints(sorted)

	index := int(float64(len(sorted)) * 0.95)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}
