package telemetry

import (
	"io"
	"sync"
	"time"
)

// LogEntry is one formatted log line as written by the slog handler.
type LogEntry struct {
	Timestamp time.Time
	Message   string
}

// LogCapture is the io.Writer behind the application logger. It remembers
// the last maxSize lines for the TUI log page, forwards every line to the
// attached writers and notifies a single listener.
type LogCapture struct {
	mu       sync.RWMutex
	ring     []LogEntry
	next     int
	full     bool
	writers  []io.Writer
	listener func(LogEntry)
}

func NewLogCapture(maxSize int) *LogCapture {
	return &LogCapture{ring: make([]LogEntry, max(maxSize, 1))}
}

func (lc *LogCapture) Write(p []byte) (int, error) {
	// p is reused by the handler after Write returns
	entry := LogEntry{Timestamp: time.Now(), Message: string(p)}

	lc.mu.Lock()
	lc.ring[lc.next] = entry
	lc.next = (lc.next + 1) % len(lc.ring)
	if lc.next == 0 {
		lc.full = true
	}
	listener := lc.listener
	writers := lc.writers
	lc.mu.Unlock()

	if listener != nil {
		listener(entry)
	}
	for _, w := range writers {
		w.Write(p)
	}
	return len(p), nil
}

// AddWriter forwards every future line to w.
func (lc *LogCapture) AddWriter(w io.Writer) {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	lc.writers = append(lc.writers, w)
}

// SetLogCallback replaces the listener; nil detaches it.
func (lc *LogCapture) SetLogCallback(callback func(LogEntry)) {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	lc.listener = callback
}

// GetRecentLogs returns up to limit of the newest lines, oldest first.
func (lc *LogCapture) GetRecentLogs(limit int) []LogEntry {
	lc.mu.RLock()
	defer lc.mu.RUnlock()

	entries := lc.orderedLocked()
	if limit >= 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries
}

func (lc *LogCapture) GetAllLogs() []LogEntry {
	lc.mu.RLock()
	defer lc.mu.RUnlock()
	return lc.orderedLocked()
}

func (lc *LogCapture) orderedLocked() []LogEntry {
	if !lc.full {
		return append([]LogEntry(nil), lc.ring[:lc.next]...)
	}
	entries := make([]LogEntry, 0, len(lc.ring))
	entries = append(entries, lc.ring[lc.next:]...)
	return append(entries, lc.ring[:lc.next]...)
}
