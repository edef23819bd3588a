package config

import (
	"strings"
	"sync"
	"time"

	"github.com/gamingear/console/internal/models"
	"github.com/sirupsen/logrus"
)

const defaultLogBufferSize = 1000

// consoleLogger keeps the most recent log entries in a ring buffer so the
// console shell can serve them.
type consoleLogger struct {
	eventBuffer []*models.LogEntry
	maxSize     int
	currentPos  int
	isFull      bool
	mu          sync.RWMutex
}

func NewConsoleLogger(size int) *consoleLogger {
	if size <= 0 {
		size = defaultLogBufferSize
	}
	return &consoleLogger{
		eventBuffer: make([]*models.LogEntry, size),
		maxSize:     size,
	}
}

func (t *consoleLogger) Fire(entry *logrus.Entry) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.eventBuffer[t.currentPos] = models.NewLogEntry(entry)
	t.currentPos = (t.currentPos + 1) % t.maxSize

	if t.currentPos == 0 {
		t.isFull = true
	}

	return nil
}

func (t *consoleLogger) Levels() []logrus.Level {
	return []logrus.Level{
		logrus.PanicLevel,
		logrus.FatalLevel,
		logrus.ErrorLevel,
		logrus.WarnLevel,
		logrus.InfoLevel,
	}
}

func (t *consoleLogger) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.eventBuffer = make([]*models.LogEntry, t.maxSize)
	t.currentPos = 0
	t.isFull = false
}

func (t *consoleLogger) GetEvents() []*models.LogEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.getEventsInternal()
}

func (t *consoleLogger) GetRecentEvents(count int) []*models.LogEntry {
	events := t.GetEvents()
	if len(events) <= count {
		return events
	}
	return events[len(events)-count:]
}

// LogFilter contains the filtering criteria for log events
type LogFilter struct {
	// Filter by level name (if empty, all levels are included)
	Levels []string `json:"levels,omitempty"`
	// Filter events after this time
	Since *time.Time `json:"since,omitempty"`
	// Filter events before this time
	Until *time.Time `json:"until,omitempty"`
	// Maximum number of events to return (if 0, no limit)
	Limit int `json:"limit,omitempty"`
}

// GetEventsWithFilter returns the most recent events matching filter,
// oldest first.
func (t *consoleLogger) GetEventsWithFilter(filter LogFilter) []*models.LogEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	levels := make(map[string]bool, len(filter.Levels))
	for _, level := range filter.Levels {
		levels[strings.ToLower(level)] = true
	}

	var filtered []*models.LogEntry
	for _, entry := range t.getEventsInternal() {
		if len(levels) > 0 && !levels[entry.Level] {
			continue
		}
		if filter.Since != nil && entry.Time.Before(*filter.Since) {
			continue
		}
		if filter.Until != nil && entry.Time.After(*filter.Until) {
			continue
		}
		filtered = append(filtered, entry)
	}

	if filter.Limit > 0 && len(filtered) > filter.Limit {
		filtered = filtered[len(filtered)-filter.Limit:]
	}

	return filtered
}

// getEventsInternal assumes the caller holds the lock
func (t *consoleLogger) getEventsInternal() []*models.LogEntry {
	if !t.isFull {
		result := make([]*models.LogEntry, t.currentPos)
		copy(result, t.eventBuffer[:t.currentPos])
		return result
	}

	// oldest first
	result := make([]*models.LogEntry, t.maxSize)
	copy(result, t.eventBuffer[t.currentPos:])
	copy(result[t.maxSize-t.currentPos:], t.eventBuffer[:t.currentPos])
	return result
}
