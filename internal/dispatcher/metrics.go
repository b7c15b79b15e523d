package dispatcher

import (
	"sort"
	"sync"
	"time"

	"github.com/dshills/fluxstate/internal/action"
)

// Metrics collects dispatch statistics.
type Metrics struct {
	mu sync.RWMutex

	// Per-tag metrics
	tagMetrics map[action.Tag]*TagMetrics

	// Global counters
	totalDispatches uint64
	totalErrors     uint64
	totalPanics     uint64

	// Timing
	totalDuration time.Duration
}

// TagMetrics holds metrics for a single action tag.
type TagMetrics struct {
	Tag           action.Tag
	DispatchCount uint64
	ErrorCount    uint64
	PanicCount    uint64
	TotalDuration time.Duration
	MinDuration   time.Duration
	MaxDuration   time.Duration
	LastFailed    bool
	LastDispatch  time.Time
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{
		tagMetrics: make(map[action.Tag]*TagMetrics),
	}
}

// RecordDispatch records one completed dispatch.
func (m *Metrics) RecordDispatch(tag action.Tag, duration time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalDispatches++
	m.totalDuration += duration

	tm := m.tagMetrics[tag]
	if tm == nil {
		tm = &TagMetrics{
			Tag:         tag,
			MinDuration: duration,
			MaxDuration: duration,
		}
		m.tagMetrics[tag] = tm
	}

	tm.DispatchCount++
	tm.TotalDuration += duration
	tm.LastFailed = err != nil
	tm.LastDispatch = time.Now()

	if duration < tm.MinDuration {
		tm.MinDuration = duration
	}
	if duration > tm.MaxDuration {
		tm.MaxDuration = duration
	}

	if err != nil {
		m.totalErrors++
		tm.ErrorCount++
	}
}

// RecordPanic records a recovered panic.
func (m *Metrics) RecordPanic(tag action.Tag) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalPanics++

	tm := m.tagMetrics[tag]
	if tm == nil {
		tm = &TagMetrics{Tag: tag}
		m.tagMetrics[tag] = tm
	}
	tm.PanicCount++
}

// TotalDispatches returns the total number of dispatches.
func (m *Metrics) TotalDispatches() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.totalDispatches
}

// TotalErrors returns the total number of failed dispatches.
func (m *Metrics) TotalErrors() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.totalErrors
}

// TotalPanics returns the total number of panics recovered.
func (m *Metrics) TotalPanics() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.totalPanics
}

// TagStats returns a copy of the metrics for a tag, or nil.
func (m *Metrics) TagStats(tag action.Tag) *TagMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tm := m.tagMetrics[tag]
	if tm == nil {
		return nil
	}

	c := *tm
	return &c
}

// TopTags returns the N most dispatched tags.
func (m *Metrics) TopTags(n int) []*TagMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tags := make([]*TagMetrics, 0, len(m.tagMetrics))
	for _, tm := range m.tagMetrics {
		c := *tm
		tags = append(tags, &c)
	}

	sort.Slice(tags, func(i, j int) bool {
		if tags[i].DispatchCount != tags[j].DispatchCount {
			return tags[i].DispatchCount > tags[j].DispatchCount
		}
		return tags[i].Tag < tags[j].Tag
	})

	if n > len(tags) {
		n = len(tags)
	}
	return tags[:n]
}

// Reset clears all metrics.
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tagMetrics = make(map[action.Tag]*TagMetrics)
	m.totalDispatches = 0
	m.totalErrors = 0
	m.totalPanics = 0
	m.totalDuration = 0
}

// MetricsSnapshot is a point-in-time view of the global counters.
type MetricsSnapshot struct {
	TotalDispatches uint64
	TotalErrors     uint64
	TotalPanics     uint64
	TotalDuration   time.Duration
	AverageDuration time.Duration
	TagCount        int
	Timestamp       time.Time
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot := MetricsSnapshot{
		TotalDispatches: m.totalDispatches,
		TotalErrors:     m.totalErrors,
		TotalPanics:     m.totalPanics,
		TotalDuration:   m.totalDuration,
		TagCount:        len(m.tagMetrics),
		Timestamp:       time.Now(),
	}

	if m.totalDispatches > 0 {
		snapshot.AverageDuration = m.totalDuration / time.Duration(m.totalDispatches)
	}

	return snapshot
}

// AverageDuration returns the average dispatch duration for the tag.
func (tm *TagMetrics) AverageDuration() time.Duration {
	if tm.DispatchCount == 0 {
		return 0
	}
	return tm.TotalDuration / time.Duration(tm.DispatchCount)
}

// ErrorRate returns the error rate as a percentage.
func (tm *TagMetrics) ErrorRate() float64 {
	if tm.DispatchCount == 0 {
		return 0
	}
	return float64(tm.ErrorCount) / float64(tm.DispatchCount) * 100
}
