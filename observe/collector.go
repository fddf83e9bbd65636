package observe

import (
	"sync"
	"time"
)

// Collector is an in-memory Sink that aggregates dispatch statistics.
// It is useful in tests and for lightweight diagnostics endpoints; heavier
// setups should prefer PrometheusSink.
type Collector struct {
	mu sync.RWMutex

	// Event counts by kind and message type
	counts map[EventKind]map[string]int64

	// Failure counts by message type
	failures map[string]int64

	// Dispatch timing by message type
	timings map[string]*TimingStats
}

// TimingStats tracks duration statistics for one message type.
type TimingStats struct {
	Count   int64
	Total   time.Duration
	Min     time.Duration
	Max     time.Duration
}

// Average returns the mean duration, or zero if nothing was recorded.
func (t TimingStats) Average() time.Duration {
	if t.Count == 0 {
		return 0
	}
	return t.Total / time.Duration(t.Count)
}

// NewCollector creates an empty collector
func NewCollector() *Collector {
	return &Collector{
		counts:   make(map[EventKind]map[string]int64),
		failures: make(map[string]int64),
		timings:  make(map[string]*TimingStats),
	}
}

// Record implements Sink
func (c *Collector) Record(event Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	byType, exists := c.counts[event.Kind]
	if !exists {
		byType = make(map[string]int64)
		c.counts[event.Kind] = byType
	}
	byType[event.MessageType]++

	if event.Err != nil || event.Failed > 0 {
		c.failures[event.MessageType]++
	}

	if event.Duration > 0 {
		stats, exists := c.timings[event.MessageType]
		if !exists {
			stats = &TimingStats{Min: event.Duration, Max: event.Duration}
			c.timings[event.MessageType] = stats
		}
		stats.Count++
		stats.Total += event.Duration
		if event.Duration < stats.Min {
			stats.Min = event.Duration
		}
		if event.Duration > stats.Max {
			stats.Max = event.Duration
		}
	}
}

// Count returns how many events of the given kind were recorded for a message type.
func (c *Collector) Count(kind EventKind, messageType string) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.counts[kind][messageType]
}

// Failures returns how many failed outcomes were recorded for a message type.
func (c *Collector) Failures(messageType string) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.failures[messageType]
}

// Timing returns a copy of the timing statistics for a message type.
func (c *Collector) Timing(messageType string) (TimingStats, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats, exists := c.timings[messageType]
	if !exists {
		return TimingStats{}, false
	}
	return *stats, true
}

// MessageTypes returns all message types seen so far.
func (c *Collector) MessageTypes() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, byType := range c.counts {
		for messageType := range byType {
			seen[messageType] = struct{}{}
		}
	}

	types := make([]string, 0, len(seen))
	for messageType := range seen {
		types = append(types, messageType)
	}
	return types
}
