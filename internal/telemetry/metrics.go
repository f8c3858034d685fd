// Package telemetry collects in-process fusion metrics for batch runs.
// Nothing leaves the process.
package telemetry

import (
	"sort"
	"sync"
	"time"
)

// LatencyBucket is a latency histogram bucket.
type LatencyBucket string

const (
	BucketLT1ms   LatencyBucket = "<1ms"
	BucketLT10ms  LatencyBucket = "<10ms"
	BucketLT50ms  LatencyBucket = "<50ms"
	BucketLT100ms LatencyBucket = "<100ms"
	BucketGE100ms LatencyBucket = ">=100ms"
)

// Buckets lists the histogram buckets in ascending order.
var Buckets = []LatencyBucket{BucketLT1ms, BucketLT10ms, BucketLT50ms, BucketLT100ms, BucketGE100ms}

// LatencyToBucket converts a duration to its histogram bucket.
func LatencyToBucket(d time.Duration) LatencyBucket {
	switch {
	case d < time.Millisecond:
		return BucketLT1ms
	case d < 10*time.Millisecond:
		return BucketLT10ms
	case d < 50*time.Millisecond:
		return BucketLT50ms
	case d < 100*time.Millisecond:
		return BucketLT100ms
	default:
		return BucketGE100ms
	}
}

// FusionEvent is one processed request.
type FusionEvent struct {
	Source    string
	Pipeline  string
	Documents int
	Latency   time.Duration
	Err       error
}

// CircularBuffer is a fixed-capacity FIFO buffer.
type CircularBuffer[T any] struct {
	items    []T
	head     int
	size     int
	capacity int
	mu       sync.RWMutex
}

// NewCircularBuffer creates a buffer holding up to capacity items.
func NewCircularBuffer[T any](capacity int) *CircularBuffer[T] {
	if capacity <= 0 {
		capacity = 100
	}
	return &CircularBuffer[T]{items: make([]T, capacity), capacity: capacity}
}

// Add appends item, evicting the oldest when full.
func (b *CircularBuffer[T]) Add(item T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.items[b.head] = item
	b.head = (b.head + 1) % b.capacity
	if b.size < b.capacity {
		b.size++
	}
}

// Items returns the buffered items oldest first.
func (b *CircularBuffer[T]) Items() []T {
	b.mu.RLock()
	defer b.mu.RUnlock()

	result := make([]T, b.size)
	if b.size < b.capacity {
		copy(result, b.items[:b.size])
	} else {
		copy(result, b.items[b.head:])
		copy(result[b.capacity-b.head:], b.items[:b.head])
	}
	return result
}

// Size returns the number of buffered items.
func (b *CircularBuffer[T]) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

// PipelineCount is the number of requests one pipeline processed.
type PipelineCount struct {
	Pipeline string `json:"pipeline"`
	Count    int64  `json:"count"`
}

// Snapshot is an immutable view of the collected metrics.
type Snapshot struct {
	Total       int64                   `json:"total"`
	Failed      int64                   `json:"failed"`
	Empty       int64                   `json:"empty"`
	Documents   int64                   `json:"documents"`
	Pipelines   []PipelineCount         `json:"pipelines"`
	Latency     map[LatencyBucket]int64 `json:"latency"`
	EmptySource []string                `json:"empty_sources,omitempty"`
	Elapsed     time.Duration           `json:"elapsed_ns"`
}

// Metrics aggregates FusionEvents. Safe for concurrent use.
type Metrics struct {
	mu        sync.Mutex
	total     int64
	failed    int64
	empty     int64
	documents int64
	pipelines map[string]int64
	latency   map[LatencyBucket]int64
	emptySrc  *CircularBuffer[string]
	start     time.Time
}

// NewMetrics creates a collector remembering up to recent sources that
// produced no results.
func NewMetrics(recent int) *Metrics {
	return &Metrics{
		pipelines: make(map[string]int64),
		latency:   make(map[LatencyBucket]int64),
		emptySrc:  NewCircularBuffer[string](recent),
		start:     time.Now(),
	}
}

// Record adds one event. Failed events count toward Total and Failed only.
func (m *Metrics) Record(e FusionEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.total++
	if e.Err != nil {
		m.failed++
		return
	}
	m.documents += int64(e.Documents)
	m.pipelines[e.Pipeline]++
	m.latency[LatencyToBucket(e.Latency)]++
	if e.Documents == 0 {
		m.empty++
		m.emptySrc.Add(e.Source)
	}
}

// Snapshot returns the current aggregates. Pipelines are sorted by count
// descending, then name.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Snapshot{
		Total:       m.total,
		Failed:      m.failed,
		Empty:       m.empty,
		Documents:   m.documents,
		Latency:     make(map[LatencyBucket]int64, len(m.latency)),
		EmptySource: m.emptySrc.Items(),
		Elapsed:     time.Since(m.start),
	}
	for b, c := range m.latency {
		s.Latency[b] = c
	}
	for p, c := range m.pipelines {
		s.Pipelines = append(s.Pipelines, PipelineCount{Pipeline: p, Count: c})
	}
	sort.Slice(s.Pipelines, func(i, j int) bool {
		if s.Pipelines[i].Count != s.Pipelines[j].Count {
			return s.Pipelines[i].Count > s.Pipelines[j].Count
		}
		return s.Pipelines[i].Pipeline < s.Pipelines[j].Pipeline
	})
	return s
}
