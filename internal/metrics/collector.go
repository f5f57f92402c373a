// Package metrics provides in-memory runtime statistics collection.
package metrics

import (
	"math"
	"sync"
	"time"
)

// OperationMetrics holds aggregated timings for a single operation type.
type OperationMetrics struct {
	Count     int64
	TotalTime time.Duration
	MinTime   time.Duration
	MaxTime   time.Duration
}

// OperationSnapshot provides computed stats from raw metrics.
type OperationSnapshot struct {
	Count       int64   `json:"count"`
	TotalTimeMs int64   `json:"total_time_ms"`
	AvgTimeMs   float64 `json:"avg_time_ms"`
	MinTimeMs   int64   `json:"min_time_ms"`
	MaxTimeMs   int64   `json:"max_time_ms"`
}

// CacheSnapshot reports hit accounting for one cache surface.
type CacheSnapshot struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// Snapshot represents the full server statistics at a point in time.
type Snapshot struct {
	UptimeSeconds float64             `json:"uptime_seconds"`
	Search        *OperationSnapshot  `json:"search,omitempty"`
	Answer        *OperationSnapshot  `json:"answer,omitempty"`
	Chat          *OperationSnapshot  `json:"chat,omitempty"`
	Ingest        *OperationSnapshot  `json:"ingest,omitempty"`
	SearchCache   CacheSnapshot       `json:"search_cache"`
	AnswerCache   CacheSnapshot       `json:"answer_cache"`
}

// Operation names for the collector.
const (
	OpSearch = "search"
	OpAnswer = "answer"
	OpChat   = "chat"
	OpIngest = "ingest"
)

// Cache surface names for hit accounting.
const (
	CacheSearch = "search_cache"
	CacheAnswer = "answer_cache"
)

// Collector aggregates in-memory runtime statistics.
// All methods are thread-safe.
type Collector struct {
	mu        sync.RWMutex
	startTime time.Time
	ops       map[string]*OperationMetrics
	hits      map[string]int64
	misses    map[string]int64
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		ops:       make(map[string]*OperationMetrics),
		hits:      make(map[string]int64),
		misses:    make(map[string]int64),
	}
}

// getOrCreate returns existing metrics or creates new ones for an operation.
// Caller must hold write lock.
func (c *Collector) getOrCreate(op string) *OperationMetrics {
	m, ok := c.ops[op]
	if !ok {
		m = &OperationMetrics{
			MinTime: time.Duration(math.MaxInt64),
		}
		c.ops[op] = m
	}
	return m
}

// RecordTiming records timing for an operation.
func (c *Collector) RecordTiming(op string, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.getOrCreate(op)
	m.Count++
	m.TotalTime += duration

	if duration < m.MinTime {
		m.MinTime = duration
	}
	if duration > m.MaxTime {
		m.MaxTime = duration
	}
}

// RecordCache records one lookup against a cache surface.
func (c *Collector) RecordCache(surface string, hit bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if hit {
		c.hits[surface]++
	} else {
		c.misses[surface]++
	}
}

// snapshotOp creates a snapshot for an operation, returning nil if no data.
func snapshotOp(m *OperationMetrics) *OperationSnapshot {
	if m == nil || m.Count == 0 {
		return nil
	}

	return &OperationSnapshot{
		Count:       m.Count,
		TotalTimeMs: m.TotalTime.Milliseconds(),
		AvgTimeMs:   float64(m.TotalTime.Milliseconds()) / float64(m.Count),
		MinTimeMs:   m.MinTime.Milliseconds(),
		MaxTimeMs:   m.MaxTime.Milliseconds(),
	}
}

// snapshotCache computes hit accounting for one surface.
// Caller must hold read lock.
func (c *Collector) snapshotCache(surface string) CacheSnapshot {
	hits := c.hits[surface]
	misses := c.misses[surface]
	snap := CacheSnapshot{Hits: hits, Misses: misses}
	if total := hits + misses; total > 0 {
		snap.HitRate = float64(hits) / float64(total)
	}
	return snap
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Snapshot{
		UptimeSeconds: time.Since(c.startTime).Seconds(),
		Search:        snapshotOp(c.ops[OpSearch]),
		Answer:        snapshotOp(c.ops[OpAnswer]),
		Chat:          snapshotOp(c.ops[OpChat]),
		Ingest:        snapshotOp(c.ops[OpIngest]),
		SearchCache:   c.snapshotCache(CacheSearch),
		AnswerCache:   c.snapshotCache(CacheAnswer),
	}
}
