package core

import (
	"sync"
	"time"
)

// StatsTracker accumulates gateway-level counters across requests.
// Safe for concurrent use.
type StatsTracker struct {
	mu                sync.Mutex
	started           time.Time
	requestsProcessed int64
	errorsEncountered int64
	cacheHits         int64
	totalLatencyMs    float64
}

// NewStatsTracker creates a tracker with the uptime clock started now
func NewStatsTracker() *StatsTracker {
	return &StatsTracker{started: time.Now()}
}

// RecordRequest records one completed orchestration pass
func (s *StatsTracker) RecordRequest(latencyMs float64, degraded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requestsProcessed++
	s.totalLatencyMs += latencyMs
	if degraded {
		s.errorsEncountered++
	}
}

// RecordCacheHit records a request served from the result cache
func (s *StatsTracker) RecordCacheHit() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requestsProcessed++
	s.cacheHits++
}

// Snapshot returns the current counters
func (s *StatsTracker) Snapshot() GatewayStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	uptime := time.Since(s.started).Seconds()
	stats := GatewayStats{
		RequestsProcessed: s.requestsProcessed,
		ErrorsEncountered: s.errorsEncountered,
		CacheHits:         s.cacheHits,
		UptimeSeconds:     uptime,
	}

	processed := s.requestsProcessed - s.cacheHits
	if processed > 0 {
		stats.AverageLatencyMs = s.totalLatencyMs / float64(processed)
	}
	if s.requestsProcessed > 0 {
		stats.ErrorRate = float64(s.errorsEncountered) / float64(s.requestsProcessed)
	}
	if uptime > 0 {
		stats.RequestsPerSecond = float64(s.requestsProcessed) / uptime
	}

	return stats
}
