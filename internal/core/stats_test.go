package core_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mailmind/ai-gateway/internal/core"
)

func TestStatsTrackerAverages(t *testing.T) {
	tracker := core.NewStatsTracker()

	tracker.RecordRequest(10, false)
	tracker.RecordRequest(30, true)
	tracker.RecordCacheHit()

	snapshot := tracker.Snapshot()
	assert.Equal(t, int64(3), snapshot.RequestsProcessed)
	assert.Equal(t, int64(1), snapshot.ErrorsEncountered)
	assert.Equal(t, int64(1), snapshot.CacheHits)
	assert.InDelta(t, 20.0, snapshot.AverageLatencyMs, 1e-9)
	assert.InDelta(t, 1.0/3.0, snapshot.ErrorRate, 1e-9)
	assert.Greater(t, snapshot.UptimeSeconds, 0.0)
}

func TestStatsTrackerConcurrent(t *testing.T) {
	tracker := core.NewStatsTracker()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.RecordRequest(5, false)
			tracker.RecordCacheHit()
		}()
	}
	wg.Wait()

	snapshot := tracker.Snapshot()
	assert.Equal(t, int64(100), snapshot.RequestsProcessed)
	assert.Equal(t, int64(50), snapshot.CacheHits)
}
