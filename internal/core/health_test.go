package core_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mailmind/ai-gateway/internal/core"
)

// probeBackend is a health-probe-only backend stub
type probeBackend struct {
	name    string
	healthy bool
	delay   time.Duration
}

func (p *probeBackend) Name() string { return p.name }

func (p *probeBackend) HealthCheck(ctx context.Context) (bool, time.Duration, error) {
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return false, 0, ctx.Err()
		}
	}
	if !p.healthy {
		return false, time.Millisecond, errors.New("probe refused")
	}
	return true, time.Millisecond, nil
}

func (p *probeBackend) Stats(context.Context) (map[string]interface{}, error) {
	return map[string]interface{}{}, nil
}

func newAggregator(quorum int, backends ...core.BackendClient) *core.HealthAggregator {
	return core.NewHealthAggregator(backends, zap.NewNop(), 100*time.Millisecond, quorum)
}

func TestAggregateQuorumBoundary(t *testing.T) {
	tests := []struct {
		name        string
		reachable   int
		wantHealthy bool
	}{
		{"all reachable", 3, true},
		{"two of three reachable", 2, true},
		{"one of three reachable", 1, false},
		{"none reachable", 0, false},
	}

	names := []string{core.BackendCore, core.BackendEnrichment, core.BackendAutonomy}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backends := make([]core.BackendClient, 0, 3)
			for i, name := range names {
				backends = append(backends, &probeBackend{name: name, healthy: i < tt.reachable})
			}

			snapshot := newAggregator(2, backends...).Aggregate(context.Background())

			assert.Equal(t, tt.wantHealthy, snapshot.Healthy)
			require.Len(t, snapshot.Backends, 3)
			for i, name := range names {
				assert.Equal(t, i < tt.reachable, snapshot.Backends[name].Reachable, name)
			}
		})
	}
}

func TestAggregateUnresponsiveBackendIsUnreachable(t *testing.T) {
	backends := []core.BackendClient{
		&probeBackend{name: core.BackendCore, healthy: true},
		&probeBackend{name: core.BackendEnrichment, healthy: true, delay: time.Second},
		&probeBackend{name: core.BackendAutonomy, healthy: true},
	}

	start := time.Now()
	snapshot := newAggregator(2, backends...).Aggregate(context.Background())

	// Probes run concurrently and the stalled one is cut off at its timeout
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.True(t, snapshot.Healthy)
	assert.False(t, snapshot.Backends[core.BackendEnrichment].Reachable)
	assert.NotEmpty(t, snapshot.Backends[core.BackendEnrichment].Error)
}

func TestAggregateSnapshotIsFresh(t *testing.T) {
	flappy := &probeBackend{name: core.BackendEnrichment, healthy: false}
	backends := []core.BackendClient{
		&probeBackend{name: core.BackendCore, healthy: true},
		flappy,
		&probeBackend{name: core.BackendAutonomy, healthy: true},
	}
	agg := newAggregator(3, backends...)

	assert.False(t, agg.Aggregate(context.Background()).Healthy)

	flappy.healthy = true
	assert.True(t, agg.Aggregate(context.Background()).Healthy)
}

func TestMonitorPublishesHealthAndStats(t *testing.T) {
	backends := []core.BackendClient{
		&probeBackend{name: core.BackendCore, healthy: true},
		&probeBackend{name: core.BackendEnrichment, healthy: true},
		&probeBackend{name: core.BackendAutonomy, healthy: true},
	}
	agg := newAggregator(2, backends...)
	publisher := &capturingPublisher{}

	monitor := core.NewMonitor(agg, core.NewStatsTracker(), publisher, zap.NewNop(), 20*time.Millisecond)
	monitor.Start()
	time.Sleep(120 * time.Millisecond)
	monitor.Stop()

	var healthEvents, statsEvents int
	for _, event := range publisher.Events() {
		switch event.Type {
		case core.EventHealthChanged:
			healthEvents++
		case core.EventStatsSnapshot:
			statsEvents++
		}
	}

	// The verdict never flips after the first poll, so exactly one
	// health-changed event; stats snapshots arrive every interval.
	assert.Equal(t, 1, healthEvents)
	assert.GreaterOrEqual(t, statsEvents, 2)
}
