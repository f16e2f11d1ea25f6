package core

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// HealthAggregator probes all backends concurrently and reduces the
// per-backend verdicts into one system verdict. A backend that does not
// answer within the probe timeout counts as unreachable; it is not
// retried.
type HealthAggregator struct {
	backends     []BackendClient
	logger       *zap.Logger
	probeTimeout time.Duration
	quorum       int
}

// NewHealthAggregator creates a new health aggregator. quorum is the
// minimum number of reachable backends for an overall healthy verdict.
func NewHealthAggregator(backends []BackendClient, logger *zap.Logger, probeTimeout time.Duration, quorum int) *HealthAggregator {
	return &HealthAggregator{
		backends:     backends,
		logger:       logger,
		probeTimeout: probeTimeout,
		quorum:       quorum,
	}
}

// Aggregate queries every backend's health probe in parallel and
// returns a fresh snapshot. The aggregate verdict must not be mistaken
// for full health: per-backend flags are always included so callers can
// tell degraded from fully healthy.
func (h *HealthAggregator) Aggregate(ctx context.Context) *HealthSnapshot {
	type probe struct {
		name   string
		health BackendHealth
	}

	results := make(chan probe, len(h.backends))
	var wg sync.WaitGroup

	for _, backend := range h.backends {
		wg.Add(1)
		go func(b BackendClient) {
			defer wg.Done()

			pctx, cancel := context.WithTimeout(ctx, h.probeTimeout)
			defer cancel()

			healthy, latency, err := b.HealthCheck(pctx)
			health := BackendHealth{
				Reachable: healthy && err == nil,
				LatencyMs: float64(latency.Microseconds()) / 1000.0,
			}
			if err != nil {
				health.Error = err.Error()
				h.logger.Debug("Health probe failed",
					zap.String("backend", b.Name()),
					zap.Error(err))
			}
			results <- probe{name: b.Name(), health: health}
		}(backend)
	}

	wg.Wait()
	close(results)

	snapshot := &HealthSnapshot{
		Backends:  make(map[string]BackendHealth, len(h.backends)),
		CheckedAt: time.Now(),
	}

	reachable := 0
	for p := range results {
		snapshot.Backends[p.name] = p.health
		if p.health.Reachable {
			reachable++
		}
	}
	snapshot.Healthy = reachable >= h.quorum

	return snapshot
}
