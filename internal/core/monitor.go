package core

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Monitor periodically aggregates health and publishes monitoring
// events to live subscribers: health-changed whenever any flag flips
// between polls, stats-snapshot on every interval.
type Monitor struct {
	aggregator *HealthAggregator
	stats      *StatsTracker
	publisher  EventPublisher
	logger     *zap.Logger
	interval   time.Duration
	stopCh     chan struct{}
	doneCh     chan struct{}
}

// NewMonitor creates a new health/stats monitor
func NewMonitor(aggregator *HealthAggregator, stats *StatsTracker, publisher EventPublisher, logger *zap.Logger, interval time.Duration) *Monitor {
	return &Monitor{
		aggregator: aggregator,
		stats:      stats,
		publisher:  publisher,
		logger:     logger,
		interval:   interval,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// Start launches the polling loop in the background
func (m *Monitor) Start() {
	go m.run()
}

// Stop terminates the polling loop and waits for it to exit
func (m *Monitor) Stop() {
	close(m.stopCh)
	<-m.doneCh
}

func (m *Monitor) run() {
	defer close(m.doneCh)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	var previous *HealthSnapshot

	for {
		select {
		case <-ticker.C:
			snapshot := m.aggregator.Aggregate(context.Background())
			if healthChanged(previous, snapshot) {
				m.logger.Info("System health changed",
					zap.Bool("healthy", snapshot.Healthy))
				m.publisher.Publish(Event{
					Type:      EventHealthChanged,
					Data:      snapshot,
					Timestamp: time.Now(),
				})
			}
			previous = snapshot

			m.publisher.Publish(Event{
				Type:      EventStatsSnapshot,
				Data:      m.stats.Snapshot(),
				Timestamp: time.Now(),
			})
		case <-m.stopCh:
			return
		}
	}
}

// healthChanged reports whether the aggregate verdict or any
// per-backend reachable flag differs between two snapshots.
func healthChanged(prev, next *HealthSnapshot) bool {
	if prev == nil {
		return true
	}
	if prev.Healthy != next.Healthy || len(prev.Backends) != len(next.Backends) {
		return true
	}
	for name, health := range next.Backends {
		if prev.Backends[name].Reachable != health.Reachable {
			return true
		}
	}
	return false
}
