package core

import (
	"context"
	"time"
)

// Backend names used in error tags, health snapshots and stats
const (
	BackendCore       = "core"
	BackendEnrichment = "enrichment"
	BackendAutonomy   = "autonomy"
)

// BackendClient is the uniform contract every backend adapter satisfies.
// Calls are bounded by a timeout and hold no request-scoped state.
type BackendClient interface {
	// Name identifies the backend in errors, health and stats output
	Name() string

	// HealthCheck probes the backend and reports reachability and latency
	HealthCheck(ctx context.Context) (bool, time.Duration, error)

	// Stats returns the backend's opaque stats snapshot
	Stats(ctx context.Context) (map[string]interface{}, error)
}

// CoreEngineClient calls the core processing engine
type CoreEngineClient interface {
	BackendClient
	Process(ctx context.Context, req *ProcessingRequest) (*CoreResult, error)
}

// EnrichmentServiceClient calls the intelligence/enrichment service
type EnrichmentServiceClient interface {
	BackendClient
	Enrich(ctx context.Context, req *ProcessingRequest) (*EnrichmentResult, error)
}

// AutonomyServiceClient calls the autonomous-optimization service
type AutonomyServiceClient interface {
	BackendClient
	Optimize(ctx context.Context, req *ProcessingRequest) (*AutonomyResult, error)
}

// ResultCache stores unified results keyed by request fingerprint.
// Implementations must never return an expired entry.
type ResultCache interface {
	// Get retrieves a cached result, or ErrCacheMiss when absent/expired
	Get(ctx context.Context, key string) (*UnifiedResult, error)

	// Set stores a result under key for ttl; re-insertion replaces the slot
	Set(ctx context.Context, key string, result *UnifiedResult, ttl time.Duration) error

	// Delete removes a cache entry
	Delete(ctx context.Context, key string) error

	// Cleanup removes expired entries
	Cleanup(ctx context.Context) error
}

// EventPublisher pushes orchestration outcomes to live subscribers.
// Publishing must never block the orchestration path.
type EventPublisher interface {
	Publish(event Event)
}
