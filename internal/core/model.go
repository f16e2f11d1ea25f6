package core

import (
	"time"
)

// Priority is the processing priority tier of an inbound request
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// ValidPriority reports whether p is one of the known priority tiers
func ValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// ProcessingRequest represents one email to be run through the gateway.
// It is immutable once handed to the orchestrator.
type ProcessingRequest struct {
	Sender         string    `json:"sender"`
	Recipient      string    `json:"recipient"`
	Subject        string    `json:"subject"`
	Body           string    `json:"body"`
	HasAttachments bool      `json:"hasAttachments,omitempty"`
	Language       string    `json:"language,omitempty"`
	Priority       Priority  `json:"priority,omitempty"`
	Timestamp      time.Time `json:"timestamp,omitempty"`
}

// Validate checks the request invariants and fills in defaults.
// It must pass before the request touches any backend or cache.
func (r *ProcessingRequest) Validate() error {
	switch {
	case r.Sender == "":
		return &ValidationError{Field: "sender", Reason: "must not be empty"}
	case r.Recipient == "":
		return &ValidationError{Field: "recipient", Reason: "must not be empty"}
	case r.Subject == "":
		return &ValidationError{Field: "subject", Reason: "must not be empty"}
	case r.Body == "":
		return &ValidationError{Field: "body", Reason: "must not be empty"}
	}
	if r.Priority == "" {
		r.Priority = PriorityNormal
	}
	if !ValidPriority(r.Priority) {
		return &ValidationError{Field: "priority", Reason: "must be one of low, normal, high, urgent"}
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now()
	}
	return nil
}

// SecurityScan is the security verdict attached to a CoreResult
type SecurityScan struct {
	Passed      bool    `json:"passed"`
	SpamScore   float64 `json:"spamScore"`
	ThreatLevel string  `json:"threatLevel"`
}

// CoreResult is the core engine's output for one request
type CoreResult struct {
	Processed        bool         `json:"processed"`
	SecurityScan     SecurityScan `json:"securityScan"`
	ThreadID         string       `json:"threadId"`
	ProcessingTimeMs float64      `json:"processingTimeMs"`
}

// EnrichmentResult is the intelligence service's output for one request
type EnrichmentResult struct {
	Suggestions      []string           `json:"suggestions"`
	Summary          string             `json:"summary"`
	RoutingDecisions []string           `json:"routingDecisions"`
	Translation      *string            `json:"translation,omitempty"`
	KeyPoints        []string           `json:"keyPoints"`
	ConfidenceScores map[string]float64 `json:"confidenceScores"`
	ProcessingTimeMs float64            `json:"processingTimeMs"`
}

// AutonomyResult is the autonomous-optimization service's output
type AutonomyResult struct {
	OptimizationsApplied []string `json:"optimizationsApplied"`
	Predictions          []string `json:"predictions"`
	RecommendedActions   []string `json:"recommendedActions"`
	ProcessingTimeMs     float64  `json:"processingTimeMs"`
}

// Overall summarizes a whole orchestration pass
type Overall struct {
	Success          bool      `json:"success"`
	Errors           []string  `json:"errors"`
	Confidence       float64   `json:"confidence"`
	ProcessingTimeMs float64   `json:"processingTimeMs"`
	Timestamp        time.Time `json:"timestamp"`
	CorrelationID    string    `json:"correlationId"`
}

// UnifiedResult is the single object returned to callers and broadcast
// to subscribers. It is never mutated after construction.
type UnifiedResult struct {
	CoreProcessing    *CoreResult       `json:"coreProcessing"`
	AIEnhancements    *EnrichmentResult `json:"aiEnhancements"`
	AutonomousActions *AutonomyResult   `json:"autonomousActions"`
	Overall           Overall           `json:"overall"`
}

// BackendHealth is the health probe outcome for a single backend
type BackendHealth struct {
	Reachable bool    `json:"reachable"`
	LatencyMs float64 `json:"latencyMs"`
	Error     string  `json:"error,omitempty"`
}

// HealthSnapshot is the aggregate health verdict. It is recomputed on
// every query and never cached.
type HealthSnapshot struct {
	Healthy   bool                     `json:"healthy"`
	Backends  map[string]BackendHealth `json:"backends"`
	CheckedAt time.Time                `json:"checkedAt"`
}

// GatewayStats are the gateway-level counters on the stats surface
type GatewayStats struct {
	RequestsProcessed int64   `json:"requestsProcessed"`
	AverageLatencyMs  float64 `json:"averageLatencyMs"`
	ErrorsEncountered int64   `json:"errorsEncountered"`
	ErrorRate         float64 `json:"errorRate"`
	CacheHits         int64   `json:"cacheHits"`
	RequestsPerSecond float64 `json:"requestsPerSecond"`
	UptimeSeconds     float64 `json:"uptimeSeconds"`
}

// Event types pushed to live subscribers
const (
	EventResultReady   = "result-ready"
	EventResultError   = "result-error"
	EventHealthChanged = "health-changed"
	EventStatsSnapshot = "stats-snapshot"
)

// Event is the envelope delivered to live subscribers
type Event struct {
	Type          string      `json:"type"`
	Data          interface{} `json:"data"`
	Timestamp     time.Time   `json:"timestamp"`
	CorrelationID string      `json:"correlationId,omitempty"`
}
