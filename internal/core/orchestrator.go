package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SegmentTimeouts bounds each backend call within one orchestration pass
type SegmentTimeouts struct {
	Core       time.Duration
	Enrichment time.Duration
	Autonomy   time.Duration
}

// Orchestrator coordinates one pass over the three backends: cache
// lookup, parallel fan-out, merge with per-segment fallbacks, cache
// write and event publication.
type Orchestrator struct {
	coreClient     CoreEngineClient
	enrichClient   EnrichmentServiceClient
	autonomyClient AutonomyServiceClient
	cache          ResultCache
	publisher      EventPublisher
	stats          *StatsTracker
	logger         *zap.Logger
	cacheEnabled   bool
	cacheTTL       time.Duration
	timeouts       SegmentTimeouts
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(
	coreClient CoreEngineClient,
	enrichClient EnrichmentServiceClient,
	autonomyClient AutonomyServiceClient,
	cache ResultCache,
	publisher EventPublisher,
	stats *StatsTracker,
	logger *zap.Logger,
	cacheEnabled bool,
	cacheTTL time.Duration,
	timeouts SegmentTimeouts,
) *Orchestrator {
	return &Orchestrator{
		coreClient:     coreClient,
		enrichClient:   enrichClient,
		autonomyClient: autonomyClient,
		cache:          cache,
		publisher:      publisher,
		stats:          stats,
		logger:         logger,
		cacheEnabled:   cacheEnabled,
		cacheTTL:       cacheTTL,
		timeouts:       timeouts,
	}
}

// Process runs one request through the gateway pipeline and returns the
// merged result. A degraded pass (one or more segments on fallback) is
// still a successful call; the only error returns are request
// validation failures.
func (o *Orchestrator) Process(ctx context.Context, req *ProcessingRequest) (*UnifiedResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	key := Fingerprint(req)

	if o.cacheEnabled {
		cached, err := o.cache.Get(ctx, key)
		switch {
		case err == nil:
			o.logger.Debug("Cache hit", zap.String("fingerprint", key))
			o.stats.RecordCacheHit()
			return cached, nil
		case !errors.Is(err, ErrCacheMiss):
			o.logger.Warn("Cache lookup failed", zap.Error(err), zap.String("fingerprint", key))
		}
	}

	correlationID := uuid.NewString()
	start := time.Now()

	var (
		wg        sync.WaitGroup
		coreRes   *CoreResult
		coreErr   error
		enrichRes *EnrichmentResult
		enrichErr error
		autoRes   *AutonomyResult
		autoErr   error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		cctx, cancel := context.WithTimeout(ctx, o.timeouts.Core)
		defer cancel()
		coreRes, coreErr = o.coreClient.Process(cctx, req)
	}()
	go func() {
		defer wg.Done()
		ectx, cancel := context.WithTimeout(ctx, o.timeouts.Enrichment)
		defer cancel()
		enrichRes, enrichErr = o.enrichClient.Enrich(ectx, req)
	}()
	go func() {
		defer wg.Done()
		actx, cancel := context.WithTimeout(ctx, o.timeouts.Autonomy)
		defer cancel()
		autoRes, autoErr = o.autonomyClient.Optimize(actx, req)
	}()
	wg.Wait()

	segmentErrors := make([]string, 0)

	if coreErr != nil || coreRes == nil {
		segmentErrors = append(segmentErrors, segmentFailure(BackendCore, coreErr))
		o.logger.Warn("Core segment degraded", zap.Error(coreErr), zap.String("correlation_id", correlationID))
		coreRes = FallbackCoreResult()
	}
	if enrichErr != nil || enrichRes == nil {
		segmentErrors = append(segmentErrors, segmentFailure(BackendEnrichment, enrichErr))
		o.logger.Warn("Enrichment segment degraded", zap.Error(enrichErr), zap.String("correlation_id", correlationID))
		enrichRes = FallbackEnrichmentResult()
	}
	if autoErr != nil || autoRes == nil {
		segmentErrors = append(segmentErrors, segmentFailure(BackendAutonomy, autoErr))
		o.logger.Warn("Autonomy segment degraded", zap.Error(autoErr), zap.String("correlation_id", correlationID))
		autoRes = FallbackAutonomyResult()
	}

	elapsedMs := float64(time.Since(start).Microseconds()) / 1000.0
	success := len(segmentErrors) == 0

	result := &UnifiedResult{
		CoreProcessing:    coreRes,
		AIEnhancements:    enrichRes,
		AutonomousActions: autoRes,
		Overall: Overall{
			Success:          success,
			Errors:           segmentErrors,
			Confidence:       overallConfidence(enrichRes.ConfidenceScores),
			ProcessingTimeMs: elapsedMs,
			Timestamp:        time.Now(),
			CorrelationID:    correlationID,
		},
	}

	// Only fallback-free passes are cached so a transient outage cannot
	// pin a degraded result for the whole TTL window.
	if success && o.cacheEnabled {
		if err := o.cache.Set(ctx, key, result, o.cacheTTL); err != nil {
			o.logger.Error("Failed to cache result", zap.Error(err), zap.String("fingerprint", key))
		}
	}

	if o.publisher != nil {
		o.publisher.Publish(Event{
			Type:          EventResultReady,
			Data:          result,
			Timestamp:     time.Now(),
			CorrelationID: correlationID,
		})
		if !success {
			o.publisher.Publish(Event{
				Type:          EventResultError,
				Data:          segmentErrors,
				Timestamp:     time.Now(),
				CorrelationID: correlationID,
			})
		}
	}

	o.stats.RecordRequest(elapsedMs, !success)

	o.logger.Info("Request processed",
		zap.String("correlation_id", correlationID),
		zap.Bool("success", success),
		zap.Int("degraded_segments", len(segmentErrors)),
		zap.Float64("elapsed_ms", elapsedMs))

	return result, nil
}

// FallbackCoreResult is the canonical core segment fallback. Delivery
// is never blocked on a core outage: the mail is marked processed with
// a clean scan and a fresh thread id.
func FallbackCoreResult() *CoreResult {
	return &CoreResult{
		Processed: true,
		SecurityScan: SecurityScan{
			Passed:      true,
			SpamScore:   0.0,
			ThreatLevel: "none",
		},
		ThreadID:         uuid.NewString(),
		ProcessingTimeMs: 0,
	}
}

// FallbackEnrichmentResult is the canonical enrichment segment fallback
func FallbackEnrichmentResult() *EnrichmentResult {
	return &EnrichmentResult{
		Suggestions:      []string{},
		Summary:          "",
		RoutingDecisions: []string{},
		Translation:      nil,
		KeyPoints:        []string{},
		ConfidenceScores: map[string]float64{},
	}
}

// FallbackAutonomyResult is the canonical autonomy segment fallback
func FallbackAutonomyResult() *AutonomyResult {
	return &AutonomyResult{
		OptimizationsApplied: []string{},
		Predictions:          []string{},
		RecommendedActions:   []string{},
	}
}

// overallConfidence averages the enrichment confidence map. An empty
// map yields the neutral 0.5: no information, not low confidence.
func overallConfidence(scores map[string]float64) float64 {
	if len(scores) == 0 {
		return 0.5
	}
	sum := 0.0
	for _, v := range scores {
		sum += v
	}
	mean := sum / float64(len(scores))
	if mean < 0 {
		return 0
	}
	if mean > 1 {
		return 1
	}
	return mean
}

// segmentFailure renders one entry of overall.errors, tagged with the
// segment that degraded.
func segmentFailure(segment string, err error) string {
	if err == nil {
		return fmt.Sprintf("%s: empty response", segment)
	}
	var be *BackendError
	if errors.As(err, &be) {
		if be.Err != nil {
			return fmt.Sprintf("%s: %s (%v)", segment, be.Kind, be.Err)
		}
		return fmt.Sprintf("%s: %s", segment, be.Kind)
	}
	return fmt.Sprintf("%s: %v", segment, err)
}
