package backend

import (
	"context"
	"time"

	"github.com/mailmind/ai-gateway/internal/core"
	"go.uber.org/zap"
)

// EnrichmentClient is the adapter for the intelligence/enrichment service
type EnrichmentClient struct {
	httpBackend
}

// NewEnrichmentClient creates a new enrichment service client
func NewEnrichmentClient(baseURL string, timeout time.Duration, logger *zap.Logger) *EnrichmentClient {
	return &EnrichmentClient{
		httpBackend: newHTTPBackend(core.BackendEnrichment, baseURL, timeout, logger),
	}
}

// Enrich submits the request to the enrichment service
func (c *EnrichmentClient) Enrich(ctx context.Context, req *core.ProcessingRequest) (*core.EnrichmentResult, error) {
	var result core.EnrichmentResult
	if err := c.postJSON(ctx, "/enrich", req, &result); err != nil {
		return nil, err
	}

	c.logger.Debug("Enrichment service responded",
		zap.Int("suggestions", len(result.Suggestions)),
		zap.Int("routing_decisions", len(result.RoutingDecisions)))

	return &result, nil
}
