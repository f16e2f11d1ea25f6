package backend

import (
	"context"
	"time"

	"github.com/mailmind/ai-gateway/internal/core"
	"go.uber.org/zap"
)

// AutonomyClient is the adapter for the autonomous-optimization service
type AutonomyClient struct {
	httpBackend
}

// NewAutonomyClient creates a new autonomy service client
func NewAutonomyClient(baseURL string, timeout time.Duration, logger *zap.Logger) *AutonomyClient {
	return &AutonomyClient{
		httpBackend: newHTTPBackend(core.BackendAutonomy, baseURL, timeout, logger),
	}
}

// optimizeRequest is the wire shape the autonomy service accepts. The
// context fields stay null under parallel fan-out; the service falls
// back to request-only optimization when they are absent.
type optimizeRequest struct {
	Request           *core.ProcessingRequest `json:"request"`
	CoreContext       *core.CoreResult        `json:"coreContext"`
	EnrichmentContext *core.EnrichmentResult  `json:"enrichmentContext"`
}

// Optimize submits the request to the autonomy service
func (c *AutonomyClient) Optimize(ctx context.Context, req *core.ProcessingRequest) (*core.AutonomyResult, error) {
	var result core.AutonomyResult
	if err := c.postJSON(ctx, "/optimize", &optimizeRequest{Request: req}, &result); err != nil {
		return nil, err
	}

	c.logger.Debug("Autonomy service responded",
		zap.Int("optimizations", len(result.OptimizationsApplied)),
		zap.Int("recommendations", len(result.RecommendedActions)))

	return &result, nil
}
