package backend

import (
	"context"
	"time"

	"github.com/mailmind/ai-gateway/internal/core"
	"go.uber.org/zap"
)

// CoreClient is the adapter for the core email processing engine
type CoreClient struct {
	httpBackend
}

// NewCoreClient creates a new core engine client
func NewCoreClient(baseURL string, timeout time.Duration, logger *zap.Logger) *CoreClient {
	return &CoreClient{
		httpBackend: newHTTPBackend(core.BackendCore, baseURL, timeout, logger),
	}
}

// Process submits the request to the core engine for processing
func (c *CoreClient) Process(ctx context.Context, req *core.ProcessingRequest) (*core.CoreResult, error) {
	var result core.CoreResult
	if err := c.postJSON(ctx, "/process", req, &result); err != nil {
		return nil, err
	}

	c.logger.Debug("Core engine responded",
		zap.String("thread_id", result.ThreadID),
		zap.Float64("spam_score", result.SecurityScan.SpamScore))

	return &result, nil
}
