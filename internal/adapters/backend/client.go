package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/mailmind/ai-gateway/internal/core"
	"go.uber.org/zap"
)

// httpBackend is the shared JSON-over-HTTP transport for the three
// backend adapters. Every call is bounded by the client timeout and
// failures are classified into the typed error taxonomy. No retries
// happen here; retry policy belongs to the orchestrator.
type httpBackend struct {
	name    string
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func newHTTPBackend(name, baseURL string, timeout time.Duration, logger *zap.Logger) httpBackend {
	return httpBackend{
		name:    name,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Name identifies the backend in errors, health and stats output
func (b *httpBackend) Name() string {
	return b.name
}

// HealthCheck probes GET /health and reports reachability and latency
func (b *httpBackend) HealthCheck(ctx context.Context) (bool, time.Duration, error) {
	start := time.Now()

	var probe struct {
		Healthy bool `json:"healthy"`
	}
	if err := b.getJSON(ctx, "/health", &probe); err != nil {
		return false, time.Since(start), err
	}

	return probe.Healthy, time.Since(start), nil
}

// Stats fetches the backend's opaque stats snapshot from GET /stats
func (b *httpBackend) Stats(ctx context.Context) (map[string]interface{}, error) {
	stats := make(map[string]interface{})
	if err := b.getJSON(ctx, "/stats", &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// postJSON sends payload to path and decodes the response into out
func (b *httpBackend) postJSON(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", b.name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", b.name, err)
	}
	req.Header.Set("Content-Type", "application/json")

	return b.do(req, out)
}

// getJSON fetches path and decodes the response into out
func (b *httpBackend) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", b.name, err)
	}

	return b.do(req, out)
}

func (b *httpBackend) do(req *http.Request, out interface{}) error {
	resp, err := b.client.Do(req)
	if err != nil {
		return core.NewBackendError(b.name, classifyTransportError(err), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return core.NewBackendError(b.name, core.ErrorRejected,
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return core.NewBackendError(b.name, core.ErrorMalformed,
			fmt.Errorf("failed to decode response: %w", err))
	}

	return nil
}

// classifyTransportError separates a timed-out call from an unreachable
// backend. Both end up on the same fallback path, but the distinction
// is surfaced in overall.errors and in logs.
func classifyTransportError(err error) core.ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return core.ErrorTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return core.ErrorTimeout
	}
	return core.ErrorUnreachable
}
