package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mailmind/ai-gateway/internal/core"
)

func testRequest() *core.ProcessingRequest {
	return &core.ProcessingRequest{
		Sender:    "alice@example.com",
		Recipient: "bob@example.com",
		Subject:   "Hi",
		Body:      "test",
		Priority:  core.PriorityNormal,
		Timestamp: time.Now(),
	}
}

func requireBackendError(t *testing.T, err error, kind core.ErrorKind) {
	t.Helper()

	var backendErr *core.BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.Equal(t, kind, backendErr.Kind)
	assert.Equal(t, core.BackendCore, backendErr.Backend)
}

func TestCoreClientProcess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/process", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req core.ProcessingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "alice@example.com", req.Sender)

		json.NewEncoder(w).Encode(core.CoreResult{
			Processed:        true,
			SecurityScan:     core.SecurityScan{Passed: true, SpamScore: 0.1, ThreatLevel: "low"},
			ThreadID:         "thread-1",
			ProcessingTimeMs: 12,
		})
	}))
	defer srv.Close()

	c := NewCoreClient(srv.URL, time.Second, zap.NewNop())
	result, err := c.Process(context.Background(), testRequest())
	require.NoError(t, err)
	assert.True(t, result.Processed)
	assert.Equal(t, "thread-1", result.ThreadID)
	assert.Equal(t, 0.1, result.SecurityScan.SpamScore)
}

func TestClientRejectedOnErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewCoreClient(srv.URL, time.Second, zap.NewNop())
	_, err := c.Process(context.Background(), testRequest())
	requireBackendError(t, err, core.ErrorRejected)
}

func TestClientUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewCoreClient(srv.URL, time.Second, zap.NewNop())
	_, err := c.Process(context.Background(), testRequest())
	requireBackendError(t, err, core.ErrorUnreachable)
}

func TestClientTimeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	c := NewCoreClient(srv.URL, 50*time.Millisecond, zap.NewNop())
	_, err := c.Process(context.Background(), testRequest())
	requireBackendError(t, err, core.ErrorTimeout)
}

func TestClientContextDeadline(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	c := NewCoreClient(srv.URL, time.Minute, zap.NewNop())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Process(ctx, testRequest())
	requireBackendError(t, err, core.ErrorTimeout)
}

func TestClientMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := NewCoreClient(srv.URL, time.Second, zap.NewNop())
	_, err := c.Process(context.Background(), testRequest())
	requireBackendError(t, err, core.ErrorMalformed)
}

func TestHealthCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]bool{"healthy": true})
	}))
	defer srv.Close()

	c := NewCoreClient(srv.URL, time.Second, zap.NewNop())
	healthy, latency, err := c.HealthCheck(context.Background())
	require.NoError(t, err)
	assert.True(t, healthy)
	assert.Greater(t, latency, time.Duration(0))
}

func TestHealthCheckUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewCoreClient(srv.URL, time.Second, zap.NewNop())
	healthy, _, err := c.HealthCheck(context.Background())
	assert.False(t, healthy)
	requireBackendError(t, err, core.ErrorUnreachable)
}

func TestStats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stats", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{"queue_depth": 3})
	}))
	defer srv.Close()

	c := NewCoreClient(srv.URL, time.Second, zap.NewNop())
	stats, err := c.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, float64(3), stats["queue_depth"])
}

func TestEnrichmentClientEnrich(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/enrich", r.URL.Path)
		json.NewEncoder(w).Encode(core.EnrichmentResult{
			Summary:          "a short note",
			Suggestions:      []string{"reply soon"},
			ConfidenceScores: map[string]float64{"summary": 0.9},
		})
	}))
	defer srv.Close()

	c := NewEnrichmentClient(srv.URL, time.Second, zap.NewNop())
	result, err := c.Enrich(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "a short note", result.Summary)
	assert.Equal(t, 0.9, result.ConfidenceScores["summary"])
}

func TestAutonomyClientOptimize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/optimize", r.URL.Path)

		// The fan-out runs all segments in parallel, so no upstream
		// context is available at request time
		var wire map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&wire))
		assert.Equal(t, "null", string(wire["coreContext"]))
		assert.Equal(t, "null", string(wire["enrichmentContext"]))

		json.NewEncoder(w).Encode(core.AutonomyResult{
			OptimizationsApplied: []string{"archive"},
			Predictions:          []string{"reply expected within 2h"},
		})
	}))
	defer srv.Close()

	c := NewAutonomyClient(srv.URL, time.Second, zap.NewNop())
	result, err := c.Optimize(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, []string{"archive"}, result.OptimizationsApplied)
}
