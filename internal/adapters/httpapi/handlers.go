package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/mailmind/ai-gateway/internal/core"
	"go.uber.org/zap"
)

// handleProcess runs one request through the orchestrator.
// 200 covers both full success and degraded passes; 400 is reserved for
// validation failures and 5xx for orchestration-internal crashes.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req core.ProcessingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		processRequests.WithLabelValues("bad_request").Inc()
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := s.orchestrator.Process(r.Context(), &req)
	if err != nil {
		if core.IsValidation(err) {
			processRequests.WithLabelValues("bad_request").Inc()
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("Orchestration failed", zap.Error(err))
		processRequests.WithLabelValues("internal_error").Inc()
		writeError(w, http.StatusInternalServerError, "internal orchestration failure")
		return
	}

	status := "success"
	if !result.Overall.Success {
		status = "degraded"
		for _, msg := range result.Overall.Errors {
			if segment, _, ok := strings.Cut(msg, ":"); ok {
				segmentFailures.WithLabelValues(segment).Inc()
			}
		}
	}
	processRequests.WithLabelValues(status).Inc()
	processDuration.Observe(float64(time.Since(start).Microseconds()) / 1000.0)

	writeJSON(w, http.StatusOK, result)
}

// handleHealth serves a live aggregate health snapshot
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snapshot := s.health.Aggregate(r.Context())

	status := http.StatusOK
	if !snapshot.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, snapshot)
}

// statsResponse combines gateway counters with each backend's own
// stats probe output
type statsResponse struct {
	Gateway  core.GatewayStats                 `json:"gateway"`
	Backends map[string]map[string]interface{} `json:"backends"`
}

// handleStats serves gateway counters plus per-backend stats snapshots
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	resp := statsResponse{
		Gateway:  s.stats.Snapshot(),
		Backends: make(map[string]map[string]interface{}, len(s.backends)),
	}

	for _, backend := range s.backends {
		ctx, cancel := context.WithTimeout(r.Context(), s.statsTimeout)
		stats, err := backend.Stats(ctx)
		cancel()
		if err != nil {
			resp.Backends[backend.Name()] = map[string]interface{}{"error": err.Error()}
			continue
		}
		resp.Backends[backend.Name()] = stats
	}

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
