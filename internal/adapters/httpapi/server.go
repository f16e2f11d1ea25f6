package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/mailmind/ai-gateway/internal/core"
)

// Server is the gateway's public HTTP surface
type Server struct {
	orchestrator *core.Orchestrator
	health       *core.HealthAggregator
	stats        *core.StatsTracker
	backends     []core.BackendClient
	wsHandler    http.Handler
	logger       *zap.Logger
	listenAddr   string
	corsOrigins  []string
	statsTimeout time.Duration
	server       *http.Server
}

// NewServer creates a new HTTP server for the gateway surface
func NewServer(
	orchestrator *core.Orchestrator,
	health *core.HealthAggregator,
	stats *core.StatsTracker,
	backends []core.BackendClient,
	wsHandler http.Handler,
	logger *zap.Logger,
	listenAddr string,
	corsOrigins []string,
) *Server {
	registerMetrics()

	return &Server{
		orchestrator: orchestrator,
		health:       health,
		stats:        stats,
		backends:     backends,
		wsHandler:    wsHandler,
		logger:       logger,
		listenAddr:   listenAddr,
		corsOrigins:  corsOrigins,
		statsTimeout: 3 * time.Second,
	}
}

// Router builds the route table
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/process", s.handleProcess).Methods(http.MethodPost)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	if s.wsHandler != nil {
		r.Handle("/ws", s.wsHandler)
	}
	r.Use(s.loggingMiddleware)

	c := cors.New(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(r)
}

// Start begins serving in the background
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.listenAddr,
		Handler:      s.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	s.logger.Info("Gateway HTTP server starting", zap.String("address", s.listenAddr))

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop shuts the server down gracefully
func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("Request handled",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("elapsed", time.Since(start)))
	})
}
