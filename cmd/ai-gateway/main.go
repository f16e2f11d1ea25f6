package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/mailmind/ai-gateway/internal/adapters/broadcast"
	"github.com/mailmind/ai-gateway/internal/adapters/httpapi"
	"github.com/mailmind/ai-gateway/internal/adapters/smtpintake"
	"github.com/mailmind/ai-gateway/internal/config"
	"github.com/mailmind/ai-gateway/internal/core"
	"github.com/mailmind/ai-gateway/internal/factory"
	"github.com/mailmind/ai-gateway/internal/logging"
	"github.com/mailmind/ai-gateway/internal/utils"
)

func main() {
	if err := run(); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.New()
	if err != nil {
		return err
	}

	logger, err := logging.InitLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	// Backend clients
	backendFactory := factory.NewBackendFactory(cfg, logger)
	coreClient, err := backendFactory.CreateCoreClient()
	if err != nil {
		return err
	}
	enrichClient, err := backendFactory.CreateEnrichmentClient()
	if err != nil {
		return err
	}
	autonomyClient, err := backendFactory.CreateAutonomyClient()
	if err != nil {
		return err
	}
	timeouts, err := backendFactory.SegmentTimeouts()
	if err != nil {
		return err
	}

	// Result cache
	cacheFactory := factory.NewCacheFactory(cfg, logger)
	resultCache, err := cacheFactory.CreateResultCache()
	if err != nil {
		return err
	}
	cacheTTL, err := cacheFactory.GetCacheTTL()
	if err != nil {
		return err
	}

	// Broadcaster and live-push surface
	broadcaster := broadcast.NewBroadcaster(cfg.GetInt("broadcast.buffer_size"), logger)
	wsHandler := broadcast.NewWSHandler(broadcaster, logger)

	// Orchestration core
	stats := core.NewStatsTracker()
	orchestrator := core.NewOrchestrator(
		coreClient,
		enrichClient,
		autonomyClient,
		resultCache,
		broadcaster,
		stats,
		logger,
		cacheFactory.IsCacheEnabled(),
		cacheTTL,
		timeouts,
	)

	backends := []core.BackendClient{coreClient, enrichClient, autonomyClient}
	healthCfg, err := cfg.GetHealth()
	if err != nil {
		return err
	}
	health := core.NewHealthAggregator(backends, logger, healthCfg.ProbeTimeout, healthCfg.Quorum)

	monitor := core.NewMonitor(health, stats, broadcaster, logger, healthCfg.Interval)
	monitor.Start()

	// Public surfaces
	server := httpapi.NewServer(
		orchestrator,
		health,
		stats,
		backends,
		wsHandler,
		logger,
		cfg.GetString("server.listen_address"),
		cfg.GetStringSlice("server.cors_origins"),
	)
	if err := server.Start(); err != nil {
		logger.Fatal("Failed to start HTTP server", zap.Error(err))
		return err
	}

	var intake *smtpintake.Intake
	if smtpCfg := cfg.GetSMTP(); smtpCfg.Enabled {
		intake = smtpintake.NewIntake(
			orchestrator,
			utils.NewTextProcessor(logger),
			logger,
			smtpCfg.ListenAddress,
			smtpCfg.RelayAddress,
			smtpCfg.RelayPort,
			smtpCfg.MaxBodySize,
		)
		if err := intake.Start(); err != nil {
			logger.Fatal("Failed to start SMTP intake", zap.Error(err))
			return err
		}
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Info("Shutting down...")

	if intake != nil {
		if err := intake.Stop(); err != nil {
			logger.Error("Failed to stop SMTP intake", zap.Error(err))
		}
	}
	if err := server.Stop(); err != nil {
		logger.Error("Failed to stop HTTP server", zap.Error(err))
	}
	monitor.Stop()

	// Stop the cache if needed
	if stopper, ok := resultCache.(interface{ Stop() }); ok {
		stopper.Stop()
	}

	logger.Info("Shutdown complete")
	return nil
}
