package factory

import (
	"fmt"

	"github.com/mailmind/ai-gateway/internal/adapters/backend"
	"github.com/mailmind/ai-gateway/internal/config"
	"github.com/mailmind/ai-gateway/internal/core"
	"go.uber.org/zap"
)

// BackendFactory creates the three backend clients from configuration
type BackendFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewBackendFactory creates a new backend factory
func NewBackendFactory(cfg *config.Config, logger *zap.Logger) *BackendFactory {
	return &BackendFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateCoreClient creates the core engine client
func (f *BackendFactory) CreateCoreClient() (*backend.CoreClient, error) {
	bc, err := f.cfg.GetBackend(core.BackendCore)
	if err != nil {
		return nil, fmt.Errorf("core backend config: %w", err)
	}
	return backend.NewCoreClient(bc.Address, bc.Timeout, f.logger), nil
}

// CreateEnrichmentClient creates the enrichment service client
func (f *BackendFactory) CreateEnrichmentClient() (*backend.EnrichmentClient, error) {
	bc, err := f.cfg.GetBackend(core.BackendEnrichment)
	if err != nil {
		return nil, fmt.Errorf("enrichment backend config: %w", err)
	}
	return backend.NewEnrichmentClient(bc.Address, bc.Timeout, f.logger), nil
}

// CreateAutonomyClient creates the autonomy service client
func (f *BackendFactory) CreateAutonomyClient() (*backend.AutonomyClient, error) {
	bc, err := f.cfg.GetBackend(core.BackendAutonomy)
	if err != nil {
		return nil, fmt.Errorf("autonomy backend config: %w", err)
	}
	return backend.NewAutonomyClient(bc.Address, bc.Timeout, f.logger), nil
}

// SegmentTimeouts returns the per-segment orchestration timeouts
func (f *BackendFactory) SegmentTimeouts() (core.SegmentTimeouts, error) {
	var timeouts core.SegmentTimeouts

	coreCfg, err := f.cfg.GetBackend(core.BackendCore)
	if err != nil {
		return timeouts, err
	}
	enrichCfg, err := f.cfg.GetBackend(core.BackendEnrichment)
	if err != nil {
		return timeouts, err
	}
	autoCfg, err := f.cfg.GetBackend(core.BackendAutonomy)
	if err != nil {
		return timeouts, err
	}

	timeouts.Core = coreCfg.Timeout
	timeouts.Enrichment = enrichCfg.Timeout
	timeouts.Autonomy = autoCfg.Timeout
	return timeouts, nil
}
