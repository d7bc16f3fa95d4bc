package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/glacierwatch/internal/assistant"
	"github.com/hyperjump/glacierwatch/internal/catalog"
	"github.com/hyperjump/glacierwatch/internal/climate"
	"github.com/hyperjump/glacierwatch/internal/config"
	"github.com/hyperjump/glacierwatch/internal/geoproc"
	"github.com/hyperjump/glacierwatch/internal/session"
	"github.com/hyperjump/glacierwatch/internal/velocity"
)

// Components holds initialized services.
type Components struct {
	Store    session.Store
	Platform geoproc.Platform
	Catalog  *catalog.Catalog
	Sessions *session.Manager
}

// Close releases resources held by the components.
func (c *Components) Close() {
	if c.Store != nil {
		_ = c.Store.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	var platform geoproc.Platform
	if cfg.Platform.Simulated {
		logger.Warn("platform.simulated is set: velocity and climate results are synthetic")
		platform = geoproc.NewSimulatedPlatform()
	} else {
		platform = geoproc.NewClient(cfg.Platform.Endpoint, cfg.Platform.APIKey, cfg.Platform.Timeout(),
			geoproc.WithLogger(logger))
		logger.Info("processing platform", zap.String("endpoint", cfg.Platform.Endpoint))
	}

	orch, err := velocity.NewOrchestrator(platform, &cfg.Velocity, velocity.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize velocity orchestrator: %w", err)
	}
	fetcher, err := climate.NewFetcher(platform, &cfg.Climate, climate.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize climate fetcher: %w", err)
	}

	gen, err := newGenerator(&cfg.Assistant)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize assistant: %w", err)
	}
	logger.Info("assistant initialized",
		zap.String("provider", cfg.Assistant.Provider),
		zap.String("model", gen.Model()))
	bridge := assistant.NewBridge(gen, assistant.WithLogger(logger))

	cat := catalog.New()
	if cfg.Catalog.Path != "" {
		if err := cat.LoadFile(cfg.Catalog.Path); err != nil {
			if !catalog.IsNotExist(err) {
				return nil, fmt.Errorf("failed to load catalog: %w", err)
			}
			logger.Warn("catalog file not found, using built-in glaciers", zap.String("path", cfg.Catalog.Path))
		}
	}

	store, err := session.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session store: %w", err)
	}

	return &Components{
		Store:    store,
		Platform: platform,
		Catalog:  cat,
		Sessions: session.NewManager(store, orch, fetcher, bridge, session.WithLogger(logger)),
	}, nil
}

func newGenerator(cfg *config.AssistantConfig) (assistant.Generator, error) {
	switch cfg.Provider {
	case config.ProviderOllama:
		return assistant.NewOllamaGenerator(cfg.Endpoint, cfg.Model, cfg.Timeout())
	case config.ProviderGemini:
		return assistant.NewGeminiClient(cfg.Endpoint, cfg.APIKey, cfg.Model, cfg.Timeout())
	default:
		return nil, fmt.Errorf("unknown assistant provider %q", cfg.Provider)
	}
}
