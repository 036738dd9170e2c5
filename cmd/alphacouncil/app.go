package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/zen-systems/alphacouncil/pkg/adapter"
	"github.com/zen-systems/alphacouncil/pkg/config"
	"github.com/zen-systems/alphacouncil/pkg/logging"
	"github.com/zen-systems/alphacouncil/pkg/market"
	"github.com/zen-systems/alphacouncil/pkg/pipeline"
)

// app holds the wired components shared by the commands.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	catalog  *config.ModelCatalog
	stages   *pipeline.Pipeline
	executor *pipeline.Executor
	quotes   *market.JuheClient
	registry *prometheus.Registry
	metrics  *pipeline.Metrics
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	loader := config.NewLoader().WithConfigFile(configFile)
	v := loader.Viper()
	if f := cmd.Flags().Lookup("log-level"); f != nil && f.Changed {
		v.Set("log.level", logLevel)
	}
	if f := cmd.Flags().Lookup("log-format"); f != nil && f.Changed {
		v.Set("log.format", logFormat)
	}
	return loader.Load()
}

// newApp loads configuration and wires logging, adapters, market data and
// metrics. With mock set every stage runs on the mock provider.
func newApp(cmd *cobra.Command, mock bool) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: os.Stderr})
	slog.SetDefault(logger)
	if cfg.ConfigFile != "" {
		logger.Debug("config loaded", slog.String("file", cfg.ConfigFile))
	}

	catalog, err := config.LoadModelCatalogWithFallback(cfg.LLM.ModelsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load model catalog: %w", err)
	}

	stages := pipeline.DefaultPipeline()
	if cfg.Pipeline.Manifest != "" {
		stages, err = pipeline.LoadManifest(cfg.Pipeline.Manifest)
		if err != nil {
			return nil, fmt.Errorf("failed to load stage manifest: %w", err)
		}
	}
	if mock {
		for _, s := range stages.Stages {
			s.Provider = adapter.ProviderMock
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := pipeline.NewMetrics(registry)

	defaults := pipeline.Credentials(cfg.DefaultCredentials())
	factory := adapter.NewFactory(adapter.FactoryConfig{
		BaseURLs:        cfg.ProviderBaseURLs(),
		GeminiWebSearch: cfg.LLM.GeminiWebSearch,
	})
	executor := pipeline.NewExecutor(factory,
		pipeline.WithDefaultCredentials(defaults),
		pipeline.WithSystemPrompt(cfg.LLM.SystemPrompt),
		pipeline.WithExecutorLogger(logger),
		pipeline.WithMetrics(metrics),
	)

	quotes := market.NewJuheClient(
		market.WithBaseURL(cfg.Market.BaseURL),
		market.WithDefaultKey(defaults.Get(pipeline.MarketCredential)),
		market.WithHTTPClient(&http.Client{Timeout: cfg.Market.Timeout}),
		market.WithLogger(logger),
	)

	return &app{
		cfg:      cfg,
		logger:   logger,
		catalog:  catalog,
		stages:   stages,
		executor: executor,
		quotes:   quotes,
		registry: registry,
		metrics:  metrics,
	}, nil
}

// newController builds a fresh session controller over the app's stages.
func (a *app) newController() *pipeline.Controller {
	return pipeline.NewController(a.stages, a.executor,
		pipeline.WithMarket(a.quotes),
		pipeline.WithResolver(a.catalog),
		pipeline.WithLogger(a.logger),
		pipeline.WithControllerMetrics(a.metrics),
	)
}
