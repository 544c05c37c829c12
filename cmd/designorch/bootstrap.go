package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/designorch/internal/config"
	"github.com/fyrsmithlabs/designorch/internal/handlers"
	"github.com/fyrsmithlabs/designorch/internal/logging"
	"github.com/fyrsmithlabs/designorch/internal/orchestrator"
	"github.com/fyrsmithlabs/designorch/internal/provider"
	"github.com/fyrsmithlabs/designorch/internal/telemetry"
)

// app holds the wired components for one CLI invocation.
type app struct {
	cfg       *config.Config
	logger    *logging.Logger
	telemetry *telemetry.Telemetry
	registry  *prometheus.Registry
	orch      *orchestrator.Orchestrator
}

func bootstrap(ctx context.Context, flags *rootFlags) (*app, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}

	logCfg, err := loggingConfig(cfg, flags)
	if err != nil {
		return nil, err
	}

	telCfg := telemetry.NewDefaultConfig()
	if err := cfg.Unmarshal("telemetry", telCfg); err != nil {
		return nil, err
	}
	tel, err := telemetry.New(ctx, telCfg)
	if err != nil {
		return nil, err
	}

	logger, err := logging.NewLogger(logCfg, tel.LoggerProvider())
	if err != nil {
		return nil, errors.Join(err, tel.Shutdown(ctx))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	orch, err := newOrchestrator(cfg, logger, orchestrator.NewMetrics(reg))
	if err != nil {
		return nil, errors.Join(err, tel.Shutdown(ctx))
	}

	return &app{cfg: cfg, logger: logger, telemetry: tel, registry: reg, orch: orch}, nil
}

func loggingConfig(cfg *config.Config, flags *rootFlags) (*logging.Config, error) {
	lc := logging.NewDefaultConfig()
	if err := cfg.Unmarshal("logging", lc); err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		level, err := logging.LevelFromString(flags.logLevel)
		if err != nil {
			return nil, err
		}
		lc.Level = level
	}
	if flags.logFormat != "" {
		lc.Format = flags.logFormat
	}
	return lc, nil
}

func newOrchestrator(cfg *config.Config, logger *logging.Logger, metrics *orchestrator.Metrics) (*orchestrator.Orchestrator, error) {
	affinity, err := cfg.AffinityTable()
	if err != nil {
		return nil, err
	}
	factory, err := cfg.LimiterFactory()
	if err != nil {
		return nil, err
	}
	registry := provider.NewRegistry(
		provider.WithAffinity(affinity),
		provider.WithLimiterFactory(factory),
		provider.WithProbeTimeout(cfg.Orchestrator.ProbeTimeout.Duration()),
	)

	simulated := handlers.NewSimulatedSet(handlers.NewSimulated(cfg.Orchestrator.SimulatedLatency.Duration()))

	orch, err := orchestrator.New(
		orchestrator.WithLogger(logger),
		orchestrator.WithMetrics(metrics),
		orchestrator.WithRegistry(registry),
		orchestrator.WithHandlers(simulated),
		orchestrator.WithTimeoutEnforcement(cfg.Orchestrator.EnforceTimeouts),
		orchestrator.WithDefaultMaxConcurrent(cfg.Orchestrator.MaxConcurrent),
		orchestrator.WithEstimatedCost(cfg.Orchestrator.EstimatedCost),
	)
	if err != nil {
		return nil, err
	}
	if err := reloadProviders(context.Background(), orch, cfg, logger); err != nil {
		return nil, err
	}
	return orch, nil
}

// reloadProviders registers every configured provider, which resets its
// rate limiter. Providers that disappeared from the configuration are
// marked unavailable since the registry keeps registration order stable.
func reloadProviders(ctx context.Context, orch *orchestrator.Orchestrator, cfg *config.Config, logger *logging.Logger) error {
	configured := make(map[string]struct{}, len(cfg.Providers))
	for i, d := range cfg.Descriptors() {
		configured[d.Name] = struct{}{}
		if err := orch.RegisterProvider(d); err != nil {
			return fmt.Errorf("provider %q: %w", d.Name, err)
		}
		if key := cfg.Providers[i].APIKey; key.IsSet() {
			logger.Debug(ctx, "Provider credential loaded",
				zap.String("provider", d.Name),
				logging.Secret("api_key", key))
		}
	}

	for _, d := range orch.Registry().List() {
		if _, ok := configured[d.Name]; ok || !d.Available {
			continue
		}
		if err := orch.Registry().SetAvailable(d.Name, false); err != nil {
			return err
		}
		logger.Info(ctx, "Provider removed from configuration", zap.String("provider", d.Name))
	}
	return nil
}

func (a *app) Close(ctx context.Context) error {
	_ = a.logger.Sync()
	return a.telemetry.Shutdown(ctx)
}
