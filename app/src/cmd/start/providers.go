package main

import (
	"context"
	"io"
	"time"

	"kpi-analytics-service/app/src/core"
	"kpi-analytics-service/app/src/database"
	"kpi-analytics-service/app/src/domain"
	"kpi-analytics-service/app/src/infra"
)

func provideConfig() infra.Config {
	return infra.LoadConfig()
}

func provideServiceName() string {
	return "kpi-analytics-service"
}

func provideLogger(out io.Writer, serviceName string) *infra.Logger {
	return infra.NewLogger(out, serviceName)
}

func provideGeneratorConfig(cfg infra.Config) core.GeneratorConfig {
	return core.GeneratorConfig{
		Seed:           cfg.GeneratorSeed,
		SpikeFactorMin: cfg.SpikeFactorMin,
		SpikeFactorMax: cfg.SpikeFactorMax,
		DropFactorMin:  cfg.DropFactorMin,
		DropFactorMax:  cfg.DropFactorMax,
	}
}

func provideDetectors(cfg infra.Config) []domain.Detector {
	return []domain.Detector{
		core.NewZScoreDetector(cfg.ZScoreThreshold),
		core.NewRollingDetector(cfg.RollingWindowSize, cfg.RollingMultiplier),
		core.NewIsolationDetector(cfg.IsolationContam, cfg.GeneratorSeed),
		core.NewDropDetector(cfg.DropThresholdPct),
		core.NewInstabilityDetector(time.Duration(cfg.InstabilityWindowSecs) * time.Second),
	}
}

func provideAnalyzer(detectors []domain.Detector, cfg infra.Config, logger *infra.Logger) *core.Analyzer {
	return core.NewAnalyzer(detectors, cfg.DetectionWorkers, logger)
}

func provideMeasurementStore(cfg infra.Config) *database.MeasurementStore {
	return database.NewMeasurementStore(cfg.MeasurementRetainPoints)
}

func provideWorkerPool(cfg infra.Config, store *database.MeasurementStore, logger *infra.Logger) *core.WorkerPool {
	return core.NewWorkerPool(cfg.IngestWorkerCount, store, logger)
}

func provideFeed(cfg infra.Config, logger *infra.Logger) *core.Feed {
	profiles := make([]domain.TrafficProfile, 0, len(cfg.FeedProfiles))
	for _, name := range cfg.FeedProfiles {
		profile, err := domain.ParseTrafficProfile(name)
		if err != nil {
			logger.Printf(context.Background(), "feed: skipping profile: %v", err)
			continue
		}
		profiles = append(profiles, profile)
	}

	generator := core.NewGenerator(provideGeneratorConfig(cfg), logger)
	return core.NewFeed(core.FeedConfig{
		Interval:    time.Duration(cfg.FeedIntervalSeconds) * time.Second,
		CellIDs:     cfg.FeedCellIDs,
		Profiles:    profiles,
		AnomalyRate: cfg.FeedAnomalyRate,
	}, generator, logger)
}

func provideService(
	store *database.MeasurementStore,
	alerts domain.AlertRepository,
	analyzer *core.Analyzer,
	cfg infra.Config,
	logger *infra.Logger,
) domain.AnalyticsService {
	return core.NewService(store, alerts, analyzer, provideGeneratorConfig(cfg), logger)
}

func provideAlertRepository(ctx context.Context, cfg infra.Config, logger *infra.Logger) (domain.AlertRepository, func(), error) {
	if database.ShouldCheckDatabase(cfg) {
		if err := database.WaitForDatabase(ctx, cfg, logger); err != nil {
			if logger != nil {
				logger.Printf(ctx, "database connectivity check failed: %v", err)
			}
		} else if logger != nil {
			logger.Println(ctx, "database connectivity check succeeded")
		}
	} else if logger != nil {
		logger.Println(ctx, "database connectivity check skipped (no DSN or host configured)")
	}

	return database.SetupAlertRepository(ctx, cfg, logger)
}
