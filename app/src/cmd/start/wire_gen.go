//go:build !wireinject

package main

import (
	"context"
	"io"

	"kpi-analytics-service/app/src/core"
	"kpi-analytics-service/app/src/infra"
)

func initApplication(ctx context.Context, out io.Writer) (*application, func(), error) {
	cfg, logger := setupBase(out)

	alerts, cleanup, err := provideAlertRepository(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	store := provideMeasurementStore(cfg)
	analyzer := setupAnalyzer(cfg, logger)
	svc := provideService(store, alerts, analyzer, cfg, logger)
	feed := provideFeed(cfg, logger)
	pool := provideWorkerPool(cfg, store, logger)

	app := newApplication(cfg, logger, svc, store, feed, pool)
	return assembleApplication(app, cleanup)
}

func setupBase(out io.Writer) (infra.Config, *infra.Logger) {
	cfg := provideConfig()
	svcName := provideServiceName()
	log := provideLogger(out, svcName)
	return cfg, log
}

func setupAnalyzer(cfg infra.Config, logger *infra.Logger) *core.Analyzer {
	detectors := provideDetectors(cfg)
	return provideAnalyzer(detectors, cfg, logger)
}
