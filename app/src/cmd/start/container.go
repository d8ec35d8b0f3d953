package main

import (
	"kpi-analytics-service/app/src/core"
	"kpi-analytics-service/app/src/database"
	"kpi-analytics-service/app/src/domain"
	"kpi-analytics-service/app/src/infra"
)

type application struct {
	Config     infra.Config
	Logger     *infra.Logger
	Service    domain.AnalyticsService
	Store      *database.MeasurementStore
	Feed       *core.Feed
	WorkerPool *core.WorkerPool
}

func newApplication(
	cfg infra.Config,
	logger *infra.Logger,
	service domain.AnalyticsService,
	store *database.MeasurementStore,
	feed *core.Feed,
	workerPool *core.WorkerPool,
) *application {
	return &application{
		Config:     cfg,
		Logger:     logger,
		Service:    service,
		Store:      store,
		Feed:       feed,
		WorkerPool: workerPool,
	}
}

func assembleApplication(app *application, cleanup func()) (*application, func(), error) {
	if cleanup == nil {
		cleanup = func() {}
	}
	return app, cleanup, nil
}
