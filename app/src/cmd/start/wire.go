//go:build wireinject

package main

import (
	"context"
	"io"

	"github.com/google/wire"
)

func initApplication(ctx context.Context, out io.Writer) (*application, func(), error) {
	wire.Build(
		provideConfig,
		provideServiceName,
		provideLogger,
		provideDetectors,
		provideAnalyzer,
		provideMeasurementStore,
		provideWorkerPool,
		provideFeed,
		provideAlertRepository,
		provideService,
		newApplication,
		assembleApplication,
	)
	return nil, nil, nil
}
