package core

import (
	"context"
	"sync"

	"kpi-analytics-service/app/src/domain"
	"kpi-analytics-service/app/src/infra"
)

// WorkerPool drains the ingestion channel and persists measurements into
// the measurement store. It is the asynchronous half of the ingest path:
// transports enqueue, workers write.
type WorkerPool struct {
	repo        domain.MeasurementWriter
	workerCount int
	logger      Logger
}

// NewWorkerPool builds a pool with the given worker count. A zero count
// produces a pool that only drains the channel without persisting.
func NewWorkerPool(workerCount int, repo domain.MeasurementWriter, logger Logger) *WorkerPool {
	if workerCount < 0 {
		workerCount = 0
	}
	return &WorkerPool{repo: repo, workerCount: workerCount, logger: logger}
}

// Run consumes measurements until the channel closes or the context is
// cancelled. It blocks until every worker has finished.
func (p *WorkerPool) Run(ctx context.Context, measurements <-chan domain.Measurement) {
	if p.workerCount == 0 {
		p.drainUntilClosed(ctx, measurements)
		return
	}

	var wg sync.WaitGroup
	wg.Add(p.workerCount)

	for i := 0; i < p.workerCount; i++ {
		go func() {
			infra.WorkerStarted()
			defer wg.Done()
			defer infra.WorkerFinished()
			p.workerLoop(ctx, measurements)
		}()
	}
	wg.Wait()
}

func (p *WorkerPool) workerLoop(ctx context.Context, measurements <-chan domain.Measurement) {
	for {
		select {
		case <-ctx.Done():
			p.log(ctx, "worker: context cancelled: %v", ctx.Err())
			return
		case m, ok := <-measurements:
			if !ok {
				return
			}
			p.store(ctx, m)
		}
	}
}

func (p *WorkerPool) store(ctx context.Context, m domain.Measurement) {
	if err := p.repo.Add(ctx, m); err != nil {
		infra.IncIngestErrors()
		p.log(ctx, "worker: failed to store cell=%s ts=%s: %v", m.CellID, m.Timestamp, err)
		return
	}
	infra.IncIngestedMeasurements()
}

func (p *WorkerPool) drainUntilClosed(ctx context.Context, measurements <-chan domain.Measurement) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-measurements:
			if !ok {
				return
			}
		}
	}
}

func (p *WorkerPool) log(ctx context.Context, format string, v ...any) {
	if p.logger != nil {
		p.logger.Printf(ctx, format, v...)
	}
}
