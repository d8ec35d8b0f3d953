package core

import (
	"context"
	"sync"

	"kpi-analytics-service/app/src/domain"
	"kpi-analytics-service/app/src/infra"
)

// Analyzer runs a configured subset of detectors over one stream. It holds
// the detectors as a polymorphic collection; method names are only used to
// select which detectors run. Outputs are concatenated per method with no
// cross-method deduplication: the same instant may legitimately appear once
// per method that detects it.
type Analyzer struct {
	detectors []domain.Detector
	workers   int
	logger    Logger
}

// cellTask is one unit of detection work: one detector over one cell's
// series. Failures stay local to the task.
type cellTask struct {
	detector domain.Detector
	cellID   string
	series   []domain.Measurement
}

type cellResult struct {
	method  string
	cellID  string
	records []domain.AnomalyRecord
	err     error
}

// NewAnalyzer builds an analyzer fanning detection out over workerCount
// goroutines. workerCount <= 0 falls back to serial execution.
func NewAnalyzer(detectors []domain.Detector, workerCount int, logger Logger) *Analyzer {
	if workerCount <= 0 {
		workerCount = 1
	}
	return &Analyzer{detectors: detectors, workers: workerCount, logger: logger}
}

// DefaultDetectors returns the full detector set with default parameters.
func DefaultDetectors(seed int64) []domain.Detector {
	return []domain.Detector{
		NewZScoreDetector(0),
		NewRollingDetector(0, 0),
		NewIsolationDetector(0, seed),
		NewDropDetector(0),
		NewInstabilityDetector(0),
	}
}

// Analyze runs the requested methods over the stream and returns the
// records grouped by method name. A nil methods slice selects every
// detector; an explicit empty slice selects none. Unknown method names are
// logged and skipped. Per-cell work runs on the worker pool; a failing
// (cell, method) pair is reported without aborting the rest of the batch.
func (a *Analyzer) Analyze(ctx context.Context, stream []domain.Measurement, methods []string) (map[string][]domain.AnomalyRecord, error) {
	selected := a.selectDetectors(ctx, methods)
	results := make(map[string][]domain.AnomalyRecord, len(selected))
	for _, d := range selected {
		results[d.Name()] = nil
	}
	if len(selected) == 0 || len(stream) == 0 {
		return results, nil
	}

	groups := groupByCell(stream)
	tasks := make([]cellTask, 0, len(groups)*len(selected))
	for cellID, series := range groups {
		for _, d := range selected {
			tasks = append(tasks, cellTask{detector: d, cellID: cellID, series: series})
		}
	}

	for result := range a.runTasks(ctx, tasks) {
		if result.err != nil {
			infra.IncDetectionErrors()
			a.log(ctx, "analyzer: method=%s cell=%s failed: %v", result.method, result.cellID, result.err)
			continue
		}
		results[result.method] = append(results[result.method], result.records...)
		infra.AddAnomaliesDetected(result.method, len(result.records))
	}

	return results, ctx.Err()
}

func (a *Analyzer) selectDetectors(ctx context.Context, methods []string) []domain.Detector {
	if methods == nil {
		return a.detectors
	}

	byName := make(map[string]domain.Detector, len(a.detectors))
	for _, d := range a.detectors {
		byName[d.Name()] = d
	}

	selected := make([]domain.Detector, 0, len(methods))
	seen := make(map[string]struct{}, len(methods))
	for _, name := range methods {
		d, ok := byName[name]
		if !ok {
			a.log(ctx, "analyzer: unknown detection method %q skipped", name)
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		selected = append(selected, d)
	}
	return selected
}

// runTasks executes the task list on a bounded worker pool. Cancellation
// stops new work; results already produced stay valid.
func (a *Analyzer) runTasks(ctx context.Context, tasks []cellTask) <-chan cellResult {
	taskCh := make(chan cellTask)
	resultCh := make(chan cellResult)

	workers := a.workers
	if workers > len(tasks) {
		workers = len(tasks)
	}

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			infra.WorkerStarted()
			defer wg.Done()
			defer infra.WorkerFinished()
			for task := range taskCh {
				records, err := task.detector.Detect(ctx, task.series)
				resultCh <- cellResult{
					method:  task.detector.Name(),
					cellID:  task.cellID,
					records: records,
					err:     err,
				}
			}
		}()
	}

	go func() {
		defer close(taskCh)
		for _, task := range tasks {
			select {
			case <-ctx.Done():
				return
			case taskCh <- task:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	return resultCh
}

func (a *Analyzer) log(ctx context.Context, format string, v ...any) {
	if a.logger != nil {
		a.logger.Printf(ctx, format, v...)
	}
}
