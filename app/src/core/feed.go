package core

import (
	"context"
	"time"

	"kpi-analytics-service/app/src/domain"
)

// FeedConfig controls the continuous synthetic feed that simulates live
// cell reporting when the service runs without a real ingestion source.
type FeedConfig struct {
	Interval    time.Duration
	CellIDs     []string
	Profiles    []domain.TrafficProfile
	AnomalyRate float64
}

// Feed emits one measurement per (cell, profile) pair on every tick until
// the context is cancelled. It closes the output channel on exit.
type Feed struct {
	cfg       FeedConfig
	generator *Generator
	logger    Logger
}

// NewFeed wires a generator into a periodic feed. Defaults: 10s interval,
// one cell with the Mixed profile, 5% anomaly rate.
func NewFeed(cfg FeedConfig, generator *Generator, logger Logger) *Feed {
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Second
	}
	if len(cfg.CellIDs) == 0 {
		cfg.CellIDs = []string{"gNB_001_Cell_1"}
	}
	if len(cfg.Profiles) == 0 {
		cfg.Profiles = []domain.TrafficProfile{domain.ProfileMixed}
	}
	if cfg.AnomalyRate < 0 {
		cfg.AnomalyRate = 0
	}
	return &Feed{cfg: cfg, generator: generator, logger: logger}
}

// Run produces measurements until the context is cancelled.
func (f *Feed) Run(ctx context.Context, out chan<- domain.Measurement) {
	defer close(out)

	ticker := time.NewTicker(f.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			f.log(ctx, "feed: stopped (context cancelled): %v", ctx.Err())
			return
		case <-ticker.C:
		}

		ts := time.Now().UTC()
		for _, cellID := range f.cfg.CellIDs {
			for _, profile := range f.cfg.Profiles {
				m := f.generator.GenerateBaseline(cellID, profile, ts)
				if f.generator.rnd.Float64() < f.cfg.AnomalyRate {
					m = f.generator.injectRandomAnomaly(m)
				}
				if !f.send(ctx, out, m) {
					return
				}
			}
		}
	}
}

func (f *Feed) send(ctx context.Context, out chan<- domain.Measurement, m domain.Measurement) bool {
	select {
	case <-ctx.Done():
		f.log(ctx, "feed: stopping before send: %v", ctx.Err())
		return false
	case out <- m:
		return true
	}
}

func (f *Feed) log(ctx context.Context, format string, v ...any) {
	if f.logger != nil {
		f.logger.Printf(ctx, format, v...)
	}
}
