package core

import (
	"context"
	"math"

	"kpi-analytics-service/app/src/domain"
)

// RollingDetector compares each point against a trailing moving mean and
// standard deviation, so it adapts to slow drift that a global z-score
// would absorb into the baseline.
type RollingDetector struct {
	// WindowSize is the number of trailing samples in the window. Early
	// points use the partial window that exists. Default 50.
	WindowSize int
	// Multiplier is the deviation bound in rolling-std units. Default 2.5.
	Multiplier float64
	// StdFloor replaces a zero rolling standard deviation so a deviation in
	// a near-constant window still registers. Default 1e-6.
	StdFloor float64
}

// NewRollingDetector builds a detector with the standard defaults for any
// non-positive parameter.
func NewRollingDetector(windowSize int, multiplier float64) *RollingDetector {
	if windowSize <= 0 {
		windowSize = 50
	}
	if multiplier <= 0 {
		multiplier = 2.5
	}
	return &RollingDetector{WindowSize: windowSize, Multiplier: multiplier, StdFloor: 1e-6}
}

func (d *RollingDetector) Name() string { return domain.MethodRolling }

func (d *RollingDetector) Detect(ctx context.Context, stream []domain.Measurement) ([]domain.AnomalyRecord, error) {
	var records []domain.AnomalyRecord
	floor := d.StdFloor
	if floor <= 0 {
		floor = 1e-6
	}

	for _, series := range groupByCell(stream) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		values := latencies(series)
		for i, m := range series {
			start := i - d.WindowSize + 1
			if start < 0 {
				start = 0
			}
			window := values[start : i+1]
			avg := mean(window)
			std := stdDev(window, avg)
			if std == 0 {
				std = floor
			}

			deviation := math.Abs(values[i]-avg) / std
			if deviation <= d.Multiplier {
				continue
			}
			records = append(records, domain.AnomalyRecord{
				Timestamp:    m.Timestamp,
				CellID:       m.CellID,
				Metric:       "latency_ms",
				Value:        m.LatencyMs,
				IsAnomaly:    true,
				AnomalyScore: deviation,
				Method:       d.Name(),
				Threshold:    domain.Float64Ptr(d.Multiplier),
				Baseline:     domain.Float64Ptr(avg),
			})
		}
	}

	return records, nil
}

var _ domain.Detector = (*RollingDetector)(nil)
