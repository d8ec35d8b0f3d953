package core

import (
	"context"

	"kpi-analytics-service/app/src/domain"
)

// DropDetector flags sudden throughput collapses against the mean of the
// preceding lookback window. The first lookback samples of every cell have
// no valid baseline and are never evaluated.
type DropDetector struct {
	// ThresholdPct is the percentage drop bound. Default 30.
	ThresholdPct float64
	// Lookback is the number of preceding samples forming the local
	// baseline. Fixed at 20.
	Lookback int
}

// NewDropDetector builds a detector with the standard defaults for any
// non-positive parameter.
func NewDropDetector(thresholdPct float64) *DropDetector {
	if thresholdPct <= 0 {
		thresholdPct = 30.0
	}
	return &DropDetector{ThresholdPct: thresholdPct, Lookback: 20}
}

func (d *DropDetector) Name() string { return domain.MethodDrop }

func (d *DropDetector) Detect(ctx context.Context, stream []domain.Measurement) ([]domain.AnomalyRecord, error) {
	var records []domain.AnomalyRecord
	lookback := d.Lookback
	if lookback <= 0 {
		lookback = 20
	}

	for _, series := range groupByCell(stream) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		values := throughputs(series)
		for i := lookback; i < len(values); i++ {
			baseline := mean(values[i-lookback : i])
			if baseline == 0 {
				continue
			}
			dropPct := (baseline - values[i]) / baseline * 100
			if dropPct <= d.ThresholdPct {
				continue
			}
			records = append(records, domain.AnomalyRecord{
				Timestamp:    series[i].Timestamp,
				CellID:       series[i].CellID,
				Metric:       "throughput_mbps",
				Value:        values[i],
				IsAnomaly:    true,
				AnomalyScore: dropPct,
				Method:       d.Name(),
				Threshold:    domain.Float64Ptr(d.ThresholdPct),
				Baseline:     domain.Float64Ptr(baseline),
			})
		}
	}

	return records, nil
}

var _ domain.Detector = (*DropDetector)(nil)
