package core

import (
	"context"
	"math"

	"kpi-analytics-service/app/src/domain"
)

// ZScoreDetector flags points whose absolute z-score against the whole
// series exceeds a threshold. A constant series has no statistical
// outliers, so zero standard deviation short-circuits to no flags.
type ZScoreDetector struct {
	// Threshold is the |z| decision boundary. Default 3.0.
	Threshold float64
}

// NewZScoreDetector builds a detector with the default threshold when
// threshold <= 0.
func NewZScoreDetector(threshold float64) *ZScoreDetector {
	if threshold <= 0 {
		threshold = 3.0
	}
	return &ZScoreDetector{Threshold: threshold}
}

func (d *ZScoreDetector) Name() string { return domain.MethodZScore }

func (d *ZScoreDetector) Detect(ctx context.Context, stream []domain.Measurement) ([]domain.AnomalyRecord, error) {
	var records []domain.AnomalyRecord

	for _, series := range groupByCell(stream) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		values := latencies(series)
		avg := mean(values)
		std := stdDev(values, avg)
		if std == 0 {
			continue
		}

		for i, m := range series {
			z := math.Abs((values[i] - avg) / std)
			if z <= d.Threshold {
				continue
			}
			records = append(records, domain.AnomalyRecord{
				Timestamp:    m.Timestamp,
				CellID:       m.CellID,
				Metric:       "latency_ms",
				Value:        m.LatencyMs,
				IsAnomaly:    true,
				AnomalyScore: z,
				Method:       d.Name(),
				Threshold:    domain.Float64Ptr(d.Threshold),
				Baseline:     domain.Float64Ptr(avg),
			})
		}
	}

	return records, nil
}

var _ domain.Detector = (*ZScoreDetector)(nil)
