package core

import (
	"context"

	"kpi-analytics-service/app/src/domain"
)

// IsolationDetector scores each cell's series jointly on latency,
// throughput and packet loss with an unsupervised outlier model. The model
// is re-fit on every call: different cells and time windows have different
// underlying distributions, so fitted state is never carried over.
type IsolationDetector struct {
	// Contamination is the expected outlier fraction. Default 0.05.
	Contamination float64
	// Seed makes model fitting reproducible.
	Seed int64
	// Model overrides the default isolation forest when set; the decision
	// strategy is pluggable, not a hard dependency.
	Model OutlierModel
}

// NewIsolationDetector builds a detector with the default contamination
// when contamination is outside (0,1).
func NewIsolationDetector(contamination float64, seed int64) *IsolationDetector {
	if contamination <= 0 || contamination >= 1 {
		contamination = 0.05
	}
	return &IsolationDetector{Contamination: contamination, Seed: seed}
}

func (d *IsolationDetector) Name() string { return domain.MethodIsolation }

func (d *IsolationDetector) Detect(ctx context.Context, stream []domain.Measurement) ([]domain.AnomalyRecord, error) {
	var records []domain.AnomalyRecord

	for _, series := range groupByCell(stream) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(series) < 2 {
			continue
		}

		rows := make([][]float64, len(series))
		for i, m := range series {
			rows[i] = []float64{m.LatencyMs, m.ThroughputMbps, m.PacketLossPct}
		}

		model := d.Model
		if model == nil {
			model = newIsolationForest(100, 256, d.Contamination, d.Seed)
		}
		outliers, scores := model.FitAndScore(rows)

		for i, m := range series {
			if !outliers[i] {
				continue
			}
			// No threshold: the decision boundary is implicit in the model.
			// No baseline: there is no single reference value.
			records = append(records, domain.AnomalyRecord{
				Timestamp:    m.Timestamp,
				CellID:       m.CellID,
				Metric:       "latency_ms",
				Value:        m.LatencyMs,
				IsAnomaly:    true,
				AnomalyScore: scores[i],
				Method:       d.Name(),
			})
		}
	}

	return records, nil
}

var _ domain.Detector = (*IsolationDetector)(nil)
