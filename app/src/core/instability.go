package core

import (
	"context"
	"time"

	"kpi-analytics-service/app/src/domain"
)

// InstabilityDetector flags traffic instability via the coefficient of
// variation over a trailing wall-clock window. The window is bounded by
// timestamp rather than sample count because sampling cadence may vary.
// Throughput naturally varies more than latency under normal load, so its
// bar sits higher.
type InstabilityDetector struct {
	// Window is the trailing wall-clock window. Default 5 minutes.
	Window time.Duration
	// ThroughputCVPct is the CV threshold for throughput. Default 50.
	ThroughputCVPct float64
	// LatencyCVPct is the CV threshold for latency. Default 40.
	LatencyCVPct float64
}

// NewInstabilityDetector builds a detector with the standard defaults for any
// non-positive parameter.
func NewInstabilityDetector(window time.Duration) *InstabilityDetector {
	if window <= 0 {
		window = 5 * time.Minute
	}
	return &InstabilityDetector{
		Window:          window,
		ThroughputCVPct: 50.0,
		LatencyCVPct:    40.0,
	}
}

func (d *InstabilityDetector) Name() string { return domain.MethodInstability }

func (d *InstabilityDetector) Detect(ctx context.Context, stream []domain.Measurement) ([]domain.AnomalyRecord, error) {
	var records []domain.AnomalyRecord

	metrics := []struct {
		name      string
		values    func([]domain.Measurement) []float64
		threshold float64
	}{
		{"throughput_mbps", throughputs, d.ThroughputCVPct},
		{"latency_ms", latencies, d.LatencyCVPct},
	}

	for _, series := range groupByCell(stream) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		for _, metric := range metrics {
			values := metric.values(series)
			start := 0
			for i, m := range series {
				// Advance the window start past samples older than the
				// trailing wall-clock window ending at this point.
				cutoff := m.Timestamp.Add(-d.Window)
				for start <= i && series[start].Timestamp.Before(cutoff) {
					start++
				}

				window := values[start : i+1]
				avg := mean(window)
				if avg == 0 {
					continue
				}
				cv := stdDev(window, avg) / avg * 100
				if cv <= metric.threshold {
					continue
				}
				records = append(records, domain.AnomalyRecord{
					Timestamp:    m.Timestamp,
					CellID:       m.CellID,
					Metric:       metric.name + "_instability",
					Value:        cv,
					IsAnomaly:    true,
					AnomalyScore: cv,
					Method:       d.Name(),
					Threshold:    domain.Float64Ptr(metric.threshold),
				})
			}
		}
	}

	return records, nil
}

var _ domain.Detector = (*InstabilityDetector)(nil)
