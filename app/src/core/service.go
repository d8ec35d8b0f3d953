package core

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"kpi-analytics-service/app/src/domain"
	"kpi-analytics-service/app/src/infra"
)

// Service implements the analytics use-cases exposed to transport layers.
// Measurements live in the measurement store, alerts in the alert
// repository; detection always runs on freshly queried data.
type Service struct {
	measurements domain.MeasurementRepository
	alerts       domain.AlertRepository
	analyzer     *Analyzer
	generatorCfg GeneratorConfig
	logger       Logger
}

// NewService wires the store, the alert repository and the analyzer into
// the application service.
func NewService(
	measurements domain.MeasurementRepository,
	alerts domain.AlertRepository,
	analyzer *Analyzer,
	generatorCfg GeneratorConfig,
	logger Logger,
) *Service {
	return &Service{
		measurements: measurements,
		alerts:       alerts,
		analyzer:     analyzer,
		generatorCfg: generatorCfg,
		logger:       logger,
	}
}

// Ingest validates and stores a single measurement.
func (s *Service) Ingest(ctx context.Context, m domain.Measurement) error {
	valid, err := domain.NewMeasurement(m)
	if err != nil {
		infra.IncIngestErrors()
		return err
	}
	if err := s.measurements.Add(ctx, valid); err != nil {
		infra.IncIngestErrors()
		return err
	}
	infra.IncIngestedMeasurements()
	return nil
}

// IngestBatch validates every measurement up front, then stores the batch.
// One invalid sample rejects the whole batch so partial writes never hide
// bad data.
func (s *Service) IngestBatch(ctx context.Context, ms []domain.Measurement) error {
	valid := make([]domain.Measurement, len(ms))
	for i, m := range ms {
		v, err := domain.NewMeasurement(m)
		if err != nil {
			infra.IncIngestErrors()
			return fmt.Errorf("batch index %d: %w", i, err)
		}
		valid[i] = v
	}
	if err := s.measurements.AddBatch(ctx, valid); err != nil {
		infra.IncIngestErrors()
		return err
	}
	infra.AddIngestedMeasurements(len(valid))
	return nil
}

// GenerateSynthetic produces a synthetic stream and stores it. Returns the
// number of generated measurements.
func (s *Service) GenerateSynthetic(ctx context.Context, req domain.SyntheticRequest) (int, error) {
	if len(req.CellIDs) == 0 {
		req.CellIDs = []string{"gNB_001_Cell_1", "gNB_002_Cell_1"}
	}
	if len(req.TrafficProfiles) == 0 {
		req.TrafficProfiles = []domain.TrafficProfile{domain.ProfileEMBB}
	}
	if req.StartTime.IsZero() {
		req.StartTime = time.Now().UTC().Add(-time.Duration(req.DurationHours * float64(time.Hour)))
	}
	if req.AnomalyRate < 0 || req.AnomalyRate > 0.5 {
		return 0, fmt.Errorf("%w: anomaly rate %.3f outside [0,0.5]", domain.ErrInvalidMeasurement, req.AnomalyRate)
	}

	cfg := s.generatorCfg
	if req.Seed != 0 {
		cfg.Seed = req.Seed
	}
	generator := NewGenerator(cfg, s.logger)
	stream := generator.GenerateStream(req)

	if err := s.measurements.AddBatch(ctx, stream); err != nil {
		return 0, err
	}
	s.log(ctx, "generated %d synthetic measurements for %d cells", len(stream), len(req.CellIDs))
	return len(stream), nil
}

// QueryMeasurements returns stored measurements matching the filter.
func (s *Service) QueryMeasurements(ctx context.Context, filter domain.MeasurementFilter) ([]domain.Measurement, error) {
	return s.measurements.Query(ctx, filter)
}

// Summary computes per-cell distribution statistics for latency,
// throughput and packet loss over the filtered window.
func (s *Service) Summary(ctx context.Context, filter domain.MeasurementFilter) ([]domain.StatisticalSummary, error) {
	stream, err := s.measurements.Query(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(stream) == 0 {
		return nil, nil
	}

	timeRange := fmt.Sprintf("%s to %s", formatBound(filter.From), formatBound(filter.To))
	var summaries []domain.StatisticalSummary

	groups := groupByCell(stream)
	cellIDs := make([]string, 0, len(groups))
	for cellID := range groups {
		cellIDs = append(cellIDs, cellID)
	}
	sort.Strings(cellIDs)

	metrics := []struct {
		name   string
		values func([]domain.Measurement) []float64
	}{
		{"latency_ms", latencies},
		{"throughput_mbps", throughputs},
		{"packet_loss_pct", packetLosses},
	}

	for _, cellID := range cellIDs {
		series := groups[cellID]
		for _, metric := range metrics {
			summaries = append(summaries, summarise(metric.name, cellID, series[0].TrafficProfile, metric.values(series), timeRange))
		}
	}
	return summaries, nil
}

// DetectAnomalies queries the filtered window and runs the requested
// detection methods over it.
func (s *Service) DetectAnomalies(ctx context.Context, filter domain.MeasurementFilter, methods []string) (map[string][]domain.AnomalyRecord, error) {
	stream, err := s.measurements.Query(ctx, filter)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	results, err := s.analyzer.Analyze(ctx, stream, methods)
	infra.ObserveDetection(time.Since(start))
	return results, err
}

// CreateAlert assigns an id, validates and persists the alert.
func (s *Service) CreateAlert(ctx context.Context, alert domain.Alert) (domain.Alert, error) {
	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}
	if err := alert.Validate(); err != nil {
		return domain.Alert{}, err
	}
	if err := s.alerts.Create(ctx, alert); err != nil {
		return domain.Alert{}, err
	}
	infra.IncAlertsCreated(string(alert.Severity))
	return alert, nil
}

// ListAlerts returns persisted alerts matching the filter.
func (s *Service) ListAlerts(ctx context.Context, filter domain.AlertFilter) ([]domain.Alert, error) {
	return s.alerts.List(ctx, filter)
}

// Status reports alert counts and the measurement volume over the last
// hour. Repository failures degrade the status instead of erroring.
func (s *Service) Status(ctx context.Context) (domain.SystemStatus, error) {
	now := time.Now().UTC()
	status := domain.SystemStatus{Status: "operational", Timestamp: now}

	active, err := s.alerts.CountActive(ctx)
	if err != nil {
		s.log(ctx, "status: count active alerts failed: %v", err)
		status.Status = "degraded"
	}
	total, err := s.alerts.CountTotal(ctx)
	if err != nil {
		s.log(ctx, "status: count total alerts failed: %v", err)
		status.Status = "degraded"
	}

	recent, err := s.measurements.Query(ctx, domain.MeasurementFilter{From: now.Add(-time.Hour), To: now})
	if err != nil {
		s.log(ctx, "status: recent measurement query failed: %v", err)
		status.Status = "degraded"
	}

	status.ActiveAlerts = active
	status.TotalAlerts = total
	status.RecentMeasurements = len(recent)
	return status, nil
}

func summarise(metric, cellID string, profile domain.TrafficProfile, values []float64, timeRange string) domain.StatisticalSummary {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	avg := mean(values)
	return domain.StatisticalSummary{
		Metric:         metric,
		CellID:         cellID,
		TrafficProfile: profile,
		Mean:           avg,
		Median:         percentile(sorted, 50),
		StdDev:         stdDev(values, avg),
		Min:            sorted[0],
		Max:            sorted[len(sorted)-1],
		P95:            percentile(sorted, 95),
		P99:            percentile(sorted, 99),
		SampleCount:    len(values),
		TimeRange:      timeRange,
	}
}

func packetLosses(series []domain.Measurement) []float64 {
	out := make([]float64, len(series))
	for i, m := range series {
		out[i] = m.PacketLossPct
	}
	return out
}

func formatBound(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.UTC().Format(time.RFC3339)
}

func (s *Service) log(ctx context.Context, format string, v ...any) {
	if s.logger != nil {
		s.logger.Printf(ctx, format, v...)
	}
}

var _ domain.AnalyticsService = (*Service)(nil)
