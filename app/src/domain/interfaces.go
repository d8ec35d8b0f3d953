package domain

import (
	"context"
	"time"
)

// MeasurementWriter persists KPI measurements produced by ingestion or the
// synthetic generator.
type MeasurementWriter interface {
	Add(ctx context.Context, m Measurement) error
	AddBatch(ctx context.Context, ms []Measurement) error
}

// MeasurementReader exposes the queries used by the analytics application.
type MeasurementReader interface {
	Query(ctx context.Context, filter MeasurementFilter) ([]Measurement, error)
}

// MeasurementRepository aggregates the write and read capabilities required
// by the service.
type MeasurementRepository interface {
	MeasurementWriter
	MeasurementReader
}

// MeasurementFilter narrows measurement queries. Zero values mean "no filter".
type MeasurementFilter struct {
	CellIDs []string
	From    time.Time
	To      time.Time
}

// AlertRepository stores and lists operational alerts.
type AlertRepository interface {
	Create(ctx context.Context, alert Alert) error
	List(ctx context.Context, filter AlertFilter) ([]Alert, error)
	CountActive(ctx context.Context) (int, error)
	CountTotal(ctx context.Context) (int, error)
}

// Detector is one anomaly detection strategy. Implementations group the
// stream by cell and sort by timestamp themselves; callers may pass the
// stream in any order. An empty stream yields an empty result, not an error.
type Detector interface {
	Name() string
	Detect(ctx context.Context, stream []Measurement) ([]AnomalyRecord, error)
}

// AnalyticsService describes the behaviour exposed to transport layers.
type AnalyticsService interface {
	Ingest(ctx context.Context, m Measurement) error
	IngestBatch(ctx context.Context, ms []Measurement) error
	GenerateSynthetic(ctx context.Context, req SyntheticRequest) (int, error)
	QueryMeasurements(ctx context.Context, filter MeasurementFilter) ([]Measurement, error)
	Summary(ctx context.Context, filter MeasurementFilter) ([]StatisticalSummary, error)
	DetectAnomalies(ctx context.Context, filter MeasurementFilter, methods []string) (map[string][]AnomalyRecord, error)
	CreateAlert(ctx context.Context, alert Alert) (Alert, error)
	ListAlerts(ctx context.Context, filter AlertFilter) ([]Alert, error)
	Status(ctx context.Context) (SystemStatus, error)
}

// SyntheticRequest describes one synthetic stream generation run. A
// non-zero Seed makes the run reproducible.
type SyntheticRequest struct {
	CellIDs         []string
	TrafficProfiles []TrafficProfile
	StartTime       time.Time
	DurationHours   float64
	IntervalSeconds int
	AnomalyRate     float64
	Seed            int64
}

// SystemStatus summarises service health for the status endpoint.
type SystemStatus struct {
	Status             string
	Timestamp          time.Time
	ActiveAlerts       int
	TotalAlerts        int
	RecentMeasurements int
}
