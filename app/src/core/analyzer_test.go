package core

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kpi-analytics-service/app/src/domain"
)

func analyzerTestStream(t *testing.T) []domain.Measurement {
	t.Helper()

	gen := NewGenerator(GeneratorConfig{Seed: 31}, nil)
	return gen.GenerateStream(domain.SyntheticRequest{
		CellIDs:         []string{"gNB_001_Cell_1", "gNB_002_Cell_1"},
		TrafficProfiles: []domain.TrafficProfile{domain.ProfileEMBB},
		StartTime:       time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		DurationHours:   1,
		IntervalSeconds: 10,
		AnomalyRate:     0.05,
	})
}

func sortRecords(records []domain.AnomalyRecord) {
	sort.Slice(records, func(i, j int) bool {
		if !records[i].Timestamp.Equal(records[j].Timestamp) {
			return records[i].Timestamp.Before(records[j].Timestamp)
		}
		if records[i].CellID != records[j].CellID {
			return records[i].CellID < records[j].CellID
		}
		return records[i].Metric < records[j].Metric
	})
}

func TestAnalyzerSingleMethodMatchesDirectDetectorCall(t *testing.T) {
	t.Parallel()

	stream := analyzerTestStream(t)

	analyzer := NewAnalyzer(DefaultDetectors(31), 4, nil)
	viaAnalyzer, err := analyzer.Analyze(context.Background(), stream, []string{domain.MethodZScore})
	require.NoError(t, err)

	direct, err := NewZScoreDetector(0).Detect(context.Background(), stream)
	require.NoError(t, err)

	got := viaAnalyzer[domain.MethodZScore]
	sortRecords(got)
	sortRecords(direct)
	assert.Equal(t, direct, got, "aggregated run must equal the direct detector call")
}

func TestAnalyzerNilMethodsRunsAllDetectors(t *testing.T) {
	t.Parallel()

	stream := analyzerTestStream(t)
	analyzer := NewAnalyzer(DefaultDetectors(31), 4, nil)

	results, err := analyzer.Analyze(context.Background(), stream, nil)
	require.NoError(t, err)

	for _, method := range []string{
		domain.MethodZScore,
		domain.MethodRolling,
		domain.MethodIsolation,
		domain.MethodDrop,
		domain.MethodInstability,
	} {
		_, ok := results[method]
		assert.True(t, ok, "method %s missing from results", method)
	}
}

func TestAnalyzerEmptyMethodsRunsNothing(t *testing.T) {
	t.Parallel()

	stream := analyzerTestStream(t)
	analyzer := NewAnalyzer(DefaultDetectors(31), 4, nil)

	results, err := analyzer.Analyze(context.Background(), stream, []string{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestAnalyzerUnknownMethodSkipped(t *testing.T) {
	t.Parallel()

	stream := analyzerTestStream(t)
	analyzer := NewAnalyzer(DefaultDetectors(31), 4, nil)

	results, err := analyzer.Analyze(context.Background(), stream, []string{"dbscan", domain.MethodDrop})
	require.NoError(t, err)

	_, hasUnknown := results["dbscan"]
	assert.False(t, hasUnknown)
	_, hasDrop := results[domain.MethodDrop]
	assert.True(t, hasDrop)
}

func TestAnalyzerEmptyStream(t *testing.T) {
	t.Parallel()

	analyzer := NewAnalyzer(DefaultDetectors(31), 4, nil)
	results, err := analyzer.Analyze(context.Background(), nil, nil)
	require.NoError(t, err)

	require.Len(t, results, 5)
	for method, records := range results {
		assert.Empty(t, records, method)
	}
}

type failingDetector struct{}

func (failingDetector) Name() string { return "failing" }

func (failingDetector) Detect(context.Context, []domain.Measurement) ([]domain.AnomalyRecord, error) {
	return nil, errors.New("boom")
}

func TestAnalyzerFailingDetectorDoesNotAbortBatch(t *testing.T) {
	t.Parallel()

	stream := analyzerTestStream(t)
	detectors := []domain.Detector{failingDetector{}, NewZScoreDetector(0)}
	analyzer := NewAnalyzer(detectors, 2, nil)

	results, err := analyzer.Analyze(context.Background(), stream, nil)
	require.NoError(t, err)

	assert.Empty(t, results["failing"])
	direct, err := NewZScoreDetector(0).Detect(context.Background(), stream)
	require.NoError(t, err)
	assert.Len(t, results[domain.MethodZScore], len(direct))
}
