package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kpi-analytics-service/app/src/domain"
)

func TestIsolationForestIsolatesObviousOutlier(t *testing.T) {
	t.Parallel()

	rows := make([][]float64, 100)
	for i := range rows {
		rows[i] = []float64{20, 500, 0.1}
	}
	rows[42] = []float64{200, 50, 8}

	forest := newIsolationForest(100, 256, 0.05, 7)
	outliers, scores := forest.FitAndScore(rows)

	require.Len(t, outliers, 100)
	require.Len(t, scores, 100)
	assert.True(t, outliers[42], "the far-off point must be isolated")

	for i, s := range scores {
		if i == 42 {
			continue
		}
		assert.Less(t, s, scores[42], "inlier %d must score below the outlier", i)
	}
}

func TestIsolationForestEmptyInput(t *testing.T) {
	t.Parallel()

	forest := newIsolationForest(0, 0, 0, 1)
	outliers, scores := forest.FitAndScore(nil)
	assert.Nil(t, outliers)
	assert.Nil(t, scores)
}

func TestIsolationForestSameSeedSameScores(t *testing.T) {
	t.Parallel()

	gen := NewGenerator(GeneratorConfig{Seed: 3}, nil)
	ts := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	rows := make([][]float64, 200)
	for i := range rows {
		m := gen.GenerateBaseline("cell", domain.ProfileMixed, ts)
		rows[i] = []float64{m.LatencyMs, m.ThroughputMbps, m.PacketLossPct}
	}

	_, first := newIsolationForest(50, 128, 0.05, 9).FitAndScore(rows)
	_, second := newIsolationForest(50, 128, 0.05, 9).FitAndScore(rows)
	assert.Equal(t, first, second)
}

type stubOutlierModel struct {
	outlierIndex int
}

func (s stubOutlierModel) FitAndScore(rows [][]float64) ([]bool, []float64) {
	outliers := make([]bool, len(rows))
	scores := make([]float64, len(rows))
	if s.outlierIndex >= 0 && s.outlierIndex < len(rows) {
		outliers[s.outlierIndex] = true
		scores[s.outlierIndex] = 0.9
	}
	return outliers, scores
}

func TestIsolationDetectorUsesPluggableModel(t *testing.T) {
	t.Parallel()

	stream := seriesWithLatencies("cell-a", []float64{20, 21, 19, 22, 20})
	detector := NewIsolationDetector(0.05, 1)
	detector.Model = stubOutlierModel{outlierIndex: 3}

	records, err := detector.Detect(context.Background(), stream)
	require.NoError(t, err)

	require.Len(t, records, 1)
	record := records[0]
	assert.Equal(t, stream[3].Timestamp, record.Timestamp)
	assert.Equal(t, domain.MethodIsolation, record.Method)
	assert.Equal(t, 0.9, record.AnomalyScore)
	assert.Nil(t, record.Threshold, "unsupervised records carry no threshold")
	assert.Nil(t, record.Baseline)
}

func TestIsolationDetectorSkipsTinyCells(t *testing.T) {
	t.Parallel()

	stream := seriesWithLatencies("cell-a", []float64{20})
	records, err := NewIsolationDetector(0, 1).Detect(context.Background(), stream)
	require.NoError(t, err)
	assert.Empty(t, records)
}
