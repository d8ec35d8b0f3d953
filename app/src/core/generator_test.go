package core

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kpi-analytics-service/app/src/domain"
)

func TestGeneratorSameSeedIsDeterministic(t *testing.T) {
	t.Parallel()

	req := domain.SyntheticRequest{
		CellIDs:         []string{"gNB_001_Cell_1", "gNB_002_Cell_1"},
		TrafficProfiles: []domain.TrafficProfile{domain.ProfileEMBB, domain.ProfileURLLC},
		StartTime:       time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		DurationHours:   0.5,
		IntervalSeconds: 10,
		AnomalyRate:     0.05,
	}

	first := NewGenerator(GeneratorConfig{Seed: 42}, nil).GenerateStream(req)
	second := NewGenerator(GeneratorConfig{Seed: 42}, nil).GenerateStream(req)

	require.Equal(t, len(first), len(second))
	assert.Equal(t, first, second, "same seed must reproduce the stream bit for bit")
}

func TestGeneratorDifferentSeedsDiverge(t *testing.T) {
	t.Parallel()

	req := domain.SyntheticRequest{
		CellIDs:         []string{"gNB_001_Cell_1"},
		TrafficProfiles: []domain.TrafficProfile{domain.ProfileEMBB},
		StartTime:       time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		DurationHours:   0.1,
		IntervalSeconds: 10,
	}

	first := NewGenerator(GeneratorConfig{Seed: 1}, nil).GenerateStream(req)
	second := NewGenerator(GeneratorConfig{Seed: 2}, nil).GenerateStream(req)
	assert.NotEqual(t, first, second)
}

func TestGeneratorStreamShape(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	req := domain.SyntheticRequest{
		CellIDs:         []string{"a", "b", "c"},
		TrafficProfiles: []domain.TrafficProfile{domain.ProfileMMTC, domain.ProfileMixed},
		StartTime:       start,
		DurationHours:   1,
		IntervalSeconds: 60,
	}

	stream := NewGenerator(GeneratorConfig{Seed: 5}, nil).GenerateStream(req)

	// 60 steps x 3 cells x 2 profiles
	require.Len(t, stream, 360)
	assert.Equal(t, start, stream[0].Timestamp)
	assert.Equal(t, start.Add(59*time.Minute), stream[len(stream)-1].Timestamp)
}

func TestGeneratorBaselineDistribution(t *testing.T) {
	t.Parallel()

	gen := NewGenerator(GeneratorConfig{Seed: 99}, nil)
	ts := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	for profile, params := range profileTable {
		const n = 10000
		latencySum, throughputSum := 0.0, 0.0
		samples := make([]domain.Measurement, n)
		for i := 0; i < n; i++ {
			m := gen.GenerateBaseline("cell", profile, ts)
			samples[i] = m
			latencySum += m.LatencyMs
			throughputSum += m.ThroughputMbps
		}

		latencyMean := latencySum / n
		throughputMean := throughputSum / n

		// Floors skew the smallest profiles slightly upward, so the
		// tolerance is a few percent of the parameter rather than exact.
		assert.InDelta(t, params.latencyMean, latencyMean, params.latencyMean*0.05+0.5, "latency mean for %s", profile)
		assert.InDelta(t, params.throughputMean, throughputMean, params.throughputMean*0.05+1.0, "throughput mean for %s", profile)

		latencyVar := 0.0
		for _, m := range samples {
			d := m.LatencyMs - latencyMean
			latencyVar += d * d
		}
		latencyStd := math.Sqrt(latencyVar / float64(n-1))
		assert.InDelta(t, params.latencyStd, latencyStd, params.latencyStd*0.1+0.5, "latency std for %s", profile)

		for _, m := range samples[:100] {
			assert.GreaterOrEqual(t, m.LatencyMs, 0.1)
			assert.GreaterOrEqual(t, m.ThroughputMbps, 1.0)
			assert.GreaterOrEqual(t, m.PacketLossPct, 0.0)
			assert.LessOrEqual(t, m.PacketLossPct, 5.0)
			require.NotNil(t, m.SignalStrengthDbm)
			assert.GreaterOrEqual(t, *m.SignalStrengthDbm, -90.0)
			assert.LessOrEqual(t, *m.SignalStrengthDbm, -60.0)
			require.NotNil(t, m.ActiveUsers)
			assert.GreaterOrEqual(t, *m.ActiveUsers, 0)
		}
	}
}

func TestInjectLatencySpikeScalesJitter(t *testing.T) {
	t.Parallel()

	gen := NewGenerator(GeneratorConfig{Seed: 3}, nil)
	m := domain.Measurement{
		LatencyMs: 20,
		JitterMs:  domain.Float64Ptr(2),
	}

	spiked := gen.InjectLatencySpike(m, 4)
	assert.Equal(t, 80.0, spiked.LatencyMs)
	require.NotNil(t, spiked.JitterMs)
	assert.InDelta(t, 2*4*0.8, *spiked.JitterMs, 1e-9)
}

func TestInjectThroughputDropCapsPacketLoss(t *testing.T) {
	t.Parallel()

	gen := NewGenerator(GeneratorConfig{Seed: 3}, nil)
	m := domain.Measurement{ThroughputMbps: 500, PacketLossPct: 4}

	dropped := gen.InjectThroughputDrop(m, 0.5)
	assert.Equal(t, 250.0, dropped.ThroughputMbps)
	assert.Equal(t, 10.0, dropped.PacketLossPct, "tripled loss is capped at 10")
}

func TestInjectCongestionCompoundEffect(t *testing.T) {
	t.Parallel()

	gen := NewGenerator(GeneratorConfig{Seed: 3}, nil)
	m := domain.Measurement{
		LatencyMs:      20,
		ThroughputMbps: 400,
		PacketLossPct:  1,
		ActiveUsers:    domain.IntPtr(50),
	}

	congested := gen.InjectCongestion(m)
	assert.Equal(t, 50.0, congested.LatencyMs)
	assert.Equal(t, 200.0, congested.ThroughputMbps)
	assert.Equal(t, 4.0, congested.PacketLossPct)
	require.NotNil(t, congested.ActiveUsers)
	assert.Equal(t, 90, *congested.ActiveUsers)
}

func TestGeneratorRounding(t *testing.T) {
	t.Parallel()

	gen := NewGenerator(GeneratorConfig{Seed: 17}, nil)
	m := gen.GenerateBaseline("cell", domain.ProfileEMBB, time.Now().UTC())

	assert.Equal(t, round(m.LatencyMs, 2), m.LatencyMs)
	assert.Equal(t, round(m.ThroughputMbps, 2), m.ThroughputMbps)
	assert.Equal(t, round(m.PacketLossPct, 4), m.PacketLossPct)
	require.NotNil(t, m.SignalStrengthDbm)
	assert.Equal(t, round(*m.SignalStrengthDbm, 1), *m.SignalStrengthDbm)
}

func TestPoissonMean(t *testing.T) {
	t.Parallel()

	gen := NewGenerator(GeneratorConfig{Seed: 23}, nil)
	const n = 10000
	sum := 0
	for i := 0; i < n; i++ {
		sum += poisson(gen.rnd, 50)
	}
	assert.InDelta(t, 50.0, float64(sum)/n, 1.0)
}
