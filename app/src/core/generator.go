package core

import (
	"math"
	"math/rand"
	"time"

	"kpi-analytics-service/app/src/domain"
	"kpi-analytics-service/app/src/infra"
)

// profileParams holds the tabulated baseline distribution for one traffic
// profile: mean/std for latency (ms), throughput (Mbps) and packet loss (%).
type profileParams struct {
	latencyMean, latencyStd       float64
	throughputMean, throughputStd float64
	packetLossMean, packetLossStd float64
}

var profileTable = map[domain.TrafficProfile]profileParams{
	domain.ProfileEMBB:  {20.0, 5.0, 800.0, 150.0, 0.1, 0.05},
	domain.ProfileURLLC: {5.0, 1.5, 200.0, 40.0, 0.01, 0.005},
	domain.ProfileMMTC:  {100.0, 30.0, 50.0, 15.0, 0.5, 0.2},
	domain.ProfileMixed: {30.0, 10.0, 500.0, 120.0, 0.2, 0.1},
}

// GeneratorConfig controls the synthetic stream generator. Zero values are
// replaced with the standard defaults.
type GeneratorConfig struct {
	// Seed makes the whole stream, anomaly placement included, reproducible.
	Seed int64
	// SpikeFactorMin/Max bound the latency spike multiplier.
	SpikeFactorMin float64
	SpikeFactorMax float64
	// DropFactorMin/Max bound the throughput drop multiplier.
	DropFactorMin float64
	DropFactorMax float64
}

// Generator produces synthetic per-cell KPI streams with a controllable
// fraction of injected anomalies. It owns its random source; two generators
// built with the same seed produce identical streams.
type Generator struct {
	cfg    GeneratorConfig
	logger Logger
	rnd    *rand.Rand
}

// NewGenerator constructs a generator with its own seeded random source.
func NewGenerator(cfg GeneratorConfig, logger Logger) *Generator {
	if cfg.SpikeFactorMin <= 0 {
		cfg.SpikeFactorMin = 2.5
	}
	if cfg.SpikeFactorMax <= 0 {
		cfg.SpikeFactorMax = 5.0
	}
	if cfg.DropFactorMin <= 0 {
		cfg.DropFactorMin = 0.3
	}
	if cfg.DropFactorMax <= 0 {
		cfg.DropFactorMax = 0.6
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Generator{
		cfg:    cfg,
		logger: logger,
		rnd:    rand.New(rand.NewSource(seed)),
	}
}

// GenerateBaseline draws one normal (non-anomalous) measurement for the
// given cell and profile at the given instant.
func (g *Generator) GenerateBaseline(cellID string, profile domain.TrafficProfile, ts time.Time) domain.Measurement {
	params := profileTable[profile]

	latency := math.Max(0.1, params.latencyMean+g.rnd.NormFloat64()*params.latencyStd)
	throughput := math.Max(1.0, params.throughputMean+g.rnd.NormFloat64()*params.throughputStd)
	packetLoss := clamp(params.packetLossMean+g.rnd.NormFloat64()*params.packetLossStd, 0.0, 5.0)
	// Jitter tracks the sampled latency rather than being an independent draw.
	jitter := math.Max(0.1, g.rnd.ExpFloat64()*latency*0.1)
	signal := -90.0 + g.rnd.Float64()*30.0
	users := poisson(g.rnd, 50)

	return domain.Measurement{
		Timestamp:         ts,
		CellID:            cellID,
		TrafficProfile:    profile,
		LatencyMs:         round(latency, 2),
		ThroughputMbps:    round(throughput, 2),
		PacketLossPct:     round(packetLoss, 4),
		JitterMs:          domain.Float64Ptr(round(jitter, 2)),
		SignalStrengthDbm: domain.Float64Ptr(round(signal, 1)),
		ActiveUsers:       domain.IntPtr(users),
	}
}

// InjectLatencySpike multiplies latency by the given factor. Jitter follows
// at 0.8x the same factor; jitter anomalies never appear on their own.
func (g *Generator) InjectLatencySpike(m domain.Measurement, factor float64) domain.Measurement {
	m.LatencyMs *= factor
	if m.JitterMs != nil {
		m.JitterMs = domain.Float64Ptr(*m.JitterMs * factor * 0.8)
	}
	return m
}

// InjectThroughputDrop scales throughput down and triples packet loss,
// capped at 10%.
func (g *Generator) InjectThroughputDrop(m domain.Measurement, factor float64) domain.Measurement {
	m.ThroughputMbps *= factor
	m.PacketLossPct = math.Min(10.0, m.PacketLossPct*3.0)
	return m
}

// InjectCongestion applies the compound congestion pattern: simultaneous
// latency growth, throughput loss, packet loss and user pile-up.
func (g *Generator) InjectCongestion(m domain.Measurement) domain.Measurement {
	m.LatencyMs *= 2.5
	m.ThroughputMbps *= 0.5
	m.PacketLossPct = math.Min(8.0, m.PacketLossPct*4.0)
	if m.ActiveUsers != nil {
		m.ActiveUsers = domain.IntPtr(int(float64(*m.ActiveUsers) * 1.8))
	}
	return m
}

// GenerateStream emits one measurement per time step per (cell, profile)
// pair over the requested window. Each point is independently replaced by
// one of the three injected variants with probability req.AnomalyRate.
func (g *Generator) GenerateStream(req domain.SyntheticRequest) []domain.Measurement {
	interval := req.IntervalSeconds
	if interval <= 0 {
		interval = 10
	}
	steps := int(req.DurationHours * 3600 / float64(interval))

	stream := make([]domain.Measurement, 0, steps*len(req.CellIDs)*len(req.TrafficProfiles))
	for i := 0; i < steps; i++ {
		ts := req.StartTime.Add(time.Duration(i*interval) * time.Second)
		for _, cellID := range req.CellIDs {
			for _, profile := range req.TrafficProfiles {
				m := g.GenerateBaseline(cellID, profile, ts)
				if g.rnd.Float64() < req.AnomalyRate {
					m = g.injectRandomAnomaly(m)
				}
				stream = append(stream, m)
			}
		}
	}

	infra.AddGeneratedMeasurements(len(stream))
	return stream
}

func (g *Generator) injectRandomAnomaly(m domain.Measurement) domain.Measurement {
	switch g.rnd.Intn(3) {
	case 0:
		factor := g.cfg.SpikeFactorMin + g.rnd.Float64()*(g.cfg.SpikeFactorMax-g.cfg.SpikeFactorMin)
		return g.InjectLatencySpike(m, factor)
	case 1:
		factor := g.cfg.DropFactorMin + g.rnd.Float64()*(g.cfg.DropFactorMax-g.cfg.DropFactorMin)
		return g.InjectThroughputDrop(m, factor)
	default:
		return g.InjectCongestion(m)
	}
}

// poisson draws from a Poisson distribution with the given mean using
// Knuth's multiplication method; fine for the small means used here.
func poisson(rnd *rand.Rand, mean float64) int {
	limit := math.Exp(-mean)
	k := 0
	p := 1.0
	for {
		p *= rnd.Float64()
		if p <= limit {
			return k
		}
		k++
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round(v float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}
