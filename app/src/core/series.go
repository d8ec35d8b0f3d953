package core

import (
	"math"
	"sort"

	"kpi-analytics-service/app/src/domain"
)

// groupByCell buckets a stream by cell id and sorts every bucket by
// timestamp ascending. Detectors never assume input order; cross-cell
// comparison is out of scope, so each bucket is analysed on its own.
func groupByCell(stream []domain.Measurement) map[string][]domain.Measurement {
	groups := make(map[string][]domain.Measurement)
	for _, m := range stream {
		groups[m.CellID] = append(groups[m.CellID], m)
	}
	for _, series := range groups {
		sort.Slice(series, func(i, j int) bool {
			return series[i].Timestamp.Before(series[j].Timestamp)
		})
	}
	return groups
}

// mean returns the arithmetic mean of values, 0 for an empty slice.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stdDev returns the sample standard deviation (n-1 denominator), 0 when
// fewer than two values are present.
func stdDev(values []float64, avg float64) float64 {
	if len(values) < 2 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		d := v - avg
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}

// percentile returns the p-th percentile (0..100) of sorted values using
// linear interpolation between closest ranks.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

func latencies(series []domain.Measurement) []float64 {
	out := make([]float64, len(series))
	for i, m := range series {
		out[i] = m.LatencyMs
	}
	return out
}

func throughputs(series []domain.Measurement) []float64 {
	out := make([]float64, len(series))
	for i, m := range series {
		out[i] = m.ThroughputMbps
	}
	return out
}
