package domain

// StatisticalSummary describes the distribution of one metric for one cell
// over a queried time range.
type StatisticalSummary struct {
	Metric         string
	CellID         string
	TrafficProfile TrafficProfile
	Mean           float64
	Median         float64
	StdDev         float64
	Min            float64
	Max            float64
	P95            float64
	P99            float64
	SampleCount    int
	TimeRange      string
}
