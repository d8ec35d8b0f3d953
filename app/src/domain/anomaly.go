package domain

import "time"

// Detection method names as reported in AnomalyRecord.Method and accepted
// by the analyzer's method filter.
const (
	MethodZScore      = "z_score"
	MethodRolling     = "rolling"
	MethodIsolation   = "isolation_forest"
	MethodDrop        = "throughput_drop"
	MethodInstability = "traffic_instability"
)

// AnomalyRecord is the immutable output of one detector for one flagged
// point. Non-anomalous points are never emitted. Threshold is nil for
// unsupervised methods; Baseline is nil where no single reference value
// exists. Scores are method-specific and not comparable across methods.
type AnomalyRecord struct {
	Timestamp    time.Time
	CellID       string
	Metric       string
	Value        float64
	IsAnomaly    bool
	AnomalyScore float64
	Method       string
	Threshold    *float64
	Baseline     *float64
}
