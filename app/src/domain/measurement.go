package domain

import (
	"fmt"
	"time"
)

// TrafficProfile is the class of traffic served by a cell. The set is fixed;
// no runtime extension is expected.
type TrafficProfile string

const (
	ProfileEMBB  TrafficProfile = "eMBB"
	ProfileURLLC TrafficProfile = "URLLC"
	ProfileMMTC  TrafficProfile = "mMTC"
	ProfileMixed TrafficProfile = "Mixed"
)

// TrafficProfiles lists every known traffic profile.
var TrafficProfiles = []TrafficProfile{ProfileEMBB, ProfileURLLC, ProfileMMTC, ProfileMixed}

// ParseTrafficProfile validates the supplied profile name.
func ParseTrafficProfile(value string) (TrafficProfile, error) {
	for _, p := range TrafficProfiles {
		if string(p) == value {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: unknown traffic profile %q", ErrInvalidMeasurement, value)
}

// Measurement is a single per-cell KPI sample. Optional fields are pointers:
// nil means the field was not measured, which is different from zero.
type Measurement struct {
	Timestamp         time.Time
	CellID            string
	TrafficProfile    TrafficProfile
	LatencyMs         float64
	ThroughputMbps    float64
	PacketLossPct     float64
	JitterMs          *float64
	SignalStrengthDbm *float64
	ActiveUsers       *int
}

// NewMeasurement validates the value constraints and returns the sample.
// Bad data is rejected here so it never reaches a detector.
func NewMeasurement(m Measurement) (Measurement, error) {
	if m.CellID == "" {
		return Measurement{}, fmt.Errorf("%w: cell id is required", ErrInvalidMeasurement)
	}
	if m.Timestamp.IsZero() {
		return Measurement{}, fmt.Errorf("%w: timestamp is required", ErrInvalidMeasurement)
	}
	if _, err := ParseTrafficProfile(string(m.TrafficProfile)); err != nil {
		return Measurement{}, err
	}
	if m.LatencyMs < 0 {
		return Measurement{}, fmt.Errorf("%w: latency %.4f is negative", ErrInvalidMeasurement, m.LatencyMs)
	}
	if m.ThroughputMbps < 0 {
		return Measurement{}, fmt.Errorf("%w: throughput %.4f is negative", ErrInvalidMeasurement, m.ThroughputMbps)
	}
	if m.PacketLossPct < 0 || m.PacketLossPct > 100 {
		return Measurement{}, fmt.Errorf("%w: packet loss %.4f outside [0,100]", ErrInvalidMeasurement, m.PacketLossPct)
	}
	if m.JitterMs != nil && *m.JitterMs < 0 {
		return Measurement{}, fmt.Errorf("%w: jitter %.4f is negative", ErrInvalidMeasurement, *m.JitterMs)
	}
	if m.ActiveUsers != nil && *m.ActiveUsers < 0 {
		return Measurement{}, fmt.Errorf("%w: active users %d is negative", ErrInvalidMeasurement, *m.ActiveUsers)
	}
	return m, nil
}

// Float64Ptr returns a pointer to v. Helper for the optional fields.
func Float64Ptr(v float64) *float64 { return &v }

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }
