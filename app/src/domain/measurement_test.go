package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseMeasurement() Measurement {
	return Measurement{
		Timestamp:      time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		CellID:         "gNB_001_Cell_1",
		TrafficProfile: ProfileEMBB,
		LatencyMs:      20,
		ThroughputMbps: 500,
		PacketLossPct:  0.1,
	}
}

func TestNewMeasurementAcceptsValid(t *testing.T) {
	t.Parallel()

	m, err := NewMeasurement(baseMeasurement())
	require.NoError(t, err)
	assert.Equal(t, "gNB_001_Cell_1", m.CellID)
}

func TestNewMeasurementRejections(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*Measurement)
	}{
		{"missing cell id", func(m *Measurement) { m.CellID = "" }},
		{"zero timestamp", func(m *Measurement) { m.Timestamp = time.Time{} }},
		{"unknown profile", func(m *Measurement) { m.TrafficProfile = "5G-Plus" }},
		{"negative latency", func(m *Measurement) { m.LatencyMs = -0.5 }},
		{"negative throughput", func(m *Measurement) { m.ThroughputMbps = -10 }},
		{"loss below zero", func(m *Measurement) { m.PacketLossPct = -1 }},
		{"loss above hundred", func(m *Measurement) { m.PacketLossPct = 100.1 }},
		{"negative jitter", func(m *Measurement) { m.JitterMs = Float64Ptr(-1) }},
		{"negative users", func(m *Measurement) { m.ActiveUsers = IntPtr(-3) }},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			m := baseMeasurement()
			tc.mutate(&m)
			_, err := NewMeasurement(m)
			assert.ErrorIs(t, err, ErrInvalidMeasurement)
		})
	}
}

func TestNewMeasurementOptionalFieldsMayBeAbsent(t *testing.T) {
	t.Parallel()

	m := baseMeasurement()
	m.JitterMs = nil
	m.SignalStrengthDbm = nil
	m.ActiveUsers = nil

	got, err := NewMeasurement(m)
	require.NoError(t, err)
	assert.Nil(t, got.JitterMs)
	assert.Nil(t, got.SignalStrengthDbm)
	assert.Nil(t, got.ActiveUsers)
}

func TestParseTrafficProfile(t *testing.T) {
	t.Parallel()

	for _, p := range TrafficProfiles {
		got, err := ParseTrafficProfile(string(p))
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}

	_, err := ParseTrafficProfile("embb")
	assert.ErrorIs(t, err, ErrInvalidMeasurement, "profile names are case sensitive")
}

func TestAlertValidate(t *testing.T) {
	t.Parallel()

	alert := Alert{
		ID:        "a1",
		Timestamp: time.Now().UTC(),
		CellID:    "gNB_001_Cell_1",
		Severity:  SeverityCritical,
		Metric:    "latency_ms",
	}
	require.NoError(t, alert.Validate())

	missingCell := alert
	missingCell.CellID = ""
	assert.ErrorIs(t, missingCell.Validate(), ErrInvalidAlert)

	badSeverity := alert
	badSeverity.Severity = "severe"
	assert.ErrorIs(t, badSeverity.Validate(), ErrInvalidAlert)

	missingMetric := alert
	missingMetric.Metric = ""
	assert.ErrorIs(t, missingMetric.Validate(), ErrInvalidAlert)
}

func TestParseAlertSeverity(t *testing.T) {
	t.Parallel()

	for _, s := range []AlertSeverity{SeverityInfo, SeverityWarning, SeverityCritical} {
		got, err := ParseAlertSeverity(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	_, err := ParseAlertSeverity("Warning")
	assert.ErrorIs(t, err, ErrInvalidAlert)
}
