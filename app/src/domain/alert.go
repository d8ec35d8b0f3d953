package domain

import (
	"fmt"
	"time"
)

// AlertSeverity grades operational alerts raised from anomaly records.
type AlertSeverity string

const (
	SeverityInfo     AlertSeverity = "info"
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)

// ParseAlertSeverity validates the supplied severity name.
func ParseAlertSeverity(value string) (AlertSeverity, error) {
	switch AlertSeverity(value) {
	case SeverityInfo, SeverityWarning, SeverityCritical:
		return AlertSeverity(value), nil
	default:
		return "", fmt.Errorf("%w: unknown severity %q", ErrInvalidAlert, value)
	}
}

// Alert is an operational alert persisted for the on-call surface.
type Alert struct {
	ID             string
	Timestamp      time.Time
	CellID         string
	Severity       AlertSeverity
	Metric         string
	CurrentValue   float64
	ThresholdValue float64
	Message        string
	Acknowledged   bool
}

// Validate checks the alert fields before persistence.
func (a Alert) Validate() error {
	if a.CellID == "" {
		return fmt.Errorf("%w: cell id is required", ErrInvalidAlert)
	}
	if a.Timestamp.IsZero() {
		return fmt.Errorf("%w: timestamp is required", ErrInvalidAlert)
	}
	if a.Metric == "" {
		return fmt.Errorf("%w: metric is required", ErrInvalidAlert)
	}
	if _, err := ParseAlertSeverity(string(a.Severity)); err != nil {
		return err
	}
	return nil
}

// AlertFilter narrows alert listing queries. Zero values mean "no filter".
type AlertFilter struct {
	CellID       string
	Severity     AlertSeverity
	Acknowledged *bool
	Limit        int
}
