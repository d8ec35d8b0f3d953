package domain

import "errors"

var (
	// ErrNotFound is returned when no stored record satisfies the provided filters.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidMeasurement is returned when a measurement violates its value constraints.
	ErrInvalidMeasurement = errors.New("invalid measurement")

	// ErrInvalidAlert is returned when an alert fails validation before persistence.
	ErrInvalidAlert = errors.New("invalid alert")
)
