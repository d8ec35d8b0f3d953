package database

import (
	"context"
	"sort"
	"sync"

	"kpi-analytics-service/app/src/domain"
)

// MeasurementStore keeps measurements in memory, ordered by insertion. When
// the retain cap is exceeded the oldest entries are dropped.
type MeasurementStore struct {
	mu      sync.RWMutex
	points  []domain.Measurement
	maxSize int
}

// NewMeasurementStore creates a store retaining at most maxSize points.
// A non-positive maxSize means unbounded.
func NewMeasurementStore(maxSize int) *MeasurementStore {
	return &MeasurementStore{maxSize: maxSize}
}

func (s *MeasurementStore) Add(ctx context.Context, m domain.Measurement) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points = append(s.points, m)
	s.trimLocked()
	return nil
}

func (s *MeasurementStore) AddBatch(ctx context.Context, ms []domain.Measurement) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points = append(s.points, ms...)
	s.trimLocked()
	return nil
}

// Query returns a copy of the matching measurements sorted by timestamp.
func (s *MeasurementStore) Query(ctx context.Context, filter domain.MeasurementFilter) ([]domain.Measurement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var cells map[string]struct{}
	if len(filter.CellIDs) > 0 {
		cells = make(map[string]struct{}, len(filter.CellIDs))
		for _, id := range filter.CellIDs {
			cells[id] = struct{}{}
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Measurement
	for _, m := range s.points {
		if cells != nil {
			if _, ok := cells[m.CellID]; !ok {
				continue
			}
		}
		if !filter.From.IsZero() && m.Timestamp.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && m.Timestamp.After(filter.To) {
			continue
		}
		out = append(out, m)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

// Len reports the number of retained measurements.
func (s *MeasurementStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points)
}

func (s *MeasurementStore) trimLocked() {
	if s.maxSize <= 0 || len(s.points) <= s.maxSize {
		return
	}
	overflow := len(s.points) - s.maxSize
	s.points = append([]domain.Measurement(nil), s.points[overflow:]...)
}

var _ domain.MeasurementRepository = (*MeasurementStore)(nil)

// MemoryAlertStore is the in-memory fallback used when no database is
// configured.
type MemoryAlertStore struct {
	mu     sync.RWMutex
	alerts []domain.Alert
}

func NewMemoryAlertStore() *MemoryAlertStore {
	return &MemoryAlertStore{}
}

func (s *MemoryAlertStore) Create(ctx context.Context, alert domain.Alert) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, alert)
	return nil
}

func (s *MemoryAlertStore) List(ctx context.Context, filter domain.AlertFilter) ([]domain.Alert, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Alert
	for _, alert := range s.alerts {
		if filter.CellID != "" && alert.CellID != filter.CellID {
			continue
		}
		if filter.Severity != "" && alert.Severity != filter.Severity {
			continue
		}
		if filter.Acknowledged != nil && alert.Acknowledged != *filter.Acknowledged {
			continue
		}
		out = append(out, alert)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *MemoryAlertStore) CountActive(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, alert := range s.alerts {
		if !alert.Acknowledged {
			n++
		}
	}
	return n, nil
}

func (s *MemoryAlertStore) CountTotal(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.alerts), nil
}

var _ domain.AlertRepository = (*MemoryAlertStore)(nil)
