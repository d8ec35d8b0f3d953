package database

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kpi-analytics-service/app/src/domain"
)

func testAlert() domain.Alert {
	return domain.Alert{
		ID:             "alert-1",
		Timestamp:      time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		CellID:         "gNB_001_Cell_1",
		Severity:       domain.SeverityCritical,
		Metric:         "latency_ms",
		CurrentValue:   120,
		ThresholdValue: 60,
		Message:        "latency above threshold",
	}
}

func TestAlertRepositoryCreate(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	alert := testAlert()
	mock.ExpectExec("INSERT INTO alerts").
		WithArgs(alert.ID, alert.Timestamp, alert.CellID, string(alert.Severity), alert.Metric,
			alert.CurrentValue, alert.ThresholdValue, alert.Message, alert.Acknowledged).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewAlertRepository(db, nil)
	require.NoError(t, repo.Create(context.Background(), alert))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAlertRepositoryCreateDuplicateMapsToInvalidAlert(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO alerts").
		WillReturnError(&pq.Error{Code: "23505"})

	repo := NewAlertRepository(db, nil)
	err = repo.Create(context.Background(), testAlert())
	assert.ErrorIs(t, err, domain.ErrInvalidAlert)
}

func TestAlertRepositoryListAppliesFilters(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	alert := testAlert()
	rows := sqlmock.NewRows([]string{
		"id", "timestamp", "cell_id", "severity", "metric",
		"current_value", "threshold_value", "message", "acknowledged",
	}).AddRow(alert.ID, alert.Timestamp, alert.CellID, string(alert.Severity), alert.Metric,
		alert.CurrentValue, alert.ThresholdValue, alert.Message, alert.Acknowledged)

	mock.ExpectQuery("SELECT (.+) FROM alerts").
		WithArgs(alert.CellID, string(domain.SeverityCritical), false, 10).
		WillReturnRows(rows)

	ack := false
	repo := NewAlertRepository(db, nil)
	got, err := repo.List(context.Background(), domain.AlertFilter{
		CellID:       alert.CellID,
		Severity:     domain.SeverityCritical,
		Acknowledged: &ack,
		Limit:        10,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, alert, got[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAlertRepositoryCounts(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM alerts WHERE acknowledged = false").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM alerts").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	repo := NewAlertRepository(db, nil)

	active, err := repo.CountActive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, active)

	total, err := repo.CountTotal(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, total)
}
