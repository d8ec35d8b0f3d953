package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"kpi-analytics-service/app/src/domain"
	"kpi-analytics-service/app/src/infra"
)

// AlertRepository persists alerts in Postgres.
type AlertRepository struct {
	db     *sql.DB
	logger *infra.Logger
}

// NewAlertRepository wraps the given database handle.
func NewAlertRepository(db *sql.DB, logger *infra.Logger) *AlertRepository {
	return &AlertRepository{db: db, logger: logger}
}

// Create inserts an alert. A duplicate id maps to ErrInvalidAlert.
func (r *AlertRepository) Create(ctx context.Context, alert domain.Alert) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO alerts (id, timestamp, cell_id, severity, metric, current_value, threshold_value, message, acknowledged)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		alert.ID,
		alert.Timestamp.UTC(),
		alert.CellID,
		string(alert.Severity),
		alert.Metric,
		alert.CurrentValue,
		alert.ThresholdValue,
		alert.Message,
		alert.Acknowledged,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: alert %s already exists", domain.ErrInvalidAlert, alert.ID)
		}
		return fmt.Errorf("alerts: insert: %w", err)
	}
	return nil
}

// List returns alerts matching the filter, newest first.
func (r *AlertRepository) List(ctx context.Context, filter domain.AlertFilter) ([]domain.Alert, error) {
	query := `
		SELECT id, timestamp, cell_id, severity, metric, current_value, threshold_value, message, acknowledged
		FROM alerts
		WHERE 1=1`
	var args []any

	if filter.CellID != "" {
		args = append(args, filter.CellID)
		query += fmt.Sprintf(" AND cell_id = $%d", len(args))
	}
	if filter.Severity != "" {
		args = append(args, string(filter.Severity))
		query += fmt.Sprintf(" AND severity = $%d", len(args))
	}
	if filter.Acknowledged != nil {
		args = append(args, *filter.Acknowledged)
		query += fmt.Sprintf(" AND acknowledged = $%d", len(args))
	}

	query += " ORDER BY timestamp DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("alerts: list: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var alerts []domain.Alert
	for rows.Next() {
		var (
			alert    domain.Alert
			severity string
		)
		if err := rows.Scan(
			&alert.ID,
			&alert.Timestamp,
			&alert.CellID,
			&severity,
			&alert.Metric,
			&alert.CurrentValue,
			&alert.ThresholdValue,
			&alert.Message,
			&alert.Acknowledged,
		); err != nil {
			return nil, fmt.Errorf("alerts: scan: %w", err)
		}
		alert.Severity = domain.AlertSeverity(severity)
		alerts = append(alerts, alert)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("alerts: rows: %w", err)
	}
	return alerts, nil
}

// CountActive returns the number of unacknowledged alerts.
func (r *AlertRepository) CountActive(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM alerts WHERE acknowledged = false`)
}

// CountTotal returns the total number of stored alerts.
func (r *AlertRepository) CountTotal(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM alerts`)
}

func (r *AlertRepository) count(ctx context.Context, query string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("alerts: count: %w", err)
	}
	return n, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

var _ domain.AlertRepository = (*AlertRepository)(nil)
