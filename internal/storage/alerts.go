package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/anuragthippani1/SentriX/internal/contracts"
)

const (
	AlertOpen         = "open"
	AlertAcknowledged = "acknowledged"
	AlertResolved     = "resolved"
)

// ValidAlertStatus reports whether status is one of the alert lifecycle states.
func ValidAlertStatus(status string) bool {
	switch status {
	case AlertOpen, AlertAcknowledged, AlertResolved:
		return true
	}
	return false
}

type AlertRepository struct {
	pool *pgxpool.Pool
}

func NewAlertRepository(pool *pgxpool.Pool) *AlertRepository {
	return &AlertRepository{pool: pool}
}

func (r *AlertRepository) HasOpenAlertInCooldown(ctx context.Context, country string, cooldown time.Duration) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1
            FROM alerts
            WHERE status IN ('open', 'acknowledged')
              AND country = $1
              AND created_at >= NOW() - $2::interval
        )
    `, country, fmt.Sprintf("%f seconds", cooldown.Seconds())).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check cooldown alert: %w", err)
	}
	return exists, nil
}

func (r *AlertRepository) InsertAlert(ctx context.Context, alert contracts.AlertRecord) error {
	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}
	if alert.Status == "" {
		alert.Status = AlertOpen
	}

	_, err := r.pool.Exec(ctx, `
        INSERT INTO alerts
            (id, report_id, country, title, description, risk_level, severity, status)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8)
    `, alert.ID, alert.ReportID, alert.Country, alert.Title, alert.Description, alert.RiskLevel, alert.Severity, alert.Status)
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}

	return nil
}

func (r *AlertRepository) ListAlerts(ctx context.Context, status string, limit int) ([]contracts.AlertRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	rows, err := r.pool.Query(ctx, `
        SELECT id::text, report_id, country, title, description, risk_level, severity, status, created_at, updated_at
        FROM alerts
        WHERE ($1 = '' OR status = $1)
        ORDER BY created_at DESC
        LIMIT $2
    `, status, limit)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	alerts := make([]contracts.AlertRecord, 0, limit)
	for rows.Next() {
		var alert contracts.AlertRecord
		if err := rows.Scan(
			&alert.ID,
			&alert.ReportID,
			&alert.Country,
			&alert.Title,
			&alert.Description,
			&alert.RiskLevel,
			&alert.Severity,
			&alert.Status,
			&alert.CreatedAt,
			&alert.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		alerts = append(alerts, alert)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alerts: %w", err)
	}

	return alerts, nil
}

func (r *AlertRepository) UpdateAlertStatus(ctx context.Context, id, status string) error {
	if !ValidAlertStatus(status) {
		return fmt.Errorf("invalid alert status %q", status)
	}
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}

	cmd, err := r.pool.Exec(ctx, `
        UPDATE alerts
        SET status = $2,
            updated_at = NOW(),
            acknowledged_at = CASE WHEN $2 = 'acknowledged' THEN NOW() ELSE acknowledged_at END,
            resolved_at = CASE WHEN $2 = 'resolved' THEN NOW() ELSE resolved_at END
        WHERE id = $1
    `, id, status)
	if err != nil {
		return fmt.Errorf("update alert status: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type AlertSummary struct {
	OpenAlerts   int `json:"open_alerts"`
	Acknowledged int `json:"acknowledged_alerts"`
	Resolved24h  int `json:"resolved_last_24h"`
}

func (r *AlertRepository) Summary(ctx context.Context) (AlertSummary, error) {
	var summary AlertSummary
	err := r.pool.QueryRow(ctx, `
        SELECT
            COUNT(*) FILTER (WHERE status = 'open') AS open_alerts,
            COUNT(*) FILTER (WHERE status = 'acknowledged') AS acknowledged_alerts,
            COUNT(*) FILTER (WHERE status = 'resolved' AND resolved_at >= NOW() - INTERVAL '24 hours') AS resolved_last_24h
        FROM alerts
    `).Scan(&summary.OpenAlerts, &summary.Acknowledged, &summary.Resolved24h)
	if err != nil {
		return AlertSummary{}, fmt.Errorf("alert summary: %w", err)
	}
	return summary, nil
}
