package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"playaway/internal/models"
)

var ErrReportNotFound = errors.New("report not found")

type ReportRepository struct {
	pool *pgxpool.Pool
}

func NewReportRepository(pool *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{pool: pool}
}

func (r *ReportRepository) Create(ctx context.Context, report models.Report) error {
	const query = `
		INSERT INTO reports (id, event_id, body, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (event_id) DO UPDATE
		SET body = EXCLUDED.body, updated_at = NOW()
	`
	_, err := r.pool.Exec(ctx, query, report.ID, report.EventID, report.Body, report.Status)
	return err
}

func (r *ReportRepository) GetByEventID(ctx context.Context, eventID string) (models.Report, error) {
	const query = `
		SELECT id, event_id, body, status, published_at, created_at, updated_at
		FROM reports WHERE event_id = $1
	`

	var report models.Report
	if err := r.pool.QueryRow(ctx, query, eventID).Scan(
		&report.ID,
		&report.EventID,
		&report.Body,
		&report.Status,
		&report.PublishedAt,
		&report.CreatedAt,
		&report.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Report{}, ErrReportNotFound
		}
		return models.Report{}, err
	}
	return report, nil
}

func (r *ReportRepository) Publish(ctx context.Context, id string) (bool, error) {
	const query = `
		UPDATE reports
		SET status = 'PUBLISHED', published_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'DRAFT'
	`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}
