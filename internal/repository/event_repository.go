package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"playaway/internal/models"
)

var ErrEventNotFound = errors.New("event not found")

type EventRepository struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

const eventColumns = `
	id, host_club_id, title, location, latitude, longitude, start_date, end_date,
	approval_status, rejection_reason, appeal_status, appeal_reason, appeal_resolution,
	appeal_resolved_at, appeal_resolved_by, dismissed_at, status, created_at, updated_at
`

func (r *EventRepository) Create(ctx context.Context, event models.Event) error {
	const query = `
		INSERT INTO events (
			id, host_club_id, title, location, latitude, longitude, start_date, end_date,
			approval_status, status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		event.ID,
		event.HostClubID,
		event.Title,
		event.Location,
		event.Latitude,
		event.Longitude,
		event.StartDate,
		event.EndDate,
		event.ApprovalStatus,
		event.Status,
	)
	return err
}

func (r *EventRepository) GetByID(ctx context.Context, id string) (models.Event, error) {
	const query = `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *EventRepository) ListByApproval(ctx context.Context, approval models.EventApproval, limit, offset int) ([]models.Event, error) {
	const query = `
		SELECT ` + eventColumns + `
		FROM events
		WHERE approval_status = $1
		ORDER BY start_date ASC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, approval, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		event, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// SetReviewDecision resolves a PENDING event to APPROVED or REJECTED.
// False means the event was no longer pending.
func (r *EventRepository) SetReviewDecision(ctx context.Context, id string, decision models.EventApproval, reason string) (bool, error) {
	const query = `
		UPDATE events
		SET approval_status = $2,
		    rejection_reason = NULLIF($3, ''),
		    updated_at = NOW()
		WHERE id = $1 AND approval_status = 'PENDING'
	`
	cmd, err := r.pool.Exec(ctx, query, id, decision, reason)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

// FileAppeal opens an appeal on a rejected event. The IS NULL guard
// enforces the appeal-once rule.
func (r *EventRepository) FileAppeal(ctx context.Context, id string, reason string) (bool, error) {
	const query = `
		UPDATE events
		SET appeal_status = 'PENDING',
		    appeal_reason = $2,
		    updated_at = NOW()
		WHERE id = $1 AND approval_status = 'REJECTED' AND appeal_status IS NULL
	`
	cmd, err := r.pool.Exec(ctx, query, id, reason)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

// ResolveAppeal settles a pending appeal. An APPROVED decision reopens
// the event for review by resetting approval_status to PENDING.
func (r *EventRepository) ResolveAppeal(ctx context.Context, id string, decision models.AppealStatus, resolution string, resolverID string) (bool, error) {
	const query = `
		UPDATE events
		SET appeal_status = $2,
		    appeal_resolution = NULLIF($3, ''),
		    appeal_resolved_at = NOW(),
		    appeal_resolved_by = $4,
		    approval_status = CASE WHEN $2 = 'APPROVED' THEN 'PENDING' ELSE approval_status END,
		    updated_at = NOW()
		WHERE id = $1 AND appeal_status = 'PENDING'
	`
	cmd, err := r.pool.Exec(ctx, query, id, decision, resolution, resolverID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

// Dismiss stamps dismissed_at exactly once on a rejected event.
func (r *EventRepository) Dismiss(ctx context.Context, id string) (bool, error) {
	const query = `
		UPDATE events
		SET dismissed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND approval_status = 'REJECTED' AND dismissed_at IS NULL
	`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *EventRepository) SetStatus(ctx context.Context, id string, status models.EventStatus) (bool, error) {
	const query = `
		UPDATE events
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status <> $2
	`
	cmd, err := r.pool.Exec(ctx, query, id, status)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *EventRepository) AddAttendee(ctx context.Context, eventID string, clubID string) error {
	const query = `
		INSERT INTO event_attendees (event_id, club_id, registered_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (event_id, club_id) DO NOTHING
	`
	_, err := r.pool.Exec(ctx, query, eventID, clubID)
	return err
}

func (r *EventRepository) ListAttendeeClubs(ctx context.Context, eventID string) ([]string, error) {
	const query = `SELECT club_id FROM event_attendees WHERE event_id = $1`

	rows, err := r.pool.Query(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clubs []string
	for rows.Next() {
		var clubID string
		if err := rows.Scan(&clubID); err != nil {
			return nil, err
		}
		clubs = append(clubs, clubID)
	}
	return clubs, rows.Err()
}

func (r *EventRepository) scanOne(row pgx.Row) (models.Event, error) {
	var event models.Event
	if err := row.Scan(
		&event.ID,
		&event.HostClubID,
		&event.Title,
		&event.Location,
		&event.Latitude,
		&event.Longitude,
		&event.StartDate,
		&event.EndDate,
		&event.ApprovalStatus,
		&event.RejectionReason,
		&event.AppealStatus,
		&event.AppealReason,
		&event.AppealResolution,
		&event.AppealResolvedAt,
		&event.AppealResolvedBy,
		&event.DismissedAt,
		&event.Status,
		&event.CreatedAt,
		&event.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Event{}, ErrEventNotFound
		}
		return models.Event{}, err
	}
	return event, nil
}
