package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"playaway/internal/models"
)

var ErrClubNotFound = errors.New("club not found")

type ClubRepository struct {
	pool *pgxpool.Pool
}

func NewClubRepository(pool *pgxpool.Pool) *ClubRepository {
	return &ClubRepository{pool: pool}
}

func (r *ClubRepository) Create(ctx context.Context, club models.Club) error {
	const query = `
		INSERT INTO clubs (id, name, county, country, crest_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	`
	_, err := r.pool.Exec(ctx, query, club.ID, club.Name, club.County, club.Country, club.CrestURL)
	return err
}

func (r *ClubRepository) GetByID(ctx context.Context, id string) (models.Club, error) {
	const query = `
		SELECT id, name, county, country, crest_url, created_at, updated_at
		FROM clubs WHERE id = $1
	`

	var club models.Club
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&club.ID,
		&club.Name,
		&club.County,
		&club.Country,
		&club.CrestURL,
		&club.CreatedAt,
		&club.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Club{}, ErrClubNotFound
		}
		return models.Club{}, err
	}
	return club, nil
}

func (r *ClubRepository) AddMember(ctx context.Context, member models.ClubMember) error {
	const query = `
		INSERT INTO club_members (club_id, account_id, is_admin, joined_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (club_id, account_id)
		DO UPDATE SET is_admin = EXCLUDED.is_admin
	`
	_, err := r.pool.Exec(ctx, query, member.ClubID, member.AccountID, member.IsAdmin)
	return err
}

func (r *ClubRepository) IsAdmin(ctx context.Context, clubID string, accountID string) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM club_members
			WHERE club_id = $1 AND account_id = $2 AND is_admin
		)
	`
	var isAdmin bool
	if err := r.pool.QueryRow(ctx, query, clubID, accountID).Scan(&isAdmin); err != nil {
		return false, err
	}
	return isAdmin, nil
}

func (r *ClubRepository) UpdateCrest(ctx context.Context, clubID string, crestURL string) error {
	const query = `UPDATE clubs SET crest_url = $2, updated_at = NOW() WHERE id = $1`
	cmd, err := r.pool.Exec(ctx, query, clubID, crestURL)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrClubNotFound
	}
	return nil
}

// AdminEmails resolves the email addresses of a club's admins, used to
// address outbox notifications.
func (r *ClubRepository) AdminEmails(ctx context.Context, clubID string) ([]string, error) {
	const query = `
		SELECT a.email
		FROM club_members m
		JOIN accounts a ON a.id = m.account_id
		WHERE m.club_id = $1 AND m.is_admin
	`

	rows, err := r.pool.Query(ctx, query, clubID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		emails = append(emails, email)
	}
	return emails, rows.Err()
}
