package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"playaway/internal/models"
)

var (
	ErrTokenNotFound = errors.New("review token not found")
	ErrTokenUsed     = errors.New("review token already used")
	ErrTokenExpired  = errors.New("review token expired")
)

type TokenRepository struct {
	pool *pgxpool.Pool
}

func NewTokenRepository(pool *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{pool: pool}
}

const tokenColumns = `
	id, token_hash, event_id, reviewer_club_id, target_club_id,
	expires_at, used, review_id, created_at
`

func (r *TokenRepository) Create(ctx context.Context, token models.ReviewToken) error {
	const query = `
		INSERT INTO review_tokens (
			id, token_hash, event_id, reviewer_club_id, target_club_id, expires_at, used, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, FALSE, NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		token.ID,
		token.TokenHash,
		token.EventID,
		token.ReviewerClubID,
		token.TargetClubID,
		token.ExpiresAt,
	)
	return err
}

func (r *TokenRepository) FindByHash(ctx context.Context, hash []byte) (models.ReviewToken, error) {
	const query = `SELECT ` + tokenColumns + ` FROM review_tokens WHERE token_hash = $1`
	return scanToken(r.pool.QueryRow(ctx, query, hash))
}

// Consume creates the review and marks the token used in one
// transaction. The row lock serializes concurrent redemption attempts:
// the loser re-reads the token as used and gets ErrTokenUsed.
func (r *TokenRepository) Consume(ctx context.Context, hash []byte, review models.Review) (models.Review, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.Review{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	const lockQuery = `SELECT ` + tokenColumns + ` FROM review_tokens WHERE token_hash = $1 FOR UPDATE`
	token, err := scanToken(tx.QueryRow(ctx, lockQuery, hash))
	if err != nil {
		return models.Review{}, err
	}

	if token.Used || token.ReviewID != nil {
		return models.Review{}, ErrTokenUsed
	}
	if time.Now().After(token.ExpiresAt) {
		return models.Review{}, ErrTokenExpired
	}

	review.EventID = token.EventID
	review.ReviewerClubID = token.ReviewerClubID
	review.TargetClubID = token.TargetClubID

	const insertQuery = `
		INSERT INTO reviews (id, event_id, reviewer_club_id, target_club_id, rating, body, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING created_at
	`
	if err := tx.QueryRow(ctx, insertQuery,
		review.ID,
		review.EventID,
		review.ReviewerClubID,
		review.TargetClubID,
		review.Rating,
		review.Body,
	).Scan(&review.CreatedAt); err != nil {
		return models.Review{}, fmt.Errorf("insert review: %w", err)
	}

	const flipQuery = `
		UPDATE review_tokens
		SET used = TRUE, review_id = $2
		WHERE id = $1 AND used = FALSE AND review_id IS NULL
	`
	cmd, err := tx.Exec(ctx, flipQuery, token.ID, review.ID)
	if err != nil {
		return models.Review{}, fmt.Errorf("mark used: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return models.Review{}, ErrTokenUsed
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Review{}, fmt.Errorf("commit: %w", err)
	}
	return review, nil
}

// DeleteExpiredUnused sweeps tokens past their expiry that were never
// redeemed. Consumed tokens are kept as the review's provenance.
func (r *TokenRepository) DeleteExpiredUnused(ctx context.Context, now time.Time) (int64, error) {
	const query = `
		DELETE FROM review_tokens
		WHERE used = FALSE AND review_id IS NULL AND expires_at < $1
	`
	cmd, err := r.pool.Exec(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func scanToken(row pgx.Row) (models.ReviewToken, error) {
	var token models.ReviewToken
	if err := row.Scan(
		&token.ID,
		&token.TokenHash,
		&token.EventID,
		&token.ReviewerClubID,
		&token.TargetClubID,
		&token.ExpiresAt,
		&token.Used,
		&token.ReviewID,
		&token.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ReviewToken{}, ErrTokenNotFound
		}
		return models.ReviewToken{}, err
	}
	return token, nil
}
