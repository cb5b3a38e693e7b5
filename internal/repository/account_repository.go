package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"playaway/internal/models"
)

var ErrAccountNotFound = errors.New("account not found")

type AccountRepository struct {
	pool *pgxpool.Pool
}

func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

const accountColumns = `
	id, email, username, password_hash, role, account_status,
	rejection_reason, approved_at, approved_by, created_at, updated_at
`

func (r *AccountRepository) Create(ctx context.Context, account models.Account) error {
	const query = `
		INSERT INTO accounts (
			id, email, username, password_hash, role, account_status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, NOW(), NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		account.ID,
		account.Email,
		account.Username,
		account.PasswordHash,
		account.Role,
		account.Status,
	)
	return err
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (models.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (models.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, email))
}

func (r *AccountRepository) ListByStatus(ctx context.Context, status models.AccountStatus, limit, offset int) ([]models.Account, error) {
	const query = `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE account_status = $1
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		account, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

// SetDecision applies an approve/reject decision conditionally on the
// account still being PENDING. A false return means a concurrent
// decision won the race (or the account was never pending).
func (r *AccountRepository) SetDecision(ctx context.Context, id string, decision models.AccountStatus, reason string, approverID string) (bool, error) {
	switch decision {
	case models.AccountStatusApproved:
		const query = `
			UPDATE accounts
			SET account_status = $2,
			    approved_at = NOW(),
			    approved_by = $3,
			    rejection_reason = NULL,
			    updated_at = NOW()
			WHERE id = $1 AND account_status = 'PENDING'
		`
		tag, err := r.pool.Exec(ctx, query, id, decision, approverID)
		if err != nil {
			return false, err
		}
		return tag.RowsAffected() > 0, nil
	case models.AccountStatusRejected:
		const query = `
			UPDATE accounts
			SET account_status = $2,
			    rejection_reason = $3,
			    approved_at = NULL,
			    approved_by = NULL,
			    updated_at = NOW()
			WHERE id = $1 AND account_status = 'PENDING'
		`
		tag, err := r.pool.Exec(ctx, query, id, decision, reason)
		if err != nil {
			return false, err
		}
		return tag.RowsAffected() > 0, nil
	default:
		return false, errors.New("unsupported decision")
	}
}

func (r *AccountRepository) scanOne(row pgx.Row) (models.Account, error) {
	var account models.Account
	if err := row.Scan(
		&account.ID,
		&account.Email,
		&account.Username,
		&account.PasswordHash,
		&account.Role,
		&account.Status,
		&account.RejectionReason,
		&account.ApprovedAt,
		&account.ApprovedBy,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Account{}, ErrAccountNotFound
		}
		return models.Account{}, err
	}
	return account, nil
}
