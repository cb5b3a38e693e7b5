package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"playaway/internal/apperr"
	"playaway/internal/models"
	"playaway/internal/notify"
	"playaway/internal/repository"
)

// Notifier dispatches a fire-and-forget notification. Implementations
// must never fail the calling transition.
type Notifier interface {
	Dispatch(ctx context.Context, task notify.Task)
}

// AccountStore is the slice of the account repository the approval
// state machine needs.
type AccountStore interface {
	GetByID(ctx context.Context, id string) (models.Account, error)
	ListByStatus(ctx context.Context, status models.AccountStatus, limit, offset int) ([]models.Account, error)
	SetDecision(ctx context.Context, id string, decision models.AccountStatus, reason string, approverID string) (bool, error)
}

// ApprovalService drives the account approval state machine:
// PENDING -> APPROVED | REJECTED, SUPER_ADMIN only, one decision wins.
type ApprovalService struct {
	accounts AccountStore
	notifier Notifier
	log      zerolog.Logger
}

func NewApprovalService(accounts AccountStore, notifier Notifier, log zerolog.Logger) *ApprovalService {
	return &ApprovalService{
		accounts: accounts,
		notifier: notifier,
		log:      log,
	}
}

func (s *ApprovalService) Approve(ctx context.Context, accountID string, approverID string) (models.Account, error) {
	if err := s.requireSuperAdmin(ctx, approverID); err != nil {
		return models.Account{}, err
	}

	target, err := s.getAccount(ctx, accountID)
	if err != nil {
		return models.Account{}, err
	}

	ok, err := s.accounts.SetDecision(ctx, accountID, models.AccountStatusApproved, "", approverID)
	if err != nil {
		return models.Account{}, err
	}
	if !ok {
		return models.Account{}, apperr.New(apperr.KindConflict, "account decision already made")
	}

	s.notifier.Dispatch(ctx, notify.Task{
		Type:      notify.TaskAccountApproved,
		To:        target.Email,
		Recipient: target.Username,
	})

	return s.getAccount(ctx, accountID)
}

func (s *ApprovalService) Reject(ctx context.Context, accountID string, approverID string, reason string) (models.Account, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return models.Account{}, apperr.New(apperr.KindValidation, "rejection reason is required")
	}

	if err := s.requireSuperAdmin(ctx, approverID); err != nil {
		return models.Account{}, err
	}

	target, err := s.getAccount(ctx, accountID)
	if err != nil {
		return models.Account{}, err
	}

	ok, err := s.accounts.SetDecision(ctx, accountID, models.AccountStatusRejected, reason, approverID)
	if err != nil {
		return models.Account{}, err
	}
	if !ok {
		return models.Account{}, apperr.New(apperr.KindConflict, "account decision already made")
	}

	s.notifier.Dispatch(ctx, notify.Task{
		Type:      notify.TaskAccountRejected,
		To:        target.Email,
		Recipient: target.Username,
		Reason:    reason,
	})

	return s.getAccount(ctx, accountID)
}

func (s *ApprovalService) ListPending(ctx context.Context, limit, offset int) ([]models.Account, error) {
	return s.accounts.ListByStatus(ctx, models.AccountStatusPending, limit, offset)
}

func (s *ApprovalService) requireSuperAdmin(ctx context.Context, approverID string) error {
	approver, err := s.accounts.GetByID(ctx, approverID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return apperr.New(apperr.KindForbidden, "approver not recognised")
		}
		return err
	}
	if approver.Role != models.AccountRoleSuperAdmin {
		return apperr.New(apperr.KindForbidden, "super admin role required")
	}
	return nil
}

func (s *ApprovalService) getAccount(ctx context.Context, accountID string) (models.Account, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return models.Account{}, apperr.New(apperr.KindNotFound, "account not found")
		}
		return models.Account{}, err
	}
	return account, nil
}
