package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"playaway/internal/apperr"
	"playaway/internal/models"
	"playaway/internal/notify"
	"playaway/internal/repository"
)

type fakeAccountStore struct {
	accounts     map[string]models.Account
	decisionOK   bool
	decisionErr  error
	lastDecision models.AccountStatus
	lastReason   string
}

func (f *fakeAccountStore) GetByID(_ context.Context, id string) (models.Account, error) {
	account, ok := f.accounts[id]
	if !ok {
		return models.Account{}, repository.ErrAccountNotFound
	}
	return account, nil
}

func (f *fakeAccountStore) ListByStatus(_ context.Context, status models.AccountStatus, _, _ int) ([]models.Account, error) {
	var out []models.Account
	for _, account := range f.accounts {
		if account.Status == status {
			out = append(out, account)
		}
	}
	return out, nil
}

func (f *fakeAccountStore) SetDecision(_ context.Context, id string, decision models.AccountStatus, reason string, _ string) (bool, error) {
	if f.decisionErr != nil {
		return false, f.decisionErr
	}
	f.lastDecision = decision
	f.lastReason = reason
	if f.decisionOK {
		account := f.accounts[id]
		account.Status = decision
		f.accounts[id] = account
	}
	return f.decisionOK, nil
}

type fakeNotifier struct {
	tasks []notify.Task
}

func (f *fakeNotifier) Dispatch(_ context.Context, task notify.Task) {
	f.tasks = append(f.tasks, task)
}

func approvalFixture(decisionOK bool) (*ApprovalService, *fakeAccountStore, *fakeNotifier) {
	store := &fakeAccountStore{
		decisionOK: decisionOK,
		accounts: map[string]models.Account{
			"admin": {ID: "admin", Role: models.AccountRoleSuperAdmin, Status: models.AccountStatusApproved},
			"user": {
				ID:            "user",
				Username:      "sean",
				Email:         "sean@example.com",
				Role:          models.AccountRoleUser,
				Status:        models.AccountStatusPending,
			},
		},
	}
	notifier := &fakeNotifier{}
	return NewApprovalService(store, notifier, zerolog.Nop()), store, notifier
}

func TestApprove(t *testing.T) {
	svc, store, notifier := approvalFixture(true)

	account, err := svc.Approve(context.Background(), "user", "admin")
	require.NoError(t, err)
	assert.Equal(t, models.AccountStatusApproved, account.Status)
	assert.Equal(t, models.AccountStatusApproved, store.lastDecision)

	require.Len(t, notifier.tasks, 1)
	assert.Equal(t, notify.TaskAccountApproved, notifier.tasks[0].Type)
	assert.Equal(t, "sean@example.com", notifier.tasks[0].To)
}

func TestApproveRequiresSuperAdmin(t *testing.T) {
	svc, _, notifier := approvalFixture(true)

	_, err := svc.Approve(context.Background(), "user", "user")
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
	assert.Empty(t, notifier.tasks)
}

func TestApproveUnknownAccount(t *testing.T) {
	svc, _, _ := approvalFixture(true)

	_, err := svc.Approve(context.Background(), "ghost", "admin")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestApproveAlreadyDecided(t *testing.T) {
	svc, _, notifier := approvalFixture(false)

	_, err := svc.Approve(context.Background(), "user", "admin")
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.Empty(t, notifier.tasks)
}

func TestReject(t *testing.T) {
	svc, store, notifier := approvalFixture(true)

	account, err := svc.Reject(context.Background(), "user", "admin", "not a registered club contact")
	require.NoError(t, err)
	assert.Equal(t, models.AccountStatusRejected, account.Status)
	assert.Equal(t, "not a registered club contact", store.lastReason)

	require.Len(t, notifier.tasks, 1)
	assert.Equal(t, notify.TaskAccountRejected, notifier.tasks[0].Type)
	assert.Equal(t, "not a registered club contact", notifier.tasks[0].Reason)
}

func TestRejectRequiresReason(t *testing.T) {
	svc, _, _ := approvalFixture(true)

	_, err := svc.Reject(context.Background(), "user", "admin", "   ")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestRejectAlreadyDecided(t *testing.T) {
	svc, _, _ := approvalFixture(false)

	_, err := svc.Reject(context.Background(), "user", "admin", "spam")
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestListPending(t *testing.T) {
	svc, _, _ := approvalFixture(true)

	pending, err := svc.ListPending(context.Background(), 20, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "user", pending[0].ID)
}
