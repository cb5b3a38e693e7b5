package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	err := New(KindConflict, "decision already made")
	assert.Equal(t, KindConflict, KindOf(err))
	assert.True(t, Is(err, KindConflict))
	assert.False(t, Is(err, KindNotFound))
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, KindInternal, KindOf(nil))
}

func TestKindSurvivesWrapping(t *testing.T) {
	inner := New(KindExpired, "review token expired")
	outer := fmt.Errorf("consume token: %w", inner)

	assert.Equal(t, KindExpired, KindOf(outer))
	assert.Equal(t, "review token expired", Message(outer))
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(KindUpstreamUnavailable, "geocoder unreachable", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KindUpstreamUnavailable, KindOf(err))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "rating must be between 1 and 5", Message(New(KindValidation, "rating must be between 1 and 5")))
	assert.Equal(t, string(KindForbidden), Message(New(KindForbidden, "")))
	assert.Equal(t, "internal error", Message(errors.New("pq: duplicate key")))
}
