package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReviewTokenIsValid(t *testing.T) {
	now := time.Now()
	reviewID := "rev-1"

	tests := []struct {
		name  string
		token ReviewToken
		want  bool
	}{
		{
			name:  "fresh token",
			token: ReviewToken{ExpiresAt: now.Add(time.Hour)},
			want:  true,
		},
		{
			name:  "expires exactly now",
			token: ReviewToken{ExpiresAt: now},
			want:  true,
		},
		{
			name:  "expired",
			token: ReviewToken{ExpiresAt: now.Add(-time.Second)},
			want:  false,
		},
		{
			name:  "used",
			token: ReviewToken{ExpiresAt: now.Add(time.Hour), Used: true},
			want:  false,
		},
		{
			name:  "linked to review",
			token: ReviewToken{ExpiresAt: now.Add(time.Hour), ReviewID: &reviewID},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.token.IsValid(now))
		})
	}
}
