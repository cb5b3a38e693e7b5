package models

import "time"

// ReviewToken is a single-use credential letting one club review another
// for one event. Only the SHA-256 hash of the secret is stored.
type ReviewToken struct {
	ID             string
	TokenHash      []byte
	EventID        string
	ReviewerClubID string
	TargetClubID   string
	ExpiresAt      time.Time
	Used           bool
	ReviewID       *string
	CreatedAt      time.Time
}

func (t ReviewToken) IsValid(now time.Time) bool {
	return !t.Used && t.ReviewID == nil && !now.After(t.ExpiresAt)
}

type Review struct {
	ID             string
	EventID        string
	ReviewerClubID string
	TargetClubID   string
	Rating         int
	Body           string
	CreatedAt      time.Time
}
