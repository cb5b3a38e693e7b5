package models

import "time"

type Club struct {
	ID        string
	Name      string
	County    string
	Country   string
	CrestURL  *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type ClubMember struct {
	ClubID    string
	AccountID string
	IsAdmin   bool
	JoinedAt  time.Time
}
