package models

import "time"

type AccountRole string

const (
	AccountRoleUser       AccountRole = "USER"
	AccountRoleClubAdmin  AccountRole = "CLUB_ADMIN"
	AccountRoleGuestAdmin AccountRole = "GUEST_ADMIN"
	AccountRoleSuperAdmin AccountRole = "SUPER_ADMIN"
)

type AccountStatus string

const (
	AccountStatusPending   AccountStatus = "PENDING"
	AccountStatusApproved  AccountStatus = "APPROVED"
	AccountStatusRejected  AccountStatus = "REJECTED"
	AccountStatusSuspended AccountStatus = "SUSPENDED"
)

type Account struct {
	ID              string
	Email           string
	Username        string
	PasswordHash    []byte
	Role            AccountRole
	Status          AccountStatus
	RejectionReason *string
	ApprovedAt      *time.Time
	ApprovedBy      *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Session struct {
	ID               string
	AccountID        string
	DeviceID         string
	DeviceName       string
	RefreshTokenHash []byte
	IPAddress        string
	UserAgent        string
	CreatedAt        time.Time
	LastSeenAt       time.Time
	ExpiresAt        time.Time
}
