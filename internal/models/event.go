package models

import "time"

type EventApproval string

const (
	EventApprovalPending  EventApproval = "PENDING"
	EventApprovalApproved EventApproval = "APPROVED"
	EventApprovalRejected EventApproval = "REJECTED"
)

type AppealStatus string

const (
	AppealStatusPending  AppealStatus = "PENDING"
	AppealStatusApproved AppealStatus = "APPROVED"
	AppealStatusDenied   AppealStatus = "DENIED"
)

type EventStatus string

const (
	EventStatusUpcoming EventStatus = "UPCOMING"
	EventStatusActive   EventStatus = "ACTIVE"
	EventStatusClosed   EventStatus = "CLOSED"
)

type Event struct {
	ID               string
	HostClubID       string
	Title            string
	Location         string
	Latitude         *float64
	Longitude        *float64
	StartDate        time.Time
	EndDate          *time.Time
	ApprovalStatus   EventApproval
	RejectionReason  *string
	AppealStatus     *AppealStatus
	AppealReason     *string
	AppealResolution *string
	AppealResolvedAt *time.Time
	AppealResolvedBy *string
	DismissedAt      *time.Time
	Status           EventStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type ReportStatus string

const (
	ReportStatusDraft     ReportStatus = "DRAFT"
	ReportStatusPublished ReportStatus = "PUBLISHED"
)

type Report struct {
	ID          string
	EventID     string
	Body        string
	Status      ReportStatus
	PublishedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
