package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"playaway/internal/apperr"
	"playaway/internal/geo"
	"playaway/internal/ids"
	"playaway/internal/models"
	"playaway/internal/notify"
	"playaway/internal/repository"
)

type EventStore interface {
	Create(ctx context.Context, event models.Event) error
	GetByID(ctx context.Context, id string) (models.Event, error)
	ListByApproval(ctx context.Context, approval models.EventApproval, limit, offset int) ([]models.Event, error)
	SetReviewDecision(ctx context.Context, id string, decision models.EventApproval, reason string) (bool, error)
	FileAppeal(ctx context.Context, id string, reason string) (bool, error)
	ResolveAppeal(ctx context.Context, id string, decision models.AppealStatus, resolution string, resolverID string) (bool, error)
	Dismiss(ctx context.Context, id string) (bool, error)
	SetStatus(ctx context.Context, id string, status models.EventStatus) (bool, error)
	AddAttendee(ctx context.Context, eventID string, clubID string) error
	ListAttendeeClubs(ctx context.Context, eventID string) ([]string, error)
}

type ReportStore interface {
	Create(ctx context.Context, report models.Report) error
	GetByEventID(ctx context.Context, eventID string) (models.Report, error)
	Publish(ctx context.Context, id string) (bool, error)
}

type ClubStore interface {
	GetByID(ctx context.Context, id string) (models.Club, error)
	IsAdmin(ctx context.Context, clubID string, accountID string) (bool, error)
	AdminEmails(ctx context.Context, clubID string) ([]string, error)
}

// TokenIssuer mints review tokens when an event closes.
type TokenIssuer interface {
	Issue(ctx context.Context, eventID string, reviewerClubID string, targetClubID string) (IssuedToken, error)
}

// Locator enriches events with coordinates; nil means the lookup did
// not produce any.
type Locator interface {
	Lookup(ctx context.Context, location string) *geo.Coordinates
}

// EventService drives the event approval, appeal and status machines.
type EventService struct {
	events   EventStore
	reports  ReportStore
	clubs    ClubStore
	accounts AccountStore
	issuer   TokenIssuer
	locator  Locator
	notifier Notifier
	log      zerolog.Logger
}

func NewEventService(
	events EventStore,
	reports ReportStore,
	clubs ClubStore,
	accounts AccountStore,
	issuer TokenIssuer,
	locator Locator,
	notifier Notifier,
	log zerolog.Logger,
) *EventService {
	return &EventService{
		events:   events,
		reports:  reports,
		clubs:    clubs,
		accounts: accounts,
		issuer:   issuer,
		locator:  locator,
		notifier: notifier,
		log:      log,
	}
}

type CreateEventInput struct {
	HostClubID string
	Title      string
	Location   string
	StartDate  time.Time
	EndDate    *time.Time
}

// Create registers a PENDING event for review. Geocoding is an
// enrichment: a failed lookup leaves coordinates empty and the event is
// created regardless.
func (s *EventService) Create(ctx context.Context, actorID string, input CreateEventInput) (models.Event, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Location = strings.TrimSpace(input.Location)
	if input.Title == "" || input.Location == "" || input.HostClubID == "" {
		return models.Event{}, apperr.New(apperr.KindValidation, "title, location and host club are required")
	}
	if input.StartDate.IsZero() {
		return models.Event{}, apperr.New(apperr.KindValidation, "start date is required")
	}

	if err := s.authorizeClubAction(ctx, input.HostClubID, actorID); err != nil {
		return models.Event{}, err
	}

	event := models.Event{
		ID:             ids.New(),
		HostClubID:     input.HostClubID,
		Title:          input.Title,
		Location:       input.Location,
		StartDate:      input.StartDate,
		EndDate:        input.EndDate,
		ApprovalStatus: models.EventApprovalPending,
		Status:         models.EventStatusUpcoming,
	}

	if coords := s.locator.Lookup(ctx, input.Location); coords != nil {
		event.Latitude = &coords.Latitude
		event.Longitude = &coords.Longitude
	}

	if err := s.events.Create(ctx, event); err != nil {
		return models.Event{}, err
	}
	return s.get(ctx, event.ID)
}

// Review settles a pending event: SUPER_ADMIN approves or rejects.
func (s *EventService) Review(ctx context.Context, eventID string, approverID string, decision models.EventApproval, reason string) (models.Event, error) {
	if decision != models.EventApprovalApproved && decision != models.EventApprovalRejected {
		return models.Event{}, apperr.New(apperr.KindValidation, "decision must be APPROVED or REJECTED")
	}
	reason = strings.TrimSpace(reason)
	if decision == models.EventApprovalRejected && reason == "" {
		return models.Event{}, apperr.New(apperr.KindValidation, "rejection reason is required")
	}

	if err := s.requireSuperAdmin(ctx, approverID); err != nil {
		return models.Event{}, err
	}

	event, err := s.get(ctx, eventID)
	if err != nil {
		return models.Event{}, err
	}
	if event.ApprovalStatus != models.EventApprovalPending {
		return models.Event{}, apperr.New(apperr.KindInvalidState, "event is not awaiting review")
	}

	ok, err := s.events.SetReviewDecision(ctx, eventID, decision, reason)
	if err != nil {
		return models.Event{}, err
	}
	if !ok {
		return models.Event{}, apperr.New(apperr.KindConflict, "event review already decided")
	}

	s.notifyClubAdmins(ctx, event.HostClubID, notify.Task{
		Type:       notify.TaskEventReviewed,
		EventTitle: event.Title,
		Reason:     reason,
	})

	return s.get(ctx, eventID)
}

// FileAppeal opens the one permitted appeal on a rejected event.
func (s *EventService) FileAppeal(ctx context.Context, eventID string, actorID string, reason string) (models.Event, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return models.Event{}, apperr.New(apperr.KindValidation, "appeal reason is required")
	}

	event, err := s.get(ctx, eventID)
	if err != nil {
		return models.Event{}, err
	}
	if err := s.authorizeClubAction(ctx, event.HostClubID, actorID); err != nil {
		return models.Event{}, err
	}

	if event.ApprovalStatus != models.EventApprovalRejected {
		return models.Event{}, apperr.New(apperr.KindInvalidState, "only rejected events can be appealed")
	}
	if event.AppealStatus != nil {
		return models.Event{}, apperr.New(apperr.KindInvalidState, "event has already been appealed")
	}

	ok, err := s.events.FileAppeal(ctx, eventID, reason)
	if err != nil {
		return models.Event{}, err
	}
	if !ok {
		return models.Event{}, apperr.New(apperr.KindConflict, "appeal state changed, re-fetch and retry")
	}

	return s.get(ctx, eventID)
}

// ResolveAppeal settles a pending appeal. APPROVED reopens the event
// for review; DENIED leaves the rejection standing.
func (s *EventService) ResolveAppeal(ctx context.Context, eventID string, approverID string, decision models.AppealStatus, resolution string) (models.Event, error) {
	if decision != models.AppealStatusApproved && decision != models.AppealStatusDenied {
		return models.Event{}, apperr.New(apperr.KindValidation, "decision must be APPROVED or DENIED")
	}

	if err := s.requireSuperAdmin(ctx, approverID); err != nil {
		return models.Event{}, err
	}

	event, err := s.get(ctx, eventID)
	if err != nil {
		return models.Event{}, err
	}
	if event.AppealStatus == nil || *event.AppealStatus != models.AppealStatusPending {
		return models.Event{}, apperr.New(apperr.KindInvalidState, "event has no pending appeal")
	}

	ok, err := s.events.ResolveAppeal(ctx, eventID, decision, strings.TrimSpace(resolution), approverID)
	if err != nil {
		return models.Event{}, err
	}
	if !ok {
		return models.Event{}, apperr.New(apperr.KindConflict, "appeal already resolved")
	}

	s.notifyClubAdmins(ctx, event.HostClubID, notify.Task{
		Type:       notify.TaskAppealResolved,
		EventTitle: event.Title,
		Reason:     strings.TrimSpace(resolution),
	})

	return s.get(ctx, eventID)
}

// DismissRejection hides a rejected event from the club's dashboard.
// Re-dismissal is rejected rather than silently re-stamped.
func (s *EventService) DismissRejection(ctx context.Context, eventID string, actorID string) (models.Event, error) {
	event, err := s.get(ctx, eventID)
	if err != nil {
		return models.Event{}, err
	}
	if err := s.authorizeClubAction(ctx, event.HostClubID, actorID); err != nil {
		return models.Event{}, err
	}

	if event.ApprovalStatus != models.EventApprovalRejected {
		return models.Event{}, apperr.New(apperr.KindInvalidState, "only rejected events can be dismissed")
	}
	if event.DismissedAt != nil {
		return models.Event{}, apperr.New(apperr.KindInvalidState, "event rejection already dismissed")
	}

	ok, err := s.events.Dismiss(ctx, eventID)
	if err != nil {
		return models.Event{}, err
	}
	if !ok {
		return models.Event{}, apperr.New(apperr.KindConflict, "dismissal state changed, re-fetch and retry")
	}

	return s.get(ctx, eventID)
}

// SetStatus moves an event between UPCOMING, ACTIVE and CLOSED. Closing
// requires a published report and triggers review-token issuance for
// every attendee club.
func (s *EventService) SetStatus(ctx context.Context, eventID string, actorID string, newStatus models.EventStatus) (models.Event, error) {
	switch newStatus {
	case models.EventStatusUpcoming, models.EventStatusActive, models.EventStatusClosed:
	default:
		return models.Event{}, apperr.New(apperr.KindValidation, "status must be UPCOMING, ACTIVE or CLOSED")
	}

	event, err := s.get(ctx, eventID)
	if err != nil {
		return models.Event{}, err
	}
	if err := s.authorizeClubAction(ctx, event.HostClubID, actorID); err != nil {
		return models.Event{}, err
	}

	if newStatus == models.EventStatusClosed {
		report, err := s.reports.GetByEventID(ctx, eventID)
		if err != nil {
			if errors.Is(err, repository.ErrReportNotFound) {
				return models.Event{}, apperr.New(apperr.KindPreconditionFailed, "cannot close: no report exists")
			}
			return models.Event{}, err
		}
		if report.Status != models.ReportStatusPublished {
			return models.Event{}, apperr.New(apperr.KindPreconditionFailed, "cannot close: report not published")
		}
	}

	ok, err := s.events.SetStatus(ctx, eventID, newStatus)
	if err != nil {
		return models.Event{}, err
	}
	if !ok {
		return models.Event{}, apperr.Newf(apperr.KindInvalidState, "event is already %s", newStatus)
	}

	if newStatus == models.EventStatusClosed {
		s.issueReviewInvites(ctx, event)
	}

	return s.get(ctx, eventID)
}

// SubmitReport files the event's report as a DRAFT. One report per
// event; the draft can be rewritten until it is published.
func (s *EventService) SubmitReport(ctx context.Context, eventID string, actorID string, body string) (models.Report, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return models.Report{}, apperr.New(apperr.KindValidation, "report body is required")
	}

	event, err := s.get(ctx, eventID)
	if err != nil {
		return models.Report{}, err
	}
	if err := s.authorizeClubAction(ctx, event.HostClubID, actorID); err != nil {
		return models.Report{}, err
	}

	existing, err := s.reports.GetByEventID(ctx, eventID)
	if err == nil {
		if existing.Status == models.ReportStatusPublished {
			return models.Report{}, apperr.New(apperr.KindInvalidState, "report is already published")
		}
		existing.Body = body
		if err := s.reports.Create(ctx, existing); err != nil {
			return models.Report{}, err
		}
		return s.reports.GetByEventID(ctx, eventID)
	}
	if !errors.Is(err, repository.ErrReportNotFound) {
		return models.Report{}, err
	}

	report := models.Report{
		ID:      ids.New(),
		EventID: eventID,
		Body:    body,
		Status:  models.ReportStatusDraft,
	}
	if err := s.reports.Create(ctx, report); err != nil {
		return models.Report{}, err
	}
	return s.reports.GetByEventID(ctx, eventID)
}

// PublishReport makes the draft report official, unblocking the CLOSED
// transition.
func (s *EventService) PublishReport(ctx context.Context, eventID string, actorID string) (models.Report, error) {
	event, err := s.get(ctx, eventID)
	if err != nil {
		return models.Report{}, err
	}
	if err := s.authorizeClubAction(ctx, event.HostClubID, actorID); err != nil {
		return models.Report{}, err
	}

	report, err := s.reports.GetByEventID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrReportNotFound) {
			return models.Report{}, apperr.New(apperr.KindNotFound, "report not found")
		}
		return models.Report{}, err
	}

	ok, err := s.reports.Publish(ctx, report.ID)
	if err != nil {
		return models.Report{}, err
	}
	if !ok {
		return models.Report{}, apperr.New(apperr.KindInvalidState, "report is already published")
	}

	return s.reports.GetByEventID(ctx, eventID)
}

func (s *EventService) RegisterAttendee(ctx context.Context, eventID string, actorID string, clubID string) error {
	event, err := s.get(ctx, eventID)
	if err != nil {
		return err
	}
	if event.ApprovalStatus != models.EventApprovalApproved {
		return apperr.New(apperr.KindInvalidState, "event is not open for registration")
	}
	if err := s.authorizeClubAction(ctx, clubID, actorID); err != nil {
		return err
	}
	return s.events.AddAttendee(ctx, eventID, clubID)
}

func (s *EventService) ListByApproval(ctx context.Context, approval models.EventApproval, limit, offset int) ([]models.Event, error) {
	return s.events.ListByApproval(ctx, approval, limit, offset)
}

// issueReviewInvites mints one token per attendee club (reviewer =
// attendee, target = host) and emails the invite link. Failures are
// logged per club; the close transition has already committed.
func (s *EventService) issueReviewInvites(ctx context.Context, event models.Event) {
	attendees, err := s.events.ListAttendeeClubs(ctx, event.ID)
	if err != nil {
		s.log.Error().Err(err).Str("event_id", event.ID).Msg("list attendees for review invites failed")
		return
	}

	hostClub, err := s.clubs.GetByID(ctx, event.HostClubID)
	if err != nil {
		s.log.Error().Err(err).Str("event_id", event.ID).Msg("load host club for review invites failed")
		return
	}

	for _, clubID := range attendees {
		issued, err := s.issuer.Issue(ctx, event.ID, clubID, event.HostClubID)
		if err != nil {
			s.log.Error().Err(err).Str("event_id", event.ID).Str("club_id", clubID).Msg("issue review token failed")
			continue
		}
		s.notifyClubAdmins(ctx, clubID, notify.Task{
			Type:       notify.TaskReviewInvite,
			EventTitle: event.Title,
			ClubName:   hostClub.Name,
			ReviewURL:  issued.URL,
		})
	}
}

func (s *EventService) notifyClubAdmins(ctx context.Context, clubID string, task notify.Task) {
	emails, err := s.clubs.AdminEmails(ctx, clubID)
	if err != nil {
		s.log.Warn().Err(err).Str("club_id", clubID).Msg("resolve club admin emails failed")
		return
	}
	for _, email := range emails {
		task.To = email
		s.notifier.Dispatch(ctx, task)
	}
}

// authorizeClubAction admits super admins and admins of the given club.
func (s *EventService) authorizeClubAction(ctx context.Context, clubID string, actorID string) error {
	actor, err := s.accounts.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return apperr.New(apperr.KindForbidden, "actor not recognised")
		}
		return err
	}
	if actor.Role == models.AccountRoleSuperAdmin {
		return nil
	}

	isAdmin, err := s.clubs.IsAdmin(ctx, clubID, actorID)
	if err != nil {
		return err
	}
	if !isAdmin {
		return apperr.New(apperr.KindForbidden, "club admin role required")
	}
	return nil
}

func (s *EventService) requireSuperAdmin(ctx context.Context, accountID string) error {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return apperr.New(apperr.KindForbidden, "approver not recognised")
		}
		return err
	}
	if account.Role != models.AccountRoleSuperAdmin {
		return apperr.New(apperr.KindForbidden, "super admin role required")
	}
	return nil
}

func (s *EventService) get(ctx context.Context, eventID string) (models.Event, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return models.Event{}, apperr.New(apperr.KindNotFound, "event not found")
		}
		return models.Event{}, err
	}
	return event, nil
}
