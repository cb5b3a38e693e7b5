package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"playaway/internal/apperr"
	"playaway/internal/geo"
	"playaway/internal/models"
	"playaway/internal/notify"
	"playaway/internal/repository"
)

type fakeEventStore struct {
	events        map[string]models.Event
	attendees     map[string][]string
	forceConflict bool
}

func newFakeEventStore() *fakeEventStore {
	return &fakeEventStore{
		events:    make(map[string]models.Event),
		attendees: make(map[string][]string),
	}
}

func (f *fakeEventStore) Create(_ context.Context, event models.Event) error {
	f.events[event.ID] = event
	return nil
}

func (f *fakeEventStore) GetByID(_ context.Context, id string) (models.Event, error) {
	event, ok := f.events[id]
	if !ok {
		return models.Event{}, repository.ErrEventNotFound
	}
	return event, nil
}

func (f *fakeEventStore) ListByApproval(_ context.Context, approval models.EventApproval, _, _ int) ([]models.Event, error) {
	var out []models.Event
	for _, event := range f.events {
		if event.ApprovalStatus == approval {
			out = append(out, event)
		}
	}
	return out, nil
}

func (f *fakeEventStore) SetReviewDecision(_ context.Context, id string, decision models.EventApproval, reason string) (bool, error) {
	event := f.events[id]
	if f.forceConflict || event.ApprovalStatus != models.EventApprovalPending {
		return false, nil
	}
	event.ApprovalStatus = decision
	if decision == models.EventApprovalRejected {
		event.RejectionReason = &reason
	}
	f.events[id] = event
	return true, nil
}

func (f *fakeEventStore) FileAppeal(_ context.Context, id string, reason string) (bool, error) {
	event := f.events[id]
	if f.forceConflict || event.ApprovalStatus != models.EventApprovalRejected || event.AppealStatus != nil {
		return false, nil
	}
	pending := models.AppealStatusPending
	event.AppealStatus = &pending
	event.AppealReason = &reason
	f.events[id] = event
	return true, nil
}

func (f *fakeEventStore) ResolveAppeal(_ context.Context, id string, decision models.AppealStatus, resolution string, resolverID string) (bool, error) {
	event := f.events[id]
	if f.forceConflict || event.AppealStatus == nil || *event.AppealStatus != models.AppealStatusPending {
		return false, nil
	}
	now := time.Now()
	event.AppealStatus = &decision
	event.AppealResolution = &resolution
	event.AppealResolvedAt = &now
	event.AppealResolvedBy = &resolverID
	if decision == models.AppealStatusApproved {
		event.ApprovalStatus = models.EventApprovalPending
		event.RejectionReason = nil
	}
	f.events[id] = event
	return true, nil
}

func (f *fakeEventStore) Dismiss(_ context.Context, id string) (bool, error) {
	event := f.events[id]
	if f.forceConflict || event.ApprovalStatus != models.EventApprovalRejected || event.DismissedAt != nil {
		return false, nil
	}
	now := time.Now()
	event.DismissedAt = &now
	f.events[id] = event
	return true, nil
}

func (f *fakeEventStore) SetStatus(_ context.Context, id string, status models.EventStatus) (bool, error) {
	event := f.events[id]
	if f.forceConflict || event.Status == status {
		return false, nil
	}
	event.Status = status
	f.events[id] = event
	return true, nil
}

func (f *fakeEventStore) AddAttendee(_ context.Context, eventID string, clubID string) error {
	f.attendees[eventID] = append(f.attendees[eventID], clubID)
	return nil
}

func (f *fakeEventStore) ListAttendeeClubs(_ context.Context, eventID string) ([]string, error) {
	return f.attendees[eventID], nil
}

type fakeReportStore struct {
	reports map[string]models.Report
}

func (f *fakeReportStore) Create(_ context.Context, report models.Report) error {
	if existing, ok := f.reports[report.EventID]; ok {
		existing.Body = report.Body
		f.reports[report.EventID] = existing
		return nil
	}
	f.reports[report.EventID] = report
	return nil
}

func (f *fakeReportStore) GetByEventID(_ context.Context, eventID string) (models.Report, error) {
	report, ok := f.reports[eventID]
	if !ok {
		return models.Report{}, repository.ErrReportNotFound
	}
	return report, nil
}

func (f *fakeReportStore) Publish(_ context.Context, id string) (bool, error) {
	for eventID, report := range f.reports {
		if report.ID != id {
			continue
		}
		if report.Status != models.ReportStatusDraft {
			return false, nil
		}
		now := time.Now()
		report.Status = models.ReportStatusPublished
		report.PublishedAt = &now
		f.reports[eventID] = report
		return true, nil
	}
	return false, nil
}

type fakeClubStore struct {
	clubs  map[string]models.Club
	admins map[string]string // clubID -> admin accountID
	emails map[string][]string
}

func (f *fakeClubStore) GetByID(_ context.Context, id string) (models.Club, error) {
	club, ok := f.clubs[id]
	if !ok {
		return models.Club{}, repository.ErrClubNotFound
	}
	return club, nil
}

func (f *fakeClubStore) IsAdmin(_ context.Context, clubID string, accountID string) (bool, error) {
	return f.admins[clubID] == accountID, nil
}

func (f *fakeClubStore) AdminEmails(_ context.Context, clubID string) ([]string, error) {
	return f.emails[clubID], nil
}

type fakeIssuer struct {
	issued []string // reviewer club IDs
	err    error
}

func (f *fakeIssuer) Issue(_ context.Context, eventID string, reviewerClubID string, targetClubID string) (IssuedToken, error) {
	if f.err != nil {
		return IssuedToken{}, f.err
	}
	f.issued = append(f.issued, reviewerClubID)
	return IssuedToken{URL: "https://playaway.ie/review/" + reviewerClubID}, nil
}

type fakeLocator struct {
	coords *geo.Coordinates
	calls  int
}

func (f *fakeLocator) Lookup(_ context.Context, _ string) *geo.Coordinates {
	f.calls++
	return f.coords
}

type eventFixture struct {
	svc      *EventService
	events   *fakeEventStore
	reports  *fakeReportStore
	clubs    *fakeClubStore
	issuer   *fakeIssuer
	locator  *fakeLocator
	notifier *fakeNotifier
}

func newEventFixture() *eventFixture {
	events := newFakeEventStore()
	reports := &fakeReportStore{reports: make(map[string]models.Report)}
	clubs := &fakeClubStore{
		clubs: map[string]models.Club{
			"club-host":  {ID: "club-host", Name: "Corofin GAA"},
			"club-guest": {ID: "club-guest", Name: "Salthill-Knocknacarra"},
		},
		admins: map[string]string{
			"club-host":  "host-admin",
			"club-guest": "guest-admin",
		},
		emails: map[string][]string{
			"club-host":  {"host@corofin.ie"},
			"club-guest": {"guest@salthill.ie"},
		},
	}
	accounts := &fakeAccountStore{
		accounts: map[string]models.Account{
			"super":       {ID: "super", Role: models.AccountRoleSuperAdmin, Status: models.AccountStatusApproved},
			"host-admin":  {ID: "host-admin", Role: models.AccountRoleClubAdmin, Status: models.AccountStatusApproved},
			"guest-admin": {ID: "guest-admin", Role: models.AccountRoleClubAdmin, Status: models.AccountStatusApproved},
			"member":      {ID: "member", Role: models.AccountRoleUser, Status: models.AccountStatusApproved},
		},
	}
	issuer := &fakeIssuer{}
	locator := &fakeLocator{}
	notifier := &fakeNotifier{}

	svc := NewEventService(events, reports, clubs, accounts, issuer, locator, notifier, zerolog.Nop())
	return &eventFixture{
		svc:      svc,
		events:   events,
		reports:  reports,
		clubs:    clubs,
		issuer:   issuer,
		locator:  locator,
		notifier: notifier,
	}
}

func (f *eventFixture) seedEvent(t *testing.T, mutate func(*models.Event)) models.Event {
	t.Helper()
	event := models.Event{
		ID:             "evt-1",
		HostClubID:     "club-host",
		Title:          "Summer Sevens",
		Location:       "Corofin, Co. Galway",
		StartDate:      time.Now().Add(48 * time.Hour),
		ApprovalStatus: models.EventApprovalPending,
		Status:         models.EventStatusUpcoming,
	}
	if mutate != nil {
		mutate(&event)
	}
	f.events.events[event.ID] = event
	return event
}

func TestCreateEvent(t *testing.T) {
	f := newEventFixture()
	f.locator.coords = &geo.Coordinates{Latitude: 53.43, Longitude: -8.85}

	event, err := f.svc.Create(context.Background(), "host-admin", CreateEventInput{
		HostClubID: "club-host",
		Title:      "Summer Sevens",
		Location:   "Corofin, Co. Galway",
		StartDate:  time.Now().Add(48 * time.Hour),
	})
	require.NoError(t, err)

	assert.Equal(t, models.EventApprovalPending, event.ApprovalStatus)
	assert.Equal(t, models.EventStatusUpcoming, event.Status)
	require.NotNil(t, event.Latitude)
	assert.Equal(t, 53.43, *event.Latitude)
	assert.Equal(t, 1, f.locator.calls)
}

func TestCreateEventWithoutCoordinates(t *testing.T) {
	f := newEventFixture() // locator returns nil

	event, err := f.svc.Create(context.Background(), "host-admin", CreateEventInput{
		HostClubID: "club-host",
		Title:      "Summer Sevens",
		Location:   "nowhere in particular",
		StartDate:  time.Now().Add(48 * time.Hour),
	})
	require.NoError(t, err)
	assert.Nil(t, event.Latitude)
	assert.Nil(t, event.Longitude)
}

func TestCreateEventRequiresClubAdmin(t *testing.T) {
	f := newEventFixture()

	_, err := f.svc.Create(context.Background(), "member", CreateEventInput{
		HostClubID: "club-host",
		Title:      "Summer Sevens",
		Location:   "Corofin",
		StartDate:  time.Now(),
	})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestReviewApprove(t *testing.T) {
	f := newEventFixture()
	f.seedEvent(t, nil)

	event, err := f.svc.Review(context.Background(), "evt-1", "super", models.EventApprovalApproved, "")
	require.NoError(t, err)
	assert.Equal(t, models.EventApprovalApproved, event.ApprovalStatus)

	require.Len(t, f.notifier.tasks, 1)
	assert.Equal(t, notify.TaskEventReviewed, f.notifier.tasks[0].Type)
	assert.Equal(t, "host@corofin.ie", f.notifier.tasks[0].To)
}

func TestReviewRejectRequiresReason(t *testing.T) {
	f := newEventFixture()
	f.seedEvent(t, nil)

	_, err := f.svc.Review(context.Background(), "evt-1", "super", models.EventApprovalRejected, " ")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestReviewRequiresSuperAdmin(t *testing.T) {
	f := newEventFixture()
	f.seedEvent(t, nil)

	_, err := f.svc.Review(context.Background(), "evt-1", "host-admin", models.EventApprovalApproved, "")
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestReviewNotPending(t *testing.T) {
	f := newEventFixture()
	f.seedEvent(t, func(e *models.Event) { e.ApprovalStatus = models.EventApprovalApproved })

	_, err := f.svc.Review(context.Background(), "evt-1", "super", models.EventApprovalRejected, "too late")
	assert.True(t, apperr.Is(err, apperr.KindInvalidState))
}

func TestReviewLosesRace(t *testing.T) {
	f := newEventFixture()
	f.seedEvent(t, nil)
	f.events.forceConflict = true

	_, err := f.svc.Review(context.Background(), "evt-1", "super", models.EventApprovalApproved, "")
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestFileAppeal(t *testing.T) {
	f := newEventFixture()
	f.seedEvent(t, func(e *models.Event) {
		e.ApprovalStatus = models.EventApprovalRejected
	})

	event, err := f.svc.FileAppeal(context.Background(), "evt-1", "host-admin", "fixture clash was resolved")
	require.NoError(t, err)
	require.NotNil(t, event.AppealStatus)
	assert.Equal(t, models.AppealStatusPending, *event.AppealStatus)
}

func TestFileAppealOnlyOnRejected(t *testing.T) {
	f := newEventFixture()
	f.seedEvent(t, nil)

	_, err := f.svc.FileAppeal(context.Background(), "evt-1", "host-admin", "please reconsider")
	assert.True(t, apperr.Is(err, apperr.KindInvalidState))
}

func TestFileAppealOnlyOnce(t *testing.T) {
	f := newEventFixture()
	denied := models.AppealStatusDenied
	f.seedEvent(t, func(e *models.Event) {
		e.ApprovalStatus = models.EventApprovalRejected
		e.AppealStatus = &denied
	})

	_, err := f.svc.FileAppeal(context.Background(), "evt-1", "host-admin", "one more try")
	assert.True(t, apperr.Is(err, apperr.KindInvalidState))
}

func TestResolveAppealApprovedReopensReview(t *testing.T) {
	f := newEventFixture()
	pending := models.AppealStatusPending
	reason := "fixture clash"
	f.seedEvent(t, func(e *models.Event) {
		e.ApprovalStatus = models.EventApprovalRejected
		e.RejectionReason = &reason
		e.AppealStatus = &pending
	})

	event, err := f.svc.ResolveAppeal(context.Background(), "evt-1", "super", models.AppealStatusApproved, "clash confirmed resolved")
	require.NoError(t, err)

	assert.Equal(t, models.EventApprovalPending, event.ApprovalStatus)
	assert.Nil(t, event.RejectionReason)
	require.NotNil(t, event.AppealStatus)
	assert.Equal(t, models.AppealStatusApproved, *event.AppealStatus)

	require.Len(t, f.notifier.tasks, 1)
	assert.Equal(t, notify.TaskAppealResolved, f.notifier.tasks[0].Type)
}

func TestResolveAppealDeniedKeepsRejection(t *testing.T) {
	f := newEventFixture()
	pending := models.AppealStatusPending
	f.seedEvent(t, func(e *models.Event) {
		e.ApprovalStatus = models.EventApprovalRejected
		e.AppealStatus = &pending
	})

	event, err := f.svc.ResolveAppeal(context.Background(), "evt-1", "super", models.AppealStatusDenied, "decision stands")
	require.NoError(t, err)

	assert.Equal(t, models.EventApprovalRejected, event.ApprovalStatus)
	require.NotNil(t, event.AppealStatus)
	assert.Equal(t, models.AppealStatusDenied, *event.AppealStatus)
}

func TestResolveAppealWithoutPendingAppeal(t *testing.T) {
	f := newEventFixture()
	f.seedEvent(t, func(e *models.Event) { e.ApprovalStatus = models.EventApprovalRejected })

	_, err := f.svc.ResolveAppeal(context.Background(), "evt-1", "super", models.AppealStatusDenied, "")
	assert.True(t, apperr.Is(err, apperr.KindInvalidState))
}

func TestResolveAppealInvalidDecision(t *testing.T) {
	f := newEventFixture()

	_, err := f.svc.ResolveAppeal(context.Background(), "evt-1", "super", models.AppealStatusPending, "")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestDismissRejection(t *testing.T) {
	f := newEventFixture()
	f.seedEvent(t, func(e *models.Event) { e.ApprovalStatus = models.EventApprovalRejected })

	event, err := f.svc.DismissRejection(context.Background(), "evt-1", "host-admin")
	require.NoError(t, err)
	assert.NotNil(t, event.DismissedAt)
}

func TestDismissRejectionTwice(t *testing.T) {
	f := newEventFixture()
	f.seedEvent(t, func(e *models.Event) { e.ApprovalStatus = models.EventApprovalRejected })

	_, err := f.svc.DismissRejection(context.Background(), "evt-1", "host-admin")
	require.NoError(t, err)

	_, err = f.svc.DismissRejection(context.Background(), "evt-1", "host-admin")
	assert.True(t, apperr.Is(err, apperr.KindInvalidState))
}

func TestDismissNonRejectedEvent(t *testing.T) {
	f := newEventFixture()
	f.seedEvent(t, func(e *models.Event) { e.ApprovalStatus = models.EventApprovalApproved })

	_, err := f.svc.DismissRejection(context.Background(), "evt-1", "host-admin")
	assert.True(t, apperr.Is(err, apperr.KindInvalidState))
}

func TestSetStatusCloseWithoutReport(t *testing.T) {
	f := newEventFixture()
	f.seedEvent(t, func(e *models.Event) {
		e.ApprovalStatus = models.EventApprovalApproved
		e.Status = models.EventStatusActive
	})

	_, err := f.svc.SetStatus(context.Background(), "evt-1", "host-admin", models.EventStatusClosed)
	require.True(t, apperr.Is(err, apperr.KindPreconditionFailed))
	assert.Equal(t, "cannot close: no report exists", apperr.Message(err))
}

func TestSetStatusCloseWithDraftReport(t *testing.T) {
	f := newEventFixture()
	f.seedEvent(t, func(e *models.Event) {
		e.ApprovalStatus = models.EventApprovalApproved
		e.Status = models.EventStatusActive
	})
	f.reports.reports["evt-1"] = models.Report{ID: "rep-1", EventID: "evt-1", Status: models.ReportStatusDraft}

	_, err := f.svc.SetStatus(context.Background(), "evt-1", "host-admin", models.EventStatusClosed)
	require.True(t, apperr.Is(err, apperr.KindPreconditionFailed))
	assert.Equal(t, "cannot close: report not published", apperr.Message(err))
}

func TestSetStatusCloseIssuesReviewInvites(t *testing.T) {
	f := newEventFixture()
	f.seedEvent(t, func(e *models.Event) {
		e.ApprovalStatus = models.EventApprovalApproved
		e.Status = models.EventStatusActive
	})
	f.reports.reports["evt-1"] = models.Report{ID: "rep-1", EventID: "evt-1", Status: models.ReportStatusPublished}
	f.events.attendees["evt-1"] = []string{"club-guest"}

	event, err := f.svc.SetStatus(context.Background(), "evt-1", "host-admin", models.EventStatusClosed)
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusClosed, event.Status)

	assert.Equal(t, []string{"club-guest"}, f.issuer.issued)
	require.Len(t, f.notifier.tasks, 1)
	task := f.notifier.tasks[0]
	assert.Equal(t, notify.TaskReviewInvite, task.Type)
	assert.Equal(t, "guest@salthill.ie", task.To)
	assert.Equal(t, "Corofin GAA", task.ClubName)
	assert.NotEmpty(t, task.ReviewURL)
}

func TestSetStatusNoChange(t *testing.T) {
	f := newEventFixture()
	f.seedEvent(t, func(e *models.Event) { e.ApprovalStatus = models.EventApprovalApproved })

	_, err := f.svc.SetStatus(context.Background(), "evt-1", "host-admin", models.EventStatusUpcoming)
	assert.True(t, apperr.Is(err, apperr.KindInvalidState))
}

func TestSetStatusInvalidValue(t *testing.T) {
	f := newEventFixture()

	_, err := f.svc.SetStatus(context.Background(), "evt-1", "host-admin", models.EventStatus("CANCELLED"))
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestSubmitAndPublishReportUnblocksClose(t *testing.T) {
	f := newEventFixture()
	f.seedEvent(t, func(e *models.Event) {
		e.ApprovalStatus = models.EventApprovalApproved
		e.Status = models.EventStatusActive
	})

	report, err := f.svc.SubmitReport(context.Background(), "evt-1", "host-admin", "Two matches played, both clubs fielded full panels.")
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusDraft, report.Status)

	_, err = f.svc.SetStatus(context.Background(), "evt-1", "host-admin", models.EventStatusClosed)
	require.True(t, apperr.Is(err, apperr.KindPreconditionFailed))

	report, err = f.svc.PublishReport(context.Background(), "evt-1", "host-admin")
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusPublished, report.Status)
	assert.NotNil(t, report.PublishedAt)

	event, err := f.svc.SetStatus(context.Background(), "evt-1", "host-admin", models.EventStatusClosed)
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusClosed, event.Status)
}

func TestSubmitReportRewritesDraft(t *testing.T) {
	f := newEventFixture()
	f.seedEvent(t, func(e *models.Event) { e.ApprovalStatus = models.EventApprovalApproved })

	first, err := f.svc.SubmitReport(context.Background(), "evt-1", "host-admin", "first draft")
	require.NoError(t, err)

	second, err := f.svc.SubmitReport(context.Background(), "evt-1", "host-admin", "second draft")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "second draft", second.Body)
}

func TestSubmitReportAfterPublishRejected(t *testing.T) {
	f := newEventFixture()
	f.seedEvent(t, func(e *models.Event) { e.ApprovalStatus = models.EventApprovalApproved })
	f.reports.reports["evt-1"] = models.Report{ID: "rep-1", EventID: "evt-1", Status: models.ReportStatusPublished}

	_, err := f.svc.SubmitReport(context.Background(), "evt-1", "host-admin", "late edits")
	assert.True(t, apperr.Is(err, apperr.KindInvalidState))
}

func TestPublishReportTwice(t *testing.T) {
	f := newEventFixture()
	f.seedEvent(t, func(e *models.Event) { e.ApprovalStatus = models.EventApprovalApproved })

	_, err := f.svc.SubmitReport(context.Background(), "evt-1", "host-admin", "match report")
	require.NoError(t, err)
	_, err = f.svc.PublishReport(context.Background(), "evt-1", "host-admin")
	require.NoError(t, err)

	_, err = f.svc.PublishReport(context.Background(), "evt-1", "host-admin")
	assert.True(t, apperr.Is(err, apperr.KindInvalidState))
}

func TestPublishReportWithoutDraft(t *testing.T) {
	f := newEventFixture()
	f.seedEvent(t, func(e *models.Event) { e.ApprovalStatus = models.EventApprovalApproved })

	_, err := f.svc.PublishReport(context.Background(), "evt-1", "host-admin")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestSubmitReportRequiresClubAdmin(t *testing.T) {
	f := newEventFixture()
	f.seedEvent(t, func(e *models.Event) { e.ApprovalStatus = models.EventApprovalApproved })

	_, err := f.svc.SubmitReport(context.Background(), "evt-1", "member", "unauthorised report")
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestRegisterAttendee(t *testing.T) {
	f := newEventFixture()
	f.seedEvent(t, func(e *models.Event) { e.ApprovalStatus = models.EventApprovalApproved })

	err := f.svc.RegisterAttendee(context.Background(), "evt-1", "guest-admin", "club-guest")
	require.NoError(t, err)
	assert.Equal(t, []string{"club-guest"}, f.events.attendees["evt-1"])
}

func TestRegisterAttendeeUnapprovedEvent(t *testing.T) {
	f := newEventFixture()
	f.seedEvent(t, nil)

	err := f.svc.RegisterAttendee(context.Background(), "evt-1", "guest-admin", "club-guest")
	assert.True(t, apperr.Is(err, apperr.KindInvalidState))
}

func TestEventNotFound(t *testing.T) {
	f := newEventFixture()

	_, err := f.svc.Review(context.Background(), "missing", "super", models.EventApprovalApproved, "")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
