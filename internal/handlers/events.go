package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"playaway/internal/models"
	"playaway/internal/service"
)

type eventResponse struct {
	ID               string     `json:"id"`
	HostClubID       string     `json:"hostClubId"`
	Title            string     `json:"title"`
	Location         string     `json:"location"`
	Latitude         *float64   `json:"latitude,omitempty"`
	Longitude        *float64   `json:"longitude,omitempty"`
	StartDate        time.Time  `json:"startDate"`
	EndDate          *time.Time `json:"endDate,omitempty"`
	ApprovalStatus   string     `json:"approvalStatus"`
	RejectionReason  *string    `json:"rejectionReason,omitempty"`
	AppealStatus     *string    `json:"appealStatus,omitempty"`
	AppealResolution *string    `json:"appealResolution,omitempty"`
	DismissedAt      *time.Time `json:"dismissedAt,omitempty"`
	Status           string     `json:"status"`
}

func toEventResponse(event models.Event) eventResponse {
	resp := eventResponse{
		ID:               event.ID,
		HostClubID:       event.HostClubID,
		Title:            event.Title,
		Location:         event.Location,
		Latitude:         event.Latitude,
		Longitude:        event.Longitude,
		StartDate:        event.StartDate,
		EndDate:          event.EndDate,
		ApprovalStatus:   string(event.ApprovalStatus),
		RejectionReason:  event.RejectionReason,
		AppealResolution: event.AppealResolution,
		DismissedAt:      event.DismissedAt,
		Status:           string(event.Status),
	}
	if event.AppealStatus != nil {
		appeal := string(*event.AppealStatus)
		resp.AppealStatus = &appeal
	}
	return resp
}

type createEventRequest struct {
	HostClubID string     `json:"hostClubId" binding:"required"`
	Title      string     `json:"title" binding:"required"`
	Location   string     `json:"location" binding:"required"`
	StartDate  time.Time  `json:"startDate" binding:"required"`
	EndDate    *time.Time `json:"endDate"`
}

func (h HandlerSet) CreateEvent(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req createEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := h.eventService.Create(c.Request.Context(), account.ID, service.CreateEventInput{
		HostClubID: req.HostClubID,
		Title:      req.Title,
		Location:   req.Location,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"event": toEventResponse(event)})
}

func (h HandlerSet) ListEvents(c *gin.Context) {
	limit, offset := pagination(c)
	events, err := h.eventService.ListByApproval(c.Request.Context(), models.EventApprovalApproved, limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}

	items := make([]eventResponse, 0, len(events))
	for _, event := range events {
		items = append(items, toEventResponse(event))
	}
	c.JSON(http.StatusOK, gin.H{"events": items})
}

type setStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h HandlerSet) SetEventStatus(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := h.eventService.SetStatus(c.Request.Context(), c.Param("id"), account.ID, models.EventStatus(req.Status))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"event": toEventResponse(event)})
}

type appealRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func (h HandlerSet) FileAppeal(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req appealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := h.eventService.FileAppeal(c.Request.Context(), c.Param("id"), account.ID, req.Reason)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"event": toEventResponse(event)})
}

func (h HandlerSet) DismissRejection(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	event, err := h.eventService.DismissRejection(c.Request.Context(), c.Param("id"), account.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"event": toEventResponse(event)})
}

type reportResponse struct {
	ID          string     `json:"id"`
	EventID     string     `json:"eventId"`
	Body        string     `json:"body"`
	Status      string     `json:"status"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
}

func toReportResponse(report models.Report) reportResponse {
	return reportResponse{
		ID:          report.ID,
		EventID:     report.EventID,
		Body:        report.Body,
		Status:      string(report.Status),
		PublishedAt: report.PublishedAt,
	}
}

type submitReportRequest struct {
	Body string `json:"body" binding:"required"`
}

func (h HandlerSet) SubmitReport(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req submitReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := h.eventService.SubmitReport(c.Request.Context(), c.Param("id"), account.ID, req.Body)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": toReportResponse(report)})
}

func (h HandlerSet) PublishReport(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	report, err := h.eventService.PublishReport(c.Request.Context(), c.Param("id"), account.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": toReportResponse(report)})
}

type registerAttendeeRequest struct {
	ClubID string `json:"clubId" binding:"required"`
}

func (h HandlerSet) RegisterAttendee(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req registerAttendeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.eventService.RegisterAttendee(c.Request.Context(), c.Param("id"), account.ID, req.ClubID); err != nil {
		h.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func pagination(c *gin.Context) (limit int, offset int) {
	limit = 50
	if perPage := c.Query("perPage"); perPage != "" {
		if v, err := strconv.Atoi(perPage); err == nil && v > 0 && v <= 200 {
			limit = v
		}
	}
	if page := c.Query("page"); page != "" {
		if v, err := strconv.Atoi(page); err == nil && v > 1 {
			offset = (v - 1) * limit
		}
	}
	return limit, offset
}
