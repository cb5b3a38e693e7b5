package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"playaway/internal/models"
)

func (h HandlerSet) AdminListAccounts(c *gin.Context) {
	limit, offset := pagination(c)

	status := models.AccountStatus(c.DefaultQuery("status", string(models.AccountStatusPending)))
	accounts, err := h.accounts.ListByStatus(c.Request.Context(), status, limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}

	items := make([]accountResponse, 0, len(accounts))
	for _, account := range accounts {
		items = append(items, toAccountResponse(account))
	}
	c.JSON(http.StatusOK, gin.H{"accounts": items})
}

func (h HandlerSet) AdminApproveAccount(c *gin.Context) {
	approver, ok := currentAccount(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	account, err := h.approvalService.Approve(c.Request.Context(), c.Param("id"), approver.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"account": toAccountResponse(account)})
}

type rejectAccountRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func (h HandlerSet) AdminRejectAccount(c *gin.Context) {
	approver, ok := currentAccount(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req rejectAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account, err := h.approvalService.Reject(c.Request.Context(), c.Param("id"), approver.ID, req.Reason)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"account": toAccountResponse(account)})
}

func (h HandlerSet) AdminListEvents(c *gin.Context) {
	limit, offset := pagination(c)

	approval := models.EventApproval(c.DefaultQuery("approvalStatus", string(models.EventApprovalPending)))
	events, err := h.eventService.ListByApproval(c.Request.Context(), approval, limit, offset)
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

type reviewEventRequest struct {
	Decision string `json:"decision" binding:"required"`
	Reason   string `json:"reason"`
}

func (h HandlerSet) AdminReviewEvent(c *gin.Context) {
	approver, ok := currentAccount(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req reviewEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := h.eventService.Review(c.Request.Context(), c.Param("id"), approver.ID, models.EventApproval(req.Decision), req.Reason)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"event": toEventResponse(event)})
}

type resolveAppealRequest struct {
	Decision   string `json:"decision" binding:"required"`
	Resolution string `json:"resolution"`
}

func (h HandlerSet) AdminResolveAppeal(c *gin.Context) {
	approver, ok := currentAccount(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req resolveAppealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := h.eventService.ResolveAppeal(c.Request.Context(), c.Param("id"), approver.ID, models.AppealStatus(req.Decision), req.Resolution)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"event": toEventResponse(event)})
}

type issueTokenRequest struct {
	EventID        string `json:"eventId" binding:"required"`
	ReviewerClubID string `json:"reviewerClubId" binding:"required"`
	TargetClubID   string `json:"targetClubId" binding:"required"`
}

// AdminIssueToken mints a replacement review token, e.g. when an
// invite email was lost. The plaintext is returned once and never
// stored.
func (h HandlerSet) AdminIssueToken(c *gin.Context) {
	var req issueTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	issued, err := h.reviewService.Issue(c.Request.Context(), req.EventID, req.ReviewerClubID, req.TargetClubID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"token":     issued.Plaintext,
		"url":       issued.URL,
		"expiresAt": issued.Token.ExpiresAt,
	})
}

func (h HandlerSet) AdminSweepTokens(c *gin.Context) {
	removed, err := h.reviewService.SweepExpired(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func (h HandlerSet) AdminCleanupGeocache(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"removed": h.geoCache.Cleanup()})
}
