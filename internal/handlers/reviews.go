package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"playaway/internal/service"
)

type tokenDetailsResponse struct {
	EventID        string    `json:"eventId"`
	ReviewerClubID string    `json:"reviewerClubId"`
	TargetClubID   string    `json:"targetClubId"`
	ExpiresAt      time.Time `json:"expiresAt"`
}

// ValidateReviewToken lets a reviewer see what they are about to review
// before committing. Success here does not reserve the token; a
// concurrent consumer can still win.
func (h HandlerSet) ValidateReviewToken(c *gin.Context) {
	token, err := h.reviewService.Validate(c.Request.Context(), c.Param("token"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, tokenDetailsResponse{
		EventID:        token.EventID,
		ReviewerClubID: token.ReviewerClubID,
		TargetClubID:   token.TargetClubID,
		ExpiresAt:      token.ExpiresAt,
	})
}

type submitReviewRequest struct {
	Rating int    `json:"rating" binding:"required"`
	Body   string `json:"body"`
}

func (h HandlerSet) SubmitReview(c *gin.Context) {
	var req submitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	review, err := h.reviewService.Consume(c.Request.Context(), c.Param("token"), service.ReviewDraft{
		Rating: req.Rating,
		Body:   req.Body,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"review": gin.H{
			"id":             review.ID,
			"eventId":        review.EventID,
			"reviewerClubId": review.ReviewerClubID,
			"targetClubId":   review.TargetClubID,
			"rating":         review.Rating,
			"body":           review.Body,
			"createdAt":      review.CreatedAt,
		},
	})
}
