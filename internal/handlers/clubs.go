package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"playaway/internal/service"
)

type createClubRequest struct {
	Name    string `json:"name" binding:"required"`
	County  string `json:"county"`
	Country string `json:"country"`
}

func (h HandlerSet) CreateClub(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req createClubRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	club, err := h.clubService.Create(c.Request.Context(), account.ID, service.CreateClubInput{
		Name:    req.Name,
		County:  req.County,
		Country: req.Country,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"club": gin.H{
			"id":      club.ID,
			"name":    club.Name,
			"county":  club.County,
			"country": club.Country,
		},
	})
}

const maxCrestBytes = 2 << 20 // 2 MiB

func (h HandlerSet) UploadCrest(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	file, _, err := c.Request.FormFile("crest")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "crest file required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxCrestBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read file failed"})
		return
	}
	if len(data) > maxCrestBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "crest too large"})
		return
	}

	crestURL, err := h.clubService.UploadCrest(c.Request.Context(), c.Param("id"), account, data)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"crestUrl": crestURL})
}
