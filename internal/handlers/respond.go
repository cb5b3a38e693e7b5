package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"playaway/internal/apperr"
	"playaway/internal/models"
)

var kindStatus = map[apperr.Kind]int{
	apperr.KindValidation:          http.StatusBadRequest,
	apperr.KindInvalidToken:        http.StatusUnauthorized,
	apperr.KindForbidden:           http.StatusForbidden,
	apperr.KindNotFound:            http.StatusNotFound,
	apperr.KindConflict:            http.StatusConflict,
	apperr.KindAlreadyUsed:         http.StatusConflict,
	apperr.KindExpired:             http.StatusGone,
	apperr.KindInvalidState:        http.StatusUnprocessableEntity,
	apperr.KindPreconditionFailed:  http.StatusUnprocessableEntity,
	apperr.KindTooManyRequests:     http.StatusTooManyRequests,
	apperr.KindUpstreamUnavailable: http.StatusBadGateway,
}

// respondError maps an error kind to a status and a caller-facing
// reason. Every rejected transition gets a specific message, never a
// blanket 500.
func (h HandlerSet) respondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status, ok := kindStatus[kind]
	if !ok {
		h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("unhandled error")
		status = http.StatusInternalServerError
	}

	c.JSON(status, gin.H{
		"error":  string(kind),
		"reason": apperr.Message(err),
	})
}

func currentAccount(c *gin.Context) (models.Account, bool) {
	accountVal, exists := c.Get("current_account")
	if !exists {
		return models.Account{}, false
	}
	account, ok := accountVal.(models.Account)
	return account, ok
}
