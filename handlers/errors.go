package handlers

import (
	"errors"
	"net/http"

	"gogserver/internal/game"

	"github.com/gin-gonic/gin"
)

// statusFor maps ledger errors onto stable HTTP statuses. Validation errors
// are 400s, state conflicts 409s, custody failures 402, everything the
// ledger does not know about is a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, game.ErrRoomNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrInvalidStake),
		errors.Is(err, game.ErrInvalidDecision),
		errors.Is(err, game.ErrSelfJoin),
		errors.Is(err, game.ErrNotAParticipant):
		return http.StatusBadRequest
	case errors.Is(err, game.ErrRoomNotOpen),
		errors.Is(err, game.ErrRoomNotActive),
		errors.Is(err, game.ErrDecisionAlreadyMade),
		errors.Is(err, game.ErrDecisionWindowExpired),
		errors.Is(err, game.ErrWindowNotYetExpired):
		return http.StatusConflict
	case errors.Is(err, game.ErrTransferFailed):
		return http.StatusPaymentRequired
	case errors.Is(err, game.ErrUnauthorized):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}
