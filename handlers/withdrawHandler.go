package handlers

import (
	"net/http"

	"gogserver/internal/game"
	"gogserver/middlewares"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Withdraw pays the forfeited custody balance out to the administrator.
// Any other caller gets a 403; stakes of open or active rooms are not part
// of the withdrawable balance to begin with.
func Withdraw(c *gin.Context, ledger *game.Ledger, logger *zap.Logger) {
	caller := c.GetString(middlewares.ContextUserID)

	amount, err := ledger.WithdrawContractFunds(caller)
	if err != nil {
		logger.Warn("withdrawal rejected", zap.String("caller", caller), zap.Error(err))
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"withdrawn": amount})
}
