package handlers

import (
	"errors"
	"net/http"

	"gogserver/bank"
	"gogserver/middlewares"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// FundingBank is the slice of the bank the HTTP surface needs beyond the
// ledger's Pull/Push: granting allowances, the dev faucet and balance reads.
type FundingBank interface {
	Approve(identity string, amount int64) error
	Mint(identity string, amount int64) error
	Balance(identity string) (int64, error)
}

// AmountRequest is the body of the approve and faucet endpoints.
type AmountRequest struct {
	Amount int64 `json:"amount" binding:"required"`
}

// Approve lets the caller pre-authorize stake escrow up to the given amount.
func Approve(c *gin.Context, b FundingBank, logger *zap.Logger) {
	var request AmountRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if request.Amount < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Amount must not be negative"})
		return
	}

	caller := c.GetString(middlewares.ContextUserID)
	if err := b.Approve(caller, request.Amount); err != nil {
		logger.Error("approve failed", zap.String("caller", caller), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Approve failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"approved": request.Amount})
}

// Faucet mints play funds to the caller. Dev convenience, same spirit as the
// mock token the contract was tested against.
func Faucet(c *gin.Context, b FundingBank, logger *zap.Logger) {
	var request AmountRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if request.Amount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Amount must be positive"})
		return
	}

	caller := c.GetString(middlewares.ContextUserID)
	if err := b.Mint(caller, request.Amount); err != nil {
		logger.Error("faucet mint failed", zap.String("caller", caller), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Mint failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"minted": request.Amount})
}

// Balance returns the caller's free balance.
func Balance(c *gin.Context, b FundingBank, logger *zap.Logger) {
	caller := c.GetString(middlewares.ContextUserID)

	balance, err := b.Balance(caller)
	if err != nil {
		if errors.Is(err, bank.ErrUnknownAccount) {
			c.JSON(http.StatusOK, gin.H{"balance": 0})
			return
		}
		logger.Error("balance lookup failed", zap.String("caller", caller), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Balance lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": balance})
}
