package handlers

import (
	"net/http"

	"gogserver/internal/game"

	"github.com/gin-gonic/gin"
)

// SubscriberCounter reports how many feed clients are connected.
type SubscriberCounter interface {
	ClientCount() int
}

// Home exposes the ledger's fixed parameters and counters. Side-effect free.
func Home(c *gin.Context, ledger *game.Ledger, subscribers SubscriberCounter) {
	c.JSON(http.StatusOK, gin.H{
		"roomCount":             ledger.RoomCount(),
		"decisionWindowSeconds": int64(ledger.DecisionWindow().Seconds()),
		"admin":                 ledger.Admin(),
		"asset":                 ledger.Asset(),
		"subscribers":           subscribers.ClientCount(),
	})
}
