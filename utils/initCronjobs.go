package utils

import (
	"time"

	"gogserver/internal/game"
	"gogserver/models"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const terminalRetention = 24 * time.Hour

// CronSweeper runs the periodic maintenance jobs. Forced resolution stays a
// permissionless ledger operation; the sweeper is just a caller that never
// forgets, not a scheduler inside the game core.
func CronSweeper(ledger *game.Ledger, db *gorm.DB, logger *zap.Logger) {
	c := cron.New()

	// Lock expired rooms and retry stuck payouts every minute.
	c.AddFunc("@every 1m", func() {
		for _, id := range ledger.ExpiredRooms() {
			if err := ledger.ForceResolve(id); err != nil {
				// A player or another sweep may have beaten us to it.
				logger.Warn("sweep force-resolve failed",
					zap.Uint64("roomID", id), zap.Error(err))
				continue
			}
			logger.Info("expired room locked by sweeper", zap.Uint64("roomID", id))
		}
		if paid := ledger.RetryOwed(); paid > 0 {
			logger.Info("owed payouts retried by sweeper", zap.Int64("paid", paid))
		}
	})

	// Drop long-terminal rooms from memory nightly; room_records stays the
	// durable read path for them.
	c.AddFunc("0 3 * * *", func() {
		if n := ledger.PruneTerminal(terminalRetention); n > 0 {
			logger.Info("pruned terminal rooms from memory", zap.Int("rooms", n))
		}
	})

	// Purge expired session tokens nightly.
	c.AddFunc("0 4 * * *", func() {
		result := db.Unscoped().
			Where("expires_at <= ?", time.Now()).
			Delete(&models.SessionToken{})
		if result.Error != nil {
			logger.Error("session token cleanup failed", zap.Error(result.Error))
		} else if result.RowsAffected > 0 {
			logger.Info("expired session tokens deleted",
				zap.Int64("tokens", result.RowsAffected))
		}
	})

	c.Start()
}
