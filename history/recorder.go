// Package history keeps a durable per-room record in postgres, built purely
// from ledger events so it never has to read the ledger back.
package history

import (
	"context"

	"gogserver/internal/game"
	"gogserver/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const queueSize = 256

// Recorder is a game.Sink that applies events to room_records rows on its
// own goroutine. Publish only enqueues, so the ledger is never blocked on
// the database.
type Recorder struct {
	db     *gorm.DB
	queue  chan game.Event
	logger *zap.Logger
}

func NewRecorder(db *gorm.DB, logger *zap.Logger) *Recorder {
	return &Recorder{
		db:     db,
		queue:  make(chan game.Event, queueSize),
		logger: logger,
	}
}

// Publish implements game.Sink.
func (rec *Recorder) Publish(e game.Event) {
	select {
	case rec.queue <- e:
	default:
		rec.logger.Error("history queue full, dropping event",
			zap.String("type", e.Type), zap.Uint64("roomID", e.RoomID))
	}
}

// Run consumes events until the context is cancelled. Call in a goroutine.
func (rec *Recorder) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-rec.queue:
			if err := rec.apply(e); err != nil {
				rec.logger.Error("failed to record event",
					zap.String("type", e.Type), zap.Uint64("roomID", e.RoomID), zap.Error(err))
			}
		}
	}
}

func (rec *Recorder) apply(e game.Event) error {
	switch e.Type {
	case game.EventRoomCreated:
		record := models.RoomRecord{
			RoomID:    e.RoomID,
			Player1:   e.Player,
			Stake:     e.Stake,
			Decision1: game.DecisionUnset.String(),
			Decision2: game.DecisionUnset.String(),
			Status:    e.Status,
		}
		return rec.db.Where("room_id = ?", e.RoomID).FirstOrCreate(&record).Error

	case game.EventPlayerJoined:
		return rec.update(e.RoomID, map[string]interface{}{
			"player2":    e.Player,
			"status":     e.Status,
			"start_time": e.Time,
		})

	case game.EventDecisionMade:
		var record models.RoomRecord
		if err := rec.db.Where("room_id = ?", e.RoomID).First(&record).Error; err != nil {
			return err
		}
		column := "decision2"
		if e.Player == record.Player1 {
			column = "decision1"
		}
		return rec.update(e.RoomID, map[string]interface{}{column: e.Decision})

	case game.EventRoomResolved:
		return rec.update(e.RoomID, map[string]interface{}{
			"status":      e.Status,
			"message":     e.Message,
			"resolved_at": e.Time,
		})

	default:
		// fundsWithdrawn has no per-room record.
		return nil
	}
}

func (rec *Recorder) update(roomID uint64, fields map[string]interface{}) error {
	return rec.db.Model(&models.RoomRecord{}).
		Where("room_id = ?", roomID).
		Updates(fields).Error
}
