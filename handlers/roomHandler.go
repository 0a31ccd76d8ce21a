package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"gogserver/internal/game"
	"gogserver/middlewares"
	"gogserver/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreateRoomRequest is the body of POST /rooms.
type CreateRoomRequest struct {
	Stake int64 `json:"stake" binding:"required"`
}

// DecisionRequest is the body of PUT /rooms/:id/decision.
type DecisionRequest struct {
	Decision string `json:"decision" binding:"required"`
}

// CreateRoom escrows the caller's stake and opens a new room.
func CreateRoom(c *gin.Context, ledger *game.Ledger, logger *zap.Logger) {
	var request CreateRoomRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		logger.Error("create room request bind error", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	caller := c.GetString(middlewares.ContextUserID)
	id, err := ledger.CreateRoom(caller, request.Stake)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"roomId": id})
}

// JoinRoom escrows the caller's stake into an open room.
func JoinRoom(c *gin.Context, ledger *game.Ledger, logger *zap.Logger) {
	id, ok := roomIDParam(c)
	if !ok {
		return
	}

	caller := c.GetString(middlewares.ContextUserID)
	if err := ledger.JoinRoom(caller, id); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"roomId": id, "status": game.StatusActive.String()})
}

// MakeDecision records the caller's split/steal choice.
func MakeDecision(c *gin.Context, ledger *game.Ledger, logger *zap.Logger) {
	id, ok := roomIDParam(c)
	if !ok {
		return
	}

	var request DecisionRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		logger.Error("decision request bind error", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	decision, err := game.ParseDecision(request.Decision)
	if err != nil {
		abortWithError(c, err)
		return
	}

	caller := c.GetString(middlewares.ContextUserID)
	if err := ledger.MakeDecision(caller, id, decision); err != nil {
		abortWithError(c, err)
		return
	}

	room, err := ledger.Room(id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"roomId":  id,
		"status":  room.Status.String(),
		"message": room.Message,
	})
}

// ForceResolve locks an expired room. Any authenticated caller may invoke it.
func ForceResolve(c *gin.Context, ledger *game.Ledger, logger *zap.Logger) {
	id, ok := roomIDParam(c)
	if !ok {
		return
	}

	if err := ledger.ForceResolve(id); err != nil {
		abortWithError(c, err)
		return
	}

	room, err := ledger.Room(id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"roomId":  id,
		"status":  room.Status.String(),
		"message": room.Message,
	})
}

// RoomInfo returns a room snapshot, falling back to the history table for
// rooms the ledger has already pruned.
func RoomInfo(c *gin.Context, ledger *game.Ledger, db *gorm.DB, logger *zap.Logger) {
	id, ok := roomIDParam(c)
	if !ok {
		return
	}

	room, err := ledger.Room(id)
	if err == nil {
		c.JSON(http.StatusOK, roomJSON(room))
		return
	}
	if !errors.Is(err, game.ErrRoomNotFound) {
		abortWithError(c, err)
		return
	}

	var record models.RoomRecord
	if err := db.Where("room_id = ?", id).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			abortWithError(c, game.ErrRoomNotFound)
			return
		}
		logger.Error("room history lookup failed", zap.Uint64("roomID", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read room history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"roomId":    record.RoomID,
		"player1":   record.Player1,
		"player2":   record.Player2,
		"stake":     record.Stake,
		"decision1": record.Decision1,
		"decision2": record.Decision2,
		"status":    record.Status,
		"message":   record.Message,
		"startTime": record.StartTime,
	})
}

func roomIDParam(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid room id"})
		return 0, false
	}
	return id, true
}

func roomJSON(room game.Room) gin.H {
	h := gin.H{
		"roomId":    room.ID,
		"player1":   room.Player1,
		"player2":   room.Player2,
		"stake":     room.Stake,
		"decision1": room.Decision1.String(),
		"decision2": room.Decision2.String(),
		"status":    room.Status.String(),
		"message":   room.Message,
	}
	if !room.StartTime.IsZero() {
		h["startTime"] = room.StartTime.Unix()
	}
	return h
}
