package handlers

import (
	"net/http"

	"gogserver/middlewares"
	"gogserver/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	UserID   string `json:"userId" binding:"required"`
	Nickname string `json:"nickname"`
}

// Register creates the user on first sight and returns a session token.
// Identity is whatever opaque string the client registers under; the game
// core never interprets it.
func Register(c *gin.Context, db *gorm.DB, logger *zap.Logger) {
	var request RegisterRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		logger.Error("register request bind error", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := models.User{UserID: request.UserID, Nickname: request.Nickname}
	if err := db.Where("user_id = ?", request.UserID).FirstOrCreate(&user).Error; err != nil {
		logger.Error("failed to create user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	token, err := middlewares.GenerateToken(db, user.UserID, logger)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"userId": user.UserID,
		"token":  token,
	})
}
