package middlewares

import (
	"time"

	"gogserver/auth"
	"gogserver/models"

	jwt "github.com/dgrijalva/jwt-go"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const tokenLifetime = 72 * time.Hour

// GenerateToken issues a signed JWT for the given user and records it in the
// session_tokens table so it can be checked and revoked server-side.
func GenerateToken(db *gorm.DB, userID string, logger *zap.Logger) (string, error) {
	expiresAt := time.Now().Add(tokenLifetime)

	claims := &models.MyClaims{
		UserID: userID,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: expiresAt.Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(auth.JwtKey)
	if err != nil {
		logger.Error("token signing failed", zap.Error(err))
		return "", err
	}

	session := models.SessionToken{
		UserID:    userID,
		Token:     tokenString,
		ExpiresAt: expiresAt,
	}
	if err := db.Create(&session).Error; err != nil {
		logger.Error("failed to store session token", zap.Error(err))
		return "", err
	}

	return tokenString, nil
}
