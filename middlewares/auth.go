package middlewares

import (
	"fmt"
	"net/http"
	"strings"

	"gogserver/auth"
	"gogserver/models"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ContextUserID is the gin context key the authenticated identity is stored
// under. Handlers read it with c.GetString.
const ContextUserID = "UserID"

// IdentityFromToken parses a bearer token and returns the caller's user ID.
func IdentityFromToken(tokenString string) (string, error) {
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")
	if tokenString == "" {
		return "", fmt.Errorf("token is required")
	}

	claims := &models.MyClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return auth.JwtKey, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.UserID == "" {
		return "", fmt.Errorf("invalid token")
	}
	return claims.UserID, nil
}

// AuthMiddleware rejects requests without a valid token and puts the caller
// identity into the request context.
func AuthMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := IdentityFromToken(c.GetHeader("Authorization"))
		if err != nil {
			logger.Warn("authentication failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Set(ContextUserID, userID)
		c.Next()
	}
}
