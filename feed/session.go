package feed

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const sessionTTL = 24 * time.Hour

// GenerateAndStoreSessionID creates a resumable session for a subscriber and
// stores it in Redis under a fresh uuid.
func GenerateAndStoreSessionID(ctx context.Context, rdb *redis.Client, userID string, logger *zap.Logger) (string, error) {
	sessionID := uuid.New().String()

	sessionInfo := map[string]interface{}{
		"userID": userID,
	}
	sessionInfoJSON, err := json.Marshal(sessionInfo)
	if err != nil {
		logger.Error("Error encoding session info", zap.Error(err))
		return "", err
	}

	if err := rdb.Set(ctx, "session:"+sessionID, sessionInfoJSON, sessionTTL).Err(); err != nil {
		logger.Error("Error storing session info in Redis", zap.Error(err))
		return "", err
	}

	return sessionID, nil
}

// ValidateSessionID looks a session up in Redis and returns the user it
// belongs to. Returns an empty string when the session is unknown or stale.
func ValidateSessionID(ctx context.Context, rdb *redis.Client, sessionID string, logger *zap.Logger) string {
	if sessionID == "" {
		return ""
	}

	sessionInfoJSON, err := rdb.Get(ctx, "session:"+sessionID).Result()
	if err != nil {
		logger.Warn("Failed to retrieve session info", zap.Error(err))
		return ""
	}

	var sessionInfo map[string]interface{}
	if err := json.Unmarshal([]byte(sessionInfoJSON), &sessionInfo); err != nil {
		logger.Error("Failed to decode session info", zap.Error(err))
		return ""
	}

	userID, ok := sessionInfo["userID"].(string)
	if !ok {
		logger.Error("Invalid session info: missing userID")
		return ""
	}
	return userID
}

// DropSessionID removes a session, used when a client resumes under a new one.
func DropSessionID(ctx context.Context, rdb *redis.Client, sessionID string) {
	if sessionID != "" {
		rdb.Del(ctx, "session:"+sessionID)
	}
}
