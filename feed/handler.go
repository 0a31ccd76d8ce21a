package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"gogserver/middlewares"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// HandleConnections upgrades an authenticated request to a websocket event
// subscription. Browsers cannot set headers on websocket dials, so the token
// and session id are also accepted as query parameters.
func HandleConnections(ctx context.Context, w http.ResponseWriter, r *http.Request, rdb *redis.Client, hub *Hub, upgrader websocket.Upgrader, logger *zap.Logger) {
	tokenString := r.Header.Get("Authorization")
	if tokenString == "" {
		tokenString = r.URL.Query().Get("token")
	}

	userID, err := middlewares.IdentityFromToken(tokenString)
	if err != nil {
		logger.Error("Failed to validate token", zap.Error(err))
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Error upgrading WebSocket", zap.Error(err))
		return
	}

	client := &Client{Conn: conn, UserID: userID, send: make(chan []byte, sendBuffer)}

	// Resume an earlier session if the client presents one, then rotate it.
	oldSessionID := r.Header.Get("SessionID")
	if oldSessionID == "" {
		oldSessionID = r.URL.Query().Get("sessionId")
	}
	if resumed := ValidateSessionID(ctx, rdb, oldSessionID, logger); resumed != "" {
		client.UserID = resumed
		DropSessionID(ctx, rdb, oldSessionID)
	}

	sessionID, err := GenerateAndStoreSessionID(ctx, rdb, client.UserID, logger)
	if err == nil {
		client.SessionID = sessionID
		hello, _ := json.Marshal(map[string]string{
			"type":      "session",
			"sessionID": sessionID,
		})
		conn.WriteMessage(websocket.TextMessage, hello)
	}

	hub.register(client)
	logger.Info("feed subscriber connected", zap.String("userID", client.UserID))

	go writePump(hub, client, logger)
	go readPump(hub, client, logger)
}

func writePump(hub *Hub, client *Client, logger *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.send:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Warn("feed write failed", zap.String("userID", client.UserID), zap.Error(err))
				return
			}
		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func readPump(hub *Hub, client *Client, logger *zap.Logger) {
	defer func() {
		hub.unregister(client)
		client.Conn.Close()
		logger.Info("feed subscriber disconnected", zap.String("userID", client.UserID))
	}()

	client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// The feed is one-way; incoming frames are drained until the peer leaves.
	for {
		if _, _, err := client.Conn.ReadMessage(); err != nil {
			return
		}
	}
}
