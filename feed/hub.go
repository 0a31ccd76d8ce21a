// Package feed pushes ledger events to websocket subscribers, with
// redis-backed session ids so a dropped client can resume.
package feed

import (
	"encoding/json"
	"sync"

	"gogserver/internal/game"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const sendBuffer = 16

// Client is one connected websocket subscriber.
type Client struct {
	Conn      *websocket.Conn
	UserID    string
	SessionID string
	send      chan []byte
}

// Hub tracks active clients and fans ledger events out to them.
// Publish never blocks: the ledger calls it with its lock held, so a slow
// client just misses events.
type Hub struct {
	mu      sync.Mutex
	clients map[*Client]bool
	logger  *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
		logger:  logger,
	}
}

// Publish implements game.Sink.
func (h *Hub) Publish(e game.Event) {
	messageJSON, err := json.Marshal(e)
	if err != nil {
		h.logger.Error("failed to marshal event", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		select {
		case client.send <- messageJSON:
		default:
			h.logger.Warn("dropping event for slow client", zap.String("userID", client.UserID))
		}
	}
}

func (h *Hub) register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = true
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[client] {
		delete(h.clients, client)
		close(client.send)
	}
}

// ClientCount returns the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
