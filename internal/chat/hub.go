package chat

import (
	"context"
	"encoding/json"
	"sync"

	"coffeespot/internal/telemetry"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Hub tracks live connections per user. Each user id is a private channel; a
// user may hold several connections at once.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
	logger  zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		logger:  logger.With().Str("component", "hub").Logger(),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	set, ok := h.clients[c.userID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.userID] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()
	telemetry.ConnectedClients.Inc()
}

// Unregister removes c and closes its send channel. Calling it twice is safe.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	set, ok := h.clients[c.userID]
	if ok {
		if _, ok = set[c]; ok {
			delete(set, c)
			if len(set) == 0 {
				delete(h.clients, c.userID)
			}
			close(c.send)
		}
	}
	h.mu.Unlock()
	if ok {
		telemetry.ConnectedClients.Dec()
	}
}

// CloseAll sends every connection a going-away close frame and unregisters it.
// It waits for the frames to be written until ctx is done and returns how many
// connections were closed.
func (h *Hub) CloseAll(ctx context.Context) int {
	h.mu.Lock()
	var closed []*Client
	for userID, set := range h.clients {
		for c := range set {
			c.closeCode = websocket.CloseGoingAway
			close(c.send)
			closed = append(closed, c)
		}
		delete(h.clients, userID)
	}
	h.mu.Unlock()
	telemetry.ConnectedClients.Sub(float64(len(closed)))

	for _, c := range closed {
		if c.done == nil {
			continue
		}
		select {
		case <-c.done:
		case <-ctx.Done():
			h.logger.Warn().Int("connections", len(closed)).Msg("close frames not flushed before deadline")
			return len(closed)
		}
	}
	return len(closed)
}

// Push sends a frame to every connection of userID without blocking. A
// connection whose buffer is full misses the frame.
func (h *Hub) Push(userID, event string, data any) {
	payload, err := json.Marshal(Frame{Event: event, Data: data})
	if err != nil {
		h.logger.Error().Err(err).Str("event", event).Msg("encode push")
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[userID] {
		select {
		case c.send <- payload:
		default:
			telemetry.PushesDropped.Inc()
			h.logger.Warn().Str("user_id", userID).Str("event", event).Msg("push dropped")
		}
	}
}

// reply queues payload for c alone. It reports false when c is no longer
// registered or its buffer is full.
func (h *Hub) reply(c *Client, payload []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c.userID][c]; !ok {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// Connections reports how many live connections userID has.
func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}
