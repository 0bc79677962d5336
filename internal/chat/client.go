package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"coffeespot/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 << 10
	sendBuffer     = 64
)

// Client is one WebSocket connection bound to an authenticated identity.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID string
	caller domain.Identity
	// closeCode is written before send is closed and read by the write pump after.
	closeCode int
	// done is closed when the write pump returns.
	done chan struct{}
}

// Gateway upgrades authenticated requests and runs their connections.
type Gateway struct {
	hub      *Hub
	router   *Router
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

// NewGateway returns a Gateway accepting the given origins. "*" accepts any
// origin; requests without an Origin header are always accepted.
func NewGateway(hub *Hub, router *Router, allowedOrigins []string, logger zerolog.Logger) *Gateway {
	g := &Gateway{
		hub:    hub,
		router: router,
		logger: logger.With().Str("component", "ws").Logger(),
	}
	g.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			return originAllowed(r.Header.Get("Origin"), allowedOrigins)
		},
	}
	return g
}

func originAllowed(origin string, allowed []string) bool {
	if origin == "" {
		return true
	}
	for _, a := range allowed {
		if a == "*" || strings.EqualFold(a, origin) {
			return true
		}
	}
	return false
}

// Serve upgrades the request for caller and blocks until the connection closes.
func (g *Gateway) Serve(w http.ResponseWriter, r *http.Request, caller domain.Identity) error {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &Client{
		hub:    g.hub,
		conn:   conn,
		send:      make(chan []byte, sendBuffer),
		userID:    caller.ID,
		caller:    caller,
		closeCode: websocket.CloseNormalClosure,
		done:      make(chan struct{}),
	}
	g.hub.Register(c)
	g.logger.Info().Str("user_id", caller.ID).Str("role", string(caller.Role)).Msg("connected")

	go c.writePump(g.logger)
	c.readPump(r.Context(), g.router, g.logger)
	g.logger.Info().Str("user_id", caller.ID).Msg("disconnected")
	return nil
}

// readPump handles inbound frames until the peer goes away. Replies go through
// the send buffer so writes stay on the write pump.
func (c *Client) readPump(ctx context.Context, router *Router, logger zerolog.Logger) {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug().Err(err).Str("user_id", c.userID).Msg("read")
			}
			return
		}
		reply := router.Handle(ctx, c.caller, raw)
		payload, err := json.Marshal(reply)
		if err != nil {
			logger.Error().Err(err).Str("event", reply.Event).Msg("encode reply")
			continue
		}
		if !c.hub.reply(c, payload) {
			logger.Warn().Str("user_id", c.userID).Msg("reply dropped")
		}
	}
}

func (c *Client) writePump(logger zerolog.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
		close(c.done)
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(c.closeCode, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Debug().Err(err).Str("user_id", c.userID).Msg("write")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
