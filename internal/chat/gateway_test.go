package chat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"coffeespot/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateway_RoundTripAndPush(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	gw := NewGateway(hub, NewRouter(&stubService{session: session(), created: true}, zerolog.Nop()), []string{"*"}, zerolog.Nop())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = gw.Serve(w, r, alice)
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]any{
		"event":     "startChat",
		"requestId": "abc",
		"data":      map[string]string{"userId": "u1"},
	}))
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var reply struct {
		Event     string   `json:"event"`
		RequestID string   `json:"requestId"`
		Data      Envelope `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, EventSuccess, reply.Event)
	assert.Equal(t, "abc", reply.RequestID)
	assert.True(t, reply.Data.Success)

	require.Eventually(t, func() bool { return hub.Connections(alice.ID) == 1 }, time.Second, 10*time.Millisecond)
	hub.Push(alice.ID, "chatClosed", map[string]string{"chatId": "c1"})

	var push struct {
		Event string            `json:"event"`
		Data  map[string]string `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&push))
	assert.Equal(t, "chatClosed", push.Event)
	assert.Equal(t, "c1", push.Data["chatId"])

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Connections(alice.ID) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestGateway_RejectsForeignOrigin(t *testing.T) {
	gw := NewGateway(NewHub(zerolog.Nop()), NewRouter(&stubService{session: session()}, zerolog.Nop()), []string{"https://coffeespot.app"}, zerolog.Nop())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = gw.Serve(w, r, domain.Identity{ID: "u1", Role: domain.RoleCustomer})
	}))
	defer srv.Close()

	header := http.Header{"Origin": []string{"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestGateway_CloseAllSendsGoingAway(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	gw := NewGateway(hub, NewRouter(&stubService{session: session()}, zerolog.Nop()), []string{"*"}, zerolog.Nop())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = gw.Serve(w, r, alice)
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Connections(alice.ID) == 1 }, time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.Equal(t, 1, hub.CloseAll(ctx))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
	assert.Zero(t, hub.Connections(alice.ID))
}
