package realtime

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEventsServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	RegisterRoutes(engine, NewWSHandler(hub))
	server := httptest.NewServer(engine)
	t.Cleanup(server.Close)
	return server
}

func dialEvents(t *testing.T, server *httptest.Server, roomId string) *websocket.Conn {
	t.Helper()
	wsURL := strings.Replace(server.URL, "http", "ws", 1) + "/rooms/" + roomId + "/events"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// shrinkPingInterval speeds up the ping/deadline cycle for the duration of
// one test. Tests using it must not run in parallel.
func shrinkPingInterval(t *testing.T, d time.Duration) {
	t.Helper()
	old := pingInterval
	pingInterval = d
	t.Cleanup(func() { pingInterval = old })
}

func TestRoomEventsHandler_StreamsEvents(t *testing.T) {
	shrinkPingInterval(t, 50*time.Millisecond)

	hub := NewHub()
	server := newEventsServer(t, hub)
	conn := dialEvents(t, server, "R1")

	// The server subscribes asynchronously after the upgrade, so publish on
	// a ticker instead of once.
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-done:
				return
			case <-time.After(50 * time.Millisecond):
				hub.Publish(guessEvent("R1", "g1"))
			}
		}
	}()

	// Reading well past 2x the ping interval shows pongs keep renewing the
	// read deadline for a responsive client.
	start := time.Now()
	for range 8 {
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var ev Event
		require.NoError(t, conn.ReadJSON(&ev))
		assert.Equal(t, "guesses", ev.Table)
		assert.Equal(t, "R1", ev.RoomId)
	}
	assert.Greater(t, time.Since(start), 2*pingInterval)
}

func TestRoomEventsHandler_ClosesUnresponsivePeer(t *testing.T) {
	shrinkPingInterval(t, 50*time.Millisecond)

	hub := NewHub()
	server := newEventsServer(t, hub)
	conn := dialEvents(t, server, "R1")

	// Swallow pings without answering. The server must drop the connection
	// once its read deadline passes; a silent peer may never pong at all.
	conn.SetPingHandler(func(string) error { return nil })

	start := time.Now()
	conn.SetReadDeadline(start.Add(3 * time.Second))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second,
		"closed by the server, not by the client-side deadline")
}
