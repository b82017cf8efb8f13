package realtime

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var (
	pingInterval  = 30 * time.Second
	writeDeadline = 20 * time.Second
)

type WSHandler struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

func NewWSHandler(hub *Hub) *WSHandler {
	return &WSHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origins are already filtered by the router's allow-list.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func RegisterRoutes(engine *gin.Engine, wh *WSHandler) {
	engine.GET("/rooms/:roomid/events", wh.RoomEventsHandler)
}

// RoomEventsHandler upgrades the connection and streams the room's change
// events until the client goes away or falls too far behind. The hub
// subscription is torn down on every exit path.
func (wh *WSHandler) RoomEventsHandler(ctx *gin.Context) {
	roomId := ctx.Param("roomid")

	conn, err := wh.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		log.Debug().Err(err).Str("room_id", roomId).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	// Armed before the first read so a peer that never answers a ping is
	// cut off; each pong pushes the deadline out again.
	conn.SetReadDeadline(time.Now().Add(2 * pingInterval))
	conn.SetPongHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(2 * pingInterval))
		return nil
	})

	sub := wh.hub.Subscribe(roomId)
	defer wh.hub.Unsubscribe(sub)

	// Reader only consumes control frames; its exit means the client hung up.
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	pingTicker := time.NewTicker(pingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case ev, ok := <-sub.C:
			if !ok {
				// Dropped by the hub for lagging; the client must
				// reconnect and re-fetch a snapshot.
				writeClose(conn, "resync-required")
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}

		case <-pingTicker.C:
			conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-clientGone:
			return
		}
	}
}

func writeClose(conn *websocket.Conn, reason string) {
	conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, reason))
}
