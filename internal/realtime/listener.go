package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

const reconnectDelay = time.Second

// Listener owns one dedicated Postgres connection, LISTENs on the notify
// channel and publishes every payload to the hub. It reconnects with a
// small delay for as long as the context lives.
type Listener struct {
	connString string
	hub        *Hub
}

func NewListener(connString string, hub *Hub) *Listener {
	return &Listener{connString: connString, hub: hub}
}

func (l *Listener) Run(ctx context.Context) {
	for ctx.Err() == nil {
		if err := l.listen(ctx); err != nil && ctx.Err() == nil {
			log.Warn().Err(err).Msg("realtime listener disconnected, reconnecting")
		}

		select {
		case <-time.After(reconnectDelay):
		case <-ctx.Done():
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, l.connString)
	if err != nil {
		return err
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+NotifyChannel); err != nil {
		return err
	}

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}

		var ev Event
		if err := json.Unmarshal([]byte(notification.Payload), &ev); err != nil {
			log.Error().Err(err).Str("payload", notification.Payload).Msg("malformed change notification")
			continue
		}

		l.hub.Publish(ev)
	}
}
