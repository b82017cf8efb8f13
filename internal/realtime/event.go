// Package realtime re-delivers row changes from the persistence layer to
// connected clients, scoped per room. Postgres triggers feed a NOTIFY
// channel; one listener connection fans the payloads out through a hub.
//
// Delivery is at-least-once: for one row an insert always precedes its
// updates, nothing is guaranteed across rows or tables, and a client that
// falls behind or reconnects must re-fetch a snapshot before resuming.
package realtime

import "encoding/json"

// NotifyChannel is the Postgres NOTIFY channel the schema triggers emit on.
const NotifyChannel = "room_changes"

type Op string

const (
	OpInsert Op = "INSERT"
	OpUpdate Op = "UPDATE"
)

// Event mirrors the JSON payload built by the notify_room_change trigger.
type Event struct {
	Table  string          `json:"table"`
	Op     Op              `json:"op"`
	RoomId string          `json:"room_id"`
	Row    json.RawMessage `json:"row"`
}
