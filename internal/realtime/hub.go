package realtime

import "sync"

// subscriptionBuffer bounds how far one client may lag before the hub cuts
// it loose. A cut client reconnects and re-snapshots, which is the recovery
// path for missed events anyway.
const subscriptionBuffer = 64

type Subscription struct {
	// C is closed when the subscription ends, either by Unsubscribe or
	// because the subscriber was too slow.
	C      chan Event
	roomId string
}

type Hub struct {
	mu    sync.Mutex
	rooms map[string]map[*Subscription]struct{}
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*Subscription]struct{})}
}

func (h *Hub) Subscribe(roomId string) *Subscription {
	sub := &Subscription{
		C:      make(chan Event, subscriptionBuffer),
		roomId: roomId,
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.rooms[roomId]
	if !ok {
		subs = make(map[*Subscription]struct{})
		h.rooms[roomId] = subs
	}
	subs[sub] = struct{}{}
	return sub
}

func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.drop(sub)
}

// Publish delivers ev to every subscriber of its room. It never blocks on a
// slow subscriber; a full buffer drops the subscription instead.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.rooms[ev.RoomId] {
		select {
		case sub.C <- ev:
		default:
			h.drop(sub)
		}
	}
}

// drop must be called with h.mu held. Closing under the lock keeps a
// concurrent Publish from sending on a closed channel.
func (h *Hub) drop(sub *Subscription) {
	subs, ok := h.rooms[sub.roomId]
	if !ok {
		return
	}
	if _, ok := subs[sub]; !ok {
		return
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(h.rooms, sub.roomId)
	}
	close(sub.C)
}
