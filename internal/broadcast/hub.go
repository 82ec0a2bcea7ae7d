// Package broadcast implements the in-process event fan-out hub.  The
// lifecycle coordinator and table registry publish domain events here;
// transports (the SSE stream, the queue mirror) subscribe.  Delivery is
// at-least-once: a subscriber joined to several matching rooms receives
// the event once per membership and must deduplicate by event ID.
package broadcast

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
)

// Event types mirror the names the storefront and kitchen console listen
// for.
const (
	TypeOrderCreated = "order:new"
	TypeOrderStatus  = "order:status_updated"
	TypeTableStatus  = "table:status_updated"
)

// RoomGlobal is the unscoped room; kitchen displays with no branch filter
// subscribe here.
const RoomGlobal = "global"

// BranchRoom names the subscription room for a branch.
func BranchRoom(branchID uint64) string { return fmt.Sprintf("branch:%d", branchID) }

// CustomerRoom names the subscription room for a customer's own sessions.
func CustomerRoom(userID uint64) string { return fmt.Sprintf("customer:%d", userID) }

// Event is the unit of fan-out.  BranchID and UserID select the scoped
// rooms the event is delivered to in addition to the global room; zero
// means "no such scope".  Payload is the wire shape consumers serialize.
type Event struct {
	ID       string      `json:"id"`
	Type     string      `json:"type"`
	BranchID uint64      `json:"-"`
	UserID   uint64      `json:"-"`
	Payload  interface{} `json:"payload"`
}

type subscriber struct {
	ch chan Event
}

// Hub maintains room membership and fans events out to subscribers.
// Publishing never blocks: a subscriber whose buffer is full misses the
// event rather than stalling the order flow.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*subscriber]struct{}
}

// New returns an empty hub.
func New() *Hub {
	return &Hub{rooms: make(map[string]map[*subscriber]struct{})}
}

// Subscribe joins the given rooms and returns the delivery channel plus a
// cancel function.  The channel is buffered; it is closed by cancel.
func (h *Hub) Subscribe(buffer int, rooms ...string) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 16
	}
	sub := &subscriber{ch: make(chan Event, buffer)}
	h.mu.Lock()
	for _, room := range rooms {
		set, ok := h.rooms[room]
		if !ok {
			set = make(map[*subscriber]struct{})
			h.rooms[room] = set
		}
		set[sub] = struct{}{}
	}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			for _, room := range rooms {
				if set, ok := h.rooms[room]; ok {
					delete(set, sub)
					if len(set) == 0 {
						delete(h.rooms, room)
					}
				}
			}
			h.mu.Unlock()
			close(sub.ch)
		})
	}
	return sub.ch, cancel
}

// Publish assigns the event an ID when missing and delivers it to the
// global room plus whichever scoped rooms apply.  Identical payloads go to
// every room so consumers can deduplicate by ID or order ID.
func (h *Hub) Publish(ev Event) Event {
	if ev.ID == "" {
		ev.ID = newEventID()
	}
	rooms := []string{RoomGlobal}
	if ev.BranchID != 0 {
		rooms = append(rooms, BranchRoom(ev.BranchID))
	}
	if ev.UserID != 0 {
		rooms = append(rooms, CustomerRoom(ev.UserID))
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, room := range rooms {
		for sub := range h.rooms[room] {
			select {
			case sub.ch <- ev:
			default:
				// slow subscriber; drop rather than block the publisher
			}
		}
	}
	return ev
}

// newEventID returns a 16-byte random hex string.
func newEventID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "evt-unknown"
	}
	return hex.EncodeToString(b)
}

// OrderCreatedPayload is the payload for TypeOrderCreated events.
type OrderCreatedPayload struct {
	Order interface{} `json:"order"`
}

// OrderStatusPayload is the payload for TypeOrderStatus events.
type OrderStatusPayload struct {
	OrderID uint64 `json:"order_id"`
	Status  string `json:"status"`
}

// TableStatusPayload is the payload for TypeTableStatus events.
type TableStatusPayload struct {
	TableID  uint64 `json:"table_id"`
	BranchID uint64 `json:"branch_id"`
	Status   string `json:"status"`
}
