// Package queue defines message payloads exchanged over the message
// broker.  Broker delivery is the durable mirror of the in-process hub:
// consumers that must not miss an order (the kitchen log) read from here
// instead of holding a live connection.
package queue

// OrderEvent is published for every order or table change.  EventID is
// carried over from the hub so downstream consumers can deduplicate
// redeliveries.
type OrderEvent struct {
	EventID     string `json:"event_id"`
	Type        string `json:"type"`
	OrderID     uint64 `json:"order_id,omitempty"`
	TableID     uint64 `json:"table_id,omitempty"`
	BranchID    uint64 `json:"branch_id,omitempty"`
	UserID      uint64 `json:"user_id,omitempty"`
	Status      string `json:"status,omitempty"`
	AmountCents int64  `json:"amount_cents,omitempty"`
	OccurredAt  string `json:"occurred_at"`
}
