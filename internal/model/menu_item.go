package model

import "time"

// MenuItem represents a dish that can be ordered.  The stock counter is
// meaningful only when TrackStock is true; untracked items can always be
// ordered.  Stock is mutated exclusively through the inventory ledger's
// reserve/release operations so that the counter never goes negative.
type MenuItem struct {
	ID         uint64    `json:"id"`          // primary key
	Name       string    `json:"name"`        // display name
	PriceCents int64     `json:"price_cents"` // unit price in cents
	TrackStock bool      `json:"track_stock"` // whether the stock counter is enforced
	Stock      int64     `json:"stock"`       // remaining units; ignored when TrackStock is false
	Active     bool      `json:"active"`      // soft-delete flag
	CreatedAt  time.Time `json:"created_at"`  // creation timestamp
}
