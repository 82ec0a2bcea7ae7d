package model

import "time"

// TableStatus is the occupancy state of a physical table.
type TableStatus string

const (
	TableAvailable TableStatus = "Available"
	TableOccupied  TableStatus = "Occupied"
	TableReserved  TableStatus = "Reserved"
)

// ValidTableStatus reports whether s is one of the three occupancy states.
func ValidTableStatus(s TableStatus) bool {
	return s == TableAvailable || s == TableOccupied || s == TableReserved
}

// Table is a physical table inside a branch.  Label is unique within its
// branch.  QRToken identifies the table in the walk-up/QR ordering flow.
type Table struct {
	ID        uint64      `json:"id"`
	BranchID  uint64      `json:"branch_id"` // owning branch, exactly one
	Label     string      `json:"label"`     // human label, e.g. "A3"
	Capacity  int         `json:"capacity"`  // seating capacity
	Status    TableStatus `json:"status"`
	Floor     int         `json:"floor"`
	QRToken   string      `json:"qr_token,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}
