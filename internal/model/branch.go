package model

import "time"

// Branch is a restaurant location.  Branches are never hard-deleted;
// deactivation flips Active to false and the row remains a valid foreign
// key target for historical orders and tables.
type Branch struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}
