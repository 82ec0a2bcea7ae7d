package model

import "time"

// Roles recognised by the authorization layer.  Staff-only coordinator
// operations are gated on membership in the staff set.
const (
	RoleCustomer = "customer"
	RoleStaff    = "staff"
	RoleManager  = "manager"
	RoleAdmin    = "admin"
)

// StaffRole reports whether role may view and drive orders on the staff
// console (status overrides, order listing).
func StaffRole(role string) bool {
	return role == RoleStaff || role == RoleManager || role == RoleAdmin
}

// ManagerRole reports whether role may perform management actions such as
// adding tables, deactivating branches, or marking orders paid.
func ManagerRole(role string) bool {
	return role == RoleManager || role == RoleAdmin
}

// User is an account able to authenticate.  PasswordHash stores a bcrypt
// hash; the plaintext never leaves the auth handler.
type User struct {
	ID           uint64    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}
