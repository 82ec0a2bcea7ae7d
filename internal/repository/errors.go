// Package repository defines error values shared across repositories.
// Sentinel errors let handlers and the lifecycle coordinator distinguish
// failure cases without inspecting driver-specific errors: ErrNotFound
// maps to 404, ErrConflict to 409 (e.g. a duplicate table label within a
// branch), ErrForbidden to 403.
package repository

import "errors"

// ErrNotFound is returned when a referenced branch, table, order or user
// does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write collides with existing state, such
// as inserting a table whose label already exists in the same branch.
var ErrConflict = errors.New("conflict")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own.
var ErrForbidden = errors.New("forbidden")
