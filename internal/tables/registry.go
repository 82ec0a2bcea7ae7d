// Package tables owns per-table occupancy state.  Every successful status
// mutation emits a table:status_updated event scoped to the table's
// branch, so staff consoles see occupancy change without polling.
package tables

import (
	"context"

	"github.com/lexuanthang19/food-deli-deploy/internal/broadcast"
	"github.com/lexuanthang19/food-deli-deploy/internal/model"
	"github.com/lexuanthang19/food-deli-deploy/internal/repository"
)

// Store is the persistence surface the registry needs.  Satisfied by
// *repository.TableRepo; tests substitute an in-memory fake.
type Store interface {
	GetByID(ctx context.Context, id uint64) (*model.Table, error)
	UpdateStatus(ctx context.Context, id uint64, status model.TableStatus) (*model.Table, error)
}

// Publisher is the slice of the broadcast hub the registry uses.
type Publisher interface {
	Publish(ev broadcast.Event) broadcast.Event
}

// Registry mediates table occupancy changes.
type Registry struct {
	store Store
	hub   Publisher
}

// NewRegistry returns a registry over the given store and hub.
func NewRegistry(store Store, hub Publisher) *Registry {
	return &Registry{store: store, hub: hub}
}

// GetByID loads a table, returning repository.ErrNotFound when absent.
func (r *Registry) GetByID(ctx context.Context, id uint64) (*model.Table, error) {
	return r.store.GetByID(ctx, id)
}

// Occupy unconditionally marks a table Occupied.  It is invoked as a side
// effect of a dine-in order being accepted: the diner already sat down,
// so placing an order always wins regardless of the previous state.
// Returns repository.ErrNotFound when the table does not exist.
func (r *Registry) Occupy(ctx context.Context, tableID uint64) (*model.Table, error) {
	return r.setStatus(ctx, tableID, model.TableOccupied)
}

// SetStatus is the staff-facing override, e.g. freeing a table after the
// bill is settled.  Any of the three occupancy states is accepted.
func (r *Registry) SetStatus(ctx context.Context, tableID uint64, status model.TableStatus) (*model.Table, error) {
	if !model.ValidTableStatus(status) {
		return nil, repository.ErrConflict
	}
	return r.setStatus(ctx, tableID, status)
}

func (r *Registry) setStatus(ctx context.Context, tableID uint64, status model.TableStatus) (*model.Table, error) {
	if _, err := r.store.GetByID(ctx, tableID); err != nil {
		return nil, err
	}
	t, err := r.store.UpdateStatus(ctx, tableID, status)
	if err != nil {
		return nil, err
	}
	r.hub.Publish(broadcast.Event{
		Type:     broadcast.TypeTableStatus,
		BranchID: t.BranchID,
		Payload: broadcast.TableStatusPayload{
			TableID:  t.ID,
			BranchID: t.BranchID,
			Status:   string(t.Status),
		},
	})
	return t, nil
}
