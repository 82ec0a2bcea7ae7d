package tables

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/lexuanthang19/food-deli-deploy/internal/broadcast"
	"github.com/lexuanthang19/food-deli-deploy/internal/model"
	"github.com/lexuanthang19/food-deli-deploy/internal/repository"
)

type memStore struct {
	mu     sync.Mutex
	tables map[uint64]*model.Table
}

func (s *memStore) GetByID(_ context.Context, id uint64) (*model.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *memStore) UpdateStatus(_ context.Context, id uint64, status model.TableStatus) (*model.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	t.Status = status
	cp := *t
	return &cp, nil
}

func newTestRegistry(status model.TableStatus) (*Registry, *broadcast.Hub) {
	store := &memStore{tables: map[uint64]*model.Table{
		5: {ID: 5, BranchID: 2, Label: "B1", Status: status},
	}}
	hub := broadcast.New()
	return NewRegistry(store, hub), hub
}

func TestOccupyAlwaysWins(t *testing.T) {
	for _, prev := range []model.TableStatus{model.TableAvailable, model.TableReserved, model.TableOccupied} {
		reg, _ := newTestRegistry(prev)
		tbl, err := reg.Occupy(context.Background(), 5)
		if err != nil {
			t.Fatalf("Occupy from %s: %v", prev, err)
		}
		if tbl.Status != model.TableOccupied {
			t.Fatalf("Occupy from %s left status %s", prev, tbl.Status)
		}
	}
}

func TestStatusChangeEmitsBranchScopedEvent(t *testing.T) {
	reg, hub := newTestRegistry(model.TableOccupied)
	events, cancel := hub.Subscribe(4, broadcast.BranchRoom(2))
	defer cancel()

	if _, err := reg.SetStatus(context.Background(), 5, model.TableAvailable); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	select {
	case ev := <-events:
		if ev.Type != broadcast.TypeTableStatus {
			t.Fatalf("event type = %s", ev.Type)
		}
		payload, ok := ev.Payload.(broadcast.TableStatusPayload)
		if !ok || payload.TableID != 5 || payload.BranchID != 2 || payload.Status != string(model.TableAvailable) {
			t.Fatalf("payload = %+v", ev.Payload)
		}
	default:
		t.Fatal("no event on the table's branch room")
	}
}

func TestSetStatusRejectsUnknownState(t *testing.T) {
	reg, hub := newTestRegistry(model.TableAvailable)
	events, cancel := hub.Subscribe(4, broadcast.RoomGlobal)
	defer cancel()

	if _, err := reg.SetStatus(context.Background(), 5, "Broken"); !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	select {
	case ev := <-events:
		t.Fatalf("rejected update emitted %+v", ev)
	default:
	}
}

func TestMissingTableIsNotFound(t *testing.T) {
	reg, _ := newTestRegistry(model.TableAvailable)
	if _, err := reg.Occupy(context.Background(), 99); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if _, err := reg.GetByID(context.Background(), 99); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("GetByID err = %v, want ErrNotFound", err)
	}
}
