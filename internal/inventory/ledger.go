// Package inventory owns the per-item stock counters.  Reserve and
// Release are the only operations that mutate stock; callers never see a
// raw read-modify-write.  Reservation for a whole order runs inside one
// transaction with row locks plus a conditional decrement, so two orders
// competing for the same item serialize on that item while orders over
// disjoint items proceed in parallel, and committed stock never goes
// negative.
package inventory

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/lexuanthang19/food-deli-deploy/internal/model"
	"github.com/lexuanthang19/food-deli-deploy/internal/repository"
)

// Shortage describes one item that could not be reserved.
type Shortage struct {
	MenuItemID uint64 `json:"menu_item_id"`
	Name       string `json:"name"`
	Available  int64  `json:"available"`
	Requested  int64  `json:"requested"`
}

// InsufficientStockError reports every failing item of a rejected
// reservation.  The reservation performed no mutation when this error is
// returned.
type InsufficientStockError struct {
	Items []Shortage
}

func (e *InsufficientStockError) Error() string {
	names := make([]string, len(e.Items))
	for i, s := range e.Items {
		names[i] = fmt.Sprintf("%s (available %d, requested %d)", s.Name, s.Available, s.Requested)
	}
	return "insufficient stock: " + strings.Join(names, ", ")
}

// Ledger coordinates stock reservation against the menu_items table.
type Ledger struct {
	items *repository.MenuItemRepo
}

// NewLedger returns a ledger backed by the given repository.
func NewLedger(items *repository.MenuItemRepo) *Ledger { return &Ledger{items: items} }

// Reserve deducts stock for every tracked line item, all or nothing.  If
// any tracked item has less stock than requested, the whole call returns
// an *InsufficientStockError listing every failing item and nothing is
// mutated.  Untracked items pass through without checks or mutation.
// Quantities for the same item are summed before checking, so an order
// listing an item twice cannot slip past the guard.
func (l *Ledger) Reserve(ctx context.Context, items []model.OrderItem) error {
	wanted, order := aggregate(items)
	if len(order) == 0 {
		return nil
	}
	tx, err := l.items.DB().BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	rows, err := l.items.LockForUpdateTx(ctx, tx, order)
	if err != nil {
		return err
	}
	var short []Shortage
	for _, id := range order {
		row, ok := rows[id]
		if !ok {
			return fmt.Errorf("menu item %d: %w", id, repository.ErrNotFound)
		}
		if row.TrackStock && row.Stock < wanted[id] {
			short = append(short, Shortage{
				MenuItemID: id,
				Name:       row.Name,
				Available:  row.Stock,
				Requested:  wanted[id],
			})
		}
	}
	if len(short) > 0 {
		return &InsufficientStockError{Items: short}
	}
	for _, id := range order {
		if !rows[id].TrackStock {
			continue
		}
		ok, err := l.items.DecrementStockTx(ctx, tx, id, wanted[id])
		if err != nil {
			return err
		}
		if !ok {
			// cannot happen while the row lock is held; kept as a guard
			return fmt.Errorf("menu item %d: stock changed during reservation", id)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Release credits stock back for every tracked line item.  It is
// unconditional quantity-for-quantity compensation; idempotence across
// repeated finalize attempts is enforced by the caller through the
// order's stock_released guard flag.
func (l *Ledger) Release(ctx context.Context, items []model.OrderItem) error {
	wanted, order := aggregate(items)
	if len(order) == 0 {
		return nil
	}
	tx, err := l.items.DB().BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	for _, id := range order {
		if err := l.items.IncrementStockTx(ctx, tx, id, wanted[id]); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// aggregate sums quantities per item and returns the IDs in ascending
// order.  Row locks are taken in this order by every reservation, so two
// concurrent orders over the same items cannot deadlock on each other.
func aggregate(items []model.OrderItem) (map[uint64]int64, []uint64) {
	wanted := make(map[uint64]int64, len(items))
	for _, it := range items {
		if it.Quantity <= 0 {
			continue
		}
		wanted[it.MenuItemID] += it.Quantity
	}
	order := make([]uint64, 0, len(wanted))
	for id := range wanted {
		order = append(order, id)
	}
	slices.Sort(order)
	return wanted, order
}
