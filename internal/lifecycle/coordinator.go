// Package lifecycle implements the order lifecycle coordinator: the
// component that accepts a new order, reserves inventory, persists the
// order, flips table occupancy, chooses the payment path, and fans out
// events.  It depends only on the narrow interfaces below, so the whole
// flow is testable without a database, broker or payment provider.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/lexuanthang19/food-deli-deploy/internal/broadcast"
	"github.com/lexuanthang19/food-deli-deploy/internal/model"
	"github.com/lexuanthang19/food-deli-deploy/internal/payment"
	"github.com/lexuanthang19/food-deli-deploy/internal/repository"
)

// ErrValidation marks malformed requests rejected before any side effect.
var ErrValidation = errors.New("validation failed")

// ErrUnauthorized marks requests whose caller lacks the required role;
// nothing is mutated.
var ErrUnauthorized = errors.New("unauthorized")

// MenuReader supplies the price/name/stock snapshot for requested items.
type MenuReader interface {
	GetByIDs(ctx context.Context, ids []uint64) (map[uint64]repository.StockRow, error)
}

// Ledger is the inventory ledger surface the coordinator drives.
type Ledger interface {
	Reserve(ctx context.Context, items []model.OrderItem) error
	Release(ctx context.Context, items []model.OrderItem) error
}

// OrderStore is the durable source of truth for order state transitions.
type OrderStore interface {
	Create(ctx context.Context, o *model.Order) error
	GetByID(ctx context.Context, id uint64) (*model.Order, error)
	UpdateStatus(ctx context.Context, id uint64, status model.OrderStatus) error
	SetPaid(ctx context.Context, id uint64, status model.OrderStatus) error
	MarkStockReleased(ctx context.Context, id uint64) (bool, error)
	Delete(ctx context.Context, id uint64) error
	ListStalePendingOnline(ctx context.Context, cutoff time.Time) ([]*model.Order, error)
}

// TableRegistry is the occupancy surface for dine-in orders.
type TableRegistry interface {
	GetByID(ctx context.Context, id uint64) (*model.Table, error)
	Occupy(ctx context.Context, tableID uint64) (*model.Table, error)
}

// BranchReader checks branch references during validation.
type BranchReader interface {
	GetByID(ctx context.Context, id uint64) (*model.Branch, error)
}

// Publisher is the event fan-out surface.
type Publisher interface {
	Publish(ev broadcast.Event) broadcast.Event
}

// Coordinator orchestrates the order lifecycle.
type Coordinator struct {
	Menu     MenuReader
	Ledger   Ledger
	Orders   OrderStore
	Tables   TableRegistry
	Branches BranchReader
	Checkout payment.CheckoutProvider
	Hub      Publisher

	// CheckoutTTL bounds how long an online checkout may stay Pending
	// before the sweeper treats it as abandoned.
	CheckoutTTL time.Duration
	// RestockOnStaffCancel controls whether a staff-driven cancellation
	// credits reserved stock back.  Off by default: only the payment
	// failure rollback restores stock.
	RestockOnStaffCancel bool
}

// ItemRequest is one requested line of a new order.
type ItemRequest struct {
	MenuItemID uint64 `json:"menu_item_id"`
	Quantity   int64  `json:"quantity"`
}

// PlaceOrderRequest carries everything needed to accept a new order.
type PlaceOrderRequest struct {
	UserID        uint64
	Items         []ItemRequest
	Kind          model.OrderKind
	PaymentMethod model.PaymentMethod
	BranchID      *uint64
	TableID       *uint64
	Address       string
}

// PlaceOrderResult is the confirmation returned to the storefront.
// RedirectURL is empty for pay-in-person orders, which are accepted
// directly.
type PlaceOrderResult struct {
	Order       *model.Order `json:"order"`
	RedirectURL string       `json:"redirect_url,omitempty"`
}

// PlaceOrder validates the request, reserves inventory, persists the order
// and routes it onto its payment path.  It either returns a confirmation
// or a structured rejection; it never returns a partial success.  Any
// failure after a successful reservation triggers a compensating Release
// before the error is surfaced.
func (c *Coordinator) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*PlaceOrderResult, error) {
	items, err := c.validate(ctx, &req)
	if err != nil {
		return nil, err
	}

	if err := c.Ledger.Reserve(ctx, items); err != nil {
		// InsufficientStock aborts with no side effects; the caller must
		// resubmit with adjusted quantities.
		return nil, err
	}

	order := &model.Order{
		UserID:        req.UserID,
		BranchID:      req.BranchID,
		TableID:       req.TableID,
		Kind:          req.Kind,
		PaymentMethod: req.PaymentMethod,
		Items:         items,
		AmountCents:   orderAmount(items, req.Kind),
		Address:       req.Address,
		Status:        model.StatusPending,
	}
	if err := c.Orders.Create(ctx, order); err != nil {
		// Persist failed after Reserve committed: roll the reservation
		// back before surfacing the error, otherwise stock leaks.
		if relErr := c.Ledger.Release(ctx, items); relErr != nil {
			log.Printf("lifecycle: release after failed persist: %v", relErr)
		}
		return nil, err
	}

	if req.Kind == model.KindDineIn && req.TableID != nil {
		// Occupy emits the table:status_updated event itself.  The table
		// was validated above; a failure here is logged, not fatal: the
		// order already exists and staff can fix occupancy manually.
		if _, err := c.Tables.Occupy(ctx, *req.TableID); err != nil {
			log.Printf("lifecycle: occupy table %d for order %d: %v", *req.TableID, order.ID, err)
		}
	}

	c.Hub.Publish(broadcast.Event{
		Type:     broadcast.TypeOrderCreated,
		BranchID: branchOrZero(order.BranchID),
		Payload:  broadcast.OrderCreatedPayload{Order: snapshotOrder(order)},
	})

	if req.PaymentMethod == model.PayInPerson {
		next, _ := Next(order.Status, EventCashAccepted)
		if err := c.Orders.UpdateStatus(ctx, order.ID, next); err != nil {
			return nil, err
		}
		order.Status = next
		return &PlaceOrderResult{Order: order}, nil
	}

	url, err := c.Checkout.BeginCheckout(ctx, order)
	if err != nil {
		// Order stays Pending; the client may retry checkout and the
		// sweeper reclaims the reservation if it never settles.
		return nil, err
	}
	return &PlaceOrderResult{Order: order, RedirectURL: url}, nil
}

// Finalize applies a settlement outcome for an order, whether it arrives
// as a provider callback (push) or a client verification call (pull).
// Both paths are idempotent and converge on the same terminal state.
func (c *Coordinator) Finalize(ctx context.Context, orderID uint64, settled bool) (*model.Order, error) {
	order, err := c.Orders.GetByID(ctx, orderID)
	if errors.Is(err, repository.ErrNotFound) {
		if !settled {
			// Already rolled back by an earlier attempt or the sweeper.
			return nil, nil
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	if !settled {
		return nil, c.rollback(ctx, order)
	}

	if order.PaymentMethod == model.PayInPerson {
		// Pay-in-person confirmation: physical payment is collected later
		// at the counter, so success only reaches Confirmed here.
		if order.Status != model.StatusPending {
			return order, nil
		}
		next, _ := Next(order.Status, EventCashAccepted)
		if err := c.Orders.UpdateStatus(ctx, order.ID, next); err != nil {
			return nil, err
		}
		order.Status = next
		c.publishStatus(order)
		return order, nil
	}

	if order.Payment {
		return order, nil
	}
	next, ok := Next(order.Status, EventSettled)
	if !ok {
		return nil, fmt.Errorf("%w: cannot settle order in status %s", ErrValidation, order.Status)
	}
	if err := c.Orders.SetPaid(ctx, order.ID, next); err != nil {
		return nil, err
	}
	order.Payment = true
	order.Status = next
	c.publishStatus(order)
	return order, nil
}

// rollback reverses a failed or abandoned checkout: the reservation is
// released exactly once (guarded by the stock_released flag) and the
// order record is removed entirely.  Orders that never got paid leave no
// trace.
func (c *Coordinator) rollback(ctx context.Context, order *model.Order) error {
	if _, ok := Next(order.Status, EventCheckoutFailed); !ok {
		return fmt.Errorf("%w: cannot fail order in status %s", ErrValidation, order.Status)
	}
	released, err := c.Orders.MarkStockReleased(ctx, order.ID)
	if err != nil {
		return err
	}
	if released {
		if err := c.Ledger.Release(ctx, order.Items); err != nil {
			return err
		}
	}
	return c.Orders.Delete(ctx, order.ID)
}

// UpdateStatus is the staff-facing status override.  It requires a staff
// role, accepts any valid target status, and publishes the change to the
// customer's room, the branch room and the global room with an identical
// payload.
func (c *Coordinator) UpdateStatus(ctx context.Context, role string, orderID uint64, status model.OrderStatus) (*model.Order, error) {
	if !model.StaffRole(role) {
		return nil, ErrUnauthorized
	}
	if !StaffOverrideAllowed(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	order, err := c.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := c.Orders.UpdateStatus(ctx, order.ID, status); err != nil {
		return nil, err
	}
	order.Status = status

	if status == model.StatusCancelled && c.RestockOnStaffCancel {
		released, err := c.Orders.MarkStockReleased(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		if released {
			if err := c.Ledger.Release(ctx, order.Items); err != nil {
				return nil, err
			}
		}
	}

	c.publishStatus(order)
	return order, nil
}

// MarkPaid records manual cash collection for a pay-in-person order.
// Restricted to managers and admins.
func (c *Coordinator) MarkPaid(ctx context.Context, role string, orderID uint64) (*model.Order, error) {
	if !model.ManagerRole(role) {
		return nil, ErrUnauthorized
	}
	order, err := c.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Payment && order.Status == model.StatusPaid {
		return order, nil
	}
	if err := c.Orders.SetPaid(ctx, order.ID, model.StatusPaid); err != nil {
		return nil, err
	}
	order.Payment = true
	order.Status = model.StatusPaid
	c.publishStatus(order)
	return order, nil
}

// SweepAbandoned rolls back online-checkout orders that stayed Pending
// past the checkout window.  It runs off the request path and may retry
// its Release+delete idempotently; the per-order guard flag prevents
// double crediting.
func (c *Coordinator) SweepAbandoned(ctx context.Context) (int, error) {
	ttl := c.CheckoutTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	stale, err := c.Orders.ListStalePendingOnline(ctx, time.Now().UTC().Add(-ttl))
	if err != nil {
		return 0, err
	}
	swept := 0
	for _, order := range stale {
		if err := c.rollback(ctx, order); err != nil {
			log.Printf("lifecycle: sweep order %d: %v", order.ID, err)
			continue
		}
		swept++
	}
	return swept, nil
}

// RunSweeper runs SweepAbandoned every interval until ctx is cancelled.
func (c *Coordinator) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := c.SweepAbandoned(ctx); err != nil {
				log.Printf("lifecycle: sweep: %v", err)
			} else if n > 0 {
				log.Printf("lifecycle: swept %d abandoned checkouts", n)
			}
		}
	}
}

// validate rejects malformed requests and resolves the line-item snapshot
// before any side effect happens.
func (c *Coordinator) validate(ctx context.Context, req *PlaceOrderRequest) ([]model.OrderItem, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: order has no items", ErrValidation)
	}
	if req.Kind == "" {
		req.Kind = model.KindDelivery
	}
	if !model.ValidKind(req.Kind) {
		return nil, fmt.Errorf("%w: unknown order type %q", ErrValidation, req.Kind)
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = model.PayOnline
	}
	if !model.ValidPaymentMethod(req.PaymentMethod) {
		return nil, fmt.Errorf("%w: unknown payment method %q", ErrValidation, req.PaymentMethod)
	}
	ids := make([]uint64, 0, len(req.Items))
	for _, it := range req.Items {
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
		}
		ids = append(ids, it.MenuItemID)
	}
	rows, err := c.Menu.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	items := make([]model.OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		row, ok := rows[it.MenuItemID]
		if !ok {
			return nil, fmt.Errorf("%w: menu item %d not found", ErrValidation, it.MenuItemID)
		}
		items = append(items, model.OrderItem{
			MenuItemID: it.MenuItemID,
			Name:       row.Name,
			PriceCents: row.PriceCents,
			Quantity:   it.Quantity,
		})
	}
	if req.BranchID != nil {
		if _, err := c.Branches.GetByID(ctx, *req.BranchID); err != nil {
			return nil, err
		}
	}
	if req.TableID != nil {
		if req.Kind != model.KindDineIn {
			return nil, fmt.Errorf("%w: table reference requires a dine-in order", ErrValidation)
		}
		if _, err := c.Tables.GetByID(ctx, *req.TableID); err != nil {
			return nil, err
		}
	}
	return items, nil
}

// publishStatus emits an order:status_updated event.  A single publish
// reaches the customer room, the branch room (when the order has one) and
// the global room, all carrying the identical payload so subscribers can
// deduplicate by order ID.
func (c *Coordinator) publishStatus(order *model.Order) {
	c.Hub.Publish(broadcast.Event{
		Type:     broadcast.TypeOrderStatus,
		BranchID: branchOrZero(order.BranchID),
		UserID:   order.UserID,
		Payload: broadcast.OrderStatusPayload{
			OrderID: order.ID,
			Status:  string(order.Status),
		},
	})
}

// orderAmount totals the snapshot prices; delivery and takeaway orders
// carry the checkout surcharge so the stored amount matches what the
// customer is charged.
func orderAmount(items []model.OrderItem, kind model.OrderKind) int64 {
	var total int64
	for _, it := range items {
		total += it.PriceCents * it.Quantity
	}
	if kind != model.KindDineIn {
		total += payment.DeliverySurchargeCents
	}
	return total
}

// snapshotOrder returns a detached copy for event payloads.  Subscribers
// marshal events on their own goroutines, so the payload must not share
// memory with the order the request goroutine keeps mutating.
func snapshotOrder(o *model.Order) *model.Order {
	cp := *o
	cp.Items = append([]model.OrderItem(nil), o.Items...)
	return &cp
}

func branchOrZero(id *uint64) uint64 {
	if id == nil {
		return 0
	}
	return *id
}
