package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/lexuanthang19/food-deli-deploy/internal/model"
)

// OrderRepo provides data access to the orders and order_items tables.
// It is the durable source of truth for order status: every transition the
// coordinator commits goes through this repository before any event is
// published, which is what gives subscribers the committed order of
// transitions.
type OrderRepo struct {
	db *sql.DB
}

// NewOrderRepo returns a new OrderRepo bound to the provided database.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// DB exposes the underlying handle for transactions spanning orders and
// menu_items.
func (r *OrderRepo) DB() *sql.DB { return r.db }

// CreateTx inserts the order and its line-item snapshot within the provided
// transaction and populates o.ID.  The caller commits or rolls back.
func (r *OrderRepo) CreateTx(ctx context.Context, tx *sql.Tx, o *model.Order) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO orders (user_id, branch_id, table_id, order_type, payment_method, amount_cents, address, status, payment, stock_released)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.UserID, o.BranchID, o.TableID, o.Kind, o.PaymentMethod, o.AmountCents, o.Address, o.Status, o.Payment, o.StockReleased)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)
	if len(o.Items) == 0 {
		return nil
	}
	query := `INSERT INTO order_items (order_id, menu_item_id, name, price_cents, quantity) VALUES `
	args := make([]interface{}, 0, len(o.Items)*5)
	for i, it := range o.Items {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?)"
		args = append(args, o.ID, it.MenuItemID, it.Name, it.PriceCents, it.Quantity)
	}
	_, err = tx.ExecContext(ctx, query, args...)
	return err
}

// Create inserts the order and its line items in a transaction of its own.
func (r *OrderRepo) Create(ctx context.Context, o *model.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := r.CreateTx(ctx, tx, o); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// GetByID loads a single order including its line items.  Returns
// ErrNotFound when the order does not exist.
func (r *OrderRepo) GetByID(ctx context.Context, id uint64) (*model.Order, error) {
	o, err := r.scanOrder(r.db.QueryRowContext(ctx,
		`SELECT id, user_id, branch_id, table_id, order_type, payment_method, amount_cents, address, status, payment, stock_released, created_at
		 FROM orders WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}
	items, err := r.loadItems(ctx, []uint64{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = items[o.ID]
	return o, nil
}

// ListByUser returns the orders a customer placed, newest first.
func (r *OrderRepo) ListByUser(ctx context.Context, userID uint64) ([]*model.Order, error) {
	return r.list(ctx,
		`SELECT id, user_id, branch_id, table_id, order_type, payment_method, amount_cents, address, status, payment, stock_released, created_at
		 FROM orders WHERE user_id = ? ORDER BY created_at DESC`, userID)
}

// ListAll returns every order, newest first.  Used by the staff console.
func (r *OrderRepo) ListAll(ctx context.Context) ([]*model.Order, error) {
	return r.list(ctx,
		`SELECT id, user_id, branch_id, table_id, order_type, payment_method, amount_cents, address, status, payment, stock_released, created_at
		 FROM orders ORDER BY created_at DESC`)
}

// ListStalePendingOnline returns online-checkout orders still Pending that
// were created before the cutoff.  The abandoned-checkout sweeper feeds
// these into the failure path.
func (r *OrderRepo) ListStalePendingOnline(ctx context.Context, cutoff time.Time) ([]*model.Order, error) {
	return r.list(ctx,
		`SELECT id, user_id, branch_id, table_id, order_type, payment_method, amount_cents, address, status, payment, stock_released, created_at
		 FROM orders WHERE status = ? AND payment_method = ? AND payment = 0 AND created_at < ?
		 ORDER BY created_at`,
		model.StatusPending, model.PayOnline, cutoff.UTC())
}

// UpdateStatus sets the status field.  Existence is checked by callers via
// GetByID; MySQL reports zero affected rows for no-op updates, so rows
// affected cannot distinguish "missing" from "already at that status".
func (r *OrderRepo) UpdateStatus(ctx context.Context, id uint64, status model.OrderStatus) error {
	_, err := r.db.ExecContext(ctx, `UPDATE orders SET status = ? WHERE id = ?`, status, id)
	return err
}

// SetPaid records a captured settlement: payment flag plus status in one
// statement so a crash cannot observe one without the other.
func (r *OrderRepo) SetPaid(ctx context.Context, id uint64, status model.OrderStatus) error {
	_, err := r.db.ExecContext(ctx, `UPDATE orders SET payment = 1, status = ? WHERE id = ?`, status, id)
	return err
}

// MarkStockReleased flips the stock_released guard flag.  It returns true
// only for the caller that actually performed the flip, making the
// compensating Release idempotent across concurrent finalize attempts and
// sweeper passes.
func (r *OrderRepo) MarkStockReleased(ctx context.Context, id uint64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET stock_released = 1 WHERE id = ? AND stock_released = 0`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Delete removes the order and, via FK cascade, its line items.  Only the
// payment-failure rollback path calls this; settled orders are never
// physically deleted.
func (r *OrderRepo) Delete(ctx context.Context, id uint64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id)
	return err
}

func (r *OrderRepo) list(ctx context.Context, query string, args ...interface{}) ([]*model.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var orders []*model.Order
	var ids []uint64
	for rows.Next() {
		o, err := r.scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*model.Order{}, nil
	}
	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, o := range orders {
		o.Items = items[o.ID]
	}
	return orders, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func (r *OrderRepo) scanOrder(s scanner) (*model.Order, error) {
	var o model.Order
	var branchID, tableID sql.NullInt64
	err := s.Scan(&o.ID, &o.UserID, &branchID, &tableID, &o.Kind, &o.PaymentMethod,
		&o.AmountCents, &o.Address, &o.Status, &o.Payment, &o.StockReleased, &o.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if branchID.Valid {
		v := uint64(branchID.Int64)
		o.BranchID = &v
	}
	if tableID.Valid {
		v := uint64(tableID.Int64)
		o.TableID = &v
	}
	return &o, nil
}

func (r *OrderRepo) loadItems(ctx context.Context, orderIDs []uint64) (map[uint64][]model.OrderItem, error) {
	query, args := inClause(
		`SELECT order_id, menu_item_id, name, price_cents, quantity FROM order_items WHERE order_id IN `, orderIDs, ` ORDER BY id`)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[uint64][]model.OrderItem, len(orderIDs))
	for rows.Next() {
		var orderID uint64
		var it model.OrderItem
		if err := rows.Scan(&orderID, &it.MenuItemID, &it.Name, &it.PriceCents, &it.Quantity); err != nil {
			return nil, err
		}
		out[orderID] = append(out[orderID], it)
	}
	return out, rows.Err()
}
