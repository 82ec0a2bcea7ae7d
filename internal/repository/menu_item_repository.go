package repository

import (
	"context"
	"database/sql"
	"strings"
)

// MenuItemRepo provides data access to the menu_items table.  Stock
// mutation happens exclusively through the Tx methods below so that the
// inventory ledger can run check-and-decrement for a whole order inside a
// single transaction.
type MenuItemRepo struct {
	db *sql.DB
}

// NewMenuItemRepo returns a new MenuItemRepo bound to the provided database.
func NewMenuItemRepo(db *sql.DB) *MenuItemRepo { return &MenuItemRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions that
// span menu_items and orders.
func (r *MenuItemRepo) DB() *sql.DB { return r.db }

// StockRow is the subset of a menu item the ledger needs while reserving:
// identity, display name for shortage messages, and the tracked counter.
type StockRow struct {
	ID         uint64
	Name       string
	PriceCents int64
	TrackStock bool
	Stock      int64
}

// ListActive returns all active menu items ordered by name.  Used by the
// public menu browse endpoint.
func (r *MenuItemRepo) ListActive(ctx context.Context) ([]StockRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, price_cents, track_stock, stock FROM menu_items WHERE active = 1 ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []StockRow
	for rows.Next() {
		var it StockRow
		if err := rows.Scan(&it.ID, &it.Name, &it.PriceCents, &it.TrackStock, &it.Stock); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// GetByIDs loads the named items without locking.  The result map is keyed
// by item ID; absent IDs are simply missing from the map so the caller can
// report which references were invalid.
func (r *MenuItemRepo) GetByIDs(ctx context.Context, ids []uint64) (map[uint64]StockRow, error) {
	if len(ids) == 0 {
		return map[uint64]StockRow{}, nil
	}
	query, args := inClause(
		`SELECT id, name, price_cents, track_stock, stock FROM menu_items WHERE active = 1 AND id IN `, ids, ``)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[uint64]StockRow, len(ids))
	for rows.Next() {
		var it StockRow
		if err := rows.Scan(&it.ID, &it.Name, &it.PriceCents, &it.TrackStock, &it.Stock); err != nil {
			return nil, err
		}
		out[it.ID] = it
	}
	return out, rows.Err()
}

// LockForUpdateTx loads the named items with row locks held until the
// transaction ends.  Competing reservations touching the same items
// serialize on these locks; orders over disjoint items do not block each
// other.
func (r *MenuItemRepo) LockForUpdateTx(ctx context.Context, tx *sql.Tx, ids []uint64) (map[uint64]StockRow, error) {
	if len(ids) == 0 {
		return map[uint64]StockRow{}, nil
	}
	query, args := inClause(
		`SELECT id, name, price_cents, track_stock, stock FROM menu_items WHERE id IN `, ids, ` FOR UPDATE`)
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[uint64]StockRow, len(ids))
	for rows.Next() {
		var it StockRow
		if err := rows.Scan(&it.ID, &it.Name, &it.PriceCents, &it.TrackStock, &it.Stock); err != nil {
			return nil, err
		}
		out[it.ID] = it
	}
	return out, rows.Err()
}

// DecrementStockTx conditionally deducts qty units from a tracked item.
// The WHERE clause re-checks the counter so the statement can never drive
// stock negative even without the row lock; it returns false when the
// guard fails.  Untracked items must not be passed here.
func (r *MenuItemRepo) DecrementStockTx(ctx context.Context, tx *sql.Tx, id uint64, qty int64) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE menu_items SET stock = stock - ? WHERE id = ? AND track_stock = 1 AND stock >= ?`,
		qty, id, qty)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// IncrementStockTx credits qty units back to a tracked item.  Used by the
// compensation path; no upper-bound check is applied because restoring a
// previously committed decrement cannot overflow logical capacity.
func (r *MenuItemRepo) IncrementStockTx(ctx context.Context, tx *sql.Tx, id uint64, qty int64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE menu_items SET stock = stock + ? WHERE id = ? AND track_stock = 1`, qty, id)
	return err
}

// inClause builds "prefix (?,?,...) suffix" and the matching args slice.
func inClause(prefix string, ids []uint64, suffix string) (string, []interface{}) {
	ph := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		ph[i] = "?"
		args[i] = id
	}
	return prefix + "(" + strings.Join(ph, ",") + ")" + suffix, args
}
