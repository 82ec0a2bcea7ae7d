package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/lexuanthang19/food-deli-deploy/internal/model"
)

// TableRepo provides data access to the tables table.  Status writes go
// through UpdateStatus, which returns the updated row so the table
// registry can publish a change event carrying the owning branch.
type TableRepo struct {
	db *sql.DB
}

// NewTableRepo returns a new TableRepo bound to the provided database.
func NewTableRepo(db *sql.DB) *TableRepo { return &TableRepo{db: db} }

// Create inserts a new table.  The (branch_id, label) pair carries a
// unique index; a duplicate maps to ErrConflict so handlers can answer 409.
func (r *TableRepo) Create(ctx context.Context, t *model.Table) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO tables (branch_id, label, capacity, status, floor, qr_token) VALUES (?, ?, ?, ?, ?, ?)`,
		t.BranchID, t.Label, t.Capacity, t.Status, t.Floor, t.QRToken)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 { // duplicate key
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// GetByID loads a table or returns ErrNotFound.
func (r *TableRepo) GetByID(ctx context.Context, id uint64) (*model.Table, error) {
	return r.scan(r.db.QueryRowContext(ctx,
		`SELECT id, branch_id, label, capacity, status, floor, qr_token, created_at FROM tables WHERE id = ?`, id))
}

// GetByQRToken resolves the table behind a printed QR code.
func (r *TableRepo) GetByQRToken(ctx context.Context, token string) (*model.Table, error) {
	return r.scan(r.db.QueryRowContext(ctx,
		`SELECT id, branch_id, label, capacity, status, floor, qr_token, created_at FROM tables WHERE qr_token = ?`, token))
}

// ListByBranch returns all tables of a branch ordered by floor and label.
func (r *TableRepo) ListByBranch(ctx context.Context, branchID uint64) ([]*model.Table, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, branch_id, label, capacity, status, floor, qr_token, created_at
		 FROM tables WHERE branch_id = ? ORDER BY floor, label`, branchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tables []*model.Table
	for rows.Next() {
		t, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

// UpdateStatus sets the occupancy status and returns the updated row, or
// ErrNotFound when the table does not exist.
func (r *TableRepo) UpdateStatus(ctx context.Context, id uint64, status model.TableStatus) (*model.Table, error) {
	if _, err := r.db.ExecContext(ctx, `UPDATE tables SET status = ? WHERE id = ?`, status, id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *TableRepo) scan(s scanner) (*model.Table, error) {
	var t model.Table
	err := s.Scan(&t.ID, &t.BranchID, &t.Label, &t.Capacity, &t.Status, &t.Floor, &t.QRToken, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}
