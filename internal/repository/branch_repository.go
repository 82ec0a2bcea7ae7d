package repository

import (
	"context"
	"database/sql"

	"github.com/lexuanthang19/food-deli-deploy/internal/model"
)

// BranchRepo provides data access to the branches table.  Branches are
// soft-deleted only: Deactivate flips the active flag and the row remains
// a foreign key target for existing tables and orders.
type BranchRepo struct {
	db *sql.DB
}

// NewBranchRepo returns a new BranchRepo bound to the provided database.
func NewBranchRepo(db *sql.DB) *BranchRepo { return &BranchRepo{db: db} }

// Create inserts a new active branch and populates b.ID.
func (r *BranchRepo) Create(ctx context.Context, b *model.Branch) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO branches (name, address, phone, active) VALUES (?, ?, ?, 1)`,
		b.Name, b.Address, b.Phone)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	b.Active = true
	return nil
}

// GetByID loads a branch or returns ErrNotFound.
func (r *BranchRepo) GetByID(ctx context.Context, id uint64) (*model.Branch, error) {
	var b model.Branch
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, address, phone, active, created_at FROM branches WHERE id = ?`, id).
		Scan(&b.ID, &b.Name, &b.Address, &b.Phone, &b.Active, &b.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ListActive returns all active branches ordered by name.
func (r *BranchRepo) ListActive(ctx context.Context) ([]*model.Branch, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, address, phone, active, created_at FROM branches WHERE active = 1 ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var branches []*model.Branch
	for rows.Next() {
		var b model.Branch
		if err := rows.Scan(&b.ID, &b.Name, &b.Address, &b.Phone, &b.Active, &b.CreatedAt); err != nil {
			return nil, err
		}
		branches = append(branches, &b)
	}
	return branches, rows.Err()
}

// Deactivate soft-deletes a branch.
func (r *BranchRepo) Deactivate(ctx context.Context, id uint64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE branches SET active = 0 WHERE id = ?`, id)
	return err
}
