package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Category mirrors the 'categories' table.
type Category struct {
	ID        uint64
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CategoryRepo encapsulates all database queries related to categories.
type CategoryRepo struct {
	db *sql.DB
}

func NewCategoryRepo(db *sql.DB) *CategoryRepo { return &CategoryRepo{db: db} }

// List returns every category ordered by name ascending.
func (r *CategoryRepo) List(ctx context.Context) ([]*Category, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, created_at, updated_at FROM categories ORDER BY name ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Category
	for rows.Next() {
		c := new(Category)
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID fetches a category by id. Returns ErrCategoryNotFound when absent.
func (r *CategoryRepo) GetByID(ctx context.Context, id uint64) (*Category, error) {
	var c Category
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, created_at, updated_at FROM categories WHERE id = ?", id).
		Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ExistsByID reports whether a category with this id exists.
func (r *CategoryRepo) ExistsByID(ctx context.Context, id uint64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM categories WHERE id = ?", id).Scan(&n)
	return n > 0, err
}

// ExistsByName reports whether a category with this exact name exists.
func (r *CategoryRepo) ExistsByName(ctx context.Context, name string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM categories WHERE name = ?", name).Scan(&n)
	return n > 0, err
}

// Create inserts a new category and populates its ID. A duplicate name is
// reported as ErrDuplicateName.
func (r *CategoryRepo) Create(ctx context.Context, c *Category) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO categories (name) VALUES (?)", c.Name)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateName
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

// Update renames an existing category. Returns ErrCategoryNotFound when no
// row matches and ErrDuplicateName when the new name is taken.
func (r *CategoryRepo) Update(ctx context.Context, c *Category) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE categories SET name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		c.Name, c.ID)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateName
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		ok, err := r.ExistsByID(ctx, c.ID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrCategoryNotFound
		}
	}
	return nil
}

// Delete removes a category by id. Returns ErrCategoryNotFound when absent.
// Deleting a category that still has movies fails with the FK error from
// the store.
func (r *CategoryRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM categories WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCategoryNotFound
	}
	return nil
}
