package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Movie mirrors the 'movies' table. Every movie belongs to exactly one
// category; the name is unique across the catalog.
type Movie struct {
	ID          uint64
	Name        string
	Description string
	ReleaseDate time.Time
	Price       float64
	ImageURL    string
	CategoryID  uint64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// MovieRepo encapsulates all database queries related to movies.
type MovieRepo struct {
	db *sql.DB
}

func NewMovieRepo(db *sql.DB) *MovieRepo { return &MovieRepo{db: db} }

const movieColumns = "id, name, description, release_date, price, image_url, category_id, created_at, updated_at"

func scanMovie(row interface{ Scan(...any) error }) (*Movie, error) {
	var m Movie
	var release sql.NullTime
	err := row.Scan(&m.ID, &m.Name, &m.Description, &release, &m.Price,
		&m.ImageURL, &m.CategoryID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if release.Valid {
		m.ReleaseDate = release.Time
	}
	return &m, nil
}

func collectMovies(rows *sql.Rows) ([]*Movie, error) {
	defer rows.Close()
	var out []*Movie
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// List returns every movie ordered by name ascending.
func (r *MovieRepo) List(ctx context.Context) ([]*Movie, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+movieColumns+" FROM movies ORDER BY name ASC")
	if err != nil {
		return nil, err
	}
	return collectMovies(rows)
}

// GetByID fetches a movie by id. Returns ErrMovieNotFound when absent.
func (r *MovieRepo) GetByID(ctx context.Context, id uint64) (*Movie, error) {
	m, err := scanMovie(r.db.QueryRowContext(ctx,
		"SELECT "+movieColumns+" FROM movies WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMovieNotFound
	}
	return m, err
}

// ExistsByName reports whether a movie with this exact name exists.
func (r *MovieRepo) ExistsByName(ctx context.Context, name string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM movies WHERE name = ?", name).Scan(&n)
	return n > 0, err
}

// ExistsByID reports whether a movie with this id exists.
func (r *MovieRepo) ExistsByID(ctx context.Context, id uint64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM movies WHERE id = ?", id).Scan(&n)
	return n > 0, err
}

// Create inserts a new movie and populates its ID. A unique-index violation
// on the name is reported as ErrDuplicateName; the index is what makes
// concurrent creations of the same name safe.
func (r *MovieRepo) Create(ctx context.Context, m *Movie) error {
	var release any
	if !m.ReleaseDate.IsZero() {
		release = m.ReleaseDate
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO movies (name, description, release_date, price, image_url, category_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		m.Name, m.Description, release, m.Price, m.ImageURL, m.CategoryID)
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
	m.ID = uint64(id)
	return nil
}

// Update persists all mutable fields of an existing movie. Returns
// ErrMovieNotFound when no row matches the id and ErrDuplicateName when the
// new name collides with another movie.
func (r *MovieRepo) Update(ctx context.Context, m *Movie) error {
	var release any
	if !m.ReleaseDate.IsZero() {
		release = m.ReleaseDate
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE movies
		 SET name = ?, description = ?, release_date = ?, price = ?, image_url = ?, category_id = ?,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		m.Name, m.Description, release, m.Price, m.ImageURL, m.CategoryID, m.ID)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateName
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// RowsAffected is 0 both for a missing row and for a no-op update;
		// confirm the row exists before reporting not found.
		ok, err := r.ExistsByID(ctx, m.ID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrMovieNotFound
		}
	}
	return nil
}

// Delete removes a movie by id. Returns ErrMovieNotFound when absent.
func (r *MovieRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM movies WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMovieNotFound
	}
	return nil
}

// Search returns movies whose name or description contains namePart,
// case-insensitively. An empty pattern matches every movie, matching LIKE
// '%%' semantics.
func (r *MovieRepo) Search(ctx context.Context, namePart string) ([]*Movie, error) {
	pattern := "%" + namePart + "%"
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+movieColumns+` FROM movies
		 WHERE LOWER(name) LIKE LOWER(?) OR LOWER(description) LIKE LOWER(?)
		 ORDER BY name ASC`,
		pattern, pattern)
	if err != nil {
		return nil, err
	}
	return collectMovies(rows)
}

// ListByCategory returns all movies in a category ordered by name.
func (r *MovieRepo) ListByCategory(ctx context.Context, categoryID uint64) ([]*Movie, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+movieColumns+" FROM movies WHERE category_id = ? ORDER BY name ASC",
		categoryID)
	if err != nil {
		return nil, err
	}
	return collectMovies(rows)
}
