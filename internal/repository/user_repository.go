package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/movie-catalog-api/internal/utils"
)

// Role names known to the application. Both are created the first time a
// user registers. The first registrant becomes the admin; everyone after
// that is a regular registered user.
const (
	RoleAdmin      = "admin"
	RoleRegistered = "registrado"
)

// User mirrors the 'users' table. The username doubles as the login name
// and email address. Roles live in the user_roles join table.
type User struct {
	ID           uint64
	Username     string
	DisplayName  string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserRepo encapsulates user and role persistence.
type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// IsUniqueUsername reports whether no user holds this username yet.
func (r *UserRepo) IsUniqueUsername(ctx context.Context, username string) (bool, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM users WHERE LOWER(username) = ?", username).Scan(&n)
	return n == 0, err
}

// Register creates a credential-backed user and assigns its role inside a
// single transaction. On the very first registration the "admin" and
// "registrado" roles are bootstrapped and the new user becomes the admin;
// later registrants get "registrado". A username collision is reported as
// ErrUsernameExists via the unique index on users.username.
func (r *UserRepo) Register(ctx context.Context, username, password, displayName string, cost int) (*User, string, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return nil, "", err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, "", err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO users (username, display_name, password_hash) VALUES (?, ?, ?)",
		username, displayName, hash)
	if err != nil {
		if isDuplicateKey(err) {
			err = ErrUsernameExists
		}
		return nil, "", err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, "", err
	}
	uid := uint64(id)

	var roleCount int
	if err = tx.QueryRowContext(ctx, "SELECT COUNT(1) FROM roles").Scan(&roleCount); err != nil {
		return nil, "", err
	}
	role := RoleRegistered
	if roleCount == 0 {
		for _, name := range []string{RoleAdmin, RoleRegistered} {
			if _, err = tx.ExecContext(ctx, "INSERT INTO roles (name) VALUES (?)", name); err != nil {
				return nil, "", err
			}
		}
		role = RoleAdmin
	}
	if _, err = tx.ExecContext(ctx,
		"INSERT INTO user_roles (user_id, role_id) SELECT ?, id FROM roles WHERE name = ?",
		uid, role); err != nil {
		return nil, "", err
	}
	if err = tx.Commit(); err != nil {
		return nil, "", err
	}

	u, err := r.GetByID(ctx, uid)
	if err != nil {
		return nil, "", err
	}
	return u, role, nil
}

// GetByUsername fetches a user by case-insensitive username match. Returns
// ErrUserNotFound when absent.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	var u User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, display_name, password_hash, created_at, updated_at
		 FROM users WHERE LOWER(username) = ? LIMIT 1`, username).
		Scan(&u.ID, &u.Username, &u.DisplayName, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID fetches a user by id. Returns ErrUserNotFound when absent.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*User, error) {
	var u User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, display_name, password_hash, created_at, updated_at
		 FROM users WHERE id = ? LIMIT 1`, id).
		Scan(&u.ID, &u.Username, &u.DisplayName, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// List returns every user ordered by username.
func (r *UserRepo) List(ctx context.Context) ([]*User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, username, display_name, password_hash, created_at, updated_at
		 FROM users ORDER BY username ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*User
	for rows.Next() {
		u := new(User)
		if err := rows.Scan(&u.ID, &u.Username, &u.DisplayName, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// RolesOf returns the role names assigned to a user, ordered by role id so
// the first assigned role comes first.
func (r *UserRepo) RolesOf(ctx context.Context, userID uint64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT r.name FROM roles r
		 JOIN user_roles ur ON ur.role_id = r.id
		 WHERE ur.user_id = ? ORDER BY r.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
