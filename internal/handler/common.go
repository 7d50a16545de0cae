// Package handler implements the HTTP boundary of the catalog API. Handlers
// validate input, call the data access layer and translate repository
// errors into HTTP responses. Transfer objects exposed on the wire are
// defined here, separate from the persisted entities in repository.
package handler

import (
	"context"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-catalog-api/internal/repository"
)

// dbTimeout bounds every repository call made from a handler.
const dbTimeout = 5 * time.Second

// MovieStore is the movie persistence contract handlers depend on.
// *repository.MovieRepo satisfies it; tests substitute in-memory fakes.
type MovieStore interface {
	List(ctx context.Context) ([]*repository.Movie, error)
	GetByID(ctx context.Context, id uint64) (*repository.Movie, error)
	ExistsByID(ctx context.Context, id uint64) (bool, error)
	Create(ctx context.Context, m *repository.Movie) error
	Update(ctx context.Context, m *repository.Movie) error
	Delete(ctx context.Context, id uint64) error
	Search(ctx context.Context, namePart string) ([]*repository.Movie, error)
	ListByCategory(ctx context.Context, categoryID uint64) ([]*repository.Movie, error)
}

// CategoryStore is the category persistence contract handlers depend on.
type CategoryStore interface {
	List(ctx context.Context) ([]*repository.Category, error)
	GetByID(ctx context.Context, id uint64) (*repository.Category, error)
	ExistsByID(ctx context.Context, id uint64) (bool, error)
	Create(ctx context.Context, c *repository.Category) error
	Update(ctx context.Context, c *repository.Category) error
	Delete(ctx context.Context, id uint64) error
}

// UserStore is the identity persistence contract the auth handler depends on.
type UserStore interface {
	IsUniqueUsername(ctx context.Context, username string) (bool, error)
	Register(ctx context.Context, username, password, displayName string, cost int) (*repository.User, string, error)
	GetByUsername(ctx context.Context, username string) (*repository.User, error)
	GetByID(ctx context.Context, id uint64) (*repository.User, error)
	List(ctx context.Context) ([]*repository.User, error)
	RolesOf(ctx context.Context, userID uint64) ([]string, error)
}

// pathID parses the named path parameter as an unsigned integer id.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// reqContext derives a bounded context from the request for DB calls.
func reqContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}
