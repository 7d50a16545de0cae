package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-catalog-api/internal/repository"
	"github.com/iliyamo/movie-catalog-api/internal/service"
)

// MovieHandler serves the /api/peliculas endpoints.
type MovieHandler struct {
	Movies     MovieStore
	Categories CategoryStore
	Events     service.CatalogPublisher
}

func NewMovieHandler(movies MovieStore, categories CategoryStore, events service.CatalogPublisher) *MovieHandler {
	if movies == nil || categories == nil {
		panic("nil store passed to NewMovieHandler")
	}
	return &MovieHandler{Movies: movies, Categories: categories, Events: events}
}

// movieDto is the transfer object exposed on the wire for movies.
type movieDto struct {
	ID          uint64  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	ReleaseDate string  `json:"releaseDate,omitempty"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"imageUrl"`
	CategoryID  uint64  `json:"categoryId"`
}

type createMovieReq struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	ReleaseDate string  `json:"releaseDate"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"imageUrl"`
	CategoryID  uint64  `json:"categoryId"`
}

type patchMovieReq struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	ReleaseDate *string  `json:"releaseDate"`
	Price       *float64 `json:"price"`
	ImageURL    *string  `json:"imageUrl"`
	CategoryID  *uint64  `json:"categoryId"`
}

func toMovieDto(m *repository.Movie) movieDto {
	dto := movieDto{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Price:       m.Price,
		ImageURL:    m.ImageURL,
		CategoryID:  m.CategoryID,
	}
	if !m.ReleaseDate.IsZero() {
		dto.ReleaseDate = m.ReleaseDate.UTC().Format(time.RFC3339)
	}
	return dto
}

func toMovieDtos(ms []*repository.Movie) []movieDto {
	out := make([]movieDto, 0, len(ms))
	for _, m := range ms {
		out = append(out, toMovieDto(m))
	}
	return out
}

// List handles GET /api/peliculas (anonymous). Returns all movies ordered
// by name.
func (h *MovieHandler) List(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()

	movies, err := h.Movies.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load movies"})
	}
	return c.JSON(http.StatusOK, toMovieDtos(movies))
}

// Get handles GET /api/peliculas/:id (anonymous).
func (h *MovieHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	m, err := h.Movies.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load movie"})
	}
	return c.JSON(http.StatusOK, toMovieDto(m))
}

// Create handles POST /api/peliculas (admin only). A duplicate name yields
// 409; the unique index in the store backs this even under concurrent
// requests. The response carries a Location header for the new resource.
func (h *MovieHandler) Create(c echo.Context) error {
	var req createMovieReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	if req.CategoryID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "categoryId is required"})
	}
	var release time.Time
	if s := strings.TrimSpace(req.ReleaseDate); s != "" {
		var err error
		if release, err = time.Parse(time.RFC3339, s); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid releaseDate format"})
		}
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if ok, err := h.Categories.ExistsByID(ctx, req.CategoryID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not verify category"})
	} else if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "category does not exist"})
	}

	m := &repository.Movie{
		Name:        req.Name,
		Description: req.Description,
		ReleaseDate: release,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		CategoryID:  req.CategoryID,
	}
	if err := h.Movies.Create(ctx, m); err != nil {
		if errors.Is(err, repository.ErrDuplicateName) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "a movie with this name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not save movie"})
	}

	h.publish("movie", "created", m.ID, m.Name, c)

	c.Response().Header().Set(echo.HeaderLocation, fmt.Sprintf("/api/peliculas/%d", m.ID))
	return c.JSON(http.StatusCreated, toMovieDto(m))
}

// Patch handles PATCH /api/peliculas/:id (admin only). It merges the
// provided fields over the stored movie and saves the result; an unknown id
// yields 404.
func (h *MovieHandler) Patch(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req patchMovieReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	m, err := h.Movies.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load movie"})
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "name must not be empty"})
		}
		m.Name = name
	}
	if req.Description != nil {
		m.Description = *req.Description
	}
	if req.ReleaseDate != nil {
		release, err := time.Parse(time.RFC3339, strings.TrimSpace(*req.ReleaseDate))
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid releaseDate format"})
		}
		m.ReleaseDate = release
	}
	if req.Price != nil {
		m.Price = *req.Price
	}
	if req.ImageURL != nil {
		m.ImageURL = *req.ImageURL
	}
	if req.CategoryID != nil {
		if ok, err := h.Categories.ExistsByID(ctx, *req.CategoryID); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not verify category"})
		} else if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "category does not exist"})
		}
		m.CategoryID = *req.CategoryID
	}

	if err := h.Movies.Update(ctx, m); err != nil {
		switch {
		case errors.Is(err, repository.ErrMovieNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		case errors.Is(err, repository.ErrDuplicateName):
			return c.JSON(http.StatusConflict, echo.Map{"error": "a movie with this name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update movie"})
	}

	h.publish("movie", "updated", m.ID, m.Name, c)
	return c.NoContent(http.StatusNoContent)
}

// Delete handles DELETE /api/peliculas/:id (admin only).
func (h *MovieHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	m, err := h.Movies.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load movie"})
	}
	if err := h.Movies.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not delete movie"})
	}

	h.publish("movie", "deleted", id, m.Name, c)
	return c.NoContent(http.StatusNoContent)
}

// ListByCategory handles GET /api/peliculas/GetPeliculasEnCategoria/:categoriaId
// (anonymous). An empty category yields 404.
func (h *MovieHandler) ListByCategory(c echo.Context) error {
	catID, ok := pathID(c, "categoriaId")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid category id"})
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	movies, err := h.Movies.ListByCategory(ctx, catID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load movies"})
	}
	if len(movies) == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no movies in this category"})
	}
	return c.JSON(http.StatusOK, toMovieDtos(movies))
}

// Search handles GET /api/peliculas/Buscar?nombre= (anonymous). The query
// is trimmed before matching; an empty query matches everything. No match
// yields 404.
func (h *MovieHandler) Search(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()

	movies, err := h.Movies.Search(ctx, strings.TrimSpace(c.QueryParam("nombre")))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "error retrieving data"})
	}
	if len(movies) == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no movies matched"})
	}
	return c.JSON(http.StatusOK, toMovieDtos(movies))
}

// publish emits a catalog event after a successful write. Failures are
// logged by the publisher and ignored here; events never fail a request.
func (h *MovieHandler) publish(entity, action string, id uint64, name string, c echo.Context) {
	if h.Events == nil {
		return
	}
	_ = h.Events.PublishCatalogChanged(c.Request().Context(), service.NewCatalogEvent(entity, action, id, name))
}
