package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-catalog-api/internal/repository"
	"github.com/iliyamo/movie-catalog-api/internal/service"
)

// maxCategoryName bounds the category name length on the wire.
const maxCategoryName = 100

// CategoryHandler serves the /api/categorias endpoints.
type CategoryHandler struct {
	Categories CategoryStore
	Events     service.CatalogPublisher
}

func NewCategoryHandler(categories CategoryStore, events service.CatalogPublisher) *CategoryHandler {
	if categories == nil {
		panic("nil store passed to NewCategoryHandler")
	}
	return &CategoryHandler{Categories: categories, Events: events}
}

type categoryDto struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

type categoryReq struct {
	Name string `json:"name"`
}

func toCategoryDto(c *repository.Category) categoryDto {
	return categoryDto{ID: c.ID, Name: c.Name}
}

// validCategoryName trims the name and checks the required / max-length
// rules. It returns the cleaned name and an error message for the client.
func validCategoryName(raw string) (string, string) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", "name is required"
	}
	if utf8.RuneCountInString(name) > maxCategoryName {
		return "", fmt.Sprintf("name must be at most %d characters", maxCategoryName)
	}
	return name, ""
}

// List handles GET /api/categorias (anonymous).
func (h *CategoryHandler) List(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()

	cats, err := h.Categories.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load categories"})
	}
	out := make([]categoryDto, 0, len(cats))
	for _, cat := range cats {
		out = append(out, toCategoryDto(cat))
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /api/categorias/:id (anonymous).
func (h *CategoryHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	cat, err := h.Categories.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "category not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load category"})
	}
	return c.JSON(http.StatusOK, toCategoryDto(cat))
}

// Create handles POST /api/categorias (admin only). A duplicate name
// yields 409.
func (h *CategoryHandler) Create(c echo.Context) error {
	var req categoryReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	name, msg := validCategoryName(req.Name)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	cat := &repository.Category{Name: name}
	if err := h.Categories.Create(ctx, cat); err != nil {
		if errors.Is(err, repository.ErrDuplicateName) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "a category with this name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not save category"})
	}

	h.publish("category", "created", cat.ID, cat.Name, c)

	c.Response().Header().Set(echo.HeaderLocation, fmt.Sprintf("/api/categorias/%d", cat.ID))
	return c.JSON(http.StatusCreated, toCategoryDto(cat))
}

// Patch handles PATCH /api/categorias/:id (admin only).
func (h *CategoryHandler) Patch(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req categoryReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	name, msg := validCategoryName(req.Name)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	cat := &repository.Category{ID: id, Name: name}
	if err := h.Categories.Update(ctx, cat); err != nil {
		switch {
		case errors.Is(err, repository.ErrCategoryNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "category not found"})
		case errors.Is(err, repository.ErrDuplicateName):
			return c.JSON(http.StatusConflict, echo.Map{"error": "a category with this name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update category"})
	}

	h.publish("category", "updated", id, name, c)
	return c.NoContent(http.StatusNoContent)
}

// Delete handles DELETE /api/categorias/:id (admin only).
func (h *CategoryHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	cat, err := h.Categories.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "category not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load category"})
	}
	if err := h.Categories.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "category not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not delete category"})
	}

	h.publish("category", "deleted", id, cat.Name, c)
	return c.NoContent(http.StatusNoContent)
}

func (h *CategoryHandler) publish(entity, action string, id uint64, name string, c echo.Context) {
	if h.Events == nil {
		return
	}
	_ = h.Events.PublishCatalogChanged(c.Request().Context(), service.NewCatalogEvent(entity, action, id, name))
}
