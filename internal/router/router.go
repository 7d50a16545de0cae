// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-catalog-api/internal/handler"
	"github.com/iliyamo/movie-catalog-api/internal/middleware"
	"github.com/iliyamo/movie-catalog-api/internal/repository"
)

// RegisterRoutes registers routes that carry no domain logic. Currently it
// exposes only the health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterMovies registers the movie endpoints under /api/peliculas. Read
// endpoints are anonymous and wrapped by the response cache; write
// endpoints require an admin token. Static segments (Buscar,
// GetPeliculasEnCategoria) are routed before the :id parameter by echo's
// router, so the legacy paths keep working.
func RegisterMovies(e *echo.Echo, h *handler.MovieHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	read := e.Group("/api/peliculas", cache)
	read.GET("", h.List)
	read.GET("/:id", h.Get)
	read.GET("/GetPeliculasEnCategoria/:categoriaId", h.ListByCategory)
	read.GET("/Buscar", h.Search)

	admin := e.Group("/api/peliculas",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(repository.RoleAdmin))
	admin.POST("", h.Create)
	admin.PATCH("/:id", h.Patch)
	admin.DELETE("/:id", h.Delete)
}

// RegisterCategories registers the category endpoints under /api/categorias
// with the same access split as movies.
func RegisterCategories(e *echo.Echo, h *handler.CategoryHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	read := e.Group("/api/categorias", cache)
	read.GET("", h.List)
	read.GET("/:id", h.Get)

	admin := e.Group("/api/categorias",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(repository.RoleAdmin))
	admin.POST("", h.Create)
	admin.PATCH("/:id", h.Patch)
	admin.DELETE("/:id", h.Delete)
}

// RegisterAuth registers the user endpoints under /api/usuarios.
// Registration and login are anonymous; listing and fetching users is
// admin only.
func RegisterAuth(e *echo.Echo, h *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/api/usuarios")
	g.POST("/registro", h.Register)
	g.POST("/login", h.Login)

	admin := e.Group("/api/usuarios",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(repository.RoleAdmin))
	admin.GET("", h.List)
	admin.GET("/:id", h.Get)
}
