package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/movie-catalog-api/internal/config"
	"github.com/iliyamo/movie-catalog-api/internal/database"
	"github.com/iliyamo/movie-catalog-api/internal/handler"
	"github.com/iliyamo/movie-catalog-api/internal/middleware"
	"github.com/iliyamo/movie-catalog-api/internal/queue"
	"github.com/iliyamo/movie-catalog-api/internal/repository"
	"github.com/iliyamo/movie-catalog-api/internal/router"
	"github.com/iliyamo/movie-catalog-api/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer func() { _ = db.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := database.EnsureSchema(ctx, db); err != nil {
		cancel()
		log.Fatalf("schema: %v", err)
	}
	cancel()

	// Redis backs the response cache and the rate limiter; both degrade to
	// pass-throughs when the client is nil.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; response cache and rate limiting disabled")
	}
	cache := middleware.ResponseCache(config.LoadCacheConfig(), rdb)
	limiter := middleware.RateLimit(config.LoadRateLimitConfig(), rdb)

	movies := repository.NewMovieRepo(db)
	categories := repository.NewCategoryRepo(db)
	users := repository.NewUserRepo(db)
	events := service.NewAMQPPublisher()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{AllowOrigins: cfg.CORSOrigins}))
	e.Use(limiter)

	router.RegisterRoutes(e)
	router.RegisterMovies(e, handler.NewMovieHandler(movies, categories, events), cfg.JWTSecret, cache)
	router.RegisterCategories(e, handler.NewCategoryHandler(categories, events), cfg.JWTSecret, cache)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users), cfg.JWTSecret)

	// Audit consumer; keeps reconnecting on its own.
	go func() {
		if err := queue.StartCatalogConsumer(); err != nil {
			log.Printf("catalog consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
