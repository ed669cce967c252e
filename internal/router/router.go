// Package router assembles the echo instance: global middleware, the
// drink routes with their guards, and the operational endpoints.
package router

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/coffee-shop-api/internal/config"
	"github.com/iliyamo/coffee-shop-api/internal/handler"
	"github.com/iliyamo/coffee-shop-api/internal/middleware"
)

// Deps are the collaborators the routes are wired to.  Redis, Events and
// DB may be nil: caching, rate limiting, event publishing and the database
// check of /healthz are then skipped.
type Deps struct {
	Store    handler.DrinkStore
	Verifier middleware.TokenVerifier
	Events   handler.EventPublisher
	DB       handler.Pinger
	Redis    *redis.Client
	Log      *zap.Logger

	CORSOrigins []string
	Cache       config.CacheConfig
	RateLimit   config.RateLimitConfig
}

// New builds the echo instance serving the API.
func New(d Deps) *echo.Echo {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.ErrorHandler(d.Log)

	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	e.Use(
		echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}),
		middleware.RequestLogger(d.Log),
		middleware.Recover(d.Log),
		echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType},
		}),
	)

	e.GET("/healthz", handler.Health(d.DB))
	e.GET("/metrics", middleware.Metrics)

	h := handler.NewDrinkHandler(d.Store, d.Events, d.Log)
	RegisterDrinks(e, h, d.Verifier,
		middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Log),
		middleware.NewResponseCache(d.Cache, d.Redis, d.Log),
	)
	return e
}
