package router // package router defines how HTTP routes are registered for the API

import (
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/recipe-app-api/internal/config"
	"github.com/iliyamo/recipe-app-api/internal/handler"
	"github.com/iliyamo/recipe-app-api/internal/middleware"
	"github.com/iliyamo/recipe-app-api/internal/service"
)

// Deps holds everything the HTTP surface needs.  Redis and Registry are
// optional: without Redis the rate limiter is disabled, and a nil Registry
// gets a fresh one.
type Deps struct {
	Logger      *slog.Logger
	Timeout     time.Duration
	Users       *service.UserService
	Tags        *service.AttributeService
	Ingredients *service.AttributeService
	Recipes     *service.RecipeService
	RateLimit   config.RateLimitConfig
	Redis       *redis.Client
	Registry    *prometheus.Registry
}

// New builds the Echo instance with the global middleware chain and every
// API route registered.
func New(d Deps) *echo.Echo {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Registry == nil {
		d.Registry = prometheus.NewRegistry()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.HTTPErrorHandler(d.Logger)
	e.Validator = handler.NewRequestValidator()

	// API paths are registered with a trailing slash; normalise requests
	// before routing.
	e.Pre(echomw.AddTrailingSlashWithConfig(echomw.TrailingSlashConfig{
		Skipper: func(c echo.Context) bool {
			return !strings.HasPrefix(c.Request().URL.Path, "/api/")
		},
	}))

	metrics := middleware.NewMetrics(d.Registry)
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLogger(d.Logger))
	e.Use(metrics.Middleware())
	e.Use(echomw.Recover())

	RegisterRoutes(e, metrics)

	opts := handler.Options{Logger: d.Logger, Timeout: d.Timeout}
	limiter := middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Logger)
	auth := middleware.TokenAuth(d.Users, d.Logger)

	RegisterUser(e, handler.NewUserHandler(d.Users, opts), auth, limiter)
	RegisterRecipe(e, recipeHandlers{
		tags:        handler.NewAttributeHandler(d.Tags, opts),
		ingredients: handler.NewAttributeHandler(d.Ingredients, opts),
		recipes:     handler.NewRecipeHandler(d.Recipes, opts),
	}, auth, limiter)
	return e
}

// RegisterRoutes registers routes that do not require authentication:
// the health check and the Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo, m *middleware.Metrics) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", m.Handler())
}
