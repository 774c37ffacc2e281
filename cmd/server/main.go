package main // Entry point package

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/iliyamo/recipe-app-api/internal/config"
	"github.com/iliyamo/recipe-app-api/internal/database"
	"github.com/iliyamo/recipe-app-api/internal/logging"
	"github.com/iliyamo/recipe-app-api/internal/queue"
	"github.com/iliyamo/recipe-app-api/internal/repository"
	"github.com/iliyamo/recipe-app-api/internal/repository/memory"
	"github.com/iliyamo/recipe-app-api/internal/router"
	"github.com/iliyamo/recipe-app-api/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, config.Usage())
		os.Exit(2)
	}
	logger := logging.New(cfg.Env, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	st, closeStore, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	var events service.EventPublisher
	if cfg.EventsEnabled {
		pub := queue.NewPublisher(cfg.RabbitMQURL)
		defer func() { _ = pub.Close() }()
		events = pub
		consumer := queue.NewConsumer(cfg.RabbitMQURL, envOr("RECIPE_EVENTS_LOG", "recipe_events.log"), logger)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("recipe event consumer stopped", slog.String("error", err.Error()))
			}
		}()
	}

	// Redis backs the rate limiter only; the API keeps serving without it.
	rl := config.LoadRateLimitConfig()
	rdb, err := config.NewRedisClient(ctx, config.LoadRedisConfig())
	if err != nil {
		logger.Warn("rate limiting disabled", slog.String("error", err.Error()))
	} else {
		defer func() { _ = rdb.Close() }()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	tags := service.NewAttributeService(st.tags)
	ingredients := service.NewAttributeService(st.ingredients)
	e := router.New(router.Deps{
		Logger:      logger,
		Timeout:     cfg.RequestTimeout,
		Users:       service.NewUserService(st.users, st.tokens, cfg.BcryptCost),
		Tags:        tags,
		Ingredients: ingredients,
		Recipes:     service.NewRecipeService(st.recipes, st.tags, st.ingredients, events, logger),
		RateLimit:   rl,
		Redis:       rdb,
		Registry:    reg,
	})

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", slog.String("addr", addr), slog.String("env", cfg.Env), slog.String("store", cfg.Store))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

type stores struct {
	users       service.UserStore
	tokens      service.TokenStore
	tags        service.AttributeStore
	ingredients service.AttributeStore
	recipes     service.RecipeStore
}

// openStores selects the persistence backend.  MySQL is migrated to the
// latest schema before use.
func openStores(ctx context.Context, cfg config.Config, logger *slog.Logger) (stores, func(), error) {
	if cfg.Store == config.StoreMemory {
		logger.Warn("using in-memory store; data is lost on restart")
		m := memory.NewStore()
		return stores{
			users:       m.Users(),
			tokens:      m.Tokens(),
			tags:        m.Tags(),
			ingredients: m.Ingredients(),
			recipes:     m.Recipes(),
		}, func() {}, nil
	}

	db, err := database.Open(ctx, database.DSN(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName))
	if err != nil {
		return stores{}, nil, err
	}
	if err := database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return stores{}, nil, err
	}
	return stores{
		users:       repository.NewUserRepo(db),
		tokens:      repository.NewTokenRepo(db),
		tags:        repository.NewTagRepo(db),
		ingredients: repository.NewIngredientRepo(db),
		recipes:     repository.NewRecipeRepo(db),
	}, func() { _ = db.Close() }, nil
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}
