package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hepacheck/hepacheck/internal/config"
	"github.com/hepacheck/hepacheck/internal/domain/entry"
	"github.com/hepacheck/hepacheck/internal/platform/auth"
	"github.com/hepacheck/hepacheck/internal/platform/db"
	"github.com/hepacheck/hepacheck/internal/platform/events"
	"github.com/hepacheck/hepacheck/internal/platform/middleware"
	"github.com/hepacheck/hepacheck/internal/platform/reporting"
	"github.com/hepacheck/hepacheck/internal/platform/telemetry"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "hepacheck-server",
		Short: "HepaCheck liver fibrosis and insulin resistance scoring API",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(computeCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the scoring API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg == nil || cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	if cfg != nil {
		if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && lvl != zerolog.NoLevel {
			logger = logger.Level(lvl)
		}
	}
	return logger
}

// store bundles the entry repository with the read-side helpers that share
// its connection.
type store struct {
	kind    string
	repo    entry.Repository
	querier reporting.Querier
	checker db.Checker
	close   func()
}

func openStore(ctx context.Context, cfg *config.Config) (*store, error) {
	kind, err := cfg.StoreKind()
	if err != nil {
		return nil, err
	}
	switch kind {
	case config.StorePostgres:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, err
		}
		return &store{
			kind:    kind,
			repo:    entry.NewRepoPG(pool),
			querier: reporting.PGQuerier(pool),
			checker: db.PGChecker(pool),
			close:   pool.Close,
		}, nil
	default:
		conn, err := db.OpenSQLite(ctx, cfg.SQLitePath())
		if err != nil {
			return nil, err
		}
		return &store{
			kind:    kind,
			repo:    entry.NewRepoSQLite(conn),
			querier: reporting.SQLQuerier(conn),
			checker: db.SQLChecker(conn),
			close:   func() { _ = conn.Close() },
		}, nil
	}
}

func newPublisher(cfg *config.Config, logger zerolog.Logger) events.Publisher {
	if !cfg.EventsEnabled() {
		return events.NoopPublisher{}
	}
	logger.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("publishing entry events")
	return events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
}

// newServer builds the HTTP surface over an open store and service.
func newServer(cfg *config.Config, st *store, svc *entry.Service, metrics *telemetry.Metrics, logger zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware. Recovery sits inside the logger so panics are
	// logged with their final status.
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID", auth.APIKeyHeader},
	}))
	e.Use(metrics.Middleware())
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout, "/metrics"))

	authMW := auth.Middleware(auth.Config{APIKey: cfg.APIKey, SigningKey: []byte(cfg.JWTSecret)})
	rateLimit := middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	})

	// Unauthenticated endpoints
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "HepaCheck backend running"})
	})
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "version": version})
	})
	e.GET("/health/db", db.HealthHandler(st.checker))
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	// Scoring API. Auth runs first so the rate limiter can key on the token
	// subject.
	scores := e.Group("/scores", authMW, rateLimit)
	entry.NewHandler(svc, cfg.HistoryDefaultLimit).RegisterRoutes(scores)

	apiV1 := e.Group("/api/v1", authMW, rateLimit)
	reporting.NewHandler(st.querier).RegisterRoutes(apiV1)

	return e
}

func runServer() error {
	// Config
	cfg, err := config.Load()
	if err != nil {
		fallback := newLogger(nil)
		fallback.Fatal().Err(err).Msg("failed to load config")
	}
	logger := newLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	// Store
	ctx := context.Background()
	st, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open entry store")
	}
	defer st.close()
	logger.Info().Str("store", st.kind).Msg("connected to entry store")

	publisher := newPublisher(cfg, logger)
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn().Err(err).Msg("closing event publisher")
		}
	}()

	metrics := telemetry.NewMetrics()

	svc := entry.NewService(st.repo)
	svc.SetPublisher(publisher)
	svc.SetMetrics(metrics)
	svc.SetLogger(logger.With().Str("component", "entries").Logger())

	e := newServer(cfg, st, svc, metrics, logger)

	// Start server
	addr := ":" + cfg.Port
	go func() {
		logger.Info().Str("addr", addr).Str("version", version).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}
