package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/trajectory/trajectory/internal/config"
	"github.com/trajectory/trajectory/internal/domain/cohort"
	"github.com/trajectory/trajectory/internal/domain/entry"
	"github.com/trajectory/trajectory/internal/domain/events"
	"github.com/trajectory/trajectory/internal/domain/record"
	"github.com/trajectory/trajectory/internal/platform/auth"
	"github.com/trajectory/trajectory/internal/platform/db"
	"github.com/trajectory/trajectory/internal/platform/middleware"
)

// devSecret signs sessions when no AUTH_SECRET is configured in
// development mode. Config validation refuses this in production.
const devSecret = "trajectory-dev-secret-not-for-production"

func main() {
	rootCmd := &cobra.Command{
		Use:   "trajectory-server",
		Short: "ICU trajectory sheet API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(facilityCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migratePool() (*pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.Storage != "postgres" {
		return nil, fmt.Errorf("migrate only applies when STORAGE is \"postgres\" (got %q)", cfg.Storage)
	}
	return db.NewPool(context.Background(), cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the Postgres schema (STORAGE=postgres only)",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Create the schema if it does not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := migratePool()
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := record.NewPGStore(pool).EnsureSchema(context.Background()); err != nil {
				return err
			}
			fmt.Println("Schema is up to date.")
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Report whether the schema exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := migratePool()
			if err != nil {
				return err
			}
			defer pool.Close()

			var exists bool
			err = pool.QueryRow(context.Background(),
				`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'score_record')`,
			).Scan(&exists)
			if err != nil {
				return err
			}
			if exists {
				fmt.Println("Schema present.")
			} else {
				fmt.Println("Schema missing; run \"migrate up\".")
			}
			return nil
		},
	})
	return cmd
}

func facilityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "facility",
		Short: "Inspect facilities",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List facilities known to the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := zerolog.New(os.Stderr)
			repo, cleanup, err := buildStore(context.Background(), cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			facilities, err := repo.Facilities(context.Background())
			if err != nil {
				return err
			}
			for _, f := range facilities {
				fmt.Println(f)
			}
			return nil
		},
	})
	return cmd
}

// buildStore picks the record store from configuration. The returned
// cleanup closes the pool when one was opened.
func buildStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (record.Repository, func(), error) {
	switch cfg.Storage {
	case "postgres":
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, nil, err
		}
		return record.NewPGStore(pool), pool.Close, nil
	default:
		store, err := record.NewCSVStore(cfg.DataDir, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" || os.Getenv("ENV") == "" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	secret := []byte(cfg.AuthSecret)
	if len(secret) == 0 {
		logger.Warn().Msg("AUTH_SECRET not set, using built-in development secret")
		secret = []byte(devSecret)
	}
	credentials := cfg.Credentials()
	if len(credentials) == 0 {
		logger.Warn().Msg("FACILITY_PASSWORDS not set, enabling demo credentials (demo/demo, master/master)")
		credentials = map[string]string{"demo": "demo", cfg.MasterFacility: cfg.MasterFacility}
	}

	// Record store
	ctx := context.Background()
	repo, cleanup, err := buildStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open record store")
	}
	defer cleanup()
	logger.Info().Str("storage", cfg.Storage).Msg("record store ready")

	svc := record.NewService(repo)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Public routes
	login := auth.NewLoginHandler(secret, credentials, cfg.MasterFacility,
		time.Duration(cfg.SessionTTLMinutes)*time.Minute)
	e.POST("/api/v1/login", login.Login)
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Authenticated API
	apiV1 := e.Group("/api/v1", auth.Middleware(secret))
	entry.NewHandler(svc, cfg.ScoreJumpThreshold).RegisterRoutes(apiV1)
	cohort.NewHandler(svc).RegisterRoutes(apiV1)
	events.NewHandler().RegisterRoutes(apiV1)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
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
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
