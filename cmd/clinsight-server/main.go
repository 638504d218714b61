package main

import (
	"context"
	"encoding/json"
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

	"github.com/clinsight/clinsight/internal/config"
	"github.com/clinsight/clinsight/internal/domain/lab"
	"github.com/clinsight/clinsight/internal/domain/patient"
	"github.com/clinsight/clinsight/internal/domain/treatment"
	"github.com/clinsight/clinsight/internal/platform/auth"
	"github.com/clinsight/clinsight/internal/platform/db"
	"github.com/clinsight/clinsight/internal/platform/middleware"
	"github.com/clinsight/clinsight/internal/platform/reporting"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinsight-server",
		Short: "Clinical reporting API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(reportCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the reporting API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	// migrate up
	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			pool, cleanup, err := connect()
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := context.Background()
			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s) successfully.\n", count)

			// Constraints come after file migrations so freshly created
			// tables get their keys in the same run.
			logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
			added, err := db.NewGuard(pool, logger).Apply(ctx)
			if err != nil {
				return fmt.Errorf("constraint application failed: %w", err)
			}
			fmt.Printf("Applied %d constraint(s).\n", added)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	// migrate status
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			pool, cleanup, err := connect()
			if err != nil {
				return err
			}
			defer cleanup()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(context.Background())
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	// migrate constraints
	cmd.AddCommand(&cobra.Command{
		Use:   "constraints",
		Short: "Apply reporting-schema integrity constraints",
		Long: "Adds the unique and foreign-key constraints the bulk import leaves out, " +
			"rewriting mismatched key column types first. Safe to re-run.",
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, cleanup, err := connect()
			if err != nil {
				return err
			}
			defer cleanup()

			logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
			guard := db.NewGuard(pool, logger)
			added, err := guard.Apply(context.Background())
			if err != nil {
				return fmt.Errorf("constraint application failed: %w", err)
			}
			fmt.Printf("Applied %d constraint(s); the rest were already in place.\n", added)
			return nil
		},
	})

	return cmd
}

func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run data checks",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "quality",
		Short: "Report lab tests with missing or invalid results",
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, cleanup, err := connect()
			if err != nil {
				return err
			}
			defer cleanup()

			svc := lab.NewService(lab.NewSampleRepoPG(pool), lab.NewTestRepoPG(pool))
			report, err := svc.RunQualityChecks(context.Background())
			if err != nil {
				return fmt.Errorf("quality checks failed: %w", err)
			}

			fmt.Printf("Tests with NULL result: %d\n", report.NullResults)
			fmt.Printf("Tests with missing or invalid result: %d\n", len(report.InvalidResults))
			for _, t := range report.InvalidResults {
				result := "NULL"
				if t.Result != nil {
					result = *t.Result
				}
				fmt.Printf("  test %d (sample %d): %s\n", t.ID, t.SampleID, result)
			}
			return nil
		},
	})

	return cmd
}

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Run reporting measures",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List available measures",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, m := range reporting.PredefinedMeasures {
				fmt.Printf("%-32s %s\n", m.ID, m.Description)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "run <measure-id>",
		Short: "Evaluate a measure and print its rows as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			measure := reporting.FindMeasure(args[0])
			if measure == nil {
				return fmt.Errorf("unknown measure %q, see 'report list'", args[0])
			}

			pool, cleanup, err := connect()
			if err != nil {
				return err
			}
			defer cleanup()

			report, err := reporting.Evaluate(context.Background(), pool, measure)
			if err != nil {
				return fmt.Errorf("measure %s failed: %w", measure.ID, err)
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	})

	return cmd
}

// connect loads config and opens a pool for one-shot CLI commands.
func connect() (*pgxpool.Pool, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	pool, err := db.NewPool(context.Background(), cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, nil, err
	}
	return pool, pool.Close, nil
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
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

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Integrity constraints are applied on every start so a database restored
	// from a raw import converges without a separate operator step.
	guard := db.NewGuard(pool, logger)
	added, err := guard.Apply(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to apply integrity constraints")
	}
	if added > 0 {
		logger.Info().Int("added", added).Msg("integrity constraints applied")
	}

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Auth middleware
	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			SigningKey: []byte(cfg.AuthSigningKey),
		}))
	}

	// API group
	apiV1 := e.Group("/api/v1")

	// Rate limiting middleware
	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// -- Register Domain Handlers --

	// Patient domain
	patientRepo := patient.NewRepoPG(pool)
	patientSvc := patient.NewService(patientRepo)
	patientHandler := patient.NewHandler(patientSvc)
	patientHandler.RegisterRoutes(apiV1)

	// Lab domain (samples, tests, data-quality checks)
	sampleRepo := lab.NewSampleRepoPG(pool)
	testRepo := lab.NewTestRepoPG(pool)
	labSvc := lab.NewService(sampleRepo, testRepo)
	labHandler := lab.NewHandler(labSvc)
	labHandler.RegisterRoutes(apiV1)

	// Treatment domain
	treatmentRepo := treatment.NewRepoPG(pool)
	treatmentSvc := treatment.NewService(treatmentRepo)
	treatmentHandler := treatment.NewHandler(treatmentSvc)
	treatmentHandler.RegisterRoutes(apiV1)

	// Reporting framework
	reportHandler := reporting.NewHandler(pool)
	reportHandler.RegisterRoutes(apiV1)

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
