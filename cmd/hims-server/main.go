package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/hims/hims/internal/config"
	"github.com/hims/hims/internal/domain/admin"
	"github.com/hims/hims/internal/domain/admission"
	"github.com/hims/hims/internal/domain/billing"
	"github.com/hims/hims/internal/domain/diet"
	"github.com/hims/hims/internal/domain/pharmacy"
	"github.com/hims/hims/internal/domain/ward"
	"github.com/hims/hims/internal/platform/auth"
	"github.com/hims/hims/internal/platform/db"
	"github.com/hims/hims/internal/platform/middleware"
)

// wardSourceAdapter adapts the ward service to the admission.WardSource
// interface, avoiding a circular import between the two packages.
type wardSourceAdapter struct {
	wards *ward.Service
}

func (a *wardSourceAdapter) Ward(ctx context.Context, wardID uuid.UUID) (*admission.WardRef, error) {
	w, err := a.wards.GetWard(ctx, wardID)
	if err != nil {
		return nil, err
	}
	return &admission.WardRef{ID: w.ID, Name: w.Name, DailyRate: w.DailyRate}, nil
}

func (a *wardSourceAdapter) AssignBed(ctx context.Context, bedID uuid.UUID) error {
	return a.wards.AssignBed(ctx, bedID)
}

func (a *wardSourceAdapter) ReleaseBed(ctx context.Context, bedID uuid.UUID) error {
	return a.wards.ReleaseBed(ctx, bedID)
}

// admissionSourceAdapter adapts the admission service to the
// billing.AdmissionSource interface.
type admissionSourceAdapter struct {
	admissions *admission.Service
}

func (a *admissionSourceAdapter) Info(ctx context.Context, admissionID uuid.UUID) (*billing.AdmissionInfo, error) {
	adm, err := a.admissions.Get(ctx, admissionID)
	if err != nil {
		return nil, err
	}
	ref, err := a.admissions.WardFor(ctx, adm)
	if err != nil {
		return nil, err
	}
	return &billing.AdmissionInfo{
		AdmissionID:  adm.ID,
		MRN:          adm.MRN,
		PatientName:  adm.PatientName,
		WardName:     ref.Name,
		DailyRate:    ref.DailyRate,
		AdmittedAt:   adm.AdmittedAt,
		DischargedAt: adm.DischargedAt,
	}, nil
}

func (a *admissionSourceAdapter) Discharge(ctx context.Context, admissionID uuid.UUID, at time.Time) error {
	_, err := a.admissions.Discharge(ctx, admissionID, at)
	return err
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "hims-server",
		Short: "Hospital Information Management API Server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HIMS API server",
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

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if dir == "" {
				dir = cfg.MigrationsDir
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "", "Path to migrations directory (defaults to MIGRATIONS_DIR)")
	cmd.AddCommand(upCmd)

	// migrate status
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if dir == "" {
				dir = cfg.MigrationsDir
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
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
	statusCmd.Flags().String("dir", "", "Path to migrations directory (defaults to MIGRATIONS_DIR)")
	cmd.AddCommand(statusCmd)

	return cmd
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

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Repositories
	wardRepo := ward.NewRepo(pool)
	admissionRepo := admission.NewRepo(pool)
	billingRepo := billing.NewRepo(pool)
	pharmacyRepo := pharmacy.NewRepo(pool)
	dietRepo := diet.NewRepo(pool)
	userRepo := admin.NewUserRepo(pool)
	settingRepo := admin.NewSettingRepo(pool)
	auditRepo := admin.NewAuditRepo(pool)
	reportRepo := admin.NewReportRepo(pool)

	// Services
	wardSvc := ward.NewService(wardRepo)
	admissionSvc := admission.NewService(admissionRepo, &wardSourceAdapter{wards: wardSvc})
	billingSvc := billing.NewService(billingRepo, billing.NewTxRunner(pool), &admissionSourceAdapter{admissions: admissionSvc})
	pharmacySvc := pharmacy.NewService(pharmacyRepo, pharmacy.NewTxRunner(pool))
	dietSvc := diet.NewService(dietRepo)
	adminSvc := admin.NewService(userRepo, settingRepo, auditRepo, reportRepo,
		[]byte(cfg.JWTSecret), time.Duration(cfg.TokenTTLHours)*time.Hour)

	// Billing defaults come from settings, falling back to the env config.
	discount := decimal.NewFromFloat(cfg.DefaultDiscount)
	tax := decimal.NewFromFloat(cfg.DefaultTaxPct)
	if d, err := adminSvc.PercentSetting(ctx, admin.SettingDefaultDiscountPercent, discount); err == nil {
		discount = d
	}
	if t, err := adminSvc.PercentSetting(ctx, admin.SettingDefaultTaxPercent, tax); err == nil {
		tax = t
	}
	billingSvc.SetDefaultPercents(discount, tax)

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
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Audit middleware — mutating /api requests are persisted by the admin domain.
	auditRecorder := middleware.AuditRecorderFunc(func(entry middleware.AuditEntry) error {
		detail := fmt.Sprintf("%s %s -> %d", entry.Method, entry.Path, entry.StatusCode)
		return adminSvc.RecordAudit(context.Background(), entry.Actor, entry.Action, entry.Entity, "", detail)
	})
	e.Use(middleware.Audit(logger, auditRecorder))

	// API groups. Login lives on the public group; everything else requires a
	// valid token.
	public := e.Group("/api")
	api := e.Group("/api")
	if cfg.IsDev() {
		api.Use(auth.DevAuthMiddleware())
	} else {
		api.Use(auth.Middleware([]byte(cfg.JWTSecret)))
	}

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	public.Use(middleware.RateLimit(rateLimitCfg))
	api.Use(middleware.RateLimit(rateLimitCfg))
	api.Use(middleware.RequestTimeout(time.Duration(cfg.RequestTimeout) * time.Second))
	api.Use(middleware.BodyLimit(cfg.BodyLimit))

	// Domain routes
	ward.NewHandler(wardSvc).RegisterRoutes(api)
	admission.NewHandler(admissionSvc).RegisterRoutes(api)
	billing.NewHandler(billingSvc).RegisterRoutes(api)
	pharmacy.NewHandler(pharmacySvc).RegisterRoutes(api)
	diet.NewHandler(dietSvc).RegisterRoutes(api)
	admin.NewHandler(adminSvc).RegisterRoutes(public, api)

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

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
