package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"rent-backend/internal/auth"
	"rent-backend/internal/cache"
	"rent-backend/internal/config"
	"rent-backend/internal/database"
	"rent-backend/internal/db"
	"rent-backend/internal/email"
	"rent-backend/internal/events"
	"rent-backend/internal/handlers"
	"rent-backend/internal/health"
	h "rent-backend/internal/http"
	"rent-backend/internal/logger"
	"rent-backend/internal/middleware"
	"rent-backend/internal/payment"
	"rent-backend/internal/repositories"
	"rent-backend/internal/repositories/memory"
	"rent-backend/internal/scheduler"
	"rent-backend/internal/services"
	"rent-backend/internal/sms"
	"rent-backend/internal/storage"
	"rent-backend/migrations"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "rentmanager",
		Short:         "Rent and utility billing server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	var port int
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), port)
		},
	}
	serve.Flags().IntVar(&port, "port", 0, "Server port (overrides config)")

	root.AddCommand(
		serve,
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply pending database migrations",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withPostgres(cmd.Context(), func(app *appContext) error { return nil })
			},
		},
		newResetTenantsCmd(),
		&cobra.Command{
			Use:   "init-db",
			Short: "Apply migrations and seed the initial electricity rate",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withPostgres(cmd.Context(), func(app *appContext) error {
					return seedInitialRate(cmd.Context(), app)
				})
			},
		},
	)
	return root
}

type appContext struct {
	cfg    *config.Config
	logger *zap.Logger
	pool   *pgxpool.Pool
	store  *repositories.Store
}

func bootstrap(ctx context.Context) (*appContext, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	app := &appContext{cfg: cfg, logger: log}

	if cfg.Store.Driver == "memory" {
		log.Warn("using in-memory store; data is lost on restart")
		app.store = memory.NewStore()
		return app, nil
	}

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	app.pool = pool
	if err := database.NewMigrator(pool, migrations.FS, log).RunMigrations(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	app.store = repositories.NewPostgresStore(pool)
	return app, nil
}

func (a *appContext) close() {
	if a.pool != nil {
		a.pool.Close()
	}
	a.logger.Sync()
}

func withPostgres(ctx context.Context, fn func(app *appContext) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	app, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer app.close()
	if app.pool == nil {
		return errors.New("this command needs store.driver=postgres")
	}
	return fn(app)
}

func seedInitialRate(ctx context.Context, app *appContext) error {
	rates := services.NewRateService(app.store.Rates, app.logger)
	seeded, err := rates.EnsureInitialRate(ctx, decimal.NewFromFloat(app.cfg.Billing.InitialRate))
	if err != nil {
		return fmt.Errorf("seed rate: %w", err)
	}
	if !seeded {
		app.logger.Info("electricity rate already set, nothing to seed")
	}
	return nil
}

func newResetTenantsCmd() *cobra.Command {
	var confirmed bool
	cmd := &cobra.Command{
		Use:   "reset-tenants",
		Short: "Delete every tenant with their readings and payments",
		Long:  "Delete every tenant with their readings and payments. The owner account and the rate history are kept.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !confirmed {
				return errors.New("refusing to delete tenant data without --yes")
			}
			return withPostgres(cmd.Context(), func(app *appContext) error {
				return resetTenants(cmd.Context(), app)
			})
		},
	}
	cmd.Flags().BoolVar(&confirmed, "yes", false, "Confirm deletion")
	return cmd
}

func resetTenants(ctx context.Context, app *appContext) error {
	owner, err := app.store.Users.GetOwner(ctx)
	if err != nil {
		return err
	}
	if owner == nil {
		return errors.New("no owner account; nothing to reset")
	}
	tenants := services.NewTenantService(app.store, services.NewReadingService(app.store.Readings, app.logger), app.logger)
	list, err := tenants.List(ctx, owner)
	if err != nil {
		return err
	}
	for _, t := range list {
		if err := tenants.Delete(ctx, owner, t.ID); err != nil {
			return fmt.Errorf("delete tenant %d: %w", t.ID, err)
		}
	}
	app.logger.Info("tenants reset", zap.Int("deleted", len(list)))
	return nil
}

func runServe(ctx context.Context, port int) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer app.close()
	cfg, log := app.cfg, app.logger
	if port != 0 {
		cfg.Server.Port = port
	}

	// Redis is optional; every cache call is a no-op without it
	var redisPinger health.Pinger
	if cfg.Redis.Addr != "" {
		if err := cache.Init(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); err != nil {
			log.Warn("redis unavailable, caching disabled", zap.Error(err))
		} else {
			redisPinger = health.PingFunc(cache.Ping)
		}
	}

	if cfg.Store.Driver == "memory" {
		if err := seedInitialRate(ctx, app); err != nil {
			return err
		}
	}

	images, err := storage.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init uploads: %w", err)
	}

	var (
		processor payment.Processor
		verifier  handlers.SignatureVerifier
	)
	if cfg.Razorpay.KeyID != "" && cfg.Razorpay.KeySecret != "" {
		rp := payment.NewRazorpayProcessor(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret, cfg.Razorpay.WebhookSecret, log)
		processor, verifier = rp, rp
	} else {
		log.Warn("razorpay keys not set, card payments use the sandbox processor")
		processor = payment.NewSandboxProcessor()
	}

	var smsSender sms.Sender = sms.NewMockSMSService(log)
	if cfg.Reminders.Fast2SMSAPIKey != "" {
		smsSender = sms.NewFast2SMSService(cfg.Reminders.Fast2SMSAPIKey, log)
	}
	var emailSender email.Sender = email.NewLogSender(log)
	if cfg.Reminders.SendGridAPIKey != "" && cfg.Reminders.FromEmail != "" {
		emailSender = email.NewSendGridSender(cfg.Reminders.SendGridAPIKey, cfg.Reminders.FromEmail, cfg.Reminders.FromName, log)
	}

	store := app.store
	jwtManager := auth.NewJWTManager(cfg)
	hub := events.NewHub(log)
	go hub.Run(ctx)

	// Services
	rateService := services.NewRateService(store.Rates, log)
	readingService := services.NewReadingService(store.Readings, log)
	waterBillService := services.NewWaterBillService(store.WaterBills, store.Readings, store.Users, rateService, log)
	billingService := services.NewBillingService(store.Users, store.Payments, readingService, rateService, waterBillService)
	paymentService := services.NewPaymentService(store, billingService, processor, cfg.Billing.Currency, cfg.Billing.ReferencePrefix, log)
	tenantService := services.NewTenantService(store, readingService, log)
	totpService := services.NewTOTPService(store.Users)
	userService := services.NewUserService(store, jwtManager, totpService, log)
	uploadService := services.NewUploadService(store.Tx, readingService, waterBillService, images, log)
	dashboardService := services.NewDashboardService(store, billingService, log)
	receiptService := services.NewReceiptService(paymentService)
	reminderService := services.NewReminderService(store.Users, smsSender, emailSender, log)
	paymentService.Events = hub
	tenantService.Events = hub
	uploadService.Events = hub

	// Handlers
	var dbPinger health.Pinger
	if app.pool != nil {
		dbPinger = app.pool
	}
	uploadsDir := ""
	if cfg.Uploads.Driver == "local" {
		uploadsDir = cfg.Uploads.LocalDir
	}
	router := h.NewRouter(&h.Handlers{
		Auth:      handlers.NewAuthHandler(userService, log),
		TOTP:      handlers.NewTOTPHandler(totpService, log),
		Tenant:    handlers.NewTenantHandler(tenantService, readingService, log),
		Reading:   handlers.NewReadingHandler(uploadService, readingService, log),
		Rate:      handlers.NewRateHandler(rateService, waterBillService, log),
		Payment:   handlers.NewPaymentHandler(paymentService, billingService, receiptService, log),
		Razorpay:  handlers.NewRazorpayHandler(paymentService, verifier, log),
		Dashboard: handlers.NewDashboardHandler(dashboardService, log),
		Reminder:  handlers.NewReminderHandler(reminderService, log),
		Health:    handlers.NewHealthHandler(health.NewHealthChecker(dbPinger, redisPinger)),
		Events:    hub,
	}, middleware.NewAuthMiddleware(jwtManager, store.Users), uploadsDir)

	corsMiddleware := middleware.NewCORS(cfg)
	handler := middleware.PanicRecovery(log)(
		middleware.RequestLogging(log)(corsMiddleware(router)))

	// Reminder schedule
	sched := scheduler.New(log)
	if cfg.Reminders.Enabled {
		err := sched.Add("rent-reminders", cfg.Reminders.Schedule, func(ctx context.Context) error {
			_, err := reminderService.SendDueReminders(ctx)
			return err
		})
		if err != nil {
			return err
		}
		sched.Start()
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("server running", zap.String("addr", srv.Addr), zap.String("store", cfg.Store.Driver))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	sched.Stop(shutdownCtx)
	return srv.Shutdown(shutdownCtx)
}
