package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/idunn/internal"
	"github.com/dukerupert/idunn/internal/address"
	"github.com/dukerupert/idunn/internal/billing"
	"github.com/dukerupert/idunn/internal/email"
	"github.com/dukerupert/idunn/internal/events"
	"github.com/dukerupert/idunn/internal/jobs"
	"github.com/dukerupert/idunn/internal/repository"
	"github.com/dukerupert/idunn/internal/service"
	"github.com/dukerupert/idunn/internal/shipping"
	"github.com/dukerupert/idunn/internal/tax"
	"github.com/dukerupert/idunn/internal/telemetry"
	"github.com/dukerupert/idunn/internal/worker"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Migrations run through database/sql since goose needs it. The
	// application itself talks to the pool.
	sqlDB, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return fmt.Errorf("ping database: %w", err)
	}
	if err := internal.RunMigrations(sqlDB); err != nil {
		sqlDB.Close()
		return fmt.Errorf("run migrations: %w", err)
	}
	sqlDB.Close()

	pool, err := pgxpool.New(ctx, cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("create connection pool: %w", err)
	}
	defer pool.Close()

	store := repository.NewStore(pool)
	metrics := telemetry.NewBusinessMetrics("idunn")

	sentryCleanup, err := telemetry.InitSentry(telemetry.SentryConfig{
		DSN:         cfg.Sentry.DSN,
		Enabled:     cfg.Sentry.Enabled,
		Environment: cfg.Sentry.Environment,
		Release:     cfg.Sentry.Release,
		SampleRate:  cfg.Sentry.SampleRate,
		Debug:       cfg.Sentry.Debug,
	}, logger)
	if err != nil {
		return fmt.Errorf("init sentry: %w", err)
	}
	defer sentryCleanup()

	var billingProvider billing.Provider
	if cfg.Stripe.Mock {
		logger.Warn("using mock billing provider")
		billingProvider = billing.NewMockProvider()
	} else {
		billingProvider, err = billing.NewStripeProvider(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret)
		if err != nil {
			return fmt.Errorf("init stripe: %w", err)
		}
	}

	var publisher events.Publisher
	if cfg.Events.NATSUrl != "" {
		natsPub, err := events.NewNATSPublisher(cfg.Events.NATSUrl, logger)
		if err != nil {
			return fmt.Errorf("connect nats: %w", err)
		}
		defer natsPub.Close()
		publisher = natsPub
	} else {
		logger.Info("no NATS url configured, events disabled")
		publisher = events.NewNoopPublisher()
	}

	sender := email.NewSMTPSender(&email.SMTPConfig{
		Host:     cfg.Email.Host,
		Port:     int(cfg.Email.Port),
		Username: cfg.Email.Username,
		Password: cfg.Email.Password,
		From:     cfg.Email.From,
		FromName: cfg.Email.FromName,
	}, logger)
	emailSvc := email.NewService(sender, cfg.Email.From, cfg.Email.FromName)

	shippingProvider := shipping.NewFlatRateProvider(nil, cfg.Shipping.FreeShippingCents)

	var taxCalc tax.Calculator
	if cfg.Tax.Rate > 0 {
		taxCalc = tax.NewPercentageCalculator(cfg.Tax.Rate, cfg.Tax.Jurisdiction)
	} else {
		taxCalc = tax.NewNoTaxCalculator()
	}

	addrValidator := address.NewBasicValidator()
	reservations := service.NewReservationManager(store, logger, metrics, cfg.Inventory.ReservationDuration)
	carts := service.NewCartService(store, reservations, addrValidator, publisher, logger, metrics)
	_ = carts // constructed for its side effects; no HTTP surface wires it yet
	checkouts := service.NewCheckoutService(store, reservations, billingProvider, shippingProvider, taxCalc, publisher, logger, metrics, cfg.Checkout.Expiry)
	orders := service.NewOrderService(store, billingProvider, service.NewDefaultSelector(cfg.Inventory.LocationID), addrValidator, publisher, emailSvc, logger, metrics)

	maintenance := worker.NewWorker([]jobs.Job{
		jobs.NewReservationCleanupJob(reservations, cfg.Worker.BatchSize),
		jobs.NewCheckoutExpiryJob(checkouts, cfg.Worker.BatchSize),
		jobs.NewReservationNotifyJob(store, reservations, emailSvc, logger, cfg.Worker.BatchSize),
		jobs.NewReservationSalvageJob(store, reservations, logger, cfg.Worker.BatchSize),
	}, worker.Config{Interval: cfg.Worker.Interval}, logger, metrics)

	workerErr := make(chan error, 1)
	go func() {
		workerErr <- maintenance.Start(ctx)
	}()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("POST /webhooks/stripe", stripeWebhookHandler(orders, billingProvider, cfg.Stripe.WebhookSecret, logger))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr, "env", cfg.Env)
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}

	if err := <-workerErr; err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped with error", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}
