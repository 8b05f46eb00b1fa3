package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/fusaf/fusaf-service/internal/athlete"
	"github.com/fusaf/fusaf-service/internal/auth"
	"github.com/fusaf/fusaf-service/internal/backup"
	"github.com/fusaf/fusaf-service/internal/config"
	"github.com/fusaf/fusaf-service/internal/email"
	"github.com/fusaf/fusaf-service/internal/export"
	"github.com/fusaf/fusaf-service/internal/handler"
	"github.com/fusaf/fusaf-service/internal/logger"
	"github.com/fusaf/fusaf-service/internal/payment"
	"github.com/fusaf/fusaf-service/internal/scheduler"
	"github.com/fusaf/fusaf-service/internal/service"
)

func main() {
	// .env is optional; real deployments pass APP_* variables directly
	_ = godotenv.Load()

	cfgPath := os.Getenv("APP_CONFIG")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("❌ Config loading failed: %v", err)
	}

	appLogger, err := logger.New(&cfg.Logger)
	if err != nil {
		log.Fatalf("❌ Logger initialization failed: %v", err)
	}
	appLogger = appLogger.With().Str("app", cfg.App.Name).Str("version", cfg.App.Version).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, appLogger); err != nil {
		appLogger.Fatal().Err(err).Msg("❌ Service stopped with error")
	}
	appLogger.Info().Msg("Service stopped")
}

func run(ctx context.Context, cfg *config.Config, appLogger zerolog.Logger) error {
	store, err := openStorage(ctx, cfg, appLogger)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer store.close()

	athletes := athlete.NewStore(appLogger)
	if cfg.Athletes.SeedDemo {
		appLogger.Info().Int("athletes", athlete.Seed(athletes)).Msg("demo athletes seeded")
	}

	mailer, err := email.NewSender(ctx, cfg.Email, appLogger)
	if err != nil {
		return fmt.Errorf("email: %w", err)
	}

	tokens, err := newTokenManager(cfg, appLogger)
	if err != nil {
		return fmt.Errorf("auth: %w", err)
	}

	liqpay := payment.NewClient(cfg.LiqPay, appLogger)
	if !liqpay.Configured() {
		appLogger.Warn().Msg("liqpay keys are not set; paid registrations are disabled")
	}

	var sheets service.SheetsAppender
	if cfg.Sheets.Enabled() {
		w, err := export.NewSheetsWriter(ctx, cfg.Sheets, appLogger)
		if err != nil {
			return fmt.Errorf("sheets: %w", err)
		}
		sheets = w
	}

	backupOpts := []backup.Option{backup.WithAlerts(mailer, cfg.Email.AdminAddress)}
	if cfg.S3.Enabled() {
		uploader, err := backup.NewS3Uploader(ctx, cfg.S3)
		if err != nil {
			return fmt.Errorf("s3: %w", err)
		}
		backupOpts = append(backupOpts, backup.WithUploader(uploader))
	}
	backups := backup.New(store.dumper, athletes, cfg.Backup.Dir, appLogger, backupOpts...)

	payments := service.NewPaymentService(service.PaymentDeps{
		Payments:      store.payments,
		Registrations: store.registrations,
		Tx:            store.tx,
		Gateway:       liqpay,
		Athletes:      athletes,
		Mailer:        mailer,
		TTL:           time.Duration(cfg.LiqPay.PaymentTTL) * time.Minute,
	}, appLogger)

	deps := handler.Deps{
		Pinger:       store.pinger,
		Tokens:       tokens,
		Athletes:     service.NewAthleteService(athletes, appLogger),
		Competitions: service.NewCompetitionService(store.competitions, appLogger),
		Registrations: service.NewRegistrationService(service.RegistrationDeps{
			Competitions:  store.competitions,
			Registrations: store.registrations,
			Payments:      store.payments,
			Tx:            store.tx,
			Athletes:      athletes,
			Gateway:       liqpay,
		}, appLogger),
		Payments:      payments,
		Notifications: service.NewNotificationService(store.notifications, athletes, mailer, cfg.Email.AdminAddress, appLogger),
		Backups:       backups,
		Exports:       service.NewExportService(athletes, store.registrations, sheets, appLogger),
	}

	jobs, err := scheduler.New(appLogger)
	if err != nil {
		return err
	}
	if err := jobs.Every("payments.reconcile", time.Duration(cfg.LiqPay.ReconcileInterval)*time.Second, func(ctx context.Context) error {
		_, err := payments.Reconcile(ctx)
		return err
	}); err != nil {
		return err
	}
	if cfg.Backup.Enabled {
		if err := jobs.Every("backup", time.Duration(cfg.Backup.Interval)*time.Minute, func(ctx context.Context) error {
			_, err := backups.Run(ctx)
			return err
		}); err != nil {
			return err
		}
	}
	jobs.Start()
	defer func() {
		if err := jobs.Shutdown(); err != nil {
			appLogger.Error().Err(err).Msg("scheduler shutdown failed")
		}
	}()

	if cfg.App.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), handler.RequestLogger(appLogger))
	handler.Register(r, deps)

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.App.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		appLogger.Info().Str("addr", srv.Addr).Strs("jobs", jobs.Jobs()).Msg("🚀 Service started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	appLogger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.App.ShutdownTimeout)*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newTokenManager falls back to a per-process random secret outside prod, so
// tokens from cmd/admin-token only work when the secret is configured.
func newTokenManager(cfg *config.Config, appLogger zerolog.Logger) (*auth.Manager, error) {
	secret := cfg.Auth.JWTSecret
	if secret == "" {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, err
		}
		secret = hex.EncodeToString(buf)
		appLogger.Warn().Msg("auth.jwt_secret is empty; using an ephemeral secret")
	}
	return auth.NewManager(secret, cfg.Auth.Issuer, time.Duration(cfg.Auth.TokenTTL)*time.Hour)
}
