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

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jwalitptl/clinic-api/internal/config"
	"github.com/jwalitptl/clinic-api/internal/email"
	authhandler "github.com/jwalitptl/clinic-api/internal/handler/auth"
	clinichandler "github.com/jwalitptl/clinic-api/internal/handler/clinic"
	consenthandler "github.com/jwalitptl/clinic-api/internal/handler/consent"
	"github.com/jwalitptl/clinic-api/internal/handler/health"
	legalhandler "github.com/jwalitptl/clinic-api/internal/handler/legal"
	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/repository/memory"
	"github.com/jwalitptl/clinic-api/internal/repository/postgres"
	"github.com/jwalitptl/clinic-api/internal/router"
	"github.com/jwalitptl/clinic-api/internal/seed"
	"github.com/jwalitptl/clinic-api/internal/service/audit"
	authService "github.com/jwalitptl/clinic-api/internal/service/auth"
	clinicService "github.com/jwalitptl/clinic-api/internal/service/clinic"
	consentService "github.com/jwalitptl/clinic-api/internal/service/consent"
	legalService "github.com/jwalitptl/clinic-api/internal/service/legal"
	"github.com/jwalitptl/clinic-api/internal/service/notification"
	"github.com/jwalitptl/clinic-api/internal/service/registration"
	"github.com/jwalitptl/clinic-api/internal/service/verification"
	"github.com/jwalitptl/clinic-api/pkg/auth"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/messaging/redis"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
	"github.com/jwalitptl/clinic-api/pkg/security"
	"github.com/jwalitptl/clinic-api/pkg/validator"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		JSON:       cfg.Log.Format == "json",
	})

	if err := run(cfg, log); err != nil {
		log.Fatal(err, "api stopped")
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx := context.Background()
	m := metrics.NewMetrics("clinic", prometheus.DefaultRegisterer)
	checks := map[string]health.Pinger{}

	// Initialize storage
	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	checks["database"] = store

	// Attempt limiter: Redis when enabled so every instance shares counters
	var limiter verification.AttemptLimiter
	if cfg.Redis.Enabled {
		client, err := redis.NewClient(ctx, redisConfig(cfg.Redis))
		if err != nil {
			return err
		}
		defer client.Close()
		limiter = verification.NewRedisLimiter(client, cfg.Verification.MaxAttempts, cfg.Verification.AttemptWindow)
		checks["redis"] = health.PingerFunc(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
	} else {
		limiter = verification.NewMemoryLimiter(cfg.Verification.MaxAttempts, cfg.Verification.AttemptWindow)
	}

	// Security primitives
	encryptor, err := security.NewAESEncryptorFromBase64(cfg.Security.EncryptionKey)
	if err != nil {
		return fmt.Errorf("invalid encryption key: %w", err)
	}
	hasher := security.NewBcryptHasher(cfg.Security.BcryptCost)
	tokens := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL)

	// Notification channel
	var sender email.Service
	if cfg.Email.Enabled {
		sender = email.NewSMTPService(email.Config{
			Host:     cfg.Email.Host,
			Port:     cfg.Email.Port,
			Username: cfg.Email.Username,
			Password: cfg.Email.Password,
			From:     cfg.Email.From,
			AppName:  cfg.Email.AppName,
		}, log.With("component", "smtp"))
	} else {
		sender = email.NewLogService(cfg.Email.AppName, log.With("component", "email"))
	}
	dispatcher := notification.NewDispatcher(sender, notification.Config{
		Workers:       cfg.Notification.Workers,
		QueueSize:     cfg.Notification.QueueSize,
		RetryAttempts: cfg.Notification.RetryAttempts,
		RetryDelay:    cfg.Notification.RetryDelay,
		SendTimeout:   cfg.Notification.SendTimeout,
	}, log.With("component", "notification"), m)
	dispatcher.Start()

	// Initialize services
	auditor := audit.NewService(store.Audit())
	clinicSvc := clinicService.NewService(store.Clinics(), time.Minute)
	legalSvc := legalService.NewService(store, auditor)
	consentSvc := consentService.NewService(store, auditor, m)
	verificationSvc := verification.NewService(store, auditor, dispatcher, limiter, m,
		log.With("component", "verification"),
		verification.Config{FrontendBaseURL: cfg.Verification.FrontendBaseURL})
	registrationSvc := registration.NewService(registration.Deps{
		Store:        store,
		Clinics:      clinicSvc,
		Legal:        legalSvc,
		Consent:      consentSvc,
		Verification: verificationSvc,
		Auditor:      auditor,
		Notifier:     dispatcher,
		Hasher:       hasher,
		Encryptor:    encryptor,
		Metrics:      m,
		Logger:       log.With("component", "registration"),
	})
	authSvc := authService.NewService(store.Users(), tokens, hasher, auditor)

	if cfg.Database.Driver == config.DriverMemory {
		if err := seed.Run(ctx, store, legalSvc, log.With("component", "seed")); err != nil {
			return fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	// Setup router
	validator.RegisterBindingValidators()
	r := router.NewRouter(
		middleware.NewAuthMiddleware(tokens, consentSvc, log),
		router.Handlers{
			Health:  health.NewHandler(checks, prometheus.DefaultGatherer),
			Auth:    authhandler.NewHandler(registrationSvc, verificationSvc, authSvc, log),
			Clinic:  clinichandler.NewHandler(clinicSvc, log),
			Legal:   legalhandler.NewHandler(legalSvc, log),
			Consent: consenthandler.NewHandler(consentSvc, log),
		},
		log,
		router.RouterConfig{
			RateLimit:      cfg.RateLimit.RPS,
			RateBurst:      cfg.RateLimit.Burst,
			CORSConfig:     middleware.DefaultCORSConfig(cfg.CORS.AllowOrigins...),
			RequestTimeout: cfg.Server.WriteTimeout,
			MaxBodyBytes:   cfg.Server.MaxBodyBytes,
			MetricsPrefix:  "clinic_http",
			Registerer:     prometheus.DefaultRegisterer,
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("starting server", "port", cfg.Server.Port, "driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return fmt.Errorf("failed to start server: %w", err)
	case <-quit:
	}
	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(err, "server forced to shutdown")
	}
	if err := dispatcher.Shutdown(shutdownCtx); err != nil {
		log.Error(err, "pending notifications dropped")
	}

	log.Info("server exited properly")
	return nil
}

func openStore(cfg *config.Config) (repository.Store, func(), error) {
	if cfg.Database.Driver == config.DriverMemory {
		return memory.NewStore(), func() {}, nil
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return postgres.NewStore(db), func() { db.Close() }, nil
}

func redisConfig(c config.RedisConfig) redis.Config {
	return redis.Config{
		URL:          c.URL,
		MaxRetries:   c.MaxRetries,
		RetryBackoff: c.RetryBackoff,
		PoolSize:     c.PoolSize,
		MinIdleConns: c.MinIdleConns,
	}
}
