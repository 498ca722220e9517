// main wires configuration, storage, the domain services and the HTTP
// surface. Business logic lives in the internal packages; this file only
// composes them and owns the server lifecycle.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"campreg/internal/admin"
	"campreg/internal/artifact"
	cataloghandler "campreg/internal/catalog/handler"
	catalogservice "campreg/internal/catalog/service"
	catalogstore "campreg/internal/catalog/store"
	"campreg/internal/duplicate"
	"campreg/internal/eligibility"
	"campreg/internal/notify"
	"campreg/internal/platform/config"
	"campreg/internal/platform/httpserver"
	"campreg/internal/platform/logger"
	"campreg/internal/platform/metrics"
	"campreg/internal/platform/postgres"
	platformredis "campreg/internal/platform/redis"
	"campreg/internal/pricing"
	reghandler "campreg/internal/registration/handler"
	regservice "campreg/internal/registration/service"
	regstore "campreg/internal/registration/store"
	httptransport "campreg/internal/transport/http"
	wizardhandler "campreg/internal/wizard/handler"
	wizardservice "campreg/internal/wizard/service"
	wizardstore "campreg/internal/wizard/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)
	ctx := context.Background()

	m := metrics.New()

	// Storage: Postgres when configured, seeded in-memory stores otherwise.
	var (
		catalogStore catalogstore.Store
		regStore     regstore.Store
		adminStore   admin.Store
	)
	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
		catalogStore = catalogstore.NewPostgres(db)
		regStore = regstore.NewPostgres(db)
		adminStore = admin.NewPostgres(db)
		log.Info("using postgres storage")
	} else {
		memCatalog := catalogstore.NewMemory()
		catalogstore.SeedDevCatalog(memCatalog)
		catalogStore = memCatalog
		regStore = regstore.NewMemory()

		memAdmins := admin.NewMemory()
		if err := seedDevAdmin(ctx, memAdmins, log); err != nil {
			log.Error("failed to seed dev admin", "error", err)
			os.Exit(1)
		}
		adminStore = memAdmins
		log.Warn("no database configured, using in-memory storage with dev seeds")
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	var sessionStore wizardstore.Store
	if redisClient != nil {
		defer redisClient.Close()
		sessionStore = wizardstore.NewRedis(redisClient.Client, cfg.SessionTTL)
		log.Info("using redis session storage")
	} else {
		sessionStore = wizardstore.NewMemory(cfg.SessionTTL)
	}

	artifacts, err := artifact.NewFileStore(cfg.ArtifactDir)
	if err != nil {
		log.Error("failed to prepare artifact directory", "error", err)
		os.Exit(1)
	}

	var notifier notify.Notifier = notify.Noop{}
	if cfg.TelegramToken != "" {
		tg, err := notify.NewTelegram(cfg.TelegramToken, log)
		if err != nil {
			log.Error("failed to initialize telegram notifier", "error", err)
			os.Exit(1)
		}
		notifier = tg
	}

	tokens := admin.NewTokenService(cfg.JWTSigningKey, cfg.AdminTokenTTL)
	admins := admin.NewService(adminStore, tokens, admin.WithLogger(log))

	registrations := regservice.New(regStore, catalogStore, admins, artifacts,
		regservice.WithLogger(log),
		regservice.WithMetrics(m),
		regservice.WithNotifier(notifier),
	)

	checker := duplicate.New(registrations,
		duplicate.WithQuietPeriod(cfg.DuplicateQuietPeriod),
		duplicate.WithLogger(log),
	)

	wizard := wizardservice.New(
		sessionStore,
		catalogStore,
		pricing.New(pricing.WithLogger(log)),
		eligibility.New(eligibility.WithLogger(log)),
		checker,
		registrations,
		wizardservice.WithLogger(log),
		wizardservice.WithMetrics(m),
	)

	catalog := catalogservice.New(catalogStore)
	if _, err := catalog.Bootstrap(ctx); err != nil {
		log.Error("catalog bootstrap failed", "error", err)
		os.Exit(1)
	}

	router := httptransport.NewRouter(httptransport.Config{
		Logger:  log,
		Metrics: m,
		Handlers: []httptransport.Registrar{
			cataloghandler.New(catalog, log),
			wizardhandler.New(wizard, log),
			reghandler.New(registrations, admins, tokens, log),
		},
		Health: func() error {
			if db != nil {
				if err := db.PingContext(ctx); err != nil {
					return err
				}
			}
			if redisClient != nil {
				return redisClient.Health(ctx)
			}
			return nil
		},
	})

	srv := httpserver.New(cfg.Addr, router)
	log.Info("starting campreg", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

// seedDevAdmin creates one reviewer account and prints its secret, so a local
// instance is usable immediately.
func seedDevAdmin(ctx context.Context, store admin.Store, log *slog.Logger) error {
	secret, err := admin.GenerateSecret()
	if err != nil {
		return err
	}
	hash, err := admin.HashSecret(secret)
	if err != nil {
		return err
	}
	a := admin.Admin{
		ID:             uuid.New(),
		Name:           "admin",
		BankCardNumber: "2202 0000 0000 0001",
		BankCardOwner:  "DEV ADMIN",
		BankName:       "Dev Bank",
		PhoneNumber:    "+7 900 000-00-00",
		SecretHash:     hash,
	}
	if err := store.Save(ctx, a); err != nil {
		return err
	}
	log.Info("seeded dev admin", "name", a.Name, "secret", secret)
	return nil
}
