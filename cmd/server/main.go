// Package main is the entry point of the wallet ledger service.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gamewallet/internal/config"
	"gamewallet/internal/handlers"
	"gamewallet/internal/logger"
	"gamewallet/internal/metrics"
	"gamewallet/internal/middleware"
	"gamewallet/internal/repositories"
	"gamewallet/internal/repositories/cache"
	"gamewallet/internal/repositories/memory"
	"gamewallet/internal/seed"
	"gamewallet/internal/services/audit"
	"gamewallet/internal/services/ledger"
	"gamewallet/internal/services/rollback"
	"gamewallet/internal/services/transfer"
	"gamewallet/internal/utils"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

const version = "1.0.0"

func main() {
	envErr := config.LoadEnv()
	log := logger.Init()
	defer logger.Sync()
	if envErr != nil {
		log.Debug("no .env file loaded", zap.Error(envErr))
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}
	checks := map[string]handlers.HealthCheck{}

	var (
		repo   repositories.LedgerRepository
		actors repositories.ActorRepository
	)
	switch cfg.StorageDriver {
	case "memory":
		log.Warn("using in-memory storage, balances are lost on restart")
		store := memory.NewLedgerStore()
		operator := seed.TopOperator(config.GetEnv("SEED_OPERATOR_ID", "platform-operator"), "operator")
		if tenantID := config.GetEnv("SEED_TENANT_ID", ""); tenantID != "" {
			account, _, err := seed.HouseAccount(context.Background(), store, tenantID)
			if err != nil {
				log.Fatal("seeding failed", zap.Error(err))
			}
			token, err := utils.GenerateToken(operator, cfg.JWTSecret, 24*time.Hour)
			if err != nil {
				log.Fatal("failed to sign operator token", zap.Error(err))
			}
			log.Info("seeded memory store", zap.String("house_account", account.ID), zap.String("operator_token", token))
		}
		repo = store
		actors = memory.NewActorStore(operator)
	default:
		db, err := repositories.InitDB(cfg.Database)
		if err != nil {
			log.Fatal("database init failed", zap.Error(err))
		}
		defer func() {
			if err := repositories.CloseDB(db); err != nil {
				log.Warn("failed to close database", zap.Error(err))
			}
		}()
		sqlDB, err := db.DB()
		if err != nil {
			log.Fatal("database handle unavailable", zap.Error(err))
		}
		checks["database"] = sqlDB.PingContext
		repo = repositories.NewLedgerRepository(db)
		actors = repositories.NewActorRepository(db)
		log.Info("connected to database", zap.String("host", cfg.Database.Host))
	}

	var entryCache ledger.EntryCache
	if cfg.Redis.Enabled {
		client := cache.NewRedisClient(&cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ec := cache.NewEntryCache(client, cfg.Redis.EntryTTL)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := ec.HealthCheck(ctx)
		cancel()
		if err != nil {
			// the journal stays authoritative, run without the cache
			log.Warn("redis unavailable, entry cache disabled", zap.Error(err))
			_ = ec.Close()
		} else {
			entryCache = ec
			checks["redis"] = ec.HealthCheck
			defer ec.Close()
		}
	}

	var sink audit.Sink = audit.NoopSink{}
	if len(cfg.Kafka.Brokers) > 0 {
		ks := audit.NewKafkaSink(audit.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic), cfg.Kafka.Buffer, log.Named("audit"))
		defer func() {
			if err := ks.Close(); err != nil {
				log.Warn("failed to close audit sink", zap.Error(err))
			}
		}()
		sink = ks
	}

	collector := metrics.NewLedgerCollector(nil)
	poster := ledger.NewPoster(repo, ledger.Config{
		MaxAttempts:    cfg.Ledger.MaxAttempts,
		RetryBaseDelay: cfg.Ledger.RetryBaseDelay,
	}, collector, log.Named("ledger"))
	journal := ledger.NewJournal(repo, entryCache, log.Named("journal"))

	ledgerHandler := handlers.NewLedgerHandler(
		transfer.NewService(repo, poster, journal, sink, collector, log.Named("transfer")),
		rollback.NewService(poster, journal, sink, rollback.Config{
			NegativeBalanceTenants: cfg.Ledger.NegativeRollbackTenants,
		}, collector, log.Named("rollback")),
		journal,
		actors,
		log.Named("http"),
	)

	app := fiber.New(fiber.Config{
		AppName:      "gamewallet",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})
	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(metrics.HTTPMiddleware(nil))

	handlers.SetupRoutes(app, handlers.Routes{
		Ledger: ledgerHandler,
		Health: handlers.NewHealthHandler(version, checks),
		Auth:   middleware.NewAuthMiddleware(cfg.JWTSecret, log.Named("auth")),
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("server stopped", zap.Error(err))
		}
	}()
	log.Info("server started", zap.String("port", cfg.Port), zap.String("env", cfg.Env))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	if err := app.ShutdownWithTimeout(15 * time.Second); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
