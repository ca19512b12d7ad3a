package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"gamewallet/internal/config"
	"gamewallet/internal/logger"
	"gamewallet/internal/repositories"
	"gamewallet/internal/seed"
	"gamewallet/internal/utils"

	"go.uber.org/zap"
	"gorm.io/gorm/clause"
)

func main() {
	_ = config.LoadEnv()
	log := logger.Init()
	defer logger.Sync()

	tenantID := os.Getenv("SEED_TENANT_ID")
	operatorID := config.GetEnv("SEED_OPERATOR_ID", "platform-operator")
	operatorName := config.GetEnv("SEED_OPERATOR_USERNAME", "operator")
	if tenantID == "" {
		log.Fatal("SEED_TENANT_ID must be set in environment")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}
	db, err := repositories.InitDB(cfg.Database)
	if err != nil {
		log.Fatal("database init failed", zap.Error(err))
	}
	defer func() {
		if err := repositories.CloseDB(db); err != nil {
			log.Warn("failed to close database", zap.Error(err))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	operator := seed.TopOperator(operatorID, operatorName)
	if err := db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&operator).Error; err != nil {
		log.Fatal("failed to create operator", zap.Error(err))
	}

	account, created, err := seed.HouseAccount(ctx, repositories.NewLedgerRepository(db), tenantID)
	if err != nil {
		log.Fatal("failed to provision house account", zap.Error(err))
	}
	if created {
		log.Info("house account created", zap.String("account_id", account.ID), zap.String("tenant_id", tenantID))
	} else {
		log.Info("house account already exists", zap.String("account_id", account.ID))
	}

	token, err := utils.GenerateToken(operator, cfg.JWTSecret, config.GetDurationEnv("SEED_TOKEN_TTL", 24*time.Hour))
	if err != nil {
		log.Fatal("failed to sign operator token", zap.Error(err))
	}
	fmt.Println(token)
}
