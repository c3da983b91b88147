package common

import (
	"context"
	"log"
	"strings"

	"github.com/network-goods-institute/index-wallets-backend/internal/api"
	"github.com/network-goods-institute/index-wallets-backend/internal/database"
	"github.com/network-goods-institute/index-wallets-backend/internal/executor"
	"github.com/network-goods-institute/index-wallets-backend/internal/formance"
	"github.com/network-goods-institute/index-wallets-backend/internal/models"
	"github.com/network-goods-institute/index-wallets-backend/internal/store"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Try to load .env file - if it doesn't exist, that's okay
	// Environment variables can be set via other means (shell export, docker, etc.)
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
		log.Println("Make sure to set environment variables via export or other means")
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

type Services struct {
	DbService       *database.Service
	ExecutorService *executor.Service
	LedgerService   store.TokenLedger
	ApiService      *api.PaymentService
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	executorService, err := executor.NewService(cfg.Executor)
	if err != nil {
		dbService.Close()
		return nil, err
	}

	// The ledger mirror is optional; without a stack URL everything still
	// works with the database as the only record.
	var ledgerService store.TokenLedger
	if cfg.Formance.StackURL != "" {
		zap.L().Info("Connecting to Formance ledger", zap.String("stack_url", cfg.Formance.StackURL))
		ledgerService, err = formance.NewService(ctx, cfg.Formance)
		if err != nil {
			dbService.Close()
			return nil, err
		}
	} else {
		zap.L().Info("No Formance stack configured, ledger mirroring disabled")
		ledgerService = store.NopTokenLedger{}
	}

	apiService := api.NewPaymentService(dbService, executorService, ledgerService)

	return &Services{
		DbService:       dbService,
		ExecutorService: executorService,
		LedgerService:   ledgerService,
		ApiService:      apiService,
	}, nil
}

// InitializeDatabaseOnly initializes just the database service without the
// executor or ledger. Useful for read-only operations like querying history.
func InitializeDatabaseOnly(ctx context.Context, cfg *models.Config) (*database.Service, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	return dbService, nil
}

func (cs *Services) Close() {
	if cs.LedgerService != nil {
		cs.LedgerService.Close()
	}
	if cs.DbService != nil {
		cs.DbService.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
