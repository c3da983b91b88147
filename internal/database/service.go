/**
 * Copyright 2025-present Network Goods Institute
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/network-goods-institute/index-wallets-backend/internal/models"
	"github.com/network-goods-institute/index-wallets-backend/internal/store"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Compile-time check: *Service must satisfy store.PaymentStore.
var _ store.PaymentStore = (*Service)(nil)

type Service struct {
	db *sql.DB
}

func NewService(ctx context.Context, cfg models.DatabaseConfig) (*Service, error) {
	// Validate configuration
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if cfg.MaxOpenConns <= 0 {
		return nil, fmt.Errorf("max open connections must be positive, got %d", cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns < 0 {
		return nil, fmt.Errorf("max idle connections cannot be negative, got %d", cfg.MaxIdleConns)
	}
	if cfg.PingTimeout <= 0 {
		return nil, fmt.Errorf("ping timeout must be positive, got %v", cfg.PingTimeout)
	}

	zap.L().Info("Opening SQLite database", zap.String("file", cfg.Path))
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=1000")
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	// Set connection timeouts and limits
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Test connection with timeout
	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, closeErr
		}
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	service := &Service{db: db}
	if err := service.initSchema(cfg.CreateDemoUsers); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, closeErr
		}
		return nil, fmt.Errorf("unable to initialize schema: %w", err)
	}

	zap.L().Info("Database service initialized successfully")
	return service, nil
}

func (s *Service) Close() {
	if err := s.db.Close(); err != nil {
		zap.L().Warn("Failed to close database connection", zap.Error(err))
	}
}

func (s *Service) initSchema(createDemoUsers bool) error {
	schema := `
	-- Wallet holders; vendors keep their preference budgets here as JSON
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		wallet_address TEXT NOT NULL UNIQUE,
		username TEXT NOT NULL,
		preferences TEXT NOT NULL DEFAULT '{}',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_users_wallet ON users(wallet_address);

	-- One row per payment; the primary key is the customer-facing code.
	-- Bundle columns hold JSON and stay NULL until calculation.
	CREATE TABLE IF NOT EXISTS payments (
		payment_id TEXT PRIMARY KEY,
		vendor_address TEXT NOT NULL,
		vendor_name TEXT NOT NULL,
		price_usd REAL NOT NULL,
		customer_address TEXT NOT NULL DEFAULT '',
		customer_username TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		vendor_valuations TEXT,
		discount_consumption TEXT,
		computed_payment TEXT,
		initial_payment_bundle TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_payments_vendor ON payments(vendor_address);
	CREATE INDEX IF NOT EXISTS idx_payments_customer ON payments(customer_address);
	CREATE INDEX IF NOT EXISTS idx_payments_created_at ON payments(created_at);

	CREATE TABLE IF NOT EXISTS tokens (
		id TEXT PRIMARY KEY,
		token_id TEXT NOT NULL UNIQUE,
		token_name TEXT NOT NULL,
		token_symbol TEXT NOT NULL,
		market_valuation REAL NOT NULL DEFAULT 1.0,
		total_allocated INTEGER NOT NULL DEFAULT 0,
		token_image_url TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_tokens_symbol ON tokens(token_symbol);

	CREATE TABLE IF NOT EXISTS causes (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		organization TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		token_name TEXT NOT NULL,
		token_symbol TEXT NOT NULL UNIQUE,
		token_id TEXT NOT NULL DEFAULT '',
		amount_donated REAL NOT NULL DEFAULT 0,
		tokens_purchased REAL NOT NULL DEFAULT 0,
		current_price REAL NOT NULL DEFAULT 0.01,
		status TEXT NOT NULL DEFAULT 'pending',
		token_image_url TEXT NOT NULL DEFAULT '',
		error_message TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- Write-once market data, one row per token per completed payment
	CREATE TABLE IF NOT EXISTS transaction_records (
		id TEXT PRIMARY KEY,
		token_key TEXT NOT NULL,
		symbol TEXT NOT NULL,
		amount_paid REAL NOT NULL,
		effective_valuation REAL NOT NULL,
		timestamp TIMESTAMP NOT NULL,
		payment_id TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_records_token_time ON transaction_records(token_key, timestamp DESC);

	CREATE TABLE IF NOT EXISTS deposit_records (
		id TEXT PRIMARY KEY,
		wallet_address TEXT NOT NULL,
		token_symbol TEXT NOT NULL,
		token_image_url TEXT NOT NULL DEFAULT '',
		amount_deposited_usd REAL NOT NULL,
		amount_tokens_received REAL NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_deposits_wallet ON deposit_records(wallet_address);

	-- Checkout events already handled; inserts are the idempotency gate
	CREATE TABLE IF NOT EXISTS processed_events (
		event_id TEXT PRIMARY KEY,
		processed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	// Insert demo users for local development if configured to do so
	if createDemoUsers {
		users := []struct {
			wallet   string
			username string
		}{
			{"demo-vendor-wallet", "Corner Cafe"},
			{"demo-customer-wallet", "Alice"},
		}

		for _, user := range users {
			_, err := s.db.Exec(queryInsertUser, uuid.New().String(), user.wallet, user.username, "{}")
			if err != nil {
				zap.L().Error("Failed to insert demo user", zap.String("username", user.username), zap.Error(err))
			} else {
				zap.L().Info("Demo user created", zap.String("wallet", user.wallet), zap.String("username", user.username))
			}
		}
	} else {
		zap.L().Info("Skipping demo user creation (CREATE_DEMO_USERS=false)")
	}

	return nil
}
