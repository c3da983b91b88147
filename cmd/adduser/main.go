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

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"strings"

	"github.com/network-goods-institute/index-wallets-backend/internal/common"
	"github.com/network-goods-institute/index-wallets-backend/internal/config"
	"github.com/network-goods-institute/index-wallets-backend/internal/models"

	"go.uber.org/zap"
)

func validateWallet(wallet string) error {
	if wallet == "" {
		return fmt.Errorf("wallet address cannot be empty")
	}
	if strings.ContainsAny(wallet, " \t\n") {
		return fmt.Errorf("wallet address must not contain whitespace: %q", wallet)
	}
	return nil
}

func validateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("username cannot be empty")
	}
	if len(username) < 2 {
		return fmt.Errorf("username must be at least 2 characters")
	}
	return nil
}

func parsePreferences(raw string) (models.Preferences, error) {
	if raw == "" {
		return nil, nil
	}
	var prefs models.Preferences
	if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
		return nil, fmt.Errorf("invalid preferences JSON: %w", err)
	}
	return prefs, nil
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	walletFlag := flag.String("wallet", "", "Wallet address (required)")
	usernameFlag := flag.String("username", "", "Display name (required)")
	prefsFlag := flag.String("preferences", "", `Optional vendor preference budgets as JSON, e.g. '{"RIV": 50, "USD": -10}'`)
	flag.Parse()

	if *walletFlag == "" || *usernameFlag == "" {
		zap.L().Fatal("Both flags are required: --wallet and --username")
	}
	if err := validateWallet(*walletFlag); err != nil {
		zap.L().Fatal("Invalid wallet address", zap.Error(err))
	}
	if err := validateUsername(*usernameFlag); err != nil {
		zap.L().Fatal("Invalid username", zap.Error(err))
	}

	prefs, err := parsePreferences(*prefsFlag)
	if err != nil {
		zap.L().Fatal("Invalid preferences", zap.Error(err))
	}

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	user, err := dbService.CreateUser(ctx, *walletFlag, *usernameFlag)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			zap.L().Fatal("A user already exists for this wallet", zap.String("wallet", *walletFlag))
		}
		zap.L().Fatal("Failed to create user", zap.Error(err))
	}

	if len(prefs) > 0 {
		if err := dbService.SetPreferences(ctx, user.WalletAddress, prefs); err != nil {
			zap.L().Fatal("Failed to set preferences", zap.Error(err))
		}
	}

	fmt.Println()
	common.PrintHeader("USER CREATED", common.DefaultWidth)
	fmt.Printf("Wallet:   %s\n", user.WalletAddress)
	fmt.Printf("Username: %s\n", user.Username)
	if len(prefs) > 0 {
		fmt.Println("Preference budgets:")
		for key, budget := range prefs {
			fmt.Printf("  %-10s $%.2f\n", key, budget)
		}
	}
	common.PrintSeparator("=", common.DefaultWidth)
	fmt.Println()

	zap.L().Info("User created successfully", zap.String("wallet", user.WalletAddress))
}
