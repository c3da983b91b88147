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
	"flag"
	"fmt"
	"time"

	"github.com/network-goods-institute/index-wallets-backend/internal/common"
	"github.com/network-goods-institute/index-wallets-backend/internal/config"
	"github.com/network-goods-institute/index-wallets-backend/internal/models"

	"go.uber.org/zap"
)

func formatTimestamp(unix int64) string {
	return time.Unix(unix, 0).UTC().Format("2006-01-02 15:04:05")
}

func printPayment(item models.ActivityItem, wallet string, isLast bool) {
	p := item.Payment
	prefix := common.BoxPrefix(isLast)
	detail := common.BoxDetailPrefix(isLast)

	direction := "received from " + p.CustomerAddress
	if p.CustomerAddress == wallet {
		direction = "paid to " + p.VendorName
	}
	fmt.Printf("%s %s  payment %-8s $%.2f  %s\n",
		prefix, formatTimestamp(item.Timestamp), p.PaymentId, p.PriceUsd, direction)
	for _, leg := range p.ComputedPayment {
		fmt.Printf("%s     %-8s %.4f tokens\n", detail, leg.Symbol, leg.AmountToPay)
	}
}

func printDeposit(item models.ActivityItem, isLast bool) {
	d := item.Deposit
	prefix := common.BoxPrefix(isLast)

	fmt.Printf("%s %s  deposit  %-8s $%.2f -> %.4f tokens\n",
		prefix, formatTimestamp(item.Timestamp), d.TokenSymbol,
		d.AmountDepositedUsd, d.AmountTokensReceived)
}

func printHistory(items []models.ActivityItem, wallet string) {
	for i, item := range items {
		isLast := i == len(items)-1
		switch item.Kind {
		case models.ActivityPayment:
			printPayment(item, wallet, isLast)
		case models.ActivityDeposit:
			printDeposit(item, isLast)
		}
	}
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	walletFlag := flag.String("wallet", "", "Wallet address to query (required)")
	limitFlag := flag.Int("limit", 50, "Maximum number of entries")
	flag.Parse()

	if *walletFlag == "" {
		logger.Fatal("Flag is required: --wallet")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	logger.Info("Connecting to database", zap.String("path", cfg.Database.Path))
	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	items, err := dbService.GetWalletHistory(ctx, *walletFlag, *limitFlag)
	if err != nil {
		logger.Fatal("Failed to load wallet history", zap.Error(err))
	}

	common.PrintHeader(fmt.Sprintf("WALLET HISTORY: %s", *walletFlag), common.DefaultWidth)
	if len(items) == 0 {
		fmt.Println("No activity for this wallet")
	} else {
		printHistory(items, *walletFlag)
	}
	common.PrintFooter(fmt.Sprintf("SUMMARY: %d entries (newest first)", len(items)), common.DefaultWidth)

	logger.Info("History query completed",
		zap.String("wallet", *walletFlag),
		zap.Int("entries", len(items)))
}
