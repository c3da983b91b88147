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

// Vendor-side payment tool: open a payment and display the code for the
// customer, poll its status, or cancel it before completion.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/network-goods-institute/index-wallets-backend/internal/api"
	"github.com/network-goods-institute/index-wallets-backend/internal/common"
	"github.com/network-goods-institute/index-wallets-backend/internal/config"
	"github.com/network-goods-institute/index-wallets-backend/internal/engine"
	"github.com/network-goods-institute/index-wallets-backend/internal/models"

	"go.uber.org/zap"
)

func runCreate(ctx context.Context, services *common.Services, vendor, name string, price float64) {
	if price <= 0 {
		zap.L().Fatal("Price must be positive", zap.Float64("price", price))
	}

	payment, err := services.ApiService.CreatePayment(ctx, vendor, name, price)
	if err != nil {
		zap.L().Fatal("Failed to create payment", zap.Error(err))
	}

	common.PrintHeader("PAYMENT CREATED", common.DefaultWidth)
	fmt.Printf("Code:   %s\n", payment.PaymentId)
	fmt.Printf("Vendor: %s (%s)\n", payment.VendorName, payment.VendorAddress)
	fmt.Printf("Price:  $%.2f\n", payment.PriceUsd)
	common.PrintFooter("Share the code with the customer to proceed", common.DefaultWidth)
}

func runSupplement(ctx context.Context, services *common.Services, code, customer, balancesFile string) {
	data, err := os.ReadFile(balancesFile)
	if err != nil {
		zap.L().Fatal("Failed to read balances file", zap.String("file", balancesFile), zap.Error(err))
	}
	var balances []models.TokenBalance
	if err := json.Unmarshal(data, &balances); err != nil {
		zap.L().Fatal("Invalid balances JSON", zap.String("file", balancesFile), zap.Error(err))
	}

	result, err := services.ApiService.SupplementPayment(ctx, api.SupplementParams{
		PaymentCode:     code,
		CustomerAddress: customer,
		Balances:        balances,
	})
	if err != nil {
		if engine.IsInsufficientFunds(err) {
			zap.L().Fatal("The customer cannot afford this payment", zap.String("code", code), zap.Error(err))
		}
		zap.L().Fatal("Failed to supplement payment", zap.String("code", code), zap.Error(err))
	}

	common.PrintHeader(fmt.Sprintf("PAYMENT %s CALCULATED", result.PaymentId), common.DefaultWidth)
	fmt.Printf("Vendor:      %s (%s)\n", result.VendorName, result.VendorAddress)
	fmt.Printf("Price:       $%.2f\n", result.PriceUsd)
	fmt.Printf("Actual cost: $%.2f\n", result.ActualCostUsd)
	fmt.Println("Bundle:")
	for i, leg := range result.PaymentBundle {
		prefix := common.BoxPrefix(i == len(result.PaymentBundle)-1)
		fmt.Printf("%s %-8s %.4f tokens\n", prefix, leg.Symbol, leg.AmountToPay)
	}
	fmt.Println("Unsigned transaction (sign and submit to complete):")
	fmt.Println(result.UnsignedTransaction)
	common.PrintSeparator("=", common.DefaultWidth)
}

func runStatus(ctx context.Context, services *common.Services, code string) {
	payment, err := services.ApiService.GetPaymentStatus(ctx, code)
	if err != nil {
		zap.L().Fatal("Failed to look up payment", zap.String("code", code), zap.Error(err))
	}

	common.PrintHeader(fmt.Sprintf("PAYMENT %s", payment.PaymentId), common.DefaultWidth)
	fmt.Printf("Status:   %s\n", payment.Status)
	fmt.Printf("Vendor:   %s (%s)\n", payment.VendorName, payment.VendorAddress)
	fmt.Printf("Price:    $%.2f\n", payment.PriceUsd)
	if payment.CustomerAddress != "" {
		fmt.Printf("Customer: %s\n", payment.CustomerAddress)
	}
	if len(payment.ComputedPayment) > 0 {
		fmt.Println("Bundle:")
		for i, leg := range payment.ComputedPayment {
			prefix := common.BoxPrefix(i == len(payment.ComputedPayment)-1)
			fmt.Printf("%s %-8s %.4f tokens\n", prefix, leg.Symbol, leg.AmountToPay)
		}
	}
	common.PrintSeparator("=", common.DefaultWidth)
}

func runCancel(ctx context.Context, services *common.Services, code, vendor string) {
	if err := services.ApiService.CancelPayment(ctx, code, vendor); err != nil {
		zap.L().Fatal("Failed to cancel payment", zap.String("code", code), zap.Error(err))
	}
	fmt.Printf("Payment %s cancelled\n", code)
	zap.L().Info("Payment cancelled", zap.String("code", code))
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	createFlag := flag.Bool("create", false, "Create a new payment (requires --vendor and --price)")
	supplementFlag := flag.Bool("supplement", false, "Calculate a payment as the customer (requires --code, --customer and --balances)")
	statusFlag := flag.Bool("status", false, "Show a payment's status (requires --code)")
	cancelFlag := flag.Bool("cancel", false, "Cancel an open payment (requires --code and --vendor)")
	vendorFlag := flag.String("vendor", "", "Vendor wallet address")
	nameFlag := flag.String("name", "", "Vendor display name (defaults to the registered username)")
	priceFlag := flag.Float64("price", 0, "Price in USD")
	codeFlag := flag.String("code", "", "Payment code")
	customerFlag := flag.String("customer", "", "Customer wallet address")
	balancesFlag := flag.String("balances", "", "Path to a JSON file with the customer's token balances")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	switch {
	case *createFlag:
		if *vendorFlag == "" {
			zap.L().Fatal("Flag is required with --create: --vendor")
		}
		runCreate(ctx, services, *vendorFlag, *nameFlag, *priceFlag)
	case *supplementFlag:
		if *codeFlag == "" || *customerFlag == "" || *balancesFlag == "" {
			zap.L().Fatal("Flags are required with --supplement: --code, --customer and --balances")
		}
		runSupplement(ctx, services, *codeFlag, *customerFlag, *balancesFlag)
	case *statusFlag:
		if *codeFlag == "" {
			zap.L().Fatal("Flag is required with --status: --code")
		}
		runStatus(ctx, services, *codeFlag)
	case *cancelFlag:
		if *codeFlag == "" || *vendorFlag == "" {
			zap.L().Fatal("Flags are required with --cancel: --code and --vendor")
		}
		runCancel(ctx, services, *codeFlag, *vendorFlag)
	default:
		zap.L().Fatal("One of --create, --supplement, --status or --cancel is required")
	}
}
