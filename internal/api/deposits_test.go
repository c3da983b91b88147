package api

import (
	"context"
	"errors"
	"testing"

	"github.com/network-goods-institute/index-wallets-backend/internal/database"
	"github.com/network-goods-institute/index-wallets-backend/internal/models"
	"github.com/network-goods-institute/index-wallets-backend/internal/store"
)

func seedCause(t *testing.T, db *database.Service) {
	t.Helper()
	err := db.CreateCause(context.Background(), models.Cause{
		Name:         "River Restoration",
		Organization: "Clearwater Trust",
		TokenName:    "River Restoration",
		TokenSymbol:  "RIV",
		Status:       models.CauseActive,
	})
	if err != nil {
		t.Fatalf("CreateCause failed: %v", err)
	}
}

func TestProcessCheckoutDeposit(t *testing.T) {
	ctx := context.Background()
	service, db, _ := setupService(t)
	seedCause(t, db)

	record, err := service.ProcessCheckoutDeposit(ctx, DepositParams{
		EventId:       "evt-1",
		WalletAddress: "customer-wallet",
		CauseSymbol:   "RIV",
		AmountCents:   10000,
	})
	if err != nil {
		t.Fatalf("ProcessCheckoutDeposit failed: %v", err)
	}

	if record.AmountDepositedUsd != 100 {
		t.Errorf("Expected gross deposit 100, got %f", record.AmountDepositedUsd)
	}
	// $95 after the 5% platform fee mints ~9087.1 tokens from a fresh curve;
	// the platform takes 5/95 of them and the depositor keeps the rest.
	minted := record.AmountTokensReceived / (1 - 5.0/95.0)
	if !almostEqual(minted, 9087.1, 0.1) {
		t.Errorf("Expected ~9087.1 tokens minted, got %f", minted)
	}

	cause, err := db.GetCauseBySymbol(ctx, "RIV")
	if err != nil {
		t.Fatalf("GetCauseBySymbol failed: %v", err)
	}
	if !almostEqual(cause.AmountDonated, 95, 1e-9) {
		t.Errorf("Expected 95 donated (net of fee), got %f", cause.AmountDonated)
	}
	if !almostEqual(cause.TokensPurchased, minted, 1e-6) {
		t.Errorf("Expected curve supply %f, got %f", minted, cause.TokensPurchased)
	}
	// Price moved off the $0.01 base.
	if cause.CurrentPrice <= 0.01 {
		t.Errorf("Expected price above base after deposit, got %f", cause.CurrentPrice)
	}
	if !almostEqual(cause.CurrentPrice, 0.01+0.0000001*minted, 1e-9) {
		t.Errorf("Price and supply disagree: %f at %f tokens", cause.CurrentPrice, cause.TokensPurchased)
	}
}

func TestProcessCheckoutDepositAccumulates(t *testing.T) {
	ctx := context.Background()
	service, db, _ := setupService(t)
	seedCause(t, db)

	first, err := service.ProcessCheckoutDeposit(ctx, DepositParams{
		EventId:       "evt-1",
		WalletAddress: "customer-wallet",
		CauseSymbol:   "RIV",
		AmountCents:   10000,
	})
	if err != nil {
		t.Fatalf("First deposit failed: %v", err)
	}
	second, err := service.ProcessCheckoutDeposit(ctx, DepositParams{
		EventId:       "evt-2",
		WalletAddress: "customer-wallet",
		CauseSymbol:   "RIV",
		AmountCents:   10000,
	})
	if err != nil {
		t.Fatalf("Second deposit failed: %v", err)
	}

	// The curve got more expensive, so the same money buys fewer tokens.
	if second.AmountTokensReceived >= first.AmountTokensReceived {
		t.Errorf("Expected second deposit to mint fewer tokens: %f vs %f",
			second.AmountTokensReceived, first.AmountTokensReceived)
	}

	cause, err := db.GetCauseBySymbol(ctx, "RIV")
	if err != nil {
		t.Fatalf("GetCauseBySymbol failed: %v", err)
	}
	if !almostEqual(cause.AmountDonated, 190, 1e-9) {
		t.Errorf("Expected 190 donated across two deposits, got %f", cause.AmountDonated)
	}
}

func TestProcessCheckoutDepositIdempotent(t *testing.T) {
	ctx := context.Background()
	service, db, _ := setupService(t)
	seedCause(t, db)

	params := DepositParams{
		EventId:       "evt-1",
		WalletAddress: "customer-wallet",
		CauseSymbol:   "RIV",
		AmountCents:   10000,
	}
	if _, err := service.ProcessCheckoutDeposit(ctx, params); err != nil {
		t.Fatalf("First delivery failed: %v", err)
	}
	if _, err := service.ProcessCheckoutDeposit(ctx, params); !errors.Is(err, store.ErrDuplicateEvent) {
		t.Fatalf("Expected ErrDuplicateEvent on redelivery, got %v", err)
	}

	// The redelivery changed nothing.
	cause, err := db.GetCauseBySymbol(ctx, "RIV")
	if err != nil {
		t.Fatalf("GetCauseBySymbol failed: %v", err)
	}
	if !almostEqual(cause.AmountDonated, 95, 1e-9) {
		t.Errorf("Expected single deposit of 95, got %f", cause.AmountDonated)
	}
}

func TestProcessCheckoutDepositInactiveCause(t *testing.T) {
	ctx := context.Background()
	service, db, _ := setupService(t)
	err := db.CreateCause(ctx, models.Cause{
		Name:         "Pending Cause",
		Organization: "Org",
		TokenName:    "Pending",
		TokenSymbol:  "PND",
		Status:       models.CausePending,
	})
	if err != nil {
		t.Fatalf("CreateCause failed: %v", err)
	}

	_, err = service.ProcessCheckoutDeposit(ctx, DepositParams{
		EventId:       "evt-1",
		WalletAddress: "customer-wallet",
		CauseSymbol:   "PND",
		AmountCents:   10000,
	})
	if err == nil {
		t.Fatal("Expected error for inactive cause")
	}
}

func TestProcessCheckoutDepositUnknownSymbolFlatCredit(t *testing.T) {
	ctx := context.Background()
	service, db, _ := setupService(t)

	record, err := service.ProcessCheckoutDeposit(ctx, DepositParams{
		EventId:       "evt-1",
		WalletAddress: "customer-wallet",
		CauseSymbol:   "NOPE",
		AmountCents:   10000,
	})
	if err != nil {
		t.Fatalf("Deposit for unknown symbol failed: %v", err)
	}

	// The money is never stranded: the net amount lands one-to-one.
	if record.TokenSymbol != "NOPE" {
		t.Errorf("Expected the deposit's own symbol, got %s", record.TokenSymbol)
	}
	if !almostEqual(record.AmountTokensReceived, 95, 1e-9) {
		t.Errorf("Expected 95 tokens at a flat dollar, got %f", record.AmountTokensReceived)
	}

	history, err := db.GetWalletHistory(ctx, "customer-wallet", 10)
	if err != nil {
		t.Fatalf("GetWalletHistory failed: %v", err)
	}
	if len(history) != 1 || history[0].Kind != models.ActivityDeposit {
		t.Fatalf("Expected one deposit in history, got %+v", history)
	}
}

func TestProcessCheckoutDepositMissingSymbolDefaultsToUsd(t *testing.T) {
	ctx := context.Background()
	service, _, _ := setupService(t)

	record, err := service.ProcessCheckoutDeposit(ctx, DepositParams{
		EventId:       "evt-1",
		WalletAddress: "customer-wallet",
		AmountCents:   5000,
	})
	if err != nil {
		t.Fatalf("Deposit without symbol failed: %v", err)
	}
	if record.TokenSymbol != "USD" {
		t.Errorf("Expected USD fallback, got %s", record.TokenSymbol)
	}
	if !almostEqual(record.AmountTokensReceived, 47.5, 1e-9) {
		t.Errorf("Expected 47.50 USD tokens, got %f", record.AmountTokensReceived)
	}
}

func TestProcessCheckoutDepositUsdTopup(t *testing.T) {
	ctx := context.Background()
	service, db, _ := setupService(t)

	record, err := service.ProcessCheckoutDeposit(ctx, DepositParams{
		EventId:       "evt-1",
		WalletAddress: "customer-wallet",
		CauseSymbol:   "USD",
		AmountCents:   5000,
	})
	if err != nil {
		t.Fatalf("USD topup failed: %v", err)
	}

	if record.AmountDepositedUsd != 50 {
		t.Errorf("Expected gross 50, got %f", record.AmountDepositedUsd)
	}
	// Dollar tokens mint one-to-one with the net amount.
	if !almostEqual(record.AmountTokensReceived, 47.5, 1e-9) {
		t.Errorf("Expected 47.50 USD tokens, got %f", record.AmountTokensReceived)
	}
	if record.TokenSymbol != "USD" {
		t.Errorf("Expected USD symbol, got %s", record.TokenSymbol)
	}

	history, err := db.GetWalletHistory(ctx, "customer-wallet", 10)
	if err != nil {
		t.Fatalf("GetWalletHistory failed: %v", err)
	}
	if len(history) != 1 || history[0].Kind != models.ActivityDeposit {
		t.Fatalf("Expected one deposit in history, got %+v", history)
	}
}

func TestProcessCheckoutDepositValidation(t *testing.T) {
	service, _, _ := setupService(t)
	ctx := context.Background()

	if _, err := service.ProcessCheckoutDeposit(ctx, DepositParams{
		EventId: "evt-1", CauseSymbol: "RIV", AmountCents: 100,
	}); err == nil {
		t.Error("Expected error for missing wallet address")
	}
	if _, err := service.ProcessCheckoutDeposit(ctx, DepositParams{
		EventId: "evt-1", WalletAddress: "w", CauseSymbol: "RIV", AmountCents: 0,
	}); err == nil {
		t.Error("Expected error for zero amount")
	}
	if _, err := service.ProcessCheckoutDeposit(ctx, DepositParams{
		EventId: "evt-1", WalletAddress: "w", CauseSymbol: "RIV", AmountCents: -500,
	}); err == nil {
		t.Error("Expected error for negative amount")
	}
}
