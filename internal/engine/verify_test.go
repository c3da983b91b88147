package engine

import (
	"errors"
	"math"
	"testing"

	"github.com/network-goods-institute/index-wallets-backend/internal/models"
)

func TestVerifyAffordabilityReturnsActualCost(t *testing.T) {
	balances := sampleBalances()
	bundle := []models.TokenPayment{
		{TokenKey: "btc-key,1", Symbol: "BTC", AmountToPay: 0.008},
		{TokenKey: "eth-key,1", Symbol: "ETH", AmountToPay: 0.1},
		{TokenKey: "usd-key,1", Symbol: "USD", AmountToPay: 200},
	}

	cost, err := VerifyAffordability(bundle, balances, 1000)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// 0.008*50000 + 0.1*3000 + 200*1 = 900: the discount lowered the charge.
	if math.Abs(cost-900) > 1e-9 {
		t.Errorf("Expected actual cost 900, got %v", cost)
	}
}

func TestVerifyAffordabilityTokenShortfall(t *testing.T) {
	balances := sampleBalances()
	bundle := []models.TokenPayment{
		{TokenKey: "eth-key,1", Symbol: "ETH", AmountToPay: 11},
	}

	_, err := VerifyAffordability(bundle, balances, 1000)
	var insufficient *InsufficientTokenBalanceError
	if !errors.As(err, &insufficient) {
		t.Fatalf("Expected InsufficientTokenBalanceError, got %v", err)
	}
	if insufficient.Symbol != "ETH" || insufficient.Have != 10 {
		t.Errorf("Unexpected offender: %+v", insufficient)
	}
}

func TestVerifyAffordabilityPremiumPushesCostPastWallet(t *testing.T) {
	// A single-token wallet paying its entire balance plus a premium cannot
	// come out affordable; the token check fires before the portfolio check.
	balances := []models.TokenBalance{
		{TokenKey: "usd-key,1", Symbol: "USD", Balance: 100, AverageValuation: 1},
	}
	bundle := []models.TokenPayment{
		{TokenKey: "usd-key,1", Symbol: "USD", AmountToPay: 110},
	}

	_, err := VerifyAffordability(bundle, balances, 100)
	if !IsInsufficientFunds(err) {
		t.Fatalf("Expected an insufficient-funds failure, got %v", err)
	}
}

func TestVerifyAffordabilityUnknownTokenInBundle(t *testing.T) {
	// A bundle token the wallet does not hold at all reads as a zero balance.
	balances := sampleBalances()
	bundle := []models.TokenPayment{
		{TokenKey: "ghost,1", Symbol: "GST", AmountToPay: 1},
	}

	_, err := VerifyAffordability(bundle, balances, 10)
	var insufficient *InsufficientTokenBalanceError
	if !errors.As(err, &insufficient) {
		t.Fatalf("Expected InsufficientTokenBalanceError, got %v", err)
	}
	if insufficient.Symbol != "GST" {
		t.Errorf("Expected offender GST, got %s", insufficient.Symbol)
	}
}

func TestVerifyAffordabilityEmptyBundle(t *testing.T) {
	cost, err := VerifyAffordability(nil, sampleBalances(), 0)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cost != 0 {
		t.Errorf("Empty bundle should cost nothing, got %v", cost)
	}
}
