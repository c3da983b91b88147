package engine

import (
	"math"
	"testing"

	"github.com/network-goods-institute/index-wallets-backend/internal/models"
)

func sampleBalances() []models.TokenBalance {
	return []models.TokenBalance{
		{TokenKey: "btc-key,1", Symbol: "BTC", Name: "Bitcoin", Balance: 1.0, AverageValuation: 50000},
		{TokenKey: "eth-key,1", Symbol: "ETH", Name: "Ethereum", Balance: 10.0, AverageValuation: 3000},
		{TokenKey: "usd-key,1", Symbol: "USD", Name: "US Dollar", Balance: 20000.0, AverageValuation: 1},
	}
}

func TestVendorValuationsDiscountsCappedByBudget(t *testing.T) {
	balances := sampleBalances()
	prefs := models.Preferences{"BTC": 100.0, "ETH": 50.0}

	valuations, consumptions := VendorValuations(prefs, balances, 1000)

	if len(valuations) != 3 || len(consumptions) != 3 {
		t.Fatalf("Expected 3 parallel entries, got %d and %d", len(valuations), len(consumptions))
	}

	// BTC is $50k of a $100k portfolio: share $500 of the $1000 payment,
	// lambda cap $100, budget $100 binds.
	if got := consumptions[0].AmountUsed; math.Abs(got-100.0) > 1e-9 {
		t.Errorf("BTC consumption: expected 100, got %v", got)
	}
	// ETH share $300, cap $60, budget $50 binds first.
	if got := consumptions[1].AmountUsed; math.Abs(got-50.0) > 1e-9 {
		t.Errorf("ETH consumption: expected 50, got %v", got)
	}
	if got := consumptions[2].AmountUsed; got != 0 {
		t.Errorf("USD consumption: expected 0, got %v", got)
	}
}

func TestVendorValuationsDiscountsCappedByLambda(t *testing.T) {
	balances := sampleBalances()
	prefs := models.Preferences{"BTC": 100000.0}

	_, consumptions := VendorValuations(prefs, balances, 1000)

	// Budget dwarfs the cap, so lambda times the $500 share binds: $100.
	if got := consumptions[0].AmountUsed; math.Abs(got-100.0) > 1e-9 {
		t.Errorf("BTC consumption: expected 100, got %v", got)
	}
}

func TestVendorValuationsPremium(t *testing.T) {
	balances := sampleBalances()
	prefs := models.Preferences{"ETH": -40.0}

	_, consumptions := VendorValuations(prefs, balances, 1000)

	if got := consumptions[1].AmountUsed; math.Abs(got-(-40.0)) > 1e-9 {
		t.Errorf("ETH premium: expected -40, got %v", got)
	}
	if consumptions[0].AmountUsed != 0 || consumptions[2].AmountUsed != 0 {
		t.Errorf("Unexpected consumption for unpreferenced tokens: %+v", consumptions)
	}
}

func TestVendorValuationsPremiumCappedByLambda(t *testing.T) {
	balances := sampleBalances()
	prefs := models.Preferences{"ETH": -10000.0}

	_, consumptions := VendorValuations(prefs, balances, 1000)

	// ETH share $300, cap $60; premium clamps to -60.
	if got := consumptions[1].AmountUsed; math.Abs(got-(-60.0)) > 1e-9 {
		t.Errorf("ETH premium: expected -60, got %v", got)
	}
}

func TestVendorValuationsBoundInvariant(t *testing.T) {
	balances := sampleBalances()
	prefs := models.Preferences{"BTC": 500.0, "ETH": -500.0, "USD": 30.0}
	paymentAmount := 1000.0

	_, consumptions := VendorValuations(prefs, balances, paymentAmount)

	total := totalPortfolioValue(balances)
	for i, c := range consumptions {
		share := balances[i].Balance * balances[i].AverageValuation / total
		cap := Lambda * paymentAmount * share
		if math.Abs(c.AmountUsed) > cap+1e-9 {
			t.Errorf("%s consumption %v exceeds lambda cap %v", c.Symbol, c.AmountUsed, cap)
		}
		if math.Abs(c.AmountUsed) > math.Abs(prefs.Resolve(c.Symbol, ""))+1e-9 {
			t.Errorf("%s consumption %v exceeds budget", c.Symbol, c.AmountUsed)
		}
	}
}

func TestVendorValuationsKeyVariants(t *testing.T) {
	balances := sampleBalances()

	tests := []struct {
		name  string
		prefs models.Preferences
	}{
		{"exact symbol", models.Preferences{"BTC": 10}},
		{"full name", models.Preferences{"Bitcoin": 10}},
		{"lowercase symbol", models.Preferences{"btc": 10}},
		{"lowercase name", models.Preferences{"bitcoin": 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, consumptions := VendorValuations(tt.prefs, balances, 1000)
			if consumptions[0].AmountUsed != 10 {
				t.Errorf("Expected BTC preference 10 via %s, got %v", tt.name, consumptions[0].AmountUsed)
			}
		})
	}
}

func TestVendorValuationsExactSymbolWins(t *testing.T) {
	balances := sampleBalances()
	prefs := models.Preferences{"BTC": 20, "bitcoin": 80}

	_, consumptions := VendorValuations(prefs, balances, 1000)
	if consumptions[0].AmountUsed != 20 {
		t.Errorf("Expected exact-symbol preference to win, got %v", consumptions[0].AmountUsed)
	}
}

func TestVendorValuationsZeroPortfolio(t *testing.T) {
	balances := []models.TokenBalance{
		{TokenKey: "a,1", Symbol: "AAA", Name: "Alpha", Balance: 0, AverageValuation: 5},
		{TokenKey: "b,1", Symbol: "BBB", Name: "Beta", Balance: 10, AverageValuation: 0},
	}
	prefs := models.Preferences{"AAA": 50, "BBB": 50}

	valuations, consumptions := VendorValuations(prefs, balances, 100)

	if len(valuations) != 2 || len(consumptions) != 2 {
		t.Fatalf("Expected entries for every token, got %d and %d", len(valuations), len(consumptions))
	}
	for _, c := range consumptions {
		if c.AmountUsed != 0 {
			t.Errorf("Expected zero consumption for valueless portfolio, got %v for %s", c.AmountUsed, c.Symbol)
		}
	}
}

func TestVendorValuationsEchoMarketValuation(t *testing.T) {
	balances := sampleBalances()
	prefs := models.Preferences{"BTC": 100}

	valuations, _ := VendorValuations(prefs, balances, 1000)
	for i, v := range valuations {
		if v.Valuation != balances[i].AverageValuation {
			t.Errorf("%s valuation: expected market %v, got %v", v.Symbol, balances[i].AverageValuation, v.Valuation)
		}
		if v.TokenKey != balances[i].TokenKey {
			t.Errorf("Order not preserved at index %d", i)
		}
	}
}
