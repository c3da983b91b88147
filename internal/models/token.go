package models

import "time"

// Token is a platform-issued token backed by a cause. The token id is the
// issuer vault pubkey plus shard, joined with a comma (e.g. "7fJk...,1").
type Token struct {
	Id              string    `db:"id" json:"-"`
	TokenId         string    `db:"token_id" json:"token_id"`
	TokenName       string    `db:"token_name" json:"token_name"`
	TokenSymbol     string    `db:"token_symbol" json:"token_symbol"`
	MarketValuation float64   `db:"market_valuation" json:"market_valuation"`
	TotalAllocated  uint64    `db:"total_allocated" json:"total_allocated"`
	TokenImageUrl   string    `db:"token_image_url" json:"token_image_url,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"-"`
}

// TokenBalance is a snapshot of one customer holding at payment time.
// Supplied by the caller per request, never persisted.
type TokenBalance struct {
	TokenKey         string  `json:"token_key"`
	Symbol           string  `json:"symbol"`
	Name             string  `json:"name"`
	Balance          float64 `json:"balance"`
	AverageValuation float64 `json:"average_valuation"`
	TokenImageUrl    string  `json:"token_image_url,omitempty"`
}

// TokenValuation is the price per unit the vendor accepts a token at.
type TokenValuation struct {
	TokenKey  string  `json:"token_key"`
	Symbol    string  `json:"symbol"`
	Valuation float64 `json:"valuation"`
}

// DiscountConsumption is how much vendor preference budget one payment uses
// for one token. Positive = discount granted, negative = premium charged.
type DiscountConsumption struct {
	TokenKey   string  `json:"token_key"`
	Symbol     string  `json:"symbol"`
	AmountUsed float64 `json:"amount_used"`
}

// TokenPayment is one leg of a payment bundle: how many units of a token the
// customer transfers to the vendor.
type TokenPayment struct {
	TokenKey      string  `json:"token_key"`
	Symbol        string  `json:"symbol"`
	AmountToPay   float64 `json:"amount_to_pay"`
	TokenImageUrl string  `json:"token_image_url,omitempty"`
}

// TransactionRecord is one write-once row per token per completed payment.
// EffectiveValuation is the post-discount to pre-discount amount ratio and
// feeds the market price estimator.
type TransactionRecord struct {
	Id                 string    `db:"id" json:"-"`
	TokenKey           string    `db:"token_key" json:"token_key"`
	Symbol             string    `db:"symbol" json:"symbol"`
	AmountPaid         float64   `db:"amount_paid" json:"amount_paid"`
	EffectiveValuation float64   `db:"effective_valuation" json:"effective_valuation"`
	Timestamp          time.Time `db:"timestamp" json:"timestamp"`
	PaymentId          string    `db:"payment_id" json:"payment_id"`
}

// DepositRecord is one fiat deposit credited to a wallet, either a USD topup
// or a donation minted through a cause's bonding curve.
type DepositRecord struct {
	Id                   string  `db:"id" json:"-"`
	WalletAddress        string  `db:"wallet_address" json:"wallet_address"`
	TokenSymbol          string  `db:"token_symbol" json:"token_symbol"`
	TokenImageUrl        string  `db:"token_image_url" json:"token_image_url,omitempty"`
	AmountDepositedUsd   float64 `db:"amount_deposited_usd" json:"amount_deposited_usd"`
	AmountTokensReceived float64 `db:"amount_tokens_received" json:"amount_tokens_received"`
	CreatedAt            int64   `db:"created_at" json:"created_at"`
}
