package store

import (
	"context"
	"errors"

	"github.com/network-goods-institute/index-wallets-backend/internal/models"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrUserNotFound      = errors.New("no user found for wallet address")
	ErrPaymentNotFound   = errors.New("no payment found for code")
	ErrTokenNotFound     = errors.New("no token found for key")
	ErrCauseNotFound     = errors.New("no cause found")
	ErrCustomerMismatch  = errors.New("payment already assigned to a different customer")
	ErrPaymentCompleted  = errors.New("payment already completed")
	ErrInvalidTransition = errors.New("illegal payment status transition")
	ErrNotVendor         = errors.New("only the initiating vendor may cancel a payment")
	ErrDuplicateEvent    = errors.New("event already processed")
)

// CreatePaymentParams contains what a vendor supplies when opening a payment.
// The store generates the payment code and retries on collision.
type CreatePaymentParams struct {
	VendorAddress string
	VendorName    string
	PriceUsd      float64
}

// SaveCalculationsParams persists the full result of a payment calculation in
// one write: valuations, budget consumption and both bundle variants.
type SaveCalculationsParams struct {
	PaymentId            string
	VendorValuations     []models.TokenValuation
	DiscountConsumption  []models.DiscountConsumption
	InitialPaymentBundle []models.TokenPayment
	ComputedPayment      []models.TokenPayment
}

// BondingCurveParams advances a cause's curve state after a deposit.
type BondingCurveParams struct {
	CauseSymbol     string
	AmountDonated   float64
	TokensPurchased float64
	CurrentPrice    float64
}

// PaymentStore defines the contract the backing database must satisfy.
type PaymentStore interface {
	// --- Users ---
	GetUserByWallet(ctx context.Context, walletAddress string) (*models.User, error)
	CreateUser(ctx context.Context, walletAddress, username string) (*models.User, error)
	GetPreferences(ctx context.Context, walletAddress string) (models.Preferences, error)
	SetPreferences(ctx context.Context, walletAddress string, prefs models.Preferences) error
	ConsumePreferences(ctx context.Context, walletAddress string, consumption []models.DiscountConsumption) error

	// --- Payments ---
	CreatePayment(ctx context.Context, params CreatePaymentParams) (*models.Payment, error)
	GetPayment(ctx context.Context, paymentId string) (*models.Payment, error)
	AssignCustomer(ctx context.Context, paymentId, customerAddress, customerUsername string) (*models.Payment, error)
	SaveCalculations(ctx context.Context, params SaveCalculationsParams) error
	UpdatePaymentStatus(ctx context.Context, paymentId string, status models.PaymentStatus) error
	DeletePayment(ctx context.Context, paymentId, requesterAddress string) error

	// --- Tokens and causes ---
	GetToken(ctx context.Context, tokenKey string) (*models.Token, error)
	UpdateMarketValuation(ctx context.Context, tokenKey string, valuation float64) error
	GetCauses(ctx context.Context) ([]models.Cause, error)
	GetCauseBySymbol(ctx context.Context, symbol string) (*models.Cause, error)
	UpdateBondingCurve(ctx context.Context, params BondingCurveParams) error

	// --- Records ---
	RecordTransaction(ctx context.Context, record models.TransactionRecord) error
	GetTransactionRecords(ctx context.Context, tokenKey string, limit int) ([]models.TransactionRecord, error)
	RecordDeposit(ctx context.Context, record models.DepositRecord) error
	GetWalletHistory(ctx context.Context, walletAddress string, limit int) ([]models.ActivityItem, error)

	// --- Webhook idempotency ---
	MarkEventProcessed(ctx context.Context, eventId string) error

	// --- Lifecycle ---
	Close()
}

// MintParams describes tokens created by a fiat deposit: the customer's share
// and the platform's cut, minted in one ledger transaction.
type MintParams struct {
	Reference      string // checkout event id, used as the idempotency key
	WalletAddress  string
	Symbol         string
	UserTokens     float64
	PlatformTokens float64
}

// TransferParams describes the token legs of a completed payment.
type TransferParams struct {
	PaymentId       string
	CustomerAddress string
	VendorAddress   string
	Payments        []models.TokenPayment
}

// TokenLedger mirrors token movements into an external double-entry ledger.
// Mirror writes are best-effort: the caller logs failures and moves on, the
// database remains the system of record.
type TokenLedger interface {
	RecordDepositMint(ctx context.Context, params MintParams) error
	RecordPaymentTransfer(ctx context.Context, params TransferParams) error
	Close()
}

// NopTokenLedger is the TokenLedger used when no ledger stack is configured.
type NopTokenLedger struct{}

func (NopTokenLedger) RecordDepositMint(context.Context, MintParams) error         { return nil }
func (NopTokenLedger) RecordPaymentTransfer(context.Context, TransferParams) error { return nil }
func (NopTokenLedger) Close()                                                      {}

var _ TokenLedger = NopTokenLedger{}
