package formance

import (
	"context"
	"fmt"

	"github.com/network-goods-institute/index-wallets-backend/internal/models"
	"github.com/network-goods-institute/index-wallets-backend/internal/store"

	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ---------------------------------------------------------------------------
// Numscript templates. All metadata is set inside the script via
// set_tx_meta() so the Formance transaction is fully self-describing.
// ---------------------------------------------------------------------------

// numscriptDepositMint mints the tokens a checkout deposit bought: the
// customer's share and the platform's cut land in one atomic transaction.
const numscriptDepositMint = `vars {
  asset $asset
  number $user_amount
  number $platform_amount
  account $wallet
  string $event_id
  string $token_symbol
}

send [$asset $user_amount] (
  source = @world
  destination = @wallets:$wallet
)

send [$asset $platform_amount] (
  source = @world
  destination = @platform:treasury
)

set_tx_meta("event_type", "deposit_mint")
set_tx_meta("event_id", $event_id)
set_tx_meta("token_symbol", $token_symbol)
`

// numscriptPaymentLeg moves one bundle token from customer to vendor.
const numscriptPaymentLeg = `vars {
  asset $asset
  number $amount
  account $customer
  account $vendor
  string $payment_id
  string $token_key
  string $token_symbol
}

send [$asset $amount] (
  source = @wallets:$customer allowing unbounded overdraft
  destination = @wallets:$vendor
)

set_tx_meta("event_type", "payment_transfer")
set_tx_meta("payment_id", $payment_id)
set_tx_meta("token_key", $token_key)
set_tx_meta("token_symbol", $token_symbol)
`

// minorUnits converts a token amount to the ledger's integer representation
// at the symbol's precision.
func minorUnits(amount float64, symbol string) string {
	return decimal.NewFromFloat(amount).Shift(int32(precisionFor(symbol))).Round(0).BigInt().String()
}

// RecordDepositMint mirrors the tokens minted by a checkout deposit. The
// checkout event id is the transaction reference, so webhook retries hit the
// conflict path and read as success.
func (s *Service) RecordDepositMint(ctx context.Context, params store.MintParams) error {
	fAsset := formanceAsset(params.Symbol)

	// Checkout session details ride along as transaction metadata when the
	// webhook put them on the context.
	var metadata map[string]string
	if cc := models.GetCheckoutContext(ctx); cc != nil {
		metadata = map[string]string{}
		if cc.SessionId != "" {
			metadata["checkout_session_id"] = cc.SessionId
		}
		if cc.PaymentIntentId != "" {
			metadata["payment_intent_id"] = cc.PaymentIntentId
		}
		if cc.ConnectedAccount != "" {
			metadata["connected_account"] = cc.ConnectedAccount
		}
		if cc.Currency != "" {
			metadata["checkout_currency"] = cc.Currency
		}
	}

	_, err := s.client.Ledger.V2.CreateTransaction(ctx, operations.V2CreateTransactionRequest{
		Ledger: s.ledger,
		V2PostTransaction: shared.V2PostTransaction{
			Metadata:  metadata,
			Reference: strPtr("mint-" + params.Reference),
			Script: &shared.V2PostTransactionScript{
				Plain: numscriptDepositMint,
				Vars: map[string]string{
					"asset":           fAsset,
					"user_amount":     minorUnits(params.UserTokens, params.Symbol),
					"platform_amount": minorUnits(params.PlatformTokens, params.Symbol),
					"wallet":          params.WalletAddress,
					"event_id":        params.Reference,
					"token_symbol":    params.Symbol,
				},
			},
		},
	})
	if err != nil {
		if isConflictError(err) {
			return nil // idempotent
		}
		return fmt.Errorf("error recording deposit mint: %w", err)
	}

	zap.L().Info("Deposit mint recorded in Formance",
		zap.String("wallet", params.WalletAddress),
		zap.String("symbol", params.Symbol),
		zap.Float64("user_tokens", params.UserTokens),
		zap.Float64("platform_tokens", params.PlatformTokens))
	return nil
}

// RecordPaymentTransfer mirrors a completed payment's bundle, one ledger
// transaction per token leg. Legs that round to zero at ledger precision are
// skipped.
func (s *Service) RecordPaymentTransfer(ctx context.Context, params store.TransferParams) error {
	for _, p := range params.Payments {
		amount := minorUnits(p.AmountToPay, p.Symbol)
		if amount == "0" {
			continue
		}

		_, err := s.client.Ledger.V2.CreateTransaction(ctx, operations.V2CreateTransactionRequest{
			Ledger: s.ledger,
			V2PostTransaction: shared.V2PostTransaction{
				Reference: strPtr(fmt.Sprintf("pay-%s-%s", params.PaymentId, p.TokenKey)),
				Script: &shared.V2PostTransactionScript{
					Plain: numscriptPaymentLeg,
					Vars: map[string]string{
						"asset":        formanceAsset(p.Symbol),
						"amount":       amount,
						"customer":     params.CustomerAddress,
						"vendor":       params.VendorAddress,
						"payment_id":   params.PaymentId,
						"token_key":    p.TokenKey,
						"token_symbol": p.Symbol,
					},
				},
			},
		})
		if err != nil {
			if isConflictError(err) {
				continue // idempotent
			}
			return fmt.Errorf("error recording payment leg %s: %w", p.Symbol, err)
		}
	}

	zap.L().Info("Payment transfer recorded in Formance",
		zap.String("payment_id", params.PaymentId),
		zap.Int("legs", len(params.Payments)))
	return nil
}
