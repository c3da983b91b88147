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

package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/network-goods-institute/index-wallets-backend/internal/engine"
	"github.com/network-goods-institute/index-wallets-backend/internal/executor"
	"github.com/network-goods-institute/index-wallets-backend/internal/models"
	"github.com/network-goods-institute/index-wallets-backend/internal/store"

	"go.uber.org/zap"
)

// CreatePayment opens a payment for a vendor and hands back the code the
// customer will type. An empty vendor name falls back to the vendor's
// registered username.
func (s *PaymentService) CreatePayment(ctx context.Context, vendorAddress, vendorName string, priceUsd float64) (*models.Payment, error) {
	if vendorAddress == "" {
		return nil, fmt.Errorf("vendor address is required")
	}
	if vendorName == "" {
		if user, err := s.db.GetUserByWallet(ctx, vendorAddress); err == nil {
			vendorName = user.Username
		}
	}

	return s.db.CreatePayment(ctx, store.CreatePaymentParams{
		VendorAddress: vendorAddress,
		VendorName:    vendorName,
		PriceUsd:      priceUsd,
	})
}

// SupplementParams is what the customer supplies when joining a payment.
// Balances are the customer's current holdings as reported by their wallet.
type SupplementParams struct {
	PaymentCode      string
	CustomerAddress  string
	CustomerUsername string
	Balances         []models.TokenBalance
}

// SupplementPayment runs the full calculation pipeline for a joining
// customer: vendor valuations, proportional bundle, discounts, the
// affordability gate, then persistence and the unsigned vault transaction.
func (s *PaymentService) SupplementPayment(ctx context.Context, params SupplementParams) (*models.SupplementResult, error) {
	if params.CustomerAddress == "" {
		return nil, fmt.Errorf("customer address is required")
	}

	payment, err := s.db.GetPayment(ctx, params.PaymentCode)
	if err != nil {
		return nil, err
	}
	if payment.Status == models.PaymentCompleted {
		return nil, store.ErrPaymentCompleted
	}

	payment, err = s.db.AssignCustomer(ctx, payment.PaymentId, params.CustomerAddress, params.CustomerUsername)
	if err != nil {
		return nil, err
	}

	prefs, err := s.db.GetPreferences(ctx, payment.VendorAddress)
	if err != nil {
		if !errors.Is(err, store.ErrUserNotFound) {
			return nil, err
		}
		// Vendors without a profile just trade at market.
		prefs = models.Preferences{}
	}

	valuations, consumption := engine.VendorValuations(prefs, params.Balances, payment.PriceUsd)

	initial, err := engine.PaymentBundle(params.Balances, valuations, payment.PriceUsd)
	if err != nil {
		zap.L().Info("Payment bundle computation failed",
			zap.String("payment_id", payment.PaymentId),
			zap.Error(err))
		return nil, err
	}

	computed := make([]models.TokenPayment, len(initial))
	copy(computed, initial)
	engine.ApplyDiscounts(computed, consumption, params.Balances)

	actualCost, err := engine.VerifyAffordability(computed, params.Balances, payment.PriceUsd)
	if err != nil {
		zap.L().Info("Post-adjustment affordability check failed",
			zap.String("payment_id", payment.PaymentId),
			zap.Error(err))
		return nil, err
	}

	err = s.db.SaveCalculations(ctx, store.SaveCalculationsParams{
		PaymentId:            payment.PaymentId,
		VendorValuations:     valuations,
		DiscountConsumption:  consumption,
		InitialPaymentBundle: initial,
		ComputedPayment:      computed,
	})
	if err != nil {
		return nil, err
	}
	payment.Status = models.PaymentCalculated
	payment.VendorValuations = valuations
	payment.DiscountConsumption = consumption
	payment.InitialPaymentBundle = initial
	payment.ComputedPayment = computed

	// The payment stays Calculated if the executor is unreachable; the
	// customer retries and gets a fresh instruction at the current nonce.
	vault, err := s.exec.GetVault(ctx, params.CustomerAddress)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch customer vault: %w", err)
	}
	instruction, err := executor.BuildDebitInstruction(vault, payment)
	if err != nil {
		return nil, err
	}
	unsigned, err := instruction.Encode()
	if err != nil {
		return nil, err
	}

	zap.L().Info("Payment calculated",
		zap.String("payment_id", payment.PaymentId),
		zap.String("customer", params.CustomerAddress),
		zap.Float64("price_usd", payment.PriceUsd),
		zap.Float64("actual_cost_usd", actualCost))

	return &models.SupplementResult{
		PaymentId:           payment.PaymentId,
		VendorAddress:       payment.VendorAddress,
		VendorName:          payment.VendorName,
		CustomerAddress:     params.CustomerAddress,
		Status:              payment.Status,
		PriceUsd:            payment.PriceUsd,
		ActualCostUsd:       actualCost,
		CreatedAt:           payment.CreatedAt,
		PaymentBundle:       computed,
		UnsignedTransaction: unsigned,
		VendorValuations:    valuations,
		DiscountConsumption: consumption,
	}, nil
}

// CompletePayment submits the customer-signed transaction and settles the
// payment: status, preference budgets, market data and the ledger mirror.
// Settlement bookkeeping after the transfer is best-effort; the transfer
// itself decides success.
func (s *PaymentService) CompletePayment(ctx context.Context, paymentCode string, signed *executor.SignedTransaction) (*models.Payment, error) {
	payment, err := s.db.GetPayment(ctx, paymentCode)
	if err != nil {
		return nil, err
	}
	if payment.Status == models.PaymentCompleted {
		// Retried completion reads as success.
		return payment, nil
	}
	if payment.Status != models.PaymentCalculated {
		return nil, store.ErrInvalidTransition
	}
	if signed == nil || signed.Instruction.PaymentId != payment.PaymentId {
		return nil, fmt.Errorf("signed transaction does not match payment %s", payment.PaymentId)
	}

	if _, err := s.exec.SubmitTransfers(ctx, signed); err != nil {
		if statusErr := s.db.UpdatePaymentStatus(ctx, payment.PaymentId, models.PaymentFailed); statusErr != nil {
			zap.L().Error("Failed to mark payment failed",
				zap.String("payment_id", payment.PaymentId),
				zap.Error(statusErr))
		}
		return nil, fmt.Errorf("transfer submission failed: %w", err)
	}

	if err := s.db.UpdatePaymentStatus(ctx, payment.PaymentId, models.PaymentCompleted); err != nil {
		return nil, err
	}
	payment.Status = models.PaymentCompleted

	if err := s.db.ConsumePreferences(ctx, payment.VendorAddress, payment.DiscountConsumption); err != nil {
		zap.L().Error("Failed to consume vendor preferences",
			zap.String("payment_id", payment.PaymentId),
			zap.String("vendor", payment.VendorAddress),
			zap.Error(err))
	}

	s.recordMarketData(ctx, payment)

	if err := s.ledger.RecordPaymentTransfer(ctx, store.TransferParams{
		PaymentId:       payment.PaymentId,
		CustomerAddress: payment.CustomerAddress,
		VendorAddress:   payment.VendorAddress,
		Payments:        payment.ComputedPayment,
	}); err != nil {
		zap.L().Error("Ledger mirror failed for payment",
			zap.String("payment_id", payment.PaymentId),
			zap.Error(err))
	}

	zap.L().Info("Payment completed",
		zap.String("payment_id", payment.PaymentId),
		zap.String("customer", payment.CustomerAddress),
		zap.String("vendor", payment.VendorAddress))
	return payment, nil
}

// recordMarketData writes per-token transaction records and repriced market
// valuations for a completed payment. Every step is best-effort: a completed
// transfer never rolls back over market bookkeeping.
func (s *PaymentService) recordMarketData(ctx context.Context, payment *models.Payment) {
	effective := engine.EffectiveValuations(payment.InitialPaymentBundle, payment.ComputedPayment)
	now := time.Now().UTC()

	for _, p := range payment.ComputedPayment {
		ratio, ok := effective[p.Symbol]
		if !ok {
			ratio = 1.0
		}
		err := s.db.RecordTransaction(ctx, models.TransactionRecord{
			TokenKey:           p.TokenKey,
			Symbol:             p.Symbol,
			AmountPaid:         p.AmountToPay,
			EffectiveValuation: ratio,
			Timestamp:          now,
			PaymentId:          payment.PaymentId,
		})
		if err != nil {
			zap.L().Error("Failed to record transaction",
				zap.String("payment_id", payment.PaymentId),
				zap.String("token_key", p.TokenKey),
				zap.Error(err))
			continue
		}

		records, err := s.db.GetTransactionRecords(ctx, p.TokenKey, engine.MarketPriceWindow)
		if err != nil {
			zap.L().Error("Failed to load records for repricing",
				zap.String("token_key", p.TokenKey),
				zap.Error(err))
			continue
		}
		price, err := engine.MarketPrice(records)
		if err != nil {
			zap.L().Warn("Market price estimator declined",
				zap.String("token_key", p.TokenKey),
				zap.Error(err))
			continue
		}
		if err := s.db.UpdateMarketValuation(ctx, p.TokenKey, price); err != nil {
			if !errors.Is(err, store.ErrTokenNotFound) {
				zap.L().Error("Failed to update market valuation",
					zap.String("token_key", p.TokenKey),
					zap.Error(err))
			}
		}
	}
}

// GetPaymentStatus returns the payment as the customer-facing poller sees it.
func (s *PaymentService) GetPaymentStatus(ctx context.Context, paymentCode string) (*models.Payment, error) {
	return s.db.GetPayment(ctx, paymentCode)
}

// CancelPayment removes an open payment on the vendor's request.
func (s *PaymentService) CancelPayment(ctx context.Context, paymentCode, requesterAddress string) error {
	return s.db.DeletePayment(ctx, paymentCode, requesterAddress)
}

// GetTransactionHistory returns a wallet's merged payment and deposit
// history, newest first.
func (s *PaymentService) GetTransactionHistory(ctx context.Context, walletAddress string, limit int) ([]models.ActivityItem, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.db.GetWalletHistory(ctx, walletAddress, limit)
}
