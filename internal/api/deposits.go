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
	"strings"

	"github.com/network-goods-institute/index-wallets-backend/internal/models"
	"github.com/network-goods-institute/index-wallets-backend/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// platformFeeRate is the platform's cash cut of every deposit; the remainder
// buys tokens. platformTokenRate is the platform's cut of the minted tokens:
// 5/95 of the mint, $5 worth of tokens for every $95 that reaches the curve.
var (
	platformFeeRate   = decimal.NewFromFloat(0.05)
	platformTokenRate = 5.0 / 95.0
)

// DepositParams describes one settled checkout session.
type DepositParams struct {
	EventId       string
	WalletAddress string
	CauseSymbol   string
	AmountCents   int64
}

// ProcessCheckoutDeposit settles a fiat deposit: the platform keeps its cash
// fee, the remainder runs through the cause's bonding curve, and the minted
// tokens are split between the platform and the depositor. Symbols without a
// registered cause (USD included, or a missing symbol) are credited at a flat
// dollar instead. Redelivered events return store.ErrDuplicateEvent.
func (s *PaymentService) ProcessCheckoutDeposit(ctx context.Context, params DepositParams) (*models.DepositRecord, error) {
	if params.WalletAddress == "" {
		return nil, fmt.Errorf("wallet address is required")
	}
	if params.AmountCents <= 0 {
		return nil, fmt.Errorf("deposit amount must be positive, got %d cents", params.AmountCents)
	}

	if params.EventId != "" {
		if err := s.db.MarkEventProcessed(ctx, params.EventId); err != nil {
			if errors.Is(err, store.ErrDuplicateEvent) {
				zap.L().Info("Skipping redelivered checkout event",
					zap.String("event_id", params.EventId))
			}
			return nil, err
		}
	}

	// Cents all the way until the curve needs a float.
	gross := decimal.New(params.AmountCents, -2)
	fee := gross.Mul(platformFeeRate).Round(2)
	net := gross.Sub(fee)
	netUsd, _ := net.Float64()
	grossUsd, _ := gross.Float64()

	symbol := params.CauseSymbol
	if symbol == "" {
		symbol = "USD"
	}

	cause, err := s.db.GetCauseBySymbol(ctx, symbol)
	if err != nil {
		// No curve behind the symbol. USD topups mint at a flat dollar; so
		// does anything else we don't recognize, because bouncing the event
		// back to the processor would just strand the customer's money.
		if errors.Is(err, store.ErrCauseNotFound) {
			if !strings.EqualFold(symbol, "USD") {
				zap.L().Warn("Deposit names an unknown token, crediting at a flat dollar",
					zap.String("event_id", params.EventId),
					zap.String("symbol", symbol))
			}
			return s.processFlatCredit(ctx, params, symbol, gross, net)
		}
		return nil, err
	}
	if cause.Status != models.CauseActive {
		return nil, fmt.Errorf("cause %s is not accepting donations (status %s)", cause.TokenSymbol, cause.Status)
	}

	minted := s.curve.TokensForAmount(netUsd, cause.TokensPurchased)
	platformTokens := minted * platformTokenRate
	userTokens := minted - platformTokens
	newPrice := s.curve.Price(cause.TokensPurchased + minted)

	err = s.db.UpdateBondingCurve(ctx, store.BondingCurveParams{
		CauseSymbol:     cause.TokenSymbol,
		AmountDonated:   netUsd,
		TokensPurchased: minted,
		CurrentPrice:    newPrice,
	})
	if err != nil {
		return nil, err
	}

	record := models.DepositRecord{
		WalletAddress:        params.WalletAddress,
		TokenSymbol:          cause.TokenSymbol,
		TokenImageUrl:        cause.TokenImageUrl,
		AmountDepositedUsd:   grossUsd,
		AmountTokensReceived: userTokens,
	}
	if err := s.db.RecordDeposit(ctx, record); err != nil {
		return nil, err
	}

	if err := s.ledger.RecordDepositMint(ctx, store.MintParams{
		Reference:      params.EventId,
		WalletAddress:  params.WalletAddress,
		Symbol:         cause.TokenSymbol,
		UserTokens:     userTokens,
		PlatformTokens: platformTokens,
	}); err != nil {
		zap.L().Error("Ledger mirror failed for deposit",
			zap.String("event_id", params.EventId),
			zap.Error(err))
	}

	zap.L().Info("Checkout deposit processed",
		zap.String("wallet", params.WalletAddress),
		zap.String("cause", cause.TokenSymbol),
		zap.String("gross_usd", gross.String()),
		zap.String("fee_usd", fee.String()),
		zap.Float64("tokens_minted", minted),
		zap.Float64("tokens_to_user", userTokens),
		zap.Float64("new_price", newPrice))

	return &record, nil
}

// processFlatCredit credits tokens one-to-one with the net deposit, for USD
// topups and for symbols with no registered cause. No bonding curve moves and
// the platform's cut is cash only.
func (s *PaymentService) processFlatCredit(ctx context.Context, params DepositParams, symbol string, gross, net decimal.Decimal) (*models.DepositRecord, error) {
	grossUsd, _ := gross.Float64()
	netUsd, _ := net.Float64()

	record := models.DepositRecord{
		WalletAddress:        params.WalletAddress,
		TokenSymbol:          symbol,
		AmountDepositedUsd:   grossUsd,
		AmountTokensReceived: netUsd,
	}
	if err := s.db.RecordDeposit(ctx, record); err != nil {
		return nil, err
	}

	if err := s.ledger.RecordDepositMint(ctx, store.MintParams{
		Reference:     params.EventId,
		WalletAddress: params.WalletAddress,
		Symbol:        symbol,
		UserTokens:    netUsd,
	}); err != nil {
		zap.L().Error("Ledger mirror failed for topup",
			zap.String("event_id", params.EventId),
			zap.Error(err))
	}

	zap.L().Info("Flat-dollar deposit credited",
		zap.String("wallet", params.WalletAddress),
		zap.String("symbol", symbol),
		zap.String("gross_usd", gross.String()),
		zap.Float64("credited_usd", netUsd))
	return &record, nil
}
