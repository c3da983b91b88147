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

package engine

import (
	"github.com/network-goods-institute/index-wallets-backend/internal/models"
)

// PaymentBundle splits price across the customer's tokens in proportion to
// each token's share of the portfolio value, using the vendor's valuation
// where one matches by symbol and the market valuation otherwise. The
// returned bundle's values sum to price whenever the portfolio can cover it.
//
// Tokens with zero balance are skipped entirely. A token whose valuation is
// zero cannot carry payment value and pays nothing. The first token whose
// computed payment exceeds its balance aborts the computation.
func PaymentBundle(balances []models.TokenBalance, valuations []models.TokenValuation, price float64) ([]models.TokenPayment, error) {
	type weighted struct {
		balance   models.TokenBalance
		valuation float64
		value     float64
	}

	vendorValuation := make(map[string]float64, len(valuations))
	for _, v := range valuations {
		vendorValuation[v.Symbol] = v.Valuation
	}

	var totalValue float64
	entries := make([]weighted, 0, len(balances))
	for _, b := range balances {
		if b.Balance == 0 {
			continue
		}
		valuation, ok := vendorValuation[b.Symbol]
		if !ok {
			valuation = b.AverageValuation
		}
		value := b.Balance * valuation
		totalValue += value
		entries = append(entries, weighted{balance: b, valuation: valuation, value: value})
	}

	if totalValue == 0 {
		return nil, ErrZeroPortfolioValue
	}

	payments := make([]models.TokenPayment, 0, len(entries))
	for _, e := range entries {
		weight := e.value / totalValue
		paymentValue := price * weight

		var tokensToPay float64
		if e.valuation > 0 {
			tokensToPay = paymentValue / e.valuation
		}

		if tokensToPay > e.balance.Balance {
			return nil, &InsufficientTokenBalanceError{
				Symbol: e.balance.Symbol,
				Needed: tokensToPay,
				Have:   e.balance.Balance,
			}
		}

		payments = append(payments, models.TokenPayment{
			TokenKey:      e.balance.TokenKey,
			Symbol:        e.balance.Symbol,
			AmountToPay:   tokensToPay,
			TokenImageUrl: e.balance.TokenImageUrl,
		})
	}

	// An underfunded portfolio always produces a per-token offender above,
	// except at the float-rounding boundary. Never hand back a bundle that
	// cannot cover the price.
	if totalValue < price {
		return nil, &InsufficientPortfolioValueError{PortfolioValue: totalValue, Price: price}
	}

	return payments, nil
}
