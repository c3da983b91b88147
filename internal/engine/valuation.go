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
	"math"

	"github.com/network-goods-institute/index-wallets-backend/internal/models"

	"go.uber.org/zap"
)

// Lambda caps how much of a single token's payment share a vendor preference
// may alter per transaction.
const Lambda = 0.2

// totalPortfolioValue sums balance times market valuation over all holdings.
func totalPortfolioValue(balances []models.TokenBalance) float64 {
	var total float64
	for _, b := range balances {
		total += b.Balance * b.AverageValuation
	}
	return total
}

// VendorValuations computes, for each of the customer's tokens, the valuation
// the vendor accepts it at and how much of the vendor's preference budget
// this payment consumes. Outputs are parallel to balances, order-preserving,
// one entry per input token.
//
// Each token's share of the payment is proportional to its share of the
// portfolio's value; a preference can shift at most Lambda of that share, and
// never more than the remaining budget. A portfolio with no value consumes
// nothing.
func VendorValuations(prefs models.Preferences, balances []models.TokenBalance, paymentAmount float64) ([]models.TokenValuation, []models.DiscountConsumption) {
	valuations := make([]models.TokenValuation, 0, len(balances))
	consumptions := make([]models.DiscountConsumption, 0, len(balances))

	totalValue := totalPortfolioValue(balances)

	for _, token := range balances {
		preference := prefs.Resolve(token.Symbol, token.Name)

		var amountUsed float64
		if totalValue > 0 && preference != 0 {
			share := token.Balance * token.AverageValuation / totalValue
			maxConsumable := Lambda * paymentAmount * share
			if preference > 0 {
				amountUsed = math.Min(maxConsumable, preference)
			} else {
				amountUsed = -math.Min(maxConsumable, -preference)
			}
		}

		zap.L().Debug("Resolved vendor preference",
			zap.String("symbol", token.Symbol),
			zap.String("name", token.Name),
			zap.Float64("preference", preference),
			zap.Float64("amount_used", amountUsed))

		valuations = append(valuations, models.TokenValuation{
			TokenKey:  token.TokenKey,
			Symbol:    token.Symbol,
			Valuation: token.AverageValuation,
		})
		consumptions = append(consumptions, models.DiscountConsumption{
			TokenKey:   token.TokenKey,
			Symbol:     token.Symbol,
			AmountUsed: amountUsed,
		})
	}

	return valuations, consumptions
}
