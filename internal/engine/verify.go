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

// VerifyAffordability recomputes the fiat cost of the post-discount bundle at
// market valuations and checks it against the wallet. This is the last gate
// before a bundle is signable: premiums applied after the initial quote can
// push cost above what was affordable, which only this check catches.
//
// Returns the actual cost as the authoritative charge amount. The price
// argument is not used in the computation; it exists so failures can report
// the original quote.
func VerifyAffordability(bundle []models.TokenPayment, balances []models.TokenBalance, price float64) (float64, error) {
	_ = price

	held := make(map[string]models.TokenBalance, len(balances))
	for _, b := range balances {
		held[b.TokenKey] = b
	}

	var actualCost float64
	for _, p := range bundle {
		b := held[p.TokenKey]
		if p.AmountToPay > b.Balance {
			return 0, &InsufficientTokenBalanceError{
				Symbol: p.Symbol,
				Needed: p.AmountToPay,
				Have:   b.Balance,
			}
		}
		actualCost += p.AmountToPay * b.AverageValuation
	}

	totalValue := totalPortfolioValue(balances)
	if actualCost > totalValue {
		return 0, &InsufficientFundsAfterAdjustmentError{
			ActualCost:     actualCost,
			PortfolioValue: totalValue,
		}
	}

	return actualCost, nil
}
