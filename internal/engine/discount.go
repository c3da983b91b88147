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

// ApplyDiscounts adjusts a bundle in place by the vendor's consumed
// discounts and premiums. Each fiat amount converts to token units at the
// token's market valuation: a discount reduces the tokens owed, a premium
// (negative AmountUsed) increases them. Amounts never go below zero.
//
// Tokens whose market valuation is zero are left untouched; there is no
// meaningful conversion rate for them.
func ApplyDiscounts(bundle []models.TokenPayment, consumption []models.DiscountConsumption, balances []models.TokenBalance) {
	consumed := make(map[string]float64, len(consumption))
	for _, c := range consumption {
		consumed[c.TokenKey] = c.AmountUsed
	}
	marketValuation := make(map[string]float64, len(balances))
	for _, b := range balances {
		marketValuation[b.TokenKey] = b.AverageValuation
	}

	for i := range bundle {
		amountUsed := consumed[bundle[i].TokenKey]
		if amountUsed == 0 {
			continue
		}
		valuation := marketValuation[bundle[i].TokenKey]
		if valuation == 0 {
			continue
		}
		tokenDiscount := amountUsed / valuation
		adjusted := bundle[i].AmountToPay - tokenDiscount
		if adjusted < 0 {
			adjusted = 0
		}
		bundle[i].AmountToPay = adjusted
	}
}
