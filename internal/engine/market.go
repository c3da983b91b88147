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

// MarketPriceWindow is the number of most-recent transaction records the
// estimator considers per token.
const MarketPriceWindow = 20

// MarketPrice computes a token's new market price from its recent transaction
// records, ordered newest-first. Each record's effective valuation is
// weighted by its amount and a linear time decay: the newest record weighs
// ~1.0, the oldest in a full window 1/20.
func MarketPrice(records []models.TransactionRecord) (float64, error) {
	if len(records) == 0 {
		return 0, ErrNoMarketData
	}
	if len(records) > MarketPriceWindow {
		records = records[:MarketPriceWindow]
	}

	var weightedSum, weightSum float64
	for i, record := range records {
		weight := float64(MarketPriceWindow-i) / MarketPriceWindow
		weightedSum += record.EffectiveValuation * record.AmountPaid * weight
		weightSum += record.AmountPaid * weight
	}

	if weightSum == 0 {
		return 0, ErrDegenerateWeighting
	}

	return weightedSum / weightSum, nil
}

// EffectiveValuations derives, per token, the fraction of market value the
// vendor effectively accepted: the post-discount amount divided by the
// pre-discount amount. Tokens absent from the initial bundle or with a zero
// initial amount are omitted.
func EffectiveValuations(initial, final []models.TokenPayment) map[string]float64 {
	initialAmounts := make(map[string]float64, len(initial))
	for _, p := range initial {
		initialAmounts[p.TokenKey] = p.AmountToPay
	}

	out := make(map[string]float64, len(final))
	for _, p := range final {
		if before, ok := initialAmounts[p.TokenKey]; ok && before > 0 {
			out[p.Symbol] = p.AmountToPay / before
		}
	}
	return out
}
