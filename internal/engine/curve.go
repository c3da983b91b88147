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

import "math"

// Curve is a linear bonding curve: marginal price grows by Slope with every
// token minted. Pure value type, all amounts in fiat major units (dollars).
type Curve struct {
	BasePrice float64 // fiat per token at zero cumulative supply
	Slope     float64 // price increase per token minted
}

// DefaultCurve returns the platform curve: $0.01 base price, price doubles
// after 100,000 tokens (~$1,000 raised).
func DefaultCurve() Curve {
	return Curve{BasePrice: 0.01, Slope: 0.0000001}
}

// Price returns the marginal price after tokensPurchased tokens have been
// minted. Monotonically increasing for tokensPurchased >= 0.
func (c Curve) Price(tokensPurchased float64) float64 {
	return c.BasePrice + c.Slope*tokensPurchased
}

// TokensForAmount returns how many tokens amount of fiat buys starting from
// the curve position at currentTokensPurchased. Price is linear in tokens, so
// cumulative cost is quadratic; this solves the quadratic exactly:
//
//	(slope/2)·t² + price(current)·t - amount = 0
//
// A negative discriminant cannot occur for non-negative inputs and yields 0.
func (c Curve) TokensForAmount(amount, currentTokensPurchased float64) float64 {
	a := c.Slope / 2
	b := c.Price(currentTokensPurchased)
	discriminant := b*b + 4*a*amount
	if discriminant < 0 {
		return 0
	}
	if a == 0 {
		// Flat curve degenerates to constant price.
		if b == 0 {
			return 0
		}
		return amount / b
	}
	return (-b + math.Sqrt(discriminant)) / (2 * a)
}

// AmountForTokens returns the fiat cost of minting tokens starting from the
// position at currentTokensPurchased: the trapezoidal integral of the linear
// price, which is exact here.
func (c Curve) AmountForTokens(tokens, currentTokensPurchased float64) float64 {
	p0 := c.Price(currentTokensPurchased)
	p1 := c.Price(currentTokensPurchased + tokens)
	return (p0 + p1) / 2 * tokens
}

// ApproxTokensForAmount is the historical linear approximation used by the
// first deposit-crediting implementation: estimate at the current price, then
// refine once with the average of start and estimated end price. Close to the
// exact solution for small slopes but diverges by >1% on large purchases;
// kept so the divergence stays measured. New code uses TokensForAmount.
func (c Curve) ApproxTokensForAmount(amount, currentTokensPurchased float64) float64 {
	currentPrice := c.Price(currentTokensPurchased)
	if currentPrice == 0 {
		return 0
	}
	tokens := amount / currentPrice
	endPrice := currentPrice + c.Slope*tokens
	avgPrice := (currentPrice + endPrice) / 2
	return amount / avgPrice
}
