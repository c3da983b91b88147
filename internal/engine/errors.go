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
	"errors"
	"fmt"
)

// Sentinel errors for computations with no figures to report.
var (
	ErrZeroPortfolioValue  = errors.New("portfolio has no value from vendor's perspective")
	ErrNoMarketData        = errors.New("no transaction records found for token")
	ErrDegenerateWeighting = errors.New("zero weight sum in market price calculation")
)

// InsufficientPortfolioValueError means the wallet's total value, priced at
// vendor-or-market rates, is below the requested price.
type InsufficientPortfolioValueError struct {
	PortfolioValue float64
	Price          float64
}

func (e *InsufficientPortfolioValueError) Error() string {
	return fmt.Sprintf("insufficient funds: portfolio value $%.2f < payment $%.2f", e.PortfolioValue, e.Price)
}

// InsufficientTokenBalanceError means one token's computed payment exceeds the
// held balance. The first offending token in input order is reported.
type InsufficientTokenBalanceError struct {
	Symbol string
	Needed float64
	Have   float64
}

func (e *InsufficientTokenBalanceError) Error() string {
	return fmt.Sprintf("insufficient %s: need %.6f but have %.6f", e.Symbol, e.Needed, e.Have)
}

// InsufficientFundsAfterAdjustmentError means the bundle passed the initial
// feasibility checks but premiums pushed the actual cost above the wallet's
// value.
type InsufficientFundsAfterAdjustmentError struct {
	ActualCost     float64
	PortfolioValue float64
}

func (e *InsufficientFundsAfterAdjustmentError) Error() string {
	return fmt.Sprintf("insufficient funds after adjustments: actual cost $%.2f > portfolio value $%.2f", e.ActualCost, e.PortfolioValue)
}

// IsInsufficientFunds reports whether err is any of the fund-shortfall
// failures. Callers surface these to end users as a single generic
// "insufficient funds" message while logs keep the precise reason.
func IsInsufficientFunds(err error) bool {
	var pv *InsufficientPortfolioValueError
	var tb *InsufficientTokenBalanceError
	var fa *InsufficientFundsAfterAdjustmentError
	return errors.Is(err, ErrZeroPortfolioValue) ||
		errors.As(err, &pv) ||
		errors.As(err, &tb) ||
		errors.As(err, &fa)
}
