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

package executor

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/network-goods-institute/index-wallets-backend/internal/models"
)

// DebitInstruction is the unsigned vault transaction a customer signs to
// release a payment bundle. Allowances are keyed by token key in the vault's
// integer units (hundredths of a token).
type DebitInstruction struct {
	VaultAddress string            `json:"vault_address"`
	Recipient    string            `json:"recipient"`
	Nonce        uint64            `json:"nonce"`
	Allowances   map[string]uint64 `json:"allowances"`
	PaymentId    string            `json:"payment_id"`
}

// SignedTransaction pairs an instruction with the customer's signature over
// its canonical JSON encoding.
type SignedTransaction struct {
	Instruction DebitInstruction `json:"instruction"`
	Signature   string           `json:"signature"`
}

// BuildDebitInstruction turns a calculated bundle into the instruction the
// customer signs. Amounts convert to the vault's hundredth-token units,
// rounded to nearest; the nonce is the vault's current nonce plus one.
func BuildDebitInstruction(vault *Vault, payment *models.Payment) (*DebitInstruction, error) {
	if len(payment.ComputedPayment) == 0 {
		return nil, fmt.Errorf("payment %s has no computed bundle", payment.PaymentId)
	}

	allowances := make(map[string]uint64, len(payment.ComputedPayment))
	for _, p := range payment.ComputedPayment {
		if p.AmountToPay < 0 {
			return nil, fmt.Errorf("negative amount for token %s in payment %s", p.Symbol, payment.PaymentId)
		}
		units := uint64(math.Round(p.AmountToPay * 100))
		if units == 0 {
			continue
		}
		allowances[p.TokenKey] = units
	}

	return &DebitInstruction{
		VaultAddress: vault.Address,
		Recipient:    payment.VendorAddress,
		Nonce:        vault.Nonce + 1,
		Allowances:   allowances,
		PaymentId:    payment.PaymentId,
	}, nil
}

// Encode returns the canonical JSON the customer signs.
func (d *DebitInstruction) Encode() (string, error) {
	encoded, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("unable to encode debit instruction: %w", err)
	}
	return string(encoded), nil
}
