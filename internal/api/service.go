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
	"fmt"

	"github.com/network-goods-institute/index-wallets-backend/internal/engine"
	"github.com/network-goods-institute/index-wallets-backend/internal/executor"
	"github.com/network-goods-institute/index-wallets-backend/internal/store"
)

// VaultExecutor is the slice of the executor client the payment flow needs.
type VaultExecutor interface {
	GetVault(ctx context.Context, walletAddress string) (*executor.Vault, error)
	SubmitTransfers(ctx context.Context, signed *executor.SignedTransaction) (*executor.SubmitResult, error)
}

// PaymentService drives the payment and deposit flows across the store, the
// vault executor and the optional ledger mirror.
type PaymentService struct {
	db     store.PaymentStore
	exec   VaultExecutor
	ledger store.TokenLedger
	curve  engine.Curve
}

func NewPaymentService(db store.PaymentStore, exec VaultExecutor, ledger store.TokenLedger) *PaymentService {
	if ledger == nil {
		ledger = store.NopTokenLedger{}
	}
	return &PaymentService{
		db:     db,
		exec:   exec,
		ledger: ledger,
		curve:  engine.DefaultCurve(),
	}
}

func (s *PaymentService) HealthCheck(ctx context.Context) error {
	if _, err := s.db.GetCauses(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}
