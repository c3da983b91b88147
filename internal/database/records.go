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

package database

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/network-goods-institute/index-wallets-backend/internal/models"
	"github.com/network-goods-institute/index-wallets-backend/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (s *Service) RecordTransaction(ctx context.Context, record models.TransactionRecord) error {
	id := record.Id
	if id == "" {
		id = uuid.New().String()
	}
	timestamp := record.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, queryInsertTransactionRecord,
		id, record.TokenKey, record.Symbol, record.AmountPaid,
		record.EffectiveValuation, timestamp, record.PaymentId)
	if err != nil {
		zap.L().Error("Failed to insert transaction record",
			zap.String("token_key", record.TokenKey),
			zap.String("payment_id", record.PaymentId),
			zap.Error(err))
		return fmt.Errorf("unable to insert transaction record: %w", err)
	}
	return nil
}

// GetTransactionRecords returns a token's records newest-first, at most limit.
func (s *Service) GetTransactionRecords(ctx context.Context, tokenKey string, limit int) ([]models.TransactionRecord, error) {
	rows, err := s.db.QueryContext(ctx, queryGetTransactionRecords, tokenKey, limit)
	if err != nil {
		return nil, fmt.Errorf("unable to query transaction records: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var records []models.TransactionRecord
	for rows.Next() {
		var r models.TransactionRecord
		err := rows.Scan(&r.Id, &r.TokenKey, &r.Symbol, &r.AmountPaid,
			&r.EffectiveValuation, &r.Timestamp, &r.PaymentId)
		if err != nil {
			return nil, fmt.Errorf("unable to scan transaction record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction records: %w", err)
	}
	return records, nil
}

func (s *Service) RecordDeposit(ctx context.Context, record models.DepositRecord) error {
	id := record.Id
	if id == "" {
		id = uuid.New().String()
	}
	createdAt := record.CreatedAt
	if createdAt == 0 {
		createdAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx, queryInsertDepositRecord,
		id, record.WalletAddress, record.TokenSymbol, record.TokenImageUrl,
		record.AmountDepositedUsd, record.AmountTokensReceived, createdAt)
	if err != nil {
		zap.L().Error("Failed to insert deposit record",
			zap.String("wallet", record.WalletAddress),
			zap.Error(err))
		return fmt.Errorf("unable to insert deposit record: %w", err)
	}

	zap.L().Info("Deposit recorded",
		zap.String("wallet", record.WalletAddress),
		zap.String("symbol", record.TokenSymbol),
		zap.Float64("amount_usd", record.AmountDepositedUsd),
		zap.Float64("tokens", record.AmountTokensReceived))
	return nil
}

// GetWalletHistory merges a wallet's completed payments (sent and received)
// with its deposits, newest first.
func (s *Service) GetWalletHistory(ctx context.Context, walletAddress string, limit int) ([]models.ActivityItem, error) {
	var items []models.ActivityItem

	rows, err := s.db.QueryContext(ctx, queryGetPaymentsByWallet, walletAddress, walletAddress, limit)
	if err != nil {
		return nil, fmt.Errorf("unable to query wallet payments: %w", err)
	}
	for rows.Next() {
		var p models.Payment
		var valuations, consumption, computed, initial sql.NullString
		err := rows.Scan(&p.PaymentId, &p.VendorAddress, &p.VendorName, &p.PriceUsd,
			&p.CustomerAddress, &p.CustomerUsername, &p.Status, &p.CreatedAt,
			&valuations, &consumption, &computed, &initial)
		if err != nil {
			closeRows(rows)
			return nil, fmt.Errorf("unable to scan wallet payment: %w", err)
		}
		if err := decodeJSONColumn(computed, &p.ComputedPayment); err != nil {
			closeRows(rows)
			return nil, err
		}
		payment := p
		items = append(items, models.ActivityItem{
			Kind:      models.ActivityPayment,
			Timestamp: p.CreatedAt,
			Payment:   &payment,
		})
	}
	if err := rows.Err(); err != nil {
		closeRows(rows)
		return nil, fmt.Errorf("error iterating wallet payments: %w", err)
	}
	closeRows(rows)

	rows, err = s.db.QueryContext(ctx, queryGetDepositsByWallet, walletAddress, limit)
	if err != nil {
		return nil, fmt.Errorf("unable to query wallet deposits: %w", err)
	}
	for rows.Next() {
		var d models.DepositRecord
		err := rows.Scan(&d.Id, &d.WalletAddress, &d.TokenSymbol, &d.TokenImageUrl,
			&d.AmountDepositedUsd, &d.AmountTokensReceived, &d.CreatedAt)
		if err != nil {
			closeRows(rows)
			return nil, fmt.Errorf("unable to scan wallet deposit: %w", err)
		}
		deposit := d
		items = append(items, models.ActivityItem{
			Kind:      models.ActivityDeposit,
			Timestamp: d.CreatedAt,
			Deposit:   &deposit,
		})
	}
	if err := rows.Err(); err != nil {
		closeRows(rows)
		return nil, fmt.Errorf("error iterating wallet deposits: %w", err)
	}
	closeRows(rows)

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Timestamp > items[j].Timestamp
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// MarkEventProcessed claims a checkout event. A second claim for the same
// event returns store.ErrDuplicateEvent, which webhook handlers treat as an
// already-delivered retry.
func (s *Service) MarkEventProcessed(ctx context.Context, eventId string) error {
	_, err := s.db.ExecContext(ctx, queryInsertProcessedEvent, eventId)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicateEvent
		}
		return fmt.Errorf("unable to mark event processed: %w", err)
	}
	return nil
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		zap.L().Warn("Failed to close rows", zap.Error(err))
	}
}
