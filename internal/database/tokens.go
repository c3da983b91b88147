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
	"errors"
	"fmt"

	"github.com/network-goods-institute/index-wallets-backend/internal/models"
	"github.com/network-goods-institute/index-wallets-backend/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (s *Service) GetToken(ctx context.Context, tokenKey string) (*models.Token, error) {
	var token models.Token
	err := s.db.QueryRowContext(ctx, queryGetToken, tokenKey).Scan(
		&token.Id, &token.TokenId, &token.TokenName, &token.TokenSymbol,
		&token.MarketValuation, &token.TotalAllocated, &token.TokenImageUrl, &token.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTokenNotFound
		}
		return nil, fmt.Errorf("unable to query token: %w", err)
	}
	return &token, nil
}

// CreateToken registers a token if it is not already known. Used by the
// bootstrap and when a cause's token gets minted.
func (s *Service) CreateToken(ctx context.Context, token models.Token) error {
	_, err := s.db.ExecContext(ctx, queryInsertToken,
		uuid.New().String(), token.TokenId, token.TokenName, token.TokenSymbol,
		token.MarketValuation, token.TotalAllocated, token.TokenImageUrl)
	if err != nil {
		return fmt.Errorf("unable to insert token: %w", err)
	}
	return nil
}

func (s *Service) UpdateMarketValuation(ctx context.Context, tokenKey string, valuation float64) error {
	result, err := s.db.ExecContext(ctx, queryUpdateMarketValuation, valuation, tokenKey)
	if err != nil {
		zap.L().Error("Failed to update market valuation", zap.String("token_key", tokenKey), zap.Error(err))
		return fmt.Errorf("unable to update market valuation: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return store.ErrTokenNotFound
	}

	zap.L().Info("Market valuation updated",
		zap.String("token_key", tokenKey),
		zap.Float64("valuation", valuation))
	return nil
}

func (s *Service) GetCauses(ctx context.Context) ([]models.Cause, error) {
	rows, err := s.db.QueryContext(ctx, queryGetCauses)
	if err != nil {
		return nil, fmt.Errorf("unable to query causes: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var causes []models.Cause
	for rows.Next() {
		cause, err := scanCause(rows)
		if err != nil {
			return nil, err
		}
		causes = append(causes, *cause)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cause rows: %w", err)
	}
	return causes, nil
}

func (s *Service) GetCauseBySymbol(ctx context.Context, symbol string) (*models.Cause, error) {
	row := s.db.QueryRowContext(ctx, queryGetCauseBySymbol, symbol)
	cause, err := scanCause(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrCauseNotFound
		}
		return nil, err
	}
	return cause, nil
}

// CreateCause registers a cause if its token symbol is not already taken.
func (s *Service) CreateCause(ctx context.Context, cause models.Cause) error {
	id := cause.Id
	if id == "" {
		id = uuid.New().String()
	}
	status := cause.Status
	if status == "" {
		status = models.CausePending
	}
	currentPrice := cause.CurrentPrice
	if currentPrice == 0 {
		currentPrice = 0.01
	}

	_, err := s.db.ExecContext(ctx, queryInsertCause,
		id, cause.Name, cause.Organization, cause.Description,
		cause.TokenName, cause.TokenSymbol, cause.TokenId,
		cause.AmountDonated, cause.TokensPurchased, currentPrice,
		string(status), cause.TokenImageUrl)
	if err != nil {
		return fmt.Errorf("unable to insert cause: %w", err)
	}
	return nil
}

// UpdateCauseStatus advances a cause through onboarding, recording the error
// message on failure.
func (s *Service) UpdateCauseStatus(ctx context.Context, symbol string, status models.CauseStatus, errorMessage string) error {
	result, err := s.db.ExecContext(ctx, queryUpdateCauseStatus, string(status), errorMessage, symbol)
	if err != nil {
		return fmt.Errorf("unable to update cause status: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return store.ErrCauseNotFound
	}
	return nil
}

func (s *Service) UpdateBondingCurve(ctx context.Context, params store.BondingCurveParams) error {
	result, err := s.db.ExecContext(ctx, queryUpdateBondingCurve,
		params.AmountDonated, params.TokensPurchased, params.CurrentPrice, params.CauseSymbol)
	if err != nil {
		zap.L().Error("Failed to update bonding curve", zap.String("symbol", params.CauseSymbol), zap.Error(err))
		return fmt.Errorf("unable to update bonding curve: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return store.ErrCauseNotFound
	}

	zap.L().Info("Bonding curve advanced",
		zap.String("symbol", params.CauseSymbol),
		zap.Float64("amount_donated", params.AmountDonated),
		zap.Float64("tokens_purchased", params.TokensPurchased),
		zap.Float64("current_price", params.CurrentPrice))
	return nil
}

// scanCause works for both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCause(row rowScanner) (*models.Cause, error) {
	var c models.Cause
	var status string
	err := row.Scan(
		&c.Id, &c.Name, &c.Organization, &c.Description,
		&c.TokenName, &c.TokenSymbol, &c.TokenId,
		&c.AmountDonated, &c.TokensPurchased, &c.CurrentPrice,
		&status, &c.TokenImageUrl, &c.ErrorMessage, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("unable to scan cause row: %w", err)
	}
	c.Status = models.CauseStatus(status)
	return &c, nil
}
