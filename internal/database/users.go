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
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/network-goods-institute/index-wallets-backend/internal/models"
	"github.com/network-goods-institute/index-wallets-backend/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (s *Service) GetUserByWallet(ctx context.Context, walletAddress string) (*models.User, error) {
	zap.L().Debug("Querying user by wallet", zap.String("wallet", walletAddress))

	var user models.User
	var prefsJSON string
	err := s.db.QueryRowContext(ctx, queryGetUserByWallet, walletAddress).Scan(
		&user.Id, &user.WalletAddress, &user.Username, &prefsJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrUserNotFound
		}
		zap.L().Error("Failed to query user by wallet", zap.String("wallet", walletAddress), zap.Error(err))
		return nil, fmt.Errorf("unable to query user by wallet: %w", err)
	}

	if err := json.Unmarshal([]byte(prefsJSON), &user.Preferences); err != nil {
		return nil, fmt.Errorf("unable to decode preferences for %s: %w", walletAddress, err)
	}

	return &user, nil
}

func (s *Service) CreateUser(ctx context.Context, walletAddress, username string) (*models.User, error) {
	zap.L().Info("Creating user", zap.String("wallet", walletAddress), zap.String("username", username))

	result, err := s.db.ExecContext(ctx, queryInsertUser, uuid.New().String(), walletAddress, username, "{}")
	if err != nil {
		zap.L().Error("Failed to insert user", zap.String("wallet", walletAddress), zap.Error(err))
		return nil, fmt.Errorf("unable to insert user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("unable to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("user with wallet %s already exists", walletAddress)
	}

	return s.GetUserByWallet(ctx, walletAddress)
}

func (s *Service) GetPreferences(ctx context.Context, walletAddress string) (models.Preferences, error) {
	user, err := s.GetUserByWallet(ctx, walletAddress)
	if err != nil {
		return nil, err
	}
	if user.Preferences == nil {
		return models.Preferences{}, nil
	}
	return user.Preferences, nil
}

func (s *Service) SetPreferences(ctx context.Context, walletAddress string, prefs models.Preferences) error {
	encoded, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("unable to encode preferences: %w", err)
	}

	result, err := s.db.ExecContext(ctx, queryUpdatePreferences, string(encoded), walletAddress)
	if err != nil {
		zap.L().Error("Failed to update preferences", zap.String("wallet", walletAddress), zap.Error(err))
		return fmt.Errorf("unable to update preferences: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return store.ErrUserNotFound
	}
	return nil
}

// ConsumePreferences shrinks the vendor's budgets toward zero by what a
// completed payment used. The stored key may be any of the four probe
// variants (symbol, name, lowercase forms), so the match walks the same
// order as the resolution at calculation time.
func (s *Service) ConsumePreferences(ctx context.Context, walletAddress string, consumption []models.DiscountConsumption) error {
	prefs, err := s.GetPreferences(ctx, walletAddress)
	if err != nil {
		return err
	}

	changed := false
	for _, c := range consumption {
		if c.AmountUsed == 0 {
			continue
		}

		var tokenName string
		if token, err := s.GetToken(ctx, c.TokenKey); err == nil {
			tokenName = token.TokenName
		}

		key, ok := resolveKey(prefs, c.Symbol, tokenName)
		if !ok {
			zap.L().Warn("Consumed budget has no stored preference key",
				zap.String("wallet", walletAddress),
				zap.String("symbol", c.Symbol))
			continue
		}

		remaining := prefs[key] - c.AmountUsed
		// Consumption carries the budget's sign; crossing zero means a
		// float artifact, not an overdraft.
		if (prefs[key] > 0 && remaining < 0) || (prefs[key] < 0 && remaining > 0) {
			remaining = 0
		}
		prefs[key] = remaining
		changed = true

		zap.L().Debug("Consumed vendor preference",
			zap.String("wallet", walletAddress),
			zap.String("key", key),
			zap.Float64("amount_used", c.AmountUsed),
			zap.Float64("remaining", remaining))
	}

	if !changed {
		return nil
	}
	return s.SetPreferences(ctx, walletAddress, prefs)
}

func resolveKey(prefs models.Preferences, symbol, name string) (string, bool) {
	for _, key := range []string{symbol, name, strings.ToLower(symbol), strings.ToLower(name)} {
		if _, ok := prefs[key]; ok && key != "" {
			return key, true
		}
	}
	return "", false
}
