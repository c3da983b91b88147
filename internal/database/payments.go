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
	"time"

	"github.com/network-goods-institute/index-wallets-backend/internal/models"
	"github.com/network-goods-institute/index-wallets-backend/internal/paycode"
	"github.com/network-goods-institute/index-wallets-backend/internal/store"

	"go.uber.org/zap"
)

// codeAttempts bounds the collision retry loop when generating payment codes.
const codeAttempts = 5

func (s *Service) CreatePayment(ctx context.Context, params store.CreatePaymentParams) (*models.Payment, error) {
	if params.PriceUsd <= 0 {
		return nil, fmt.Errorf("payment price must be positive, got %v", params.PriceUsd)
	}

	createdAt := time.Now().Unix()
	for attempt := 0; attempt < codeAttempts; attempt++ {
		code, err := paycode.Generate()
		if err != nil {
			return nil, fmt.Errorf("unable to generate payment code: %w", err)
		}

		_, err = s.db.ExecContext(ctx, queryInsertPayment,
			code, params.VendorAddress, params.VendorName, params.PriceUsd,
			string(models.PaymentCreated), createdAt)
		if err != nil {
			if isUniqueViolation(err) {
				zap.L().Debug("Payment code collision, retrying", zap.String("code", code))
				continue
			}
			zap.L().Error("Failed to insert payment", zap.Error(err))
			return nil, fmt.Errorf("unable to insert payment: %w", err)
		}

		zap.L().Info("Payment created",
			zap.String("payment_id", code),
			zap.String("vendor", params.VendorAddress),
			zap.Float64("price_usd", params.PriceUsd))

		return &models.Payment{
			PaymentId:     code,
			VendorAddress: params.VendorAddress,
			VendorName:    params.VendorName,
			PriceUsd:      params.PriceUsd,
			Status:        models.PaymentCreated,
			CreatedAt:     createdAt,
		}, nil
	}

	return nil, fmt.Errorf("unable to find a free payment code after %d attempts", codeAttempts)
}

func (s *Service) GetPayment(ctx context.Context, paymentId string) (*models.Payment, error) {
	var p models.Payment
	var valuations, consumption, computed, initial sql.NullString

	err := s.db.QueryRowContext(ctx, queryGetPayment, paycode.Normalize(paymentId)).Scan(
		&p.PaymentId, &p.VendorAddress, &p.VendorName, &p.PriceUsd,
		&p.CustomerAddress, &p.CustomerUsername, &p.Status, &p.CreatedAt,
		&valuations, &consumption, &computed, &initial)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrPaymentNotFound
		}
		zap.L().Error("Failed to query payment", zap.String("payment_id", paymentId), zap.Error(err))
		return nil, fmt.Errorf("unable to query payment: %w", err)
	}

	if err := decodeJSONColumn(valuations, &p.VendorValuations); err != nil {
		return nil, err
	}
	if err := decodeJSONColumn(consumption, &p.DiscountConsumption); err != nil {
		return nil, err
	}
	if err := decodeJSONColumn(computed, &p.ComputedPayment); err != nil {
		return nil, err
	}
	if err := decodeJSONColumn(initial, &p.InitialPaymentBundle); err != nil {
		return nil, err
	}

	return &p, nil
}

// AssignCustomer binds a customer to a Created payment. Re-assigning the same
// customer is idempotent; a different customer is rejected.
func (s *Service) AssignCustomer(ctx context.Context, paymentId, customerAddress, customerUsername string) (*models.Payment, error) {
	payment, err := s.GetPayment(ctx, paymentId)
	if err != nil {
		return nil, err
	}

	if payment.CustomerAddress != "" && payment.CustomerAddress != customerAddress {
		return nil, store.ErrCustomerMismatch
	}
	if payment.Status == models.PaymentCompleted {
		return nil, store.ErrPaymentCompleted
	}

	if payment.CustomerAddress == customerAddress && payment.Status != models.PaymentCreated {
		return payment, nil
	}
	if !payment.Status.CanTransitionTo(models.PaymentCustomerAssigned) {
		return nil, store.ErrInvalidTransition
	}

	_, err = s.db.ExecContext(ctx, queryAssignCustomer,
		customerAddress, customerUsername, string(models.PaymentCustomerAssigned), payment.PaymentId)
	if err != nil {
		zap.L().Error("Failed to assign customer", zap.String("payment_id", payment.PaymentId), zap.Error(err))
		return nil, fmt.Errorf("unable to assign customer: %w", err)
	}

	payment.CustomerAddress = customerAddress
	payment.CustomerUsername = customerUsername
	payment.Status = models.PaymentCustomerAssigned
	return payment, nil
}

func (s *Service) SaveCalculations(ctx context.Context, params store.SaveCalculationsParams) error {
	payment, err := s.GetPayment(ctx, params.PaymentId)
	if err != nil {
		return err
	}
	// Re-saving at Calculated is allowed: a customer whose first attempt
	// failed past this point retries and needs the row overwritten with the
	// fresh calculation.
	if payment.Status != models.PaymentCalculated && !payment.Status.CanTransitionTo(models.PaymentCalculated) {
		return store.ErrInvalidTransition
	}

	valuations, err := json.Marshal(params.VendorValuations)
	if err != nil {
		return fmt.Errorf("unable to encode vendor valuations: %w", err)
	}
	consumption, err := json.Marshal(params.DiscountConsumption)
	if err != nil {
		return fmt.Errorf("unable to encode discount consumption: %w", err)
	}
	computed, err := json.Marshal(params.ComputedPayment)
	if err != nil {
		return fmt.Errorf("unable to encode computed payment: %w", err)
	}
	initial, err := json.Marshal(params.InitialPaymentBundle)
	if err != nil {
		return fmt.Errorf("unable to encode initial bundle: %w", err)
	}

	_, err = s.db.ExecContext(ctx, querySaveCalculations,
		string(valuations), string(consumption), string(computed), string(initial),
		string(models.PaymentCalculated), payment.PaymentId)
	if err != nil {
		zap.L().Error("Failed to save calculations", zap.String("payment_id", payment.PaymentId), zap.Error(err))
		return fmt.Errorf("unable to save calculations: %w", err)
	}

	zap.L().Info("Payment calculations saved", zap.String("payment_id", payment.PaymentId))
	return nil
}

// UpdatePaymentStatus moves a payment forward. The guard runs twice: once
// against the loaded row and once in the UPDATE's WHERE clause, so a
// concurrent writer cannot slip a backward transition through.
func (s *Service) UpdatePaymentStatus(ctx context.Context, paymentId string, status models.PaymentStatus) error {
	payment, err := s.GetPayment(ctx, paymentId)
	if err != nil {
		return err
	}
	if !payment.Status.CanTransitionTo(status) {
		return store.ErrInvalidTransition
	}

	result, err := s.db.ExecContext(ctx, queryUpdatePaymentStatus,
		string(status), payment.PaymentId, string(payment.Status))
	if err != nil {
		zap.L().Error("Failed to update payment status", zap.String("payment_id", payment.PaymentId), zap.Error(err))
		return fmt.Errorf("unable to update payment status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return store.ErrInvalidTransition
	}

	zap.L().Info("Payment status updated",
		zap.String("payment_id", payment.PaymentId),
		zap.String("from", string(payment.Status)),
		zap.String("to", string(status)))
	return nil
}

// DeletePayment cancels an open payment. Only the initiating vendor may
// cancel, and completed payments are immutable.
func (s *Service) DeletePayment(ctx context.Context, paymentId, requesterAddress string) error {
	payment, err := s.GetPayment(ctx, paymentId)
	if err != nil {
		return err
	}
	if payment.VendorAddress != requesterAddress {
		return store.ErrNotVendor
	}
	if payment.Status == models.PaymentCompleted {
		return store.ErrPaymentCompleted
	}

	if _, err := s.db.ExecContext(ctx, queryDeletePayment, payment.PaymentId); err != nil {
		zap.L().Error("Failed to delete payment", zap.String("payment_id", payment.PaymentId), zap.Error(err))
		return fmt.Errorf("unable to delete payment: %w", err)
	}

	zap.L().Info("Payment cancelled", zap.String("payment_id", payment.PaymentId))
	return nil
}

func decodeJSONColumn[T any](col sql.NullString, out *T) error {
	if !col.Valid || col.String == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(col.String), out); err != nil {
		return fmt.Errorf("unable to decode payment column: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
