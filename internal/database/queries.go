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

const (
	// User queries
	queryInsertUser = `
		INSERT OR IGNORE INTO users (id, wallet_address, username, preferences) VALUES (?, ?, ?, ?)`

	queryGetUserByWallet = `
		SELECT id, wallet_address, username, preferences
		FROM users
		WHERE wallet_address = ?`

	queryUpdatePreferences = `
		UPDATE users SET preferences = ?, updated_at = CURRENT_TIMESTAMP
		WHERE wallet_address = ?`

	// Payment queries
	queryInsertPayment = `
		INSERT INTO payments (payment_id, vendor_address, vendor_name, price_usd, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	queryGetPayment = `
		SELECT payment_id, vendor_address, vendor_name, price_usd,
		       customer_address, customer_username, status, created_at,
		       vendor_valuations, discount_consumption, computed_payment, initial_payment_bundle
		FROM payments
		WHERE payment_id = ?`

	queryAssignCustomer = `
		UPDATE payments
		SET customer_address = ?, customer_username = ?, status = ?
		WHERE payment_id = ?`

	querySaveCalculations = `
		UPDATE payments
		SET vendor_valuations = ?, discount_consumption = ?,
		    computed_payment = ?, initial_payment_bundle = ?, status = ?
		WHERE payment_id = ?`

	queryUpdatePaymentStatus = `
		UPDATE payments SET status = ? WHERE payment_id = ? AND status = ?`

	queryDeletePayment = `
		DELETE FROM payments WHERE payment_id = ?`

	queryGetPaymentsByWallet = `
		SELECT payment_id, vendor_address, vendor_name, price_usd,
		       customer_address, customer_username, status, created_at,
		       vendor_valuations, discount_consumption, computed_payment, initial_payment_bundle
		FROM payments
		WHERE status = 'Completed' AND (vendor_address = ? OR customer_address = ?)
		ORDER BY created_at DESC
		LIMIT ?`

	// Token queries
	queryInsertToken = `
		INSERT OR IGNORE INTO tokens (id, token_id, token_name, token_symbol, market_valuation, total_allocated, token_image_url)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	queryGetToken = `
		SELECT id, token_id, token_name, token_symbol, market_valuation, total_allocated, token_image_url, created_at
		FROM tokens
		WHERE token_id = ?`

	queryUpdateMarketValuation = `
		UPDATE tokens SET market_valuation = ? WHERE token_id = ?`

	// Cause queries
	queryInsertCause = `
		INSERT OR IGNORE INTO causes (
			id, name, organization, description, token_name, token_symbol, token_id,
			amount_donated, tokens_purchased, current_price, status, token_image_url
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetCauses = `
		SELECT id, name, organization, description, token_name, token_symbol, token_id,
		       amount_donated, tokens_purchased, current_price, status, token_image_url,
		       error_message, created_at, updated_at
		FROM causes
		ORDER BY created_at`

	queryGetCauseBySymbol = `
		SELECT id, name, organization, description, token_name, token_symbol, token_id,
		       amount_donated, tokens_purchased, current_price, status, token_image_url,
		       error_message, created_at, updated_at
		FROM causes
		WHERE UPPER(token_symbol) = UPPER(?)`

	queryUpdateBondingCurve = `
		UPDATE causes
		SET amount_donated = amount_donated + ?,
		    tokens_purchased = tokens_purchased + ?,
		    current_price = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE UPPER(token_symbol) = UPPER(?)`

	queryUpdateCauseStatus = `
		UPDATE causes SET status = ?, error_message = ?, updated_at = CURRENT_TIMESTAMP
		WHERE UPPER(token_symbol) = UPPER(?)`

	// Record queries
	queryInsertTransactionRecord = `
		INSERT INTO transaction_records (id, token_key, symbol, amount_paid, effective_valuation, timestamp, payment_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	queryGetTransactionRecords = `
		SELECT id, token_key, symbol, amount_paid, effective_valuation, timestamp, payment_id
		FROM transaction_records
		WHERE token_key = ?
		ORDER BY timestamp DESC
		LIMIT ?`

	queryInsertDepositRecord = `
		INSERT INTO deposit_records (id, wallet_address, token_symbol, token_image_url, amount_deposited_usd, amount_tokens_received, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	queryGetDepositsByWallet = `
		SELECT id, wallet_address, token_symbol, token_image_url, amount_deposited_usd, amount_tokens_received, created_at
		FROM deposit_records
		WHERE wallet_address = ?
		ORDER BY created_at DESC
		LIMIT ?`

	queryInsertProcessedEvent = `
		INSERT INTO processed_events (event_id) VALUES (?)`
)
