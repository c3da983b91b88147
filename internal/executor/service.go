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

// Package executor talks to the vault execution backend that holds token
// balances and applies signed debit transactions.
package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/network-goods-institute/index-wallets-backend/internal/models"

	"go.uber.org/zap"
	"golang.org/x/net/http2"
)

type Service struct {
	baseURL    string
	httpClient http.Client
}

func NewService(cfg models.ExecutorConfig) (*Service, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("executor base URL cannot be empty")
	}

	httpClient, err := createCustomHttpClient(cfg.RequestTimeout)
	if err != nil {
		return nil, fmt.Errorf("unable to create custom http client: %w", err)
	}

	return &Service{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
	}, nil
}

func createCustomHttpClient(timeout time.Duration) (http.Client, error) {
	tr := &http.Transport{
		ResponseHeaderTimeout: 30 * time.Second,
		Proxy:                 http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			KeepAlive: 30 * time.Second,
			Timeout:   15 * time.Second,
		}).DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConnsPerHost:   5,
		ExpectContinueTimeout: 5 * time.Second,
	}

	if err := http2.ConfigureTransport(tr); err != nil {
		return http.Client{}, err
	}

	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return http.Client{
		Transport: tr,
		Timeout:   timeout,
	}, nil
}

// Vault is the executor's view of one wallet: its current nonce and token
// balances in whole-token units.
type Vault struct {
	Address  string             `json:"address"`
	Nonce    uint64             `json:"nonce"`
	Balances map[string]float64 `json:"balances"`
}

// GetVault fetches a wallet's vault state.
func (s *Service) GetVault(ctx context.Context, walletAddress string) (*Vault, error) {
	url := fmt.Sprintf("%s/vaults/%s", s.baseURL, walletAddress)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to build vault request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch vault %s: %w", walletAddress, err)
	}
	defer closeBody(resp.Body)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("vault request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var vault Vault
	if err := json.NewDecoder(resp.Body).Decode(&vault); err != nil {
		return nil, fmt.Errorf("unable to decode vault response: %w", err)
	}

	zap.L().Debug("Fetched vault",
		zap.String("address", vault.Address),
		zap.Uint64("nonce", vault.Nonce))
	return &vault, nil
}

// SubmitResult is the executor's acknowledgement of an applied transaction.
type SubmitResult struct {
	TransactionId string `json:"transaction_id"`
	Status        string `json:"status"`
}

// SubmitTransfers applies a customer-signed debit instruction. The executor
// validates the signature and nonce; a stale nonce or bad signature comes
// back as a non-2xx status.
func (s *Service) SubmitTransfers(ctx context.Context, signed *SignedTransaction) (*SubmitResult, error) {
	payload, err := json.Marshal(signed)
	if err != nil {
		return nil, fmt.Errorf("unable to encode signed transaction: %w", err)
	}

	url := s.baseURL + "/transfers"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("unable to build transfer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unable to submit transfers: %w", err)
	}
	defer closeBody(resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("transfer submission failed with status %d: %s", resp.StatusCode, string(body))
	}

	var result SubmitResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("unable to decode transfer response: %w", err)
	}

	zap.L().Info("Transfers submitted to executor",
		zap.String("transaction_id", result.TransactionId),
		zap.String("status", result.Status))
	return &result, nil
}

func closeBody(body io.ReadCloser) {
	if err := body.Close(); err != nil {
		zap.L().Warn("Failed to close response body", zap.Error(err))
	}
}
