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

// Package listener serves the checkout webhook: signature-verified
// checkout.session.completed events become deposits.
package listener

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/network-goods-institute/index-wallets-backend/internal/api"
	"github.com/network-goods-institute/index-wallets-backend/internal/models"
	"github.com/network-goods-institute/index-wallets-backend/internal/store"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
	"go.uber.org/zap"
)

// maxPayloadBytes bounds webhook request bodies, matching the payment
// processor's documented maximum event size.
const maxPayloadBytes = 65536

// Server receives checkout webhooks and hands settled sessions to the
// payment service.
type Server struct {
	api *api.PaymentService
	cfg models.WebhookConfig

	server *http.Server
}

func NewServer(apiService *api.PaymentService, cfg models.WebhookConfig) *Server {
	return &Server{api: apiService, cfg: cfg}
}

// Start serves until ctx is cancelled, then drains in-flight requests within
// the configured shutdown timeout. Returns nil on a clean shutdown.
func (s *Server) Start(ctx context.Context) error {
	if s.cfg.SigningSecret == "" {
		zap.L().Warn("No signing secret configured, webhook signatures will NOT be verified")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/webhook/checkout", s.handleCheckout)
	mux.HandleFunc("/health", s.handleHealth)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	zap.L().Info("Starting checkout webhook server", zap.Int("port", s.cfg.Port))

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			zap.L().Warn("Webhook server shutdown error", zap.Error(err))
		}
	}()

	if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.api.HealthCheck(r.Context()); err != nil {
		zap.L().Error("Health check failed", zap.Error(err))
		http.Error(w, "unhealthy", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	body, readErr := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
	if readErr != nil {
		zap.L().Warn("Failed to read webhook body", zap.Error(readErr))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	event, err := s.parseEvent(body, r.Header.Get("Stripe-Signature"))
	if err != nil {
		zap.L().Warn("Rejected webhook event", zap.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	// Everything except completed checkouts is acknowledged and dropped.
	if event.Type != "checkout.session.completed" {
		zap.L().Debug("Ignoring event", zap.String("type", string(event.Type)))
		w.WriteHeader(http.StatusOK)
		return
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		zap.L().Warn("Malformed checkout session payload",
			zap.String("event_id", event.ID),
			zap.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	walletAddress := session.Metadata["user_wallet_address"]
	if walletAddress == "" {
		walletAddress = session.ClientReferenceID
	}
	tokenSymbol := session.Metadata["token_symbol"]

	zap.L().Info("Checkout session completed",
		zap.String("event_id", event.ID),
		zap.String("session_id", session.ID),
		zap.String("wallet", walletAddress),
		zap.String("token_symbol", tokenSymbol),
		zap.Int64("amount_cents", session.AmountTotal))

	checkoutCtx := &models.CheckoutContext{
		SessionId: session.ID,
		EventId:   event.ID,
		Currency:  string(session.Currency),
	}
	if session.PaymentIntent != nil {
		checkoutCtx.PaymentIntentId = session.PaymentIntent.ID
	}
	ctx := models.WithCheckoutContext(r.Context(), checkoutCtx)

	if _, err := s.api.ProcessCheckoutDeposit(ctx, api.DepositParams{
		EventId:       event.ID,
		WalletAddress: walletAddress,
		CauseSymbol:   tokenSymbol,
		AmountCents:   session.AmountTotal,
	}); err != nil {
		// Redeliveries are a success from the processor's point of view.
		if errors.Is(err, store.ErrDuplicateEvent) {
			w.WriteHeader(http.StatusOK)
			return
		}
		zap.L().Error("Failed to process checkout deposit",
			zap.String("event_id", event.ID),
			zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// parseEvent verifies the processor's signature when a secret is configured
// and decodes the raw body otherwise (local development only).
func (s *Server) parseEvent(body []byte, signature string) (stripe.Event, error) {
	if s.cfg.SigningSecret != "" {
		return webhook.ConstructEvent(body, signature, s.cfg.SigningSecret)
	}

	var event stripe.Event
	if err := json.Unmarshal(body, &event); err != nil {
		return stripe.Event{}, fmt.Errorf("malformed event payload: %w", err)
	}
	return event, nil
}
