package listener

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/network-goods-institute/index-wallets-backend/internal/api"
	"github.com/network-goods-institute/index-wallets-backend/internal/database"
	"github.com/network-goods-institute/index-wallets-backend/internal/executor"
	"github.com/network-goods-institute/index-wallets-backend/internal/models"
)

type stubExecutor struct{}

func (stubExecutor) GetVault(ctx context.Context, walletAddress string) (*executor.Vault, error) {
	return &executor.Vault{Address: walletAddress, Nonce: 1}, nil
}

func (stubExecutor) SubmitTransfers(ctx context.Context, signed *executor.SignedTransaction) (*executor.SubmitResult, error) {
	return &executor.SubmitResult{TransactionId: "tx-1", Status: "applied"}, nil
}

func setupServer(t *testing.T, signingSecret string) (*Server, *database.Service) {
	t.Helper()
	db, err := database.NewService(context.Background(), models.DatabaseConfig{
		Path:         ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		PingTimeout:  time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(db.Close)

	err = db.CreateCause(context.Background(), models.Cause{
		Name:         "River Restoration",
		Organization: "Clearwater Trust",
		TokenName:    "River Restoration",
		TokenSymbol:  "RIV",
		Status:       models.CauseActive,
	})
	if err != nil {
		t.Fatalf("CreateCause failed: %v", err)
	}

	apiService := api.NewPaymentService(db, stubExecutor{}, nil)
	return NewServer(apiService, models.WebhookConfig{
		Port:            8081,
		SigningSecret:   signingSecret,
		ShutdownTimeout: time.Second,
	}), db
}

func checkoutEvent(eventId, wallet, symbol string, amountCents int64) []byte {
	return []byte(fmt.Sprintf(`{
		"id": %q,
		"type": "checkout.session.completed",
		"data": {
			"object": {
				"id": "cs_test_1",
				"amount_total": %d,
				"client_reference_id": %q,
				"metadata": {
					"user_wallet_address": %q,
					"token_symbol": %q
				}
			}
		}
	}`, eventId, amountCents, wallet, wallet, symbol))
}

// signPayload builds a Stripe-Signature header for the given body.
func signPayload(body []byte, secret string) string {
	timestamp := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", timestamp, body)
	return fmt.Sprintf("t=%d,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil)))
}

func postCheckout(t *testing.T, server *Server, body []byte, signature string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook/checkout", bytes.NewReader(body))
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}
	recorder := httptest.NewRecorder()
	server.handleCheckout(recorder, req)
	return recorder
}

func TestHandleCheckout(t *testing.T) {
	server, db := setupServer(t, "")

	body := checkoutEvent("evt-1", "customer-wallet", "RIV", 10000)
	recorder := postCheckout(t, server, body, "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	cause, err := db.GetCauseBySymbol(context.Background(), "RIV")
	if err != nil {
		t.Fatalf("GetCauseBySymbol failed: %v", err)
	}
	// $100 gross, $95 after the platform fee.
	if cause.AmountDonated != 95 {
		t.Errorf("Expected 95 donated, got %f", cause.AmountDonated)
	}

	history, err := db.GetWalletHistory(context.Background(), "customer-wallet", 10)
	if err != nil {
		t.Fatalf("GetWalletHistory failed: %v", err)
	}
	if len(history) != 1 || history[0].Kind != models.ActivityDeposit {
		t.Fatalf("Expected one deposit in history, got %+v", history)
	}
}

func TestHandleCheckoutRedelivery(t *testing.T) {
	server, db := setupServer(t, "")

	body := checkoutEvent("evt-1", "customer-wallet", "RIV", 10000)
	if recorder := postCheckout(t, server, body, ""); recorder.Code != http.StatusOK {
		t.Fatalf("First delivery failed with %d", recorder.Code)
	}
	if recorder := postCheckout(t, server, body, ""); recorder.Code != http.StatusOK {
		t.Fatalf("Expected 200 on redelivery, got %d", recorder.Code)
	}

	cause, err := db.GetCauseBySymbol(context.Background(), "RIV")
	if err != nil {
		t.Fatalf("GetCauseBySymbol failed: %v", err)
	}
	if cause.AmountDonated != 95 {
		t.Errorf("Redelivery must not double-credit, got %f donated", cause.AmountDonated)
	}
}

func TestHandleCheckoutWithoutSymbolCreditsDollars(t *testing.T) {
	server, db := setupServer(t, "")

	// Sessions created without metadata still settle; the wallet comes from
	// client_reference_id and the credit falls back to dollars.
	body := []byte(`{
		"id": "evt-3",
		"type": "checkout.session.completed",
		"data": {
			"object": {
				"id": "cs_test_3",
				"amount_total": 10000,
				"client_reference_id": "customer-wallet"
			}
		}
	}`)
	if recorder := postCheckout(t, server, body, ""); recorder.Code != http.StatusOK {
		t.Fatalf("Expected 200 for session without metadata, got %d: %s", recorder.Code, recorder.Body.String())
	}

	history, err := db.GetWalletHistory(context.Background(), "customer-wallet", 10)
	if err != nil {
		t.Fatalf("GetWalletHistory failed: %v", err)
	}
	if len(history) != 1 || history[0].Kind != models.ActivityDeposit {
		t.Fatalf("Expected one deposit in history, got %+v", history)
	}
	if history[0].Deposit.TokenSymbol != "USD" {
		t.Errorf("Expected USD fallback credit, got %s", history[0].Deposit.TokenSymbol)
	}
}

func TestHandleCheckoutIgnoresOtherEvents(t *testing.T) {
	server, db := setupServer(t, "")

	body := []byte(`{"id": "evt-2", "type": "payment_intent.created", "data": {"object": {}}}`)
	if recorder := postCheckout(t, server, body, ""); recorder.Code != http.StatusOK {
		t.Fatalf("Expected 200 for ignored event, got %d", recorder.Code)
	}

	cause, err := db.GetCauseBySymbol(context.Background(), "RIV")
	if err != nil {
		t.Fatalf("GetCauseBySymbol failed: %v", err)
	}
	if cause.AmountDonated != 0 {
		t.Errorf("Ignored event must not move the curve, got %f donated", cause.AmountDonated)
	}
}

func TestHandleCheckoutVerifiesSignature(t *testing.T) {
	const secret = "whsec_test"
	server, _ := setupServer(t, secret)

	body := checkoutEvent("evt-1", "customer-wallet", "RIV", 10000)

	if recorder := postCheckout(t, server, body, signPayload(body, secret)); recorder.Code != http.StatusOK {
		t.Fatalf("Expected 200 for valid signature, got %d: %s", recorder.Code, recorder.Body.String())
	}
	if recorder := postCheckout(t, server, checkoutEvent("evt-2", "customer-wallet", "RIV", 10000), signPayload(body, "whsec_wrong")); recorder.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for bad signature, got %d", recorder.Code)
	}
	if recorder := postCheckout(t, server, body, ""); recorder.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for missing signature, got %d", recorder.Code)
	}
}

func TestHandleCheckoutRejectsNonPost(t *testing.T) {
	server, _ := setupServer(t, "")

	req := httptest.NewRequest(http.MethodGet, "/webhook/checkout", nil)
	recorder := httptest.NewRecorder()
	server.handleCheckout(recorder, req)
	if recorder.Code != http.StatusMethodNotAllowed {
		t.Fatalf("Expected 405, got %d", recorder.Code)
	}
}
