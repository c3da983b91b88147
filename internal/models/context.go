package models

import "context"

type checkoutContextKey struct{}

// CheckoutContext carries supplementary checkout-session data through context
// so the Formance mirror can store it as transaction metadata without
// changing the TokenLedger interface.
type CheckoutContext struct {
	SessionId        string // processor checkout session id
	EventId          string // processor event id
	PaymentIntentId  string // processor payment intent, if present
	ConnectedAccount string // destination account for the cause payout
	Currency         string // minor-unit currency of the checkout (e.g. "usd")
}

// WithCheckoutContext attaches checkout session data to a context.
func WithCheckoutContext(ctx context.Context, cc *CheckoutContext) context.Context {
	return context.WithValue(ctx, checkoutContextKey{}, cc)
}

// GetCheckoutContext retrieves checkout session data from context, or nil if absent.
func GetCheckoutContext(ctx context.Context) *CheckoutContext {
	cc, _ := ctx.Value(checkoutContextKey{}).(*CheckoutContext)
	return cc
}
