package models

import "time"

// CauseStatus tracks a cause through onboarding: it becomes Active once its
// token is minted and the processor account can take checkouts.
type CauseStatus string

const (
	CausePending     CauseStatus = "pending"
	CauseTokenMinted CauseStatus = "token_minted"
	CauseActive      CauseStatus = "active"
	CauseFailed      CauseStatus = "failed"
)

// Cause is a donation target with its own token and bonding-curve position.
// AmountDonated, TokensPurchased and CurrentPrice advance together on every
// donation deposit.
type Cause struct {
	Id              string      `db:"id" json:"id"`
	Name            string      `db:"name" json:"name"`
	Organization    string      `db:"organization" json:"organization"`
	Description     string      `db:"description" json:"description"`
	TokenName       string      `db:"token_name" json:"token_name"`
	TokenSymbol     string      `db:"token_symbol" json:"token_symbol"`
	TokenId         string      `db:"token_id" json:"token_id,omitempty"`
	AmountDonated   float64     `db:"amount_donated" json:"amount_donated"`
	TokensPurchased float64     `db:"tokens_purchased" json:"tokens_purchased"`
	CurrentPrice    float64     `db:"current_price" json:"current_price"`
	Status          CauseStatus `db:"status" json:"status"`
	TokenImageUrl   string      `db:"token_image_url" json:"token_image_url,omitempty"`
	ErrorMessage    string      `db:"error_message" json:"error_message,omitempty"`
	CreatedAt       time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at" json:"updated_at"`
}
