package models

import "strings"

// Preferences maps a token symbol (or name) to a signed fiat budget: positive
// grants discounts for payments in that token, negative demands premiums.
// Budgets are consumed toward zero as payments complete and are never
// auto-replenished.
type Preferences map[string]float64

// Resolve looks up the preference for a token, probing exact symbol first,
// then name, then the lowercase forms. Returns 0 when no variant matches.
func (p Preferences) Resolve(symbol, name string) float64 {
	if p == nil {
		return 0
	}
	for _, key := range []string{symbol, name, strings.ToLower(symbol), strings.ToLower(name)} {
		if v, ok := p[key]; ok {
			return v
		}
	}
	return 0
}

// User is a wallet holder. Vendors store their per-token preference budgets
// here; customers typically keep the empty default created on signup.
type User struct {
	Id            string      `db:"id" json:"-"`
	WalletAddress string      `db:"wallet_address" json:"wallet_address"`
	Username      string      `db:"username" json:"username"`
	Preferences   Preferences `db:"preferences" json:"preferences"`
}
