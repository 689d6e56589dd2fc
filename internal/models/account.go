package models

import "github.com/shopspring/decimal"

// Account is a wallet holder as seen by the money-movement core.
// Accounts are created at signup (outside this service) and never
// deleted here; only the transfer engine mutates Balance.
type Account struct {
	ID        string          `json:"id"`
	Email     string          `json:"email"`
	FirstName string          `json:"firstName"`
	LastName  string          `json:"lastName"`
	Balance   decimal.Decimal `json:"balance"`
}
