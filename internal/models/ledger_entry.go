package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryType classifies a ledger entry relative to its owning account.
type EntryType string

const (
	EntryCredit EntryType = "credit" // increases the owner balance
	EntryDebit  EntryType = "debit"  // decreases the owner balance
)

// TopUpMethod is the funding source of a top-up.
type TopUpMethod string

const (
	MethodCard        TopUpMethod = "Card"
	MethodBank        TopUpMethod = "Bank"
	MethodMobileMoney TopUpMethod = "MobileMoney"
)

// Label returns the wording used in top-up notifications. Methods the
// core does not know about fall back to the literal method string.
func (m TopUpMethod) Label() string {
	switch m {
	case MethodBank:
		return "bank transfer"
	case MethodCard:
		return "debit card transfer"
	case MethodMobileMoney:
		return "mobile money transfer"
	default:
		return string(m)
	}
}

// LedgerEntry records one balance-affecting event for a single account.
// Entries are immutable once written: the core never updates or deletes
// them, and CreatedAt (server-assigned) is the sole ordering key.
type LedgerEntry struct {
	ID          string          `json:"id"`
	AccountID   string          `json:"accountId"`
	Type        EntryType       `json:"type"`
	Amount      decimal.Decimal `json:"amount"` // positive magnitude, >= 0.01
	Description string          `json:"description"`
	Method      TopUpMethod     `json:"method,omitempty"` // set for top-ups only
	CreatedAt   time.Time       `json:"createdAt"`
}

// Signed returns the entry amount with its debit/credit sign applied.
func (e LedgerEntry) Signed() decimal.Decimal {
	if e.Type == EntryDebit {
		return e.Amount.Neg()
	}
	return e.Amount
}
