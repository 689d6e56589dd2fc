package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// TopUpCompleted is published after a top-up commits. Value is created
// here: the credit has no debit counterpart.
type TopUpCompleted struct {
	EntryID    string          `json:"entry_id"`
	AccountID  string          `json:"account_id"`
	Amount     decimal.Decimal `json:"amount"`
	Method     string          `json:"method"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// TransferCompleted is published after a peer-to-peer send commits.
type TransferCompleted struct {
	DebitEntryID  string          `json:"debit_entry_id"`
	CreditEntryID string          `json:"credit_entry_id"`
	SenderID      string          `json:"sender_id"`
	RecipientID   string          `json:"recipient_id"`
	Amount        decimal.Decimal `json:"amount"`
	OccurredAt    time.Time       `json:"occurred_at"`
}
