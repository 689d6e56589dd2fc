package wallet

import (
	"context"

	"github.com/paylite/ewallet/internal/models"
)

// Statement is an account summary plus its full ledger history, newest
// entry first. It reflects the latest committed state.
type Statement struct {
	Account      models.Account       `json:"account"`
	Transactions []models.LedgerEntry `json:"transactions"`
}

// History returns the statement for an account. Read-only.
func (e *Engine) History(ctx context.Context, accountID string) (Statement, error) {
	account, err := e.store.FindAccount(ctx, accountID)
	if err != nil {
		return Statement{}, err
	}
	entries, err := e.store.EntriesByAccount(ctx, accountID)
	if err != nil {
		return Statement{}, err
	}
	return Statement{Account: account, Transactions: entries}, nil
}

// Account returns the account summary on its own.
func (e *Engine) Account(ctx context.Context, accountID string) (models.Account, error) {
	return e.store.FindAccount(ctx, accountID)
}

// UnreadCount returns how many notifications the account has not read yet.
func (e *Engine) UnreadCount(ctx context.Context, accountID string) (int, error) {
	return e.store.UnreadCount(ctx, accountID)
}
