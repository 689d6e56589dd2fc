package wallet

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/paylite/ewallet/internal/interfaces"
	"github.com/paylite/ewallet/internal/models"
	"github.com/paylite/ewallet/internal/models/events"
)

// Kafka topics for committed money movements.
const (
	TopicTopUpCompleted    = "wallet.topup_completed"
	TopicTransferCompleted = "wallet.transfer_completed"
)

// minAmount is the smallest amount the ledger accepts (one cent).
var minAmount = decimal.New(1, -2)

// Engine orchestrates top-ups and peer-to-peer sends. Each operation
// runs as a single atomic unit through the store: balance mutations,
// ledger entries and notifications commit or abort together. The engine
// holds no in-process locks; isolation between concurrent transfers is
// the store's job (row locks in postgres, a store mutex in memory).
type Engine struct {
	store  interfaces.WalletStore
	events interfaces.EventPublisher // optional; nil disables publishing
}

func NewEngine(store interfaces.WalletStore, events interfaces.EventPublisher) *Engine {
	return &Engine{
		store:  store,
		events: events,
	}
}

// TopUpRequest is a validated deposit request. Top-ups create value:
// the credit has no counterparty debit.
type TopUpRequest struct {
	AccountID   string
	Amount      decimal.Decimal
	Method      models.TopUpMethod
	Description string
}

// SendRequest is a validated peer-to-peer transfer request. The
// recipient is addressed by email.
type SendRequest struct {
	SenderID       string
	RecipientEmail string
	Amount         decimal.Decimal
	Description    string
}

// TopUp credits an account, records one credit ledger entry and one
// notification, all in one atomic unit.
func (e *Engine) TopUp(ctx context.Context, req TopUpRequest) error {
	if req.Amount.Cmp(minAmount) < 0 {
		return ErrInvalidAmount
	}

	entry := models.LedgerEntry{
		ID:          uuid.NewString(),
		AccountID:   req.AccountID,
		Type:        models.EntryCredit,
		Amount:      req.Amount,
		Description: defaultDescription(req.Description),
		Method:      req.Method,
	}

	err := e.store.RunInTx(ctx, func(tx interfaces.WalletTx) error {
		locked, err := tx.LockAccounts(ctx, req.AccountID)
		if err != nil {
			return err
		}
		if _, ok := locked[req.AccountID]; !ok {
			return models.ErrAccountNotFound
		}

		if err := tx.AppendEntry(ctx, entry); err != nil {
			return err
		}
		msg := fmt.Sprintf("You have received %s via a %s top-up.",
			req.Amount.StringFixed(2), req.Method.Label())
		if err := tx.AppendNotification(ctx, models.Notification{
			ID:        uuid.NewString(),
			AccountID: req.AccountID,
			Message:   msg,
		}); err != nil {
			return err
		}
		return tx.AdjustBalance(ctx, req.AccountID, req.Amount)
	})
	if err != nil {
		return err
	}

	e.publish(ctx, TopicTopUpCompleted, events.TopUpCompleted{
		EntryID:    entry.ID,
		AccountID:  req.AccountID,
		Amount:     req.Amount,
		Method:     string(req.Method),
		OccurredAt: time.Now(),
	})
	return nil
}

// Send moves value between two distinct accounts: a debit entry and
// notification for the sender, a credit entry and notification for the
// recipient, and both balance mutations, committed together or not at
// all. Validation order: sender exists, recipient exists, sufficient
// funds, not a self-transfer; the first failing check wins and nothing
// is written.
func (e *Engine) Send(ctx context.Context, req SendRequest) error {
	if req.Amount.Cmp(minAmount) < 0 {
		return ErrInvalidAmount
	}

	var debitID, creditID, recipientID string

	err := e.store.RunInTx(ctx, func(tx interfaces.WalletTx) error {
		sender, err := tx.FindAccount(ctx, req.SenderID)
		if err != nil {
			return err
		}
		recipient, err := tx.FindAccountByEmail(ctx, req.RecipientEmail)
		if err != nil {
			if errors.Is(err, models.ErrAccountNotFound) {
				return ErrRecipientNotFound
			}
			return err
		}

		// Re-read both balances under exclusive locks so two concurrent
		// sends cannot both pass the sufficiency check against a stale
		// balance.
		locked, err := tx.LockAccounts(ctx, sender.ID, recipient.ID)
		if err != nil {
			return err
		}
		sender, ok := locked[sender.ID]
		if !ok {
			return models.ErrAccountNotFound
		}
		recipient, ok = locked[recipient.ID]
		if !ok {
			return ErrRecipientNotFound
		}

		if sender.Balance.Cmp(req.Amount) < 0 {
			return ErrInsufficientFunds
		}
		if strings.EqualFold(recipient.Email, sender.Email) {
			return ErrSelfTransfer
		}

		debit := models.LedgerEntry{
			ID:          uuid.NewString(),
			AccountID:   sender.ID,
			Type:        models.EntryDebit,
			Amount:      req.Amount,
			Description: defaultDescription(req.Description),
		}
		creditDesc := req.Description
		if creditDesc == "" {
			creditDesc = "Received from " + sender.Email
		}
		credit := models.LedgerEntry{
			ID:          uuid.NewString(),
			AccountID:   recipient.ID,
			Type:        models.EntryCredit,
			Amount:      req.Amount,
			Description: creditDesc,
		}
		debitID, creditID, recipientID = debit.ID, credit.ID, recipient.ID

		if err := tx.AppendEntry(ctx, debit); err != nil {
			return err
		}
		if err := tx.AppendNotification(ctx, models.Notification{
			ID:        uuid.NewString(),
			AccountID: sender.ID,
			Message: fmt.Sprintf("You have sent %s to %s.",
				req.Amount.StringFixed(2), recipient.Email),
		}); err != nil {
			return err
		}
		if err := tx.AppendEntry(ctx, credit); err != nil {
			return err
		}
		if err := tx.AppendNotification(ctx, models.Notification{
			ID:        uuid.NewString(),
			AccountID: recipient.ID,
			Message: fmt.Sprintf("You have received %s from %s.",
				req.Amount.StringFixed(2), sender.Email),
		}); err != nil {
			return err
		}
		if err := tx.AdjustBalance(ctx, sender.ID, req.Amount.Neg()); err != nil {
			return err
		}
		return tx.AdjustBalance(ctx, recipient.ID, req.Amount)
	})
	if err != nil {
		return err
	}

	e.publish(ctx, TopicTransferCompleted, events.TransferCompleted{
		DebitEntryID:  debitID,
		CreditEntryID: creditID,
		SenderID:      req.SenderID,
		RecipientID:   recipientID,
		Amount:        req.Amount,
		OccurredAt:    time.Now(),
	})
	return nil
}

// publish is best effort: committed money movement is the source of
// truth, a lost event is only logged.
func (e *Engine) publish(ctx context.Context, topic string, event any) {
	if e.events == nil {
		return
	}
	if err := e.events.Publish(ctx, topic, event); err != nil {
		log.Printf("wallet: publish %s: %v", topic, err)
	}
}

// defaultDescription keeps the historical single-space placeholder for
// omitted descriptions.
func defaultDescription(s string) string {
	if s == "" {
		return " "
	}
	return s
}
