package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/paylite/ewallet/internal/interfaces"
	"github.com/paylite/ewallet/internal/models"
)

// Store is an in-memory implementation of interfaces.WalletStore, used
// for tests and local development. A single mutex guards all state, so
// each atomic unit runs fully serialized and the engine's locked
// balance reads can never observe a partially applied transfer.
type Store struct {
	mu            sync.Mutex
	accounts      map[string]models.Account
	entries       []models.LedgerEntry
	notifications []models.Notification
}

func NewStore() *Store {
	return &Store{
		accounts: make(map[string]models.Account),
	}
}

// CreateAccount seeds an account. Signup lives outside the core; this
// exists so tests and dev wiring have a way in.
func (s *Store) CreateAccount(ctx context.Context, a models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[a.ID]; ok {
		return errors.New("account id already exists")
	}
	for _, existing := range s.accounts {
		if strings.EqualFold(existing.Email, a.Email) {
			return errors.New("email already registered")
		}
	}
	s.accounts[a.ID] = a
	return nil
}

func (s *Store) FindAccount(ctx context.Context, id string) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findAccount(id)
}

func (s *Store) FindAccountByEmail(ctx context.Context, email string) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findAccountByEmail(email)
}

func (s *Store) findAccount(id string) (models.Account, error) {
	account, ok := s.accounts[id]
	if !ok {
		return models.Account{}, models.ErrAccountNotFound
	}
	return account, nil
}

func (s *Store) findAccountByEmail(email string) (models.Account, error) {
	for _, account := range s.accounts {
		if strings.EqualFold(account.Email, email) {
			return account, nil
		}
	}
	return models.Account{}, models.ErrAccountNotFound
}

func (s *Store) EntriesByAccount(ctx context.Context, accountID string) ([]models.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []models.LedgerEntry
	for _, e := range s.entries {
		if e.AccountID == accountID {
			result = append(result, e)
		}
	}
	// Newest first; CreatedAt is the sole ordering key.
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (s *Store) NotificationsByAccount(ctx context.Context, accountID string) ([]models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []models.Notification
	for _, n := range s.notifications {
		if n.AccountID == accountID {
			result = append(result, n)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (s *Store) UnreadCount(ctx context.Context, accountID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, n := range s.notifications {
		if n.AccountID == accountID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (s *Store) MarkAllRead(ctx context.Context, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.notifications {
		if s.notifications[i].AccountID == accountID {
			s.notifications[i].Read = true
		}
	}
	return nil
}

func (s *Store) DeleteNotification(ctx context.Context, notificationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == notificationID {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return nil
		}
	}
	return models.ErrNotificationNotFound
}

func (s *Store) DeleteNotificationsByAccount(ctx context.Context, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.notifications[:0]
	for _, n := range s.notifications {
		if n.AccountID != accountID {
			kept = append(kept, n)
		}
	}
	s.notifications = kept
	return nil
}

// RunInTx runs fn while holding the store mutex. Writes are staged in
// the walletTx and applied only when fn succeeds, so a failure anywhere
// in the unit leaves no partial state behind.
func (s *Store) RunInTx(ctx context.Context, fn func(tx interfaces.WalletTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &walletTx{
		store:  s,
		deltas: make(map[string]decimal.Decimal),
	}
	if err := fn(tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

// walletTx stages writes against the store it was created by. The store
// mutex is already held for the lifetime of the tx.
type walletTx struct {
	store         *Store
	deltas        map[string]decimal.Decimal
	entries       []models.LedgerEntry
	notifications []models.Notification
}

func (tx *walletTx) commit() {
	for id, delta := range tx.deltas {
		account := tx.store.accounts[id]
		account.Balance = account.Balance.Add(delta)
		tx.store.accounts[id] = account
	}
	tx.store.entries = append(tx.store.entries, tx.entries...)
	tx.store.notifications = append(tx.store.notifications, tx.notifications...)
}

// staged returns the account with any pending balance delta applied.
func (tx *walletTx) staged(a models.Account) models.Account {
	if delta, ok := tx.deltas[a.ID]; ok {
		a.Balance = a.Balance.Add(delta)
	}
	return a
}

func (tx *walletTx) FindAccount(ctx context.Context, id string) (models.Account, error) {
	account, err := tx.store.findAccount(id)
	if err != nil {
		return models.Account{}, err
	}
	return tx.staged(account), nil
}

func (tx *walletTx) FindAccountByEmail(ctx context.Context, email string) (models.Account, error) {
	account, err := tx.store.findAccountByEmail(email)
	if err != nil {
		return models.Account{}, err
	}
	return tx.staged(account), nil
}

func (tx *walletTx) LockAccounts(ctx context.Context, ids ...string) (map[string]models.Account, error) {
	// The store mutex serializes every unit, so holding it is the lock.
	locked := make(map[string]models.Account, len(ids))
	for _, id := range ids {
		if account, ok := tx.store.accounts[id]; ok {
			locked[id] = tx.staged(account)
		}
	}
	return locked, nil
}

func (tx *walletTx) AdjustBalance(ctx context.Context, accountID string, delta decimal.Decimal) error {
	if _, ok := tx.store.accounts[accountID]; !ok {
		return models.ErrAccountNotFound
	}
	tx.deltas[accountID] = tx.deltas[accountID].Add(delta)
	return nil
}

func (tx *walletTx) AppendEntry(ctx context.Context, entry models.LedgerEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	tx.entries = append(tx.entries, entry)
	return nil
}

func (tx *walletTx) AppendNotification(ctx context.Context, n models.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	tx.notifications = append(tx.notifications, n)
	return nil
}

var _ interfaces.WalletStore = (*Store)(nil)
var _ interfaces.WalletTx = (*walletTx)(nil)
