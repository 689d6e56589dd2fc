package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/paylite/ewallet/internal/interfaces"
	"github.com/paylite/ewallet/internal/models"
)

//go:embed schema.sql
var schema string

// Store is the postgres implementation of interfaces.WalletStore. Each
// atomic unit is one sql.Tx; accounts touched by a transfer are locked
// with SELECT ... FOR UPDATE in ascending id order so concurrent
// transfers over the same accounts serialize without deadlocking.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the wallet tables if they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// CreateAccount seeds an account; signup itself lives outside the core.
func (s *Store) CreateAccount(ctx context.Context, a models.Account) error {
	const query = `INSERT INTO accounts (id, email, first_name, last_name, balance)
	VALUES ($1, $2, $3, $4, $5)`

	_, err := s.db.ExecContext(ctx, query, a.ID, a.Email, a.FirstName, a.LastName, a.Balance)
	return err
}

const accountColumns = `id, email, first_name, last_name, balance`

func scanAccount(row *sql.Row) (models.Account, error) {
	var a models.Account
	err := row.Scan(&a.ID, &a.Email, &a.FirstName, &a.LastName, &a.Balance)
	if err == sql.ErrNoRows {
		return models.Account{}, models.ErrAccountNotFound
	}
	if err != nil {
		return models.Account{}, err
	}
	return a, nil
}

func (s *Store) FindAccount(ctx context.Context, id string) (models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return scanAccount(s.db.QueryRowContext(ctx, query, id))
}

func (s *Store) FindAccountByEmail(ctx context.Context, email string) (models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE lower(email) = lower($1)`
	return scanAccount(s.db.QueryRowContext(ctx, query, email))
}

func (s *Store) EntriesByAccount(ctx context.Context, accountID string) ([]models.LedgerEntry, error) {
	const query = `SELECT id, account_id, type, amount, description, method, created_at
	FROM ledger_entries
	WHERE account_id = $1
	ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.LedgerEntry
	for rows.Next() {
		var entry models.LedgerEntry
		var method sql.NullString
		if err := rows.Scan(
			&entry.ID,
			&entry.AccountID,
			&entry.Type,
			&entry.Amount,
			&entry.Description,
			&method,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		entry.Method = models.TopUpMethod(method.String)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *Store) NotificationsByAccount(ctx context.Context, accountID string) ([]models.Notification, error) {
	const query = `SELECT id, account_id, message, read, created_at
	FROM notifications
	WHERE account_id = $1
	ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.AccountID, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (s *Store) UnreadCount(ctx context.Context, accountID string) (int, error) {
	const query = `SELECT count(*) FROM notifications WHERE account_id = $1 AND read = FALSE`

	var count int
	if err := s.db.QueryRowContext(ctx, query, accountID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Store) MarkAllRead(ctx context.Context, accountID string) error {
	const query = `UPDATE notifications SET read = TRUE WHERE account_id = $1 AND read = FALSE`

	_, err := s.db.ExecContext(ctx, query, accountID)
	return err
}

func (s *Store) DeleteNotification(ctx context.Context, notificationID string) error {
	const query = `DELETE FROM notifications WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query, notificationID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.ErrNotificationNotFound
	}
	return nil
}

func (s *Store) DeleteNotificationsByAccount(ctx context.Context, accountID string) error {
	const query = `DELETE FROM notifications WHERE account_id = $1`

	_, err := s.db.ExecContext(ctx, query, accountID)
	return err
}

// RunInTx executes fn inside one database transaction. Any error from
// fn (or from a write inside it) rolls back every pending change.
func (s *Store) RunInTx(ctx context.Context, fn func(tx interfaces.WalletTx) error) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	// Rollback after Commit is a no-op; the deferred call also covers a
	// panic inside fn, so the connection is never left holding a tx.
	defer dbTx.Rollback()

	if err := fn(&walletTx{tx: dbTx}); err != nil {
		return err
	}
	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type walletTx struct {
	tx *sql.Tx
}

func (w *walletTx) FindAccount(ctx context.Context, id string) (models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return scanAccount(w.tx.QueryRowContext(ctx, query, id))
}

func (w *walletTx) FindAccountByEmail(ctx context.Context, email string) (models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE lower(email) = lower($1)`
	return scanAccount(w.tx.QueryRowContext(ctx, query, email))
}

// LockAccounts takes row locks in ascending id order regardless of the
// caller's argument order, which keeps two opposite transfers between
// the same pair of accounts from deadlocking.
func (w *walletTx) LockAccounts(ctx context.Context, ids ...string) (map[string]models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = ANY($1) ORDER BY id FOR UPDATE`

	rows, err := w.tx.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	locked := make(map[string]models.Account, len(ids))
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(&a.ID, &a.Email, &a.FirstName, &a.LastName, &a.Balance); err != nil {
			return nil, err
		}
		locked[a.ID] = a
	}
	return locked, rows.Err()
}

func (w *walletTx) AdjustBalance(ctx context.Context, accountID string, delta decimal.Decimal) error {
	const query = `UPDATE accounts SET balance = balance + $2 WHERE id = $1`

	result, err := w.tx.ExecContext(ctx, query, accountID, delta)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.ErrAccountNotFound
	}
	return nil
}

func (w *walletTx) AppendEntry(ctx context.Context, entry models.LedgerEntry) error {
	const query = `INSERT INTO ledger_entries (id, account_id, type, amount, description, method, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, clock_timestamp())`

	method := sql.NullString{String: string(entry.Method), Valid: entry.Method != ""}
	_, err := w.tx.ExecContext(ctx, query,
		entry.ID, entry.AccountID, entry.Type, entry.Amount, entry.Description, method)
	return err
}

func (w *walletTx) AppendNotification(ctx context.Context, n models.Notification) error {
	const query = `INSERT INTO notifications (id, account_id, message, read, created_at)
	VALUES ($1, $2, $3, FALSE, clock_timestamp())`

	_, err := w.tx.ExecContext(ctx, query, n.ID, n.AccountID, n.Message)
	return err
}

var _ interfaces.WalletStore = (*Store)(nil)
var _ interfaces.WalletTx = (*walletTx)(nil)
