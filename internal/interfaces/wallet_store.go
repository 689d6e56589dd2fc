package interfaces

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/paylite/ewallet/internal/models"
)

// WalletTx is the set of operations available inside one atomic unit.
// Every write issued through it commits or rolls back together; a
// transfer must never leave a debited sender without a credited
// recipient, or a dangling notification for a failed transfer.
type WalletTx interface {
	// FindAccount and FindAccountByEmail read without locking. They are
	// for resolving and validating participants; balance decisions must
	// use the snapshot returned by LockAccounts instead.
	FindAccount(ctx context.Context, id string) (models.Account, error)
	FindAccountByEmail(ctx context.Context, email string) (models.Account, error)

	// LockAccounts loads the given accounts under exclusive locks so
	// concurrent transfers touching the same account serialize.
	// Implementations must acquire the locks in a deterministic order
	// regardless of argument order, and must tolerate duplicate ids.
	// Unknown ids are simply absent from the returned map.
	LockAccounts(ctx context.Context, ids ...string) (map[string]models.Account, error)

	// AdjustBalance applies a relative increment (positive or negative)
	// to an account balance. It does not reject negative results; the
	// caller checks sufficiency against the locked snapshot first.
	AdjustBalance(ctx context.Context, accountID string, delta decimal.Decimal) error

	AppendEntry(ctx context.Context, entry models.LedgerEntry) error
	AppendNotification(ctx context.Context, n models.Notification) error
}

// WalletStore is the persistence boundary of the money-movement core.
type WalletStore interface {
	FindAccount(ctx context.Context, id string) (models.Account, error)
	FindAccountByEmail(ctx context.Context, email string) (models.Account, error)

	// EntriesByAccount returns the account's ledger entries newest first.
	EntriesByAccount(ctx context.Context, accountID string) ([]models.LedgerEntry, error)

	// NotificationsByAccount returns the account's notifications newest first.
	NotificationsByAccount(ctx context.Context, accountID string) ([]models.Notification, error)
	UnreadCount(ctx context.Context, accountID string) (int, error)
	MarkAllRead(ctx context.Context, accountID string) error
	DeleteNotification(ctx context.Context, notificationID string) error
	DeleteNotificationsByAccount(ctx context.Context, accountID string) error

	// RunInTx executes fn inside one atomic unit. If fn returns an error,
	// every write issued through the WalletTx is rolled back and the
	// error is returned unchanged.
	RunInTx(ctx context.Context, fn func(tx WalletTx) error) error
}
