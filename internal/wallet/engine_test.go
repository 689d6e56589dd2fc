package wallet_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paylite/ewallet/internal/interfaces"
	"github.com/paylite/ewallet/internal/models"
	"github.com/paylite/ewallet/internal/storage/memory"
	"github.com/paylite/ewallet/internal/wallet"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// newTestStore seeds alice with 100.00 and bob with 5.00.
func newTestStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.NewStore()
	require.NoError(t, store.CreateAccount(context.Background(), models.Account{
		ID:        "alice",
		Email:     "alice@example.com",
		FirstName: "Alice",
		LastName:  "Mensah",
		Balance:   d("100.00"),
	}))
	require.NoError(t, store.CreateAccount(context.Background(), models.Account{
		ID:        "bob",
		Email:     "bob@example.com",
		FirstName: "Bob",
		LastName:  "Osei",
		Balance:   d("5.00"),
	}))
	return store
}

func balance(t *testing.T, store interfaces.WalletStore, id string) decimal.Decimal {
	t.Helper()
	account, err := store.FindAccount(context.Background(), id)
	require.NoError(t, err)
	return account.Balance
}

func TestTopUp(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	engine := wallet.NewEngine(store, nil)

	err := engine.TopUp(ctx, wallet.TopUpRequest{
		AccountID: "alice",
		Amount:    d("25.50"),
		Method:    models.MethodBank,
	})
	require.NoError(t, err)

	assert.True(t, balance(t, store, "alice").Equal(d("125.50")))

	entries, err := store.EntriesByAccount(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.EntryCredit, entries[0].Type)
	assert.True(t, entries[0].Amount.Equal(d("25.50")))
	assert.Equal(t, models.MethodBank, entries[0].Method)
	assert.Equal(t, " ", entries[0].Description, "omitted description defaults to a single space")
	assert.False(t, entries[0].CreatedAt.IsZero())

	notifications, err := store.NotificationsByAccount(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, "You have received 25.50 via a bank transfer top-up.", notifications[0].Message)
	assert.False(t, notifications[0].Read)
}

func TestTopUpMethodLabels(t *testing.T) {
	tests := []struct {
		method models.TopUpMethod
		want   string
	}{
		{models.MethodBank, "You have received 10.00 via a bank transfer top-up."},
		{models.MethodCard, "You have received 10.00 via a debit card transfer top-up."},
		{models.MethodMobileMoney, "You have received 10.00 via a mobile money transfer top-up."},
		// Unknown methods keep the literal method string.
		{models.TopUpMethod("Voucher"), "You have received 10.00 via a Voucher top-up."},
	}
	for _, tt := range tests {
		t.Run(string(tt.method), func(t *testing.T) {
			ctx := context.Background()
			store := newTestStore(t)
			engine := wallet.NewEngine(store, nil)

			require.NoError(t, engine.TopUp(ctx, wallet.TopUpRequest{
				AccountID: "alice",
				Amount:    d("10.00"),
				Method:    tt.method,
			}))

			notifications, err := store.NotificationsByAccount(ctx, "alice")
			require.NoError(t, err)
			require.Len(t, notifications, 1)
			assert.Equal(t, tt.want, notifications[0].Message)
		})
	}
}

func TestTopUpRejectsInvalidAmount(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	engine := wallet.NewEngine(store, nil)

	for _, amount := range []string{"0", "-5", "0.001"} {
		err := engine.TopUp(ctx, wallet.TopUpRequest{
			AccountID: "alice",
			Amount:    d(amount),
			Method:    models.MethodCard,
		})
		assert.ErrorIs(t, err, wallet.ErrInvalidAmount, "amount %s", amount)
	}

	assert.True(t, balance(t, store, "alice").Equal(d("100.00")))
	entries, err := store.EntriesByAccount(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestTopUpUnknownAccount(t *testing.T) {
	store := newTestStore(t)
	engine := wallet.NewEngine(store, nil)

	err := engine.TopUp(context.Background(), wallet.TopUpRequest{
		AccountID: "nobody",
		Amount:    d("10.00"),
		Method:    models.MethodCard,
	})
	assert.ErrorIs(t, err, models.ErrAccountNotFound)
}

func TestSend(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	engine := wallet.NewEngine(store, nil)

	err := engine.Send(ctx, wallet.SendRequest{
		SenderID:       "alice",
		RecipientEmail: "bob@example.com",
		Amount:         d("30.00"),
	})
	require.NoError(t, err)

	// Conservation: 30.00 moved, nothing created or destroyed.
	assert.True(t, balance(t, store, "alice").Equal(d("70.00")))
	assert.True(t, balance(t, store, "bob").Equal(d("35.00")))

	aliceEntries, err := store.EntriesByAccount(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, aliceEntries, 1)
	assert.Equal(t, models.EntryDebit, aliceEntries[0].Type)
	assert.True(t, aliceEntries[0].Amount.Equal(d("30.00")))
	assert.True(t, aliceEntries[0].Signed().Equal(d("-30.00")))

	bobEntries, err := store.EntriesByAccount(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, bobEntries, 1)
	assert.Equal(t, models.EntryCredit, bobEntries[0].Type)
	assert.True(t, bobEntries[0].Amount.Equal(d("30.00")))
	assert.Equal(t, "Received from alice@example.com", bobEntries[0].Description)

	aliceNotes, err := store.NotificationsByAccount(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, aliceNotes, 1)
	assert.Equal(t, "You have sent 30.00 to bob@example.com.", aliceNotes[0].Message)

	bobNotes, err := store.NotificationsByAccount(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, bobNotes, 1)
	assert.Equal(t, "You have received 30.00 from alice@example.com.", bobNotes[0].Message)
}

func TestSendKeepsCallerDescription(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	engine := wallet.NewEngine(store, nil)

	require.NoError(t, engine.Send(ctx, wallet.SendRequest{
		SenderID:       "alice",
		RecipientEmail: "bob@example.com",
		Amount:         d("1.00"),
		Description:    "lunch",
	}))

	aliceEntries, err := store.EntriesByAccount(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, aliceEntries, 1)
	assert.Equal(t, "lunch", aliceEntries[0].Description)

	bobEntries, err := store.EntriesByAccount(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, bobEntries, 1)
	assert.Equal(t, "lunch", bobEntries[0].Description)
}

func TestSendInsufficientFunds(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	engine := wallet.NewEngine(store, nil)

	err := engine.Send(ctx, wallet.SendRequest{
		SenderID:       "bob",
		RecipientEmail: "alice@example.com",
		Amount:         d("5.01"),
	})
	assert.ErrorIs(t, err, wallet.ErrInsufficientFunds)

	assertNoSideEffects(t, store)
}

func TestSendSelfTransfer(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	engine := wallet.NewEngine(store, nil)

	err := engine.Send(ctx, wallet.SendRequest{
		SenderID:       "alice",
		RecipientEmail: "alice@example.com",
		Amount:         d("10.00"),
	})
	assert.ErrorIs(t, err, wallet.ErrSelfTransfer)

	assertNoSideEffects(t, store)
}

// The sufficiency check runs before the self-transfer check, so an
// unaffordable send to one's own email reports insufficient funds.
func TestSendValidationOrder(t *testing.T) {
	store := newTestStore(t)
	engine := wallet.NewEngine(store, nil)

	err := engine.Send(context.Background(), wallet.SendRequest{
		SenderID:       "bob",
		RecipientEmail: "bob@example.com",
		Amount:         d("500.00"),
	})
	assert.ErrorIs(t, err, wallet.ErrInsufficientFunds)
}

func TestSendUnknownRecipient(t *testing.T) {
	store := newTestStore(t)
	engine := wallet.NewEngine(store, nil)

	err := engine.Send(context.Background(), wallet.SendRequest{
		SenderID:       "alice",
		RecipientEmail: "ghost@example.com",
		Amount:         d("10.00"),
	})
	assert.ErrorIs(t, err, wallet.ErrRecipientNotFound)

	assertNoSideEffects(t, store)
}

func TestSendUnknownSender(t *testing.T) {
	store := newTestStore(t)
	engine := wallet.NewEngine(store, nil)

	err := engine.Send(context.Background(), wallet.SendRequest{
		SenderID:       "nobody",
		RecipientEmail: "bob@example.com",
		Amount:         d("10.00"),
	})
	assert.ErrorIs(t, err, models.ErrAccountNotFound)

	assertNoSideEffects(t, store)
}

func assertNoSideEffects(t *testing.T, store *memory.Store) {
	t.Helper()
	ctx := context.Background()

	assert.True(t, balance(t, store, "alice").Equal(d("100.00")))
	assert.True(t, balance(t, store, "bob").Equal(d("5.00")))
	for _, id := range []string{"alice", "bob"} {
		entries, err := store.EntriesByAccount(ctx, id)
		require.NoError(t, err)
		assert.Empty(t, entries)
		notifications, err := store.NotificationsByAccount(ctx, id)
		require.NoError(t, err)
		assert.Empty(t, notifications)
	}
}

// failingStore injects a write failure partway through the atomic unit
// to prove nothing leaks out of an aborted transfer.
type failingStore struct {
	interfaces.WalletStore
}

func (f *failingStore) RunInTx(ctx context.Context, fn func(tx interfaces.WalletTx) error) error {
	return f.WalletStore.RunInTx(ctx, func(tx interfaces.WalletTx) error {
		return fn(&failingTx{WalletTx: tx})
	})
}

type failingTx struct {
	interfaces.WalletTx
}

func (f *failingTx) AppendNotification(ctx context.Context, n models.Notification) error {
	return errors.New("write rejected")
}

func TestSendAbortsCleanlyOnPartialWrite(t *testing.T) {
	store := newTestStore(t)
	engine := wallet.NewEngine(&failingStore{WalletStore: store}, nil)

	err := engine.Send(context.Background(), wallet.SendRequest{
		SenderID:       "alice",
		RecipientEmail: "bob@example.com",
		Amount:         d("30.00"),
	})
	require.Error(t, err)

	// The debit entry was already staged when the notification write
	// failed; none of it may be visible.
	assertNoSideEffects(t, store)
}

func TestTopUpAbortsCleanlyOnPartialWrite(t *testing.T) {
	store := newTestStore(t)
	engine := wallet.NewEngine(&failingStore{WalletStore: store}, nil)

	err := engine.TopUp(context.Background(), wallet.TopUpRequest{
		AccountID: "alice",
		Amount:    d("10.00"),
		Method:    models.MethodCard,
	})
	require.Error(t, err)

	assertNoSideEffects(t, store)
}

func TestConcurrentSendsCannotOverdraw(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	engine := wallet.NewEngine(store, nil)

	// alice holds 100.00; twenty concurrent sends of 10.00 can only
	// succeed ten times.
	const attempts = 20
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = engine.Send(ctx, wallet.SendRequest{
				SenderID:       "alice",
				RecipientEmail: "bob@example.com",
				Amount:         d("10.00"),
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, wallet.ErrInsufficientFunds)
		}
	}
	assert.Equal(t, 10, succeeded)
	assert.True(t, balance(t, store, "alice").Equal(d("0.00")))
	assert.True(t, balance(t, store, "bob").Equal(d("105.00")))
}

// capturePublisher records published events.
type capturePublisher struct {
	mu     sync.Mutex
	topics []string
	events []any
}

func (p *capturePublisher) Publish(ctx context.Context, topic string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	return nil
}

func TestEnginePublishesEvents(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	publisher := &capturePublisher{}
	engine := wallet.NewEngine(store, publisher)

	require.NoError(t, engine.TopUp(ctx, wallet.TopUpRequest{
		AccountID: "alice",
		Amount:    d("10.00"),
		Method:    models.MethodCard,
	}))
	require.NoError(t, engine.Send(ctx, wallet.SendRequest{
		SenderID:       "alice",
		RecipientEmail: "bob@example.com",
		Amount:         d("10.00"),
	}))

	assert.Equal(t, []string{wallet.TopicTopUpCompleted, wallet.TopicTransferCompleted}, publisher.topics)
}

func TestRejectedTransferPublishesNothing(t *testing.T) {
	store := newTestStore(t)
	publisher := &capturePublisher{}
	engine := wallet.NewEngine(store, publisher)

	err := engine.Send(context.Background(), wallet.SendRequest{
		SenderID:       "bob",
		RecipientEmail: "alice@example.com",
		Amount:         d("500.00"),
	})
	require.Error(t, err)
	assert.Empty(t, publisher.topics)
}
