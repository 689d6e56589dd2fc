package wallet

import "errors"

var (
	// ErrInvalidAmount rejects non-positive or sub-cent amounts before
	// any write happens.
	ErrInvalidAmount = errors.New("amount must be at least 0.01")

	// ErrRecipientNotFound indicates the recipient email of a send
	// matched no account.
	ErrRecipientNotFound = errors.New("recipient not found")

	// ErrInsufficientFunds indicates the sender balance cannot cover the
	// requested amount.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrSelfTransfer rejects a send whose recipient is the sender's own
	// account.
	ErrSelfTransfer = errors.New("cannot send money to your own account")
)
