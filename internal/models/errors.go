package models

import "errors"

var (
	// ErrAccountNotFound indicates a lookup by id or email matched no account.
	ErrAccountNotFound = errors.New("account not found")

	// ErrNotificationNotFound indicates a delete targeted a notification
	// that does not exist.
	ErrNotificationNotFound = errors.New("notification not found")
)
