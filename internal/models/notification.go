package models

import "time"

// Notification is a per-account message with an unread flag. Unlike
// ledger entries, notifications can be marked read (in bulk, per
// account) and deleted.
type Notification struct {
	ID        string    `json:"id"`
	AccountID string    `json:"accountId"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}
