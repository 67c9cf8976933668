package domain

import "time"

// ConnectionStatus is the lifecycle state of a bank feed connection.
type ConnectionStatus string

const (
	ConnectionStatusActive         ConnectionStatus = "active"
	ConnectionStatusRequiresReauth ConnectionStatus = "requires_reauth"
	ConnectionStatusDisconnected   ConnectionStatus = "disconnected"
)

// BankConnection ties a ledger account to an external transaction feed.
// Cursor is the opaque delta token from the last fully applied sync pass.
type BankConnection struct {
	ID              string
	AccountID       string
	OffsetAccountID string
	InstitutionName string
	AccessToken     string
	Cursor          string
	Status          ConnectionStatus
	LastSyncedAt    *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Syncable reports whether the connection is eligible for a sync pass.
func (c *BankConnection) Syncable() bool {
	return c.Status == ConnectionStatusActive
}

// SyncSummary reports the outcome of one applied sync delta.
type SyncSummary struct {
	Added    int
	Modified int
	Removed  int
}
