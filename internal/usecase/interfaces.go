package usecase

import (
	"context"
	"time"

	"github.com/iho/ledgersync/internal/domain"
)

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
	// GetActivity returns posted debit/credit totals for the given accounts,
	// the explicit ledger snapshot the validator runs against.
	GetActivity(ctx context.Context, accountIDs []string) ([]*domain.AccountActivity, error)
}

// TransactionRepository defines data access for ledger transactions.
type TransactionRepository interface {
	Create(ctx context.Context, tx Transaction, txn *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	ListByAccountAndPeriod(ctx context.Context, accountID string, from, to time.Time) ([]*domain.Transaction, error)
	GetByExternalID(ctx context.Context, tx Transaction, externalID, connectionID string) (*domain.Transaction, error)
	// UpsertExternal inserts or updates a feed-sourced transaction keyed by
	// (external_id, connection_id). Returns true when a new row was created.
	UpsertExternal(ctx context.Context, tx Transaction, txn *domain.Transaction) (bool, error)
	DeleteExternal(ctx context.Context, tx Transaction, externalID, connectionID string) error
	UpdateStatus(ctx context.Context, tx Transaction, id string, status domain.TransactionStatus, updatedAt time.Time) error
	UpdateReconciliationStatus(ctx context.Context, tx Transaction, id string, status domain.ReconciliationStatus, updatedAt time.Time) error
	UpdateDetails(ctx context.Context, tx Transaction, id, description, category string, updatedAt time.Time) error
}

// StatementRepository defines data access for imported bank statements.
type StatementRepository interface {
	Create(ctx context.Context, statement *domain.BankStatement) error
	GetByID(ctx context.Context, id string) (*domain.BankStatement, error)
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.BankStatement, error)
}

// ConnectionRepository defines data access for bank feed connections.
type ConnectionRepository interface {
	Create(ctx context.Context, conn *domain.BankConnection) error
	GetByID(ctx context.Context, id string) (*domain.BankConnection, error)
	List(ctx context.Context, limit, offset int) ([]*domain.BankConnection, error)
	// UpdateCursor persists the delta cursor and last-synced timestamp inside
	// the batch transaction, so a failed batch leaves both untouched.
	UpdateCursor(ctx context.Context, tx Transaction, id, cursor string, syncedAt time.Time) error
	// UpdateStatus runs outside any batch transaction: a reauth transition
	// must survive the batch rollback.
	UpdateStatus(ctx context.Context, id string, status domain.ConnectionStatus, updatedAt time.Time) error
	UpdateAccessToken(ctx context.Context, id, accessToken string, updatedAt time.Time) error
}

// AuditRepository defines data access for write-ahead audit records.
type AuditRepository interface {
	CreateTx(ctx context.Context, tx Transaction, record *domain.AuditRecord) error
	List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditRecord, error)
}

// FeedClient is the external bank-aggregator collaborator. Wire details
// (OAuth, HTTP) live behind this interface.
type FeedClient interface {
	CreateConnection(ctx context.Context, publicToken string) (string, error)
	FetchDelta(ctx context.Context, accessToken, cursor string) (*domain.FeedDelta, error)
	Disconnect(ctx context.Context, accessToken string) (bool, error)
}

// SyncLocker serializes sync passes per connection. TryLock returns false
// when another pass already holds the lock.
type SyncLocker interface {
	TryLock(ctx context.Context, connectionID string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, connectionID string) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// IdempotencyStore handles idempotency key storage for the HTTP surface.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
