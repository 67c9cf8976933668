package mocks

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/iho/ledgersync/internal/domain"
	"github.com/iho/ledgersync/internal/usecase"
)

// paginate applies limit/offset the way the real repositories do, so list
// defaults behave like `LIMIT $1 OFFSET $2` over a sorted result set.
func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}

	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}

	return items[offset:end]
}

// MockAccountRepository is a mock implementation of AccountRepository.
type MockAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account
	activity map[string]*domain.AccountActivity

	CreateFunc      func(ctx context.Context, account *domain.Account) error
	GetByIDFunc     func(ctx context.Context, id string) (*domain.Account, error)
	ListFunc        func(ctx context.Context, limit, offset int) ([]*domain.Account, error)
	GetActivityFunc func(ctx context.Context, accountIDs []string) ([]*domain.AccountActivity, error)
}

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		accounts: make(map[string]*domain.Account),
		activity: make(map[string]*domain.AccountActivity),
	}
}

// SeedAccount registers an account and an empty activity snapshot for it.
func (m *MockAccountRepository) SeedAccount(account *domain.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.ID] = account
	m.activity[account.ID] = &domain.AccountActivity{
		AccountID:     account.ID,
		NormalBalance: account.NormalBalance,
		Active:        account.Active,
	}
}

// SeedActivity overrides the activity snapshot for an account.
func (m *MockAccountRepository) SeedActivity(activity *domain.AccountActivity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activity[activity.AccountID] = activity
}

func (m *MockAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}
	m.SeedAccount(account)
	return nil
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if acc, ok := m.accounts[id]; ok {
		return acc, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	accounts := make([]*domain.Account, 0, len(m.accounts))
	for _, acc := range m.accounts {
		accounts = append(accounts, acc)
	}
	sort.Slice(accounts, func(i, j int) bool {
		if !accounts[i].CreatedAt.Equal(accounts[j].CreatedAt) {
			return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
		}
		return accounts[i].ID < accounts[j].ID
	})
	return paginate(accounts, limit, offset), nil
}

func (m *MockAccountRepository) GetActivity(ctx context.Context, accountIDs []string) ([]*domain.AccountActivity, error) {
	if m.GetActivityFunc != nil {
		return m.GetActivityFunc(ctx, accountIDs)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.AccountActivity, 0, len(accountIDs))
	for _, id := range accountIDs {
		if act, ok := m.activity[id]; ok {
			result = append(result, act)
		}
	}
	return result, nil
}

// MockTransactionRepository is a mock implementation of TransactionRepository.
type MockTransactionRepository struct {
	mu           sync.RWMutex
	transactions map[string]*domain.Transaction

	CreateFunc                     func(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error
	GetByIDFunc                    func(ctx context.Context, id string) (*domain.Transaction, error)
	ListByAccountAndPeriodFunc     func(ctx context.Context, accountID string, from, to time.Time) ([]*domain.Transaction, error)
	GetByExternalIDFunc            func(ctx context.Context, tx usecase.Transaction, externalID, connectionID string) (*domain.Transaction, error)
	UpsertExternalFunc             func(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) (bool, error)
	DeleteExternalFunc             func(ctx context.Context, tx usecase.Transaction, externalID, connectionID string) error
	UpdateStatusFunc               func(ctx context.Context, tx usecase.Transaction, id string, status domain.TransactionStatus, updatedAt time.Time) error
	UpdateReconciliationStatusFunc func(ctx context.Context, tx usecase.Transaction, id string, status domain.ReconciliationStatus, updatedAt time.Time) error
	UpdateDetailsFunc              func(ctx context.Context, tx usecase.Transaction, id, description, category string, updatedAt time.Time) error
}

func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{transactions: make(map[string]*domain.Transaction)}
}

// Seed stores a transaction directly.
func (m *MockTransactionRepository) Seed(txn *domain.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[txn.ID] = txn
}

// All returns every stored transaction.
func (m *MockTransactionRepository) All() []*domain.Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Transaction, 0, len(m.transactions))
	for _, txn := range m.transactions {
		result = append(result, txn)
	}
	return result
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, txn)
	}
	m.Seed(txn)
	return nil
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if txn, ok := m.transactions[id]; ok {
		return txn, nil
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *MockTransactionRepository) ListByAccountAndPeriod(ctx context.Context, accountID string, from, to time.Time) ([]*domain.Transaction, error) {
	if m.ListByAccountAndPeriodFunc != nil {
		return m.ListByAccountAndPeriodFunc(ctx, accountID, from, to)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Transaction
	for _, txn := range m.transactions {
		if txn.DebitAccountID == accountID || txn.CreditAccountID == accountID {
			result = append(result, txn)
		}
	}
	return result, nil
}

func (m *MockTransactionRepository) GetByExternalID(ctx context.Context, tx usecase.Transaction, externalID, connectionID string) (*domain.Transaction, error) {
	if m.GetByExternalIDFunc != nil {
		return m.GetByExternalIDFunc(ctx, tx, externalID, connectionID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, txn := range m.transactions {
		if txn.ExternalID != nil && *txn.ExternalID == externalID &&
			txn.ConnectionID != nil && *txn.ConnectionID == connectionID {
			return txn, nil
		}
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *MockTransactionRepository) UpsertExternal(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) (bool, error) {
	if m.UpsertExternalFunc != nil {
		return m.UpsertExternalFunc(ctx, tx, txn)
	}
	existing, err := m.GetByExternalID(ctx, tx, *txn.ExternalID, *txn.ConnectionID)
	if err == nil {
		m.mu.Lock()
		defer m.mu.Unlock()
		txn.ID = existing.ID
		txn.CreatedAt = existing.CreatedAt
		m.transactions[existing.ID] = txn
		return false, nil
	}
	m.Seed(txn)
	return true, nil
}

func (m *MockTransactionRepository) DeleteExternal(ctx context.Context, tx usecase.Transaction, externalID, connectionID string) error {
	if m.DeleteExternalFunc != nil {
		return m.DeleteExternalFunc(ctx, tx, externalID, connectionID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, txn := range m.transactions {
		if txn.ExternalID != nil && *txn.ExternalID == externalID &&
			txn.ConnectionID != nil && *txn.ConnectionID == connectionID {
			delete(m.transactions, id)
		}
	}
	return nil
}

func (m *MockTransactionRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.TransactionStatus, updatedAt time.Time) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, tx, id, status, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if txn, ok := m.transactions[id]; ok {
		txn.Status = status
		txn.UpdatedAt = updatedAt
		return nil
	}
	return domain.ErrTransactionNotFound
}

func (m *MockTransactionRepository) UpdateReconciliationStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.ReconciliationStatus, updatedAt time.Time) error {
	if m.UpdateReconciliationStatusFunc != nil {
		return m.UpdateReconciliationStatusFunc(ctx, tx, id, status, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if txn, ok := m.transactions[id]; ok {
		txn.ReconciliationStatus = status
		txn.UpdatedAt = updatedAt
		return nil
	}
	return domain.ErrTransactionNotFound
}

func (m *MockTransactionRepository) UpdateDetails(ctx context.Context, tx usecase.Transaction, id, description, category string, updatedAt time.Time) error {
	if m.UpdateDetailsFunc != nil {
		return m.UpdateDetailsFunc(ctx, tx, id, description, category, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if txn, ok := m.transactions[id]; ok {
		txn.Description = description
		txn.Category = category
		txn.UpdatedAt = updatedAt
		return nil
	}
	return domain.ErrTransactionNotFound
}

// MockStatementRepository is a mock implementation of StatementRepository.
type MockStatementRepository struct {
	mu         sync.RWMutex
	statements map[string]*domain.BankStatement

	CreateFunc        func(ctx context.Context, statement *domain.BankStatement) error
	GetByIDFunc       func(ctx context.Context, id string) (*domain.BankStatement, error)
	ListByAccountFunc func(ctx context.Context, accountID string, limit, offset int) ([]*domain.BankStatement, error)
}

func NewMockStatementRepository() *MockStatementRepository {
	return &MockStatementRepository{statements: make(map[string]*domain.BankStatement)}
}

func (m *MockStatementRepository) Seed(statement *domain.BankStatement) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statements[statement.ID] = statement
}

func (m *MockStatementRepository) Create(ctx context.Context, statement *domain.BankStatement) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, statement)
	}
	m.Seed(statement)
	return nil
}

func (m *MockStatementRepository) GetByID(ctx context.Context, id string) (*domain.BankStatement, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if st, ok := m.statements[id]; ok {
		return st, nil
	}
	return nil, domain.ErrStatementNotFound
}

func (m *MockStatementRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.BankStatement, error) {
	if m.ListByAccountFunc != nil {
		return m.ListByAccountFunc(ctx, accountID, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.BankStatement
	for _, st := range m.statements {
		if st.AccountID == accountID {
			result = append(result, st)
		}
	}
	return result, nil
}

// MockConnectionRepository is a mock implementation of ConnectionRepository.
type MockConnectionRepository struct {
	mu          sync.RWMutex
	connections map[string]*domain.BankConnection

	CreateFunc            func(ctx context.Context, conn *domain.BankConnection) error
	GetByIDFunc           func(ctx context.Context, id string) (*domain.BankConnection, error)
	ListFunc              func(ctx context.Context, limit, offset int) ([]*domain.BankConnection, error)
	UpdateCursorFunc      func(ctx context.Context, tx usecase.Transaction, id, cursor string, syncedAt time.Time) error
	UpdateStatusFunc      func(ctx context.Context, id string, status domain.ConnectionStatus, updatedAt time.Time) error
	UpdateAccessTokenFunc func(ctx context.Context, id, accessToken string, updatedAt time.Time) error
}

func NewMockConnectionRepository() *MockConnectionRepository {
	return &MockConnectionRepository{connections: make(map[string]*domain.BankConnection)}
}

func (m *MockConnectionRepository) Seed(conn *domain.BankConnection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connections[conn.ID] = conn
}

func (m *MockConnectionRepository) Create(ctx context.Context, conn *domain.BankConnection) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, conn)
	}
	m.Seed(conn)
	return nil
}

func (m *MockConnectionRepository) GetByID(ctx context.Context, id string) (*domain.BankConnection, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if conn, ok := m.connections[id]; ok {
		return conn, nil
	}
	return nil, domain.ErrConnectionNotFound
}

func (m *MockConnectionRepository) List(ctx context.Context, limit, offset int) ([]*domain.BankConnection, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.BankConnection, 0, len(m.connections))
	for _, conn := range m.connections {
		result = append(result, conn)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return paginate(result, limit, offset), nil
}

func (m *MockConnectionRepository) UpdateCursor(ctx context.Context, tx usecase.Transaction, id, cursor string, syncedAt time.Time) error {
	if m.UpdateCursorFunc != nil {
		return m.UpdateCursorFunc(ctx, tx, id, cursor, syncedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if conn, ok := m.connections[id]; ok {
		conn.Cursor = cursor
		conn.LastSyncedAt = &syncedAt
		return nil
	}
	return domain.ErrConnectionNotFound
}

func (m *MockConnectionRepository) UpdateStatus(ctx context.Context, id string, status domain.ConnectionStatus, updatedAt time.Time) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if conn, ok := m.connections[id]; ok {
		conn.Status = status
		conn.UpdatedAt = updatedAt
		return nil
	}
	return domain.ErrConnectionNotFound
}

func (m *MockConnectionRepository) UpdateAccessToken(ctx context.Context, id, accessToken string, updatedAt time.Time) error {
	if m.UpdateAccessTokenFunc != nil {
		return m.UpdateAccessTokenFunc(ctx, id, accessToken, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if conn, ok := m.connections[id]; ok {
		conn.AccessToken = accessToken
		conn.UpdatedAt = updatedAt
		return nil
	}
	return domain.ErrConnectionNotFound
}

// MockAuditRepository is a mock implementation of AuditRepository.
type MockAuditRepository struct {
	mu      sync.RWMutex
	records []*domain.AuditRecord

	CreateTxFunc func(ctx context.Context, tx usecase.Transaction, record *domain.AuditRecord) error
	ListFunc     func(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditRecord, error)
}

func NewMockAuditRepository() *MockAuditRepository {
	return &MockAuditRepository{}
}

func (m *MockAuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, record *domain.AuditRecord) error {
	if m.CreateTxFunc != nil {
		return m.CreateTxFunc(ctx, tx, record)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, record)
	return nil
}

func (m *MockAuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditRecord, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.records, nil
}

// Records returns every stored audit record.
func (m *MockAuditRepository) Records() []*domain.AuditRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.records
}

// MockFeedClient is a mock implementation of FeedClient.
type MockFeedClient struct {
	CreateConnectionFunc func(ctx context.Context, publicToken string) (string, error)
	FetchDeltaFunc       func(ctx context.Context, accessToken, cursor string) (*domain.FeedDelta, error)
	DisconnectFunc       func(ctx context.Context, accessToken string) (bool, error)

	FetchCalls int
}

func NewMockFeedClient() *MockFeedClient {
	return &MockFeedClient{}
}

func (m *MockFeedClient) CreateConnection(ctx context.Context, publicToken string) (string, error) {
	if m.CreateConnectionFunc != nil {
		return m.CreateConnectionFunc(ctx, publicToken)
	}
	return "access-" + publicToken, nil
}

func (m *MockFeedClient) FetchDelta(ctx context.Context, accessToken, cursor string) (*domain.FeedDelta, error) {
	m.FetchCalls++
	if m.FetchDeltaFunc != nil {
		return m.FetchDeltaFunc(ctx, accessToken, cursor)
	}
	return &domain.FeedDelta{NextCursor: cursor}, nil
}

func (m *MockFeedClient) Disconnect(ctx context.Context, accessToken string) (bool, error) {
	if m.DisconnectFunc != nil {
		return m.DisconnectFunc(ctx, accessToken)
	}
	return true, nil
}

// MockSyncLocker is a mock implementation of SyncLocker.
type MockSyncLocker struct {
	mu    sync.Mutex
	locks map[string]bool

	TryLockFunc func(ctx context.Context, connectionID string, ttl time.Duration) (bool, error)
	UnlockFunc  func(ctx context.Context, connectionID string) error
}

func NewMockSyncLocker() *MockSyncLocker {
	return &MockSyncLocker{locks: make(map[string]bool)}
}

func (m *MockSyncLocker) TryLock(ctx context.Context, connectionID string, ttl time.Duration) (bool, error) {
	if m.TryLockFunc != nil {
		return m.TryLockFunc(ctx, connectionID, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[connectionID] {
		return false, nil
	}
	m.locks[connectionID] = true
	return true, nil
}

func (m *MockSyncLocker) Unlock(ctx context.Context, connectionID string) error {
	if m.UnlockFunc != nil {
		return m.UnlockFunc(ctx, connectionID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, connectionID)
	return nil
}

// MockTransaction is a mock store transaction recording its outcome.
type MockTransaction struct {
	Committed  bool
	RolledBack bool

	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	m.Committed = true
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	if !m.Committed {
		m.RolledBack = true
	}
	return nil
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	mu           sync.Mutex
	Transactions []*MockTransaction

	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := &MockTransaction{}
	m.Transactions = append(m.Transactions, tx)
	return tx, nil
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	mu      sync.Mutex
	counter int

	GenerateFunc func() string
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return "id-" + strconv.Itoa(m.counter)
}
