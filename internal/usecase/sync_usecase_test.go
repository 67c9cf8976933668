package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/ledgersync/internal/domain"
	"github.com/iho/ledgersync/internal/usecase"
	"github.com/iho/ledgersync/internal/usecase/mocks"
)

type syncFixture struct {
	uc        *usecase.SyncUseCase
	connRepo  *mocks.MockConnectionRepository
	txRepo    *mocks.MockTransactionRepository
	auditRepo *mocks.MockAuditRepository
	txMgr     *mocks.MockTransactionManager
	feed      *mocks.MockFeedClient
	locker    *mocks.MockSyncLocker
}

func newSyncFixture() *syncFixture {
	f := &syncFixture{
		connRepo:  mocks.NewMockConnectionRepository(),
		txRepo:    mocks.NewMockTransactionRepository(),
		auditRepo: mocks.NewMockAuditRepository(),
		txMgr:     mocks.NewMockTransactionManager(),
		feed:      mocks.NewMockFeedClient(),
		locker:    mocks.NewMockSyncLocker(),
	}

	f.uc = usecase.NewSyncUseCase(
		f.txMgr, f.connRepo, f.txRepo, f.auditRepo,
		f.feed, f.locker, mocks.NewMockIDGenerator(), zerolog.Nop(),
	)

	return f
}

func (f *syncFixture) seedActiveConnection() *domain.BankConnection {
	conn := &domain.BankConnection{
		ID:              "conn-1",
		AccountID:       "acc-checking",
		OffsetAccountID: "acc-offset",
		AccessToken:     "token-1",
		Cursor:          "cursor-0",
		Status:          domain.ConnectionStatusActive,
	}
	f.connRepo.Seed(conn)
	return conn
}

func TestSyncConnection_AppliesAddedRecord(t *testing.T) {
	f := newSyncFixture()
	f.seedActiveConnection()

	f.feed.FetchDeltaFunc = func(ctx context.Context, accessToken, cursor string) (*domain.FeedDelta, error) {
		if cursor != "cursor-0" {
			t.Errorf("expected stored cursor to be passed, got %q", cursor)
		}
		return &domain.FeedDelta{
			Added: []domain.FeedRecord{{
				TransactionID: "tx_123",
				Amount:        decimal.RequireFromString("25.50"),
				Date:          time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC),
				Name:          "Card purchase",
			}},
			NextCursor: "cursor-1",
		}, nil
	}

	summary, err := f.uc.SyncConnection(context.Background(), "conn-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.Added != 1 || summary.Modified != 0 || summary.Removed != 0 {
		t.Errorf("expected summary 1/0/0, got %d/%d/%d", summary.Added, summary.Modified, summary.Removed)
	}

	stored, err := f.txRepo.GetByExternalID(context.Background(), nil, "tx_123", "conn-1")
	if err != nil {
		t.Fatalf("expected stored transaction: %v", err)
	}
	if !stored.Amount.Equal(decimal.RequireFromString("25.50")) {
		t.Errorf("expected amount 25.50, got %s", stored.Amount)
	}
	if stored.Status != domain.TransactionStatusPosted {
		t.Errorf("expected posted, got %s", stored.Status)
	}
	if stored.CreditAccountID != "acc-checking" {
		t.Error("positive feed amount must credit the connected account")
	}

	conn, _ := f.connRepo.GetByID(context.Background(), "conn-1")
	if conn.Cursor != "cursor-1" {
		t.Errorf("expected cursor advanced to cursor-1, got %q", conn.Cursor)
	}
	if conn.LastSyncedAt == nil {
		t.Error("expected last_synced_at to be set")
	}
}

func TestSyncConnection_IdempotentUpsert(t *testing.T) {
	f := newSyncFixture()
	f.seedActiveConnection()

	record := domain.FeedRecord{
		TransactionID: "tx_123",
		Amount:        decimal.NewFromInt(10),
		Date:          time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC),
		Name:          "First name",
	}

	cursors := []string{"cursor-1", "cursor-2"}
	call := 0
	f.feed.FetchDeltaFunc = func(ctx context.Context, accessToken, cursor string) (*domain.FeedDelta, error) {
		delta := &domain.FeedDelta{Added: []domain.FeedRecord{record}, NextCursor: cursors[call]}
		call++
		record.Name = "Updated name"
		return delta, nil
	}

	if _, err := f.uc.SyncConnection(context.Background(), "conn-1"); err != nil {
		t.Fatalf("first sync: %v", err)
	}
	if _, err := f.uc.SyncConnection(context.Background(), "conn-1"); err != nil {
		t.Fatalf("second sync: %v", err)
	}

	if got := len(f.txRepo.All()); got != 1 {
		t.Fatalf("expected exactly one stored transaction, got %d", got)
	}

	stored, _ := f.txRepo.GetByExternalID(context.Background(), nil, "tx_123", "conn-1")
	if stored.Description != "Updated name" {
		t.Errorf("second application must update in place, got %q", stored.Description)
	}
}

func TestSyncConnection_NonActiveIsNoOp(t *testing.T) {
	f := newSyncFixture()
	f.connRepo.Seed(&domain.BankConnection{
		ID:     "conn-reauth",
		Status: domain.ConnectionStatusRequiresReauth,
	})

	summary, err := f.uc.SyncConnection(context.Background(), "conn-reauth")
	if err != nil {
		t.Fatalf("expected no-op success, got %v", err)
	}

	if summary.Added != 0 || summary.Modified != 0 || summary.Removed != 0 {
		t.Error("expected empty summary")
	}
	if f.feed.FetchCalls != 0 {
		t.Error("no feed call may be made for a non-active connection")
	}
}

func TestSyncConnection_FailureRollsBackBatch(t *testing.T) {
	f := newSyncFixture()
	f.seedActiveConnection()

	f.feed.FetchDeltaFunc = func(ctx context.Context, accessToken, cursor string) (*domain.FeedDelta, error) {
		return &domain.FeedDelta{
			Added: []domain.FeedRecord{
				{TransactionID: "tx_1", Amount: decimal.NewFromInt(1), Date: day(1), Name: "ok"},
				{TransactionID: "tx_2", Amount: decimal.NewFromInt(2), Date: day(1), Name: "boom"},
			},
			NextCursor: "cursor-next",
		}, nil
	}

	storeErr := errors.New("datastore write failed")
	calls := 0
	f.txRepo.UpsertExternalFunc = func(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) (bool, error) {
		calls++
		if calls == 2 {
			return false, storeErr
		}
		return true, nil
	}

	_, err := f.uc.SyncConnection(context.Background(), "conn-1")
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected store error to propagate, got %v", err)
	}

	if len(f.txMgr.Transactions) != 1 {
		t.Fatalf("expected one batch transaction, got %d", len(f.txMgr.Transactions))
	}
	if !f.txMgr.Transactions[0].RolledBack {
		t.Error("batch must roll back on failure")
	}

	conn, _ := f.connRepo.GetByID(context.Background(), "conn-1")
	if conn.Cursor != "cursor-0" {
		t.Errorf("cursor must stay unchanged on failure, got %q", conn.Cursor)
	}
	if conn.LastSyncedAt != nil {
		t.Error("last_synced_at must stay unset on failure")
	}
}

func TestSyncConnection_ReauthSignalFlipsStatus(t *testing.T) {
	f := newSyncFixture()
	f.seedActiveConnection()

	f.feed.FetchDeltaFunc = func(ctx context.Context, accessToken, cursor string) (*domain.FeedDelta, error) {
		return nil, errors.New("upstream: ITEM_LOGIN_REQUIRED")
	}

	_, err := f.uc.SyncConnection(context.Background(), "conn-1")
	if !errors.Is(err, domain.ErrReauthRequired) {
		t.Fatalf("expected reauth error, got %v", err)
	}

	conn, _ := f.connRepo.GetByID(context.Background(), "conn-1")
	if conn.Status != domain.ConnectionStatusRequiresReauth {
		t.Errorf("expected requires_reauth, got %s", conn.Status)
	}
}

func TestSyncConnection_LockedConnectionSkips(t *testing.T) {
	f := newSyncFixture()
	f.seedActiveConnection()

	if ok, _ := f.locker.TryLock(context.Background(), "conn-1", time.Minute); !ok {
		t.Fatal("setup: could not take lock")
	}

	_, err := f.uc.SyncConnection(context.Background(), "conn-1")
	if !errors.Is(err, domain.ErrSyncInProgress) {
		t.Errorf("expected sync-in-progress error, got %v", err)
	}
	if f.feed.FetchCalls != 0 {
		t.Error("no feed call may be made while another pass holds the lock")
	}
}

// A record reported both added and removed in one batch must end up removed:
// removals are applied last.
func TestSyncConnection_RemovalsApplyLast(t *testing.T) {
	f := newSyncFixture()
	f.seedActiveConnection()

	f.feed.FetchDeltaFunc = func(ctx context.Context, accessToken, cursor string) (*domain.FeedDelta, error) {
		return &domain.FeedDelta{
			Added: []domain.FeedRecord{{
				TransactionID: "tx_dup",
				Amount:        decimal.NewFromInt(7),
				Date:          day(3),
				Name:          "Resent",
				Pending:       true,
			}},
			Removed:    []domain.RemovedRecord{{TransactionID: "tx_dup"}},
			NextCursor: "cursor-next",
		}, nil
	}

	summary, err := f.uc.SyncConnection(context.Background(), "conn-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.Added != 1 || summary.Removed != 1 {
		t.Errorf("expected added=1 removed=1, got %d/%d", summary.Added, summary.Removed)
	}

	if _, err := f.txRepo.GetByExternalID(context.Background(), nil, "tx_dup", "conn-1"); !errors.Is(err, domain.ErrTransactionNotFound) {
		t.Error("row reported added and removed in one batch must not survive")
	}
}

func TestSyncConnection_RemovedPostedRowIsVoided(t *testing.T) {
	f := newSyncFixture()
	f.seedActiveConnection()

	externalID := "tx_posted"
	connID := "conn-1"
	f.txRepo.Seed(&domain.Transaction{
		ID:                   "tx-internal",
		Amount:               decimal.NewFromInt(50),
		DebitAccountID:       "acc-offset",
		CreditAccountID:      "acc-checking",
		ExternalID:           &externalID,
		ConnectionID:         &connID,
		Status:               domain.TransactionStatusPosted,
		ReconciliationStatus: domain.ReconciliationStatusUnreconciled,
	})

	f.feed.FetchDeltaFunc = func(ctx context.Context, accessToken, cursor string) (*domain.FeedDelta, error) {
		return &domain.FeedDelta{
			Removed:    []domain.RemovedRecord{{TransactionID: "tx_posted"}},
			NextCursor: "cursor-next",
		}, nil
	}

	if _, err := f.uc.SyncConnection(context.Background(), "conn-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, err := f.txRepo.GetByID(context.Background(), "tx-internal")
	if err != nil {
		t.Fatal("posted row must never be hard-deleted on a removed signal")
	}
	if stored.Status != domain.TransactionStatusVoid {
		t.Errorf("expected posted row voided, got %s", stored.Status)
	}
}
