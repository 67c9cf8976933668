package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgersync/internal/domain"
	"github.com/iho/ledgersync/internal/usecase"
	"github.com/iho/ledgersync/internal/usecase/mocks"
)

type entryFixture struct {
	uc          *usecase.EntryUseCase
	accountRepo *mocks.MockAccountRepository
	txRepo      *mocks.MockTransactionRepository
	auditRepo   *mocks.MockAuditRepository
	txMgr       *mocks.MockTransactionManager
}

func newEntryFixture() *entryFixture {
	f := &entryFixture{
		accountRepo: mocks.NewMockAccountRepository(),
		txRepo:      mocks.NewMockTransactionRepository(),
		auditRepo:   mocks.NewMockAuditRepository(),
		txMgr:       mocks.NewMockTransactionManager(),
	}

	f.accountRepo.SeedAccount(&domain.Account{ID: "acc-x", NormalBalance: domain.BalanceSideDebit, Active: true})
	f.accountRepo.SeedAccount(&domain.Account{ID: "acc-y", NormalBalance: domain.BalanceSideCredit, Active: true})

	f.uc = usecase.NewEntryUseCase(
		f.txMgr, f.accountRepo, f.txRepo, f.auditRepo,
		usecase.NewLedgerValidator(usecase.StrictnessEntry),
		mocks.NewMockIDGenerator(),
	)

	return f
}

func TestEntryUseCase_CreateEntry(t *testing.T) {
	f := newEntryFixture()

	txn, err := f.uc.CreateEntry(context.Background(), usecase.CreateEntryInput{
		Description:     "Opening balance",
		Amount:          decimal.NewFromInt(100),
		DebitAccountID:  "acc-x",
		CreditAccountID: "acc-y",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if txn.Status != domain.TransactionStatusPosted {
		t.Errorf("expected posted, got %s", txn.Status)
	}

	records := f.auditRepo.Records()
	if len(records) != 1 || records[0].Kind != domain.ChangeCreated {
		t.Fatalf("expected one created audit record, got %+v", records)
	}
	if records[0].Origin != "manual" {
		t.Errorf("expected manual origin, got %s", records[0].Origin)
	}
}

func TestEntryUseCase_CreateEntryRejectsSamePair(t *testing.T) {
	f := newEntryFixture()

	_, err := f.uc.CreateEntry(context.Background(), usecase.CreateEntryInput{
		Amount:          decimal.NewFromInt(100),
		DebitAccountID:  "acc-x",
		CreditAccountID: "acc-x",
	})

	if !errors.Is(err, domain.ErrInvalidAccountPair) {
		t.Errorf("expected invalid account pair, got %v", err)
	}
	if len(f.txRepo.All()) != 0 {
		t.Error("nothing may be persisted when validation fails")
	}
	if len(f.auditRepo.Records()) != 0 {
		t.Error("no audit record may be written when validation fails")
	}
}

func TestEntryUseCase_UpdatePostedAmountRejected(t *testing.T) {
	f := newEntryFixture()

	txn, err := f.uc.CreateEntry(context.Background(), usecase.CreateEntryInput{
		Description:     "Rent",
		Amount:          decimal.NewFromInt(900),
		DebitAccountID:  "acc-x",
		CreditAccountID: "acc-y",
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	newAmount := decimal.NewFromInt(950)
	_, err = f.uc.UpdateEntry(context.Background(), txn.ID, usecase.UpdateEntryInput{Amount: &newAmount})
	if !errors.Is(err, domain.ErrPostedImmutable) {
		t.Errorf("expected posted-immutable error, got %v", err)
	}

	newDate := time.Now().AddDate(0, 0, -3)
	_, err = f.uc.UpdateEntry(context.Background(), txn.ID, usecase.UpdateEntryInput{Date: &newDate})
	if !errors.Is(err, domain.ErrPostedImmutable) {
		t.Errorf("expected posted-immutable error for date change, got %v", err)
	}

	// Descriptive edits stay allowed.
	desc := "Rent (March)"
	updated, err := f.uc.UpdateEntry(context.Background(), txn.ID, usecase.UpdateEntryInput{Description: &desc})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Description != desc {
		t.Errorf("expected updated description, got %q", updated.Description)
	}
}

func TestEntryUseCase_ReverseEntry(t *testing.T) {
	f := newEntryFixture()

	original, err := f.uc.CreateEntry(context.Background(), usecase.CreateEntryInput{
		Description:     "Mispost",
		Amount:          decimal.NewFromInt(40),
		DebitAccountID:  "acc-x",
		CreditAccountID: "acc-y",
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	reversal, err := f.uc.ReverseEntry(context.Background(), original.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if reversal.DebitAccountID != "acc-y" || reversal.CreditAccountID != "acc-x" {
		t.Error("reversal must swap the account pair")
	}
	if reversal.ReversesID == nil || *reversal.ReversesID != original.ID {
		t.Error("reversal must reference the original")
	}

	stored, _ := f.txRepo.GetByID(context.Background(), original.ID)
	if stored.Status != domain.TransactionStatusPosted {
		t.Error("original must stay posted and untouched")
	}
}

func TestEntryUseCase_ReverseNonPostedRejected(t *testing.T) {
	f := newEntryFixture()

	f.txRepo.Seed(&domain.Transaction{
		ID:              "tx-void",
		Amount:          decimal.NewFromInt(5),
		DebitAccountID:  "acc-x",
		CreditAccountID: "acc-y",
		Status:          domain.TransactionStatusVoid,
	})

	_, err := f.uc.ReverseEntry(context.Background(), "tx-void")
	if !errors.Is(err, domain.ErrNotPosted) {
		t.Errorf("expected not-posted error, got %v", err)
	}
}

func TestEntryUseCase_VoidEntryIdempotent(t *testing.T) {
	f := newEntryFixture()

	txn, err := f.uc.CreateEntry(context.Background(), usecase.CreateEntryInput{
		Description:     "Duplicate import",
		Amount:          decimal.NewFromInt(12),
		DebitAccountID:  "acc-x",
		CreditAccountID: "acc-y",
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	if _, err := f.uc.VoidEntry(context.Background(), txn.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.uc.VoidEntry(context.Background(), txn.ID); err != nil {
		t.Fatalf("second void must be a no-op: %v", err)
	}

	stored, _ := f.txRepo.GetByID(context.Background(), txn.ID)
	if stored.Status != domain.TransactionStatusVoid {
		t.Errorf("expected void, got %s", stored.Status)
	}

	// create + one void; the idempotent second call writes no audit record.
	if got := len(f.auditRepo.Records()); got != 2 {
		t.Errorf("expected 2 audit records, got %d", got)
	}
}
