package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgersync/internal/domain"
)

// EntryUseCase posts manual and adjustment entries to the ledger. Every
// write passes through the validator first and is paired with a write-ahead
// audit record in the same store transaction.
type EntryUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	txRepo      TransactionRepository
	auditRepo   AuditRepository
	validator   *LedgerValidator
	idGen       IDGenerator
}

// NewEntryUseCase creates a new EntryUseCase.
func NewEntryUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	txRepo TransactionRepository,
	auditRepo AuditRepository,
	validator *LedgerValidator,
	idGen IDGenerator,
) *EntryUseCase {
	return &EntryUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		txRepo:      txRepo,
		auditRepo:   auditRepo,
		validator:   validator,
		idGen:       idGen,
	}
}

// CreateEntryInput represents input for posting a ledger entry.
type CreateEntryInput struct {
	Date            time.Time
	Description     string
	Category        string
	Amount          decimal.Decimal
	DebitAccountID  string
	CreditAccountID string
}

// CreateEntry validates and posts a new ledger entry. Validation failures
// are returned as typed errors and nothing is persisted.
func (uc *EntryUseCase) CreateEntry(ctx context.Context, input CreateEntryInput) (*domain.Transaction, error) {
	now := time.Now().UTC()

	date := input.Date
	if date.IsZero() {
		date = now
	}

	txn := &domain.Transaction{
		ID:                   uc.idGen.Generate(),
		Date:                 date,
		Description:          input.Description,
		Category:             input.Category,
		Amount:               input.Amount,
		DebitAccountID:       input.DebitAccountID,
		CreditAccountID:      input.CreditAccountID,
		Status:               domain.TransactionStatusPosted,
		ReconciliationStatus: domain.ReconciliationStatusUnreconciled,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := uc.validate(ctx, txn); err != nil {
		return nil, err
	}

	if err := uc.persistNew(ctx, txn, "manual"); err != nil {
		return nil, err
	}

	return txn, nil
}

// GetEntry retrieves a transaction by ID.
func (uc *EntryUseCase) GetEntry(ctx context.Context, id string) (*domain.Transaction, error) {
	return uc.txRepo.GetByID(ctx, id)
}

// ListEntriesInput represents input for listing account entries.
type ListEntriesInput struct {
	AccountID string
	From      time.Time
	To        time.Time
}

// ListEntries lists transactions for an account within a period.
func (uc *EntryUseCase) ListEntries(ctx context.Context, input ListEntriesInput) ([]*domain.Transaction, error) {
	return uc.txRepo.ListByAccountAndPeriod(ctx, input.AccountID, input.From, input.To)
}

// UpdateEntryInput represents input for editing a transaction.
type UpdateEntryInput struct {
	Description *string
	Category    *string
	Amount      *decimal.Decimal
	Date        *time.Time
}

// UpdateEntry edits descriptive fields of a transaction. The monetary effect
// of a posted entry is immutable: any attempt to change its amount or date is
// rejected and must go through ReverseEntry instead.
func (uc *EntryUseCase) UpdateEntry(ctx context.Context, id string, input UpdateEntryInput) (*domain.Transaction, error) {
	txn, err := uc.txRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if txn.Status == domain.TransactionStatusPosted {
		if input.Amount != nil && !input.Amount.Equal(txn.Amount) {
			return nil, domain.ErrPostedImmutable
		}
		if input.Date != nil && !input.Date.Equal(txn.Date) {
			return nil, domain.ErrPostedImmutable
		}
	}

	before := domain.MarshalState(txn)
	now := time.Now().UTC()

	if input.Description != nil {
		txn.Description = *input.Description
	}
	if input.Category != nil {
		txn.Category = *input.Category
	}
	txn.UpdatedAt = now

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	err = uc.auditRepo.CreateTx(ctx, tx, &domain.AuditRecord{
		Kind:         domain.ChangeUpdated,
		ResourceType: "transaction",
		ResourceID:   txn.ID,
		BeforeState:  before,
		AfterState:   domain.MarshalState(txn),
		Origin:       "manual",
		CreatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	err = uc.txRepo.UpdateDetails(ctx, tx, txn.ID, txn.Description, txn.Category, now)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return txn, nil
}

// VoidEntry marks a transaction void. Void is a status change, never a
// deletion; the row and its audit trail remain.
func (uc *EntryUseCase) VoidEntry(ctx context.Context, id string) (*domain.Transaction, error) {
	txn, err := uc.txRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if txn.Status == domain.TransactionStatusVoid {
		return txn, nil
	}

	before := domain.MarshalState(txn)
	now := time.Now().UTC()
	txn.Status = domain.TransactionStatusVoid
	txn.UpdatedAt = now

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	err = uc.auditRepo.CreateTx(ctx, tx, &domain.AuditRecord{
		Kind:         domain.ChangeUpdated,
		ResourceType: "transaction",
		ResourceID:   txn.ID,
		BeforeState:  before,
		AfterState:   domain.MarshalState(txn),
		Origin:       "manual",
		CreatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	err = uc.txRepo.UpdateStatus(ctx, tx, txn.ID, domain.TransactionStatusVoid, now)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return txn, nil
}

// ReverseEntry posts the offsetting transaction for a posted entry. This is
// the only way to correct a posted entry's monetary effect.
func (uc *EntryUseCase) ReverseEntry(ctx context.Context, id string) (*domain.Transaction, error) {
	original, err := uc.txRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if original.Status != domain.TransactionStatusPosted {
		return nil, domain.ErrNotPosted
	}

	reversal := original.Reversal(uc.idGen.Generate(), time.Now().UTC())

	if err := uc.validate(ctx, reversal); err != nil {
		return nil, err
	}

	if err := uc.persistNew(ctx, reversal, "manual"); err != nil {
		return nil, err
	}

	return reversal, nil
}

func (uc *EntryUseCase) validate(ctx context.Context, txn *domain.Transaction) error {
	if err := txn.Validate(); err != nil {
		return err
	}

	snapshot, err := uc.accountRepo.GetActivity(ctx, []string{txn.DebitAccountID, txn.CreditAccountID})
	if err != nil {
		return err
	}

	return uc.validator.Validate(txn, snapshot)
}

func (uc *EntryUseCase) persistNew(ctx context.Context, txn *domain.Transaction, origin string) error {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// Audit first: the record is written ahead of the entry inside the same
	// transaction, so a committed entry always carries its trail.
	err = uc.auditRepo.CreateTx(ctx, tx, &domain.AuditRecord{
		Kind:         domain.ChangeCreated,
		ResourceType: "transaction",
		ResourceID:   txn.ID,
		AfterState:   domain.MarshalState(txn),
		Origin:       origin,
		CreatedAt:    txn.CreatedAt,
	})
	if err != nil {
		return err
	}

	if err := uc.txRepo.Create(ctx, tx, txn); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
