package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgersync/internal/domain"
)

// ReconcileUseCase matches bank statements against recorded transactions and
// reports discrepancies. Reconciliation itself never mutates the ledger;
// MarkReconciled is the separate, explicit status transition taken after
// operator review.
type ReconcileUseCase struct {
	txManager     TransactionManager
	accountRepo   AccountRepository
	statementRepo StatementRepository
	txRepo        TransactionRepository
	auditRepo     AuditRepository
	idGen         IDGenerator
}

// NewReconcileUseCase creates a new ReconcileUseCase.
func NewReconcileUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	statementRepo StatementRepository,
	txRepo TransactionRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
) *ReconcileUseCase {
	return &ReconcileUseCase{
		txManager:     txManager,
		accountRepo:   accountRepo,
		statementRepo: statementRepo,
		txRepo:        txRepo,
		auditRepo:     auditRepo,
		idGen:         idGen,
	}
}

// ImportStatementInput represents input for importing a bank statement.
type ImportStatementInput struct {
	AccountID     string
	PeriodStart   time.Time
	PeriodEnd     time.Time
	EndingBalance decimal.Decimal
	TotalCredits  decimal.Decimal
	TotalDebits   decimal.Decimal
	Lines         []domain.StatementLine
}

// ImportStatement stores an external statement snapshot. Statements are
// immutable once imported.
func (uc *ReconcileUseCase) ImportStatement(ctx context.Context, input ImportStatementInput) (*domain.BankStatement, error) {
	if _, err := uc.accountRepo.GetByID(ctx, input.AccountID); err != nil {
		return nil, err
	}

	statement := &domain.BankStatement{
		ID:            uc.idGen.Generate(),
		AccountID:     input.AccountID,
		PeriodStart:   input.PeriodStart,
		PeriodEnd:     input.PeriodEnd,
		EndingBalance: input.EndingBalance,
		TotalCredits:  input.TotalCredits,
		TotalDebits:   input.TotalDebits,
		Lines:         input.Lines,
		ImportedAt:    time.Now().UTC(),
	}

	if err := uc.statementRepo.Create(ctx, statement); err != nil {
		return nil, err
	}

	return statement, nil
}

// ReconcileStatement loads a statement and the ledger transactions for its
// account and period, then runs the pure reconciliation engine.
func (uc *ReconcileUseCase) ReconcileStatement(ctx context.Context, statementID string) (*domain.ReconciliationResult, error) {
	statement, err := uc.statementRepo.GetByID(ctx, statementID)
	if err != nil {
		return nil, err
	}

	account, err := uc.accountRepo.GetByID(ctx, statement.AccountID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, fmt.Errorf("%w: statement %s references unknown account %s",
				domain.ErrDataConsistency, statement.ID, statement.AccountID)
		}

		return nil, err
	}

	transactions, err := uc.txRepo.ListByAccountAndPeriod(ctx, account.ID, statement.PeriodStart, statement.PeriodEnd)
	if err != nil {
		return nil, err
	}

	return Reconcile(statement, account, transactions), nil
}

// Reconcile matches transactions against statement lines and computes the
// balance discrepancy. Pure and deterministic: the same statement and
// transaction set always produce the same result. Unmatched transactions and
// balance mismatches are data in the result, never errors.
func Reconcile(statement *domain.BankStatement, account *domain.Account, transactions []*domain.Transaction) *domain.ReconciliationResult {
	result := &domain.ReconciliationResult{
		StatementID:   statement.ID,
		AccountID:     account.ID,
		Discrepancies: make([]domain.Discrepancy, 0),
		CheckedAt:     time.Now().UTC(),
	}

	// Candidate set: posted entries only; voided and still-pending rows have
	// no settled monetary effect to reconcile.
	candidates := make([]*domain.Transaction, 0, len(transactions))
	for _, txn := range transactions {
		if txn.Status == domain.TransactionStatusPosted {
			candidates = append(candidates, txn)
		}
	}

	// Deterministic greedy matching: order by date, then amount, then ID, and
	// take the first free statement line with the same calendar date and
	// absolute amount. One transaction per line and one line per transaction.
	sort.SliceStable(candidates, func(i, j int) bool {
		if !candidates[i].Date.Equal(candidates[j].Date) {
			return candidates[i].Date.Before(candidates[j].Date)
		}
		if !candidates[i].Amount.Equal(candidates[j].Amount) {
			return candidates[i].Amount.LessThan(candidates[j].Amount)
		}
		return candidates[i].ID < candidates[j].ID
	})

	lineUsed := make([]bool, len(statement.Lines))
	computed := decimal.Zero

	for _, txn := range candidates {
		matched := false
		for i, line := range statement.Lines {
			if lineUsed[i] {
				continue
			}

			if sameCalendarDay(line.Date, txn.Date) && domain.SameCents(line.Amount.Abs(), txn.Amount) {
				lineUsed[i] = true
				matched = true
				break
			}
		}

		if matched || txn.ReconciliationStatus == domain.ReconciliationStatusReconciled {
			computed = computed.Add(txn.SignedAmount(account))
		}

		if matched {
			result.MatchedIDs = append(result.MatchedIDs, txn.ID)
			continue
		}

		result.UnmatchedIDs = append(result.UnmatchedIDs, txn.ID)
		result.Discrepancies = append(result.Discrepancies, domain.Discrepancy{
			Type:   domain.DiscrepancyUnmatchedTransaction,
			Amount: txn.Amount,
			Date:   txn.Date,
		})
	}

	result.ComputedBalance = computed
	result.BalanceDiscrepancy = statement.EndingBalance.Sub(computed)

	// Compared in integer cents: anything beyond minor-unit precision rounds
	// away, and exact cent equality reports no mismatch.
	if domain.Cents(result.BalanceDiscrepancy) != 0 {
		result.Discrepancies = append(result.Discrepancies, domain.Discrepancy{
			Type:     domain.DiscrepancyBalanceMismatch,
			Amount:   result.BalanceDiscrepancy,
			Date:     statement.PeriodEnd,
			Expected: statement.EndingBalance,
			Actual:   computed,
		})
	}

	return result
}

// MarkReconciled transitions the given transactions to reconciled after
// operator review. Idempotent: already-reconciled transactions are skipped.
func (uc *ReconcileUseCase) MarkReconciled(ctx context.Context, statementID string, transactionIDs []string) error {
	statement, err := uc.statementRepo.GetByID(ctx, statementID)
	if err != nil {
		return err
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()

	for _, id := range transactionIDs {
		txn, err := uc.txRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if txn.DebitAccountID != statement.AccountID && txn.CreditAccountID != statement.AccountID {
			return fmt.Errorf("%w: transaction %s does not touch statement account %s",
				domain.ErrDataConsistency, txn.ID, statement.AccountID)
		}

		if txn.ReconciliationStatus == domain.ReconciliationStatusReconciled {
			continue
		}

		before := domain.MarshalState(txn)
		after := domain.MarshalState(txn)
		after["ReconciliationStatus"] = string(domain.ReconciliationStatusReconciled)

		err = uc.auditRepo.CreateTx(ctx, tx, &domain.AuditRecord{
			Kind:         domain.ChangeUpdated,
			ResourceType: "transaction",
			ResourceID:   txn.ID,
			BeforeState:  before,
			AfterState:   after,
			Origin:       "reconciliation",
			CreatedAt:    now,
		})
		if err != nil {
			return err
		}

		err = uc.txRepo.UpdateReconciliationStatus(ctx, tx, txn.ID, domain.ReconciliationStatusReconciled, now)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func sameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()

	return ay == by && am == bm && ad == bd
}
