package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgersync/internal/adapter/http/dto"
	"github.com/iho/ledgersync/internal/domain"
	"github.com/iho/ledgersync/internal/usecase"
)

type reconciliationServiceStub struct {
	importFn    func(ctx context.Context, input usecase.ImportStatementInput) (*domain.BankStatement, error)
	reconcileFn func(ctx context.Context, statementID string) (*domain.ReconciliationResult, error)
	markFn      func(ctx context.Context, statementID string, transactionIDs []string) error
}

func (s *reconciliationServiceStub) ImportStatement(ctx context.Context, input usecase.ImportStatementInput) (*domain.BankStatement, error) {
	return s.importFn(ctx, input)
}

func (s *reconciliationServiceStub) ReconcileStatement(ctx context.Context, statementID string) (*domain.ReconciliationResult, error) {
	return s.reconcileFn(ctx, statementID)
}

func (s *reconciliationServiceStub) MarkReconciled(ctx context.Context, statementID string, transactionIDs []string) error {
	return s.markFn(ctx, statementID, transactionIDs)
}

type statementReaderStub struct {
	getFn  func(ctx context.Context, id string) (*domain.BankStatement, error)
	listFn func(ctx context.Context, accountID string, limit, offset int) ([]*domain.BankStatement, error)
}

func (s *statementReaderStub) GetByID(ctx context.Context, id string) (*domain.BankStatement, error) {
	return s.getFn(ctx, id)
}

func (s *statementReaderStub) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.BankStatement, error) {
	return s.listFn(ctx, accountID, limit, offset)
}

func TestReconciliationHandler_ImportStatement(t *testing.T) {
	statement := &domain.BankStatement{
		ID:            "st-1",
		AccountID:     "acc-1",
		EndingBalance: decimal.RequireFromString("500.00"),
	}

	var captured usecase.ImportStatementInput
	handler := NewReconciliationHandler(&reconciliationServiceStub{
		importFn: func(ctx context.Context, input usecase.ImportStatementInput) (*domain.BankStatement, error) {
			captured = input
			return statement, nil
		},
	}, &statementReaderStub{})

	body, _ := json.Marshal(dto.ImportStatementRequest{
		AccountID:     "acc-1",
		EndingBalance: decimal.RequireFromString("500.00"),
		Lines: []dto.StatementLineItem{
			{Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Amount: decimal.RequireFromString("300.00")},
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/statements", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.ImportStatement(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	if captured.AccountID != "acc-1" || len(captured.Lines) != 1 {
		t.Fatalf("expected input to match request, got %+v", captured)
	}
}

func TestReconciliationHandler_Reconcile(t *testing.T) {
	result := &domain.ReconciliationResult{
		StatementID:  "st-1",
		AccountID:    "acc-1",
		MatchedIDs:   []string{"txn-1"},
		UnmatchedIDs: []string{"txn-2"},
		Discrepancies: []domain.Discrepancy{
			{Type: domain.DiscrepancyUnmatchedTransaction, Amount: decimal.RequireFromString("10.00")},
		},
		BalanceDiscrepancy: decimal.RequireFromString("10.00"),
	}

	handler := NewReconciliationHandler(&reconciliationServiceStub{
		reconcileFn: func(ctx context.Context, statementID string) (*domain.ReconciliationResult, error) {
			return result, nil
		},
	}, &statementReaderStub{})

	req := httptest.NewRequest(http.MethodPost, "/statements/st-1/reconcile", nil)
	req = withURLParam(req, "id", "st-1")
	rec := httptest.NewRecorder()

	handler.Reconcile(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.ReconciliationResultResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Discrepancies) != 1 || resp.Discrepancies[0].Type != "unmatched_transaction" {
		t.Fatalf("unexpected discrepancies: %+v", resp.Discrepancies)
	}
	if resp.Balanced {
		t.Fatal("expected a nonzero balance discrepancy to report unbalanced")
	}
}

func TestReconciliationHandler_Reconcile_DataConsistency(t *testing.T) {
	handler := NewReconciliationHandler(&reconciliationServiceStub{
		reconcileFn: func(ctx context.Context, statementID string) (*domain.ReconciliationResult, error) {
			return nil, domain.ErrDataConsistency
		},
	}, &statementReaderStub{})

	req := httptest.NewRequest(http.MethodPost, "/statements/st-1/reconcile", nil)
	req = withURLParam(req, "id", "st-1")
	rec := httptest.NewRecorder()

	handler.Reconcile(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestReconciliationHandler_MarkReconciled(t *testing.T) {
	var gotStatement string
	var gotIDs []string

	handler := NewReconciliationHandler(&reconciliationServiceStub{
		markFn: func(ctx context.Context, statementID string, transactionIDs []string) error {
			gotStatement = statementID
			gotIDs = transactionIDs
			return nil
		},
	}, &statementReaderStub{})

	body, _ := json.Marshal(dto.MarkReconciledRequest{TransactionIDs: []string{"txn-1", "txn-2"}})

	req := httptest.NewRequest(http.MethodPost, "/statements/st-1/mark-reconciled", bytes.NewReader(body))
	req = withURLParam(req, "id", "st-1")
	rec := httptest.NewRecorder()

	handler.MarkReconciled(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	if gotStatement != "st-1" || len(gotIDs) != 2 {
		t.Fatalf("unexpected call: statement=%s ids=%v", gotStatement, gotIDs)
	}
}
