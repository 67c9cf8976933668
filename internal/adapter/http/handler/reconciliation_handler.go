package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/ledgersync/internal/adapter/http/dto"
	"github.com/iho/ledgersync/internal/domain"
	"github.com/iho/ledgersync/internal/usecase"
)

// ReconciliationService defines the behavior needed by ReconciliationHandler.
type ReconciliationService interface {
	ImportStatement(ctx context.Context, input usecase.ImportStatementInput) (*domain.BankStatement, error)
	ReconcileStatement(ctx context.Context, statementID string) (*domain.ReconciliationResult, error)
	MarkReconciled(ctx context.Context, statementID string, transactionIDs []string) error
}

// StatementReader provides read access to imported statements.
type StatementReader interface {
	GetByID(ctx context.Context, id string) (*domain.BankStatement, error)
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.BankStatement, error)
}

// ReconciliationHandler handles statement and reconciliation HTTP requests.
type ReconciliationHandler struct {
	reconcileUC ReconciliationService
	statements  StatementReader
}

// NewReconciliationHandler creates a new ReconciliationHandler.
func NewReconciliationHandler(reconcileUC ReconciliationService, statements StatementReader) *ReconciliationHandler {
	return &ReconciliationHandler{
		reconcileUC: reconcileUC,
		statements:  statements,
	}
}

// ImportStatement imports a bank statement snapshot.
func (h *ReconciliationHandler) ImportStatement(w http.ResponseWriter, r *http.Request) {
	var req dto.ImportStatementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	statement, err := h.reconcileUC.ImportStatement(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to import statement", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.StatementFromDomain(statement))
}

// GetStatement retrieves a statement with its lines.
func (h *ReconciliationHandler) GetStatement(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing statement ID", "")
		return
	}

	statement, err := h.statements.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get statement", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.StatementFromDomain(statement))
}

// ListByAccount lists statements imported for an account.
func (h *ReconciliationHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	statements, err := h.statements.ListByAccount(r.Context(), accountID, limit, offset)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list statements", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.StatementsFromDomain(statements))
}

// Reconcile runs the reconciliation engine for a statement and returns the
// findings. Nothing in the ledger changes.
func (h *ReconciliationHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing statement ID", "")
		return
	}

	result, err := h.reconcileUC.ReconcileStatement(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to reconcile statement", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationResultFromDomain(result))
}

// MarkReconciled confirms reviewed matches as reconciled.
func (h *ReconciliationHandler) MarkReconciled(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing statement ID", "")
		return
	}

	var req dto.MarkReconciledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.reconcileUC.MarkReconciled(r.Context(), id, req.TransactionIDs); err != nil {
		writeError(w, mapDomainError(err), "failed to mark reconciled", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "reconciled"})
}
