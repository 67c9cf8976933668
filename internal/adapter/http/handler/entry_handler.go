package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iho/ledgersync/internal/adapter/http/dto"
	"github.com/iho/ledgersync/internal/domain"
	"github.com/iho/ledgersync/internal/usecase"
)

// EntryService defines the behavior needed by EntryHandler.
type EntryService interface {
	CreateEntry(ctx context.Context, input usecase.CreateEntryInput) (*domain.Transaction, error)
	GetEntry(ctx context.Context, id string) (*domain.Transaction, error)
	ListEntries(ctx context.Context, input usecase.ListEntriesInput) ([]*domain.Transaction, error)
	UpdateEntry(ctx context.Context, id string, input usecase.UpdateEntryInput) (*domain.Transaction, error)
	VoidEntry(ctx context.Context, id string) (*domain.Transaction, error)
	ReverseEntry(ctx context.Context, id string) (*domain.Transaction, error)
}

// EntryHandler handles ledger entry HTTP requests.
type EntryHandler struct {
	entryUC EntryService
}

// NewEntryHandler creates a new EntryHandler.
func NewEntryHandler(entryUC EntryService) *EntryHandler {
	return &EntryHandler{entryUC: entryUC}
}

// Create posts a new ledger entry.
func (h *EntryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	txn, err := h.entryUC.CreateEntry(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to create entry", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransactionFromDomain(txn))
}

// Get retrieves a transaction by ID.
func (h *EntryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", "")
		return
	}

	txn, err := h.entryUC.GetEntry(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get entry", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(txn))
}

// ListByAccount lists an account's transactions within a period. The period
// defaults to the last 30 days.
func (h *EntryHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	now := time.Now().UTC()
	from := parseTimeQuery(r, "from", now.AddDate(0, 0, -30))
	to := parseTimeQuery(r, "to", now)

	txns, err := h.entryUC.ListEntries(r.Context(), usecase.ListEntriesInput{
		AccountID: accountID,
		From:      from,
		To:        to,
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list entries", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ListTransactionsResponse{
		Transactions: dto.TransactionsFromDomain(txns),
		Total:        int64(len(txns)),
	})
}

// Update edits the descriptive fields of a transaction.
func (h *EntryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", "")
		return
	}

	var req dto.UpdateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	txn, err := h.entryUC.UpdateEntry(r.Context(), id, req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to update entry", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(txn))
}

// Void marks a transaction void.
func (h *EntryHandler) Void(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", "")
		return
	}

	txn, err := h.entryUC.VoidEntry(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to void entry", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(txn))
}

// Reverse posts the offsetting entry for a posted transaction.
func (h *EntryHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", "")
		return
	}

	reversal, err := h.entryUC.ReverseEntry(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to reverse entry", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransactionFromDomain(reversal))
}
