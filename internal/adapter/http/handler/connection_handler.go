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

// ConnectionService defines the behavior needed by ConnectionHandler.
type ConnectionService interface {
	LinkConnection(ctx context.Context, input usecase.LinkConnectionInput) (*domain.BankConnection, error)
	GetConnection(ctx context.Context, id string) (*domain.BankConnection, error)
	ListConnections(ctx context.Context, limit, offset int) ([]*domain.BankConnection, error)
	Disconnect(ctx context.Context, id string) error
	Reactivate(ctx context.Context, id, publicToken string) (*domain.BankConnection, error)
}

// SyncService triggers a sync pass on demand.
type SyncService interface {
	SyncConnection(ctx context.Context, connectionID string) (*domain.SyncSummary, error)
}

// ConnectionHandler handles bank connection HTTP requests.
type ConnectionHandler struct {
	connectionUC ConnectionService
	syncUC       SyncService
}

// NewConnectionHandler creates a new ConnectionHandler.
func NewConnectionHandler(connectionUC ConnectionService, syncUC SyncService) *ConnectionHandler {
	return &ConnectionHandler{
		connectionUC: connectionUC,
		syncUC:       syncUC,
	}
}

// Link creates a new bank feed connection.
func (h *ConnectionHandler) Link(w http.ResponseWriter, r *http.Request) {
	var req dto.LinkConnectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	conn, err := h.connectionUC.LinkConnection(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to link connection", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.ConnectionFromDomain(conn))
}

// Get retrieves a connection by ID.
func (h *ConnectionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing connection ID", "")
		return
	}

	conn, err := h.connectionUC.GetConnection(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get connection", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ConnectionFromDomain(conn))
}

// List lists connections.
func (h *ConnectionHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	conns, err := h.connectionUC.ListConnections(r.Context(), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list connections", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ConnectionsFromDomain(conns))
}

// Sync triggers a sync pass for a connection.
func (h *ConnectionHandler) Sync(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing connection ID", "")
		return
	}

	summary, err := h.syncUC.SyncConnection(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "sync failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.SyncSummaryResponse{
		ConnectionID: id,
		Added:        summary.Added,
		Modified:     summary.Modified,
		Removed:      summary.Removed,
	})
}

// Disconnect revokes a connection's feed access.
func (h *ConnectionHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing connection ID", "")
		return
	}

	if err := h.connectionUC.Disconnect(r.Context(), id); err != nil {
		writeError(w, mapDomainError(err), "failed to disconnect", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "disconnected"})
}

// Reactivate completes a reauth flow with a fresh public token.
func (h *ConnectionHandler) Reactivate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing connection ID", "")
		return
	}

	var req dto.ReactivateConnectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	conn, err := h.connectionUC.Reactivate(r.Context(), id, req.PublicToken)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to reactivate connection", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ConnectionFromDomain(conn))
}
