package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/iho/ledgersync/internal/adapter/http/dto"
	"github.com/iho/ledgersync/internal/domain"
)

// AuditReader provides read access to audit records.
type AuditReader interface {
	List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditRecord, error)
}

// AuditHandler handles audit trail HTTP requests.
type AuditHandler struct {
	audits AuditReader
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(audits AuditReader) *AuditHandler {
	return &AuditHandler{audits: audits}
}

// List retrieves audit records with optional filters.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := domain.AuditFilter{
		Kind:         r.URL.Query().Get("kind"),
		ResourceType: r.URL.Query().Get("resource_type"),
		ResourceID:   r.URL.Query().Get("resource_id"),
		Origin:       r.URL.Query().Get("origin"),
		Limit:        parseIntQuery(r, "limit", 50),
		Offset:       parseIntQuery(r, "offset", 0),
	}

	if from := parseTimeQuery(r, "from", time.Time{}); !from.IsZero() {
		filter.StartDate = &from
	}
	if to := parseTimeQuery(r, "to", time.Time{}); !to.IsZero() {
		filter.EndDate = &to
	}

	records, err := h.audits.List(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list audit records", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.AuditRecordsFromDomain(records))
}
