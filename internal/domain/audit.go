package domain

import (
	"encoding/json"
	"time"
)

// ChangeKind tags what a write-ahead audit record describes.
type ChangeKind string

const (
	ChangeCreated ChangeKind = "created"
	ChangeUpdated ChangeKind = "updated"
	ChangeDeleted ChangeKind = "deleted"
)

// AuditRecord is a write-ahead audit entry. It is written by the component
// performing the mutation, inside the same store transaction, so a committed
// change and its audit trail are inseparable.
type AuditRecord struct {
	ID           string
	Kind         ChangeKind
	ResourceType string
	ResourceID   string
	BeforeState  JSON
	AfterState   JSON
	Origin       string // manual, sync, reconciliation
	CreatedAt    time.Time
}

// JSON is an opaque JSON object snapshot.
type JSON map[string]any

// MarshalState converts a domain object to JSON for audit snapshots.
func MarshalState(v any) JSON {
	if v == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return JSON{"error": "failed to marshal state"}
	}

	var result JSON
	if err := json.Unmarshal(data, &result); err != nil {
		return JSON{"error": "failed to unmarshal state"}
	}

	return result
}

// AuditFilter defines filters for querying audit records.
type AuditFilter struct {
	Kind         string
	ResourceType string
	ResourceID   string
	Origin       string
	StartDate    *time.Time
	EndDate      *time.Time
	Limit        int
	Offset       int
}
