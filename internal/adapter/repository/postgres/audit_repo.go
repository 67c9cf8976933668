package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/ledgersync/internal/domain"
	"github.com/iho/ledgersync/internal/usecase"
)

// AuditRepository implements usecase.AuditRepository.
type AuditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

// CreateTx inserts an audit record inside the mutation's transaction, before
// the mutation itself, so the record commits or rolls back with it.
func (r *AuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, record *domain.AuditRecord) error {
	pgxTx := tx.(*Tx).PgxTx()

	var beforeJSON, afterJSON []byte
	var err error

	if record.BeforeState != nil {
		beforeJSON, err = json.Marshal(record.BeforeState)
		if err != nil {
			return err
		}
	}

	if record.AfterState != nil {
		afterJSON, err = json.Marshal(record.AfterState)
		if err != nil {
			return err
		}
	}

	_, err = pgxTx.Exec(ctx, `
		INSERT INTO audit_records (
			id, kind, resource_type, resource_id,
			before_state, after_state, origin, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		record.ID,
		string(record.Kind),
		record.ResourceType,
		record.ResourceID,
		beforeJSON,
		afterJSON,
		record.Origin,
		timeToPgTimestamptz(record.CreatedAt),
	)

	return err
}

// List retrieves audit records with filtering, newest first.
func (r *AuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditRecord, error) {
	query := `
		SELECT id, kind, resource_type, resource_id,
		       before_state, after_state, origin, created_at
		FROM audit_records
		WHERE 1=1
	`
	args := []any{}
	argPos := 1

	addFilter := func(clause string, value any) {
		query += fmt.Sprintf(" AND %s = $%d", clause, argPos)
		args = append(args, value)
		argPos++
	}

	if filter.Kind != "" {
		addFilter("kind", filter.Kind)
	}

	if filter.ResourceType != "" {
		addFilter("resource_type", filter.ResourceType)
	}

	if filter.ResourceID != "" {
		addFilter("resource_id", filter.ResourceID)
	}

	if filter.Origin != "" {
		addFilter("origin", filter.Origin)
	}

	if filter.StartDate != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", argPos)
		args = append(args, timeToPgTimestamptz(*filter.StartDate))
		argPos++
	}

	if filter.EndDate != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", argPos)
		args = append(args, timeToPgTimestamptz(*filter.EndDate))
		argPos++
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argPos)
		args = append(args, filter.Limit)
		argPos++
	}

	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argPos)
		args = append(args, filter.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.AuditRecord
	for rows.Next() {
		var (
			record     domain.AuditRecord
			kind       string
			beforeJSON []byte
			afterJSON  []byte
			createdAt  pgtype.Timestamptz
		)

		err := rows.Scan(
			&record.ID,
			&kind,
			&record.ResourceType,
			&record.ResourceID,
			&beforeJSON,
			&afterJSON,
			&record.Origin,
			&createdAt,
		)
		if err != nil {
			return nil, err
		}

		record.Kind = domain.ChangeKind(kind)
		record.CreatedAt = createdAt.Time

		if beforeJSON != nil {
			_ = json.Unmarshal(beforeJSON, &record.BeforeState)
		}

		if afterJSON != nil {
			_ = json.Unmarshal(afterJSON, &record.AfterState)
		}

		records = append(records, &record)
	}

	return records, rows.Err()
}
