package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/ledgersync/internal/domain"
	"github.com/iho/ledgersync/internal/usecase"
)

// ConnectionRepository implements usecase.ConnectionRepository.
type ConnectionRepository struct {
	pool *pgxpool.Pool
}

// NewConnectionRepository creates a new ConnectionRepository.
func NewConnectionRepository(pool *pgxpool.Pool) *ConnectionRepository {
	return &ConnectionRepository{pool: pool}
}

const connectionColumns = `
	id, account_id, offset_account_id, institution_name,
	access_token, cursor, status, last_synced_at, created_at, updated_at
`

// Create inserts a new bank connection.
func (r *ConnectionRepository) Create(ctx context.Context, conn *domain.BankConnection) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO bank_connections (`+connectionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		conn.ID,
		conn.AccountID,
		conn.OffsetAccountID,
		conn.InstitutionName,
		conn.AccessToken,
		conn.Cursor,
		string(conn.Status),
		timePtrToPgTimestamptz(conn.LastSyncedAt),
		timeToPgTimestamptz(conn.CreatedAt),
		timeToPgTimestamptz(conn.UpdatedAt),
	)

	return err
}

// GetByID retrieves a connection by ID.
func (r *ConnectionRepository) GetByID(ctx context.Context, id string) (*domain.BankConnection, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+connectionColumns+`
		FROM bank_connections
		WHERE id = $1
	`, id)

	conn, err := scanConnection(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrConnectionNotFound
		}

		return nil, err
	}

	return conn, nil
}

// List lists connections ordered by creation time.
func (r *ConnectionRepository) List(ctx context.Context, limit, offset int) ([]*domain.BankConnection, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+connectionColumns+`
		FROM bank_connections
		ORDER BY created_at, id
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conns []*domain.BankConnection
	for rows.Next() {
		conn, err := scanConnection(rows)
		if err != nil {
			return nil, err
		}

		conns = append(conns, conn)
	}

	return conns, rows.Err()
}

// UpdateCursor persists the delta cursor and last-synced timestamp inside
// the batch transaction.
func (r *ConnectionRepository) UpdateCursor(ctx context.Context, tx usecase.Transaction, id, cursor string, syncedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	tag, err := pgxTx.Exec(ctx, `
		UPDATE bank_connections
		SET cursor = $2, last_synced_at = $3, updated_at = $3
		WHERE id = $1
	`, id, cursor, timeToPgTimestamptz(syncedAt))
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrConnectionNotFound
	}

	return nil
}

// UpdateStatus updates the connection status on the pool, outside any batch
// transaction.
func (r *ConnectionRepository) UpdateStatus(ctx context.Context, id string, status domain.ConnectionStatus, updatedAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE bank_connections
		SET status = $2, updated_at = $3
		WHERE id = $1
	`, id, string(status), timeToPgTimestamptz(updatedAt))
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrConnectionNotFound
	}

	return nil
}

// UpdateAccessToken replaces the access token after a reauth flow.
func (r *ConnectionRepository) UpdateAccessToken(ctx context.Context, id, accessToken string, updatedAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE bank_connections
		SET access_token = $2, updated_at = $3
		WHERE id = $1
	`, id, accessToken, timeToPgTimestamptz(updatedAt))
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrConnectionNotFound
	}

	return nil
}

func scanConnection(row pgx.Row) (*domain.BankConnection, error) {
	var (
		conn         domain.BankConnection
		status       string
		lastSyncedAt pgtype.Timestamptz
		createdAt    pgtype.Timestamptz
		updatedAt    pgtype.Timestamptz
	)

	err := row.Scan(
		&conn.ID,
		&conn.AccountID,
		&conn.OffsetAccountID,
		&conn.InstitutionName,
		&conn.AccessToken,
		&conn.Cursor,
		&status,
		&lastSyncedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	conn.Status = domain.ConnectionStatus(status)
	conn.LastSyncedAt = pgTimestamptzToTimePtr(lastSyncedAt)
	conn.CreatedAt = createdAt.Time
	conn.UpdatedAt = updatedAt.Time

	return &conn, nil
}
