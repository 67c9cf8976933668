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

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

const transactionColumns = `
	id, date, description, category, amount,
	debit_account_id, credit_account_id,
	external_id, connection_id, raw_payload,
	status, reconciliation_status, reverses_id,
	created_at, updated_at
`

// Create inserts a new ledger transaction within the given store transaction.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, transactionArgs(txn)...)

	return err
}

// GetByID retrieves a transaction by ID.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE id = $1
	`, id)

	txn, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}

		return nil, err
	}

	return txn, nil
}

// ListByAccountAndPeriod lists posted transactions touching the account with
// a date inside [from, to], ordered for deterministic reconciliation.
func (r *TransactionRepository) ListByAccountAndPeriod(ctx context.Context, accountID string, from, to time.Time) ([]*domain.Transaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE (debit_account_id = $1 OR credit_account_id = $1)
		  AND status = 'posted'
		  AND date >= $2 AND date <= $3
		ORDER BY date, amount, id
	`, accountID, timeToPgTimestamptz(from), timeToPgTimestamptz(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// GetByExternalID retrieves a feed-sourced transaction by its
// (external_id, connection_id) key, inside the batch transaction.
func (r *TransactionRepository) GetByExternalID(ctx context.Context, tx usecase.Transaction, externalID, connectionID string) (*domain.Transaction, error) {
	pgxTx := tx.(*Tx).PgxTx()

	row := pgxTx.QueryRow(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE external_id = $1 AND connection_id = $2
	`, externalID, connectionID)

	txn, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}

		return nil, err
	}

	return txn, nil
}

// UpsertExternal inserts a feed-sourced transaction, or updates the mutable
// fields of the row already holding its (external_id, connection_id) key.
// Returns true when a new row was created.
func (r *TransactionRepository) UpsertExternal(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) (bool, error) {
	pgxTx := tx.(*Tx).PgxTx()

	row := pgxTx.QueryRow(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (external_id, connection_id) DO UPDATE SET
			date = EXCLUDED.date,
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			amount = EXCLUDED.amount,
			debit_account_id = EXCLUDED.debit_account_id,
			credit_account_id = EXCLUDED.credit_account_id,
			raw_payload = EXCLUDED.raw_payload,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
		RETURNING (xmax = 0)
	`, transactionArgs(txn)...)

	var inserted bool
	if err := row.Scan(&inserted); err != nil {
		return false, err
	}

	return inserted, nil
}

// DeleteExternal removes a feed-sourced transaction by its external key.
func (r *TransactionRepository) DeleteExternal(ctx context.Context, tx usecase.Transaction, externalID, connectionID string) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx, `
		DELETE FROM transactions
		WHERE external_id = $1 AND connection_id = $2
	`, externalID, connectionID)

	return err
}

// UpdateStatus updates the lifecycle status of a transaction.
func (r *TransactionRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.TransactionStatus, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	tag, err := pgxTx.Exec(ctx, `
		UPDATE transactions
		SET status = $2, updated_at = $3
		WHERE id = $1
	`, id, string(status), timeToPgTimestamptz(updatedAt))
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}

	return nil
}

// UpdateReconciliationStatus updates the reconciliation flag of a transaction.
func (r *TransactionRepository) UpdateReconciliationStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.ReconciliationStatus, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	tag, err := pgxTx.Exec(ctx, `
		UPDATE transactions
		SET reconciliation_status = $2, updated_at = $3
		WHERE id = $1
	`, id, string(status), timeToPgTimestamptz(updatedAt))
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}

	return nil
}

// UpdateDetails updates the editable fields of an unposted transaction.
// Posted rows are guarded in the usecase layer; this only moves the data.
func (r *TransactionRepository) UpdateDetails(ctx context.Context, tx usecase.Transaction, id, description, category string, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	tag, err := pgxTx.Exec(ctx, `
		UPDATE transactions
		SET description = $2, category = $3, updated_at = $4
		WHERE id = $1
	`, id, description, category, timeToPgTimestamptz(updatedAt))
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}

	return nil
}

func transactionArgs(txn *domain.Transaction) []any {
	return []any{
		txn.ID,
		timeToPgTimestamptz(txn.Date),
		txn.Description,
		txn.Category,
		decimalToNumeric(txn.Amount),
		txn.DebitAccountID,
		txn.CreditAccountID,
		textPtr(txn.ExternalID),
		textPtr(txn.ConnectionID),
		txn.RawPayload,
		string(txn.Status),
		string(txn.ReconciliationStatus),
		textPtr(txn.ReversesID),
		timeToPgTimestamptz(txn.CreatedAt),
		timeToPgTimestamptz(txn.UpdatedAt),
	}
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		txn          domain.Transaction
		date         pgtype.Timestamptz
		amount       pgtype.Numeric
		externalID   pgtype.Text
		connectionID pgtype.Text
		status       string
		reconStatus  string
		reversesID   pgtype.Text
		createdAt    pgtype.Timestamptz
		updatedAt    pgtype.Timestamptz
	)

	err := row.Scan(
		&txn.ID,
		&date,
		&txn.Description,
		&txn.Category,
		&amount,
		&txn.DebitAccountID,
		&txn.CreditAccountID,
		&externalID,
		&connectionID,
		&txn.RawPayload,
		&status,
		&reconStatus,
		&reversesID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	txn.Date = date.Time
	txn.Amount = numericToDecimal(amount)
	txn.ExternalID = pgTextToPtr(externalID)
	txn.ConnectionID = pgTextToPtr(connectionID)
	txn.Status = domain.TransactionStatus(status)
	txn.ReconciliationStatus = domain.ReconciliationStatus(reconStatus)
	txn.ReversesID = pgTextToPtr(reversesID)
	txn.CreatedAt = createdAt.Time
	txn.UpdatedAt = updatedAt.Time

	return &txn, nil
}

func collectTransactions(rows pgx.Rows) ([]*domain.Transaction, error) {
	var txns []*domain.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}

		txns = append(txns, txn)
	}

	return txns, rows.Err()
}
