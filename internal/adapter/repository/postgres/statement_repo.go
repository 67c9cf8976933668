package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/ledgersync/internal/domain"
)

// StatementRepository implements usecase.StatementRepository.
type StatementRepository struct {
	pool    *pgxpool.Pool
	retrier *Retrier
}

// NewStatementRepository creates a new StatementRepository.
func NewStatementRepository(pool *pgxpool.Pool, retrier *Retrier) *StatementRepository {
	return &StatementRepository{pool: pool, retrier: retrier}
}

// Create inserts a statement and its lines in one transaction, retried on
// transient serialization failures. Statements are immutable once imported,
// so there is no update path.
func (r *StatementRepository) Create(ctx context.Context, statement *domain.BankStatement) error {
	return r.retrier.Retry(ctx, func() error {
		return r.create(ctx, statement)
	})
}

func (r *StatementRepository) create(ctx context.Context, statement *domain.BankStatement) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	_, err = tx.Exec(ctx, `
		INSERT INTO bank_statements (
			id, account_id, period_start, period_end,
			ending_balance, total_credits, total_debits, imported_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		statement.ID,
		statement.AccountID,
		timeToPgTimestamptz(statement.PeriodStart),
		timeToPgTimestamptz(statement.PeriodEnd),
		decimalToNumeric(statement.EndingBalance),
		decimalToNumeric(statement.TotalCredits),
		decimalToNumeric(statement.TotalDebits),
		timeToPgTimestamptz(statement.ImportedAt),
	)
	if err != nil {
		return err
	}

	for i, line := range statement.Lines {
		_, err = tx.Exec(ctx, `
			INSERT INTO bank_statement_lines (statement_id, position, date, amount, description)
			VALUES ($1, $2, $3, $4, $5)
		`,
			statement.ID,
			i,
			timeToPgTimestamptz(line.Date),
			decimalToNumeric(line.Amount),
			line.Description,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// GetByID retrieves a statement with its lines.
func (r *StatementRepository) GetByID(ctx context.Context, id string) (*domain.BankStatement, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, account_id, period_start, period_end,
		       ending_balance, total_credits, total_debits, imported_at
		FROM bank_statements
		WHERE id = $1
	`, id)

	statement, err := scanStatement(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrStatementNotFound
		}

		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT date, amount, description
		FROM bank_statement_lines
		WHERE statement_id = $1
		ORDER BY position
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			line   domain.StatementLine
			date   pgtype.Timestamptz
			amount pgtype.Numeric
		)

		if err := rows.Scan(&date, &amount, &line.Description); err != nil {
			return nil, err
		}

		line.Date = date.Time
		line.Amount = numericToDecimal(amount)
		statement.Lines = append(statement.Lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return statement, nil
}

// ListByAccount lists statement headers for an account, most recent period
// first. Lines are loaded on demand via GetByID.
func (r *StatementRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.BankStatement, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, account_id, period_start, period_end,
		       ending_balance, total_credits, total_debits, imported_at
		FROM bank_statements
		WHERE account_id = $1
		ORDER BY period_end DESC, id
		LIMIT $2 OFFSET $3
	`, accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var statements []*domain.BankStatement
	for rows.Next() {
		statement, err := scanStatement(rows)
		if err != nil {
			return nil, err
		}

		statements = append(statements, statement)
	}

	return statements, rows.Err()
}

func scanStatement(row pgx.Row) (*domain.BankStatement, error) {
	var (
		statement     domain.BankStatement
		periodStart   pgtype.Timestamptz
		periodEnd     pgtype.Timestamptz
		endingBalance pgtype.Numeric
		totalCredits  pgtype.Numeric
		totalDebits   pgtype.Numeric
		importedAt    pgtype.Timestamptz
	)

	err := row.Scan(
		&statement.ID,
		&statement.AccountID,
		&periodStart,
		&periodEnd,
		&endingBalance,
		&totalCredits,
		&totalDebits,
		&importedAt,
	)
	if err != nil {
		return nil, err
	}

	statement.PeriodStart = periodStart.Time
	statement.PeriodEnd = periodEnd.Time
	statement.EndingBalance = numericToDecimal(endingBalance)
	statement.TotalCredits = numericToDecimal(totalCredits)
	statement.TotalDebits = numericToDecimal(totalDebits)
	statement.ImportedAt = importedAt.Time

	return &statement, nil
}
