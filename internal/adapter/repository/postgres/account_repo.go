package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/ledgersync/internal/domain"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Create creates a new account.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO accounts (id, name, currency, normal_balance, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		account.ID,
		account.Name,
		account.Currency,
		string(account.NormalBalance),
		account.Active,
		timeToPgTimestamptz(account.CreatedAt),
		timeToPgTimestamptz(account.UpdatedAt),
	)

	return err
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, currency, normal_balance, active, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`, id)

	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, err
	}

	return account, nil
}

// List lists accounts ordered by creation time.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, currency, normal_balance, active, created_at, updated_at
		FROM accounts
		ORDER BY created_at, id
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}

		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

// GetActivity returns posted debit and credit totals per account. This is
// the ledger snapshot the validator consumes; the balance itself is always
// derived from it, never read from a stored column.
func (r *AccountRepository) GetActivity(ctx context.Context, accountIDs []string) ([]*domain.AccountActivity, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT
			a.id,
			a.normal_balance,
			a.active,
			COALESCE(SUM(t.amount) FILTER (WHERE t.debit_account_id = a.id AND t.status = 'posted'), 0),
			COALESCE(SUM(t.amount) FILTER (WHERE t.credit_account_id = a.id AND t.status = 'posted'), 0)
		FROM accounts a
		LEFT JOIN transactions t
			ON a.id IN (t.debit_account_id, t.credit_account_id)
		WHERE a.id = ANY($1)
		GROUP BY a.id, a.normal_balance, a.active
	`, accountIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []*domain.AccountActivity
	for rows.Next() {
		var (
			activity      domain.AccountActivity
			normalBalance string
			debitTotal    pgtype.Numeric
			creditTotal   pgtype.Numeric
		)

		err := rows.Scan(&activity.AccountID, &normalBalance, &activity.Active, &debitTotal, &creditTotal)
		if err != nil {
			return nil, err
		}

		activity.NormalBalance = domain.BalanceSide(normalBalance)
		activity.DebitTotal = numericToDecimal(debitTotal)
		activity.CreditTotal = numericToDecimal(creditTotal)

		activities = append(activities, &activity)
	}

	return activities, rows.Err()
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		account       domain.Account
		normalBalance string
		createdAt     pgtype.Timestamptz
		updatedAt     pgtype.Timestamptz
	)

	err := row.Scan(
		&account.ID,
		&account.Name,
		&account.Currency,
		&normalBalance,
		&account.Active,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	account.NormalBalance = domain.BalanceSide(normalBalance)
	account.CreatedAt = createdAt.Time
	account.UpdatedAt = updatedAt.Time

	return &account, nil
}
