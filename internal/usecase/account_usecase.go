package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgersync/internal/domain"
)

// AccountUseCase handles account management and derived balances.
type AccountUseCase struct {
	accountRepo AccountRepository
	idGen       IDGenerator
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(accountRepo AccountRepository, idGen IDGenerator) *AccountUseCase {
	return &AccountUseCase{accountRepo: accountRepo, idGen: idGen}
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	Name          string
	Currency      string
	NormalBalance domain.BalanceSide
}

// CreateAccount creates a new ledger account.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	now := time.Now().UTC()

	side := input.NormalBalance
	if side == "" {
		side = domain.BalanceSideDebit
	}

	account := &domain.Account{
		ID:            uc.idGen.Generate(),
		Name:          input.Name,
		Currency:      input.Currency,
		NormalBalance: side,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := uc.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	return account, nil
}

// GetAccount retrieves an account by ID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return uc.accountRepo.GetByID(ctx, id)
}

// ListAccountsInput represents input for listing accounts.
type ListAccountsInput struct {
	Limit  int
	Offset int
}

// ListAccounts lists accounts.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, input ListAccountsInput) ([]*domain.Account, error) {
	if input.Limit <= 0 {
		input.Limit = 20
	}

	if input.Limit > 100 {
		input.Limit = 100
	}

	return uc.accountRepo.List(ctx, input.Limit, input.Offset)
}

// GetBalance derives an account's balance from its posted activity. The
// balance is never stored; it is recomputed from entries every time.
func (uc *AccountUseCase) GetBalance(ctx context.Context, id string) (decimal.Decimal, error) {
	account, err := uc.accountRepo.GetByID(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}

	activity, err := uc.accountRepo.GetActivity(ctx, []string{id})
	if err != nil {
		return decimal.Zero, err
	}

	if len(activity) == 0 {
		return decimal.Zero, nil
	}

	return account.BalanceFromActivity(activity[0].DebitTotal, activity[0].CreditTotal), nil
}
