package usecase_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgersync/internal/domain"
	"github.com/iho/ledgersync/internal/usecase"
)

func activity(id string, active bool, debits, credits int64) *domain.AccountActivity {
	return &domain.AccountActivity{
		AccountID:     id,
		NormalBalance: domain.BalanceSideDebit,
		Active:        active,
		DebitTotal:    decimal.NewFromInt(debits),
		CreditTotal:   decimal.NewFromInt(credits),
	}
}

func TestLedgerValidator_Validate(t *testing.T) {
	tests := []struct {
		name       string
		strictness usecase.Strictness
		candidate  *domain.Transaction
		snapshot   []*domain.AccountActivity
		expectErr  error
	}{
		{
			name: "fresh accounts, balanced pair entry",
			candidate: &domain.Transaction{
				Amount:          decimal.NewFromInt(100),
				DebitAccountID:  "acc-x",
				CreditAccountID: "acc-y",
			},
			snapshot: []*domain.AccountActivity{
				activity("acc-x", true, 0, 0),
				activity("acc-y", true, 0, 0),
			},
		},
		{
			name: "identical debit and credit accounts",
			candidate: &domain.Transaction{
				Amount:          decimal.NewFromInt(100),
				DebitAccountID:  "acc-x",
				CreditAccountID: "acc-x",
			},
			snapshot: []*domain.AccountActivity{
				activity("acc-x", true, 0, 0),
			},
			expectErr: domain.ErrInvalidAccountPair,
		},
		{
			name: "non-positive amount",
			candidate: &domain.Transaction{
				Amount:          decimal.Zero,
				DebitAccountID:  "acc-x",
				CreditAccountID: "acc-y",
			},
			snapshot: []*domain.AccountActivity{
				activity("acc-x", true, 0, 0),
				activity("acc-y", true, 0, 0),
			},
			expectErr: domain.ErrInvalidAmount,
		},
		{
			name: "snapshot missing an affected account",
			candidate: &domain.Transaction{
				Amount:          decimal.NewFromInt(100),
				DebitAccountID:  "acc-x",
				CreditAccountID: "acc-y",
			},
			snapshot: []*domain.AccountActivity{
				activity("acc-x", true, 0, 0),
			},
			expectErr: domain.ErrAccountNotFound,
		},
		{
			name: "inactive account",
			candidate: &domain.Transaction{
				Amount:          decimal.NewFromInt(100),
				DebitAccountID:  "acc-x",
				CreditAccountID: "acc-y",
			},
			snapshot: []*domain.AccountActivity{
				activity("acc-x", true, 0, 0),
				activity("acc-y", false, 0, 0),
			},
			expectErr: domain.ErrAccountInactive,
		},
		{
			name:       "account-local strictness, history balances out",
			strictness: usecase.StrictnessAccountLocal,
			candidate: &domain.Transaction{
				Amount:          decimal.NewFromInt(50),
				DebitAccountID:  "acc-x",
				CreditAccountID: "acc-y",
			},
			snapshot: []*domain.AccountActivity{
				activity("acc-x", true, 100, 150),
				activity("acc-y", true, 200, 150),
			},
		},
		{
			name:       "account-local strictness, debit side imbalanced",
			strictness: usecase.StrictnessAccountLocal,
			candidate: &domain.Transaction{
				Amount:          decimal.NewFromInt(50),
				DebitAccountID:  "acc-x",
				CreditAccountID: "acc-y",
			},
			snapshot: []*domain.AccountActivity{
				activity("acc-x", true, 100, 100),
				activity("acc-y", true, 200, 150),
			},
			expectErr: domain.ErrImbalancedEntry,
		},
		{
			name:       "account-local strictness, credit side imbalanced",
			strictness: usecase.StrictnessAccountLocal,
			candidate: &domain.Transaction{
				Amount:          decimal.NewFromInt(50),
				DebitAccountID:  "acc-x",
				CreditAccountID: "acc-y",
			},
			snapshot: []*domain.AccountActivity{
				activity("acc-x", true, 100, 150),
				activity("acc-y", true, 0, 0),
			},
			expectErr: domain.ErrImbalancedEntry,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := usecase.NewLedgerValidator(tt.strictness)

			err := v.Validate(tt.candidate, tt.snapshot)

			if err != tt.expectErr {
				t.Errorf("expected error %v, got %v", tt.expectErr, err)
			}
		})
	}
}

// Under account-local strictness, every accepted entry keeps each touched
// account's cumulative debit and credit sums equal.
func TestLedgerValidator_AccountLocalInvariantHolds(t *testing.T) {
	v := usecase.NewLedgerValidator(usecase.StrictnessAccountLocal)

	snapshot := []*domain.AccountActivity{
		activity("acc-a", true, 70, 100),
		activity("acc-b", true, 40, 10),
	}

	candidate := &domain.Transaction{
		Amount:          decimal.NewFromInt(30),
		DebitAccountID:  "acc-a",
		CreditAccountID: "acc-b",
	}

	if err := v.Validate(candidate, snapshot); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// After applying: acc-a debits 70+30 == credits 100; acc-b credits 10+30 == debits 40.
	debitSum := snapshot[0].DebitTotal.Add(candidate.Amount)
	if !debitSum.Equal(snapshot[0].CreditTotal) {
		t.Errorf("debit account sums diverge: %s vs %s", debitSum, snapshot[0].CreditTotal)
	}

	creditSum := snapshot[1].CreditTotal.Add(candidate.Amount)
	if !creditSum.Equal(snapshot[1].DebitTotal) {
		t.Errorf("credit account sums diverge: %s vs %s", creditSum, snapshot[1].DebitTotal)
	}
}
