package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceSide is the side on which increases to an account are recorded.
type BalanceSide string

const (
	BalanceSideDebit  BalanceSide = "debit"
	BalanceSideCredit BalanceSide = "credit"
)

// Account represents a ledger account. Its balance is never stored
// authoritatively; it is always recomputed from posted entries.
type Account struct {
	ID            string
	Name          string
	Currency      string
	NormalBalance BalanceSide
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// BalanceFromActivity derives the account balance from its posted debit and
// credit totals, adjusted for the normal-balance side.
func (a *Account) BalanceFromActivity(debitTotal, creditTotal decimal.Decimal) decimal.Decimal {
	if a.NormalBalance == BalanceSideCredit {
		return creditTotal.Sub(debitTotal)
	}

	return debitTotal.Sub(creditTotal)
}

// AccountActivity is the per-account slice of ledger history a validator
// needs: cumulative posted debit and credit totals for one account.
type AccountActivity struct {
	AccountID     string
	NormalBalance BalanceSide
	Active        bool
	DebitTotal    decimal.Decimal
	CreditTotal   decimal.Decimal
}
