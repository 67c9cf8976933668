package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatementLine is a single activity line on a bank statement.
type StatementLine struct {
	Date        time.Time
	Amount      decimal.Decimal
	Description string
}

// BankStatement is an immutable snapshot of a bank's view of an account for
// one period. The balance and totals are the bank's authoritative figures,
// never derived from the ledger.
type BankStatement struct {
	ID            string
	AccountID     string
	PeriodStart   time.Time
	PeriodEnd     time.Time
	EndingBalance decimal.Decimal
	TotalCredits  decimal.Decimal
	TotalDebits   decimal.Decimal
	Lines         []StatementLine
	ImportedAt    time.Time
}
