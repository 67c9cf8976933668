package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DiscrepancyType classifies a reconciliation finding.
type DiscrepancyType string

const (
	DiscrepancyUnmatchedTransaction DiscrepancyType = "unmatched_transaction"
	DiscrepancyBalanceMismatch      DiscrepancyType = "balance_mismatch"
)

// Discrepancy is a single reconciliation finding. For balance mismatches,
// Expected carries the statement figure and Actual the computed ledger
// figure.
type Discrepancy struct {
	Type     DiscrepancyType
	Amount   decimal.Decimal
	Date     time.Time
	Expected decimal.Decimal
	Actual   decimal.Decimal
}

// ReconciliationResult is the ephemeral outcome of reconciling one statement
// against the ledger. It is recomputed on demand and never persisted.
type ReconciliationResult struct {
	StatementID        string
	AccountID          string
	MatchedIDs         []string
	UnmatchedIDs       []string
	Discrepancies      []Discrepancy
	ComputedBalance    decimal.Decimal
	BalanceDiscrepancy decimal.Decimal
	CheckedAt          time.Time
}

// Matched returns the number of matched transactions.
func (r *ReconciliationResult) Matched() int { return len(r.MatchedIDs) }

// Unmatched returns the number of unmatched transactions.
func (r *ReconciliationResult) Unmatched() int { return len(r.UnmatchedIDs) }

// Balanced reports whether the statement and ledger agree to the cent.
func (r *ReconciliationResult) Balanced() bool {
	return Cents(r.BalanceDiscrepancy) == 0
}
