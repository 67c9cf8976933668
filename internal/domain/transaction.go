package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus is the lifecycle state of a ledger transaction.
type TransactionStatus string

const (
	TransactionStatusPending TransactionStatus = "pending"
	TransactionStatusPosted  TransactionStatus = "posted"
	TransactionStatusVoid    TransactionStatus = "void"
)

// ReconciliationStatus tracks whether a transaction has been matched against
// a bank statement and confirmed by an operator.
type ReconciliationStatus string

const (
	ReconciliationStatusUnreconciled ReconciliationStatus = "unreconciled"
	ReconciliationStatusReconciled   ReconciliationStatus = "reconciled"
)

// Transaction is a double-entry ledger transaction: one amount posted as a
// debit to one account and a credit to another.
type Transaction struct {
	ID                   string
	Date                 time.Time
	Description          string
	Category             string
	Amount               decimal.Decimal
	DebitAccountID       string
	CreditAccountID      string
	ExternalID           *string
	ConnectionID         *string
	RawPayload           []byte
	Status               TransactionStatus
	ReconciliationStatus ReconciliationStatus
	ReversesID           *string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Validate checks the structural invariants of a transaction.
func (t *Transaction) Validate() error {
	if t.DebitAccountID == t.CreditAccountID {
		return ErrInvalidAccountPair
	}

	if t.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	return nil
}

// IsExternal reports whether the transaction originated from an external
// feed connection.
func (t *Transaction) IsExternal() bool {
	return t.ExternalID != nil && t.ConnectionID != nil
}

// SignedAmount returns the transaction's effect on the given account,
// positive when it moves the balance toward the account's normal side.
func (t *Transaction) SignedAmount(account *Account) decimal.Decimal {
	onDebitSide := t.DebitAccountID == account.ID

	if onDebitSide == (account.NormalBalance == BalanceSideDebit) {
		return t.Amount
	}

	return t.Amount.Neg()
}

// Reversal builds the offsetting transaction that undoes this one. The
// original is never mutated; corrections are always new entries.
func (t *Transaction) Reversal(id string, now time.Time) *Transaction {
	origID := t.ID

	return &Transaction{
		ID:                   id,
		Date:                 now,
		Description:          "Reversal of: " + t.Description,
		Category:             t.Category,
		Amount:               t.Amount,
		DebitAccountID:       t.CreditAccountID,
		CreditAccountID:      t.DebitAccountID,
		Status:               TransactionStatusPosted,
		ReconciliationStatus: ReconciliationStatusUnreconciled,
		ReversesID:           &origID,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}
