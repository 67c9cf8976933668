package usecase

import (
	"github.com/iho/ledgersync/internal/domain"
)

// Strictness selects which double-entry invariant the validator enforces.
type Strictness string

const (
	// StrictnessEntry requires the candidate's own debit and credit legs to
	// balance. With the single-amount pair shape this holds by construction,
	// so a structurally valid candidate passes.
	StrictnessEntry Strictness = "entry"

	// StrictnessAccountLocal additionally requires, for every account the
	// candidate touches, that the account's cumulative debit and credit
	// postings are equal after the candidate is applied. This mirrors the
	// historical behavior of the system this service replaced; it is a much
	// narrower guarantee than whole-entry balancing and rejects ordinary
	// one-sided activity, so it is opt-in.
	StrictnessAccountLocal Strictness = "account_local"
)

// LedgerValidator enforces double-entry invariants on candidate transactions
// before they are committed. It is pure: all ledger state it consults is
// passed in explicitly as the per-account activity snapshot, and it never
// touches the store.
type LedgerValidator struct {
	strictness Strictness
}

// NewLedgerValidator creates a validator with the given strictness.
func NewLedgerValidator(strictness Strictness) *LedgerValidator {
	if strictness == "" {
		strictness = StrictnessEntry
	}

	return &LedgerValidator{strictness: strictness}
}

// Validate checks a candidate transaction against the activity snapshot of
// its affected accounts. The snapshot must cover both accounts; the caller
// computes it from the ledger store. No side effects: persisting on success
// is the caller's job.
func (v *LedgerValidator) Validate(candidate *domain.Transaction, snapshot []*domain.AccountActivity) error {
	if err := candidate.Validate(); err != nil {
		return err
	}

	byID := make(map[string]*domain.AccountActivity, len(snapshot))
	for _, activity := range snapshot {
		byID[activity.AccountID] = activity
	}

	debit, ok := byID[candidate.DebitAccountID]
	if !ok {
		return domain.ErrAccountNotFound
	}

	credit, ok := byID[candidate.CreditAccountID]
	if !ok {
		return domain.ErrAccountNotFound
	}

	if !debit.Active || !credit.Active {
		return domain.ErrAccountInactive
	}

	if v.strictness == StrictnessAccountLocal {
		debitSum := debit.DebitTotal.Add(candidate.Amount)
		if !debitSum.Equal(debit.CreditTotal) {
			return domain.ErrImbalancedEntry
		}

		creditSum := credit.CreditTotal.Add(candidate.Amount)
		if !creditSum.Equal(credit.DebitTotal) {
			return domain.ErrImbalancedEntry
		}
	}

	return nil
}
