package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FeedRecord is a transaction as reported by the external bank feed.
// Amount is signed: positive means money out of the account, negative means
// money in.
type FeedRecord struct {
	TransactionID  string
	Amount         decimal.Decimal
	Date           time.Time
	AuthorizedDate *time.Time
	Name           string
	Category       []string
	Pending        bool
	Raw            []byte
}

// EffectiveDate prefers the authorized date when the feed supplies one.
func (r *FeedRecord) EffectiveDate() time.Time {
	if r.AuthorizedDate != nil {
		return *r.AuthorizedDate
	}

	return r.Date
}

// RemovedRecord identifies a feed transaction the upstream has withdrawn.
type RemovedRecord struct {
	TransactionID string
}

// FeedDelta is one page of changes from the external feed since a cursor.
type FeedDelta struct {
	Added      []FeedRecord
	Modified   []FeedRecord
	Removed    []RemovedRecord
	NextCursor string
}
