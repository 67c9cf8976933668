package usecase

import (
	"time"

	"github.com/iho/ledgersync/internal/domain"
)

// UncategorizedCategory is used when the feed supplies no category path.
const UncategorizedCategory = "uncategorized"

// NormalizeFeedRecord maps an external feed record into the internal
// double-entry transaction shape. The feed reports signed amounts: positive
// is money out of the connected account, negative is money in. Money out
// credits the connected account and debits the connection's offset account;
// money in does the reverse. Pure; idempotency is handled by the upsert key
// (external_id, connection_id) at the store.
func NormalizeFeedRecord(record domain.FeedRecord, conn *domain.BankConnection, id string, now time.Time) *domain.Transaction {
	externalID := record.TransactionID
	connectionID := conn.ID

	txn := &domain.Transaction{
		ID:                   id,
		Date:                 record.EffectiveDate(),
		Description:          record.Name,
		Category:             categoryFromPath(record.Category),
		Amount:               record.Amount.Abs(),
		ExternalID:           &externalID,
		ConnectionID:         &connectionID,
		RawPayload:           record.Raw,
		Status:               domain.TransactionStatusPosted,
		ReconciliationStatus: domain.ReconciliationStatusUnreconciled,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if record.Pending {
		txn.Status = domain.TransactionStatusPending
	}

	if record.Amount.IsNegative() {
		// Money in: debit the connected account.
		txn.DebitAccountID = conn.AccountID
		txn.CreditAccountID = conn.OffsetAccountID
	} else {
		// Money out: credit the connected account.
		txn.DebitAccountID = conn.OffsetAccountID
		txn.CreditAccountID = conn.AccountID
	}

	return txn
}

// categoryFromPath takes the most specific (last) entry of the feed's
// category taxonomy path.
func categoryFromPath(path []string) string {
	if len(path) == 0 {
		return UncategorizedCategory
	}

	last := path[len(path)-1]
	if last == "" {
		return UncategorizedCategory
	}

	return last
}
