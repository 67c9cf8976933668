package domain

import (
	"errors"
	"strings"
)

var (
	// Validation errors
	ErrImbalancedEntry    = errors.New("entry debits and credits do not balance for affected account")
	ErrInvalidAccountPair = errors.New("debit and credit accounts must differ")
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountInactive    = errors.New("account is inactive")

	// Transaction errors
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrPostedImmutable     = errors.New("posted transactions cannot be mutated; post a reversing entry instead")
	ErrNotPosted           = errors.New("only posted transactions can be reversed")

	// Statement errors
	ErrStatementNotFound        = errors.New("bank statement not found")
	ErrStatementAccountMismatch = errors.New("statement does not belong to the given account")

	// Connection / sync errors
	ErrConnectionNotFound = errors.New("bank connection not found")
	ErrSyncInProgress     = errors.New("sync already in progress for connection")
	ErrReauthRequired     = errors.New("connection requires re-authentication")

	// ErrDataConsistency marks structurally invalid input that no retry can
	// fix, e.g. a statement referencing an unknown account.
	ErrDataConsistency = errors.New("data consistency error")
)

// reauthSignals are the upstream error markers that mean the feed credential
// has expired and the connection must be re-linked by an operator.
var reauthSignals = []string{
	"ITEM_LOGIN_REQUIRED",
	"login required",
	"reauthenticate",
}

// IsReauthSignal reports whether a feed error indicates the access token
// needs renewal. Detection is by message pattern since the upstream client
// surfaces these as opaque errors.
func IsReauthSignal(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrReauthRequired) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, signal := range reauthSignals {
		if strings.Contains(msg, strings.ToLower(signal)) {
			return true
		}
	}

	return false
}
