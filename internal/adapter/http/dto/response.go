package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgersync/internal/domain"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Currency      string    `json:"currency"`
	NormalBalance string    `json:"normal_balance"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:            a.ID,
		Name:          a.Name,
		Currency:      a.Currency,
		NormalBalance: string(a.NormalBalance),
		Active:        a.Active,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// ListAccountsResponse wraps a page of accounts.
type ListAccountsResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Total    int64              `json:"total"`
}

// BalanceResponse carries an account's derived balance.
type BalanceResponse struct {
	AccountID string          `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
}

// TransactionResponse represents a ledger transaction in API responses.
type TransactionResponse struct {
	ID                   string          `json:"id"`
	Date                 time.Time       `json:"date"`
	Description          string          `json:"description"`
	Category             string          `json:"category"`
	Amount               decimal.Decimal `json:"amount"`
	DebitAccountID       string          `json:"debit_account_id"`
	CreditAccountID      string          `json:"credit_account_id"`
	ExternalID           *string         `json:"external_id,omitempty"`
	ConnectionID         *string         `json:"connection_id,omitempty"`
	Status               string          `json:"status"`
	ReconciliationStatus string          `json:"reconciliation_status"`
	ReversesID           *string         `json:"reverses_id,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// TransactionFromDomain converts domain transaction to response.
func TransactionFromDomain(t *domain.Transaction) *TransactionResponse {
	return &TransactionResponse{
		ID:                   t.ID,
		Date:                 t.Date,
		Description:          t.Description,
		Category:             t.Category,
		Amount:               t.Amount,
		DebitAccountID:       t.DebitAccountID,
		CreditAccountID:      t.CreditAccountID,
		ExternalID:           t.ExternalID,
		ConnectionID:         t.ConnectionID,
		Status:               string(t.Status),
		ReconciliationStatus: string(t.ReconciliationStatus),
		ReversesID:           t.ReversesID,
		CreatedAt:            t.CreatedAt,
		UpdatedAt:            t.UpdatedAt,
	}
}

// TransactionsFromDomain converts domain transactions to responses.
func TransactionsFromDomain(txns []*domain.Transaction) []*TransactionResponse {
	result := make([]*TransactionResponse, len(txns))
	for i, t := range txns {
		result[i] = TransactionFromDomain(t)
	}
	return result
}

// ListTransactionsResponse wraps a page of transactions.
type ListTransactionsResponse struct {
	Transactions []*TransactionResponse `json:"transactions"`
	Total        int64                  `json:"total"`
}

// StatementResponse represents an imported bank statement.
type StatementResponse struct {
	ID            string              `json:"id"`
	AccountID     string              `json:"account_id"`
	PeriodStart   time.Time           `json:"period_start"`
	PeriodEnd     time.Time           `json:"period_end"`
	EndingBalance decimal.Decimal     `json:"ending_balance"`
	TotalCredits  decimal.Decimal     `json:"total_credits"`
	TotalDebits   decimal.Decimal     `json:"total_debits"`
	Lines         []StatementLineItem `json:"lines,omitempty"`
	ImportedAt    time.Time           `json:"imported_at"`
}

// StatementFromDomain converts domain statement to response.
func StatementFromDomain(s *domain.BankStatement) *StatementResponse {
	resp := &StatementResponse{
		ID:            s.ID,
		AccountID:     s.AccountID,
		PeriodStart:   s.PeriodStart,
		PeriodEnd:     s.PeriodEnd,
		EndingBalance: s.EndingBalance,
		TotalCredits:  s.TotalCredits,
		TotalDebits:   s.TotalDebits,
		ImportedAt:    s.ImportedAt,
	}

	for _, line := range s.Lines {
		resp.Lines = append(resp.Lines, StatementLineItem{
			Date:        line.Date,
			Amount:      line.Amount,
			Description: line.Description,
		})
	}

	return resp
}

// StatementsFromDomain converts domain statements to responses.
func StatementsFromDomain(statements []*domain.BankStatement) []*StatementResponse {
	result := make([]*StatementResponse, len(statements))
	for i, s := range statements {
		result[i] = StatementFromDomain(s)
	}
	return result
}

// DiscrepancyResponse represents one reconciliation finding.
type DiscrepancyResponse struct {
	Type     string          `json:"type"`
	Amount   decimal.Decimal `json:"amount"`
	Date     time.Time       `json:"date"`
	Expected decimal.Decimal `json:"expected,omitempty"`
	Actual   decimal.Decimal `json:"actual,omitempty"`
}

// ReconciliationResultResponse represents a reconciliation run.
type ReconciliationResultResponse struct {
	StatementID        string                `json:"statement_id"`
	AccountID          string                `json:"account_id"`
	Balanced           bool                  `json:"balanced"`
	MatchedIDs         []string              `json:"matched_ids"`
	UnmatchedIDs       []string              `json:"unmatched_ids"`
	Discrepancies      []DiscrepancyResponse `json:"discrepancies"`
	ComputedBalance    decimal.Decimal       `json:"computed_balance"`
	BalanceDiscrepancy decimal.Decimal       `json:"balance_discrepancy"`
	CheckedAt          time.Time             `json:"checked_at"`
}

// ReconciliationResultFromDomain converts a reconciliation result to response.
func ReconciliationResultFromDomain(r *domain.ReconciliationResult) *ReconciliationResultResponse {
	resp := &ReconciliationResultResponse{
		StatementID:        r.StatementID,
		AccountID:          r.AccountID,
		Balanced:           r.Balanced(),
		MatchedIDs:         r.MatchedIDs,
		UnmatchedIDs:       r.UnmatchedIDs,
		Discrepancies:      make([]DiscrepancyResponse, 0, len(r.Discrepancies)),
		ComputedBalance:    r.ComputedBalance,
		BalanceDiscrepancy: r.BalanceDiscrepancy,
		CheckedAt:          r.CheckedAt,
	}

	for _, d := range r.Discrepancies {
		resp.Discrepancies = append(resp.Discrepancies, DiscrepancyResponse{
			Type:     string(d.Type),
			Amount:   d.Amount,
			Date:     d.Date,
			Expected: d.Expected,
			Actual:   d.Actual,
		})
	}

	return resp
}

// ConnectionResponse represents a bank connection. The access token never
// leaves the service.
type ConnectionResponse struct {
	ID              string     `json:"id"`
	AccountID       string     `json:"account_id"`
	OffsetAccountID string     `json:"offset_account_id"`
	InstitutionName string     `json:"institution_name"`
	Status          string     `json:"status"`
	LastSyncedAt    *time.Time `json:"last_synced_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// ConnectionFromDomain converts domain connection to response.
func ConnectionFromDomain(c *domain.BankConnection) *ConnectionResponse {
	return &ConnectionResponse{
		ID:              c.ID,
		AccountID:       c.AccountID,
		OffsetAccountID: c.OffsetAccountID,
		InstitutionName: c.InstitutionName,
		Status:          string(c.Status),
		LastSyncedAt:    c.LastSyncedAt,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

// ConnectionsFromDomain converts domain connections to responses.
func ConnectionsFromDomain(conns []*domain.BankConnection) []*ConnectionResponse {
	result := make([]*ConnectionResponse, len(conns))
	for i, c := range conns {
		result[i] = ConnectionFromDomain(c)
	}
	return result
}

// SyncSummaryResponse represents the outcome of a sync pass.
type SyncSummaryResponse struct {
	ConnectionID string `json:"connection_id"`
	Added        int    `json:"added"`
	Modified     int    `json:"modified"`
	Removed      int    `json:"removed"`
}

// AuditRecordResponse represents an audit record in API responses.
type AuditRecordResponse struct {
	ID           string         `json:"id"`
	Kind         string         `json:"kind"`
	ResourceType string         `json:"resource_type"`
	ResourceID   string         `json:"resource_id"`
	BeforeState  map[string]any `json:"before_state,omitempty"`
	AfterState   map[string]any `json:"after_state,omitempty"`
	Origin       string         `json:"origin"`
	CreatedAt    time.Time      `json:"created_at"`
}

// AuditRecordsFromDomain converts domain audit records to responses.
func AuditRecordsFromDomain(records []*domain.AuditRecord) []*AuditRecordResponse {
	result := make([]*AuditRecordResponse, len(records))
	for i, r := range records {
		result[i] = &AuditRecordResponse{
			ID:           r.ID,
			Kind:         string(r.Kind),
			ResourceType: r.ResourceType,
			ResourceID:   r.ResourceID,
			BeforeState:  r.BeforeState,
			AfterState:   r.AfterState,
			Origin:       r.Origin,
			CreatedAt:    r.CreatedAt,
		}
	}
	return result
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
