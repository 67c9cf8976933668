package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgersync/internal/domain"
	"github.com/iho/ledgersync/internal/usecase"
)

// CreateAccountRequest represents a request to create an account.
type CreateAccountRequest struct {
	Name          string `json:"name"`
	Currency      string `json:"currency"`
	NormalBalance string `json:"normal_balance"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput() usecase.CreateAccountInput {
	return usecase.CreateAccountInput{
		Name:          r.Name,
		Currency:      r.Currency,
		NormalBalance: domain.BalanceSide(r.NormalBalance),
	}
}

// CreateEntryRequest represents a request to post a ledger entry.
type CreateEntryRequest struct {
	Date            *time.Time      `json:"date,omitempty"`
	Description     string          `json:"description"`
	Category        string          `json:"category"`
	Amount          decimal.Decimal `json:"amount"`
	DebitAccountID  string          `json:"debit_account_id"`
	CreditAccountID string          `json:"credit_account_id"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateEntryRequest) ToUseCaseInput() usecase.CreateEntryInput {
	input := usecase.CreateEntryInput{
		Description:     r.Description,
		Category:        r.Category,
		Amount:          r.Amount,
		DebitAccountID:  r.DebitAccountID,
		CreditAccountID: r.CreditAccountID,
	}

	if r.Date != nil {
		input.Date = *r.Date
	}

	return input
}

// UpdateEntryRequest represents a request to edit a ledger entry.
type UpdateEntryRequest struct {
	Description *string          `json:"description,omitempty"`
	Category    *string          `json:"category,omitempty"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Date        *time.Time       `json:"date,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *UpdateEntryRequest) ToUseCaseInput() usecase.UpdateEntryInput {
	return usecase.UpdateEntryInput{
		Description: r.Description,
		Category:    r.Category,
		Amount:      r.Amount,
		Date:        r.Date,
	}
}

// StatementLineItem is one statement line in an import request.
type StatementLineItem struct {
	Date        time.Time       `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// ImportStatementRequest represents a request to import a bank statement.
type ImportStatementRequest struct {
	AccountID     string              `json:"account_id"`
	PeriodStart   time.Time           `json:"period_start"`
	PeriodEnd     time.Time           `json:"period_end"`
	EndingBalance decimal.Decimal     `json:"ending_balance"`
	TotalCredits  decimal.Decimal     `json:"total_credits"`
	TotalDebits   decimal.Decimal     `json:"total_debits"`
	Lines         []StatementLineItem `json:"lines"`
}

// ToUseCaseInput converts to use case input.
func (r *ImportStatementRequest) ToUseCaseInput() usecase.ImportStatementInput {
	lines := make([]domain.StatementLine, len(r.Lines))
	for i, line := range r.Lines {
		lines[i] = domain.StatementLine{
			Date:        line.Date,
			Amount:      line.Amount,
			Description: line.Description,
		}
	}

	return usecase.ImportStatementInput{
		AccountID:     r.AccountID,
		PeriodStart:   r.PeriodStart,
		PeriodEnd:     r.PeriodEnd,
		EndingBalance: r.EndingBalance,
		TotalCredits:  r.TotalCredits,
		TotalDebits:   r.TotalDebits,
		Lines:         lines,
	}
}

// MarkReconciledRequest represents a request to confirm matched transactions.
type MarkReconciledRequest struct {
	TransactionIDs []string `json:"transaction_ids"`
}

// LinkConnectionRequest represents a request to link a bank feed connection.
type LinkConnectionRequest struct {
	PublicToken     string `json:"public_token"`
	AccountID       string `json:"account_id"`
	OffsetAccountID string `json:"offset_account_id"`
	InstitutionName string `json:"institution_name"`
}

// ToUseCaseInput converts to use case input.
func (r *LinkConnectionRequest) ToUseCaseInput() usecase.LinkConnectionInput {
	return usecase.LinkConnectionInput{
		PublicToken:     r.PublicToken,
		AccountID:       r.AccountID,
		OffsetAccountID: r.OffsetAccountID,
		InstitutionName: r.InstitutionName,
	}
}

// ReactivateConnectionRequest represents a reauth completion request.
type ReactivateConnectionRequest struct {
	PublicToken string `json:"public_token"`
}
