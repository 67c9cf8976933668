package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgersync/internal/adapter/http/dto"
	"github.com/iho/ledgersync/internal/domain"
	"github.com/iho/ledgersync/internal/usecase"
)

type accountServiceStub struct {
	createFn  func(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error)
	getFn     func(ctx context.Context, id string) (*domain.Account, error)
	listFn    func(ctx context.Context, input usecase.ListAccountsInput) ([]*domain.Account, error)
	balanceFn func(ctx context.Context, id string) (decimal.Decimal, error)
}

func (s *accountServiceStub) CreateAccount(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error) {
	return s.createFn(ctx, input)
}

func (s *accountServiceStub) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return s.getFn(ctx, id)
}

func (s *accountServiceStub) ListAccounts(ctx context.Context, input usecase.ListAccountsInput) ([]*domain.Account, error) {
	return s.listFn(ctx, input)
}

func (s *accountServiceStub) GetBalance(ctx context.Context, id string) (decimal.Decimal, error) {
	return s.balanceFn(ctx, id)
}

func TestAccountHandler_Create_Success(t *testing.T) {
	account := &domain.Account{
		ID:            "acc-1",
		Name:          "Business Checking",
		Currency:      "USD",
		NormalBalance: domain.BalanceSideDebit,
		Active:        true,
	}

	handler := NewAccountHandler(&accountServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error) {
			if input.Name != "Business Checking" {
				t.Errorf("unexpected name: %s", input.Name)
			}
			return account, nil
		},
	})

	body, _ := json.Marshal(dto.CreateAccountRequest{
		Name:          "Business Checking",
		Currency:      "USD",
		NormalBalance: "debit",
	})

	req := httptest.NewRequest(http.MethodPost, "/accounts", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.AccountResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != "acc-1" {
		t.Fatalf("expected account ID acc-1, got %s", resp.ID)
	}
}

func TestAccountHandler_Create_InvalidBody(t *testing.T) {
	handler := NewAccountHandler(&accountServiceStub{})

	req := httptest.NewRequest(http.MethodPost, "/accounts", bytes.NewReader([]byte("{invalid")))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAccountHandler_Get_NotFound(t *testing.T) {
	handler := NewAccountHandler(&accountServiceStub{
		getFn: func(ctx context.Context, id string) (*domain.Account, error) {
			return nil, domain.ErrAccountNotFound
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/accounts/missing", nil)
	req = withURLParam(req, "id", "missing")
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestAccountHandler_GetBalance(t *testing.T) {
	handler := NewAccountHandler(&accountServiceStub{
		balanceFn: func(ctx context.Context, id string) (decimal.Decimal, error) {
			return decimal.RequireFromString("1250.75"), nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/accounts/acc-1/balance", nil)
	req = withURLParam(req, "id", "acc-1")
	rec := httptest.NewRecorder()

	handler.GetBalance(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.BalanceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Balance.Equal(decimal.RequireFromString("1250.75")) {
		t.Fatalf("expected balance 1250.75, got %s", resp.Balance)
	}
}

func TestAccountHandler_List(t *testing.T) {
	handler := NewAccountHandler(&accountServiceStub{
		listFn: func(ctx context.Context, input usecase.ListAccountsInput) ([]*domain.Account, error) {
			if input.Limit != 5 {
				t.Errorf("expected limit 5, got %d", input.Limit)
			}
			return []*domain.Account{
				{ID: "acc-1", Name: "Checking"},
				{ID: "acc-2", Name: "Revenue"},
			}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/accounts?limit=5", nil)
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp dto.ListAccountsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(resp.Accounts))
	}
}
