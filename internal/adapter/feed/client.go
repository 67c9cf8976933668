// Package feed talks to the external bank transaction aggregator. All wire
// detail stays behind usecase.FeedClient; the rest of the system only sees
// domain.FeedDelta values.
package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgersync/internal/domain"
)

// Client implements usecase.FeedClient against a Plaid-style HTTP API.
type Client struct {
	baseURL    string
	clientID   string
	secret     string
	httpClient *http.Client
}

// NewClient creates a new feed client.
func NewClient(baseURL, clientID, secret string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		clientID:   clientID,
		secret:     secret,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type exchangeRequest struct {
	ClientID    string `json:"client_id"`
	Secret      string `json:"secret"`
	PublicToken string `json:"public_token"`
}

type exchangeResponse struct {
	AccessToken string `json:"access_token"`
}

// CreateConnection exchanges a public token for a long-lived access token.
func (c *Client) CreateConnection(ctx context.Context, publicToken string) (string, error) {
	var resp exchangeResponse
	err := c.post(ctx, "/item/public_token/exchange", exchangeRequest{
		ClientID:    c.clientID,
		Secret:      c.secret,
		PublicToken: publicToken,
	}, &resp)
	if err != nil {
		return "", err
	}

	return resp.AccessToken, nil
}

type syncRequest struct {
	ClientID    string `json:"client_id"`
	Secret      string `json:"secret"`
	AccessToken string `json:"access_token"`
	Cursor      string `json:"cursor,omitempty"`
}

type feedTransaction struct {
	TransactionID  string          `json:"transaction_id"`
	Amount         decimal.Decimal `json:"amount"`
	Date           string          `json:"date"`
	AuthorizedDate *string         `json:"authorized_date"`
	Name           string          `json:"name"`
	Category       []string        `json:"category"`
	Pending        bool            `json:"pending"`
}

type removedTransaction struct {
	TransactionID string `json:"transaction_id"`
}

type syncResponse struct {
	Added      []json.RawMessage    `json:"added"`
	Modified   []json.RawMessage    `json:"modified"`
	Removed    []removedTransaction `json:"removed"`
	NextCursor string               `json:"next_cursor"`
}

// FetchDelta retrieves one page of transaction changes since the cursor. An
// empty cursor asks for the full history.
func (c *Client) FetchDelta(ctx context.Context, accessToken, cursor string) (*domain.FeedDelta, error) {
	var resp syncResponse
	err := c.post(ctx, "/transactions/sync", syncRequest{
		ClientID:    c.clientID,
		Secret:      c.secret,
		AccessToken: accessToken,
		Cursor:      cursor,
	}, &resp)
	if err != nil {
		return nil, err
	}

	added, err := decodeRecords(resp.Added)
	if err != nil {
		return nil, err
	}

	modified, err := decodeRecords(resp.Modified)
	if err != nil {
		return nil, err
	}

	delta := &domain.FeedDelta{
		Added:      added,
		Modified:   modified,
		NextCursor: resp.NextCursor,
	}

	for _, removed := range resp.Removed {
		delta.Removed = append(delta.Removed, domain.RemovedRecord{
			TransactionID: removed.TransactionID,
		})
	}

	return delta, nil
}

type removeRequest struct {
	ClientID    string `json:"client_id"`
	Secret      string `json:"secret"`
	AccessToken string `json:"access_token"`
}

type removeResponse struct {
	Removed bool `json:"removed"`
}

// Disconnect invalidates the access token at the aggregator.
func (c *Client) Disconnect(ctx context.Context, accessToken string) (bool, error) {
	var resp removeResponse
	err := c.post(ctx, "/item/remove", removeRequest{
		ClientID:    c.clientID,
		Secret:      c.secret,
		AccessToken: accessToken,
	}, &resp)
	if err != nil {
		return false, err
	}

	return resp.Removed, nil
}

func (c *Client) post(ctx context.Context, path string, reqBody, respBody any) error {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return apiError(resp.StatusCode, body)
	}

	return json.Unmarshal(body, respBody)
}

type errorResponse struct {
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// apiError surfaces the upstream error code in the message so reauth
// detection by pattern keeps working.
func apiError(status int, body []byte) error {
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.ErrorCode != "" {
		return fmt.Errorf("feed api error %s: %s", errResp.ErrorCode, errResp.ErrorMessage)
	}

	return fmt.Errorf("feed api returned status %d", status)
}

// decodeRecords parses feed transactions while keeping the raw payload of
// each record for audit storage.
func decodeRecords(raws []json.RawMessage) ([]domain.FeedRecord, error) {
	var records []domain.FeedRecord
	for _, raw := range raws {
		var ft feedTransaction
		if err := json.Unmarshal(raw, &ft); err != nil {
			return nil, err
		}

		date, err := time.Parse("2006-01-02", ft.Date)
		if err != nil {
			return nil, fmt.Errorf("invalid feed transaction date %q: %w", ft.Date, err)
		}

		record := domain.FeedRecord{
			TransactionID: ft.TransactionID,
			Amount:        ft.Amount,
			Date:          date,
			Name:          ft.Name,
			Category:      ft.Category,
			Pending:       ft.Pending,
			Raw:           append([]byte(nil), raw...),
		}

		if ft.AuthorizedDate != nil {
			authorized, err := time.Parse("2006-01-02", *ft.AuthorizedDate)
			if err != nil {
				return nil, fmt.Errorf("invalid feed authorized date %q: %w", *ft.AuthorizedDate, err)
			}

			record.AuthorizedDate = &authorized
		}

		records = append(records, record)
	}

	return records, nil
}
