package usecase

import (
	"context"
	"time"

	"github.com/iho/ledgersync/internal/domain"
)

// ConnectionUseCase manages bank feed connections.
type ConnectionUseCase struct {
	connRepo ConnectionRepository
	feed     FeedClient
	idGen    IDGenerator
}

// NewConnectionUseCase creates a new ConnectionUseCase.
func NewConnectionUseCase(connRepo ConnectionRepository, feed FeedClient, idGen IDGenerator) *ConnectionUseCase {
	return &ConnectionUseCase{connRepo: connRepo, feed: feed, idGen: idGen}
}

// LinkConnectionInput represents input for linking a new bank connection.
type LinkConnectionInput struct {
	PublicToken     string
	AccountID       string
	OffsetAccountID string
	InstitutionName string
}

// LinkConnection exchanges the aggregator's public token for an access token
// and stores the connection in the active state with an empty cursor, so the
// first sync pulls the full history.
func (uc *ConnectionUseCase) LinkConnection(ctx context.Context, input LinkConnectionInput) (*domain.BankConnection, error) {
	accessToken, err := uc.feed.CreateConnection(ctx, input.PublicToken)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	conn := &domain.BankConnection{
		ID:              uc.idGen.Generate(),
		AccountID:       input.AccountID,
		OffsetAccountID: input.OffsetAccountID,
		InstitutionName: input.InstitutionName,
		AccessToken:     accessToken,
		Status:          domain.ConnectionStatusActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := uc.connRepo.Create(ctx, conn); err != nil {
		return nil, err
	}

	return conn, nil
}

// GetConnection retrieves a connection by ID.
func (uc *ConnectionUseCase) GetConnection(ctx context.Context, id string) (*domain.BankConnection, error) {
	return uc.connRepo.GetByID(ctx, id)
}

// ListConnections lists connections.
func (uc *ConnectionUseCase) ListConnections(ctx context.Context, limit, offset int) ([]*domain.BankConnection, error) {
	if limit <= 0 {
		limit = 20
	}

	return uc.connRepo.List(ctx, limit, offset)
}

// Disconnect revokes the feed access token and marks the connection
// disconnected. Already-ingested transactions stay in the ledger.
func (uc *ConnectionUseCase) Disconnect(ctx context.Context, id string) error {
	conn, err := uc.connRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if _, err := uc.feed.Disconnect(ctx, conn.AccessToken); err != nil {
		return err
	}

	return uc.connRepo.UpdateStatus(ctx, id, domain.ConnectionStatusDisconnected, time.Now().UTC())
}

// Reactivate marks a re-authenticated connection active again with a fresh
// access token.
func (uc *ConnectionUseCase) Reactivate(ctx context.Context, id, publicToken string) (*domain.BankConnection, error) {
	conn, err := uc.connRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	accessToken, err := uc.feed.CreateConnection(ctx, publicToken)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	if err := uc.connRepo.UpdateAccessToken(ctx, id, accessToken, now); err != nil {
		return nil, err
	}

	if err := uc.connRepo.UpdateStatus(ctx, id, domain.ConnectionStatusActive, now); err != nil {
		return nil, err
	}

	conn.AccessToken = accessToken
	conn.Status = domain.ConnectionStatusActive
	conn.UpdatedAt = now

	return conn, nil
}
