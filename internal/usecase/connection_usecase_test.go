package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/ledgersync/internal/domain"
	"github.com/iho/ledgersync/internal/usecase"
	"github.com/iho/ledgersync/internal/usecase/mocks"
)

func TestLinkConnection(t *testing.T) {
	connRepo := mocks.NewMockConnectionRepository()
	feed := mocks.NewMockFeedClient()
	feed.CreateConnectionFunc = func(ctx context.Context, publicToken string) (string, error) {
		require.Equal(t, "public-abc", publicToken)
		return "access-xyz", nil
	}

	uc := usecase.NewConnectionUseCase(connRepo, feed, mocks.NewMockIDGenerator())

	conn, err := uc.LinkConnection(context.Background(), usecase.LinkConnectionInput{
		PublicToken:     "public-abc",
		AccountID:       "acc-checking",
		OffsetAccountID: "acc-uncategorized",
		InstitutionName: "First National",
	})
	require.NoError(t, err)

	assert.Equal(t, "access-xyz", conn.AccessToken)
	assert.Equal(t, domain.ConnectionStatusActive, conn.Status)
	assert.Empty(t, conn.Cursor, "new connection must start with an empty cursor")

	stored, err := connRepo.GetByID(context.Background(), conn.ID)
	require.NoError(t, err)
	assert.Equal(t, "acc-checking", stored.AccountID)
}

func TestLinkConnection_ExchangeFails(t *testing.T) {
	feed := mocks.NewMockFeedClient()
	feed.CreateConnectionFunc = func(ctx context.Context, publicToken string) (string, error) {
		return "", errors.New("exchange rejected")
	}

	uc := usecase.NewConnectionUseCase(mocks.NewMockConnectionRepository(), feed, mocks.NewMockIDGenerator())

	_, err := uc.LinkConnection(context.Background(), usecase.LinkConnectionInput{PublicToken: "bad"})
	require.Error(t, err)
}

func TestDisconnect(t *testing.T) {
	connRepo := mocks.NewMockConnectionRepository()
	connRepo.Seed(&domain.BankConnection{
		ID:          "conn-1",
		AccessToken: "access-xyz",
		Status:      domain.ConnectionStatusActive,
	})

	var revoked string
	feed := mocks.NewMockFeedClient()
	feed.DisconnectFunc = func(ctx context.Context, accessToken string) (bool, error) {
		revoked = accessToken
		return true, nil
	}

	uc := usecase.NewConnectionUseCase(connRepo, feed, mocks.NewMockIDGenerator())

	require.NoError(t, uc.Disconnect(context.Background(), "conn-1"))
	assert.Equal(t, "access-xyz", revoked)

	conn, err := connRepo.GetByID(context.Background(), "conn-1")
	require.NoError(t, err)
	assert.Equal(t, domain.ConnectionStatusDisconnected, conn.Status)
}

func TestDisconnect_NotFound(t *testing.T) {
	uc := usecase.NewConnectionUseCase(mocks.NewMockConnectionRepository(), mocks.NewMockFeedClient(), mocks.NewMockIDGenerator())

	err := uc.Disconnect(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrConnectionNotFound)
}

func TestReactivate(t *testing.T) {
	now := time.Now().UTC()
	connRepo := mocks.NewMockConnectionRepository()
	connRepo.Seed(&domain.BankConnection{
		ID:          "conn-1",
		AccessToken: "access-stale",
		Status:      domain.ConnectionStatusRequiresReauth,
		CreatedAt:   now,
		UpdatedAt:   now,
	})

	uc := usecase.NewConnectionUseCase(connRepo, mocks.NewMockFeedClient(), mocks.NewMockIDGenerator())

	conn, err := uc.Reactivate(context.Background(), "conn-1", "public-fresh")
	require.NoError(t, err)

	assert.Equal(t, domain.ConnectionStatusActive, conn.Status)
	assert.Equal(t, "access-public-fresh", conn.AccessToken)

	stored, err := connRepo.GetByID(context.Background(), "conn-1")
	require.NoError(t, err)
	assert.Equal(t, domain.ConnectionStatusActive, stored.Status)
	assert.Equal(t, "access-public-fresh", stored.AccessToken)
}

func TestListConnections_DefaultLimit(t *testing.T) {
	connRepo := mocks.NewMockConnectionRepository()
	connRepo.ListFunc = func(ctx context.Context, limit, offset int) ([]*domain.BankConnection, error) {
		assert.Equal(t, 20, limit)
		return nil, nil
	}

	uc := usecase.NewConnectionUseCase(connRepo, mocks.NewMockFeedClient(), mocks.NewMockIDGenerator())

	_, err := uc.ListConnections(context.Background(), 0, 0)
	require.NoError(t, err)
}
