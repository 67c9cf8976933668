package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/ledgersync/internal/domain"
)

// syncLockTTL bounds how long a crashed sync pass can keep a connection
// locked. It exceeds the per-attempt execution timeout.
const syncLockTTL = 10 * time.Minute

// SyncUseCase drives one synchronization pass for a bank connection: fetch
// the feed delta, normalize and apply it atomically, then advance the
// cursor. Passes for the same connection are serialized by the locker.
type SyncUseCase struct {
	txManager TransactionManager
	connRepo  ConnectionRepository
	txRepo    TransactionRepository
	auditRepo AuditRepository
	feed      FeedClient
	locker    SyncLocker
	idGen     IDGenerator
	logger    zerolog.Logger
}

// NewSyncUseCase creates a new SyncUseCase.
func NewSyncUseCase(
	txManager TransactionManager,
	connRepo ConnectionRepository,
	txRepo TransactionRepository,
	auditRepo AuditRepository,
	feed FeedClient,
	locker SyncLocker,
	idGen IDGenerator,
	logger zerolog.Logger,
) *SyncUseCase {
	return &SyncUseCase{
		txManager: txManager,
		connRepo:  connRepo,
		txRepo:    txRepo,
		auditRepo: auditRepo,
		feed:      feed,
		locker:    locker,
		idGen:     idGen,
		logger:    logger,
	}
}

// SyncConnection runs one sync pass. Non-active connections are a no-op, not
// an error. The whole delta batch commits atomically: on any failure the
// ledger mutations roll back and the cursor and last-synced timestamp stay
// unchanged, so the next attempt retries the same delta window.
func (uc *SyncUseCase) SyncConnection(ctx context.Context, connectionID string) (*domain.SyncSummary, error) {
	conn, err := uc.connRepo.GetByID(ctx, connectionID)
	if err != nil {
		return nil, err
	}

	if !conn.Syncable() {
		uc.logger.Debug().
			Str("connection_id", conn.ID).
			Str("status", string(conn.Status)).
			Msg("connection not syncable, skipping")

		return &domain.SyncSummary{}, nil
	}

	locked, err := uc.locker.TryLock(ctx, conn.ID, syncLockTTL)
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, domain.ErrSyncInProgress
	}
	defer func() {
		if err := uc.locker.Unlock(context.WithoutCancel(ctx), conn.ID); err != nil {
			uc.logger.Warn().Err(err).Str("connection_id", conn.ID).Msg("failed to release sync lock")
		}
	}()

	delta, err := uc.feed.FetchDelta(ctx, conn.AccessToken, conn.Cursor)
	if err != nil {
		return nil, uc.failSync(ctx, conn, fmt.Errorf("fetch delta: %w", err))
	}

	summary, err := uc.applyDelta(ctx, conn, delta)
	if err != nil {
		return nil, uc.failSync(ctx, conn, err)
	}

	uc.logger.Info().
		Str("connection_id", conn.ID).
		Int("added", summary.Added).
		Int("modified", summary.Modified).
		Int("removed", summary.Removed).
		Msg("sync pass applied")

	return summary, nil
}

// applyDelta applies one delta batch inside a single store transaction.
// Added records go first, then modified, then removed: upstream resend
// semantics mean a record can appear in more than one bucket across retried
// attempts, and removing last avoids resurrecting a row reported both added
// and removed in the same batch.
func (uc *SyncUseCase) applyDelta(ctx context.Context, conn *domain.BankConnection, delta *domain.FeedDelta) (*domain.SyncSummary, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	summary := &domain.SyncSummary{}

	for _, record := range delta.Added {
		if err := uc.upsertRecord(ctx, tx, conn, record, now); err != nil {
			return nil, fmt.Errorf("apply added %s: %w", record.TransactionID, err)
		}
		summary.Added++
	}

	for _, record := range delta.Modified {
		if err := uc.upsertRecord(ctx, tx, conn, record, now); err != nil {
			return nil, fmt.Errorf("apply modified %s: %w", record.TransactionID, err)
		}
		summary.Modified++
	}

	for _, removed := range delta.Removed {
		if err := uc.removeRecord(ctx, tx, conn, removed.TransactionID, now); err != nil {
			return nil, fmt.Errorf("apply removed %s: %w", removed.TransactionID, err)
		}
		summary.Removed++
	}

	if err := uc.connRepo.UpdateCursor(ctx, tx, conn.ID, delta.NextCursor, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return summary, nil
}

func (uc *SyncUseCase) upsertRecord(ctx context.Context, tx Transaction, conn *domain.BankConnection, record domain.FeedRecord, now time.Time) error {
	txn := NormalizeFeedRecord(record, conn, uc.idGen.Generate(), now)

	if err := txn.Validate(); err != nil {
		return err
	}

	created, err := uc.txRepo.UpsertExternal(ctx, tx, txn)
	if err != nil {
		return err
	}

	kind := domain.ChangeUpdated
	if created {
		kind = domain.ChangeCreated
	}

	return uc.auditRepo.CreateTx(ctx, tx, &domain.AuditRecord{
		Kind:         kind,
		ResourceType: "transaction",
		ResourceID:   *txn.ExternalID,
		AfterState:   domain.MarshalState(txn),
		Origin:       "sync",
		CreatedAt:    now,
	})
}

// removeRecord handles an upstream "removed" signal. Still-pending,
// unreconciled rows are hard-deleted together with their raw payload; rows
// that already entered the immutable posted regime are voided instead.
func (uc *SyncUseCase) removeRecord(ctx context.Context, tx Transaction, conn *domain.BankConnection, externalID string, now time.Time) error {
	existing, err := uc.txRepo.GetByExternalID(ctx, tx, externalID, conn.ID)
	if err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			return nil
		}

		return err
	}

	before := domain.MarshalState(existing)

	if existing.Status == domain.TransactionStatusPending &&
		existing.ReconciliationStatus == domain.ReconciliationStatusUnreconciled {
		err = uc.auditRepo.CreateTx(ctx, tx, &domain.AuditRecord{
			Kind:         domain.ChangeDeleted,
			ResourceType: "transaction",
			ResourceID:   existing.ID,
			BeforeState:  before,
			Origin:       "sync",
			CreatedAt:    now,
		})
		if err != nil {
			return err
		}

		return uc.txRepo.DeleteExternal(ctx, tx, externalID, conn.ID)
	}

	if existing.Status == domain.TransactionStatusVoid {
		return nil
	}

	err = uc.auditRepo.CreateTx(ctx, tx, &domain.AuditRecord{
		Kind:         domain.ChangeUpdated,
		ResourceType: "transaction",
		ResourceID:   existing.ID,
		BeforeState:  before,
		Origin:       "sync",
		CreatedAt:    now,
	})
	if err != nil {
		return err
	}

	return uc.txRepo.UpdateStatus(ctx, tx, existing.ID, domain.TransactionStatusVoid, now)
}

// failSync logs the failure and, when the error carries a reauth signal,
// flips the connection to requires_reauth. The status change deliberately
// happens outside the rolled-back batch transaction.
func (uc *SyncUseCase) failSync(ctx context.Context, conn *domain.BankConnection, cause error) error {
	uc.logger.Error().Err(cause).Str("connection_id", conn.ID).Msg("sync pass failed")

	if domain.IsReauthSignal(cause) {
		err := uc.connRepo.UpdateStatus(context.WithoutCancel(ctx), conn.ID, domain.ConnectionStatusRequiresReauth, time.Now().UTC())
		if err != nil {
			uc.logger.Error().Err(err).Str("connection_id", conn.ID).Msg("failed to mark connection for reauth")
		}

		return fmt.Errorf("%w: %s", domain.ErrReauthRequired, cause.Error())
	}

	return cause
}
