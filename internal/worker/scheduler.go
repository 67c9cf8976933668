// Package worker runs the periodic sync scheduler. It walks the active bank
// connections on an interval and drives a sync pass for each, with bounded
// retries per connection.
package worker

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/iho/ledgersync/internal/domain"
	"github.com/iho/ledgersync/internal/usecase"
)

const connectionPageSize = 100

// Syncer is the slice of SyncUseCase the scheduler needs.
type Syncer interface {
	SyncConnection(ctx context.Context, connectionID string) (*domain.SyncSummary, error)
}

// Scheduler triggers sync passes for all active connections.
type Scheduler struct {
	syncer         Syncer
	connRepo       usecase.ConnectionRepository
	logger         zerolog.Logger
	interval       time.Duration
	attemptTimeout time.Duration
	retryInterval  time.Duration
	maxAttempts    int
	onTerminal     func(connectionID string, err error)
}

// Config for Scheduler.
type Config struct {
	Syncer   Syncer
	ConnRepo usecase.ConnectionRepository
	Logger   zerolog.Logger
	// Interval between full walks over the active connections.
	Interval time.Duration
	// AttemptTimeout bounds a single sync pass.
	AttemptTimeout time.Duration
	// RetryInterval is the fixed delay between failed attempts.
	RetryInterval time.Duration
	// MaxAttempts is the total number of attempts per connection per walk.
	MaxAttempts int
	// OnTerminal runs after a connection exhausts its attempts in one walk.
	OnTerminal func(connectionID string, err error)
}

// NewScheduler creates a new Scheduler.
func NewScheduler(cfg Config) *Scheduler {
	if cfg.Interval == 0 {
		cfg.Interval = 15 * time.Minute
	}
	if cfg.AttemptTimeout == 0 {
		cfg.AttemptTimeout = 300 * time.Second
	}
	if cfg.RetryInterval == 0 {
		cfg.RetryInterval = 60 * time.Second
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 3
	}

	return &Scheduler{
		syncer:         cfg.Syncer,
		connRepo:       cfg.ConnRepo,
		logger:         cfg.Logger,
		interval:       cfg.Interval,
		attemptTimeout: cfg.AttemptTimeout,
		retryInterval:  cfg.RetryInterval,
		maxAttempts:    cfg.MaxAttempts,
		onTerminal:     cfg.OnTerminal,
	}
}

// Start runs the scheduler until the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info().
		Dur("interval", s.interval).
		Int("max_attempts", s.maxAttempts).
		Msg("sync scheduler started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("sync scheduler shutting down")
			return ctx.Err()
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

// runOnce walks all connections and syncs the active ones. One failing
// connection never blocks the rest of the walk.
func (s *Scheduler) runOnce(ctx context.Context) {
	offset := 0
	for {
		conns, err := s.connRepo.List(ctx, connectionPageSize, offset)
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to list connections")
			return
		}

		if len(conns) == 0 {
			return
		}

		for _, conn := range conns {
			if ctx.Err() != nil {
				return
			}

			if !conn.Syncable() {
				continue
			}

			s.syncWithRetry(ctx, conn.ID)
		}

		offset += connectionPageSize
	}
}

// syncWithRetry runs up to maxAttempts sync passes for one connection with a
// fixed delay between attempts. A reauth failure stops immediately: repeating
// the call cannot succeed until an operator re-links the connection.
func (s *Scheduler) syncWithRetry(ctx context.Context, connectionID string) {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(s.retryInterval), uint64(s.maxAttempts-1)),
		ctx,
	)

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++

		attemptCtx, cancel := context.WithTimeout(ctx, s.attemptTimeout)
		defer cancel()

		_, err := s.syncer.SyncConnection(attemptCtx, connectionID)
		if err == nil {
			return nil
		}

		if errors.Is(err, domain.ErrReauthRequired) || errors.Is(err, domain.ErrSyncInProgress) {
			return backoff.Permanent(err)
		}

		s.logger.Warn().
			Err(err).
			Str("connection_id", connectionID).
			Int("attempt", attempt).
			Msg("sync attempt failed, will retry")

		return err
	}, policy)
	if err == nil {
		return
	}

	if errors.Is(err, domain.ErrSyncInProgress) {
		s.logger.Debug().Str("connection_id", connectionID).Msg("sync already running, skipped")
		return
	}

	s.logger.Error().
		Err(err).
		Str("connection_id", connectionID).
		Int("attempts", attempt).
		Msg("sync failed terminally for this walk")

	if s.onTerminal != nil {
		s.onTerminal(connectionID, err)
	}
}
