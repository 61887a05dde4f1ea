package background

import (
	"context"
	"log/slog"
	"time"

	"github.com/lamarea/storefront/internal/cart"
)

// tokenCleaner is the slice of the verification service the janitor needs
type tokenCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// Janitor periodically removes expired verification tokens from the database
// and prunes idle carts from the session store.
type Janitor struct {
	verifications tokenCleaner
	cartStore     cart.Store
	cartIdleTTL   time.Duration
	logger        *slog.Logger
	interval      time.Duration
	stopCh        chan struct{}
}

// NewJanitor creates a new background janitor
func NewJanitor(
	verifications tokenCleaner,
	cartStore cart.Store,
	cartIdleTTL time.Duration,
	logger *slog.Logger,
	interval time.Duration,
) *Janitor {
	return &Janitor{
		verifications: verifications,
		cartStore:     cartStore,
		cartIdleTTL:   cartIdleTTL,
		logger:        logger,
		interval:      interval,
		stopCh:        make(chan struct{}),
	}
}

// Start begins the periodic cleanup task
func (j *Janitor) Start(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	// Run immediately on startup
	j.runCleanup(ctx)

	for {
		select {
		case <-ticker.C:
			j.runCleanup(ctx)
		case <-j.stopCh:
			j.logger.Info("janitor stopped")
			return
		case <-ctx.Done():
			j.logger.Info("janitor context cancelled")
			return
		}
	}
}

func (j *Janitor) runCleanup(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rowsDeleted, err := j.verifications.CleanupExpired(cleanupCtx)
	if err != nil {
		j.logger.Error("failed to cleanup expired verification tokens", slog.Any("error", err))
	} else if rowsDeleted > 0 {
		j.logger.Info("expired verification token cleanup completed",
			slog.Int64("rows_deleted", rowsDeleted))
	}

	cutoff := time.Now().Add(-j.cartIdleTTL)
	pruned, err := j.cartStore.PruneIdle(cleanupCtx, cutoff)
	if err != nil {
		j.logger.Error("failed to prune idle carts", slog.Any("error", err))
	} else if pruned > 0 {
		j.logger.Info("idle cart pruning completed", slog.Int("carts_pruned", pruned))
	}
}

// Stop signals the janitor to stop
func (j *Janitor) Stop() {
	close(j.stopCh)
}
