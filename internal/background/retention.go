package background

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/BradenHooton/lure/internal/models"
	"github.com/BradenHooton/lure/pkg/logger"
)

const retentionCycleTimeout = 5 * time.Minute

// AttemptPurger lists and deletes attempts past their retention
type AttemptPurger interface {
	ListOlderThan(ctx context.Context, cutoff time.Time) ([]*models.LoginAttempt, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Archiver stores a copy of attempts before they are purged
type Archiver interface {
	Archive(ctx context.Context, attempts []*models.LoginAttempt, at time.Time) (string, error)
}

// RetentionManager periodically purges attempts older than maxAge, archiving
// them first when an Archiver is configured
type RetentionManager struct {
	repo     AttemptPurger
	archiver Archiver
	audit    *logger.AuditLogger
	logger   *slog.Logger
	maxAge   time.Duration
	interval time.Duration
	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewRetentionManager creates a new retention manager. archiver may be nil.
func NewRetentionManager(
	repo AttemptPurger,
	archiver Archiver,
	audit *logger.AuditLogger,
	logger *slog.Logger,
	maxAge time.Duration,
	interval time.Duration,
) *RetentionManager {
	return &RetentionManager{
		repo:     repo,
		archiver: archiver,
		audit:    audit,
		logger:   logger,
		maxAge:   maxAge,
		interval: interval,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Enabled reports whether a retention period is configured
func (rm *RetentionManager) Enabled() bool {
	return rm.maxAge > 0 && rm.interval > 0
}

// Start begins the periodic retention task. It returns immediately when retention is disabled.
func (rm *RetentionManager) Start(ctx context.Context) {
	if !rm.Enabled() {
		rm.logger.Info("attempt retention disabled")
		return
	}

	ticker := time.NewTicker(rm.interval)
	defer ticker.Stop()

	// Run immediately on startup
	rm.runCycle(ctx)

	for {
		select {
		case <-ticker.C:
			rm.runCycle(ctx)
		case <-rm.stopCh:
			rm.logger.Info("retention manager stopped")
			return
		case <-ctx.Done():
			rm.logger.Info("retention manager context cancelled")
			return
		}
	}
}

func (rm *RetentionManager) runCycle(ctx context.Context) {
	cycleCtx, cancel := context.WithTimeout(ctx, retentionCycleTimeout)
	defer cancel()

	if _, err := rm.RunOnce(cycleCtx); err != nil {
		rm.logger.Error("attempt retention cycle failed", slog.Any("error", err))
	}
}

// RunOnce performs a single purge. If archiving fails nothing is deleted.
func (rm *RetentionManager) RunOnce(ctx context.Context) (int64, error) {
	now := rm.now()
	cutoff := now.Add(-rm.maxAge)

	var archiveKey string
	if rm.archiver != nil {
		expired, err := rm.repo.ListOlderThan(ctx, cutoff)
		if err != nil {
			return 0, fmt.Errorf("failed to list expired attempts: %w", err)
		}
		if len(expired) == 0 {
			return 0, nil
		}

		archiveKey, err = rm.archiver.Archive(ctx, expired, now)
		if err != nil {
			return 0, fmt.Errorf("archive failed, purge skipped: %w", err)
		}
	}

	deleted, err := rm.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired attempts: %w", err)
	}

	if deleted > 0 {
		rm.logger.Info("expired attempt purge completed", slog.Int64("rows_deleted", deleted))
		if rm.audit != nil {
			rm.audit.LogRetentionPurge(ctx, cutoff, deleted, archiveKey)
		}
	}

	return deleted, nil
}

// Stop signals the retention manager to stop. Safe to call more than once.
func (rm *RetentionManager) Stop() {
	rm.stopOnce.Do(func() { close(rm.stopCh) })
}
