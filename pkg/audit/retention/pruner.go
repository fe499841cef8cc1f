// Package retention enforces the audit retention policy by pruning
// expired records, optionally on a cron schedule.
package retention

import (
	"context"
	"log/slog"
	"time"

	"caretrust-hq/minerva/pkg/audit"
)

// Config contains retention policy configuration.
type Config struct {
	// RetentionDays is how long audit records are kept. 0 disables
	// age-based pruning entirely.
	RetentionDays int

	// PruneSchedule is a cron expression for scheduled pruning. Empty
	// disables the scheduler.
	PruneSchedule string
}

// Pruner deletes audit records older than the retention window.
// Unresolved escalations are never deleted regardless of age.
type Pruner struct {
	store  audit.Store
	config Config
	logger *slog.Logger
}

// NewPruner creates a pruner over the given store.
func NewPruner(store audit.Store, config Config) *Pruner {
	return &Pruner{
		store:  store,
		config: config,
		logger: slog.Default().With("component", "audit.retention"),
	}
}

// Prune deletes records older than the retention window and returns the
// number of audit entries removed. With RetentionDays 0 it is a no-op.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	if p.config.RetentionDays <= 0 {
		return 0, nil
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -p.config.RetentionDays)
	deleted, err := p.store.PruneBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	if deleted > 0 {
		p.logger.Info("audit records pruned",
			"deleted_count", deleted,
			"cutoff", cutoff.Format(time.RFC3339),
		)
	}
	return deleted, nil
}
