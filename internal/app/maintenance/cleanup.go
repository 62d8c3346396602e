package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/alumnethq/alumnet/internal/services"
	"github.com/alumnethq/alumnet/pkg/logger"
)

const (
	defaultRetentionDays = 90
	defaultPruneSpec     = "@daily"
)

// Cleaner runs background maintenance: pruning read notifications past their
// retention window so the notifications table stays bounded.
type Cleaner struct {
	notifications *services.NotificationService
	cron          *cron.Cron
	now           func() time.Time
	log           *zap.Logger
	retention     int

	pruneSchedule string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithNow overrides the clock used for retention comparisons.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithRetentionDays adjusts how long read notifications are kept.
func WithRetentionDays(days int) Option {
	return func(cleaner *Cleaner) {
		if days > 0 {
			cleaner.retention = days
		}
	}
}

// WithPruneSchedule overrides the cron specification for the prune job.
func WithPruneSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.pruneSchedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner with sensible defaults. A nil notification
// service disables the prune job.
func NewCleaner(notifications *services.NotificationService, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		notifications: notifications,
		now:           time.Now,
		retention:     defaultRetentionDays,
		pruneSchedule: defaultPruneSpec,
		log:           logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return cleaner
}

// Start registers the prune job with the cron scheduler and launches it.
func (c *Cleaner) Start() error {
	if c.notifications == nil || c.retention <= 0 {
		return nil
	}

	if _, err := c.cron.AddFunc(c.pruneSchedule, func() {
		if err := c.prune(context.Background()); err != nil {
			c.log.Warn("notification prune failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	c.cron.Start()
	return nil
}

// Stop halts the scheduler, waiting for any running job to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes all maintenance routines sequentially. Used in tests and
// during graceful shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error
	if c.notifications != nil && c.retention > 0 {
		errs = multierr.Append(errs, c.prune(ctx))
	}
	return errs
}

func (c *Cleaner) prune(ctx context.Context) error {
	cutoff := c.now().AddDate(0, 0, -c.retention)
	removed, err := c.notifications.PruneRead(ctx, cutoff)
	if err != nil {
		return err
	}
	if removed > 0 {
		c.log.Info("pruned read notifications",
			zap.Int64("removed", removed),
			zap.Time("cutoff", cutoff))
	}
	return nil
}
