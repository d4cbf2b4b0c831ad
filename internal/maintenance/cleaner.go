// Package maintenance runs background housekeeping jobs.
package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/medlabs/critalert/internal/services"
	"github.com/medlabs/critalert/pkg/logger"
)

const (
	defaultRetentionDays = 90
	defaultSchedule      = "@daily"
)

// Cleaner prunes security-log rows past the retention window on a schedule.
// Alerts are never pruned: they are the medical record.
type Cleaner struct {
	seclog    *services.SecurityLogService
	cron      *cron.Cron
	log       *zap.Logger
	retention int
	schedule  string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithRetentionDays adjusts how long security events are retained.
func WithRetentionDays(days int) Option {
	return func(c *Cleaner) {
		if days > 0 {
			c.retention = days
		}
	}
}

// WithSchedule overrides the cron specification for the cleanup job.
func WithSchedule(spec string) Option {
	return func(c *Cleaner) {
		if spec != "" {
			c.schedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner for the supplied security log service.
func NewCleaner(seclog *services.SecurityLogService, opts ...Option) *Cleaner {
	c := &Cleaner{
		seclog:    seclog,
		cron:      cron.New(),
		log:       logger.WithModule("maintenance"),
		retention: defaultRetentionDays,
		schedule:  defaultSchedule,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start schedules the cleanup job and begins running it.
func (c *Cleaner) Start() error {
	_, err := c.cron.AddFunc(c.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := c.RunOnce(ctx); err != nil {
			c.log.Warn("security log cleanup failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}

	c.cron.Start()
	return nil
}

// Stop halts the scheduler and returns a context that is done once any
// in-flight job completes.
func (c *Cleaner) Stop() context.Context {
	return c.cron.Stop()
}

// RunOnce performs a single cleanup pass.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if c.seclog == nil {
		return nil
	}

	removed, err := c.seclog.CleanupOlderThan(ctx, c.retention)
	if err != nil {
		return err
	}
	if removed > 0 {
		c.log.Info("pruned security events",
			zap.Int64("removed", removed),
			zap.Int("retention_days", c.retention),
		)
	}
	return nil
}
