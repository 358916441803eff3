// Package schedule runs a job on a standard five-field cron schedule.
package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	appLog "whencal/internal/log"
)

// Validate reports whether spec is a valid standard cron expression, eg.
// "0 7 * * *" or "@daily".
func Validate(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return nil
}

// Next returns the first time after t at which spec fires.
func Next(spec string, t time.Time) (time.Time, error) {
	s, err := cron.ParseStandard(spec)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return s.Next(t), nil
}

// Run calls job on every tick of spec until ctx is canceled. A job that is
// still running when the next tick fires causes that tick to be skipped.
func Run(ctx context.Context, spec string, job func(context.Context)) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(spec, func() { job(ctx) }); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	appLog.Info("scheduler started", "schedule", spec)
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	appLog.Info("scheduler stopped")
	return nil
}
