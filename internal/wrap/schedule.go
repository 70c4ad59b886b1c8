package wrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	gocron "github.com/go-co-op/gocron/v2"

	"github.com/cronguard/cronguard/internal/model"
)

// RunScheduled repeats RunOnce on the configured cadence until ctx is
// canceled. Every tick is a complete guarded run with its own lock cycle
// and state load; continuity lives in the state file, exactly as under an
// external cron. A tick that cannot run (lock held, state corrupt) logs
// the error and waits for the next tick, it never stops the scheduler.
func RunScheduled(ctx context.Context, m *Manager, sched model.ScheduleConfig) error {
	var job gocron.JobDefinition
	switch {
	case sched.Cron != "":
		if _, err := model.ParseCron(sched.Cron); err != nil {
			return fmt.Errorf("parsing cron expression: %w", err)
		}
		job = gocron.CronJob(sched.Cron, false)
		m.log.DebugContext(ctx, "successfully parsed", slog.String("cron", sched.Cron))
	case sched.Every.Duration > 0:
		job = gocron.DurationJob(sched.Every.Duration)
		m.log.DebugContext(ctx, "successfully parsed", slog.Duration("every", sched.Every.Duration))
	default:
		return errors.New("both cron and every are empty")
	}

	s, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("initializing gocron scheduler: %w", err)
	}
	_, err = s.NewJob(
		job,
		gocron.NewTask(func() {
			if ctx.Err() != nil {
				return
			}
			if rerr := m.RunOnce(ctx); rerr != nil {
				m.log.ErrorContext(ctx, "scheduled run failed", "error", rerr)
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("initializing gocron job: %w", err)
	}

	s.Start()
	<-ctx.Done()
	if err := s.Shutdown(); err != nil {
		return fmt.Errorf("stopping scheduler: %w", err)
	}
	return nil
}
