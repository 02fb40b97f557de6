package alarm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"schedr/internal/models"
	"schedr/internal/store"
)

// DefaultSchedule waits one minute after each cycle finishes.
const DefaultSchedule = "@every 60s"

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSchedule accepts a standard five-field cron expression, a descriptor
// such as "@hourly" or "@every 90s", or a bare Go duration like "2m".
func ParseSchedule(spec string) (cron.Schedule, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		spec = DefaultSchedule
	}
	if !strings.ContainsAny(spec, " \t@") {
		d, err := time.ParseDuration(spec)
		if err != nil {
			return nil, fmt.Errorf("invalid sweep schedule %q: %w", spec, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("sweep interval must be positive, got %s", d)
		}
		return cron.ConstantDelaySchedule{Delay: d}, nil
	}
	sched, err := cronParser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", spec, err)
	}
	return sched, nil
}

// Store is the transactional surface the engine sweeps through.
type Store interface {
	Sweep(ctx context.Context, fn func(tx store.SweepTx) error) error
}

// Options configures an Engine.
type Options struct {
	// Schedule decides when the next cycle starts, measured from the end of
	// the previous one. Defaults to DefaultSchedule.
	Schedule cron.Schedule
	// Location formats alarm times in messages. Defaults to time.Local.
	Location *time.Location
	Now      func() time.Time
	Logger   zerolog.Logger
}

// Result summarizes one cycle.
type Result struct {
	Due       int
	Overdue   int
	Created   int
	Activated int
}

// Engine materializes schedule_due alarms.
type Engine struct {
	store    Store
	schedule cron.Schedule
	loc      *time.Location
	now      func() time.Time
	logger   zerolog.Logger
	wait     func(ctx context.Context, d time.Duration) error

	mu sync.Mutex
}

// NewEngine builds an Engine over st.
func NewEngine(st Store, opts Options) *Engine {
	e := &Engine{
		store:    st,
		schedule: opts.Schedule,
		loc:      opts.Location,
		now:      opts.Now,
		logger:   opts.Logger,
		wait:     sleepContext,
	}
	if e.schedule == nil {
		e.schedule = cron.ConstantDelaySchedule{Delay: time.Minute}
	}
	if e.loc == nil {
		e.loc = time.Local
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// RunCycle performs one sweep in a single transaction. Cycles never overlap;
// a caller arriving mid-cycle waits for it to finish.
func (e *Engine) RunCycle(ctx context.Context) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	var res Result
	err := e.store.Sweep(ctx, func(tx store.SweepTx) error {
		res = Result{}

		due, err := tx.DueSchedules(ctx, now)
		if err != nil {
			return fmt.Errorf("load due schedules: %w", err)
		}
		overdue, err := tx.OverdueSchedules(ctx, now)
		if err != nil {
			return fmt.Errorf("load overdue schedules: %w", err)
		}
		users, err := tx.ActiveUsers(ctx)
		if err != nil {
			return fmt.Errorf("load active users: %w", err)
		}
		ids := make([]int64, len(due))
		for i, s := range due {
			ids[i] = s.ID
		}
		open, err := tx.OpenDueAlarms(ctx, ids)
		if err != nil {
			return fmt.Errorf("load open alarms: %w", err)
		}

		res.Due = len(due)
		res.Overdue = len(overdue)

		ops := ComputeDueAlarmOps(now, Snapshot{Due: due, Overdue: overdue, ActiveUsers: users, OpenDue: open}, e.loc)
		for _, op := range ops {
			switch op.Kind {
			case OpCreate:
				at := op.At
				a := &models.Alarm{
					UserID:      op.UserID,
					ScheduleID:  op.ScheduleID,
					Type:        models.AlarmScheduleDue,
					Message:     op.Message,
					IsActivated: true,
					ActivatedAt: &at,
					CreatedAt:   op.At,
				}
				if err := tx.InsertAlarm(ctx, a); err != nil {
					return fmt.Errorf("create alarm for schedule %d user %d: %w", op.ScheduleID, op.UserID, err)
				}
				res.Created++
			case OpActivate:
				if err := tx.ActivateAlarm(ctx, op.AlarmID, op.Message, op.At); err != nil {
					return fmt.Errorf("activate alarm %d: %w", op.AlarmID, err)
				}
				res.Activated++
			}
		}
		return nil
	})
	if err != nil {
		err = fmt.Errorf("alarm sweep: %w: %w", models.ErrStore, err)
		e.logger.Error().Err(err).Time("now", now).Msg("alarm sweep rolled back")
		return Result{}, err
	}

	ev := e.logger.Debug()
	if res.Created > 0 || res.Activated > 0 {
		ev = e.logger.Info()
	}
	ev.Int("due", res.Due).
		Int("overdue", res.Overdue).
		Int("created", res.Created).
		Int("activated", res.Activated).
		Msg("alarm sweep complete")
	return res, nil
}

// Run sweeps until ctx is cancelled. The first cycle starts immediately and
// each following one is scheduled from the moment the previous one finished.
// A running cycle is never interrupted; cancellation is observed between
// cycles. Cycle failures are logged and do not stop the loop.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info().Msg("alarm engine started")
	cycleCtx := context.WithoutCancel(ctx)
	for {
		_, _ = e.RunCycle(cycleCtx)

		delay := e.nextDelay(e.now())
		if err := e.wait(ctx, delay); err != nil {
			e.logger.Info().Msg("alarm engine stopped")
			return nil
		}
	}
}

func (e *Engine) nextDelay(finished time.Time) time.Duration {
	if every, ok := e.schedule.(cron.ConstantDelaySchedule); ok {
		return every.Delay
	}
	next := e.schedule.Next(finished)
	if next.IsZero() {
		return time.Minute
	}
	if d := next.Sub(finished); d > 0 {
		return d
	}
	return 0
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
