// Package reminders runs the daily due-soon sweep: tasks due within the
// configured window get a notification intent for their participants.
package reminders

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"task-tracker/core"
	"task-tracker/dispatch"
)

type Sweeper struct {
	log        *slog.Logger
	db         core.DB
	dispatcher *dispatch.Dispatcher
	windowDays int
	cron       *cron.Cron
}

func New(log *slog.Logger, db core.DB, dispatcher *dispatch.Dispatcher, windowDays int) *Sweeper {
	if windowDays < 1 {
		windowDays = 1
	}
	return &Sweeper{
		log:        log,
		db:         db,
		dispatcher: dispatcher,
		windowDays: windowDays,
		cron:       cron.New(),
	}
}

// Start schedules the sweep daily at the given HH:MM local time.
func (s *Sweeper) Start(ctx context.Context, at string) error {
	spec, err := dailySpec(at)
	if err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(spec, func() { s.Sweep(ctx) }); err != nil {
		return fmt.Errorf("schedule sweep: %w", err)
	}
	s.cron.Start()
	s.log.Info("due-soon sweeper scheduled", "at", at, "window_days", s.windowDays)
	return nil
}

func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

// Sweep scans once and dispatches due-soon intents. Exported so a deployment
// can trigger it out of schedule.
func (s *Sweeper) Sweep(ctx context.Context) {
	today := time.Now().UTC()
	from := today.Format(core.DateLayout)
	to := today.AddDate(0, 0, s.windowDays).Format(core.DateLayout)

	tasks, err := s.db.ListDueBetween(ctx, from, to)
	if err != nil {
		s.log.Error("due-soon sweep failed", "error", err)
		return
	}

	var eff core.Effects
	for _, t := range tasks {
		eff.Notifications = append(eff.Notifications, core.NotificationIntent{
			Event:      core.NotifyDueSoon,
			TaskID:     t.ID,
			Recipients: core.Participants(t),
			Message:    fmt.Sprintf("%q is due %s", t.Title, t.DueDate),
		})
	}
	if len(eff.Notifications) == 0 {
		return
	}

	s.log.Debug("dispatching due-soon reminders", "tasks", len(tasks))
	s.dispatcher.Run(ctx, eff)
}

// dailySpec converts "HH:MM" to a cron expression.
func dailySpec(at string) (string, error) {
	parts := strings.Split(at, ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid time %q, expected HH:MM", at)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid hour in %q", at)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid minute in %q", at)
	}
	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}
