// Package dispatch executes the side-effect intents a mutation returns:
// activity recording and notification fan-out. Everything here is
// best-effort. Failures are logged and swallowed so an audit or notify
// outage can never block a task mutation that already happened.
package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"task-tracker/core"
)

// Sender delivers an email notification. SMTP lives outside this service;
// main wires in whatever transport the deployment has.
type Sender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

type Dispatcher struct {
	log    *slog.Logger
	db     core.DB
	sender Sender
}

func New(log *slog.Logger, db core.DB, sender Sender) *Dispatcher {
	return &Dispatcher{log: log, db: db, sender: sender}
}

// Run applies every effect of a finished mutation. It returns once all
// deliveries have been attempted; the caller never learns whether any of
// them failed.
func (d *Dispatcher) Run(ctx context.Context, eff core.Effects) {
	if len(eff.Activities) > 0 {
		if err := d.db.InsertActivities(ctx, eff.Activities); err != nil {
			d.log.Error("recording activity failed", "entries", len(eff.Activities), "error", err)
		}
	}

	var wg sync.WaitGroup
	for _, intent := range eff.Notifications {
		for _, recipient := range intent.Recipients {
			wg.Add(1)
			go func(in core.NotificationIntent, to int64) {
				defer wg.Done()
				d.notify(ctx, in, to)
			}(intent, recipient)
		}
	}
	wg.Wait()
}

func (d *Dispatcher) notify(ctx context.Context, intent core.NotificationIntent, recipient int64) {
	prefs, err := d.db.GetNotificationPrefs(ctx, recipient)
	if err != nil {
		// no prefs row means no opt-in
		if !errors.Is(err, core.ErrNotFound) {
			d.log.Warn("notification prefs lookup failed", "recipient", recipient, "error", err)
		}
		return
	}
	if !prefs.InApp && !prefs.Email {
		return
	}

	if prefs.InApp {
		err := d.db.InsertNotification(ctx, core.Notification{
			RecipientID: recipient,
			TaskID:      intent.TaskID,
			Event:       string(intent.Event),
			Message:     intent.Message,
		})
		if err != nil {
			d.log.Warn("in-app notification failed", "recipient", recipient, "event", intent.Event, "error", err)
		}
	}

	if prefs.Email {
		user, err := d.db.GetUser(ctx, recipient)
		if err != nil || user.Email == "" {
			return
		}
		if err := d.sender.SendEmail(ctx, user.Email, string(intent.Event), intent.Message); err != nil {
			d.log.Warn("email notification failed", "recipient", recipient, "event", intent.Event, "error", err)
		}
	}
}

// LogSender is the no-transport fallback: it logs instead of sending.
type LogSender struct {
	Log *slog.Logger
}

func (s LogSender) SendEmail(_ context.Context, to, subject, _ string) error {
	s.Log.Debug("email suppressed, no smtp transport configured", "to", to, "subject", subject)
	return nil
}
