package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/beanbook/beanbook/internal/metrics"
	"github.com/beanbook/beanbook/internal/repository"
)

// Daily reminder copy.
const (
	ReminderTitle = "Time to Log Your Coffee"
	ReminderBody  = "Don't forget to track your morning brew in BeanBook!"
)

// DefaultReminderRunTimeout bounds one reminder run.
const DefaultReminderRunTimeout = 10 * time.Minute

// RecipientLister lists users who opted into the daily reminder.
type RecipientLister interface {
	ListReminderRecipients(ctx context.Context) ([]repository.PushRecipient, error)
}

// Reminder sends the daily "log your coffee" push on a cron schedule.
type Reminder struct {
	recipients RecipientLister
	sender     Sender
	logger     *slog.Logger
	metrics    metrics.Recorder
	cron       *cron.Cron
	timeout    time.Duration
}

// NewReminder creates a reminder scheduled by a standard five-field cron expression.
func NewReminder(recipients RecipientLister, sender Sender, logger *slog.Logger, recorder metrics.Recorder, schedule string, loc *time.Location) (*Reminder, error) {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if loc == nil {
		loc = time.UTC
	}

	r := &Reminder{
		recipients: recipients,
		sender:     sender,
		logger:     logger.With("component", "notify.reminder"),
		metrics:    recorder,
		timeout:    DefaultReminderRunTimeout,
	}

	cronLogger := cronLogAdapter{logger: r.logger}
	r.cron = cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	if _, err := r.cron.AddFunc(schedule, r.run); err != nil {
		return nil, fmt.Errorf("invalid reminder schedule %q: %w", schedule, err)
	}

	return r, nil
}

// Start begins the schedule in its own goroutine.
func (r *Reminder) Start() {
	r.cron.Start()
	r.logger.Info("reminder scheduler started")
}

// Shutdown stops the schedule and waits for a running send to finish.
func (r *Reminder) Shutdown(ctx context.Context) error {
	done := r.cron.Stop()
	select {
	case <-done.Done():
		r.logger.Info("reminder scheduler stopped")
		return nil
	case <-ctx.Done():
		r.logger.Warn("reminder scheduler shutdown timed out")
		return ctx.Err()
	}
}

func (r *Reminder) run() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	r.RunOnce(ctx)
}

// RunOnce sends the reminder to every current recipient.
// Failures are logged per recipient and do not stop the run.
func (r *Reminder) RunOnce(ctx context.Context) (sent, failed int) {
	recipients, err := r.recipients.ListReminderRecipients(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to list reminder recipients", "error", err)
		return 0, 0
	}

	for _, rcpt := range recipients {
		if ctx.Err() != nil {
			r.logger.WarnContext(ctx, "reminder run cut short", "error", ctx.Err())
			break
		}

		msg := Message{To: rcpt.PushToken, Title: ReminderTitle, Body: ReminderBody}
		if err := r.sender.Send(ctx, msg); err != nil {
			r.logger.WarnContext(ctx, "failed to send reminder", "user_id", rcpt.UserID, "error", err)
			r.metrics.IncNotification(metrics.NotificationReminder, metrics.StatusFailed)
			failed++
			continue
		}
		r.metrics.IncNotification(metrics.NotificationReminder, metrics.StatusSuccess)
		sent++
	}

	r.logger.InfoContext(ctx, "reminder run finished", "sent", sent, "failed", failed)
	return sent, failed
}

// cronLogAdapter routes cron's logging to slog.
type cronLogAdapter struct {
	logger *slog.Logger
}

func (a cronLogAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Debug(msg, keysAndValues...)
}

func (a cronLogAdapter) Error(err error, msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, append(keysAndValues, "error", err)...)
}
