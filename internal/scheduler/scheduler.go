// Package scheduler runs the periodic reminder scan: on each tick it
// asks the task service for tasks due within the configured window and
// publishes one reminder event per task. Reminder dedup happens
// downstream, so publishing the same task on consecutive scans is safe.
package scheduler

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/phrazzld/taskflow/internal/events"
	"github.com/phrazzld/taskflow/internal/taskservice"
)

// Scanner publishes reminder events for tasks that are due soon.
type Scanner struct {
	tasks     taskservice.Client
	publisher events.Publisher
	topic     string
	window    time.Duration
	logger    *slog.Logger

	inFlight atomic.Bool
	cron     *cron.Cron
}

// NewScanner creates a Scanner publishing to the given topic.
func NewScanner(tasks taskservice.Client, publisher events.Publisher, topic string, window time.Duration, logger *slog.Logger) *Scanner {
	return &Scanner{
		tasks:     tasks,
		publisher: publisher,
		topic:     topic,
		window:    window,
		logger:    logger.With("component", "reminder_scanner"),
	}
}

// Scan runs one pass. If a previous pass is still running in this
// process, the new invocation is skipped rather than overlapped. This
// guard is process-local only; it does not coordinate across replicas.
func (s *Scanner) Scan(ctx context.Context) {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.logger.Warn("previous scan still in flight, skipping")
		return
	}
	defer s.inFlight.Store(false)

	due, err := s.tasks.GetDueTasks(ctx, s.window)
	if err != nil {
		s.logger.Error("failed to fetch due tasks", "error", err)
		return
	}

	published := 0
	for _, task := range due {
		if task.DueDate == nil {
			continue
		}
		ev := events.NewReminderEvent(task.UserID, task.ID, task.Title, *task.DueDate)
		if err := s.publisher.Publish(ctx, s.topic, ev); err != nil {
			s.logger.Error("failed to publish reminder event",
				"task_id", task.ID,
				"user_id", task.UserID,
				"error", err)
			continue
		}
		published++
	}
	s.logger.Info("reminder scan complete", "due_tasks", len(due), "published", published)
}

// Start schedules the scan on the given cron expression and begins
// ticking. The scan runs with the provided base context.
func (s *Scanner) Start(ctx context.Context, cronSpec string) error {
	c := cron.New()
	_, err := c.AddFunc(cronSpec, func() { s.Scan(ctx) })
	if err != nil {
		return err
	}
	s.cron = c
	c.Start()
	s.logger.Info("reminder scan scheduled", "cron_spec", cronSpec, "due_window", s.window)
	return nil
}

// Stop halts the cron schedule and waits for a running scan to finish.
func (s *Scanner) Stop() {
	if s.cron == nil {
		return
	}
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.logger.Info("reminder scan stopped")
}
