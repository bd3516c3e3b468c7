package worker

import (
	"context"
	"time"

	"apptbook/internal/database"
	"apptbook/internal/domain"
	"apptbook/internal/models"

	"github.com/rs/zerolog"
)

// NotifyWorker drains the notification outbox and hands tasks to the
// configured sender. The outbox lives in sqlite so queued notifications
// survive a restart; a wake channel cuts latency for freshly enqueued work
// without busy polling.
type NotifyWorker struct {
	db           *database.DB
	sender       domain.Sender
	retryPolicy  RetryPolicy
	wake         chan struct{}
	pollInterval time.Duration
	batchSize    int
	log          zerolog.Logger
}

func NewNotifyWorker(db *database.DB, sender domain.Sender, retry RetryPolicy, logger *zerolog.Logger) *NotifyWorker {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = 1 * time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}

	var log zerolog.Logger
	if logger != nil {
		log = logger.With().Str("component", "notify-worker").Logger()
	}

	return &NotifyWorker{
		db:           db,
		sender:       sender,
		retryPolicy:  retry,
		wake:         make(chan struct{}, models.WorkerQueueSize),
		pollInterval: 2 * time.Second,
		batchSize:    20,
		log:          log,
	}
}

// EnqueueNotification persists the task and nudges the worker loop.
// Implements domain.NotificationQueue.
func (w *NotifyWorker) EnqueueNotification(ctx context.Context, task *models.NotificationTask) error {
	if task.Status == "" {
		task.Status = models.TaskStatusPending
	}
	if err := w.db.CreateNotificationTask(ctx, task); err != nil {
		return err
	}

	select {
	case w.wake <- struct{}{}:
	default:
	}
	return nil
}

// Start runs the drain loop until ctx is done.
func (w *NotifyWorker) Start(ctx context.Context) {
	w.log.Info().Msg("notify worker started")
	defer w.log.Info().Msg("notify worker stopped")

	for {
		n, err := w.drainOnce(ctx)
		if err != nil {
			w.log.Error().Err(err).Msg("fetch pending notifications")
		}
		if n > 0 {
			// More work may be due; loop immediately.
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-w.wake:
		case <-time.After(w.pollInterval):
		}
	}
}

// drainOnce processes one batch of due tasks and reports how many it saw.
func (w *NotifyWorker) drainOnce(ctx context.Context) (int, error) {
	tasks, err := w.db.PendingNotificationTasks(ctx, w.batchSize)
	if err != nil {
		return 0, err
	}
	for i := range tasks {
		w.processTask(ctx, &tasks[i])
	}
	return len(tasks), nil
}

func (w *NotifyWorker) processTask(ctx context.Context, task *models.NotificationTask) {
	if err := w.sender.Send(ctx, task); err != nil {
		w.retryOrFail(ctx, task, err)
		return
	}

	if err := w.db.UpdateNotificationTaskStatus(ctx, task.ID, models.TaskStatusDone, "", nil); err != nil {
		w.log.Error().Err(err).Int64("task_id", task.ID).Msg("mark notification done")
	}
}

func (w *NotifyWorker) retryOrFail(ctx context.Context, task *models.NotificationTask, cause error) {
	attempt := task.RetryCount + 1
	if attempt >= w.retryPolicy.MaxRetries {
		if err := w.db.UpdateNotificationTaskStatus(ctx, task.ID, models.TaskStatusFailed, cause.Error(), nil); err != nil {
			w.log.Error().Err(err).Int64("task_id", task.ID).Msg("mark notification failed")
		}
		w.log.Warn().Int64("task_id", task.ID).Str("recipient", task.Recipient).
			Msg("notification given up after max retries")
		return
	}

	next := time.Now().Add(w.retryPolicy.NextDelay(attempt))
	if err := w.db.UpdateNotificationTaskStatus(ctx, task.ID, models.TaskStatusPending, cause.Error(), &next); err != nil {
		w.log.Error().Err(err).Int64("task_id", task.ID).Msg("schedule notification retry")
	}
}
