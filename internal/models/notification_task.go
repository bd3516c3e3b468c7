package models

import "time"

// NotificationTask is a queued best-effort notification. Delivery failures
// never affect the booking that produced the task; the worker retries with
// backoff and eventually gives up.
type NotificationTask struct {
	ID          int64      `json:"id"`
	Type        string     `json:"type"` // appointment, cancel
	Recipient   string     `json:"recipient"`
	Name        string     `json:"name"`
	Date        string     `json:"date"`
	Time        string     `json:"time"`
	Status      string     `json:"status"` // pending, done, failed
	RetryCount  int        `json:"retry_count"`
	LastError   *string    `json:"last_error"`
	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at"`
	NextRetryAt *time.Time `json:"next_retry_at"`
}

const (
	TaskStatusPending = "pending"
	TaskStatusDone    = "done"
	TaskStatusFailed  = "failed"
)
