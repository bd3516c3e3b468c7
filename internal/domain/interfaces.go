package domain

import (
	"context"
	"time"

	"apptbook/internal/models"
)

// AppointmentStore is the bookings collection contract. The store owns id
// assignment and the (date, time) uniqueness invariant.
type AppointmentStore interface {
	InsertAppointment(ctx context.Context, a *models.Appointment) error
	GetAppointment(ctx context.Context, id int64) (*models.Appointment, error)
	AppointmentsByDate(ctx context.Context, dateKey string) ([]*models.Appointment, error)
	AppointmentsByOwner(ctx context.Context, ownerID int64) ([]*models.Appointment, error)
	AppointmentsByRange(ctx context.Context, startKey, endKey string) ([]*models.Appointment, error)
	DeleteAppointmentOwned(ctx context.Context, id, ownerID int64) (int64, error)
	DeleteAppointment(ctx context.Context, id int64) (int64, error)
	DailyAppointments(ctx context.Context, startKey, endKey string) (map[string][]*models.Appointment, error)
}

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error
	UpdateUserRole(ctx context.Context, id int64, role string) error
}

// SessionRepository stores session records behind opaque tokens.
type SessionRepository interface {
	GetSession(ctx context.Context, token string) (*models.Session, error)
	PutSession(ctx context.Context, session *models.Session) error
	DeleteSession(ctx context.Context, token string) error
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// NotificationQueue accepts best-effort notification work. Enqueue failures
// are soft: the caller logs and moves on.
type NotificationQueue interface {
	EnqueueNotification(ctx context.Context, task *models.NotificationTask) error
}

// Sender delivers one notification. Implementations: SendGrid email,
// Telegram ops alert, logging stub.
type Sender interface {
	Send(ctx context.Context, task *models.NotificationTask) error
}

// SchedulerService drives the slot scheduling view.
type SchedulerService interface {
	Days(now time.Time) []models.CalendarDay
	Reconcile(ctx context.Context, actor models.Actor, dateKey string) (*models.BookedSlots, error)
	SlotStates(cache *models.BookedSlots) []models.SlotView
	Book(ctx context.Context, actor models.Actor, dateKey, timeOfDay string) (*models.Appointment, error)
	Cancel(ctx context.Context, actor models.Actor, id int64) error
	CancelAny(ctx context.Context, actor models.Actor, id int64) error
	MyAppointments(ctx context.Context, actor models.Actor) ([]*models.Appointment, error)
	AllAppointments(ctx context.Context, actor models.Actor, startKey, endKey string) ([]*models.Appointment, error)
}

// AuthService owns accounts and sessions.
type AuthService interface {
	SignUp(ctx context.Context, email, name, password string) (*models.Session, error)
	SignIn(ctx context.Context, email, password string) (*models.Session, error)
	SignOut(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (models.Actor, error)
	UpdatePassword(ctx context.Context, actor models.Actor, current, next string) error
	SetRole(ctx context.Context, actor models.Actor, email, role string) error
}
