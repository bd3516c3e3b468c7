package models

const (
	RoleCustomer = "customer"
	RoleEmployee = "employee"
	RoleAdmin    = "admin"
)

const (
	NotifyAppointment = "appointment"
	NotifyCancel      = "cancel"
)

const (
	// DefaultSessionTTL lifetime of a session token in Redis.
	DefaultSessionTTL = 24 * 60 * 60 // seconds

	// DefaultWeeksAhead how many weeks of day buttons the page offers.
	DefaultWeeksAhead = 15

	// DefaultSlotIntervalMinutes cadence of the slot panel.
	DefaultSlotIntervalMinutes = 30

	// DefaultAppointmentMinutes duration recorded on a new appointment.
	DefaultAppointmentMinutes = 30

	// WorkerQueueSize wake-up channel size for the notification worker.
	WorkerQueueSize = 1000

	// RateLimitLogins failed sign-in attempts allowed per window.
	RateLimitLogins = 10

	// RateLimitWindow sign-in rate limit window in seconds.
	RateLimitWindow = 60
)

const (
	DefaultDayStart = "09:00"
	DefaultDayEnd   = "17:00"
)
