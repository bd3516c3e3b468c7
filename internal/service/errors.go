package service

import "errors"

var (
	// ErrUnauthenticated means the request carries no valid session. Mutating
	// operations check this before touching the store.
	ErrUnauthenticated = errors.New("not signed in")

	// ErrForbidden means the actor is signed in but lacks the role.
	ErrForbidden = errors.New("operation not allowed for this role")

	// ErrInvalidSlot means the requested date/time is not one of the offered
	// slots (bad format, holiday, off-grid time, or non-operating weekday).
	ErrInvalidSlot = errors.New("not a bookable slot")

	// ErrInvalidCredentials covers both unknown email and wrong password so
	// sign-in failures do not leak which accounts exist.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrRateLimited means too many sign-in attempts for this email.
	ErrRateLimited = errors.New("too many attempts, try again later")

	// ErrWeakPassword rejects passwords below the minimum length.
	ErrWeakPassword = errors.New("password too short")

	// ErrInvalidEmail rejects unusable email addresses at sign-up.
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrInvalidRole rejects role values outside customer/employee/admin.
	ErrInvalidRole = errors.New("unknown role")
)
