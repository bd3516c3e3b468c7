package models

import "time"

// Session is the server-side record behind an opaque bearer token.
type Session struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// Actor is the authenticated identity driving a request.
type Actor struct {
	ID    int64
	Email string
	Name  string
	Role  string
}

func (a Actor) CanManage() bool {
	return a.Role == RoleEmployee || a.Role == RoleAdmin
}

func (s *Session) Actor() Actor {
	return Actor{ID: s.UserID, Email: s.Email, Name: s.Name, Role: s.Role}
}
