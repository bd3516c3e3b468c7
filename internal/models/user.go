package models

import "time"

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"` // customer, employee, admin
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CanManage reports whether the user may act on appointments they do not own.
func (u *User) CanManage() bool {
	return u.Role == RoleEmployee || u.Role == RoleAdmin
}
