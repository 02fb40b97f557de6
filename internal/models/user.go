package models

import "time"

// Role is a coarse user role.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is a provisioned account.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Actor returns the resolved identity the core authorizes against.
func (u *User) Actor() Actor {
	if u == nil {
		return Actor{}
	}
	return Actor{ID: u.ID, Name: u.Name, Role: u.Role, Active: u.IsActive}
}

// Actor is an already-authenticated caller.
type Actor struct {
	ID     int64
	Name   string
	Role   Role
	Active bool
}

// IsAdmin reports whether the actor bypasses share capability checks.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
