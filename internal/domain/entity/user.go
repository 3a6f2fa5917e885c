package entity

import "time"

// Privilege is an actor's authority level
type Privilege string

const (
	PrivilegeAdministrator Privilege = "administrador"
	PrivilegeElevated      Privilege = "superior"
	PrivilegeStandard      Privilege = "comum"
)

// IsValid returns true if the privilege is known
func (p Privilege) IsValid() bool {
	switch p {
	case PrivilegeAdministrator, PrivilegeElevated, PrivilegeStandard:
		return true
	default:
		return false
	}
}

// Actor is the identity performing an operation, supplied by the caller
type Actor struct {
	UserID    int64     `json:"user_id"`
	Privilege Privilege `json:"privilege"`
	Sector    string    `json:"sector,omitempty"`
}

// CanOverride reports whether the actor may bypass the stage sequence
func (a Actor) CanOverride() bool {
	return a.Privilege == PrivilegeAdministrator
}

// CanMove reports whether the actor may move fichas between stages at all
func (a Actor) CanMove() bool {
	return a.Privilege == PrivilegeAdministrator || a.Privilege == PrivilegeElevated
}

// User is a notification recipient
type User struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Privilege  Privilege `json:"privilege"`
	Sector     string    `json:"sector,omitempty"`
	LarkOpenID string    `json:"lark_open_id,omitempty"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
}
