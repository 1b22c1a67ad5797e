package models

import (
	"time"
)

// User is an account known to the authentication system
type User struct {
	ID        int64     `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	Email     string    `db:"email" json:"email"`
	IsManager bool      `db:"is_manager" json:"is_manager"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Principal is the authenticated caller of an operation
type Principal struct {
	UserID    int64
	Username  string
	IsManager bool
}

// CanAccess reports whether the principal may read or change analyses owned by ownerID
func (p Principal) CanAccess(ownerID int64) bool {
	return p.IsManager || p.UserID == ownerID
}

// Scope returns the owner filter for listing analyses; nil means all owners
func (p Principal) Scope() *int64 {
	if p.IsManager {
		return nil
	}
	id := p.UserID
	return &id
}
