package model

import "time"

// User is an operator login bound to exactly one account.  The account
// id is embedded in issued access tokens and becomes the tenant of every
// request the user makes.
//
// Fields:
//
//	ID           – primary key identifier.
//	AccountID    – tenant the user operates on.
//	Email        – unique login.
//	PasswordHash – bcrypt hash.
//	Role         – ADMIN or STAFF.
//	IsActive     – disabled users cannot log in.
//	CreatedAt    – creation timestamp.
//	UpdatedAt    – last update timestamp.
type User struct {
	ID           uint64    // users.id
	AccountID    uint64    // users.account_id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

const (
	RoleAdmin = "ADMIN"
	RoleStaff = "STAFF"
)
