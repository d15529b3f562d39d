package models

import (
	"time"
)

// RoleUser is the role granted to every registered account
const RoleUser = "ROLE_USER"

// User represents a registered account with a spendable balance
type User struct {
	ID             int64      `db:"id"`
	Username       string     `db:"username"`
	Email          string     `db:"email"`
	PasswordHash   string     `db:"password_hash"`
	Balance        int64      `db:"balance"`
	FailedAttempts int        `db:"failed_attempts"`
	AccountLocked  bool       `db:"account_locked"`
	LockTime       *time.Time `db:"lock_time"`
	Roles          []string   `db:"roles"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

// Profile is the public view of a user
type Profile struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Balance  int64  `json:"balance"`
}

// TokenPair is issued on login and on refresh
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
