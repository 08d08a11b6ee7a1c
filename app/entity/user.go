package entity

import (
	"database/sql"
	"time"
)

// User is a registered account. RefreshToken holds the single outstanding
// refresh token for the account; issuing a new one always overwrites it.
type User struct {
	ID           uint64
	Username     string
	Email        string
	PasswordHash string
	IsConfirmed  bool
	RefreshToken sql.NullString
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
