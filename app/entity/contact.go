package entity

import (
	"database/sql"
	"time"
)

type Contact struct {
	ID          uint64
	UserID      uint64
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
	Birthday    time.Time
	OtherInfo   sql.NullString
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
