package dto

import "time"

// ContactInput carries the caller-editable contact fields for create and
// update operations.
type ContactInput struct {
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
	Birthday    time.Time
	OtherInfo   *string
}
