package http

type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ContactRequest is shared by create and update. Birthday uses the
// YYYY-MM-DD wire format.
type ContactRequest struct {
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	Email       string  `json:"email"`
	PhoneNumber string  `json:"phone_number"`
	Birthday    string  `json:"birthday"`
	OtherInfo   *string `json:"other_info,omitempty"`
}
