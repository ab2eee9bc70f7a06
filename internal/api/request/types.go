package request

// SignupRequest registers a user account
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Pseudo   string `json:"pseudo"`
}

// LoginRequest authenticates a registered user
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GuestRequest creates an anonymous user
type GuestRequest struct {
	Pseudo string `json:"pseudo"`
}
