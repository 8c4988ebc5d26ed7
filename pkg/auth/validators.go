package auth

// LoginPayload represents the login request body, as JSON or as the login form.
type LoginPayload struct {
	Login    string `json:"login" form:"login" mod:"trim" validate:"required,min=3,max=50"`
	Password string `json:"password" form:"password" validate:"required,min=8"`
	Next     string `json:"-" form:"next"`
}

// MeResponse represents the current user response.
type MeResponse struct {
	ID     int     `json:"id"`
	Login  string  `json:"login"`
	Avatar *string `json:"avatar,omitempty"`
}
