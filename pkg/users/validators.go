package users

// RegisterPayload is the sign up form.
type RegisterPayload struct {
	Login           string `json:"login" form:"login" mod:"trim" validate:"required,min=3,max=50"`
	Password        string `json:"password" form:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" form:"password_confirm" validate:"eqfield=Password"`
}
