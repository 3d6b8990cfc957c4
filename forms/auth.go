package forms

import "strings"

// RegisterForm is the sign-up form.
type RegisterForm struct {
	Name            string `form:"name" validate:"required"`
	Email           string `form:"email" validate:"required,email"`
	Password        string `form:"password" validate:"required,min=6"`
	ConfirmPassword string `form:"confirmPassword" validate:"eqfield=Password"`
}

// Validate trims the name and email in place and checks every field. The
// returned error is a FieldErrors when input was rejected.
func (f *RegisterForm) Validate() error {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	return check(f)
}

// LoginForm is the sign-in form.
type LoginForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required,min=6"`
}

func (f *LoginForm) Validate() error {
	f.Email = strings.TrimSpace(f.Email)
	return check(f)
}
