package forms

// SignIn is posted by /auth/sign-in and /auth/login.
type SignIn struct {
	Email    string `form:"email" validate:"required,emailaddr"`
	Password string `form:"password" validate:"required"`
	Next     string `form:"next"`
	Captcha  string `form:"cf-turnstile-response"`
}

// SignUp is posted by /auth/sign-up.
type SignUp struct {
	FirstName       string `form:"first_name" validate:"omitempty,max=50"`
	LastName        string `form:"last_name" validate:"omitempty,max=50"`
	Email           string `form:"email" validate:"required,emailaddr"`
	Password        string `form:"password" validate:"required,min=8,haslower,hasupper,hasdigit,hasspecial"`
	ConfirmPassword string `form:"confirm_password" validate:"required,eqfield=Password"`
	Captcha         string `form:"cf-turnstile-response"`
}

// ForgotPassword is posted by /auth/forgot-password.
type ForgotPassword struct {
	Email   string `form:"email" validate:"required,emailaddr"`
	Next    string `form:"next"`
	Captcha string `form:"cf-turnstile-response"`
}

// SetPassword is posted by /auth/update-password and /auth/setup-password.
type SetPassword struct {
	Password        string `form:"password" validate:"required,min=8,haslower,hasupper,hasdigit,hasspecial"`
	ConfirmPassword string `form:"confirm_password" validate:"required,eqfield=Password"`
	Next            string `form:"next"`
	Captcha         string `form:"cf-turnstile-response"`
}

// ChangePassword is posted by /settings. The current password is checked
// by signing in again.
type ChangePassword struct {
	CurrentPassword string `form:"current_password" validate:"required"`
	NewPassword     string `form:"new_password" validate:"required,min=8,haslower,hasupper,hasdigit,hasspecial"`
	ConfirmPassword string `form:"confirm_password" validate:"required,eqfield=NewPassword"`
	Captcha         string `form:"cf-turnstile-response"`
}

// FieldMessages implements messageOverrider.
func (ChangePassword) FieldMessages() map[string]string {
	return map[string]string{
		"confirm_password.required": "Please confirm your new password",
	}
}

// Profile is posted by /profile.
type Profile struct {
	FirstName string `form:"first_name" validate:"required,min=2,max=50"`
	LastName  string `form:"last_name" validate:"required,min=2,max=50"`
}
