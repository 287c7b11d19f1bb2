package auth

import (
	"github.com/nfrund/opin/internal/captcha"
	"github.com/nfrund/opin/internal/forms"
)

// FormData is the state shared by every challenge-gated auth form: the
// values to re-render, field errors, the challenge and a provider error.
type FormData struct {
	Values  forms.Values
	Errors  forms.Errors
	Captcha captcha.Challenge
	// Alert is a friendly provider error shown above the form.
	Alert string
}

// SignInData is a View Model (DTO) used specifically for the sign-in page.
type SignInData struct {
	FormData
	Next string
}

// SignUpData is used to transfer data (like the pre-filled email) to the sign-up page.
type SignUpData struct {
	FormData
}

// ForgotPasswordData is used to transfer data (like a pre-filled email) to the forgot password page.
type ForgotPasswordData struct {
	FormData
	// Next is where the recovery link lands after the new password is saved.
	Next string
}

// SetPasswordData backs the update-password and setup-password pages.
type SetPasswordData struct {
	FormData
	Next string
	// Setup is true for invited users choosing their first password.
	Setup bool
}

// ErrorData is shown by /auth/error.
type ErrorData struct {
	Message string
}
