// Package pages renders the content of each route inside its layout.
package pages

import (
	"github.com/nfrund/opin/internal/authgate"
	"github.com/nfrund/opin/internal/view"
	"github.com/nfrund/opin/internal/view/dto/auth"
	"github.com/nfrund/opin/web/src/templates/components"
	"github.com/nfrund/opin/web/src/templates/layouts"
	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

func challengeForm(action string, p view.Page, d auth.FormData, submit, loading string, fields ...g.Node) g.Node {
	return Form(
		Method("post"),
		Action(action),
		Class("space-y-4"),
		g.Attr("novalidate"),
		components.Alert(components.Error, d.Alert),
		components.Alert(components.Error, d.Errors.Get("")),
		g.Group(fields),
		components.Turnstile(p.SiteKey, d.Captcha),
		components.SubmitButton(submit, loading, d.Captcha.CanSubmit()),
	)
}

func footer(text, linkText, href string) g.Node {
	return P(
		Class("mt-6 text-center text-sm text-gray-500"),
		g.Text(text+" "),
		components.Link(href, linkText),
	)
}

func emailField(d auth.FormData) g.Node {
	return components.TextInput(components.InputProps{
		Name:         "email",
		Label:        "Email",
		Type:         "email",
		Value:        d.Values.Get("email"),
		Placeholder:  "you@example.com",
		AutoComplete: "email",
		Required:     true,
		Error:        d.Errors.Get("email"),
	})
}

// SignIn is the sign-in form. Next is carried through so the visitor lands
// where they were headed.
func SignIn(p view.Page, d auth.SignInData) g.Node {
	signUp, forgot := "/auth/sign-up", "/auth/forgot-password"
	if d.Next != "" {
		signUp = authgate.WithNext(signUp, d.Next)
		forgot = authgate.WithNext(forgot, d.Next)
	}
	return layouts.Auth(p, "Welcome back", "Sign in to your account",
		challengeForm(authgate.SignInPath, p, d.FormData, "Sign in", "Signing in...",
			components.Hidden("next", d.Next),
			emailField(d.FormData),
			components.PasswordInput(components.InputProps{
				Name:         "password",
				Label:        "Password",
				AutoComplete: "current-password",
				Required:     true,
				Error:        d.Errors.Get("password"),
			}),
			Div(
				Class("flex justify-end text-sm"),
				components.Link(forgot, "Forgot your password?"),
			),
		),
		footer("Don't have an account?", "Sign up", signUp),
	)
}

// SignUp is the registration form.
func SignUp(p view.Page, d auth.SignUpData) g.Node {
	return layouts.Auth(p, "Create an account", "Start collecting feedback in minutes",
		challengeForm("/auth/sign-up", p, d.FormData, "Create account", "Creating account...",
			Div(
				Class("grid grid-cols-2 gap-4"),
				components.TextInput(components.InputProps{
					Name:         "first_name",
					Label:        "First name",
					Value:        d.Values.Get("first_name"),
					AutoComplete: "given-name",
					Error:        d.Errors.Get("first_name"),
				}),
				components.TextInput(components.InputProps{
					Name:         "last_name",
					Label:        "Last name",
					Value:        d.Values.Get("last_name"),
					AutoComplete: "family-name",
					Error:        d.Errors.Get("last_name"),
				}),
			),
			emailField(d.FormData),
			components.PasswordInput(components.InputProps{
				Name:         "password",
				Label:        "Password",
				AutoComplete: "new-password",
				Required:     true,
				Hint:         "At least 8 characters with upper and lower case letters, a number and a special character.",
				Error:        d.Errors.Get("password"),
			}),
			components.PasswordInput(components.InputProps{
				Name:         "confirm_password",
				Label:        "Confirm password",
				AutoComplete: "new-password",
				Required:     true,
				Error:        d.Errors.Get("confirm_password"),
			}),
		),
		footer("Already have an account?", "Sign in", authgate.SignInPath),
	)
}

// SignUpSuccess asks the new user to confirm their email.
func SignUpSuccess(p view.Page) g.Node {
	return layouts.Auth(p, "Thank you for signing up!", "Check your email to confirm",
		components.Alert(components.Info, "You've successfully signed up. Please check your email to confirm your account before signing in."),
		footer("Already confirmed?", "Sign in", authgate.SignInPath),
	)
}

// ForgotPassword requests a recovery link.
func ForgotPassword(p view.Page, d auth.ForgotPasswordData) g.Node {
	return layouts.Auth(p, "Reset your password", "We'll email you a link to choose a new one",
		challengeForm("/auth/forgot-password", p, d.FormData, "Send reset email", "Sending...",
			components.Hidden("next", d.Next),
			emailField(d.FormData),
		),
		footer("Remembered it?", "Back to sign in", authgate.SignInPath),
	)
}

// ForgotPasswordSuccess is shown whether or not the address has an account.
func ForgotPasswordSuccess(p view.Page) g.Node {
	return layouts.Auth(p, "Check your email", "Password reset instructions sent",
		components.Alert(components.Info, "If you registered using your email and password, you will receive a password reset email."),
		footer("", "Back to sign in", authgate.SignInPath),
	)
}

// SetPassword serves both the recovery and the invite flow.
func SetPassword(p view.Page, d auth.SetPasswordData) g.Node {
	heading, sub, action := "Reset your password", "Please enter your new password below", authgate.UpdatePasswordPath
	if d.Setup {
		heading, sub, action = "Set up your password", "Choose a password to finish creating your account", authgate.SetupPasswordPath
	}
	return layouts.Auth(p, heading, sub,
		challengeForm(action, p, d.FormData, "Save new password", "Saving...",
			components.Hidden("next", d.Next),
			components.PasswordInput(components.InputProps{
				Name:         "password",
				Label:        "New password",
				AutoComplete: "new-password",
				Required:     true,
				Error:        d.Errors.Get("password"),
			}),
			components.PasswordInput(components.InputProps{
				Name:         "confirm_password",
				Label:        "Confirm password",
				AutoComplete: "new-password",
				Required:     true,
				Error:        d.Errors.Get("confirm_password"),
			}),
		),
	)
}

// AuthError explains a failed confirm link or provider error.
func AuthError(p view.Page, d auth.ErrorData) g.Node {
	return layouts.Auth(p, "Something went wrong", "There was an issue with your authentication.",
		components.Alert(components.Error, d.Message),
		P(Class("mt-4 text-sm text-gray-500"), g.Text("This could be due to:")),
		Ul(
			Class("mt-2 list-disc space-y-1 pl-5 text-sm text-gray-500"),
			g.Map(errorReasons, func(r string) g.Node { return Li(g.Text(r)) }),
		),
		Div(
			Class("mt-6"),
			components.ButtonLink("/", components.Primary, g.Text("Return to Home")),
		),
	)
}

var errorReasons = []string{
	"Invalid or expired confirmation link",
	"Email confirmation already completed",
	"Network connectivity issues",
	"Invalid or expired password reset link",
}
