package forms

// messages is keyed by "<form field>.<validation tag>".
var messages = map[string]string{
	"email.required":  "Email is required",
	"email.emailaddr": "Please enter a valid email address",

	"password.required":   "Password is required",
	"password.min":        "Password must be at least 8 characters long",
	"password.haslower":   "Password must contain at least one lowercase letter",
	"password.hasupper":   "Password must contain at least one uppercase letter",
	"password.hasdigit":   "Password must contain at least one number",
	"password.hasspecial": "Password must contain at least one special character",

	"new_password.required":   "New password is required",
	"new_password.min":        "Password must be at least 8 characters long",
	"new_password.haslower":   "Password must contain at least one lowercase letter",
	"new_password.hasupper":   "Password must contain at least one uppercase letter",
	"new_password.hasdigit":   "Password must contain at least one number",
	"new_password.hasspecial": "Password must contain at least one special character",

	"current_password.required": "Current password is required",

	"confirm_password.required": "Please confirm your password",
	"confirm_password.eqfield":  "Passwords do not match",

	"first_name.required": "First name is required",
	"first_name.min":      "First name must be at least 2 characters",
	"first_name.max":      "First name must be at most 50 characters",
	"last_name.required":  "Last name is required",
	"last_name.min":       "Last name must be at least 2 characters",
	"last_name.max":       "Last name must be at most 50 characters",
}
