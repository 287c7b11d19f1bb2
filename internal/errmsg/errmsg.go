// Package errmsg turns provider and validation errors into copy that can be
// shown to users.
package errmsg

import "strings"

const (
	// Generic is returned when no rule matches.
	Generic = "Something went wrong. Please try again."
	// Unexpected is used for failures the user cannot act on.
	Unexpected = "Something went wrong. Please try again or contact support if the problem persists."
	// Network is used when the provider could not be reached.
	Network = "Network error. Please check your connection and try again."
)

type rule struct {
	needles []string
	message string
}

// Rules are checked in order; the first match wins.
var rules = []rule{
	{[]string{"invalid login credentials", "invalid email or password"}, "Invalid email or password. Please check your credentials and try again."},
	{[]string{"user already registered", "email address already registered"}, "This email address is already registered. Please sign in instead."},
	{[]string{"password should be at least", "password is too weak"}, "Password must be at least 8 characters long for security."},
	{[]string{"invalid email"}, "Please enter a valid email address."},
	{[]string{"email not confirmed"}, "Please check your email and click the confirmation link before signing in."},
	{[]string{"too many requests", "rate limit"}, "Too many attempts. Please wait a moment before trying again."},
	{[]string{"network", "connection"}, Network},
	{[]string{"captcha expired"}, "The security check has expired. Please complete it again."},
	{[]string{"captcha", "verification failed"}, "Security verification failed. Please complete the check again."},
	{[]string{"file too large", "size limit"}, "File is too large. Please choose a smaller image (max 5MB)."},
	{[]string{"invalid file type", "unsupported format"}, "Please upload a JPEG or PNG image file."},
	{[]string{"unexpected error", "internal server error"}, Unexpected},
	{[]string{"permission denied", "unauthorized"}, "You don't have permission to perform this action."},
	{[]string{"not found", "does not exist"}, "The requested item could not be found."},
}

// Friendly maps a raw error message to user-facing copy by case-insensitive
// substring match.
func Friendly(raw string) string {
	lower := strings.ToLower(raw)
	for _, r := range rules {
		for _, n := range r.needles {
			if strings.Contains(lower, n) {
				return r.message
			}
		}
	}
	return Generic
}

// FromError is Friendly for an error value. A nil error yields an empty string.
func FromError(err error) string {
	if err == nil {
		return ""
	}
	return Friendly(err.Error())
}

var fieldHints = map[string]string{
	"email":            "Please enter a valid email address.",
	"password":         "Please enter your password.",
	"first_name":       "Please enter your first name.",
	"last_name":        "Please enter your last name.",
	"confirm_password": "Please confirm your password.",
}

// FieldHint is the fallback prompt for a form field without a specific message.
func FieldHint(field string) string {
	if hint, ok := fieldHints[field]; ok {
		return hint
	}
	return "Please check the " + field + " field."
}
