// Package authgate decides whether a page renders or redirects based on the
// visitor's session state.
package authgate

import (
	"net/url"
	"strings"
)

// State is the session state of the visitor.
type State int

const (
	// Loading means the session query has not resolved yet.
	Loading State = iota
	Authenticated
	Unauthenticated
)

func (s State) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "loading"
	}
}

// Kind is the guard attached to a page.
type Kind int

const (
	// Protected pages require a session.
	Protected Kind = iota + 1
	// GuestOnly pages (sign in, sign up, ...) are skipped by signed-in users.
	GuestOnly
)

func (k Kind) String() string {
	switch k {
	case Protected:
		return "protected"
	case GuestOnly:
		return "guest"
	default:
		return "public"
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "protected":
		return Protected, true
	case "guest":
		return GuestOnly, true
	}
	return 0, false
}

// Route paths shared by handlers, guards and emails.
const (
	DefaultNext        = "/dashboard"
	SignInPath         = "/auth/sign-in"
	ConfirmPath        = "/auth/confirm"
	ErrorPath          = "/auth/error"
	UpdatePasswordPath = "/auth/update-password"
	SetupPasswordPath  = "/auth/setup-password"
)

// Action is what the page should do.
type Action int

const (
	// ShowLoading renders a placeholder and makes no redirect decision.
	ShowLoading Action = iota
	Render
	Redirect
)

// Decision is the outcome of Decide.
type Decision struct {
	Action   Action
	Location string
}

// Decide applies the guard rules. requestedPath is the path (with query) the
// visitor asked for and next is the raw "next" parameter, if any.
func Decide(kind Kind, state State, requestedPath, next string) Decision {
	if state == Loading {
		return Decision{Action: ShowLoading}
	}
	switch {
	case kind == Protected && state == Unauthenticated:
		return Decision{Action: Redirect, Location: SignInURL(requestedPath)}
	case kind == GuestOnly && state == Authenticated:
		return Decision{Action: Redirect, Location: SanitizeNext(next)}
	}
	return Decision{Action: Render}
}

// SanitizeNext returns next when it is a same-site absolute path and the
// default landing page otherwise.
func SanitizeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, `/\`) {
		return DefaultNext
	}
	if strings.ContainsAny(next, "\r\n") {
		return DefaultNext
	}
	return next
}

// escapeNext query-escapes a path but keeps its slashes readable.
func escapeNext(path string) string {
	return strings.ReplaceAll(url.QueryEscape(path), "%2F", "/")
}

// WithNext appends a sanitized next parameter to base.
func WithNext(base, next string) string {
	return base + "?next=" + escapeNext(SanitizeNext(next))
}

// SignInURL is the sign-in page that returns to requestedPath afterwards.
func SignInURL(requestedPath string) string {
	if requestedPath == "" || SanitizeNext(requestedPath) != requestedPath {
		return SignInPath
	}
	return SignInPath + "?next=" + escapeNext(requestedPath)
}

// ErrorURL is the auth error page showing message.
func ErrorURL(message string) string {
	return ErrorPath + "?error=" + url.QueryEscape(message)
}

// ConfirmURL builds the emailed link that lands on the confirm route.
func ConfirmURL(baseURL, tokenHash, otpType, next string) string {
	q := url.Values{}
	q.Set("token_hash", tokenHash)
	q.Set("type", otpType)
	if next != "" {
		q.Set("next", next)
	}
	return strings.TrimRight(baseURL, "/") + ConfirmPath + "?" + q.Encode()
}

// ConfirmDestination is where a successfully verified link of otpType goes.
func ConfirmDestination(otpType, next string) string {
	next = SanitizeNext(next)
	switch otpType {
	case "recovery":
		return UpdatePasswordPath + "?next=" + escapeNext(next)
	case "invite":
		return SetupPasswordPath + "?next=" + escapeNext(next)
	default:
		return next
	}
}
