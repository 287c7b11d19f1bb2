package domain

import "time"

// AuthEventType mirrors the auth-state-change notifications of the provider.
type AuthEventType string

const (
	EventInitialSession   AuthEventType = "INITIAL_SESSION"
	EventSignedIn         AuthEventType = "SIGNED_IN"
	EventSignedOut        AuthEventType = "SIGNED_OUT"
	EventTokenRefreshed   AuthEventType = "TOKEN_REFRESHED"
	EventUserUpdated      AuthEventType = "USER_UPDATED"
	EventPasswordRecovery AuthEventType = "PASSWORD_RECOVERY"
)

// AuthEvent is published whenever a user's session changes.
type AuthEvent struct {
	Type       AuthEventType `json:"type"`
	UserID     string        `json:"user_id"`
	BrowserID  string        `json:"browser_id,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// SignedIn reports whether the event leaves the user with a live session.
func (e AuthEvent) SignedIn() bool {
	return e.Type != EventSignedOut
}
