// Package captcha holds the state of the anti-automation challenge on a form
// and verifies challenge tokens.
package captcha

import "strconv"

// User-facing challenge messages.
const (
	MessageMissing = "Please complete the security check to continue."
	MessageFailed  = "Security verification failed. Please complete the check again."
	MessageExpired = "The security check has expired. Please complete it again."
)

// FieldName is the form field the Turnstile widget fills in.
const FieldName = "cf-turnstile-response"

// GenerationField carries the generation of the rendered widget through a
// form post.
const GenerationField = "captcha_generation"

// Challenge is the challenge state of one form render. Generation changes
// whenever the widget must be rendered afresh.
type Challenge struct {
	Token      string
	Error      string
	Generation int
	// Disabled turns the challenge off, for deployments without a site key.
	Disabled bool
}

// Submitted restores the challenge a form was rendered with from the posted
// generation. A missing or malformed value starts at zero.
func Submitted(generation string, disabled bool) Challenge {
	n, err := strconv.Atoi(generation)
	if err != nil || n < 0 {
		n = 0
	}
	return Challenge{Generation: n, Disabled: disabled}
}

// Verify stores a solved token and clears any earlier error.
func (ch *Challenge) Verify(token string) {
	ch.Token = token
	ch.Error = ""
}

// Fail records a widget or verification failure.
func (ch *Challenge) Fail() {
	ch.Token = ""
	ch.Error = MessageFailed
}

// Expire records an expired token.
func (ch *Challenge) Expire() {
	ch.Token = ""
	ch.Error = MessageExpired
}

// Require records a submission made without a token.
func (ch *Challenge) Require() {
	ch.Token = ""
	ch.Error = MessageMissing
}

// Reset forces a fresh widget. Every failed submission resets the challenge
// so a rejected attempt cannot be retried with the same token.
func (ch *Challenge) Reset() {
	ch.Token = ""
	ch.Error = ""
	ch.Generation++
}

// CanSubmit reports whether the form may be submitted.
func (ch *Challenge) CanSubmit() bool {
	if ch.Disabled {
		return true
	}
	return ch.Token != "" && ch.Error == ""
}

// Retry prepares the challenge for another attempt after a failed
// submission: a fresh widget and no token. A challenge error stays on screen.
func (ch Challenge) Retry() Challenge {
	msg := ch.Error
	ch.Reset()
	ch.Error = msg
	return ch
}
