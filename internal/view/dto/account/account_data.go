package account

import (
	"github.com/nfrund/opin/internal/captcha"
	"github.com/nfrund/opin/internal/forms"
)

// ProfileData backs the profile page: the name form and the avatar.
type ProfileData struct {
	Values    forms.Values
	Errors    forms.Errors
	AvatarURL string
	Initials  string
	Email     string
	// AvatarError is shown under the avatar picker.
	AvatarError string
}

// SettingsData backs the password change form on the settings page.
type SettingsData struct {
	Errors  forms.Errors
	Captcha captcha.Challenge
	Alert   string
}
