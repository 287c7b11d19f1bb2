package forms

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPasswordRules(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     string
		// wantConfirm is set when the copied confirmation fails as well.
		wantConfirm string
	}{
		{"empty", "", "Password is required", "Please confirm your password"},
		{"too short", "Ab1!", "Password must be at least 8 characters long", ""},
		{"no lowercase", "ABCDEFG1!", "Password must contain at least one lowercase letter", ""},
		{"no uppercase", "abcdefg1!", "Password must contain at least one uppercase letter", ""},
		{"no digit", "Abcdefgh!", "Password must contain at least one number", ""},
		{"no special", "Abcdefg12", "Password must contain at least one special character", ""},
		{"valid", "Abcdefg1!", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate(&SetPassword{Password: tt.password, ConfirmPassword: tt.password})
			assert.Equal(t, tt.want, errs.Get("password"))
			assert.Equal(t, tt.wantConfirm, errs.Get("confirm_password"))
			switch {
			case tt.want == "":
				assert.Nil(t, errs)
			case tt.wantConfirm == "":
				assert.Len(t, errs, 1, "only the password field should fail")
			default:
				assert.Len(t, errs, 2)
			}
		})
	}
}

func TestConfirmPassword(t *testing.T) {
	errs := Validate(&SetPassword{Password: "Abcdefg1!", ConfirmPassword: "Abcdefg1?"})
	assert.Equal(t, "Passwords do not match", errs.Get("confirm_password"))

	errs = Validate(&SetPassword{Password: "Abcdefg1!"})
	assert.Equal(t, "Please confirm your password", errs.Get("confirm_password"))
}

func TestPerFormMessages(t *testing.T) {
	errs := Validate(&ChangePassword{CurrentPassword: "old", NewPassword: "Abcdefg1!"})
	assert.Equal(t, "Please confirm your new password", errs.Get("confirm_password"))
	assert.False(t, errs.Has("current_password"))

	errs = Validate(&ChangePassword{NewPassword: "short", ConfirmPassword: "short"})
	assert.Equal(t, "Current password is required", errs.Get("current_password"))
	assert.Equal(t, "Password must be at least 8 characters long", errs.Get("new_password"))
}

func TestEmail(t *testing.T) {
	assert.Equal(t, "Email is required", Validate(&ForgotPassword{}).Get("email"))
	assert.Equal(t, "Please enter a valid email address", Validate(&ForgotPassword{Email: "ada@example"}).Get("email"))
	assert.Equal(t, "Please enter a valid email address", Validate(&ForgotPassword{Email: "ada lovelace@example.com"}).Get("email"))
	assert.Nil(t, Validate(&ForgotPassword{Email: "ada@example.com"}))
}

func TestProfile(t *testing.T) {
	errs := Validate(&Profile{FirstName: "A"})
	assert.Equal(t, "First name must be at least 2 characters", errs.Get("first_name"))
	assert.Equal(t, "Last name is required", errs.Get("last_name"))
}

func TestMessagesWithForeignError(t *testing.T) {
	errs := Messages(errors.New("boom"), &Profile{})
	assert.True(t, errs.Has(""))
}

func TestEchoValidator(t *testing.T) {
	err := EchoValidator{}.Validate(&SignIn{Email: "ada@example.com"})
	errs := Messages(err, &SignIn{})
	assert.Equal(t, "Password is required", errs.Get("password"))
}

func TestSnapshot(t *testing.T) {
	values := Snapshot(&SignUp{
		FirstName:       "Ada",
		Email:           "ada@example.com",
		Password:        "Secret1!",
		ConfirmPassword: "Secret1!",
		Captcha:         "tok",
	})
	assert.Equal(t, "Ada", values.Get("first_name"))
	assert.Equal(t, "ada@example.com", values.Get("email"))
	assert.Empty(t, values.Get("password"))
	assert.Empty(t, values.Get("confirm_password"))
	assert.Empty(t, values.Get("cf-turnstile-response"))
}
