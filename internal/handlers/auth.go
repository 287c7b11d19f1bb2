package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/opin/internal/authgate"
	"github.com/nfrund/opin/internal/captcha"
	"github.com/nfrund/opin/internal/domain"
	"github.com/nfrund/opin/internal/errmsg"
	"github.com/nfrund/opin/internal/forms"
	"github.com/nfrund/opin/internal/middleware"
	"github.com/nfrund/opin/internal/view"
	"github.com/nfrund/opin/internal/view/dto/auth"
	"github.com/nfrund/opin/web/src/templates/pages"
)

// AuthService is the session API the auth pages drive.
type AuthService interface {
	middleware.StateResolver
	SignIn(c echo.Context, email, password, captchaToken string) (*domain.User, error)
	SignUp(c echo.Context, email, password, captchaToken string, meta domain.UserMetadata) (*domain.SignUpResult, error)
	SignOut(c echo.Context) error
	UpdatePassword(c echo.Context, password string) error
	VerifyOTP(c echo.Context, tokenHash string, otpType domain.OTPType) error
	RequestPasswordReset(c echo.Context, email, redirectTo, captchaToken string) error
	Watch(ctx context.Context, userID, browserID string) (<-chan domain.AuthEvent, error)
}

// AuthHandler handles authentication-related requests.
type AuthHandler struct {
	auth     AuthService
	verifier captcha.Verifier
	siteKey  string
	baseURL  string
}

// NewAuthHandler creates a new AuthHandler. An empty siteKey turns the
// challenge off.
func NewAuthHandler(auth AuthService, verifier captcha.Verifier, siteKey, baseURL string) *AuthHandler {
	return &AuthHandler{
		auth:     auth,
		verifier: captcha.ForSiteKey(verifier, siteKey),
		siteKey:  siteKey,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

func (h *AuthHandler) challenge() captcha.Challenge {
	return captcha.Challenge{Disabled: h.siteKey == ""}
}

// check verifies token against the challenge the posted form was rendered
// with.
func (h *AuthHandler) check(c echo.Context, token string) captcha.Challenge {
	ch := captcha.Submitted(c.FormValue(captcha.GenerationField), h.siteKey == "")
	return captcha.Check(c.Request().Context(), h.verifier, ch, token, c.RealIP())
}

func (h *AuthHandler) page(c echo.Context, title string) view.Page {
	return PageFor(c, title, h.siteKey)
}

func logger(c echo.Context) *slog.Logger {
	return middleware.FromContext(c.Request().Context())
}

// SignInGet renders the sign-in page.
func (h *AuthHandler) SignInGet(c echo.Context) error {
	data := auth.SignInData{
		FormData: auth.FormData{Captcha: h.challenge()},
		Next:     c.QueryParam("next"),
	}
	return c.Render(http.StatusOK, "", pages.SignIn(h.page(c, "Sign in"), data))
}

// LoginGet keeps the old login address working.
func (h *AuthHandler) LoginGet(c echo.Context) error {
	target := authgate.SignInPath
	if q := c.QueryString(); q != "" {
		target += "?" + q
	}
	return c.Redirect(http.StatusMovedPermanently, target)
}

// SignInPost handles the sign-in form. Every failed attempt resets the
// challenge.
func (h *AuthHandler) SignInPost(c echo.Context) error {
	var form forms.SignIn
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	data := auth.SignInData{Next: form.Next}
	data.Values = forms.Snapshot(form)
	data.Errors = forms.Validate(form)
	data.Captcha = h.check(c, form.Captcha)

	if len(data.Errors) == 0 && data.Captcha.CanSubmit() {
		_, err := h.auth.SignIn(c, form.Email, form.Password, form.Captcha)
		if err == nil {
			return c.Redirect(http.StatusSeeOther, authgate.SanitizeNext(form.Next))
		}
		logger(c).Warn("sign in failed", "error", err)
		data.Alert = errmsg.FromError(err)
	}
	data.Captcha = data.Captcha.Retry()
	return c.Render(http.StatusUnprocessableEntity, "", pages.SignIn(h.page(c, "Sign in"), data))
}

// SignUpGet renders the registration page.
func (h *AuthHandler) SignUpGet(c echo.Context) error {
	data := auth.SignUpData{FormData: auth.FormData{Captcha: h.challenge()}}
	return c.Render(http.StatusOK, "", pages.SignUp(h.page(c, "Sign up"), data))
}

// SignUpPost creates the account. Providers that confirm by email return
// no session, so the user is sent to the check-your-email page.
func (h *AuthHandler) SignUpPost(c echo.Context) error {
	var form forms.SignUp
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	var data auth.SignUpData
	data.Values = forms.Snapshot(form)
	data.Errors = forms.Validate(form)
	data.Captcha = h.check(c, form.Captcha)

	if len(data.Errors) == 0 && data.Captcha.CanSubmit() {
		meta := domain.UserMetadata{
			FirstName: strings.TrimSpace(form.FirstName),
			LastName:  strings.TrimSpace(form.LastName),
		}
		res, err := h.auth.SignUp(c, form.Email, form.Password, form.Captcha, meta)
		if err == nil {
			if res.Session != nil {
				view.SetFlashSuccess(c, "Welcome to Opin!")
				return c.Redirect(http.StatusSeeOther, authgate.DefaultNext)
			}
			return c.Redirect(http.StatusSeeOther, "/auth/sign-up-success")
		}
		logger(c).Warn("sign up failed", "error", err)
		data.Alert = errmsg.FromError(err)
	}
	data.Captcha = data.Captcha.Retry()
	return c.Render(http.StatusUnprocessableEntity, "", pages.SignUp(h.page(c, "Sign up"), data))
}

// SignUpSuccessGet asks the user to confirm their email.
func (h *AuthHandler) SignUpSuccessGet(c echo.Context) error {
	return c.Render(http.StatusOK, "", pages.SignUpSuccess(h.page(c, "Check your email")))
}

// ForgotPasswordGet renders the password reset request form.
func (h *AuthHandler) ForgotPasswordGet(c echo.Context) error {
	data := auth.ForgotPasswordData{
		FormData: auth.FormData{Captcha: h.challenge()},
		Next:     c.QueryParam("next"),
	}
	return c.Render(http.StatusOK, "", pages.ForgotPassword(h.page(c, "Forgot password"), data))
}

// ForgotPasswordPost mails a recovery link. The provider answers the same
// way for unknown addresses.
func (h *AuthHandler) ForgotPasswordPost(c echo.Context) error {
	var form forms.ForgotPassword
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	data := auth.ForgotPasswordData{Next: form.Next}
	data.Values = forms.Snapshot(form)
	data.Errors = forms.Validate(form)
	data.Captcha = h.check(c, form.Captcha)

	if len(data.Errors) == 0 && data.Captcha.CanSubmit() {
		redirectTo := authgate.WithNext(h.baseURL+authgate.UpdatePasswordPath, form.Next)
		err := h.auth.RequestPasswordReset(c, form.Email, redirectTo, form.Captcha)
		if err == nil {
			return c.Redirect(http.StatusSeeOther, "/auth/forgot-password-success")
		}
		logger(c).Warn("password reset request failed", "error", err)
		data.Alert = errmsg.FromError(err)
	}
	data.Captcha = data.Captcha.Retry()
	return c.Render(http.StatusUnprocessableEntity, "", pages.ForgotPassword(h.page(c, "Forgot password"), data))
}

// ForgotPasswordSuccessGet confirms the reset email was sent.
func (h *AuthHandler) ForgotPasswordSuccessGet(c echo.Context) error {
	return c.Render(http.StatusOK, "", pages.ForgotPasswordSuccess(h.page(c, "Check your email")))
}

// UpdatePasswordGet renders the recovery form. The route is protected: the
// confirm link has already opened a session.
func (h *AuthHandler) UpdatePasswordGet(c echo.Context) error {
	return h.renderSetPassword(c, http.StatusOK, h.setPasswordData(c, false))
}

// SetupPasswordGet renders the invite form.
func (h *AuthHandler) SetupPasswordGet(c echo.Context) error {
	return h.renderSetPassword(c, http.StatusOK, h.setPasswordData(c, true))
}

// UpdatePasswordPost saves a recovered password.
func (h *AuthHandler) UpdatePasswordPost(c echo.Context) error {
	return h.setPassword(c, false)
}

// SetupPasswordPost saves an invited user's first password.
func (h *AuthHandler) SetupPasswordPost(c echo.Context) error {
	return h.setPassword(c, true)
}

func (h *AuthHandler) setPasswordData(c echo.Context, setup bool) auth.SetPasswordData {
	return auth.SetPasswordData{
		FormData: auth.FormData{Captcha: h.challenge()},
		Next:     c.QueryParam("next"),
		Setup:    setup,
	}
}

func (h *AuthHandler) renderSetPassword(c echo.Context, status int, data auth.SetPasswordData) error {
	title := "Update password"
	if data.Setup {
		title = "Set up password"
	}
	return c.Render(status, "", pages.SetPassword(h.page(c, title), data))
}

func (h *AuthHandler) setPassword(c echo.Context, setup bool) error {
	var form forms.SetPassword
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	data := auth.SetPasswordData{Next: form.Next, Setup: setup}
	data.Errors = forms.Validate(form)
	data.Captcha = h.check(c, form.Captcha)

	if len(data.Errors) == 0 && data.Captcha.CanSubmit() {
		err := h.auth.UpdatePassword(c, form.Password)
		if err == nil {
			if setup {
				view.SetFlashSuccess(c, "Password set successfully! Welcome to Opin.")
			} else {
				view.SetFlashSuccess(c, "Your password has been updated.")
			}
			return c.Redirect(http.StatusSeeOther, authgate.SanitizeNext(form.Next))
		}
		logger(c).Warn("password update failed", "setup", setup, "error", err)
		data.Alert = errmsg.FromError(err)
	}
	data.Captcha = data.Captcha.Retry()
	return h.renderSetPassword(c, http.StatusUnprocessableEntity, data)
}

// Confirm redeems an emailed link and routes by link type: recovery links
// go to the password update page, invites to the password setup page and
// everything else to next.
func (h *AuthHandler) Confirm(c echo.Context) error {
	tokenHash := c.QueryParam("token_hash")
	otpType := domain.OTPType(c.QueryParam("type"))
	next := c.QueryParam("next")

	if tokenHash == "" || otpType == "" {
		return c.Redirect(http.StatusSeeOther, authgate.ErrorURL("No token hash or type"))
	}
	if !otpType.Valid() {
		return c.Redirect(http.StatusSeeOther, authgate.ErrorURL("Invalid or expired link"))
	}
	if err := h.auth.VerifyOTP(c, tokenHash, otpType); err != nil {
		logger(c).Warn("confirm link rejected", "type", otpType, "error", err)
		return c.Redirect(http.StatusSeeOther, authgate.ErrorURL(linkError(err)))
	}
	return c.Redirect(http.StatusSeeOther, authgate.ConfirmDestination(string(otpType), next))
}

func linkError(err error) string {
	var pe *domain.ProviderError
	switch {
	case errors.As(err, &pe) && pe.Message != "":
		return pe.Message
	case errors.Is(err, domain.ErrInvalidOTP):
		return err.Error()
	}
	return "Invalid or expired link"
}

// ErrorGet shows why an auth flow failed.
func (h *AuthHandler) ErrorGet(c echo.Context) error {
	data := auth.ErrorData{Message: c.QueryParam("error")}
	return c.Render(http.StatusOK, "", pages.AuthError(h.page(c, "Authentication error"), data))
}

// SignOut ends the session. The local session is dropped even when the
// provider call fails.
func (h *AuthHandler) SignOut(c echo.Context) error {
	if err := h.auth.SignOut(c); err != nil {
		logger(c).Warn("provider sign out failed", "error", err)
	}
	view.SetFlashSuccess(c, "You have been signed out.")
	if c.Request().Header.Get("HX-Request") == "true" {
		c.Response().Header().Set("HX-Redirect", authgate.SignInPath)
		return c.NoContent(http.StatusNoContent)
	}
	return c.Redirect(http.StatusSeeOther, authgate.SignInPath)
}
