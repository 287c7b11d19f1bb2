package account

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/opin/internal/authclient"
	"github.com/nfrund/opin/internal/avatar"
	"github.com/nfrund/opin/internal/captcha"
	"github.com/nfrund/opin/internal/domain"
	"github.com/nfrund/opin/internal/errmsg"
	"github.com/nfrund/opin/internal/forms"
	"github.com/nfrund/opin/internal/handlers"
	"github.com/nfrund/opin/internal/middleware"
	"github.com/nfrund/opin/internal/view"
	"github.com/nfrund/opin/internal/view/dto/account"
	"github.com/nfrund/opin/web/src/templates/pages"
)

// Service is the part of the session API the account pages use.
type Service interface {
	VerifyPassword(c echo.Context, password, captchaToken string) error
	UpdatePassword(c echo.Context, password string) error
	UpdateProfile(c echo.Context, meta domain.UserMetadata) (*domain.User, error)
	AccessToken(c echo.Context) (string, error)
}

// Handler serves the profile and settings pages.
type Handler struct {
	auth     Service
	avatars  *avatar.Service
	verifier captcha.Verifier
	siteKey  string
}

// NewHandler creates a new Handler. With a nil avatar service uploads are
// rejected.
func NewHandler(auth Service, avatars *avatar.Service, verifier captcha.Verifier, siteKey string) *Handler {
	return &Handler{auth: auth, avatars: avatars, verifier: verifier, siteKey: siteKey}
}

func (h *Handler) page(c echo.Context, title string) view.Page {
	return handlers.PageFor(c, title, h.siteKey)
}

func (h *Handler) challenge() captcha.Challenge {
	return captcha.Challenge{Disabled: h.siteKey == ""}
}

// storageContext carries the user's token for stores that authorize uploads
// as the user.
func (h *Handler) storageContext(c echo.Context) context.Context {
	ctx := c.Request().Context()
	if token, err := h.auth.AccessToken(c); err == nil {
		ctx = authclient.WithAccessToken(ctx, token)
	}
	return ctx
}

func currentUser(c echo.Context) (*domain.User, error) {
	user := middleware.UserFromContext(c)
	if user == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return user, nil
}

func profileData(user *domain.User) account.ProfileData {
	return account.ProfileData{
		Values: forms.Values{
			"first_name": user.Metadata.FirstName,
			"last_name":  user.Metadata.LastName,
		},
		AvatarURL: user.Metadata.AvatarURL,
		Initials:  avatar.InitialsFor(user),
		Email:     user.Email,
	}
}

// ProfileGet renders the profile page.
func (h *Handler) ProfileGet(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "", pages.Profile(h.page(c, "Profile"), profileData(user)))
}

// ProfilePost saves the first and last name.
func (h *Handler) ProfilePost(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var form forms.Profile
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	form.FirstName = strings.TrimSpace(form.FirstName)
	form.LastName = strings.TrimSpace(form.LastName)

	data := profileData(user)
	data.Values = forms.Snapshot(form)
	if data.Errors = forms.Validate(form); len(data.Errors) > 0 {
		return c.Render(http.StatusUnprocessableEntity, "", pages.Profile(h.page(c, "Profile"), data))
	}

	meta := user.Metadata
	meta.FirstName, meta.LastName = form.FirstName, form.LastName
	if _, err := h.auth.UpdateProfile(c, meta); err != nil {
		middleware.FromContext(c.Request().Context()).Warn("profile update failed", "user_id", user.ID, "error", err)
		data.Errors = forms.Errors{"": errmsg.FromError(err)}
		return c.Render(http.StatusUnprocessableEntity, "", pages.Profile(h.page(c, "Profile"), data))
	}
	view.SetFlashSuccess(c, "Profile updated successfully!")
	return c.Redirect(http.StatusSeeOther, "/profile")
}

// AvatarPost replaces the avatar. The previous file is removed once the new
// one is stored; a failed removal does not fail the upload.
func (h *Handler) AvatarPost(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	log := middleware.FromContext(c.Request().Context()).With("user_id", user.ID)
	fail := func(msg string) error {
		data := profileData(user)
		data.AvatarError = msg
		return c.Render(http.StatusUnprocessableEntity, "", pages.Profile(h.page(c, "Profile"), data))
	}
	if h.avatars == nil {
		return fail("Avatar uploads are not available.")
	}

	fh, err := c.FormFile("avatar")
	if err != nil {
		return fail("Please choose an image to upload.")
	}
	f, err := fh.Open()
	if err != nil {
		log.Error("open uploaded avatar", "error", err)
		return fail(errmsg.Unexpected)
	}
	defer f.Close()

	ctx := h.storageContext(c)
	url, err := h.avatars.Upload(ctx, user.ID, avatar.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Size:        fh.Size,
		Body:        f,
	})
	if err != nil {
		log.Warn("avatar upload failed", "error", err)
		return fail(avatar.Message(err))
	}

	previous := user.Metadata.AvatarURL
	meta := user.Metadata
	meta.AvatarURL = url
	if _, err := h.auth.UpdateProfile(c, meta); err != nil {
		log.Warn("saving avatar url failed", "error", err)
		if derr := h.avatars.Delete(ctx, user.ID, url); derr != nil {
			log.Warn("removing orphaned avatar failed", "error", derr)
		}
		return fail(errmsg.FromError(err))
	}
	if previous != "" {
		if err := h.avatars.Delete(ctx, user.ID, previous); err != nil {
			log.Warn("removing previous avatar failed", "error", err)
		}
	}
	view.SetFlashSuccess(c, "Avatar updated successfully!")
	return c.Redirect(http.StatusSeeOther, "/profile")
}

// AvatarDeletePost removes the avatar and falls back to the initials.
func (h *Handler) AvatarDeletePost(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	log := middleware.FromContext(c.Request().Context()).With("user_id", user.ID)
	if url := user.Metadata.AvatarURL; url != "" && h.avatars != nil {
		err := h.avatars.Delete(h.storageContext(c), user.ID, url)
		var invalid *avatar.Error
		if errors.As(err, &invalid) {
			view.SetFlashError(c, avatar.Message(err))
			return back(c, "/profile")
		}
		if err != nil {
			// A missing file still clears the profile.
			log.Warn("avatar delete failed", "error", err)
		}
	}
	meta := user.Metadata
	meta.AvatarURL = ""
	if _, err := h.auth.UpdateProfile(c, meta); err != nil {
		log.Warn("clearing avatar url failed", "error", err)
		view.SetFlashError(c, errmsg.FromError(err))
		return back(c, "/profile")
	}
	view.SetFlashSuccess(c, "Avatar removed.")
	return back(c, "/profile")
}

// back redirects, through HX-Redirect for htmx requests.
func back(c echo.Context, location string) error {
	if c.Request().Header.Get("HX-Request") == "true" {
		c.Response().Header().Set("HX-Redirect", location)
		return c.NoContent(http.StatusNoContent)
	}
	return c.Redirect(http.StatusSeeOther, location)
}

// SettingsGet renders the settings page.
func (h *Handler) SettingsGet(c echo.Context) error {
	data := account.SettingsData{Captcha: h.challenge()}
	return c.Render(http.StatusOK, "", pages.Settings(h.page(c, "Settings"), data))
}

// PasswordPost changes the password after checking the current one.
func (h *Handler) PasswordPost(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var form forms.ChangePassword
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	var data account.SettingsData
	data.Errors = forms.Validate(form)
	data.Captcha = captcha.Check(c.Request().Context(), h.verifier,
		captcha.Submitted(c.FormValue(captcha.GenerationField), h.siteKey == ""), form.Captcha, c.RealIP())

	if len(data.Errors) == 0 && data.Captcha.CanSubmit() {
		err := h.changePassword(c, form)
		if err == nil {
			view.SetFlashSuccess(c, "Password updated successfully!")
			return c.Redirect(http.StatusSeeOther, "/settings")
		}
		middleware.FromContext(c.Request().Context()).Warn("password change failed", "user_id", user.ID, "error", err)
		data.Alert = errmsg.FromError(err)
		if errors.Is(err, domain.ErrInvalidCredentials) {
			data.Alert = "Current password is incorrect"
		}
	}
	data.Captcha = data.Captcha.Retry()
	return c.Render(http.StatusUnprocessableEntity, "", pages.Settings(h.page(c, "Settings"), data))
}

func (h *Handler) changePassword(c echo.Context, form forms.ChangePassword) error {
	if err := h.auth.VerifyPassword(c, form.CurrentPassword, form.Captcha); err != nil {
		return err
	}
	return h.auth.UpdatePassword(c, form.NewPassword)
}

// TeamGet is a placeholder.
func (h *Handler) TeamGet(c echo.Context) error {
	return c.Render(http.StatusOK, "", pages.ComingSoon(h.page(c, "Team"), "Team", "Invite teammates and manage their roles."))
}

// OrganizationGet is a placeholder.
func (h *Handler) OrganizationGet(c echo.Context) error {
	return c.Render(http.StatusOK, "", pages.ComingSoon(h.page(c, "Organization"), "Organization", "Manage your organization's details."))
}
