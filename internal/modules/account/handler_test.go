package account_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/nfrund/opin/internal/authgate"
	"github.com/nfrund/opin/internal/avatar"
	"github.com/nfrund/opin/internal/captcha"
	"github.com/nfrund/opin/internal/config"
	"github.com/nfrund/opin/internal/domain"
	"github.com/nfrund/opin/internal/middleware"
	"github.com/nfrund/opin/internal/modules/account"
	"github.com/nfrund/opin/internal/registry"
	"github.com/nfrund/opin/internal/rendering"
	"github.com/nfrund/opin/internal/storage"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAccounts stands in for the session service.
type fakeAccounts struct {
	user        *domain.User
	password    string
	signInErr   error
	updateErr   error
	newPassword string
}

func (f *fakeAccounts) VerifyPassword(_ echo.Context, password, _ string) error {
	if f.signInErr != nil {
		return f.signInErr
	}
	if password != f.password {
		return domain.ErrInvalidCredentials
	}
	return nil
}

func (f *fakeAccounts) UpdatePassword(_ echo.Context, password string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.newPassword = password
	return nil
}

func (f *fakeAccounts) UpdateProfile(_ echo.Context, meta domain.UserMetadata) (*domain.User, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.user.Metadata = meta
	return f.user, nil
}

func (f *fakeAccounts) AccessToken(echo.Context) (string, error) {
	return "access-token", nil
}

type accountTest struct {
	e     *echo.Echo
	auth  *fakeAccounts
	fs    afero.Fs
	store *storage.AferoStore
}

// setupAccountTest boots the module on a bare echo. A stand-in guard puts
// the fake user on the context.
func setupAccountTest(t *testing.T) *accountTest {
	t.Helper()
	user := &domain.User{ID: "user-1", Email: "ada@example.com", Metadata: domain.UserMetadata{FirstName: "Ada", LastName: "Lovelace"}}
	auth := &fakeAccounts{user: user, password: "Current!1"}

	fs := afero.NewMemMapFs()
	store := storage.NewAferoStore(fs, "avatars", "/avatars")

	e := echo.New()
	e.Renderer = rendering.NewUniversalRenderer()
	e.Use(session.Middleware(sessions.NewCookieStore([]byte("account-test-secret"))))

	m := account.New(account.Dependencies{
		Auth:    auth,
		Avatars: avatar.NewService(store),
		Guard: func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				c.Set(middleware.UserContextKey, auth.user)
				c.Set(middleware.GuardContextKey, authgate.Protected)
				return next(c)
			}
		},
	})
	cfg, err := config.FromMap(map[string]string{"SESSION_SECRET": "x", "AUTH_PROVIDER": config.ProviderMemory})
	require.NoError(t, err)
	reg := registry.New(cfg)
	require.NoError(t, m.Register(reg))
	require.NoError(t, m.Boot(context.Background(), e.Group(""), reg))

	return &accountTest{e: e, auth: auth, fs: fs, store: store}
}

func (a *accountTest) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func (a *accountTest) upload(t *testing.T, filename, contentType string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="avatar"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := writer.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/profile/avatar", body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func TestRoutes(t *testing.T) {
	m := account.New(account.Dependencies{})
	routes := m.Routes()

	require.Len(t, routes, 8)
	for _, r := range routes {
		assert.Equal(t, authgate.Protected, r.Guard, r.Path)
		assert.Nil(t, r.Handler, "listing does not build handlers")
	}
}

func TestProfile(t *testing.T) {
	t.Run("renders the current names", func(t *testing.T) {
		a := setupAccountTest(t)
		rec := httptest.NewRecorder()
		a.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/profile", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `value="Ada"`)
		assert.Contains(t, rec.Body.String(), "ada@example.com")
	})

	t.Run("saves trimmed names", func(t *testing.T) {
		a := setupAccountTest(t)
		rec := a.postForm("/profile", url.Values{"first_name": {"  Grace "}, "last_name": {"Hopper"}})

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/profile", rec.Header().Get(echo.HeaderLocation))
		assert.Equal(t, "Grace", a.auth.user.Metadata.FirstName)
		assert.Equal(t, "Hopper", a.auth.user.Metadata.LastName)
	})

	t.Run("rejects short names", func(t *testing.T) {
		a := setupAccountTest(t)
		rec := a.postForm("/profile", url.Values{"first_name": {"G"}, "last_name": {"Hopper"}})

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "First name must be at least 2 characters")
		assert.Equal(t, "Ada", a.auth.user.Metadata.FirstName)
	})
}

func TestAvatar(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\nfake")

	t.Run("upload stores the file and replaces the old one", func(t *testing.T) {
		a := setupAccountTest(t)
		require.NoError(t, a.store.Upload(context.Background(), "user-1-1-old.png", bytes.NewReader(png), "image/png"))
		a.auth.user.Metadata.AvatarURL = "/avatars/user-1-1-old.png"

		rec := a.upload(t, "me.png", "image/png", png)

		require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
		avatarURL := a.auth.user.Metadata.AvatarURL
		assert.True(t, strings.HasPrefix(avatarURL, "/avatars/user-1-"), avatarURL)
		assert.True(t, strings.HasSuffix(avatarURL, ".png"), avatarURL)

		exists, err := afero.Exists(a.fs, "avatars/"+strings.TrimPrefix(avatarURL, "/avatars/"))
		require.NoError(t, err)
		assert.True(t, exists, "new avatar is stored")
		exists, err = afero.Exists(a.fs, "avatars/user-1-1-old.png")
		require.NoError(t, err)
		assert.False(t, exists, "previous avatar is removed")
	})

	t.Run("rejects other file types", func(t *testing.T) {
		a := setupAccountTest(t)
		rec := a.upload(t, "notes.txt", "text/plain", []byte("hello"))

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "Please select a valid image file")
		assert.Empty(t, a.auth.user.Metadata.AvatarURL)
	})

	t.Run("a failed profile save removes the upload", func(t *testing.T) {
		a := setupAccountTest(t)
		a.auth.updateErr = domain.ErrUnauthorized
		rec := a.upload(t, "me.png", "image/png", png)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		files, err := afero.ReadDir(a.fs, "avatars")
		require.NoError(t, err)
		assert.Empty(t, files)
	})

	t.Run("delete clears the profile", func(t *testing.T) {
		a := setupAccountTest(t)
		require.NoError(t, a.store.Upload(context.Background(), "user-1-1-old.png", bytes.NewReader(png), "image/png"))
		a.auth.user.Metadata.AvatarURL = "/avatars/user-1-1-old.png"

		rec := a.postForm("/profile/avatar/delete", url.Values{})

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Empty(t, a.auth.user.Metadata.AvatarURL)
		exists, err := afero.Exists(a.fs, "avatars/user-1-1-old.png")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("delete refuses someone else's file", func(t *testing.T) {
		a := setupAccountTest(t)
		a.auth.user.Metadata.AvatarURL = "/avatars/user-2-1-other.png"

		rec := a.postForm("/profile/avatar/delete", url.Values{})

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/avatars/user-2-1-other.png", a.auth.user.Metadata.AvatarURL)
	})
}

func TestPasswordChange(t *testing.T) {
	valid := url.Values{
		"current_password": {"Current!1"},
		"new_password":     {"N3w!Password"},
		"confirm_password": {"N3w!Password"},
	}

	t.Run("success", func(t *testing.T) {
		a := setupAccountTest(t)
		rec := a.postForm("/settings/password", valid)

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/settings", rec.Header().Get(echo.HeaderLocation))
		assert.Equal(t, "N3w!Password", a.auth.newPassword)
	})

	t.Run("wrong current password", func(t *testing.T) {
		a := setupAccountTest(t)
		form := url.Values{
			"current_password": {"Wrong!1"},
			"new_password":     {"N3w!Password"},
			"confirm_password": {"N3w!Password"},
		}
		rec := a.postForm("/settings/password", form)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "Current password is incorrect")
		assert.Empty(t, a.auth.newPassword)
	})

	t.Run("confirmation must match", func(t *testing.T) {
		a := setupAccountTest(t)
		form := url.Values{
			"current_password": {"Current!1"},
			"new_password":     {"N3w!Password"},
			"confirm_password": {"Other!Passw0rd"},
		}
		rec := a.postForm("/settings/password", form)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "Passwords do not match")
	})

	t.Run("missing confirmation uses the settings wording", func(t *testing.T) {
		a := setupAccountTest(t)
		form := url.Values{"current_password": {"Current!1"}, "new_password": {"N3w!Password"}}
		rec := a.postForm("/settings/password", form)

		assert.Contains(t, rec.Body.String(), "Please confirm your new password")
	})

	t.Run("provider errors become friendly alerts", func(t *testing.T) {
		a := setupAccountTest(t)
		a.auth.updateErr = &domain.ProviderError{Status: 422, Code: "weak_password", Message: "Password is too weak"}
		rec := a.postForm("/settings/password", valid)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "Password must be at least 8 characters long for security.")
	})
}

func TestNew_DisablesChallengeWithoutSiteKey(t *testing.T) {
	m := account.New(account.Dependencies{Verifier: captcha.Forwarder{}})
	cfg, err := config.FromMap(map[string]string{"SESSION_SECRET": "x", "AUTH_PROVIDER": config.ProviderMemory})
	require.NoError(t, err)
	reg := registry.New(cfg)
	require.NoError(t, m.Register(reg))

	v := registry.MustGet(reg, registry.VerifierKey)
	assert.IsType(t, captcha.Off{}, v)
	_, ok := registry.Get(reg, registry.AvatarServiceKey)
	assert.False(t, ok, "no avatar service without a store")
}
