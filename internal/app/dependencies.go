package app

import (
	"github.com/labstack/echo/v4"
	"github.com/nfrund/opin/internal/avatar"
	"github.com/nfrund/opin/internal/captcha"
	"github.com/nfrund/opin/internal/modules/account"
)

// Dependencies holds the core services that are required by the application's modules.
// This struct is passed from the main application entrypoint to wire up the modules.
type Dependencies struct {
	Auth     account.Service
	Avatars  *avatar.Service
	Verifier captcha.Verifier
	SiteKey  string
	// Guard is the middleware protecting signed-in pages.
	Guard echo.MiddlewareFunc
}

// accountDeps creates the dependency struct for the account module.
func accountDeps(deps Dependencies) account.Dependencies {
	return account.Dependencies{
		Auth:     deps.Auth,
		Avatars:  deps.Avatars,
		Verifier: deps.Verifier,
		SiteKey:  deps.SiteKey,
		Guard:    deps.Guard,
	}
}
