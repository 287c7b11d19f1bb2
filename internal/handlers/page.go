package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/opin/internal/middleware"
	"github.com/nfrund/opin/internal/session"
	"github.com/nfrund/opin/internal/view"
	"github.com/nfrund/opin/web/src/templates/pages"
)

// PageFor collects the layout data of the current request. It also makes
// sure the browser carries an id, so a sign-in in another tab reaches this
// page's event stream.
func PageFor(c echo.Context, title, siteKey string) view.Page {
	session.BrowserID(c)
	return view.Page{
		Title:   title,
		Path:    c.Request().URL.Path,
		Guard:   middleware.GuardFromContext(c),
		User:    middleware.UserFromContext(c),
		Flash:   view.GetFlashData(c),
		SiteKey: siteKey,
	}
}

// NotFound renders the 404 page.
func NotFound(c echo.Context) error {
	return c.Render(http.StatusNotFound, "", pages.NotFound(view.Page{Title: "Page not found", Path: c.Request().URL.Path}))
}
