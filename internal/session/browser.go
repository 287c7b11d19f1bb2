package session

import (
	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

// BrowserCookieName identifies a browser across sign-in and sign-out, so
// tabs still on a guest page can follow a sign-in made in another tab.
const BrowserCookieName = "opin-browser"

const browserKey = "bid"

// BrowserID returns the id of the current browser, issuing one when the
// request carries none. The empty string means the cookie could not be
// written.
func BrowserID(c echo.Context) string {
	sess, err := session.Get(BrowserCookieName, c)
	if err != nil {
		return ""
	}
	if id, ok := sess.Values[browserKey].(string); ok && id != "" {
		return id
	}
	id := uuid.NewString()
	sess.Values[browserKey] = id
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return ""
	}
	return id
}

// PeekBrowserID returns the browser id without issuing a new one.
func PeekBrowserID(c echo.Context) string {
	sess, err := session.Get(BrowserCookieName, c)
	if err != nil {
		return ""
	}
	id, _ := sess.Values[browserKey].(string)
	return id
}
