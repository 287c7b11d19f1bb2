package view

import (
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

const (
	flashSessionName = "flash-session"
	flashKeySuccess  = "success"
	flashKeyError    = "error"
)

// FlashData holds the flash messages read for one render.
type FlashData struct {
	Success []string
	Error   []string
}

// Empty reports whether there is nothing to show.
func (f FlashData) Empty() bool {
	return len(f.Success) == 0 && len(f.Error) == 0
}

// setFlash sets a flash message in the session.
func setFlash(c echo.Context, key, message string) {
	sess, err := session.Get(flashSessionName, c)
	if err != nil {
		c.Logger().Warnf("flash session unavailable: %v", err)
		return
	}
	sess.AddFlash(message, key)
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		c.Logger().Warnf("save flash: %v", err)
	}
}

// SetFlashSuccess sets a success flash message.
func SetFlashSuccess(c echo.Context, message string) {
	setFlash(c, flashKeySuccess, message)
}

// SetFlashError sets an error flash message.
func SetFlashError(c echo.Context, message string) {
	setFlash(c, flashKeyError, message)
}

// GetFlashData retrieves and clears flash messages from the session.
func GetFlashData(c echo.Context) FlashData {
	var data FlashData

	sess, err := session.Get(flashSessionName, c)
	if err != nil {
		return data
	}

	// Flashes() retrieves and then clears the flashes from the session.
	successFlashes := sess.Flashes(flashKeySuccess)
	errorFlashes := sess.Flashes(flashKeyError)

	// If we have flashes, save the session to persist the clearing of flashes.
	if len(successFlashes) > 0 || len(errorFlashes) > 0 {
		data.Success = toStrings(successFlashes)
		data.Error = toStrings(errorFlashes)
		_ = sess.Save(c.Request(), c.Response())
	}
	return data
}

func toStrings(values []interface{}) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
