// Package rendering plugs component rendering into echo's c.Render.
package rendering

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

// node is the method set of gomponents.Node.
type node interface {
	Render(w io.Writer) error
}

// UniversalRenderer renders gomponents nodes and templ components passed as
// the data argument of c.Render. The template name is ignored.
type UniversalRenderer struct{}

var _ echo.Renderer = (*UniversalRenderer)(nil)

func NewUniversalRenderer() *UniversalRenderer {
	return &UniversalRenderer{}
}

// Render implements echo.Renderer. echo buffers the output, so a failed
// render leaves the response uncommitted and the error handler can still
// write an error page.
func (r *UniversalRenderer) Render(w io.Writer, _ string, data interface{}, c echo.Context) error {
	if c.Response().Header().Get(echo.HeaderContentType) == "" {
		c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	}
	return render(c.Request().Context(), data, w)
}

func render(ctx context.Context, component interface{}, w io.Writer) error {
	switch c := component.(type) {
	case templ.Component:
		return c.Render(ctx, w)
	case node:
		return c.Render(w)
	default:
		return fmt.Errorf("rendering: unsupported component type %T", component)
	}
}
