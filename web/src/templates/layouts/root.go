// Package layouts wraps page content in the document shells of the app.
package layouts

import (
	"github.com/nfrund/opin/internal/authgate"
	"github.com/nfrund/opin/internal/view"
	"github.com/nfrund/opin/web/src/templates/components"
	g "maragu.dev/gomponents"
	"maragu.dev/gomponents/html"
)

const (
	tailwindCDN  = "https://cdn.tailwindcss.com"
	htmxCDN      = "https://unpkg.com/htmx.org@2.0.4"
	turnstileCDN = "https://challenges.cloudflare.com/turnstile/v0/api.js"
)

// Root is the HTML document. Guarded pages start in the loading state and
// the page script watches the session for changes.
func Root(p view.Page, body ...g.Node) g.Node {
	return html.Doctype(
		html.HTML(
			html.Lang("en"),
			html.Head(
				html.Meta(html.Charset("utf-8")),
				html.Meta(html.Name("viewport"), html.Content("width=device-width, initial-scale=1")),
				g.El("title", g.Text(CalculateTitle(p.Title))),
				html.Script(html.Src(tailwindCDN)),
				html.Script(html.Src(htmxCDN), html.Defer()),
				g.If(p.SiteKey != "", html.Script(html.Src(turnstileCDN), html.Async(), html.Defer())),
				html.Link(html.Rel("stylesheet"), html.Href("/static/app.css")),
				html.Script(html.Src("/static/app.js"), html.Defer()),
			),
			html.Body(
				html.Class("min-h-screen bg-gray-50 text-gray-900 antialiased"),
				g.If(p.Guard != 0, g.Attr("data-guard", p.Guard.String())),
				g.Attr("data-auth-state", authState(p).String()),
				components.Toasts(p.Flash.Success, p.Flash.Error),
				g.Group(body),
			),
		),
	)
}

// authState is the state the server resolved for the render. Unguarded
// pages never wait on the session.
func authState(p view.Page) authgate.State {
	if p.User != nil {
		return authgate.Authenticated
	}
	return authgate.Unauthenticated
}
