package layouts

import (
	"github.com/nfrund/opin/internal/view"
	g "maragu.dev/gomponents"
	"maragu.dev/gomponents/html"
)

// Auth is the centered card used by the sign-in, sign-up and password pages.
func Auth(p view.Page, heading, subheading string, content ...g.Node) g.Node {
	return Root(p,
		html.Main(
			html.Class("flex min-h-screen flex-col items-center justify-center px-4 py-12"),
			html.A(html.Href("/"), html.Class("mb-8 text-2xl font-bold tracking-tight"), g.Text("Opin")),
			html.Div(
				html.Class("w-full max-w-md rounded-lg border border-gray-200 bg-white p-8 shadow-sm"),
				html.Div(
					html.Class("mb-6 space-y-1 text-center"),
					html.H1(html.Class("text-2xl font-semibold"), g.Text(heading)),
					g.If(subheading != "", html.P(html.Class("text-sm text-gray-500"), g.Text(subheading))),
				),
				g.Group(content),
			),
		),
	)
}
