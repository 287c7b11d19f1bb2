package components

import (
	"github.com/nfrund/opin/internal/nav"
	g "maragu.dev/gomponents"
	hx "maragu.dev/gomponents-htmx"
	"maragu.dev/gomponents/html"
)

// Breadcrumb renders the trail. The last crumb is plain text.
func Breadcrumb(crumbs []nav.Crumb) g.Node {
	return html.Nav(
		html.Aria("label", "Breadcrumb"),
		html.Ol(
			html.Class("flex items-center gap-2 text-sm text-gray-500"),
			g.Map(crumbs, func(c nav.Crumb) g.Node {
				if c.IsLast {
					return html.Li(html.Span(html.Class("font-medium text-gray-900"), html.Aria("current", "page"), g.Text(c.Label)))
				}
				return html.Li(
					html.Class("flex items-center gap-2"),
					html.A(html.Href(c.Href), html.Class("hover:text-gray-900"), g.Text(c.Label)),
					Icon("chevron-right", Small, "text-gray-400"),
				)
			}),
		),
	)
}

// SidebarProps configures Sidebar.
type SidebarProps struct {
	Items       []nav.Item
	Menu        []nav.Item
	DisplayName string
	Email       string
	AvatarURL   string
	Initials    string
}

// Sidebar is the dashboard navigation with the user menu at the bottom.
func Sidebar(p SidebarProps) g.Node {
	return html.Aside(
		html.ID("sidebar"),
		html.Class("flex h-full w-64 flex-col border-r border-gray-200 bg-white"),
		html.Div(
			html.Class("flex h-16 items-center gap-2 border-b border-gray-200 px-6"),
			html.A(html.Href("/dashboard"), html.Class("text-lg font-bold text-gray-900"), g.Text("Opin")),
		),
		html.Nav(
			html.Class("flex-1 space-y-1 p-4"),
			g.Map(p.Items, sidebarLink),
		),
		html.Div(
			html.Class("border-t border-gray-200 p-4"),
			html.Div(
				html.Class("mb-3 flex items-center gap-3"),
				Avatar(p.AvatarURL, p.Initials, Small),
				html.Div(
					html.Class("min-w-0"),
					html.P(html.Class("truncate text-sm font-medium text-gray-900"), g.Text(p.DisplayName)),
					html.P(html.Class("truncate text-xs text-gray-500"), g.Text(p.Email)),
				),
			),
			html.Div(html.Class("space-y-1"), g.Map(p.Menu, sidebarLink)),
			SignOutButton(),
		),
	)
}

func sidebarLink(item nav.Item) g.Node {
	cls := "flex items-center gap-3 rounded-md px-3 py-2 text-sm font-medium "
	if item.Active {
		cls += "bg-gray-100 text-gray-900"
	} else {
		cls += "text-gray-600 hover:bg-gray-50 hover:text-gray-900"
	}
	return html.A(
		html.Href(item.URL),
		html.Class(cls),
		g.If(item.Active, html.Aria("current", "page")),
		Icon(item.Icon, Medium, ""),
		g.Text(item.Title),
	)
}

// SignOutButton posts to the sign-out route, through htmx when available.
func SignOutButton() g.Node {
	return html.Form(
		html.Method("post"),
		html.Action("/auth/sign-out"),
		html.Button(
			html.Type("submit"),
			html.Class("flex w-full items-center gap-3 rounded-md px-3 py-2 text-sm font-medium text-gray-600 hover:bg-gray-50 hover:text-gray-900"),
			hx.Post("/auth/sign-out"),
			g.Attr("data-loading-label", "Signing out..."),
			Icon("log-out", Medium, ""),
			g.Text("Sign out"),
		),
	)
}

// Avatar shows the image when there is one and the initials otherwise.
func Avatar(url, initials string, size Size) g.Node {
	cls := "h-9 w-9 text-sm"
	if size == Large {
		cls = "h-20 w-20 text-2xl"
	}
	if url != "" {
		return html.Img(html.Src(url), html.Alt("Avatar"), html.Class("rounded-full object-cover "+cls))
	}
	return html.Span(
		html.Class("inline-flex items-center justify-center rounded-full bg-gray-200 font-semibold text-gray-700 "+cls),
		html.Aria("hidden", "true"),
		g.Text(initials),
	)
}
