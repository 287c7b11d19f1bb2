package layouts

import (
	"github.com/nfrund/opin/internal/avatar"
	"github.com/nfrund/opin/internal/nav"
	"github.com/nfrund/opin/internal/view"
	"github.com/nfrund/opin/web/src/templates/components"
	g "maragu.dev/gomponents"
	"maragu.dev/gomponents/html"
)

// Dashboard is the signed-in shell: sidebar, breadcrumbs and content. While
// the session is unresolved the content is replaced by a placeholder by the
// page stylesheet.
func Dashboard(p view.Page, content ...g.Node) g.Node {
	props := components.SidebarProps{
		Items: nav.Sidebar(p.Path),
		Menu:  activeMenu(p.Path),
	}
	if p.User != nil {
		props.DisplayName = p.User.DisplayName()
		props.Email = p.User.Email
		props.AvatarURL = p.User.Metadata.AvatarURL
		props.Initials = avatar.InitialsFor(p.User)
	}
	return Root(p,
		html.Div(
			html.Class("flex h-screen overflow-hidden"),
			components.Sidebar(props),
			html.Div(
				html.Class("flex flex-1 flex-col overflow-y-auto"),
				html.Header(
					html.Class("flex h-16 items-center border-b border-gray-200 bg-white px-6"),
					components.Breadcrumb(nav.Breadcrumbs(p.Path)),
				),
				html.Div(html.Class("auth-loading"), components.Loading(components.Large)),
				html.Main(
					html.Class("auth-content flex-1 p-6"),
					g.Group(content),
				),
			),
		),
	)
}

func activeMenu(path string) []nav.Item {
	items := make([]nav.Item, len(nav.UserMenu))
	for i, item := range nav.UserMenu {
		item.Active = nav.IsActive(item.URL, path)
		items[i] = item
	}
	return items
}
