package components

import (
	g "maragu.dev/gomponents"
	"maragu.dev/gomponents/html"
)

// iconPaths holds the outline path data of each icon on a 24x24 grid.
var iconPaths = map[string][]string{
	"home":          {"M3 12l9-9 9 9", "M5 10v10h5v-6h4v6h5V10"},
	"bar-chart":     {"M4 20V10", "M10 20V4", "M16 20v-8", "M22 20H2"},
	"user":          {"M20 21a8 8 0 10-16 0", "M12 13a5 5 0 100-10 5 5 0 000 10z"},
	"settings":      {"M12 15a3 3 0 100-6 3 3 0 000 6z", "M19.4 15a1.7 1.7 0 00.3 1.8l.1.1a2 2 0 11-2.8 2.8l-.1-.1a1.7 1.7 0 00-1.8-.3 1.7 1.7 0 00-1 1.5V21a2 2 0 11-4 0v-.1a1.7 1.7 0 00-1.1-1.5 1.7 1.7 0 00-1.8.3l-.1.1a2 2 0 11-2.8-2.8l.1-.1a1.7 1.7 0 00.3-1.8 1.7 1.7 0 00-1.5-1H3a2 2 0 110-4h.1a1.7 1.7 0 001.5-1.1 1.7 1.7 0 00-.3-1.8l-.1-.1a2 2 0 112.8-2.8l.1.1a1.7 1.7 0 001.8.3H9a1.7 1.7 0 001-1.5V3a2 2 0 114 0v.1a1.7 1.7 0 001 1.5 1.7 1.7 0 001.8-.3l.1-.1a2 2 0 112.8 2.8l-.1.1a1.7 1.7 0 00-.3 1.8V9a1.7 1.7 0 001.5 1H21a2 2 0 110 4h-.1a1.7 1.7 0 00-1.5 1z"},
	"log-out":       {"M9 21H5a2 2 0 01-2-2V5a2 2 0 012-2h4", "M16 17l5-5-5-5", "M21 12H9"},
	"check":         {"M20 6L9 17l-5-5"},
	"check-square":  {"M9 11l3 3L22 4", "M21 12v7a2 2 0 01-2 2H5a2 2 0 01-2-2V5a2 2 0 012-2h11"},
	"alert-square":  {"M3 5a2 2 0 012-2h14a2 2 0 012 2v14a2 2 0 01-2 2H5a2 2 0 01-2-2z", "M12 8v4", "M12 16h.01"},
	"close":         {"M18 6L6 18", "M6 6l12 12"},
	"menu":          {"M3 12h18", "M3 6h18", "M3 18h18"},
	"chevron-down":  {"M6 9l6 6 6-6"},
	"chevron-right": {"M9 18l6-6-6-6"},
	"selector":      {"M7 15l5 5 5-5", "M7 9l5-5 5 5"},
	"plus":          {"M12 5v14", "M5 12h14"},
	"eye":           {"M1 12s4-8 11-8 11 8 11 8-4 8-11 8-11-8-11-8z", "M12 15a3 3 0 100-6 3 3 0 000 6z"},
	"mail":          {"M4 4h16a2 2 0 012 2v12a2 2 0 01-2 2H4a2 2 0 01-2-2V6a2 2 0 012-2z", "M22 6l-10 7L2 6"},
}

var iconSizes = map[Size]string{
	Small:  "h-4 w-4",
	Medium: "h-5 w-5",
	Large:  "h-6 w-6",
}

// Icon renders a named outline icon. Unknown names render nothing.
func Icon(name string, size Size, class string) g.Node {
	paths, ok := iconPaths[name]
	if !ok {
		return nil
	}
	if size == "" {
		size = Medium
	}
	cls := iconSizes[size]
	if class != "" {
		cls += " " + class
	}
	return g.El("svg",
		g.Attr("xmlns", "http://www.w3.org/2000/svg"),
		g.Attr("viewBox", "0 0 24 24"),
		g.Attr("fill", "none"),
		g.Attr("stroke", "currentColor"),
		g.Attr("stroke-width", "2"),
		g.Attr("stroke-linecap", "round"),
		g.Attr("stroke-linejoin", "round"),
		html.Aria("hidden", "true"),
		html.Class(cls),
		g.Map(paths, func(d string) g.Node {
			return g.El("path", g.Attr("d", d))
		}),
	)
}

// Spinner is the animated loading indicator.
func Spinner(class string) g.Node {
	return g.El("svg",
		g.Attr("xmlns", "http://www.w3.org/2000/svg"),
		g.Attr("viewBox", "0 0 24 24"),
		g.Attr("fill", "none"),
		html.Aria("hidden", "true"),
		html.Class("opin-spinner "+class),
		g.El("circle",
			html.Class("opacity-25"),
			g.Attr("cx", "12"), g.Attr("cy", "12"), g.Attr("r", "10"),
			g.Attr("stroke", "currentColor"), g.Attr("stroke-width", "4"),
		),
		g.El("path",
			html.Class("opacity-75"),
			g.Attr("fill", "currentColor"),
			g.Attr("d", "M4 12a8 8 0 018-8V0C5.373 0 0 5.373 0 12h4zm2 5.291A7.962 7.962 0 014 12H0c0 3.042 1.135 5.824 3 7.938l3-2.647z"),
		),
	)
}

// Loading is the placeholder shown while the session is unresolved.
func Loading(size Size) g.Node {
	cls := "h-8 w-8"
	if size == Large {
		cls = "h-12 w-12"
	}
	return html.Div(
		html.Class("flex items-center justify-center p-8 text-gray-500"),
		html.Role("status"),
		Spinner(cls),
		html.Span(html.Class("sr-only"), g.Text("Loading...")),
	)
}
