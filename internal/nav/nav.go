// Package nav derives the dashboard navigation: breadcrumbs from the request
// path and the sidebar with its active item.
package nav

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Crumb is one breadcrumb. The last crumb has no Href.
type Crumb struct {
	Label  string
	Href   string
	IsLast bool
}

const rootPath = "/dashboard"

var title = cases.Title(language.English)

// Label turns a hyphenated path segment into words: "team-members" becomes
// "Team Members".
func Label(segment string) string {
	words := strings.Split(segment, "-")
	for i, w := range words {
		// Title-case only the first letter; the rest is kept as written.
		if w == "" {
			continue
		}
		head := title.String(w[:1])
		words[i] = head + w[1:]
	}
	return strings.Join(words, " ")
}

// Breadcrumbs builds the trail for path. The trail always starts at the
// dashboard.
func Breadcrumbs(path string) []Crumb {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	var segments []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}

	if len(segments) == 0 || (len(segments) == 1 && segments[0] == "dashboard") {
		return []Crumb{{Label: "Dashboard", Href: rootPath, IsLast: true}}
	}

	crumbs := []Crumb{{Label: "Dashboard", Href: rootPath}}
	current := ""
	for i, seg := range segments {
		current += "/" + seg
		if i == 0 && seg == "dashboard" {
			continue
		}
		last := i == len(segments)-1
		c := Crumb{Label: Label(seg), IsLast: last}
		if !last {
			c.Href = current
		}
		crumbs = append(crumbs, c)
	}
	return crumbs
}

// Item is a sidebar entry.
type Item struct {
	Title  string
	URL    string
	Icon   string
	Active bool
}

var sidebar = []Item{
	{Title: "Dashboard", URL: "/dashboard", Icon: "home"},
	{Title: "Analytics", URL: "/analytics", Icon: "bar-chart"},
}

// UserMenu is the account menu under the sidebar.
var UserMenu = []Item{
	{Title: "Profile", URL: "/profile", Icon: "user"},
	{Title: "Settings", URL: "/settings", Icon: "settings"},
}

// Sidebar returns the sidebar items with the one matching path marked
// active. An item matches its own URL and every path below it.
func Sidebar(path string) []Item {
	items := make([]Item, len(sidebar))
	copy(items, sidebar)
	for i := range items {
		items[i].Active = IsActive(items[i].URL, path)
	}
	return items
}

// IsActive reports whether path is url or lies below it.
func IsActive(url, path string) bool {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimRight(path, "/")
	return path == url || strings.HasPrefix(path, url+"/")
}
