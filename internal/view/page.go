package view

import (
	"github.com/nfrund/opin/internal/authgate"
	"github.com/nfrund/opin/internal/domain"
)

// Page carries what every layout needs to render the shell around a page.
type Page struct {
	Title string
	// Path is the request path, used for breadcrumbs and the active sidebar item.
	Path  string
	Guard authgate.Kind
	User  *domain.User
	Flash FlashData
	// SiteKey is the public Turnstile key. Empty disables the widget.
	SiteKey string
}
