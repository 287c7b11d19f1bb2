// Package web holds the browser assets served under /static.
package web

import "embed"

// FS holds app.css and app.js. The auth guard script in app.js follows the
// redirects sent over /auth/events.
//
//go:embed static/*
var FS embed.FS
