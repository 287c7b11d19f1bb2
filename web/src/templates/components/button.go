// Package components holds the presentational building blocks shared by the
// layouts and pages.
package components

import (
	"strings"

	g "maragu.dev/gomponents"
	"maragu.dev/gomponents/html"
)

// Variant is the visual style of a button.
type Variant string

const (
	Primary   Variant = "primary"
	Secondary Variant = "secondary"
	Outline   Variant = "outline"
)

// Size is the padding and font size of a button.
type Size string

const (
	Small  Size = "sm"
	Medium Size = "md"
	Large  Size = "lg"
)

const buttonBase = "inline-flex items-center justify-center font-semibold rounded-md focus:outline-none focus:ring-2 focus:ring-offset-2 transition-all duration-200 disabled:opacity-50 disabled:cursor-not-allowed"

var variantClasses = map[Variant]string{
	Primary:   "text-white bg-black hover:bg-gray-800 focus:ring-gray-500 shadow-sm",
	Secondary: "text-gray-700 bg-gray-100 hover:bg-gray-200 focus:ring-gray-500",
	Outline:   "text-gray-700 bg-white border border-gray-300 hover:bg-gray-50 focus:ring-gray-500",
}

var sizeClasses = map[Size]string{
	Small:  "px-3 py-2 text-sm",
	Medium: "px-4 py-2.5 text-sm",
	Large:  "px-6 py-3 text-base",
}

// ButtonProps configures Button.
type ButtonProps struct {
	Variant   Variant
	Size      Size
	Type      string
	FullWidth bool
	Disabled  bool
	Loading   bool
	// LoadingLabel replaces the label while the form submits.
	LoadingLabel string
	// CaptchaGated buttons are enabled by the challenge callbacks.
	CaptchaGated bool
	Class        string
	Attrs        []g.Node
}

func buttonClasses(v Variant, s Size, fullWidth bool, extra string) string {
	if v == "" {
		v = Primary
	}
	if s == "" {
		s = Medium
	}
	classes := []string{buttonBase, variantClasses[v], sizeClasses[s]}
	if fullWidth {
		classes = append(classes, "w-full")
	}
	if extra != "" {
		classes = append(classes, extra)
	}
	return strings.Join(classes, " ")
}

// Button renders a <button>. A loading button is disabled and shows a spinner.
func Button(p ButtonProps, children ...g.Node) g.Node {
	typ := p.Type
	if typ == "" {
		typ = "button"
	}
	return html.Button(
		html.Type(typ),
		html.Class(buttonClasses(p.Variant, p.Size, p.FullWidth, p.Class)),
		g.If(p.Disabled || p.Loading, html.Disabled()),
		g.If(p.Loading, html.Aria("busy", "true")),
		html.Aria("live", "polite"),
		g.If(p.LoadingLabel != "", g.Attr("data-loading-label", p.LoadingLabel)),
		g.If(p.CaptchaGated, g.Attr("data-captcha-gated")),
		g.Group(p.Attrs),
		g.If(p.Loading, Spinner("mr-2 -ml-1 h-4 w-4")),
		g.Group(children),
	)
}

// SubmitButton is the full-width primary submit of the auth forms.
func SubmitButton(label, loadingLabel string, canSubmit bool) g.Node {
	return Button(ButtonProps{
		Type:         "submit",
		FullWidth:    true,
		Disabled:     !canSubmit,
		LoadingLabel: loadingLabel,
		CaptchaGated: true,
	}, g.Text(label))
}

// ButtonLink is an anchor styled as a button.
func ButtonLink(href string, v Variant, children ...g.Node) g.Node {
	return html.A(
		html.Href(href),
		html.Class(buttonClasses(v, Medium, false, "")),
		g.Group(children),
	)
}

// Link is an inline text link.
func Link(href, text string) g.Node {
	return html.A(
		html.Href(href),
		html.Class("font-medium text-gray-900 underline-offset-4 hover:underline"),
		g.Text(text),
	)
}
