package components

import (
	g "maragu.dev/gomponents"
	"maragu.dev/gomponents/html"
)

// Tone selects the colors of alerts and toasts.
type Tone string

const (
	Success Tone = "success"
	Error   Tone = "error"
	Info    Tone = "info"
)

var toneClasses = map[Tone]string{
	Success: "bg-green-50 border-green-200 text-green-800",
	Error:   "bg-red-50 border-red-200 text-red-800",
	Info:    "bg-blue-50 border-blue-200 text-blue-800",
}

var toneIcons = map[Tone]string{
	Success: "check-square",
	Error:   "alert-square",
	Info:    "mail",
}

// Alert is an inline message box. An empty message renders nothing.
func Alert(tone Tone, message string) g.Node {
	if message == "" {
		return nil
	}
	role := "status"
	if tone == Error {
		role = "alert"
	}
	return html.Div(
		html.Class("flex items-start gap-3 rounded-md border p-3 text-sm "+toneClasses[tone]),
		html.Role(role),
		Icon(toneIcons[tone], Medium, "shrink-0"),
		html.P(g.Text(message)),
	)
}

// Toast is a dismissible notification. The page script removes it after a
// few seconds.
func Toast(tone Tone, message string) g.Node {
	return html.Div(
		html.Class("pointer-events-auto flex w-80 items-start gap-3 rounded-lg border p-4 shadow-lg "+toneClasses[tone]),
		html.Role("status"),
		g.Attr("data-toast", string(tone)),
		Icon(toneIcons[tone], Medium, "shrink-0"),
		html.P(html.Class("flex-1 text-sm font-medium"), g.Text(message)),
		html.Button(
			html.Type("button"),
			html.Class("opacity-60 hover:opacity-100"),
			html.Aria("label", "Dismiss"),
			g.Attr("data-toast-close"),
			Icon("close", Small, ""),
		),
	)
}

// Toasts renders the flash messages of a request as toasts.
func Toasts(success, errs []string) g.Node {
	return html.Div(
		html.ID("toast-region"),
		html.Class("toast-region fixed right-4 top-4 z-50 flex flex-col gap-2"),
		html.Aria("live", "polite"),
		g.Map(success, func(m string) g.Node { return Toast(Success, m) }),
		g.Map(errs, func(m string) g.Node { return Toast(Error, m) }),
	)
}

// Card is a white panel with an optional title and description.
func Card(title, description string, children ...g.Node) g.Node {
	return html.Section(
		html.Class("rounded-lg border border-gray-200 bg-white p-6 shadow-sm"),
		g.If(title != "", html.H2(html.Class("text-lg font-semibold text-gray-900"), g.Text(title))),
		g.If(description != "", html.P(html.Class("mt-1 text-sm text-gray-500"), g.Text(description))),
		html.Div(html.Class("mt-4 space-y-4"), g.Group(children)),
	)
}
