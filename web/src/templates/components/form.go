package components

import (
	g "maragu.dev/gomponents"
	"maragu.dev/gomponents/html"
)

const inputBase = "block w-full rounded-md border px-3 py-2 text-sm shadow-sm placeholder-gray-400 focus:outline-none focus:ring-2 focus:ring-gray-500"

// InputProps configures a text or password input.
type InputProps struct {
	Name         string
	Label        string
	Type         string
	Value        string
	Placeholder  string
	AutoComplete string
	Required     bool
	Disabled     bool
	// Error is the field's validation message.
	Error string
	Hint  string
}

func (p InputProps) id() string {
	return "field-" + p.Name
}

func inputClass(hasError bool) string {
	if hasError {
		return inputBase + " border-red-400 text-red-900 focus:ring-red-500"
	}
	return inputBase + " border-gray-300"
}

func inputAttrs(p InputProps, typ, extraClass string) []g.Node {
	cls := inputClass(p.Error != "")
	if extraClass != "" {
		cls += " " + extraClass
	}
	attrs := []g.Node{
		html.ID(p.id()),
		html.Name(p.Name),
		html.Type(typ),
		html.Class(cls),
		g.If(p.Placeholder != "", html.Placeholder(p.Placeholder)),
		g.If(p.AutoComplete != "", html.AutoComplete(p.AutoComplete)),
		g.If(p.Required, html.Required()),
		g.If(p.Disabled, html.Disabled()),
	}
	if p.Error != "" {
		attrs = append(attrs, html.Aria("invalid", "true"), html.Aria("describedby", p.id()+"-error"))
	}
	return attrs
}

// FormField wraps an input with its label, hint and error message.
func FormField(p InputProps, input g.Node) g.Node {
	return html.Div(
		html.Class("space-y-1"),
		g.If(p.Label != "", html.Label(
			html.For(p.id()),
			html.Class("block text-sm font-medium text-gray-700"),
			g.Text(p.Label),
		)),
		input,
		g.If(p.Hint != "" && p.Error == "", html.P(html.Class("text-xs text-gray-500"), g.Text(p.Hint))),
		FieldError(p.id()+"-error", p.Error),
	)
}

// FieldError is the red message under a field.
func FieldError(id, message string) g.Node {
	if message == "" {
		return nil
	}
	return html.P(html.ID(id), html.Class("text-sm text-red-600"), html.Role("alert"), g.Text(message))
}

// TextInput renders a labelled input. Type defaults to "text".
func TextInput(p InputProps) g.Node {
	typ := p.Type
	if typ == "" {
		typ = "text"
	}
	return FormField(p, html.Input(
		g.Group(inputAttrs(p, typ, "")),
		html.Value(p.Value),
	))
}

// PasswordInput renders a password input with a show/hide toggle. The value
// is never echoed back.
func PasswordInput(p InputProps) g.Node {
	return FormField(p, html.Div(
		html.Class("relative"),
		html.Input(
			g.Group(inputAttrs(p, "password", "pr-10")),
		),
		html.Button(
			html.Type("button"),
			html.Class("absolute inset-y-0 right-0 flex items-center px-3 text-gray-500 hover:text-gray-700"),
			html.Aria("label", "Show password"),
			html.Aria("controls", p.id()),
			g.Attr("data-password-toggle", p.id()),
			Icon("eye", Small, ""),
		),
	))
}

// Hidden is a hidden input.
func Hidden(name, value string) g.Node {
	return html.Input(html.Type("hidden"), html.Name(name), html.Value(value))
}
