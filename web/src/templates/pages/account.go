package pages

import (
	"github.com/nfrund/opin/internal/view"
	"github.com/nfrund/opin/internal/view/dto/account"
	"github.com/nfrund/opin/web/src/templates/components"
	"github.com/nfrund/opin/web/src/templates/layouts"
	g "maragu.dev/gomponents"
	hx "maragu.dev/gomponents-htmx"
	. "maragu.dev/gomponents/html"
)

func heading(title, description string) g.Node {
	return Div(
		Class("mb-6"),
		H1(Class("text-2xl font-semibold text-gray-900"), g.Text(title)),
		g.If(description != "", P(Class("mt-1 text-sm text-gray-500"), g.Text(description))),
	)
}

// Dashboard is the landing page after sign-in.
func Dashboard(p view.Page) g.Node {
	name := ""
	if p.User != nil {
		name = p.User.DisplayName()
	}
	return layouts.Dashboard(p,
		heading("Welcome, "+name, "Here's what's happening with your feedback."),
		Div(
			Class("grid gap-6 md:grid-cols-3"),
			stat("Responses", "0"),
			stat("Open surveys", "0"),
			stat("Average rating", "-"),
		),
	)
}

func stat(label, value string) g.Node {
	return Div(
		Class("rounded-lg border border-gray-200 bg-white p-6 shadow-sm"),
		P(Class("text-sm text-gray-500"), g.Text(label)),
		P(Class("mt-2 text-3xl font-semibold"), g.Text(value)),
	)
}

// ComingSoon is a titled page whose content is not built yet.
func ComingSoon(p view.Page, title, description string) g.Node {
	return layouts.Dashboard(p,
		heading(title, description),
		components.Card("", "", P(Class("text-sm text-gray-500"), g.Text("Coming soon."))),
	)
}

// Profile edits the name and the avatar.
func Profile(p view.Page, d account.ProfileData) g.Node {
	return layouts.Dashboard(p,
		heading("Profile", "Manage how others see you."),
		Div(
			Class("max-w-2xl space-y-6"),
			components.Card("Avatar", "JPEG, PNG, GIF or WebP, up to 5 MB.",
				Div(
					Class("flex items-center gap-6"),
					components.Avatar(d.AvatarURL, d.Initials, components.Large),
					Form(
						Method("post"),
						Action("/profile/avatar"),
						g.Attr("enctype", "multipart/form-data"),
						Class("flex flex-1 items-center gap-3"),
						Input(
							Type("file"),
							Name("avatar"),
							ID("avatar"),
							g.Attr("accept", "image/jpeg,image/png,image/gif,image/webp"),
							Class("block w-full text-sm text-gray-600"),
							Required(),
						),
						components.Button(components.ButtonProps{
							Type:         "submit",
							Size:         components.Small,
							LoadingLabel: "Uploading...",
						}, g.Text("Upload")),
					),
				),
				components.FieldError("avatar-error", d.AvatarError),
				g.If(d.AvatarURL != "", Form(
					Method("post"),
					Action("/profile/avatar/delete"),
					components.Button(components.ButtonProps{
						Type:    "submit",
						Variant: components.Outline,
						Size:    components.Small,
						Attrs:   []g.Node{hx.Post("/profile/avatar/delete"), hx.Confirm("Remove your avatar?")},
					}, g.Text("Remove avatar")),
				)),
			),
			components.Card("Personal information", "",
				Form(
					Method("post"),
					Action("/profile"),
					Class("space-y-4"),
					g.Attr("novalidate"),
					components.Alert(components.Error, d.Errors.Get("")),
					components.TextInput(components.InputProps{
						Name: "email", Label: "Email", Type: "email", Value: d.Email, Disabled: true,
						Hint: "Your email address cannot be changed here.",
					}),
					Div(
						Class("grid grid-cols-2 gap-4"),
						components.TextInput(components.InputProps{
							Name: "first_name", Label: "First name", Value: d.Values.Get("first_name"),
							AutoComplete: "given-name", Required: true, Error: d.Errors.Get("first_name"),
						}),
						components.TextInput(components.InputProps{
							Name: "last_name", Label: "Last name", Value: d.Values.Get("last_name"),
							AutoComplete: "family-name", Required: true, Error: d.Errors.Get("last_name"),
						}),
					),
					components.Button(components.ButtonProps{Type: "submit", LoadingLabel: "Saving..."}, g.Text("Save changes")),
				),
			),
		),
	)
}

// Settings holds the password change form and links to the team and
// organization pages.
func Settings(p view.Page, d account.SettingsData) g.Node {
	return layouts.Dashboard(p,
		heading("Settings", "Manage your account settings."),
		Div(
			Class("max-w-2xl space-y-6"),
			components.Card("Change password", "Use a strong password you don't use elsewhere.",
				Form(
					Method("post"),
					Action("/settings/password"),
					Class("space-y-4"),
					g.Attr("novalidate"),
					components.Alert(components.Error, d.Alert),
					components.Alert(components.Error, d.Errors.Get("")),
					components.PasswordInput(components.InputProps{
						Name: "current_password", Label: "Current password", AutoComplete: "current-password",
						Required: true, Error: d.Errors.Get("current_password"),
					}),
					components.PasswordInput(components.InputProps{
						Name: "new_password", Label: "New password", AutoComplete: "new-password",
						Required: true, Error: d.Errors.Get("new_password"),
					}),
					components.PasswordInput(components.InputProps{
						Name: "confirm_password", Label: "Confirm new password", AutoComplete: "new-password",
						Required: true, Error: d.Errors.Get("confirm_password"),
					}),
					components.Turnstile(p.SiteKey, d.Captcha),
					components.Button(components.ButtonProps{
						Type:         "submit",
						Disabled:     !d.Captcha.CanSubmit(),
						CaptchaGated: true,
						LoadingLabel: "Updating...",
					}, g.Text("Update password")),
				),
			),
			components.Card("Workspace", "",
				Div(
					Class("flex gap-3"),
					components.ButtonLink("/settings/team", components.Outline, g.Text("Team")),
					components.ButtonLink("/settings/organization", components.Outline, g.Text("Organization")),
				),
			),
		),
	)
}

// NotFound is the 404 page.
func NotFound(p view.Page) g.Node {
	return layouts.Root(p,
		Main(
			Class("flex min-h-screen flex-col items-center justify-center gap-4 px-4 text-center"),
			P(Class("text-6xl font-bold text-gray-300"), g.Text("404")),
			H1(Class("text-2xl font-semibold"), g.Text("Page not found")),
			P(Class("text-gray-500"), g.Text("The page you're looking for doesn't exist or has moved.")),
			components.ButtonLink("/", components.Primary, g.Text("Go home")),
		),
	)
}
