package components

import (
	"strconv"

	"github.com/nfrund/opin/internal/captcha"
	g "maragu.dev/gomponents"
	"maragu.dev/gomponents/html"
)

// Turnstile renders the challenge widget and its error line. The widget's
// id changes with the challenge generation, which the form posts back, so a
// reset always mounts a fresh widget without a token.
func Turnstile(siteKey string, ch captcha.Challenge) g.Node {
	if siteKey == "" || ch.Disabled {
		return nil
	}
	return html.Div(
		html.Class("space-y-2"),
		html.Input(html.Type("hidden"), html.Name(captcha.GenerationField), html.Value(strconv.Itoa(ch.Generation))),
		html.Div(
			html.ID("turnstile-"+strconv.Itoa(ch.Generation)),
			html.Class("cf-turnstile flex justify-center"),
			g.Attr("data-sitekey", siteKey),
			g.Attr("data-callback", "opinCaptchaVerify"),
			g.Attr("data-error-callback", "opinCaptchaError"),
			g.Attr("data-expired-callback", "opinCaptchaExpire"),
			g.Attr("data-response-field-name", captcha.FieldName),
		),
		html.P(
			html.Class("text-center text-sm text-red-600"),
			html.Role("alert"),
			g.Attr("data-captcha-error"),
			g.Text(ch.Error),
		),
	)
}
