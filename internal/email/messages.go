package email

import (
	"fmt"
	"html"

	"github.com/nfrund/opin/internal/domain"
)

// Message is a rendered email ready for an EmailSender.
type Message struct {
	Subject string
	HTML    string
}

// LinkMessage renders the email that carries a one-time confirm link.
func LinkMessage(otpType domain.OTPType, link string) Message {
	href := html.EscapeString(link)
	switch otpType {
	case domain.OTPRecovery:
		return Message{
			Subject: "Reset your password",
			HTML:    fmt.Sprintf(`<p>Follow this link to reset the password for your account:</p><p><a href="%s">Reset password</a></p>`, href),
		}
	case domain.OTPInvite:
		return Message{
			Subject: "You have been invited",
			HTML:    fmt.Sprintf(`<p>You have been invited to Opin. Follow this link to set up your account:</p><p><a href="%s">Accept the invite</a></p>`, href),
		}
	default:
		return Message{
			Subject: "Confirm your signup",
			HTML:    fmt.Sprintf(`<p>Follow this link to confirm your email address:</p><p><a href="%s">Confirm your email</a></p>`, href),
		}
	}
}

// SendLink renders and sends a confirm link email.
func SendLink(sender domain.EmailSender, to string, otpType domain.OTPType, link string) error {
	msg := LinkMessage(otpType, link)
	if err := sender.Send(to, msg.Subject, msg.HTML); err != nil {
		return fmt.Errorf("send %s email: %w", otpType, err)
	}
	return nil
}
