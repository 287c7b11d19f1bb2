package email

import (
	"errors"
	"fmt"

	"github.com/nfrund/opin/internal/config"
	"github.com/nfrund/opin/internal/domain"
)

// NewEmailService returns the sender named by EMAIL_PROVIDER.
func NewEmailService(cfg config.Provider) (domain.EmailSender, error) {
	switch p := cfg.GetEmailProvider(); p {
	case config.EmailLog:
		return &LogSender{from: cfg.GetEmailSender()}, nil
	case config.EmailResend:
		if cfg.GetEmailAPIKey() == "" {
			return nil, errors.New("EMAIL_API_KEY is required for the resend email provider")
		}
		return NewResendSender(cfg.GetEmailAPIKey(), cfg.GetEmailSender(), "", nil), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", p)
	}
}
