package email

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	resendEndpoint = "https://api.resend.com/emails"
	defaultFrom    = "Opin <onboarding@resend.dev>"
)

// LogSender writes emails to the log instead of sending them. Confirm links
// can be copied from there during development.
type LogSender struct {
	from string
}

func (s *LogSender) Send(to, subject, htmlBody string) error {
	slog.Info("Email not sent (log provider)",
		"from", s.from,
		"to", to,
		"subject", subject,
		"body", htmlBody,
	)
	return nil
}

// ResendSender sends emails through the Resend API.
type ResendSender struct {
	apiKey   string
	from     string
	endpoint string
	client   *http.Client
}

// NewResendSender creates a sender. An empty from uses Resend's onboarding
// address, an empty endpoint the public API and a nil client a 10s timeout.
func NewResendSender(apiKey, from, endpoint string, client *http.Client) *ResendSender {
	if from == "" {
		from = defaultFrom
	}
	if endpoint == "" {
		endpoint = resendEndpoint
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &ResendSender{apiKey: apiKey, from: from, endpoint: endpoint, client: client}
}

type resendPayload struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

func (s *ResendSender) Send(to, subject, htmlBody string) error {
	body, err := json.Marshal(resendPayload{From: s.from, To: to, Subject: subject, HTML: htmlBody})
	if err != nil {
		return fmt.Errorf("marshal resend payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create resend request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send to resend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("resend API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	slog.Info("Email sent via Resend", "to", to, "subject", subject)
	return nil
}
