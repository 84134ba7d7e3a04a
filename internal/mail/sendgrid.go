package mail

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

type SendGridMailer struct {
	client      *sendgrid.Client
	fromEmail   string
	fromName    string
	frontendURL string
}

func NewSendGridMailer(apiKey, fromEmail, fromName, frontendURL string) *SendGridMailer {
	return &SendGridMailer{
		client:      sendgrid.NewSendClient(apiKey),
		fromEmail:   fromEmail,
		fromName:    fromName,
		frontendURL: frontendURL,
	}
}

func (m *SendGridMailer) SendVerification(ctx context.Context, in VerificationEmail) error {
	link := VerificationLink(m.frontendURL, in.Token)

	html, err := renderVerificationHTML(in.Name, link)

	if err != nil {
		return fmt.Errorf("render verification email: %w", err)
	}

	from := sgmail.NewEmail(m.fromName, m.fromEmail)
	to := sgmail.NewEmail(in.Name, in.Email)
	subject := "Verify Your Email - Zamindar College Student Portal"

	message := sgmail.NewSingleEmail(from, subject, to, renderVerificationText(in.Name, link), html)

	resp, err := m.client.SendWithContext(ctx, message)

	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid responded %d: %s", resp.StatusCode, resp.Body)
	}

	return nil
}
