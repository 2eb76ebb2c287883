package services

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Mailer sends transactional email to staff. Implementations must be safe
// for concurrent use.
type Mailer interface {
	SendStaffInvite(toName, toEmail, setupURL string) error
	SendTempPassword(toName, toEmail, password string) error
}

// SendGridMailer delivers through the SendGrid v3 API.
type SendGridMailer struct {
	key  string
	from *sgmail.Email
}

func NewSendGridMailer(key, fromName, fromEmail string) *SendGridMailer {
	return &SendGridMailer{
		key:  key,
		from: sgmail.NewEmail(fromName, fromEmail),
	}
}

func (m *SendGridMailer) SendStaffInvite(toName, toEmail, setupURL string) error {
	subject := "You've been invited to the training portal"
	plain := fmt.Sprintf(
		"Hi %s,\n\nYour agency has set up a training portal account for you.\nClick the link below to choose a password and get started:\n\n%s\n\nThis link expires in 7 days.\n",
		toName, setupURL)
	html := fmt.Sprintf(
		`<p>Hi %s,</p><p>Your agency has set up a training portal account for you. <a href="%s">Choose a password</a> to get started.</p><p>This link expires in 7 days.</p>`,
		toName, setupURL)
	return m.send(toName, toEmail, subject, plain, html)
}

func (m *SendGridMailer) SendTempPassword(toName, toEmail, password string) error {
	subject := "Your temporary training portal password"
	plain := fmt.Sprintf(
		"Hi %s,\n\nA temporary password has been set on your training portal account:\n\n%s\n\nYou will be asked to change it on first login.\n",
		toName, password)
	html := fmt.Sprintf(
		`<p>Hi %s,</p><p>A temporary password has been set on your training portal account:</p><p><code>%s</code></p><p>You will be asked to change it on first login.</p>`,
		toName, password)
	return m.send(toName, toEmail, subject, plain, html)
}

func (m *SendGridMailer) send(toName, toEmail, subject, plain, html string) error {
	message := sgmail.NewSingleEmail(m.from, subject, sgmail.NewEmail(toName, toEmail), plain, html)
	res, err := sendgrid.NewSendClient(m.key).Send(message)
	if err != nil {
		slog.Error("Failed to send email", "error", err, "to", toEmail, "subject", subject)
		return err
	}
	if res.StatusCode >= http.StatusBadRequest {
		slog.Error("SendGrid rejected message", "status", res.StatusCode, "to", toEmail, "body", res.Body)
		return fmt.Errorf("sendgrid returned status %d", res.StatusCode)
	}
	slog.Info("Email sent", "to", toEmail, "subject", subject)
	return nil
}

// ConsoleMailer logs messages instead of sending them; used in development
// when no SendGrid key is configured.
type ConsoleMailer struct{}

func (ConsoleMailer) SendStaffInvite(toName, toEmail, setupURL string) error {
	slog.Info("Staff invite (console mailer)", "to", toEmail, "name", toName, "setup_url", setupURL)
	return nil
}

func (ConsoleMailer) SendTempPassword(toName, toEmail, password string) error {
	slog.Info("Temp password (console mailer)", "to", toEmail, "name", toName)
	return nil
}
