// Package notify sends account emails through Resend.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

var welcomeTemplate = template.Must(template.New("welcome").Parse(`<p>¡Hola, {{.Username}}!</p>
<p>Ya tienes una cuenta en Devocional. Entra con tu email <strong>{{.Email}}</strong> para leer el devocional de cada día.</p>
{{if .LoginURL}}<p><a href="{{.LoginURL}}">Entrar</a></p>{{end}}`))

// WelcomeHTML renders the welcome message body.
func WelcomeHTML(email, username, loginURL string) (string, error) {
	var buf bytes.Buffer
	err := welcomeTemplate.Execute(&buf, struct{ Email, Username, LoginURL string }{email, username, loginURL})
	return buf.String(), err
}

// ResendMailer sends welcome emails via the Resend API.
type ResendMailer struct {
	client   *resend.Client
	from     string
	loginURL string
	logger   *slog.Logger
}

// NewResendMailer returns a mailer sending from the given address.
func NewResendMailer(apiKey, from, loginURL string, logger *slog.Logger) *ResendMailer {
	return &ResendMailer{client: resend.NewClient(apiKey), from: from, loginURL: loginURL, logger: logger}
}

// SendWelcome emails a new account holder.
func (m *ResendMailer) SendWelcome(ctx context.Context, email, username string) error {
	body, err := WelcomeHTML(email, username, m.loginURL)
	if err != nil {
		return err
	}
	sent, err := m.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{email},
		Subject: "Bienvenido a Devocional",
		Html:    body,
	})
	if err != nil {
		m.logger.Error("resend_send_failed", slog.Any("error", err), slog.String("to", email))
		return fmt.Errorf("resend send failed: %w", err)
	}
	m.logger.Info("resend_sent", slog.String("message_id", sent.Id), slog.String("to", email))
	return nil
}
