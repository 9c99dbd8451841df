package notification

import (
	"bytes"
	"context"
	"crypto/tls"
	"embed"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/sharath018/campus-events-backend/config"
)

//go:embed templates/email.html
var templateFS embed.FS

var emailTemplate = template.Must(template.ParseFS(templateFS, "templates/email.html"))

// renderEmail wraps a plain subject and body into the HTML layout.
func renderEmail(subject, body string) (string, error) {
	var out bytes.Buffer
	if err := emailTemplate.Execute(&out, map[string]string{
		"Subject": subject,
		"Body":    body,
	}); err != nil {
		return "", fmt.Errorf("render email template: %w", err)
	}
	return out.String(), nil
}

// SMTPChannel delivers email through an SMTP relay with STARTTLS.
type SMTPChannel struct {
	Host     string
	Port     string
	Username string
	Password string
	FromName string
	FromAddr string
	log      zerolog.Logger
}

func NewSMTPChannel(cfg *config.Config, log zerolog.Logger) *SMTPChannel {
	return &SMTPChannel{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		FromName: cfg.SMTPFromName,
		FromAddr: cfg.SMTPFromEmail,
		log:      log.With().Str("channel", "smtp").Logger(),
	}
}

func (e *SMTPChannel) Send(ctx context.Context, to []string, subject, body string) error {
	if len(to) == 0 {
		return nil
	}
	html, err := renderEmail(subject, body)
	if err != nil {
		return err
	}

	headers := []string{
		fmt.Sprintf("From: %s <%s>", e.FromName, e.FromAddr),
		"To: " + strings.Join(to, ", "),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		`Content-Type: text/html; charset="UTF-8"`,
	}
	message := []byte(strings.Join(headers, "\r\n") + "\r\n\r\n" + html)

	addr := e.Host + ":" + e.Port
	if err := e.sendMailWithTLS(ctx, addr, to, message); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	e.log.Debug().Strs("to", to).Str("subject", subject).Msg("📧 email sent")
	return nil
}

func (e *SMTPChannel) sendMailWithTLS(ctx context.Context, addr string, to []string, message []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to dial SMTP server: %w", err)
	}
	defer client.Close()

	if err = client.StartTLS(&tls.Config{ServerName: e.Host, MinVersion: tls.VersionTLS12}); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}

	if e.Username != "" {
		auth := smtp.PlainAuth("", e.Username, e.Password, e.Host)
		if err = client.Auth(auth); err != nil {
			return fmt.Errorf("authentication failed: %w", err)
		}
	}

	if err = client.Mail(e.FromAddr); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	for _, recipient := range to {
		if err = client.Rcpt(recipient); err != nil {
			return fmt.Errorf("failed to set recipient %s: %w", recipient, err)
		}
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err = writer.Write(message); err != nil {
		writer.Close()
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err = writer.Close(); err != nil {
		return fmt.Errorf("failed to close writer: %w", err)
	}
	return client.Quit()
}
