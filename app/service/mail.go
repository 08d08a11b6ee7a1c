package service

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"github.com/vibast-solutions/ms-go-contacts/config"

	"github.com/sirupsen/logrus"
)

// Mailer delivers the confirmation message for a freshly signed-up account.
// Delivery is fire-and-forget from the caller's point of view.
type Mailer interface {
	SendConfirmation(ctx context.Context, email, username, token, baseURL string) error
}

// SMTPMailer sends confirmation mail over plain SMTP with AUTH PLAIN.
type SMTPMailer struct {
	cfg config.MailConfig
}

func NewSMTPMailer(cfg config.MailConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) SendConfirmation(ctx context.Context, email, username, token, baseURL string) error {
	addr := net.JoinHostPort(m.cfg.Host, m.cfg.Port)

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}

	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		conn.Close()
		return err
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: m.cfg.Host}); err != nil {
			return err
		}
	}

	if m.cfg.Username != "" {
		auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return err
		}
	}

	if err := client.Mail(m.cfg.From); err != nil {
		return err
	}
	if err := client.Rcpt(email); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(confirmationMessage(m.cfg.From, email, username, token, baseURL)); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	return client.Quit()
}

func confirmationMessage(from, to, username, token, baseURL string) []byte {
	link := ConfirmationLink(baseURL, token)

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	b.WriteString("Subject: Confirm your email on ContactBook\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	fmt.Fprintf(&b, "Hi %s,\r\n\r\n", username)
	b.WriteString("Please confirm your email address by opening the link below:\r\n")
	fmt.Fprintf(&b, "%s\r\n", link)
	return []byte(b.String())
}

// ConfirmationLink builds the URL the recipient opens to confirm their
// address.
func ConfirmationLink(baseURL, token string) string {
	return fmt.Sprintf("%s/api/auth/confirmed_email/%s", strings.TrimRight(baseURL, "/"), token)
}

// LogMailer stands in when no mail server is configured. It logs the
// confirmation link instead of delivering it.
type LogMailer struct{}

func (LogMailer) SendConfirmation(_ context.Context, email, _, token, baseURL string) error {
	logrus.WithFields(logrus.Fields{
		"email": email,
		"link":  ConfirmationLink(baseURL, token),
	}).Info("Mail disabled, logging confirmation link")
	return nil
}
