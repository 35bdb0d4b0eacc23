// Package notifier mails the merged output to an operator.
package notifier

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/smtp"
	"os"
	"strconv"

	"github.com/jordan-wright/email"

	"vahan-scraper/internal/application/port/output"
)

var ErrMissingCredentials = errors.New("missing credentials: set SENDER_EMAIL and SENDER_PASSWORD")

const (
	defaultSubject = "Your Vahan Data Automation is Complete"
	defaultBody    = "Hello,\n\nThe Vahan automation pipeline has finished processing. Please find the merged CSV file attached.\n\nBest,\nYour Automation Pipeline"
)

var _ output.Notifier = (*EmailNotifier)(nil)

type Config struct {
	Host     string
	Port     int
	Sender   string
	Password string
	Subject  string
	Body     string
}

func DefaultConfig() Config {
	return Config{
		Host:    "smtp.gmail.com",
		Port:    465,
		Subject: defaultSubject,
		Body:    defaultBody,
	}
}

type sendFunc func(e *email.Email, addr string, auth smtp.Auth, cfg *tls.Config) error

type EmailNotifier struct {
	cfg    Config
	logger output.LoggerPort
	send   sendFunc
}

func New(cfg Config, logger output.LoggerPort) *EmailNotifier {
	return &EmailNotifier{
		cfg:    cfg,
		logger: logger,
		send:   (*email.Email).SendWithTLS,
	}
}

func (n *EmailNotifier) Send(ctx context.Context, recipient, attachment string) error {
	if n.cfg.Sender == "" || n.cfg.Password == "" {
		return ErrMissingCredentials
	}
	if _, err := os.Stat(attachment); err != nil {
		return fmt.Errorf("file not found: %s: %w", attachment, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	mail := email.NewEmail()
	mail.From = n.cfg.Sender
	mail.To = []string{recipient}
	mail.Subject = n.cfg.Subject
	mail.Text = []byte(n.cfg.Body)
	if _, err := mail.AttachFile(attachment); err != nil {
		return fmt.Errorf("attach file: %w", err)
	}

	addr := n.cfg.Host + ":" + strconv.Itoa(n.cfg.Port)
	auth := smtp.PlainAuth("", n.cfg.Sender, n.cfg.Password, n.cfg.Host)
	if err := n.send(mail, addr, auth, &tls.Config{ServerName: n.cfg.Host}); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	n.logger.Info("Email sent", "to", recipient, "attachment", attachment)
	return nil
}
