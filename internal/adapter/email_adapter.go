package adapter

import (
	"LykkeLoopAPI/internal/config"
	"LykkeLoopAPI/internal/helper"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/jordan-wright/email"
)

var ErrEmailDisabled = errors.New("email: smtp host not configured")

type EmailAdapter struct {
	host      string
	port      int
	user      string
	password  string
	fromEmail string
	fromName  string
}

func NewEmailAdapter(cfg *config.AppConfig) *EmailAdapter {
	if cfg.SMTPHost == "" {
		slog.Info("SMTP host not set, email notifications disabled")
	}

	return &EmailAdapter{
		host:      cfg.SMTPHost,
		port:      cfg.SMTPPort,
		user:      cfg.SMTPUser,
		password:  cfg.SMTPPassword,
		fromEmail: cfg.SMTPFromEmail,
		fromName:  cfg.SMTPFromName,
	}
}

// Enabled reports whether an SMTP relay is configured.
func (e *EmailAdapter) Enabled() bool {
	return e.host != ""
}

// Send delivers an HTML message with a plain-text alternative.
func (e *EmailAdapter) Send(ctx context.Context, to []string, subject, htmlBody, textBody string) error {
	if !e.Enabled() {
		return ErrEmailDisabled
	}

	msg := email.NewEmail()
	msg.From = fmt.Sprintf("%s <%s>", e.fromName, e.fromEmail)
	msg.To = to
	msg.Subject = subject
	msg.HTML = []byte(htmlBody)
	msg.Text = []byte(textBody)

	addr := net.JoinHostPort(e.host, strconv.Itoa(e.port))

	var auth smtp.Auth
	if e.user != "" || e.password != "" {
		auth = smtp.PlainAuth("", e.user, e.password, e.host)
	}

	operation := func() (struct{}, bool, error) {
		err := msg.SendWithStartTLS(addr, auth, &tls.Config{ServerName: e.host})
		if err != nil {
			return struct{}{}, true, err
		}
		return struct{}{}, false, nil
	}

	_, err := helper.RetryWithBackoff(ctx, operation, 3, 1*time.Second)
	return err
}
