package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"
)

// SMTPSettings capture the runtime configuration required by the SMTP mailer.
type SMTPSettings struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	UseTLS   bool
	Timeout  time.Duration
}

type smtpSender interface {
	DialAndSend(m ...*gomail.Message) error
}

type smtpMailer struct {
	cfg    SMTPSettings
	sender smtpSender
}

// NewSMTPMailer builds a Mailer delivering through an SMTP relay.
func NewSMTPMailer(cfg SMTPSettings) (Mailer, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, errors.New("smtp: host is required")
	}
	if cfg.Port == 0 {
		return nil, errors.New("smtp: port is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	dialer.SSL = cfg.UseTLS && cfg.Port == 465
	dialer.TLSConfig = &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}

	return &smtpMailer{cfg: cfg, sender: dialer}, nil
}

func (m *smtpMailer) Provider() string { return ProviderSMTP }

func (m *smtpMailer) Send(ctx context.Context, msg Message) (Receipt, error) {
	msg, err := prepare(ProviderSMTP, msg, m.cfg.From, m.cfg.FromName)
	if err != nil {
		return Receipt{}, err
	}

	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), m.cfg.Host)
	out := gomail.NewMessage(gomail.SetCharset("UTF-8"))
	out.SetHeader("Message-ID", messageID)
	out.SetAddressHeader("From", msg.From, msg.FromName)
	out.SetHeader("To", msg.To...)
	out.SetHeader("Subject", msg.Subject)
	if msg.TextBody != "" {
		out.SetBody("text/plain", msg.TextBody)
		out.AddAlternative("text/html", msg.HTMLBody)
	} else {
		out.SetBody("text/html", msg.HTMLBody)
	}

	ctx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- m.sender.DialAndSend(out) }()

	select {
	case <-ctx.Done():
		return Receipt{}, &TransportError{Provider: ProviderSMTP, Message: "send timed out", Err: ctx.Err()}
	case err := <-done:
		if err != nil {
			return Receipt{}, &TransportError{Provider: ProviderSMTP, Message: "send failed", Err: err}
		}
	}

	return Receipt{Provider: ProviderSMTP, MessageID: messageID}, nil
}
