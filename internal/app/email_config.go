package app

import (
	"fmt"
	"strings"

	"github.com/charlesng35/abordo/pkg/mail"
)

// SMTPSettings converts EmailConfig to the mail package representation.
func (c EmailConfig) SMTPSettings() mail.SMTPSettings {
	return mail.SMTPSettings{
		Host:     c.SMTP.Host,
		Port:     c.SMTP.Port,
		Username: c.SMTP.Username,
		Password: c.SMTP.Password,
		From:     c.From,
		FromName: c.FromName,
		UseTLS:   c.SMTP.UseTLS,
		Timeout:  c.SMTP.Timeout,
	}
}

func (c EmailConfig) apiSettings(api APIEmailConfig) mail.APISettings {
	return mail.APISettings{
		APIKey:   api.APIKey,
		Endpoint: api.Endpoint,
		From:     c.From,
		FromName: c.FromName,
		Timeout:  api.Timeout,
	}
}

// NewMailer builds the Mailer selected by email.provider.
func NewMailer(cfg EmailConfig) (mail.Mailer, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	switch provider {
	case "", mail.ProviderDisabled:
		return mail.NewDisabledMailer(), nil
	case mail.ProviderSMTP:
		return mail.NewSMTPMailer(cfg.SMTPSettings())
	case mail.ProviderSendGrid:
		return mail.NewSendGridMailer(cfg.apiSettings(cfg.SendGrid))
	case mail.ProviderBrevo:
		return mail.NewBrevoMailer(cfg.apiSettings(cfg.Brevo))
	default:
		return nil, fmt.Errorf("email: unsupported provider %q", cfg.Provider)
	}
}
