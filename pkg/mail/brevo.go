package mail

import (
	"context"
	"encoding/json"
)

// DefaultBrevoEndpoint is Brevo's transactional email API.
const DefaultBrevoEndpoint = "https://api.brevo.com/v3/smtp/email"

type brevoAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type brevoEmail struct {
	Sender      brevoAddress   `json:"sender"`
	To          []brevoAddress `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
	TextContent string         `json:"textContent,omitempty"`
}

type brevoMailer struct {
	client *apiClient
}

// NewBrevoMailer returns a Mailer backed by the Brevo transactional API.
func NewBrevoMailer(settings APISettings, opts ...APIOption) (Mailer, error) {
	client, err := newAPIClient(ProviderBrevo, DefaultBrevoEndpoint, settings, opts...)
	if err != nil {
		return nil, err
	}
	return &brevoMailer{client: client}, nil
}

func (m *brevoMailer) Provider() string { return ProviderBrevo }

func (m *brevoMailer) Send(ctx context.Context, msg Message) (Receipt, error) {
	msg, err := prepare(ProviderBrevo, msg, m.client.settings.From, m.client.settings.FromName)
	if err != nil {
		return Receipt{}, err
	}

	payload := brevoEmail{
		Sender:      brevoAddress{Email: msg.From, Name: msg.FromName},
		Subject:     msg.Subject,
		HTMLContent: msg.HTMLBody,
		TextContent: msg.TextBody,
	}
	for _, rcpt := range msg.To {
		payload.To = append(payload.To, brevoAddress{Email: rcpt})
	}

	_, raw, err := m.client.postJSON(ctx, payload, map[string]string{"api-key": m.client.settings.APIKey})
	if err != nil {
		return Receipt{}, err
	}

	var accepted struct {
		MessageID string `json:"messageId"`
	}
	_ = json.Unmarshal(raw, &accepted)
	return Receipt{Provider: ProviderBrevo, MessageID: accepted.MessageID}, nil
}
