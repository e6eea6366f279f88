package mail

import "context"

// DefaultSendGridEndpoint is SendGrid's v3 mail send API.
const DefaultSendGridEndpoint = "https://api.sendgrid.com/v3/mail/send"

type sendgridAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendgridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendgridPersonalization struct {
	To []sendgridAddress `json:"to"`
}

type sendgridEmail struct {
	Personalizations []sendgridPersonalization `json:"personalizations"`
	From             sendgridAddress           `json:"from"`
	Subject          string                    `json:"subject"`
	Content          []sendgridContent         `json:"content"`
}

type sendgridMailer struct {
	client *apiClient
}

// NewSendGridMailer returns a Mailer backed by the SendGrid v3 API.
func NewSendGridMailer(settings APISettings, opts ...APIOption) (Mailer, error) {
	client, err := newAPIClient(ProviderSendGrid, DefaultSendGridEndpoint, settings, opts...)
	if err != nil {
		return nil, err
	}
	return &sendgridMailer{client: client}, nil
}

func (m *sendgridMailer) Provider() string { return ProviderSendGrid }

func (m *sendgridMailer) Send(ctx context.Context, msg Message) (Receipt, error) {
	msg, err := prepare(ProviderSendGrid, msg, m.client.settings.From, m.client.settings.FromName)
	if err != nil {
		return Receipt{}, err
	}

	personalization := sendgridPersonalization{}
	for _, rcpt := range msg.To {
		personalization.To = append(personalization.To, sendgridAddress{Email: rcpt})
	}

	// SendGrid requires text/plain to precede text/html.
	var content []sendgridContent
	if msg.TextBody != "" {
		content = append(content, sendgridContent{Type: "text/plain", Value: msg.TextBody})
	}
	content = append(content, sendgridContent{Type: "text/html", Value: msg.HTMLBody})

	payload := sendgridEmail{
		Personalizations: []sendgridPersonalization{personalization},
		From:             sendgridAddress{Email: msg.From, Name: msg.FromName},
		Subject:          msg.Subject,
		Content:          content,
	}

	headers, _, err := m.client.postJSON(ctx, payload, map[string]string{
		"Authorization": "Bearer " + m.client.settings.APIKey,
	})
	if err != nil {
		return Receipt{}, err
	}
	return Receipt{Provider: ProviderSendGrid, MessageID: headers.Get("X-Message-Id")}, nil
}
