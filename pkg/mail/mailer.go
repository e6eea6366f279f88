package mail

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
)

// ErrEmailDisabled signals that outbound delivery is switched off via configuration.
var ErrEmailDisabled = errors.New("mail: delivery disabled")

// Provider names accepted by configuration.
const (
	ProviderSMTP     = "smtp"
	ProviderSendGrid = "sendgrid"
	ProviderBrevo    = "brevo"
	ProviderDisabled = "disabled"
)

// Message represents an outbound email. HTMLBody is required; TextBody is sent as
// the plain-text alternative when present.
type Message struct {
	From     string
	FromName string
	To       []string
	Subject  string
	HTMLBody string
	TextBody string
}

// Receipt identifies an accepted message at the provider.
type Receipt struct {
	Provider  string
	MessageID string
}

// Mailer sends email messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) (Receipt, error)
}

// Named is implemented by mailers that can report their provider name.
type Named interface {
	Provider() string
}

// ProviderName returns the provider of m, or "unknown".
func ProviderName(m Mailer) string {
	if named, ok := m.(Named); ok {
		return named.Provider()
	}
	return "unknown"
}

// TransportError is returned when a provider rejects or fails to accept a message.
type TransportError struct {
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Message, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Provider, e.Message)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

type disabledMailer struct{}

// NewDisabledMailer returns a Mailer that refuses every message with ErrEmailDisabled.
func NewDisabledMailer() Mailer { return disabledMailer{} }

func (disabledMailer) Send(context.Context, Message) (Receipt, error) {
	return Receipt{}, ErrEmailDisabled
}

func (disabledMailer) Provider() string { return ProviderDisabled }

// prepare fills the sender, validates addresses and deduplicates recipients.
func prepare(provider string, msg Message, defaultFrom, defaultName string) (Message, error) {
	msg.To = uniqueAddresses(msg.To)
	if len(msg.To) == 0 {
		return msg, &TransportError{Provider: provider, Message: "at least one recipient is required"}
	}

	msg.From = strings.TrimSpace(msg.From)
	if msg.From == "" {
		msg.From = defaultFrom
	}
	if msg.FromName == "" {
		msg.FromName = defaultName
	}
	if msg.From == "" {
		return msg, &TransportError{Provider: provider, Message: "sender address is required"}
	}
	if _, err := mail.ParseAddress(msg.From); err != nil {
		return msg, &TransportError{Provider: provider, Message: "invalid from address", Err: err}
	}
	for _, rcpt := range msg.To {
		if _, err := mail.ParseAddress(rcpt); err != nil {
			return msg, &TransportError{Provider: provider, Message: fmt.Sprintf("invalid recipient address %q", rcpt), Err: err}
		}
	}
	msg.Subject = escapeHeader(msg.Subject)
	return msg, nil
}

func uniqueAddresses(addresses []string) []string {
	seen := make(map[string]struct{}, len(addresses))
	var result []string
	for _, addr := range addresses {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		key := strings.ToLower(addr)
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, addr)
	}
	return result
}

func escapeHeader(value string) string {
	value = strings.ReplaceAll(value, "\r", " ")
	value = strings.ReplaceAll(value, "\n", " ")
	return value
}
