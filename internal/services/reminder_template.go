package services

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/charlesng35/abordo/internal/expiry"
)

const reminderHTML = `<!DOCTYPE html>
<html lang="it">
<body style="font-family: Arial, sans-serif; color: #1f2933;">
  <h2>Ciao {{.FirstName}},</h2>
  <p>ti ricordiamo una scadenza per il tuo veicolo <strong>{{.PlateNumber}}</strong> ({{.Brand}} {{.Model}}, {{.Year}}).</p>
  <table cellpadding="6" style="border-collapse: collapse;">
    <tr><td><strong>Tipo</strong></td><td>{{.TypeLabel}}</td></tr>
    <tr><td><strong>Dettaglio</strong></td><td>{{.Message}}</td></tr>
    <tr><td><strong>Data di scadenza</strong></td><td>{{.ExpiryDate}}</td></tr>
    <tr><td><strong>Stato</strong></td><td>{{if .Expired}}scaduto da {{.Days}} giorni{{else}}{{.Days}} giorni rimanenti{{end}}</td></tr>
  </table>
  <p><a href="{{.DashboardURL}}">Apri la dashboard</a></p>
  <p style="font-size: 12px; color: #7b8794;">Ricevi questa email perché hai attivato i promemoria delle scadenze.</p>
</body>
</html>`

const reminderText = `Ciao {{.FirstName}},

scadenza per il veicolo {{.PlateNumber}} ({{.Brand}} {{.Model}}, {{.Year}}).

Tipo: {{.TypeLabel}}
Dettaglio: {{.Message}}
Data di scadenza: {{.ExpiryDate}}
Stato: {{if .Expired}}scaduto da {{.Days}} giorni{{else}}{{.Days}} giorni rimanenti{{end}}

{{.DashboardURL}}
`

var (
	reminderHTMLTemplate = template.Must(template.New("reminder_html").Parse(reminderHTML))
	reminderTextTemplate = texttemplate.Must(texttemplate.New("reminder_text").Parse(reminderText))
)

type reminderData struct {
	FirstName    string
	PlateNumber  string
	Brand        string
	Model        string
	Year         int
	TypeLabel    string
	Message      string
	ExpiryDate   string
	Days         int
	Expired      bool
	DashboardURL string
}

type renderedReminder struct {
	Subject string
	HTML    string
	Text    string
}

// reminderSubject prefixes the notification message by whether the deadline has passed.
func reminderSubject(days int, message string) string {
	if days < 0 {
		return "⏰ Scadenza scaduta: " + message
	}
	return "⚠️ Scadenza imminente: " + message
}

func renderReminder(view NotificationDTO, firstName string, year int, expiryDate time.Time, frontendURL string) (renderedReminder, error) {
	days := view.DaysUntilExpiry
	data := reminderData{
		FirstName:    defaultIfEmpty(firstName, "utente"),
		PlateNumber:  view.PlateNumber,
		Brand:        view.Brand,
		Model:        view.Model,
		Year:         year,
		TypeLabel:    TypeLabel(expiry.Kind(view.Type)),
		Message:      view.Message,
		ExpiryDate:   expiryDate.Format("02/01/2006"),
		Days:         days,
		Expired:      days < 0,
		DashboardURL: strings.TrimRight(frontendURL, "/") + "/dashboard",
	}
	if data.Expired {
		data.Days = -days
	}

	var html, text bytes.Buffer
	if err := reminderHTMLTemplate.Execute(&html, data); err != nil {
		return renderedReminder{}, fmt.Errorf("render reminder html: %w", err)
	}
	if err := reminderTextTemplate.Execute(&text, data); err != nil {
		return renderedReminder{}, fmt.Errorf("render reminder text: %w", err)
	}
	return renderedReminder{
		Subject: reminderSubject(days, view.Message),
		HTML:    html.String(),
		Text:    text.String(),
	}, nil
}
