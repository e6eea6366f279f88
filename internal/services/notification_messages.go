package services

import (
	"fmt"
	"strings"

	"github.com/charlesng35/abordo/internal/expiry"
	"github.com/charlesng35/abordo/internal/models"
)

var maintenanceLabels = map[string]string{
	models.MaintenanceOilChange: "Cambio olio",
	models.MaintenanceFilters:   "Filtri",
	models.MaintenanceBrakes:    "Freni",
	models.MaintenanceTires:     "Cambio pneumatici",
	models.MaintenanceAdBlue:    "AdBlue",
	models.MaintenanceBelts:     "Cinghie",
}

var emailTypeLabels = map[expiry.Kind]string{
	expiry.KindInsurance:   "Assicurazione",
	expiry.KindTax:         "Bollo Auto",
	expiry.KindInspection:  "Revisione",
	expiry.KindService:     "Tagliando",
	expiry.KindMaintenance: "Manutenzione",
}

// MaintenanceLabel is the display name of a maintenance job: its title, or the
// name of its type.
func MaintenanceLabel(maintenanceType, title string) string {
	if title = strings.TrimSpace(title); title != "" {
		return title
	}
	if label, ok := maintenanceLabels[maintenanceType]; ok {
		return label
	}
	return "Manutenzione"
}

// TypeLabel is the display name of a notification type.
func TypeLabel(kind expiry.Kind) string {
	if label, ok := emailTypeLabels[kind]; ok {
		return label
	}
	return string(kind)
}

// BuildMessage renders the notification text for a deadline days away.
func BuildMessage(kind expiry.Kind, days int, label string) string {
	expired := days < 0
	switch kind {
	case expiry.KindInsurance:
		return pick(expired, "Assicurazione scaduta", "Assicurazione", days)
	case expiry.KindTax:
		return pick(expired, "Bollo auto scaduto", "Bollo auto", days)
	case expiry.KindInspection:
		return pick(expired, "Revisione scaduta", "Revisione", days)
	case expiry.KindMaintenance:
		if label = strings.TrimSpace(label); label != "" {
			return pick(expired, label+" scaduto", label, days)
		}
		return pick(expired, "Manutenzione scaduta", "Manutenzione", days)
	default:
		if expired {
			return "Scadenza superata"
		}
		return fmt.Sprintf("Scadenza tra %d giorni", days)
	}
}

func pick(expired bool, past, subject string, days int) string {
	if expired {
		return past
	}
	return fmt.Sprintf("%s in scadenza tra %d giorni", subject, days)
}
