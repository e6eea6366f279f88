package models

import (
	"time"

	"github.com/charlesng35/abordo/internal/expiry"
)

// Notification is the stored projection of one deadline. Status and
// DaysUntilExpiry are snapshots from the last write; readers recompute them.
type Notification struct {
	BaseModel

	VehicleID string `gorm:"type:varchar(36);not null;uniqueIndex:idx_notification_scope,priority:1" json:"vehicle_id"`
	Type      string `gorm:"type:varchar(20);not null;uniqueIndex:idx_notification_scope,priority:2" json:"type"`
	// ScopeKey is "<source_type>:<source_id>" or "aggregate"; see expiry.Scope.
	ScopeKey   string  `gorm:"type:varchar(100);not null;uniqueIndex:idx_notification_scope,priority:3" json:"-"`
	SourceType *string `gorm:"type:varchar(20)" json:"source_type"`
	SourceID   *string `gorm:"type:varchar(36);index" json:"source_id"`

	Status          string `gorm:"type:varchar(20);not null" json:"status"`
	DaysUntilExpiry int    `gorm:"not null" json:"days_until_expiry"`
	Message         string `gorm:"type:text;not null" json:"message"`
	// Label is the sub-label used to rebuild Message, e.g. a maintenance title.
	Label      string    `gorm:"type:varchar(150)" json:"label,omitempty"`
	ExpiryDate time.Time `gorm:"type:date;not null;index" json:"expiry_date"`

	EmailSent  bool    `gorm:"not null;default:false" json:"email_sent"`
	EmailStage *string `gorm:"type:varchar(20)" json:"email_stage"`

	// ResolvedAt is set when the user marks the notification safe and cleared
	// whenever the synchronizer writes a new deadline.
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`

	EmailLogs []EmailLog `gorm:"foreignKey:NotificationID;constraint:OnDelete:CASCADE" json:"-"`
}

// Scope returns the notification's scoping variant.
func (n *Notification) Scope() expiry.Scope {
	return expiry.ScopeOf(n.SourceType, n.SourceID)
}

// StageState returns the email progress of the notification.
func (n *Notification) StageState() expiry.StageState {
	return expiry.StageStateOf(n.EmailStage)
}

// Overridden reports whether the user explicitly marked the notification safe.
func (n *Notification) Overridden() bool {
	return n.ResolvedAt != nil && n.Status == string(expiry.StatusSafe)
}
