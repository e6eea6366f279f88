package models

import (
	"time"

	"gorm.io/datatypes"
)

// Email log statuses.
const (
	EmailStatusSent   = "sent"
	EmailStatusFailed = "failed"
)

// EmailTypeExpiry is the email type of deadline reminders.
const EmailTypeExpiry = "expiry_notification"

// EmailLog records one send attempt. Rows are append-only.
type EmailLog struct {
	BaseModel

	UserID         string         `gorm:"type:varchar(36);not null;index" json:"user_id"`
	NotificationID string         `gorm:"type:varchar(36);not null;index" json:"notification_id"`
	EmailType      string         `gorm:"type:varchar(50);not null" json:"email_type"`
	RecipientEmail string         `gorm:"type:varchar(255);not null" json:"recipient_email"`
	Status         string         `gorm:"type:varchar(20);not null" json:"status"`
	ErrorMessage   *string        `gorm:"type:text" json:"error_message"`
	EmailStage     string         `gorm:"type:varchar(20);not null" json:"email_stage"`
	Provider       string         `gorm:"type:varchar(20)" json:"provider"`
	MessageID      string         `gorm:"type:varchar(255)" json:"message_id"`
	Metadata       datatypes.JSON `json:"metadata"`
	SentAt         time.Time      `gorm:"not null;index" json:"sent_at"`
}
