package models

// User owns vehicles and receives reminder emails.
type User struct {
	BaseModel

	Email        string `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	FirstName    string `gorm:"type:varchar(100)" json:"first_name"`
	LastName     string `gorm:"type:varchar(100)" json:"last_name"`

	// EmailNotifications opts the user in to reminder emails.
	EmailNotifications bool `gorm:"not null" json:"email_notifications"`

	Vehicles  []Vehicle  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	EmailLogs []EmailLog `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}
