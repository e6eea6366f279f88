package database

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/charlesng35/abordo/internal/models"
)

// AutoMigrate creates or updates the schema. Parents come before children so
// the cascading foreign keys can be created.
func AutoMigrate(db *gorm.DB) error {
	if db == nil {
		return errors.New("nil database handle")
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Vehicle{},
		&models.Insurance{},
		&models.CarTax{},
		&models.Inspection{},
		&models.Service{},
		&models.Maintenance{},
		&models.Notification{},
		&models.EmailLog{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
