package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	apperrors "github.com/charlesng35/abordo/pkg/errors"
)

// SyncError reports a notification projection that could not be brought in
// line with its source record. The source mutation itself has succeeded.
type SyncError struct {
	Op        string
	VehicleID string
	Type      string
	Err       error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("notification sync: %s %s for vehicle %s: %v", e.Op, e.Type, e.VehicleID, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

// isUniqueConstraintError detects database uniqueness constraint violations across vendors.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr != nil && pgErr.Code == "23505" {
		return true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr != nil && myErr.Number == 1062 {
		return true
	}

	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "unique constraint") || strings.Contains(lower, "duplicate")
}

// notFound maps gorm's missing record error to the API not-found error.
func notFound(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrNotFound.WithMessage(message)
	}
	return err
}
