package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/abordo/internal/expiry"
	"github.com/charlesng35/abordo/internal/models"
	apperrors "github.com/charlesng35/abordo/pkg/errors"
	"github.com/charlesng35/abordo/pkg/logger"
	"github.com/charlesng35/abordo/pkg/validator"
)

// CreateVehicleInput captures the fields of a new vehicle.
type CreateVehicleInput struct {
	PlateNumber    string
	Brand          string
	Model          string
	Year           int
	CurrentMileage int
	FuelType       string
	Notes          string
}

// UpdateVehicleInput describes mutable vehicle fields. A nil pointer indicates no change.
type UpdateVehicleInput struct {
	PlateNumber    *string
	Brand          *string
	Model          *string
	Year           *int
	CurrentMileage *int
	FuelType       *string
	Notes          *string
}

// VehicleSummary is a vehicle with its notification counters.
type VehicleSummary struct {
	models.Vehicle
	NotificationCount   int `json:"notification_count"`
	UrgentNotifications int `json:"urgent_notifications"`
}

// MileageUrgency is the odometer based urgency of a service or maintenance job.
type MileageUrgency struct {
	RemainingKm int    `json:"remaining_km"`
	Status      string `json:"status"`
}

// ServiceDetail is a service record with its live mileage urgency.
type ServiceDetail struct {
	models.Service
	Urgency *MileageUrgency `json:"urgency,omitempty"`
}

// MaintenanceDetail is a maintenance record with its live mileage urgency.
type MaintenanceDetail struct {
	models.Maintenance
	Urgency *MileageUrgency `json:"urgency,omitempty"`
}

// VehicleDetail is a vehicle with all of its records.
type VehicleDetail struct {
	Vehicle      models.Vehicle      `json:"vehicle"`
	Insurances   []models.Insurance  `json:"insurances"`
	Taxes        []models.CarTax     `json:"taxes"`
	Inspections  []models.Inspection `json:"inspections"`
	Services     []ServiceDetail     `json:"services"`
	Maintenances []MaintenanceDetail `json:"maintenances"`
}

// VehicleService manages the vehicles of a user.
type VehicleService struct {
	db   *gorm.DB
	sync *NotificationSynchronizer
	seed bool
	now  expiry.Clock
	log  *zap.Logger
}

// VehicleOption configures a VehicleService.
type VehicleOption func(*VehicleService)

// WithVehicleClock overrides the clock used for year validation and counters.
func WithVehicleClock(now expiry.Clock) VehicleOption {
	return func(s *VehicleService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSeedNotifications creates placeholder notifications for new vehicles.
func WithSeedNotifications(enabled bool) VehicleOption {
	return func(s *VehicleService) {
		s.seed = enabled
	}
}

// NewVehicleService constructs a VehicleService. The synchronizer is required
// only when seeding is enabled.
func NewVehicleService(db *gorm.DB, sync *NotificationSynchronizer, opts ...VehicleOption) (*VehicleService, error) {
	if db == nil {
		return nil, errors.New("vehicle service: db is required")
	}
	s := &VehicleService{db: db, sync: sync, now: time.Now, log: logger.WithModule("vehicles")}
	for _, opt := range opts {
		opt(s)
	}
	if s.seed && s.sync == nil {
		return nil, errors.New("vehicle service: seeding requires a notification synchronizer")
	}
	return s, nil
}

// List returns the user's vehicles, newest first, with live notification counters.
func (s *VehicleService) List(ctx context.Context, userID string) ([]VehicleSummary, error) {
	ctx = ensureContext(ctx)

	var vehicles []models.Vehicle
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&vehicles).Error; err != nil {
		return nil, fmt.Errorf("vehicle service: list: %w", err)
	}
	if len(vehicles) == 0 {
		return []VehicleSummary{}, nil
	}

	ids := make([]string, 0, len(vehicles))
	for _, vehicle := range vehicles {
		ids = append(ids, vehicle.ID)
	}
	var rows []models.Notification
	if err := s.db.WithContext(ctx).Where("vehicle_id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("vehicle service: list notifications: %w", err)
	}

	now := s.now()
	total := make(map[string]int, len(vehicles))
	urgent := make(map[string]int, len(vehicles))
	for _, row := range rows {
		total[row.VehicleID]++
		status := liveView(row, nil, now).Status
		if status == string(expiry.StatusWarning) || status == string(expiry.StatusCritical) {
			urgent[row.VehicleID]++
		}
	}

	out := make([]VehicleSummary, 0, len(vehicles))
	for _, vehicle := range vehicles {
		out = append(out, VehicleSummary{
			Vehicle:             vehicle,
			NotificationCount:   total[vehicle.ID],
			UrgentNotifications: urgent[vehicle.ID],
		})
	}
	return out, nil
}

// Get returns a vehicle with all of its records. Services and maintenance jobs
// carry their mileage urgency computed from the current odometer.
func (s *VehicleService) Get(ctx context.Context, userID, vehicleID string) (*VehicleDetail, error) {
	ctx = ensureContext(ctx)
	vehicle, err := ownedVehicle(ctx, s.db, userID, vehicleID)
	if err != nil {
		return nil, err
	}

	detail := &VehicleDetail{Vehicle: *vehicle}
	db := s.db.WithContext(ctx).Where("vehicle_id = ?", vehicle.ID).Order("created_at DESC")
	if err := db.Find(&detail.Insurances).Error; err != nil {
		return nil, fmt.Errorf("vehicle service: load insurances: %w", err)
	}
	if err := db.Find(&detail.Taxes).Error; err != nil {
		return nil, fmt.Errorf("vehicle service: load taxes: %w", err)
	}
	if err := db.Find(&detail.Inspections).Error; err != nil {
		return nil, fmt.Errorf("vehicle service: load inspections: %w", err)
	}

	var services []models.Service
	if err := db.Find(&services).Error; err != nil {
		return nil, fmt.Errorf("vehicle service: load services: %w", err)
	}
	detail.Services = make([]ServiceDetail, 0, len(services))
	for _, svc := range services {
		detail.Services = append(detail.Services, ServiceDetail{
			Service: svc,
			Urgency: mileageUrgency(vehicle.CurrentMileage, &svc.NextServiceMileage),
		})
	}

	var maintenances []models.Maintenance
	if err := db.Find(&maintenances).Error; err != nil {
		return nil, fmt.Errorf("vehicle service: load maintenances: %w", err)
	}
	detail.Maintenances = make([]MaintenanceDetail, 0, len(maintenances))
	for _, item := range maintenances {
		detail.Maintenances = append(detail.Maintenances, MaintenanceDetail{
			Maintenance: item,
			Urgency:     mileageUrgency(vehicle.CurrentMileage, item.NextMileage),
		})
	}
	return detail, nil
}

// Create registers a vehicle for the user.
func (s *VehicleService) Create(ctx context.Context, userID string, input CreateVehicleInput) (*models.Vehicle, error) {
	ctx = ensureContext(ctx)

	vehicle := models.Vehicle{
		UserID:         userID,
		PlateNumber:    validator.NormalizePlate(input.PlateNumber),
		Brand:          strings.TrimSpace(input.Brand),
		Model:          strings.TrimSpace(input.Model),
		Year:           input.Year,
		CurrentMileage: input.CurrentMileage,
		FuelType:       strings.ToLower(strings.TrimSpace(input.FuelType)),
		Notes:          strings.TrimSpace(input.Notes),
	}
	if err := s.validate(&vehicle); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(&vehicle).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.ErrConflict.WithMessage("A vehicle with this plate number already exists")
		}
		return nil, fmt.Errorf("vehicle service: create: %w", err)
	}

	if s.seed {
		if err := s.sync.SeedVehicle(ctx, vehicle.ID); err != nil {
			s.log.Warn("seed notifications failed", zap.String("vehicle_id", vehicle.ID), zap.Error(err))
		}
	}
	return &vehicle, nil
}

// Update changes a vehicle. The odometer can only move forward.
func (s *VehicleService) Update(ctx context.Context, userID, vehicleID string, input UpdateVehicleInput) (*models.Vehicle, error) {
	ctx = ensureContext(ctx)
	vehicle, err := ownedVehicle(ctx, s.db, userID, vehicleID)
	if err != nil {
		return nil, err
	}

	previousMileage := vehicle.CurrentMileage
	if input.PlateNumber != nil {
		vehicle.PlateNumber = validator.NormalizePlate(*input.PlateNumber)
	}
	if input.Brand != nil {
		vehicle.Brand = strings.TrimSpace(*input.Brand)
	}
	if input.Model != nil {
		vehicle.Model = strings.TrimSpace(*input.Model)
	}
	if input.Year != nil {
		vehicle.Year = *input.Year
	}
	if input.CurrentMileage != nil {
		if *input.CurrentMileage < previousMileage {
			return nil, apperrors.NewBadRequest("Mileage cannot decrease below the current value")
		}
		vehicle.CurrentMileage = *input.CurrentMileage
	}
	if input.FuelType != nil {
		vehicle.FuelType = strings.ToLower(strings.TrimSpace(*input.FuelType))
	}
	if input.Notes != nil {
		vehicle.Notes = strings.TrimSpace(*input.Notes)
	}
	if err := s.validate(vehicle); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Save(vehicle).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.ErrConflict.WithMessage("A vehicle with this plate number already exists")
		}
		return nil, fmt.Errorf("vehicle service: update: %w", err)
	}
	return vehicle, nil
}

// Delete removes a vehicle; its records, notifications and email logs cascade.
func (s *VehicleService) Delete(ctx context.Context, userID, vehicleID string) error {
	ctx = ensureContext(ctx)
	result := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", vehicleID, userID).Delete(&models.Vehicle{})
	if result.Error != nil {
		return fmt.Errorf("vehicle service: delete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound.WithMessage("Vehicle not found")
	}
	return nil
}

func (s *VehicleService) validate(vehicle *models.Vehicle) error {
	switch {
	case vehicle.PlateNumber == "":
		return apperrors.NewBadRequest("Plate number is required")
	case vehicle.Brand == "" || vehicle.Model == "":
		return apperrors.NewBadRequest("Brand and model are required")
	case vehicle.Year < 1900 || vehicle.Year > s.now().Year()+1:
		return apperrors.NewBadRequest("Invalid year")
	case vehicle.CurrentMileage < 0:
		return apperrors.NewBadRequest("Mileage cannot be negative")
	case !slices.Contains(models.FuelTypes, vehicle.FuelType):
		return apperrors.NewBadRequest("Invalid fuel type")
	}
	return nil
}

// ownedVehicle loads a vehicle only when userID owns it.
func ownedVehicle(ctx context.Context, db *gorm.DB, userID, vehicleID string) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	err := db.WithContext(ctx).Where("id = ? AND user_id = ?", vehicleID, userID).Take(&vehicle).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithMessage("Vehicle not found")
		}
		return nil, fmt.Errorf("load vehicle: %w", err)
	}
	return &vehicle, nil
}

func mileageUrgency(currentKm int, dueKm *int) *MileageUrgency {
	if dueKm == nil || *dueKm <= 0 {
		return nil
	}
	remaining, status := expiry.MileageStatus(currentKm, *dueKm)
	return &MileageUrgency{RemainingKm: remaining, Status: string(status)}
}
