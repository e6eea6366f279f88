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
)

// DefaultServiceInterval is the service interval in km when none is given.
const DefaultServiceInterval = 15000

// CreateInsuranceInput captures a new insurance policy.
type CreateInsuranceInput struct {
	Company       string
	PolicyNumber  string
	CoverageType  string
	ExpiryDate    time.Time
	AnnualPremium float64
}

// UpdateInsuranceInput describes mutable insurance fields. A nil pointer indicates no change.
type UpdateInsuranceInput struct {
	Company       *string
	PolicyNumber  *string
	CoverageType  *string
	ExpiryDate    *time.Time
	AnnualPremium *float64
}

// CreateCarTaxInput captures a new road tax payment.
type CreateCarTaxInput struct {
	ExpiryDate time.Time
	Amount     float64
	Region     string
	IsPaid     bool
}

// UpdateCarTaxInput describes mutable road tax fields. A nil pointer indicates no change.
type UpdateCarTaxInput struct {
	ExpiryDate *time.Time
	Amount     *float64
	Region     *string
	IsPaid     *bool
}

// CreateInspectionInput captures a new inspection.
type CreateInspectionInput struct {
	LastInspectionDate *time.Time
	NextInspectionDate time.Time
	InspectionCenter   string
	Cost               float64
	Passed             *bool
	Notes              string
}

// UpdateInspectionInput describes mutable inspection fields. A nil pointer indicates no change.
type UpdateInspectionInput struct {
	LastInspectionDate *time.Time
	NextInspectionDate *time.Time
	InspectionCenter   *string
	Cost               *float64
	Passed             *bool
	Notes              *string
}

// CreateServiceInput captures a new scheduled service.
type CreateServiceInput struct {
	LastServiceDate    *time.Time
	LastServiceMileage int
	ServiceInterval    int
	// NextServiceMileage defaults to LastServiceMileage + ServiceInterval.
	NextServiceMileage *int
	ServiceType        string
	Cost               float64
	Notes              string
}

// UpdateServiceInput describes mutable service fields. A nil pointer indicates no change.
type UpdateServiceInput struct {
	LastServiceDate    *time.Time
	LastServiceMileage *int
	ServiceInterval    *int
	NextServiceMileage *int
	ServiceType        *string
	Cost               *float64
	Notes              *string
}

// CreateMaintenanceInput captures a new maintenance job.
type CreateMaintenanceInput struct {
	Type            string
	Title           string
	LastMaintenance *time.Time
	LastMileage     *int
	NextMaintenance *time.Time
	NextMileage     *int
	Cost            float64
	Description     string
}

// UpdateMaintenanceInput describes mutable maintenance fields. A nil pointer
// indicates no change; the Clear flags empty the next-due fields.
type UpdateMaintenanceInput struct {
	Type                 *string
	Title                *string
	LastMaintenance      *time.Time
	LastMileage          *int
	NextMaintenance      *time.Time
	NextMileage          *int
	Cost                 *float64
	Description          *string
	ClearNextMaintenance bool
	ClearNextMileage     bool
}

// RecordService manages the deadline records of a vehicle and keeps their
// notifications in sync. Notification failures are logged and never fail the
// record mutation.
type RecordService struct {
	db   *gorm.DB
	sync *NotificationSynchronizer
	now  expiry.Clock
	log  *zap.Logger
}

// RecordOption configures a RecordService.
type RecordOption func(*RecordService)

// WithRecordClock overrides the clock used for payment timestamps.
func WithRecordClock(now expiry.Clock) RecordOption {
	return func(s *RecordService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewRecordService constructs a RecordService.
func NewRecordService(db *gorm.DB, sync *NotificationSynchronizer, opts ...RecordOption) (*RecordService, error) {
	if db == nil {
		return nil, errors.New("record service: db is required")
	}
	if sync == nil {
		return nil, errors.New("record service: notification synchronizer is required")
	}
	s := &RecordService{db: db, sync: sync, now: time.Now, log: logger.WithModule("records")}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ListInsurances returns the vehicle's insurance policies, newest first.
func (s *RecordService) ListInsurances(ctx context.Context, userID, vehicleID string) ([]models.Insurance, error) {
	return listRecords[models.Insurance](ensureContext(ctx), s.db, userID, vehicleID)
}

// CreateInsurance adds an insurance policy.
func (s *RecordService) CreateInsurance(ctx context.Context, userID, vehicleID string, input CreateInsuranceInput) (*models.Insurance, error) {
	if err := requireDeadline(input.ExpiryDate, "Insurance expiry date is required"); err != nil {
		return nil, err
	}
	ctx = ensureContext(ctx)
	if _, err := ownedVehicle(ctx, s.db, userID, vehicleID); err != nil {
		return nil, err
	}
	rec := models.Insurance{
		VehicleID:     vehicleID,
		Company:       strings.TrimSpace(input.Company),
		PolicyNumber:  strings.TrimSpace(input.PolicyNumber),
		CoverageType:  strings.TrimSpace(input.CoverageType),
		ExpiryDate:    calendarDate(input.ExpiryDate),
		AnnualPremium: round2(input.AnnualPremium),
	}
	if rec.Company == "" {
		return nil, apperrors.NewBadRequest("Insurance company is required")
	}
	if err := s.create(ctx, &rec, rec.AnnualPremium); err != nil {
		return nil, err
	}
	s.syncItem(ctx, s.insuranceTarget(&rec), &rec.ExpiryDate)
	return &rec, nil
}

// UpdateInsurance changes an insurance policy.
func (s *RecordService) UpdateInsurance(ctx context.Context, userID, vehicleID, recordID string, input UpdateInsuranceInput) (*models.Insurance, error) {
	if err := requireOptionalDeadline(input.ExpiryDate, "Insurance expiry date is required"); err != nil {
		return nil, err
	}
	ctx = ensureContext(ctx)
	rec, err := ownedRecord[models.Insurance](ctx, s.db, userID, vehicleID, recordID, "Insurance not found")
	if err != nil {
		return nil, err
	}
	if input.Company != nil {
		rec.Company = strings.TrimSpace(*input.Company)
		if rec.Company == "" {
			return nil, apperrors.NewBadRequest("Insurance company is required")
		}
	}
	if input.PolicyNumber != nil {
		rec.PolicyNumber = strings.TrimSpace(*input.PolicyNumber)
	}
	if input.CoverageType != nil {
		rec.CoverageType = strings.TrimSpace(*input.CoverageType)
	}
	if input.ExpiryDate != nil {
		rec.ExpiryDate = calendarDate(*input.ExpiryDate)
	}
	if input.AnnualPremium != nil {
		rec.AnnualPremium = round2(*input.AnnualPremium)
	}
	if err := s.save(ctx, rec, rec.AnnualPremium); err != nil {
		return nil, err
	}
	s.syncItem(ctx, s.insuranceTarget(rec), &rec.ExpiryDate)
	return rec, nil
}

// DeleteInsurance removes an insurance policy.
func (s *RecordService) DeleteInsurance(ctx context.Context, userID, vehicleID, recordID string) error {
	ctx = ensureContext(ctx)
	rec, err := ownedRecord[models.Insurance](ctx, s.db, userID, vehicleID, recordID, "Insurance not found")
	if err != nil {
		return err
	}
	if err := s.remove(ctx, rec); err != nil {
		return err
	}
	s.afterDelete(ctx, s.insuranceTarget(rec))
	return nil
}

// ListTaxes returns the vehicle's road tax records, newest first.
func (s *RecordService) ListTaxes(ctx context.Context, userID, vehicleID string) ([]models.CarTax, error) {
	return listRecords[models.CarTax](ensureContext(ctx), s.db, userID, vehicleID)
}

// CreateTax adds a road tax record.
func (s *RecordService) CreateTax(ctx context.Context, userID, vehicleID string, input CreateCarTaxInput) (*models.CarTax, error) {
	if err := requireDeadline(input.ExpiryDate, "Car tax expiry date is required"); err != nil {
		return nil, err
	}
	ctx = ensureContext(ctx)
	if _, err := ownedVehicle(ctx, s.db, userID, vehicleID); err != nil {
		return nil, err
	}
	rec := models.CarTax{
		VehicleID:  vehicleID,
		ExpiryDate: calendarDate(input.ExpiryDate),
		Amount:     round2(input.Amount),
		Region:     strings.TrimSpace(input.Region),
	}
	s.markPaid(&rec, input.IsPaid)
	if err := s.create(ctx, &rec, rec.Amount); err != nil {
		return nil, err
	}
	s.syncItem(ctx, s.taxTarget(&rec), &rec.ExpiryDate)
	return &rec, nil
}

// UpdateTax changes a road tax record.
func (s *RecordService) UpdateTax(ctx context.Context, userID, vehicleID, recordID string, input UpdateCarTaxInput) (*models.CarTax, error) {
	if err := requireOptionalDeadline(input.ExpiryDate, "Car tax expiry date is required"); err != nil {
		return nil, err
	}
	ctx = ensureContext(ctx)
	rec, err := ownedRecord[models.CarTax](ctx, s.db, userID, vehicleID, recordID, "Car tax not found")
	if err != nil {
		return nil, err
	}
	if input.ExpiryDate != nil {
		rec.ExpiryDate = calendarDate(*input.ExpiryDate)
	}
	if input.Amount != nil {
		rec.Amount = round2(*input.Amount)
	}
	if input.Region != nil {
		rec.Region = strings.TrimSpace(*input.Region)
	}
	if input.IsPaid != nil {
		s.markPaid(rec, *input.IsPaid)
	}
	if err := s.save(ctx, rec, rec.Amount); err != nil {
		return nil, err
	}
	s.syncItem(ctx, s.taxTarget(rec), &rec.ExpiryDate)
	return rec, nil
}

// DeleteTax removes a road tax record.
func (s *RecordService) DeleteTax(ctx context.Context, userID, vehicleID, recordID string) error {
	ctx = ensureContext(ctx)
	rec, err := ownedRecord[models.CarTax](ctx, s.db, userID, vehicleID, recordID, "Car tax not found")
	if err != nil {
		return err
	}
	if err := s.remove(ctx, rec); err != nil {
		return err
	}
	s.afterDelete(ctx, s.taxTarget(rec))
	return nil
}

// ListInspections returns the vehicle's inspections, newest first.
func (s *RecordService) ListInspections(ctx context.Context, userID, vehicleID string) ([]models.Inspection, error) {
	return listRecords[models.Inspection](ensureContext(ctx), s.db, userID, vehicleID)
}

// CreateInspection adds an inspection.
func (s *RecordService) CreateInspection(ctx context.Context, userID, vehicleID string, input CreateInspectionInput) (*models.Inspection, error) {
	if err := requireDeadline(input.NextInspectionDate, "Next inspection date is required"); err != nil {
		return nil, err
	}
	ctx = ensureContext(ctx)
	if _, err := ownedVehicle(ctx, s.db, userID, vehicleID); err != nil {
		return nil, err
	}
	rec := models.Inspection{
		VehicleID:          vehicleID,
		LastInspectionDate: calendarDatePtr(input.LastInspectionDate),
		NextInspectionDate: calendarDate(input.NextInspectionDate),
		InspectionCenter:   strings.TrimSpace(input.InspectionCenter),
		Cost:               round2(input.Cost),
		Passed:             true,
		Notes:              strings.TrimSpace(input.Notes),
	}
	if input.Passed != nil {
		rec.Passed = *input.Passed
	}
	if err := s.create(ctx, &rec, rec.Cost); err != nil {
		return nil, err
	}
	s.syncItem(ctx, s.inspectionTarget(&rec), &rec.NextInspectionDate)
	return &rec, nil
}

// UpdateInspection changes an inspection.
func (s *RecordService) UpdateInspection(ctx context.Context, userID, vehicleID, recordID string, input UpdateInspectionInput) (*models.Inspection, error) {
	if err := requireOptionalDeadline(input.NextInspectionDate, "Next inspection date is required"); err != nil {
		return nil, err
	}
	ctx = ensureContext(ctx)
	rec, err := ownedRecord[models.Inspection](ctx, s.db, userID, vehicleID, recordID, "Inspection not found")
	if err != nil {
		return nil, err
	}
	if input.LastInspectionDate != nil {
		rec.LastInspectionDate = calendarDatePtr(input.LastInspectionDate)
	}
	if input.NextInspectionDate != nil {
		rec.NextInspectionDate = calendarDate(*input.NextInspectionDate)
	}
	if input.InspectionCenter != nil {
		rec.InspectionCenter = strings.TrimSpace(*input.InspectionCenter)
	}
	if input.Cost != nil {
		rec.Cost = round2(*input.Cost)
	}
	if input.Passed != nil {
		rec.Passed = *input.Passed
	}
	if input.Notes != nil {
		rec.Notes = strings.TrimSpace(*input.Notes)
	}
	if err := s.save(ctx, rec, rec.Cost); err != nil {
		return nil, err
	}
	s.syncItem(ctx, s.inspectionTarget(rec), &rec.NextInspectionDate)
	return rec, nil
}

// DeleteInspection removes an inspection.
func (s *RecordService) DeleteInspection(ctx context.Context, userID, vehicleID, recordID string) error {
	ctx = ensureContext(ctx)
	rec, err := ownedRecord[models.Inspection](ctx, s.db, userID, vehicleID, recordID, "Inspection not found")
	if err != nil {
		return err
	}
	if err := s.remove(ctx, rec); err != nil {
		return err
	}
	s.afterDelete(ctx, s.inspectionTarget(rec))
	return nil
}

// ListServices returns the vehicle's scheduled services, newest first.
func (s *RecordService) ListServices(ctx context.Context, userID, vehicleID string) ([]models.Service, error) {
	return listRecords[models.Service](ensureContext(ctx), s.db, userID, vehicleID)
}

// CreateService adds a scheduled service. Services are tracked by mileage and
// never produce notifications.
func (s *RecordService) CreateService(ctx context.Context, userID, vehicleID string, input CreateServiceInput) (*models.Service, error) {
	ctx = ensureContext(ctx)
	vehicle, err := ownedVehicle(ctx, s.db, userID, vehicleID)
	if err != nil {
		return nil, err
	}
	rec := models.Service{
		VehicleID:          vehicleID,
		LastServiceDate:    calendarDatePtr(input.LastServiceDate),
		LastServiceMileage: input.LastServiceMileage,
		ServiceInterval:    input.ServiceInterval,
		ServiceType:        defaultIfEmpty(strings.ToLower(strings.TrimSpace(input.ServiceType)), models.ServiceRegular),
		Cost:               round2(input.Cost),
		Notes:              strings.TrimSpace(input.Notes),
	}
	if rec.ServiceInterval <= 0 {
		rec.ServiceInterval = DefaultServiceInterval
	}
	if input.NextServiceMileage != nil {
		rec.NextServiceMileage = *input.NextServiceMileage
	} else {
		rec.NextServiceMileage = rec.LastServiceMileage + rec.ServiceInterval
	}
	if err := validateService(&rec, vehicle.CurrentMileage); err != nil {
		return nil, err
	}
	if err := s.create(ctx, &rec, rec.Cost); err != nil {
		return nil, err
	}
	return &rec, nil
}

// UpdateService changes a scheduled service.
func (s *RecordService) UpdateService(ctx context.Context, userID, vehicleID, recordID string, input UpdateServiceInput) (*models.Service, error) {
	ctx = ensureContext(ctx)
	vehicle, err := ownedVehicle(ctx, s.db, userID, vehicleID)
	if err != nil {
		return nil, err
	}
	rec, err := ownedRecord[models.Service](ctx, s.db, userID, vehicleID, recordID, "Service not found")
	if err != nil {
		return nil, err
	}
	if input.LastServiceDate != nil {
		rec.LastServiceDate = calendarDatePtr(input.LastServiceDate)
	}
	if input.LastServiceMileage != nil {
		rec.LastServiceMileage = *input.LastServiceMileage
	}
	if input.ServiceInterval != nil && *input.ServiceInterval > 0 {
		rec.ServiceInterval = *input.ServiceInterval
	}
	if input.NextServiceMileage != nil {
		rec.NextServiceMileage = *input.NextServiceMileage
	}
	if input.ServiceType != nil {
		rec.ServiceType = strings.ToLower(strings.TrimSpace(*input.ServiceType))
	}
	if input.Cost != nil {
		rec.Cost = round2(*input.Cost)
	}
	if input.Notes != nil {
		rec.Notes = strings.TrimSpace(*input.Notes)
	}
	if err := validateService(rec, vehicle.CurrentMileage); err != nil {
		return nil, err
	}
	if err := s.save(ctx, rec, rec.Cost); err != nil {
		return nil, err
	}
	return rec, nil
}

// DeleteService removes a scheduled service.
func (s *RecordService) DeleteService(ctx context.Context, userID, vehicleID, recordID string) error {
	ctx = ensureContext(ctx)
	rec, err := ownedRecord[models.Service](ctx, s.db, userID, vehicleID, recordID, "Service not found")
	if err != nil {
		return err
	}
	return s.remove(ctx, rec)
}

// ListMaintenances returns the vehicle's maintenance jobs, newest first.
func (s *RecordService) ListMaintenances(ctx context.Context, userID, vehicleID string) ([]models.Maintenance, error) {
	return listRecords[models.Maintenance](ensureContext(ctx), s.db, userID, vehicleID)
}

// CreateMaintenance adds a maintenance job.
func (s *RecordService) CreateMaintenance(ctx context.Context, userID, vehicleID string, input CreateMaintenanceInput) (*models.Maintenance, error) {
	ctx = ensureContext(ctx)
	if _, err := ownedVehicle(ctx, s.db, userID, vehicleID); err != nil {
		return nil, err
	}
	maintenanceType, err := normalizeMaintenanceType(input.Type)
	if err != nil {
		return nil, err
	}
	rec := models.Maintenance{
		VehicleID:       vehicleID,
		Type:            maintenanceType,
		Title:           strings.TrimSpace(input.Title),
		LastMaintenance: calendarDatePtr(input.LastMaintenance),
		LastMileage:     input.LastMileage,
		NextMaintenance: calendarDatePtr(input.NextMaintenance),
		NextMileage:     input.NextMileage,
		Cost:            round2(input.Cost),
		Description:     strings.TrimSpace(input.Description),
	}
	if err := s.create(ctx, &rec, rec.Cost); err != nil {
		return nil, err
	}
	s.syncItem(ctx, s.maintenanceTarget(&rec), rec.NextMaintenance)
	return &rec, nil
}

// UpdateMaintenance changes a maintenance job. Clearing the next due date
// removes the job's notification.
func (s *RecordService) UpdateMaintenance(ctx context.Context, userID, vehicleID, recordID string, input UpdateMaintenanceInput) (*models.Maintenance, error) {
	ctx = ensureContext(ctx)
	rec, err := ownedRecord[models.Maintenance](ctx, s.db, userID, vehicleID, recordID, "Maintenance not found")
	if err != nil {
		return nil, err
	}
	if input.Type != nil {
		maintenanceType, err := normalizeMaintenanceType(*input.Type)
		if err != nil {
			return nil, err
		}
		rec.Type = maintenanceType
	}
	if input.Title != nil {
		rec.Title = strings.TrimSpace(*input.Title)
	}
	if input.LastMaintenance != nil {
		rec.LastMaintenance = calendarDatePtr(input.LastMaintenance)
	}
	if input.LastMileage != nil {
		rec.LastMileage = input.LastMileage
	}
	switch {
	case input.ClearNextMaintenance:
		rec.NextMaintenance = nil
	case input.NextMaintenance != nil:
		rec.NextMaintenance = calendarDatePtr(input.NextMaintenance)
	}
	switch {
	case input.ClearNextMileage:
		rec.NextMileage = nil
	case input.NextMileage != nil:
		rec.NextMileage = input.NextMileage
	}
	if input.Cost != nil {
		rec.Cost = round2(*input.Cost)
	}
	if input.Description != nil {
		rec.Description = strings.TrimSpace(*input.Description)
	}
	if err := s.save(ctx, rec, rec.Cost); err != nil {
		return nil, err
	}
	s.syncItem(ctx, s.maintenanceTarget(rec), rec.NextMaintenance)
	return rec, nil
}

// DeleteMaintenance removes a maintenance job.
func (s *RecordService) DeleteMaintenance(ctx context.Context, userID, vehicleID, recordID string) error {
	ctx = ensureContext(ctx)
	rec, err := ownedRecord[models.Maintenance](ctx, s.db, userID, vehicleID, recordID, "Maintenance not found")
	if err != nil {
		return err
	}
	if err := s.remove(ctx, rec); err != nil {
		return err
	}
	s.afterDelete(ctx, s.maintenanceTarget(rec))
	return nil
}

func (s *RecordService) insuranceTarget(rec *models.Insurance) SyncTarget {
	return SyncTarget{VehicleID: rec.VehicleID, Kind: expiry.KindInsurance, Scope: expiry.ItemScoped(models.SourceInsurance, rec.ID)}
}

func (s *RecordService) taxTarget(rec *models.CarTax) SyncTarget {
	return SyncTarget{VehicleID: rec.VehicleID, Kind: expiry.KindTax, Scope: expiry.ItemScoped(models.SourceCarTax, rec.ID)}
}

func (s *RecordService) inspectionTarget(rec *models.Inspection) SyncTarget {
	return SyncTarget{VehicleID: rec.VehicleID, Kind: expiry.KindInspection, Scope: expiry.ItemScoped(models.SourceInspection, rec.ID)}
}

func (s *RecordService) maintenanceTarget(rec *models.Maintenance) SyncTarget {
	return SyncTarget{
		VehicleID: rec.VehicleID,
		Kind:      expiry.KindMaintenance,
		Scope:     expiry.ItemScoped(models.SourceMaintenance, rec.ID),
		Label:     MaintenanceLabel(rec.Type, rec.Title),
	}
}

func (s *RecordService) markPaid(rec *models.CarTax, paid bool) {
	switch {
	case paid && !rec.IsPaid:
		now := s.now()
		rec.PaidAt = &now
	case !paid:
		rec.PaidAt = nil
	}
	rec.IsPaid = paid
}

func (s *RecordService) create(ctx context.Context, rec any, amount float64) error {
	if amount < 0 {
		return apperrors.NewBadRequest("Amount cannot be negative")
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("record service: create: %w", err)
	}
	return nil
}

func (s *RecordService) save(ctx context.Context, rec any, amount float64) error {
	if amount < 0 {
		return apperrors.NewBadRequest("Amount cannot be negative")
	}
	if err := s.db.WithContext(ctx).Save(rec).Error; err != nil {
		return fmt.Errorf("record service: update: %w", err)
	}
	return nil
}

func (s *RecordService) remove(ctx context.Context, rec any) error {
	if err := s.db.WithContext(ctx).Delete(rec).Error; err != nil {
		return fmt.Errorf("record service: delete: %w", err)
	}
	return nil
}

// syncItem projects a record's deadline onto its notification.
func (s *RecordService) syncItem(ctx context.Context, target SyncTarget, expiryDate *time.Time) {
	if _, err := s.sync.UpsertForSource(ctx, target, expiryDate); err != nil {
		s.logSyncError("upsert", target, err)
	}
}

// afterDelete drops the record's own notification, then refreshes a legacy
// aggregated notification of the same type if the vehicle still has one.
func (s *RecordService) afterDelete(ctx context.Context, target SyncTarget) {
	if err := s.sync.DeleteForSource(ctx, target); err != nil {
		s.logSyncError("delete", target, err)
		return
	}
	hasAggregated, err := s.sync.HasAggregated(ctx, target.VehicleID, target.Kind)
	if err != nil {
		s.logSyncError("recompute", target, err)
		return
	}
	if !hasAggregated {
		return
	}
	if err := s.sync.RecomputeOrDeleteAfterDelete(ctx, target.VehicleID, target.Kind); err != nil {
		s.logSyncError("recompute", target, err)
	}
}

func (s *RecordService) logSyncError(op string, target SyncTarget, err error) {
	syncErr := &SyncError{Op: op, VehicleID: target.VehicleID, Type: string(target.Kind), Err: err}
	s.log.Warn("notification out of sync", zap.String("scope", target.Scope.Key()), zap.Error(syncErr))
}

var maintenanceTypeAliases = map[string]string{
	"oil": models.MaintenanceOilChange,
}

func normalizeMaintenanceType(value string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if alias, ok := maintenanceTypeAliases[normalized]; ok {
		normalized = alias
	}
	if !slices.Contains(models.MaintenanceTypes, normalized) {
		return "", apperrors.NewBadRequest("Invalid maintenance type")
	}
	return normalized, nil
}

func validateService(rec *models.Service, currentMileage int) error {
	switch {
	case rec.ServiceType != models.ServiceRegular && rec.ServiceType != models.ServiceMajor:
		return apperrors.NewBadRequest("Invalid service type")
	case rec.LastServiceMileage < 0:
		return apperrors.NewBadRequest("Last service mileage cannot be negative")
	case rec.LastServiceMileage > rec.NextServiceMileage:
		return apperrors.NewBadRequest("Last service mileage cannot exceed the next service mileage")
	case rec.NextServiceMileage < currentMileage:
		return apperrors.NewBadRequest("Next service mileage must not be below the current vehicle mileage")
	}
	return nil
}

func listRecords[T any](ctx context.Context, db *gorm.DB, userID, vehicleID string) ([]T, error) {
	if _, err := ownedVehicle(ctx, db, userID, vehicleID); err != nil {
		return nil, err
	}
	records := make([]T, 0)
	if err := db.WithContext(ctx).Where("vehicle_id = ?", vehicleID).Order("created_at DESC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("record service: list: %w", err)
	}
	return records, nil
}

// ownedRecord loads a record of the vehicle only when userID owns the vehicle.
func ownedRecord[T any](ctx context.Context, db *gorm.DB, userID, vehicleID, recordID, missing string) (*T, error) {
	if _, err := ownedVehicle(ctx, db, userID, vehicleID); err != nil {
		return nil, err
	}
	var rec T
	if err := db.WithContext(ctx).Where("id = ? AND vehicle_id = ?", recordID, vehicleID).Take(&rec).Error; err != nil {
		return nil, notFound(err, missing)
	}
	return &rec, nil
}
