package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/abordo/internal/services"
	"github.com/charlesng35/abordo/pkg/response"
)

// RecordHandler exposes the deadline records nested under a vehicle.
type RecordHandler struct {
	records *services.RecordService
}

// NewRecordHandler constructs a RecordHandler.
func NewRecordHandler(records *services.RecordService) *RecordHandler {
	return &RecordHandler{records: records}
}

type recordPath struct {
	userID    string
	vehicleID string
	recordID  string
}

func resolveRecordPath(c *gin.Context) (recordPath, bool) {
	userID, ok := currentUserID(c)
	if !ok {
		return recordPath{}, false
	}
	return recordPath{
		userID:    userID,
		vehicleID: strings.TrimSpace(c.Param("id")),
		recordID:  strings.TrimSpace(c.Param("recordId")),
	}, true
}

func listRecords[T any](c *gin.Context, list func(ctx context.Context, userID, vehicleID string) ([]T, error)) {
	path, ok := resolveRecordPath(c)
	if !ok {
		return
	}
	items, err := list(requestContext(c), path.userID, path.vehicleID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, items, &response.Meta{Total: len(items)})
}

func deleteRecord(c *gin.Context, remove func(ctx context.Context, userID, vehicleID, recordID string) error) {
	path, ok := resolveRecordPath(c)
	if !ok {
		return
	}
	if err := remove(requestContext(c), path.userID, path.vehicleID, path.recordID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

func respondRecord(c *gin.Context, status int, record any, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, status, record)
}

// Insurance

type createInsuranceRequest struct {
	Company       string  `json:"company" validate:"required,max=255"`
	PolicyNumber  string  `json:"policyNumber" validate:"max=100"`
	CoverageType  string  `json:"coverageType" validate:"max=100"`
	ExpiryDate    string  `json:"expiryDate" validate:"required,date"`
	AnnualPremium float64 `json:"annualPremium" validate:"gte=0"`
}

type updateInsuranceRequest struct {
	Company       *string  `json:"company" validate:"omitempty,max=255"`
	PolicyNumber  *string  `json:"policyNumber" validate:"omitempty,max=100"`
	CoverageType  *string  `json:"coverageType" validate:"omitempty,max=100"`
	ExpiryDate    *string  `json:"expiryDate" validate:"omitempty,date"`
	AnnualPremium *float64 `json:"annualPremium" validate:"omitempty,gte=0"`
}

// GET /api/vehicles/:id/insurances
func (h *RecordHandler) ListInsurances(c *gin.Context) {
	listRecords(c, h.records.ListInsurances)
}

// POST /api/vehicles/:id/insurances
func (h *RecordHandler) CreateInsurance(c *gin.Context) {
	path, ok := resolveRecordPath(c)
	if !ok {
		return
	}
	var req createInsuranceRequest
	if !bindAndValidate(c, &req) {
		return
	}
	expiry, err := dateParam(req.ExpiryDate)
	if err != nil {
		response.Error(c, err)
		return
	}

	record, err := h.records.CreateInsurance(requestContext(c), path.userID, path.vehicleID, services.CreateInsuranceInput{
		Company:       req.Company,
		PolicyNumber:  req.PolicyNumber,
		CoverageType:  req.CoverageType,
		ExpiryDate:    expiry,
		AnnualPremium: req.AnnualPremium,
	})
	respondRecord(c, http.StatusCreated, record, err)
}

// PUT /api/vehicles/:id/insurances/:recordId
func (h *RecordHandler) UpdateInsurance(c *gin.Context) {
	path, ok := resolveRecordPath(c)
	if !ok {
		return
	}
	var req updateInsuranceRequest
	if !bindAndValidate(c, &req) {
		return
	}
	expiry, err := optionalDateParam(req.ExpiryDate)
	if err != nil {
		response.Error(c, err)
		return
	}

	record, err := h.records.UpdateInsurance(requestContext(c), path.userID, path.vehicleID, path.recordID, services.UpdateInsuranceInput{
		Company:       req.Company,
		PolicyNumber:  req.PolicyNumber,
		CoverageType:  req.CoverageType,
		ExpiryDate:    expiry,
		AnnualPremium: req.AnnualPremium,
	})
	respondRecord(c, http.StatusOK, record, err)
}

// DELETE /api/vehicles/:id/insurances/:recordId
func (h *RecordHandler) DeleteInsurance(c *gin.Context) {
	deleteRecord(c, h.records.DeleteInsurance)
}

// Road tax

type createTaxRequest struct {
	ExpiryDate string  `json:"expiryDate" validate:"required,date"`
	Amount     float64 `json:"amount" validate:"gte=0"`
	Region     string  `json:"region" validate:"max=100"`
	IsPaid     bool    `json:"isPaid"`
}

type updateTaxRequest struct {
	ExpiryDate *string  `json:"expiryDate" validate:"omitempty,date"`
	Amount     *float64 `json:"amount" validate:"omitempty,gte=0"`
	Region     *string  `json:"region" validate:"omitempty,max=100"`
	IsPaid     *bool    `json:"isPaid"`
}

// GET /api/vehicles/:id/taxes
func (h *RecordHandler) ListTaxes(c *gin.Context) {
	listRecords(c, h.records.ListTaxes)
}

// POST /api/vehicles/:id/taxes
func (h *RecordHandler) CreateTax(c *gin.Context) {
	path, ok := resolveRecordPath(c)
	if !ok {
		return
	}
	var req createTaxRequest
	if !bindAndValidate(c, &req) {
		return
	}
	expiry, err := dateParam(req.ExpiryDate)
	if err != nil {
		response.Error(c, err)
		return
	}

	record, err := h.records.CreateTax(requestContext(c), path.userID, path.vehicleID, services.CreateCarTaxInput{
		ExpiryDate: expiry,
		Amount:     req.Amount,
		Region:     req.Region,
		IsPaid:     req.IsPaid,
	})
	respondRecord(c, http.StatusCreated, record, err)
}

// PUT /api/vehicles/:id/taxes/:recordId
func (h *RecordHandler) UpdateTax(c *gin.Context) {
	path, ok := resolveRecordPath(c)
	if !ok {
		return
	}
	var req updateTaxRequest
	if !bindAndValidate(c, &req) {
		return
	}
	expiry, err := optionalDateParam(req.ExpiryDate)
	if err != nil {
		response.Error(c, err)
		return
	}

	record, err := h.records.UpdateTax(requestContext(c), path.userID, path.vehicleID, path.recordID, services.UpdateCarTaxInput{
		ExpiryDate: expiry,
		Amount:     req.Amount,
		Region:     req.Region,
		IsPaid:     req.IsPaid,
	})
	respondRecord(c, http.StatusOK, record, err)
}

// DELETE /api/vehicles/:id/taxes/:recordId
func (h *RecordHandler) DeleteTax(c *gin.Context) {
	deleteRecord(c, h.records.DeleteTax)
}

// Inspection

type createInspectionRequest struct {
	LastInspectionDate *string `json:"lastInspectionDate" validate:"omitempty,date"`
	NextInspectionDate string  `json:"nextInspectionDate" validate:"required,date"`
	InspectionCenter   string  `json:"inspectionCenter" validate:"max=255"`
	Cost               float64 `json:"cost" validate:"gte=0"`
	Passed             *bool   `json:"passed"`
	Notes              string  `json:"notes" validate:"max=2000"`
}

type updateInspectionRequest struct {
	LastInspectionDate *string  `json:"lastInspectionDate" validate:"omitempty,date"`
	NextInspectionDate *string  `json:"nextInspectionDate" validate:"omitempty,date"`
	InspectionCenter   *string  `json:"inspectionCenter" validate:"omitempty,max=255"`
	Cost               *float64 `json:"cost" validate:"omitempty,gte=0"`
	Passed             *bool    `json:"passed"`
	Notes              *string  `json:"notes" validate:"omitempty,max=2000"`
}

// GET /api/vehicles/:id/inspections
func (h *RecordHandler) ListInspections(c *gin.Context) {
	listRecords(c, h.records.ListInspections)
}

// POST /api/vehicles/:id/inspections
func (h *RecordHandler) CreateInspection(c *gin.Context) {
	path, ok := resolveRecordPath(c)
	if !ok {
		return
	}
	var req createInspectionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	last, err := optionalDateParam(req.LastInspectionDate)
	if err != nil {
		response.Error(c, err)
		return
	}
	next, err := dateParam(req.NextInspectionDate)
	if err != nil {
		response.Error(c, err)
		return
	}

	record, err := h.records.CreateInspection(requestContext(c), path.userID, path.vehicleID, services.CreateInspectionInput{
		LastInspectionDate: last,
		NextInspectionDate: next,
		InspectionCenter:   req.InspectionCenter,
		Cost:               req.Cost,
		Passed:             req.Passed,
		Notes:              req.Notes,
	})
	respondRecord(c, http.StatusCreated, record, err)
}

// PUT /api/vehicles/:id/inspections/:recordId
func (h *RecordHandler) UpdateInspection(c *gin.Context) {
	path, ok := resolveRecordPath(c)
	if !ok {
		return
	}
	var req updateInspectionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	last, err := optionalDateParam(req.LastInspectionDate)
	if err != nil {
		response.Error(c, err)
		return
	}
	next, err := optionalDateParam(req.NextInspectionDate)
	if err != nil {
		response.Error(c, err)
		return
	}

	record, err := h.records.UpdateInspection(requestContext(c), path.userID, path.vehicleID, path.recordID, services.UpdateInspectionInput{
		LastInspectionDate: last,
		NextInspectionDate: next,
		InspectionCenter:   req.InspectionCenter,
		Cost:               req.Cost,
		Passed:             req.Passed,
		Notes:              req.Notes,
	})
	respondRecord(c, http.StatusOK, record, err)
}

// DELETE /api/vehicles/:id/inspections/:recordId
func (h *RecordHandler) DeleteInspection(c *gin.Context) {
	deleteRecord(c, h.records.DeleteInspection)
}

// Service

type createServiceRequest struct {
	LastServiceDate    *string `json:"lastServiceDate" validate:"omitempty,date"`
	LastServiceMileage int     `json:"lastServiceMileage" validate:"gte=0"`
	ServiceInterval    int     `json:"serviceInterval" validate:"gte=0"`
	NextServiceMileage *int    `json:"nextServiceMileage" validate:"omitempty,gte=0"`
	ServiceType        string  `json:"serviceType" validate:"omitempty,oneof=regular major"`
	Cost               float64 `json:"cost" validate:"gte=0"`
	Notes              string  `json:"notes" validate:"max=2000"`
}

type updateServiceRequest struct {
	LastServiceDate    *string  `json:"lastServiceDate" validate:"omitempty,date"`
	LastServiceMileage *int     `json:"lastServiceMileage" validate:"omitempty,gte=0"`
	ServiceInterval    *int     `json:"serviceInterval" validate:"omitempty,gte=0"`
	NextServiceMileage *int     `json:"nextServiceMileage" validate:"omitempty,gte=0"`
	ServiceType        *string  `json:"serviceType" validate:"omitempty,oneof=regular major"`
	Cost               *float64 `json:"cost" validate:"omitempty,gte=0"`
	Notes              *string  `json:"notes" validate:"omitempty,max=2000"`
}

// GET /api/vehicles/:id/services
func (h *RecordHandler) ListServices(c *gin.Context) {
	listRecords(c, h.records.ListServices)
}

// POST /api/vehicles/:id/services
func (h *RecordHandler) CreateService(c *gin.Context) {
	path, ok := resolveRecordPath(c)
	if !ok {
		return
	}
	var req createServiceRequest
	if !bindAndValidate(c, &req) {
		return
	}
	last, err := optionalDateParam(req.LastServiceDate)
	if err != nil {
		response.Error(c, err)
		return
	}

	record, err := h.records.CreateService(requestContext(c), path.userID, path.vehicleID, services.CreateServiceInput{
		LastServiceDate:    last,
		LastServiceMileage: req.LastServiceMileage,
		ServiceInterval:    req.ServiceInterval,
		NextServiceMileage: req.NextServiceMileage,
		ServiceType:        req.ServiceType,
		Cost:               req.Cost,
		Notes:              req.Notes,
	})
	respondRecord(c, http.StatusCreated, record, err)
}

// PUT /api/vehicles/:id/services/:recordId
func (h *RecordHandler) UpdateService(c *gin.Context) {
	path, ok := resolveRecordPath(c)
	if !ok {
		return
	}
	var req updateServiceRequest
	if !bindAndValidate(c, &req) {
		return
	}
	last, err := optionalDateParam(req.LastServiceDate)
	if err != nil {
		response.Error(c, err)
		return
	}

	record, err := h.records.UpdateService(requestContext(c), path.userID, path.vehicleID, path.recordID, services.UpdateServiceInput{
		LastServiceDate:    last,
		LastServiceMileage: req.LastServiceMileage,
		ServiceInterval:    req.ServiceInterval,
		NextServiceMileage: req.NextServiceMileage,
		ServiceType:        req.ServiceType,
		Cost:               req.Cost,
		Notes:              req.Notes,
	})
	respondRecord(c, http.StatusOK, record, err)
}

// DELETE /api/vehicles/:id/services/:recordId
func (h *RecordHandler) DeleteService(c *gin.Context) {
	deleteRecord(c, h.records.DeleteService)
}

// Maintenance

type createMaintenanceRequest struct {
	Type            string  `json:"type" validate:"required"`
	Title           string  `json:"title" validate:"max=255"`
	LastMaintenance *string `json:"lastMaintenance" validate:"omitempty,date"`
	LastMileage     *int    `json:"lastMileage" validate:"omitempty,gte=0"`
	NextMaintenance *string `json:"nextMaintenance" validate:"omitempty,date"`
	NextMileage     *int    `json:"nextMileage" validate:"omitempty,gte=0"`
	Cost            float64 `json:"cost" validate:"gte=0"`
	Description     string  `json:"description" validate:"max=2000"`
}

type updateMaintenanceRequest struct {
	Type                 *string  `json:"type"`
	Title                *string  `json:"title" validate:"omitempty,max=255"`
	LastMaintenance      *string  `json:"lastMaintenance" validate:"omitempty,date"`
	LastMileage          *int     `json:"lastMileage" validate:"omitempty,gte=0"`
	NextMaintenance      *string  `json:"nextMaintenance" validate:"omitempty,date"`
	NextMileage          *int     `json:"nextMileage" validate:"omitempty,gte=0"`
	Cost                 *float64 `json:"cost" validate:"omitempty,gte=0"`
	Description          *string  `json:"description" validate:"omitempty,max=2000"`
	ClearNextMaintenance bool     `json:"clearNextMaintenance"`
	ClearNextMileage     bool     `json:"clearNextMileage"`
}

// GET /api/vehicles/:id/maintenances
func (h *RecordHandler) ListMaintenances(c *gin.Context) {
	listRecords(c, h.records.ListMaintenances)
}

// POST /api/vehicles/:id/maintenances
func (h *RecordHandler) CreateMaintenance(c *gin.Context) {
	path, ok := resolveRecordPath(c)
	if !ok {
		return
	}
	var req createMaintenanceRequest
	if !bindAndValidate(c, &req) {
		return
	}
	last, err := optionalDateParam(req.LastMaintenance)
	if err != nil {
		response.Error(c, err)
		return
	}
	next, err := optionalDateParam(req.NextMaintenance)
	if err != nil {
		response.Error(c, err)
		return
	}

	record, err := h.records.CreateMaintenance(requestContext(c), path.userID, path.vehicleID, services.CreateMaintenanceInput{
		Type:            req.Type,
		Title:           req.Title,
		LastMaintenance: last,
		LastMileage:     req.LastMileage,
		NextMaintenance: next,
		NextMileage:     req.NextMileage,
		Cost:            req.Cost,
		Description:     req.Description,
	})
	respondRecord(c, http.StatusCreated, record, err)
}

// PUT /api/vehicles/:id/maintenances/:recordId
func (h *RecordHandler) UpdateMaintenance(c *gin.Context) {
	path, ok := resolveRecordPath(c)
	if !ok {
		return
	}
	var req updateMaintenanceRequest
	if !bindAndValidate(c, &req) {
		return
	}
	last, err := optionalDateParam(req.LastMaintenance)
	if err != nil {
		response.Error(c, err)
		return
	}
	next, err := optionalDateParam(req.NextMaintenance)
	if err != nil {
		response.Error(c, err)
		return
	}

	record, err := h.records.UpdateMaintenance(requestContext(c), path.userID, path.vehicleID, path.recordID, services.UpdateMaintenanceInput{
		Type:                 req.Type,
		Title:                req.Title,
		LastMaintenance:      last,
		LastMileage:          req.LastMileage,
		NextMaintenance:      next,
		NextMileage:          req.NextMileage,
		Cost:                 req.Cost,
		Description:          req.Description,
		ClearNextMaintenance: req.ClearNextMaintenance,
		ClearNextMileage:     req.ClearNextMileage,
	})
	respondRecord(c, http.StatusOK, record, err)
}

// DELETE /api/vehicles/:id/maintenances/:recordId
func (h *RecordHandler) DeleteMaintenance(c *gin.Context) {
	deleteRecord(c, h.records.DeleteMaintenance)
}
