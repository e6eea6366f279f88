package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/abordo/internal/services"
	"github.com/charlesng35/abordo/pkg/response"
)

// VehicleHandler exposes the caller's vehicles.
type VehicleHandler struct {
	vehicles *services.VehicleService
}

// NewVehicleHandler constructs a VehicleHandler.
func NewVehicleHandler(vehicles *services.VehicleService) *VehicleHandler {
	return &VehicleHandler{vehicles: vehicles}
}

type createVehicleRequest struct {
	PlateNumber    string `json:"plateNumber" validate:"required,plate"`
	Brand          string `json:"brand" validate:"required,max=100"`
	Model          string `json:"model" validate:"required,max=100"`
	Year           int    `json:"year" validate:"required"`
	CurrentMileage *int   `json:"currentMileage" validate:"required,gte=0"`
	FuelType       string `json:"fuelType" validate:"required"`
	Notes          string `json:"notes" validate:"max=2000"`
}

type updateVehicleRequest struct {
	PlateNumber    *string `json:"plateNumber" validate:"omitempty,plate"`
	Brand          *string `json:"brand" validate:"omitempty,max=100"`
	Model          *string `json:"model" validate:"omitempty,max=100"`
	Year           *int    `json:"year"`
	CurrentMileage *int    `json:"currentMileage" validate:"omitempty,gte=0"`
	FuelType       *string `json:"fuelType"`
	Notes          *string `json:"notes" validate:"omitempty,max=2000"`
}

// GET /api/vehicles
func (h *VehicleHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	vehicles, err := h.vehicles.List(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, vehicles, &response.Meta{Total: len(vehicles)})
}

// GET /api/vehicles/:id
func (h *VehicleHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	detail, err := h.vehicles.Get(requestContext(c), userID, strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, detail)
}

// POST /api/vehicles
func (h *VehicleHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req createVehicleRequest
	if !bindAndValidate(c, &req) {
		return
	}

	vehicle, err := h.vehicles.Create(requestContext(c), userID, services.CreateVehicleInput{
		PlateNumber:    req.PlateNumber,
		Brand:          req.Brand,
		Model:          req.Model,
		Year:           req.Year,
		CurrentMileage: *req.CurrentMileage,
		FuelType:       req.FuelType,
		Notes:          req.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, vehicle)
}

// PUT /api/vehicles/:id
func (h *VehicleHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req updateVehicleRequest
	if !bindAndValidate(c, &req) {
		return
	}

	vehicle, err := h.vehicles.Update(requestContext(c), userID, strings.TrimSpace(c.Param("id")), services.UpdateVehicleInput{
		PlateNumber:    req.PlateNumber,
		Brand:          req.Brand,
		Model:          req.Model,
		Year:           req.Year,
		CurrentMileage: req.CurrentMileage,
		FuelType:       req.FuelType,
		Notes:          req.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, vehicle)
}

// DELETE /api/vehicles/:id
func (h *VehicleHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.vehicles.Delete(requestContext(c), userID, strings.TrimSpace(c.Param("id"))); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
