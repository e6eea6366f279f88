package models

import "time"

// Source types recorded on item-scoped notifications.
const (
	SourceInsurance   = "insurance"
	SourceCarTax      = "car_tax"
	SourceInspection  = "inspection"
	SourceMaintenance = "maintenance"
)

// Insurance is a policy with a yearly expiry.
type Insurance struct {
	BaseModel

	VehicleID     string    `gorm:"type:varchar(36);not null;index" json:"vehicle_id"`
	Company       string    `gorm:"type:varchar(100);not null" json:"company"`
	PolicyNumber  string    `gorm:"type:varchar(100)" json:"policy_number"`
	CoverageType  string    `gorm:"type:varchar(50)" json:"coverage_type"`
	ExpiryDate    time.Time `gorm:"type:date;not null;index" json:"expiry_date"`
	AnnualPremium float64   `gorm:"type:decimal(10,2);not null;default:0" json:"annual_premium"`
}

// CarTax is the regional road tax ("bollo").
type CarTax struct {
	BaseModel

	VehicleID  string     `gorm:"type:varchar(36);not null;index" json:"vehicle_id"`
	ExpiryDate time.Time  `gorm:"type:date;not null;index" json:"expiry_date"`
	Amount     float64    `gorm:"type:decimal(10,2);not null;default:0" json:"amount"`
	Region     string     `gorm:"type:varchar(50)" json:"region"`
	IsPaid     bool       `gorm:"not null;default:false" json:"is_paid"`
	PaidAt     *time.Time `json:"paid_at,omitempty"`
}

// Inspection is the periodic roadworthiness test ("revisione").
type Inspection struct {
	BaseModel

	VehicleID          string     `gorm:"type:varchar(36);not null;index" json:"vehicle_id"`
	LastInspectionDate *time.Time `gorm:"type:date" json:"last_inspection_date"`
	NextInspectionDate time.Time  `gorm:"type:date;not null;index" json:"next_inspection_date"`
	InspectionCenter   string     `gorm:"type:varchar(100)" json:"inspection_center"`
	Cost               float64    `gorm:"type:decimal(10,2);not null;default:0" json:"cost"`
	Passed             bool       `gorm:"not null" json:"passed"`
	Notes              string     `gorm:"type:text" json:"notes"`
}

// Service types.
const (
	ServiceRegular = "regular"
	ServiceMajor   = "major"
)

// Service is a mileage-driven scheduled service ("tagliando"). Its urgency is
// derived from the odometer and never stored as a notification.
type Service struct {
	BaseModel

	VehicleID          string     `gorm:"type:varchar(36);not null;index" json:"vehicle_id"`
	LastServiceDate    *time.Time `gorm:"type:date" json:"last_service_date"`
	LastServiceMileage int        `gorm:"not null;default:0" json:"last_service_mileage"`
	ServiceInterval    int        `gorm:"not null;default:15000" json:"service_interval"`
	NextServiceMileage int        `gorm:"not null" json:"next_service_mileage"`
	ServiceType        string     `gorm:"type:varchar(20);not null;default:'regular'" json:"service_type"`
	Cost               float64    `gorm:"type:decimal(10,2);not null;default:0" json:"cost"`
	Notes              string     `gorm:"type:text" json:"notes"`
}

// Maintenance types.
const (
	MaintenanceOilChange = "oil_change"
	MaintenanceFilters   = "filters"
	MaintenanceBrakes    = "brakes"
	MaintenanceTires     = "tires"
	MaintenanceAdBlue    = "adblue"
	MaintenanceBelts     = "belts"
	MaintenanceOther     = "other"
)

// MaintenanceTypes lists the accepted maintenance types.
var MaintenanceTypes = []string{
	MaintenanceOilChange, MaintenanceFilters, MaintenanceBrakes, MaintenanceTires,
	MaintenanceAdBlue, MaintenanceBelts, MaintenanceOther,
}

// Maintenance is a one-off or recurring job. Either next-due field may be empty;
// clearing both marks the job done.
type Maintenance struct {
	BaseModel

	VehicleID       string     `gorm:"type:varchar(36);not null;index" json:"vehicle_id"`
	Type            string     `gorm:"type:varchar(20);not null" json:"type"`
	Title           string     `gorm:"type:varchar(150)" json:"title"`
	LastMaintenance *time.Time `gorm:"type:date" json:"last_maintenance"`
	LastMileage     *int       `json:"last_mileage"`
	NextMaintenance *time.Time `gorm:"type:date;index" json:"next_maintenance"`
	NextMileage     *int       `json:"next_mileage"`
	Cost            float64    `gorm:"type:decimal(10,2);not null;default:0" json:"cost"`
	Description     string     `gorm:"type:text" json:"description"`
}
