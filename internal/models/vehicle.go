package models

// Fuel types accepted for vehicles.
var FuelTypes = []string{"gasoline", "diesel", "hybrid", "electric", "lpg", "methane"}

// Vehicle is owned by a user and owns every deadline record.
type Vehicle struct {
	BaseModel

	UserID         string `gorm:"type:varchar(36);not null;uniqueIndex:idx_vehicle_user_plate,priority:1" json:"user_id"`
	PlateNumber    string `gorm:"type:varchar(20);not null;uniqueIndex:idx_vehicle_user_plate,priority:2" json:"plate_number"`
	Brand          string `gorm:"type:varchar(100);not null" json:"brand"`
	Model          string `gorm:"type:varchar(100);not null" json:"model"`
	Year           int    `gorm:"not null" json:"year"`
	CurrentMileage int    `gorm:"not null;default:0" json:"current_mileage"`
	FuelType       string `gorm:"type:varchar(20);not null" json:"fuel_type"`
	Notes          string `gorm:"type:text" json:"notes"`

	Insurances    []Insurance    `gorm:"foreignKey:VehicleID;constraint:OnDelete:CASCADE" json:"insurances,omitempty"`
	CarTaxes      []CarTax       `gorm:"foreignKey:VehicleID;constraint:OnDelete:CASCADE" json:"car_taxes,omitempty"`
	Inspections   []Inspection   `gorm:"foreignKey:VehicleID;constraint:OnDelete:CASCADE" json:"inspections,omitempty"`
	Services      []Service      `gorm:"foreignKey:VehicleID;constraint:OnDelete:CASCADE" json:"services,omitempty"`
	Maintenances  []Maintenance  `gorm:"foreignKey:VehicleID;constraint:OnDelete:CASCADE" json:"maintenances,omitempty"`
	Notifications []Notification `gorm:"foreignKey:VehicleID;constraint:OnDelete:CASCADE" json:"-"`
}
