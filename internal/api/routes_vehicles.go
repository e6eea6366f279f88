package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/abordo/internal/handlers"
)

func registerVehicleRoutes(api *gin.RouterGroup, vehicles *handlers.VehicleHandler, records *handlers.RecordHandler) {
	group := api.Group("/vehicles")
	{
		group.GET("", vehicles.List)
		group.POST("", vehicles.Create)
		group.GET("/:id", vehicles.Get)
		group.PUT("/:id", vehicles.Update)
		group.DELETE("/:id", vehicles.Delete)

		group.GET("/:id/insurances", records.ListInsurances)
		group.POST("/:id/insurances", records.CreateInsurance)
		group.PUT("/:id/insurances/:recordId", records.UpdateInsurance)
		group.DELETE("/:id/insurances/:recordId", records.DeleteInsurance)

		group.GET("/:id/taxes", records.ListTaxes)
		group.POST("/:id/taxes", records.CreateTax)
		group.PUT("/:id/taxes/:recordId", records.UpdateTax)
		group.DELETE("/:id/taxes/:recordId", records.DeleteTax)

		group.GET("/:id/inspections", records.ListInspections)
		group.POST("/:id/inspections", records.CreateInspection)
		group.PUT("/:id/inspections/:recordId", records.UpdateInspection)
		group.DELETE("/:id/inspections/:recordId", records.DeleteInspection)

		group.GET("/:id/services", records.ListServices)
		group.POST("/:id/services", records.CreateService)
		group.PUT("/:id/services/:recordId", records.UpdateService)
		group.DELETE("/:id/services/:recordId", records.DeleteService)

		group.GET("/:id/maintenances", records.ListMaintenances)
		group.POST("/:id/maintenances", records.CreateMaintenance)
		group.PUT("/:id/maintenances/:recordId", records.UpdateMaintenance)
		group.DELETE("/:id/maintenances/:recordId", records.DeleteMaintenance)
	}
}
