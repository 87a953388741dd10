package router

import (
	"car_repair_backend/internal/handlers"
	"car_repair_backend/internal/middleware"
	"car_repair_backend/internal/models"

	"github.com/gin-gonic/gin"
)

// SetupIntakeRoutes sets up the reception routes plus the technician's
// entry point that opens a repair for an intake.
func SetupIntakeRoutes(authenticatedGroup *gin.RouterGroup, intakeHandler *handlers.IntakeHandler, repairHandler *handlers.RepairHandler) {
	intakeRoutes := authenticatedGroup.Group("/intakes")
	{
		intakeRoutes.GET("", middleware.RoleAuthMiddleware(models.RoleReception), intakeHandler.ListIntakes)
		intakeRoutes.POST("", middleware.RoleAuthMiddleware(models.RoleReception), intakeHandler.CreateIntake)
		intakeRoutes.GET("/:id", middleware.RoleAuthMiddleware(models.RoleReception, models.RoleTechnician, models.RoleCashier), intakeHandler.GetIntake)
		intakeRoutes.PUT("/:id", middleware.RoleAuthMiddleware(models.RoleReception), intakeHandler.UpdateIntake)
		intakeRoutes.POST("/:id/repair", middleware.RoleAuthMiddleware(models.RoleTechnician), repairHandler.StartRepair)
	}
}

// SetupRepairRoutes sets up the technician routes.
func SetupRepairRoutes(authenticatedGroup *gin.RouterGroup, repairHandler *handlers.RepairHandler) {
	technician := middleware.RoleAuthMiddleware(models.RoleTechnician)

	authenticatedGroup.GET("/technician/board", technician, repairHandler.TechnicianBoard)

	repairRoutes := authenticatedGroup.Group("/repairs")
	{
		repairRoutes.GET("/:id", middleware.RoleAuthMiddleware(models.RoleTechnician, models.RoleCashier), repairHandler.GetRepair)
		repairRoutes.POST("/:id/items", technician, repairHandler.AddLineItem)
		repairRoutes.POST("/:id/finish", technician, repairHandler.FinishRepair)
	}

	lineItemRoutes := authenticatedGroup.Group("/line-items")
	lineItemRoutes.Use(technician)
	{
		lineItemRoutes.PUT("/:id", repairHandler.UpdateLineItem)
		lineItemRoutes.DELETE("/:id", repairHandler.DeleteLineItem)
	}
}

// SetupCashierRoutes sets up the payment desk routes.
func SetupCashierRoutes(authenticatedGroup *gin.RouterGroup, cashierHandler *handlers.CashierHandler) {
	cashier := middleware.RoleAuthMiddleware(models.RoleCashier)

	authenticatedGroup.GET("/cashier/queue", cashier, cashierHandler.CashierQueue)
	authenticatedGroup.GET("/repairs/:id/invoice", cashier, cashierHandler.InvoicePreview)
	authenticatedGroup.POST("/repairs/:id/payment", cashier, cashierHandler.ProcessPayment)
	authenticatedGroup.GET("/invoices/recent", cashier, cashierHandler.RecentInvoices)
}

// SetupComponentRoutes sets up the catalog routes. Reads are open to the
// technician, who picks parts for line items.
func SetupComponentRoutes(authenticatedGroup *gin.RouterGroup, componentHandler *handlers.ComponentHandler) {
	componentWriteRoutes := authenticatedGroup.Group("/components")
	componentWriteRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
	{
		componentWriteRoutes.POST("", componentHandler.CreateComponent)
		componentWriteRoutes.POST("/restock", componentHandler.RestockComponent)
		componentWriteRoutes.POST("/prices", componentHandler.BatchUpdatePrices)
		componentWriteRoutes.PUT("/:id", componentHandler.UpdateComponent)
		componentWriteRoutes.DELETE("/:id", componentHandler.DeleteComponent)
	}

	authenticatedGroup.GET("/components", middleware.RoleAuthMiddleware(models.RoleTechnician), componentHandler.GetComponents)
	authenticatedGroup.GET("/components/:id", middleware.RoleAuthMiddleware(models.RoleTechnician), componentHandler.GetComponentByID)
}

// SetupSettingsRoutes sets up the system settings routes.
func SetupSettingsRoutes(authenticatedGroup *gin.RouterGroup, settingHandler *handlers.SettingHandler) {
	settingsRoutes := authenticatedGroup.Group("/settings")
	settingsRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
	{
		settingsRoutes.GET("", settingHandler.GetSettings)
		settingsRoutes.PUT("", settingHandler.UpdateSettings)
	}
}

// SetupReportRoutes sets up the report routes.
func SetupReportRoutes(authenticatedGroup *gin.RouterGroup, reportHandler *handlers.ReportHandler) {
	reportRoutes := authenticatedGroup.Group("/reports")
	reportRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
	{
		reportRoutes.GET("/revenue", reportHandler.GetDailyRevenue)
		reportRoutes.GET("/vehicle-types", reportHandler.GetVehicleTypeBreakdown)
		reportRoutes.GET("/categories", reportHandler.GetCategoryBreakdown)
		reportRoutes.GET("/low-stock", reportHandler.GetLowStock)
		reportRoutes.GET("/low-stock/count", reportHandler.GetLowStockCount)
		reportRoutes.GET("/inventory", reportHandler.GetInventoryUsage)
		reportRoutes.GET("/export", reportHandler.ExportMonthlyReport)
	}
}
