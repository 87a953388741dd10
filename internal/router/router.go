package router

import (
	"database/sql"

	"car_repair_backend/internal/config"
	"car_repair_backend/internal/handlers"
	"car_repair_backend/internal/middleware"
	"car_repair_backend/internal/models"
	"car_repair_backend/internal/repositories"
	"car_repair_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// Handlers bundles everything the route groups mount.
type Handlers struct {
	Auth      *handlers.AuthHandler
	Intake    *handlers.IntakeHandler
	Repair    *handlers.RepairHandler
	Cashier   *handlers.CashierHandler
	Component *handlers.ComponentHandler
	Setting   *handlers.SettingHandler
	Report    *handlers.ReportHandler
}

// Services is the wired service layer. main uses it for startup seeding.
type Services struct {
	Auth       services.AuthService
	Workflow   services.WorkflowService
	Components services.ComponentService
	Settings   services.SettingsService
	Reports    services.ReportService
}

// NewServices wires repositories and services on top of db.
func NewServices(db *sql.DB, cfg config.Config) Services {
	// Initialize Repositories
	authRepo := repositories.NewAuthRepository()
	carRepo := repositories.NewCarRepository()
	receptionRepo := repositories.NewReceptionRepository()
	repairRepo := repositories.NewRepairRepository()
	lineItemRepo := repositories.NewLineItemRepository()
	componentRepo := repositories.NewComponentRepository()
	invoiceRepo := repositories.NewInvoiceRepository()
	settingRepo := repositories.NewSettingRepository()
	reportRepo := repositories.NewReportRepository()
	txRunner := repositories.NewTxRunner(db)

	// Initialize Services
	settingsService := services.NewSettingsService(settingRepo, db, txRunner)
	stores := services.WorkflowStores{
		Cars:       carRepo,
		Receptions: receptionRepo,
		Repairs:    repairRepo,
		LineItems:  lineItemRepo,
		Components: componentRepo,
		Invoices:   invoiceRepo,
	}
	return Services{
		Auth:       services.NewAuthService(authRepo, db),
		Workflow:   services.NewWorkflowService(stores, settingsService, db, txRunner, cfg.Workflow, cfg.DefaultPhoneRegion),
		Components: services.NewComponentService(componentRepo, db, txRunner),
		Settings:   settingsService,
		Reports:    services.NewReportService(reportRepo, repairRepo, lineItemRepo, invoiceRepo, settingsService, db),
	}
}

// NewHandlers wraps the services in their HTTP handlers.
func NewHandlers(svc Services) Handlers {
	return Handlers{
		Auth:      handlers.NewAuthHandler(svc.Auth),
		Intake:    handlers.NewIntakeHandler(svc.Workflow),
		Repair:    handlers.NewRepairHandler(svc.Workflow),
		Cashier:   handlers.NewCashierHandler(svc.Workflow, svc.Reports),
		Component: handlers.NewComponentHandler(svc.Components, svc.Workflow),
		Setting:   handlers.NewSettingHandler(svc.Settings),
		Report:    handlers.NewReportHandler(svc.Reports),
	}
}

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, svc Services) {
	Mount(engine, NewHandlers(svc))
}

// Mount registers every route under /api/v1.
func Mount(engine *gin.Engine, h Handlers) {
	apiV1 := engine.Group("/api/v1")

	SetupPublicAuthRoutes(apiV1.Group("/auth"), h.Auth)

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware())
	{
		SetupAuthenticatedAuthRoutes(authenticated.Group("/auth"), h.Auth)
		SetupIntakeRoutes(authenticated, h.Intake, h.Repair)
		SetupRepairRoutes(authenticated, h.Repair)
		SetupCashierRoutes(authenticated, h.Cashier)
		SetupComponentRoutes(authenticated, h.Component)
		SetupSettingsRoutes(authenticated, h.Setting)
		SetupReportRoutes(authenticated, h.Report)
	}
}

func SetupPublicAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.POST("/login", authHandler.LoginUser)
}

func SetupAuthenticatedAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.POST("/logout", authHandler.LogoutUser)
	group.GET("/me", authHandler.GetCurrentUser)
	group.POST("/register", middleware.RoleAuthMiddleware(models.RoleAdmin), authHandler.RegisterUser)
	group.GET("/users", middleware.RoleAuthMiddleware(models.RoleAdmin), authHandler.ListUsers)
}
