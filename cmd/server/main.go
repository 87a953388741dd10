package main

import (
	"context"
	"net/http"
	"os"

	"car_repair_backend/internal/config"
	"car_repair_backend/internal/database"
	"car_repair_backend/internal/router"
	"car_repair_backend/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()

	// Initialize Logger
	utils.InitLogger(cfg.LogLevel, !cfg.IsProduction())

	if err := utils.ConfigureJWT(cfg.JWTSecret, cfg.JWTTTL); err != nil {
		utils.LogError(err, "Invalid JWT configuration")
		os.Exit(1)
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	db, err := database.Open(ctx, cfg.DB)
	if err != nil {
		utils.LogError(err, "Failed to connect to database")
		os.Exit(1)
	}
	defer db.Close()

	if cfg.DB.Migrate {
		if err := database.RunMigrations(db); err != nil {
			utils.LogError(err, "Failed to run migrations")
			os.Exit(1)
		}
	}

	svc := router.NewServices(db, cfg)

	if cfg.SeedDefaults {
		created, err := svc.Auth.EnsureDefaultUsers(ctx, cfg.SeedPassword)
		if err != nil {
			utils.LogError(err, "Failed to seed default users")
			os.Exit(1)
		}
		utils.LogInfo("Default users ensured", map[string]interface{}{"created": created})
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(utils.GinLogger())

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsConfig.ExposeHeaders = []string{"Content-Disposition"}
	corsConfig.AllowCredentials = true
	engine.Use(cors.New(corsConfig))

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	router.Setup(engine, svc)

	utils.LogInfo("Server starting", map[string]interface{}{"port": cfg.Port, "env": cfg.AppEnv})
	if err := engine.Run(":" + cfg.Port); err != nil {
		utils.LogError(err, "Failed to start server")
		os.Exit(1)
	}
}
