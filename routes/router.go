package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/binify/binify/config"
	"github.com/binify/binify/controllers"
	"github.com/binify/binify/middleware"
	"github.com/binify/binify/services"
	"github.com/binify/binify/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB, bins *services.BinService, interactions *services.InteractionService, search *services.SearchService) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		// fallback to default recovery if logger failed to init
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}

	r.Use(cors.New(corsCfg))
	// Anonymous view dedup hangs off this cookie
	r.Use(middleware.SessionKey())

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController(db)
	binController := controllers.NewBinController(db, bins, interactions, search, utils.Sugar)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)

	binsGroup := api.Group("/bins")
	binsGroup.GET("", binController.List)
	binsGroup.GET("/popular", binController.Popular)
	binsGroup.GET("/search", binController.Search)
	binsGroup.GET("/:hash", middleware.AuthOptional(), binController.Get)
	binsGroup.GET("/:hash/raw", middleware.AuthOptional(), binController.Raw)
	binsGroup.GET("/:hash/comments", binController.ListComments)
	binsGroup.GET("/:hash/stats", binController.Stats)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware())
	protected.POST("/bins", binController.Create)
	protected.PUT("/bins/:hash", binController.Update)
	protected.DELETE("/bins/:hash", binController.Delete)
	protected.POST("/bins/bulk-delete", binController.BulkDelete)
	protected.POST("/bins/:hash/like", binController.Like)
	protected.POST("/bins/:hash/comments", binController.CreateComment)
	protected.DELETE("/comments/:id", binController.DeleteComment)
	protected.GET("/users/me/bins", binController.MyBins)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
