package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "github.com/yusufturaev707/faceid/docs"
	"github.com/yusufturaev707/faceid/internal/app/controllers"
	"github.com/yusufturaev707/faceid/internal/app/middleware"
	"github.com/yusufturaev707/faceid/internal/domain/services/container"
	"github.com/yusufturaev707/faceid/internal/infrastructure/config"
)

// SetupRouter initializes and returns the configured router
func SetupRouter(db *gorm.DB, cfg *config.Config, redisClient *redis.Client) *gin.Engine {
	r := gin.Default()

	// CORS for the monitor frontend
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, Accept, Origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	serviceContainer := container.NewServiceContainer(db, cfg, redisClient)
	middleware.InitAuthMiddleware(cfg, db)

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	registerRoutes(r, serviceContainer)
	return r
}

// registerRoutes configures all API routes
func registerRoutes(
	r *gin.Engine,
	container *container.ServiceContainer,
) {
	api := r.Group("/api")
	registerDeviceRoutes(api, container)
	registerPublicRoutes(api, container)
	registerAuthenticatedRoutes(api, container)
}

// registerDeviceRoutes registers the device-facing webhook. No rate limiting
// here: a venue with forty turnstiles produces legitimate bursts and a
// dropped event is a person stuck at a door.
func registerDeviceRoutes(
	api *gin.RouterGroup,
	container *container.ServiceContainer,
) {
	api.POST("/webhook/hikvision", controllers.HandleWebhookFunc(container, "door_event"))
}

// registerPublicRoutes registers routes that need no token
func registerPublicRoutes(
	api *gin.RouterGroup,
	container *container.ServiceContainer,
) {
	public := api.Group("/")
	public.Use(middleware.IPRateLimiter(10, 20))

	public.GET("/ping", controllers.HandleHealthFunc(container, "ping"))
	public.GET("/health", controllers.HandleHealthFunc(container, "ping"))
	public.GET("/health/status", controllers.HandleHealthFunc(container, "status"))

	public.POST("/auth/login", middleware.PathRateLimiter(5, 10), controllers.HandleJWTFunc(container, "login"))

	// Monitor screens: WebSocket feed plus the cascading pickers. The
	// catalogue barely changes during an exam day, cache it.
	public.GET("/ws/monitor", controllers.HandleMonitorFunc(container, "websocket"))

	monitorGroup := public.Group("/monitor")
	monitorGroup.GET("/regions", middleware.Cache(middleware.CacheConfig{Expiration: 5 * time.Minute}), controllers.HandleMonitorFunc(container, "regions"))
	monitorGroup.GET("/zones", middleware.CacheByParams(5*time.Minute, "region_id"), controllers.HandleMonitorFunc(container, "zones"))
	monitorGroup.GET("/turnstiles", middleware.CacheByParams(1*time.Minute, "zone_id"), controllers.HandleMonitorFunc(container, "turnstiles"))
}

// registerAuthenticatedRoutes registers the management API
func registerAuthenticatedRoutes(
	api *gin.RouterGroup,
	container *container.ServiceContainer,
) {
	auth := api.Group("/")
	auth.Use(middleware.AuthenticateAdmin())
	auth.Use(middleware.IPRateLimiter(30, 50))

	// Admin account routes
	adminGroup := auth.Group("/admin")
	adminGroup.GET("/profile", controllers.HandleAdminFunc(container, "profile"))
	adminGroup.PUT("/password", controllers.HandleAdminFunc(container, "change_password"))

	// Exam lifecycle and provisioning routes
	examGroup := auth.Group("/exams")
	examGroup.GET("", middleware.Cache(middleware.CacheConfig{Expiration: 30 * time.Second}), controllers.HandleExamFunc(container, "list_active"))
	examGroup.GET("/ready", middleware.Cache(middleware.CacheConfig{Expiration: 30 * time.Second}), controllers.HandleExamFunc(container, "list_ready"))
	examGroup.GET("/:id", controllers.HandleExamFunc(container, "get"))
	examGroup.POST("/:id/transition", controllers.HandleExamFunc(container, "transition"))
	examGroup.GET("/:id/turnstiles", controllers.HandleExamFunc(container, "bindings"))
	examGroup.POST("/:id/push", controllers.HandleProvisionFunc(container, "start_push"))
	examGroup.POST("/:id/push/retry", controllers.HandleProvisionFunc(container, "retry_failed"))
	examGroup.GET("/:id/push/report", controllers.HandleProvisionFunc(container, "report"))
	examGroup.GET("/:id/students", middleware.Cache(middleware.CacheConfig{Expiration: 1 * time.Minute}), controllers.HandleStudentFunc(container, "list"))
	examGroup.GET("/:id/logs", controllers.HandleAccessLogFunc(container, "student_logs"))

	auth.DELETE("/provision/runs/:run_id", controllers.HandleProvisionFunc(container, "cancel"))

	// Student routes
	studentGroup := auth.Group("/students")
	studentGroup.GET("/:id/ps-data", controllers.HandleStudentFunc(container, "ps_data"))

	// Supervisor routes
	supervisorGroup := auth.Group("/supervisors")
	supervisorGroup.GET("/logs", controllers.HandleAccessLogFunc(container, "supervisor_logs"))
	supervisorGroup.GET("/:id", controllers.HandleSupervisorFunc(container, "get"))
	supervisorGroup.POST("/:id/refresh", controllers.HandleSupervisorFunc(container, "refresh_photo"))

	// Region routes
	regionGroup := auth.Group("/regions")
	regionGroup.GET("/:region_id/supervisors", middleware.Cache(middleware.CacheConfig{Expiration: 1 * time.Minute}), controllers.HandleSupervisorFunc(container, "list"))
	regionGroup.POST("/:region_id/push-staff", controllers.HandleProvisionFunc(container, "push_staff"))

	// Turnstile fleet routes
	turnstileGroup := auth.Group("/turnstiles")
	turnstileGroup.POST("/health-sweep", controllers.HandleTurnstileFunc(container, "health_sweep"))
	turnstileGroup.GET("/:id", controllers.HandleTurnstileFunc(container, "get"))
	turnstileGroup.POST("/:id/open", controllers.HandleTurnstileFunc(container, "open_door"))
}
