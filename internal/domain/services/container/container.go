package container

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"github.com/yusufturaev707/faceid/internal/domain/services"
	"github.com/yusufturaev707/faceid/internal/infrastructure/config"
)

// ServiceContainer wires all services through dependency injection
type ServiceContainer struct {
	db     *gorm.DB
	config *config.Config
	redis  *redis.Client

	// base services
	jwtService   services.InterfaceJWTService
	redisService services.InterfaceRedisService

	// engine collaborators
	turnstileService  services.InterfaceTurnstileService
	scheduleService   services.InterfaceScheduleService
	studentService    services.InterfaceStudentService
	supervisorService services.InterfaceSupervisorService
	accessLogService  services.InterfaceAccessLogService
	broadcastService  services.InterfaceBroadcastService
	accessService     services.InterfaceAccessService

	// management services
	adminService     services.InterfaceAdminService
	examService      services.InterfaceExamService
	regionService    services.InterfaceRegionService
	identityService  services.InterfaceIdentityService
	provisionService services.InterfaceProvisionService

	mu sync.RWMutex
}

// NewServiceContainer creates the service container
func NewServiceContainer(db *gorm.DB, cfg *config.Config, redisClient *redis.Client) *ServiceContainer {
	if db == nil {
		panic("database connection is nil")
	}
	if cfg == nil {
		panic("config is nil")
	}

	if redisClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("redis ping failed: %v, caching disabled", err)
		}
	}

	container := &ServiceContainer{
		db:     db,
		config: cfg,
		redis:  redisClient,
	}
	container.initializeServices()
	return container
}

// initializeServices builds all services in dependency order
func (c *ServiceContainer) initializeServices() {
	c.mu.Lock()
	defer c.mu.Unlock()

	// base services
	c.jwtService = services.NewJWTService(c.config, c.db)
	c.redisService = services.NewRedisService(c.config)
	c.identityService = services.NewIdentityService(c.config)

	// engine collaborators
	c.turnstileService = services.NewTurnstileService(c.db, c.config)
	c.scheduleService = services.NewScheduleService(c.db)
	c.studentService = services.NewStudentService(c.db, c.config)
	c.supervisorService = services.NewSupervisorService(c.db, c.config, c.identityService, c.redisService)
	c.accessLogService = services.NewAccessLogService(c.db)
	c.broadcastService = services.NewBroadcastService(c.config)

	// MQTT leg of the broadcaster is optional at startup
	if err := c.broadcastService.Connect(); err != nil {
		log.Printf("mqtt connect failed: %v, monitor runs on websocket only", err)
	}

	c.accessService = services.NewAccessService(
		c.turnstileService,
		c.scheduleService,
		c.studentService,
		c.supervisorService,
		services.NewBarrierClient(c.config),
		c.accessLogService,
		c.broadcastService,
	)

	// management services
	c.adminService = services.NewAdminService(c.db, c.config)
	c.examService = services.NewExamService(c.db, c.config)
	c.regionService = services.NewRegionService(c.db)
	c.provisionService = services.NewProvisionService(c.db, c.config, c.examService, c.studentService, nil)
}

// GetService returns a service by name
func (c *ServiceContainer) GetService(name string) interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch name {
	case "config":
		return c.config
	case "db":
		return c.db
	case "jwt":
		return c.jwtService
	case "redis":
		return c.redisService
	case "identity":
		return c.identityService
	case "turnstile":
		return c.turnstileService
	case "schedule":
		return c.scheduleService
	case "student":
		return c.studentService
	case "supervisor":
		return c.supervisorService
	case "access_log":
		return c.accessLogService
	case "broadcast":
		return c.broadcastService
	case "access":
		return c.accessService
	case "admin":
		return c.adminService
	case "exam":
		return c.examService
	case "region":
		return c.regionService
	case "provision":
		return c.provisionService
	default:
		return nil
	}
}

// GetDB returns the raw database handle
func (c *ServiceContainer) GetDB() *gorm.DB {
	return c.db
}

// Shutdown releases long-lived connections
func (c *ServiceContainer) Shutdown() {
	c.broadcastService.Disconnect()
}
