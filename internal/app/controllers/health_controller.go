package controllers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yusufturaev707/faceid/internal/domain/services/container"
	"github.com/yusufturaev707/faceid/internal/error/response"
)

var startedAt = time.Now()

// HealthCheckController serves liveness and readiness probes
type HealthCheckController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewHealthCheckController creates a health check controller
func NewHealthCheckController(ctx *gin.Context, container *container.ServiceContainer) *HealthCheckController {
	return &HealthCheckController{
		Ctx:       ctx,
		Container: container,
	}
}

// HandleHealthFunc returns a gin handler dispatching health probes
func HandleHealthFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewHealthCheckController(ctx, container)

		switch method {
		case "status":
			controller.Status()
		default:
			controller.Ping()
		}
	}
}

// Ping answers liveness probes
func (h *HealthCheckController) Ping() {
	response.Success(h.Ctx, gin.H{
		"status":  "healthy",
		"message": "pong",
	})
}

// Status answers readiness probes with a database round trip
// @Summary      Service status
// @Description  Reports uptime and database connectivity
// @Tags         Health
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /health/status [get]
func (h *HealthCheckController) Status() {
	dbStatus := "up"
	sqlDB, err := h.Container.GetDB().DB()
	if err != nil || sqlDB.Ping() != nil {
		dbStatus = "down"
	}

	response.Success(h.Ctx, gin.H{
		"status":   "healthy",
		"database": dbStatus,
		"uptime":   time.Since(startedAt).String(),
	})
}
