package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yusufturaev707/faceid/internal/domain/services"
	"github.com/yusufturaev707/faceid/internal/domain/services/container"
	"github.com/yusufturaev707/faceid/internal/error/code"
	"github.com/yusufturaev707/faceid/internal/error/response"
	"github.com/yusufturaev707/faceid/pkg/logger"
)

// InterfaceMonitorController defines the monitor controller interface
type InterfaceMonitorController interface {
	Regions()
	Zones()
	Turnstiles()
	WebSocket()
}

// MonitorController serves the venue catalogue the monitor screens use to
// pick a turnstile, plus the live WebSocket feed
type MonitorController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewMonitorController creates a new monitor controller
func NewMonitorController(ctx *gin.Context, container *container.ServiceContainer) *MonitorController {
	return &MonitorController{
		Ctx:       ctx,
		Container: container,
	}
}

// HandleMonitorFunc returns a gin handler dispatching monitor requests
func HandleMonitorFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewMonitorController(ctx, container)

		switch method {
		case "regions":
			controller.Regions()
		case "zones":
			controller.Zones()
		case "turnstiles":
			controller.Turnstiles()
		case "websocket":
			controller.WebSocket()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "invalid method", nil)
		}
	}
}

// Regions lists all venues
// @Summary      List regions
// @Description  Returns every active venue for the monitor's region picker
// @Tags         Monitor
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /monitor/regions [get]
func (c *MonitorController) Regions() {
	regionService := c.Container.GetService("region").(services.InterfaceRegionService)

	regions, err := regionService.ListRegions()
	if err != nil {
		response.ServerError(c.Ctx)
		return
	}
	response.Success(c.Ctx, regions)
}

// Zones lists the buildings of one venue
// @Summary      List buildings
// @Description  Returns the buildings of a venue for the monitor's building picker
// @Tags         Monitor
// @Produce      json
// @Param        region_id query int true "Region ID"
// @Success      200  {object}  response.Response
// @Router       /monitor/zones [get]
func (c *MonitorController) Zones() {
	regionID, err := strconv.ParseUint(c.Ctx.Query("region_id"), 10, 32)
	if err != nil {
		response.ParamError(c.Ctx)
		return
	}

	regionService := c.Container.GetService("region").(services.InterfaceRegionService)

	zones, err := regionService.ListZones(uint(regionID))
	if err != nil {
		response.ServerError(c.Ctx)
		return
	}
	response.Success(c.Ctx, zones)
}

// Turnstiles lists the turnstiles of one building
// @Summary      List turnstiles
// @Description  Returns the turnstiles of a building for the monitor's turnstile picker
// @Tags         Monitor
// @Produce      json
// @Param        zone_id query int true "Building ID"
// @Success      200  {object}  response.Response
// @Router       /monitor/turnstiles [get]
func (c *MonitorController) Turnstiles() {
	zoneID, err := strconv.ParseUint(c.Ctx.Query("zone_id"), 10, 32)
	if err != nil {
		response.ParamError(c.Ctx)
		return
	}

	turnstileService := c.Container.GetService("turnstile").(services.InterfaceTurnstileService)

	turnstiles, err := turnstileService.ListByZone(uint(zoneID))
	if err != nil {
		response.ServerError(c.Ctx)
		return
	}
	response.Success(c.Ctx, turnstiles)
}

// WebSocket upgrades the connection to the live monitor feed
// @Summary      Monitor WebSocket
// @Description  Upgrades to a WebSocket that streams access events. The client selects a turnstile with {"action":"select_turnstile","turnstile_id":N}.
// @Tags         Monitor
// @Success      101  "Switching Protocols"
// @Router       /ws/monitor [get]
func (c *MonitorController) WebSocket() {
	broadcastService := c.Container.GetService("broadcast").(services.InterfaceBroadcastService)

	if err := broadcastService.HandleWebSocket(c.Ctx.Writer, c.Ctx.Request); err != nil {
		logger.Warning("websocket upgrade failed: %v", err)
	}
}
