package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yusufturaev707/faceid/internal/domain/services"
	"github.com/yusufturaev707/faceid/internal/domain/services/container"
	"github.com/yusufturaev707/faceid/internal/error/code"
	"github.com/yusufturaev707/faceid/internal/error/response"
	"github.com/yusufturaev707/faceid/internal/infrastructure/config"
)

// InterfaceTurnstileController defines the turnstile controller interface
type InterfaceTurnstileController interface {
	Get()
	HealthSweep()
	OpenDoor()
}

// TurnstileController handles device fleet requests
type TurnstileController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewTurnstileController creates a new turnstile controller
func NewTurnstileController(ctx *gin.Context, container *container.ServiceContainer) *TurnstileController {
	return &TurnstileController{
		Ctx:       ctx,
		Container: container,
	}
}

// HandleTurnstileFunc returns a gin handler dispatching turnstile requests
func HandleTurnstileFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewTurnstileController(ctx, container)

		switch method {
		case "get":
			controller.Get()
		case "health_sweep":
			controller.HealthSweep()
		case "open_door":
			controller.OpenDoor()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "invalid method", nil)
		}
	}
}

func (c *TurnstileController) turnstileService() services.InterfaceTurnstileService {
	return c.Container.GetService("turnstile").(services.InterfaceTurnstileService)
}

// Get returns one turnstile
// @Summary      Get turnstile
// @Description  Returns a single turnstile by ID
// @Tags         Turnstile
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Turnstile ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  ErrorResponse
// @Router       /turnstiles/{id} [get]
func (c *TurnstileController) Get() {
	id, err := strconv.ParseUint(c.Ctx.Param("id"), 10, 32)
	if err != nil {
		response.ParamError(c.Ctx)
		return
	}

	turnstile, err := c.turnstileService().GetByID(uint(id))
	if err != nil {
		response.Fail(c.Ctx, code.ErrTurnstileNotFound, nil)
		return
	}
	response.Success(c.Ctx, turnstile)
}

// HealthSweep probes the whole fleet and refreshes status flags
// @Summary      Sweep turnstile health
// @Description  Probes every registered turnstile for activation and reachability and updates the stored status flags
// @Tags         Turnstile
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /turnstiles/health-sweep [post]
func (c *TurnstileController) HealthSweep() {
	total, active, err := c.turnstileService().HealthSweep(c.Ctx.Request.Context())
	if err != nil {
		response.ServerError(c.Ctx)
		return
	}

	response.Success(c.Ctx, gin.H{
		"total":  total,
		"active": active,
		"error":  total - active,
	})
}

// OpenDoorRequest selects which relay of the turnstile to pulse
type OpenDoorRequest struct {
	DoorNo int `json:"door_no" example:"1"`
}

// OpenDoor pulses a turnstile relay from the management API
// @Summary      Open door manually
// @Description  Sends a remote open command to one relay of a turnstile. Used by operators when a person has to be let through by hand.
// @Tags         Turnstile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Turnstile ID"
// @Param        request body OpenDoorRequest false "Relay selection, defaults to 1"
// @Success      200  {object}  response.Response
// @Failure      502  {object}  ErrorResponse
// @Router       /turnstiles/{id}/open [post]
func (c *TurnstileController) OpenDoor() {
	id, err := strconv.ParseUint(c.Ctx.Param("id"), 10, 32)
	if err != nil {
		response.ParamError(c.Ctx)
		return
	}

	var req OpenDoorRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil && c.Ctx.Request.ContentLength > 0 {
		response.FailWithMessage(c.Ctx, code.ErrBind, "invalid request parameters", nil)
		return
	}
	if req.DoorNo <= 0 {
		req.DoorNo = 1
	}

	turnstile, err := c.turnstileService().GetByID(uint(id))
	if err != nil {
		response.Fail(c.Ctx, code.ErrTurnstileNotFound, nil)
		return
	}

	cfg := c.Container.GetService("config").(*config.Config)
	opened, err := services.NewBarrierClient(cfg).Open(turnstile, req.DoorNo)
	if err != nil || !opened {
		response.Fail(c.Ctx, code.ErrDoorOpenFailed, nil)
		return
	}
	response.Success(c.Ctx, gin.H{"opened": true, "door_no": req.DoorNo})
}
