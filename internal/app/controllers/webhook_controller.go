package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yusufturaev707/faceid/internal/domain/services"
	"github.com/yusufturaev707/faceid/internal/domain/services/container"
	"github.com/yusufturaev707/faceid/pkg/logger"
)

// WebhookController handles the device-facing door event endpoint
type WebhookController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewWebhookController creates a new webhook controller
func NewWebhookController(ctx *gin.Context, container *container.ServiceContainer) *WebhookController {
	return &WebhookController{
		Ctx:       ctx,
		Container: container,
	}
}

// WebhookResponse is the fixed device-facing reply shape
type WebhookResponse struct {
	Status  string `json:"status" example:"success"`
	Message string `json:"message" example:"Ruxsat"`
}

// HandleWebhookFunc returns the gin handler for device webhooks
func HandleWebhookFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewWebhookController(ctx, container)

		switch method {
		case "door_event":
			controller.DoorEvent()
		default:
			ctx.JSON(http.StatusOK, WebhookResponse{Status: "error", Message: "invalid method"})
		}
	}
}

// DoorEvent processes one face-recognition door event
// @Summary      Door event webhook
// @Description  Receives a multipart door event from a face-recognition turnstile, decides access, opens the barrier and answers the device. Always 200: the controllers key their retries off the door opening, not the HTTP status.
// @Tags         Webhook
// @Accept       multipart/form-data
// @Produce      json
// @Success      200  {object}  WebhookResponse
// @Router       /webhook/hikvision [post]
func (c *WebhookController) DoorEvent() {
	started := time.Now()

	// Outermost boundary: a device must never see a 5xx, that would start a
	// device-side retry storm
	defer func() {
		if r := recover(); r != nil {
			logger.Error("door event panic: %v", r)
			c.Ctx.JSON(http.StatusOK, WebhookResponse{Status: "error", Message: "internal error"})
		}
		services.WebhookDuration.Observe(time.Since(started).Seconds())
	}()

	ev, err := services.ParseDoorEvent(c.Ctx.Request)
	if err != nil {
		if errors.Is(err, services.ErrUnparseable) {
			// treated like nobody at the camera
			logger.Warning("unparseable door event from %s", c.Ctx.ClientIP())
		}
		c.Ctx.JSON(http.StatusOK, WebhookResponse{Status: "error", Message: "unparseable event"})
		return
	}
	if ev == nil {
		// heartbeat noise, zero side effects
		c.Ctx.JSON(http.StatusOK, WebhookResponse{Status: "success", Message: "ignored"})
		return
	}

	accessService := c.Container.GetService("access").(services.InterfaceAccessService)
	result := accessService.HandleEvent(ev)

	status := "error"
	if result.Granted() {
		status = "success"
	}
	c.Ctx.JSON(http.StatusOK, WebhookResponse{Status: status, Message: result.Message})
}
