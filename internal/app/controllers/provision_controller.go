package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yusufturaev707/faceid/internal/domain/services"
	"github.com/yusufturaev707/faceid/internal/domain/services/container"
	"github.com/yusufturaev707/faceid/internal/error/code"
	"github.com/yusufturaev707/faceid/internal/error/response"
)

// InterfaceProvisionController defines the provisioning controller interface
type InterfaceProvisionController interface {
	StartPush()
	RetryFailed()
	PushStaff()
	Report()
	Cancel()
}

// ProvisionController handles roster and face image pushes to the door
// controllers
type ProvisionController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewProvisionController creates a new provisioning controller
func NewProvisionController(ctx *gin.Context, container *container.ServiceContainer) *ProvisionController {
	return &ProvisionController{
		Ctx:       ctx,
		Container: container,
	}
}

// StartPushRequest configures a provisioning run
type StartPushRequest struct {
	Wipe bool `json:"wipe" example:"true"`
}

// HandleProvisionFunc returns a gin handler dispatching provisioning requests
func HandleProvisionFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewProvisionController(ctx, container)

		switch method {
		case "start_push":
			controller.StartPush()
		case "retry_failed":
			controller.RetryFailed()
		case "push_staff":
			controller.PushStaff()
		case "report":
			controller.Report()
		case "cancel":
			controller.Cancel()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "invalid method", nil)
		}
	}
}

func (c *ProvisionController) provisionService() services.InterfaceProvisionService {
	return c.Container.GetService("provision").(services.InterfaceProvisionService)
}

// StartPush starts a full roster push for an exam
// @Summary      Start provisioning push
// @Description  Pushes the full roster and face images of an exam to all bound turnstiles. Doors run in parallel, the call returns immediately with a run ID.
// @Tags         Provision
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Exam ID"
// @Param        request body StartPushRequest false "Push options"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  ErrorResponse
// @Router       /exams/{id}/push [post]
func (c *ProvisionController) StartPush() {
	id, err := strconv.ParseUint(c.Ctx.Param("id"), 10, 32)
	if err != nil {
		response.ParamError(c.Ctx)
		return
	}

	var req StartPushRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil && c.Ctx.Request.ContentLength > 0 {
		response.FailWithMessage(c.Ctx, code.ErrBind, "invalid request parameters", nil)
		return
	}

	runID, err := c.provisionService().StartPush(uint(id), req.Wipe)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrProvisionFailed, err.Error(), nil)
		return
	}
	response.Success(c.Ctx, gin.H{"run_id": runID})
}

// RetryFailed re-pushes only the records that failed in a previous run
// @Summary      Retry failed records
// @Description  Re-pushes only the persons and images that failed in the last run, using the failure lists stored per turnstile
// @Tags         Provision
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Exam ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  ErrorResponse
// @Router       /exams/{id}/push/retry [post]
func (c *ProvisionController) RetryFailed() {
	id, err := strconv.ParseUint(c.Ctx.Param("id"), 10, 32)
	if err != nil {
		response.ParamError(c.Ctx)
		return
	}

	runID, err := c.provisionService().RetryFailed(uint(id))
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrProvisionFailed, err.Error(), nil)
		return
	}
	response.Success(c.Ctx, gin.H{"run_id": runID})
}

// PushStaff pushes venue staff to every turnstile of a region
// @Summary      Push staff to region
// @Description  Synchronously pushes all staff and proctors of a region to the region's turnstiles with a one-year validity window
// @Tags         Provision
// @Produce      json
// @Security     BearerAuth
// @Param        region_id path int true "Region ID"
// @Success      200  {object}  response.Response
// @Router       /regions/{region_id}/push-staff [post]
func (c *ProvisionController) PushStaff() {
	regionID, err := strconv.ParseUint(c.Ctx.Param("region_id"), 10, 32)
	if err != nil {
		response.ParamError(c.Ctx)
		return
	}

	summary, err := c.provisionService().PushStaff(c.Ctx.Request.Context(), uint(regionID))
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrProvisionFailed, err.Error(), nil)
		return
	}
	response.Success(c.Ctx, summary)
}

// Report returns the per-turnstile push progress of an exam
// @Summary      Provisioning report
// @Description  Returns expected, pushed and failed counters plus failure lists for every turnstile of the exam
// @Tags         Provision
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Exam ID"
// @Success      200  {object}  response.Response
// @Router       /exams/{id}/push/report [get]
func (c *ProvisionController) Report() {
	id, err := strconv.ParseUint(c.Ctx.Param("id"), 10, 32)
	if err != nil {
		response.ParamError(c.Ctx)
		return
	}

	bindings, err := c.provisionService().Report(uint(id))
	if err != nil {
		response.ServerError(c.Ctx)
		return
	}
	response.Success(c.Ctx, bindings)
}

// Cancel aborts a running push
// @Summary      Cancel provisioning run
// @Description  Cancels a running push by run ID. Doors finish their current record and stop.
// @Tags         Provision
// @Produce      json
// @Security     BearerAuth
// @Param        run_id path string true "Run ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  ErrorResponse
// @Router       /provision/runs/{run_id} [delete]
func (c *ProvisionController) Cancel() {
	runID := c.Ctx.Param("run_id")
	if runID == "" {
		response.ParamError(c.Ctx)
		return
	}

	if !c.provisionService().Cancel(runID) {
		response.NotFound(c.Ctx)
		return
	}
	response.Success(c.Ctx, gin.H{"run_id": runID, "cancelled": true})
}
