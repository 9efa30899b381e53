package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yusufturaev707/faceid/internal/domain/models"
	"github.com/yusufturaev707/faceid/internal/domain/services"
	"github.com/yusufturaev707/faceid/internal/domain/services/container"
	"github.com/yusufturaev707/faceid/internal/error/code"
	"github.com/yusufturaev707/faceid/internal/error/response"
)

// InterfaceSupervisorController defines the supervisor controller interface
type InterfaceSupervisorController interface {
	List()
	Get()
	RefreshPhoto()
}

// SupervisorController handles venue staff and proctor requests
type SupervisorController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewSupervisorController creates a new supervisor controller
func NewSupervisorController(ctx *gin.Context, container *container.ServiceContainer) *SupervisorController {
	return &SupervisorController{
		Ctx:       ctx,
		Container: container,
	}
}

// HandleSupervisorFunc returns a gin handler dispatching supervisor requests
func HandleSupervisorFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewSupervisorController(ctx, container)

		switch method {
		case "list":
			controller.List()
		case "get":
			controller.Get()
		case "refresh_photo":
			controller.RefreshPhoto()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "invalid method", nil)
		}
	}
}

func (c *SupervisorController) supervisorService() services.InterfaceSupervisorService {
	return c.Container.GetService("supervisor").(services.InterfaceSupervisorService)
}

// List returns a page of supervisors for a region
// @Summary      List supervisors
// @Description  Returns a page of staff and proctors assigned to a region
// @Tags         Supervisor
// @Produce      json
// @Security     BearerAuth
// @Param        region_id path int true "Region ID"
// @Param        pageNum query int false "Page number"
// @Param        pageSize query int false "Page size"
// @Success      200  {object}  response.Response
// @Router       /regions/{region_id}/supervisors [get]
func (c *SupervisorController) List() {
	regionID, err := strconv.ParseUint(c.Ctx.Param("region_id"), 10, 32)
	if err != nil {
		response.ParamError(c.Ctx)
		return
	}

	var query models.PaginationQuery
	if err := c.Ctx.ShouldBindQuery(&query); err != nil {
		response.ParamError(c.Ctx)
		return
	}

	supervisors, pagination, err := c.supervisorService().ListByRegion(uint(regionID), query)
	if err != nil {
		response.ServerError(c.Ctx)
		return
	}

	response.Success(c.Ctx, gin.H{
		"supervisors": supervisors,
		"pagination":  pagination,
	})
}

// Get returns one supervisor
// @Summary      Get supervisor
// @Description  Returns a single supervisor by ID
// @Tags         Supervisor
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Supervisor ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  ErrorResponse
// @Router       /supervisors/{id} [get]
func (c *SupervisorController) Get() {
	id, err := strconv.ParseUint(c.Ctx.Param("id"), 10, 32)
	if err != nil {
		response.ParamError(c.Ctx)
		return
	}

	supervisor, err := c.supervisorService().GetByID(uint(id))
	if err != nil {
		response.Fail(c.Ctx, code.ErrSupervisorNotFound, nil)
		return
	}
	response.Success(c.Ctx, supervisor)
}

// RefreshPhoto re-fetches a supervisor's photo and names from the
// personalization API
// @Summary      Refresh supervisor from identity API
// @Description  Looks the supervisor up in the national personalization API by PINFL and passport number, updates the stored names and face photo, and caches the photo
// @Tags         Supervisor
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Supervisor ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  ErrorResponse
// @Router       /supervisors/{id}/refresh [post]
func (c *SupervisorController) RefreshPhoto() {
	id, err := strconv.ParseUint(c.Ctx.Param("id"), 10, 32)
	if err != nil {
		response.ParamError(c.Ctx)
		return
	}

	supervisor, err := c.supervisorService().RefreshFromIdentity(uint(id))
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrSupervisorNoPhoto, err.Error(), nil)
		return
	}
	response.Success(c.Ctx, supervisor)
}
