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

// InterfaceAccessLogController defines the audit log controller interface
type InterfaceAccessLogController interface {
	StudentLogs()
	SupervisorLogs()
}

// AccessLogController serves the audit trail
type AccessLogController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewAccessLogController creates a new audit log controller
func NewAccessLogController(ctx *gin.Context, container *container.ServiceContainer) *AccessLogController {
	return &AccessLogController{
		Ctx:       ctx,
		Container: container,
	}
}

// HandleAccessLogFunc returns a gin handler dispatching audit log requests
func HandleAccessLogFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewAccessLogController(ctx, container)

		switch method {
		case "student_logs":
			controller.StudentLogs()
		case "supervisor_logs":
			controller.SupervisorLogs()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "invalid method", nil)
		}
	}
}

func (c *AccessLogController) accessLogService() services.InterfaceAccessLogService {
	return c.Container.GetService("access_log").(services.InterfaceAccessLogService)
}

// StudentLogs returns a page of student pass attempts for an exam
// @Summary      List student access logs
// @Description  Returns a page of the student audit trail for an exam, newest first
// @Tags         AccessLog
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Exam ID"
// @Param        pageNum query int false "Page number"
// @Param        pageSize query int false "Page size"
// @Success      200  {object}  response.Response
// @Router       /exams/{id}/logs [get]
func (c *AccessLogController) StudentLogs() {
	examID, err := strconv.ParseUint(c.Ctx.Param("id"), 10, 32)
	if err != nil {
		response.ParamError(c.Ctx)
		return
	}

	var query models.PaginationQuery
	if err := c.Ctx.ShouldBindQuery(&query); err != nil {
		response.ParamError(c.Ctx)
		return
	}

	logs, pagination, err := c.accessLogService().ListStudentLogs(uint(examID), query)
	if err != nil {
		response.ServerError(c.Ctx)
		return
	}

	response.Success(c.Ctx, gin.H{
		"logs":       logs,
		"pagination": pagination,
	})
}

// SupervisorLogs returns a page of staff and proctor pass attempts
// @Summary      List supervisor access logs
// @Description  Returns a page of the staff and proctor audit trail, newest first
// @Tags         AccessLog
// @Produce      json
// @Security     BearerAuth
// @Param        pageNum query int false "Page number"
// @Param        pageSize query int false "Page size"
// @Success      200  {object}  response.Response
// @Router       /supervisors/logs [get]
func (c *AccessLogController) SupervisorLogs() {
	var query models.PaginationQuery
	if err := c.Ctx.ShouldBindQuery(&query); err != nil {
		response.ParamError(c.Ctx)
		return
	}

	logs, pagination, err := c.accessLogService().ListSupervisorLogs(query)
	if err != nil {
		response.ServerError(c.Ctx)
		return
	}

	response.Success(c.Ctx, gin.H{
		"logs":       logs,
		"pagination": pagination,
	})
}
