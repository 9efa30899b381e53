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

// InterfaceStudentController defines the student controller interface
type InterfaceStudentController interface {
	List()
	GetPsData()
}

// StudentController handles roster queries
type StudentController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewStudentController creates a new student controller
func NewStudentController(ctx *gin.Context, container *container.ServiceContainer) *StudentController {
	return &StudentController{
		Ctx:       ctx,
		Container: container,
	}
}

// HandleStudentFunc returns a gin handler dispatching roster requests
func HandleStudentFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewStudentController(ctx, container)

		switch method {
		case "list":
			controller.List()
		case "ps_data":
			controller.GetPsData()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "invalid method", nil)
		}
	}
}

func (c *StudentController) studentService() services.InterfaceStudentService {
	return c.Container.GetService("student").(services.InterfaceStudentService)
}

// List returns a page of the exam roster
// @Summary      List students
// @Description  Returns a page of the roster for an exam, optionally narrowed to one building
// @Tags         Student
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Exam ID"
// @Param        zone_id query int false "Building ID"
// @Param        pageNum query int false "Page number"
// @Param        pageSize query int false "Page size"
// @Success      200  {object}  response.Response
// @Router       /exams/{id}/students [get]
func (c *StudentController) List() {
	examID, err := strconv.ParseUint(c.Ctx.Param("id"), 10, 32)
	if err != nil {
		response.ParamError(c.Ctx)
		return
	}

	zoneID, _ := strconv.ParseUint(c.Ctx.Query("zone_id"), 10, 32)

	var query models.PaginationQuery
	if err := c.Ctx.ShouldBindQuery(&query); err != nil {
		response.ParamError(c.Ctx)
		return
	}

	students, pagination, err := c.studentService().List(uint(examID), uint(zoneID), query)
	if err != nil {
		response.ServerError(c.Ctx)
		return
	}

	response.Success(c.Ctx, gin.H{
		"students":   students,
		"pagination": pagination,
	})
}

// GetPsData returns a student's passport record with the stored face image
// @Summary      Get student passport data
// @Description  Returns the passport series, number, phone and base64 face image of one student
// @Tags         Student
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Student ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  ErrorResponse
// @Router       /students/{id}/ps-data [get]
func (c *StudentController) GetPsData() {
	id, err := strconv.ParseUint(c.Ctx.Param("id"), 10, 32)
	if err != nil {
		response.ParamError(c.Ctx)
		return
	}

	psData, err := c.studentService().GetPsData(uint(id))
	if err != nil {
		response.Fail(c.Ctx, code.ErrStudentNotFound, nil)
		return
	}
	response.Success(c.Ctx, psData)
}
