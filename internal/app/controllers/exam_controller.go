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

// InterfaceExamController defines the exam controller interface
type InterfaceExamController interface {
	ListActive()
	ListReady()
	Get()
	Transition()
	Bindings()
}

// ExamController handles exam lifecycle requests
type ExamController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewExamController creates a new exam controller
func NewExamController(ctx *gin.Context, container *container.ServiceContainer) *ExamController {
	return &ExamController{
		Ctx:       ctx,
		Container: container,
	}
}

// TransitionRequest asks to advance an exam to the next lifecycle state
type TransitionRequest struct {
	State string `json:"state" binding:"required" example:"data_loaded"`
}

// HandleExamFunc returns a gin handler dispatching exam requests
func HandleExamFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewExamController(ctx, container)

		switch method {
		case "list_active":
			controller.ListActive()
		case "list_ready":
			controller.ListReady()
		case "get":
			controller.Get()
		case "transition":
			controller.Transition()
		case "bindings":
			controller.Bindings()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "invalid method", nil)
		}
	}
}

func (c *ExamController) examService() services.InterfaceExamService {
	return c.Container.GetService("exam").(services.InterfaceExamService)
}

// ListActive lists unfinished exams
// @Summary      List active exams
// @Description  Returns all exams that have not been finished yet
// @Tags         Exam
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /exams [get]
func (c *ExamController) ListActive() {
	exams, err := c.examService().ListActive()
	if err != nil {
		response.ServerError(c.Ctx)
		return
	}
	response.Success(c.Ctx, exams)
}

// ListReady lists exams whose doors are all provisioned
// @Summary      List ready exams
// @Description  Returns active exams where every bound turnstile is fully provisioned
// @Tags         Exam
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /exams/ready [get]
func (c *ExamController) ListReady() {
	exams, err := c.examService().ListReady()
	if err != nil {
		response.ServerError(c.Ctx)
		return
	}
	response.Success(c.Ctx, exams)
}

// Get returns one exam
// @Summary      Get exam
// @Description  Returns a single exam by ID
// @Tags         Exam
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Exam ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  ErrorResponse
// @Router       /exams/{id} [get]
func (c *ExamController) Get() {
	id, err := strconv.ParseUint(c.Ctx.Param("id"), 10, 32)
	if err != nil {
		response.ParamError(c.Ctx)
		return
	}

	exam, err := c.examService().GetByID(uint(id))
	if err != nil {
		response.Fail(c.Ctx, code.ErrExamNotFound, nil)
		return
	}
	response.Success(c.Ctx, exam)
}

// Transition advances an exam one lifecycle step forward
// @Summary      Transition exam state
// @Description  Moves the exam to the next lifecycle state. Only single forward steps are allowed.
// @Tags         Exam
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Exam ID"
// @Param        request body TransitionRequest true "Target state"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  ErrorResponse
// @Router       /exams/{id}/transition [post]
func (c *ExamController) Transition() {
	id, err := strconv.ParseUint(c.Ctx.Param("id"), 10, 32)
	if err != nil {
		response.ParamError(c.Ctx)
		return
	}

	var req TransitionRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "invalid request parameters", nil)
		return
	}

	exam, err := c.examService().Transition(uint(id), models.ExamState(req.State))
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrExamNotActive, err.Error(), nil)
		return
	}
	response.Success(c.Ctx, exam)
}

// Bindings returns the exam's turnstile bindings with push progress
// @Summary      List exam turnstile bindings
// @Description  Returns every turnstile bound to the exam with expected and pushed counters
// @Tags         Exam
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Exam ID"
// @Success      200  {object}  response.Response
// @Router       /exams/{id}/turnstiles [get]
func (c *ExamController) Bindings() {
	id, err := strconv.ParseUint(c.Ctx.Param("id"), 10, 32)
	if err != nil {
		response.ParamError(c.Ctx)
		return
	}

	bindings, err := c.examService().Bindings(uint(id))
	if err != nil {
		response.ServerError(c.Ctx)
		return
	}
	response.Success(c.Ctx, bindings)
}
