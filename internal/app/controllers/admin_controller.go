package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/yusufturaev707/faceid/internal/domain/services"
	"github.com/yusufturaev707/faceid/internal/domain/services/container"
	"github.com/yusufturaev707/faceid/internal/error/code"
	"github.com/yusufturaev707/faceid/internal/error/response"
)

// InterfaceAdminController defines the admin account controller interface
type InterfaceAdminController interface {
	Profile()
	ChangePassword()
}

// AdminController manages the caller's own admin account
type AdminController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewAdminController creates a new admin controller
func NewAdminController(ctx *gin.Context, container *container.ServiceContainer) *AdminController {
	return &AdminController{
		Ctx:       ctx,
		Container: container,
	}
}

// ChangePasswordRequest carries the old and new passwords
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required" example:"admin123"`
	NewPassword string `json:"new_password" binding:"required,min=8" example:"N3wPassword!"`
}

// HandleAdminFunc returns a gin handler dispatching admin account requests
func HandleAdminFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewAdminController(ctx, container)

		switch method {
		case "profile":
			controller.Profile()
		case "change_password":
			controller.ChangePassword()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "invalid method", nil)
		}
	}
}

func (c *AdminController) adminService() services.InterfaceAdminService {
	return c.Container.GetService("admin").(services.InterfaceAdminService)
}

// currentUserID reads the authenticated admin's ID set by the auth middleware
func (c *AdminController) currentUserID() (uint, bool) {
	raw, exists := c.Ctx.Get("userID")
	if !exists {
		return 0, false
	}
	if id, ok := raw.(float64); ok {
		return uint(id), true
	}
	return 0, false
}

// Profile returns the authenticated admin's account
// @Summary      Admin profile
// @Description  Returns the account of the authenticated admin
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      401  {object}  ErrorResponse
// @Router       /admin/profile [get]
func (c *AdminController) Profile() {
	id, ok := c.currentUserID()
	if !ok {
		response.Unauthorized(c.Ctx)
		return
	}

	admin, err := c.adminService().GetByID(id)
	if err != nil {
		response.Fail(c.Ctx, code.ErrAdminNotFound, nil)
		return
	}
	response.Success(c.Ctx, admin)
}

// ChangePassword changes the authenticated admin's password
// @Summary      Change admin password
// @Description  Verifies the old password and replaces it with the new one
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body ChangePasswordRequest true "Old and new passwords"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  ErrorResponse
// @Router       /admin/password [put]
func (c *AdminController) ChangePassword() {
	id, ok := c.currentUserID()
	if !ok {
		response.Unauthorized(c.Ctx)
		return
	}

	var req ChangePasswordRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "invalid request parameters", nil)
		return
	}

	if err := c.adminService().ChangePassword(id, req.OldPassword, req.NewPassword); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrAdminPasswordIncorrect, err.Error(), nil)
		return
	}
	response.Success(c.Ctx, nil)
}
