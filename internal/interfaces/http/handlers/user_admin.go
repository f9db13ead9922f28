// internal/interfaces/http/handlers/user_admin.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/your-org/food-ordering-backend/internal/domain/user"
	"github.com/your-org/food-ordering-backend/internal/pkg/response"
)

// UserAdminHandler handles admin user management endpoints
type UserAdminHandler struct {
	adminService *user.AdminService
}

// NewUserAdminHandler creates a new admin user handler
func NewUserAdminHandler(adminService *user.AdminService) *UserAdminHandler {
	return &UserAdminHandler{
		adminService: adminService,
	}
}

// ListUsers handles GET /admin/users
func (h *UserAdminHandler) ListUsers(c *gin.Context) {
	var req user.UserListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BindError(c, err)
		return
	}

	users, err := h.adminService.List(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Users retrieved successfully", users)
}

// GetUser handles GET /admin/users/:id
func (h *UserAdminHandler) GetUser(c *gin.Context) {
	userID, ok := parseID(c, "id", "user")
	if !ok {
		return
	}

	details, err := h.adminService.Get(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "User retrieved successfully", details)
}

// UpdateUserStatus handles PATCH /admin/users/:id/status
func (h *UserAdminHandler) UpdateUserStatus(c *gin.Context) {
	adminID, ok := currentUserID(c)
	if !ok {
		return
	}
	userID, ok := parseID(c, "id", "user")
	if !ok {
		return
	}

	var req user.UserStatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	updated, err := h.adminService.SetActive(c.Request.Context(), userID, adminID, *req.IsActive)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "User status updated successfully", updated)
}

// UpdateUserRole handles PATCH /admin/users/:id/role
func (h *UserAdminHandler) UpdateUserRole(c *gin.Context) {
	adminID, ok := currentUserID(c)
	if !ok {
		return
	}
	userID, ok := parseID(c, "id", "user")
	if !ok {
		return
	}

	var req user.UserRoleUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	updated, err := h.adminService.SetRole(c.Request.Context(), userID, adminID, req.Role)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "User role updated successfully", updated)
}
