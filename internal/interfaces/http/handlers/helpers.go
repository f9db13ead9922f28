package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/your-org/food-ordering-backend/internal/domain/order"
	"github.com/your-org/food-ordering-backend/internal/interfaces/http/middleware"
	"github.com/your-org/food-ordering-backend/internal/pkg/response"
)

// RegisterValidators adds the custom binding tags to gin's validator
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("orderstatus", func(fl validator.FieldLevel) bool {
		return order.Status(fl.Field().String()).Valid()
	})
}

// parseID reads a positive numeric path parameter. On failure it writes a
// 400 envelope and returns false.
func parseID(c *gin.Context, param, label string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 32)
	if err != nil || id == 0 {
		response.Fail(c, http.StatusBadRequest, "Invalid "+label+" ID")
		return 0, false
	}
	return uint(id), true
}

// currentUserID returns the authenticated user. On failure it writes a 401
// envelope and returns false.
func currentUserID(c *gin.Context) (uint, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, "User not authenticated")
		return 0, false
	}
	return userID, true
}
