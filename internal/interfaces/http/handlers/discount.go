package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/your-org/food-ordering-backend/internal/domain/cart"
	"github.com/your-org/food-ordering-backend/internal/domain/discount"
	"github.com/your-org/food-ordering-backend/internal/pkg/response"
)

// DiscountHandler handles discount code endpoints
type DiscountHandler struct {
	discountService *discount.Service
	cartService     *cart.Service
}

// NewDiscountHandler creates a new discount handler
func NewDiscountHandler(discountService *discount.Service, cartService *cart.Service) *DiscountHandler {
	return &DiscountHandler{
		discountService: discountService,
		cartService:     cartService,
	}
}

// ValidateCodeRequest is the customer preview body
type ValidateCodeRequest struct {
	Code string `json:"code" binding:"required,max=50"`
}

// ValidateCode handles POST /discounts/validate. The code is quoted against
// the caller's current cart and is not redeemed.
func (h *DiscountHandler) ValidateCode(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req ValidateCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	subtotal, err := h.cartService.Subtotal(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	quote, err := h.discountService.Preview(c.Request.Context(), req.Code, subtotal)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Discount code is valid", quote)
}

// Admin endpoints

// ListDiscounts handles GET /admin/discounts
func (h *DiscountHandler) ListDiscounts(c *gin.Context) {
	var req discount.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BindError(c, err)
		return
	}

	discounts, err := h.discountService.List(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Discounts retrieved successfully", discounts)
}

// GetDiscount handles GET /admin/discounts/:id
func (h *DiscountHandler) GetDiscount(c *gin.Context) {
	discountID, ok := parseID(c, "id", "discount")
	if !ok {
		return
	}

	d, err := h.discountService.Get(c.Request.Context(), discountID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Discount retrieved successfully", d)
}

// CreateDiscount handles POST /admin/discounts
func (h *DiscountHandler) CreateDiscount(c *gin.Context) {
	var req discount.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	d, err := h.discountService.Create(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Discount created successfully", d)
}

// UpdateDiscount handles PUT /admin/discounts/:id
func (h *DiscountHandler) UpdateDiscount(c *gin.Context) {
	discountID, ok := parseID(c, "id", "discount")
	if !ok {
		return
	}

	var req discount.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	d, err := h.discountService.Update(c.Request.Context(), discountID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Discount updated successfully", d)
}

// DeleteDiscount handles DELETE /admin/discounts/:id
func (h *DiscountHandler) DeleteDiscount(c *gin.Context) {
	discountID, ok := parseID(c, "id", "discount")
	if !ok {
		return
	}

	if err := h.discountService.Delete(c.Request.Context(), discountID); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Discount deleted successfully", nil)
}

// ToggleDiscount handles PATCH /admin/discounts/:id/toggle
func (h *DiscountHandler) ToggleDiscount(c *gin.Context) {
	discountID, ok := parseID(c, "id", "discount")
	if !ok {
		return
	}

	d, err := h.discountService.ToggleActive(c.Request.Context(), discountID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Discount status updated successfully", d)
}
