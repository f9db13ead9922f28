// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/your-org/food-ordering-backend/internal/domain/cart"
	"github.com/your-org/food-ordering-backend/internal/pkg/response"
)

// CartHandler handles cart endpoints
type CartHandler struct {
	cartService *cart.Service
}

// NewCartHandler creates a new cart handler
func NewCartHandler(cartService *cart.Service) *CartHandler {
	return &CartHandler{
		cartService: cartService,
	}
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	cartResponse, err := h.cartService.GetCart(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Cart retrieved successfully", cartResponse)
}

// GetCartCount handles GET /cart/count
func (h *CartHandler) GetCartCount(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	count, err := h.cartService.Count(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Cart count retrieved successfully", gin.H{"count": count})
}

// ValidateCart handles GET /cart/validate
func (h *CartHandler) ValidateCart(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	result, err := h.cartService.Validate(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	message := "Cart is valid"
	if !result.IsValid {
		message = "Some items in your cart are no longer available"
	}
	response.OK(c, message, result)
}

// AddToCart handles POST /cart/items
func (h *CartHandler) AddToCart(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req cart.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	cartResponse, err := h.cartService.AddItem(c.Request.Context(), userID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Item added to cart successfully", cartResponse)
}

// UpdateCartItem handles PUT /cart/items/:itemId
func (h *CartHandler) UpdateCartItem(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	itemID, ok := parseID(c, "itemId", "cart item")
	if !ok {
		return
	}

	var req cart.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	cartResponse, err := h.cartService.UpdateItemQuantity(c.Request.Context(), userID, itemID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Cart item updated successfully", cartResponse)
}

// RemoveFromCart handles DELETE /cart/items/:itemId
func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	itemID, ok := parseID(c, "itemId", "cart item")
	if !ok {
		return
	}

	cartResponse, err := h.cartService.RemoveItem(c.Request.Context(), userID, itemID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Item removed from cart successfully", cartResponse)
}

// RemoveUnavailable handles DELETE /cart/unavailable
func (h *CartHandler) RemoveUnavailable(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	cartResponse, err := h.cartService.RemoveUnavailable(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Unavailable items removed successfully", cartResponse)
}

// ClearCart handles DELETE /cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	cartResponse, err := h.cartService.Clear(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Cart cleared successfully", cartResponse)
}
