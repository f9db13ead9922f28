// internal/interfaces/http/handlers/user_address.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/your-org/food-ordering-backend/internal/domain/user"
	"github.com/your-org/food-ordering-backend/internal/pkg/response"
)

// AddressHandler handles delivery address endpoints
type AddressHandler struct {
	addressService *user.AddressService
}

// NewAddressHandler creates a new address handler
func NewAddressHandler(addressService *user.AddressService) *AddressHandler {
	return &AddressHandler{
		addressService: addressService,
	}
}

// GetAddresses handles GET /addresses
func (h *AddressHandler) GetAddresses(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	addresses, err := h.addressService.List(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Addresses retrieved successfully", addresses)
}

// GetAddress handles GET /addresses/:id
func (h *AddressHandler) GetAddress(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	addressID, ok := parseID(c, "id", "address")
	if !ok {
		return
	}

	address, err := h.addressService.Get(c.Request.Context(), userID, addressID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Address retrieved successfully", address)
}

// GetDefaultAddress handles GET /addresses/default
func (h *AddressHandler) GetDefaultAddress(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	address, err := h.addressService.Default(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Default address retrieved successfully", address)
}

// GetAddressCount handles GET /addresses/count
func (h *AddressHandler) GetAddressCount(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	count, err := h.addressService.Count(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Address count retrieved successfully", gin.H{"count": count})
}

// CreateAddress handles POST /addresses
func (h *AddressHandler) CreateAddress(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req user.CreateAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	address, err := h.addressService.Create(c.Request.Context(), userID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Address created successfully", address)
}

// UpdateAddress handles PUT /addresses/:id
func (h *AddressHandler) UpdateAddress(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	addressID, ok := parseID(c, "id", "address")
	if !ok {
		return
	}

	var req user.UpdateAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	address, err := h.addressService.Update(c.Request.Context(), userID, addressID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Address updated successfully", address)
}

// SetDefaultAddress handles PATCH /addresses/:id/default
func (h *AddressHandler) SetDefaultAddress(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	addressID, ok := parseID(c, "id", "address")
	if !ok {
		return
	}

	address, err := h.addressService.SetDefault(c.Request.Context(), userID, addressID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Default address updated successfully", address)
}

// DeleteAddress handles DELETE /addresses/:id
func (h *AddressHandler) DeleteAddress(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	addressID, ok := parseID(c, "id", "address")
	if !ok {
		return
	}

	if err := h.addressService.Delete(c.Request.Context(), userID, addressID); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Address deleted successfully", nil)
}
