// internal/interfaces/http/handlers/order.go
package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/your-org/food-ordering-backend/internal/domain/order"
	"github.com/your-org/food-ordering-backend/internal/pkg/response"
)

const (
	headerIdempotencyKey = "Idempotency-Key"
	maxIdempotencyKeyLen = 128
	xlsxContentType      = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// OrderHandler handles order endpoints
type OrderHandler struct {
	orderService *order.Service
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService *order.Service) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

// CreateOrder handles POST /orders. A repeated request carrying the same
// Idempotency-Key returns the first order with 200.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	idempotencyKey := strings.TrimSpace(c.GetHeader(headerIdempotencyKey))
	if len(idempotencyKey) > maxIdempotencyKeyLen {
		response.Fail(c, http.StatusBadRequest, "Idempotency-Key is too long")
		return
	}

	var req order.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	detail, created, err := h.orderService.Checkout(c.Request.Context(), userID, idempotencyKey, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	if !created {
		response.OK(c, "Order already placed", detail)
		return
	}
	response.Created(c, "Order placed successfully", detail)
}

// GetOrders handles GET /orders
func (h *OrderHandler) GetOrders(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req order.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BindError(c, err)
		return
	}

	orders, err := h.orderService.ListUserOrders(c.Request.Context(), userID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Orders retrieved successfully", orders)
}

// GetOrder handles GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	orderID, ok := parseID(c, "id", "order")
	if !ok {
		return
	}

	detail, err := h.orderService.GetUserOrder(c.Request.Context(), userID, orderID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Order retrieved successfully", detail)
}

// CancelOrder handles POST /orders/:id/cancel
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	orderID, ok := parseID(c, "id", "order")
	if !ok {
		return
	}

	var req order.CancelRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BindError(c, err)
			return
		}
	}

	detail, err := h.orderService.Cancel(c.Request.Context(), userID, orderID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Order cancelled successfully", detail)
}

// Admin endpoints

// AdminGetOrders handles GET /admin/orders
func (h *OrderHandler) AdminGetOrders(c *gin.Context) {
	var req order.AdminListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BindError(c, err)
		return
	}

	orders, err := h.orderService.AdminListOrders(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Orders retrieved successfully", orders)
}

// AdminGetOrder handles GET /admin/orders/:id
func (h *OrderHandler) AdminGetOrder(c *gin.Context) {
	orderID, ok := parseID(c, "id", "order")
	if !ok {
		return
	}

	detail, err := h.orderService.AdminGetOrder(c.Request.Context(), orderID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Order retrieved successfully", detail)
}

// UpdateOrderStatus handles PATCH /admin/orders/:id/status
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	adminID, ok := currentUserID(c)
	if !ok {
		return
	}
	orderID, ok := parseID(c, "id", "order")
	if !ok {
		return
	}

	var req order.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	detail, err := h.orderService.UpdateStatus(c.Request.Context(), orderID, adminID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Order status updated successfully", detail)
}

// GetOrderHistory handles GET /admin/orders/:id/history
func (h *OrderHandler) GetOrderHistory(c *gin.Context) {
	orderID, ok := parseID(c, "id", "order")
	if !ok {
		return
	}

	history, err := h.orderService.History(c.Request.Context(), orderID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Order history retrieved successfully", history)
}

// GetOrderStats handles GET /admin/orders/stats
func (h *OrderHandler) GetOrderStats(c *gin.Context) {
	stats, err := h.orderService.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Order statistics retrieved successfully", stats)
}

// ExportOrders handles GET /admin/orders/export. It takes the admin list
// filters and streams an XLSX workbook.
func (h *OrderHandler) ExportOrders(c *gin.Context) {
	var req order.AdminListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BindError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := h.orderService.ExportXLSX(c.Request.Context(), &req, &buf); err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("orders-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
