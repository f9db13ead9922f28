// internal/interfaces/http/handlers/receipt.go
package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/your-org/food-ordering-backend/internal/domain/order"
	"github.com/your-org/food-ordering-backend/internal/pkg/apperror"
	"github.com/your-org/food-ordering-backend/internal/pkg/response"
)

// ReceiptRenderer turns an order into a PDF document
type ReceiptRenderer interface {
	GenerateReceipt(detail *order.Detail) (*bytes.Buffer, error)
}

// ReceiptHandler handles order receipt downloads
type ReceiptHandler struct {
	orderService *order.Service
	renderer     ReceiptRenderer
}

// NewReceiptHandler creates a new receipt handler
func NewReceiptHandler(orderService *order.Service, renderer ReceiptRenderer) *ReceiptHandler {
	return &ReceiptHandler{
		orderService: orderService,
		renderer:     renderer,
	}
}

// DownloadReceipt handles GET /orders/:id/receipt
func (h *ReceiptHandler) DownloadReceipt(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	orderID, ok := parseID(c, "id", "order")
	if !ok {
		return
	}

	detail, err := h.orderService.ReceiptOrder(c.Request.Context(), userID, orderID)
	if err != nil {
		response.Error(c, err)
		return
	}

	pdfBuffer, err := h.renderer.GenerateReceipt(detail)
	if err != nil {
		response.Error(c, apperror.Internal(fmt.Errorf("generate receipt for order %d: %w", orderID, err)))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=receipt-%s.pdf", detail.OrderNumber))
	c.Header("Content-Length", strconv.Itoa(pdfBuffer.Len()))
	c.Data(http.StatusOK, "application/pdf", pdfBuffer.Bytes())
}
