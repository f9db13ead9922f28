// internal/interfaces/http/handlers/product.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/your-org/food-ordering-backend/internal/domain/product"
	"github.com/your-org/food-ordering-backend/internal/pkg/response"
)

const (
	defaultHighlightLimit = 10
	maxHighlightLimit     = 50
)

// ProductHandler handles product endpoints
type ProductHandler struct {
	productService *product.Service
}

// NewProductHandler creates a new product handler
func NewProductHandler(productService *product.Service) *ProductHandler {
	return &ProductHandler{
		productService: productService,
	}
}

// GetProducts handles GET /products
func (h *ProductHandler) GetProducts(c *gin.Context) {
	var req product.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BindError(c, err)
		return
	}

	products, err := h.productService.List(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Products retrieved successfully", products)
}

// GetProduct handles GET /products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	productID, ok := parseID(c, "id", "product")
	if !ok {
		return
	}

	p, err := h.productService.Get(c.Request.Context(), productID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Product retrieved successfully", p)
}

// GetPopularProducts handles GET /products/popular
func (h *ProductHandler) GetPopularProducts(c *gin.Context) {
	products, err := h.productService.Popular(c.Request.Context(), highlightLimit(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Popular products retrieved successfully", products)
}

// GetDiscountedProducts handles GET /products/discounted
func (h *ProductHandler) GetDiscountedProducts(c *gin.Context) {
	products, err := h.productService.Discounted(c.Request.Context(), highlightLimit(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Discounted products retrieved successfully", products)
}

func highlightLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit < 1 {
		return defaultHighlightLimit
	}
	if limit > maxHighlightLimit {
		return maxHighlightLimit
	}
	return limit
}

// Admin endpoints

// AdminGetProducts handles GET /admin/products
func (h *ProductHandler) AdminGetProducts(c *gin.Context) {
	var req product.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BindError(c, err)
		return
	}

	products, err := h.productService.AdminList(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Products retrieved successfully", products)
}

// AdminGetProduct handles GET /admin/products/:id
func (h *ProductHandler) AdminGetProduct(c *gin.Context) {
	productID, ok := parseID(c, "id", "product")
	if !ok {
		return
	}

	p, err := h.productService.AdminGet(c.Request.Context(), productID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Product retrieved successfully", p)
}

// CreateProduct handles POST /admin/products
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req product.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	p, err := h.productService.Create(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Product created successfully", p)
}

// UpdateProduct handles PUT /admin/products/:id
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	productID, ok := parseID(c, "id", "product")
	if !ok {
		return
	}

	var req product.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	p, err := h.productService.Update(c.Request.Context(), productID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Product updated successfully", p)
}

// DeleteProduct handles DELETE /admin/products/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	productID, ok := parseID(c, "id", "product")
	if !ok {
		return
	}

	if err := h.productService.Delete(c.Request.Context(), productID); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Product deleted successfully", nil)
}

// ToggleAvailability handles PATCH /admin/products/:id/availability
func (h *ProductHandler) ToggleAvailability(c *gin.Context) {
	productID, ok := parseID(c, "id", "product")
	if !ok {
		return
	}

	p, err := h.productService.ToggleAvailability(c.Request.Context(), productID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Product availability updated successfully", p)
}

// TogglePopular handles PATCH /admin/products/:id/popular
func (h *ProductHandler) TogglePopular(c *gin.Context) {
	productID, ok := parseID(c, "id", "product")
	if !ok {
		return
	}

	p, err := h.productService.TogglePopular(c.Request.Context(), productID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Product popularity updated successfully", p)
}

// AddProductImage handles POST /admin/products/:id/images
func (h *ProductHandler) AddProductImage(c *gin.Context) {
	productID, ok := parseID(c, "id", "product")
	if !ok {
		return
	}

	var req product.AddImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	image, err := h.productService.AddImage(c.Request.Context(), productID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Image added successfully", image)
}

// ReorderProductImages handles PUT /admin/products/:id/images/reorder
func (h *ProductHandler) ReorderProductImages(c *gin.Context) {
	productID, ok := parseID(c, "id", "product")
	if !ok {
		return
	}

	var req product.ReorderImagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	images, err := h.productService.ReorderImages(c.Request.Context(), productID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Images reordered successfully", images)
}

// UpdateProductImage handles PUT /admin/products/images/:imageId
func (h *ProductHandler) UpdateProductImage(c *gin.Context) {
	imageID, ok := parseID(c, "imageId", "image")
	if !ok {
		return
	}

	var req product.UpdateImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	image, err := h.productService.UpdateImage(c.Request.Context(), imageID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Image updated successfully", image)
}

// DeleteProductImage handles DELETE /admin/products/images/:imageId
func (h *ProductHandler) DeleteProductImage(c *gin.Context) {
	imageID, ok := parseID(c, "imageId", "image")
	if !ok {
		return
	}

	if err := h.productService.DeleteImage(c.Request.Context(), imageID); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Image deleted successfully", nil)
}
