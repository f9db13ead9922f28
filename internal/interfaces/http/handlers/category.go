// internal/interfaces/http/handlers/category.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/your-org/food-ordering-backend/internal/domain/product"
	"github.com/your-org/food-ordering-backend/internal/pkg/pagination"
	"github.com/your-org/food-ordering-backend/internal/pkg/response"
)

// CategoryHandler handles category endpoints
type CategoryHandler struct {
	categoryService *product.CategoryService
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(categoryService *product.CategoryService) *CategoryHandler {
	return &CategoryHandler{
		categoryService: categoryService,
	}
}

// GetCategories handles GET /categories
func (h *CategoryHandler) GetCategories(c *gin.Context) {
	categories, err := h.categoryService.Active(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Categories retrieved successfully", categories)
}

// GetCategory handles GET /categories/:id
func (h *CategoryHandler) GetCategory(c *gin.Context) {
	h.getCategory(c, true)
}

// GetCategoryProducts handles GET /categories/:id/products
func (h *CategoryHandler) GetCategoryProducts(c *gin.Context) {
	categoryID, ok := parseID(c, "id", "category")
	if !ok {
		return
	}

	var params pagination.Params
	if err := c.ShouldBindQuery(&params); err != nil {
		response.BindError(c, err)
		return
	}

	result, err := h.categoryService.Products(c.Request.Context(), categoryID, params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Category products retrieved successfully", result)
}

// Admin endpoints

// AdminListCategories handles GET /admin/categories
func (h *CategoryHandler) AdminListCategories(c *gin.Context) {
	var params pagination.Params
	if err := c.ShouldBindQuery(&params); err != nil {
		response.BindError(c, err)
		return
	}

	categories, err := h.categoryService.List(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Categories retrieved successfully", categories)
}

// AdminGetCategory handles GET /admin/categories/:id
func (h *CategoryHandler) AdminGetCategory(c *gin.Context) {
	h.getCategory(c, false)
}

func (h *CategoryHandler) getCategory(c *gin.Context, activeOnly bool) {
	categoryID, ok := parseID(c, "id", "category")
	if !ok {
		return
	}

	category, err := h.categoryService.Get(c.Request.Context(), categoryID, activeOnly)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Category retrieved successfully", category)
}

// CreateCategory handles POST /admin/categories
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var req product.CategoryCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	category, err := h.categoryService.Create(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Category created successfully", category)
}

// UpdateCategory handles PUT /admin/categories/:id
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	categoryID, ok := parseID(c, "id", "category")
	if !ok {
		return
	}

	var req product.CategoryUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	category, err := h.categoryService.Update(c.Request.Context(), categoryID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Category updated successfully", category)
}

// DeleteCategory handles DELETE /admin/categories/:id
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	categoryID, ok := parseID(c, "id", "category")
	if !ok {
		return
	}

	if err := h.categoryService.Delete(c.Request.Context(), categoryID); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Category deleted successfully", nil)
}

// ReorderCategories handles PUT /admin/categories/reorder
func (h *CategoryHandler) ReorderCategories(c *gin.Context) {
	var req product.ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	categories, err := h.categoryService.Reorder(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Categories reordered successfully", categories)
}
