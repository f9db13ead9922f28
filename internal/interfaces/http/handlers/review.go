// internal/interfaces/http/handlers/review.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/your-org/food-ordering-backend/internal/domain/product"
	"github.com/your-org/food-ordering-backend/internal/pkg/pagination"
	"github.com/your-org/food-ordering-backend/internal/pkg/response"
)

// ReviewHandler handles product review endpoints
type ReviewHandler struct {
	reviewService *product.ReviewService
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(reviewService *product.ReviewService) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
	}
}

// GetProductReviews handles GET /products/:id/reviews
func (h *ReviewHandler) GetProductReviews(c *gin.Context) {
	productID, ok := parseID(c, "id", "product")
	if !ok {
		return
	}

	var params pagination.Params
	if err := c.ShouldBindQuery(&params); err != nil {
		response.BindError(c, err)
		return
	}

	reviews, err := h.reviewService.ProductReviews(c.Request.Context(), productID, params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Reviews retrieved successfully", reviews)
}

// GetMyReviews handles GET /reviews/me
func (h *ReviewHandler) GetMyReviews(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var params pagination.Params
	if err := c.ShouldBindQuery(&params); err != nil {
		response.BindError(c, err)
		return
	}

	reviews, err := h.reviewService.UserReviews(c.Request.Context(), userID, params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Reviews retrieved successfully", reviews)
}

// CanReview handles GET /reviews/can-review/:productId
func (h *ReviewHandler) CanReview(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	productID, ok := parseID(c, "productId", "product")
	if !ok {
		return
	}

	result, err := h.reviewService.CanReview(c.Request.Context(), userID, productID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Review eligibility checked", result)
}

// CreateReview handles POST /reviews
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req product.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	review, err := h.reviewService.Create(c.Request.Context(), userID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Review submitted and awaiting approval", review)
}

// UpdateReview handles PUT /reviews/:id
func (h *ReviewHandler) UpdateReview(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	reviewID, ok := parseID(c, "id", "review")
	if !ok {
		return
	}

	var req product.UpdateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	review, err := h.reviewService.Update(c.Request.Context(), reviewID, userID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Review updated and awaiting approval", review)
}

// DeleteReview handles DELETE /reviews/:id
func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	reviewID, ok := parseID(c, "id", "review")
	if !ok {
		return
	}

	if err := h.reviewService.Delete(c.Request.Context(), reviewID, userID); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Review deleted successfully", nil)
}

// Admin endpoints

// AdminGetReviews handles GET /admin/reviews
func (h *ReviewHandler) AdminGetReviews(c *gin.Context) {
	var req product.AdminReviewListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BindError(c, err)
		return
	}

	reviews, err := h.reviewService.AdminList(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Reviews retrieved successfully", reviews)
}

// AdminGetReviewStats handles GET /admin/reviews/stats
func (h *ReviewHandler) AdminGetReviewStats(c *gin.Context) {
	stats, err := h.reviewService.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Review statistics retrieved successfully", stats)
}

// AdminGetReview handles GET /admin/reviews/:id
func (h *ReviewHandler) AdminGetReview(c *gin.Context) {
	reviewID, ok := parseID(c, "id", "review")
	if !ok {
		return
	}

	review, err := h.reviewService.AdminGet(c.Request.Context(), reviewID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Review retrieved successfully", review)
}

// AdminSetApproval handles PATCH /admin/reviews/:id/approval
func (h *ReviewHandler) AdminSetApproval(c *gin.Context) {
	reviewID, ok := parseID(c, "id", "review")
	if !ok {
		return
	}

	var req product.ReviewApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	review, err := h.reviewService.SetApproval(c.Request.Context(), reviewID, *req.IsApproved)
	if err != nil {
		response.Error(c, err)
		return
	}

	message := "Review rejected successfully"
	if review.IsApproved {
		message = "Review approved successfully"
	}
	response.OK(c, message, review)
}

// AdminDeleteReview handles DELETE /admin/reviews/:id
func (h *ReviewHandler) AdminDeleteReview(c *gin.Context) {
	reviewID, ok := parseID(c, "id", "review")
	if !ok {
		return
	}

	if err := h.reviewService.AdminDelete(c.Request.Context(), reviewID); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Review deleted successfully", nil)
}

// AdminBulkApprove handles POST /admin/reviews/bulk-approve
func (h *ReviewHandler) AdminBulkApprove(c *gin.Context) {
	var req product.BulkReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	result, err := h.reviewService.BulkApprove(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Reviews approved successfully", result)
}

// AdminBulkDelete handles POST /admin/reviews/bulk-delete
func (h *ReviewHandler) AdminBulkDelete(c *gin.Context) {
	var req product.BulkReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	result, err := h.reviewService.BulkDelete(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Reviews deleted successfully", result)
}
