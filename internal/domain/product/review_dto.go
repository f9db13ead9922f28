// internal/domain/product/review_dto.go
package product

import "github.com/your-org/food-ordering-backend/internal/pkg/pagination"

// CreateReviewRequest represents the request to create a review
type CreateReviewRequest struct {
	ProductID uint    `json:"productId" binding:"required"`
	Rating    int     `json:"rating" binding:"required,min=1,max=5"`
	Comment   *string `json:"comment" binding:"omitempty,max=1000"`
}

// UpdateReviewRequest represents the request to update a review
type UpdateReviewRequest struct {
	Rating  *int    `json:"rating" binding:"omitempty,min=1,max=5"`
	Comment *string `json:"comment" binding:"omitempty,max=1000"`
}

// AdminReviewListRequest represents query parameters for the admin review list
type AdminReviewListRequest struct {
	pagination.Params
	IsApproved *bool `form:"isApproved"`
	ProductID  uint  `form:"productId"`
	Rating     int   `form:"rating" binding:"omitempty,min=1,max=5"`
}

// ReviewApprovalRequest approves or rejects a review
type ReviewApprovalRequest struct {
	IsApproved *bool `json:"isApproved" binding:"required"`
}

// BulkReviewRequest lists the reviews a bulk action applies to
type BulkReviewRequest struct {
	ReviewIDs []uint `json:"reviewIds" binding:"required,min=1,dive,gt=0"`
}

// ReviewStats summarizes approved reviews of one product
type ReviewStats struct {
	AverageRating      float64       `json:"averageRating"`
	TotalReviews       int64         `json:"totalReviews"`
	RatingDistribution map[int]int64 `json:"ratingDistribution"`
}

// ProductReviews is a page of approved reviews with the product's stats
type ProductReviews struct {
	Reviews    []Review        `json:"reviews"`
	Pagination pagination.Meta `json:"pagination"`
	Stats      ReviewStats     `json:"stats"`
}

// CanReviewResponse tells whether the user may review a product
type CanReviewResponse struct {
	CanReview bool   `json:"canReview"`
	Reason    string `json:"reason,omitempty"`
}

// AdminReviewStats summarizes all reviews
type AdminReviewStats struct {
	Total         int64   `json:"total"`
	Pending       int64   `json:"pending"`
	Approved      int64   `json:"approved"`
	AverageRating float64 `json:"averageRating"`
}

// BulkResult reports how many reviews a bulk action touched
type BulkResult struct {
	Affected int64 `json:"affected"`
}
