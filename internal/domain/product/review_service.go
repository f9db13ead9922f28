// internal/domain/product/review_service.go
package product

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/your-org/food-ordering-backend/internal/pkg/apperror"
	"github.com/your-org/food-ordering-backend/internal/pkg/pagination"
)

const (
	msgReviewNotFound  = "Review not found"
	msgAlreadyReviewed = "You have already reviewed this product"
)

// ReviewService handles review business logic
type ReviewService struct {
	db *gorm.DB
}

// NewReviewService creates a new review service
func NewReviewService(db *gorm.DB) *ReviewService {
	return &ReviewService{
		db: db,
	}
}

// ProductReviews returns approved reviews for a product, newest first, with stats
func (s *ReviewService) ProductReviews(ctx context.Context, productID uint, params pagination.Params) (*ProductReviews, error) {
	params = pagination.Normalize(params)
	db := s.db.WithContext(ctx)

	if err := requireProduct(db, productID); err != nil {
		return nil, err
	}

	query := db.Model(&Review{}).Where("product_id = ? AND is_approved = ?", productID, true)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count reviews: %w", err)
	}

	reviews := []Review{}
	if err := query.Order("created_at DESC, id DESC").
		Offset(params.Offset()).Limit(params.Limit).
		Find(&reviews).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve reviews: %w", err)
	}
	if err := attachReviewers(db, reviews, false); err != nil {
		return nil, err
	}

	stats, err := s.productStats(db, productID)
	if err != nil {
		return nil, err
	}

	return &ProductReviews{
		Reviews:    reviews,
		Pagination: pagination.NewMeta(total, params),
		Stats:      *stats,
	}, nil
}

// productStats computes the average and distribution over approved reviews
func (s *ReviewService) productStats(db *gorm.DB, productID uint) (*ReviewStats, error) {
	var rows []struct {
		Rating int
		Count  int64
	}
	if err := db.Model(&Review{}).
		Select("rating, COUNT(*) AS count").
		Where("product_id = ? AND is_approved = ?", productID, true).
		Group("rating").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to compute review stats: %w", err)
	}

	stats := &ReviewStats{RatingDistribution: map[int]int64{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}}
	var sum int64
	for _, row := range rows {
		stats.RatingDistribution[row.Rating] = row.Count
		stats.TotalReviews += row.Count
		sum += int64(row.Rating) * row.Count
	}
	if stats.TotalReviews > 0 {
		stats.AverageRating = roundRating(float64(sum) / float64(stats.TotalReviews))
	}
	return stats, nil
}

// UserReviews returns the user's own reviews with their products
func (s *ReviewService) UserReviews(ctx context.Context, userID uint, params pagination.Params) (*pagination.Page[Review], error) {
	params = pagination.Normalize(params)
	db := s.db.WithContext(ctx)
	query := db.Model(&Review{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count reviews: %w", err)
	}

	var reviews []Review
	if err := query.Preload("Product").
		Order("created_at DESC, id DESC").
		Offset(params.Offset()).Limit(params.Limit).
		Find(&reviews).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve reviews: %w", err)
	}
	if err := attachReviewers(db, reviews, false); err != nil {
		return nil, err
	}

	page := pagination.New(reviews, total, params)
	return &page, nil
}

// CanReview reports whether the user may review the product
func (s *ReviewService) CanReview(ctx context.Context, userID, productID uint) (*CanReviewResponse, error) {
	db := s.db.WithContext(ctx)

	if err := requireProduct(db, productID); err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			return &CanReviewResponse{CanReview: false, Reason: msgProductNotFound}, nil
		}
		return nil, err
	}

	var count int64
	if err := db.Model(&Review{}).Where("user_id = ? AND product_id = ?", userID, productID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check review: %w", err)
	}
	if count > 0 {
		return &CanReviewResponse{CanReview: false, Reason: "Already reviewed"}, nil
	}
	return &CanReviewResponse{CanReview: true}, nil
}

// Create adds a review awaiting approval. One review per user and product.
func (s *ReviewService) Create(ctx context.Context, userID uint, req *CreateReviewRequest) (*Review, error) {
	db := s.db.WithContext(ctx)

	if err := requireProduct(db, req.ProductID); err != nil {
		return nil, err
	}

	var existing int64
	if err := db.Model(&Review{}).Where("user_id = ? AND product_id = ?", userID, req.ProductID).Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to check review: %w", err)
	}
	if existing > 0 {
		return nil, apperror.Conflict(msgAlreadyReviewed)
	}

	review := Review{
		UserID:    userID,
		ProductID: req.ProductID,
		Rating:    req.Rating,
		Comment:   trimComment(req.Comment),
	}
	if err := db.Create(&review).Error; err != nil {
		if apperror.IsUniqueViolation(err) {
			return nil, apperror.Conflict(msgAlreadyReviewed)
		}
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	logrus.WithFields(logrus.Fields{"review_id": review.ID, "product_id": review.ProductID}).Info("Review submitted")
	return s.load(db, review.ID, &userID, false)
}

// Update changes the user's review and sends it back for approval
func (s *ReviewService) Update(ctx context.Context, reviewID, userID uint, req *UpdateReviewRequest) (*Review, error) {
	db := s.db.WithContext(ctx)
	review, err := s.load(db, reviewID, &userID, false)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"is_approved": false}
	if req.Rating != nil {
		updates["rating"] = *req.Rating
	}
	if req.Comment != nil {
		updates["comment"] = trimComment(req.Comment)
	}

	if err := db.Model(&Review{}).Where("id = ?", review.ID).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update review: %w", err)
	}
	return s.load(db, reviewID, &userID, false)
}

// Delete removes the user's own review
func (s *ReviewService) Delete(ctx context.Context, reviewID, userID uint) error {
	result := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", reviewID, userID).Delete(&Review{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete review: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound(msgReviewNotFound)
	}
	return nil
}

// Admin methods

// AdminList returns reviews filtered by approval, product and rating
func (s *ReviewService) AdminList(ctx context.Context, req *AdminReviewListRequest) (*pagination.Page[Review], error) {
	params := pagination.Normalize(req.Params)
	db := s.db.WithContext(ctx)
	query := db.Model(&Review{})

	if req.IsApproved != nil {
		query = query.Where("is_approved = ?", *req.IsApproved)
	}
	if req.ProductID > 0 {
		query = query.Where("product_id = ?", req.ProductID)
	}
	if req.Rating > 0 {
		query = query.Where("rating = ?", req.Rating)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count reviews: %w", err)
	}

	var reviews []Review
	if err := query.Preload("Product").
		Order("created_at DESC, id DESC").
		Offset(params.Offset()).Limit(params.Limit).
		Find(&reviews).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve reviews: %w", err)
	}
	if err := attachReviewers(db, reviews, true); err != nil {
		return nil, err
	}

	page := pagination.New(reviews, total, params)
	return &page, nil
}

// AdminGet returns any review with author email
func (s *ReviewService) AdminGet(ctx context.Context, reviewID uint) (*Review, error) {
	return s.load(s.db.WithContext(ctx), reviewID, nil, true)
}

// SetApproval approves or rejects a review
func (s *ReviewService) SetApproval(ctx context.Context, reviewID uint, isApproved bool) (*Review, error) {
	db := s.db.WithContext(ctx)
	result := db.Model(&Review{}).Where("id = ?", reviewID).Update("is_approved", isApproved)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update review status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperror.NotFound(msgReviewNotFound)
	}
	return s.load(db, reviewID, nil, true)
}

// AdminDelete removes any review
func (s *ReviewService) AdminDelete(ctx context.Context, reviewID uint) error {
	result := s.db.WithContext(ctx).Delete(&Review{}, reviewID)
	if result.Error != nil {
		return fmt.Errorf("failed to delete review: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound(msgReviewNotFound)
	}
	return nil
}

// Stats counts reviews by approval and averages approved ratings
func (s *ReviewService) Stats(ctx context.Context) (*AdminReviewStats, error) {
	var row struct {
		Total    int64
		Approved int64
		Average  *float64
	}
	err := s.db.WithContext(ctx).Model(&Review{}).
		Select("COUNT(*) AS total, " +
			"COALESCE(SUM(CASE WHEN is_approved THEN 1 ELSE 0 END), 0) AS approved, " +
			"AVG(CASE WHEN is_approved THEN rating END) AS average").
		Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute review stats: %w", err)
	}

	stats := &AdminReviewStats{
		Total:    row.Total,
		Approved: row.Approved,
		Pending:  row.Total - row.Approved,
	}
	if row.Average != nil {
		stats.AverageRating = roundRating(*row.Average)
	}
	return stats, nil
}

// BulkApprove approves the pending reviews among ids
func (s *ReviewService) BulkApprove(ctx context.Context, req *BulkReviewRequest) (*BulkResult, error) {
	result := s.db.WithContext(ctx).Model(&Review{}).
		Where("id IN ? AND is_approved = ?", req.ReviewIDs, false).
		Update("is_approved", true)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to approve reviews: %w", result.Error)
	}
	return &BulkResult{Affected: result.RowsAffected}, nil
}

// BulkDelete removes the reviews among ids
func (s *ReviewService) BulkDelete(ctx context.Context, req *BulkReviewRequest) (*BulkResult, error) {
	result := s.db.WithContext(ctx).Where("id IN ?", req.ReviewIDs).Delete(&Review{})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to delete reviews: %w", result.Error)
	}
	return &BulkResult{Affected: result.RowsAffected}, nil
}

// load fetches a review with product and author. A non-nil ownerID scopes it to that user.
func (s *ReviewService) load(db *gorm.DB, reviewID uint, ownerID *uint, withEmail bool) (*Review, error) {
	query := db.Preload("Product").Where("id = ?", reviewID)
	if ownerID != nil {
		query = query.Where("user_id = ?", *ownerID)
	}

	var review Review
	if err := query.First(&review).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound(msgReviewNotFound)
		}
		return nil, fmt.Errorf("failed to retrieve review: %w", err)
	}

	one := []Review{review}
	if err := attachReviewers(db, one, withEmail); err != nil {
		return nil, err
	}
	return &one[0], nil
}

// attachReviewers loads review authors from the users table in one query
func attachReviewers(db *gorm.DB, reviews []Review, withEmail bool) error {
	if len(reviews) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(reviews))
	for _, r := range reviews {
		ids = append(ids, r.UserID)
	}

	var authors []Reviewer
	if err := db.Table("users").
		Select("id, first_name, last_name, email").
		Where("id IN ?", ids).
		Scan(&authors).Error; err != nil {
		return fmt.Errorf("failed to load review authors: %w", err)
	}

	byID := make(map[uint]Reviewer, len(authors))
	for _, a := range authors {
		if !withEmail {
			a.Email = ""
		}
		byID[a.ID] = a
	}
	for i := range reviews {
		if author, ok := byID[reviews[i].UserID]; ok {
			reviews[i].Reviewer = &author
		}
	}
	return nil
}

func requireProduct(db *gorm.DB, productID uint) error {
	var count int64
	if err := db.Model(&Product{}).Where("id = ?", productID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check product: %w", err)
	}
	if count == 0 {
		return apperror.NotFound(msgProductNotFound)
	}
	return nil
}

func trimComment(comment *string) *string {
	if comment == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*comment)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// roundRating rounds to one decimal place
func roundRating(avg float64) float64 {
	return math.Round(avg*10) / 10
}
