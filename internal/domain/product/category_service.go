// internal/domain/product/category_service.go
package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/your-org/food-ordering-backend/internal/pkg/apperror"
	"github.com/your-org/food-ordering-backend/internal/pkg/pagination"
)

const msgCategoryExists = "Category with this name already exists"

// CategoryService handles category business logic
type CategoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new category service
func NewCategoryService(db *gorm.DB) *CategoryService {
	return &CategoryService{
		db: db,
	}
}

// CategoryCreateRequest represents category creation data
type CategoryCreateRequest struct {
	Name         string  `json:"name" binding:"required,min=2,max=50"`
	Description  *string `json:"description" binding:"omitempty,max=500"`
	ImageURL     *string `json:"imageUrl" binding:"omitempty,url,max=500"`
	DisplayOrder *int    `json:"displayOrder" binding:"omitempty,gte=0"`
	IsActive     *bool   `json:"isActive"`
}

// CategoryUpdateRequest holds optional fields; nil leaves the stored value unchanged
type CategoryUpdateRequest struct {
	Name         *string `json:"name" binding:"omitempty,min=2,max=50"`
	Description  *string `json:"description" binding:"omitempty,max=500"`
	ImageURL     *string `json:"imageUrl" binding:"omitempty,url,max=500"`
	DisplayOrder *int    `json:"displayOrder" binding:"omitempty,gte=0"`
	IsActive     *bool   `json:"isActive"`
}

// ReorderRequest lists category IDs in their new display order
type ReorderRequest struct {
	CategoryIDs []uint `json:"categoryIds" binding:"required,min=1,dive,gt=0"`
}

// CategoryProducts is a category with a page of its available products
type CategoryProducts struct {
	Category *Category                `json:"category"`
	Products pagination.Page[Product] `json:"products"`
}

// Active returns active categories in display order with available product counts
func (s *CategoryService) Active(ctx context.Context) ([]Category, error) {
	db := s.db.WithContext(ctx)

	categories := []Category{}
	if err := db.Where("is_active = ?", true).
		Order("display_order ASC, id ASC").
		Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve categories: %w", err)
	}
	if err := s.attachCounts(db, categories, true); err != nil {
		return nil, err
	}
	return categories, nil
}

// List returns every category, paginated, with total product counts
func (s *CategoryService) List(ctx context.Context, params pagination.Params) (*pagination.Page[Category], error) {
	params = pagination.Normalize(params)
	db := s.db.WithContext(ctx)

	var total int64
	if err := db.Model(&Category{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count categories: %w", err)
	}

	var categories []Category
	if err := db.Order("display_order ASC, id ASC").
		Offset(params.Offset()).Limit(params.Limit).
		Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve categories: %w", err)
	}
	if err := s.attachCounts(db, categories, false); err != nil {
		return nil, err
	}

	page := pagination.New(categories, total, params)
	return &page, nil
}

// Get returns a category. Public callers only see active categories and available products in the count.
func (s *CategoryService) Get(ctx context.Context, id uint, activeOnly bool) (*Category, error) {
	db := s.db.WithContext(ctx)
	category, err := s.find(db, id, activeOnly)
	if err != nil {
		return nil, err
	}

	one := []Category{*category}
	if err := s.attachCounts(db, one, activeOnly); err != nil {
		return nil, err
	}
	return &one[0], nil
}

// Products returns the available products of an active category, newest first
func (s *CategoryService) Products(ctx context.Context, id uint, params pagination.Params) (*CategoryProducts, error) {
	params = pagination.Normalize(params)
	db := s.db.WithContext(ctx)

	category, err := s.find(db, id, true)
	if err != nil {
		return nil, err
	}

	query := db.Model(&Product{}).Where("category_id = ? AND is_available = ?", id, true)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	var products []Product
	if err := query.Order("created_at DESC, id DESC").
		Offset(params.Offset()).Limit(params.Limit).
		Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve products: %w", err)
	}

	return &CategoryProducts{
		Category: category,
		Products: pagination.New(products, total, params),
	}, nil
}

// Create adds a category. Without a display order it goes last.
func (s *CategoryService) Create(ctx context.Context, req *CategoryCreateRequest) (*Category, error) {
	db := s.db.WithContext(ctx)
	name := strings.TrimSpace(req.Name)

	if err := s.ensureUniqueName(db, name, 0); err != nil {
		return nil, err
	}

	category := Category{
		Name:        name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		IsActive:    true,
	}
	if req.DisplayOrder != nil {
		category.DisplayOrder = *req.DisplayOrder
	} else {
		var maxOrder *int
		if err := db.Model(&Category{}).Select("MAX(display_order)").Scan(&maxOrder).Error; err != nil {
			return nil, fmt.Errorf("failed to compute display order: %w", err)
		}
		if maxOrder != nil {
			category.DisplayOrder = *maxOrder + 1
		} else {
			category.DisplayOrder = 1
		}
	}

	if err := db.Create(&category).Error; err != nil {
		if apperror.IsUniqueViolation(err) {
			return nil, apperror.Conflict(msgCategoryExists)
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	if req.IsActive != nil && !*req.IsActive {
		if err := db.Model(&category).Update("is_active", false).Error; err != nil {
			return nil, fmt.Errorf("failed to create category: %w", err)
		}
		category.IsActive = false
	}
	return &category, nil
}

// Update merges the set fields into the category
func (s *CategoryService) Update(ctx context.Context, id uint, req *CategoryUpdateRequest) (*Category, error) {
	db := s.db.WithContext(ctx)
	category, err := s.find(db, id, false)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name != category.Name {
			if err := s.ensureUniqueName(db, name, id); err != nil {
				return nil, err
			}
		}
		updates["name"] = name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.ImageURL != nil {
		updates["image_url"] = *req.ImageURL
	}
	if req.DisplayOrder != nil {
		updates["display_order"] = *req.DisplayOrder
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		if err := db.Model(&Category{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			if apperror.IsUniqueViolation(err) {
				return nil, apperror.Conflict(msgCategoryExists)
			}
			return nil, fmt.Errorf("failed to update category: %w", err)
		}
	}
	return s.Get(ctx, id, false)
}

// Delete removes an empty category
func (s *CategoryService) Delete(ctx context.Context, id uint) error {
	db := s.db.WithContext(ctx)
	if _, err := s.find(db, id, false); err != nil {
		return err
	}

	var productCount int64
	if err := db.Model(&Product{}).Where("category_id = ?", id).Count(&productCount).Error; err != nil {
		return fmt.Errorf("failed to count products: %w", err)
	}
	if productCount > 0 {
		return apperror.BadRequest(fmt.Sprintf(
			"Cannot delete category. It has %d product(s). Please move or delete the products first.", productCount))
	}

	if err := db.Delete(&Category{}, id).Error; err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return apperror.BadRequest("Cannot delete category with existing products")
		}
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return nil
}

// Reorder assigns display order by position in the list
func (s *CategoryService) Reorder(ctx context.Context, req *ReorderRequest) ([]Category, error) {
	ids := req.CategoryIDs
	seen := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return nil, apperror.BadRequest("Duplicate category IDs")
		}
		seen[id] = struct{}{}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var found int64
		if err := tx.Model(&Category{}).Where("id IN ?", ids).Count(&found).Error; err != nil {
			return fmt.Errorf("failed to check categories: %w", err)
		}
		if found != int64(len(ids)) {
			return apperror.BadRequest("Some category IDs are invalid")
		}
		for position, id := range ids {
			if err := tx.Model(&Category{}).Where("id = ?", id).Update("display_order", position).Error; err != nil {
				return fmt.Errorf("failed to reorder categories: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Active(ctx)
}

func (s *CategoryService) find(db *gorm.DB, id uint, activeOnly bool) (*Category, error) {
	query := db.Where("id = ?", id)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var category Category
	if err := query.First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound(msgCategoryNotFound)
		}
		return nil, fmt.Errorf("failed to retrieve category: %w", err)
	}
	return &category, nil
}

func (s *CategoryService) ensureUniqueName(db *gorm.DB, name string, excludeID uint) error {
	var count int64
	if err := db.Model(&Category{}).
		Where("LOWER(name) = ? AND id <> ?", strings.ToLower(name), excludeID).
		Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check category name: %w", err)
	}
	if count > 0 {
		return apperror.Conflict(msgCategoryExists)
	}
	return nil
}

// attachCounts fills ProductCount with one grouped query
func (s *CategoryService) attachCounts(db *gorm.DB, categories []Category, availableOnly bool) error {
	if len(categories) == 0 {
		return nil
	}
	ids := make([]uint, len(categories))
	for i := range categories {
		ids[i] = categories[i].ID
	}

	query := db.Model(&Product{}).
		Select("category_id, COUNT(*) AS count").
		Where("category_id IN ?", ids)
	if availableOnly {
		query = query.Where("is_available = ?", true)
	}

	var rows []struct {
		CategoryID uint
		Count      int64
	}
	if err := query.Group("category_id").Scan(&rows).Error; err != nil {
		return fmt.Errorf("failed to count category products: %w", err)
	}

	counts := make(map[uint]int64, len(rows))
	for _, row := range rows {
		counts[row.CategoryID] = row.Count
	}
	for i := range categories {
		categories[i].ProductCount = counts[categories[i].ID]
	}
	return nil
}
