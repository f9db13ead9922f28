// internal/domain/product/service.go
package product

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/your-org/food-ordering-backend/internal/pkg/apperror"
	"github.com/your-org/food-ordering-backend/internal/pkg/pagination"
)

const (
	msgProductNotFound  = "Product not found"
	msgCategoryNotFound = "Category not found"

	defaultHighlightLimit = 10
)

// Service handles product business logic
type Service struct {
	db *gorm.DB
}

// NewService creates a new product service
func NewService(db *gorm.DB) *Service {
	return &Service{
		db: db,
	}
}

// ListRequest represents product list query parameters
type ListRequest struct {
	pagination.Params
	CategoryID  uint     `form:"categoryId"`
	Search      string   `form:"search"`
	MinPrice    *float64 `form:"minPrice" binding:"omitempty,gte=0"`
	MaxPrice    *float64 `form:"maxPrice" binding:"omitempty,gte=0"`
	IsPopular   *bool    `form:"isPopular"`
	IsAvailable *bool    `form:"isAvailable"`
	SortBy      string   `form:"sortBy" binding:"omitempty,oneof=price createdAt name discount"`
	SortOrder   string   `form:"sortOrder" binding:"omitempty,oneof=asc desc"`
}

// CreateRequest represents product creation data
type CreateRequest struct {
	Name            string          `json:"name" binding:"required,min=2,max=100"`
	Description     string          `json:"description" binding:"required,min=10"`
	Price           decimal.Decimal `json:"price"`
	CategoryID      uint            `json:"categoryId" binding:"required"`
	ImageURL        string          `json:"imageUrl" binding:"required,url,max=500"`
	Ingredients     []string        `json:"ingredients"`
	PreparationTime *int            `json:"preparationTime" binding:"omitempty,gt=0"`
	Calories        *int            `json:"calories" binding:"omitempty,gte=0"`
	Discount        int             `json:"discount" binding:"gte=0,lte=100"`
	IsAvailable     *bool           `json:"isAvailable"`
	IsPopular       bool            `json:"isPopular"`
}

// UpdateRequest holds optional fields; nil leaves the stored value unchanged
type UpdateRequest struct {
	Name            *string          `json:"name" binding:"omitempty,min=2,max=100"`
	Description     *string          `json:"description" binding:"omitempty,min=10"`
	Price           *decimal.Decimal `json:"price"`
	CategoryID      *uint            `json:"categoryId"`
	ImageURL        *string          `json:"imageUrl" binding:"omitempty,url,max=500"`
	Ingredients     []string         `json:"ingredients"`
	PreparationTime *int             `json:"preparationTime" binding:"omitempty,gt=0"`
	Calories        *int             `json:"calories" binding:"omitempty,gte=0"`
	Discount        *int             `json:"discount" binding:"omitempty,gte=0,lte=100"`
	IsAvailable     *bool            `json:"isAvailable"`
	IsPopular       *bool            `json:"isPopular"`
}

// List returns available products matching the filters
func (s *Service) List(ctx context.Context, req *ListRequest) (*pagination.Page[Product], error) {
	return s.list(ctx, req, false)
}

// AdminList returns products including unavailable ones
func (s *Service) AdminList(ctx context.Context, req *ListRequest) (*pagination.Page[Product], error) {
	return s.list(ctx, req, true)
}

func (s *Service) list(ctx context.Context, req *ListRequest, includeUnavailable bool) (*pagination.Page[Product], error) {
	params := pagination.Normalize(req.Params)
	query := s.db.WithContext(ctx).Model(&Product{})

	if !includeUnavailable {
		query = query.Where("is_available = ?", true)
	} else if req.IsAvailable != nil {
		query = query.Where("is_available = ?", *req.IsAvailable)
	}
	if req.CategoryID > 0 {
		query = query.Where("category_id = ?", req.CategoryID)
	}
	if req.MinPrice != nil {
		query = query.Where("price >= ?", decimal.NewFromFloat(*req.MinPrice))
	}
	if req.MaxPrice != nil {
		query = query.Where("price <= ?", decimal.NewFromFloat(*req.MaxPrice))
	}
	if req.IsPopular != nil {
		query = query.Where("is_popular = ?", *req.IsPopular)
	}
	if search := strings.TrimSpace(req.Search); search != "" {
		term := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", term, term)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	if includeUnavailable {
		query = query.Preload("Category")
	}

	var products []Product
	if err := query.Order(orderClause(req.SortBy, req.SortOrder)).
		Offset(params.Offset()).Limit(params.Limit).
		Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve products: %w", err)
	}

	page := pagination.New(products, total, params)
	return &page, nil
}

// Get returns an available product with its category
func (s *Service) Get(ctx context.Context, id uint) (*Product, error) {
	return s.find(s.db.WithContext(ctx).Where("is_available = ?", true), id)
}

// AdminGet returns a product regardless of availability
func (s *Service) AdminGet(ctx context.Context, id uint) (*Product, error) {
	return s.find(s.db.WithContext(ctx), id)
}

func (s *Service) find(db *gorm.DB, id uint) (*Product, error) {
	var product Product
	err := db.Preload("Category").
		Preload("Images", func(tx *gorm.DB) *gorm.DB { return tx.Order("display_order ASC, id ASC") }).
		First(&product, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound(msgProductNotFound)
		}
		return nil, fmt.Errorf("failed to retrieve product: %w", err)
	}
	return &product, nil
}

// Popular returns available products flagged popular, newest first
func (s *Service) Popular(ctx context.Context, limit int) ([]Product, error) {
	return s.highlight(ctx, "is_popular = ?", true, "created_at DESC, id DESC", limit)
}

// Discounted returns available products with a discount, largest first
func (s *Service) Discounted(ctx context.Context, limit int) ([]Product, error) {
	return s.highlight(ctx, "discount > ?", 0, "discount DESC, id DESC", limit)
}

func (s *Service) highlight(ctx context.Context, cond string, arg interface{}, order string, limit int) ([]Product, error) {
	if limit < 1 || limit > pagination.MaxLimit {
		limit = defaultHighlightLimit
	}
	products := []Product{}
	if err := s.db.WithContext(ctx).
		Where("is_available = ?", true).
		Where(cond, arg).
		Order(order).
		Limit(limit).
		Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve products: %w", err)
	}
	return products, nil
}

// Create adds a product to an existing category
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*Product, error) {
	if !req.Price.IsPositive() {
		return nil, apperror.BadRequest("Price must be a positive number")
	}
	db := s.db.WithContext(ctx)
	if err := requireCategory(db, req.CategoryID); err != nil {
		return nil, err
	}

	product := Product{
		Name:            strings.TrimSpace(req.Name),
		Description:     strings.TrimSpace(req.Description),
		Price:           req.Price,
		ImageURL:        req.ImageURL,
		Ingredients:     req.Ingredients,
		PreparationTime: req.PreparationTime,
		Calories:        req.Calories,
		IsPopular:       req.IsPopular,
		Discount:        req.Discount,
		CategoryID:      req.CategoryID,
		IsAvailable:     true,
	}
	if product.Ingredients == nil {
		product.Ingredients = []string{}
	}

	if err := db.Create(&product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	// gorm skips false on create because of the column default
	if req.IsAvailable != nil && !*req.IsAvailable {
		if err := db.Model(&product).Update("is_available", false).Error; err != nil {
			return nil, fmt.Errorf("failed to create product: %w", err)
		}
	}

	logrus.WithFields(logrus.Fields{"product_id": product.ID, "category_id": product.CategoryID}).Info("Product created")
	return s.AdminGet(ctx, product.ID)
}

// Update merges the set fields into the product
func (s *Service) Update(ctx context.Context, id uint, req *UpdateRequest) (*Product, error) {
	db := s.db.WithContext(ctx)
	product, err := s.find(db, id)
	if err != nil {
		return nil, err
	}

	if req.Price != nil && !req.Price.IsPositive() {
		return nil, apperror.BadRequest("Price must be a positive number")
	}
	if req.CategoryID != nil && *req.CategoryID != product.CategoryID {
		if err := requireCategory(db, *req.CategoryID); err != nil {
			return nil, err
		}
	}

	updates := req.updates()
	if len(updates) > 0 {
		if err := db.Model(&Product{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update product: %w", err)
		}
	}
	return s.AdminGet(ctx, id)
}

func (r *UpdateRequest) updates() map[string]interface{} {
	updates := make(map[string]interface{})
	if r.Name != nil {
		updates["name"] = strings.TrimSpace(*r.Name)
	}
	if r.Description != nil {
		updates["description"] = strings.TrimSpace(*r.Description)
	}
	if r.Price != nil {
		updates["price"] = *r.Price
	}
	if r.CategoryID != nil {
		updates["category_id"] = *r.CategoryID
	}
	if r.ImageURL != nil {
		updates["image_url"] = *r.ImageURL
	}
	if r.Ingredients != nil {
		// map updates bypass the field serializer
		updates["ingredients"] = encodeIngredients(r.Ingredients)
	}
	if r.PreparationTime != nil {
		updates["preparation_time"] = *r.PreparationTime
	}
	if r.Calories != nil {
		updates["calories"] = *r.Calories
	}
	if r.Discount != nil {
		updates["discount"] = *r.Discount
	}
	if r.IsAvailable != nil {
		updates["is_available"] = *r.IsAvailable
	}
	if r.IsPopular != nil {
		updates["is_popular"] = *r.IsPopular
	}
	return updates
}

// Delete removes a product. Cart lines go with it; order items keep their snapshot.
func (s *Service) Delete(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&ProductImage{}).Error; err != nil {
			return fmt.Errorf("failed to delete product images: %w", err)
		}
		result := tx.Delete(&Product{}, id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete product: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperror.NotFound(msgProductNotFound)
		}
		return nil
	})
	if err != nil {
		return err
	}
	logrus.WithField("product_id", id).Info("Product deleted")
	return nil
}

// ToggleAvailability flips the availability flag
func (s *Service) ToggleAvailability(ctx context.Context, id uint) (*Product, error) {
	return s.toggle(ctx, id, "is_available")
}

// TogglePopular flips the popular flag
func (s *Service) TogglePopular(ctx context.Context, id uint) (*Product, error) {
	return s.toggle(ctx, id, "is_popular")
}

func (s *Service) toggle(ctx context.Context, id uint, column string) (*Product, error) {
	result := s.db.WithContext(ctx).Model(&Product{}).
		Where("id = ?", id).
		Update(column, gorm.Expr("NOT "+column))
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperror.NotFound(msgProductNotFound)
	}
	return s.AdminGet(ctx, id)
}

func encodeIngredients(ingredients []string) string {
	data, _ := json.Marshal(ingredients)
	return string(data)
}

func requireCategory(db *gorm.DB, categoryID uint) error {
	var count int64
	if err := db.Model(&Category{}).Where("id = ?", categoryID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check category: %w", err)
	}
	if count == 0 {
		return apperror.BadRequest(msgCategoryNotFound)
	}
	return nil
}

// orderClause builds the ORDER BY clause from whitelisted fields
func orderClause(sortBy, sortOrder string) string {
	columns := map[string]string{
		"price":     "price",
		"createdAt": "created_at",
		"name":      "name",
		"discount":  "discount",
	}

	column, ok := columns[sortBy]
	if !ok {
		column = "created_at"
	}
	if sortOrder != "asc" {
		sortOrder = "desc"
	}
	return fmt.Sprintf("%s %s, id %s", column, sortOrder, sortOrder)
}
