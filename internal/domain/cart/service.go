// internal/domain/cart/service.go
package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/your-org/food-ordering-backend/internal/domain/pricing"
	"github.com/your-org/food-ordering-backend/internal/domain/product"
	"github.com/your-org/food-ordering-backend/internal/pkg/apperror"
)

// CountCache caches the per-user item count shown in the header badge
type CountCache interface {
	Get(ctx context.Context, userID uint) (int, bool)
	Set(ctx context.Context, userID uint, count int)
	Invalidate(ctx context.Context, userID uint)
}

type noopCountCache struct{}

func (noopCountCache) Get(context.Context, uint) (int, bool) { return 0, false }
func (noopCountCache) Set(context.Context, uint, int)        {}
func (noopCountCache) Invalidate(context.Context, uint)      {}

// Service handles cart business logic
type Service struct {
	db    *gorm.DB
	cache CountCache
}

// NewService creates a new cart service. A nil cache disables count caching.
func NewService(db *gorm.DB, cache CountCache) *Service {
	if cache == nil {
		cache = noopCountCache{}
	}
	return &Service{
		db:    db,
		cache: cache,
	}
}

// GetCart returns the user's cart priced from live product data
func (s *Service) GetCart(ctx context.Context, userID uint) (*Response, error) {
	cart, err := s.loadCart(s.db.WithContext(ctx), userID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return emptyResponse(), nil
	}
	return buildResponse(cart), nil
}

// AddItem adds a product or increments the existing line for it
func (s *Service) AddItem(ctx context.Context, userID uint, req *AddItemRequest) (*Response, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var prod product.Product
		if err := tx.First(&prod, req.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("Product not found")
			}
			return fmt.Errorf("failed to load product: %w", err)
		}
		if !prod.IsAvailable {
			return apperror.BadRequest("Product is not available")
		}

		cart := Cart{UserID: userID}
		if err := tx.Where(Cart{UserID: userID}).FirstOrCreate(&cart).Error; err != nil {
			return fmt.Errorf("failed to get cart: %w", err)
		}

		var existing CartItem
		err := tx.Where("cart_id = ? AND product_id = ?", cart.ID, req.ProductID).First(&existing).Error
		switch {
		case err == nil:
			newQuantity := existing.Quantity + req.Quantity
			if newQuantity > MaxQuantity {
				return apperror.BadRequest(fmt.Sprintf("Quantity cannot exceed %d", MaxQuantity))
			}
			if err := tx.Model(&existing).Update("quantity", newQuantity).Error; err != nil {
				return fmt.Errorf("failed to update cart item: %w", err)
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			item := CartItem{CartID: cart.ID, ProductID: req.ProductID, Quantity: req.Quantity}
			if err := tx.Create(&item).Error; err != nil {
				return fmt.Errorf("failed to add cart item: %w", err)
			}
		default:
			return fmt.Errorf("failed to load cart item: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, userID)
	return s.GetCart(ctx, userID)
}

// UpdateItemQuantity sets the quantity of one of the user's cart lines
func (s *Service) UpdateItemQuantity(ctx context.Context, userID, itemID uint, req *UpdateItemRequest) (*Response, error) {
	item, err := s.findOwnedItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if item.Product == nil || !item.Product.IsAvailable {
		return nil, apperror.BadRequest("Product is no longer available")
	}

	if err := s.db.WithContext(ctx).Model(item).Update("quantity", req.Quantity).Error; err != nil {
		return nil, fmt.Errorf("failed to update cart item: %w", err)
	}

	s.cache.Invalidate(ctx, userID)
	return s.GetCart(ctx, userID)
}

// RemoveItem deletes one of the user's cart lines
func (s *Service) RemoveItem(ctx context.Context, userID, itemID uint) (*Response, error) {
	item, err := s.findOwnedItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Delete(&CartItem{}, item.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to remove cart item: %w", err)
	}

	s.cache.Invalidate(ctx, userID)
	return s.GetCart(ctx, userID)
}

// Clear removes every item but keeps the cart row
func (s *Service) Clear(ctx context.Context, userID uint) (*Response, error) {
	if err := ClearItems(s.db.WithContext(ctx), userID); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, userID)
	return emptyResponse(), nil
}

// Count returns the total quantity across all lines
func (s *Service) Count(ctx context.Context, userID uint) (int, error) {
	if count, ok := s.cache.Get(ctx, userID); ok {
		return count, nil
	}

	var total int64
	err := s.db.WithContext(ctx).Model(&CartItem{}).
		Joins("JOIN carts ON carts.id = cart_items.cart_id").
		Where("carts.user_id = ?", userID).
		Select("COALESCE(SUM(cart_items.quantity), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count cart items: %w", err)
	}

	s.cache.Set(ctx, userID, int(total))
	return int(total), nil
}

// Validate reports unavailable items ahead of checkout
func (s *Service) Validate(ctx context.Context, userID uint) (*ValidationResult, error) {
	cart, err := s.loadCart(s.db.WithContext(ctx), userID)
	if err != nil {
		return nil, err
	}
	if cart == nil || len(cart.Items) == 0 {
		return nil, apperror.BadRequest("Cart is empty")
	}

	unavailable := UnavailableProducts(cart.Items)
	return &ValidationResult{
		IsValid:          len(unavailable) == 0,
		UnavailableItems: unavailable,
		Cart:             buildResponse(cart),
	}, nil
}

// RemoveUnavailable drops lines whose product can no longer be ordered
func (s *Service) RemoveUnavailable(ctx context.Context, userID uint) (*Response, error) {
	cart, err := s.loadCart(s.db.WithContext(ctx), userID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return emptyResponse(), nil
	}

	var ids []uint
	for _, item := range cart.Items {
		if item.Product == nil || !item.Product.IsAvailable {
			ids = append(ids, item.ID)
		}
	}
	if len(ids) > 0 {
		if err := s.db.WithContext(ctx).Where("id IN ?", ids).Delete(&CartItem{}).Error; err != nil {
			return nil, fmt.Errorf("failed to remove unavailable items: %w", err)
		}
		s.cache.Invalidate(ctx, userID)
	}

	return s.GetCart(ctx, userID)
}

// Subtotal prices the current cart. It fails on an empty cart.
func (s *Service) Subtotal(ctx context.Context, userID uint) (decimal.Decimal, error) {
	resp, err := s.GetCart(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	if len(resp.Items) == 0 {
		return decimal.Zero, apperror.BadRequest("Cart is empty")
	}
	return resp.Subtotal, nil
}

// InvalidateCount drops the cached item count; checkout calls it after clearing the cart
func (s *Service) InvalidateCount(ctx context.Context, userID uint) {
	s.cache.Invalidate(ctx, userID)
}

// Load returns the user's cart with items and products using db, which may be a transaction.
// It returns nil when the user has no cart yet.
func Load(db *gorm.DB, userID uint) (*Cart, error) {
	var cart Cart
	err := db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("cart_items.id ASC")
	}).Preload("Items.Product").
		Where("user_id = ?", userID).
		First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return &cart, nil
}

// ClearItems deletes all items of the user's cart using db, which may be a transaction
func ClearItems(db *gorm.DB, userID uint) error {
	err := db.Where("cart_id IN (?)", db.Session(&gorm.Session{NewDB: true}).
		Model(&Cart{}).Select("id").Where("user_id = ?", userID)).
		Delete(&CartItem{}).Error
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// UnavailableProducts names the products in items that cannot be ordered
func UnavailableProducts(items []CartItem) []string {
	unavailable := []string{}
	for _, item := range items {
		switch {
		case item.Product == nil:
			unavailable = append(unavailable, fmt.Sprintf("Product ID: %d", item.ProductID))
		case !item.Product.IsAvailable:
			unavailable = append(unavailable, item.Product.Name)
		}
	}
	return unavailable
}

func (s *Service) loadCart(db *gorm.DB, userID uint) (*Cart, error) {
	return Load(db, userID)
}

func (s *Service) findOwnedItem(ctx context.Context, userID, itemID uint) (*CartItem, error) {
	var item CartItem
	err := s.db.WithContext(ctx).
		Preload("Product").
		Joins("JOIN carts ON carts.id = cart_items.cart_id").
		Where("cart_items.id = ? AND carts.user_id = ?", itemID, userID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Cart item not found")
		}
		return nil, fmt.Errorf("failed to load cart item: %w", err)
	}
	return &item, nil
}

func buildResponse(cart *Cart) *Response {
	resp := &Response{ID: cart.ID, Items: make([]ItemResponse, 0, len(cart.Items)), Subtotal: decimal.Zero}
	for _, item := range cart.Items {
		line := ItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		}
		if p := item.Product; p != nil {
			line.Name = p.Name
			line.ImageURL = p.ImageURL
			line.Price = p.Price
			line.Discount = p.Discount
			line.FinalPrice = p.FinalPrice()
			line.LineTotal = pricing.LineTotal(line.FinalPrice, item.Quantity)
			line.IsAvailable = p.IsAvailable
		}
		resp.Items = append(resp.Items, line)
		resp.ItemCount += item.Quantity
		if line.IsAvailable {
			resp.Subtotal = resp.Subtotal.Add(line.LineTotal)
		}
	}
	return resp
}
