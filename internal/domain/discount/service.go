// internal/domain/discount/service.go
package discount

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/your-org/food-ordering-backend/internal/domain/pricing"
	"github.com/your-org/food-ordering-backend/internal/pkg/apperror"
	"github.com/your-org/food-ordering-backend/internal/pkg/pagination"
)

// Checkout-facing error messages
const (
	MsgInvalidCode   = "Invalid or expired discount code"
	MsgLimitReached  = "Discount code usage limit reached"
	msgMinimumFormat = "Minimum order amount for this discount is %s"
)

// Service manages discount codes
type Service struct {
	db  *gorm.DB
	now func() time.Time
}

// NewService creates a new discount service
func NewService(db *gorm.DB) *Service {
	return &Service{
		db:  db,
		now: time.Now,
	}
}

// ListRequest filters the admin discount list
type ListRequest struct {
	pagination.Params
	IsActive *bool  `form:"isActive"`
	Search   string `form:"search"`
}

// CreateRequest is the admin payload for a new code
type CreateRequest struct {
	Code              string               `json:"code" binding:"required,min=3,max=50"`
	Type              pricing.DiscountType `json:"type" binding:"required,oneof=percentage fixed"`
	Value             decimal.Decimal      `json:"value" binding:"required"`
	MinOrderAmount    decimal.Decimal      `json:"minOrderAmount"`
	MaxDiscountAmount *decimal.Decimal     `json:"maxDiscountAmount"`
	UsageLimit        int                  `json:"usageLimit" binding:"omitempty,min=1"`
	StartDate         *time.Time           `json:"startDate"`
	ExpireDate        time.Time            `json:"expireDate" binding:"required"`
	IsActive          *bool                `json:"isActive"`
}

// UpdateRequest holds optional fields; nil leaves the stored value unchanged
type UpdateRequest struct {
	Code              *string               `json:"code" binding:"omitempty,min=3,max=50"`
	Type              *pricing.DiscountType `json:"type" binding:"omitempty,oneof=percentage fixed"`
	Value             *decimal.Decimal      `json:"value"`
	MinOrderAmount    *decimal.Decimal      `json:"minOrderAmount"`
	MaxDiscountAmount *decimal.Decimal      `json:"maxDiscountAmount"`
	ClearMaxDiscount  bool                  `json:"clearMaxDiscount"`
	UsageLimit        *int                  `json:"usageLimit" binding:"omitempty,min=1"`
	StartDate         *time.Time            `json:"startDate"`
	ExpireDate        *time.Time            `json:"expireDate"`
	IsActive          *bool                 `json:"isActive"`
}

// Quote is a non-binding preview of what a code would take off a subtotal
type Quote struct {
	Code           string               `json:"code"`
	Type           pricing.DiscountType `json:"type"`
	Value          decimal.Decimal      `json:"value"`
	Subtotal       decimal.Decimal      `json:"subtotal"`
	DiscountAmount decimal.Decimal      `json:"discountAmount"`
}

// List returns a page of discount codes, newest first
func (s *Service) List(ctx context.Context, req *ListRequest) (*pagination.Page[Discount], error) {
	params := pagination.Normalize(req.Params)
	query := s.db.WithContext(ctx).Model(&Discount{})

	if req.IsActive != nil {
		query = query.Where("is_active = ?", *req.IsActive)
	}
	if req.Search != "" {
		query = query.Where("code LIKE ?", "%"+NormalizeCode(req.Search)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count discounts: %w", err)
	}

	var discounts []Discount
	if err := query.Order("created_at DESC, id DESC").
		Offset(params.Offset()).Limit(params.Limit).
		Find(&discounts).Error; err != nil {
		return nil, fmt.Errorf("failed to list discounts: %w", err)
	}

	page := pagination.New(discounts, total, params)
	return &page, nil
}

// Get returns a discount by ID
func (s *Service) Get(ctx context.Context, id uint) (*Discount, error) {
	var d Discount
	if err := s.db.WithContext(ctx).First(&d, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Discount not found")
		}
		return nil, fmt.Errorf("failed to load discount: %w", err)
	}
	return &d, nil
}

// Create adds a new discount code
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*Discount, error) {
	d := &Discount{
		Code:              NormalizeCode(req.Code),
		Type:              req.Type,
		Value:             req.Value,
		MinOrderAmount:    req.MinOrderAmount,
		MaxDiscountAmount: req.MaxDiscountAmount,
		UsageLimit:        req.UsageLimit,
		ExpireDate:        req.ExpireDate,
		IsActive:          true,
	}
	if d.UsageLimit == 0 {
		d.UsageLimit = 1
	}
	if req.StartDate != nil {
		d.StartDate = *req.StartDate
	} else {
		d.StartDate = s.now()
	}
	if req.IsActive != nil {
		d.IsActive = *req.IsActive
	}

	if err := validate(d); err != nil {
		return nil, err
	}

	if err := s.ensureCodeFree(ctx, d.Code, 0); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(d).Error; err != nil {
		if apperror.IsUniqueViolation(err) {
			return nil, apperror.Conflict("Discount code already exists")
		}
		return nil, fmt.Errorf("failed to create discount: %w", err)
	}
	// the column default swallows a false on insert
	if req.IsActive != nil && !*req.IsActive {
		if err := s.db.WithContext(ctx).Model(d).Update("is_active", false).Error; err != nil {
			return nil, fmt.Errorf("failed to create discount: %w", err)
		}
		d.IsActive = false
	}

	logrus.WithFields(logrus.Fields{"discount_id": d.ID, "code": d.Code}).Info("Discount code created")
	return d, nil
}

// Update applies a partial update
func (s *Service) Update(ctx context.Context, id uint, req *UpdateRequest) (*Discount, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	req.apply(d)

	if err := validate(d); err != nil {
		return nil, err
	}
	if d.UsageLimit < d.UsedCount {
		return nil, apperror.BadRequest(fmt.Sprintf("Usage limit cannot be lower than the %d uses already made", d.UsedCount))
	}
	if req.Code != nil {
		if err := s.ensureCodeFree(ctx, d.Code, d.ID); err != nil {
			return nil, err
		}
	}

	if err := s.db.WithContext(ctx).Save(d).Error; err != nil {
		if apperror.IsUniqueViolation(err) {
			return nil, apperror.Conflict("Discount code already exists")
		}
		return nil, fmt.Errorf("failed to update discount: %w", err)
	}
	return d, nil
}

// apply merges the set fields onto d
func (r *UpdateRequest) apply(d *Discount) {
	if r.Code != nil {
		d.Code = NormalizeCode(*r.Code)
	}
	if r.Type != nil {
		d.Type = *r.Type
	}
	if r.Value != nil {
		d.Value = *r.Value
	}
	if r.MinOrderAmount != nil {
		d.MinOrderAmount = *r.MinOrderAmount
	}
	if r.ClearMaxDiscount {
		d.MaxDiscountAmount = nil
	} else if r.MaxDiscountAmount != nil {
		d.MaxDiscountAmount = r.MaxDiscountAmount
	}
	if r.UsageLimit != nil {
		d.UsageLimit = *r.UsageLimit
	}
	if r.StartDate != nil {
		d.StartDate = *r.StartDate
	}
	if r.ExpireDate != nil {
		d.ExpireDate = *r.ExpireDate
	}
	if r.IsActive != nil {
		d.IsActive = *r.IsActive
	}
}

// Delete removes a code that no order references
func (s *Service) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var d Discount
		if err := tx.First(&d, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("Discount not found")
			}
			return fmt.Errorf("failed to load discount: %w", err)
		}

		var used int64
		if err := tx.Table("orders").Where("discount_id = ?", id).Count(&used).Error; err != nil {
			return fmt.Errorf("failed to count discount orders: %w", err)
		}
		if used > 0 {
			return apperror.BadRequest(fmt.Sprintf("Cannot delete discount. It is used by %d order(s). Deactivate it instead.", used))
		}

		if err := tx.Delete(&d).Error; err != nil {
			return fmt.Errorf("failed to delete discount: %w", err)
		}
		return nil
	})
}

// ToggleActive flips the active flag
func (s *Service) ToggleActive(ctx context.Context, id uint) (*Discount, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	d.IsActive = !d.IsActive
	if err := s.db.WithContext(ctx).Model(d).Update("is_active", d.IsActive).Error; err != nil {
		return nil, fmt.Errorf("failed to toggle discount: %w", err)
	}
	return d, nil
}

// Preview quotes a code against a subtotal without redeeming it
func (s *Service) Preview(ctx context.Context, code string, subtotal decimal.Decimal) (*Quote, error) {
	d, err := FindUsable(s.db.WithContext(ctx), code, s.now())
	if err != nil {
		return nil, err
	}
	amount, err := Evaluate(d, subtotal)
	if err != nil {
		return nil, err
	}
	return &Quote{
		Code:           d.Code,
		Type:           d.Type,
		Value:          d.Value,
		Subtotal:       subtotal,
		DiscountAmount: amount,
	}, nil
}

func (s *Service) ensureCodeFree(ctx context.Context, code string, exceptID uint) error {
	var count int64
	query := s.db.WithContext(ctx).Model(&Discount{}).Where("code = ?", code)
	if exceptID > 0 {
		query = query.Where("id <> ?", exceptID)
	}
	if err := query.Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check discount code: %w", err)
	}
	if count > 0 {
		return apperror.Conflict("Discount code already exists")
	}
	return nil
}

func validate(d *Discount) error {
	if len(d.Code) < 3 || strings.ContainsAny(d.Code, " \t") {
		return apperror.BadRequest("Discount code must be at least 3 characters without spaces")
	}
	switch d.Type {
	case pricing.DiscountTypePercentage:
		if !d.Value.IsPositive() || d.Value.GreaterThan(decimal.NewFromInt(100)) {
			return apperror.BadRequest("Percentage value must be between 0 and 100")
		}
	case pricing.DiscountTypeFixed:
		if !d.Value.IsPositive() {
			return apperror.BadRequest("Fixed discount value must be greater than 0")
		}
	default:
		return apperror.BadRequest("Discount type must be 'percentage' or 'fixed'")
	}
	if d.MinOrderAmount.IsNegative() {
		return apperror.BadRequest("Minimum order amount cannot be negative")
	}
	if d.MaxDiscountAmount != nil && !d.MaxDiscountAmount.IsPositive() {
		return apperror.BadRequest("Maximum discount amount must be greater than 0")
	}
	if d.UsageLimit < 1 {
		return apperror.BadRequest("Usage limit must be at least 1")
	}
	if !d.ExpireDate.After(d.StartDate) {
		return apperror.BadRequest("Expire date must be after start date")
	}
	return nil
}

// FindUsable loads an active, in-window, non-exhausted code. Run it inside the
// checkout transaction so the follow-up Redeem sees the same row.
func FindUsable(tx *gorm.DB, code string, now time.Time) (*Discount, error) {
	var d Discount
	err := tx.Where("code = ?", NormalizeCode(code)).First(&d).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.BadRequest(MsgInvalidCode)
		}
		return nil, fmt.Errorf("failed to load discount code: %w", err)
	}

	if !d.IsActive || !d.InWindow(now) {
		return nil, apperror.BadRequest(MsgInvalidCode)
	}
	if d.IsExhausted() {
		return nil, apperror.BadRequest(MsgLimitReached)
	}
	return &d, nil
}

// Evaluate checks the minimum order amount and returns the reduction on subtotal
func Evaluate(d *Discount, subtotal decimal.Decimal) (decimal.Decimal, error) {
	rule := d.Rule()
	if !rule.MeetsMinimum(subtotal) {
		return decimal.Zero, apperror.BadRequest(fmt.Sprintf(msgMinimumFormat, d.MinOrderAmount.String()))
	}
	return pricing.DiscountAmount(rule, subtotal), nil
}

// Redeem consumes one use. The increment only applies while used_count is
// below usage_limit, so concurrent checkouts can never overrun the limit.
func Redeem(tx *gorm.DB, id uint) error {
	result := tx.Model(&Discount{}).
		Where("id = ? AND used_count < usage_limit", id).
		UpdateColumn("used_count", gorm.Expr("used_count + ?", 1))
	if result.Error != nil {
		return fmt.Errorf("failed to redeem discount: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		logrus.WithField("discount_id", id).Warn("Discount redemption rejected: usage limit reached")
		return apperror.BadRequest(MsgLimitReached)
	}
	return nil
}
