// internal/domain/discount/entity.go
package discount

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/your-org/food-ordering-backend/internal/domain/pricing"
)

// Discount is a redeemable code with a usage limit and validity window.
// UsedCount never exceeds UsageLimit.
type Discount struct {
	ID                uint                 `gorm:"primaryKey" json:"id"`
	Code              string               `gorm:"uniqueIndex;not null;size:50" json:"code"`
	Type              pricing.DiscountType `gorm:"size:20;not null" json:"type"`
	Value             decimal.Decimal      `gorm:"type:decimal(10,2);not null" json:"value"`
	MinOrderAmount    decimal.Decimal      `gorm:"type:decimal(10,2);not null;default:0" json:"minOrderAmount"`
	MaxDiscountAmount *decimal.Decimal     `gorm:"type:decimal(10,2)" json:"maxDiscountAmount"`
	UsageLimit        int                  `gorm:"not null;default:1" json:"usageLimit"`
	UsedCount         int                  `gorm:"not null;default:0" json:"usedCount"`
	StartDate         time.Time            `gorm:"not null" json:"startDate"`
	ExpireDate        time.Time            `gorm:"not null;index" json:"expireDate"`
	IsActive          bool                 `gorm:"not null;default:true" json:"isActive"`
	CreatedAt         time.Time            `json:"createdAt"`
	UpdatedAt         time.Time            `json:"updatedAt"`
}

func (Discount) TableName() string { return "discounts" }

// NormalizeCode trims and uppercases a code for storage and lookup
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// BeforeSave keeps the stored code normalized
func (d *Discount) BeforeSave(tx *gorm.DB) error {
	d.Code = NormalizeCode(d.Code)
	return nil
}

// Rule converts the code into a pricing rule
func (d *Discount) Rule() pricing.Rule {
	return pricing.Rule{
		Type:              d.Type,
		Value:             d.Value,
		MinOrderAmount:    d.MinOrderAmount,
		MaxDiscountAmount: d.MaxDiscountAmount,
	}
}

// InWindow reports startDate <= now < expireDate
func (d *Discount) InWindow(now time.Time) bool {
	return !now.Before(d.StartDate) && now.Before(d.ExpireDate)
}

// IsExhausted reports whether every use has been consumed
func (d *Discount) IsExhausted() bool {
	return d.UsedCount >= d.UsageLimit
}

// RemainingUses is the number of redemptions left
func (d *Discount) RemainingUses() int {
	if d.IsExhausted() {
		return 0
	}
	return d.UsageLimit - d.UsedCount
}
