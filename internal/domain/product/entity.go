// internal/domain/product/entity.go
package product

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/your-org/food-ordering-backend/internal/domain/pricing"
)

// Product is a food item on the menu
type Product struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	Name            string          `gorm:"not null;size:100;index" json:"name"`
	Description     string          `gorm:"type:text;not null" json:"description"`
	Price           decimal.Decimal `gorm:"type:decimal(10,2);not null;index" json:"price"`
	ImageURL        string          `gorm:"size:500;not null" json:"imageUrl"`
	IsAvailable     bool            `gorm:"not null;default:true;index" json:"isAvailable"`
	Ingredients     []string        `gorm:"serializer:json;type:text" json:"ingredients"`
	PreparationTime *int            `json:"preparationTime"` // minutes
	Calories        *int            `json:"calories"`
	IsPopular       bool            `gorm:"not null;default:false;index" json:"isPopular"`
	Discount        int             `gorm:"not null;default:0" json:"discount"` // percent, 0-100
	CategoryID      uint            `gorm:"not null;index" json:"categoryId"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`

	Category *Category      `gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"category,omitempty"`
	Images   []ProductImage `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE;" json:"images,omitempty"`
}

// ProductImage is a gallery picture shown on the product page.
// The main picture stays in Product.ImageURL.
type ProductImage struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ProductID    uint      `gorm:"not null;index" json:"productId"`
	URL          string    `gorm:"size:500;not null" json:"url"`
	ThumbnailURL *string   `gorm:"size:500" json:"thumbnailUrl"`
	AltText      *string   `gorm:"size:255" json:"altText"`
	DisplayOrder int       `gorm:"not null;default:0;index" json:"displayOrder"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Category groups products on the menu (Burgers, Pizzas, Drinks)
type Category struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"uniqueIndex;not null;size:50" json:"name"`
	Description  *string   `gorm:"type:text" json:"description"`
	ImageURL     *string   `gorm:"size:500" json:"imageUrl"`
	DisplayOrder int       `gorm:"not null;default:0" json:"displayOrder"`
	IsActive     bool      `gorm:"not null;default:true" json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	ProductCount int64 `gorm:"-" json:"productCount"`
}

// Review is a customer's rating of a product. New and edited reviews wait for approval.
type Review struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_reviews_user_product" json:"userId"`
	ProductID  uint      `gorm:"not null;uniqueIndex:idx_reviews_user_product;index" json:"productId"`
	Rating     int       `gorm:"not null;check:rating >= 1 AND rating <= 5" json:"rating"`
	Comment    *string   `gorm:"type:text" json:"comment"`
	IsApproved bool      `gorm:"not null;default:false;index" json:"isApproved"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`

	Product  *Product  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE;" json:"product,omitempty"`
	Reviewer *Reviewer `gorm:"-" json:"user,omitempty"`
}

// Reviewer is the public part of the review author. Email is only filled for admins.
type Reviewer struct {
	ID        uint   `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email,omitempty"`
}

func (Product) TableName() string      { return "products" }
func (Category) TableName() string     { return "categories" }
func (Review) TableName() string       { return "reviews" }
func (ProductImage) TableName() string { return "product_images" }

// FinalPrice is the live effective unit price
func (p *Product) FinalPrice() decimal.Decimal {
	return pricing.EffectiveUnitPrice(p.Price, p.Discount)
}

// DiscountAmount is the per-unit reduction from the product discount
func (p *Product) DiscountAmount() decimal.Decimal {
	return pricing.ProductDiscountAmount(p.Price, p.Discount)
}

// MarshalJSON adds the derived prices to every product payload
func (p Product) MarshalJSON() ([]byte, error) {
	type alias Product
	return json.Marshal(struct {
		alias
		FinalPrice     decimal.Decimal `json:"finalPrice"`
		DiscountAmount decimal.Decimal `json:"discountAmount"`
	}{
		alias:          alias(p),
		FinalPrice:     p.FinalPrice(),
		DiscountAmount: p.DiscountAmount(),
	})
}
