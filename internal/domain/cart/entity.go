// internal/domain/cart/entity.go
package cart

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/your-org/food-ordering-backend/internal/domain/product"
)

// MaxQuantity is the largest quantity a single cart line may hold
const MaxQuantity = 99

// Cart is the per-user staging area before checkout. The row outlives checkout; only its items are cleared.
type Cart struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"uniqueIndex;not null" json:"userId"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items,omitempty"`
}

// CartItem binds a product to a cart. There is at most one line per (cart, product).
type CartItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CartID    uint      `gorm:"not null;uniqueIndex:idx_cart_items_cart_product" json:"cartId"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_cart_items_cart_product;index" json:"productId"`
	Quantity  int       `gorm:"not null;default:1;check:quantity >= 1 AND quantity <= 99" json:"quantity"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Product *product.Product `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"product,omitempty"`
}

func (Cart) TableName() string     { return "carts" }
func (CartItem) TableName() string { return "cart_items" }

// ItemResponse is a cart line priced from the live product
type ItemResponse struct {
	ID          uint            `json:"id"`
	ProductID   uint            `json:"productId"`
	Name        string          `json:"name"`
	ImageURL    string          `json:"imageUrl"`
	Price       decimal.Decimal `json:"price"`
	Discount    int             `json:"discount"`
	FinalPrice  decimal.Decimal `json:"finalPrice"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
	IsAvailable bool            `json:"isAvailable"`
}

// Response is the cart as shown to its owner
type Response struct {
	ID        uint            `json:"id"`
	Items     []ItemResponse  `json:"items"`
	ItemCount int             `json:"itemCount"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// ValidationResult reports whether the cart can be checked out as is
type ValidationResult struct {
	IsValid          bool      `json:"isValid"`
	UnavailableItems []string  `json:"unavailableItems"`
	Cart             *Response `json:"cart"`
}

// AddItemRequest adds a product to the cart
type AddItemRequest struct {
	ProductID uint `json:"productId" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1,max=99"`
}

// UpdateItemRequest sets a cart line quantity
type UpdateItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1,max=99"`
}

func emptyResponse() *Response {
	return &Response{Items: []ItemResponse{}, Subtotal: decimal.Zero}
}
