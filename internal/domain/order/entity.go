// internal/domain/order/entity.go
package order

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/your-org/food-ordering-backend/internal/domain/discount"
	"github.com/your-org/food-ordering-backend/internal/domain/user"
)

// Order is the immutable record of a checkout. Only Status and
// EstimatedDelivery change after creation.
type Order struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	OrderNumber       string          `gorm:"uniqueIndex;not null;size:32" json:"orderNumber"`
	UserID            uint            `gorm:"not null;index" json:"userId"`
	AddressID         uint            `gorm:"not null;index" json:"addressId"`
	DiscountID        *uint           `gorm:"index" json:"discountId"`
	Status            Status          `gorm:"size:20;not null;default:'pending';index" json:"status"`
	Subtotal          decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"subtotal"`
	DiscountAmount    decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"discountAmount"`
	DeliveryCost      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"deliveryCost"`
	TotalAmount       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"totalAmount"`
	Notes             *string         `gorm:"size:500" json:"notes"`
	EstimatedDelivery *time.Time      `json:"estimatedDelivery"`
	CreatedAt         time.Time       `gorm:"index" json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`

	Items    []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
	History  []OrderStatusHistory `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	User     *user.User           `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
	Address  *user.Address        `gorm:"foreignKey:AddressID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
	Discount *discount.Discount   `gorm:"foreignKey:DiscountID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
}

// OrderItem is a point-in-time copy of a cart line. ProductID is a plain
// reference so deleting the product never touches order history.
type OrderItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	OrderID     uint            `gorm:"not null;index" json:"orderId"`
	ProductID   uint            `gorm:"not null;index" json:"productId"`
	ProductName string          `gorm:"size:100;not null" json:"productName"`
	Quantity    int             `gorm:"not null;check:quantity >= 1" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unitPrice"`
	TotalPrice  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"totalPrice"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// OrderStatusHistory records every status change, including creation
type OrderStatusHistory struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	OrderID    uint      `gorm:"not null;index" json:"orderId"`
	FromStatus Status    `gorm:"size:20" json:"fromStatus,omitempty"`
	ToStatus   Status    `gorm:"size:20;not null" json:"toStatus"`
	Comment    *string   `gorm:"size:500" json:"comment,omitempty"`
	ChangedBy  uint      `gorm:"not null;index" json:"changedBy"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (Order) TableName() string              { return "orders" }
func (OrderItem) TableName() string          { return "order_items" }
func (OrderStatusHistory) TableName() string { return "order_status_history" }

// ItemCount is the total quantity across all lines
func (o *Order) ItemCount() int {
	count := 0
	for _, item := range o.Items {
		count += item.Quantity
	}
	return count
}

// CreateRequest is the checkout input
type CreateRequest struct {
	AddressID    uint    `json:"addressId" binding:"required"`
	DiscountCode *string `json:"discountCode" binding:"omitempty,max=50"`
	Notes        *string `json:"notes" binding:"omitempty,max=500"`
}

// UpdateStatusRequest drives an admin transition
type UpdateStatusRequest struct {
	Status            Status     `json:"status" binding:"required,orderstatus"`
	EstimatedDelivery *time.Time `json:"estimatedDelivery"`
	Comment           *string    `json:"comment" binding:"omitempty,max=500"`
}

// CancelRequest is the optional body of a customer cancel
type CancelRequest struct {
	Reason *string `json:"reason" binding:"omitempty,max=500"`
}

// ItemDetail is an order line as returned by the API
type ItemDetail struct {
	ID          uint            `json:"id"`
	ProductID   uint            `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	TotalPrice  decimal.Decimal `json:"totalPrice"`
}

// AddressSummary is the delivery address as shown on an order
type AddressSummary struct {
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	Street      string `json:"street"`
	City        string `json:"city"`
	PhoneNumber string `json:"phoneNumber"`
	FullAddress string `json:"fullAddress"`
}

// CustomerSummary identifies the ordering user in admin views
type CustomerSummary struct {
	ID          uint   `json:"id"`
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
}

// Summary is an order row in list views
type Summary struct {
	ID          uint             `json:"id"`
	OrderNumber string           `json:"orderNumber"`
	Status      Status           `json:"status"`
	ItemCount   int              `json:"itemCount"`
	TotalAmount decimal.Decimal  `json:"totalAmount"`
	CreatedAt   time.Time        `json:"createdAt"`
	User        *CustomerSummary `json:"user,omitempty"`
}

// Detail is the full order view
type Detail struct {
	ID                uint             `json:"id"`
	OrderNumber       string           `json:"orderNumber"`
	Status            Status           `json:"status"`
	Subtotal          decimal.Decimal  `json:"subtotal"`
	DiscountAmount    decimal.Decimal  `json:"discountAmount"`
	DeliveryCost      decimal.Decimal  `json:"deliveryCost"`
	TotalAmount       decimal.Decimal  `json:"totalAmount"`
	Notes             *string          `json:"notes"`
	EstimatedDelivery *time.Time       `json:"estimatedDelivery"`
	Items             []ItemDetail     `json:"items"`
	Address           *AddressSummary  `json:"address"`
	DiscountCode      *string          `json:"discountCode"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`
	User              *CustomerSummary `json:"user,omitempty"`
}

// Stats aggregates orders for the admin dashboard
type Stats struct {
	Total        int64           `json:"total"`
	Pending      int64           `json:"pending"`
	Confirmed    int64           `json:"confirmed"`
	Preparing    int64           `json:"preparing"`
	Ready        int64           `json:"ready"`
	Delivering   int64           `json:"delivering"`
	Delivered    int64           `json:"delivered"`
	Cancelled    int64           `json:"cancelled"`
	TodayOrders  int64           `json:"todayOrders"`
	TodayRevenue decimal.Decimal `json:"todayRevenue"`
}

func toSummary(o *Order, withUser bool) Summary {
	s := Summary{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		Status:      o.Status,
		ItemCount:   o.ItemCount(),
		TotalAmount: o.TotalAmount,
		CreatedAt:   o.CreatedAt,
	}
	if withUser {
		s.User = toCustomer(o.User)
	}
	return s
}

func toDetail(o *Order, withUser bool) *Detail {
	d := &Detail{
		ID:                o.ID,
		OrderNumber:       o.OrderNumber,
		Status:            o.Status,
		Subtotal:          o.Subtotal,
		DiscountAmount:    o.DiscountAmount,
		DeliveryCost:      o.DeliveryCost,
		TotalAmount:       o.TotalAmount,
		Notes:             o.Notes,
		EstimatedDelivery: o.EstimatedDelivery,
		Items:             make([]ItemDetail, 0, len(o.Items)),
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
	for _, item := range o.Items {
		d.Items = append(d.Items, ItemDetail{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TotalPrice:  item.TotalPrice,
		})
	}
	if a := o.Address; a != nil {
		d.Address = &AddressSummary{
			ID:          a.ID,
			Title:       a.Title,
			Street:      a.Street,
			City:        a.City,
			PhoneNumber: a.PhoneNumber,
			FullAddress: a.FullAddress(),
		}
	}
	if o.Discount != nil {
		code := o.Discount.Code
		d.DiscountCode = &code
	}
	if withUser {
		d.User = toCustomer(o.User)
	}
	return d
}

func toCustomer(u *user.User) *CustomerSummary {
	if u == nil {
		return nil
	}
	return &CustomerSummary{
		ID:          u.ID,
		FullName:    u.FullName(),
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
	}
}
