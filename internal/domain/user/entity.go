// internal/domain/user/entity.go
package user

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Role is the access level of an account
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// User represents a customer or admin account
type User struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	FirstName   string     `gorm:"size:50;not null" json:"firstName"`
	LastName    string     `gorm:"size:50;not null" json:"lastName"`
	Email       string     `gorm:"uniqueIndex;not null;size:255" json:"email"`
	Password    string     `gorm:"not null;size:255" json:"-"`
	PhoneNumber string     `gorm:"uniqueIndex;not null;size:20" json:"phoneNumber"`
	Role        Role       `gorm:"size:20;not null;default:'customer'" json:"role"`
	IsActive    bool       `gorm:"not null;default:true" json:"isActive"`
	LastLoginAt *time.Time `json:"lastLoginAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`

	Addresses []Address `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"addresses,omitempty"`
}

// Address is a delivery address owned by a user.
// At most one address per user has IsDefault set.
type Address struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"userId"`
	Title       string    `gorm:"size:50;not null" json:"title"`
	Street      string    `gorm:"size:255;not null" json:"street"`
	City        string    `gorm:"size:100;not null" json:"city"`
	PostalCode  string    `gorm:"size:20" json:"postalCode"`
	PhoneNumber string    `gorm:"size:20;not null" json:"phoneNumber"`
	Latitude    *float64  `json:"latitude"`
	Longitude   *float64  `json:"longitude"`
	IsDefault   bool      `gorm:"not null;default:false" json:"isDefault"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (User) TableName() string    { return "users" }
func (Address) TableName() string { return "addresses" }

// BeforeCreate normalizes the email
func (u *User) BeforeCreate(tx *gorm.DB) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Role == "" {
		u.Role = RoleCustomer
	}
	return nil
}

// FullName returns first and last name joined
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// IsAdmin reports whether the user has the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// FullAddress is the single-line form shown on orders and receipts
func (a *Address) FullAddress() string {
	return a.Street + ", " + a.City
}
