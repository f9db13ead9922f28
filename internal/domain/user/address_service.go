// internal/domain/user/address_service.go
package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/your-org/food-ordering-backend/internal/pkg/apperror"
)

const msgAddressNotFound = "Address not found"

// AddressService handles address business logic
type AddressService struct {
	db *gorm.DB
}

// NewAddressService creates a new address service
func NewAddressService(db *gorm.DB) *AddressService {
	return &AddressService{
		db: db,
	}
}

// CreateAddressRequest represents address creation data
type CreateAddressRequest struct {
	Title       string   `json:"title" binding:"required,min=2,max=50"`
	Street      string   `json:"street" binding:"required,min=3,max=255"`
	City        string   `json:"city" binding:"required,min=2,max=100"`
	PostalCode  string   `json:"postalCode" binding:"omitempty,max=20"`
	PhoneNumber string   `json:"phoneNumber" binding:"required,e164"`
	Latitude    *float64 `json:"latitude" binding:"omitempty,latitude"`
	Longitude   *float64 `json:"longitude" binding:"omitempty,longitude"`
	IsDefault   bool     `json:"isDefault"`
}

// UpdateAddressRequest holds optional fields; nil leaves the stored value unchanged
type UpdateAddressRequest struct {
	Title       *string  `json:"title" binding:"omitempty,min=2,max=50"`
	Street      *string  `json:"street" binding:"omitempty,min=3,max=255"`
	City        *string  `json:"city" binding:"omitempty,min=2,max=100"`
	PostalCode  *string  `json:"postalCode" binding:"omitempty,max=20"`
	PhoneNumber *string  `json:"phoneNumber" binding:"omitempty,e164"`
	Latitude    *float64 `json:"latitude" binding:"omitempty,latitude"`
	Longitude   *float64 `json:"longitude" binding:"omitempty,longitude"`
	IsDefault   *bool    `json:"isDefault"`
}

// List returns the user's addresses with the default first
func (s *AddressService) List(ctx context.Context, userID uint) ([]Address, error) {
	addresses := []Address{}
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC, created_at DESC, id DESC").
		Find(&addresses).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve addresses: %w", err)
	}
	return addresses, nil
}

// Get returns one of the user's addresses
func (s *AddressService) Get(ctx context.Context, userID, addressID uint) (*Address, error) {
	return findOwned(s.db.WithContext(ctx), userID, addressID)
}

// Default returns the user's default address
func (s *AddressService) Default(ctx context.Context, userID uint) (*Address, error) {
	var address Address
	err := s.db.WithContext(ctx).Where("user_id = ? AND is_default = ?", userID, true).First(&address).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("No default address found")
		}
		return nil, fmt.Errorf("failed to retrieve default address: %w", err)
	}
	return &address, nil
}

// Count returns how many addresses the user has
func (s *AddressService) Count(ctx context.Context, userID uint) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&Address{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count addresses: %w", err)
	}
	return count, nil
}

// Create adds an address. The user's first address always becomes the default.
func (s *AddressService) Create(ctx context.Context, userID uint, req *CreateAddressRequest) (*Address, error) {
	address := Address{
		UserID:      userID,
		Title:       strings.TrimSpace(req.Title),
		Street:      strings.TrimSpace(req.Street),
		City:        strings.TrimSpace(req.City),
		PostalCode:  strings.TrimSpace(req.PostalCode),
		PhoneNumber: req.PhoneNumber,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		IsDefault:   req.IsDefault,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&Address{}).Where("user_id = ?", userID).Count(&existing).Error; err != nil {
			return fmt.Errorf("failed to count addresses: %w", err)
		}
		if existing == 0 {
			address.IsDefault = true
		}
		if address.IsDefault {
			if err := unsetDefault(tx, userID); err != nil {
				return err
			}
		}
		if err := tx.Create(&address).Error; err != nil {
			return fmt.Errorf("failed to create address: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &address, nil
}

// Update merges the set fields into the address
func (s *AddressService) Update(ctx context.Context, userID, addressID uint, req *UpdateAddressRequest) (*Address, error) {
	var address *Address
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if address, err = findOwned(tx, userID, addressID); err != nil {
			return err
		}

		req.apply(address)
		// clearing the flag on the only default is ignored
		if req.IsDefault != nil && !*req.IsDefault && address.IsDefault {
			address.IsDefault = true
		}
		if req.IsDefault != nil && *req.IsDefault {
			if err := unsetDefault(tx, userID); err != nil {
				return err
			}
			address.IsDefault = true
		}

		if err := tx.Save(address).Error; err != nil {
			return fmt.Errorf("failed to update address: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return address, nil
}

func (r *UpdateAddressRequest) apply(a *Address) {
	if r.Title != nil {
		a.Title = strings.TrimSpace(*r.Title)
	}
	if r.Street != nil {
		a.Street = strings.TrimSpace(*r.Street)
	}
	if r.City != nil {
		a.City = strings.TrimSpace(*r.City)
	}
	if r.PostalCode != nil {
		a.PostalCode = strings.TrimSpace(*r.PostalCode)
	}
	if r.PhoneNumber != nil {
		a.PhoneNumber = *r.PhoneNumber
	}
	if r.Latitude != nil {
		a.Latitude = r.Latitude
	}
	if r.Longitude != nil {
		a.Longitude = r.Longitude
	}
}

// SetDefault makes the address the user's only default
func (s *AddressService) SetDefault(ctx context.Context, userID, addressID uint) (*Address, error) {
	var address *Address
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if address, err = findOwned(tx, userID, addressID); err != nil {
			return err
		}
		if err := unsetDefault(tx, userID); err != nil {
			return err
		}
		if err := tx.Model(address).Update("is_default", true).Error; err != nil {
			return fmt.Errorf("failed to set default address: %w", err)
		}
		address.IsDefault = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return address, nil
}

// Delete removes the address. When it was the default, the most recently
// created remaining address takes over.
func (s *AddressService) Delete(ctx context.Context, userID, addressID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		address, err := findOwned(tx, userID, addressID)
		if err != nil {
			return err
		}

		if err := tx.Delete(&Address{}, address.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrForeignKeyViolated) {
				return apperror.BadRequest("Address is used by existing orders and cannot be deleted")
			}
			return fmt.Errorf("failed to delete address: %w", err)
		}

		if !address.IsDefault {
			return nil
		}

		var next Address
		err = tx.Where("user_id = ?", userID).Order("created_at DESC, id DESC").First(&next).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to find replacement default: %w", err)
		}
		if err := tx.Model(&next).Update("is_default", true).Error; err != nil {
			return fmt.Errorf("failed to reassign default address: %w", err)
		}
		return nil
	})
}

func findOwned(db *gorm.DB, userID, addressID uint) (*Address, error) {
	var address Address
	if err := db.Where("id = ? AND user_id = ?", addressID, userID).First(&address).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound(msgAddressNotFound)
		}
		return nil, fmt.Errorf("failed to retrieve address: %w", err)
	}
	return &address, nil
}

func unsetDefault(tx *gorm.DB, userID uint) error {
	if err := tx.Model(&Address{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		Update("is_default", false).Error; err != nil {
		return fmt.Errorf("failed to unset default address: %w", err)
	}
	return nil
}
