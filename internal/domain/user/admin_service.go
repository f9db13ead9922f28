// internal/domain/user/admin_service.go
package user

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/your-org/food-ordering-backend/internal/pkg/apperror"
	"github.com/your-org/food-ordering-backend/internal/pkg/pagination"
)

// AdminService handles admin user management operations
type AdminService struct {
	db *gorm.DB
}

// NewAdminService creates a new admin user service
func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{
		db: db,
	}
}

// UserListRequest represents user list query parameters
type UserListRequest struct {
	pagination.Params
	Search   string `form:"search"`
	Role     Role   `form:"role" binding:"omitempty,oneof=customer admin"`
	IsActive *bool  `form:"isActive"`
}

// UserWithStats is a user with order activity
type UserWithStats struct {
	User
	OrderCount   int64           `json:"orderCount"`
	TotalSpent   decimal.Decimal `json:"totalSpent"`
	LastOrderAt  *time.Time      `json:"lastOrderAt"`
	AddressCount int64           `json:"addressCount"`
}

// UserStatusUpdateRequest activates or deactivates an account
type UserStatusUpdateRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

// UserRoleUpdateRequest changes an account's role
type UserRoleUpdateRequest struct {
	Role Role `json:"role" binding:"required,oneof=customer admin"`
}

// List returns a filtered page of users, newest first
func (s *AdminService) List(ctx context.Context, req *UserListRequest) (*pagination.Page[User], error) {
	params := pagination.Normalize(req.Params)
	query := s.db.WithContext(ctx).Model(&User{})

	if search := strings.TrimSpace(req.Search); search != "" {
		term := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR phone_number LIKE ?",
			term, term, term, "%"+search+"%",
		)
	}
	if req.Role != "" {
		query = query.Where("role = ?", req.Role)
	}
	if req.IsActive != nil {
		query = query.Where("is_active = ?", *req.IsActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	var users []User
	if err := query.Order("created_at DESC, id DESC").
		Offset(params.Offset()).Limit(params.Limit).
		Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve users: %w", err)
	}

	page := pagination.New(users, total, params)
	return &page, nil
}

// Get returns a user with addresses and order statistics
func (s *AdminService) Get(ctx context.Context, userID uint) (*UserWithStats, error) {
	db := s.db.WithContext(ctx)

	user, err := findUser(db.Preload("Addresses"), userID)
	if err != nil {
		return nil, err
	}

	stats := &UserWithStats{User: *user, TotalSpent: decimal.Zero, AddressCount: int64(len(user.Addresses))}

	var orderStats struct {
		OrderCount  int64
		TotalSpent  decimal.NullDecimal
		LastOrderAt *time.Time
	}
	err = db.Table("orders").
		Select("COUNT(*) AS order_count, SUM(total_amount) AS total_spent, MAX(created_at) AS last_order_at").
		Where("user_id = ? AND status <> ?", userID, "cancelled").
		Scan(&orderStats).Error
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("Failed to load user order stats")
		return stats, nil
	}

	stats.OrderCount = orderStats.OrderCount
	if orderStats.TotalSpent.Valid {
		stats.TotalSpent = orderStats.TotalSpent.Decimal
	}
	stats.LastOrderAt = orderStats.LastOrderAt
	return stats, nil
}

// SetActive enables or disables an account. Admins cannot deactivate themselves.
func (s *AdminService) SetActive(ctx context.Context, userID, adminID uint, isActive bool) (*User, error) {
	if userID == adminID && !isActive {
		return nil, apperror.BadRequest("Cannot deactivate your own account")
	}

	user, err := findUser(s.db.WithContext(ctx), userID)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(user).Update("is_active", isActive).Error; err != nil {
		return nil, fmt.Errorf("failed to update user status: %w", err)
	}
	user.IsActive = isActive

	logrus.WithFields(logrus.Fields{"user_id": userID, "admin_id": adminID, "is_active": isActive}).Info("User status changed")
	return user, nil
}

// SetRole changes an account's role. At least one admin always remains.
func (s *AdminService) SetRole(ctx context.Context, userID, adminID uint, role Role) (*User, error) {
	if userID == adminID && role != RoleAdmin {
		return nil, apperror.BadRequest("Cannot remove your own admin privileges")
	}

	var user *User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if user, err = findUser(tx, userID); err != nil {
			return err
		}
		if user.Role == RoleAdmin && role != RoleAdmin {
			var admins int64
			if err := tx.Model(&User{}).Where("role = ? AND id <> ?", RoleAdmin, userID).Count(&admins).Error; err != nil {
				return fmt.Errorf("failed to count admins: %w", err)
			}
			if admins == 0 {
				return apperror.BadRequest("At least one admin must remain")
			}
		}
		if err := tx.Model(user).Update("role", role).Error; err != nil {
			return fmt.Errorf("failed to update user role: %w", err)
		}
		user.Role = role
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}
