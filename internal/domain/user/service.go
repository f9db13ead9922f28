// internal/domain/user/service.go
package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/your-org/food-ordering-backend/internal/config"
	"github.com/your-org/food-ordering-backend/internal/pkg/apperror"
	"github.com/your-org/food-ordering-backend/internal/pkg/auth"
)

const (
	msgInvalidCredentials = "Invalid email or password"
	msgEmailTaken         = "Email is already registered"
	msgPhoneTaken         = "Phone number is already registered"
	msgUserNotFound       = "User not found"
)

// Service handles user business logic
type Service struct {
	db              *gorm.DB
	config          *config.Config
	passwordManager *auth.PasswordManager
	jwtManager      *auth.JWTManager
}

// NewService creates a new user service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:              db,
		config:          cfg,
		passwordManager: auth.NewPasswordManager(cfg),
		jwtManager:      auth.NewJWTManager(cfg),
	}
}

// RegisterRequest represents user registration data
type RegisterRequest struct {
	FirstName   string `json:"firstName" binding:"required,min=2,max=50"`
	LastName    string `json:"lastName" binding:"required,min=2,max=50"`
	Email       string `json:"email" binding:"required,email,max=255"`
	Password    string `json:"password" binding:"required,min=8,max=72"`
	PhoneNumber string `json:"phoneNumber" binding:"required,e164"`
}

// LoginRequest represents user login data
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest exchanges a refresh token for a new pair
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// UpdateProfileRequest holds optional profile fields
type UpdateProfileRequest struct {
	FirstName   *string `json:"firstName" binding:"omitempty,min=2,max=50"`
	LastName    *string `json:"lastName" binding:"omitempty,min=2,max=50"`
	PhoneNumber *string `json:"phoneNumber" binding:"omitempty,e164"`
}

// ChangePasswordRequest represents a password change
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8,max=72"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	User *User `json:"user"`
	*auth.TokenPair
}

// Register creates a customer account and signs it in
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	db := s.db.WithContext(ctx)
	email := normalizeEmail(req.Email)

	if taken, err := s.exists(db, "email = ?", email); err != nil {
		return nil, err
	} else if taken {
		return nil, apperror.Conflict(msgEmailTaken)
	}
	if taken, err := s.exists(db, "phone_number = ?", req.PhoneNumber); err != nil {
		return nil, err
	} else if taken {
		return nil, apperror.Conflict(msgPhoneTaken)
	}

	hashedPassword, err := s.passwordManager.HashPassword(req.Password)
	if err != nil {
		return nil, apperror.BadRequest(err.Error())
	}

	now := time.Now().UTC()
	user := User{
		FirstName:   strings.TrimSpace(req.FirstName),
		LastName:    strings.TrimSpace(req.LastName),
		Email:       email,
		Password:    hashedPassword,
		PhoneNumber: req.PhoneNumber,
		Role:        RoleCustomer,
		IsActive:    true,
		LastLoginAt: &now,
	}
	if err := db.Create(&user).Error; err != nil {
		if apperror.IsUniqueViolation(err) {
			return nil, apperror.Conflict(msgEmailTaken)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	logrus.WithField("user_id", user.ID).Info("User registered")
	return s.authResponse(&user)
}

// Login authenticates a user by email and password
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	db := s.db.WithContext(ctx)

	var user User
	if err := db.Where("email = ?", normalizeEmail(req.Email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Unauthorized(msgInvalidCredentials)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if err := s.passwordManager.VerifyPassword(req.Password, user.Password); err != nil {
		return nil, apperror.Unauthorized(msgInvalidCredentials)
	}
	if !user.IsActive {
		return nil, apperror.Forbidden("Account is deactivated")
	}

	now := time.Now().UTC()
	if err := db.Model(&user).UpdateColumn("last_login_at", now).Error; err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Warn("Failed to record last login")
	}
	user.LastLoginAt = &now

	return s.authResponse(&user)
}

// Refresh issues a new token pair from a valid refresh token
func (s *Service) Refresh(ctx context.Context, req *RefreshRequest) (*AuthResponse, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		return nil, apperror.Unauthorized("Invalid refresh token")
	}

	user, err := s.GetProfile(ctx, claims.UserID)
	if err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			return nil, apperror.Unauthorized("Invalid refresh token")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperror.Forbidden("Account is deactivated")
	}

	return s.authResponse(user)
}

// GetProfile returns a user by ID
func (s *Service) GetProfile(ctx context.Context, userID uint) (*User, error) {
	return findUser(s.db.WithContext(ctx), userID)
}

// findUser loads a user by ID using db, which may carry preloads or a transaction
func findUser(db *gorm.DB, userID uint) (*User, error) {
	var user User
	if err := db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound(msgUserNotFound)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

// UpdateProfile changes only the fields present in req
func (s *Service) UpdateProfile(ctx context.Context, userID uint, req *UpdateProfileRequest) (*User, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	if req.PhoneNumber != nil && *req.PhoneNumber != user.PhoneNumber {
		taken, err := s.exists(db, "phone_number = ? AND id <> ?", *req.PhoneNumber, userID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, apperror.Conflict(msgPhoneTaken)
		}
		user.PhoneNumber = *req.PhoneNumber
	}
	if req.FirstName != nil {
		user.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		user.LastName = strings.TrimSpace(*req.LastName)
	}

	if err := db.Save(user).Error; err != nil {
		if apperror.IsUniqueViolation(err) {
			return nil, apperror.Conflict(msgPhoneTaken)
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

// ChangePassword replaces the password after verifying the current one
func (s *Service) ChangePassword(ctx context.Context, userID uint, req *ChangePasswordRequest) error {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.passwordManager.VerifyPassword(req.CurrentPassword, user.Password); err != nil {
		return apperror.BadRequest("Current password is incorrect")
	}
	if req.CurrentPassword == req.NewPassword {
		return apperror.BadRequest("New password must be different from current password")
	}

	hashedPassword, err := s.passwordManager.HashPassword(req.NewPassword)
	if err != nil {
		return apperror.BadRequest(err.Error())
	}

	if err := s.db.WithContext(ctx).Model(user).Update("password", hashedPassword).Error; err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	logrus.WithField("user_id", userID).Info("Password changed")
	return nil
}

func (s *Service) authResponse(user *User) (*AuthResponse, error) {
	tokens, err := s.jwtManager.GenerateTokenPair(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to issue tokens: %w", err)
	}
	return &AuthResponse{User: user, TokenPair: tokens}, nil
}

func (s *Service) exists(db *gorm.DB, query string, args ...interface{}) (bool, error) {
	var count int64
	if err := db.Model(&User{}).Where(query, args...).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check user uniqueness: %w", err)
	}
	return count > 0, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
