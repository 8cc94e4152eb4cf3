// internal/services/user_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/utils"
)

type UserService struct {
	db *gorm.DB
}

type UpdateRoleRequest struct {
	IsEmployee *bool `json:"is_employee" validate:"required"`
}

type AddAddressRequest struct {
	Line1       string `json:"line1" validate:"required,max=255"`
	Line2       string `json:"line2" validate:"max=255"`
	City        string `json:"city" validate:"required,max=100"`
	State       string `json:"state" validate:"max=100"`
	PostalCode  string `json:"postal_code" validate:"max=20"`
	CountryCode string `json:"country_code" validate:"required,len=2"`
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// GetUserByID loads a user with saved addresses.
func (s *UserService) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Preload("Addresses", func(db *gorm.DB) *gorm.DB {
			return db.Order("addresses.created_at DESC")
		}).
		First(&user, "id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("user", userID)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &user, nil
}

// SetEmployee grants or revokes the employee role.
func (s *UserService) SetEmployee(ctx context.Context, userID uuid.UUID, isEmployee bool) (*models.User, error) {
	db := s.db.WithContext(ctx)

	res := db.Model(&models.User{}).Where("id = ?", userID).Update("is_employee", isEmployee)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update role: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, notFound("user", userID)
	}

	logrus.WithFields(logrus.Fields{
		"user_id":     userID,
		"is_employee": isEmployee,
	}).Info("User role updated")

	return s.GetUserByID(ctx, userID)
}

func (s *UserService) AddAddress(ctx context.Context, userID uuid.UUID, req *AddAddressRequest) (*models.Address, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	address := &models.Address{
		UserID:      userID,
		Line1:       req.Line1,
		Line2:       req.Line2,
		City:        req.City,
		State:       req.State,
		PostalCode:  req.PostalCode,
		CountryCode: req.CountryCode,
	}
	if err := s.db.WithContext(ctx).Create(address).Error; err != nil {
		return nil, fmt.Errorf("failed to save address: %w", err)
	}
	return address, nil
}
