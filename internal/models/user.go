// internal/models/user.go
package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

type User struct {
	SoftDeleteModel
	Firstname        string     `json:"firstname" gorm:"size:100;not null"`
	Lastname         string     `json:"lastname" gorm:"size:100;not null"`
	Email            string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash     string     `json:"-" gorm:"size:255;not null"`
	IsSuperuser      bool       `json:"is_superuser" gorm:"default:false"`
	IsEmployee       bool       `json:"is_employee" gorm:"default:false"`
	StripeCustomerID string     `json:"stripe_id" gorm:"size:255"`
	LastLoginAt      *time.Time `json:"last_login_at"`

	// Relationships
	Orders    []Order   `json:"orders,omitempty" gorm:"foreignKey:UserID"`
	Addresses []Address `json:"addresses,omitempty" gorm:"foreignKey:UserID"`
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}

// IsStaff reports whether the user may manage the catalogue.
func (u *User) IsStaff() bool {
	return u.IsEmployee || u.IsSuperuser
}
