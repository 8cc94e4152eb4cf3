// internal/models/address.go
package models

import (
	"strings"

	"github.com/google/uuid"
)

// Address is a shipping address remembered for a user after a settled checkout.
type Address struct {
	BaseModel
	UserID      uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	Line1       string    `json:"line1" gorm:"size:255;not null"`
	Line2       string    `json:"line2" gorm:"size:255"`
	City        string    `json:"city" gorm:"size:100;not null"`
	State       string    `json:"state" gorm:"size:100"`
	PostalCode  string    `json:"postal_code" gorm:"size:20"`
	CountryCode string    `json:"country_code" gorm:"size:2"`
}

// Short renders "line1[ line2], city", the form stored on orders.
func (a Address) Short() string {
	var b strings.Builder
	b.WriteString(a.Line1)
	if a.Line2 != "" {
		b.WriteString(" ")
		b.WriteString(a.Line2)
	}
	b.WriteString(", ")
	b.WriteString(a.City)
	return b.String()
}

// Long appends state, postal code and country to the short form. Used as the geocoding query.
func (a Address) Long() string {
	return strings.Join([]string{a.Short(), a.State, a.PostalCode, a.CountryCode}, ", ")
}
