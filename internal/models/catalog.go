// internal/models/catalog.go
package models

import (
	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

type Category struct {
	SoftDeleteModel
	ParentID    *uuid.UUID `json:"parent_id" gorm:"type:uuid;index"`
	Slug        string     `json:"slug" gorm:"size:255;uniqueIndex;not null"`
	Name        string     `json:"name" gorm:"size:255;not null"`
	Description string     `json:"description" gorm:"type:text"`
	ImageURL    string     `json:"image_url" gorm:"size:1024"`

	// Relationships
	Parent   *Category  `json:"parent,omitempty" gorm:"foreignKey:ParentID"`
	Children []Category `json:"children,omitempty" gorm:"foreignKey:ParentID"`
	Products []Product  `json:"products,omitempty" gorm:"foreignKey:CategoryID"`
}

type Product struct {
	SoftDeleteModel
	CategoryID  uuid.UUID `json:"category_id" gorm:"type:uuid;not null;index"`
	Slug        string    `json:"slug" gorm:"size:255;uniqueIndex;not null"`
	Quantity    int       `json:"quantity" gorm:"not null;default:0;check:chk_products_quantity,quantity >= 0"`
	Name        string    `json:"name" gorm:"size:255;not null"`
	Description string    `json:"description" gorm:"type:text"`
	ImageURL    string    `json:"image_url" gorm:"size:1024"`
	Price       float64   `json:"price" gorm:"type:decimal(10,2);not null"`
	Weight      float64   `json:"weight" gorm:"type:decimal(10,3);not null"`

	// Relationships
	Category *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
}

// Slugify derives the URL slug for a category or product name. Write paths call it
// whenever the name changes.
func Slugify(name string) string {
	return slug.Make(name)
}
