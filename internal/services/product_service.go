// internal/services/product_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/utils"
)

type ProductService struct {
	db *gorm.DB
}

type CreateProductRequest struct {
	CategoryID  uuid.UUID `json:"category_id" validate:"required"`
	Name        string    `json:"name" validate:"required,min=2,max=255,sluggable"`
	Description string    `json:"description" validate:"max=10000"`
	Quantity    int       `json:"quantity" validate:"min=0"`
	Price       float64   `json:"price" validate:"required,gt=0"`
	Weight      float64   `json:"weight" validate:"required,gt=0"`
}

// UpdateProductRequest applies only the fields that are set. Quantity replaces the stock on hand.
type UpdateProductRequest struct {
	CategoryID  *uuid.UUID `json:"category_id,omitempty"`
	Name        *string    `json:"name,omitempty" validate:"omitempty,min=2,max=255,sluggable"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=10000"`
	Quantity    *int       `json:"quantity,omitempty" validate:"omitempty,min=0"`
	Price       *float64   `json:"price,omitempty" validate:"omitempty,gt=0"`
	Weight      *float64   `json:"weight,omitempty" validate:"omitempty,gt=0"`
}

type SearchRequest struct {
	Query string `validate:"required,max=20"`
}

func NewProductService(db *gorm.DB) *ProductService {
	return &ProductService{db: db}
}

func (s *ProductService) CreateProduct(ctx context.Context, req *CreateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	product := &models.Product{
		CategoryID:  req.CategoryID,
		Name:        strings.TrimSpace(req.Name),
		Slug:        models.Slugify(req.Name),
		Description: utils.SanitizeHTML(req.Description),
		Quantity:    req.Quantity,
		Price:       req.Price,
		Weight:      req.Weight,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := categoryExists(tx, req.CategoryID); err != nil {
			return err
		}
		return tx.Create(product).Error
	})
	if err != nil {
		return nil, catalogWriteError(err, "failed to create product")
	}

	logrus.WithFields(logrus.Fields{
		"product_id": product.ID,
		"slug":       product.Slug,
	}).Info("Product created")

	return product, nil
}

func (s *ProductService) GetProductBySlug(ctx context.Context, slug string, expand []string) (*models.Product, error) {
	query := s.db.WithContext(ctx)
	if utils.HasExpansion(expand, "category") {
		query = query.Preload("Category")
	}

	var product models.Product
	if err := query.Where("slug = ?", slug).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("product", slug)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &product, nil
}

func (s *ProductService) GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("product", id)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &product, nil
}

func (s *ProductService) UpdateProduct(ctx context.Context, id uuid.UUID, req *UpdateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var product models.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockProduct(tx, id, &product); err != nil {
			return err
		}

		updates := make(map[string]interface{})
		if req.CategoryID != nil {
			if err := categoryExists(tx, *req.CategoryID); err != nil {
				return err
			}
			updates["category_id"] = *req.CategoryID
		}
		if req.Name != nil {
			updates["name"] = strings.TrimSpace(*req.Name)
			updates["slug"] = models.Slugify(*req.Name)
		}
		if req.Description != nil {
			updates["description"] = utils.SanitizeHTML(*req.Description)
		}
		if req.Quantity != nil {
			updates["quantity"] = *req.Quantity
		}
		if req.Price != nil {
			updates["price"] = *req.Price
		}
		if req.Weight != nil {
			updates["weight"] = *req.Weight
		}

		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&product).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&product, "id = ?", id).Error
	})
	if err != nil {
		return nil, catalogWriteError(err, "failed to update product")
	}

	return &product, nil
}

// SearchProducts matches q case-insensitively against name and description.
func (s *ProductService) SearchProducts(ctx context.Context, params utils.PaginationParams) ([]models.Product, int64, error) {
	if err := utils.ValidateStruct(&SearchRequest{Query: params.Search}); err != nil {
		return nil, 0, fmt.Errorf("validation failed: %w", err)
	}

	searchTerm := "%" + escapeLike(strings.ToLower(params.Search)) + "%"
	query := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("LOWER(name) LIKE ? ESCAPE '\\' OR LOWER(description) LIKE ? ESCAPE '\\'", searchTerm, searchTerm)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	if utils.HasExpansion(params.Expand, "category") {
		query = query.Preload("Category")
	}
	query = utils.ApplySort(query, params, []string{"created_at", "updated_at", "name", "price"})
	query = utils.ApplyPagination(query, params)

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch products: %w", err)
	}

	return products, total, nil
}

func (s *ProductService) SetProductImage(ctx context.Context, id uuid.UUID, imageURL string) (*models.Product, error) {
	product, err := s.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(product).Update("image_url", imageURL).Error; err != nil {
		return nil, fmt.Errorf("failed to update product image: %w", err)
	}
	product.ImageURL = imageURL
	return product, nil
}

func lockProduct(tx *gorm.DB, id uuid.UUID, product *models.Product) error {
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(product, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("product", id)
		}
		return fmt.Errorf("database error: %w", err)
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
