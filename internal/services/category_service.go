// internal/services/category_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/utils"
)

type CategoryService struct {
	db *gorm.DB
}

type CreateCategoryRequest struct {
	Name        string     `json:"name" validate:"required,min=2,max=255,sluggable"`
	Description string     `json:"description" validate:"max=10000"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty"`
}

// UpdateCategoryRequest applies only the fields that are set. ClearParent moves the
// category to the top level.
type UpdateCategoryRequest struct {
	Name        *string    `json:"name,omitempty" validate:"omitempty,min=2,max=255,sluggable"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=10000"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty"`
	ClearParent bool       `json:"clear_parent,omitempty"`
}

func NewCategoryService(db *gorm.DB) *CategoryService {
	return &CategoryService{db: db}
}

func (s *CategoryService) ListCategories(ctx context.Context, params utils.PaginationParams) ([]models.Category, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Category{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count categories: %w", err)
	}

	if utils.HasExpansion(params.Expand, "parent") {
		query = query.Preload("Parent")
	}

	query = utils.ApplySort(query, params, []string{"created_at", "updated_at", "name"})
	query = utils.ApplyPagination(query, params)

	var categories []models.Category
	if err := query.Find(&categories).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch categories: %w", err)
	}

	return categories, total, nil
}

func (s *CategoryService) GetCategoryBySlug(ctx context.Context, slug string, expand []string) (*models.Category, error) {
	query := s.db.WithContext(ctx)
	if utils.HasExpansion(expand, "parent") {
		query = query.Preload("Parent")
	}
	if utils.HasExpansion(expand, "children") {
		query = query.Preload("Children")
	}

	var category models.Category
	if err := query.Where("slug = ?", slug).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("category", slug)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &category, nil
}

func (s *CategoryService) CreateCategory(ctx context.Context, req *CreateCategoryRequest) (*models.Category, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	category := &models.Category{
		ParentID:    req.ParentID,
		Name:        strings.TrimSpace(req.Name),
		Slug:        models.Slugify(req.Name),
		Description: utils.SanitizeHTML(req.Description),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if req.ParentID != nil {
			if err := categoryExists(tx, *req.ParentID); err != nil {
				return err
			}
		}
		return tx.Create(category).Error
	})
	if err != nil {
		return nil, catalogWriteError(err, "failed to create category")
	}

	logrus.WithFields(logrus.Fields{
		"category_id": category.ID,
		"slug":        category.Slug,
	}).Info("Category created")

	return category, nil
}

func (s *CategoryService) UpdateCategory(ctx context.Context, slug string, req *UpdateCategoryRequest) (*models.Category, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var category models.Category
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("slug = ?", slug).First(&category).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("category", slug)
			}
			return fmt.Errorf("database error: %w", err)
		}

		updates := make(map[string]interface{})
		if req.Name != nil {
			updates["name"] = strings.TrimSpace(*req.Name)
			updates["slug"] = models.Slugify(*req.Name)
		}
		if req.Description != nil {
			updates["description"] = utils.SanitizeHTML(*req.Description)
		}
		switch {
		case req.ClearParent:
			updates["parent_id"] = nil
		case req.ParentID != nil:
			if err := checkCategoryParent(tx, category.ID, *req.ParentID); err != nil {
				return err
			}
			updates["parent_id"] = *req.ParentID
		}

		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&category).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&category, "id = ?", category.ID).Error
	})
	if err != nil {
		return nil, catalogWriteError(err, "failed to update category")
	}

	return &category, nil
}

// SetCategoryImage stores the public URL of an uploaded image.
func (s *CategoryService) SetCategoryImage(ctx context.Context, slug, imageURL string) (*models.Category, error) {
	category, err := s.GetCategoryBySlug(ctx, slug, nil)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(category).Update("image_url", imageURL).Error; err != nil {
		return nil, fmt.Errorf("failed to update category image: %w", err)
	}
	category.ImageURL = imageURL
	return category, nil
}

func (s *CategoryService) ListCategoryProducts(ctx context.Context, slug string, params utils.PaginationParams) ([]models.Product, int64, error) {
	category, err := s.GetCategoryBySlug(ctx, slug, nil)
	if err != nil {
		return nil, 0, err
	}

	query := s.db.WithContext(ctx).Model(&models.Product{}).Where("category_id = ?", category.ID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	query = utils.ApplySort(query, params, []string{"created_at", "updated_at", "name", "price"})
	query = utils.ApplyPagination(query, params)

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch products: %w", err)
	}

	return products, total, nil
}

func categoryExists(tx *gorm.DB, id uuid.UUID) error {
	var count int64
	if err := tx.Model(&models.Category{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if count == 0 {
		return notFound("category", id)
	}
	return nil
}

// checkCategoryParent walks up from parentID and rejects the move if it reaches categoryID.
func checkCategoryParent(tx *gorm.DB, categoryID, parentID uuid.UUID) error {
	seen := map[uuid.UUID]bool{}
	current := &parentID
	for current != nil {
		if *current == categoryID || seen[*current] {
			return ErrCategoryCycle
		}
		seen[*current] = true

		var parent models.Category
		if err := tx.Select("id", "parent_id").First(&parent, "id = ?", *current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("category", *current)
			}
			return fmt.Errorf("database error: %w", err)
		}
		current = parent.ParentID
	}
	return nil
}

// catalogWriteError keeps domain errors and maps unique violations on slug to ErrSlugConflict.
func catalogWriteError(err error, msg string) error {
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrSlugConflict
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrCategoryCycle):
		return err
	default:
		return fmt.Errorf("%s: %w", msg, err)
	}
}
