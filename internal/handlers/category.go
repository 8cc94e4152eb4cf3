// internal/handlers/category.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/storefront-backend/internal/i18n"
	"github.com/javajoker/storefront-backend/internal/services"
	"github.com/javajoker/storefront-backend/internal/utils"
)

type CategoryHandler struct {
	categoryService *services.CategoryService
	storageService  *services.StorageService
}

func NewCategoryHandler(categoryService *services.CategoryService, storageService *services.StorageService) *CategoryHandler {
	return &CategoryHandler{
		categoryService: categoryService,
		storageService:  storageService,
	}
}

// GET /category/
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	if err := utils.ValidateExpansions(params.Expand, "parent"); err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	categories, total, err := h.categoryService.ListCategories(c.Request.Context(), params)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(categories, total, params))
}

// GET /category/:slug
func (h *CategoryHandler) GetCategory(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	if err := utils.ValidateExpansions(params.Expand, "parent", "children"); err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	category, err := h.categoryService.GetCategoryBySlug(c.Request.Context(), c.Param("slug"), params.Expand)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, category)
}

// POST /category/
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var req services.CreateCategoryRequest
	if !bindJSON(c, &req) {
		return
	}

	category, err := h.categoryService.CreateCategory(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, category)
}

// PATCH /category/:slug
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	var req services.UpdateCategoryRequest
	if !bindJSON(c, &req) {
		return
	}

	category, err := h.categoryService.UpdateCategory(c.Request.Context(), c.Param("slug"), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, category)
}

// GET /category/:slug/products
func (h *CategoryHandler) ListProducts(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	products, total, err := h.categoryService.ListCategoryProducts(c.Request.Context(), c.Param("slug"), params)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(products, total, params))
}

// POST /category/:slug/image
func (h *CategoryHandler) UploadImage(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	ctx := c.Request.Context()

	// Resolve the category first so unknown slugs never reach storage.
	if _, err := h.categoryService.GetCategoryBySlug(ctx, c.Param("slug"), nil); err != nil {
		handleServiceError(c, err)
		return
	}

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyUploadFailed), err.Error())
		return
	}
	defer file.Close()

	result, err := h.storageService.UploadImage(ctx, file, header.Filename, services.ImageUploadOptions("categories"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	category, err := h.categoryService.SetCategoryImage(ctx, c.Param("slug"), result.URL)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":  i18n.T(lang, i18n.KeyUploadSuccess),
		"category": category,
		"upload":   result,
	})
}
