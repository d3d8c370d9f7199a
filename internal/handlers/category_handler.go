package handlers

import (
	"errors"
	"log"

	"digistore/internal/models"
	"digistore/internal/repositories"
	"digistore/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CategoryHandler handles HTTP requests for the category tree.
type CategoryHandler struct {
	service  *services.CategoryService
	validate *validator.Validate
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(service *services.CategoryService) *CategoryHandler {
	return &CategoryHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the category routes with the Fiber app.
func (h *CategoryHandler) RegisterRoutes(router fiber.Router) {
	categoryRoutes := router.Group("/categories")
	categoryRoutes.Get("/", h.HandleGetCategories)
	categoryRoutes.Get("/:id", h.HandleGetCategoryByID)
	categoryRoutes.Post("/", h.HandleCreateCategory)
	categoryRoutes.Put("/:id", h.HandleUpdateCategory)
	categoryRoutes.Delete("/:id", h.HandleDeleteCategory)
}

// HandleGetCategories retrieves categories. ?roots=true limits the listing
// to root categories, ?all=true includes disabled ones.
func (h *CategoryHandler) HandleGetCategories(c *fiber.Ctx) error {
	rootsOnly := c.QueryBool("roots")
	onlyEnabled := !c.QueryBool("all")

	categories, err := h.service.GetCategories(rootsOnly, onlyEnabled)
	if err != nil {
		log.Printf("Error getting categories: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve categories",
			"error":   err.Error(),
		})
	}
	return c.JSON(categories)
}

// HandleGetCategoryByID retrieves a single category with its children.
func (h *CategoryHandler) HandleGetCategoryByID(c *fiber.Ctx) error {
	categoryID := c.Params("id")
	category, err := h.service.GetCategoryByID(categoryID)
	if err != nil {
		log.Printf("Error getting category by ID %s: %v", categoryID, err)
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Category not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve category",
			"error":   err.Error(),
		})
	}
	return c.JSON(category)
}

// CategoryRequest represents the request body for category writes.
type CategoryRequest struct {
	Title       string  `json:"title" validate:"required,max=50"`
	Description string  `json:"description" validate:"omitempty,max=500"`
	Avatar      string  `json:"avatar" validate:"omitempty,max=255"`
	IsEnable    *bool   `json:"is_enable"`
	ParentID    *string `json:"parent_id" validate:"omitempty,uuid"`
}

// HandleCreateCategory creates a new category.
func (h *CategoryHandler) HandleCreateCategory(c *fiber.Ctx) error {
	var req CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing category request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationErrorResponse(c, err)
	}

	category := models.Category{
		Title:       req.Title,
		Description: req.Description,
		Avatar:      req.Avatar,
		IsEnable:    req.IsEnable == nil || *req.IsEnable,
		ParentID:    req.ParentID,
	}
	if err := h.service.CreateCategory(&category); err != nil {
		log.Printf("Error creating category: %v", err)
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Parent category does not exist",
				"error":   err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not create category",
			"error":   err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

// HandleUpdateCategory updates an existing category, including parent
// reassignment.
func (h *CategoryHandler) HandleUpdateCategory(c *fiber.Ctx) error {
	categoryID := c.Params("id")
	var req CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing category request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationErrorResponse(c, err)
	}

	existing, err := h.service.GetCategoryByID(categoryID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Category not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve category",
			"error":   err.Error(),
		})
	}

	existing.Title = req.Title
	existing.Description = req.Description
	existing.Avatar = req.Avatar
	if req.IsEnable != nil {
		existing.IsEnable = *req.IsEnable
	}
	existing.ParentID = req.ParentID
	existing.Children = nil

	if err := h.service.UpdateCategory(existing); err != nil {
		log.Printf("Error updating category %s: %v", categoryID, err)
		switch {
		case errors.Is(err, services.ErrCategoryCycle):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Category update failed",
				"error":   err.Error(),
			})
		case errors.Is(err, repositories.ErrNotFound):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Parent category does not exist",
				"error":   err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not update category",
			"error":   err.Error(),
		})
	}
	return c.JSON(existing)
}

// HandleDeleteCategory deletes a category and its subtree.
func (h *CategoryHandler) HandleDeleteCategory(c *fiber.Ctx) error {
	categoryID := c.Params("id")
	if err := h.service.DeleteCategory(categoryID); err != nil {
		log.Printf("Error deleting category %s: %v", categoryID, err)
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Category not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not delete category",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"message": "Category deleted successfully",
	})
}
