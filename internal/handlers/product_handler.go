package handlers

import (
	"errors"
	"log"
	"os"
	"path/filepath"

	"digistore/internal/models"
	"digistore/internal/repositories"
	"digistore/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ProductHandler handles HTTP requests for products and their files.
type ProductHandler struct {
	productService *services.ProductService
	fileService    *services.FileService
	validate       *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(productService *services.ProductService, fileService *services.FileService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		fileService:    fileService,
		validate:       validator.New(),
	}
}

// RegisterRoutes registers the product and file routes with the Fiber app.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/:id", h.HandleGetProductByID)
	productRoutes.Post("/", h.HandleCreateProduct)
	productRoutes.Put("/:id", h.HandleUpdateProduct)
	productRoutes.Delete("/:id", h.HandleDeleteProduct)

	productRoutes.Get("/:id/files", h.HandleGetProductFiles)
	productRoutes.Post("/:id/files", h.HandleUploadFile)

	router.Delete("/files/:id", h.HandleDeleteFile)
}

// HandleGetProducts retrieves all products. ?all=true includes disabled ones.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	onlyEnabled := !c.QueryBool("all")
	products, err := h.productService.GetAllProducts(onlyEnabled)
	if err != nil {
		log.Printf("Error getting all products: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve products",
			"error":   err.Error(),
		})
	}
	return c.JSON(products)
}

// HandleGetProductByID retrieves a single product with categories and files.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	productID := c.Params("id")
	product, err := h.productService.GetProductByID(productID)
	if err != nil {
		log.Printf("Error getting product by ID %s: %v", productID, err)
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Product not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve product",
			"error":   err.Error(),
		})
	}
	return c.JSON(product)
}

// ProductRequest represents the request body for product writes.
type ProductRequest struct {
	Title       string   `json:"title" validate:"required,max=50"`
	Description string   `json:"description" validate:"omitempty,max=500"`
	Avatar      string   `json:"avatar" validate:"omitempty,max=255"`
	IsEnable    *bool    `json:"is_enable"`
	CategoryIDs []string `json:"category_ids" validate:"omitempty,dive,uuid"`
}

// HandleCreateProduct creates a new product bound to the given categories.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var req ProductRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing product request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationErrorResponse(c, err)
	}

	product := models.Product{
		Title:       req.Title,
		Description: req.Description,
		Avatar:      req.Avatar,
		IsEnable:    req.IsEnable == nil || *req.IsEnable,
	}
	if err := h.productService.CreateProduct(&product, req.CategoryIDs); err != nil {
		log.Printf("Error creating product: %v", err)
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Referenced category does not exist",
				"error":   err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not create product",
			"error":   err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct updates an existing product. category_ids, when
// present, replaces the category set.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	productID := c.Params("id")
	var req ProductRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing product request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationErrorResponse(c, err)
	}

	product, err := h.productService.GetProductByID(productID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Product not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve product",
			"error":   err.Error(),
		})
	}

	product.Title = req.Title
	product.Description = req.Description
	product.Avatar = req.Avatar
	if req.IsEnable != nil {
		product.IsEnable = *req.IsEnable
	}

	if err := h.productService.UpdateProduct(product, req.CategoryIDs); err != nil {
		log.Printf("Error updating product %s: %v", productID, err)
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Referenced category does not exist",
				"error":   err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not update product",
			"error":   err.Error(),
		})
	}
	return c.JSON(product)
}

// HandleDeleteProduct deletes a product and cascades to its files.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	productID := c.Params("id")
	if err := h.productService.DeleteProduct(productID); err != nil {
		log.Printf("Error deleting product %s: %v", productID, err)
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Product not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not delete product",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"message": "Product deleted successfully",
	})
}

// HandleGetProductFiles lists the files belonging to a product.
func (h *ProductHandler) HandleGetProductFiles(c *fiber.Ctx) error {
	productID := c.Params("id")
	files, err := h.fileService.GetFilesByProduct(productID)
	if err != nil {
		log.Printf("Error getting files for product %s: %v", productID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve files",
			"error":   err.Error(),
		})
	}
	return c.JSON(files)
}

// HandleUploadFile stores a multipart payload for a product. The form must
// carry a "file" part and may carry a "title" field.
func (h *ProductHandler) HandleUploadFile(c *fiber.Ctx) error {
	productID := c.Params("id")
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "A multipart 'file' part is required",
			"error":   err.Error(),
		})
	}
	title := c.FormValue("title")
	if title == "" {
		title = fileHeader.Filename
	}

	relPath := h.fileService.StoragePath(fileHeader.Filename)
	absPath := h.fileService.AbsolutePath(relPath)
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		log.Printf("Error creating upload directory for %s: %v", relPath, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not store file",
			"error":   err.Error(),
		})
	}
	if err := c.SaveFile(fileHeader, absPath); err != nil {
		log.Printf("Error saving upload %s: %v", relPath, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not store file",
			"error":   err.Error(),
		})
	}

	file, err := h.fileService.AddFile(productID, title, relPath)
	if err != nil {
		log.Printf("Error recording file for product %s: %v", productID, err)
		if rmErr := os.Remove(absPath); rmErr != nil {
			log.Printf("Warning: Failed to remove orphaned upload %s: %v", relPath, rmErr)
		}
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Product not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not record file",
			"error":   err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(file)
}

// HandleDeleteFile removes a file record and its stored payload.
func (h *ProductHandler) HandleDeleteFile(c *fiber.Ctx) error {
	fileID := c.Params("id")
	if err := h.fileService.DeleteFile(fileID); err != nil {
		log.Printf("Error deleting file %s: %v", fileID, err)
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "File not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not delete file",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"message": "File deleted successfully",
	})
}
