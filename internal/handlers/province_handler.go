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

// ProvinceHandler handles HTTP requests for the province reference table.
type ProvinceHandler struct {
	service  *services.ProvinceService
	validate *validator.Validate
}

// NewProvinceHandler creates a new ProvinceHandler.
func NewProvinceHandler(service *services.ProvinceService) *ProvinceHandler {
	return &ProvinceHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the province routes with the Fiber app.
func (h *ProvinceHandler) RegisterRoutes(router fiber.Router) {
	provinceRoutes := router.Group("/provinces")
	provinceRoutes.Get("/", h.HandleGetProvinces)
	provinceRoutes.Post("/", h.HandleCreateProvince)
	provinceRoutes.Delete("/:id", h.HandleDeleteProvince)
}

// HandleGetProvinces lists provinces. ?all=true includes invalid ones.
func (h *ProvinceHandler) HandleGetProvinces(c *fiber.Ctx) error {
	onlyValid := !c.QueryBool("all")
	provinces, err := h.service.GetProvinces(onlyValid)
	if err != nil {
		log.Printf("Error getting provinces: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve provinces",
			"error":   err.Error(),
		})
	}
	return c.JSON(provinces)
}

// HandleCreateProvince creates a new province.
func (h *ProvinceHandler) HandleCreateProvince(c *fiber.Ctx) error {
	var province models.Province
	if err := c.BodyParser(&province); err != nil {
		log.Printf("Error parsing province request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(province); err != nil {
		return validationErrorResponse(c, err)
	}
	province.ID = ""
	province.IsValid = true

	if err := h.service.CreateProvince(&province); err != nil {
		log.Printf("Error creating province: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not create province",
			"error":   err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(province)
}

// HandleDeleteProvince removes a province; referencing profiles keep existing
// with a nulled province reference.
func (h *ProvinceHandler) HandleDeleteProvince(c *fiber.Ctx) error {
	provinceID := c.Params("id")
	if err := h.service.DeleteProvince(provinceID); err != nil {
		log.Printf("Error deleting province %s: %v", provinceID, err)
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Province not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not delete province",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"message": "Province deleted successfully",
	})
}
