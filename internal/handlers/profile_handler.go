package handlers

import (
	"errors"
	"log"
	"time"

	"digistore/internal/repositories"
	"digistore/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ProfileHandler handles HTTP requests for the authenticated user's profile.
type ProfileHandler struct {
	profileService *services.ProfileService
	validate       *validator.Validate
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profileService *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		validate:       validator.New(),
	}
}

// RegisterRoutes registers the profile routes with the Fiber app.
func (h *ProfileHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/profile", h.HandleGetProfile)
	router.Put("/profile", h.HandleUpdateProfile)
	router.Get("/profile/devices", h.HandleGetDevices)
	router.Post("/profile/change-password", h.HandleChangePassword)
}

// HandleGetProfile returns the caller's profile, creating an empty one on
// first access.
func (h *ProfileHandler) HandleGetProfile(c *fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(string)
	if !ok || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Missing authentication context",
		})
	}

	profile, err := h.profileService.GetProfile(userID)
	if err != nil {
		log.Printf("Error getting profile for user %s: %v", userID, err)
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "User not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve profile",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"profile":      profile,
		"display_name": profile.DisplayName(),
	})
}

// HandleGetDevices lists the caller's recorded login devices.
func (h *ProfileHandler) HandleGetDevices(c *fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(string)
	if !ok || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Missing authentication context",
		})
	}

	devices, err := h.profileService.GetDevices(userID)
	if err != nil {
		log.Printf("Error getting devices for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve devices",
			"error":   err.Error(),
		})
	}
	return c.JSON(devices)
}

// ProfileRequest represents the request body for profile updates. Absent
// fields leave the stored value untouched; an empty province_id clears it.
type ProfileRequest struct {
	NickName   *string `json:"nick_name" validate:"omitempty,max=150"`
	Avatar     *string `json:"avatar" validate:"omitempty,max=255"`
	Birthday   *string `json:"birthday"` // YYYY-MM-DD
	Gender     *bool   `json:"gender"`
	ProvinceID *string `json:"province_id"`
}

// HandleUpdateProfile applies a partial update to the caller's profile.
func (h *ProfileHandler) HandleUpdateProfile(c *fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(string)
	if !ok || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Missing authentication context",
		})
	}

	var req ProfileRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing profile request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationErrorResponse(c, err)
	}

	params := services.UpdateProfileParams{
		NickName:   req.NickName,
		Avatar:     req.Avatar,
		Gender:     req.Gender,
		ProvinceID: req.ProvinceID,
	}
	if req.Birthday != nil {
		birthday, err := time.Parse("2006-01-02", *req.Birthday)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Validation failed",
				"errors":  fiber.Map{"Birthday": "must be formatted YYYY-MM-DD"},
			})
		}
		params.Birthday = &birthday
	}

	profile, err := h.profileService.UpdateProfile(userID, params)
	if err != nil {
		log.Printf("Error updating profile for user %s: %v", userID, err)
		if errors.Is(err, services.ErrInvalidProvince) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Profile update failed",
				"error":   err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not update profile",
			"error":   err.Error(),
		})
	}
	return c.JSON(profile)
}

// ChangePasswordRequest represents the request body for a password change.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6"`
}

// HandleChangePassword replaces the caller's password.
func (h *ProfileHandler) HandleChangePassword(c *fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(string)
	if !ok || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Missing authentication context",
		})
	}

	var req ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationErrorResponse(c, err)
	}

	if err := h.profileService.ChangePassword(userID, req.CurrentPassword, req.NewPassword); err != nil {
		log.Printf("Error changing password for user %s: %v", userID, err)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Password change failed",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"message": "Password changed successfully",
	})
}
