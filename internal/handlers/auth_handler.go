package handlers

import (
	"errors"
	"fmt"
	"log"

	"digistore/internal/models"
	"digistore/internal/repositories"
	"digistore/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles HTTP requests for registration and token issuance.
type AuthHandler struct {
	accountService *services.AccountService
	authService    *services.AuthService
	validate       *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(accountService *services.AccountService, authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		accountService: accountService,
		authService:    authService,
		validate:       validator.New(),
	}
}

// RegisterRoutes registers the authentication routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/register", h.HandleRegister)
	router.Post("/get-token", h.HandleGetToken)
}

// RegisterRequest represents the request body for registration.
type RegisterRequest struct {
	Username    string `json:"username" validate:"omitempty,min=2,max=32"`
	Email       string `json:"email" validate:"omitempty,email"`
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password" validate:"omitempty,min=6"`
	NoPassword  bool   `json:"no_password"`
	FirstName   string `json:"first_name" validate:"omitempty,max=30"`
	LastName    string `json:"last_name" validate:"omitempty,max=30"`
}

// HandleRegister handles new account registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing register request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(req); err != nil {
		return validationErrorResponse(c, err)
	}
	if req.Username != "" && !models.UsernameRE.MatchString(req.Username) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  fiber.Map{"Username": "must start with a letter and contain only letters, digits, underscore or dot"},
		})
	}
	if req.PhoneNumber != "" && !models.PhoneRE.MatchString(req.PhoneNumber) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  fiber.Map{"PhoneNumber": "must be a valid mobile number"},
		})
	}
	if req.Password == "" && !req.NoPassword {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  fiber.Map{"Password": "required unless no_password is set"},
		})
	}

	user, err := h.accountService.CreateUser(services.CreateUserParams{
		Username:    req.Username,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Password:    req.Password,
		NoPassword:  req.NoPassword,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
	})
	if err != nil {
		log.Printf("Error registering user: %v", err)
		switch {
		case errors.Is(err, services.ErrUsernameRequired), errors.Is(err, services.ErrInvalidUsername):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Registration failed",
				"error":   err.Error(),
			})
		case errors.Is(err, repositories.ErrDuplicate), errors.Is(err, services.ErrUsernameExhausted):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message": "Registration failed",
				"error":   err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not register user",
			"error":   err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"user":    user,
	})
}

// GetTokenRequest represents the request body for token issuance. One of
// username, email or phone_number identifies the account; the device block
// is optional.
type GetTokenRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email" validate:"omitempty,email"`
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password" validate:"required"`

	DeviceUUID  string `json:"device_uuid" validate:"omitempty,uuid"`
	DeviceType  int    `json:"device_type" validate:"omitempty,oneof=1 2 3"`
	DeviceOS    string `json:"device_os" validate:"omitempty,max=20"`
	DeviceModel string `json:"device_model" validate:"omitempty,max=50"`
	AppVersion  string `json:"app_version" validate:"omitempty,max=20"`
}

// HandleGetToken authenticates credentials and issues a JWT token.
func (h *AuthHandler) HandleGetToken(c *fiber.Ctx) error {
	var req GetTokenRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing get-token request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(req); err != nil {
		return validationErrorResponse(c, err)
	}
	if req.Username == "" && req.Email == "" && req.PhoneNumber == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  fiber.Map{"Username": "one of username, email or phone_number is required"},
		})
	}

	token, user, err := h.authService.IssueToken(services.TokenRequest{
		Username:    req.Username,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Password:    req.Password,
		DeviceUUID:  req.DeviceUUID,
		DeviceType:  req.DeviceType,
		DeviceOS:    req.DeviceOS,
		DeviceModel: req.DeviceModel,
		AppVersion:  req.AppVersion,
	})
	if err != nil {
		log.Printf("Error during token issuance: %v", err)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Authentication failed",
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message":   "Login successful",
		"token":     token,
		"user_id":   user.ID,
		"username":  user.Username,
		"full_name": user.FullName(),
	})
}

// validationErrorResponse renders validator errors as a field-to-message map.
func validationErrorResponse(c *fiber.Ctx, err error) error {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   err.Error(),
		})
	}
	errorMessages := make(map[string]string)
	for _, e := range validationErrors {
		errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Validation failed",
		"errors":  errorMessages,
	})
}
