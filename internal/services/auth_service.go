package services

import (
	"fmt"
	"log"
	"time"

	"digistore/internal/models"
	"digistore/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles credential checks, token issuance and login-device
// tracking.
type AuthService struct {
	userRepo   repositories.UserRepository
	deviceRepo repositories.DeviceRepository
	jwtSecret  []byte
	tokenDurat time.Duration // Duration for which JWT is valid
	now        func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, deviceRepo repositories.DeviceRepository, jwtSecret string, now func() time.Time) *AuthService {
	if now == nil {
		now = time.Now
	}
	return &AuthService{
		userRepo:   userRepo,
		deviceRepo: deviceRepo,
		jwtSecret:  []byte(jwtSecret),
		tokenDurat: 24 * time.Hour, // Token valid for 24 hours
		now:        now,
	}
}

// TokenRequest carries the credentials and optional device block of a
// get-token call. Exactly one of Username, Email or PhoneNumber identifies
// the account.
type TokenRequest struct {
	Username    string
	Email       string
	PhoneNumber string
	Password    string

	DeviceUUID  string
	DeviceType  int
	DeviceOS    string
	DeviceModel string
	AppVersion  string
}

// IssueToken authenticates the request and returns a signed JWT. The device
// block, when present, is upserted with a refreshed last_login; failures
// there are logged but do not block the login.
func (s *AuthService) IssueToken(req TokenRequest) (string, *models.User, error) {
	user, err := s.lookupUser(req)
	if err != nil {
		// Do not reveal whether the identifier exists.
		return "", nil, fmt.Errorf("invalid credentials")
	}

	if !user.IsActive || !user.HasUsablePassword() {
		return "", nil, fmt.Errorf("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return "", nil, fmt.Errorf("invalid credentials")
	}

	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"exp":      now.Add(s.tokenDurat).Unix(), // Token expiration time
		"iat":      now.Unix(),                   // Issued at time
	})
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}

	if req.DeviceUUID != "" && s.deviceRepo != nil {
		deviceType := req.DeviceType
		if deviceType == 0 {
			deviceType = models.DeviceTypeWeb
		}
		device := &models.Device{
			UserID:      user.ID,
			DeviceUUID:  req.DeviceUUID,
			DeviceType:  deviceType,
			LastLogin:   &now,
			DeviceOS:    req.DeviceOS,
			DeviceModel: req.DeviceModel,
			AppVersion:  req.AppVersion,
		}
		if err := s.deviceRepo.Upsert(device); err != nil {
			log.Printf("Warning: Failed to record login device for user %s: %v", user.ID, err)
		}
	}

	user.LastSeen = &now
	if err := s.userRepo.Update(user); err != nil {
		log.Printf("Warning: Failed to update last seen for user %s: %v", user.ID, err)
	}

	return tokenString, user, nil
}

func (s *AuthService) lookupUser(req TokenRequest) (*models.User, error) {
	switch {
	case req.Username != "":
		return s.userRepo.GetByUsername(req.Username)
	case req.Email != "":
		return s.userRepo.GetByEmail(req.Email)
	case req.PhoneNumber != "":
		return s.userRepo.GetByPhoneNumber(req.PhoneNumber)
	default:
		return nil, fmt.Errorf("no identifier supplied")
	}
}

// ValidateToken parses and validates a JWT token, returning the claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Validate the alg is what we expect:
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})

	if err != nil {
		log.Printf("Token validation error: %v", err)
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}
