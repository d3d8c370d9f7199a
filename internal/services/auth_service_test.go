package services_test

import (
	"fmt"
	"testing"
	"time"

	"digistore/internal/models"
	"digistore/internal/services"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

// MockDeviceRepo is a testify mock of repositories.DeviceRepository.
type MockDeviceRepo struct {
	mock.Mock
}

func (m *MockDeviceRepo) Upsert(device *models.Device) error {
	args := m.Called(device)
	return args.Error(0)
}

func (m *MockDeviceRepo) GetByUser(userID string) ([]models.Device, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Device), args.Error(1)
}

func testUser(password string) *models.User {
	hashed, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	email := "test@example.com"
	phone := "989123456789"
	return &models.User{
		ID:          "user-123",
		Username:    "testuser",
		Email:       &email,
		PhoneNumber: &phone,
		Password:    string(hashed),
		IsActive:    true,
	}
}

func TestAuthService_IssueToken(t *testing.T) {
	mockRepo := new(MockUserRepo)
	testJWTSecret := "test_jwt_secret"
	authService := services.NewAuthService(mockRepo, nil, testJWTSecret, fixedClock)

	user := testUser("password123")

	// Test successful login by username
	mockRepo.On("GetByUsername", user.Username).Return(user, nil).Once()
	mockRepo.On("Update", mock.AnythingOfType("*models.User")).Return(nil).Once()

	token, issued, err := authService.IssueToken(services.TokenRequest{
		Username: "testuser",
		Password: "password123",
	})
	assert.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, user.ID, issued.ID)
	assert.NotNil(t, issued.LastSeen)

	// Validate the token claims
	parsedToken, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(testJWTSecret), nil
	})
	assert.NoError(t, err)
	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	assert.True(t, ok)
	assert.Equal(t, user.ID, claims["user_id"])
	assert.Equal(t, user.Username, claims["username"])
	mockRepo.AssertExpectations(t)

	// Test invalid credentials (wrong password)
	mockRepo.On("GetByUsername", user.Username).Return(testUser("password123"), nil).Once()
	_, _, err = authService.IssueToken(services.TokenRequest{
		Username: "testuser",
		Password: "wrongpassword",
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid credentials")
	mockRepo.AssertExpectations(t)

	// Test invalid credentials (user not found)
	mockRepo.On("GetByUsername", "nonexistentuser").Return(nil, fmt.Errorf("user with username nonexistentuser not found")).Once()
	_, _, err = authService.IssueToken(services.TokenRequest{
		Username: "nonexistentuser",
		Password: "password123",
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid credentials") // Should return generic invalid credentials message
	mockRepo.AssertExpectations(t)
}

func TestAuthService_IssueTokenByEmailAndPhone(t *testing.T) {
	mockRepo := new(MockUserRepo)
	authService := services.NewAuthService(mockRepo, nil, "test_jwt_secret", fixedClock)

	mockRepo.On("GetByEmail", "test@example.com").Return(testUser("password123"), nil).Once()
	mockRepo.On("Update", mock.AnythingOfType("*models.User")).Return(nil).Once()
	token, _, err := authService.IssueToken(services.TokenRequest{
		Email:    "test@example.com",
		Password: "password123",
	})
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	mockRepo.On("GetByPhoneNumber", "989123456789").Return(testUser("password123"), nil).Once()
	mockRepo.On("Update", mock.AnythingOfType("*models.User")).Return(nil).Once()
	token, _, err = authService.IssueToken(services.TokenRequest{
		PhoneNumber: "989123456789",
		Password:    "password123",
	})
	assert.NoError(t, err)
	assert.NotEmpty(t, token)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_InactiveAccountRefused(t *testing.T) {
	mockRepo := new(MockUserRepo)
	authService := services.NewAuthService(mockRepo, nil, "test_jwt_secret", fixedClock)

	disabled := testUser("password123")
	disabled.IsActive = false
	mockRepo.On("GetByUsername", disabled.Username).Return(disabled, nil).Once()

	_, _, err := authService.IssueToken(services.TokenRequest{
		Username: "testuser",
		Password: "password123",
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid credentials")
	mockRepo.AssertExpectations(t)
}

func TestAuthService_DeviceRecordedOnLogin(t *testing.T) {
	mockRepo := new(MockUserRepo)
	mockDevices := new(MockDeviceRepo)
	authService := services.NewAuthService(mockRepo, mockDevices, "test_jwt_secret", fixedClock)

	mockRepo.On("GetByUsername", "testuser").Return(testUser("password123"), nil).Once()
	mockRepo.On("Update", mock.AnythingOfType("*models.User")).Return(nil).Once()
	mockDevices.On("Upsert", mock.MatchedBy(func(d *models.Device) bool {
		return d.UserID == "user-123" &&
			d.DeviceUUID == "f6a7cbad-2e57-4d29-bb4e-3e43d0e1dcbb" &&
			d.DeviceType == models.DeviceTypeAndroid &&
			d.LastLogin != nil && d.LastLogin.Equal(fixedTime)
	})).Return(nil).Once()

	_, _, err := authService.IssueToken(services.TokenRequest{
		Username:    "testuser",
		Password:    "password123",
		DeviceUUID:  "f6a7cbad-2e57-4d29-bb4e-3e43d0e1dcbb",
		DeviceType:  models.DeviceTypeAndroid,
		DeviceOS:    "Android 14",
		DeviceModel: "Pixel 8",
		AppVersion:  "2.3.1",
	})
	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockDevices.AssertExpectations(t)
}

func TestAuthService_ValidateToken(t *testing.T) {
	mockRepo := new(MockUserRepo)
	testJWTSecret := "test_jwt_secret"
	authService := services.NewAuthService(mockRepo, nil, testJWTSecret, nil)

	// Generate a valid token
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  "user-123",
		"username": "testuser",
		"exp":      jwt.TimeFunc().Add(time.Hour).Unix(), // Expires in 1 hour
	})
	validTokenString, _ := token.SignedString([]byte(testJWTSecret))

	// Test valid token
	claims, err := authService.ValidateToken(validTokenString)
	assert.NoError(t, err)
	assert.NotNil(t, claims)
	assert.Equal(t, "user-123", claims["user_id"])
	assert.Equal(t, "testuser", claims["username"])

	// Test invalid token (malformed)
	_, err = authService.ValidateToken("invalid.token.string")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid token")

	// Test expired token
	expiredToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  "user-123",
		"username": "testuser",
		"exp":      jwt.TimeFunc().Add(-time.Hour).Unix(), // Expired 1 hour ago
	})
	expiredTokenString, _ := expiredToken.SignedString([]byte(testJWTSecret))
	_, err = authService.ValidateToken(expiredTokenString)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid token")
}
