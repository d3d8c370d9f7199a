package repositories

import (
	"errors"
	"fmt"

	"digistore/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		db: db,
	}
}

// Create creates a new user in the database.
func (r *GORMUserRepository) Create(user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if err := r.db.Create(user).Error; err != nil {
		if isDuplicateErr(err) {
			return fmt.Errorf("failed to create user: %w", ErrDuplicate)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// Update saves all fields of an existing user.
func (r *GORMUserRepository) Update(user *models.User) error {
	res := r.db.Save(user)
	if res.Error != nil {
		if isDuplicateErr(res.Error) {
			return fmt.Errorf("failed to update user: %w", ErrDuplicate)
		}
		return fmt.Errorf("failed to update user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user with ID %s not found for update: %w", user.ID, ErrNotFound)
	}
	return nil
}

// GetByID retrieves a user by their ID from the database.
func (r *GORMUserRepository) GetByID(id string) (*models.User, error) {
	return r.getOne("id", "id = ?", id)
}

// GetByUsername retrieves a user by their username from the database.
func (r *GORMUserRepository) GetByUsername(username string) (*models.User, error) {
	return r.getOne("username", "username = ?", username)
}

// GetByEmail retrieves a user by their email from the database.
func (r *GORMUserRepository) GetByEmail(email string) (*models.User, error) {
	return r.getOne("email", "email = ?", email)
}

// GetByPhoneNumber retrieves a user by their phone number from the database.
func (r *GORMUserRepository) GetByPhoneNumber(phoneNumber string) (*models.User, error) {
	return r.getOne("phone number", "phone_number = ?", phoneNumber)
}

// UsernameExists reports whether any user holds the given username.
func (r *GORMUserRepository) UsernameExists(username string) (bool, error) {
	var count int64
	if err := r.db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to count users by username %s: %w", username, err)
	}
	return count > 0, nil
}

func (r *GORMUserRepository) getOne(field, query string, arg any) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user with %s %v: %w", field, arg, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by %s %v: %w", field, arg, err)
	}
	return &user, nil
}

// GORMProfileRepository is a GORM implementation of ProfileRepository.
type GORMProfileRepository struct {
	db *gorm.DB
}

// NewGORMProfileRepository creates a new instance of GORMProfileRepository.
func NewGORMProfileRepository(db *gorm.DB) *GORMProfileRepository {
	return &GORMProfileRepository{
		db: db,
	}
}

// GetByUserID retrieves the profile belonging to a user, with its province.
func (r *GORMProfileRepository) GetByUserID(userID string) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := r.db.Preload("Province").First(&profile, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("profile for user %s: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get profile for user %s: %w", userID, err)
	}
	return &profile, nil
}

// Save creates or updates a profile record.
func (r *GORMProfileRepository) Save(profile *models.UserProfile) error {
	if profile.ID == "" {
		profile.ID = uuid.New().String()
	}
	if err := r.db.Save(profile).Error; err != nil {
		return fmt.Errorf("failed to save profile for user %s: %w", profile.UserID, err)
	}
	return nil
}

// GORMDeviceRepository is a GORM implementation of DeviceRepository.
type GORMDeviceRepository struct {
	db *gorm.DB
}

// NewGORMDeviceRepository creates a new instance of GORMDeviceRepository.
func NewGORMDeviceRepository(db *gorm.DB) *GORMDeviceRepository {
	return &GORMDeviceRepository{
		db: db,
	}
}

// Upsert creates the device row for (user, device_uuid) or refreshes the
// mutable fields of the existing one.
func (r *GORMDeviceRepository) Upsert(device *models.Device) error {
	var existing models.Device
	err := r.db.First(&existing, "user_id = ? AND device_uuid = ?", device.UserID, device.DeviceUUID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if device.ID == "" {
			device.ID = uuid.New().String()
		}
		if createErr := r.db.Create(device).Error; createErr != nil {
			return fmt.Errorf("failed to create device %s: %w", device.DeviceUUID, createErr)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up device %s: %w", device.DeviceUUID, err)
	}

	existing.DeviceType = device.DeviceType
	existing.LastLogin = device.LastLogin
	existing.DeviceOS = device.DeviceOS
	existing.DeviceModel = device.DeviceModel
	existing.AppVersion = device.AppVersion
	if saveErr := r.db.Save(&existing).Error; saveErr != nil {
		return fmt.Errorf("failed to update device %s: %w", device.DeviceUUID, saveErr)
	}
	*device = existing
	return nil
}

// GetByUser retrieves all devices registered by a user.
func (r *GORMDeviceRepository) GetByUser(userID string) ([]models.Device, error) {
	var devices []models.Device
	if err := r.db.Where("user_id = ?", userID).Order("created_at").Find(&devices).Error; err != nil {
		return nil, fmt.Errorf("failed to get devices for user %s: %w", userID, err)
	}
	return devices, nil
}
