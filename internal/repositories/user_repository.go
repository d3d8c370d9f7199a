package repositories

import "digistore/internal/models"

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(user *models.User) error
	Update(user *models.User) error
	GetByID(id string) (*models.User, error)
	GetByUsername(username string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByPhoneNumber(phoneNumber string) (*models.User, error)
	UsernameExists(username string) (bool, error)
}

// ProfileRepository defines the interface for user profile data access.
type ProfileRepository interface {
	GetByUserID(userID string) (*models.UserProfile, error)
	Save(profile *models.UserProfile) error
}

// DeviceRepository defines the interface for login device data access.
type DeviceRepository interface {
	// Upsert creates the (user, device_uuid) row or refreshes the existing one.
	Upsert(device *models.Device) error
	GetByUser(userID string) ([]models.Device, error)
}
