package services

import (
	"errors"
	"fmt"
	"time"

	"digistore/internal/models"
	"digistore/internal/repositories"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidProvince is returned when a profile references a province that
// does not exist or is no longer valid.
var ErrInvalidProvince = errors.New("province does not exist or is not valid")

// ProfileService handles business logic for user profiles and their login
// devices.
type ProfileService struct {
	profileRepo  repositories.ProfileRepository
	provinceRepo repositories.ProvinceRepository
	userRepo     repositories.UserRepository
	deviceRepo   repositories.DeviceRepository
}

// NewProfileService creates a new ProfileService.
func NewProfileService(profileRepo repositories.ProfileRepository, provinceRepo repositories.ProvinceRepository, userRepo repositories.UserRepository, deviceRepo repositories.DeviceRepository) *ProfileService {
	return &ProfileService{
		profileRepo:  profileRepo,
		provinceRepo: provinceRepo,
		userRepo:     userRepo,
		deviceRepo:   deviceRepo,
	}
}

// UpdateProfileParams carries the mutable profile fields. Nil pointers leave
// the stored value untouched.
type UpdateProfileParams struct {
	NickName   *string
	Avatar     *string
	Birthday   *time.Time
	Gender     *bool
	ProvinceID *string
}

// GetProfile retrieves a user's profile, creating an empty one on first
// access so every account always has a profile row. The owning user is
// attached so DisplayName can fall back to the username.
func (s *ProfileService) GetProfile(userID string) (*models.UserProfile, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	profile, err := s.profileRepo.GetByUserID(userID)
	if errors.Is(err, repositories.ErrNotFound) {
		profile = &models.UserProfile{UserID: userID}
		if saveErr := s.profileRepo.Save(profile); saveErr != nil {
			return nil, saveErr
		}
	} else if err != nil {
		return nil, err
	}
	profile.User = user
	return profile, nil
}

// GetDevices lists the login devices recorded for the account.
func (s *ProfileService) GetDevices(userID string) ([]models.Device, error) {
	return s.deviceRepo.GetByUser(userID)
}

// UpdateProfile applies the given fields to the user's profile. A province
// assignment must point at an existing, valid province.
func (s *ProfileService) UpdateProfile(userID string, params UpdateProfileParams) (*models.UserProfile, error) {
	profile, err := s.GetProfile(userID)
	if err != nil {
		return nil, err
	}
	// Detach the user before the write so the save stays scoped to the
	// profile row.
	user := profile.User
	profile.User = nil

	if params.NickName != nil {
		profile.NickName = *params.NickName
	}
	if params.Avatar != nil {
		profile.Avatar = *params.Avatar
	}
	if params.Birthday != nil {
		profile.Birthday = params.Birthday
	}
	if params.Gender != nil {
		profile.Gender = params.Gender
	}
	if params.ProvinceID != nil {
		if *params.ProvinceID == "" {
			profile.ProvinceID = nil
			profile.Province = nil
		} else {
			province, provErr := s.provinceRepo.GetByID(*params.ProvinceID)
			if provErr != nil || !province.IsValid {
				return nil, fmt.Errorf("%w: %s", ErrInvalidProvince, *params.ProvinceID)
			}
			profile.ProvinceID = params.ProvinceID
			profile.Province = province
		}
	}

	if err := s.profileRepo.Save(profile); err != nil {
		return nil, err
	}
	profile.User = user
	return profile, nil
}

// ChangePassword replaces the account password after verifying the current
// one. Accounts without a usable password cannot change it here.
func (s *ProfileService) ChangePassword(userID, currentPassword, newPassword string) error {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}
	if !user.HasUsablePassword() {
		return fmt.Errorf("account has no usable password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(currentPassword)); err != nil {
		return fmt.Errorf("invalid credentials")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hashed)
	return s.userRepo.Update(user)
}
