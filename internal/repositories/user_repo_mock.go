package repositories

import (
	"fmt"
	"sync"

	"digistore/internal/models"

	"github.com/google/uuid"
)

// MockUserRepository is an in-memory implementation of UserRepository. It
// enforces the same uniqueness rules as the database schema so provisioning
// logic can be exercised against realistic conflicts.
type MockUserRepository struct {
	users map[string]models.User
	mu    sync.RWMutex
}

// NewMockUserRepository creates a new instance of MockUserRepository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[string]models.User),
	}
}

// Create adds a new user, rejecting duplicate username, email or phone.
func (r *MockUserRepository) Create(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkUnique(user, ""); err != nil {
		return err
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	r.users[user.ID] = *user
	return nil
}

// Update replaces an existing user record.
func (r *MockUserRepository) Update(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; !ok {
		return fmt.Errorf("user with ID %s not found for update: %w", user.ID, ErrNotFound)
	}
	if err := r.checkUnique(user, user.ID); err != nil {
		return err
	}
	r.users[user.ID] = *user
	return nil
}

// GetByID returns a user by ID.
func (r *MockUserRepository) GetByID(id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user with id %s: %w", id, ErrNotFound)
	}
	return &user, nil
}

// GetByUsername returns a user by username.
func (r *MockUserRepository) GetByUsername(username string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Username == username {
			u := user
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user with username %s: %w", username, ErrNotFound)
}

// GetByEmail returns a user by email.
func (r *MockUserRepository) GetByEmail(email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Email != nil && *user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user with email %s: %w", email, ErrNotFound)
}

// GetByPhoneNumber returns a user by phone number.
func (r *MockUserRepository) GetByPhoneNumber(phoneNumber string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.PhoneNumber != nil && *user.PhoneNumber == phoneNumber {
			u := user
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user with phone number %s: %w", phoneNumber, ErrNotFound)
}

// UsernameExists reports whether any stored user holds the username.
func (r *MockUserRepository) UsernameExists(username string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Username == username {
			return true, nil
		}
	}
	return false, nil
}

// checkUnique must be called with the write lock held. excludeID skips the
// record being updated.
func (r *MockUserRepository) checkUnique(user *models.User, excludeID string) error {
	for id, existing := range r.users {
		if id == excludeID {
			continue
		}
		if existing.Username == user.Username {
			return fmt.Errorf("username %s already stored: %w", user.Username, ErrDuplicate)
		}
		if user.Email != nil && existing.Email != nil && *existing.Email == *user.Email {
			return fmt.Errorf("email %s already stored: %w", *user.Email, ErrDuplicate)
		}
		if user.PhoneNumber != nil && existing.PhoneNumber != nil && *existing.PhoneNumber == *user.PhoneNumber {
			return fmt.Errorf("phone number %s already stored: %w", *user.PhoneNumber, ErrDuplicate)
		}
	}
	return nil
}
