package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"digistore/internal/models"
	"digistore/internal/repositories"

	"golang.org/x/crypto/bcrypt"
)

// EventPublisher pushes domain events onto the message broker.
type EventPublisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

const (
	// maxSuffixAttempts bounds the collision-retry loop. Each retry appends
	// two digits, so 12 keeps the longest candidate inside varchar(32).
	maxSuffixAttempts = 12
	// maxCreateAttempts bounds re-derivation after a write-time uniqueness
	// rejection, which can happen when two signups race past the pre-check.
	maxCreateAttempts = 3
	// maxUsernameLen matches the varchar(32) username column.
	maxUsernameLen = 32
)

var (
	// ErrUsernameRequired is returned when no username was given and none can
	// be derived because both email and phone number are absent.
	ErrUsernameRequired = errors.New("username must be set or derivable from email or phone number")
	// ErrUsernameExhausted is returned when the collision-retry loop ran out
	// of attempts without finding a free username.
	ErrUsernameExhausted = errors.New("no free username found within retry bound")
	// ErrInvalidUsername is returned for usernames that do not match the
	// allowed pattern.
	ErrInvalidUsername = errors.New("username does not match allowed pattern")
)

// CreateUserParams carries the optional inputs of account provisioning.
type CreateUserParams struct {
	Username    string
	Email       string
	PhoneNumber string
	Password    string
	// NoPassword provisions the account without a usable password, for
	// identities that authenticate externally.
	NoPassword bool
	FirstName  string
	LastName   string
}

// AccountService provisions user accounts with guaranteed-unique usernames.
// The clock and randomness source are injected so derivation is testable.
type AccountService struct {
	userRepo  repositories.UserRepository
	publisher EventPublisher
	now       func() time.Time
	rng       *rand.Rand
	rngMu     sync.Mutex
}

// NewAccountService creates a new AccountService. A nil clock or randomness
// source falls back to the wall clock and a time-seeded generator.
func NewAccountService(userRepo repositories.UserRepository, publisher EventPublisher, now func() time.Time, rng *rand.Rand) *AccountService {
	if now == nil {
		now = time.Now
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &AccountService{
		userRepo:  userRepo,
		publisher: publisher,
		now:       now,
		rng:       rng,
	}
}

// CreateUser provisions an ordinary account. Username is derived when absent.
func (s *AccountService) CreateUser(params CreateUserParams) (*models.User, error) {
	return s.createUser(params, false, false)
}

// CreateSuperuser provisions an administrative account. The username must be
// given explicitly on this path.
func (s *AccountService) CreateSuperuser(params CreateUserParams) (*models.User, error) {
	if params.Username == "" {
		return nil, ErrUsernameRequired
	}
	return s.createUser(params, true, true)
}

func (s *AccountService) createUser(params CreateUserParams, isStaff, isSuperuser bool) (*models.User, error) {
	username := params.Username
	derived := false
	if username == "" {
		var err error
		username, err = s.deriveUsername(params.Email, params.PhoneNumber)
		if err != nil {
			return nil, err
		}
		derived = true
	}
	if !models.UsernameRE.MatchString(username) || len(username) > maxUsernameLen {
		return nil, fmt.Errorf("%w: %q", ErrInvalidUsername, username)
	}

	now := s.now()
	user := &models.User{
		Username:    username,
		FirstName:   params.FirstName,
		LastName:    params.LastName,
		Email:       normalizeOptional(params.Email),
		PhoneNumber: normalizeOptional(params.PhoneNumber),
		IsStaff:     isStaff,
		IsSuperuser: isSuperuser,
		IsActive:    true,
		DateJoined:  now,
	}

	if !params.NoPassword {
		hashed, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.Password = string(hashed)
	}

	// The uniqueness constraint is the source of truth: a concurrent signup
	// may take a derived username between our existence check and the write,
	// in which case the derivation is retried rather than the error surfaced.
	for attempt := 0; ; attempt++ {
		err := s.userRepo.Create(user)
		if err == nil {
			break
		}
		if derived && errors.Is(err, repositories.ErrDuplicate) && attempt < maxCreateAttempts-1 {
			fresh, freeErr := s.freeUsername(user.Username)
			if freeErr != nil {
				return nil, freeErr
			}
			user.Username = fresh
			continue
		}
		return nil, err
	}

	s.publishAccountCreated(user)
	return user, nil
}

// deriveUsername builds a candidate username from the email local part, or
// failing that from a random letter plus the last seven phone digits with a
// bounded collision-retry loop.
func (s *AccountService) deriveUsername(email, phoneNumber string) (string, error) {
	if local, _, found := strings.Cut(email, "@"); found {
		usable := models.UsernameRE.MatchString(local) && len(local) <= maxUsernameLen
		if usable || phoneNumber == "" {
			return local, nil
		}
		// Local part unusable as a username, fall through to the phone path.
	}
	if phoneNumber != "" {
		digits := phoneNumber
		if len(digits) > 7 {
			digits = digits[len(digits)-7:]
		}
		base := string('a'+rune(s.randInt(26))) + digits
		return s.freeUsername(base)
	}
	return "", ErrUsernameRequired
}

// freeUsername returns base if unused, otherwise keeps appending a random
// two-digit number until a free username is found or the bound is hit.
func (s *AccountService) freeUsername(base string) (string, error) {
	candidate := base
	for i := 0; i < maxSuffixAttempts; i++ {
		exists, err := s.userRepo.UsernameExists(candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check username %s: %w", candidate, err)
		}
		if !exists {
			return candidate, nil
		}
		candidate += strconv.Itoa(10 + s.randInt(90))
	}
	return "", ErrUsernameExhausted
}

// randInt draws from the injected source under a lock. rand.Rand is not safe
// for concurrent use and signups arrive on concurrent handler goroutines.
func (s *AccountService) randInt(n int) int {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Intn(n)
}

func (s *AccountService) publishAccountCreated(user *models.User) {
	if s.publisher == nil {
		log.Println("Event publisher is not initialized. Skipping account event.")
		return
	}

	message := map[string]interface{}{
		"userID":      user.ID,
		"username":    user.Username,
		"fullName":    user.FullName(),
		"contactable": user.IsLoggedInUser(),
		"isStaff":     user.IsStaff,
		"dateJoined":  user.DateJoined,
	}
	body, err := json.Marshal(message)
	if err != nil {
		log.Printf("Failed to marshal account event to JSON: %v", err)
		return
	}
	if err := s.publisher.Publish("account", "account.created", body); err != nil {
		log.Printf("Warning: Failed to publish account created event for user %s: %v", user.ID, err)
	} else {
		log.Printf("Successfully published account created event for user %s", user.ID)
	}
}

// normalizeOptional stores empty strings as absent so unique indexes on
// nullable columns stay meaningful.
func normalizeOptional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
