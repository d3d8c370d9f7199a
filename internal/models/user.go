package models

import (
	"regexp"
	"strings"
	"time"
)

// UsernameRE is the pattern every stored username must match:
// a letter followed by letters, digits, underscores or dots.
var UsernameRE = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_.]+$`)

// PhoneRE matches the mobile numbers accepted at registration.
var PhoneRE = regexp.MustCompile(`^989[0-39]\d{8}$`)

// User is the identity record. Email and phone number are alternative
// identifiers; both are nullable so the unique indexes stay meaningful.
type User struct {
	ID          string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Username    string     `json:"username" gorm:"uniqueIndex;type:varchar(32)"`
	FirstName   string     `json:"first_name" gorm:"type:varchar(30)"`
	LastName    string     `json:"last_name" gorm:"type:varchar(30)"`
	Email       *string    `json:"email" gorm:"uniqueIndex;type:varchar(255)"`
	PhoneNumber *string    `json:"phone_number" gorm:"uniqueIndex;type:varchar(12)"`
	Password    string     `json:"-" gorm:"type:varchar(255)"` // bcrypt hash; empty means no usable password
	IsStaff     bool       `json:"is_staff"`
	IsSuperuser bool       `json:"is_superuser"`
	IsActive    bool       `json:"is_active"`
	DateJoined  time.Time  `json:"date_joined"`
	LastSeen    *time.Time `json:"last_seen"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (u *User) TableName() string {
	return "users"
}

// FullName returns "first last" trimmed of surrounding spaces.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// HasUsablePassword reports whether the account can authenticate with a
// password. Accounts provisioned for external authentication carry no hash.
func (u *User) HasUsablePassword() bool {
	return u.Password != ""
}

// IsLoggedInUser reports whether the account has at least one reachable
// identifier beyond the generated username.
func (u *User) IsLoggedInUser() bool {
	return u.Email != nil || u.PhoneNumber != nil
}
