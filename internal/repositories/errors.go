package repositories

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Sentinel errors shared by every repository implementation. Services match
// on these instead of driver-specific error strings.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate value for unique field")
)

// isDuplicateErr recognizes unique-constraint violations across drivers.
// GORM translates them to ErrDuplicatedKey when TranslateError is on; the
// string checks cover sqlite and postgres when it is not.
func isDuplicateErr(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
