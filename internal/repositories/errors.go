package repositories

import (
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is wrapped by every repository lookup that matches no row.
var ErrNotFound = errors.New("record not found")

// IsUniqueViolation reports whether err is a duplicate key error. The DB is
// opened with TranslateError so drivers map their codes onto gorm errors.
func IsUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// IsForeignKeyViolation reports whether err is a foreign key error.
func IsForeignKeyViolation(err error) bool {
	return errors.Is(err, gorm.ErrForeignKeyViolated)
}
