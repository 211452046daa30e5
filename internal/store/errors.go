package store

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrNotFound               = errors.New("record not found")
	ErrDuplicateInvoice       = errors.New("invoice already exists for quotation")
	ErrDuplicateInvoiceNumber = errors.New("invoice number already exists")
	ErrDuplicateEmail         = errors.New("email already registered")
)

// isUniqueViolation recognizes unique constraint failures whether or not the
// connection was opened with TranslateError.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
