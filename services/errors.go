package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jinzhu/gorm"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("already exists")
	ErrInvalidInput       = errors.New("invalid input")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrNoOpenSession      = errors.New("no open session")
	ErrSessionClosed      = errors.New("session is closed")
	ErrPurchaseNotPending = errors.New("purchase is not pending")
	ErrLastOwner          = errors.New("business must keep at least one active owner")
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID     uint
	BusinessID uint
	BranchID   uint
	Role       string
}

func notFound(err error, what string) error {
	if gorm.IsRecordNotFoundError(err) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return err
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidInput)
}

func conflict(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrConflict)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// rollback aborts tx and hands err back, so callers can `return rollback(tx, err)`.
func rollback(tx *gorm.DB, err error) error {
	tx.Rollback()
	return err
}
