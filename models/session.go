package models

import (
	"time"

	"github.com/jinzhu/gorm"
)

const (
	PaymentCash     = "cash"
	PaymentCard     = "card"
	PaymentTransfer = "transfer"
	PaymentOther    = "other"

	ClosedByUser   = "user"
	ClosedBySystem = "system"
)

// UserSession is a cash-register shift. It is open while ClosedAt is nil.
type UserSession struct {
	gorm.Model
	BusinessID    uint       `json:"business_id" gorm:"not null;index"`
	BranchID      uint       `json:"branch_id" gorm:"index"`
	UserID        uint       `json:"user_id" gorm:"not null;index"`
	OpenedAt      time.Time  `json:"opened_at"`
	ClosedAt      *time.Time `json:"closed_at" gorm:"index"`
	ExpiresAt     *time.Time `json:"expires_at"`
	OpeningCash   float64    `json:"opening_cash"`
	ClosingCash   *float64   `json:"closing_cash"`
	CashTotal     float64    `json:"cash_total"`
	CardTotal     float64    `json:"card_total"`
	TransferTotal float64    `json:"transfer_total"`
	OtherTotal    float64    `json:"other_total"`
	SalesCount    int        `json:"sales_count"`
	ClosedBy      string     `json:"closed_by"`
	Notes         string     `json:"notes"`
}

func (s *UserSession) IsOpen() bool {
	return s.ClosedAt == nil
}

// Expired reports whether an open session has passed its scheduled close time.
func (s *UserSession) Expired(now time.Time) bool {
	return s.IsOpen() && s.ExpiresAt != nil && !now.Before(*s.ExpiresAt)
}

func (s *UserSession) Total() float64 {
	return s.CashTotal + s.CardTotal + s.TransferTotal + s.OtherTotal
}

// ExpectedCash is the amount that should be in the drawer.
func (s *UserSession) ExpectedCash() float64 {
	return s.OpeningCash + s.CashTotal
}

func ValidPaymentMethod(method string) bool {
	switch method {
	case PaymentCash, PaymentCard, PaymentTransfer, PaymentOther:
		return true
	}
	return false
}
