package models

import (
	"time"

	"github.com/jinzhu/gorm"
)

type Sale struct {
	gorm.Model
	BusinessID    uint       `json:"business_id" gorm:"not null;index"`
	BranchID      uint       `json:"branch_id" gorm:"index"`
	SessionID     uint       `json:"session_id" gorm:"not null;index"`
	UserID        uint       `json:"user_id" gorm:"not null"`
	PaymentMethod string     `json:"payment_method" gorm:"not null"`
	Total         float64    `json:"total"`
	SoldAt        time.Time  `json:"sold_at" gorm:"index"`
	Items         []SaleItem `json:"items,omitempty" gorm:"foreignkey:SaleID"`
}

type SaleItem struct {
	ID        uint    `json:"id" gorm:"primary_key"`
	SaleID    uint    `json:"sale_id" gorm:"not null;index"`
	ProductID uint    `json:"product_id" gorm:"not null;index"`
	Product   Product `json:"product,omitempty" gorm:"foreignkey:ProductID"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Subtotal  float64 `json:"subtotal"`
}
