package models

import (
	"time"

	"github.com/jinzhu/gorm"
)

const (
	PurchasePending   = "pending"
	PurchaseReceived  = "received"
	PurchaseCancelled = "cancelled"
)

// Purchase is a supplier order. Receiving it applies every item to stock,
// either on demand or once ExpectedAt has passed when AutoReceive is set.
type Purchase struct {
	gorm.Model
	BusinessID  uint           `json:"business_id" gorm:"not null;index"`
	BranchID    uint           `json:"branch_id" gorm:"index"`
	SupplierID  *uint          `json:"supplier_id" gorm:"index"`
	Supplier    *Supplier      `json:"supplier,omitempty" gorm:"foreignkey:SupplierID"`
	Reference   string         `json:"reference" gorm:"index"`
	Status      string         `json:"status" gorm:"not null;index;default:'pending'"`
	ExpectedAt  *time.Time     `json:"expected_at" gorm:"index"`
	AutoReceive bool           `json:"auto_receive"`
	ReceivedAt  *time.Time     `json:"received_at"`
	ReceivedBy  uint           `json:"received_by"`
	Total       float64        `json:"total"`
	Notes       string         `json:"notes"`
	Items       []PurchaseItem `json:"items,omitempty" gorm:"foreignkey:PurchaseID"`
}

type PurchaseItem struct {
	ID         uint    `json:"id" gorm:"primary_key"`
	PurchaseID uint    `json:"purchase_id" gorm:"not null;index"`
	ProductID  uint    `json:"product_id" gorm:"not null;index"`
	Product    Product `json:"product,omitempty" gorm:"foreignkey:ProductID"`
	Quantity   int     `json:"quantity"`
	UnitCost   float64 `json:"unit_cost"`
	Subtotal   float64 `json:"subtotal"`
}

// Due reports whether the purchase should be received automatically at now.
func (p *Purchase) Due(now time.Time) bool {
	return p.Status == PurchasePending && p.AutoReceive && p.ExpectedAt != nil && !now.Before(*p.ExpectedAt)
}
