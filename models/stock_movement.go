package models

import "time"

const (
	MovementInitial    = "initial"
	MovementAdjustment = "adjustment"
	MovementPurchase   = "purchase"
	MovementSale       = "sale"
)

// StockMovement is an append-only record of every change to product stock.
type StockMovement struct {
	ID         uint      `json:"id" gorm:"primary_key"`
	BusinessID uint      `json:"business_id" gorm:"not null;index:idx_movement_business"`
	BranchID   uint      `json:"branch_id"`
	ProductID  uint      `json:"product_id" gorm:"not null;index:idx_movement_product"`
	Product    Product   `json:"product,omitempty" gorm:"foreignkey:ProductID"`
	Quantity   int       `json:"quantity"`
	Reason     string    `json:"reason" gorm:"not null"`
	Reference  string    `json:"reference"`
	AddedAt    time.Time `json:"added_at" gorm:"index"`
}
