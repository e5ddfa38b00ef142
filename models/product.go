package models

import "github.com/jinzhu/gorm"

type Product struct {
	gorm.Model
	BusinessID  uint    `json:"business_id" gorm:"not null;index"`
	CategoryID  *uint   `json:"category_id" gorm:"index"`
	Name        string  `json:"name" gorm:"not null"`
	SKU         string  `json:"sku" gorm:"index"`
	Description string  `json:"description"`
	Cost        float64 `json:"cost"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	// MinStock is the per-product low-stock level; zero falls back to the
	// configured threshold.
	MinStock int  `json:"min_stock"`
	Active   bool `json:"active" gorm:"not null;default:true"`
}

// LowStockLevel returns the stock level at or below which the product is low.
func (p *Product) LowStockLevel(threshold int) int {
	if p.MinStock > 0 {
		return p.MinStock
	}
	return threshold
}
