package models

import "github.com/jinzhu/gorm"

type Business struct {
	gorm.Model
	Name     string    `json:"name" gorm:"not null"`
	Currency string    `json:"currency" gorm:"default:'USD'"`
	TaxID    string    `json:"tax_id"`
	Branches []*Branch `json:"branches,omitempty" gorm:"foreignkey:BusinessID"`
	Users    []*User   `json:"-" gorm:"foreignkey:BusinessID"`
}

// Branch is a physical location of a business. Every business has exactly one
// main branch, created together with the business.
type Branch struct {
	gorm.Model
	BusinessID uint   `json:"business_id" gorm:"not null;index"`
	Name       string `json:"name" gorm:"not null"`
	Address    string `json:"address"`
	Phone      string `json:"phone"`
	IsMain     bool   `json:"is_main"`
}
