package models

import "github.com/jinzhu/gorm"

type Supplier struct {
	gorm.Model
	BusinessID uint   `json:"business_id" gorm:"not null;index"`
	Name       string `json:"name" gorm:"not null"`
	Contact    string `json:"contact"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
}
