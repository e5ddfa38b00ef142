package models

import "github.com/jinzhu/gorm"

type Category struct {
	gorm.Model
	BusinessID uint   `json:"business_id" gorm:"not null;index"`
	Name       string `json:"name" gorm:"not null"`
}
