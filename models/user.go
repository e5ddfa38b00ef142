package models

import "github.com/jinzhu/gorm"

const (
	RoleOwner   = "owner"
	RoleCashier = "cashier"
)

type User struct {
	gorm.Model
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Email      string    `json:"email" gorm:"not null;index"`
	Password   string    `json:"-" gorm:"not null"`
	Role       string    `json:"role" gorm:"not null;default:'cashier'"`
	BusinessID uint      `json:"business_id" gorm:"index"`
	BranchID   uint      `json:"branch_id" gorm:"index"`
	Active     bool      `json:"active" gorm:"not null;default:true"`
	Business   *Business `json:"-" gorm:"foreignkey:BusinessID"`
}

func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

func ValidRole(role string) bool {
	return role == RoleOwner || role == RoleCashier
}
