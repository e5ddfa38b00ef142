package services

import (
	"fmt"
	"strings"

	"github.com/jinzhu/gorm"

	"github.com/marko-code-lab/noiddea-demo-sub002/auth"
	"github.com/marko-code-lab/noiddea-demo-sub002/models"
)

const minPasswordLength = 6

type RegisterInput struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email" binding:"required"`
	Password     string `json:"password" binding:"required"`
	BusinessName string `json:"business_name" binding:"required"`
	BranchName   string `json:"branch_name"`
	Currency     string `json:"currency"`
}

// RegisterOwner creates a business, its main branch and the owning user.
func RegisterOwner(db *gorm.DB, in RegisterInput) (*models.User, *models.Business, error) {
	email := normalizeEmail(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, nil, invalid("email %q", in.Email)
	}
	if len(in.Password) < minPasswordLength {
		return nil, nil, invalid("password must be at least %d characters", minPasswordLength)
	}
	name := strings.TrimSpace(in.BusinessName)
	if name == "" {
		return nil, nil, invalid("business name is required")
	}
	if err := ensureEmailFree(db, email, 0); err != nil {
		return nil, nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	branchName := strings.TrimSpace(in.BranchName)
	if branchName == "" {
		branchName = "Main"
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = "USD"
	}

	tx := db.Begin()
	business := models.Business{Name: name, Currency: currency}
	if err := tx.Create(&business).Error; err != nil {
		return nil, nil, rollback(tx, err)
	}
	branch := models.Branch{BusinessID: business.ID, Name: branchName, IsMain: true}
	if err := tx.Create(&branch).Error; err != nil {
		return nil, nil, rollback(tx, err)
	}
	user := models.User{
		FirstName:  strings.TrimSpace(in.FirstName),
		LastName:   strings.TrimSpace(in.LastName),
		Email:      email,
		Password:   hash,
		Role:       models.RoleOwner,
		BusinessID: business.ID,
		BranchID:   branch.ID,
		Active:     true,
	}
	if err := tx.Create(&user).Error; err != nil {
		return nil, nil, rollback(tx, err)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, nil, err
	}
	business.Branches = []*models.Branch{&branch}
	return &user, &business, nil
}

// Authenticate checks credentials. Unknown users and wrong passwords are
// indistinguishable to the caller.
func Authenticate(db *gorm.DB, email, password string) (*models.User, error) {
	var user models.User
	if err := db.Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(password, user.Password) {
		return nil, ErrInvalidCredentials
	}
	if !user.Active {
		return nil, fmt.Errorf("account disabled: %w", ErrForbidden)
	}
	return &user, nil
}

func GetUser(db *gorm.DB, id uint) (*models.User, error) {
	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return &user, nil
}

func ChangePassword(db *gorm.DB, userID uint, oldPassword, newPassword string) error {
	user, err := GetUser(db, userID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(oldPassword, user.Password) {
		return ErrInvalidCredentials
	}
	if len(newPassword) < minPasswordLength {
		return invalid("password must be at least %d characters", minPasswordLength)
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return db.Model(user).Update("password", hash).Error
}

func GetBusiness(db *gorm.DB, id uint) (*models.Business, error) {
	var business models.Business
	if err := db.Preload("Branches").First(&business, id).Error; err != nil {
		return nil, notFound(err, "business")
	}
	return &business, nil
}

func ensureEmailFree(db *gorm.DB, email string, exceptID uint) error {
	var count int
	q := db.Model(&models.User{}).Where("email = ?", email)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return conflict("user with email %s", email)
	}
	return nil
}
