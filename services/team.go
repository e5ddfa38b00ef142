package services

import (
	"fmt"
	"strings"

	"github.com/jinzhu/gorm"

	"github.com/marko-code-lab/noiddea-demo-sub002/auth"
	"github.com/marko-code-lab/noiddea-demo-sub002/models"
)

type MemberInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email" binding:"required"`
	Password  string `json:"password" binding:"required"`
	Role      string `json:"role"`
	BranchID  uint   `json:"branch_id"`
}

// MemberUpdate holds optional changes; nil fields are left untouched.
type MemberUpdate struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Role      *string `json:"role"`
	BranchID  *uint   `json:"branch_id"`
	Active    *bool   `json:"active"`
	Password  *string `json:"password"`
}

func ListMembers(db *gorm.DB, businessID uint) ([]models.User, error) {
	var users []models.User
	err := db.Where("business_id = ?", businessID).Order("id").Find(&users).Error
	return users, err
}

func GetMember(db *gorm.DB, businessID, id uint) (*models.User, error) {
	var user models.User
	if err := db.Where("business_id = ? AND id = ?", businessID, id).First(&user).Error; err != nil {
		return nil, notFound(err, "team member")
	}
	return &user, nil
}

// CreateMember adds a user to the actor's business. The role defaults to
// cashier and the branch to the actor's branch.
func CreateMember(db *gorm.DB, actor Actor, in MemberInput) (*models.User, error) {
	email := normalizeEmail(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, invalid("email %q", in.Email)
	}
	if len(in.Password) < minPasswordLength {
		return nil, invalid("password must be at least %d characters", minPasswordLength)
	}
	role := in.Role
	if role == "" {
		role = models.RoleCashier
	}
	if !models.ValidRole(role) {
		return nil, invalid("role %q", in.Role)
	}
	branchID := in.BranchID
	if branchID == 0 {
		branchID = actor.BranchID
	}
	if _, err := GetBranch(db, actor.BusinessID, branchID); err != nil {
		return nil, err
	}
	if err := ensureEmailFree(db, email, 0); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := models.User{
		FirstName:  strings.TrimSpace(in.FirstName),
		LastName:   strings.TrimSpace(in.LastName),
		Email:      email,
		Password:   hash,
		Role:       role,
		BusinessID: actor.BusinessID,
		BranchID:   branchID,
		Active:     true,
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func UpdateMember(db *gorm.DB, actor Actor, id uint, in MemberUpdate) (*models.User, error) {
	user, err := GetMember(db, actor.BusinessID, id)
	if err != nil {
		return nil, err
	}

	changes := map[string]interface{}{}
	if in.FirstName != nil {
		changes["first_name"] = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		changes["last_name"] = strings.TrimSpace(*in.LastName)
	}
	if in.Role != nil {
		if !models.ValidRole(*in.Role) {
			return nil, invalid("role %q", *in.Role)
		}
		changes["role"] = *in.Role
	}
	if in.BranchID != nil {
		if _, err := GetBranch(db, actor.BusinessID, *in.BranchID); err != nil {
			return nil, err
		}
		changes["branch_id"] = *in.BranchID
	}
	if in.Active != nil {
		if !*in.Active && user.ID == actor.UserID {
			return nil, fmt.Errorf("cannot deactivate yourself: %w", ErrForbidden)
		}
		changes["active"] = *in.Active
	}
	if in.Password != nil {
		if len(*in.Password) < minPasswordLength {
			return nil, invalid("password must be at least %d characters", minPasswordLength)
		}
		hash, err := auth.HashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		changes["password"] = hash
	}

	losesOwner := (in.Role != nil && *in.Role != models.RoleOwner) || (in.Active != nil && !*in.Active)
	if user.Role == models.RoleOwner && user.Active && losesOwner {
		if err := ensureAnotherOwner(db, actor.BusinessID, user.ID); err != nil {
			return nil, err
		}
	}
	if len(changes) == 0 {
		return user, nil
	}
	if err := db.Model(user).Updates(changes).Error; err != nil {
		return nil, err
	}
	return GetMember(db, actor.BusinessID, id)
}

func RemoveMember(db *gorm.DB, actor Actor, id uint) error {
	if id == actor.UserID {
		return fmt.Errorf("cannot remove yourself: %w", ErrForbidden)
	}
	user, err := GetMember(db, actor.BusinessID, id)
	if err != nil {
		return err
	}
	if user.Role == models.RoleOwner && user.Active {
		if err := ensureAnotherOwner(db, actor.BusinessID, user.ID); err != nil {
			return err
		}
	}
	return db.Delete(user).Error
}

func ensureAnotherOwner(db *gorm.DB, businessID, exceptID uint) error {
	var count int
	err := db.Model(&models.User{}).
		Where("business_id = ? AND role = ? AND active = ? AND id <> ?", businessID, models.RoleOwner, true, exceptID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrLastOwner
	}
	return nil
}
