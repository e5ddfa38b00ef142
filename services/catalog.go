package services

import (
	"strings"

	"github.com/jinzhu/gorm"

	"github.com/marko-code-lab/noiddea-demo-sub002/models"
)

// Branches

type BranchInput struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

func ListBranches(db *gorm.DB, businessID uint) ([]models.Branch, error) {
	var branches []models.Branch
	err := db.Where("business_id = ?", businessID).Order("is_main desc, id").Find(&branches).Error
	return branches, err
}

func GetBranch(db *gorm.DB, businessID, id uint) (*models.Branch, error) {
	var branch models.Branch
	if err := db.Where("business_id = ? AND id = ?", businessID, id).First(&branch).Error; err != nil {
		return nil, notFound(err, "branch")
	}
	return &branch, nil
}

func CreateBranch(db *gorm.DB, businessID uint, in BranchInput) (*models.Branch, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("branch name is required")
	}
	if err := ensureUniqueName(db, &models.Branch{}, businessID, name, 0); err != nil {
		return nil, err
	}
	branch := models.Branch{BusinessID: businessID, Name: name, Address: in.Address, Phone: in.Phone}
	if err := db.Create(&branch).Error; err != nil {
		return nil, err
	}
	return &branch, nil
}

func UpdateBranch(db *gorm.DB, businessID, id uint, in BranchInput) (*models.Branch, error) {
	branch, err := GetBranch(db, businessID, id)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("branch name is required")
	}
	if err := ensureUniqueName(db, &models.Branch{}, businessID, name, id); err != nil {
		return nil, err
	}
	err = db.Model(branch).Updates(map[string]interface{}{"name": name, "address": in.Address, "phone": in.Phone}).Error
	return branch, err
}

// DeleteBranch refuses the main branch and branches that still have members.
func DeleteBranch(db *gorm.DB, businessID, id uint) error {
	branch, err := GetBranch(db, businessID, id)
	if err != nil {
		return err
	}
	if branch.IsMain {
		return conflict("main branch cannot be deleted")
	}
	var members int
	if err := db.Model(&models.User{}).Where("branch_id = ?", id).Count(&members).Error; err != nil {
		return err
	}
	if members > 0 {
		return conflict("branch has %d team members", members)
	}
	return db.Delete(branch).Error
}

// Categories

func ListCategories(db *gorm.DB, businessID uint) ([]models.Category, error) {
	var categories []models.Category
	err := db.Where("business_id = ?", businessID).Order("name").Find(&categories).Error
	return categories, err
}

func GetCategory(db *gorm.DB, businessID, id uint) (*models.Category, error) {
	var category models.Category
	if err := db.Where("business_id = ? AND id = ?", businessID, id).First(&category).Error; err != nil {
		return nil, notFound(err, "category")
	}
	return &category, nil
}

func CreateCategory(db *gorm.DB, businessID uint, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if len(name) < 2 || len(name) > 50 {
		return nil, invalid("category name must be 2 to 50 characters")
	}
	if err := ensureUniqueName(db, &models.Category{}, businessID, name, 0); err != nil {
		return nil, err
	}
	category := models.Category{BusinessID: businessID, Name: name}
	if err := db.Create(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func RenameCategory(db *gorm.DB, businessID, id uint, name string) (*models.Category, error) {
	category, err := GetCategory(db, businessID, id)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if len(name) < 2 || len(name) > 50 {
		return nil, invalid("category name must be 2 to 50 characters")
	}
	if err := ensureUniqueName(db, &models.Category{}, businessID, name, id); err != nil {
		return nil, err
	}
	err = db.Model(category).Update("name", name).Error
	return category, err
}

// DeleteCategory refuses categories that still hold products.
func DeleteCategory(db *gorm.DB, businessID, id uint) error {
	category, err := GetCategory(db, businessID, id)
	if err != nil {
		return err
	}
	var products int
	if err := db.Model(&models.Product{}).Where("category_id = ?", id).Count(&products).Error; err != nil {
		return err
	}
	if products > 0 {
		return conflict("category has %d products", products)
	}
	return db.Delete(category).Error
}

// Suppliers

type SupplierInput struct {
	Name    string `json:"name" binding:"required"`
	Contact string `json:"contact"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
}

func ListSuppliers(db *gorm.DB, businessID uint) ([]models.Supplier, error) {
	var suppliers []models.Supplier
	err := db.Where("business_id = ?", businessID).Order("name").Find(&suppliers).Error
	return suppliers, err
}

func GetSupplier(db *gorm.DB, businessID, id uint) (*models.Supplier, error) {
	var supplier models.Supplier
	if err := db.Where("business_id = ? AND id = ?", businessID, id).First(&supplier).Error; err != nil {
		return nil, notFound(err, "supplier")
	}
	return &supplier, nil
}

func CreateSupplier(db *gorm.DB, businessID uint, in SupplierInput) (*models.Supplier, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("supplier name is required")
	}
	if err := ensureUniqueName(db, &models.Supplier{}, businessID, name, 0); err != nil {
		return nil, err
	}
	supplier := models.Supplier{BusinessID: businessID, Name: name, Contact: in.Contact, Phone: in.Phone, Email: normalizeEmail(in.Email)}
	if err := db.Create(&supplier).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

func UpdateSupplier(db *gorm.DB, businessID, id uint, in SupplierInput) (*models.Supplier, error) {
	supplier, err := GetSupplier(db, businessID, id)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("supplier name is required")
	}
	if err := ensureUniqueName(db, &models.Supplier{}, businessID, name, id); err != nil {
		return nil, err
	}
	err = db.Model(supplier).Updates(map[string]interface{}{
		"name": name, "contact": in.Contact, "phone": in.Phone, "email": normalizeEmail(in.Email),
	}).Error
	return supplier, err
}

func DeleteSupplier(db *gorm.DB, businessID, id uint) error {
	supplier, err := GetSupplier(db, businessID, id)
	if err != nil {
		return err
	}
	return db.Delete(supplier).Error
}

// ensureUniqueName rejects a case-insensitive name clash inside one business.
func ensureUniqueName(db *gorm.DB, model interface{}, businessID uint, name string, exceptID uint) error {
	var count int
	q := db.Model(model).Where("business_id = ? AND LOWER(name) = ?", businessID, strings.ToLower(name))
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return conflict("name %q", name)
	}
	return nil
}
