package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/jinzhu/gorm"

	"github.com/marko-code-lab/noiddea-demo-sub002/models"
)

// lowStockClause matches products at or below their own minimum, or the
// threshold bound as its single parameter when no minimum is set.
const lowStockClause = "stock <= CASE WHEN min_stock > 0 THEN min_stock ELSE ? END"

type ProductFilter struct {
	Search     string
	CategoryID *uint
	LowStock   bool
	ActiveOnly bool
}

type ProductInput struct {
	Name        string  `json:"name" binding:"required"`
	SKU         string  `json:"sku"`
	Description string  `json:"description"`
	CategoryID  *uint   `json:"category_id"`
	Cost        float64 `json:"cost"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	MinStock    int     `json:"min_stock"`
	Active      *bool   `json:"active"`
}

func (in ProductInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return invalid("product name is required")
	}
	if in.Price < 0 || in.Cost < 0 {
		return invalid("price and cost cannot be negative")
	}
	if in.Stock < 0 || in.MinStock < 0 {
		return invalid("stock cannot be negative")
	}
	return nil
}

func ListProducts(db *gorm.DB, businessID uint, threshold int, f ProductFilter) ([]models.Product, error) {
	q := db.Where("business_id = ?", businessID)
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(sku) LIKE ?", like, like)
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.LowStock {
		q = q.Where(lowStockClause, threshold)
	}
	if f.ActiveOnly {
		q = q.Where("active = ?", true)
	}
	var products []models.Product
	err := q.Order("name").Find(&products).Error
	return products, err
}

func GetProduct(db *gorm.DB, businessID, id uint) (*models.Product, error) {
	var product models.Product
	if err := db.Where("business_id = ? AND id = ?", businessID, id).First(&product).Error; err != nil {
		return nil, notFound(err, "product")
	}
	return &product, nil
}

// CreateProduct stores the product and its initial stock movement.
func CreateProduct(db *gorm.DB, actor Actor, in ProductInput, now time.Time) (*models.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if err := checkProductRefs(db, actor.BusinessID, in, 0); err != nil {
		return nil, err
	}

	product := models.Product{
		BusinessID:  actor.BusinessID,
		CategoryID:  in.CategoryID,
		Name:        strings.TrimSpace(in.Name),
		SKU:         strings.TrimSpace(in.SKU),
		Description: in.Description,
		Cost:        in.Cost,
		Price:       in.Price,
		Stock:       in.Stock,
		MinStock:    in.MinStock,
		Active:      true,
	}

	tx := db.Begin()
	if err := tx.Create(&product).Error; err != nil {
		return nil, rollback(tx, err)
	}
	if in.Active != nil && !*in.Active {
		// gorm skips zero values on create, so the column default wins
		if err := tx.Model(&product).Update("active", false).Error; err != nil {
			return nil, rollback(tx, err)
		}
	}
	if in.Stock > 0 {
		if err := recordMovement(tx, actor, product.ID, in.Stock, models.MovementInitial, "", now); err != nil {
			return nil, rollback(tx, err)
		}
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// UpdateProduct replaces the editable fields. The stock difference against
// the value read is applied as a relative adjustment, so sales committed in
// between are kept.
func UpdateProduct(db *gorm.DB, actor Actor, id uint, in ProductInput, now time.Time) (*models.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	product, err := GetProduct(db, actor.BusinessID, id)
	if err != nil {
		return nil, err
	}
	if err := checkProductRefs(db, actor.BusinessID, in, id); err != nil {
		return nil, err
	}

	changes := map[string]interface{}{
		"name":        strings.TrimSpace(in.Name),
		"sku":         strings.TrimSpace(in.SKU),
		"description": in.Description,
		"category_id": in.CategoryID,
		"cost":        in.Cost,
		"price":       in.Price,
		"min_stock":   in.MinStock,
	}
	if in.Active != nil {
		changes["active"] = *in.Active
	}
	diff := in.Stock - product.Stock

	tx := db.Begin()
	if err := tx.Model(product).Updates(changes).Error; err != nil {
		return nil, rollback(tx, err)
	}
	if diff != 0 {
		if err := changeStock(tx, product.ID, diff); err != nil {
			return nil, rollback(tx, err)
		}
		if err := recordMovement(tx, actor, product.ID, diff, models.MovementAdjustment, "edit", now); err != nil {
			return nil, rollback(tx, err)
		}
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return GetProduct(db, actor.BusinessID, id)
}

func DeleteProduct(db *gorm.DB, businessID, id uint) error {
	product, err := GetProduct(db, businessID, id)
	if err != nil {
		return err
	}
	return db.Delete(product).Error
}

// AdjustStock applies a signed delta. Stock never goes below zero.
func AdjustStock(db *gorm.DB, actor Actor, id uint, delta int, note string, now time.Time) (*models.Product, error) {
	if delta == 0 {
		return nil, invalid("quantity must not be zero")
	}
	if _, err := GetProduct(db, actor.BusinessID, id); err != nil {
		return nil, err
	}

	tx := db.Begin()
	if err := changeStock(tx, id, delta); err != nil {
		return nil, rollback(tx, err)
	}
	if err := recordMovement(tx, actor, id, delta, models.MovementAdjustment, note, now); err != nil {
		return nil, rollback(tx, err)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return GetProduct(db, actor.BusinessID, id)
}

func LowStockProducts(db *gorm.DB, businessID uint, threshold int) ([]models.Product, error) {
	return ListProducts(db, businessID, threshold, ProductFilter{LowStock: true, ActiveOnly: true})
}

func CountProducts(db *gorm.DB, businessID uint) (int, error) {
	var count int
	err := db.Model(&models.Product{}).Where("business_id = ? AND active = ?", businessID, true).Count(&count).Error
	return count, err
}

func CountLowStock(db *gorm.DB, businessID uint, threshold int) (int, error) {
	var count int
	err := db.Model(&models.Product{}).
		Where("business_id = ? AND active = ?", businessID, true).
		Where(lowStockClause, threshold).
		Count(&count).Error
	return count, err
}

// InventoryValue returns the retail value and the cost of the stock on hand.
func InventoryValue(db *gorm.DB, businessID uint) (value, cost float64, err error) {
	err = db.Model(&models.Product{}).
		Select("COALESCE(SUM(price * stock), 0), COALESCE(SUM(cost * stock), 0)").
		Where("business_id = ? AND active = ?", businessID, true).
		Row().Scan(&value, &cost)
	return round2(value), round2(cost), err
}

func ListMovements(db *gorm.DB, businessID uint, productID uint, from, to time.Time) ([]models.StockMovement, error) {
	q := db.Preload("Product").Where("business_id = ?", businessID)
	if productID != 0 {
		q = q.Where("product_id = ?", productID)
	}
	if !from.IsZero() {
		q = q.Where("added_at >= ?", from.UTC())
	}
	if !to.IsZero() {
		q = q.Where("added_at <= ?", to.UTC())
	}
	var movements []models.StockMovement
	err := q.Order("added_at, id").Find(&movements).Error
	return movements, err
}

func checkProductRefs(db *gorm.DB, businessID uint, in ProductInput, exceptID uint) error {
	if in.CategoryID != nil {
		if _, err := GetCategory(db, businessID, *in.CategoryID); err != nil {
			return err
		}
	}
	var count int
	q := db.Model(&models.Product{}).Where("business_id = ? AND LOWER(name) = ?", businessID, strings.ToLower(strings.TrimSpace(in.Name)))
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return conflict("product %q", in.Name)
	}
	if sku := strings.TrimSpace(in.SKU); sku != "" {
		q := db.Model(&models.Product{}).Where("business_id = ? AND sku = ?", businessID, sku)
		if exceptID != 0 {
			q = q.Where("id <> ?", exceptID)
		}
		if err := q.Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return conflict("sku %q", sku)
		}
	}
	return nil
}

// changeStock adds delta to the product stock, refusing to go negative.
// Deleted products are reported as not found.
func changeStock(tx *gorm.DB, productID uint, delta int) error {
	q := tx.Model(&models.Product{}).Where("id = ?", productID)
	if delta < 0 {
		q = q.Where("stock >= ?", -delta)
	}
	res := q.UpdateColumn("stock", gorm.Expr("stock + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if delta < 0 {
			var n int
			if err := tx.Model(&models.Product{}).Where("id = ?", productID).Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				return fmt.Errorf("product %d: %w", productID, ErrInsufficientStock)
			}
		}
		return fmt.Errorf("product %d: %w", productID, ErrNotFound)
	}
	return nil
}

func recordMovement(tx *gorm.DB, actor Actor, productID uint, qty int, reason, reference string, now time.Time) error {
	return tx.Create(&models.StockMovement{
		BusinessID: actor.BusinessID,
		BranchID:   actor.BranchID,
		ProductID:  productID,
		Quantity:   qty,
		Reason:     reason,
		Reference:  reference,
		AddedAt:    now.UTC(),
	}).Error
}
