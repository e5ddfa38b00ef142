package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/gorm"

	"github.com/marko-code-lab/noiddea-demo-sub002/models"
)

type PurchaseLine struct {
	ProductID uint    `json:"product_id" binding:"required"`
	Quantity  int     `json:"quantity" binding:"required,gt=0"`
	UnitCost  float64 `json:"unit_cost"`
}

type PurchaseInput struct {
	SupplierID  *uint          `json:"supplier_id"`
	BranchID    uint           `json:"branch_id"`
	Reference   string         `json:"reference"`
	ExpectedAt  *time.Time     `json:"expected_at"`
	AutoReceive bool           `json:"auto_receive"`
	Notes       string         `json:"notes"`
	Items       []PurchaseLine `json:"items" binding:"required,min=1,dive"`
}

func ListPurchases(db *gorm.DB, businessID uint, status string) ([]models.Purchase, error) {
	q := db.Preload("Supplier").Where("business_id = ?", businessID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var purchases []models.Purchase
	err := q.Order("id desc").Find(&purchases).Error
	return purchases, err
}

func GetPurchase(db *gorm.DB, businessID, id uint) (*models.Purchase, error) {
	var purchase models.Purchase
	err := db.Preload("Supplier").Preload("Items").Preload("Items.Product").
		Where("business_id = ? AND id = ?", businessID, id).
		First(&purchase).Error
	if err != nil {
		return nil, notFound(err, "purchase")
	}
	return &purchase, nil
}

// CreatePurchase stores a pending supplier order.
func CreatePurchase(db *gorm.DB, actor Actor, in PurchaseInput) (*models.Purchase, error) {
	items, total, err := buildPurchaseItems(db, actor.BusinessID, in)
	if err != nil {
		return nil, err
	}
	branchID, err := purchaseBranch(db, actor, in.BranchID)
	if err != nil {
		return nil, err
	}
	reference := strings.TrimSpace(in.Reference)
	if reference == "" {
		reference = "PO-" + strings.ToUpper(uuid.New().String()[:8])
	}

	purchase := models.Purchase{
		BusinessID:  actor.BusinessID,
		BranchID:    branchID,
		SupplierID:  in.SupplierID,
		Reference:   reference,
		Status:      models.PurchasePending,
		ExpectedAt:  utcPtr(in.ExpectedAt),
		AutoReceive: in.AutoReceive,
		Total:       total,
		Notes:       in.Notes,
		Items:       items,
	}
	if err := db.Create(&purchase).Error; err != nil {
		return nil, err
	}
	return GetPurchase(db, actor.BusinessID, purchase.ID)
}

// UpdatePurchase replaces header fields and items of a pending purchase.
func UpdatePurchase(db *gorm.DB, actor Actor, id uint, in PurchaseInput) (*models.Purchase, error) {
	purchase, err := GetPurchase(db, actor.BusinessID, id)
	if err != nil {
		return nil, err
	}
	if purchase.Status != models.PurchasePending {
		return nil, ErrPurchaseNotPending
	}
	items, total, err := buildPurchaseItems(db, actor.BusinessID, in)
	if err != nil {
		return nil, err
	}
	branchID, err := purchaseBranch(db, actor, in.BranchID)
	if err != nil {
		return nil, err
	}
	reference := strings.TrimSpace(in.Reference)
	if reference == "" {
		reference = purchase.Reference
	}

	tx := db.Begin()
	res := tx.Model(&models.Purchase{}).
		Where("id = ? AND status = ?", id, models.PurchasePending).
		Updates(map[string]interface{}{
			"supplier_id":  in.SupplierID,
			"branch_id":    branchID,
			"reference":    reference,
			"expected_at":  utcPtr(in.ExpectedAt),
			"auto_receive": in.AutoReceive,
			"notes":        in.Notes,
			"total":        total,
		})
	if res.Error != nil {
		return nil, rollback(tx, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, rollback(tx, ErrPurchaseNotPending)
	}
	if err := tx.Where("purchase_id = ?", id).Delete(&models.PurchaseItem{}).Error; err != nil {
		return nil, rollback(tx, err)
	}
	for i := range items {
		items[i].PurchaseID = id
		if err := tx.Create(&items[i]).Error; err != nil {
			return nil, rollback(tx, err)
		}
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return GetPurchase(db, actor.BusinessID, id)
}

func CancelPurchase(db *gorm.DB, businessID, id uint) (*models.Purchase, error) {
	if _, err := GetPurchase(db, businessID, id); err != nil {
		return nil, err
	}
	res := db.Model(&models.Purchase{}).
		Where("id = ? AND status = ?", id, models.PurchasePending).
		Update("status", models.PurchaseCancelled)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrPurchaseNotPending
	}
	return GetPurchase(db, businessID, id)
}

// DeletePurchase removes a purchase that never touched stock.
func DeletePurchase(db *gorm.DB, businessID, id uint) error {
	purchase, err := GetPurchase(db, businessID, id)
	if err != nil {
		return err
	}
	if purchase.Status == models.PurchaseReceived {
		return ErrPurchaseNotPending
	}
	tx := db.Begin()
	if err := tx.Where("purchase_id = ?", id).Delete(&models.PurchaseItem{}).Error; err != nil {
		return rollback(tx, err)
	}
	if err := tx.Delete(purchase).Error; err != nil {
		return rollback(tx, err)
	}
	return tx.Commit().Error
}

// ReceivePurchase applies a pending purchase to inventory: stock goes up by
// every item quantity and product cost follows the latest unit cost.
// receivedBy is zero when the scheduler receives the purchase.
func ReceivePurchase(db *gorm.DB, businessID, id, receivedBy uint, now time.Time) (*models.Purchase, error) {
	purchase, err := GetPurchase(db, businessID, id)
	if err != nil {
		return nil, err
	}
	if purchase.Status != models.PurchasePending {
		return nil, ErrPurchaseNotPending
	}
	now = now.UTC()

	tx := db.Begin()
	res := tx.Model(&models.Purchase{}).
		Where("id = ? AND status = ?", id, models.PurchasePending).
		Updates(map[string]interface{}{
			"status":      models.PurchaseReceived,
			"received_at": now,
			"received_by": receivedBy,
		})
	if res.Error != nil {
		return nil, rollback(tx, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, rollback(tx, ErrPurchaseNotPending)
	}

	mover := Actor{UserID: receivedBy, BusinessID: businessID, BranchID: purchase.BranchID}
	for _, item := range purchase.Items {
		if err := changeStock(tx, item.ProductID, item.Quantity); err != nil {
			return nil, rollback(tx, err)
		}
		if item.UnitCost > 0 {
			if err := tx.Model(&models.Product{}).Where("id = ?", item.ProductID).UpdateColumn("cost", item.UnitCost).Error; err != nil {
				return nil, rollback(tx, err)
			}
		}
		if err := recordMovement(tx, mover, item.ProductID, item.Quantity, models.MovementPurchase, purchase.Reference, now); err != nil {
			return nil, rollback(tx, err)
		}
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return GetPurchase(db, businessID, id)
}

// AutoReceiveDue receives every pending auto-receive purchase whose expected
// time has passed. Each purchase is received in its own transaction; failures
// are collected and do not stop the others. A purchase naming a product that
// was deleted since can never be received and is cancelled instead.
func AutoReceiveDue(db *gorm.DB, now time.Time) (received, cancelled []uint, err error) {
	var due []models.Purchase
	err = db.Select("id, business_id").
		Where("status = ? AND auto_receive = ? AND expected_at IS NOT NULL AND expected_at <= ?",
			models.PurchasePending, true, now.UTC()).
		Order("expected_at, id").
		Find(&due).Error
	if err != nil {
		return nil, nil, err
	}

	var errs []error
	for _, p := range due {
		_, err := ReceivePurchase(db, p.BusinessID, p.ID, 0, now)
		switch {
		case err == nil:
			received = append(received, p.ID)
		case errors.Is(err, ErrPurchaseNotPending):
			// received by someone else since the select
		case errors.Is(err, ErrNotFound):
			if _, err := CancelPurchase(db, p.BusinessID, p.ID); err != nil && !errors.Is(err, ErrPurchaseNotPending) {
				errs = append(errs, fmt.Errorf("cancel purchase %d: %w", p.ID, err))
				continue
			}
			cancelled = append(cancelled, p.ID)
		default:
			errs = append(errs, fmt.Errorf("purchase %d: %w", p.ID, err))
		}
	}
	return received, cancelled, errors.Join(errs...)
}

func buildPurchaseItems(db *gorm.DB, businessID uint, in PurchaseInput) ([]models.PurchaseItem, float64, error) {
	if len(in.Items) == 0 {
		return nil, 0, invalid("a purchase needs at least one item")
	}
	if in.SupplierID != nil {
		if _, err := GetSupplier(db, businessID, *in.SupplierID); err != nil {
			return nil, 0, err
		}
	}
	var (
		items []models.PurchaseItem
		total float64
	)
	for _, line := range in.Items {
		if line.Quantity <= 0 {
			return nil, 0, invalid("quantity must be positive")
		}
		if line.UnitCost < 0 {
			return nil, 0, invalid("unit cost cannot be negative")
		}
		if _, err := GetProduct(db, businessID, line.ProductID); err != nil {
			return nil, 0, err
		}
		subtotal := round2(float64(line.Quantity) * line.UnitCost)
		items = append(items, models.PurchaseItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitCost:  line.UnitCost,
			Subtotal:  subtotal,
		})
		total += subtotal
	}
	return items, round2(total), nil
}

func purchaseBranch(db *gorm.DB, actor Actor, branchID uint) (uint, error) {
	if branchID == 0 {
		return actor.BranchID, nil
	}
	if _, err := GetBranch(db, actor.BusinessID, branchID); err != nil {
		return 0, err
	}
	return branchID, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
