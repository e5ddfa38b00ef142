package services

import (
	"fmt"
	"time"

	"github.com/jinzhu/gorm"

	"github.com/marko-code-lab/noiddea-demo-sub002/models"
)

type SaleLine struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,gt=0"`
}

type SaleInput struct {
	PaymentMethod string     `json:"payment_method"`
	Items         []SaleLine `json:"items" binding:"required,min=1,dive"`
}

type SaleFilter struct {
	SessionID uint
	BranchID  uint
	From      time.Time
	To        time.Time
}

// CreateSale records a sale against the caller's open shift. Stock is
// decremented, sale movements are written and the shift totals are updated
// in a single transaction.
func CreateSale(db *gorm.DB, actor Actor, in SaleInput, now time.Time) (*models.Sale, error) {
	now = now.UTC()
	method := in.PaymentMethod
	if method == "" {
		method = models.PaymentCash
	}
	if !models.ValidPaymentMethod(method) {
		return nil, invalid("payment method %q", method)
	}
	if len(in.Items) == 0 {
		return nil, invalid("a sale needs at least one item")
	}

	session, err := CurrentSession(db, actor.UserID)
	if err != nil {
		return nil, err
	}
	if session.Expired(now) {
		return nil, ErrSessionClosed
	}

	sale := models.Sale{
		BusinessID:    actor.BusinessID,
		BranchID:      session.BranchID,
		SessionID:     session.ID,
		UserID:        actor.UserID,
		PaymentMethod: method,
		SoldAt:        now,
	}
	for _, line := range in.Items {
		if line.Quantity <= 0 {
			return nil, invalid("quantity must be positive")
		}
		product, err := GetProduct(db, actor.BusinessID, line.ProductID)
		if err != nil {
			return nil, err
		}
		if !product.Active {
			return nil, invalid("product %q is inactive", product.Name)
		}
		subtotal := round2(float64(line.Quantity) * product.Price)
		sale.Items = append(sale.Items, models.SaleItem{
			ProductID: product.ID,
			Quantity:  line.Quantity,
			UnitPrice: product.Price,
			Subtotal:  subtotal,
		})
		sale.Total += subtotal
	}
	sale.Total = round2(sale.Total)

	mover := Actor{UserID: actor.UserID, BusinessID: actor.BusinessID, BranchID: session.BranchID}
	tx := db.Begin()
	if err := tx.Create(&sale).Error; err != nil {
		return nil, rollback(tx, err)
	}
	reference := fmt.Sprintf("sale #%d", sale.ID)
	for _, item := range sale.Items {
		if err := changeStock(tx, item.ProductID, -item.Quantity); err != nil {
			return nil, rollback(tx, err)
		}
		if err := recordMovement(tx, mover, item.ProductID, -item.Quantity, models.MovementSale, reference, now); err != nil {
			return nil, rollback(tx, err)
		}
	}
	if err := RecordPayment(tx, session.ID, method, sale.Total); err != nil {
		return nil, rollback(tx, err)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

func ListSales(db *gorm.DB, businessID uint, f SaleFilter) ([]models.Sale, error) {
	q := db.Preload("Items").Preload("Items.Product").Where("business_id = ?", businessID)
	if f.SessionID != 0 {
		q = q.Where("session_id = ?", f.SessionID)
	}
	if f.BranchID != 0 {
		q = q.Where("branch_id = ?", f.BranchID)
	}
	if !f.From.IsZero() {
		q = q.Where("sold_at >= ?", f.From.UTC())
	}
	if !f.To.IsZero() {
		q = q.Where("sold_at <= ?", f.To.UTC())
	}
	var sales []models.Sale
	err := q.Order("sold_at desc, id desc").Find(&sales).Error
	return sales, err
}

func RecentSales(db *gorm.DB, businessID uint, limit int) ([]models.Sale, error) {
	var sales []models.Sale
	err := db.Preload("Items").Preload("Items.Product").
		Where("business_id = ?", businessID).
		Order("sold_at desc, id desc").
		Limit(limit).
		Find(&sales).Error
	return sales, err
}
