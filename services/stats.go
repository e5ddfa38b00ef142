package services

import (
	"time"

	"github.com/jinzhu/gorm"
	"github.com/shopspring/decimal"

	"github.com/marko-code-lab/noiddea-demo-sub002/models"
)

const (
	topProductsWindow = 30 * 24 * time.Hour
	topProductsLimit  = 5
	recentSalesLimit  = 5
)

type TopProduct struct {
	ProductID uint    `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Revenue   float64 `json:"revenue"`
}

type DashboardStats struct {
	TotalProducts        int                `json:"total_products"`
	LowStockProducts     int                `json:"low_stock_products"`
	InventoryValue       float64            `json:"inventory_value"`
	InventoryCost        float64            `json:"inventory_cost"`
	TodaySalesTotal      float64            `json:"today_sales_total"`
	TodaySalesCount      int                `json:"today_sales_count"`
	TodayByPayment       map[string]float64 `json:"today_by_payment"`
	OpenSessions         int                `json:"open_sessions"`
	PendingPurchases     int                `json:"pending_purchases"`
	PendingPurchaseValue float64            `json:"pending_purchase_value"`
	TopProducts          []TopProduct       `json:"top_products"`
	RecentSales          []models.Sale      `json:"recent_sales"`
}

// Stats aggregates the dashboard summary of a business. A non-zero branchID
// narrows sales, sessions and purchases to that branch; inventory is shared
// by every branch.
func Stats(db *gorm.DB, businessID, branchID uint, threshold int, now time.Time) (*DashboardStats, error) {
	var (
		stats = &DashboardStats{TodayByPayment: map[string]float64{}}
		err   error
	)
	if stats.TotalProducts, err = CountProducts(db, businessID); err != nil {
		return nil, err
	}
	if stats.LowStockProducts, err = CountLowStock(db, businessID, threshold); err != nil {
		return nil, err
	}
	if stats.InventoryValue, stats.InventoryCost, err = InventoryValue(db, businessID); err != nil {
		return nil, err
	}

	scoped := func(q *gorm.DB) *gorm.DB {
		q = q.Where("business_id = ?", businessID)
		if branchID != 0 {
			q = q.Where("branch_id = ?", branchID)
		}
		return q
	}

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).UTC()
	rows, err := scoped(db.Model(&models.Sale{})).
		Select("payment_method, COUNT(*), COALESCE(SUM(total), 0)").
		Where("sold_at >= ?", dayStart).
		Group("payment_method").
		Rows()
	if err != nil {
		return nil, err
	}
	total := decimal.Zero
	for rows.Next() {
		var (
			method string
			count  int
			sum    float64
		)
		if err := rows.Scan(&method, &count, &sum); err != nil {
			rows.Close()
			return nil, err
		}
		amount := decimal.NewFromFloat(sum)
		stats.TodayByPayment[method] = amount.Round(2).InexactFloat64()
		stats.TodaySalesCount += count
		total = total.Add(amount)
	}
	rows.Close()
	stats.TodaySalesTotal = total.Round(2).InexactFloat64()

	if err := scoped(db.Model(&models.UserSession{})).Where("closed_at IS NULL").Count(&stats.OpenSessions).Error; err != nil {
		return nil, err
	}

	var pendingValue float64
	err = scoped(db.Model(&models.Purchase{})).
		Select("COUNT(*), COALESCE(SUM(total), 0)").
		Where("status = ?", models.PurchasePending).
		Row().Scan(&stats.PendingPurchases, &pendingValue)
	if err != nil {
		return nil, err
	}
	stats.PendingPurchaseValue = round2(pendingValue)

	if stats.TopProducts, err = topProducts(db, businessID, branchID, now.Add(-topProductsWindow)); err != nil {
		return nil, err
	}

	recent := scoped(db.Preload("Items").Preload("Items.Product")).
		Order("sold_at desc, id desc").
		Limit(recentSalesLimit)
	if err := recent.Find(&stats.RecentSales).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

func topProducts(db *gorm.DB, businessID, branchID uint, since time.Time) ([]TopProduct, error) {
	q := db.Table("sale_items").
		Select("sale_items.product_id, products.name, SUM(sale_items.quantity) AS qty, SUM(sale_items.subtotal)").
		Joins("JOIN sales ON sales.id = sale_items.sale_id").
		Joins("JOIN products ON products.id = sale_items.product_id").
		Where("sales.deleted_at IS NULL AND sales.business_id = ? AND sales.sold_at >= ?", businessID, since.UTC())
	if branchID != 0 {
		q = q.Where("sales.branch_id = ?", branchID)
	}
	rows, err := q.Group("sale_items.product_id, products.name").
		Order("qty desc, sale_items.product_id").
		Limit(topProductsLimit).
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	top := []TopProduct{}
	for rows.Next() {
		var p TopProduct
		if err := rows.Scan(&p.ProductID, &p.Name, &p.Quantity, &p.Revenue); err != nil {
			return nil, err
		}
		p.Revenue = round2(p.Revenue)
		top = append(top, p)
	}
	return top, rows.Err()
}
