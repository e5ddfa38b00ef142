package reports

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jinzhu/gorm"
	"github.com/shopspring/decimal"

	"github.com/marko-code-lab/noiddea-demo-sub002/models"
	"github.com/marko-code-lab/noiddea-demo-sub002/services"
)

const (
	TypeSales          = "sales"
	TypeSessions       = "sessions"
	TypeInventory      = "inventory"
	TypeLowStock       = "low-stock"
	TypePurchases      = "purchases"
	TypeStockMovements = "stock-movements"
)

var ErrUnknownType = errors.New("invalid report type")

// Kind controls how a column is rendered.
type Kind int

const (
	Text Kind = iota
	Integer
	Money
)

type Column struct {
	Title string
	Kind  Kind
	Width float64 // relative width, used by both renderers
}

type SummaryLine struct {
	Label string
	Value interface{}
}

// Report is a renderer-independent table.
type Report struct {
	Type     string
	Title    string
	Currency string
	From     time.Time
	To       time.Time
	Ranged   bool
	Columns  []Column
	Rows     [][]interface{}
	Summary  []SummaryLine
}

type Request struct {
	BusinessID        uint
	Type              string
	From              time.Time
	To                time.Time
	LowStockThreshold int
}

// Ranged reports whether the type is filtered by the date range.
func Ranged(reportType string) bool {
	switch reportType {
	case TypeSales, TypeSessions, TypePurchases, TypeStockMovements:
		return true
	}
	return false
}

// Build loads the data of a report.
func Build(db *gorm.DB, req Request) (*Report, error) {
	business, err := services.GetBusiness(db, req.BusinessID)
	if err != nil {
		return nil, err
	}
	r := &Report{
		Type:     req.Type,
		Currency: business.Currency,
		From:     req.From,
		To:       req.To,
		Ranged:   Ranged(req.Type),
	}
	if r.Ranged && !req.To.IsZero() && req.To.Before(req.From) {
		return nil, fmt.Errorf("end date before start date: %w", services.ErrInvalidInput)
	}

	switch req.Type {
	case TypeSales:
		err = buildSales(db, req, r)
	case TypeSessions:
		err = buildSessions(db, req, r)
	case TypeInventory:
		err = buildInventory(db, req, r)
	case TypeLowStock:
		err = buildLowStock(db, req, r)
	case TypePurchases:
		err = buildPurchases(db, req, r)
	case TypeStockMovements:
		err = buildMovements(db, req, r)
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownType, req.Type)
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Filename is the attachment name for the rendered report.
func Filename(reportType, ext string) string {
	return fmt.Sprintf("%s_report.%s", reportType, strings.TrimPrefix(ext, "."))
}

func buildSales(db *gorm.DB, req Request, r *Report) error {
	sales, err := services.ListSales(db, req.BusinessID, services.SaleFilter{From: req.From, To: req.To})
	if err != nil {
		return err
	}
	r.Title = "Sales Report"
	r.Columns = []Column{
		{"Date", Text, 35}, {"Sale", Text, 20}, {"Product", Text, 60}, {"Quantity", Integer, 22},
		{"Unit Price", Money, 28}, {"Subtotal", Money, 28}, {"Payment", Text, 25},
	}
	var (
		items   int
		total   float64
		methods = map[string]float64{}
	)
	// oldest first reads better on paper
	for i := len(sales) - 1; i >= 0; i-- {
		sale := sales[i]
		for _, item := range sale.Items {
			r.Rows = append(r.Rows, []interface{}{
				sale.SoldAt.Format("2006-01-02 15:04"), fmt.Sprintf("#%d", sale.ID), item.Product.Name,
				item.Quantity, item.UnitPrice, item.Subtotal, sale.PaymentMethod,
			})
			items += item.Quantity
		}
		total += sale.Total
		methods[sale.PaymentMethod] += sale.Total
	}
	r.Summary = []SummaryLine{
		{"Sales", len(sales)},
		{"Total Items Sold", items},
		{"Total Sales", roundMoney(total)},
	}
	for _, method := range []string{models.PaymentCash, models.PaymentCard, models.PaymentTransfer, models.PaymentOther} {
		if v, ok := methods[method]; ok {
			r.Summary = append(r.Summary, SummaryLine{"Paid by " + method, roundMoney(v)})
		}
	}
	return nil
}

func buildSessions(db *gorm.DB, req Request, r *Report) error {
	sessions, err := services.ListSessions(db, req.BusinessID, services.SessionFilter{From: req.From, To: req.To})
	if err != nil {
		return err
	}
	members, err := services.ListMembers(db, req.BusinessID)
	if err != nil {
		return err
	}
	names := make(map[uint]string, len(members))
	for _, m := range members {
		name := m.FullName()
		if name == "" {
			name = m.Email
		}
		names[m.ID] = name
	}

	r.Title = "Cash Sessions Report"
	r.Columns = []Column{
		{"Opened", Text, 32}, {"Closed", Text, 32}, {"User", Text, 40}, {"Sales", Integer, 16},
		{"Opening Cash", Money, 26}, {"Total", Money, 26}, {"Expected Cash", Money, 26}, {"Closing Cash", Money, 26},
	}
	var total float64
	for i := len(sessions) - 1; i >= 0; i-- {
		s := sessions[i]
		closed := "open"
		if s.ClosedAt != nil {
			closed = s.ClosedAt.Format("2006-01-02 15:04")
			if s.ClosedBy == models.ClosedBySystem {
				closed += " (auto)"
			}
		}
		var closing interface{} = ""
		if s.ClosingCash != nil {
			closing = *s.ClosingCash
		}
		r.Rows = append(r.Rows, []interface{}{
			s.OpenedAt.Format("2006-01-02 15:04"), closed, names[s.UserID], s.SalesCount,
			s.OpeningCash, roundMoney(s.Total()), roundMoney(s.ExpectedCash()), closing,
		})
		total += s.Total()
	}
	r.Summary = []SummaryLine{
		{"Sessions", len(sessions)},
		{"Total Sales", roundMoney(total)},
	}
	return nil
}

func buildInventory(db *gorm.DB, req Request, r *Report) error {
	products, err := services.ListProducts(db, req.BusinessID, req.LowStockThreshold, services.ProductFilter{ActiveOnly: true})
	if err != nil {
		return err
	}
	r.Title = "Current Stock Report"
	r.Columns = []Column{
		{"Product", Text, 60}, {"SKU", Text, 30}, {"Stock", Integer, 20},
		{"Cost", Money, 25}, {"Price", Money, 25}, {"Total Value", Money, 30},
	}
	var (
		units int
		value float64
	)
	for _, p := range products {
		line := roundMoney(float64(p.Stock) * p.Price)
		r.Rows = append(r.Rows, []interface{}{p.Name, p.SKU, p.Stock, p.Cost, p.Price, line})
		units += p.Stock
		value += line
	}
	r.Summary = []SummaryLine{
		{"Products", len(products)},
		{"Units in Stock", units},
		{"Total Value", roundMoney(value)},
	}
	return nil
}

func buildLowStock(db *gorm.DB, req Request, r *Report) error {
	products, err := services.LowStockProducts(db, req.BusinessID, req.LowStockThreshold)
	if err != nil {
		return err
	}
	r.Title = "Low Stock Report"
	r.Columns = []Column{
		{"Product", Text, 60}, {"SKU", Text, 30}, {"Stock", Integer, 20},
		{"Minimum", Integer, 20}, {"Price", Money, 25}, {"Total Value", Money, 30},
	}
	for _, p := range products {
		r.Rows = append(r.Rows, []interface{}{
			p.Name, p.SKU, p.Stock, p.LowStockLevel(req.LowStockThreshold), p.Price, roundMoney(float64(p.Stock) * p.Price),
		})
	}
	r.Summary = []SummaryLine{{"Products Below Minimum", len(products)}}
	return nil
}

func buildPurchases(db *gorm.DB, req Request, r *Report) error {
	q := db.Preload("Supplier").Preload("Items").Where("business_id = ?", req.BusinessID)
	if !req.From.IsZero() {
		q = q.Where("created_at >= ?", req.From.UTC())
	}
	if !req.To.IsZero() {
		q = q.Where("created_at <= ?", req.To.UTC())
	}
	var purchases []models.Purchase
	if err := q.Order("created_at, id").Find(&purchases).Error; err != nil {
		return err
	}
	r.Title = "Purchases Report"
	r.Columns = []Column{
		{"Date", Text, 32}, {"Reference", Text, 30}, {"Supplier", Text, 45}, {"Status", Text, 22},
		{"Items", Integer, 16}, {"Total", Money, 28}, {"Received", Text, 32},
	}
	var received, pending float64
	for _, p := range purchases {
		supplier := ""
		if p.Supplier != nil {
			supplier = p.Supplier.Name
		}
		receivedAt := ""
		if p.ReceivedAt != nil {
			receivedAt = p.ReceivedAt.Format("2006-01-02 15:04")
		}
		units := 0
		for _, item := range p.Items {
			units += item.Quantity
		}
		r.Rows = append(r.Rows, []interface{}{
			p.CreatedAt.Format("2006-01-02"), p.Reference, supplier, p.Status, units, p.Total, receivedAt,
		})
		switch p.Status {
		case models.PurchaseReceived:
			received += p.Total
		case models.PurchasePending:
			pending += p.Total
		}
	}
	r.Summary = []SummaryLine{
		{"Purchases", len(purchases)},
		{"Received Value", roundMoney(received)},
		{"Pending Value", roundMoney(pending)},
	}
	return nil
}

func buildMovements(db *gorm.DB, req Request, r *Report) error {
	movements, err := services.ListMovements(db, req.BusinessID, 0, req.From, req.To)
	if err != nil {
		return err
	}
	r.Title = "Stock Movements Report"
	r.Columns = []Column{
		{"Date", Text, 35}, {"Product", Text, 60}, {"Quantity", Integer, 22}, {"Reason", Text, 28}, {"Reference", Text, 45},
	}
	var in, out int
	for _, m := range movements {
		r.Rows = append(r.Rows, []interface{}{
			m.AddedAt.Format("2006-01-02 15:04"), m.Product.Name, m.Quantity, m.Reason, m.Reference,
		})
		if m.Quantity > 0 {
			in += m.Quantity
		} else {
			out -= m.Quantity
		}
	}
	r.Summary = []SummaryLine{
		{"Movements", len(movements)},
		{"Units In", in},
		{"Units Out", out},
	}
	return nil
}

func roundMoney(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
