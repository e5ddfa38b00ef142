package reports

import (
	"bytes"
	"testing"
	"time"

	"github.com/jinzhu/gorm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/marko-code-lab/noiddea-demo-sub002/auth"
	"github.com/marko-code-lab/noiddea-demo-sub002/config"
	"github.com/marko-code-lab/noiddea-demo-sub002/database"
	"github.com/marko-code-lab/noiddea-demo-sub002/services"
)

var day = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func seed(t *testing.T) (*gorm.DB, services.Actor) {
	t.Helper()
	auth.Cost = bcrypt.MinCost
	db, err := database.Open(config.DatabaseConfig{Type: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { db.Close() })

	user, business, err := services.RegisterOwner(db, services.RegisterInput{
		FirstName: "Ana", Email: "owner@example.com", Password: "secret123", BusinessName: "Shop", Currency: "KES",
	})
	require.NoError(t, err)
	owner := services.Actor{UserID: user.ID, BusinessID: business.ID, BranchID: user.BranchID, Role: user.Role}

	cola, err := services.CreateProduct(db, owner, services.ProductInput{Name: "Cola", SKU: "C-1", Price: 2.5, Cost: 1, Stock: 20}, day)
	require.NoError(t, err)
	chips, err := services.CreateProduct(db, owner, services.ProductInput{Name: "Chips", Price: 1.25, Stock: 3}, day)
	require.NoError(t, err)

	_, _, err = services.OpenSession(db, owner, 10, 0, day)
	require.NoError(t, err)
	_, err = services.CreateSale(db, owner, services.SaleInput{
		Items: []services.SaleLine{{ProductID: cola.ID, Quantity: 2}, {ProductID: chips.ID, Quantity: 1}},
	}, day.Add(time.Hour))
	require.NoError(t, err)
	_, err = services.CreateSale(db, owner, services.SaleInput{
		PaymentMethod: "card",
		Items:         []services.SaleLine{{ProductID: cola.ID, Quantity: 1}},
	}, day.Add(2*time.Hour))
	require.NoError(t, err)
	return db, owner
}

func summary(r *Report) map[string]interface{} {
	out := map[string]interface{}{}
	for _, line := range r.Summary {
		out[line.Label] = line.Value
	}
	return out
}

func TestBuildSales(t *testing.T) {
	db, owner := seed(t)

	r, err := Build(db, Request{BusinessID: owner.BusinessID, Type: TypeSales, From: day, To: day.Add(24 * time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, "Sales Report", r.Title)
	assert.Equal(t, "KES", r.Currency)
	assert.True(t, r.Ranged)
	require.Len(t, r.Rows, 3)
	assert.Equal(t, "Cola", r.Rows[0][2])
	assert.Equal(t, "card", r.Rows[2][6])

	s := summary(r)
	assert.Equal(t, 2, s["Sales"])
	assert.Equal(t, 4, s["Total Items Sold"])
	assert.Equal(t, 8.75, s["Total Sales"])
	assert.Equal(t, 6.25, s["Paid by cash"])

	empty, err := Build(db, Request{BusinessID: owner.BusinessID, Type: TypeSales, From: day.Add(48 * time.Hour)})
	require.NoError(t, err)
	assert.Empty(t, empty.Rows)
}

func TestBuildStockReports(t *testing.T) {
	db, owner := seed(t)

	inventory, err := Build(db, Request{BusinessID: owner.BusinessID, Type: TypeInventory, LowStockThreshold: 5})
	require.NoError(t, err)
	assert.False(t, inventory.Ranged)
	require.Len(t, inventory.Rows, 2)
	assert.Equal(t, 19, summary(inventory)["Units in Stock"])

	low, err := Build(db, Request{BusinessID: owner.BusinessID, Type: TypeLowStock, LowStockThreshold: 5})
	require.NoError(t, err)
	require.Len(t, low.Rows, 1)
	assert.Equal(t, "Chips", low.Rows[0][0])
	assert.Equal(t, 5, low.Rows[0][3])

	movements, err := Build(db, Request{BusinessID: owner.BusinessID, Type: TypeStockMovements})
	require.NoError(t, err)
	assert.Len(t, movements.Rows, 5)
	assert.Equal(t, 23, summary(movements)["Units In"])
	assert.Equal(t, 4, summary(movements)["Units Out"])
}

func TestBuildSessionsAndPurchases(t *testing.T) {
	db, owner := seed(t)

	sessions, err := Build(db, Request{BusinessID: owner.BusinessID, Type: TypeSessions})
	require.NoError(t, err)
	require.Len(t, sessions.Rows, 1)
	assert.Equal(t, "open", sessions.Rows[0][1])
	assert.Equal(t, "Ana", sessions.Rows[0][2])

	purchases, err := Build(db, Request{BusinessID: owner.BusinessID, Type: TypePurchases})
	require.NoError(t, err)
	assert.Empty(t, purchases.Rows)
}

func TestBuildRejectsBadInput(t *testing.T) {
	db, owner := seed(t)

	_, err := Build(db, Request{BusinessID: owner.BusinessID, Type: "profit"})
	assert.ErrorIs(t, err, ErrUnknownType)

	_, err = Build(db, Request{BusinessID: owner.BusinessID, Type: TypeSales, From: day, To: day.Add(-time.Hour)})
	assert.ErrorIs(t, err, services.ErrInvalidInput)
}

func TestWriteXLSX(t *testing.T) {
	db, owner := seed(t)
	r, err := Build(db, Request{BusinessID: owner.BusinessID, Type: TypeSales})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, r))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{reportSheet, summarySheet}, f.GetSheetList())
	title, err := f.GetCellValue(reportSheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Sales Report", title)
	header, err := f.GetCellValue(reportSheet, "C4")
	require.NoError(t, err)
	assert.Equal(t, "Product", header)

	qty, err := f.GetCellType(reportSheet, "D5")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeSharedString, qty)

	label, err := f.GetCellValue(summarySheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Sales", label)
}

func TestWritePDF(t *testing.T) {
	db, owner := seed(t)
	for _, typ := range []string{TypeSales, TypeSessions, TypeInventory, TypeLowStock, TypePurchases, TypeStockMovements} {
		r, err := Build(db, Request{BusinessID: owner.BusinessID, Type: typ, LowStockThreshold: 5})
		require.NoError(t, err, typ)

		var buf bytes.Buffer
		require.NoError(t, WritePDF(&buf, r), typ)
		assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")), typ)
	}
}

func TestWritePDFEncodesAccents(t *testing.T) {
	compressPDF = false
	defer func() { compressPDF = true }()

	r := &Report{
		Title:    "Inventario",
		Currency: "EUR",
		Columns:  []Column{{Title: "Producto", Kind: Text, Width: 3}, {Title: "Stock", Kind: Integer, Width: 1}},
		Rows:     [][]interface{}{{"Azúcar morena", 4}, {"Piñas", 2}},
	}
	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, r))

	out := buf.Bytes()
	assert.True(t, bytes.Contains(out, []byte("Az\xfacar morena")), "cp1252 ú")
	assert.True(t, bytes.Contains(out, []byte("Pi\xf1as")), "cp1252 ñ")
	assert.False(t, bytes.Contains(out, []byte("Az\xc3\xba")), "raw utf-8 bytes")
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "sales_report.xlsx", Filename(TypeSales, ".xlsx"))
	assert.Equal(t, "low-stock_report.pdf", Filename(TypeLowStock, "pdf"))
}
