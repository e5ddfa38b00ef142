package services

import (
	"testing"
	"time"

	"github.com/jinzhu/gorm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marko-code-lab/noiddea-demo-sub002/models"
)

func TestCreateProduct(t *testing.T) {
	db := newTestDB(t)
	owner, _ := seedOwner(t, db)

	product := seedProduct(t, db, owner, "Cola", 2.5, 12)
	assert.True(t, product.Active)

	movements, err := ListMovements(db, owner.BusinessID, product.ID, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, models.MovementInitial, movements[0].Reason)
	assert.Equal(t, 12, movements[0].Quantity)

	_, err = CreateProduct(db, owner, ProductInput{Name: "cola"}, testNow)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = CreateProduct(db, owner, ProductInput{Name: "Chips", Price: -1}, testNow)
	assert.ErrorIs(t, err, ErrInvalidInput)

	inactive := false
	hidden, err := CreateProduct(db, owner, ProductInput{Name: "Old stock", Active: &inactive}, testNow)
	require.NoError(t, err)
	stored, err := GetProduct(db, owner.BusinessID, hidden.ID)
	require.NoError(t, err)
	assert.False(t, stored.Active)
}

func TestUpdateProductRecordsAdjustment(t *testing.T) {
	db := newTestDB(t)
	owner, _ := seedOwner(t, db)
	product := seedProduct(t, db, owner, "Cola", 2.5, 12)

	updated, err := UpdateProduct(db, owner, product.ID, ProductInput{Name: "Cola Zero", Price: 3, Stock: 9}, testNow)
	require.NoError(t, err)
	assert.Equal(t, "Cola Zero", updated.Name)
	assert.Equal(t, 9, updated.Stock)

	movements, err := ListMovements(db, owner.BusinessID, product.ID, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, movements, 2)
	assert.Equal(t, models.MovementAdjustment, movements[1].Reason)
	assert.Equal(t, -3, movements[1].Quantity)
}

func TestUpdateProductKeepsConcurrentSale(t *testing.T) {
	db := newTestDB(t)
	owner, _ := seedOwner(t, db)
	cola := seedProduct(t, db, owner, "Cola", 2.5, 10)

	// a sale of two commits after the edit has read the stock
	sold := false
	db.Callback().Update().Before("gorm:update").Register("test:sale_in_between", func(scope *gorm.Scope) {
		if sold || scope.TableName() != "products" {
			return
		}
		sold = true
		scope.NewDB().Exec("UPDATE products SET stock = stock - 2 WHERE id = ?", cola.ID)
	})

	updated, err := UpdateProduct(db, owner, cola.ID, ProductInput{Name: "Cola", Price: 2.5, Cost: 1.25, Stock: 15}, testNow)
	require.NoError(t, err)
	assert.True(t, sold)
	assert.Equal(t, 13, updated.Stock)

	movements, err := ListMovements(db, owner.BusinessID, cola.ID, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, movements, 2)
	assert.Equal(t, 5, movements[1].Quantity)
}

func TestChangeStockOnDeletedProduct(t *testing.T) {
	db := newTestDB(t)
	owner, _ := seedOwner(t, db)
	cola := seedProduct(t, db, owner, "Cola", 2.5, 3)

	assert.ErrorIs(t, changeStock(db, cola.ID, -4), ErrInsufficientStock)

	require.NoError(t, DeleteProduct(db, owner.BusinessID, cola.ID))
	assert.ErrorIs(t, changeStock(db, cola.ID, 5), ErrNotFound)
	assert.ErrorIs(t, changeStock(db, cola.ID, -1), ErrNotFound)
}

func TestAdjustStock(t *testing.T) {
	db := newTestDB(t)
	owner, _ := seedOwner(t, db)
	product := seedProduct(t, db, owner, "Cola", 2.5, 5)

	updated, err := AdjustStock(db, owner, product.ID, 3, "recount", testNow)
	require.NoError(t, err)
	assert.Equal(t, 8, updated.Stock)

	_, err = AdjustStock(db, owner, product.ID, -9, "breakage", testNow)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	_, err = AdjustStock(db, owner, product.ID, 0, "", testNow)
	assert.ErrorIs(t, err, ErrInvalidInput)

	stored, err := GetProduct(db, owner.BusinessID, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, stored.Stock)
}

func TestLowStockAndValue(t *testing.T) {
	db := newTestDB(t)
	owner, _ := seedOwner(t, db)

	seedProduct(t, db, owner, "Cola", 2, 3)
	seedProduct(t, db, owner, "Water", 1, 50)
	_, err := CreateProduct(db, owner, ProductInput{Name: "Chips", Price: 1.5, Stock: 15, MinStock: 20}, testNow)
	require.NoError(t, err)

	low, err := LowStockProducts(db, owner.BusinessID, 10)
	require.NoError(t, err)
	require.Len(t, low, 2)
	assert.Equal(t, "Chips", low[0].Name)
	assert.Equal(t, "Cola", low[1].Name)

	count, err := CountLowStock(db, owner.BusinessID, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	total, err := CountProducts(db, owner.BusinessID)
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	value, _, err := InventoryValue(db, owner.BusinessID)
	require.NoError(t, err)
	assert.InDelta(t, 2*3+1*50+1.5*15, value, 0.001)

	found, err := ListProducts(db, owner.BusinessID, 10, ProductFilter{Search: "WAT"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Water", found[0].Name)
}

func TestDeleteProduct(t *testing.T) {
	db := newTestDB(t)
	owner, _ := seedOwner(t, db)
	product := seedProduct(t, db, owner, "Cola", 2, 3)

	require.NoError(t, DeleteProduct(db, owner.BusinessID, product.ID))
	_, err := GetProduct(db, owner.BusinessID, product.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, DeleteProduct(db, owner.BusinessID, product.ID), ErrNotFound)
}
