package services

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marko-code-lab/noiddea-demo-sub002/models"
)

func TestCreatePurchase(t *testing.T) {
	db := newTestDB(t)
	owner, _ := seedOwner(t, db)
	cola := seedProduct(t, db, owner, "Cola", 2.5, 0)
	supplier, err := CreateSupplier(db, owner.BusinessID, SupplierInput{Name: "Acme"})
	require.NoError(t, err)

	purchase, err := CreatePurchase(db, owner, PurchaseInput{
		SupplierID: &supplier.ID,
		Items:      []PurchaseLine{{ProductID: cola.ID, Quantity: 24, UnitCost: 0.85}},
	})
	require.NoError(t, err)
	assert.Equal(t, models.PurchasePending, purchase.Status)
	assert.True(t, strings.HasPrefix(purchase.Reference, "PO-"))
	assert.Len(t, purchase.Reference, 11)
	assert.Equal(t, 20.4, purchase.Total)
	require.NotNil(t, purchase.Supplier)
	assert.Equal(t, "Acme", purchase.Supplier.Name)
	require.Len(t, purchase.Items, 1)
	assert.Equal(t, "Cola", purchase.Items[0].Product.Name)

	_, err = CreatePurchase(db, owner, PurchaseInput{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = CreatePurchase(db, owner, PurchaseInput{Items: []PurchaseLine{{ProductID: 999, Quantity: 1}}})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReceivePurchase(t *testing.T) {
	db := newTestDB(t)
	owner, _ := seedOwner(t, db)
	cola := seedProduct(t, db, owner, "Cola", 2.5, 5)

	purchase, err := CreatePurchase(db, owner, PurchaseInput{
		Reference: "INV-1",
		Items:     []PurchaseLine{{ProductID: cola.ID, Quantity: 10, UnitCost: 0.9}},
	})
	require.NoError(t, err)

	received, err := ReceivePurchase(db, owner.BusinessID, purchase.ID, owner.UserID, testNow)
	require.NoError(t, err)
	assert.Equal(t, models.PurchaseReceived, received.Status)
	assert.Equal(t, owner.UserID, received.ReceivedBy)
	require.NotNil(t, received.ReceivedAt)

	stored, err := GetProduct(db, owner.BusinessID, cola.ID)
	require.NoError(t, err)
	assert.Equal(t, 15, stored.Stock)
	assert.Equal(t, 0.9, stored.Cost)

	movements, err := ListMovements(db, owner.BusinessID, cola.ID, time.Time{}, time.Time{})
	require.NoError(t, err)
	last := movements[len(movements)-1]
	assert.Equal(t, models.MovementPurchase, last.Reason)
	assert.Equal(t, "INV-1", last.Reference)

	_, err = ReceivePurchase(db, owner.BusinessID, purchase.ID, owner.UserID, testNow)
	assert.ErrorIs(t, err, ErrPurchaseNotPending)
	assert.ErrorIs(t, DeletePurchase(db, owner.BusinessID, purchase.ID), ErrPurchaseNotPending)
	_, err = CancelPurchase(db, owner.BusinessID, purchase.ID)
	assert.ErrorIs(t, err, ErrPurchaseNotPending)
}

func TestUpdateCancelDeletePurchase(t *testing.T) {
	db := newTestDB(t)
	owner, _ := seedOwner(t, db)
	cola := seedProduct(t, db, owner, "Cola", 2.5, 5)
	water := seedProduct(t, db, owner, "Water", 1, 5)

	purchase, err := CreatePurchase(db, owner, PurchaseInput{Items: []PurchaseLine{{ProductID: cola.ID, Quantity: 1, UnitCost: 1}}})
	require.NoError(t, err)

	updated, err := UpdatePurchase(db, owner, purchase.ID, PurchaseInput{
		Notes: "swap",
		Items: []PurchaseLine{{ProductID: water.ID, Quantity: 6, UnitCost: 0.5}, {ProductID: cola.ID, Quantity: 2, UnitCost: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, purchase.Reference, updated.Reference)
	assert.Equal(t, 5.0, updated.Total)
	assert.Len(t, updated.Items, 2)

	cancelled, err := CancelPurchase(db, owner.BusinessID, purchase.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PurchaseCancelled, cancelled.Status)

	_, err = UpdatePurchase(db, owner, purchase.ID, PurchaseInput{Items: []PurchaseLine{{ProductID: cola.ID, Quantity: 1}}})
	assert.ErrorIs(t, err, ErrPurchaseNotPending)

	require.NoError(t, DeletePurchase(db, owner.BusinessID, purchase.ID))
	_, err = GetPurchase(db, owner.BusinessID, purchase.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAutoReceiveDue(t *testing.T) {
	db := newTestDB(t)
	owner, _ := seedOwner(t, db)
	cola := seedProduct(t, db, owner, "Cola", 2.5, 0)

	past := testNow.Add(-time.Hour)
	future := testNow.Add(time.Hour)
	due, err := CreatePurchase(db, owner, PurchaseInput{
		ExpectedAt: &past, AutoReceive: true,
		Items: []PurchaseLine{{ProductID: cola.ID, Quantity: 3, UnitCost: 1}},
	})
	require.NoError(t, err)
	_, err = CreatePurchase(db, owner, PurchaseInput{
		ExpectedAt: &future, AutoReceive: true,
		Items: []PurchaseLine{{ProductID: cola.ID, Quantity: 5, UnitCost: 1}},
	})
	require.NoError(t, err)
	_, err = CreatePurchase(db, owner, PurchaseInput{
		ExpectedAt: &past,
		Items:      []PurchaseLine{{ProductID: cola.ID, Quantity: 7, UnitCost: 1}},
	})
	require.NoError(t, err)

	received, cancelled, err := AutoReceiveDue(db, testNow)
	require.NoError(t, err)
	assert.Equal(t, []uint{due.ID}, received)
	assert.Empty(t, cancelled)

	stored, err := GetPurchase(db, owner.BusinessID, due.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PurchaseReceived, stored.Status)
	assert.Zero(t, stored.ReceivedBy)

	product, err := GetProduct(db, owner.BusinessID, cola.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, product.Stock)

	again, _, err := AutoReceiveDue(db, testNow)
	require.NoError(t, err)
	assert.Empty(t, again)

	pending, err := ListPurchases(db, owner.BusinessID, models.PurchasePending)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

func TestReceivePurchaseOfDeletedProduct(t *testing.T) {
	db := newTestDB(t)
	owner, _ := seedOwner(t, db)
	cola := seedProduct(t, db, owner, "Cola", 2.5, 0)
	chips := seedProduct(t, db, owner, "Chips", 1, 0)

	past := testNow.Add(-time.Hour)
	manual, err := CreatePurchase(db, owner, PurchaseInput{
		Items: []PurchaseLine{{ProductID: cola.ID, Quantity: 4, UnitCost: 1}},
	})
	require.NoError(t, err)
	auto, err := CreatePurchase(db, owner, PurchaseInput{
		ExpectedAt: &past, AutoReceive: true,
		Items: []PurchaseLine{{ProductID: cola.ID, Quantity: 3, UnitCost: 1}},
	})
	require.NoError(t, err)
	healthy, err := CreatePurchase(db, owner, PurchaseInput{
		ExpectedAt: &past, AutoReceive: true,
		Items: []PurchaseLine{{ProductID: chips.ID, Quantity: 6, UnitCost: 0.5}},
	})
	require.NoError(t, err)

	require.NoError(t, DeleteProduct(db, owner.BusinessID, cola.ID))

	_, err = ReceivePurchase(db, owner.BusinessID, manual.ID, owner.UserID, testNow)
	assert.ErrorIs(t, err, ErrNotFound)
	stored, err := GetPurchase(db, owner.BusinessID, manual.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PurchasePending, stored.Status)

	received, cancelled, err := AutoReceiveDue(db, testNow)
	require.NoError(t, err)
	assert.Equal(t, []uint{healthy.ID}, received)
	assert.Equal(t, []uint{auto.ID}, cancelled)

	stored, err = GetPurchase(db, owner.BusinessID, auto.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PurchaseCancelled, stored.Status)

	received, cancelled, err = AutoReceiveDue(db, testNow)
	require.NoError(t, err)
	assert.Empty(t, received)
	assert.Empty(t, cancelled)
}
