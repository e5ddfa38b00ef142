package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marko-code-lab/noiddea-demo-sub002/models"
)

func TestCreateSale(t *testing.T) {
	db := newTestDB(t)
	owner, _ := seedOwner(t, db)
	cashier := seedCashier(t, db, owner, "cashier@example.com")
	cola := seedProduct(t, db, owner, "Cola", 2.5, 10)
	chips := seedProduct(t, db, owner, "Chips", 1.2, 4)

	session, _, err := OpenSession(db, cashier, 20, 0, testNow)
	require.NoError(t, err)

	sale, err := CreateSale(db, cashier, SaleInput{
		PaymentMethod: models.PaymentCard,
		Items:         []SaleLine{{ProductID: cola.ID, Quantity: 3}, {ProductID: chips.ID, Quantity: 1}},
	}, testNow)
	require.NoError(t, err)
	assert.Equal(t, 8.7, sale.Total)
	assert.Equal(t, session.ID, sale.SessionID)
	require.Len(t, sale.Items, 2)

	stored, err := GetProduct(db, owner.BusinessID, cola.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, stored.Stock)

	shift, err := GetSession(db, owner.BusinessID, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 8.7, shift.CardTotal)
	assert.Equal(t, 1, shift.SalesCount)

	movements, err := ListMovements(db, owner.BusinessID, chips.ID, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, movements, 2)
	assert.Equal(t, models.MovementSale, movements[1].Reason)
	assert.Equal(t, -1, movements[1].Quantity)
}

func TestCreateSaleRollsBackOnShortStock(t *testing.T) {
	db := newTestDB(t)
	owner, _ := seedOwner(t, db)
	cola := seedProduct(t, db, owner, "Cola", 2.5, 10)
	chips := seedProduct(t, db, owner, "Chips", 1.2, 1)

	session, _, err := OpenSession(db, owner, 0, 0, testNow)
	require.NoError(t, err)

	_, err = CreateSale(db, owner, SaleInput{
		Items: []SaleLine{{ProductID: cola.ID, Quantity: 2}, {ProductID: chips.ID, Quantity: 5}},
	}, testNow)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	stored, err := GetProduct(db, owner.BusinessID, cola.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, stored.Stock)

	sales, err := ListSales(db, owner.BusinessID, SaleFilter{})
	require.NoError(t, err)
	assert.Empty(t, sales)

	shift, err := GetSession(db, owner.BusinessID, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, shift.SalesCount)
}

func TestCreateSaleNeedsOpenSession(t *testing.T) {
	db := newTestDB(t)
	owner, _ := seedOwner(t, db)
	cola := seedProduct(t, db, owner, "Cola", 2.5, 10)
	in := SaleInput{Items: []SaleLine{{ProductID: cola.ID, Quantity: 1}}}

	_, err := CreateSale(db, owner, in, testNow)
	assert.ErrorIs(t, err, ErrNoOpenSession)

	_, _, err = OpenSession(db, owner, 0, time.Hour, testNow)
	require.NoError(t, err)
	_, err = CreateSale(db, owner, in, testNow.Add(2*time.Hour))
	assert.ErrorIs(t, err, ErrSessionClosed)

	_, err = CreateSale(db, owner, SaleInput{PaymentMethod: "cheque", Items: in.Items}, testNow)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRecentSales(t *testing.T) {
	db := newTestDB(t)
	owner, _ := seedOwner(t, db)
	cola := seedProduct(t, db, owner, "Cola", 1, 100)
	_, _, err := OpenSession(db, owner, 0, 0, testNow)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		_, err := CreateSale(db, owner, SaleInput{Items: []SaleLine{{ProductID: cola.ID, Quantity: i + 1}}}, testNow.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}

	recent, err := RecentSales(db, owner.BusinessID, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, 4.0, recent[0].Total)
	assert.Equal(t, "Cola", recent[0].Items[0].Product.Name)

	ranged, err := ListSales(db, owner.BusinessID, SaleFilter{From: testNow.Add(90 * time.Second)})
	require.NoError(t, err)
	assert.Len(t, ranged, 2)
}
