package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategories(t *testing.T) {
	db := newTestDB(t)
	owner, _ := seedOwner(t, db)

	drinks, err := CreateCategory(db, owner.BusinessID, " Drinks ")
	require.NoError(t, err)
	assert.Equal(t, "Drinks", drinks.Name)

	_, err = CreateCategory(db, owner.BusinessID, "drinks")
	assert.ErrorIs(t, err, ErrConflict)
	_, err = CreateCategory(db, owner.BusinessID, "x")
	assert.ErrorIs(t, err, ErrInvalidInput)

	renamed, err := RenameCategory(db, owner.BusinessID, drinks.ID, "Beverages")
	require.NoError(t, err)
	assert.Equal(t, "Beverages", renamed.Name)

	_, err = CreateProduct(db, owner, ProductInput{Name: "Cola", Price: 1.5, CategoryID: &drinks.ID}, testNow)
	require.NoError(t, err)
	assert.ErrorIs(t, DeleteCategory(db, owner.BusinessID, drinks.ID), ErrConflict)

	empty, err := CreateCategory(db, owner.BusinessID, "Snacks")
	require.NoError(t, err)
	require.NoError(t, DeleteCategory(db, owner.BusinessID, empty.ID))

	categories, err := ListCategories(db, owner.BusinessID)
	require.NoError(t, err)
	assert.Len(t, categories, 1)
}

func TestBranches(t *testing.T) {
	db := newTestDB(t)
	owner, _ := seedOwner(t, db)

	assert.ErrorIs(t, DeleteBranch(db, owner.BusinessID, owner.BranchID), ErrConflict)

	north, err := CreateBranch(db, owner.BusinessID, BranchInput{Name: "North"})
	require.NoError(t, err)
	_, err = CreateBranch(db, owner.BusinessID, BranchInput{Name: "north"})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = CreateMember(db, owner, MemberInput{Email: "n@example.com", Password: "secret123", BranchID: north.ID})
	require.NoError(t, err)
	assert.ErrorIs(t, DeleteBranch(db, owner.BusinessID, north.ID), ErrConflict)

	south, err := CreateBranch(db, owner.BusinessID, BranchInput{Name: "South"})
	require.NoError(t, err)
	updated, err := UpdateBranch(db, owner.BusinessID, south.ID, BranchInput{Name: "South Side", Phone: "555"})
	require.NoError(t, err)
	assert.Equal(t, "South Side", updated.Name)
	require.NoError(t, DeleteBranch(db, owner.BusinessID, south.ID))

	branches, err := ListBranches(db, owner.BusinessID)
	require.NoError(t, err)
	require.Len(t, branches, 2)
	assert.True(t, branches[0].IsMain)
}

func TestSuppliers(t *testing.T) {
	db := newTestDB(t)
	owner, _ := seedOwner(t, db)

	supplier, err := CreateSupplier(db, owner.BusinessID, SupplierInput{Name: "Acme", Email: " Sales@Acme.com"})
	require.NoError(t, err)
	assert.Equal(t, "sales@acme.com", supplier.Email)

	_, err = CreateSupplier(db, owner.BusinessID, SupplierInput{Name: "ACME"})
	assert.ErrorIs(t, err, ErrConflict)

	updated, err := UpdateSupplier(db, owner.BusinessID, supplier.ID, SupplierInput{Name: "Acme Ltd", Contact: "Joe"})
	require.NoError(t, err)
	assert.Equal(t, "Joe", updated.Contact)

	require.NoError(t, DeleteSupplier(db, owner.BusinessID, supplier.ID))
	_, err = GetSupplier(db, owner.BusinessID, supplier.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
