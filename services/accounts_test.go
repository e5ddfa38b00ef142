package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marko-code-lab/noiddea-demo-sub002/models"
)

func TestRegisterOwner(t *testing.T) {
	db := newTestDB(t)

	user, business, err := RegisterOwner(db, RegisterInput{
		Email:        "  Owner@Example.com ",
		Password:     "secret123",
		BusinessName: "Corner Shop",
		Currency:     "eur",
	})
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", user.Email)
	assert.Equal(t, models.RoleOwner, user.Role)
	assert.True(t, user.Active)
	assert.Equal(t, "EUR", business.Currency)

	stored, err := GetBusiness(db, business.ID)
	require.NoError(t, err)
	require.Len(t, stored.Branches, 1)
	assert.True(t, stored.Branches[0].IsMain)
	assert.Equal(t, "Main", stored.Branches[0].Name)
	assert.Equal(t, stored.Branches[0].ID, user.BranchID)

	t.Run("duplicate email", func(t *testing.T) {
		_, _, err := RegisterOwner(db, RegisterInput{Email: "owner@example.com", Password: "secret123", BusinessName: "Other"})
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("short password", func(t *testing.T) {
		_, _, err := RegisterOwner(db, RegisterInput{Email: "x@example.com", Password: "123", BusinessName: "Other"})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestAuthenticate(t *testing.T) {
	db := newTestDB(t)
	owner, _ := seedOwner(t, db)

	user, err := Authenticate(db, "OWNER@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, owner.UserID, user.ID)

	_, err = Authenticate(db, "owner@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = Authenticate(db, "nobody@example.com", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	cashier := seedCashier(t, db, owner, "cashier@example.com")
	inactive := false
	_, err = UpdateMember(db, owner, cashier.UserID, MemberUpdate{Active: &inactive})
	require.NoError(t, err)
	_, err = Authenticate(db, "cashier@example.com", "secret123")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestChangePassword(t *testing.T) {
	db := newTestDB(t)
	owner, _ := seedOwner(t, db)

	assert.ErrorIs(t, ChangePassword(db, owner.UserID, "wrong", "newsecret"), ErrInvalidCredentials)
	assert.ErrorIs(t, ChangePassword(db, owner.UserID, "secret123", "abc"), ErrInvalidInput)
	require.NoError(t, ChangePassword(db, owner.UserID, "secret123", "newsecret"))

	_, err := Authenticate(db, "owner@example.com", "newsecret")
	assert.NoError(t, err)
}
