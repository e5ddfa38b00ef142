package services

import (
	"testing"
	"time"

	"github.com/jinzhu/gorm"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/marko-code-lab/noiddea-demo-sub002/auth"
	"github.com/marko-code-lab/noiddea-demo-sub002/config"
	"github.com/marko-code-lab/noiddea-demo-sub002/database"
	"github.com/marko-code-lab/noiddea-demo-sub002/models"
)

var testNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	auth.Cost = bcrypt.MinCost

	db, err := database.Open(config.DatabaseConfig{Type: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { db.Close() })
	return db
}

// seedOwner registers a business and returns its owner as an actor.
func seedOwner(t *testing.T, db *gorm.DB) (Actor, *models.Business) {
	t.Helper()
	user, business, err := RegisterOwner(db, RegisterInput{
		FirstName:    "Ana",
		Email:        "owner@example.com",
		Password:     "secret123",
		BusinessName: "Corner Shop",
	})
	require.NoError(t, err)
	return Actor{UserID: user.ID, BusinessID: business.ID, BranchID: user.BranchID, Role: user.Role}, business
}

func seedCashier(t *testing.T, db *gorm.DB, owner Actor, email string) Actor {
	t.Helper()
	user, err := CreateMember(db, owner, MemberInput{Email: email, Password: "secret123"})
	require.NoError(t, err)
	return Actor{UserID: user.ID, BusinessID: user.BusinessID, BranchID: user.BranchID, Role: user.Role}
}

func seedProduct(t *testing.T, db *gorm.DB, owner Actor, name string, price float64, stock int) *models.Product {
	t.Helper()
	product, err := CreateProduct(db, owner, ProductInput{Name: name, Price: price, Cost: price / 2, Stock: stock}, testNow)
	require.NoError(t, err)
	return product
}
