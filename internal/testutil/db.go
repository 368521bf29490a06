// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/database"
	"github.com/example/storefront/internal/models"
)

// NewDB returns a migrated in-memory SQLite database closed at test cleanup.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	conn, err := database.Open("sqlite", ":memory:", "silent")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(conn))

	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}

// CreateUser inserts a user with the given username and role.
func CreateUser(t testing.TB, db *gorm.DB, username string, role models.Role) *models.User {
	t.Helper()

	user := &models.User{
		Username:     username,
		PasswordHash: "x",
		Email:        username + "@example.com",
		FullName:     username + " Doe",
		Address:      "1 " + username + " street",
		Role:         role,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateProduct inserts an active product with the given name and price.
func CreateProduct(t testing.TB, db *gorm.DB, name, price string, categoryID *uint) *models.Product {
	t.Helper()

	product := &models.Product{
		Name:       name,
		Price:      decimal.RequireFromString(price),
		Image:      name + ".jpg",
		Stock:      10,
		CategoryID: categoryID,
		Status:     models.ProductActive,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

// CreateOrder inserts an order with one item per product at the product's current price.
func CreateOrder(t testing.TB, db *gorm.DB, user *models.User, status models.OrderStatus, products ...*models.Product) *models.Order {
	t.Helper()

	order := &models.Order{
		UserID:      user.ID,
		UserName:    user.Username,
		Address:     user.Address,
		PhoneNumber: "555-0100",
		Status:      status,
	}
	total := decimal.Zero
	for _, p := range products {
		order.Items = append(order.Items, models.OrderItem{ProductID: p.ID, Quantity: 1, Price: p.Price})
		total = total.Add(p.Price)
	}
	order.TotalPrice = total
	require.NoError(t, db.Create(order).Error)
	return order
}
