package database_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/javajoker/storefront-backend/internal/database"
	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/testutil"
)

func TestOneCartPerUserIndex(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "cart@example.com")

	require.NoError(t, db.Create(&models.Order{UserID: user.ID, Status: models.OrderStatusCart}).Error)

	err := db.Create(&models.Order{UserID: user.ID, Status: models.OrderStatusCart}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	// Settled orders are not constrained.
	require.NoError(t, db.Create(&models.Order{UserID: user.ID, Status: models.OrderStatusOrdered}).Error)
	require.NoError(t, db.Create(&models.Order{UserID: user.ID, Status: models.OrderStatusShipped}).Error)
}

func TestProductQuantityCheck(t *testing.T) {
	db := testutil.NewDB(t)
	category := testutil.CreateCategory(t, db, "Fruits")
	product := testutil.CreateProduct(t, db, category.ID, "Apples", 1, 1.99, 1)

	err := db.Model(&models.Product{}).Where("id = ?", product.ID).Update("quantity", -1).Error
	assert.Error(t, err)
	assert.Equal(t, 1, testutil.ProductQuantity(t, db, product.ID))
}

func TestOrderItemUniquePerProduct(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "items@example.com")
	category := testutil.CreateCategory(t, db, "Fruits")
	product := testutil.CreateProduct(t, db, category.ID, "Apples", 10, 1.99, 1)
	order := &models.Order{UserID: user.ID, Status: models.OrderStatusCart}
	require.NoError(t, db.Create(order).Error)

	require.NoError(t, db.Create(&models.OrderItem{OrderID: order.ID, ProductID: product.ID, Quantity: 1}).Error)
	err := db.Create(&models.OrderItem{OrderID: order.ID, ProductID: product.ID, Quantity: 2}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	err = db.Create(&models.OrderItem{OrderID: order.ID, ProductID: product.ID, Quantity: 0}).Error
	assert.Error(t, err)
}

func TestSeedInitialDataIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)

	require.NoError(t, database.SeedInitialData(db))
	require.NoError(t, database.SeedInitialData(db))

	var users, categories, products int64
	db.Model(&models.User{}).Count(&users)
	db.Model(&models.Category{}).Count(&categories)
	db.Model(&models.Product{}).Count(&products)

	assert.EqualValues(t, 3, users)
	assert.EqualValues(t, 8, categories)
	assert.EqualValues(t, 8, products)

	var admin models.User
	require.NoError(t, db.Where("email = ?", "jeff.bezos@sjsu.edu").First(&admin).Error)
	assert.True(t, admin.IsSuperuser)
	assert.NoError(t, admin.CheckPassword("superuser"))
}

func TestWithTransactionRollsBack(t *testing.T) {
	db := testutil.NewDB(t)
	boom := errors.New("boom")

	err := database.WithTransaction(db, func(tx *gorm.DB) error {
		testutil.CreateCategory(t, tx, "Grains")
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var count int64
	db.Model(&models.Category{}).Count(&count)
	assert.Zero(t, count)
}
