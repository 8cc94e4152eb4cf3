// internal/testutil/db.go
package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/javajoker/storefront-backend/internal/database"
	"github.com/javajoker/storefront-backend/internal/models"
)

// NewDB opens a private in-memory SQLite database with the production schema applied.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared&_busy_timeout=5000", name, uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), database.GormConfig("silent"))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection serializes access the way row locks would on PostgreSQL.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.RunMigrations(db))

	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func CreateUser(t *testing.T, db *gorm.DB, email string, mutate ...func(*models.User)) *models.User {
	t.Helper()

	user := &models.User{Firstname: "Test", Lastname: "User", Email: email}
	require.NoError(t, user.SetPassword("password123"))
	for _, m := range mutate {
		m(user)
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func CreateCategory(t *testing.T, db *gorm.DB, name string) *models.Category {
	t.Helper()

	category := &models.Category{Name: name, Slug: models.Slugify(name)}
	require.NoError(t, db.Create(category).Error)
	return category
}

func CreateProduct(t *testing.T, db *gorm.DB, categoryID uuid.UUID, name string, quantity int, price, weight float64) *models.Product {
	t.Helper()

	product := &models.Product{
		CategoryID:  categoryID,
		Name:        name,
		Slug:        models.Slugify(name),
		Description: name + " description",
		Quantity:    quantity,
		Price:       price,
		Weight:      weight,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func ProductQuantity(t *testing.T, db *gorm.DB, productID uuid.UUID) int {
	t.Helper()

	var product models.Product
	require.NoError(t, db.First(&product, "id = ?", productID).Error)
	return product.Quantity
}
