// internal/database/connection.go
package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/javajoker/storefront-backend/internal/config"
	"github.com/javajoker/storefront-backend/internal/models"
)

var DB *gorm.DB

// GormConfig builds the gorm settings shared by the server, the manage CLI and tests.
func GormConfig(logLevel string) *gorm.Config {
	level := logger.Warn
	switch logLevel {
	case "silent":
		level = logger.Silent
	case "error":
		level = logger.Error
	case "info":
		level = logger.Info
	}

	return &gorm.Config{
		Logger: logger.New(logrus.StandardLogger(), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
		TranslateError: true,
	}
}

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var err error

	// Connect to database
	DB, err = gorm.Open(postgres.Open(cfg.DSN()), GormConfig(cfg.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.Info("Database connection established successfully")
	return DB, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		logrus.WithError(err).Error("Error getting underlying sql.DB")
		return
	}

	if err := sqlDB.Close(); err != nil {
		logrus.WithError(err).Error("Error closing database connection")
	} else {
		logrus.Info("Database connection closed successfully")
	}
}

func RunMigrations(db *gorm.DB) error {
	logrus.Info("Running database migrations...")

	if db.Dialector.Name() == "postgres" {
		// Enable UUID extension
		if err := db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error; err != nil {
			return fmt.Errorf("failed to create UUID extension: %w", err)
		}
	}

	// Run auto-migrations
	err := db.AutoMigrate(
		&models.User{},
		&models.Address{},
		&models.Category{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.WebhookEvent{},
		&models.AuditLog{},
	)

	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// At most one live cart per user. Correctness depends on it, so it is not best effort.
	if err := db.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_one_cart_per_user ON orders(user_id) WHERE status = 'cart'",
	).Error; err != nil {
		return fmt.Errorf("failed to create cart uniqueness index: %w", err)
	}

	// Create indexes
	createIndexes(db)

	logrus.Info("Database migrations completed successfully")
	return nil
}

func createIndexes(db *gorm.DB) {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_orders_user_status_updated ON orders(user_id, status, updated_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_products_category_name ON products(category_id, name)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_user_action ON audit_logs(user_id, action)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_created ON audit_logs(created_at DESC)",
	}

	if db.Dialector.Name() == "postgres" {
		// Full-text search indexes
		indexes = append(indexes,
			"CREATE INDEX IF NOT EXISTS idx_products_search ON products USING GIN(to_tsvector('english', name || ' ' || description))",
		)
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			// Continue with other indexes instead of failing completely
			logrus.WithError(err).WithField("index", index).Warn("Failed to create index")
		}
	}
}

type seedUser struct {
	firstname, lastname, email, password string
	superuser, employee                  bool
}

type seedProduct struct {
	name, description string
	quantity          int
	price, weight     float64
}

var (
	seedUsers = []seedUser{
		{"Jeff", "Bezos", "jeff.bezos@sjsu.edu", "superuser", true, false},
		{"Amy", "Dyken", "amy.dyken@sjsu.edu", "employee", false, true},
		{"Morgan", "Freemen", "morgan.freemen@sjsu.edu", "customer", false, false},
	}

	seedCategories = []models.Category{
		{Name: "Vegetables", Description: "Fresh vegetables from local farms"},
		{Name: "Fruits", Description: "Fresh fruits from local farms"},
		{Name: "Meats", Description: "Fresh meats from local farms"},
		{Name: "Grains", Description: "Fresh grains from local farms"},
		{Name: "Eggs & Dairy", Description: "Fresh eggs & dairy from local farms"},
		{Name: "Nuts & Seeds", Description: "Fresh nuts & seeds from local farms"},
		{Name: "Spices & Herbs", Description: "Fresh spices and herbs from local farms"},
		{Name: "Supplements", Description: "Fresh supplements from local farms"},
	}

	seedFruits = []seedProduct{
		{"Apples", "Fresh apples from local farms", 20, 1.99, 1},
		{"Oranges", "Fresh oranges from local farms", 20, 1.99, 1},
		{"Peaches", "Fresh peaches from local farms", 20, 1.99, 1},
		{"Strawberries", "Fresh strawberries from local farms", 20, 1.99, 0.5},
		{"Apricots", "Fresh apricots from local farms", 20, 1.99, 0.5},
		{"Bananas", "Fresh bananas from local farms", 20, 1.99, 1.5},
		{"Black Berries", "Fresh black berries from local farms", 20, 1.99, 0.5},
		{"Raspberries", "Fresh raspberries from local farms", 20, 1.99, 0.5},
	}
)

// Seed initial data
func SeedInitialData(db *gorm.DB) error {
	logrus.Info("Seeding initial data...")

	return WithTransaction(db, func(tx *gorm.DB) error {
		for _, su := range seedUsers {
			var count int64
			tx.Model(&models.User{}).Where("email = ?", su.email).Count(&count)
			if count > 0 {
				continue
			}

			user := &models.User{
				Firstname:   su.firstname,
				Lastname:    su.lastname,
				Email:       su.email,
				IsSuperuser: su.superuser,
				IsEmployee:  su.employee,
			}
			if err := user.SetPassword(su.password); err != nil {
				return fmt.Errorf("failed to set password for %s: %w", su.email, err)
			}
			if err := tx.Create(user).Error; err != nil {
				return fmt.Errorf("failed to create user %s: %w", su.email, err)
			}
			logrus.WithField("email", su.email).Info("Seed user created")
		}

		for _, c := range seedCategories {
			category := c
			category.Slug = models.Slugify(category.Name)
			if err := tx.Where("slug = ?", category.Slug).FirstOrCreate(&category).Error; err != nil {
				return fmt.Errorf("failed to create category %s: %w", category.Name, err)
			}
		}

		var fruits models.Category
		if err := tx.Where("slug = ?", models.Slugify("Fruits")).First(&fruits).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("failed to load fruits category: %w", err)
		}

		for _, sp := range seedFruits {
			product := models.Product{
				CategoryID:  fruits.ID,
				Slug:        models.Slugify(sp.name),
				Name:        sp.name,
				Description: sp.description,
				Quantity:    sp.quantity,
				Price:       sp.price,
				Weight:      sp.weight,
			}
			if err := tx.Where("slug = ?", product.Slug).FirstOrCreate(&product).Error; err != nil {
				return fmt.Errorf("failed to create product %s: %w", sp.name, err)
			}
		}

		logrus.Info("Initial data seeding completed")
		return nil
	})
}

// Transaction helper
func WithTransaction(db *gorm.DB, fn func(*gorm.DB) error) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
