// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/your-org/food-ordering-backend/internal/domain/cart"
	"github.com/your-org/food-ordering-backend/internal/domain/discount"
	"github.com/your-org/food-ordering-backend/internal/domain/order"
	"github.com/your-org/food-ordering-backend/internal/domain/pricing"
	"github.com/your-org/food-ordering-backend/internal/domain/product"
	"github.com/your-org/food-ordering-backend/internal/domain/user"
)

// Migration handles database migrations
type Migration struct {
	db *gorm.DB
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB) *Migration {
	return &Migration{
		db: db,
	}
}

// Models lists every persisted model in dependency order
func Models() []interface{} {
	return []interface{}{
		// User domain
		&user.User{},
		&user.Address{},

		// Catalog
		&product.Category{},
		&product.Product{},
		&product.ProductImage{},
		&product.Review{},

		&discount.Discount{},

		// Cart domain
		&cart.Cart{},
		&cart.CartItem{},

		// Order domain
		&order.Order{},
		&order.OrderItem{},
		&order.OrderStatusHistory{},
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	logrus.Info("Running database auto-migrations")

	for _, model := range Models() {
		logrus.Debugf("Migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	logrus.Info("Database auto-migrations completed")
	return nil
}

// CreateIndexes creates indexes that struct tags cannot express
func (m *Migration) CreateIndexes() error {
	indexes := []string{
		// One default address per user
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_addresses_user_default ON addresses(user_id) WHERE is_default",

		"CREATE INDEX IF NOT EXISTS idx_orders_user_created ON orders(user_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_status_created ON orders(status, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_order_status_history_order ON order_status_history(order_id, created_at)",

		"CREATE INDEX IF NOT EXISTS idx_products_category_available ON products(category_id, is_available)",
		"CREATE INDEX IF NOT EXISTS idx_reviews_product_approved ON reviews(product_id, is_approved)",
		"CREATE INDEX IF NOT EXISTS idx_categories_active_order ON categories(is_active, display_order)",
		"CREATE INDEX IF NOT EXISTS idx_discounts_active_window ON discounts(is_active, start_date, expire_date)",
	}

	failed := 0
	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			logrus.WithError(err).WithField("sql", indexSQL).Warn("Failed to create index")
			failed++
		}
	}

	logrus.WithFields(logrus.Fields{
		"created": len(indexes) - failed,
		"failed":  failed,
	}).Info("Indexes created")
	if failed > 0 {
		return fmt.Errorf("%d of %d indexes could not be created", failed, len(indexes))
	}
	return nil
}

// SeedInitialData inserts an admin account and a starter menu
func (m *Migration) SeedInitialData(adminEmail, adminPassword string, bcryptCost int) error {
	logrus.Info("Seeding initial data")

	if err := m.seedAdminUser(adminEmail, adminPassword, bcryptCost); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}
	if err := m.seedMenu(); err != nil {
		return fmt.Errorf("failed to seed menu: %w", err)
	}
	if err := m.seedDiscounts(); err != nil {
		return fmt.Errorf("failed to seed discounts: %w", err)
	}

	logrus.Info("Initial data seeded")
	return nil
}

func (m *Migration) seedAdminUser(email, password string, bcryptCost int) error {
	var existing user.User
	err := m.db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		logrus.WithField("user_id", existing.ID).Debug("Admin user already exists")
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	admin := user.User{
		FirstName:   "Admin",
		LastName:    "User",
		Email:       email,
		Password:    string(hashedPassword),
		PhoneNumber: "+10000000000",
		Role:        user.RoleAdmin,
		IsActive:    true,
	}
	if err := m.db.Create(&admin).Error; err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{"user_id": admin.ID, "email": email}).Info("Created admin user")
	return nil
}

type seedProduct struct {
	name        string
	description string
	price       int64
	discount    int
	popular     bool
	ingredients []string
	prepMinutes int
	calories    int
}

var seedMenu = []struct {
	name     string
	products []seedProduct
}{
	{"Burgers", []seedProduct{
		{"Classic Burger", "Beef patty, cheddar, lettuce and tomato", 8500, 0, true, []string{"beef", "cheddar", "lettuce", "tomato"}, 12, 650},
		{"Chicken Burger", "Crispy chicken fillet with garlic sauce", 7900, 10, false, []string{"chicken", "garlic sauce", "lettuce"}, 12, 590},
	}},
	{"Pizza", []seedProduct{
		{"Margherita", "Tomato, mozzarella and basil", 11000, 0, true, []string{"tomato", "mozzarella", "basil"}, 18, 820},
		{"Pepperoni", "Tomato, mozzarella and pepperoni", 13000, 15, false, []string{"tomato", "mozzarella", "pepperoni"}, 18, 960},
	}},
	{"Salads", []seedProduct{
		{"Caesar Salad", "Romaine, parmesan, croutons and caesar dressing", 6500, 0, false, []string{"romaine", "parmesan", "croutons"}, 8, 380},
	}},
	{"Drinks", []seedProduct{
		{"Lemonade", "Fresh lemonade with mint", 2500, 0, false, []string{"lemon", "mint", "sugar"}, 3, 120},
	}},
}

func (m *Migration) seedMenu() error {
	for position, entry := range seedMenu {
		var category product.Category
		err := m.db.Where("name = ?", entry.name).First(&category).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			category = product.Category{Name: entry.name, DisplayOrder: position + 1, IsActive: true}
			if err := m.db.Create(&category).Error; err != nil {
				return err
			}
			logrus.WithField("category", entry.name).Info("Created category")
		} else if err != nil {
			return err
		}

		for _, item := range entry.products {
			var count int64
			if err := m.db.Model(&product.Product{}).
				Where("name = ? AND category_id = ?", item.name, category.ID).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}

			prep, calories := item.prepMinutes, item.calories
			p := product.Product{
				Name:            item.name,
				Description:     item.description,
				Price:           decimal.New(item.price, 0),
				ImageURL:        "https://placehold.co/600x400?text=" + item.name,
				IsAvailable:     true,
				Ingredients:     item.ingredients,
				PreparationTime: &prep,
				Calories:        &calories,
				IsPopular:       item.popular,
				Discount:        item.discount,
				CategoryID:      category.ID,
			}
			if err := m.db.Create(&p).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *Migration) seedDiscounts() error {
	maxDiscount := decimal.New(5000, 0)
	welcome := discount.Discount{
		Code:              "WELCOME10",
		Type:              pricing.DiscountTypePercentage,
		Value:             decimal.New(10, 0),
		MinOrderAmount:    decimal.New(10000, 0),
		MaxDiscountAmount: &maxDiscount,
		UsageLimit:        1000,
		StartDate:         time.Now().UTC(),
		ExpireDate:        time.Now().UTC().AddDate(1, 0, 0),
		IsActive:          true,
	}

	var count int64
	if err := m.db.Model(&discount.Discount{}).Where("code = ?", welcome.Code).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return m.db.Create(&welcome).Error
}

// DropAllTables drops every table in reverse dependency order
func (m *Migration) DropAllTables() error {
	logrus.Warn("Dropping all tables")

	models := Models()
	for i := len(models) - 1; i >= 0; i-- {
		if err := m.db.Migrator().DropTable(models[i]); err != nil {
			return fmt.Errorf("failed to drop table for %T: %w", models[i], err)
		}
	}
	return nil
}
