package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/your-org/food-ordering-backend/internal/domain/discount"
	"github.com/your-org/food-ordering-backend/internal/domain/product"
	"github.com/your-org/food-ordering-backend/internal/domain/user"
	"github.com/your-org/food-ordering-backend/internal/pkg/apperror"
	"github.com/your-org/food-ordering-backend/internal/pkg/testutil"
)

func setupMigration(t *testing.T) *Migration {
	t.Helper()
	m := NewMigration(testutil.NewDB(t))
	require.NoError(t, m.RunAutoMigrations())
	require.NoError(t, m.CreateIndexes())
	return m
}

func TestRunAutoMigrationsCreatesAllTables(t *testing.T) {
	m := setupMigration(t)

	for _, table := range []string{
		"users", "addresses", "categories", "products", "product_images", "reviews", "discounts",
		"carts", "cart_items", "orders", "order_items", "order_status_history",
	} {
		assert.True(t, m.db.Migrator().HasTable(table), table)
	}
}

func TestSingleDefaultAddressIndex(t *testing.T) {
	m := setupMigration(t)

	u := user.User{FirstName: "Ann", LastName: "Lee", Email: "ann@example.com", Password: "x", PhoneNumber: "+15550001111"}
	require.NoError(t, m.db.Create(&u).Error)

	first := user.Address{UserID: u.ID, Title: "Home", Street: "1 Main St", City: "Springfield", PhoneNumber: "+15550001111", IsDefault: true}
	require.NoError(t, m.db.Create(&first).Error)

	second := user.Address{UserID: u.ID, Title: "Work", Street: "2 Side St", City: "Springfield", PhoneNumber: "+15550001111", IsDefault: true}
	err := m.db.Create(&second).Error
	require.Error(t, err)
	assert.True(t, apperror.IsUniqueViolation(err))

	second.IsDefault = false
	assert.NoError(t, m.db.Create(&second).Error)
}

func TestSeedInitialDataIsIdempotent(t *testing.T) {
	m := setupMigration(t)

	require.NoError(t, m.SeedInitialData("admin@example.com", "admin-pass-123", bcrypt.MinCost))
	require.NoError(t, m.SeedInitialData("admin@example.com", "admin-pass-123", bcrypt.MinCost))

	var admin user.User
	require.NoError(t, m.db.Where("email = ?", "admin@example.com").First(&admin).Error)
	assert.Equal(t, user.RoleAdmin, admin.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte("admin-pass-123")))

	var users, categories, products, discounts int64
	m.db.Model(&user.User{}).Count(&users)
	m.db.Model(&product.Category{}).Count(&categories)
	m.db.Model(&product.Product{}).Count(&products)
	m.db.Model(&discount.Discount{}).Count(&discounts)

	assert.Equal(t, int64(1), users)
	assert.Equal(t, int64(len(seedMenu)), categories)
	assert.Equal(t, int64(6), products)
	assert.Equal(t, int64(1), discounts)
}

func TestDropAllTables(t *testing.T) {
	m := setupMigration(t)

	require.NoError(t, m.DropAllTables())
	assert.False(t, m.db.Migrator().HasTable("orders"))
	assert.False(t, m.db.Migrator().HasTable("users"))
}
