package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/your-org/food-ordering-backend/internal/pkg/apperror"
	"github.com/your-org/food-ordering-backend/internal/pkg/pagination"
	"github.com/your-org/food-ordering-backend/internal/pkg/testutil"
)

func seedUser(t *testing.T, db *gorm.DB, email, phone string, role Role) *User {
	t.Helper()
	u := User{FirstName: "Test", LastName: "User", Email: email, Password: "x", PhoneNumber: phone, Role: role, IsActive: true}
	require.NoError(t, db.Create(&u).Error)
	return &u
}

func TestAdminList(t *testing.T) {
	db := testutil.NewDB(t, &User{}, &Address{})
	svc := NewAdminService(db)
	ctx := context.Background()

	seedUser(t, db, "ana@example.com", "+15550001", RoleAdmin)
	seedUser(t, db, "ben@example.com", "+15550002", RoleCustomer)
	seedUser(t, db, "cara@example.com", "+15550003", RoleCustomer)

	page, err := svc.List(ctx, &UserListRequest{Role: RoleCustomer})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Pagination.TotalItems)

	page, err = svc.List(ctx, &UserListRequest{Search: "CARA"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "cara@example.com", page.Items[0].Email)

	page, err = svc.List(ctx, &UserListRequest{Params: pagination.Params{Page: 2, Limit: 2}})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.True(t, page.Pagination.HasPrevPage)
}

func TestAdminGetWithoutOrdersTable(t *testing.T) {
	db := testutil.NewDB(t, &User{}, &Address{})
	svc := NewAdminService(db)

	u := seedUser(t, db, "ana@example.com", "+15550001", RoleCustomer)
	require.NoError(t, db.Create(&Address{UserID: u.ID, Title: "Home", Street: "1 Main St", City: "Austin", PhoneNumber: "+15550001"}).Error)

	got, err := svc.Get(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.AddressCount)
	assert.Zero(t, got.OrderCount)
	assert.True(t, got.TotalSpent.IsZero())

	_, err = svc.Get(context.Background(), 999)
	require.Error(t, err)
	assert.Equal(t, msgUserNotFound, err.Error())
}

func TestAdminSetActive(t *testing.T) {
	db := testutil.NewDB(t, &User{}, &Address{})
	svc := NewAdminService(db)
	ctx := context.Background()

	admin := seedUser(t, db, "ana@example.com", "+15550001", RoleAdmin)
	customer := seedUser(t, db, "ben@example.com", "+15550002", RoleCustomer)

	_, err := svc.SetActive(ctx, admin.ID, admin.ID, false)
	assert.True(t, apperror.Is(err, apperror.KindBadRequest))

	got, err := svc.SetActive(ctx, customer.ID, admin.ID, false)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	var stored User
	require.NoError(t, db.First(&stored, customer.ID).Error)
	assert.False(t, stored.IsActive)
}

func TestAdminSetRoleKeepsOneAdmin(t *testing.T) {
	db := testutil.NewDB(t, &User{}, &Address{})
	svc := NewAdminService(db)
	ctx := context.Background()

	admin := seedUser(t, db, "ana@example.com", "+15550001", RoleAdmin)
	customer := seedUser(t, db, "ben@example.com", "+15550002", RoleCustomer)

	_, err := svc.SetRole(ctx, admin.ID, admin.ID, RoleCustomer)
	require.Error(t, err)
	assert.Equal(t, "Cannot remove your own admin privileges", err.Error())

	promoted, err := svc.SetRole(ctx, customer.ID, admin.ID, RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, promoted.Role)

	demoted, err := svc.SetRole(ctx, admin.ID, customer.ID, RoleCustomer)
	require.NoError(t, err)
	assert.Equal(t, RoleCustomer, demoted.Role)

	_, err = svc.SetRole(ctx, customer.ID, 0, RoleCustomer)
	require.Error(t, err)
	assert.Equal(t, "At least one admin must remain", err.Error())
}
