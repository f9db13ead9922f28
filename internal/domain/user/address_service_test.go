package user

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/your-org/food-ordering-backend/internal/pkg/apperror"
	"github.com/your-org/food-ordering-backend/internal/pkg/testutil"
)

func setupAddresses(t *testing.T) (*AddressService, *gorm.DB, uint) {
	db := testutil.NewDB(t, &User{}, &Address{})
	u := User{FirstName: "Ana", LastName: "Lopez", Email: "ana@example.com", Password: "x", PhoneNumber: "+15550001"}
	require.NoError(t, db.Create(&u).Error)
	return NewAddressService(db), db, u.ID
}

func addressRequest(title string, isDefault bool) *CreateAddressRequest {
	return &CreateAddressRequest{
		Title:       title,
		Street:      "12 Baker Street",
		City:        "London",
		PhoneNumber: "+15550001",
		IsDefault:   isDefault,
	}
}

func defaultIDs(t *testing.T, db *gorm.DB, userID uint) []uint {
	t.Helper()
	var ids []uint
	require.NoError(t, db.Model(&Address{}).Where("user_id = ? AND is_default = ?", userID, true).Pluck("id", &ids).Error)
	return ids
}

func TestFirstAddressBecomesDefault(t *testing.T) {
	svc, db, userID := setupAddresses(t)
	ctx := context.Background()

	home, err := svc.Create(ctx, userID, addressRequest("Home", false))
	require.NoError(t, err)
	assert.True(t, home.IsDefault)

	work, err := svc.Create(ctx, userID, addressRequest("Work", false))
	require.NoError(t, err)
	assert.False(t, work.IsDefault)
	assert.Equal(t, []uint{home.ID}, defaultIDs(t, db, userID))

	office, err := svc.Create(ctx, userID, addressRequest("Office", true))
	require.NoError(t, err)
	assert.Equal(t, []uint{office.ID}, defaultIDs(t, db, userID))

	list, err := svc.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, office.ID, list[0].ID)
}

func TestSetDefaultKeepsSingleDefault(t *testing.T) {
	svc, db, userID := setupAddresses(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, userID, addressRequest("Home", false))
	require.NoError(t, err)
	work, err := svc.Create(ctx, userID, addressRequest("Work", false))
	require.NoError(t, err)

	got, err := svc.SetDefault(ctx, userID, work.ID)
	require.NoError(t, err)
	assert.True(t, got.IsDefault)
	assert.Equal(t, []uint{work.ID}, defaultIDs(t, db, userID))

	def, err := svc.Default(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, work.ID, def.ID)
}

func TestUpdateMergesFields(t *testing.T) {
	svc, _, userID := setupAddresses(t)
	ctx := context.Background()

	home, err := svc.Create(ctx, userID, addressRequest("Home", false))
	require.NoError(t, err)

	city := "Leeds"
	off := false
	updated, err := svc.Update(ctx, userID, home.ID, &UpdateAddressRequest{City: &city, IsDefault: &off})
	require.NoError(t, err)
	assert.Equal(t, "Leeds", updated.City)
	assert.Equal(t, "12 Baker Street", updated.Street)
	assert.Equal(t, "Home", updated.Title)
	assert.True(t, updated.IsDefault)
}

func TestDeleteDefaultReassignsMostRecent(t *testing.T) {
	svc, db, userID := setupAddresses(t)
	ctx := context.Background()

	home, err := svc.Create(ctx, userID, addressRequest("Home", false))
	require.NoError(t, err)
	work, err := svc.Create(ctx, userID, addressRequest("Work", false))
	require.NoError(t, err)
	gym, err := svc.Create(ctx, userID, addressRequest("Gym", false))
	require.NoError(t, err)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.Model(&Address{}).Where("id = ?", work.ID).Update("created_at", base.Add(2*time.Hour)).Error)
	require.NoError(t, db.Model(&Address{}).Where("id = ?", gym.ID).Update("created_at", base.Add(time.Hour)).Error)

	require.NoError(t, svc.Delete(ctx, userID, home.ID))
	assert.Equal(t, []uint{work.ID}, defaultIDs(t, db, userID))

	require.NoError(t, svc.Delete(ctx, userID, gym.ID))
	assert.Equal(t, []uint{work.ID}, defaultIDs(t, db, userID))

	require.NoError(t, svc.Delete(ctx, userID, work.ID))
	count, err := svc.Count(ctx, userID)
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = svc.Default(ctx, userID)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestAddressesAreOwnerScoped(t *testing.T) {
	svc, db, userID := setupAddresses(t)
	ctx := context.Background()

	other := User{FirstName: "Ben", LastName: "Ng", Email: "ben@example.com", Password: "x", PhoneNumber: "+15550002"}
	require.NoError(t, db.Create(&other).Error)

	home, err := svc.Create(ctx, userID, addressRequest("Home", false))
	require.NoError(t, err)

	_, err = svc.Get(ctx, other.ID, home.ID)
	require.Error(t, err)
	assert.Equal(t, msgAddressNotFound, err.Error())

	err = svc.Delete(ctx, other.ID, home.ID)
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	_, err = svc.SetDefault(ctx, other.ID, home.ID)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}
