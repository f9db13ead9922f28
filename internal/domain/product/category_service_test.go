package product

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/food-ordering-backend/internal/pkg/apperror"
	"github.com/your-org/food-ordering-backend/internal/pkg/pagination"
)

func TestActiveCategoriesCountAvailableProducts(t *testing.T) {
	db, burgers := setupCatalog(t)
	svc := NewCategoryService(db)
	ctx := context.Background()

	off := false
	_, err := svc.Create(ctx, &CategoryCreateRequest{Name: "Seasonal", IsActive: &off})
	require.NoError(t, err)
	drinks, err := svc.Create(ctx, &CategoryCreateRequest{Name: "Drinks"})
	require.NoError(t, err)
	assert.Equal(t, 3, drinks.DisplayOrder)

	seedProduct(t, db, burgers.ID, "Classic", 1000, 0)
	seedProduct(t, db, burgers.ID, "Hidden", 900, 0, unavailable)

	active, err := svc.Active(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "Burgers", active[0].Name)
	assert.Equal(t, int64(1), active[0].ProductCount)
	assert.Equal(t, int64(0), active[1].ProductCount)

	page, err := svc.List(ctx, pagination.Params{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Pagination.TotalItems)
	assert.Equal(t, int64(2), page.Items[0].ProductCount)

	got, err := svc.Get(ctx, burgers.ID, true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ProductCount)
}

func TestCategoryNameIsUnique(t *testing.T) {
	db, burgers := setupCatalog(t)
	svc := NewCategoryService(db)
	ctx := context.Background()

	_, err := svc.Create(ctx, &CategoryCreateRequest{Name: "burgers"})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindConflict))

	pizzas, err := svc.Create(ctx, &CategoryCreateRequest{Name: "Pizzas"})
	require.NoError(t, err)

	name := "BURGERS"
	_, err = svc.Update(ctx, pizzas.ID, &CategoryUpdateRequest{Name: &name})
	assert.True(t, apperror.Is(err, apperror.KindConflict))

	same := "Burgers"
	updated, err := svc.Update(ctx, burgers.ID, &CategoryUpdateRequest{Name: &same})
	require.NoError(t, err)
	assert.Equal(t, "Burgers", updated.Name)
}

func TestInactiveCategoryHiddenFromPublic(t *testing.T) {
	db, _ := setupCatalog(t)
	svc := NewCategoryService(db)
	ctx := context.Background()

	off := false
	hidden, err := svc.Create(ctx, &CategoryCreateRequest{Name: "Seasonal", IsActive: &off})
	require.NoError(t, err)

	_, err = svc.Get(ctx, hidden.ID, true)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
	_, err = svc.Products(ctx, hidden.ID, pagination.Params{})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	got, err := svc.Get(ctx, hidden.ID, false)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
}

func TestCategoryProducts(t *testing.T) {
	db, burgers := setupCatalog(t)
	svc := NewCategoryService(db)

	seedProduct(t, db, burgers.ID, "Classic", 1000, 0)
	seedProduct(t, db, burgers.ID, "Hidden", 900, 0, unavailable)

	got, err := svc.Products(context.Background(), burgers.ID, pagination.Params{})
	require.NoError(t, err)
	assert.Equal(t, "Burgers", got.Category.Name)
	assert.Equal(t, []string{"Classic"}, names(got.Products.Items))
}

func TestDeleteCategoryWithProducts(t *testing.T) {
	db, burgers := setupCatalog(t)
	svc := NewCategoryService(db)
	ctx := context.Background()

	p := seedProduct(t, db, burgers.ID, "Classic", 1000, 0)

	err := svc.Delete(ctx, burgers.ID)
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindBadRequest))

	require.NoError(t, db.Delete(&Product{}, p.ID).Error)
	require.NoError(t, svc.Delete(ctx, burgers.ID))

	err = svc.Delete(ctx, burgers.ID)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestReorderCategories(t *testing.T) {
	db, burgers := setupCatalog(t)
	svc := NewCategoryService(db)
	ctx := context.Background()

	drinks, err := svc.Create(ctx, &CategoryCreateRequest{Name: "Drinks"})
	require.NoError(t, err)
	sides, err := svc.Create(ctx, &CategoryCreateRequest{Name: "Sides"})
	require.NoError(t, err)

	ordered, err := svc.Reorder(ctx, &ReorderRequest{CategoryIDs: []uint{sides.ID, burgers.ID, drinks.ID}})
	require.NoError(t, err)
	require.Len(t, ordered, 3)
	assert.Equal(t, "Sides", ordered[0].Name)
	assert.Equal(t, 0, ordered[0].DisplayOrder)
	assert.Equal(t, "Drinks", ordered[2].Name)
	assert.Equal(t, 2, ordered[2].DisplayOrder)

	_, err = svc.Reorder(ctx, &ReorderRequest{CategoryIDs: []uint{sides.ID, 999}})
	require.Error(t, err)
	assert.Equal(t, "Some category IDs are invalid", err.Error())

	_, err = svc.Reorder(ctx, &ReorderRequest{CategoryIDs: []uint{sides.ID, sides.ID}})
	assert.True(t, apperror.Is(err, apperror.KindBadRequest))
}
