package product

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/your-org/food-ordering-backend/internal/pkg/apperror"
	"github.com/your-org/food-ordering-backend/internal/pkg/pagination"
	"github.com/your-org/food-ordering-backend/internal/pkg/testutil"
)

func setupCatalog(t *testing.T) (*gorm.DB, *Category) {
	db := testutil.NewDB(t, &Category{}, &Product{}, &ProductImage{})
	cat := Category{Name: "Burgers", IsActive: true, DisplayOrder: 1}
	require.NoError(t, db.Create(&cat).Error)
	return db, &cat
}

func seedProduct(t *testing.T, db *gorm.DB, categoryID uint, name string, price int64, discount int, opts ...func(*Product)) *Product {
	t.Helper()
	p := Product{
		Name:        name,
		Description: name + " with fries",
		Price:       decimal.NewFromInt(price),
		ImageURL:    "https://img.example.com/" + name,
		IsAvailable: true,
		Discount:    discount,
		CategoryID:  categoryID,
	}
	for _, opt := range opts {
		opt(&p)
	}
	available, popular := p.IsAvailable, p.IsPopular
	require.NoError(t, db.Create(&p).Error)
	require.NoError(t, db.Model(&p).Updates(map[string]interface{}{"is_available": available, "is_popular": popular}).Error)
	return &p
}

func unavailable(p *Product) { p.IsAvailable = false }
func popular(p *Product)     { p.IsPopular = true }

func names(products []Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.Name
	}
	return out
}

func TestProductJSONCarriesDerivedPrices(t *testing.T) {
	p := Product{Name: "Classic", Price: decimal.NewFromInt(1000), Discount: 15}

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))
	assert.EqualValues(t, 1000, out["price"])
	assert.EqualValues(t, 850, out["finalPrice"])
	assert.EqualValues(t, 150, out["discountAmount"])
	assert.Equal(t, "Classic", out["name"])
}

func TestListFiltersAndSorts(t *testing.T) {
	db, cat := setupCatalog(t)
	svc := NewService(db)
	ctx := context.Background()

	drinks := Category{Name: "Drinks", IsActive: true}
	require.NoError(t, db.Create(&drinks).Error)

	seedProduct(t, db, cat.ID, "Classic", 1000, 0, popular)
	seedProduct(t, db, cat.ID, "Cheese", 1500, 10)
	seedProduct(t, db, cat.ID, "Hidden", 900, 0, unavailable)
	seedProduct(t, db, drinks.ID, "Cola", 300, 0)

	page, err := svc.List(ctx, &ListRequest{SortBy: "price", SortOrder: "asc"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Cola", "Classic", "Cheese"}, names(page.Items))
	assert.Equal(t, int64(3), page.Pagination.TotalItems)

	page, err = svc.List(ctx, &ListRequest{CategoryID: cat.ID, SortBy: "name", SortOrder: "asc"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Cheese", "Classic"}, names(page.Items))

	minPrice, maxPrice := 500.0, 1200.0
	page, err = svc.List(ctx, &ListRequest{MinPrice: &minPrice, MaxPrice: &maxPrice})
	require.NoError(t, err)
	assert.Equal(t, []string{"Classic"}, names(page.Items))

	yes := true
	page, err = svc.List(ctx, &ListRequest{IsPopular: &yes})
	require.NoError(t, err)
	assert.Equal(t, []string{"Classic"}, names(page.Items))

	page, err = svc.List(ctx, &ListRequest{Search: "COLA"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Cola"}, names(page.Items))

	page, err = svc.AdminList(ctx, &ListRequest{Params: pagination.Params{Limit: 10}})
	require.NoError(t, err)
	assert.Equal(t, int64(4), page.Pagination.TotalItems)

	no := false
	page, err = svc.AdminList(ctx, &ListRequest{IsAvailable: &no})
	require.NoError(t, err)
	assert.Equal(t, []string{"Hidden"}, names(page.Items))
	require.NotNil(t, page.Items[0].Category)
	assert.Equal(t, "Burgers", page.Items[0].Category.Name)
}

func TestGetHidesUnavailable(t *testing.T) {
	db, cat := setupCatalog(t)
	svc := NewService(db)
	ctx := context.Background()

	hidden := seedProduct(t, db, cat.ID, "Hidden", 900, 0, unavailable)

	_, err := svc.Get(ctx, hidden.ID)
	require.Error(t, err)
	assert.Equal(t, msgProductNotFound, err.Error())

	got, err := svc.AdminGet(ctx, hidden.ID)
	require.NoError(t, err)
	assert.False(t, got.IsAvailable)
}

func TestPopularAndDiscounted(t *testing.T) {
	db, cat := setupCatalog(t)
	svc := NewService(db)
	ctx := context.Background()

	seedProduct(t, db, cat.ID, "Classic", 1000, 0, popular)
	seedProduct(t, db, cat.ID, "Cheese", 1500, 10)
	seedProduct(t, db, cat.ID, "Double", 2000, 25)
	seedProduct(t, db, cat.ID, "Gone", 2000, 50, unavailable, popular)

	pop, err := svc.Popular(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Classic"}, names(pop))

	disc, err := svc.Discounted(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"Double", "Cheese"}, names(disc))
}

func TestCreateAndUpdateProduct(t *testing.T) {
	db, cat := setupCatalog(t)
	svc := NewService(db)
	ctx := context.Background()

	req := &CreateRequest{
		Name:        "Veggie",
		Description: "Grilled vegetables on brioche",
		Price:       decimal.NewFromInt(1200),
		CategoryID:  999,
		ImageURL:    "https://img.example.com/veggie",
		Ingredients: []string{"bun", "zucchini"},
	}
	_, err := svc.Create(ctx, req)
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindBadRequest))
	assert.Equal(t, msgCategoryNotFound, err.Error())

	req.CategoryID = cat.ID
	off := false
	req.IsAvailable = &off
	created, err := svc.Create(ctx, req)
	require.NoError(t, err)
	assert.False(t, created.IsAvailable)
	assert.Equal(t, []string{"bun", "zucchini"}, created.Ingredients)

	price := decimal.NewFromInt(1300)
	discount := 20
	updated, err := svc.Update(ctx, created.ID, &UpdateRequest{
		Price:       &price,
		Discount:    &discount,
		Ingredients: []string{"bun", "pepper"},
	})
	require.NoError(t, err)
	assert.True(t, updated.Price.Equal(price))
	assert.Equal(t, 20, updated.Discount)
	assert.Equal(t, "Veggie", updated.Name)
	assert.Equal(t, []string{"bun", "pepper"}, updated.Ingredients)
	assert.True(t, updated.FinalPrice().Equal(decimal.NewFromInt(1040)))

	missing := uint(999)
	_, err = svc.Update(ctx, created.ID, &UpdateRequest{CategoryID: &missing})
	assert.True(t, apperror.Is(err, apperror.KindBadRequest))

	zero := decimal.Zero
	_, err = svc.Update(ctx, created.ID, &UpdateRequest{Price: &zero})
	assert.True(t, apperror.Is(err, apperror.KindBadRequest))
}

func TestTogglesAndDelete(t *testing.T) {
	db, cat := setupCatalog(t)
	svc := NewService(db)
	ctx := context.Background()

	p := seedProduct(t, db, cat.ID, "Classic", 1000, 0)

	got, err := svc.ToggleAvailability(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, got.IsAvailable)

	got, err = svc.TogglePopular(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPopular)

	got, err = svc.ToggleAvailability(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.IsAvailable)

	_, err = svc.TogglePopular(ctx, 999)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	require.NoError(t, svc.Delete(ctx, p.ID))
	err = svc.Delete(ctx, p.ID)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}
