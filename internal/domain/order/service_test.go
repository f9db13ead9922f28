package order

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"
	"gorm.io/gorm"

	"github.com/your-org/food-ordering-backend/internal/config"
	"github.com/your-org/food-ordering-backend/internal/domain/cart"
	"github.com/your-org/food-ordering-backend/internal/domain/discount"
	"github.com/your-org/food-ordering-backend/internal/domain/pricing"
	"github.com/your-org/food-ordering-backend/internal/domain/product"
	"github.com/your-org/food-ordering-backend/internal/domain/user"
	"github.com/your-org/food-ordering-backend/internal/pkg/apperror"
	"github.com/your-org/food-ordering-backend/internal/pkg/testutil"
)

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu      sync.Mutex
	created []string
	changed []string
	fail    bool
}

func (p *recordingPublisher) OrderCreated(_ context.Context, o *Order) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker down")
	}
	p.created = append(p.created, o.OrderNumber)
	return nil
}

func (p *recordingPublisher) OrderStatusChanged(_ context.Context, o *Order, from Status) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker down")
	}
	p.changed = append(p.changed, fmt.Sprintf("%s->%s", from, o.Status))
	return nil
}

type memoryIdempotency struct {
	keys map[string]uint
}

func (m *memoryIdempotency) Reserve(_ context.Context, userID uint, key string) (uint, bool, error) {
	k := fmt.Sprintf("%d:%s", userID, key)
	if id, ok := m.keys[k]; ok {
		return id, false, nil
	}
	m.keys[k] = 0
	return 0, true, nil
}

func (m *memoryIdempotency) Complete(_ context.Context, userID uint, key string, orderID uint) error {
	m.keys[fmt.Sprintf("%d:%s", userID, key)] = orderID
	return nil
}

func (m *memoryIdempotency) Release(_ context.Context, userID uint, key string) error {
	delete(m.keys, fmt.Sprintf("%d:%s", userID, key))
	return nil
}

type fixture struct {
	svc       *Service
	db        *gorm.DB
	carts     *cart.Service
	publisher *recordingPublisher
	userID    uint
	addressID uint
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t,
		&user.User{}, &user.Address{},
		&product.Category{}, &product.Product{},
		&discount.Discount{},
		&cart.Cart{}, &cart.CartItem{},
		&Order{}, &OrderItem{}, &OrderStatusHistory{},
	)

	cfg := &config.Config{Checkout: config.CheckoutConfig{DeliveryCost: 25000, OrderNumberRetries: 3}}
	carts := cart.NewService(db, nil)
	publisher := &recordingPublisher{}
	svc := NewService(db, cfg, carts, publisher, nil)
	svc.now = func() time.Time { return fixedNow }

	f := &fixture{svc: svc, db: db, carts: carts, publisher: publisher}
	f.userID, f.addressID = f.createUser(t, "ana")
	return f
}

func (f *fixture) createUser(t *testing.T, name string) (uint, uint) {
	t.Helper()
	u := user.User{
		FirstName:   name,
		LastName:    "Tester",
		Email:       name + "@example.com",
		Password:    "hashed",
		PhoneNumber: "+100" + name,
	}
	require.NoError(t, f.db.Create(&u).Error)

	a := user.Address{
		UserID:      u.ID,
		Title:       "Home",
		Street:      "1 Main St",
		City:        "Springfield",
		PhoneNumber: u.PhoneNumber,
		IsDefault:   true,
	}
	require.NoError(t, f.db.Create(&a).Error)
	return u.ID, a.ID
}

func (f *fixture) createProduct(t *testing.T, name string, price int64, discountPercent int) *product.Product {
	t.Helper()
	var cat product.Category
	require.NoError(t, f.db.Where(product.Category{Name: "Mains"}).FirstOrCreate(&cat).Error)

	p := product.Product{
		Name:        name,
		Description: name,
		Price:       decimal.NewFromInt(price),
		ImageURL:    "https://img.example.com/" + name,
		IsAvailable: true,
		Discount:    discountPercent,
		CategoryID:  cat.ID,
	}
	require.NoError(t, f.db.Create(&p).Error)
	return &p
}

func (f *fixture) addToCart(t *testing.T, productID uint, quantity int) {
	t.Helper()
	_, err := f.carts.AddItem(context.Background(), f.userID, &cart.AddItemRequest{ProductID: productID, Quantity: quantity})
	require.NoError(t, err)
}

func (f *fixture) createDiscount(t *testing.T, d discount.Discount) *discount.Discount {
	t.Helper()
	if d.Type == "" {
		d.Type = pricing.DiscountTypePercentage
	}
	if d.StartDate.IsZero() {
		d.StartDate = fixedNow.Add(-24 * time.Hour)
	}
	if d.ExpireDate.IsZero() {
		d.ExpireDate = fixedNow.Add(24 * time.Hour)
	}
	d.IsActive = true
	require.NoError(t, f.db.Create(&d).Error)
	return &d
}

// seedOrder inserts an order directly in the given status
func (f *fixture) seedOrder(t *testing.T, status Status, number string, total int64, createdAt time.Time) *Order {
	t.Helper()
	o := Order{
		OrderNumber:    number,
		UserID:         f.userID,
		AddressID:      f.addressID,
		Status:         status,
		Subtotal:       decimal.NewFromInt(total),
		DiscountAmount: decimal.Zero,
		DeliveryCost:   decimal.Zero,
		TotalAmount:    decimal.NewFromInt(total),
		CreatedAt:      createdAt,
	}
	require.NoError(t, f.db.Create(&o).Error)
	return &o
}

func strPtr(s string) *string { return &s }

func TestCheckoutEndToEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	burger := f.createProduct(t, "Burger", 1000, 20)
	f.addToCart(t, burger.ID, 2)
	code := f.createDiscount(t, discount.Discount{Code: "SAVE10", Value: decimal.NewFromInt(10), UsageLimit: 5})

	detail, created, err := f.svc.Checkout(ctx, f.userID, "", &CreateRequest{
		AddressID:    f.addressID,
		DiscountCode: strPtr("save10"),
		Notes:        strPtr("  ring twice "),
	})
	require.NoError(t, err)
	assert.True(t, created)

	assert.Equal(t, StatusPending, detail.Status)
	assert.Regexp(t, `^ORD-20260310-[0-9A-F]{8}$`, detail.OrderNumber)
	assert.Equal(t, "1600", detail.Subtotal.String())
	assert.Equal(t, "160", detail.DiscountAmount.String())
	assert.Equal(t, "25000", detail.DeliveryCost.String())
	assert.Equal(t, "26440", detail.TotalAmount.String())
	assert.True(t, detail.TotalAmount.Equal(detail.Subtotal.Sub(detail.DiscountAmount).Add(detail.DeliveryCost)))
	require.NotNil(t, detail.Notes)
	assert.Equal(t, "ring twice", *detail.Notes)

	require.Len(t, detail.Items, 1)
	item := detail.Items[0]
	assert.Equal(t, "Burger", item.ProductName)
	assert.Equal(t, 2, item.Quantity)
	assert.Equal(t, "800", item.UnitPrice.String())
	assert.Equal(t, "1600", item.TotalPrice.String())

	require.NotNil(t, detail.Address)
	assert.Equal(t, "1 Main St, Springfield", detail.Address.FullAddress)
	require.NotNil(t, detail.DiscountCode)
	assert.Equal(t, "SAVE10", *detail.DiscountCode)

	var stored discount.Discount
	require.NoError(t, f.db.First(&stored, code.ID).Error)
	assert.Equal(t, 1, stored.UsedCount)

	cartResp, err := f.carts.GetCart(ctx, f.userID)
	require.NoError(t, err)
	assert.Empty(t, cartResp.Items)
	var carts int64
	require.NoError(t, f.db.Model(&cart.Cart{}).Count(&carts).Error)
	assert.Equal(t, int64(1), carts)

	history, err := f.svc.History(ctx, detail.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, StatusPending, history[0].ToStatus)
	assert.Equal(t, Status(""), history[0].FromStatus)

	assert.Equal(t, []string{detail.OrderNumber}, f.publisher.created)
}

func TestCheckoutIsAtomic(t *testing.T) {
	tests := []struct {
		name     string
		prepare  func(t *testing.T, f *fixture) *CreateRequest
		wantKind apperror.Kind
		wantMsg  string
	}{
		{
			name: "address of another user",
			prepare: func(t *testing.T, f *fixture) *CreateRequest {
				_, otherAddress := f.createUser(t, "bob")
				return &CreateRequest{AddressID: otherAddress, DiscountCode: strPtr("SAVE10")}
			},
			wantKind: apperror.KindNotFound,
			wantMsg:  "Address not found",
		},
		{
			name: "unavailable product",
			prepare: func(t *testing.T, f *fixture) *CreateRequest {
				salad := f.createProduct(t, "Salad", 500, 0)
				f.addToCart(t, salad.ID, 1)
				require.NoError(t, f.db.Model(salad).Update("is_available", false).Error)
				return &CreateRequest{AddressID: f.addressID, DiscountCode: strPtr("SAVE10")}
			},
			wantKind: apperror.KindBadRequest,
			wantMsg:  "Some products are unavailable: Salad",
		},
		{
			name: "unknown discount code",
			prepare: func(t *testing.T, f *fixture) *CreateRequest {
				return &CreateRequest{AddressID: f.addressID, DiscountCode: strPtr("NOPE")}
			},
			wantKind: apperror.KindBadRequest,
			wantMsg:  discount.MsgInvalidCode,
		},
		{
			name: "below minimum order amount",
			prepare: func(t *testing.T, f *fixture) *CreateRequest {
				f.createDiscount(t, discount.Discount{Code: "BIG", Value: decimal.NewFromInt(10), UsageLimit: 5, MinOrderAmount: decimal.NewFromInt(5000)})
				return &CreateRequest{AddressID: f.addressID, DiscountCode: strPtr("BIG")}
			},
			wantKind: apperror.KindBadRequest,
			wantMsg:  "Minimum order amount for this discount is 5000",
		},
		{
			name: "exhausted code",
			prepare: func(t *testing.T, f *fixture) *CreateRequest {
				f.createDiscount(t, discount.Discount{Code: "ONCE", Value: decimal.NewFromInt(10), UsageLimit: 1, UsedCount: 1})
				return &CreateRequest{AddressID: f.addressID, DiscountCode: strPtr("ONCE")}
			},
			wantKind: apperror.KindBadRequest,
			wantMsg:  discount.MsgLimitReached,
		},
		{
			name: "inactive code",
			prepare: func(t *testing.T, f *fixture) *CreateRequest {
				off := f.createDiscount(t, discount.Discount{Code: "PAUSED", Value: decimal.NewFromInt(10), UsageLimit: 5})
				require.NoError(t, f.db.Model(off).Update("is_active", false).Error)
				return &CreateRequest{AddressID: f.addressID, DiscountCode: strPtr("paused")}
			},
			wantKind: apperror.KindBadRequest,
			wantMsg:  discount.MsgInvalidCode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			pizza := f.createProduct(t, "Pizza", 1200, 0)
			f.addToCart(t, pizza.ID, 2)
			save := f.createDiscount(t, discount.Discount{Code: "SAVE10", Value: decimal.NewFromInt(10), UsageLimit: 5})
			req := tt.prepare(t, f)

			before, err := f.carts.GetCart(ctx, f.userID)
			require.NoError(t, err)

			_, _, err = f.svc.Checkout(ctx, f.userID, "", req)
			require.Error(t, err)
			appErr := apperror.From(err)
			assert.Equal(t, tt.wantKind, appErr.Kind)
			assert.Equal(t, tt.wantMsg, appErr.Message)

			var orders, items, history int64
			require.NoError(t, f.db.Model(&Order{}).Count(&orders).Error)
			require.NoError(t, f.db.Model(&OrderItem{}).Count(&items).Error)
			require.NoError(t, f.db.Model(&OrderStatusHistory{}).Count(&history).Error)
			assert.Zero(t, orders)
			assert.Zero(t, items)
			assert.Zero(t, history)

			after, err := f.carts.GetCart(ctx, f.userID)
			require.NoError(t, err)
			assert.Equal(t, before.Items, after.Items)

			var stored discount.Discount
			require.NoError(t, f.db.First(&stored, save.ID).Error)
			assert.Equal(t, 0, stored.UsedCount)
			assert.Empty(t, f.publisher.created)
		})
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.svc.Checkout(context.Background(), f.userID, "", &CreateRequest{AddressID: f.addressID})
	require.Error(t, err)
	assert.Equal(t, "Cart is empty", apperror.From(err).Message)
}

func TestCheckoutRejectsSecondUseOfSingleUseCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	soup := f.createProduct(t, "Soup", 400, 0)
	f.createDiscount(t, discount.Discount{Code: "SOLO", Type: pricing.DiscountTypeFixed, Value: decimal.NewFromInt(100), UsageLimit: 1})

	f.addToCart(t, soup.ID, 1)
	_, _, err := f.svc.Checkout(ctx, f.userID, "", &CreateRequest{AddressID: f.addressID, DiscountCode: strPtr("SOLO")})
	require.NoError(t, err)

	f.addToCart(t, soup.ID, 1)
	_, _, err = f.svc.Checkout(ctx, f.userID, "", &CreateRequest{AddressID: f.addressID, DiscountCode: strPtr("SOLO")})
	require.Error(t, err)
	assert.Equal(t, discount.MsgLimitReached, apperror.From(err).Message)
}

func TestOrderItemsAreSnapshots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	curry := f.createProduct(t, "Curry", 1500, 10)
	f.addToCart(t, curry.ID, 3)

	detail, _, err := f.svc.Checkout(ctx, f.userID, "", &CreateRequest{AddressID: f.addressID})
	require.NoError(t, err)

	require.NoError(t, f.db.Model(curry).Updates(map[string]interface{}{
		"price":    decimal.NewFromInt(9999),
		"discount": 0,
		"name":     "Renamed",
	}).Error)

	reloaded, err := f.svc.GetUserOrder(ctx, f.userID, detail.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Items, 1)
	assert.Equal(t, "Curry", reloaded.Items[0].ProductName)
	assert.Equal(t, "1350", reloaded.Items[0].UnitPrice.String())
	assert.Equal(t, "4050", reloaded.Items[0].TotalPrice.String())

	require.NoError(t, f.db.Delete(&product.Product{}, curry.ID).Error)
	reloaded, err = f.svc.GetUserOrder(ctx, f.userID, detail.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Items, 1)
	assert.Equal(t, curry.ID, reloaded.Items[0].ProductID)
}

func TestOrderNumberCollisionRetries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedOrder(t, StatusDelivered, "ORD-20260310-TAKEN000", 100, fixedNow)

	numbers := []string{"ORD-20260310-TAKEN000", "ORD-20260310-TAKEN000", "ORD-20260310-FRESH000"}
	calls := 0
	f.svc.newNumber = func(time.Time) string {
		n := numbers[calls]
		calls++
		return n
	}

	tea := f.createProduct(t, "Tea", 300, 0)
	f.addToCart(t, tea.ID, 1)

	detail, _, err := f.svc.Checkout(ctx, f.userID, "", &CreateRequest{AddressID: f.addressID})
	require.NoError(t, err)
	assert.Equal(t, "ORD-20260310-FRESH000", detail.OrderNumber)
	assert.Equal(t, 3, calls)
	assert.Len(t, detail.Items, 1)
}

func TestOrderNumberRetriesExhausted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedOrder(t, StatusDelivered, "ORD-20260310-TAKEN000", 100, fixedNow)
	f.svc.newNumber = func(time.Time) string { return "ORD-20260310-TAKEN000" }

	tea := f.createProduct(t, "Tea", 300, 0)
	f.addToCart(t, tea.ID, 1)

	_, _, err := f.svc.Checkout(ctx, f.userID, "", &CreateRequest{AddressID: f.addressID})
	require.Error(t, err)

	var orders int64
	require.NoError(t, f.db.Model(&Order{}).Count(&orders).Error)
	assert.Equal(t, int64(1), orders)

	resp, err := f.carts.GetCart(ctx, f.userID)
	require.NoError(t, err)
	assert.Len(t, resp.Items, 1)
}

func TestCheckoutIdempotencyKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.svc.idempotency = &memoryIdempotency{keys: map[string]uint{}}

	fries := f.createProduct(t, "Fries", 250, 0)
	f.addToCart(t, fries.ID, 2)
	req := &CreateRequest{AddressID: f.addressID}

	first, created, err := f.svc.Checkout(ctx, f.userID, "key-1", req)
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := f.svc.Checkout(ctx, f.userID, "key-1", req)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	var orders int64
	require.NoError(t, f.db.Model(&Order{}).Count(&orders).Error)
	assert.Equal(t, int64(1), orders)

	// a failed checkout frees its key
	_, _, err = f.svc.Checkout(ctx, f.userID, "key-2", req)
	require.Error(t, err)
	f.addToCart(t, fries.ID, 1)
	_, created, err = f.svc.Checkout(ctx, f.userID, "key-2", req)
	require.NoError(t, err)
	assert.True(t, created)
}

func TestCheckoutInProgressKeyConflicts(t *testing.T) {
	f := newFixture(t)
	store := &memoryIdempotency{keys: map[string]uint{fmt.Sprintf("%d:busy", f.userID): 0}}
	f.svc.idempotency = store

	_, _, err := f.svc.Checkout(context.Background(), f.userID, "busy", &CreateRequest{AddressID: f.addressID})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindConflict))
}

func TestPublishFailureDoesNotFailCheckout(t *testing.T) {
	f := newFixture(t)
	f.publisher.fail = true
	wrap := f.createProduct(t, "Wrap", 700, 0)
	f.addToCart(t, wrap.ID, 1)

	_, created, err := f.svc.Checkout(context.Background(), f.userID, "", &CreateRequest{AddressID: f.addressID})
	require.NoError(t, err)
	assert.True(t, created)
}

func TestTransitionTable(t *testing.T) {
	allowed := map[Status][]Status{
		StatusPending:    {StatusConfirmed, StatusCancelled},
		StatusConfirmed:  {StatusPreparing, StatusCancelled},
		StatusPreparing:  {StatusReady, StatusCancelled},
		StatusReady:      {StatusDelivering},
		StatusDelivering: {StatusDelivered},
	}
	isAllowed := func(from, to Status) bool {
		for _, s := range allowed[from] {
			if s == to {
				return true
			}
		}
		return false
	}

	f := newFixture(t)
	ctx := context.Background()
	n := 0

	for _, from := range Statuses() {
		for _, to := range Statuses() {
			n++
			o := f.seedOrder(t, from, fmt.Sprintf("ORD-20260310-%08d", n), 100, fixedNow)

			_, err := f.svc.UpdateStatus(ctx, o.ID, 99, &UpdateStatusRequest{Status: to})

			var stored Order
			require.NoError(t, f.db.First(&stored, o.ID).Error)
			if isAllowed(from, to) {
				assert.NoError(t, err, "%s -> %s", from, to)
				assert.Equal(t, to, stored.Status, "%s -> %s", from, to)
			} else {
				require.Error(t, err, "%s -> %s", from, to)
				appErr := apperror.From(err)
				assert.Equal(t, apperror.KindBadRequest, appErr.Kind)
				assert.Equal(t, fmt.Sprintf("Cannot change status from '%s' to '%s'", from, to), appErr.Message)
				assert.Equal(t, from, stored.Status)
			}
			assert.Equal(t, isAllowed(from, to), CanTransition(from, to))
		}
	}
}

func TestCancelIgnoresEstimatedDelivery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.seedOrder(t, StatusConfirmed, "ORD-20260310-AAAA0009", 100, fixedNow)
	eta := fixedNow.Add(time.Hour)

	detail, err := f.svc.UpdateStatus(ctx, o.ID, 7, &UpdateStatusRequest{
		Status:            StatusCancelled,
		EstimatedDelivery: &eta,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, detail.Status)
	assert.Nil(t, detail.EstimatedDelivery)

	var stored Order
	require.NoError(t, f.db.First(&stored, o.ID).Error)
	assert.Nil(t, stored.EstimatedDelivery)
}

func TestUpdateStatusRecordsHistoryAndDelivery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.seedOrder(t, StatusPending, "ORD-20260310-AAAA0001", 100, fixedNow)
	eta := fixedNow.Add(45 * time.Minute)

	detail, err := f.svc.UpdateStatus(ctx, o.ID, 7, &UpdateStatusRequest{
		Status:            StatusConfirmed,
		EstimatedDelivery: &eta,
		Comment:           strPtr("kitchen notified"),
	})
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, detail.Status)
	require.NotNil(t, detail.EstimatedDelivery)
	assert.True(t, eta.Equal(*detail.EstimatedDelivery))
	require.NotNil(t, detail.User)
	assert.Equal(t, "ana@example.com", detail.User.Email)

	history, err := f.svc.History(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, StatusPending, history[0].FromStatus)
	assert.Equal(t, StatusConfirmed, history[0].ToStatus)
	assert.Equal(t, uint(7), history[0].ChangedBy)
	assert.Equal(t, []string{"pending->confirmed"}, f.publisher.changed)

	_, err = f.svc.UpdateStatus(ctx, 4040, 7, &UpdateStatusRequest{Status: StatusConfirmed})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	_, err = f.svc.History(ctx, 4040)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestCustomerCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pending := f.seedOrder(t, StatusPending, "ORD-20260310-CANCEL01", 100, fixedNow)
	confirmed := f.seedOrder(t, StatusConfirmed, "ORD-20260310-CANCEL02", 100, fixedNow)

	detail, err := f.svc.Cancel(ctx, f.userID, pending.ID, &CancelRequest{Reason: strPtr("changed my mind")})
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, detail.Status)

	_, err = f.svc.Cancel(ctx, f.userID, confirmed.ID, nil)
	require.Error(t, err)
	assert.Equal(t, "Only pending orders can be cancelled", apperror.From(err).Message)

	otherUser, _ := f.createUser(t, "eve")
	_, err = f.svc.Cancel(ctx, otherUser, pending.ID, nil)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestOrderQueriesAreOwnerScoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedOrder(t, StatusPending, "ORD-20260310-LIST0001", 100, fixedNow.Add(-2*time.Hour))
	f.seedOrder(t, StatusDelivered, "ORD-20260310-LIST0002", 200, fixedNow.Add(-time.Hour))
	mine := f.seedOrder(t, StatusDelivered, "ORD-20260310-LIST0003", 300, fixedNow)

	other, _ := f.createUser(t, "max")
	_, err := f.svc.GetUserOrder(ctx, other, mine.ID)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	page, err := f.svc.ListUserOrders(ctx, f.userID, &ListRequest{Status: StatusDelivered})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Pagination.TotalItems)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "ORD-20260310-LIST0003", page.Items[0].OrderNumber)
	assert.Nil(t, page.Items[0].User)

	page, err = f.svc.ListUserOrders(ctx, other, &ListRequest{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	admin, err := f.svc.AdminListOrders(ctx, &AdminListRequest{Search: "list0002"})
	require.NoError(t, err)
	require.Len(t, admin.Items, 1)
	require.NotNil(t, admin.Items[0].User)
	assert.Equal(t, "ana Tester", admin.Items[0].User.FullName)
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	yesterday := fixedNow.Add(-24 * time.Hour)

	f.seedOrder(t, StatusPending, "ORD-20260310-STAT0001", 1000, fixedNow.Add(-time.Hour))
	f.seedOrder(t, StatusReady, "ORD-20260310-STAT0002", 2500, fixedNow.Add(-2*time.Hour))
	f.seedOrder(t, StatusCancelled, "ORD-20260310-STAT0003", 9000, fixedNow.Add(-3*time.Hour))
	f.seedOrder(t, StatusDelivered, "ORD-20260309-STAT0004", 4000, yesterday)

	stats, err := f.svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.Total)
	assert.Equal(t, int64(1), stats.Pending)
	assert.Equal(t, int64(1), stats.Ready)
	assert.Equal(t, int64(1), stats.Cancelled)
	assert.Equal(t, int64(1), stats.Delivered)
	assert.Equal(t, int64(3), stats.TodayOrders)
	assert.Equal(t, "3500", stats.TodayRevenue.String())
}

func TestExportXLSX(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedOrder(t, StatusDelivered, "ORD-20260310-XLSX0001", 1234, fixedNow)

	var buf bytes.Buffer
	require.NoError(t, f.svc.ExportXLSX(ctx, &AdminListRequest{}, &buf))

	file, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, file.Sheets, 1)
	rows := file.Sheets[0].Rows
	require.Len(t, rows, 2)
	assert.Equal(t, "Order Number", rows[0].Cells[0].Value)
	assert.Equal(t, "ORD-20260310-XLSX0001", rows[1].Cells[0].Value)
	assert.Equal(t, "ana@example.com", rows[1].Cells[2].Value)
	assert.Equal(t, "delivered", rows[1].Cells[3].Value)
}
