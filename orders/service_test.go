package orders

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"homecook/models"
	"homecook/store"
	"homecook/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.OrderEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e models.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

type fixture struct {
	svc    *Service
	store  *store.Store
	events *recordingPublisher
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	ctx := context.Background()
	s := store.NewMemory().Store()

	for _, u := range []models.User{
		{ID: "alice", Role: models.RoleCustomer, Email: "alice@example.com", Address: models.Address{City: "Izmir", District: "Konak", Neighborhood: "Alsancak", StreetAddress: "Kordon 1"}},
		{ID: "bob", Role: models.RoleCustomer, Email: "bob@example.com", Address: models.Address{City: "Izmir"}},
		{ID: "cookX", Role: models.RoleCook, Email: "x@example.com", Address: models.Address{City: "Izmir"}},
		{ID: "cookY", Role: models.RoleCook, Email: "y@example.com", Address: models.Address{City: "Izmir"}},
		{ID: "root", Role: models.RoleAdmin, Email: "root@example.com"},
	} {
		u := u
		require.NoError(t, s.Users.Insert(ctx, &u))
	}
	for _, d := range []models.Dish{
		{ID: "dishA", Name: "Icli Kofte", Cook: "cookX", Price: 10, Quantity: 5},
		{ID: "dishB", Name: "Ayran", Cook: "cookX", Price: 1.5, Quantity: 2},
	} {
		d := d
		require.NoError(t, s.Dishes.Insert(ctx, &d))
	}

	events := &recordingPublisher{}
	opts = append([]Option{WithPublisher(events)}, opts...)
	return &fixture{svc: NewService(s, opts...), store: s, events: events}
}

func (f *fixture) cart(t *testing.T, user string, items ...models.CartItem) *models.Cart {
	t.Helper()
	cook := "cookX"
	c := &models.Cart{ID: "cart-" + user, User: user, CartItems: items, CookID: &cook}
	require.NoError(t, f.store.Carts.Save(context.Background(), c))
	return c
}

func TestCreateOrderConvertsCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.cart(t, "alice", models.CartItem{Dish: "dishA", Quantity: 2})

	order, err := f.svc.CreateOrder(ctx, "alice", c.ID)
	require.NoError(t, err)

	assert.Equal(t, 20.0, order.TotalOrderPrice)
	assert.Equal(t, "cookX", order.CookID)
	assert.Equal(t, "alice", order.User)
	assert.Equal(t, models.PaymentCash, order.PaymentMethodType)
	assert.False(t, order.IsPaid)
	assert.False(t, order.IsDelivered)
	assert.Equal(t, "Izmir, Konak, Alsancak, Kordon 1", order.DeliveryAddress)
	assert.Equal(t, []models.OrderItem{{Dish: "dishA", Name: "Icli Kofte", Quantity: 2, Price: 10}}, order.OrderItems)

	_, err = f.store.Carts.Get(ctx, c.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	d, err := f.store.Dishes.Get(ctx, "dishA")
	require.NoError(t, err)
	assert.Equal(t, 3, d.Quantity)
	assert.False(t, d.SoldOut)

	require.Len(t, f.events.events, 1)
	assert.Equal(t, EventOrderCreated, f.events.events[0].Type)
	assert.Equal(t, order.ID, f.events.events[0].OrderID)
}

func TestCreateOrderAddsDeliveryFeeAndFlagsSoldOut(t *testing.T) {
	f := newFixture(t, WithDeliveryFee(4.25))
	ctx := context.Background()
	c := f.cart(t, "alice",
		models.CartItem{Dish: "dishA", Quantity: 1},
		models.CartItem{Dish: "dishB", Quantity: 2},
	)

	order, err := f.svc.CreateOrder(ctx, "alice", c.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.25, order.DeliveryFee)
	assert.Equal(t, 10+3+4.25, order.TotalOrderPrice)

	d, err := f.store.Dishes.Get(ctx, "dishB")
	require.NoError(t, err)
	assert.Zero(t, d.Quantity)
	assert.True(t, d.SoldOut)
}

func TestCreateOrderIgnoresCachedCartTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.cart(t, "alice", models.CartItem{Dish: "dishA", Quantity: 2})
	c.TotalCartPrice = 999
	require.NoError(t, f.store.Carts.Save(ctx, c))

	order, err := f.svc.CreateOrder(ctx, "alice", c.ID)
	require.NoError(t, err)
	assert.Equal(t, 20.0, order.TotalOrderPrice)
}

func TestOrderTotalSurvivesPriceChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.cart(t, "alice", models.CartItem{Dish: "dishA", Quantity: 2})
	order, err := f.svc.CreateOrder(ctx, "alice", c.ID)
	require.NoError(t, err)

	price := 99.0
	_, err = f.store.Dishes.Update(ctx, "dishA", store.DishUpdate{Price: &price})
	require.NoError(t, err)

	stored, err := f.svc.GetOrder(ctx, Principal{"alice", models.RoleCustomer}, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 20.0, stored.TotalOrderPrice)
	assert.Equal(t, 10.0, stored.OrderItems[0].Price)
}

func TestCreateOrderPreconditions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateOrder(ctx, "alice", "nope")
	assert.True(t, utils.IsStatus(err, http.StatusBadRequest))
	assert.Contains(t, err.Error(), "Cart not found")

	c := f.cart(t, "alice", models.CartItem{Dish: "dishA", Quantity: 1})
	_, err = f.svc.CreateOrder(ctx, "bob", c.ID)
	assert.True(t, utils.IsStatus(err, http.StatusForbidden))

	empty := f.cart(t, "bob")
	_, err = f.svc.CreateOrder(ctx, "bob", empty.ID)
	assert.True(t, utils.IsStatus(err, http.StatusBadRequest))
	assert.Contains(t, err.Error(), "no items")

	assert.Empty(t, f.events.events)
}

func TestCreateOrderRollsBackWhenStockRanOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.cart(t, "alice",
		models.CartItem{Dish: "dishA", Quantity: 1},
		models.CartItem{Dish: "dishB", Quantity: 3},
	)

	_, err := f.svc.CreateOrder(ctx, "alice", c.ID)
	assert.True(t, utils.IsStatus(err, http.StatusConflict))

	d, err := f.store.Dishes.Get(ctx, "dishA")
	require.NoError(t, err)
	assert.Equal(t, 5, d.Quantity)

	_, err = f.store.Carts.Get(ctx, c.ID)
	assert.NoError(t, err)

	res, err := f.svc.ListOrders(ctx, Principal{"root", models.RoleAdmin}, utils.Page{Size: 10, Number: 1})
	require.NoError(t, err)
	assert.Empty(t, res.Orders)
}

func TestCreateOrderSucceedsWhenNotificationFails(t *testing.T) {
	f := newFixture(t)
	f.events.err = errors.New("redis down")
	c := f.cart(t, "alice", models.CartItem{Dish: "dishA", Quantity: 1})

	order, err := f.svc.CreateOrder(context.Background(), "alice", c.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, order.ID)
}

func TestCreateOrderTwiceOnlyConvertsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.cart(t, "alice", models.CartItem{Dish: "dishA", Quantity: 2})

	_, err := f.svc.CreateOrder(ctx, "alice", c.ID)
	require.NoError(t, err)
	_, err = f.svc.CreateOrder(ctx, "alice", c.ID)
	assert.True(t, utils.IsStatus(err, http.StatusBadRequest))

	d, err := f.store.Dishes.Get(ctx, "dishA")
	require.NoError(t, err)
	assert.Equal(t, 3, d.Quantity)
}

func TestCreateOrderConcurrentCheckouts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.cart(t, "alice", models.CartItem{Dish: "dishA", Quantity: 2})

	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.CreateOrder(ctx, "alice", c.ID); err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	d, err := f.store.Dishes.Get(ctx, "dishA")
	require.NoError(t, err)
	assert.Equal(t, 3, d.Quantity)
}

func seedOrders(t *testing.T, f *fixture) {
	t.Helper()
	base := time.Now()
	for i, o := range []models.Order{
		{ID: "o1", User: "alice", CookID: "cookX"},
		{ID: "o2", User: "alice", CookID: "cookY"},
		{ID: "o3", User: "bob", CookID: "cookX"},
	} {
		o := o
		o.CreatedAt = base.Add(time.Duration(i) * time.Second)
		require.NoError(t, f.store.Orders.Insert(context.Background(), &o))
	}
}

func TestListOrdersIsRoleScoped(t *testing.T) {
	f := newFixture(t)
	seedOrders(t, f)
	ctx := context.Background()
	page := utils.Page{Size: 10, Number: 1}

	res, err := f.svc.ListOrders(ctx, Principal{"alice", models.RoleCustomer}, page)
	require.NoError(t, err)
	assert.Len(t, res.Orders, 2)
	for _, o := range res.Orders {
		assert.Equal(t, "alice", o.User)
	}

	res, err = f.svc.ListOrders(ctx, Principal{"cookX", models.RoleCook}, page)
	require.NoError(t, err)
	assert.Len(t, res.Orders, 2)

	res, err = f.svc.ListOrders(ctx, Principal{"root", models.RoleAdmin}, utils.Page{Size: 2, Number: 2})
	require.NoError(t, err)
	assert.Len(t, res.Orders, 1)
	assert.Equal(t, 2, res.Page)
	assert.Equal(t, 2, res.Pages)

	_, err = f.svc.ListOrders(ctx, Principal{"x", "courier"}, page)
	assert.True(t, utils.IsStatus(err, http.StatusBadRequest))
}

func TestGetOrderHidesOthersOrders(t *testing.T) {
	f := newFixture(t)
	seedOrders(t, f)
	ctx := context.Background()

	_, err := f.svc.GetOrder(ctx, Principal{"alice", models.RoleCustomer}, "o3")
	assert.True(t, utils.IsStatus(err, http.StatusNotFound))

	_, err = f.svc.GetOrder(ctx, Principal{"cookY", models.RoleCook}, "o1")
	assert.True(t, utils.IsStatus(err, http.StatusNotFound))

	o, err := f.svc.GetOrder(ctx, Principal{"root", models.RoleAdmin}, "o3")
	require.NoError(t, err)
	assert.Equal(t, "bob", o.User)

	_, err = f.svc.GetOrder(ctx, Principal{"root", models.RoleAdmin}, "missing")
	assert.True(t, utils.IsStatus(err, http.StatusNotFound))
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t)
	seedOrders(t, f)
	ctx := context.Background()
	yes, no := true, false

	o, err := f.svc.UpdateStatus(ctx, Principal{"cookX", models.RoleCook}, "o1", StatusUpdate{IsDelivered: &yes})
	require.NoError(t, err)
	assert.True(t, o.IsDelivered)
	assert.NotNil(t, o.DeliveredAt)
	assert.False(t, o.IsPaid)

	o, err = f.svc.UpdateStatus(ctx, Principal{"root", models.RoleAdmin}, "o1", StatusUpdate{IsPaid: &yes, IsDelivered: &no})
	require.NoError(t, err)
	assert.True(t, o.IsPaid)
	assert.NotNil(t, o.PaidAt)
	assert.False(t, o.IsDelivered)
	assert.Nil(t, o.DeliveredAt)

	_, err = f.svc.UpdateStatus(ctx, Principal{"cookY", models.RoleCook}, "o1", StatusUpdate{IsPaid: &no})
	assert.True(t, utils.IsStatus(err, http.StatusNotFound))

	_, err = f.svc.UpdateStatus(ctx, Principal{"alice", models.RoleCustomer}, "o1", StatusUpdate{IsPaid: &no})
	assert.True(t, utils.IsStatus(err, http.StatusNotFound))

	stored, err := f.store.Orders.Get(ctx, "o1")
	require.NoError(t, err)
	assert.True(t, stored.IsPaid)

	require.Len(t, f.events.events, 2)
	assert.Equal(t, EventOrderStatus, f.events.events[1].Type)
}

func TestReceiptRendersPDF(t *testing.T) {
	f := newFixture(t)
	c := f.cart(t, "alice", models.CartItem{Dish: "dishA", Quantity: 1})
	order, err := f.svc.CreateOrder(context.Background(), "alice", c.ID)
	require.NoError(t, err)

	pdf, err := f.svc.Receipt(context.Background(), Principal{"alice", models.RoleCustomer}, order.ID)
	require.NoError(t, err)
	assert.True(t, len(pdf) > 4 && string(pdf[:4]) == "%PDF")

	_, err = f.svc.Receipt(context.Background(), Principal{"bob", models.RoleCustomer}, order.ID)
	assert.True(t, utils.IsStatus(err, http.StatusNotFound))
}

func TestLocalLockerExpires(t *testing.T) {
	l := &localLocker{held: map[string]localLock{}}
	ctx := context.Background()

	token, err := l.Acquire(ctx, "k", time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	again, _ := l.Acquire(ctx, "k", time.Hour)
	assert.Empty(t, again)

	l.Release(ctx, "k", token)
	token, _ = l.Acquire(ctx, "k", -time.Second)
	assert.NotEmpty(t, token)
	token, _ = l.Acquire(ctx, "k", time.Hour)
	assert.NotEmpty(t, token)
}

func TestLocalLockerReleaseKeepsNewHolder(t *testing.T) {
	l := &localLocker{held: map[string]localLock{}}
	ctx := context.Background()

	stale, err := l.Acquire(ctx, "k", -time.Second)
	require.NoError(t, err)
	current, err := l.Acquire(ctx, "k", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, current)

	l.Release(ctx, "k", stale)
	blocked, _ := l.Acquire(ctx, "k", time.Hour)
	assert.Empty(t, blocked)

	l.Release(ctx, "k", current)
	next, _ := l.Acquire(ctx, "k", time.Hour)
	assert.NotEmpty(t, next)
}
