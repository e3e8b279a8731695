package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"homecook/models"
	"homecook/utils"
)

// Memory is an in-process Store used with STORE=memory and in tests.
// Documents are copied on the way in and out, like a real document store.
type Memory struct {
	mu      sync.RWMutex
	txMu    sync.Mutex
	dishes  map[string]models.Dish
	carts   map[string]models.Cart // keyed by user id
	orders  map[string]models.Order
	users   map[string]models.User
	reviews map[string]models.Review
}

func NewMemory() *Memory {
	return &Memory{
		dishes:  map[string]models.Dish{},
		carts:   map[string]models.Cart{},
		orders:  map[string]models.Order{},
		users:   map[string]models.User{},
		reviews: map[string]models.Review{},
	}
}

// Store exposes the memory backend through the Store ports.
func (m *Memory) Store() *Store {
	return &Store{
		Dishes:  memDishes{m},
		Carts:   memCarts{m},
		Orders:  memOrders{m},
		Users:   memUsers{m},
		Reviews: memReviews{m},
		Tx:      m,
	}
}

type undoKey struct{}

// undoLog holds, in write order, how to put back every key a transaction
// touched. It is only appended to while Memory.mu is held.
type undoLog struct {
	steps []func()
}

// WithTransaction serializes transactions. When fn fails, only the keys fn
// wrote are restored, so writes made outside the transaction survive.
func (m *Memory) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	undo := &undoLog{}
	if err := fn(context.WithValue(ctx, undoKey{}, undo)); err != nil {
		m.mu.Lock()
		for i := len(undo.steps) - 1; i >= 0; i-- {
			undo.steps[i]()
		}
		m.mu.Unlock()
		return err
	}
	return nil
}

// track records the current value of coll[key] in the transaction bound to
// ctx, if any. Callers hold m.mu for writing.
func track[V any](ctx context.Context, coll map[string]V, key string) {
	undo, ok := ctx.Value(undoKey{}).(*undoLog)
	if !ok {
		return
	}
	prev, existed := coll[key]
	undo.steps = append(undo.steps, func() {
		if existed {
			coll[key] = prev
		} else {
			delete(coll, key)
		}
	})
}

func cloneDish(d models.Dish) models.Dish {
	d.Images = append([]string(nil), d.Images...)
	d.SpecificAllergies = append([]string(nil), d.SpecificAllergies...)
	return d
}

func cloneCart(c models.Cart) models.Cart {
	c.CartItems = append([]models.CartItem{}, c.CartItems...)
	if c.CookID != nil {
		cook := *c.CookID
		c.CookID = &cook
	}
	return c
}

func cloneOrder(o models.Order) models.Order {
	o.OrderItems = append([]models.OrderItem{}, o.OrderItems...)
	if o.PaidAt != nil {
		t := *o.PaidAt
		o.PaidAt = &t
	}
	if o.DeliveredAt != nil {
		t := *o.DeliveredAt
		o.DeliveredAt = &t
	}
	return o
}

func paginate[T any](items []T, p utils.Page) []T {
	start := p.Skip()
	if p.Size <= 0 || start < 0 || start >= int64(len(items)) {
		return []T{}
	}
	end := int(start) + p.Size
	if end > len(items) {
		end = len(items)
	}
	return items[int(start):end]
}

type memDishes struct{ m *Memory }

func (s memDishes) Get(_ context.Context, id string) (*models.Dish, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	d, ok := s.m.dishes[id]
	if !ok {
		return nil, ErrNotFound
	}
	d = cloneDish(d)
	return &d, nil
}

func (s memDishes) Insert(ctx context.Context, d *models.Dish) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.dishes[d.ID]; ok {
		return ErrDuplicate
	}
	track(ctx, s.m.dishes, d.ID)
	s.m.dishes[d.ID] = cloneDish(*d)
	return nil
}

func (s memDishes) Update(ctx context.Context, id string, u DishUpdate) (*models.Dish, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	d, ok := s.m.dishes[id]
	if !ok {
		return nil, ErrNotFound
	}
	track(ctx, s.m.dishes, id)
	d = cloneDish(d)
	u.apply(&d)
	d.UpdatedAt = time.Now()
	s.m.dishes[id] = d
	d = cloneDish(d)
	return &d, nil
}

func (s memDishes) Delete(ctx context.Context, id string) (*models.Dish, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	d, ok := s.m.dishes[id]
	if !ok {
		return nil, ErrNotFound
	}
	track(ctx, s.m.dishes, id)
	delete(s.m.dishes, id)
	return &d, nil
}

func (s memDishes) List(_ context.Context, f DishFilter, p utils.Page) ([]models.Dish, int64, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	var out []models.Dish
	for _, d := range s.m.dishes {
		if f.Cook != "" && d.Cook != f.Cook {
			continue
		}
		if f.Cooks != nil && !utils.Contains(f.Cooks, d.Cook) {
			continue
		}
		if f.Category != "" && !strings.EqualFold(d.Category, f.Category) {
			continue
		}
		out = append(out, cloneDish(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, p), int64(len(out)), nil
}

func (s memDishes) Decrement(ctx context.Context, id string, qty int) (*models.Dish, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	d, ok := s.m.dishes[id]
	if !ok {
		return nil, ErrNotFound
	}
	if d.Quantity < qty {
		return nil, ErrInsufficient
	}
	track(ctx, s.m.dishes, id)
	d.Quantity -= qty
	d.SoldOut = d.Quantity <= 0
	s.m.dishes[id] = d
	d = cloneDish(d)
	return &d, nil
}

type memCarts struct{ m *Memory }

func (s memCarts) Get(_ context.Context, id string) (*models.Cart, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	for _, c := range s.m.carts {
		if c.ID == id {
			c = cloneCart(c)
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (s memCarts) GetByUser(_ context.Context, userID string) (*models.Cart, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	c, ok := s.m.carts[userID]
	if !ok {
		return nil, ErrNotFound
	}
	c = cloneCart(c)
	return &c, nil
}

func (s memCarts) Save(ctx context.Context, c *models.Cart) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if existing, ok := s.m.carts[c.User]; ok && existing.ID != c.ID {
		return ErrDuplicate
	}
	track(ctx, s.m.carts, c.User)
	s.m.carts[c.User] = cloneCart(*c)
	return nil
}

func (s memCarts) Delete(ctx context.Context, id string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for user, c := range s.m.carts {
		if c.ID == id {
			track(ctx, s.m.carts, user)
			delete(s.m.carts, user)
		}
	}
	return nil
}

func (s memCarts) DeleteByUser(ctx context.Context, userID string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	track(ctx, s.m.carts, userID)
	delete(s.m.carts, userID)
	return nil
}

type memOrders struct{ m *Memory }

func (s memOrders) Insert(ctx context.Context, o *models.Order) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.orders[o.ID]; ok {
		return ErrDuplicate
	}
	track(ctx, s.m.orders, o.ID)
	s.m.orders[o.ID] = cloneOrder(*o)
	return nil
}

func (s memOrders) Get(_ context.Context, id string) (*models.Order, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	o, ok := s.m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	o = cloneOrder(o)
	return &o, nil
}

func (s memOrders) Update(ctx context.Context, o *models.Order) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.orders[o.ID]; !ok {
		return ErrNotFound
	}
	track(ctx, s.m.orders, o.ID)
	s.m.orders[o.ID] = cloneOrder(*o)
	return nil
}

func (s memOrders) List(_ context.Context, f OrderFilter, p utils.Page) ([]models.Order, int64, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	var out []models.Order
	for _, o := range s.m.orders {
		if f.User != "" && o.User != f.User {
			continue
		}
		if f.CookID != "" && o.CookID != f.CookID {
			continue
		}
		out = append(out, cloneOrder(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, p), int64(len(out)), nil
}

func (s memOrders) HasDelivered(_ context.Context, userID, dishID string) (bool, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	for _, o := range s.m.orders {
		if o.User != userID || !o.IsDelivered {
			continue
		}
		for _, item := range o.OrderItems {
			if item.Dish == dishID {
				return true, nil
			}
		}
	}
	return false, nil
}

type memUsers struct{ m *Memory }

func (s memUsers) Get(_ context.Context, id string) (*models.User, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	u, ok := s.m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	for _, u := range s.m.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s memUsers) Insert(ctx context.Context, u *models.User) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.users[u.ID]; ok {
		return ErrDuplicate
	}
	for _, existing := range s.m.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return ErrDuplicate
		}
	}
	track(ctx, s.m.users, u.ID)
	s.m.users[u.ID] = *u
	return nil
}

func (s memUsers) UpdateAddress(ctx context.Context, id string, addr models.Address) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	u, ok := s.m.users[id]
	if !ok {
		return ErrNotFound
	}
	track(ctx, s.m.users, id)
	u.Address = addr
	u.UpdatedAt = time.Now()
	s.m.users[id] = u
	return nil
}

func (f UserFilter) matches(u models.User) bool {
	return (f.Role == "" || u.Role == f.Role) &&
		(f.City == "" || utils.SameCity(u.Address.City, f.City)) &&
		(f.District == "" || utils.SameCity(u.Address.District, f.District))
}

func (s memUsers) List(_ context.Context, f UserFilter, p utils.Page) ([]models.User, int64, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	var out []models.User
	for _, u := range s.m.users {
		if f.matches(u) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, p), int64(len(out)), nil
}

func (s memUsers) IDs(_ context.Context, f UserFilter) ([]string, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	ids := []string{}
	for _, u := range s.m.users {
		if f.matches(u) {
			ids = append(ids, u.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (s memUsers) Delete(ctx context.Context, id string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.users[id]; !ok {
		return ErrNotFound
	}
	track(ctx, s.m.users, id)
	delete(s.m.users, id)
	return nil
}

type memReviews struct{ m *Memory }

func (s memReviews) Get(_ context.Context, id string) (*models.Review, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	r, ok := s.m.reviews[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (s memReviews) Insert(ctx context.Context, r *models.Review) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, existing := range s.m.reviews {
		if existing.ID == r.ID || (existing.Dish == r.Dish && existing.User == r.User) {
			return ErrDuplicate
		}
	}
	track(ctx, s.m.reviews, r.ID)
	s.m.reviews[r.ID] = *r
	return nil
}

func (s memReviews) Update(ctx context.Context, id string, u ReviewUpdate) (*models.Review, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	r, ok := s.m.reviews[id]
	if !ok {
		return nil, ErrNotFound
	}
	track(ctx, s.m.reviews, id)
	if u.Rating != nil {
		r.Rating = *u.Rating
	}
	if u.Comment != nil {
		r.Comment = *u.Comment
	}
	r.UpdatedAt = time.Now()
	s.m.reviews[id] = r
	return &r, nil
}

func (s memReviews) Delete(ctx context.Context, id string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.reviews[id]; !ok {
		return ErrNotFound
	}
	track(ctx, s.m.reviews, id)
	delete(s.m.reviews, id)
	return nil
}

func (s memReviews) DeleteByDish(ctx context.Context, dishID string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for id, r := range s.m.reviews {
		if r.Dish == dishID {
			track(ctx, s.m.reviews, id)
			delete(s.m.reviews, id)
		}
	}
	return nil
}

func (s memReviews) ListByDish(_ context.Context, dishID string, p utils.Page) ([]models.Review, int64, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	var out []models.Review
	for _, r := range s.m.reviews {
		if r.Dish == dishID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, p), int64(len(out)), nil
}

func (s memReviews) Ratings(_ context.Context, dishID string) (float64, int, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	total, n := 0, 0
	for _, r := range s.m.reviews {
		if r.Dish == dishID {
			total += r.Rating
			n++
		}
	}
	if n == 0 {
		return 0, 0, nil
	}
	return float64(total) / float64(n), n, nil
}
