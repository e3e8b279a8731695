package orders

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"homecook/inventory"
	"homecook/models"
	"homecook/store"
	"homecook/utils"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	EventOrderCreated = "order.created"
	EventOrderStatus  = "order.status"

	checkoutLockTTL = 30 * time.Second
)

var tracer = otel.Tracer("homecook/orders")

// Publisher delivers order events to whoever notifies cooks.
type Publisher interface {
	Publish(ctx context.Context, event models.OrderEvent) error
}

// Locker guards a key for a short time. The Redis implementation lives in rdx.
type Locker interface {
	// Acquire returns a token naming the new holder, or "" when key is held.
	Acquire(ctx context.Context, key string, ttl time.Duration) (string, error)
	// Release frees key only while token still holds it.
	Release(ctx context.Context, key, token string)
}

type Service struct {
	store       *store.Store
	dishes      *inventory.Accessor
	events      Publisher
	locks       Locker
	deliveryFee decimal.Decimal
	now         func() time.Time
}

type Option func(*Service)

func WithPublisher(p Publisher) Option { return func(s *Service) { s.events = p } }

func WithLocker(l Locker) Option { return func(s *Service) { s.locks = l } }

func WithDeliveryFee(fee float64) Option {
	return func(s *Service) { s.deliveryFee = decimal.NewFromFloat(fee) }
}

func NewService(st *store.Store, opts ...Option) *Service {
	s := &Service{
		store:       st,
		dishes:      inventory.New(st.Dishes),
		locks:       &localLocker{held: map[string]localLock{}},
		deliveryFee: decimal.Zero,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateOrder converts the customer's cart into an order. The order insert,
// the stock decrements and the cart delete commit together; the cook is
// notified afterwards and a failed notification does not fail the checkout.
func (s *Service) CreateOrder(ctx context.Context, customerID, cartID string) (*models.Order, error) {
	ctx, span := tracer.Start(ctx, "orders.CreateOrder")
	defer span.End()
	span.SetAttributes(attribute.String("cart.id", cartID))

	lockKey := "checkout_lock:" + cartID
	token, err := s.locks.Acquire(ctx, lockKey, checkoutLockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire checkout lock: %w", err)
	}
	if token == "" {
		return nil, utils.Conflict("Checkout for this cart is already in progress")
	}
	defer s.locks.Release(context.WithoutCancel(ctx), lockKey, token)

	customer, err := s.store.Users.Get(ctx, customerID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, utils.Unauthorized("User not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load customer: %w", err)
	}

	var order *models.Order
	err = s.store.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		cart, err := s.store.Carts.Get(ctx, cartID)
		if errors.Is(err, store.ErrNotFound) {
			return utils.BadRequest("Cart not found!")
		}
		if err != nil {
			return fmt.Errorf("load cart: %w", err)
		}
		if cart.User != customerID {
			return utils.Forbidden("You are not allowed to do this!")
		}
		if cart.Empty() {
			return utils.BadRequest("You have no items in the cart!")
		}

		order, err = s.buildOrder(ctx, cart, customer)
		if err != nil {
			return err
		}
		if err := s.store.Orders.Insert(ctx, order); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		for _, item := range order.OrderItems {
			if _, err := s.dishes.Decrement(ctx, item.Dish, item.Quantity); err != nil {
				return err
			}
		}
		if err := s.store.Carts.Delete(ctx, cart.ID); err != nil {
			return fmt.Errorf("delete cart: %w", err)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "checkout failed")
		return nil, err
	}

	span.SetAttributes(attribute.String("order.id", order.ID), attribute.Float64("order.total", order.TotalOrderPrice))
	s.publish(ctx, EventOrderCreated, order)
	return order, nil
}

// buildOrder snapshots the cart lines at current dish prices.
func (s *Service) buildOrder(ctx context.Context, cart *models.Cart, customer *models.User) (*models.Order, error) {
	total := decimal.Zero
	items := make([]models.OrderItem, 0, len(cart.CartItems))
	for _, ci := range cart.CartItems {
		dish, err := s.dishes.Get(ctx, ci.Dish)
		if err != nil {
			return nil, err
		}
		items = append(items, models.OrderItem{
			Dish:     dish.ID,
			Name:     dish.Name,
			Quantity: ci.Quantity,
			Price:    dish.Price,
		})
		total = total.Add(utils.LineTotal(ci.Quantity, dish.Price))
	}

	var cookID string
	if cart.CookID != nil {
		cookID = *cart.CookID
	}
	now := s.now()
	return &models.Order{
		ID:                utils.GetUUID(),
		User:              customer.ID,
		CookID:            cookID,
		OrderItems:        items,
		DeliveryFee:       utils.Money(s.deliveryFee),
		TotalOrderPrice:   utils.Money(total.Add(s.deliveryFee)),
		DeliveryAddress:   customer.Address.String(),
		PaymentMethodType: models.PaymentCash,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

type ListResult struct {
	Orders []models.Order `json:"orders"`
	Page   int            `json:"page"`
	Pages  int            `json:"pages"`
}

// ListOrders returns the page of orders p may see.
func (s *Service) ListOrders(ctx context.Context, p Principal, page utils.Page) (*ListResult, error) {
	if err := Authorize(p, ActionList, nil); err != nil {
		return nil, err
	}
	orders, count, err := s.store.Orders.List(ctx, listFilter(p), page)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return &ListResult{Orders: orders, Page: page.Number, Pages: page.Pages(count)}, nil
}

// GetOrder returns the order when p may read it, 404 otherwise.
func (s *Service) GetOrder(ctx context.Context, p Principal, orderID string) (*models.Order, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := Authorize(p, ActionRead, order); err != nil {
		return nil, err
	}
	return order, nil
}

type StatusUpdate struct {
	IsPaid      *bool `json:"isPaid"`
	IsDelivered *bool `json:"isDelivered"`
}

// UpdateStatus sets the paid and delivered flags that are present in u.
// The two flags are independent.
func (s *Service) UpdateStatus(ctx context.Context, p Principal, orderID string, u StatusUpdate) (*models.Order, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := Authorize(p, ActionUpdateStatus, order); err != nil {
		return nil, err
	}

	now := s.now()
	if u.IsPaid != nil {
		if *u.IsPaid && !order.IsPaid {
			order.PaidAt = &now
		} else if !*u.IsPaid {
			order.PaidAt = nil
		}
		order.IsPaid = *u.IsPaid
	}
	if u.IsDelivered != nil {
		if *u.IsDelivered && !order.IsDelivered {
			order.DeliveredAt = &now
		} else if !*u.IsDelivered {
			order.DeliveredAt = nil
		}
		order.IsDelivered = *u.IsDelivered
	}
	order.UpdatedAt = now

	if err := s.store.Orders.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}
	s.publish(ctx, EventOrderStatus, order)
	return order, nil
}

// Receipt renders the order as a PDF for anyone allowed to read it.
func (s *Service) Receipt(ctx context.Context, p Principal, orderID string) ([]byte, error) {
	order, err := s.GetOrder(ctx, p, orderID)
	if err != nil {
		return nil, err
	}
	return RenderReceipt(order)
}

func (s *Service) load(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.store.Orders.Get(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, utils.NotFound("There is no order associated with this id %s", orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}
	return order, nil
}

func (s *Service) publish(ctx context.Context, eventType string, o *models.Order) {
	if s.events == nil {
		return
	}
	event := models.OrderEvent{
		Type:      eventType,
		OrderID:   o.ID,
		CookID:    o.CookID,
		UserID:    o.User,
		Total:     o.TotalOrderPrice,
		Items:     len(o.OrderItems),
		CreatedAt: s.now(),
	}
	if err := s.events.Publish(context.WithoutCancel(ctx), event); err != nil {
		log.Printf("orders: publish %s for %s failed: %v", eventType, o.ID, err)
	}
}

// localLocker is the single-process fallback when Redis is not configured.
type localLocker struct {
	mu   sync.Mutex
	held map[string]localLock
}

type localLock struct {
	token   string
	expires time.Time
}

func (l *localLocker) Acquire(_ context.Context, key string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cur, ok := l.held[key]; ok && time.Now().Before(cur.expires) {
		return "", nil
	}
	token := utils.GetUUID()
	l.held[key] = localLock{token: token, expires: time.Now().Add(ttl)}
	return token, nil
}

func (l *localLocker) Release(_ context.Context, key, token string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cur, ok := l.held[key]; ok && cur.token == token {
		delete(l.held, key)
	}
}
