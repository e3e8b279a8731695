package cart

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"homecook/inventory"
	"homecook/models"
	"homecook/store"
	"homecook/utils"

	"github.com/shopspring/decimal"
)

const msgQuantityNotAvailable = "Quantity is not available for this dish!"

// Engine owns the single active cart of each customer.
type Engine struct {
	carts  store.Carts
	users  store.Users
	dishes *inventory.Accessor
	now    func() time.Time
}

func NewEngine(carts store.Carts, users store.Users, dishes *inventory.Accessor) *Engine {
	return &Engine{carts: carts, users: users, dishes: dishes, now: time.Now}
}

// AddItem puts quantity units of dishID in the customer's cart, creating the
// cart when needed. Requests above stock are clamped to what is available.
func (e *Engine) AddItem(ctx context.Context, customerID, dishID string, quantity int) (*models.Cart, error) {
	if CheckQuantity(quantity, 1) == QuantityInvalid {
		return nil, utils.BadRequest(msgQuantityNotAvailable)
	}

	dish, err := e.dishes.Get(ctx, dishID)
	if err != nil {
		return nil, err
	}

	customer, err := e.user(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if customer.Address.City == "" {
		return nil, utils.BadRequest("Please add your address before adding dishes to the cart")
	}

	cook, err := e.users.Get(ctx, dish.Cook)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, utils.BadRequest("The cook of this dish is not found")
		}
		return nil, fmt.Errorf("load cook %s: %w", dish.Cook, err)
	}
	if !utils.SameCity(cook.Address.City, customer.Address.City) {
		return nil, utils.NotAcceptable("This cook does not deliver to your city")
	}

	cart, err := e.carts.GetByUser(ctx, customerID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		qty, ok := admit(quantity, dish.Quantity)
		if !ok {
			return nil, utils.BadRequest(msgQuantityNotAvailable)
		}
		cookID := dish.Cook
		cart = &models.Cart{
			ID:        utils.GetUUID(),
			User:      customerID,
			CartItems: []models.CartItem{{Dish: dishID, Quantity: qty}},
			CookID:    &cookID,
			CreatedAt: e.now(),
		}
	case err != nil:
		return nil, fmt.Errorf("load cart: %w", err)
	default:
		if !cart.Empty() && cart.CookID != nil && *cart.CookID != dish.Cook {
			return nil, utils.NotAcceptable("You can not add the dishes from different cooks")
		}
		if item := cart.Item(dishID); item != nil {
			qty, ok := admit(item.Quantity+quantity, dish.Quantity)
			if !ok {
				return nil, utils.BadRequest(msgQuantityNotAvailable)
			}
			item.Quantity = qty
		} else {
			qty, ok := admit(quantity, dish.Quantity)
			if !ok {
				return nil, utils.BadRequest(msgQuantityNotAvailable)
			}
			cart.CartItems = append(cart.CartItems, models.CartItem{Dish: dishID, Quantity: qty})
		}
		cookID := dish.Cook
		cart.CookID = &cookID
	}

	return e.recalculateAndSave(ctx, cart)
}

// UpdateItemQuantity sets the quantity of a line exactly. Out of range values are rejected.
func (e *Engine) UpdateItemQuantity(ctx context.Context, customerID, dishID string, quantity int) (*models.Cart, error) {
	dish, err := e.dishes.Get(ctx, dishID)
	if err != nil {
		return nil, err
	}
	cart, err := e.cartFor(ctx, customerID)
	if err != nil {
		return nil, err
	}
	item := cart.Item(dishID)
	if item == nil {
		return nil, utils.BadRequest("Dish is not found inside the cart!")
	}
	if dish.SoldOut || dish.Quantity <= 0 {
		return nil, utils.BadRequest("This dish is sold out!")
	}
	if CheckQuantity(quantity, dish.Quantity) != QuantityAvailable {
		return nil, utils.BadRequest("Quantity must be between 1 and %d", dish.Quantity)
	}

	item.Quantity = quantity
	return e.recalculateAndSave(ctx, cart)
}

// RemoveItem takes one unit of dishID out of the cart, dropping the line at zero.
func (e *Engine) RemoveItem(ctx context.Context, customerID, dishID string) (*models.Cart, error) {
	dish, err := e.dishes.Get(ctx, dishID)
	if err != nil {
		return nil, err
	}
	cart, err := e.cartFor(ctx, customerID)
	if err != nil {
		return nil, err
	}
	item := cart.Item(dishID)
	if item == nil {
		return nil, utils.BadRequest("Dish is not found inside the cart!")
	}

	total := decimal.NewFromFloat(cart.TotalCartPrice).Sub(decimal.NewFromFloat(dish.Price))
	if total.IsNegative() {
		total = decimal.Zero
	}
	cart.TotalCartPrice = utils.Money(total)

	if item.Quantity > 1 {
		item.Quantity--
	} else {
		cart.RemoveItem(dishID)
	}

	cart.UpdatedAt = e.now()
	if err := e.carts.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return cart, nil
}

// GetCart returns the customer's cart or 404.
func (e *Engine) GetCart(ctx context.Context, customerID string) (*models.Cart, error) {
	cart, err := e.carts.GetByUser(ctx, customerID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, utils.NotFound("There is no cart for this user")
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return cart, nil
}

// ClearCart deletes the customer's cart. Missing carts are not an error.
func (e *Engine) ClearCart(ctx context.Context, customerID string) error {
	if err := e.carts.DeleteByUser(ctx, customerID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// total sums quantity × current dish price over the cart lines.
// Lines whose dish no longer exists are skipped.
func (e *Engine) total(ctx context.Context, cart *models.Cart) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, item := range cart.CartItems {
		dish, err := e.dishes.Get(ctx, item.Dish)
		if utils.IsStatus(err, http.StatusBadRequest) {
			log.Printf("cart %s: dish %s vanished, skipped in total", cart.ID, item.Dish)
			continue
		}
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(utils.LineTotal(item.Quantity, dish.Price))
	}
	return total, nil
}

func (e *Engine) recalculateAndSave(ctx context.Context, cart *models.Cart) (*models.Cart, error) {
	total, err := e.total(ctx, cart)
	if err != nil {
		return nil, err
	}
	cart.TotalCartPrice = utils.Money(total)
	cart.UpdatedAt = e.now()

	if err := e.carts.Save(ctx, cart); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, utils.Conflict("Your cart was changed by another request, please retry")
		}
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return cart, nil
}

func (e *Engine) cartFor(ctx context.Context, customerID string) (*models.Cart, error) {
	cart, err := e.carts.GetByUser(ctx, customerID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, utils.BadRequest("Cart is not found!")
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return cart, nil
}

func (e *Engine) user(ctx context.Context, id string) (*models.User, error) {
	u, err := e.users.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, utils.Unauthorized("User not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", id, err)
	}
	return u, nil
}
