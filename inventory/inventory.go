// Package inventory reads and adjusts dish stock.
package inventory

import (
	"context"
	"errors"
	"fmt"

	"homecook/models"
	"homecook/store"
	"homecook/utils"
)

type Accessor struct {
	dishes store.Dishes
}

func New(dishes store.Dishes) *Accessor {
	return &Accessor{dishes: dishes}
}

// Get returns the dish or a 400 "Dish not found!" error.
func (a *Accessor) Get(ctx context.Context, dishID string) (*models.Dish, error) {
	dish, err := a.dishes.Get(ctx, dishID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, utils.BadRequest("Dish not found!")
	}
	if err != nil {
		return nil, fmt.Errorf("load dish %s: %w", dishID, err)
	}
	return dish, nil
}

// Decrement takes qty units out of stock.
func (a *Accessor) Decrement(ctx context.Context, dishID string, qty int) (*models.Dish, error) {
	if qty <= 0 {
		return nil, utils.BadRequest("Quantity is not available for this dish!")
	}
	dish, err := a.dishes.Decrement(ctx, dishID, qty)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, utils.BadRequest("Dish not found!")
	case errors.Is(err, store.ErrInsufficient):
		return nil, utils.Conflict("Quantity is not available for dish %s", dishID)
	case err != nil:
		return nil, fmt.Errorf("decrement dish %s: %w", dishID, err)
	}
	return dish, nil
}

// SetQuantity restocks a dish. Only quantity and soldOut are written, so
// other fields of the stored dish are never overwritten.
func (a *Accessor) SetQuantity(ctx context.Context, dishID string, qty int) (*models.Dish, error) {
	if qty < 0 {
		return nil, utils.BadRequest("Quantity can not be negative")
	}
	dish, err := a.dishes.Update(ctx, dishID, store.DishUpdate{Quantity: &qty})
	if errors.Is(err, store.ErrNotFound) {
		return nil, utils.BadRequest("Dish not found!")
	}
	if err != nil {
		return nil, fmt.Errorf("set quantity of dish %s: %w", dishID, err)
	}
	return dish, nil
}
