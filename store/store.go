// Package store defines the persistence ports used by the cart and order
// services, with a MongoDB implementation and an in-memory one.
package store

import (
	"context"
	"errors"

	"homecook/models"
	"homecook/utils"
)

var (
	ErrNotFound     = errors.New("store: document not found")
	ErrDuplicate    = errors.New("store: duplicate key")
	ErrInsufficient = errors.New("store: insufficient quantity")
)

type DishFilter struct {
	Cook     string
	Category string
	// Cooks, when non-nil, restricts the listing to dishes of these cooks.
	// An empty non-nil slice matches nothing.
	Cooks []string
}

// DishUpdate names the fields to $set on a dish. Nil fields are left alone,
// so a concurrent Decrement is never overwritten by a stale copy.
type DishUpdate struct {
	Name            *string
	Description     *string
	Category        *string
	Price           *float64
	Quantity        *int // also sets soldOut
	RatingsAverage  *float64
	RatingsQuantity *int
}

func (u DishUpdate) apply(d *models.Dish) {
	if u.Name != nil {
		d.Name = *u.Name
	}
	if u.Description != nil {
		d.Description = *u.Description
	}
	if u.Category != nil {
		d.Category = *u.Category
	}
	if u.Price != nil {
		d.Price = *u.Price
	}
	if u.Quantity != nil {
		d.Quantity = *u.Quantity
		d.SoldOut = *u.Quantity <= 0
	}
	if u.RatingsAverage != nil {
		d.RatingsAverage = *u.RatingsAverage
	}
	if u.RatingsQuantity != nil {
		d.RatingsQuantity = *u.RatingsQuantity
	}
}

type OrderFilter struct {
	User   string
	CookID string
}

type UserFilter struct {
	Role     string
	City     string
	District string
}

// ReviewUpdate names the review fields to $set. Nil fields are left alone.
type ReviewUpdate struct {
	Rating  *int
	Comment *string
}

type Dishes interface {
	Get(ctx context.Context, id string) (*models.Dish, error)
	Insert(ctx context.Context, d *models.Dish) error
	Update(ctx context.Context, id string, u DishUpdate) (*models.Dish, error)
	Delete(ctx context.Context, id string) (*models.Dish, error)
	List(ctx context.Context, f DishFilter, p utils.Page) ([]models.Dish, int64, error)
	// Decrement subtracts qty from the dish quantity only if at least qty
	// units are available, flagging the dish sold out when it reaches zero.
	Decrement(ctx context.Context, id string, qty int) (*models.Dish, error)
}

type Carts interface {
	Get(ctx context.Context, id string) (*models.Cart, error)
	GetByUser(ctx context.Context, userID string) (*models.Cart, error)
	// Save inserts or replaces the cart. A second cart for the same user
	// fails with ErrDuplicate.
	Save(ctx context.Context, c *models.Cart) error
	Delete(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID string) error
}

type Orders interface {
	Insert(ctx context.Context, o *models.Order) error
	Get(ctx context.Context, id string) (*models.Order, error)
	Update(ctx context.Context, o *models.Order) error
	List(ctx context.Context, f OrderFilter, p utils.Page) ([]models.Order, int64, error)
	// HasDelivered reports whether userID has a delivered order containing dishID.
	HasDelivered(ctx context.Context, userID, dishID string) (bool, error)
}

type Users interface {
	Get(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Insert(ctx context.Context, u *models.User) error
	UpdateAddress(ctx context.Context, id string, addr models.Address) error
	List(ctx context.Context, f UserFilter, p utils.Page) ([]models.User, int64, error)
	// IDs returns the ids of every user matching f, unpaged.
	IDs(ctx context.Context, f UserFilter) ([]string, error)
	Delete(ctx context.Context, id string) error
}

type Reviews interface {
	Get(ctx context.Context, id string) (*models.Review, error)
	// Insert fails with ErrDuplicate when the user already reviewed the dish.
	Insert(ctx context.Context, r *models.Review) error
	Update(ctx context.Context, id string, u ReviewUpdate) (*models.Review, error)
	Delete(ctx context.Context, id string) error
	DeleteByDish(ctx context.Context, dishID string) error
	ListByDish(ctx context.Context, dishID string, p utils.Page) ([]models.Review, int64, error)
	// Ratings returns the mean rating and the review count of a dish.
	Ratings(ctx context.Context, dishID string) (float64, int, error)
}

// Transactor runs fn so that every store call made with the context it
// receives commits or rolls back together.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Store struct {
	Dishes  Dishes
	Carts   Carts
	Orders  Orders
	Users   Users
	Reviews Reviews
	Tx      Transactor
}
