package routes

import (
	"homecook/auth"
	"homecook/cart"
	"homecook/dishes"
	"homecook/inventory"
	"homecook/orders"
	"homecook/ratelim"
	"homecook/reviews"
	"homecook/store"

	"github.com/julienschmidt/httprouter"
)

// Handlers bundles the HTTP handlers registered on the router.
type Handlers struct {
	Auth    *auth.Handler
	Dishes  *dishes.Handler
	Reviews *reviews.Handler
	Cart    *cart.Handler
	Orders  *orders.Handler
}

// NewHandlers builds every service on top of st.
func NewHandlers(st *store.Store, orderOpts ...orders.Option) Handlers {
	return Handlers{
		Auth:    auth.NewHandler(auth.NewService(st)),
		Dishes:  dishes.NewHandler(dishes.NewService(st)),
		Reviews: reviews.NewHandler(reviews.NewService(st)),
		Cart:    cart.NewHandler(cart.NewEngine(st.Carts, st.Users, inventory.New(st.Dishes))),
		Orders:  orders.NewHandler(orders.NewService(st, orderOpts...)),
	}
}

func RoutesWrapper(router *httprouter.Router, h Handlers, rateLimiter *ratelim.RateLimiter) {
	AddAuthRoutes(router, h.Auth, rateLimiter)
	AddDishRoutes(router, h.Dishes, rateLimiter)
	AddReviewRoutes(router, h.Reviews, rateLimiter)
	AddCartRoutes(router, h.Cart, rateLimiter)
	AddOrderRoutes(router, h.Orders, rateLimiter)
}
