package routes

import (
	"homecook/auth"
	"homecook/cart"
	"homecook/dishes"
	"homecook/middleware"
	"homecook/models"
	"homecook/orders"
	"homecook/ratelim"
	"homecook/reviews"

	"github.com/julienschmidt/httprouter"
)

func AddAuthRoutes(router *httprouter.Router, h *auth.Handler, rateLimiter *ratelim.RateLimiter) {
	router.POST("/api/auth/register", rateLimiter.Limit(h.Register))
	router.POST("/api/auth/login", rateLimiter.Limit(h.Login))

	router.GET("/api/users/me", middleware.Chain(rateLimiter.Limit, middleware.Authenticate)(h.Me))
	router.PUT("/api/users/me/address", middleware.Chain(rateLimiter.Limit, middleware.Authenticate)(h.UpdateAddress))

	admin := middleware.Chain(rateLimiter.Limit, middleware.Authenticate, middleware.RequireRoles(models.RoleAdmin))
	router.GET("/api/admin/users", admin(h.ListUsers))
	router.GET("/api/admin/users/:userID", admin(h.GetUser))
	router.DELETE("/api/admin/users/:userID", admin(h.DeleteUser))
}

func AddDishRoutes(router *httprouter.Router, h *dishes.Handler, rateLimiter *ratelim.RateLimiter) {
	router.GET("/api/dish", middleware.Chain(rateLimiter.Limit, middleware.OptionalAuth)(h.GetDishes))
	router.GET("/api/dish/:dishID", rateLimiter.Limit(h.GetDish))

	router.POST("/api/dish",
		middleware.Chain(
			rateLimiter.Limit,
			middleware.Authenticate,
			middleware.RequireRoles(models.RoleCook),
		)(h.CreateDish),
	)
	router.PUT("/api/dish/:dishID",
		middleware.Chain(
			rateLimiter.Limit,
			middleware.Authenticate,
			middleware.RequireRoles(models.RoleCook, models.RoleAdmin),
		)(h.UpdateDish),
	)
	router.DELETE("/api/dish/:dishID",
		middleware.Chain(
			rateLimiter.Limit,
			middleware.Authenticate,
			middleware.RequireRoles(models.RoleCook, models.RoleAdmin),
		)(h.DeleteDish),
	)

	router.POST("/api/admin/dishes",
		middleware.Chain(
			rateLimiter.Limit,
			middleware.Authenticate,
			middleware.RequireRoles(models.RoleAdmin),
		)(h.CreateDish),
	)
}

func AddReviewRoutes(router *httprouter.Router, h *reviews.Handler, rateLimiter *ratelim.RateLimiter) {
	chain := func(roles ...string) func(httprouter.Handle) httprouter.Handle {
		return middleware.Chain(rateLimiter.Limit, middleware.Authenticate, middleware.RequireRoles(roles...))
	}

	router.GET("/api/dish/:dishID/reviews", rateLimiter.Limit(h.GetReviews))
	router.POST("/api/dish/:dishID/reviews", chain(models.RoleCustomer)(h.AddReview))
	router.PUT("/api/review/:reviewID", chain(models.RoleCustomer)(h.EditReview))
	router.DELETE("/api/review/:reviewID", chain(models.RoleCustomer, models.RoleAdmin)(h.DeleteReview))
	router.DELETE("/api/admin/review/:reviewID", chain(models.RoleAdmin)(h.DeleteReview))
}

func AddCartRoutes(router *httprouter.Router, h *cart.Handler, rateLimiter *ratelim.RateLimiter) {
	customer := middleware.Chain(
		rateLimiter.Limit,
		middleware.Authenticate,
		middleware.RequireRoles(models.RoleCustomer),
	)

	router.POST("/api/cart", customer(h.AddToCart))
	router.GET("/api/cart", customer(h.GetCart))
	router.DELETE("/api/cart", customer(h.ClearCart))
	router.PUT("/api/cart/:dishID", customer(h.UpdateCartItem))
	router.DELETE("/api/cart/:dishID", customer(h.RemoveCartItem))
}

func AddOrderRoutes(router *httprouter.Router, h *orders.Handler, rateLimiter *ratelim.RateLimiter) {
	chain := func(roles ...string) func(httprouter.Handle) httprouter.Handle {
		return middleware.Chain(rateLimiter.Limit, middleware.Authenticate, middleware.RequireRoles(roles...))
	}

	router.POST("/api/order/:cartID", chain(models.RoleCustomer)(h.CreateOrder))
	router.GET("/api/order", chain(models.RoleCustomer, models.RoleCook)(h.GetOrders))
	router.GET("/api/order/:orderID", chain(models.RoleCustomer, models.RoleCook, models.RoleAdmin)(h.GetOrder))
	router.PUT("/api/order/:orderID", chain(models.RoleCook, models.RoleAdmin)(h.UpdateOrderStatus))
	router.GET("/api/order/:orderID/receipt", chain(models.RoleCustomer, models.RoleCook, models.RoleAdmin)(h.DownloadReceipt))

	router.GET("/api/admin/orders", chain(models.RoleAdmin)(h.GetOrders))
}
