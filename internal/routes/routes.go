package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/lamarea/storefront/internal/auth"
	"github.com/lamarea/storefront/internal/handlers"
	"github.com/lamarea/storefront/internal/middleware"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	cartHandler *handlers.CartHandler,
	productHandler *handlers.ProductHandler,
	tokenManager *auth.TokenManager,
) {
	// Per-IP rate limiting for credential endpoints; the per-account throttle
	// lives in the auth service
	rateLimitConfig := middleware.DefaultAuthRateLimit()

	router.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/auth/login", authHandler.Login)
	router.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/auth/register", authHandler.Register)
	router.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/auth/resend-verification", authHandler.ResendVerification)
	router.Post("/auth/verify-email", authHandler.VerifyEmail)
	router.Post("/auth/logout", authHandler.Logout)

	// Protected routes - session cookie required
	router.Group(func(r chi.Router) {
		r.Use(auth.SessionMiddleware(tokenManager))
		r.Get("/auth/me", authHandler.Me)
	})

	// Catalog - public reads
	router.Get("/products", productHandler.ListProducts)
	router.Get("/products/{id}", productHandler.GetProduct)

	// Cart - identified by the cartId cookie, no session required
	router.Get("/cart", cartHandler.GetCart)
	router.Post("/cart", cartHandler.AddItem)
	router.Put("/cart", cartHandler.UpdateQuantity)
	router.Delete("/cart", cartHandler.RemoveItem)
	router.Delete("/cart/items", cartHandler.ClearCart)
	router.Post("/cart/merge", cartHandler.MergeCart)
}
