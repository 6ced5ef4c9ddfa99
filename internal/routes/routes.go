package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/rcn/internal/config"
	"github.com/example/rcn/internal/handlers"
	"github.com/example/rcn/internal/middleware"
	"github.com/example/rcn/internal/services"
)

// Deps bundles the constructed services handed to the HTTP layer.
type Deps struct {
	Tokens    *services.TokenService
	Sessions  *services.SessionService
	Promos    *services.PromoService
	Referrals *services.ReferralService
}

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config, deps Deps) {
	authHandler := handlers.NewAuthHandler(db, cfg, deps.Referrals)
	customerHandler := handlers.NewCustomerHandler(db, deps.Tokens)
	redemptionHandler := handlers.NewRedemptionHandler(deps.Tokens, deps.Sessions)
	shopHandler := handlers.NewShopHandler(db, deps.Tokens, deps.Referrals, deps.Promos)
	promoHandler := handlers.NewPromoHandler(deps.Promos)

	api := app.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)

	// Public reads
	api.Get("/earned-balance/:address", customerHandler.EarnedBalance)
	api.Post("/redemption/verify", redemptionHandler.Verify)
	api.Get("/redemption-session/:id", redemptionHandler.GetSession)
	api.Post("/promos/validate", promoHandler.Validate)

	// Shop onboarding and admin flags
	shops := api.Group("/shops")
	shops.Post("/", shopHandler.Register)
	shops.Get("/:id", shopHandler.Get)
	shops.Put("/:id", shopHandler.Update)

	// Shop-authenticated operations
	shopAuth := middleware.ShopAuthMiddleware(db)
	api.Post("/shops/reward", shopAuth, shopHandler.Reward)
	api.Post("/referrals/complete", shopAuth, shopHandler.CompleteReferral)
	api.Post("/redemption-session", shopAuth, redemptionHandler.CreateSession)
	api.Post("/redemption-session/:id/use", shopAuth, redemptionHandler.UseSession)
	api.Post("/promos", shopAuth, promoHandler.Create)
	api.Get("/promos", shopAuth, promoHandler.List)
	api.Post("/promos/use", shopAuth, promoHandler.Use)

	// Customer-authenticated routes
	protected := api.Group("", middleware.AuthMiddleware(cfg))
	protected.Get("/customers/me", customerHandler.Me)
	protected.Get("/customers/me/transactions", customerHandler.ListTransactions)
	protected.Post("/tokens/gift", customerHandler.Gift)
	protected.Post("/redemption-session/:id/approve", redemptionHandler.ApproveSession)
	protected.Post("/redemption-session/:id/reject", redemptionHandler.RejectSession)
}
