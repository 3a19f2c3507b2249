package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/spectralabs/spectra-backend/internal/config"
	"github.com/spectralabs/spectra-backend/internal/handlers"
	"github.com/spectralabs/spectra-backend/internal/middleware"
)

type Handlers struct {
	Health       *handlers.HealthHandler
	Submission   *handlers.SubmissionHandler
	Order        *handlers.OrderHandler
	Payment      *handlers.PaymentHandler
	Webhook      *handlers.WebhookHandler
	Subscription *handlers.SubscriptionHandler
	Claim        *handlers.ClaimHandler
	Price        *handlers.PriceHandler
	Access       *handlers.AccessHandler
	Admin        *handlers.AdminHandler
}

func Setup(app *fiber.App, cfg *config.Config, h Handlers) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP. The webhook endpoint is
	// skipped so provider retries are never answered with 429.
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
		Next:              func(c *fiber.Ctx) bool { return c.Path() == "/api/webhooks/stripe" },
	}))

	api.Get("/health", h.Health.Check)

	// Prices
	api.Get("/prices", h.Price.Current)
	api.Get("/prices/history", h.Price.History)
	app.Get("/ws/prices", h.Price.Upgrade, h.Price.Stream())

	// Appraisal intake
	api.Post("/submit-form", h.Submission.Submit)
	api.Get("/sku-suggestions", h.Access.SuggestSKUs)

	// Orders
	api.Get("/checkout/:sku", h.Order.CheckoutPreview)
	api.Post("/checkout", h.Order.Checkout)
	api.Post("/confirm-sell", h.Order.ConfirmSell)
	api.Get("/orders/:number", h.Order.GetByNumber)
	api.Get("/orders/:number/status", h.Order.Status)

	// Payments
	api.Post("/process-payment", h.Payment.Process)
	api.Post("/confirm-payment", h.Payment.Confirm)
	api.Get("/verify-session", h.Payment.VerifySession)

	api.Post("/webhooks/stripe", h.Webhook.Handle)

	// Protection plans
	api.Get("/subscriptions/quote", h.Subscription.Quote)
	api.Post("/subscriptions", h.Subscription.Create)
	api.Post("/subscriptions/resolve", h.Subscription.ResolveCheckout)
	api.Post("/subscriptions/cancel", h.Subscription.Cancel)
	api.Get("/subscriptions/:id/payment-intent", h.Subscription.PaymentState)
	api.Get("/subscriptions", h.Subscription.ListByEmail)

	// Claims
	api.Post("/claims", h.Claim.Create)
	api.Get("/claims", h.Claim.ListByEmail)

	// SKU access: OTP endpoints get a stricter limit, 10 req/min per IP
	access := api.Group("/access")
	access.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	access.Post("/send-code", h.Access.SendCode)
	access.Post("/verify-code", h.Access.VerifyCode)
	api.Get("/sku-data/:sku", h.Access.SKUData)

	// Admin
	api.Post("/admin/login", h.Admin.Login)
	admin := api.Group("/admin", middleware.JWTProtected(cfg), middleware.AdminRequired(cfg))
	admin.Get("/dashboard", h.Admin.Dashboard)
	admin.Get("/submissions", h.Submission.List)
	admin.Get("/orders", h.Order.List)
	admin.Post("/refund", h.Payment.Refund)
	admin.Get("/claims", h.Claim.List)
	admin.Put("/claims/:id/notes", h.Claim.UpdateAdminNotes)
}
