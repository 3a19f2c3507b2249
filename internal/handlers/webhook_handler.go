package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/spectralabs/spectra-backend/internal/billing"
	"github.com/spectralabs/spectra-backend/internal/dto"
	"github.com/spectralabs/spectra-backend/internal/services"
)

// WebhookHandler receives billing provider notifications. Signature
// verification happens before anything is parsed or persisted.
type WebhookHandler struct {
	provider      billing.Provider
	subscriptions *services.SubscriptionService
}

func NewWebhookHandler(provider billing.Provider, subscriptions *services.SubscriptionService) *WebhookHandler {
	return &WebhookHandler{provider: provider, subscriptions: subscriptions}
}

func (h *WebhookHandler) Handle(c *fiber.Ctx) error {
	event, err := h.provider.ConstructEvent(c.Body(), c.Get("Stripe-Signature"))
	if err != nil {
		slog.Warn("webhook signature verification failed", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid signature",
		})
	}

	if err := h.subscriptions.ApplyEvent(c.Context(), event); err != nil {
		slog.Error("webhook event processing failed", "type", event.Type, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Event processing failed",
		})
	}

	return c.JSON(fiber.Map{"received": true})
}
