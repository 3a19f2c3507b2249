package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/spectralabs/spectra-backend/internal/dto"
	"github.com/spectralabs/spectra-backend/internal/models"
	"github.com/spectralabs/spectra-backend/internal/services"
)

type AdminHandler struct {
	auth          *services.AuthService
	submissions   *services.SubmissionService
	orders        *services.OrderService
	subscriptions *services.SubscriptionService
	claims        *services.ClaimService
}

func NewAdminHandler(
	auth *services.AuthService,
	submissions *services.SubmissionService,
	orders *services.OrderService,
	subscriptions *services.SubscriptionService,
	claims *services.ClaimService,
) *AdminHandler {
	return &AdminHandler{
		auth:          auth,
		submissions:   submissions,
		orders:        orders,
		subscriptions: subscriptions,
		claims:        claims,
	}
}

func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var req dto.AdminLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	token, err := h.auth.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	return c.JSON(dto.AdminLoginResponse{Token: token})
}

// Dashboard returns every collection in one payload. Subscriptions carry
// the appraised product matched by SKU so the console can render them
// without extra round trips.
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	ctx := c.Context()

	submissions, err := h.submissions.List(ctx)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	orders, err := h.orders.List(ctx)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	subs, err := h.subscriptions.List(ctx)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	claims, err := h.claims.List(ctx)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}

	bySKU := make(map[string]models.Submission, len(submissions))
	for _, sub := range submissions {
		bySKU[sub.SKU] = sub
	}

	enriched := make([]fiber.Map, 0, len(subs))
	for _, sub := range subs {
		entry := fiber.Map{"subscription": sub}
		if product, ok := bySKU[sub.SKU]; ok {
			entry["product"] = fiber.Map{
				"name":             product.Name,
				"metal":            product.Metal,
				"grams":            product.Grams,
				"calculated_price": product.CalculatedPrice,
				"image_path":       product.ImagePath,
			}
		}
		enriched = append(enriched, entry)
	}

	return c.JSON(fiber.Map{
		"submissions":   submissions,
		"orders":        orders,
		"subscriptions": enriched,
		"claims":        claims,
	})
}
