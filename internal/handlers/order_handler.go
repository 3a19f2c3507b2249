package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/spectralabs/spectra-backend/internal/dto"
	"github.com/spectralabs/spectra-backend/internal/services"
)

type OrderHandler struct {
	orders *services.OrderService
}

func NewOrderHandler(orders *services.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

func checkoutRequest(req dto.CheckoutRequest) services.CheckoutRequest {
	return services.CheckoutRequest{
		SKU:     req.SKU,
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Street:  req.Street,
		City:    req.City,
		State:   req.State,
		ZipCode: req.ZipCode,
		Country: req.Country,
		Notes:   req.Notes,
	}
}

func (h *OrderHandler) CheckoutPreview(c *fiber.Ctx) error {
	sub, paid, err := h.orders.CheckoutPreview(c.Context(), c.Params("sku"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSubmissionNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		case errors.Is(err, services.ErrInvalidAction):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: "Only buy submissions can proceed to checkout",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}

	if paid != nil {
		return c.JSON(fiber.Map{
			"already_paid": true,
			"order":        paid,
		})
	}
	return c.JSON(fiber.Map{"submission": sub})
}

func (h *OrderHandler) Checkout(c *fiber.Ctx) error {
	var req dto.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	order, alreadyPaid, err := h.orders.Checkout(c.Context(), checkoutRequest(req))
	if err != nil {
		if errors.Is(err, services.ErrSubmissionNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	if alreadyPaid {
		return c.JSON(fiber.Map{
			"already_paid": true,
			"order":        order,
		})
	}

	return c.Status(fiber.StatusCreated).JSON(order)
}

func (h *OrderHandler) ConfirmSell(c *fiber.Ctx) error {
	var req dto.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	order, err := h.orders.ConfirmSell(c.Context(), checkoutRequest(req))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSubmissionNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		case errors.Is(err, services.ErrInvalidAction):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: "Only sell submissions can use this endpoint",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(order)
}

func (h *OrderHandler) GetByNumber(c *fiber.Ctx) error {
	order, err := h.orders.GetByNumber(c.Context(), c.Params("number"))
	if err != nil {
		if errors.Is(err, services.ErrOrderNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	return c.JSON(order)
}

// Status returns a trimmed payment summary so the storefront can poll
// without pulling the full order record.
func (h *OrderHandler) Status(c *fiber.Ctx) error {
	order, err := h.orders.GetByNumber(c.Context(), c.Params("number"))
	if err != nil {
		if errors.Is(err, services.ErrOrderNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	return c.JSON(fiber.Map{
		"order_number":   order.OrderNumber,
		"status":         order.Status,
		"payment_status": order.PaymentStatus,
		"has_invoice":    order.InvoiceURL != "",
		"has_receipt":    order.ReceiptURL != "",
		"created_at":     order.CreatedAt,
		"updated_at":     order.UpdatedAt,
	})
}

func (h *OrderHandler) List(c *fiber.Ctx) error {
	if email := c.Query("email"); email != "" {
		orders, err := h.orders.ListByEmail(c.Context(), email)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: "Internal server error",
			})
		}
		return c.JSON(orders)
	}

	orders, err := h.orders.List(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	return c.JSON(orders)
}
