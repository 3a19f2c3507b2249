package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/spectralabs/spectra-backend/internal/billing"
	"github.com/spectralabs/spectra-backend/internal/dto"
	"github.com/spectralabs/spectra-backend/internal/services"
)

type PaymentHandler struct {
	payments  *services.PaymentService
	returnURL string
}

func NewPaymentHandler(payments *services.PaymentService, returnURL string) *PaymentHandler {
	return &PaymentHandler{payments: payments, returnURL: returnURL}
}

// billingStatus maps a provider error onto a response, keeping the
// provider's own classification in the message.
func billingStatus(c *fiber.Ctx, err error) error {
	var be *billing.Error
	if errors.As(err, &be) {
		return c.Status(fiber.StatusPaymentRequired).JSON(dto.ErrorResponse{
			Error: true, Message: be.Error(),
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Message: "Internal server error",
	})
}

func (h *PaymentHandler) Process(c *fiber.Ctx) error {
	var req dto.ProcessPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	result, err := h.payments.ProcessPayment(c.Context(), req.OrderNumber, req.PaymentMethodID, h.returnURL)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrOrderNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		case errors.Is(err, services.ErrPaymentIncomplete):
			return c.Status(fiber.StatusPaymentRequired).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return billingStatus(c, err)
	}

	return c.JSON(dto.PaymentResponse{
		Success:         !result.RequiresAction,
		AlreadyPaid:     result.AlreadyPaid,
		RequiresAction:  result.RequiresAction,
		ClientSecret:    result.ClientSecret,
		PaymentIntentID: result.PaymentIntentID,
		Order:           result.Order,
	})
}

func (h *PaymentHandler) Confirm(c *fiber.Ctx) error {
	var req dto.ConfirmPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	result, err := h.payments.ConfirmPayment(c.Context(), req.OrderNumber, req.PaymentIntentID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrOrderNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		case errors.Is(err, services.ErrPaymentIncomplete):
			return c.Status(fiber.StatusPaymentRequired).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return billingStatus(c, err)
	}

	return c.JSON(dto.PaymentResponse{
		Success:         true,
		AlreadyPaid:     result.AlreadyPaid,
		PaymentIntentID: result.PaymentIntentID,
		Order:           result.Order,
	})
}

func (h *PaymentHandler) VerifySession(c *fiber.Ctx) error {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "session_id is required",
		})
	}

	order, err := h.payments.VerifySession(c.Context(), sessionID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrOrderNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		case errors.Is(err, services.ErrPaymentIncomplete):
			return c.Status(fiber.StatusPaymentRequired).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return billingStatus(c, err)
	}

	return c.JSON(dto.PaymentResponse{Success: true, Order: order})
}

func (h *PaymentHandler) Refund(c *fiber.Ctx) error {
	var req dto.RefundRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	order, err := h.payments.Refund(c.Context(), req.OrderNumber)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrOrderNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		case errors.Is(err, services.ErrNotPaid):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return billingStatus(c, err)
	}

	return c.JSON(dto.PaymentResponse{Success: true, Order: order})
}
