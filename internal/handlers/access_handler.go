package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/spectralabs/spectra-backend/internal/dto"
	"github.com/spectralabs/spectra-backend/internal/services"
)

type AccessHandler struct {
	access *services.AccessService
}

func NewAccessHandler(access *services.AccessService) *AccessHandler {
	return &AccessHandler{access: access}
}

func (h *AccessHandler) SendCode(c *fiber.Ctx) error {
	var req dto.SendCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	if err := h.access.SendCode(c.Context(), req.Email, req.SKU); err != nil {
		if errors.Is(err, services.ErrNoSubmission) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	return c.JSON(fiber.Map{"sent": true})
}

func (h *AccessHandler) VerifyCode(c *fiber.Ctx) error {
	var req dto.VerifyCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	token, err := h.access.VerifyCode(c.Context(), req.Email, req.SKU, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCodeInvalid), errors.Is(err, services.ErrCodeExpired):
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	return c.JSON(dto.AccessTokenResponse{AccessToken: token})
}

// SKUData serves the protected per-item view. The bearer token must have
// been issued for exactly this SKU.
func (h *AccessHandler) SKUData(c *fiber.Ctx) error {
	sku := c.Params("sku")
	token := strings.TrimPrefix(c.Get("Authorization"), "Bearer ")
	if token == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Missing access token",
		})
	}

	email, err := h.access.Authorize(token, sku)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}

	data, err := h.access.GetSKUData(c.Context(), email, sku)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoSubmission):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		case errors.Is(err, services.ErrAccessDenied):
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	return c.JSON(data)
}

func (h *AccessHandler) SuggestSKUs(c *fiber.Ctx) error {
	prefix := c.Query("q")
	if len(prefix) < 2 {
		return c.JSON([]string{})
	}
	limit, _ := strconv.Atoi(c.Query("limit", "10"))

	skus, err := h.access.SuggestSKUs(c.Context(), prefix, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	return c.JSON(skus)
}
