package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/spectralabs/spectra-backend/internal/dto"
	"github.com/spectralabs/spectra-backend/internal/services"
)

type ClaimHandler struct {
	claims *services.ClaimService
}

func NewClaimHandler(claims *services.ClaimService) *ClaimHandler {
	return &ClaimHandler{claims: claims}
}

// Create accepts the claim form as multipart; every part named "images" is
// treated as evidence.
func (h *ClaimHandler) Create(c *fiber.Ctx) error {
	var req dto.ClaimRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	subID, err := uuid.Parse(req.SubscriptionID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid subscription id",
		})
	}

	svcReq := services.ClaimRequest{
		SubscriptionID:     subID,
		ClaimType:          req.ClaimType,
		ProductDescription: req.ProductDescription,
		Notes:              req.Notes,
	}

	if form, err := c.MultipartForm(); err == nil {
		for _, file := range form.File["images"] {
			f, err := file.Open()
			if err != nil {
				continue
			}
			defer f.Close()
			svcReq.Uploads = append(svcReq.Uploads, services.ClaimUpload{
				Filename: file.Filename,
				Content:  f,
			})
		}
	}

	claim, err := h.claims.Create(c.Context(), svcReq)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidClaimType), errors.Is(err, services.ErrMissingClaimFields):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		case errors.Is(err, services.ErrSubscriptionNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		case errors.Is(err, services.ErrSubscriptionNotActive):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(claim)
}

func (h *ClaimHandler) ListByEmail(c *fiber.Ctx) error {
	email := c.Query("email")
	if email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "email is required",
		})
	}

	claims, err := h.claims.ListByEmail(c.Context(), email)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	return c.JSON(claims)
}

func (h *ClaimHandler) List(c *fiber.Ctx) error {
	claims, err := h.claims.List(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	return c.JSON(claims)
}

func (h *ClaimHandler) UpdateAdminNotes(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid claim id",
		})
	}

	var req dto.AdminNotesRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	claim, err := h.claims.UpdateAdminNotes(c.Context(), id, req.AdminNotes)
	if err != nil {
		if errors.Is(err, services.ErrClaimNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	return c.JSON(claim)
}
