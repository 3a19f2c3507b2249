package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/spectralabs/spectra-backend/internal/dto"
	"github.com/spectralabs/spectra-backend/internal/services"
)

type SubmissionHandler struct {
	submissions *services.SubmissionService
}

func NewSubmissionHandler(submissions *services.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions}
}

// Submit accepts the intake form as multipart with an optional image part.
func (h *SubmissionHandler) Submit(c *fiber.Ctx) error {
	var req dto.SubmissionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}
	if req.Grams == 0 {
		if v, err := strconv.ParseFloat(c.FormValue("grams"), 64); err == nil {
			req.Grams = v
		}
	}

	svcReq := services.SubmissionRequest{
		Name:        req.Name,
		Email:       req.Email,
		SKU:         req.SKU,
		Description: req.Description,
		Metal:       req.Metal,
		Grams:       req.Grams,
		Action:      req.Action,
	}
	if file, err := c.FormFile("image"); err == nil {
		f, err := file.Open()
		if err == nil {
			defer f.Close()
			svcReq.Image = f
		}
	}

	sub, err := h.submissions.Create(c.Context(), svcReq)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidMetal), errors.Is(err, services.ErrInvalidGrams):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		case errors.Is(err, services.ErrSKUTaken):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(sub)
}

func (h *SubmissionHandler) List(c *fiber.Ctx) error {
	subs, err := h.submissions.List(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	return c.JSON(subs)
}
