package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spectralabs/spectra-backend/internal/models"
	"github.com/spectralabs/spectra-backend/internal/pricing"
	"github.com/spectralabs/spectra-backend/internal/storage"
	"github.com/spectralabs/spectra-backend/internal/store"
)

var (
	ErrInvalidMetal = errors.New("unknown metal")
	ErrInvalidGrams = errors.New("weight must be positive")
	ErrSKUTaken     = errors.New("sku already exists")
)

type SubmissionRequest struct {
	Name        string
	Email       string
	SKU         string
	Description string
	Metal       string
	Grams       float64
	Action      string
	Image       io.Reader
}

// SubmissionService runs the appraisal intake: it prices the item at the
// current per-gram rate, stores the optional photo, and records the
// submission.
type SubmissionService struct {
	store  store.Store
	oracle *pricing.Oracle
	images storage.ImageStore
}

func NewSubmissionService(st store.Store, oracle *pricing.Oracle, images storage.ImageStore) *SubmissionService {
	return &SubmissionService{store: st, oracle: oracle, images: images}
}

func validMetal(metal string) bool {
	for _, m := range pricing.Metals {
		if m == metal {
			return true
		}
	}
	return false
}

// Create appraises and records one item. The photo upload is best-effort;
// a failed upload leaves the submission without an image path.
func (s *SubmissionService) Create(ctx context.Context, req SubmissionRequest) (*models.Submission, error) {
	if !validMetal(req.Metal) {
		return nil, ErrInvalidMetal
	}
	if req.Grams <= 0 {
		return nil, ErrInvalidGrams
	}
	action := req.Action
	if action != models.ActionBuy && action != models.ActionSell {
		action = models.ActionNone
	}

	snap := s.oracle.ResolvePrices(ctx)
	value := snap[req.Metal] * req.Grams

	sub := &models.Submission{
		LegacyID:        time.Now().UnixMilli(),
		Name:            req.Name,
		Email:           req.Email,
		SKU:             req.SKU,
		Description:     req.Description,
		Metal:           req.Metal,
		Grams:           req.Grams,
		CalculatedPrice: fmt.Sprintf("$%.2f", value),
		Action:          action,
	}

	if req.Image != nil {
		name := fmt.Sprintf("submission_%s_%d", req.SKU, sub.LegacyID)
		url, err := s.images.Upload(ctx, req.Image, "submissions", name)
		if err != nil {
			slog.Warn("submission image upload failed", "sku", req.SKU, "error", err)
		} else {
			sub.ImagePath = url
		}
	}

	if err := s.store.CreateSubmission(ctx, sub); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrSKUTaken
		}
		return nil, err
	}

	slog.Info("submission recorded", "sku", sub.SKU, "metal", sub.Metal, "grams", sub.Grams, "price", sub.CalculatedPrice)
	return sub, nil
}

func (s *SubmissionService) GetBySKU(ctx context.Context, sku string) (*models.Submission, error) {
	sub, err := s.store.GetSubmissionBySKU(ctx, sku)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrSubmissionNotFound
	}
	return sub, err
}

func (s *SubmissionService) List(ctx context.Context) ([]models.Submission, error) {
	return s.store.ListSubmissions(ctx)
}
