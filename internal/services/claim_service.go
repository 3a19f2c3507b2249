package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/spectralabs/spectra-backend/internal/models"
	"github.com/spectralabs/spectra-backend/internal/storage"
	"github.com/spectralabs/spectra-backend/internal/store"
)

var (
	ErrInvalidClaimType      = errors.New("invalid claim type")
	ErrMissingClaimFields    = errors.New("subscription id, product description and claim type are required")
	ErrSubscriptionNotActive = errors.New("only active subscriptions can file claims")
	ErrClaimNotFound         = errors.New("claim not found")
)

// ClaimUpload is one evidence image attached to a claim request.
type ClaimUpload struct {
	Filename string
	Content  io.Reader
}

type ClaimRequest struct {
	SubscriptionID     uuid.UUID
	ClaimType          string
	ProductDescription string
	Notes              string
	Uploads            []ClaimUpload
}

// ClaimService files protection-plan claims. A claim requires the referenced
// subscription to be active at filing time; the subscription's identifying
// fields are copied onto the claim so it stays a stable historical record.
type ClaimService struct {
	store  store.Store
	images storage.ImageStore
}

func NewClaimService(st store.Store, images storage.ImageStore) *ClaimService {
	return &ClaimService{store: st, images: images}
}

// Create validates the request against the referenced subscription and
// persists the claim. Individual image upload failures are tolerated; the
// claim is filed with whatever evidence made it through.
func (s *ClaimService) Create(ctx context.Context, req ClaimRequest) (*models.Claim, error) {
	if req.SubscriptionID == uuid.Nil || req.ProductDescription == "" || req.ClaimType == "" {
		return nil, ErrMissingClaimFields
	}
	if !models.ValidClaimType(req.ClaimType) {
		return nil, ErrInvalidClaimType
	}

	sub, err := s.store.GetSubscriptionByID(ctx, req.SubscriptionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	if sub.Status != models.SubStatusActive {
		return nil, ErrSubscriptionNotActive
	}

	var images []models.ClaimImage
	for i, up := range req.Uploads {
		name := fmt.Sprintf("claim_%s_%d_%d", sub.SKU, time.Now().UnixMilli(), i)
		url, err := s.images.Upload(ctx, up.Content, "claims", name)
		if err != nil {
			slog.Warn("claim image upload failed", "sku", sub.SKU, "filename", up.Filename, "error", err)
			continue
		}
		images = append(images, models.ClaimImage{URL: url, Filename: up.Filename, UploadedAt: time.Now()})
	}

	imagesJSON, err := json.Marshal(images)
	if err != nil {
		return nil, err
	}
	if images == nil {
		imagesJSON = []byte("[]")
	}

	claim := &models.Claim{
		SubscriptionID:     sub.ID,
		CustomerID:         sub.CustomerID,
		Email:              sub.Email,
		SKU:                sub.SKU,
		ProductDescription: req.ProductDescription,
		Images:             imagesJSON,
		ClaimType:          req.ClaimType,
		Notes:              req.Notes,
	}
	if err := s.store.CreateClaim(ctx, claim); err != nil {
		return nil, err
	}

	slog.Info("claim filed", "claim", claim.ID, "sku", claim.SKU, "type", claim.ClaimType, "images", len(images))
	return claim, nil
}

func (s *ClaimService) ListByEmail(ctx context.Context, email string) ([]models.Claim, error) {
	return s.store.ListClaimsByEmail(ctx, email)
}

func (s *ClaimService) List(ctx context.Context) ([]models.Claim, error) {
	return s.store.ListClaims(ctx)
}

// UpdateAdminNotes sets the one field mutable after filing.
func (s *ClaimService) UpdateAdminNotes(ctx context.Context, id uuid.UUID, notes string) (*models.Claim, error) {
	if err := s.store.UpdateClaimAdminNotes(ctx, id, notes); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrClaimNotFound
		}
		return nil, err
	}
	return s.store.GetClaimByID(ctx, id)
}
