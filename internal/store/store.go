package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/spectralabs/spectra-backend/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

type SubmissionStore interface {
	CreateSubmission(ctx context.Context, s *models.Submission) error
	GetSubmissionBySKU(ctx context.Context, sku string) (*models.Submission, error)
	ListSubmissionsByEmail(ctx context.Context, email string) ([]models.Submission, error)
	ListSKUsByPrefix(ctx context.Context, prefix string, limit int) ([]string, error)
	ListSubmissions(ctx context.Context) ([]models.Submission, error)
}

type OrderStore interface {
	CreateOrder(ctx context.Context, o *models.Order) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetOrderByNumber(ctx context.Context, number string) (*models.Order, error)
	GetOrderBySessionID(ctx context.Context, sessionID string) (*models.Order, error)
	GetPaidOrderForSubmission(ctx context.Context, submissionID uuid.UUID) (*models.Order, error)
	ListOrdersByEmail(ctx context.Context, email string) ([]models.Order, error)
	ListOrders(ctx context.Context) ([]models.Order, error)
	UpdateOrder(ctx context.Context, o *models.Order) error
	// MarkOrderPaid flips payment_status to paid together with the given
	// column updates, guarded by payment_status <> 'paid'. It returns true
	// only for the single caller that wins the transition.
	MarkOrderPaid(ctx context.Context, id uuid.UUID, updates map[string]any) (bool, error)
}

type SubscriptionStore interface {
	CreateSubscription(ctx context.Context, s *models.Subscription) error
	GetSubscriptionByStripeID(ctx context.Context, stripeID string) (*models.Subscription, error)
	GetNewestSubscriptionForEmailSKU(ctx context.Context, email, sku string) (*models.Subscription, error)
	GetSubscriptionByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error)
	ListSubscriptionsByEmail(ctx context.Context, email string) ([]models.Subscription, error)
	ListSubscriptions(ctx context.Context) ([]models.Subscription, error)
	UpdateSubscription(ctx context.Context, s *models.Subscription) error
	UpdateSubscriptionStatus(ctx context.Context, stripeID, status string, periodEnd time.Time, paidAt *time.Time) error
	MarkSubscriptionCanceled(ctx context.Context, stripeID string, at time.Time) error
}

type ClaimStore interface {
	CreateClaim(ctx context.Context, c *models.Claim) error
	GetClaimByID(ctx context.Context, id uuid.UUID) (*models.Claim, error)
	ListClaimsByEmail(ctx context.Context, email string) ([]models.Claim, error)
	ListClaims(ctx context.Context) ([]models.Claim, error)
	UpdateClaimAdminNotes(ctx context.Context, id uuid.UUID, notes string) error
}

type AccessCodeStore interface {
	// ReplaceAccessCode removes any live code for the email+SKU pair before
	// inserting the new one.
	ReplaceAccessCode(ctx context.Context, c *models.AccessCode) error
	GetAccessCode(ctx context.Context, email, sku string) (*models.AccessCode, error)
	DeleteAccessCode(ctx context.Context, id uuid.UUID) error
}

// Store aggregates every persistence concern behind one dependency.
type Store interface {
	SubmissionStore
	OrderStore
	SubscriptionStore
	ClaimStore
	AccessCodeStore
}
