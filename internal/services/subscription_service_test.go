package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/spectralabs/spectra-backend/internal/billing"
	"github.com/spectralabs/spectra-backend/internal/models"
	"github.com/spectralabs/spectra-backend/internal/pricing"
	"github.com/spectralabs/spectra-backend/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedScraper pins the per-gram price for every metal.
type fixedScraper struct {
	prices map[string]float64
}

func (f fixedScraper) Scrape(context.Context) (map[string]float64, error) {
	return f.prices, nil
}

type noFeed struct{}

func (noFeed) Closes(context.Context, string) ([]float64, error) {
	return nil, assert.AnError
}

func fixedOracle(perGram float64) *pricing.Oracle {
	return pricing.NewOracle(fixedScraper{prices: map[string]float64{
		"Gold": perGram, "Silver": perGram, "Platinum": perGram, "Palladium": perGram,
	}}, noFeed{})
}

func TestQuotePlanPricing(t *testing.T) {
	tests := []struct {
		name    string
		perGram float64
		grams   float64
		monthly float64
		yearly  float64
	}{
		{"percentage above floors", 250, 10, 50.00, 450.00},
		{"floors apply on small value", 10, 5, 9.99, 99.99},
		{"rounding to cents", 251, 10, 50.20, 451.80},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &mockStore{
				getSubmissionBySKU: func(_ context.Context, _ string) (*models.Submission, error) {
					return &models.Submission{SKU: "GLD-001", Metal: "Gold", Grams: tt.grams}, nil
				},
			}
			svc := NewSubscriptionService(st, &mockProvider{}, fixedOracle(tt.perGram), &mockMailer{})

			quote, err := svc.Quote(context.Background(), "GLD-001")
			require.NoError(t, err)
			assert.InDelta(t, tt.monthly, quote.Monthly, 0.001)
			assert.InDelta(t, tt.yearly, quote.Yearly, 0.001)
		})
	}
}

func TestCreateSubscriptionStampsIntentMetadata(t *testing.T) {
	var stampedIntent string
	var stamped map[string]string
	var localRow *models.Subscription
	st := &mockStore{
		getSubmissionBySKU: func(_ context.Context, _ string) (*models.Submission, error) {
			return &models.Submission{SKU: "GLD-001", Metal: "Gold", Grams: 10}, nil
		},
		createSubscription: func(_ context.Context, s *models.Subscription) error {
			localRow = s
			return nil
		},
	}
	provider := &mockProvider{
		createSubscription: func(_ context.Context, customerID, priceID string, metadata map[string]string) (billing.SubscriptionInfo, error) {
			assert.Equal(t, "monthly", metadata["plan"])
			return billing.SubscriptionInfo{
				ID:              "sub_1",
				CustomerID:      customerID,
				Status:          models.SubStatusIncomplete,
				ClientSecret:    "pi_9_secret_x",
				PaymentIntentID: "pi_9",
			}, nil
		},
		setIntentMetadata: func(_ context.Context, id string, metadata map[string]string) error {
			stampedIntent = id
			stamped = metadata
			return nil
		},
	}
	svc := NewSubscriptionService(st, provider, fixedOracle(250), &mockMailer{})

	info, err := svc.Create(context.Background(), "jordan@example.com", "GLD-001", "monthly")
	require.NoError(t, err)

	assert.Equal(t, "sub_1", info.SubscriptionID)
	assert.Equal(t, "pi_9_secret_x", info.ClientSecret)
	assert.Equal(t, 50.00, info.Amount)
	assert.Equal(t, "pi_9", stampedIntent)
	assert.Equal(t, "sub_1", stamped["subscription_id"])
	require.NotNil(t, localRow)
	assert.Equal(t, models.SubStatusIncomplete, localRow.Status)
}

func TestCreateSubscriptionRejectsInvalidPlan(t *testing.T) {
	svc := NewSubscriptionService(&mockStore{}, &mockProvider{}, fixedOracle(250), &mockMailer{})
	_, err := svc.Create(context.Background(), "a@b.c", "GLD-001", "weekly")
	assert.ErrorIs(t, err, ErrInvalidPlan)
}

func TestResolveCheckoutDirectSubscriptionID(t *testing.T) {
	local := &models.Subscription{
		ID:                   uuid.New(),
		StripeSubscriptionID: "sub_1",
		Status:               models.SubStatusIncomplete,
		SKU:                  "GLD-001",
		Email:                "jordan@example.com",
	}
	st := &mockStore{
		getSubscriptionStripe: func(_ context.Context, id string) (*models.Subscription, error) {
			if id == "sub_1" {
				return local, nil
			}
			return nil, store.ErrNotFound
		},
	}
	provider := &mockProvider{
		getSubscription: func(_ context.Context, id string) (billing.SubscriptionInfo, error) {
			return billing.SubscriptionInfo{ID: id, Status: models.SubStatusActive, CurrentPeriodEnd: time.Now().Add(30 * 24 * time.Hour)}, nil
		},
	}
	mailer := &mockMailer{}
	svc := NewSubscriptionService(st, provider, fixedOracle(250), mailer)

	resolved, err := svc.ResolveCheckout(context.Background(), "sub_1", "", "")
	require.NoError(t, err)
	assert.Equal(t, models.SubStatusActive, resolved.Status)
	assert.NotNil(t, resolved.LastPaymentDate)
	assert.Equal(t, []string{"sub_1"}, mailer.confirmations)
}

func TestResolveCheckoutViaIntentMetadata(t *testing.T) {
	st := &mockStore{
		getSubscriptionStripe: func(_ context.Context, _ string) (*models.Subscription, error) {
			return &models.Subscription{StripeSubscriptionID: "sub_2", Status: models.SubStatusActive}, nil
		},
	}
	provider := &mockProvider{
		getIntent: func(_ context.Context, id string) (billing.IntentInfo, error) {
			assert.Equal(t, "pi_7", id)
			return billing.IntentInfo{ID: id, Metadata: map[string]string{"subscription_id": "sub_2"}}, nil
		},
		getSubscription: func(_ context.Context, id string) (billing.SubscriptionInfo, error) {
			assert.Equal(t, "sub_2", id)
			return billing.SubscriptionInfo{ID: id, Status: models.SubStatusActive}, nil
		},
	}
	svc := NewSubscriptionService(st, provider, fixedOracle(250), &mockMailer{})

	// A client secret reduces to its intent id before lookup.
	resolved, err := svc.ResolveCheckout(context.Background(), "pi_7_secret_abc", "", "")
	require.NoError(t, err)
	assert.Equal(t, "sub_2", resolved.StripeSubscriptionID)
}

func TestResolveCheckoutFallsBackThroughChain(t *testing.T) {
	st := &mockStore{
		getNewestSubscription: func(_ context.Context, email, sku string) (*models.Subscription, error) {
			assert.Equal(t, "jordan@example.com", email)
			return &models.Subscription{StripeSubscriptionID: "sub_local", Status: models.SubStatusIncomplete}, nil
		},
		getSubscriptionStripe: func(_ context.Context, id string) (*models.Subscription, error) {
			return &models.Subscription{StripeSubscriptionID: id, Status: models.SubStatusIncomplete}, nil
		},
	}
	provider := &mockProvider{
		getIntent: func(_ context.Context, _ string) (billing.IntentInfo, error) {
			return billing.IntentInfo{}, assert.AnError
		},
		getSubscription: func(_ context.Context, id string) (billing.SubscriptionInfo, error) {
			return billing.SubscriptionInfo{ID: id, Status: models.SubStatusIncomplete}, nil
		},
	}
	svc := NewSubscriptionService(st, provider, fixedOracle(250), &mockMailer{})

	resolved, err := svc.ResolveCheckout(context.Background(), "pi_unknown", "jordan@example.com", "GLD-001")
	require.NoError(t, err)
	assert.Equal(t, "sub_local", resolved.StripeSubscriptionID)
}

func TestResolveCheckoutUnresolvable(t *testing.T) {
	svc := NewSubscriptionService(&mockStore{}, &mockProvider{
		getIntent: func(_ context.Context, _ string) (billing.IntentInfo, error) {
			return billing.IntentInfo{}, assert.AnError
		},
	}, fixedOracle(250), &mockMailer{})

	_, err := svc.ResolveCheckout(context.Background(), "pi_unknown", "", "")
	assert.ErrorIs(t, err, ErrUnresolvedCheckout)
}

func TestApplyEventInvoicePaid(t *testing.T) {
	var gotStatus string
	var gotPaidAt *time.Time
	st := &mockStore{
		updateSubStatus: func(_ context.Context, stripeID, status string, _ time.Time, paidAt *time.Time) error {
			assert.Equal(t, "sub_1", stripeID)
			gotStatus = status
			gotPaidAt = paidAt
			return nil
		},
	}
	svc := NewSubscriptionService(st, &mockProvider{}, fixedOracle(250), &mockMailer{})

	err := svc.ApplyEvent(context.Background(), billing.Event{
		Type:           billing.EventInvoicePaid,
		SubscriptionID: "sub_1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.SubStatusActive, gotStatus)
	assert.NotNil(t, gotPaidAt)
}

func TestApplyEventSubscriptionDeleted(t *testing.T) {
	var canceled string
	st := &mockStore{
		markSubCanceled: func(_ context.Context, stripeID string, _ time.Time) error {
			canceled = stripeID
			return nil
		},
	}
	svc := NewSubscriptionService(st, &mockProvider{}, fixedOracle(250), &mockMailer{})

	err := svc.ApplyEvent(context.Background(), billing.Event{
		Type:           billing.EventSubscriptionDeleted,
		SubscriptionID: "sub_1",
	})
	require.NoError(t, err)
	assert.Equal(t, "sub_1", canceled)
}

func TestApplyEventIgnoresUnknownTypes(t *testing.T) {
	st := &mockStore{
		updateSubStatus: func(_ context.Context, _, _ string, _ time.Time, _ *time.Time) error {
			t.Fatal("nothing should be written")
			return nil
		},
	}
	svc := NewSubscriptionService(st, &mockProvider{}, fixedOracle(250), &mockMailer{})

	err := svc.ApplyEvent(context.Background(), billing.Event{Type: "charge.captured"})
	assert.NoError(t, err)
}

func TestApplyEventUnknownSubscriptionIsNotAnError(t *testing.T) {
	st := &mockStore{
		updateSubStatus: func(_ context.Context, _, _ string, _ time.Time, _ *time.Time) error {
			return store.ErrNotFound
		},
	}
	svc := NewSubscriptionService(st, &mockProvider{}, fixedOracle(250), &mockMailer{})

	err := svc.ApplyEvent(context.Background(), billing.Event{
		Type:           billing.EventInvoicePaid,
		SubscriptionID: "sub_ghost",
	})
	assert.NoError(t, err)
}

func TestCancelSchedulesPeriodEnd(t *testing.T) {
	local := &models.Subscription{StripeSubscriptionID: "sub_1", Status: models.SubStatusActive}
	st := &mockStore{
		getSubscriptionStripe: func(_ context.Context, _ string) (*models.Subscription, error) {
			return local, nil
		},
	}
	periodEnd := time.Now().Add(20 * 24 * time.Hour)
	provider := &mockProvider{
		cancelAtPeriodEnd: func(_ context.Context, id string) (billing.SubscriptionInfo, error) {
			return billing.SubscriptionInfo{ID: id, Status: models.SubStatusActive, CurrentPeriodEnd: periodEnd}, nil
		},
	}
	svc := NewSubscriptionService(st, provider, fixedOracle(250), &mockMailer{})

	sub, err := svc.Cancel(context.Background(), "sub_1")
	require.NoError(t, err)
	assert.NotNil(t, sub.CanceledAt)
	assert.Equal(t, periodEnd, sub.CurrentPeriodEnd)
	// The status stays active until the provider reports the deletion.
	assert.Equal(t, models.SubStatusActive, sub.Status)
}
