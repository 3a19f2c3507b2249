package services

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/spectralabs/spectra-backend/internal/billing"
	"github.com/spectralabs/spectra-backend/internal/mail"
	"github.com/spectralabs/spectra-backend/internal/models"
	"github.com/spectralabs/spectra-backend/internal/pricing"
	"github.com/spectralabs/spectra-backend/internal/store"
)

var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrInvalidPlan          = errors.New("invalid plan")
	ErrUnresolvedCheckout   = errors.New("could not resolve subscription from checkout reference")
)

// Plan price floors and rates. The percentage is applied to the covered
// item's current metal value, floored at the minimum.
const (
	monthlyRate  = 0.02
	monthlyFloor = 9.99
	yearlyRate   = 0.18
	yearlyFloor  = 99.99
)

// PlanQuote is the computed price of each plan for one item.
type PlanQuote struct {
	MetalValue float64 `json:"metal_value"`
	Monthly    float64 `json:"monthly"`
	Yearly     float64 `json:"yearly"`
}

// SubscriptionService owns the protection-plan lifecycle. The provider is
// the system of record for status; local rows mirror it.
type SubscriptionService struct {
	store    store.Store
	provider billing.Provider
	oracle   *pricing.Oracle
	mailer   mail.Dispatcher
}

func NewSubscriptionService(st store.Store, provider billing.Provider, oracle *pricing.Oracle, mailer mail.Dispatcher) *SubscriptionService {
	return &SubscriptionService{store: st, provider: provider, oracle: oracle, mailer: mailer}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func quoteFor(metalValue float64) PlanQuote {
	return PlanQuote{
		MetalValue: round2(metalValue),
		Monthly:    math.Max(monthlyFloor, round2(metalValue*monthlyRate)),
		Yearly:     math.Max(yearlyFloor, round2(metalValue*yearlyRate)),
	}
}

// Quote prices both plans for the submission identified by SKU using the
// current per-gram price of its metal.
func (s *SubscriptionService) Quote(ctx context.Context, sku string) (*PlanQuote, error) {
	sub, err := s.store.GetSubmissionBySKU(ctx, sku)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}
	snap := s.oracle.ResolvePrices(ctx)
	q := quoteFor(snap[sub.Metal] * sub.Grams)
	return &q, nil
}

// CheckoutInfo is returned to the client to drive the payment element.
type CheckoutInfo struct {
	SubscriptionID string  `json:"subscription_id"`
	ClientSecret   string  `json:"client_secret"`
	Amount         float64 `json:"amount"`
	Plan           string  `json:"plan"`
}

// Create opens an incomplete subscription with a price computed from the
// item's current metal value. The subscription id is stamped onto the first
// invoice's payment intent so the post-checkout resolver can find it from
// either reference.
func (s *SubscriptionService) Create(ctx context.Context, email, sku, plan string) (*CheckoutInfo, error) {
	if plan != models.PlanMonthly && plan != models.PlanYearly {
		return nil, ErrInvalidPlan
	}
	item, err := s.store.GetSubmissionBySKU(ctx, sku)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}

	snap := s.oracle.ResolvePrices(ctx)
	quote := quoteFor(snap[item.Metal] * item.Grams)
	amount := quote.Monthly
	interval := "month"
	if plan == models.PlanYearly {
		amount = quote.Yearly
		interval = "year"
	}

	customer, err := s.provider.FindOrCreateCustomer(ctx, email, sku)
	if err != nil {
		return nil, err
	}
	priceID, err := s.provider.CreateRecurringPrice(ctx, int64(amount*100), interval, "Protection Plan "+sku, sku)
	if err != nil {
		return nil, err
	}
	info, err := s.provider.CreateSubscription(ctx, customer.ID, priceID, map[string]string{
		"email": email,
		"sku":   sku,
		"plan":  plan,
	})
	if err != nil {
		return nil, err
	}

	if info.PaymentIntentID != "" {
		if err := s.provider.SetIntentMetadata(ctx, info.PaymentIntentID, map[string]string{"subscription_id": info.ID}); err != nil {
			slog.Warn("intent metadata stamp failed", "subscription", info.ID, "error", err)
		}
	}

	local := &models.Subscription{
		StripeSubscriptionID: info.ID,
		CustomerID:           customer.ID,
		Email:                email,
		SKU:                  sku,
		Plan:                 plan,
		Status:               models.SubStatusIncomplete,
		CurrentPeriodEnd:     info.CurrentPeriodEnd,
	}
	if err := s.store.CreateSubscription(ctx, local); err != nil {
		return nil, err
	}

	slog.Info("subscription created", "subscription", info.ID, "sku", sku, "plan", plan)
	return &CheckoutInfo{
		SubscriptionID: info.ID,
		ClientSecret:   info.ClientSecret,
		Amount:         amount,
		Plan:           plan,
	}, nil
}

// ResolveCheckout maps whatever reference the client brought back from the
// payment flow onto a provider subscription id, trying in order: a direct
// subscription id, the payment intent's stamped metadata, the intent's
// invoice, the customer's most recent subscription, and finally the newest
// local row for the email and SKU.
func (s *SubscriptionService) ResolveCheckout(ctx context.Context, ref, email, sku string) (*models.Subscription, error) {
	subID := s.resolveReference(ctx, ref, email, sku)
	if subID == "" {
		return nil, ErrUnresolvedCheckout
	}

	info, err := s.provider.GetSubscription(ctx, subID)
	if err != nil {
		return nil, err
	}
	return s.sync(ctx, info)
}

func (s *SubscriptionService) resolveReference(ctx context.Context, ref, email, sku string) string {
	if strings.HasPrefix(ref, "sub_") {
		return ref
	}

	intentID := ref
	// Client secrets look like pi_xxx_secret_yyy; reduce to the intent id.
	if i := strings.Index(intentID, "_secret"); i > 0 {
		intentID = intentID[:i]
	}
	if strings.HasPrefix(intentID, "pi_") {
		intent, err := s.provider.GetIntent(ctx, intentID)
		if err == nil {
			if id := intent.Metadata["subscription_id"]; id != "" {
				return id
			}
			if intent.InvoiceID != "" {
				if id, err := s.provider.InvoiceSubscriptionID(ctx, intent.InvoiceID); err == nil && id != "" {
					return id
				}
			}
			if intent.CustomerID != "" {
				if id, err := s.provider.LatestSubscriptionForCustomer(ctx, intent.CustomerID); err == nil && id != "" {
					return id
				}
			}
		} else {
			slog.Warn("intent lookup failed during checkout resolution", "intent", intentID, "error", err)
		}
	}

	if email != "" && sku != "" {
		if local, err := s.store.GetNewestSubscriptionForEmailSKU(ctx, email, sku); err == nil {
			return local.StripeSubscriptionID
		}
	}
	return ""
}

// sync overwrites the local mirror with the provider's state and sends the
// confirmation email on the transition into active.
func (s *SubscriptionService) sync(ctx context.Context, info billing.SubscriptionInfo) (*models.Subscription, error) {
	local, err := s.store.GetSubscriptionByStripeID(ctx, info.ID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		local = &models.Subscription{
			StripeSubscriptionID: info.ID,
			CustomerID:           info.CustomerID,
			Email:                info.Metadata["email"],
			SKU:                  info.Metadata["sku"],
			Plan:                 info.Metadata["plan"],
			Status:               info.Status,
			CurrentPeriodEnd:     info.CurrentPeriodEnd,
		}
		if err := s.store.CreateSubscription(ctx, local); err != nil {
			return nil, err
		}
		if info.Status == models.SubStatusActive {
			s.notifyActivated(ctx, local)
		}
		return local, nil
	}

	becameActive := local.Status != models.SubStatusActive && info.Status == models.SubStatusActive
	local.Status = info.Status
	if !info.CurrentPeriodEnd.IsZero() {
		local.CurrentPeriodEnd = info.CurrentPeriodEnd
	}
	if becameActive {
		now := time.Now()
		local.LastPaymentDate = &now
	}
	if err := s.store.UpdateSubscription(ctx, local); err != nil {
		return nil, err
	}
	if becameActive {
		s.notifyActivated(ctx, local)
	}
	return local, nil
}

func (s *SubscriptionService) notifyActivated(ctx context.Context, sub *models.Subscription) {
	product, err := s.store.GetSubmissionBySKU(ctx, sub.SKU)
	if err != nil {
		product = nil
	}
	if err := s.mailer.SendSubscriptionConfirmation(sub, product); err != nil {
		slog.Warn("subscription confirmation email failed", "subscription", sub.StripeSubscriptionID, "error", err)
	}
}

// ApplyEvent reconciles one verified provider notification into the local
// mirror. Unknown event types are ignored.
func (s *SubscriptionService) ApplyEvent(ctx context.Context, event billing.Event) error {
	switch event.Type {
	case billing.EventInvoicePaid:
		if event.SubscriptionID == "" {
			return nil
		}
		now := time.Now()
		err := s.store.UpdateSubscriptionStatus(ctx, event.SubscriptionID, models.SubStatusActive, event.CurrentPeriodEnd, &now)
		if errors.Is(err, store.ErrNotFound) {
			slog.Warn("invoice paid for unknown subscription", "subscription", event.SubscriptionID)
			return nil
		}
		return err
	case billing.EventSubscriptionUpdated:
		err := s.store.UpdateSubscriptionStatus(ctx, event.SubscriptionID, event.Status, event.CurrentPeriodEnd, nil)
		if errors.Is(err, store.ErrNotFound) {
			slog.Warn("update for unknown subscription", "subscription", event.SubscriptionID)
			return nil
		}
		return err
	case billing.EventSubscriptionDeleted:
		err := s.store.MarkSubscriptionCanceled(ctx, event.SubscriptionID, time.Now())
		if errors.Is(err, store.ErrNotFound) {
			slog.Warn("delete for unknown subscription", "subscription", event.SubscriptionID)
			return nil
		}
		return err
	}
	slog.Debug("ignoring webhook event", "type", event.Type)
	return nil
}

// PaymentState re-fetches the client secret for an incomplete subscription
// so the client can retry payment without opening a new subscription.
func (s *SubscriptionService) PaymentState(ctx context.Context, stripeID string) (*CheckoutInfo, error) {
	local, err := s.store.GetSubscriptionByStripeID(ctx, stripeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}

	info, err := s.provider.GetSubscriptionWithIntent(ctx, stripeID)
	if err != nil {
		return nil, err
	}
	return &CheckoutInfo{
		SubscriptionID: info.ID,
		ClientSecret:   info.ClientSecret,
		Plan:           local.Plan,
	}, nil
}

// Cancel schedules the subscription to end at the current period boundary.
func (s *SubscriptionService) Cancel(ctx context.Context, stripeID string) (*models.Subscription, error) {
	local, err := s.store.GetSubscriptionByStripeID(ctx, stripeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}

	info, err := s.provider.CancelAtPeriodEnd(ctx, stripeID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	local.CanceledAt = &now
	if !info.CurrentPeriodEnd.IsZero() {
		local.CurrentPeriodEnd = info.CurrentPeriodEnd
	}
	if err := s.store.UpdateSubscription(ctx, local); err != nil {
		return nil, err
	}
	slog.Info("subscription cancellation scheduled", "subscription", stripeID, "period_end", local.CurrentPeriodEnd)
	return local, nil
}

func (s *SubscriptionService) ListByEmail(ctx context.Context, email string) ([]models.Subscription, error) {
	return s.store.ListSubscriptionsByEmail(ctx, email)
}

func (s *SubscriptionService) List(ctx context.Context) ([]models.Subscription, error) {
	return s.store.ListSubscriptions(ctx)
}
