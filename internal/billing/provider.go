package billing

import (
	"context"
	"fmt"
	"time"
)

// Payment intent statuses surfaced to callers.
const (
	IntentSucceeded      = "succeeded"
	IntentRequiresAction = "requires_action"
)

// Event kinds recognized by the reconciler.
const (
	EventInvoicePaid         = "invoice.paid"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
)

// Error preserves the provider's error classification when a billing call
// fails, so handlers can surface it instead of a generic failure.
type Error struct {
	Type string
	Code string
	Msg  string
}

func (e *Error) Error() string {
	if e.Type == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s (%s): %s", e.Type, e.Code, e.Msg)
}

type Customer struct {
	ID    string
	Email string
}

// SubscriptionInfo mirrors the provider-owned subscription fields the core
// reads. ClientSecret is set only when the latest invoice's payment intent
// was expanded.
type SubscriptionInfo struct {
	ID               string
	CustomerID       string
	Status           string
	CurrentPeriodEnd time.Time
	ClientSecret     string
	PaymentIntentID  string
	Metadata         map[string]string
}

type IntentRequest struct {
	PaymentMethodID string
	AmountCents     int64
	Description     string
	ReceiptEmail    string
	ReturnURL       string
	Metadata        map[string]string
}

type IntentInfo struct {
	ID           string
	Status       string
	ClientSecret string
	CustomerID   string
	InvoiceID    string
	Metadata     map[string]string
	// RequiresSDKAction is set when the intent needs client-side
	// authentication via the provider SDK.
	RequiresSDKAction bool
}

type SessionInfo struct {
	Paid            bool
	PaymentStatus   string
	PaymentIntentID string
	CustomerID      string
	OrderNumber     string
}

type RefundInfo struct {
	ID        string
	Status    string
	Succeeded bool
}

// Event is a verified webhook notification, reduced to the fields the
// reconciler acts on.
type Event struct {
	Type             string
	SubscriptionID   string
	Status           string
	CurrentPeriodEnd time.Time
}

// Provider is the billing system of record. Local subscription rows are a
// cache of its truth.
type Provider interface {
	FindOrCreateCustomer(ctx context.Context, email, sku string) (Customer, error)
	CreateRecurringPrice(ctx context.Context, amountCents int64, interval, name, sku string) (string, error)
	CreateSubscription(ctx context.Context, customerID, priceID string, metadata map[string]string) (SubscriptionInfo, error)
	GetSubscription(ctx context.Context, id string) (SubscriptionInfo, error)
	GetSubscriptionWithIntent(ctx context.Context, id string) (SubscriptionInfo, error)
	LatestSubscriptionForCustomer(ctx context.Context, customerID string) (string, error)
	CancelAtPeriodEnd(ctx context.Context, id string) (SubscriptionInfo, error)
	CreateAndConfirmIntent(ctx context.Context, req IntentRequest) (IntentInfo, error)
	ConfirmIntent(ctx context.Context, id string) (IntentInfo, error)
	GetIntent(ctx context.Context, id string) (IntentInfo, error)
	SetIntentMetadata(ctx context.Context, id string, metadata map[string]string) error
	InvoiceSubscriptionID(ctx context.Context, invoiceID string) (string, error)
	GetCheckoutSession(ctx context.Context, id string) (SessionInfo, error)
	CreateRefund(ctx context.Context, paymentIntentID string, amountCents int64) (RefundInfo, error)
	ConstructEvent(payload []byte, sigHeader string) (Event, error)
}
