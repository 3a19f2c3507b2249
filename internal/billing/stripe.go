package billing

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// StripeProvider is a single long-lived Stripe client constructed once at
// process startup.
type StripeProvider struct {
	api           *client.API
	webhookSecret string
}

func NewStripeProvider(secretKey, webhookSecret string) *StripeProvider {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeProvider{api: api, webhookSecret: webhookSecret}
}

// wrapErr converts Stripe errors into *Error so the provider's
// classification survives the boundary.
func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	var sErr *stripe.Error
	if errors.As(err, &sErr) {
		return &Error{Type: string(sErr.Type), Code: string(sErr.Code), Msg: sErr.Msg}
	}
	return err
}

func (p *StripeProvider) FindOrCreateCustomer(ctx context.Context, email, sku string) (Customer, error) {
	listParams := &stripe.CustomerListParams{Email: stripe.String(email)}
	listParams.Context = ctx
	listParams.Limit = stripe.Int64(1)

	it := p.api.Customers.List(listParams)
	if it.Next() {
		c := it.Customer()
		return Customer{ID: c.ID, Email: c.Email}, nil
	}
	if err := it.Err(); err != nil {
		return Customer{}, wrapErr(err)
	}

	params := &stripe.CustomerParams{Email: stripe.String(email)}
	params.Context = ctx
	params.AddMetadata("sku", sku)

	c, err := p.api.Customers.New(params)
	if err != nil {
		return Customer{}, wrapErr(err)
	}
	return Customer{ID: c.ID, Email: c.Email}, nil
}

func (p *StripeProvider) CreateRecurringPrice(ctx context.Context, amountCents int64, interval, name, sku string) (string, error) {
	params := &stripe.PriceParams{
		UnitAmount: stripe.Int64(amountCents),
		Currency:   stripe.String(string(stripe.CurrencyUSD)),
		Recurring: &stripe.PriceRecurringParams{
			Interval: stripe.String(interval),
		},
		ProductData: &stripe.PriceProductDataParams{
			Name: stripe.String(name),
		},
	}
	params.Context = ctx
	params.AddMetadata("sku", sku)

	price, err := p.api.Prices.New(params)
	if err != nil {
		return "", wrapErr(err)
	}
	return price.ID, nil
}

func (p *StripeProvider) CreateSubscription(ctx context.Context, customerID, priceID string, metadata map[string]string) (SubscriptionInfo, error) {
	params := &stripe.SubscriptionParams{
		Customer: stripe.String(customerID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(priceID)},
		},
		PaymentBehavior: stripe.String("default_incomplete"),
	}
	params.Context = ctx
	params.AddExpand("latest_invoice.payment_intent")
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	sub, err := p.api.Subscriptions.New(params)
	if err != nil {
		return SubscriptionInfo{}, wrapErr(err)
	}
	return subInfo(sub), nil
}

func (p *StripeProvider) GetSubscription(ctx context.Context, id string) (SubscriptionInfo, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	sub, err := p.api.Subscriptions.Get(id, params)
	if err != nil {
		return SubscriptionInfo{}, wrapErr(err)
	}
	return subInfo(sub), nil
}

func (p *StripeProvider) GetSubscriptionWithIntent(ctx context.Context, id string) (SubscriptionInfo, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	params.AddExpand("latest_invoice.payment_intent")
	sub, err := p.api.Subscriptions.Get(id, params)
	if err != nil {
		return SubscriptionInfo{}, wrapErr(err)
	}
	return subInfo(sub), nil
}

func (p *StripeProvider) LatestSubscriptionForCustomer(ctx context.Context, customerID string) (string, error) {
	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
		Status:   stripe.String("all"),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(1)

	it := p.api.Subscriptions.List(params)
	if it.Next() {
		return it.Subscription().ID, nil
	}
	return "", wrapErr(it.Err())
}

func (p *StripeProvider) CancelAtPeriodEnd(ctx context.Context, id string) (SubscriptionInfo, error) {
	params := &stripe.SubscriptionParams{CancelAtPeriodEnd: stripe.Bool(true)}
	params.Context = ctx
	sub, err := p.api.Subscriptions.Update(id, params)
	if err != nil {
		return SubscriptionInfo{}, wrapErr(err)
	}
	return subInfo(sub), nil
}

func (p *StripeProvider) CreateAndConfirmIntent(ctx context.Context, req IntentRequest) (IntentInfo, error) {
	params := &stripe.PaymentIntentParams{
		PaymentMethod: stripe.String(req.PaymentMethodID),
		Amount:        stripe.Int64(req.AmountCents),
		Currency:      stripe.String(string(stripe.CurrencyUSD)),
		Confirm:       stripe.Bool(true),
		Description:   stripe.String(req.Description),
	}
	params.Context = ctx
	if req.ReceiptEmail != "" {
		params.ReceiptEmail = stripe.String(req.ReceiptEmail)
	}
	if req.ReturnURL != "" {
		params.ReturnURL = stripe.String(req.ReturnURL)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return IntentInfo{}, wrapErr(err)
	}
	return intentInfo(pi), nil
}

func (p *StripeProvider) ConfirmIntent(ctx context.Context, id string) (IntentInfo, error) {
	params := &stripe.PaymentIntentConfirmParams{}
	params.Context = ctx
	pi, err := p.api.PaymentIntents.Confirm(id, params)
	if err != nil {
		return IntentInfo{}, wrapErr(err)
	}
	return intentInfo(pi), nil
}

func (p *StripeProvider) GetIntent(ctx context.Context, id string) (IntentInfo, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := p.api.PaymentIntents.Get(id, params)
	if err != nil {
		return IntentInfo{}, wrapErr(err)
	}
	return intentInfo(pi), nil
}

func (p *StripeProvider) SetIntentMetadata(ctx context.Context, id string, metadata map[string]string) error {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	_, err := p.api.PaymentIntents.Update(id, params)
	return wrapErr(err)
}

func (p *StripeProvider) InvoiceSubscriptionID(ctx context.Context, invoiceID string) (string, error) {
	params := &stripe.InvoiceParams{}
	params.Context = ctx
	inv, err := p.api.Invoices.Get(invoiceID, params)
	if err != nil {
		return "", wrapErr(err)
	}
	if inv.Subscription == nil {
		return "", nil
	}
	return inv.Subscription.ID, nil
}

func (p *StripeProvider) GetCheckoutSession(ctx context.Context, id string) (SessionInfo, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	sess, err := p.api.CheckoutSessions.Get(id, params)
	if err != nil {
		return SessionInfo{}, wrapErr(err)
	}

	info := SessionInfo{
		Paid:          sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		PaymentStatus: string(sess.PaymentStatus),
		OrderNumber:   sess.ClientReferenceID,
	}
	if sess.PaymentIntent != nil {
		info.PaymentIntentID = sess.PaymentIntent.ID
	}
	if sess.Customer != nil {
		info.CustomerID = sess.Customer.ID
	}
	return info, nil
}

func (p *StripeProvider) CreateRefund(ctx context.Context, paymentIntentID string, amountCents int64) (RefundInfo, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentIntentID),
	}
	params.Context = ctx
	if amountCents > 0 {
		params.Amount = stripe.Int64(amountCents)
	}

	refund, err := p.api.Refunds.New(params)
	if err != nil {
		return RefundInfo{}, wrapErr(err)
	}
	return RefundInfo{
		ID:        refund.ID,
		Status:    string(refund.Status),
		Succeeded: refund.Status == stripe.RefundStatusSucceeded,
	}, nil
}

// ConstructEvent verifies the webhook signature before any parsing. An
// invalid signature rejects the whole request.
func (p *StripeProvider) ConstructEvent(payload []byte, sigHeader string) (Event, error) {
	raw, err := webhook.ConstructEvent(payload, sigHeader, p.webhookSecret)
	if err != nil {
		return Event{}, err
	}

	ev := Event{Type: string(raw.Type)}
	switch ev.Type {
	case EventInvoicePaid:
		var inv stripe.Invoice
		if err := json.Unmarshal(raw.Data.Raw, &inv); err != nil {
			return Event{}, err
		}
		if inv.Subscription != nil {
			ev.SubscriptionID = inv.Subscription.ID
		}
	case EventSubscriptionUpdated, EventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(raw.Data.Raw, &sub); err != nil {
			return Event{}, err
		}
		ev.SubscriptionID = sub.ID
		ev.Status = string(sub.Status)
		ev.CurrentPeriodEnd = unixTime(sub.CurrentPeriodEnd)
	}
	return ev, nil
}

// unixTime converts an epoch-second field, keeping an unset (zero) value as
// the zero time so callers can test it with IsZero.
func unixTime(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0)
}

func subInfo(sub *stripe.Subscription) SubscriptionInfo {
	info := SubscriptionInfo{
		ID:               sub.ID,
		Status:           string(sub.Status),
		CurrentPeriodEnd: unixTime(sub.CurrentPeriodEnd),
		Metadata:         sub.Metadata,
	}
	if sub.Customer != nil {
		info.CustomerID = sub.Customer.ID
	}
	if sub.LatestInvoice != nil && sub.LatestInvoice.PaymentIntent != nil {
		info.PaymentIntentID = sub.LatestInvoice.PaymentIntent.ID
		info.ClientSecret = sub.LatestInvoice.PaymentIntent.ClientSecret
	}
	return info
}

func intentInfo(pi *stripe.PaymentIntent) IntentInfo {
	info := IntentInfo{
		ID:           pi.ID,
		Status:       string(pi.Status),
		ClientSecret: pi.ClientSecret,
		Metadata:     pi.Metadata,
	}
	if pi.Customer != nil {
		info.CustomerID = pi.Customer.ID
	}
	if pi.Invoice != nil {
		info.InvoiceID = pi.Invoice.ID
	}
	if pi.Status == stripe.PaymentIntentStatusRequiresAction &&
		pi.NextAction != nil && pi.NextAction.Type == "use_stripe_sdk" {
		info.RequiresSDKAction = true
	}
	return info
}
