package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spectralabs/spectra-backend/internal/billing"
	"github.com/spectralabs/spectra-backend/internal/documents"
	"github.com/spectralabs/spectra-backend/internal/mail"
	"github.com/spectralabs/spectra-backend/internal/models"
	"github.com/spectralabs/spectra-backend/internal/store"
)

var (
	ErrPaymentIncomplete = errors.New("payment did not complete")
	ErrNotPaid           = errors.New("order is not paid")
)

// PaymentResult is what the client needs to finish or confirm a payment.
type PaymentResult struct {
	Order           *models.Order
	AlreadyPaid     bool
	RequiresAction  bool
	ClientSecret    string
	PaymentIntentID string
}

// PaymentService settles buy orders against the billing provider. Both the
// client confirmation path and the redirect verification path converge on
// complete, whose compare-and-set guarantees the paid side effects run
// exactly once per order.
type PaymentService struct {
	store    store.Store
	provider billing.Provider
	docs     documents.Generator
	mailer   mail.Dispatcher
}

func NewPaymentService(st store.Store, provider billing.Provider, docs documents.Generator, mailer mail.Dispatcher) *PaymentService {
	return &PaymentService{store: st, provider: provider, docs: docs, mailer: mailer}
}

// ProcessPayment creates and confirms a payment intent for the order. When
// the provider demands client-side authentication the result carries the
// client secret and no local state changes.
func (s *PaymentService) ProcessPayment(ctx context.Context, orderNumber, paymentMethodID, returnURL string) (*PaymentResult, error) {
	order, err := s.store.GetOrderByNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.PaymentStatus == models.PaymentStatusPaid {
		return &PaymentResult{Order: order, AlreadyPaid: true}, nil
	}

	intent, err := s.provider.CreateAndConfirmIntent(ctx, billing.IntentRequest{
		PaymentMethodID: paymentMethodID,
		AmountCents:     int64(order.PriceNumeric * 100),
		Description:     "Order " + order.OrderNumber,
		ReceiptEmail:    order.Email,
		ReturnURL:       returnURL,
		Metadata:        map[string]string{"order_number": order.OrderNumber},
	})
	if err != nil {
		return nil, err
	}

	switch intent.Status {
	case billing.IntentRequiresAction:
		if intent.RequiresSDKAction {
			return &PaymentResult{
				Order:           order,
				RequiresAction:  true,
				ClientSecret:    intent.ClientSecret,
				PaymentIntentID: intent.ID,
			}, nil
		}
		return nil, ErrPaymentIncomplete
	case billing.IntentSucceeded:
		s.complete(ctx, order, intent.ID)
		return &PaymentResult{Order: order, PaymentIntentID: intent.ID}, nil
	}
	return nil, ErrPaymentIncomplete
}

// ConfirmPayment finishes an intent after the client completed the required
// action.
func (s *PaymentService) ConfirmPayment(ctx context.Context, orderNumber, paymentIntentID string) (*PaymentResult, error) {
	order, err := s.store.GetOrderByNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.PaymentStatus == models.PaymentStatusPaid {
		return &PaymentResult{Order: order, AlreadyPaid: true, PaymentIntentID: paymentIntentID}, nil
	}

	intent, err := s.provider.ConfirmIntent(ctx, paymentIntentID)
	if err != nil {
		return nil, err
	}
	if intent.Status != billing.IntentSucceeded {
		return nil, ErrPaymentIncomplete
	}
	s.complete(ctx, order, intent.ID)
	return &PaymentResult{Order: order, PaymentIntentID: intent.ID}, nil
}

// VerifySession resolves a checkout session after the redirect back from the
// hosted payment page.
func (s *PaymentService) VerifySession(ctx context.Context, sessionID string) (*models.Order, error) {
	session, err := s.provider.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.Paid {
		return nil, ErrPaymentIncomplete
	}

	order, err := s.store.GetOrderBySessionID(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) && session.OrderNumber != "" {
		order, err = s.store.GetOrderByNumber(ctx, session.OrderNumber)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	s.complete(ctx, order, session.PaymentIntentID)
	return order, nil
}

// complete performs the paid transition. The store's guarded update decides
// a single winner; only the winner generates the receipt and sends the
// confirmation email. Losers observe an already-paid order and do nothing.
func (s *PaymentService) complete(ctx context.Context, order *models.Order, paymentIntentID string) {
	updates := map[string]any{
		"status":                   models.OrderStatusProcessing,
		"stripe_payment_intent_id": paymentIntentID,
	}
	won, err := s.store.MarkOrderPaid(ctx, order.ID, updates)
	if err != nil {
		slog.Error("paid transition failed", "order", order.OrderNumber, "error", err)
		return
	}
	order.PaymentStatus = models.PaymentStatusPaid
	order.Status = models.OrderStatusProcessing
	order.StripePaymentIntentID = paymentIntentID
	if !won {
		return
	}

	if url, err := s.docs.GenerateReceipt(ctx, order); err != nil {
		slog.Warn("receipt generation failed", "order", order.OrderNumber, "error", err)
	} else {
		order.ReceiptURL = url
		if err := s.store.UpdateOrder(ctx, order); err != nil {
			slog.Warn("receipt url persist failed", "order", order.OrderNumber, "error", err)
		}
	}

	if err := s.mailer.SendPaymentReceipt(order); err != nil {
		slog.Warn("receipt email failed", "order", order.OrderNumber, "error", err)
	}
	slog.Info("order paid", "order", order.OrderNumber, "payment_intent", paymentIntentID)
}

// Refund refunds a paid order in full and records the reversal.
func (s *PaymentService) Refund(ctx context.Context, orderNumber string) (*models.Order, error) {
	order, err := s.store.GetOrderByNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.PaymentStatus != models.PaymentStatusPaid {
		return nil, ErrNotPaid
	}

	refund, err := s.provider.CreateRefund(ctx, order.StripePaymentIntentID, int64(order.PriceNumeric*100))
	if err != nil {
		return nil, err
	}
	if !refund.Succeeded {
		return nil, ErrPaymentIncomplete
	}

	order.PaymentStatus = models.PaymentStatusRefunded
	order.Status = models.OrderStatusCancelled
	if err := s.store.UpdateOrder(ctx, order); err != nil {
		return nil, err
	}
	slog.Info("order refunded", "order", order.OrderNumber, "refund", refund.ID)
	return order, nil
}
