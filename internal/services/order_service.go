package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/spectralabs/spectra-backend/internal/documents"
	"github.com/spectralabs/spectra-backend/internal/mail"
	"github.com/spectralabs/spectra-backend/internal/models"
	"github.com/spectralabs/spectra-backend/internal/store"
)

var (
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrOrderNotFound      = errors.New("order not found")
	ErrInvalidAction      = errors.New("invalid order action")
)

const orderNumberAttempts = 3

// CheckoutRequest carries the buyer details collected by the checkout form.
type CheckoutRequest struct {
	SKU     string
	Name    string
	Email   string
	Phone   string
	Street  string
	City    string
	State   string
	ZipCode string
	Country string
	Notes   string
}

type OrderService struct {
	store  store.Store
	docs   documents.Generator
	mailer mail.Dispatcher
}

func NewOrderService(st store.Store, docs documents.Generator, mailer mail.Dispatcher) *OrderService {
	return &OrderService{store: st, docs: docs, mailer: mailer}
}

// newOrderNumber builds a human-readable order number from the last eight
// digits of the current epoch milliseconds. Collisions are possible, so
// creation retries under the unique constraint.
func newOrderNumber(prefix string) string {
	return fmt.Sprintf("%s-%08d", prefix, time.Now().UnixMilli()%100000000)
}

func prefixFor(action string) (string, error) {
	switch action {
	case models.ActionBuy:
		return "BUY", nil
	case models.ActionSell:
		return "SLL", nil
	}
	return "", ErrInvalidAction
}

// createWithRetry inserts the order, regenerating the order number when the
// unique index rejects it.
func (s *OrderService) createWithRetry(ctx context.Context, order *models.Order, prefix string) error {
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		order.OrderNumber = newOrderNumber(prefix)
		err := s.store.CreateOrder(ctx, order)
		if err == nil {
			return nil
		}
		if !errors.Is(err, store.ErrDuplicate) {
			return err
		}
		time.Sleep(time.Millisecond)
	}
	return fmt.Errorf("could not allocate a unique order number after %d attempts", orderNumberAttempts)
}

// CheckoutPreview loads the submission the checkout form renders from. When
// the submission already has a paid order it is returned so the caller can
// redirect instead of collecting payment twice.
func (s *OrderService) CheckoutPreview(ctx context.Context, sku string) (*models.Submission, *models.Order, error) {
	sub, err := s.store.GetSubmissionBySKU(ctx, sku)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrSubmissionNotFound
		}
		return nil, nil, err
	}
	if sub.Action != models.ActionBuy {
		return nil, nil, ErrInvalidAction
	}

	paid, err := s.store.GetPaidOrderForSubmission(ctx, sub.ID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, nil, err
	}
	return sub, paid, nil
}

// Checkout records a buy order for the submission identified by SKU. When
// the submission already has a paid order the call is an idempotent no-op:
// the existing order comes back with alreadyPaid true and nothing is
// written or sent.
func (s *OrderService) Checkout(ctx context.Context, req CheckoutRequest) (order *models.Order, alreadyPaid bool, err error) {
	sub, err := s.store.GetSubmissionBySKU(ctx, req.SKU)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, false, ErrSubmissionNotFound
		}
		return nil, false, err
	}

	if paid, err := s.store.GetPaidOrderForSubmission(ctx, sub.ID); err == nil {
		return paid, true, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, false, err
	}

	order = &models.Order{
		SubmissionID:    sub.ID,
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		DeliveryAddress: models.DeliveryAddress{Street: req.Street, City: req.City, State: req.State, ZipCode: req.ZipCode, Country: req.Country},
		Metal:           sub.Metal,
		Grams:           sub.Grams,
		CalculatedPrice: sub.CalculatedPrice,
		PriceNumeric:    parsePrice(sub.CalculatedPrice),
		Action:          models.ActionBuy,
		Status:          models.OrderStatusPending,
		PaymentStatus:   models.PaymentStatusPending,
		Notes:           req.Notes,
	}
	if err := s.createWithRetry(ctx, order, "BUY"); err != nil {
		return nil, false, err
	}

	s.attachInvoice(ctx, order)
	if err := s.mailer.SendBuyConfirmation(order, ""); err != nil {
		slog.Warn("buy confirmation email failed", "order", order.OrderNumber, "error", err)
	}

	slog.Info("buy order created", "order", order.OrderNumber, "sku", sub.SKU, "email", order.Email)
	return order, false, nil
}

// ConfirmSell records a sell order for the submission. Sell orders carry no
// payment leg; the receipt is generated at creation and settlement happens
// manually.
func (s *OrderService) ConfirmSell(ctx context.Context, req CheckoutRequest) (*models.Order, error) {
	sub, err := s.store.GetSubmissionBySKU(ctx, req.SKU)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}
	if sub.Action != models.ActionSell {
		return nil, ErrInvalidAction
	}

	order := &models.Order{
		SubmissionID:    sub.ID,
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		DeliveryAddress: models.DeliveryAddress{Street: req.Street, City: req.City, State: req.State, ZipCode: req.ZipCode, Country: req.Country},
		Metal:           sub.Metal,
		Grams:           sub.Grams,
		CalculatedPrice: sub.CalculatedPrice,
		PriceNumeric:    parsePrice(sub.CalculatedPrice),
		Action:          models.ActionSell,
		Status:          models.OrderStatusPending,
		PaymentStatus:   models.PaymentStatusPending,
		Notes:           req.Notes,
	}
	if err := s.createWithRetry(ctx, order, "SLL"); err != nil {
		return nil, err
	}

	s.attachReceipt(ctx, order)
	if err := s.mailer.SendSellConfirmation(order); err != nil {
		slog.Warn("sell confirmation email failed", "order", order.OrderNumber, "error", err)
	}

	slog.Info("sell order created", "order", order.OrderNumber, "sku", sub.SKU, "email", order.Email)
	return order, nil
}

// attachInvoice renders and stores the invoice PDF. Failures are logged and
// the order proceeds without a link.
func (s *OrderService) attachInvoice(ctx context.Context, order *models.Order) {
	url, err := s.docs.GenerateInvoice(ctx, order)
	if err != nil {
		slog.Warn("invoice generation failed", "order", order.OrderNumber, "error", err)
		return
	}
	order.InvoiceURL = url
	if err := s.store.UpdateOrder(ctx, order); err != nil {
		slog.Warn("invoice url persist failed", "order", order.OrderNumber, "error", err)
	}
}

// attachReceipt mirrors attachInvoice for the sell path.
func (s *OrderService) attachReceipt(ctx context.Context, order *models.Order) {
	url, err := s.docs.GenerateReceipt(ctx, order)
	if err != nil {
		slog.Warn("receipt generation failed", "order", order.OrderNumber, "error", err)
		return
	}
	order.ReceiptURL = url
	if err := s.store.UpdateOrder(ctx, order); err != nil {
		slog.Warn("receipt url persist failed", "order", order.OrderNumber, "error", err)
	}
}

func (s *OrderService) GetByNumber(ctx context.Context, number string) (*models.Order, error) {
	order, err := s.store.GetOrderByNumber(ctx, number)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	return order, err
}

func (s *OrderService) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.store.GetOrderByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	return order, err
}

func (s *OrderService) ListByEmail(ctx context.Context, email string) ([]models.Order, error) {
	return s.store.ListOrdersByEmail(ctx, email)
}

func (s *OrderService) List(ctx context.Context) ([]models.Order, error) {
	return s.store.ListOrders(ctx)
}

// parsePrice extracts the numeric amount from a display price such as
// "$1,234.56". Unparseable input yields zero.
func parsePrice(display string) float64 {
	var out []rune
	for _, r := range display {
		if (r >= '0' && r <= '9') || r == '.' {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return 0
	}
	var v float64
	if _, err := fmt.Sscanf(string(out), "%f", &v); err != nil {
		return 0
	}
	return v
}
