package services

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/spectralabs/spectra-backend/internal/models"
	"github.com/spectralabs/spectra-backend/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSubmission() *models.Submission {
	return &models.Submission{
		ID:              uuid.New(),
		SKU:             "GLD-001",
		Name:            "Jordan Li",
		Email:           "jordan@example.com",
		Metal:           "Gold",
		Grams:           10,
		CalculatedPrice: "$2500.00",
		Action:          models.ActionBuy,
	}
}

func TestCheckoutCreatesBuyOrder(t *testing.T) {
	sub := testSubmission()
	var created *models.Order
	st := &mockStore{
		getSubmissionBySKU: func(_ context.Context, sku string) (*models.Submission, error) {
			assert.Equal(t, "GLD-001", sku)
			return sub, nil
		},
		createOrder: func(_ context.Context, o *models.Order) error {
			created = o
			return nil
		},
	}
	mailer := &mockMailer{}
	docs := &mockDocs{}
	svc := NewOrderService(st, docs, mailer)

	order, alreadyPaid, err := svc.Checkout(context.Background(), CheckoutRequest{
		SKU: "GLD-001", Name: "Jordan Li", Email: "jordan@example.com",
	})
	require.NoError(t, err)
	assert.False(t, alreadyPaid)

	assert.Equal(t, created, order)
	assert.True(t, strings.HasPrefix(order.OrderNumber, "BUY-"))
	assert.Len(t, order.OrderNumber, 12)
	assert.Equal(t, models.ActionBuy, order.Action)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)
	assert.Equal(t, 2500.0, order.PriceNumeric)
	assert.Equal(t, sub.ID, order.SubmissionID)
	assert.Equal(t, []string{order.OrderNumber}, mailer.buyOrders)
	assert.Equal(t, []string{order.OrderNumber}, docs.invoices)
	assert.NotEmpty(t, order.InvoiceURL)
}

func TestCheckoutReturnsExistingPaidOrder(t *testing.T) {
	sub := testSubmission()
	existing := &models.Order{SubmissionID: sub.ID, OrderNumber: "BUY-00000001", PaymentStatus: models.PaymentStatusPaid}
	mailer := &mockMailer{}
	st := &mockStore{
		getSubmissionBySKU: func(_ context.Context, _ string) (*models.Submission, error) {
			return sub, nil
		},
		getPaidOrderForSub: func(_ context.Context, _ uuid.UUID) (*models.Order, error) {
			return existing, nil
		},
		createOrder: func(_ context.Context, _ *models.Order) error {
			t.Fatal("no order should be created")
			return nil
		},
	}
	svc := NewOrderService(st, &mockDocs{}, mailer)

	order, alreadyPaid, err := svc.Checkout(context.Background(), CheckoutRequest{SKU: "GLD-001"})
	require.NoError(t, err)
	assert.True(t, alreadyPaid)
	assert.Equal(t, existing, order)
	assert.Empty(t, mailer.buyOrders)
}

func TestCheckoutUnknownSKU(t *testing.T) {
	svc := NewOrderService(&mockStore{}, &mockDocs{}, &mockMailer{})
	_, _, err := svc.Checkout(context.Background(), CheckoutRequest{SKU: "nope"})
	assert.ErrorIs(t, err, ErrSubmissionNotFound)
}

func TestCheckoutRetriesOnDuplicateOrderNumber(t *testing.T) {
	sub := testSubmission()
	attempts := 0
	numbers := map[string]bool{}
	st := &mockStore{
		getSubmissionBySKU: func(_ context.Context, _ string) (*models.Submission, error) {
			return sub, nil
		},
		createOrder: func(_ context.Context, o *models.Order) error {
			attempts++
			numbers[o.OrderNumber] = true
			if attempts < 3 {
				return store.ErrDuplicate
			}
			return nil
		},
	}
	svc := NewOrderService(st, &mockDocs{}, &mockMailer{})

	order, _, err := svc.Checkout(context.Background(), CheckoutRequest{SKU: "GLD-001"})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.True(t, strings.HasPrefix(order.OrderNumber, "BUY-"))
}

func TestConfirmSellCreatesPendingOrderWithReceipt(t *testing.T) {
	sub := testSubmission()
	sub.Action = models.ActionSell
	st := &mockStore{
		getSubmissionBySKU: func(_ context.Context, _ string) (*models.Submission, error) {
			return sub, nil
		},
	}
	mailer := &mockMailer{}
	docs := &mockDocs{}
	svc := NewOrderService(st, docs, mailer)

	order, err := svc.ConfirmSell(context.Background(), CheckoutRequest{SKU: "GLD-001", Email: "jordan@example.com"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(order.OrderNumber, "SLL-"))
	assert.Equal(t, models.ActionSell, order.Action)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)
	assert.Equal(t, []string{order.OrderNumber}, docs.receipts)
	assert.NotEmpty(t, order.ReceiptURL)
	assert.Equal(t, []string{order.OrderNumber}, mailer.sellOrders)
}

func TestConfirmSellRejectsBuySubmission(t *testing.T) {
	sub := testSubmission()
	st := &mockStore{
		getSubmissionBySKU: func(_ context.Context, _ string) (*models.Submission, error) {
			return sub, nil
		},
		createOrder: func(_ context.Context, _ *models.Order) error {
			t.Fatal("no order should be created")
			return nil
		},
	}
	svc := NewOrderService(st, &mockDocs{}, &mockMailer{})

	_, err := svc.ConfirmSell(context.Background(), CheckoutRequest{SKU: "GLD-001"})
	assert.ErrorIs(t, err, ErrInvalidAction)
}

func TestCheckoutSurvivesEmailAndInvoiceFailures(t *testing.T) {
	sub := testSubmission()
	st := &mockStore{
		getSubmissionBySKU: func(_ context.Context, _ string) (*models.Submission, error) {
			return sub, nil
		},
	}
	svc := NewOrderService(st, &mockDocs{fail: assert.AnError}, &mockMailer{fail: assert.AnError})

	order, _, err := svc.Checkout(context.Background(), CheckoutRequest{SKU: "GLD-001"})
	require.NoError(t, err)
	assert.Empty(t, order.InvoiceURL)
}

func TestCheckoutPreviewReturnsSubmission(t *testing.T) {
	sub := testSubmission()
	st := &mockStore{
		getSubmissionBySKU: func(_ context.Context, _ string) (*models.Submission, error) {
			return sub, nil
		},
	}
	svc := NewOrderService(st, &mockDocs{}, &mockMailer{})

	got, paid, err := svc.CheckoutPreview(context.Background(), "GLD-001")
	require.NoError(t, err)
	assert.Equal(t, sub, got)
	assert.Nil(t, paid)
}

func TestCheckoutPreviewSurfacesPaidOrder(t *testing.T) {
	sub := testSubmission()
	existing := &models.Order{OrderNumber: "BUY-00000001", PaymentStatus: models.PaymentStatusPaid}
	st := &mockStore{
		getSubmissionBySKU: func(_ context.Context, _ string) (*models.Submission, error) {
			return sub, nil
		},
		getPaidOrderForSub: func(_ context.Context, id uuid.UUID) (*models.Order, error) {
			assert.Equal(t, sub.ID, id)
			return existing, nil
		},
	}
	svc := NewOrderService(st, &mockDocs{}, &mockMailer{})

	_, paid, err := svc.CheckoutPreview(context.Background(), "GLD-001")
	require.NoError(t, err)
	assert.Equal(t, existing, paid)
}

func TestCheckoutPreviewRejectsSellSubmission(t *testing.T) {
	sub := testSubmission()
	sub.Action = models.ActionSell
	st := &mockStore{
		getSubmissionBySKU: func(_ context.Context, _ string) (*models.Submission, error) {
			return sub, nil
		},
	}
	svc := NewOrderService(st, &mockDocs{}, &mockMailer{})

	_, _, err := svc.CheckoutPreview(context.Background(), "GLD-001")
	assert.ErrorIs(t, err, ErrInvalidAction)
}

func TestParsePrice(t *testing.T) {
	assert.Equal(t, 2500.0, parsePrice("$2500.00"))
	assert.Equal(t, 1234.56, parsePrice("$1,234.56"))
	assert.Equal(t, 0.0, parsePrice(""))
	assert.Equal(t, 0.0, parsePrice("n/a"))
}
