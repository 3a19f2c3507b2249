package services

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spectralabs/spectra-backend/internal/billing"
	"github.com/spectralabs/spectra-backend/internal/models"
	"github.com/spectralabs/spectra-backend/internal/store"
)

// mockStore implements store.Store with overridable behavior per method.
// Unset methods return store.ErrNotFound for lookups and nil for writes.
type mockStore struct {
	createSubmission       func(ctx context.Context, s *models.Submission) error
	getSubmissionBySKU     func(ctx context.Context, sku string) (*models.Submission, error)
	listSubmissionsByEmail func(ctx context.Context, email string) ([]models.Submission, error)
	listSKUsByPrefix       func(ctx context.Context, prefix string, limit int) ([]string, error)
	listSubmissions        func(ctx context.Context) ([]models.Submission, error)

	createOrder              func(ctx context.Context, o *models.Order) error
	getOrderByID             func(ctx context.Context, id uuid.UUID) (*models.Order, error)
	getOrderByNumber         func(ctx context.Context, number string) (*models.Order, error)
	getOrderBySessionID      func(ctx context.Context, sessionID string) (*models.Order, error)
	getPaidOrderForSub       func(ctx context.Context, submissionID uuid.UUID) (*models.Order, error)
	listOrdersByEmail        func(ctx context.Context, email string) ([]models.Order, error)
	listOrders               func(ctx context.Context) ([]models.Order, error)
	updateOrder              func(ctx context.Context, o *models.Order) error
	markOrderPaid            func(ctx context.Context, id uuid.UUID, updates map[string]any) (bool, error)

	createSubscription     func(ctx context.Context, s *models.Subscription) error
	getSubscriptionStripe  func(ctx context.Context, stripeID string) (*models.Subscription, error)
	getNewestSubscription  func(ctx context.Context, email, sku string) (*models.Subscription, error)
	getSubscriptionByID    func(ctx context.Context, id uuid.UUID) (*models.Subscription, error)
	listSubscriptionsEmail func(ctx context.Context, email string) ([]models.Subscription, error)
	listSubscriptions      func(ctx context.Context) ([]models.Subscription, error)
	updateSubscription     func(ctx context.Context, s *models.Subscription) error
	updateSubStatus        func(ctx context.Context, stripeID, status string, periodEnd time.Time, paidAt *time.Time) error
	markSubCanceled        func(ctx context.Context, stripeID string, at time.Time) error

	createClaim       func(ctx context.Context, c *models.Claim) error
	getClaimByID      func(ctx context.Context, id uuid.UUID) (*models.Claim, error)
	listClaimsByEmail func(ctx context.Context, email string) ([]models.Claim, error)
	listClaims        func(ctx context.Context) ([]models.Claim, error)
	updateAdminNotes  func(ctx context.Context, id uuid.UUID, notes string) error

	replaceAccessCode func(ctx context.Context, c *models.AccessCode) error
	getAccessCode     func(ctx context.Context, email, sku string) (*models.AccessCode, error)
	deleteAccessCode  func(ctx context.Context, id uuid.UUID) error
}

func (m *mockStore) CreateSubmission(ctx context.Context, s *models.Submission) error {
	if m.createSubmission != nil {
		return m.createSubmission(ctx, s)
	}
	return nil
}

func (m *mockStore) GetSubmissionBySKU(ctx context.Context, sku string) (*models.Submission, error) {
	if m.getSubmissionBySKU != nil {
		return m.getSubmissionBySKU(ctx, sku)
	}
	return nil, store.ErrNotFound
}

func (m *mockStore) ListSubmissionsByEmail(ctx context.Context, email string) ([]models.Submission, error) {
	if m.listSubmissionsByEmail != nil {
		return m.listSubmissionsByEmail(ctx, email)
	}
	return nil, nil
}

func (m *mockStore) ListSKUsByPrefix(ctx context.Context, prefix string, limit int) ([]string, error) {
	if m.listSKUsByPrefix != nil {
		return m.listSKUsByPrefix(ctx, prefix, limit)
	}
	return nil, nil
}

func (m *mockStore) ListSubmissions(ctx context.Context) ([]models.Submission, error) {
	if m.listSubmissions != nil {
		return m.listSubmissions(ctx)
	}
	return nil, nil
}

func (m *mockStore) CreateOrder(ctx context.Context, o *models.Order) error {
	if m.createOrder != nil {
		return m.createOrder(ctx, o)
	}
	return nil
}

func (m *mockStore) GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if m.getOrderByID != nil {
		return m.getOrderByID(ctx, id)
	}
	return nil, store.ErrNotFound
}

func (m *mockStore) GetOrderByNumber(ctx context.Context, number string) (*models.Order, error) {
	if m.getOrderByNumber != nil {
		return m.getOrderByNumber(ctx, number)
	}
	return nil, store.ErrNotFound
}

func (m *mockStore) GetOrderBySessionID(ctx context.Context, sessionID string) (*models.Order, error) {
	if m.getOrderBySessionID != nil {
		return m.getOrderBySessionID(ctx, sessionID)
	}
	return nil, store.ErrNotFound
}

func (m *mockStore) GetPaidOrderForSubmission(ctx context.Context, submissionID uuid.UUID) (*models.Order, error) {
	if m.getPaidOrderForSub != nil {
		return m.getPaidOrderForSub(ctx, submissionID)
	}
	return nil, store.ErrNotFound
}

func (m *mockStore) ListOrdersByEmail(ctx context.Context, email string) ([]models.Order, error) {
	if m.listOrdersByEmail != nil {
		return m.listOrdersByEmail(ctx, email)
	}
	return nil, nil
}

func (m *mockStore) ListOrders(ctx context.Context) ([]models.Order, error) {
	if m.listOrders != nil {
		return m.listOrders(ctx)
	}
	return nil, nil
}

func (m *mockStore) UpdateOrder(ctx context.Context, o *models.Order) error {
	if m.updateOrder != nil {
		return m.updateOrder(ctx, o)
	}
	return nil
}

func (m *mockStore) MarkOrderPaid(ctx context.Context, id uuid.UUID, updates map[string]any) (bool, error) {
	// Mirror the store contract: MarkOrderPaid flips payment_status itself
	// (see GormStore.MarkOrderPaid), so callers never pass it in updates.
	updates["payment_status"] = models.PaymentStatusPaid
	if m.markOrderPaid != nil {
		return m.markOrderPaid(ctx, id, updates)
	}
	return true, nil
}

func (m *mockStore) CreateSubscription(ctx context.Context, s *models.Subscription) error {
	if m.createSubscription != nil {
		return m.createSubscription(ctx, s)
	}
	return nil
}

func (m *mockStore) GetSubscriptionByStripeID(ctx context.Context, stripeID string) (*models.Subscription, error) {
	if m.getSubscriptionStripe != nil {
		return m.getSubscriptionStripe(ctx, stripeID)
	}
	return nil, store.ErrNotFound
}

func (m *mockStore) GetNewestSubscriptionForEmailSKU(ctx context.Context, email, sku string) (*models.Subscription, error) {
	if m.getNewestSubscription != nil {
		return m.getNewestSubscription(ctx, email, sku)
	}
	return nil, store.ErrNotFound
}

func (m *mockStore) GetSubscriptionByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	if m.getSubscriptionByID != nil {
		return m.getSubscriptionByID(ctx, id)
	}
	return nil, store.ErrNotFound
}

func (m *mockStore) ListSubscriptionsByEmail(ctx context.Context, email string) ([]models.Subscription, error) {
	if m.listSubscriptionsEmail != nil {
		return m.listSubscriptionsEmail(ctx, email)
	}
	return nil, nil
}

func (m *mockStore) ListSubscriptions(ctx context.Context) ([]models.Subscription, error) {
	if m.listSubscriptions != nil {
		return m.listSubscriptions(ctx)
	}
	return nil, nil
}

func (m *mockStore) UpdateSubscription(ctx context.Context, s *models.Subscription) error {
	if m.updateSubscription != nil {
		return m.updateSubscription(ctx, s)
	}
	return nil
}

func (m *mockStore) UpdateSubscriptionStatus(ctx context.Context, stripeID, status string, periodEnd time.Time, paidAt *time.Time) error {
	if m.updateSubStatus != nil {
		return m.updateSubStatus(ctx, stripeID, status, periodEnd, paidAt)
	}
	return nil
}

func (m *mockStore) MarkSubscriptionCanceled(ctx context.Context, stripeID string, at time.Time) error {
	if m.markSubCanceled != nil {
		return m.markSubCanceled(ctx, stripeID, at)
	}
	return nil
}

func (m *mockStore) CreateClaim(ctx context.Context, c *models.Claim) error {
	if m.createClaim != nil {
		return m.createClaim(ctx, c)
	}
	return nil
}

func (m *mockStore) GetClaimByID(ctx context.Context, id uuid.UUID) (*models.Claim, error) {
	if m.getClaimByID != nil {
		return m.getClaimByID(ctx, id)
	}
	return nil, store.ErrNotFound
}

func (m *mockStore) ListClaimsByEmail(ctx context.Context, email string) ([]models.Claim, error) {
	if m.listClaimsByEmail != nil {
		return m.listClaimsByEmail(ctx, email)
	}
	return nil, nil
}

func (m *mockStore) ListClaims(ctx context.Context) ([]models.Claim, error) {
	if m.listClaims != nil {
		return m.listClaims(ctx)
	}
	return nil, nil
}

func (m *mockStore) UpdateClaimAdminNotes(ctx context.Context, id uuid.UUID, notes string) error {
	if m.updateAdminNotes != nil {
		return m.updateAdminNotes(ctx, id, notes)
	}
	return nil
}

func (m *mockStore) ReplaceAccessCode(ctx context.Context, c *models.AccessCode) error {
	if m.replaceAccessCode != nil {
		return m.replaceAccessCode(ctx, c)
	}
	return nil
}

func (m *mockStore) GetAccessCode(ctx context.Context, email, sku string) (*models.AccessCode, error) {
	if m.getAccessCode != nil {
		return m.getAccessCode(ctx, email, sku)
	}
	return nil, store.ErrNotFound
}

func (m *mockStore) DeleteAccessCode(ctx context.Context, id uuid.UUID) error {
	if m.deleteAccessCode != nil {
		return m.deleteAccessCode(ctx, id)
	}
	return nil
}

// mockProvider implements billing.Provider.
type mockProvider struct {
	findOrCreateCustomer   func(ctx context.Context, email, sku string) (billing.Customer, error)
	createRecurringPrice   func(ctx context.Context, amountCents int64, interval, name, sku string) (string, error)
	createSubscription     func(ctx context.Context, customerID, priceID string, metadata map[string]string) (billing.SubscriptionInfo, error)
	getSubscription        func(ctx context.Context, id string) (billing.SubscriptionInfo, error)
	getSubWithIntent       func(ctx context.Context, id string) (billing.SubscriptionInfo, error)
	latestSubForCustomer   func(ctx context.Context, customerID string) (string, error)
	cancelAtPeriodEnd      func(ctx context.Context, id string) (billing.SubscriptionInfo, error)
	createAndConfirmIntent func(ctx context.Context, req billing.IntentRequest) (billing.IntentInfo, error)
	confirmIntent          func(ctx context.Context, id string) (billing.IntentInfo, error)
	getIntent              func(ctx context.Context, id string) (billing.IntentInfo, error)
	setIntentMetadata      func(ctx context.Context, id string, metadata map[string]string) error
	invoiceSubscriptionID  func(ctx context.Context, invoiceID string) (string, error)
	getCheckoutSession     func(ctx context.Context, id string) (billing.SessionInfo, error)
	createRefund           func(ctx context.Context, paymentIntentID string, amountCents int64) (billing.RefundInfo, error)
	constructEvent         func(payload []byte, sigHeader string) (billing.Event, error)
}

func (m *mockProvider) FindOrCreateCustomer(ctx context.Context, email, sku string) (billing.Customer, error) {
	if m.findOrCreateCustomer != nil {
		return m.findOrCreateCustomer(ctx, email, sku)
	}
	return billing.Customer{ID: "cus_test", Email: email}, nil
}

func (m *mockProvider) CreateRecurringPrice(ctx context.Context, amountCents int64, interval, name, sku string) (string, error) {
	if m.createRecurringPrice != nil {
		return m.createRecurringPrice(ctx, amountCents, interval, name, sku)
	}
	return "price_test", nil
}

func (m *mockProvider) CreateSubscription(ctx context.Context, customerID, priceID string, metadata map[string]string) (billing.SubscriptionInfo, error) {
	if m.createSubscription != nil {
		return m.createSubscription(ctx, customerID, priceID, metadata)
	}
	return billing.SubscriptionInfo{ID: "sub_test", CustomerID: customerID, Status: models.SubStatusIncomplete}, nil
}

func (m *mockProvider) GetSubscription(ctx context.Context, id string) (billing.SubscriptionInfo, error) {
	if m.getSubscription != nil {
		return m.getSubscription(ctx, id)
	}
	return billing.SubscriptionInfo{ID: id}, nil
}

func (m *mockProvider) GetSubscriptionWithIntent(ctx context.Context, id string) (billing.SubscriptionInfo, error) {
	if m.getSubWithIntent != nil {
		return m.getSubWithIntent(ctx, id)
	}
	return billing.SubscriptionInfo{ID: id}, nil
}

func (m *mockProvider) LatestSubscriptionForCustomer(ctx context.Context, customerID string) (string, error) {
	if m.latestSubForCustomer != nil {
		return m.latestSubForCustomer(ctx, customerID)
	}
	return "", nil
}

func (m *mockProvider) CancelAtPeriodEnd(ctx context.Context, id string) (billing.SubscriptionInfo, error) {
	if m.cancelAtPeriodEnd != nil {
		return m.cancelAtPeriodEnd(ctx, id)
	}
	return billing.SubscriptionInfo{ID: id}, nil
}

func (m *mockProvider) CreateAndConfirmIntent(ctx context.Context, req billing.IntentRequest) (billing.IntentInfo, error) {
	if m.createAndConfirmIntent != nil {
		return m.createAndConfirmIntent(ctx, req)
	}
	return billing.IntentInfo{ID: "pi_test", Status: billing.IntentSucceeded}, nil
}

func (m *mockProvider) ConfirmIntent(ctx context.Context, id string) (billing.IntentInfo, error) {
	if m.confirmIntent != nil {
		return m.confirmIntent(ctx, id)
	}
	return billing.IntentInfo{ID: id, Status: billing.IntentSucceeded}, nil
}

func (m *mockProvider) GetIntent(ctx context.Context, id string) (billing.IntentInfo, error) {
	if m.getIntent != nil {
		return m.getIntent(ctx, id)
	}
	return billing.IntentInfo{ID: id}, nil
}

func (m *mockProvider) SetIntentMetadata(ctx context.Context, id string, metadata map[string]string) error {
	if m.setIntentMetadata != nil {
		return m.setIntentMetadata(ctx, id, metadata)
	}
	return nil
}

func (m *mockProvider) InvoiceSubscriptionID(ctx context.Context, invoiceID string) (string, error) {
	if m.invoiceSubscriptionID != nil {
		return m.invoiceSubscriptionID(ctx, invoiceID)
	}
	return "", nil
}

func (m *mockProvider) GetCheckoutSession(ctx context.Context, id string) (billing.SessionInfo, error) {
	if m.getCheckoutSession != nil {
		return m.getCheckoutSession(ctx, id)
	}
	return billing.SessionInfo{}, nil
}

func (m *mockProvider) CreateRefund(ctx context.Context, paymentIntentID string, amountCents int64) (billing.RefundInfo, error) {
	if m.createRefund != nil {
		return m.createRefund(ctx, paymentIntentID, amountCents)
	}
	return billing.RefundInfo{ID: "re_test", Succeeded: true}, nil
}

func (m *mockProvider) ConstructEvent(payload []byte, sigHeader string) (billing.Event, error) {
	if m.constructEvent != nil {
		return m.constructEvent(payload, sigHeader)
	}
	return billing.Event{}, nil
}

// mockMailer implements mail.Dispatcher and records calls.
type mockMailer struct {
	accessCodes   []string
	buyOrders     []string
	sellOrders    []string
	receipts      []string
	confirmations []string
	fail          error
}

func (m *mockMailer) SendAccessCode(email, code, sku string) error {
	if m.fail != nil {
		return m.fail
	}
	m.accessCodes = append(m.accessCodes, code)
	return nil
}

func (m *mockMailer) SendBuyConfirmation(order *models.Order, paymentLink string) error {
	if m.fail != nil {
		return m.fail
	}
	m.buyOrders = append(m.buyOrders, order.OrderNumber)
	return nil
}

func (m *mockMailer) SendSellConfirmation(order *models.Order) error {
	if m.fail != nil {
		return m.fail
	}
	m.sellOrders = append(m.sellOrders, order.OrderNumber)
	return nil
}

func (m *mockMailer) SendPaymentReceipt(order *models.Order) error {
	if m.fail != nil {
		return m.fail
	}
	m.receipts = append(m.receipts, order.OrderNumber)
	return nil
}

func (m *mockMailer) SendSubscriptionConfirmation(sub *models.Subscription, product *models.Submission) error {
	if m.fail != nil {
		return m.fail
	}
	m.confirmations = append(m.confirmations, sub.StripeSubscriptionID)
	return nil
}

// mockDocs implements documents.Generator.
type mockDocs struct {
	invoices []string
	receipts []string
	fail     error
}

func (m *mockDocs) GenerateInvoice(ctx context.Context, order *models.Order) (string, error) {
	if m.fail != nil {
		return "", m.fail
	}
	m.invoices = append(m.invoices, order.OrderNumber)
	return "https://cdn.test/invoice_" + order.OrderNumber + ".pdf", nil
}

func (m *mockDocs) GenerateReceipt(ctx context.Context, order *models.Order) (string, error) {
	if m.fail != nil {
		return "", m.fail
	}
	m.receipts = append(m.receipts, order.OrderNumber)
	return "https://cdn.test/receipt_" + order.OrderNumber + ".pdf", nil
}

// mockImages implements storage.ImageStore.
type mockImages struct {
	uploads []string
	fail    error
}

func (m *mockImages) Upload(ctx context.Context, file io.Reader, folder, name string) (string, error) {
	if m.fail != nil {
		return "", m.fail
	}
	m.uploads = append(m.uploads, folder+"/"+name)
	return "https://cdn.test/" + folder + "/" + name, nil
}
