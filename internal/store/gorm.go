package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/spectralabs/spectra-backend/internal/models"
	"gorm.io/gorm"
)

// GormStore implements Store on a shared *gorm.DB handle.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}

// Submissions

func (s *GormStore) CreateSubmission(ctx context.Context, sub *models.Submission) error {
	return translate(s.db.WithContext(ctx).Create(sub).Error)
}

func (s *GormStore) GetSubmissionBySKU(ctx context.Context, sku string) (*models.Submission, error) {
	var sub models.Submission
	err := s.db.WithContext(ctx).Where("sku = ?", sku).First(&sub).Error
	if err != nil {
		return nil, translate(err)
	}
	return &sub, nil
}

func (s *GormStore) ListSubmissionsByEmail(ctx context.Context, email string) ([]models.Submission, error) {
	var subs []models.Submission
	err := s.db.WithContext(ctx).
		Where("email = ?", email).
		Order("timestamp DESC").
		Find(&subs).Error
	return subs, translate(err)
}

func (s *GormStore) ListSKUsByPrefix(ctx context.Context, prefix string, limit int) ([]string, error) {
	var skus []string
	err := s.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("sku ILIKE ?", prefix+"%").
		Order("timestamp DESC").
		Limit(limit).
		Pluck("sku", &skus).Error
	return skus, translate(err)
}

func (s *GormStore) ListSubmissions(ctx context.Context) ([]models.Submission, error) {
	var subs []models.Submission
	err := s.db.WithContext(ctx).Order("timestamp DESC").Find(&subs).Error
	return subs, translate(err)
}

// Orders

func (s *GormStore) CreateOrder(ctx context.Context, o *models.Order) error {
	return translate(s.db.WithContext(ctx).Create(o).Error)
}

func (s *GormStore) GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var o models.Order
	err := s.db.WithContext(ctx).Preload("Submission").First(&o, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

func (s *GormStore) GetOrderByNumber(ctx context.Context, number string) (*models.Order, error) {
	var o models.Order
	err := s.db.WithContext(ctx).Preload("Submission").Where("order_number = ?", number).First(&o).Error
	if err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

func (s *GormStore) GetOrderBySessionID(ctx context.Context, sessionID string) (*models.Order, error) {
	var o models.Order
	err := s.db.WithContext(ctx).Where("stripe_session_id = ?", sessionID).First(&o).Error
	if err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

func (s *GormStore) GetPaidOrderForSubmission(ctx context.Context, submissionID uuid.UUID) (*models.Order, error) {
	var o models.Order
	err := s.db.WithContext(ctx).
		Where("submission_id = ? AND payment_status = ?", submissionID, models.PaymentStatusPaid).
		First(&o).Error
	if err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

func (s *GormStore) ListOrdersByEmail(ctx context.Context, email string) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).
		Where("email = ?", email).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, translate(err)
}

func (s *GormStore) ListOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&orders).Error
	return orders, translate(err)
}

func (s *GormStore) UpdateOrder(ctx context.Context, o *models.Order) error {
	return translate(s.db.WithContext(ctx).Save(o).Error)
}

// MarkOrderPaid performs the guarded paid transition. The WHERE clause makes
// repeat confirmations of the same order lose, and the partial unique index
// on submission_id rejects a second order of the same submission reaching
// paid; both outcomes report won=false.
func (s *GormStore) MarkOrderPaid(ctx context.Context, id uuid.UUID, updates map[string]any) (bool, error) {
	if updates == nil {
		updates = map[string]any{}
	}
	updates["payment_status"] = models.PaymentStatusPaid
	res := s.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND payment_status <> ?", id, models.PaymentStatusPaid).
		Updates(updates)
	if res.Error != nil {
		if errors.Is(translate(res.Error), ErrDuplicate) {
			return false, nil
		}
		return false, translate(res.Error)
	}
	return res.RowsAffected == 1, nil
}

// Subscriptions

func (s *GormStore) CreateSubscription(ctx context.Context, sub *models.Subscription) error {
	return translate(s.db.WithContext(ctx).Create(sub).Error)
}

func (s *GormStore) GetSubscriptionByStripeID(ctx context.Context, stripeID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.WithContext(ctx).Where("stripe_subscription_id = ?", stripeID).First(&sub).Error
	if err != nil {
		return nil, translate(err)
	}
	return &sub, nil
}

func (s *GormStore) GetNewestSubscriptionForEmailSKU(ctx context.Context, email, sku string) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.WithContext(ctx).
		Where("email = ? AND sku = ?", email, sku).
		Order("created_at DESC").
		First(&sub).Error
	if err != nil {
		return nil, translate(err)
	}
	return &sub, nil
}

func (s *GormStore) GetSubscriptionByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.WithContext(ctx).First(&sub, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &sub, nil
}

func (s *GormStore) ListSubscriptionsByEmail(ctx context.Context, email string) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := s.db.WithContext(ctx).
		Where("email = ?", email).
		Order("created_at DESC").
		Find(&subs).Error
	return subs, translate(err)
}

func (s *GormStore) ListSubscriptions(ctx context.Context) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&subs).Error
	return subs, translate(err)
}

func (s *GormStore) UpdateSubscription(ctx context.Context, sub *models.Subscription) error {
	return translate(s.db.WithContext(ctx).Save(sub).Error)
}

func (s *GormStore) UpdateSubscriptionStatus(ctx context.Context, stripeID, status string, periodEnd time.Time, paidAt *time.Time) error {
	updates := map[string]any{"status": status}
	if !periodEnd.IsZero() {
		updates["current_period_end"] = periodEnd
	}
	if paidAt != nil {
		updates["last_payment_date"] = *paidAt
	}
	res := s.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("stripe_subscription_id = ?", stripeID).
		Updates(updates)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) MarkSubscriptionCanceled(ctx context.Context, stripeID string, at time.Time) error {
	res := s.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("stripe_subscription_id = ?", stripeID).
		Updates(map[string]any{"status": models.SubStatusCanceled, "canceled_at": at})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Claims

func (s *GormStore) CreateClaim(ctx context.Context, c *models.Claim) error {
	return translate(s.db.WithContext(ctx).Create(c).Error)
}

func (s *GormStore) GetClaimByID(ctx context.Context, id uuid.UUID) (*models.Claim, error) {
	var c models.Claim
	err := s.db.WithContext(ctx).First(&c, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (s *GormStore) ListClaimsByEmail(ctx context.Context, email string) ([]models.Claim, error) {
	var claims []models.Claim
	err := s.db.WithContext(ctx).
		Where("email = ?", email).
		Order("created_at DESC").
		Find(&claims).Error
	return claims, translate(err)
}

func (s *GormStore) ListClaims(ctx context.Context) ([]models.Claim, error) {
	var claims []models.Claim
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&claims).Error
	return claims, translate(err)
}

func (s *GormStore) UpdateClaimAdminNotes(ctx context.Context, id uuid.UUID, notes string) error {
	res := s.db.WithContext(ctx).
		Model(&models.Claim{}).
		Where("id = ?", id).
		Update("admin_notes", notes)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Access codes

func (s *GormStore) ReplaceAccessCode(ctx context.Context, c *models.AccessCode) error {
	return translate(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ? AND sku = ?", c.Email, c.SKU).
			Delete(&models.AccessCode{}).Error; err != nil {
			return err
		}
		return tx.Create(c).Error
	}))
}

func (s *GormStore) GetAccessCode(ctx context.Context, email, sku string) (*models.AccessCode, error) {
	var c models.AccessCode
	err := s.db.WithContext(ctx).
		Where("email = ? AND sku = ?", email, sku).
		Order("created_at DESC").
		First(&c).Error
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (s *GormStore) DeleteAccessCode(ctx context.Context, id uuid.UUID) error {
	return translate(s.db.WithContext(ctx).Delete(&models.AccessCode{}, "id = ?", id).Error)
}
