package models

import (
	"time"

	"github.com/google/uuid"
)

// Subscription status values mirror the billing provider's vocabulary
// exactly. The local row is a cache of provider-owned truth: on conflict
// the provider's value overwrites the mirror, never the other way around.
const (
	SubStatusIncomplete        = "incomplete"
	SubStatusIncompleteExpired = "incomplete_expired"
	SubStatusActive            = "active"
	SubStatusPastDue           = "past_due"
	SubStatusCanceled          = "canceled"
	SubStatusUnpaid            = "unpaid"
)

const (
	PlanMonthly = "monthly"
	PlanYearly  = "yearly"
)

type Subscription struct {
	ID                   uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"_id"`
	StripeSubscriptionID string     `gorm:"size:255;not null;uniqueIndex" json:"stripe_subscription_id"`
	CustomerID           string     `gorm:"size:255;not null" json:"customer_id"`
	Email                string     `gorm:"size:255;not null;index" json:"email"`
	SKU                  string     `gorm:"size:100;not null;index" json:"sku"`
	Plan                 string     `gorm:"size:20;not null" json:"plan"`
	Status               string     `gorm:"size:30;not null;default:'incomplete'" json:"status"`
	CurrentPeriodEnd     time.Time  `json:"current_period_end"`
	LastPaymentDate      *time.Time `json:"last_payment_date,omitempty"`
	CanceledAt           *time.Time `json:"canceled_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}
