package models

import (
	"time"

	"github.com/google/uuid"
)

// Order fulfillment lifecycle.
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusPaid       = "paid"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// Order money lifecycle, independent of the fulfillment axis.
const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

const (
	ActionBuy  = "buy"
	ActionSell = "sell"
	ActionNone = "none"
)

// DeliveryAddress is embedded into Order columns.
type DeliveryAddress struct {
	Street  string `gorm:"size:255" json:"street"`
	City    string `gorm:"size:100" json:"city"`
	State   string `gorm:"size:100" json:"state"`
	ZipCode string `gorm:"size:20" json:"zip_code"`
	Country string `gorm:"size:100" json:"country"`
}

// Order references exactly one Submission. The submission FK never changes
// after creation, and for a given submission at most one order may ever
// reach payment_status = paid.
type Order struct {
	ID                    uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"_id"`
	SubmissionID          uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:uniq_paid_order_per_submission,where:payment_status = 'paid'" json:"submission_id"`
	CustomerID            string          `gorm:"size:255" json:"customer_id"`
	OrderNumber           string          `gorm:"size:50;not null;uniqueIndex" json:"order_number"`
	Name                  string          `gorm:"size:255;not null" json:"name"`
	Email                 string          `gorm:"size:255;not null" json:"email"`
	Phone                 string          `gorm:"size:50" json:"phone"`
	DeliveryAddress       DeliveryAddress `gorm:"embedded;embeddedPrefix:delivery_" json:"delivery_address"`
	Metal                 string          `gorm:"size:50;not null" json:"metal"`
	Grams                 float64         `gorm:"not null" json:"grams"`
	CalculatedPrice       string          `gorm:"size:100;not null" json:"calculated_price"`
	PriceNumeric          float64         `gorm:"not null" json:"price_numeric"`
	Action                string          `gorm:"size:20;not null" json:"action"`
	Status                string          `gorm:"size:20;not null;default:'pending'" json:"status"`
	PaymentStatus         string          `gorm:"size:20;not null;default:'pending';index" json:"payment_status"`
	StripeSessionID       string          `gorm:"size:255" json:"stripe_session_id,omitempty"`
	StripePaymentIntentID string          `gorm:"size:255" json:"stripe_payment_intent_id,omitempty"`
	InvoiceURL            string          `gorm:"type:text" json:"invoice_url,omitempty"`
	ReceiptURL            string          `gorm:"type:text" json:"receipt_url,omitempty"`
	Notes                 string          `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`

	Submission Submission `gorm:"foreignKey:SubmissionID" json:"-"`
}

func (Order) TableName() string {
	return "orders"
}
