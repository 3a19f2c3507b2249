package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	ClaimTypeDamage      = "damage"
	ClaimTypeLoss        = "loss"
	ClaimTypeTheft       = "theft"
	ClaimTypeMaintenance = "maintenance"
	ClaimTypeOther       = "other"
)

// ClaimImage is one uploaded piece of evidence, stored inside the claim's
// jsonb images column.
type ClaimImage struct {
	URL        string    `json:"url"`
	Filename   string    `json:"filename"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Claim references a Subscription but snapshots the customer id, email and
// SKU at filing time, so later changes to the subscription never alter the
// historical record. AdminNotes is the only field mutable after creation.
type Claim struct {
	ID                 uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"_id"`
	SubscriptionID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"subscription_id"`
	CustomerID         string         `gorm:"size:255;not null" json:"customer_id"`
	Email              string         `gorm:"size:255;not null;index" json:"email"`
	SKU                string         `gorm:"size:100;not null" json:"sku"`
	ProductDescription string         `gorm:"type:text;not null" json:"product_description"`
	Images             datatypes.JSON `gorm:"type:jsonb;default:'[]'" json:"images"`
	ClaimType          string         `gorm:"size:20;not null" json:"claim_type"`
	Notes              string         `gorm:"type:text" json:"notes,omitempty"`
	AdminNotes         string         `gorm:"type:text" json:"admin_notes,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

func (Claim) TableName() string {
	return "claims"
}

// ValidClaimType reports whether t is one of the recognized claim kinds.
func ValidClaimType(t string) bool {
	switch t {
	case ClaimTypeDamage, ClaimTypeLoss, ClaimTypeTheft, ClaimTypeMaintenance, ClaimTypeOther:
		return true
	}
	return false
}
