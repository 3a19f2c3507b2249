package models

import (
	"time"

	"github.com/google/uuid"
)

// AccessCode is a short-lived one-time code mailed to a submission's owner
// to unlock SKU data. Expiry is enforced on read plus a periodic purge;
// at most one live code exists per email+SKU pair.
type AccessCode struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email     string    `gorm:"size:255;not null;index:idx_access_codes_email_sku" json:"email"`
	SKU       string    `gorm:"size:100;not null;index:idx_access_codes_email_sku" json:"sku"`
	Code      string    `gorm:"size:10;not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (AccessCode) TableName() string {
	return "access_codes"
}

func (a *AccessCode) Expired(now time.Time) bool {
	return now.After(a.ExpiresAt)
}
