package models

import (
	"time"

	"github.com/google/uuid"
)

// Submission is the appraisal record for a physical item. It is created by
// the intake form and read-only everywhere else; orders and subscriptions
// reference it but never mutate it.
type Submission struct {
	ID              uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"_id"`
	LegacyID        int64     `gorm:"uniqueIndex" json:"id"`
	Name            string    `gorm:"size:255" json:"name"`
	Email           string    `gorm:"size:255;index" json:"email"`
	SKU             string    `gorm:"size:100;index" json:"sku"`
	Description     string    `gorm:"type:text" json:"description"`
	Metal           string    `gorm:"size:50" json:"metal"`
	Grams           float64   `json:"grams"`
	CalculatedPrice string    `gorm:"size:100" json:"calculated_price"`
	Action          string    `gorm:"size:20;default:'none'" json:"action"`
	ImagePath       string    `gorm:"type:text" json:"image_path"`
	Timestamp       time.Time `gorm:"autoCreateTime;index" json:"timestamp"`
}

func (Submission) TableName() string {
	return "submissions"
}
