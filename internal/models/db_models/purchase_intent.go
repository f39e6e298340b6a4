package db_models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type PurchaseIntentStatus string

const (
	IntentStatusPending   PurchaseIntentStatus = "pending"
	IntentStatusCompleted PurchaseIntentStatus = "completed"
	IntentStatusCancelled PurchaseIntentStatus = "cancelled"
	IntentStatusExpired   PurchaseIntentStatus = "expired"
)

// PurchaseIntent is a time-boxed reservation of a single product/quantity,
// convertible at most once into an order. Exactly one of OwnerID/SessionID is
// set at creation; that field is the ownership discriminator for every later
// access. Rows are never deleted; terminal rows persist for audit.
type PurchaseIntent struct {
	BaseModel
	OwnerID   *uuid.UUID `gorm:"index"`
	SessionID *string    `gorm:"index"`

	ProductID uuid.UUID  `gorm:"index"`
	VariantID *uuid.UUID `gorm:"index"`

	Quantity       int
	UnitPriceMinor int64
	Currency       string         `gorm:"size:3;default:'USD'"`
	Customization  datatypes.JSON `gorm:"type:jsonb;default:'{}'"`

	Status          PurchaseIntentStatus `gorm:"index;default:'pending'"`
	ShippingAddress datatypes.JSON       `gorm:"type:jsonb"`
	Email           *string
	Phone           *string

	OrderID *uuid.UUID `gorm:"index"` // set once completion materializes the order

	// Fixed at creation, never extended.
	ExpiresAt int64 `gorm:"index"`
}

func (p *PurchaseIntent) Terminal() bool {
	return p.Status != IntentStatusPending
}

// ExpiredBy reports whether a still-pending intent's TTL has elapsed at now
// (unix seconds).
func (p *PurchaseIntent) ExpiredBy(now int64) bool {
	return p.Status == IntentStatusPending && p.ExpiresAt < now
}
