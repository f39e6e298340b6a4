package db_models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Cart totals are always recomputed from the full line set after a mutation,
// never adjusted incrementally.
type Cart struct {
	BaseModel
	OwnerID   *uuid.UUID `gorm:"index"`
	SessionID *string    `gorm:"index"`

	SubtotalMinor int64
	TaxMinor      int64
	ShippingMinor int64
	TotalMinor    int64
	Currency      string `gorm:"size:3;default:'USD'"`

	Items []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
}

type CartItem struct {
	BaseModel
	CartID    uuid.UUID  `gorm:"index"`
	ProductID uuid.UUID  `gorm:"index"`
	VariantID *uuid.UUID `gorm:"index"`

	Quantity       int
	UnitPriceMinor int64 // price at add time
	Customization  datatypes.JSON `gorm:"type:jsonb;default:'{}'"`
	SavedForLater  bool           `gorm:"default:false"`
}

// SameLine reports whether a new (product, variant) pair merges into this
// line. Saved-for-later lines never merge.
func (ci *CartItem) SameLine(productID uuid.UUID, variantID *uuid.UUID) bool {
	if ci.SavedForLater || ci.ProductID != productID {
		return false
	}
	if ci.VariantID == nil || variantID == nil {
		return ci.VariantID == nil && variantID == nil
	}
	return *ci.VariantID == *variantID
}
