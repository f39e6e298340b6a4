package db_models

import "github.com/google/uuid"

// PaymentMethod is a stored gateway token reference. Only the token and
// display fields are kept, never card data.
type PaymentMethod struct {
	BaseModel
	OwnerID uuid.UUID `gorm:"index"`

	MethodRef string `gorm:"index"` // gateway token, e.g. "tok_visa_4242"
	Brand     string
	Last4     string `gorm:"size:4"`
	IsDefault bool   `gorm:"default:false"`
}
