package db_models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type WalletType string

const (
	WalletTypeApplePay  WalletType = "apple_pay"
	WalletTypeGooglePay WalletType = "google_pay"
)

// WalletPayment hangs off the placeholder transaction created before the
// gateway call; the wallet record needs a stable transaction id to attach to
// before the outcome is known.
type WalletPayment struct {
	BaseModel
	TransactionID uuid.UUID `gorm:"uniqueIndex"`

	WalletType        WalletType `gorm:"index"`
	DeviceAttestation string     // opaque device token, never raw card data

	BillingContact  datatypes.JSON `gorm:"type:jsonb;default:'{}'"`
	ShippingContact datatypes.JSON `gorm:"type:jsonb;default:'{}'"`

	Verification string // gateway verification outcome
}
