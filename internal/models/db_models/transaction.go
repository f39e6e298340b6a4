package db_models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type TransactionType string

const (
	TxnTypePayment       TransactionType = "payment"
	TxnTypeAuthorization TransactionType = "authorization"
	TxnTypeCapture       TransactionType = "capture"
	TxnTypeRefund        TransactionType = "refund"
)

type TransactionStatus string

const (
	TxnStatusPending TransactionStatus = "pending"
	TxnStatusSuccess TransactionStatus = "success"
	TxnStatusFailed  TransactionStatus = "failed"
)

const (
	GatewayCOD = "cod"
)

// PaymentTransaction is the append-mostly ledger row for one gateway
// operation. Status/amount are never altered after insert, with two sanctioned
// exceptions: cash-on-delivery rows transition pending→success on delivery
// confirmation, and wallet rows are inserted as pending placeholders and
// patched once the gateway confirms.
type PaymentTransaction struct {
	BaseModel
	OrderID *uuid.UUID `gorm:"index"`
	OwnerID uuid.UUID  `gorm:"index"`

	Type   TransactionType   `gorm:"index"`
	Status TransactionStatus `gorm:"index"`

	AmountMinor int64
	Currency    string `gorm:"size:3;default:'USD'"`

	Gateway          string `gorm:"index"`
	GatewayReference string `gorm:"index"`

	// Set on capture/refund rows, pointing at the authorization/payment row
	// they act on.
	OriginalTransactionID *uuid.UUID `gorm:"index"`

	// Set on an authorization row once captured; guards double capture.
	CapturedAt *int64

	FeeBreakdown    datatypes.JSON `gorm:"type:jsonb;default:'{}'"`
	FraudAssessment datatypes.JSON `gorm:"type:jsonb;default:'{}'"`
	FailureReason   *string

	ProcessedAt int64
}

type RefundType string

const (
	RefundTypeFull    RefundType = "full"
	RefundTypePartial RefundType = "partial"
)

type Refund struct {
	BaseModel
	OriginalTransactionID uuid.UUID  `gorm:"index"`
	OrderID               *uuid.UUID `gorm:"index"`

	AmountMinor int64
	Type        RefundType
	Status      TransactionStatus
	Reason      string
	RequestedBy uuid.UUID `gorm:"index"`
	ProcessedAt int64
}
