package db_models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

type OrderPaymentStatus string

const (
	PaymentStatusUnpaid   OrderPaymentStatus = "unpaid"
	PaymentStatusPaid     OrderPaymentStatus = "paid"
	PaymentStatusRefunded OrderPaymentStatus = "refunded"
)

type Order struct {
	BaseModel
	OrderNumber string     `gorm:"uniqueIndex"`
	OwnerID     *uuid.UUID `gorm:"index"`
	SessionID   *string    `gorm:"index"`

	Status        OrderStatus        `gorm:"index;default:'pending'"`
	PaymentStatus OrderPaymentStatus `gorm:"index;default:'unpaid'"`

	SubtotalMinor int64
	ShippingMinor int64
	TaxMinor      int64
	TotalMinor    int64
	Currency      string `gorm:"size:3;default:'USD'"`

	ShippingAddress datatypes.JSON `gorm:"type:jsonb"`
	PaymentMethod   string

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// OrderItem copies product name/sku/description at materialization time so
// later catalog edits never retroactively alter historical orders.
type OrderItem struct {
	BaseModel
	OrderID   uuid.UUID  `gorm:"index"`
	ProductID uuid.UUID  `gorm:"index"`
	VariantID *uuid.UUID

	ProductName        string
	ProductSKU         string
	ProductDescription string

	Quantity       int
	UnitPriceMinor int64
	Customization  datatypes.JSON `gorm:"type:jsonb;default:'{}'"`
}
