package request_models

import "github.com/google/uuid"

type ProcessPaymentRequest struct {
	OrderID         uuid.UUID `json:"order_id" binding:"required"`
	PaymentMethodID uuid.UUID `json:"payment_method_id" binding:"required"`
	// Defaults to the order total when omitted.
	AmountMinor *int64 `json:"amount_minor"`
}

type AuthorizeRequest struct {
	OrderID         uuid.UUID `json:"order_id" binding:"required"`
	PaymentMethodID uuid.UUID `json:"payment_method_id" binding:"required"`
	AmountMinor     *int64    `json:"amount_minor"`
}

type CaptureRequest struct {
	// Defaults to the full authorized amount when omitted.
	AmountMinor *int64 `json:"amount_minor"`
}

type RefundRequest struct {
	// Defaults to the original transaction's full amount when omitted.
	AmountMinor *int64 `json:"amount_minor"`
	Reason      string `json:"reason"`
}

type StartThreeDSRequest struct {
	ReturnURL string `json:"return_url" binding:"required"`
}

type CompleteThreeDSRequest struct {
	Succeeded bool `json:"succeeded"`
}

type WalletPaymentRequest struct {
	OrderID         uuid.UUID         `json:"order_id" binding:"required"`
	WalletType      string            `json:"wallet_type" binding:"required,oneof=apple_pay google_pay"`
	DeviceToken     string            `json:"device_token" binding:"required"`
	BillingContact  map[string]string `json:"billing_contact"`
	ShippingContact map[string]string `json:"shipping_contact"`
}
