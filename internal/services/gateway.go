package services

import "context"

type FraudLevel string

const (
	FraudNormal   FraudLevel = "normal"
	FraudElevated FraudLevel = "elevated"
)

// FraudSignal is the processor's risk annotation returned with a confirmation.
type FraudSignal struct {
	Score float64    `json:"score"`
	Level FraudLevel `json:"level"`
}

// GatewayHandle identifies an in-flight processor intent. The reference is
// stable across confirm/capture/refund and is what the ledger persists.
type GatewayHandle struct {
	Reference    string
	ClientSecret string
}

// Tagged per-operation results. A false Succeeded with a Reason is a processor
// rejection; transport failures surface as the error return instead. The
// ledger never inspects provider-specific fields.
type ConfirmResult struct {
	Succeeded      bool
	RequiresAction bool
	ActionURL      string
	Reason         string
	Fraud          FraudSignal
}

type CaptureResult struct {
	Succeeded           bool
	CapturedAmountMinor int64
	Reason              string
}

type RefundResult struct {
	Succeeded bool
	Reason    string
}

// PaymentGateway hides the external processor behind four primitives so the
// processor can be swapped (mock vs. real) without touching ledger logic.
type PaymentGateway interface {
	Name() string
	CreateIntent(ctx context.Context, amountMinor int64, currency, methodRef string) (GatewayHandle, error)
	Confirm(ctx context.Context, handle GatewayHandle) (ConfirmResult, error)
	Capture(ctx context.Context, handle GatewayHandle, amountMinor int64) (CaptureResult, error)
	Refund(ctx context.Context, handle GatewayHandle, amountMinor int64) (RefundResult, error)
}
