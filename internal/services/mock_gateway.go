package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Method reference prefixes steering the mock's deterministic outcomes.
const (
	mockRefDecline  = "tok_fail"
	mockRefThreeDS  = "tok_3ds"
	mockRefElevated = "tok_risky"
)

type mockIntent struct {
	amountMinor int64
	currency    string
	methodRef   string
	confirmed   bool
}

// MockGateway is a deterministic in-memory processor. Outcomes are driven by
// the method reference: "tok_fail*" declines, "tok_3ds*" demands an
// authentication challenge, "tok_risky*" succeeds with an elevated fraud
// score, anything else succeeds with a normal score.
type MockGateway struct {
	mu      sync.Mutex
	intents map[string]*mockIntent
}

func NewMockGateway() *MockGateway {
	return &MockGateway{intents: make(map[string]*mockIntent)}
}

func (g *MockGateway) Name() string { return "mockpay" }

func (g *MockGateway) CreateIntent(ctx context.Context, amountMinor int64, currency, methodRef string) (GatewayHandle, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	ref := "mp_" + uuid.NewString()
	g.intents[ref] = &mockIntent{
		amountMinor: amountMinor,
		currency:    currency,
		methodRef:   methodRef,
	}
	return GatewayHandle{
		Reference:    ref,
		ClientSecret: ref + "_secret",
	}, nil
}

func (g *MockGateway) Confirm(ctx context.Context, handle GatewayHandle) (ConfirmResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	intent, ok := g.intents[handle.Reference]
	if !ok {
		return ConfirmResult{}, fmt.Errorf("mockpay: unknown intent %s", handle.Reference)
	}

	switch {
	case strings.HasPrefix(intent.methodRef, mockRefDecline):
		return ConfirmResult{
			Reason: "card_declined",
			Fraud:  FraudSignal{Score: 12.0, Level: FraudNormal},
		}, nil
	case strings.HasPrefix(intent.methodRef, mockRefThreeDS) && !intent.confirmed:
		return ConfirmResult{
			RequiresAction: true,
			ActionURL:      fmt.Sprintf("https://mockpay.test/3ds/%s", handle.Reference),
			Fraud:          FraudSignal{Score: 34.0, Level: FraudNormal},
		}, nil
	case strings.HasPrefix(intent.methodRef, mockRefElevated):
		intent.confirmed = true
		return ConfirmResult{
			Succeeded: true,
			Fraud:     FraudSignal{Score: 87.5, Level: FraudElevated},
		}, nil
	default:
		intent.confirmed = true
		return ConfirmResult{
			Succeeded: true,
			Fraud:     FraudSignal{Score: 12.0, Level: FraudNormal},
		}, nil
	}
}

// CompleteAuthentication records the payer finishing the out-of-band
// challenge at the provider, so the next Confirm on a tok_3ds* intent
// succeeds. Returns false for an unknown reference.
func (g *MockGateway) CompleteAuthentication(reference string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	intent, ok := g.intents[reference]
	if !ok {
		return false
	}
	intent.confirmed = true
	return true
}

func (g *MockGateway) Capture(ctx context.Context, handle GatewayHandle, amountMinor int64) (CaptureResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	intent, ok := g.intents[handle.Reference]
	if !ok {
		return CaptureResult{}, fmt.Errorf("mockpay: unknown intent %s", handle.Reference)
	}
	if amountMinor > intent.amountMinor {
		return CaptureResult{Reason: "amount_exceeds_authorization"}, nil
	}
	return CaptureResult{
		Succeeded:           true,
		CapturedAmountMinor: amountMinor,
	}, nil
}

func (g *MockGateway) Refund(ctx context.Context, handle GatewayHandle, amountMinor int64) (RefundResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.intents[handle.Reference]; !ok {
		// Refunds may arrive after a restart; the mock honors them anyway.
		return RefundResult{Succeeded: true}, nil
	}
	return RefundResult{Succeeded: true}, nil
}
