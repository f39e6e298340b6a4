package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"shoply/internal/models/db_models"
	"shoply/internal/models/request_models"
	"shoply/internal/models/response_models"
	"shoply/internal/repositories"
	"shoply/pkg/events"
	"shoply/pkg/metrics"
	"shoply/pkg/utils"
)

// PaymentService is the transaction ledger: every gateway operation lands here
// as an append-mostly PaymentTransaction row with fee and fraud annotations.
type PaymentService interface {
	ProcessPayment(ctx context.Context, caller request_models.Caller, req request_models.ProcessPaymentRequest) (*response_models.TransactionResponse, error)
	Authorize(ctx context.Context, caller request_models.Caller, req request_models.AuthorizeRequest) (*response_models.TransactionResponse, error)
	Capture(ctx context.Context, caller request_models.Caller, transactionID uuid.UUID, amountMinor *int64) (*response_models.TransactionResponse, error)
	RefundTransaction(ctx context.Context, caller request_models.Caller, transactionID uuid.UUID, amountMinor *int64, reason string) (*response_models.RefundResponse, error)
	WalletPay(ctx context.Context, caller request_models.Caller, req request_models.WalletPaymentRequest) (*response_models.WalletPaymentResponse, error)

	// RecordCashOnDelivery writes the pending COD row at order-confirmation
	// time; ConfirmCashDelivery is the explicit delivery-confirmation call
	// that later flips it to success.
	RecordCashOnDelivery(ctx context.Context, ownerID uuid.UUID, order *db_models.Order) (*db_models.PaymentTransaction, error)
	ConfirmCashDelivery(ctx context.Context, caller request_models.Caller, orderID uuid.UUID) (*response_models.TransactionResponse, error)
}

type paymentService struct {
	txns    repositories.TransactionRepositoryInterface
	orders  repositories.OrderRepositoryInterface
	methods repositories.PaymentMethodRepositoryInterface
	gateway PaymentGateway
	fees    FeeConfig
	metrics *metrics.CheckoutMetrics
	events  *events.Publisher
	clock   utils.Clock
}

func NewPaymentService(
	txns repositories.TransactionRepositoryInterface,
	orders repositories.OrderRepositoryInterface,
	methods repositories.PaymentMethodRepositoryInterface,
	gateway PaymentGateway,
	fees FeeConfig,
	checkoutMetrics *metrics.CheckoutMetrics,
	publisher *events.Publisher,
	clock utils.Clock,
) PaymentService {
	return &paymentService{
		txns:    txns,
		orders:  orders,
		methods: methods,
		gateway: gateway,
		fees:    fees,
		metrics: checkoutMetrics,
		events:  publisher,
		clock:   clock,
	}
}

func (p *paymentService) countTxn(txnType db_models.TransactionType, status db_models.TransactionStatus) {
	if p.metrics != nil {
		p.metrics.Transactions.WithLabelValues(string(txnType), string(status)).Inc()
	}
}

func (p *paymentService) observeGateway(op string, start time.Time) {
	if p.metrics != nil {
		p.metrics.GatewayLatency.WithLabelValues(op).Observe(float64(time.Since(start).Milliseconds()))
	}
}

func (p *paymentService) orderOwnedBy(caller request_models.Caller, order *db_models.Order) bool {
	if caller.IsStaff {
		return true
	}
	return caller.Matches(order.OwnerID, order.SessionID)
}

// resolveOrderAndMethod runs the shared preamble of payment/authorization:
// caller must be authenticated, own the order, and own the stored method.
func (p *paymentService) resolveOrderAndMethod(ctx context.Context, caller request_models.Caller, orderID, methodID uuid.UUID) (*db_models.Order, *db_models.PaymentMethod, error) {
	if !caller.IsAuthenticated {
		return nil, nil, utils.ErrAuthRequired
	}
	order, err := p.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, nil, utils.ErrDatabaseError
	}
	if order == nil {
		return nil, nil, utils.ErrNotFound
	}
	if !p.orderOwnedBy(caller, order) {
		return nil, nil, utils.ErrForbidden
	}
	method, err := p.methods.GetByID(ctx, methodID)
	if err != nil {
		return nil, nil, utils.ErrDatabaseError
	}
	if method == nil {
		return nil, nil, utils.ErrNotFound
	}
	if !caller.IsStaff && (caller.OwnerID == nil || method.OwnerID != *caller.OwnerID) {
		return nil, nil, utils.ErrForbidden
	}
	return order, method, nil
}

func (p *paymentService) record(ctx context.Context, txn *db_models.PaymentTransaction) error {
	if err := p.txns.Create(ctx, txn); err != nil {
		return utils.ErrDatabaseError
	}
	p.countTxn(txn.Type, txn.Status)
	return nil
}

func (p *paymentService) markOrderPaid(ctx context.Context, orderID *uuid.UUID) {
	if orderID == nil {
		return
	}
	if err := p.orders.UpdatePaymentStatus(ctx, *orderID, db_models.PaymentStatusPaid); err != nil {
		// The ledger row is the source of truth; the order flag is a
		// projection that the next successful update repairs.
		return
	}
}

func (p *paymentService) publishEvent(eventType string, order *db_models.Order, amountMinor int64) {
	if !p.events.Enabled() {
		return
	}
	ownerKey := ""
	if order.OwnerID != nil {
		ownerKey = "owner:" + order.OwnerID.String()
	}
	p.events.Publish(context.Background(), events.OrderEvent{
		Type:        eventType,
		OrderID:     order.ID.String(),
		OwnerKey:    ownerKey,
		AmountMinor: amountMinor,
		Currency:    order.Currency,
	})
}

func txnResponse(txn *db_models.PaymentTransaction, fraud *FraudSignal) *response_models.TransactionResponse {
	resp := &response_models.TransactionResponse{
		TransactionID: txn.ID.String(),
		Type:          string(txn.Type),
		Status:        string(txn.Status),
		AmountMinor:   txn.AmountMinor,
		Currency:      txn.Currency,
	}
	if txn.OrderID != nil {
		resp.OrderID = txn.OrderID.String()
	}
	if txn.FailureReason != nil {
		resp.FailureReason = *txn.FailureReason
	}
	if fraud != nil {
		resp.FraudScore = fraud.Score
		resp.FraudLevel = string(fraud.Level)
	}
	return resp
}

// charge runs create+confirm for a payment or authorization and records the
// outcome. A processor rejection or transport failure is recorded as a failed
// row and returned as a failure-status response, never a hard error.
func (p *paymentService) charge(ctx context.Context, caller request_models.Caller, orderID uuid.UUID, methodID uuid.UUID, amountOverride *int64, txnType db_models.TransactionType) (*response_models.TransactionResponse, error) {
	order, method, err := p.resolveOrderAndMethod(ctx, caller, orderID, methodID)
	if err != nil {
		return nil, err
	}

	amount := order.TotalMinor
	if amountOverride != nil {
		amount = *amountOverride
	}
	if amount <= 0 {
		return nil, utils.ErrConflict
	}

	txn := &db_models.PaymentTransaction{
		OrderID:      &order.ID,
		OwnerID:      *caller.OwnerID,
		Type:         txnType,
		AmountMinor:  amount,
		Currency:     order.Currency,
		Gateway:      p.gateway.Name(),
		FeeBreakdown: jsonRaw(p.fees.Breakdown(amount)),
		ProcessedAt:  p.clock().Unix(),
	}

	gwStart := time.Now()
	handle, gwErr := p.gateway.CreateIntent(ctx, amount, order.Currency, method.MethodRef)
	if gwErr != nil {
		reason := gwErr.Error()
		txn.Status = db_models.TxnStatusFailed
		txn.FailureReason = &reason
		if err := p.record(ctx, txn); err != nil {
			return nil, err
		}
		return txnResponse(txn, nil), nil
	}
	txn.GatewayReference = handle.Reference

	result, gwErr := p.gateway.Confirm(ctx, handle)
	p.observeGateway("confirm", gwStart)
	if gwErr != nil {
		reason := gwErr.Error()
		txn.Status = db_models.TxnStatusFailed
		txn.FailureReason = &reason
		if err := p.record(ctx, txn); err != nil {
			return nil, err
		}
		return txnResponse(txn, nil), nil
	}

	txn.FraudAssessment = jsonRaw(result.Fraud)

	if result.RequiresAction {
		// Challenge pending is a resting state, not a failure. The row stays
		// pending until the 3-D Secure coordinator resolves it.
		txn.Status = db_models.TxnStatusPending
		if err := p.record(ctx, txn); err != nil {
			return nil, err
		}
		resp := txnResponse(txn, &result.Fraud)
		resp.RequiresAction = true
		return resp, nil
	}

	if !result.Succeeded {
		txn.Status = db_models.TxnStatusFailed
		txn.FailureReason = &result.Reason
		if err := p.record(ctx, txn); err != nil {
			return nil, err
		}
		return txnResponse(txn, &result.Fraud), nil
	}

	txn.Status = db_models.TxnStatusSuccess
	if err := p.record(ctx, txn); err != nil {
		return nil, err
	}
	if txnType == db_models.TxnTypePayment {
		p.markOrderPaid(ctx, txn.OrderID)
		p.publishEvent(events.TypePaymentCaptured, order, amount)
	}
	return txnResponse(txn, &result.Fraud), nil
}

func (p *paymentService) ProcessPayment(ctx context.Context, caller request_models.Caller, req request_models.ProcessPaymentRequest) (*response_models.TransactionResponse, error) {
	return p.charge(ctx, caller, req.OrderID, req.PaymentMethodID, req.AmountMinor, db_models.TxnTypePayment)
}

func (p *paymentService) Authorize(ctx context.Context, caller request_models.Caller, req request_models.AuthorizeRequest) (*response_models.TransactionResponse, error) {
	return p.charge(ctx, caller, req.OrderID, req.PaymentMethodID, req.AmountMinor, db_models.TxnTypeAuthorization)
}

func (p *paymentService) Capture(ctx context.Context, caller request_models.Caller, transactionID uuid.UUID, amountMinor *int64) (*response_models.TransactionResponse, error) {
	if !caller.IsAuthenticated {
		return nil, utils.ErrAuthRequired
	}
	auth, err := p.txns.GetByID(ctx, transactionID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if auth == nil {
		return nil, utils.ErrNotFound
	}
	if !caller.IsStaff && (caller.OwnerID == nil || auth.OwnerID != *caller.OwnerID) {
		return nil, utils.ErrForbidden
	}
	if auth.Type != db_models.TxnTypeAuthorization || auth.Status != db_models.TxnStatusSuccess {
		return nil, utils.ErrConflict
	}

	amount := auth.AmountMinor
	if amountMinor != nil {
		amount = *amountMinor
	}
	if amount <= 0 || amount > auth.AmountMinor {
		return nil, utils.ErrConflict
	}

	// Claim the authorization before calling out; a second capture attempt
	// loses here with Conflict instead of double-charging.
	claimed, err := p.txns.MarkCaptured(ctx, auth.ID, p.clock().Unix())
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if !claimed {
		return nil, utils.ErrConflict
	}

	capture := &db_models.PaymentTransaction{
		OrderID:               auth.OrderID,
		OwnerID:               auth.OwnerID,
		Type:                  db_models.TxnTypeCapture,
		AmountMinor:           amount,
		Currency:              auth.Currency,
		Gateway:               auth.Gateway,
		GatewayReference:      auth.GatewayReference,
		OriginalTransactionID: &auth.ID,
		FeeBreakdown:          jsonRaw(p.fees.Breakdown(amount)),
		ProcessedAt:           p.clock().Unix(),
	}

	gwStart := time.Now()
	result, gwErr := p.gateway.Capture(ctx, GatewayHandle{Reference: auth.GatewayReference}, amount)
	p.observeGateway("capture", gwStart)
	if gwErr != nil || !result.Succeeded {
		// Release the claim so the capture can be retried.
		_ = p.txns.UpdateFields(ctx, auth.ID, map[string]interface{}{"captured_at": nil})
		reason := "capture_failed"
		if gwErr != nil {
			reason = gwErr.Error()
		} else if result.Reason != "" {
			reason = result.Reason
		}
		capture.Status = db_models.TxnStatusFailed
		capture.FailureReason = &reason
		if err := p.record(ctx, capture); err != nil {
			return nil, err
		}
		return txnResponse(capture, nil), nil
	}

	capture.Status = db_models.TxnStatusSuccess
	capture.AmountMinor = result.CapturedAmountMinor
	if err := p.record(ctx, capture); err != nil {
		return nil, err
	}
	p.markOrderPaid(ctx, capture.OrderID)
	if capture.OrderID != nil {
		if order, err := p.orders.GetByID(ctx, *capture.OrderID); err == nil && order != nil {
			p.publishEvent(events.TypePaymentCaptured, order, capture.AmountMinor)
		}
	}
	return txnResponse(capture, nil), nil
}

func (p *paymentService) RefundTransaction(ctx context.Context, caller request_models.Caller, transactionID uuid.UUID, amountMinor *int64, reason string) (*response_models.RefundResponse, error) {
	if !caller.IsAuthenticated {
		return nil, utils.ErrAuthRequired
	}
	original, err := p.txns.GetByID(ctx, transactionID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if original == nil {
		return nil, utils.ErrNotFound
	}
	if !caller.IsStaff && (caller.OwnerID == nil || original.OwnerID != *caller.OwnerID) {
		return nil, utils.ErrForbidden
	}
	if original.Status != db_models.TxnStatusSuccess ||
		(original.Type != db_models.TxnTypePayment && original.Type != db_models.TxnTypeCapture) {
		return nil, utils.ErrConflict
	}

	amount := original.AmountMinor
	if amountMinor != nil {
		amount = *amountMinor
	}
	if amount <= 0 {
		return nil, utils.ErrConflict
	}

	refunded, err := p.txns.SumRefunds(ctx, original.ID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if refunded+amount > original.AmountMinor {
		return nil, utils.ErrConflict
	}

	refundType := db_models.RefundTypePartial
	if amount == original.AmountMinor {
		refundType = db_models.RefundTypeFull
	}

	gwStart := time.Now()
	result, gwErr := p.gateway.Refund(ctx, GatewayHandle{Reference: original.GatewayReference}, amount)
	p.observeGateway("refund", gwStart)
	status := db_models.TxnStatusSuccess
	var failureReason *string
	if gwErr != nil || !result.Succeeded {
		status = db_models.TxnStatusFailed
		r := "refund_failed"
		if gwErr != nil {
			r = gwErr.Error()
		} else if result.Reason != "" {
			r = result.Reason
		}
		failureReason = &r
	}

	refund := &db_models.Refund{
		OriginalTransactionID: original.ID,
		OrderID:               original.OrderID,
		AmountMinor:           amount,
		Type:                  refundType,
		Status:                status,
		Reason:                reason,
		RequestedBy:           *caller.OwnerID,
		ProcessedAt:           p.clock().Unix(),
	}
	if err := p.txns.CreateRefund(ctx, refund); err != nil {
		return nil, utils.ErrDatabaseError
	}

	// Symmetric ledger row for the refund itself.
	txn := &db_models.PaymentTransaction{
		OrderID:               original.OrderID,
		OwnerID:               original.OwnerID,
		Type:                  db_models.TxnTypeRefund,
		Status:                status,
		AmountMinor:           amount,
		Currency:              original.Currency,
		Gateway:               original.Gateway,
		GatewayReference:      original.GatewayReference,
		OriginalTransactionID: &original.ID,
		FailureReason:         failureReason,
		ProcessedAt:           p.clock().Unix(),
	}
	if err := p.record(ctx, txn); err != nil {
		return nil, err
	}

	if status == db_models.TxnStatusSuccess && refunded+amount == original.AmountMinor && original.OrderID != nil {
		if err := p.orders.UpdatePaymentStatus(ctx, *original.OrderID, db_models.PaymentStatusRefunded); err == nil {
			if order, oerr := p.orders.GetByID(ctx, *original.OrderID); oerr == nil && order != nil {
				p.publishEvent(events.TypePaymentRefunded, order, amount)
			}
		}
	}

	return &response_models.RefundResponse{
		RefundID:      refund.ID.String(),
		TransactionID: txn.ID.String(),
		AmountMinor:   amount,
		Type:          string(refundType),
		Status:        string(status),
	}, nil
}

func (p *paymentService) WalletPay(ctx context.Context, caller request_models.Caller, req request_models.WalletPaymentRequest) (*response_models.WalletPaymentResponse, error) {
	if !caller.IsAuthenticated {
		return nil, utils.ErrAuthRequired
	}
	order, err := p.orders.GetByID(ctx, req.OrderID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if order == nil {
		return nil, utils.ErrNotFound
	}
	if !p.orderOwnedBy(caller, order) {
		return nil, utils.ErrForbidden
	}

	// Two-phase dependency: the wallet record needs a transaction id before
	// the gateway call, but the gateway call determines the transaction's real
	// outcome. A pending placeholder row is created first and patched once.
	txn := &db_models.PaymentTransaction{
		OrderID:     &order.ID,
		OwnerID:     *caller.OwnerID,
		Type:        db_models.TxnTypePayment,
		Status:      db_models.TxnStatusPending,
		AmountMinor: order.TotalMinor,
		Currency:    order.Currency,
		Gateway:     p.gateway.Name(),
		ProcessedAt: p.clock().Unix(),
	}
	if err := p.txns.Create(ctx, txn); err != nil {
		return nil, utils.ErrDatabaseError
	}

	wallet := &db_models.WalletPayment{
		TransactionID:     txn.ID,
		WalletType:        db_models.WalletType(req.WalletType),
		DeviceAttestation: req.DeviceToken,
		BillingContact:    jsonRaw(req.BillingContact),
		ShippingContact:   jsonRaw(req.ShippingContact),
	}
	if err := p.txns.CreateWalletPayment(ctx, wallet); err != nil {
		return nil, utils.ErrDatabaseError
	}

	status := db_models.TxnStatusFailed
	fields := map[string]interface{}{
		"processed_at": p.clock().Unix(),
	}
	verification := "failed"

	handle, gwErr := p.gateway.CreateIntent(ctx, order.TotalMinor, order.Currency, req.DeviceToken)
	if gwErr == nil {
		fields["gateway_reference"] = handle.Reference
		result, confirmErr := p.gateway.Confirm(ctx, handle)
		if confirmErr == nil {
			fields["fraud_assessment"] = jsonRaw(result.Fraud)
			if result.Succeeded {
				status = db_models.TxnStatusSuccess
				verification = "verified"
				fields["fee_breakdown"] = jsonRaw(p.fees.Breakdown(order.TotalMinor))
			} else if result.Reason != "" {
				fields["failure_reason"] = result.Reason
			}
		} else {
			fields["failure_reason"] = confirmErr.Error()
		}
	} else {
		fields["failure_reason"] = gwErr.Error()
	}
	fields["status"] = status

	if err := p.txns.UpdateFields(ctx, txn.ID, fields); err != nil {
		return nil, utils.ErrDatabaseError
	}
	_ = p.txns.UpdateWalletVerification(ctx, wallet.ID, verification)
	p.countTxn(db_models.TxnTypePayment, status)

	if status == db_models.TxnStatusSuccess {
		p.markOrderPaid(ctx, &order.ID)
		p.publishEvent(events.TypePaymentCaptured, order, order.TotalMinor)
	}

	return &response_models.WalletPaymentResponse{
		TransactionID:   txn.ID.String(),
		WalletPaymentID: wallet.ID.String(),
		Status:          string(status),
	}, nil
}

func (p *paymentService) RecordCashOnDelivery(ctx context.Context, ownerID uuid.UUID, order *db_models.Order) (*db_models.PaymentTransaction, error) {
	txn := &db_models.PaymentTransaction{
		OrderID:     &order.ID,
		OwnerID:     ownerID,
		Type:        db_models.TxnTypePayment,
		Status:      db_models.TxnStatusPending,
		AmountMinor: order.TotalMinor,
		Currency:    order.Currency,
		Gateway:     db_models.GatewayCOD,
		ProcessedAt: p.clock().Unix(),
	}
	if err := p.record(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

func (p *paymentService) ConfirmCashDelivery(ctx context.Context, caller request_models.Caller, orderID uuid.UUID) (*response_models.TransactionResponse, error) {
	if !caller.IsStaff {
		return nil, utils.ErrForbidden
	}
	order, err := p.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if order == nil {
		return nil, utils.ErrNotFound
	}
	txn, err := p.txns.GetPendingByOrderAndGateway(ctx, orderID, db_models.GatewayCOD)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if txn == nil {
		return nil, utils.ErrNotFound
	}

	now := p.clock().Unix()
	if err := p.txns.UpdateFields(ctx, txn.ID, map[string]interface{}{
		"status":       db_models.TxnStatusSuccess,
		"processed_at": now,
	}); err != nil {
		return nil, utils.ErrDatabaseError
	}
	txn.Status = db_models.TxnStatusSuccess
	txn.ProcessedAt = now
	p.countTxn(txn.Type, txn.Status)
	p.markOrderPaid(ctx, &orderID)
	return txnResponse(txn, nil), nil
}
