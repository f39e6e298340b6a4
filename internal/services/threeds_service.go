package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"shoply/internal/models/db_models"
	"shoply/internal/models/request_models"
	"shoply/internal/models/response_models"
	"shoply/internal/repositories"
	"shoply/pkg/metrics"
	"shoply/pkg/utils"
)

type ThreeDSConfig struct {
	// Base URL the payer is redirected to for the out-of-band challenge.
	ChallengeBaseURL string
}

// ThreeDSecureService issues and resolves authentication challenges gating a
// transaction's confirmation. A pending challenge is a resting state, not a
// failure: the gated ledger row stays pending until the challenge resolves.
type ThreeDSecureService interface {
	StartChallenge(ctx context.Context, caller request_models.Caller, transactionID uuid.UUID, returnURL string) (*response_models.ThreeDSChallengeResponse, error)

	// CompleteChallenge handles the return leg of the out-of-band challenge.
	// The outcome bit arrives from the payer's browser and is only a hint:
	// success is granted by re-confirming with the provider, never by the
	// caller. On a confirmed success the transaction and the order's payment
	// status are finalized.
	CompleteChallenge(ctx context.Context, challengeID uuid.UUID, succeeded bool) (*response_models.TransactionResponse, error)
}

type threeDSecureService struct {
	challenges repositories.ThreeDSRepositoryInterface
	txns       repositories.TransactionRepositoryInterface
	orders     repositories.OrderRepositoryInterface
	gateway    PaymentGateway
	cfg        ThreeDSConfig
	metrics    *metrics.CheckoutMetrics
	clock      utils.Clock
}

func NewThreeDSecureService(
	challenges repositories.ThreeDSRepositoryInterface,
	txns repositories.TransactionRepositoryInterface,
	orders repositories.OrderRepositoryInterface,
	gateway PaymentGateway,
	cfg ThreeDSConfig,
	checkoutMetrics *metrics.CheckoutMetrics,
	clock utils.Clock,
) ThreeDSecureService {
	if cfg.ChallengeBaseURL == "" {
		cfg.ChallengeBaseURL = "https://mockpay.test/3ds"
	}
	return &threeDSecureService{
		challenges: challenges,
		txns:       txns,
		orders:     orders,
		gateway:    gateway,
		cfg:        cfg,
		metrics:    checkoutMetrics,
		clock:      clock,
	}
}

func challengeResponse(c *db_models.ThreeDSecureChallenge) *response_models.ThreeDSChallengeResponse {
	return &response_models.ThreeDSChallengeResponse{
		ChallengeID:   c.ID.String(),
		TransactionID: c.TransactionID.String(),
		Status:        string(c.Status),
		ChallengeURL:  c.RedirectURL,
	}
}

func (s *threeDSecureService) StartChallenge(ctx context.Context, caller request_models.Caller, transactionID uuid.UUID, returnURL string) (*response_models.ThreeDSChallengeResponse, error) {
	txn, err := s.txns.GetByID(ctx, transactionID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if txn == nil {
		return nil, utils.ErrNotFound
	}
	if !caller.IsStaff && (caller.OwnerID == nil || txn.OwnerID != *caller.OwnerID) {
		return nil, utils.ErrForbidden
	}

	// One challenge per transaction; re-requesting returns the existing one.
	existing, err := s.challenges.GetByTransaction(ctx, transactionID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if existing != nil {
		return challengeResponse(existing), nil
	}

	if txn.Status != db_models.TxnStatusPending {
		return nil, utils.ErrConflict
	}

	challenge := &db_models.ThreeDSecureChallenge{
		TransactionID:     transactionID,
		Status:            db_models.ThreeDSStatusPending,
		ChallengeRequired: true,
		ProviderReference: txn.GatewayReference,
		RedirectURL:       fmt.Sprintf("%s/%s?return_url=%s", s.cfg.ChallengeBaseURL, txn.GatewayReference, returnURL),
		ReturnURL:         returnURL,
	}
	if err := s.challenges.Create(ctx, challenge); err != nil {
		return nil, utils.ErrDatabaseError
	}
	return challengeResponse(challenge), nil
}

func (s *threeDSecureService) CompleteChallenge(ctx context.Context, challengeID uuid.UUID, succeeded bool) (*response_models.TransactionResponse, error) {
	challenge, err := s.challenges.GetByID(ctx, challengeID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if challenge == nil {
		return nil, utils.ErrNotFound
	}

	txn, err := s.txns.GetByID(ctx, challenge.TransactionID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if txn == nil {
		return nil, utils.ErrNotFound
	}

	// The return leg lands on an unauthenticated redirect, so a claimed
	// success must be verified against the provider, which knows whether the
	// payer actually passed the challenge.
	var outcome ConfirmResult
	if succeeded {
		outcome, err = s.gateway.Confirm(ctx, GatewayHandle{Reference: txn.GatewayReference})
		if err != nil {
			return nil, utils.ErrGateway
		}
		if outcome.RequiresAction {
			// Provider says the challenge is still open; nothing resolves.
			return nil, utils.ErrConflict
		}
	}
	authenticated := succeeded && outcome.Succeeded

	status := db_models.ThreeDSStatusAuthenticated
	if !authenticated {
		status = db_models.ThreeDSStatusFailed
	}
	resolved, err := s.challenges.Resolve(ctx, challengeID, status, s.clock().Unix())
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if !resolved {
		// Already resolved by a concurrent return leg.
		return nil, utils.ErrConflict
	}

	txnStatus := db_models.TxnStatusSuccess
	fields := map[string]interface{}{
		"status":       db_models.TxnStatusSuccess,
		"processed_at": s.clock().Unix(),
	}
	if !authenticated {
		txnStatus = db_models.TxnStatusFailed
		fields["status"] = db_models.TxnStatusFailed
		reason := "authentication_failed"
		if outcome.Reason != "" {
			reason = outcome.Reason
		}
		fields["failure_reason"] = reason
	}
	if err := s.txns.UpdateFields(ctx, txn.ID, fields); err != nil {
		return nil, utils.ErrDatabaseError
	}
	txn.Status = txnStatus
	if reason, ok := fields["failure_reason"].(string); ok {
		txn.FailureReason = &reason
	}
	if s.metrics != nil {
		s.metrics.Transactions.WithLabelValues(string(txn.Type), string(txnStatus)).Inc()
	}

	if authenticated && txn.Type == db_models.TxnTypePayment && txn.OrderID != nil {
		_ = s.orders.UpdatePaymentStatus(ctx, *txn.OrderID, db_models.PaymentStatusPaid)
	}

	return txnResponse(txn, nil), nil
}
