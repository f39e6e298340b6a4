package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"shoply/internal/models/db_models"
	"shoply/internal/models/request_models"
	"shoply/internal/models/response_models"
	"shoply/internal/repositories"
	mem "shoply/pkg/memcache"
	"shoply/pkg/metrics"
	"shoply/pkg/utils"
)

// IntentTTL is fixed at creation and never extended.
const IntentTTL = 15 * time.Minute

// PurchaseIntentService owns the purchase intent lifecycle:
// pending → {completed, cancelled, expired}, all three terminal.
type PurchaseIntentService interface {
	Create(ctx context.Context, caller request_models.Caller, req request_models.CreateIntentRequest) (*response_models.IntentResponse, error)
	Get(ctx context.Context, caller request_models.Caller, id uuid.UUID) (*response_models.IntentResponse, error)
	ResolveRedirectToken(token string) (uuid.UUID, error)
	AttachAddress(ctx context.Context, caller request_models.Caller, id uuid.UUID, req request_models.AttachAddressRequest) error
	Complete(ctx context.Context, caller request_models.Caller, id uuid.UUID, paymentMethod string) (*response_models.CompleteIntentResponse, error)
	Cancel(ctx context.Context, caller request_models.Caller, id uuid.UUID) error
	SweepExpired(ctx context.Context) (int64, error)
}

type purchaseIntentService struct {
	intents repositories.IntentRepositoryInterface
	catalog repositories.ProductCatalog
	orders  OrderService
	tokens  mem.RedirectTokenStore
	metrics *metrics.CheckoutMetrics
	clock   utils.Clock
}

func NewPurchaseIntentService(
	intents repositories.IntentRepositoryInterface,
	catalog repositories.ProductCatalog,
	orders OrderService,
	tokens mem.RedirectTokenStore,
	checkoutMetrics *metrics.CheckoutMetrics,
	clock utils.Clock,
) PurchaseIntentService {
	return &purchaseIntentService{
		intents: intents,
		catalog: catalog,
		orders:  orders,
		tokens:  tokens,
		metrics: checkoutMetrics,
		clock:   clock,
	}
}

func intentResponse(intent *db_models.PurchaseIntent, product *db_models.Product, redirectToken string) *response_models.IntentResponse {
	resp := &response_models.IntentResponse{
		ID:             intent.ID.String(),
		Status:         string(intent.Status),
		ProductID:      intent.ProductID.String(),
		Quantity:       intent.Quantity,
		UnitPriceMinor: intent.UnitPriceMinor,
		Currency:       intent.Currency,
		ExpiresAt:      utils.FormatRFC3339(intent.ExpiresAt),
		RedirectToken:  redirectToken,
	}
	if intent.VariantID != nil {
		resp.VariantID = intent.VariantID.String()
	}
	if product != nil {
		resp.Product = &response_models.ProductSnapshot{
			ID:             product.ID.String(),
			Name:           product.Name,
			SKU:            product.SKU,
			UnitPriceMinor: product.UnitPriceMinor(),
			Stock:          product.Stock,
		}
	}
	return resp
}

func (s *purchaseIntentService) Create(ctx context.Context, caller request_models.Caller, req request_models.CreateIntentRequest) (*response_models.IntentResponse, error) {
	product, err := s.catalog.GetProduct(ctx, req.ProductID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if product == nil {
		return nil, utils.ErrNotFound
	}
	if product.Stock < req.Quantity {
		return nil, utils.NewInsufficientStock(product.Stock)
	}

	intent := &db_models.PurchaseIntent{
		ProductID:      req.ProductID,
		VariantID:      req.VariantID,
		Quantity:       req.Quantity,
		UnitPriceMinor: product.UnitPriceMinor(),
		Currency:       product.Currency,
		Customization:  jsonRaw(req.Customization),
		Status:         db_models.IntentStatusPending,
		ExpiresAt:      s.clock().Add(IntentTTL).Unix(),
	}
	// Exactly one discriminator is recorded at creation.
	if caller.IsAuthenticated && caller.OwnerID != nil {
		intent.OwnerID = caller.OwnerID
	} else {
		sessionID := caller.SessionID
		intent.SessionID = &sessionID
	}

	if err := s.intents.Create(ctx, intent); err != nil {
		return nil, utils.ErrDatabaseError
	}

	token := "rt_" + uuid.NewString()
	s.tokens.Set(token, intent.ID, IntentTTL)

	return intentResponse(intent, product, token), nil
}

// load fetches an intent and runs the shared ownership and write-through
// expiry checks every accessor performs.
func (s *purchaseIntentService) load(ctx context.Context, caller request_models.Caller, id uuid.UUID) (*db_models.PurchaseIntent, error) {
	intent, err := s.intents.GetByID(ctx, id)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if intent == nil {
		return nil, utils.ErrNotFound
	}
	if !caller.Matches(intent.OwnerID, intent.SessionID) {
		return nil, utils.ErrForbidden
	}
	if intent.ExpiredBy(s.clock().Unix()) {
		if _, err := s.intents.TransitionStatus(ctx, intent.ID, db_models.IntentStatusPending, db_models.IntentStatusExpired); err != nil {
			return nil, utils.ErrDatabaseError
		}
		return nil, utils.ErrExpired
	}
	return intent, nil
}

func (s *purchaseIntentService) Get(ctx context.Context, caller request_models.Caller, id uuid.UUID) (*response_models.IntentResponse, error) {
	intent, err := s.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if intent.Status == db_models.IntentStatusExpired {
		return nil, utils.ErrExpired
	}
	product, err := s.catalog.GetProduct(ctx, intent.ProductID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	return intentResponse(intent, product, ""), nil
}

func (s *purchaseIntentService) ResolveRedirectToken(token string) (uuid.UUID, error) {
	id := s.tokens.Consume(token)
	if id == uuid.Nil {
		return uuid.Nil, utils.ErrNotFound
	}
	return id, nil
}

func (s *purchaseIntentService) AttachAddress(ctx context.Context, caller request_models.Caller, id uuid.UUID, req request_models.AttachAddressRequest) error {
	intent, err := s.load(ctx, caller, id)
	if err != nil {
		return err
	}
	if intent.Status == db_models.IntentStatusExpired {
		return utils.ErrExpired
	}
	if intent.Status != db_models.IntentStatusPending {
		return utils.ErrConflict
	}

	intent.ShippingAddress = jsonRaw(req.Address)
	intent.Email = &req.Email
	if req.Phone != "" {
		intent.Phone = &req.Phone
	}
	if err := s.intents.Update(ctx, intent); err != nil {
		return utils.ErrDatabaseError
	}
	return nil
}

func (s *purchaseIntentService) Complete(ctx context.Context, caller request_models.Caller, id uuid.UUID, paymentMethod string) (*response_models.CompleteIntentResponse, error) {
	intent, err := s.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	switch intent.Status {
	case db_models.IntentStatusExpired:
		return nil, utils.ErrExpired
	case db_models.IntentStatusCompleted, db_models.IntentStatusCancelled:
		return nil, utils.ErrConflict
	}

	// Guest-created intents may not self-complete: authentication is a policy
	// gate before payment, independent of stock or gateway state.
	if !caller.IsAuthenticated {
		return nil, utils.ErrAuthRequired
	}
	if len(intent.ShippingAddress) == 0 {
		return nil, utils.ErrConflict
	}

	product, err := s.catalog.GetProduct(ctx, intent.ProductID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if product == nil {
		return nil, utils.ErrNotFound
	}
	if product.Stock < intent.Quantity {
		return nil, utils.NewInsufficientStock(product.Stock)
	}

	// Claim stock before touching the intent status: losing the stock race
	// then only means the intent never leaves pending, instead of bouncing
	// through completed and back.
	ok, err := s.catalog.DecrementStock(ctx, intent.ProductID, intent.Quantity)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if !ok {
		current, gerr := s.catalog.GetProduct(ctx, intent.ProductID)
		available := 0
		if gerr == nil && current != nil {
			available = current.Stock
		}
		return nil, utils.NewInsufficientStock(available)
	}

	// Claim the intent before materializing so a concurrent second complete
	// gets Conflict and can never materialize a duplicate order.
	claimed, err := s.intents.TransitionStatus(ctx, intent.ID, db_models.IntentStatusPending, db_models.IntentStatusCompleted)
	if err != nil {
		_ = s.catalog.IncrementStock(ctx, intent.ProductID, intent.Quantity)
		return nil, utils.ErrDatabaseError
	}
	if !claimed {
		_ = s.catalog.IncrementStock(ctx, intent.ProductID, intent.Quantity)
		return nil, utils.ErrConflict
	}

	order, err := s.orders.MaterializeFromIntent(ctx, intent, product, paymentMethod)
	if err != nil {
		// Reopen the claim: a completed intent with no order strands the
		// purchase, which is worse than the transient status bounce.
		_ = s.catalog.IncrementStock(ctx, intent.ProductID, intent.Quantity)
		_, _ = s.intents.TransitionStatus(ctx, intent.ID, db_models.IntentStatusCompleted, db_models.IntentStatusPending)
		return nil, err
	}

	intent.Status = db_models.IntentStatusCompleted
	intent.OrderID = &order.ID
	if err := s.intents.Update(ctx, intent); err != nil {
		// The claim already happened; the order exists. Losing the back-link
		// is log-worthy but must not fail the completion.
		return &response_models.CompleteIntentResponse{
			OrderID:     order.ID.String(),
			OrderNumber: order.OrderNumber,
		}, nil
	}

	return &response_models.CompleteIntentResponse{
		OrderID:     order.ID.String(),
		OrderNumber: order.OrderNumber,
	}, nil
}

func (s *purchaseIntentService) Cancel(ctx context.Context, caller request_models.Caller, id uuid.UUID) error {
	intent, err := s.load(ctx, caller, id)
	if err != nil {
		return err
	}
	switch intent.Status {
	case db_models.IntentStatusCancelled:
		return nil // already cancelled, nothing to do
	case db_models.IntentStatusCompleted, db_models.IntentStatusExpired:
		return utils.ErrConflict
	}
	changed, err := s.intents.TransitionStatus(ctx, intent.ID, db_models.IntentStatusPending, db_models.IntentStatusCancelled)
	if err != nil {
		return utils.ErrDatabaseError
	}
	if !changed {
		return utils.ErrConflict
	}
	return nil
}

func (s *purchaseIntentService) SweepExpired(ctx context.Context) (int64, error) {
	count, err := s.intents.ExpireAllPending(ctx, s.clock().Unix())
	if err != nil {
		return 0, utils.ErrDatabaseError
	}
	if s.metrics != nil && count > 0 {
		s.metrics.IntentsSwept.Add(float64(count))
	}
	return count, nil
}
