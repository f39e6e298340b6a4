package services

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"shoply/internal/models/db_models"
	"shoply/internal/models/request_models"
	"shoply/internal/models/response_models"
	"shoply/internal/repositories"
	"shoply/pkg/events"
	"shoply/pkg/metrics"
	"shoply/pkg/pubsub"
	"shoply/pkg/utils"
)

const paymentMethodCOD = "cod"

// OrderService materializes orders: from a completed purchase intent (the
// "buy now" path, caller-gated for idempotency) or directly from a priced
// cart. Order items copy product name/sku/description at materialization time
// so later catalog edits never rewrite history.
type OrderService interface {
	MaterializeFromIntent(ctx context.Context, intent *db_models.PurchaseIntent, product *db_models.Product, paymentMethod string) (*db_models.Order, error)
	CheckoutCart(ctx context.Context, caller request_models.Caller, req request_models.CartCheckoutRequest) (*response_models.OrderResponse, error)
	GetOrder(ctx context.Context, caller request_models.Caller, id uuid.UUID) (*response_models.OrderResponse, error)
}

type orderService struct {
	orders   repositories.OrderRepositoryInterface
	carts    repositories.CartRepositoryInterface
	catalog  repositories.ProductCatalog
	payments PaymentService
	pricing  PricingConfig
	broker   *pubsub.Broker
	mail     IMailService
	metrics  *metrics.CheckoutMetrics
	events   *events.Publisher
	clock    utils.Clock
	randInt  func(n int) int // injectable for deterministic order numbers
}

func NewOrderService(
	orders repositories.OrderRepositoryInterface,
	carts repositories.CartRepositoryInterface,
	catalog repositories.ProductCatalog,
	payments PaymentService,
	pricing PricingConfig,
	broker *pubsub.Broker,
	mail IMailService,
	checkoutMetrics *metrics.CheckoutMetrics,
	publisher *events.Publisher,
	clock utils.Clock,
	randInt func(n int) int,
) OrderService {
	return &orderService{
		orders:   orders,
		carts:    carts,
		catalog:  catalog,
		payments: payments,
		pricing:  pricing,
		broker:   broker,
		mail:     mail,
		metrics:  checkoutMetrics,
		events:   publisher,
		clock:    clock,
		randInt:  randInt,
	}
}

// nextOrderNumber builds a globally unique order number from a timestamp and
// a random suffix; the unique index on order_number backstops collisions.
func (s *orderService) nextOrderNumber() string {
	return fmt.Sprintf("ORD-%d-%04d", s.clock().Unix(), s.randInt(10000))
}

func (s *orderService) afterMaterialize(order *db_models.Order, email string) {
	if s.metrics != nil {
		s.metrics.Orders.Inc()
	}
	if s.broker != nil {
		key := ""
		if order.OwnerID != nil {
			key = "owner:" + order.OwnerID.String()
		} else if order.SessionID != nil {
			key = "session:" + *order.SessionID
		}
		if key != "" {
			s.broker.Publish(key, pubsub.Event{Type: "order.created", Payload: order.ID.String()})
		}
	}
	if s.events.Enabled() {
		ownerKey := ""
		if order.OwnerID != nil {
			ownerKey = "owner:" + order.OwnerID.String()
		}
		s.events.Publish(context.Background(), events.OrderEvent{
			Type:        events.TypeOrderCreated,
			OrderID:     order.ID.String(),
			OwnerKey:    ownerKey,
			AmountMinor: order.TotalMinor,
			Currency:    order.Currency,
		})
	}
	if s.mail != nil && email != "" {
		go func(to, number string, total int64, currency string) {
			if err := s.mail.SendOrderConfirmation(to, number, total, currency); err != nil {
				log.Printf("order %s: confirmation mail failed: %v", number, err)
			}
		}(email, order.OrderNumber, order.TotalMinor, order.Currency)
	}
}

func (s *orderService) MaterializeFromIntent(ctx context.Context, intent *db_models.PurchaseIntent, product *db_models.Product, paymentMethod string) (*db_models.Order, error) {
	subtotal := intent.UnitPriceMinor * int64(intent.Quantity)
	shipping := s.pricing.Shipping(subtotal)
	tax := s.pricing.Tax(subtotal)

	order := &db_models.Order{
		OrderNumber:     s.nextOrderNumber(),
		OwnerID:         intent.OwnerID,
		SessionID:       intent.SessionID,
		Status:          db_models.OrderStatusConfirmed,
		PaymentStatus:   db_models.PaymentStatusUnpaid,
		SubtotalMinor:   subtotal,
		ShippingMinor:   shipping,
		TaxMinor:        tax,
		TotalMinor:      subtotal + shipping + tax,
		Currency:        intent.Currency,
		ShippingAddress: intent.ShippingAddress,
		PaymentMethod:   paymentMethod,
		Items: []db_models.OrderItem{{
			ProductID:          intent.ProductID,
			VariantID:          intent.VariantID,
			ProductName:        product.Name,
			ProductSKU:         product.SKU,
			ProductDescription: product.Description,
			Quantity:           intent.Quantity,
			UnitPriceMinor:     intent.UnitPriceMinor,
			Customization:      intent.Customization,
		}},
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, utils.ErrDatabaseError
	}

	email := ""
	if intent.Email != nil {
		email = *intent.Email
	}
	s.afterMaterialize(order, email)
	return order, nil
}

func (s *orderService) CheckoutCart(ctx context.Context, caller request_models.Caller, req request_models.CartCheckoutRequest) (*response_models.OrderResponse, error) {
	if !caller.IsAuthenticated || caller.OwnerID == nil {
		return nil, utils.ErrAuthRequired
	}

	cart, err := s.carts.GetByOwner(ctx, *caller.OwnerID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if cart == nil {
		return nil, utils.ErrNotFound
	}

	var active []db_models.CartItem
	for _, item := range cart.Items {
		if !item.SavedForLater {
			active = append(active, item)
		}
	}
	if len(active) == 0 {
		return nil, utils.ErrConflict
	}
	// Reject an unusable payment selection before any stock is claimed.
	if req.PaymentMethod != paymentMethodCOD && req.PaymentMethodID == nil {
		return nil, utils.ErrConflict
	}

	// Claim stock line by line; undo earlier claims if one line falls short.
	var claimed []db_models.CartItem
	rollback := func() {
		for _, item := range claimed {
			if err := s.catalog.IncrementStock(ctx, item.ProductID, item.Quantity); err != nil {
				log.Printf("checkout: stock restore failed for product %s: %v", item.ProductID, err)
			}
		}
	}

	var orderItems []db_models.OrderItem
	var subtotal int64
	for _, item := range active {
		product, err := s.catalog.GetProduct(ctx, item.ProductID)
		if err != nil {
			rollback()
			return nil, utils.ErrDatabaseError
		}
		if product == nil {
			rollback()
			return nil, utils.ErrNotFound
		}
		ok, err := s.catalog.DecrementStock(ctx, item.ProductID, item.Quantity)
		if err != nil {
			rollback()
			return nil, utils.ErrDatabaseError
		}
		if !ok {
			rollback()
			return nil, utils.NewInsufficientStock(product.Stock)
		}
		claimed = append(claimed, item)

		subtotal += item.UnitPriceMinor * int64(item.Quantity)
		orderItems = append(orderItems, db_models.OrderItem{
			ProductID:          item.ProductID,
			VariantID:          item.VariantID,
			ProductName:        product.Name,
			ProductSKU:         product.SKU,
			ProductDescription: product.Description,
			Quantity:           item.Quantity,
			UnitPriceMinor:     item.UnitPriceMinor,
			Customization:      item.Customization,
		})
	}

	shipping := s.pricing.Shipping(subtotal)
	tax := s.pricing.Tax(subtotal)

	order := &db_models.Order{
		OrderNumber:     s.nextOrderNumber(),
		OwnerID:         caller.OwnerID,
		Status:          db_models.OrderStatusConfirmed,
		PaymentStatus:   db_models.PaymentStatusUnpaid,
		SubtotalMinor:   subtotal,
		ShippingMinor:   shipping,
		TaxMinor:        tax,
		TotalMinor:      subtotal + shipping + tax,
		Currency:        cart.Currency,
		ShippingAddress: jsonRaw(req.Address),
		PaymentMethod:   req.PaymentMethod,
		Items:           orderItems,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		rollback()
		return nil, utils.ErrDatabaseError
	}

	// Payment runs before the cart is cleared. A hard failure voids the order
	// and restores the claimed stock so a retry starts clean. A gateway
	// decline is not a hard failure; the order survives unpaid and can be
	// paid again through the ledger.
	voidOrder := func(cause error) (*response_models.OrderResponse, error) {
		if derr := s.orders.Delete(ctx, order.ID); derr != nil {
			log.Printf("checkout: order void failed for %s: %v", order.ID, derr)
		}
		rollback()
		return nil, cause
	}
	switch {
	case req.PaymentMethod == paymentMethodCOD:
		if _, err := s.payments.RecordCashOnDelivery(ctx, *caller.OwnerID, order); err != nil {
			return voidOrder(err)
		}
	case req.PaymentMethodID != nil:
		resp, err := s.payments.ProcessPayment(ctx, caller, request_models.ProcessPaymentRequest{
			OrderID:         order.ID,
			PaymentMethodID: *req.PaymentMethodID,
		})
		if err != nil {
			return voidOrder(err)
		}
		if resp.Status == string(db_models.TxnStatusSuccess) {
			order.PaymentStatus = db_models.PaymentStatusPaid
		}
	default:
		return voidOrder(utils.ErrConflict)
	}

	// Only the purchased lines leave the cart; saved-for-later lines stay.
	for _, item := range active {
		if err := s.carts.DeleteItem(ctx, item.ID); err != nil {
			log.Printf("checkout: cart clear failed for item %s: %v", item.ID, err)
		}
	}
	cart.SubtotalMinor, cart.TaxMinor, cart.ShippingMinor, cart.TotalMinor = 0, 0, 0, 0
	if err := s.carts.UpdateTotals(ctx, cart); err != nil {
		log.Printf("checkout: cart totals reset failed for cart %s: %v", cart.ID, err)
	}
	if s.broker != nil {
		s.broker.Publish(caller.Key(), pubsub.Event{Type: "cart.updated"})
	}

	s.afterMaterialize(order, req.Email)
	return toOrderResponse(order), nil
}

func (s *orderService) GetOrder(ctx context.Context, caller request_models.Caller, id uuid.UUID) (*response_models.OrderResponse, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if order == nil {
		return nil, utils.ErrNotFound
	}
	if !caller.IsStaff && !caller.Matches(order.OwnerID, order.SessionID) {
		return nil, utils.ErrForbidden
	}
	return toOrderResponse(order), nil
}

func toOrderResponse(order *db_models.Order) *response_models.OrderResponse {
	items := make([]response_models.OrderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, response_models.OrderItemResponse{
			ProductID:      item.ProductID.String(),
			ProductName:    item.ProductName,
			ProductSKU:     item.ProductSKU,
			Quantity:       item.Quantity,
			UnitPriceMinor: item.UnitPriceMinor,
		})
	}
	return &response_models.OrderResponse{
		ID:            order.ID.String(),
		OrderNumber:   order.OrderNumber,
		Status:        string(order.Status),
		PaymentStatus: string(order.PaymentStatus),
		SubtotalMinor: order.SubtotalMinor,
		ShippingMinor: order.ShippingMinor,
		TaxMinor:      order.TaxMinor,
		TotalMinor:    order.TotalMinor,
		Currency:      order.Currency,
		PaymentMethod: order.PaymentMethod,
		Items:         items,
	}
}
