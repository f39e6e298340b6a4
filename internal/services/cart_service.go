package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"shoply/internal/models/db_models"
	"shoply/internal/models/request_models"
	"shoply/internal/models/response_models"
	"shoply/internal/repositories"
	"shoply/pkg/pubsub"
	"shoply/pkg/utils"
)

const cartUpdatedEvent = "cart.updated"

// CartService owns the mutable line-item list per owner. Totals are recomputed
// from the full current line set after every mutation, never adjusted
// incrementally, so a lost-update race between two sessions of the same owner
// only affects which line's quantity wins, never the aggregates.
type CartService interface {
	GetOrCreate(ctx context.Context, caller request_models.Caller) (*response_models.CartResponse, error)
	AddItem(ctx context.Context, caller request_models.Caller, req request_models.AddCartItemRequest) (*response_models.CartResponse, error)
	UpdateQuantity(ctx context.Context, caller request_models.Caller, itemID uuid.UUID, quantity int) (*response_models.CartResponse, error)
	RemoveItem(ctx context.Context, caller request_models.Caller, itemID uuid.UUID) (*response_models.CartResponse, error)
	Clear(ctx context.Context, caller request_models.Caller) error
	SaveForLater(ctx context.Context, caller request_models.Caller, itemID uuid.UUID) (*response_models.CartResponse, error)
	MoveToCart(ctx context.Context, caller request_models.Caller, itemID uuid.UUID) (*response_models.CartResponse, error)

	// MergeGuestCart folds a guest session's cart into the owner's cart after
	// authentication, applying the same line-merge rules as AddItem.
	MergeGuestCart(ctx context.Context, sessionID string, ownerID uuid.UUID) error
}

type cartService struct {
	carts   repositories.CartRepositoryInterface
	catalog repositories.ProductCatalog
	pricing PricingConfig
	broker  *pubsub.Broker
}

func NewCartService(
	carts repositories.CartRepositoryInterface,
	catalog repositories.ProductCatalog,
	pricing PricingConfig,
	broker *pubsub.Broker,
) CartService {
	return &cartService{
		carts:   carts,
		catalog: catalog,
		pricing: pricing,
		broker:  broker,
	}
}

func (s *cartService) fetch(ctx context.Context, caller request_models.Caller) (*db_models.Cart, error) {
	if caller.IsAuthenticated && caller.OwnerID != nil {
		return s.carts.GetByOwner(ctx, *caller.OwnerID)
	}
	if caller.SessionID == "" {
		return nil, utils.ErrForbidden
	}
	return s.carts.GetBySession(ctx, caller.SessionID)
}

func (s *cartService) getOrCreate(ctx context.Context, caller request_models.Caller) (*db_models.Cart, error) {
	cart, err := s.fetch(ctx, caller)
	if err != nil {
		return nil, err
	}
	if cart != nil {
		return cart, nil
	}

	cart = &db_models.Cart{Currency: s.pricing.Currency}
	if caller.IsAuthenticated && caller.OwnerID != nil {
		cart.OwnerID = caller.OwnerID
	} else {
		sessionID := caller.SessionID
		cart.SessionID = &sessionID
	}
	if err := s.carts.Create(ctx, cart); err != nil {
		return nil, utils.ErrDatabaseError
	}
	return cart, nil
}

// recompute derives all aggregates from the current line set and persists
// them, then notifies the owner channel. Saved-for-later lines do not count.
func (s *cartService) recompute(ctx context.Context, caller request_models.Caller, cartID uuid.UUID) (*db_models.Cart, error) {
	cart, err := s.carts.GetByID(ctx, cartID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if cart == nil {
		return nil, utils.ErrNotFound
	}

	var subtotal int64
	for _, item := range cart.Items {
		if item.SavedForLater {
			continue
		}
		subtotal += item.UnitPriceMinor * int64(item.Quantity)
	}
	cart.SubtotalMinor = subtotal
	cart.TaxMinor = s.pricing.Tax(subtotal)
	cart.ShippingMinor = s.pricing.Shipping(subtotal)
	cart.TotalMinor = subtotal + cart.TaxMinor + cart.ShippingMinor

	if err := s.carts.UpdateTotals(ctx, cart); err != nil {
		return nil, utils.ErrDatabaseError
	}

	if s.broker != nil {
		s.broker.Publish(caller.Key(), pubsub.Event{Type: cartUpdatedEvent})
	}
	return cart, nil
}

func (s *cartService) GetOrCreate(ctx context.Context, caller request_models.Caller) (*response_models.CartResponse, error) {
	cart, err := s.getOrCreate(ctx, caller)
	if err != nil {
		return nil, err
	}
	return toCartResponse(cart), nil
}

func (s *cartService) AddItem(ctx context.Context, caller request_models.Caller, req request_models.AddCartItemRequest) (*response_models.CartResponse, error) {
	product, err := s.catalog.GetProduct(ctx, req.ProductID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if product == nil {
		return nil, utils.ErrNotFound
	}

	cart, err := s.getOrCreate(ctx, caller)
	if err != nil {
		return nil, err
	}

	// Merge into an existing matching active line, else insert a new line
	// priced at the product's current price.
	merged := false
	for i := range cart.Items {
		if cart.Items[i].SameLine(req.ProductID, req.VariantID) {
			cart.Items[i].Quantity += req.Quantity
			if err := s.carts.UpdateItem(ctx, &cart.Items[i]); err != nil {
				return nil, utils.ErrDatabaseError
			}
			merged = true
			break
		}
	}
	if !merged {
		item := &db_models.CartItem{
			CartID:         cart.ID,
			ProductID:      req.ProductID,
			VariantID:      req.VariantID,
			Quantity:       req.Quantity,
			UnitPriceMinor: product.UnitPriceMinor(),
			Customization:  jsonRaw(req.Customization),
		}
		if err := s.carts.AddItem(ctx, item); err != nil {
			return nil, utils.ErrDatabaseError
		}
	}

	updated, err := s.recompute(ctx, caller, cart.ID)
	if err != nil {
		return nil, err
	}
	return toCartResponse(updated), nil
}

// ownItem resolves an item id and verifies it belongs to the caller's cart.
func (s *cartService) ownItem(ctx context.Context, caller request_models.Caller, itemID uuid.UUID) (*db_models.Cart, *db_models.CartItem, error) {
	cart, err := s.fetch(ctx, caller)
	if err != nil {
		return nil, nil, err
	}
	if cart == nil {
		return nil, nil, utils.ErrNotFound
	}
	item, err := s.carts.GetItem(ctx, itemID)
	if err != nil {
		return nil, nil, utils.ErrDatabaseError
	}
	if item == nil || item.CartID != cart.ID {
		return nil, nil, utils.ErrNotFound
	}
	return cart, item, nil
}

func (s *cartService) UpdateQuantity(ctx context.Context, caller request_models.Caller, itemID uuid.UUID, quantity int) (*response_models.CartResponse, error) {
	cart, item, err := s.ownItem(ctx, caller, itemID)
	if err != nil {
		return nil, err
	}

	if quantity <= 0 {
		if err := s.carts.DeleteItem(ctx, item.ID); err != nil {
			return nil, utils.ErrDatabaseError
		}
	} else {
		item.Quantity = quantity
		if err := s.carts.UpdateItem(ctx, item); err != nil {
			return nil, utils.ErrDatabaseError
		}
	}

	updated, err := s.recompute(ctx, caller, cart.ID)
	if err != nil {
		return nil, err
	}
	return toCartResponse(updated), nil
}

func (s *cartService) RemoveItem(ctx context.Context, caller request_models.Caller, itemID uuid.UUID) (*response_models.CartResponse, error) {
	cart, item, err := s.ownItem(ctx, caller, itemID)
	if err != nil {
		return nil, err
	}
	if err := s.carts.DeleteItem(ctx, item.ID); err != nil {
		return nil, utils.ErrDatabaseError
	}
	updated, err := s.recompute(ctx, caller, cart.ID)
	if err != nil {
		return nil, err
	}
	return toCartResponse(updated), nil
}

func (s *cartService) Clear(ctx context.Context, caller request_models.Caller) error {
	cart, err := s.fetch(ctx, caller)
	if err != nil {
		return err
	}
	if cart == nil {
		return utils.ErrNotFound
	}
	if err := s.carts.DeleteItems(ctx, cart.ID); err != nil {
		return utils.ErrDatabaseError
	}
	if _, err := s.recompute(ctx, caller, cart.ID); err != nil {
		return err
	}
	return nil
}

func (s *cartService) setSavedForLater(ctx context.Context, caller request_models.Caller, itemID uuid.UUID, saved bool) (*response_models.CartResponse, error) {
	cart, item, err := s.ownItem(ctx, caller, itemID)
	if err != nil {
		return nil, err
	}
	item.SavedForLater = saved
	if err := s.carts.UpdateItem(ctx, item); err != nil {
		return nil, utils.ErrDatabaseError
	}
	updated, err := s.recompute(ctx, caller, cart.ID)
	if err != nil {
		return nil, err
	}
	return toCartResponse(updated), nil
}

func (s *cartService) SaveForLater(ctx context.Context, caller request_models.Caller, itemID uuid.UUID) (*response_models.CartResponse, error) {
	return s.setSavedForLater(ctx, caller, itemID, true)
}

func (s *cartService) MoveToCart(ctx context.Context, caller request_models.Caller, itemID uuid.UUID) (*response_models.CartResponse, error) {
	return s.setSavedForLater(ctx, caller, itemID, false)
}

func (s *cartService) MergeGuestCart(ctx context.Context, sessionID string, ownerID uuid.UUID) error {
	guestCart, err := s.carts.GetBySession(ctx, sessionID)
	if err != nil {
		return utils.ErrDatabaseError
	}
	if guestCart == nil || len(guestCart.Items) == 0 {
		return nil
	}

	ownerCaller := request_models.Caller{OwnerID: &ownerID, IsAuthenticated: true}
	ownerCart, err := s.getOrCreate(ctx, ownerCaller)
	if err != nil {
		return err
	}

	for _, guestItem := range guestCart.Items {
		merged := false
		for i := range ownerCart.Items {
			if ownerCart.Items[i].SameLine(guestItem.ProductID, guestItem.VariantID) {
				ownerCart.Items[i].Quantity += guestItem.Quantity
				if err := s.carts.UpdateItem(ctx, &ownerCart.Items[i]); err != nil {
					return utils.ErrDatabaseError
				}
				merged = true
				break
			}
		}
		if !merged {
			item := &db_models.CartItem{
				CartID:         ownerCart.ID,
				ProductID:      guestItem.ProductID,
				VariantID:      guestItem.VariantID,
				Quantity:       guestItem.Quantity,
				UnitPriceMinor: guestItem.UnitPriceMinor,
				Customization:  guestItem.Customization,
				SavedForLater:  guestItem.SavedForLater,
			}
			if err := s.carts.AddItem(ctx, item); err != nil {
				return utils.ErrDatabaseError
			}
		}
	}

	if err := s.carts.DeleteItems(ctx, guestCart.ID); err != nil {
		return utils.ErrDatabaseError
	}
	if _, err := s.recompute(ctx, ownerCaller, ownerCart.ID); err != nil {
		return err
	}
	return nil
}

func toCartResponse(cart *db_models.Cart) *response_models.CartResponse {
	items := make([]response_models.CartItemResponse, 0, len(cart.Items))
	for _, item := range cart.Items {
		ir := response_models.CartItemResponse{
			ID:             item.ID.String(),
			ProductID:      item.ProductID.String(),
			Quantity:       item.Quantity,
			UnitPriceMinor: item.UnitPriceMinor,
			SavedForLater:  item.SavedForLater,
		}
		if item.VariantID != nil {
			ir.VariantID = item.VariantID.String()
		}
		if len(item.Customization) > 0 {
			var customization map[string]string
			if err := json.Unmarshal(item.Customization, &customization); err == nil {
				ir.Customization = customization
			}
		}
		items = append(items, ir)
	}
	return &response_models.CartResponse{
		ID:            cart.ID.String(),
		Items:         items,
		SubtotalMinor: cart.SubtotalMinor,
		TaxMinor:      cart.TaxMinor,
		ShippingMinor: cart.ShippingMinor,
		TotalMinor:    cart.TotalMinor,
		Currency:      cart.Currency,
	}
}
