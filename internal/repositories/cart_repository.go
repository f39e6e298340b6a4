package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"shoply/internal/models/db_models"
)

type CartRepositoryInterface interface {
	GetByOwner(ctx context.Context, ownerID uuid.UUID) (*db_models.Cart, error)
	GetBySession(ctx context.Context, sessionID string) (*db_models.Cart, error)
	GetByID(ctx context.Context, cartID uuid.UUID) (*db_models.Cart, error)
	Create(ctx context.Context, cart *db_models.Cart) error

	GetItem(ctx context.Context, itemID uuid.UUID) (*db_models.CartItem, error)
	AddItem(ctx context.Context, item *db_models.CartItem) error
	UpdateItem(ctx context.Context, item *db_models.CartItem) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	DeleteItems(ctx context.Context, cartID uuid.UUID) error

	UpdateTotals(ctx context.Context, cart *db_models.Cart) error
}

func NewCartRepository(db *gorm.DB) CartRepositoryInterface {
	return &CartRepository{db: db}
}

type CartRepository struct {
	db *gorm.DB
}

func (r *CartRepository) getOne(ctx context.Context, query string, arg interface{}) (*db_models.Cart, error) {
	var cart db_models.Cart
	err := r.db.WithContext(ctx).Preload("Items").Where(query, arg).First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cart, nil
}

func (r *CartRepository) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*db_models.Cart, error) {
	return r.getOne(ctx, "owner_id = ?", ownerID)
}

func (r *CartRepository) GetBySession(ctx context.Context, sessionID string) (*db_models.Cart, error) {
	return r.getOne(ctx, "session_id = ?", sessionID)
}

func (r *CartRepository) GetByID(ctx context.Context, cartID uuid.UUID) (*db_models.Cart, error) {
	return r.getOne(ctx, "id = ?", cartID)
}

func (r *CartRepository) Create(ctx context.Context, cart *db_models.Cart) error {
	return r.db.WithContext(ctx).Create(cart).Error
}

func (r *CartRepository) GetItem(ctx context.Context, itemID uuid.UUID) (*db_models.CartItem, error) {
	var item db_models.CartItem
	err := r.db.WithContext(ctx).Where("id = ?", itemID).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *CartRepository) AddItem(ctx context.Context, item *db_models.CartItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *CartRepository) UpdateItem(ctx context.Context, item *db_models.CartItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *CartRepository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&db_models.CartItem{}, "id = ?", itemID).Error
}

func (r *CartRepository) DeleteItems(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&db_models.CartItem{}, "cart_id = ?", cartID).Error
}

func (r *CartRepository) UpdateTotals(ctx context.Context, cart *db_models.Cart) error {
	return r.db.WithContext(ctx).Model(cart).Updates(map[string]interface{}{
		"subtotal_minor": cart.SubtotalMinor,
		"tax_minor":      cart.TaxMinor,
		"shipping_minor": cart.ShippingMinor,
		"total_minor":    cart.TotalMinor,
	}).Error
}
