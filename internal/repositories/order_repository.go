package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"shoply/internal/models/db_models"
)

type OrderRepositoryInterface interface {
	// Create persists the order and its items in one transaction.
	Create(ctx context.Context, order *db_models.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*db_models.Order, error)
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status db_models.OrderPaymentStatus) error
	// Delete voids an order and its items, for compensating a checkout whose
	// payment dispatch failed hard after the order row was written.
	Delete(ctx context.Context, id uuid.UUID) error
}

func NewOrderRepository(db *gorm.DB) OrderRepositoryInterface {
	return &OrderRepository{db: db}
}

type OrderRepository struct {
	db *gorm.DB
}

func (r *OrderRepository) Create(ctx context.Context, order *db_models.Order) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return tx.WithContext(ctx).Create(order).Error
	})
}

func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*db_models.Order, error) {
	var order db_models.Order
	err := r.db.WithContext(ctx).Preload("Items").Where("id = ?", id).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepository) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status db_models.OrderPaymentStatus) error {
	return r.db.WithContext(ctx).Model(&db_models.Order{}).
		Where("id = ?", id).
		Update("payment_status", status).Error
}

func (r *OrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).Where("order_id = ?", id).Delete(&db_models.OrderItem{}).Error; err != nil {
			return err
		}
		return tx.WithContext(ctx).Where("id = ?", id).Delete(&db_models.Order{}).Error
	})
}
