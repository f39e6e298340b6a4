package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"shoply/internal/models/db_models"
)

type PaymentMethodRepositoryInterface interface {
	Create(ctx context.Context, method *db_models.PaymentMethod) error
	GetByID(ctx context.Context, id uuid.UUID) (*db_models.PaymentMethod, error)
	GetDefaultForOwner(ctx context.Context, ownerID uuid.UUID) (*db_models.PaymentMethod, error)
}

func NewPaymentMethodRepository(db *gorm.DB) PaymentMethodRepositoryInterface {
	return &PaymentMethodRepository{db: db}
}

type PaymentMethodRepository struct {
	db *gorm.DB
}

func (r *PaymentMethodRepository) Create(ctx context.Context, method *db_models.PaymentMethod) error {
	return r.db.WithContext(ctx).Create(method).Error
}

func (r *PaymentMethodRepository) GetByID(ctx context.Context, id uuid.UUID) (*db_models.PaymentMethod, error) {
	var method db_models.PaymentMethod
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&method).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &method, nil
}

func (r *PaymentMethodRepository) GetDefaultForOwner(ctx context.Context, ownerID uuid.UUID) (*db_models.PaymentMethod, error) {
	var method db_models.PaymentMethod
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND is_default = TRUE", ownerID).
		First(&method).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &method, nil
}
