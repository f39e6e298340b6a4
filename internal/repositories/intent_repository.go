package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"shoply/internal/models/db_models"
)

type IntentRepositoryInterface interface {
	Create(ctx context.Context, intent *db_models.PurchaseIntent) error
	GetByID(ctx context.Context, id uuid.UUID) (*db_models.PurchaseIntent, error)
	Update(ctx context.Context, intent *db_models.PurchaseIntent) error

	// TransitionStatus moves an intent from one status to another with a
	// single conditional update, returning false when the intent was no longer
	// in the expected status. This is the guard that keeps terminal states
	// terminal under concurrent callers.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to db_models.PurchaseIntentStatus) (bool, error)

	// ExpireAllPending bulk-transitions pending intents whose TTL elapsed
	// before now (unix seconds), returning the number of rows touched.
	ExpireAllPending(ctx context.Context, now int64) (int64, error)
}

func NewIntentRepository(db *gorm.DB) IntentRepositoryInterface {
	return &IntentRepository{db: db}
}

type IntentRepository struct {
	db *gorm.DB
}

func (r *IntentRepository) Create(ctx context.Context, intent *db_models.PurchaseIntent) error {
	return r.db.WithContext(ctx).Create(intent).Error
}

func (r *IntentRepository) GetByID(ctx context.Context, id uuid.UUID) (*db_models.PurchaseIntent, error) {
	var intent db_models.PurchaseIntent
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&intent).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &intent, nil
}

func (r *IntentRepository) Update(ctx context.Context, intent *db_models.PurchaseIntent) error {
	return r.db.WithContext(ctx).Save(intent).Error
}

func (r *IntentRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to db_models.PurchaseIntentStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&db_models.PurchaseIntent{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *IntentRepository) ExpireAllPending(ctx context.Context, now int64) (int64, error) {
	res := r.db.WithContext(ctx).Model(&db_models.PurchaseIntent{}).
		Where("status = ? AND expires_at < ?", db_models.IntentStatusPending, now).
		Update("status", db_models.IntentStatusExpired)
	return res.RowsAffected, res.Error
}
