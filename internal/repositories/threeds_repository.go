package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"shoply/internal/models/db_models"
)

type ThreeDSRepositoryInterface interface {
	Create(ctx context.Context, challenge *db_models.ThreeDSecureChallenge) error
	GetByID(ctx context.Context, id uuid.UUID) (*db_models.ThreeDSecureChallenge, error)
	GetByTransaction(ctx context.Context, transactionID uuid.UUID) (*db_models.ThreeDSecureChallenge, error)

	// Resolve moves a pending challenge to its terminal status exactly once.
	Resolve(ctx context.Context, id uuid.UUID, status db_models.ThreeDSecureStatus, at int64) (bool, error)
}

func NewThreeDSRepository(db *gorm.DB) ThreeDSRepositoryInterface {
	return &ThreeDSRepository{db: db}
}

type ThreeDSRepository struct {
	db *gorm.DB
}

func (r *ThreeDSRepository) Create(ctx context.Context, challenge *db_models.ThreeDSecureChallenge) error {
	return r.db.WithContext(ctx).Create(challenge).Error
}

func (r *ThreeDSRepository) GetByID(ctx context.Context, id uuid.UUID) (*db_models.ThreeDSecureChallenge, error) {
	var challenge db_models.ThreeDSecureChallenge
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&challenge).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &challenge, nil
}

func (r *ThreeDSRepository) GetByTransaction(ctx context.Context, transactionID uuid.UUID) (*db_models.ThreeDSecureChallenge, error) {
	var challenge db_models.ThreeDSecureChallenge
	err := r.db.WithContext(ctx).Where("transaction_id = ?", transactionID).First(&challenge).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &challenge, nil
}

func (r *ThreeDSRepository) Resolve(ctx context.Context, id uuid.UUID, status db_models.ThreeDSecureStatus, at int64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&db_models.ThreeDSecureChallenge{}).
		Where("id = ? AND status = ?", id, db_models.ThreeDSStatusPending).
		Updates(map[string]interface{}{
			"status":       status,
			"completed_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
