package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"shoply/internal/models/db_models"
)

type TransactionRepositoryInterface interface {
	Create(ctx context.Context, txn *db_models.PaymentTransaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*db_models.PaymentTransaction, error)

	// UpdateFields patches a transaction row in place. Only the sanctioned
	// flows (wallet placeholder, COD delivery confirmation, 3DS resolution)
	// go through here.
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error

	// MarkCaptured stamps CapturedAt on an authorization exactly once,
	// returning false if it was already captured.
	MarkCaptured(ctx context.Context, id uuid.UUID, at int64) (bool, error)

	// SumRefunds totals successful refund amounts recorded against an
	// original transaction.
	SumRefunds(ctx context.Context, originalID uuid.UUID) (int64, error)

	GetPendingByOrderAndGateway(ctx context.Context, orderID uuid.UUID, gateway string) (*db_models.PaymentTransaction, error)

	CreateRefund(ctx context.Context, refund *db_models.Refund) error
	CreateWalletPayment(ctx context.Context, wp *db_models.WalletPayment) error
	UpdateWalletVerification(ctx context.Context, id uuid.UUID, verification string) error
}

func NewTransactionRepository(db *gorm.DB) TransactionRepositoryInterface {
	return &TransactionRepository{db: db}
}

type TransactionRepository struct {
	db *gorm.DB
}

func (r *TransactionRepository) Create(ctx context.Context, txn *db_models.PaymentTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*db_models.PaymentTransaction, error) {
	var txn db_models.PaymentTransaction
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

func (r *TransactionRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&db_models.PaymentTransaction{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *TransactionRepository) MarkCaptured(ctx context.Context, id uuid.UUID, at int64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&db_models.PaymentTransaction{}).
		Where("id = ? AND captured_at IS NULL", id).
		Update("captured_at", at)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *TransactionRepository) SumRefunds(ctx context.Context, originalID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&db_models.Refund{}).
		Where("original_transaction_id = ? AND status = ?", originalID, db_models.TxnStatusSuccess).
		Select("COALESCE(SUM(amount_minor), 0)").
		Scan(&total).Error
	return total, err
}

func (r *TransactionRepository) GetPendingByOrderAndGateway(ctx context.Context, orderID uuid.UUID, gateway string) (*db_models.PaymentTransaction, error) {
	var txn db_models.PaymentTransaction
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND gateway = ? AND status = ?", orderID, gateway, db_models.TxnStatusPending).
		First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

func (r *TransactionRepository) CreateRefund(ctx context.Context, refund *db_models.Refund) error {
	return r.db.WithContext(ctx).Create(refund).Error
}

func (r *TransactionRepository) CreateWalletPayment(ctx context.Context, wp *db_models.WalletPayment) error {
	return r.db.WithContext(ctx).Create(wp).Error
}

func (r *TransactionRepository) UpdateWalletVerification(ctx context.Context, id uuid.UUID, verification string) error {
	return r.db.WithContext(ctx).Model(&db_models.WalletPayment{}).
		Where("id = ?", id).
		Update("verification", verification).Error
}
