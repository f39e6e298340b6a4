package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"shoply/internal/models/db_models"
)

// ProductCatalog is the boundary to the external catalog store. The engine
// only ever fetches by id and adjusts stock.
type ProductCatalog interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*db_models.Product, error)

	// DecrementStock conditionally decrements stock by qty, returning false
	// when remaining stock is insufficient. The update is a single conditional
	// statement so two concurrent completions for the last unit cannot both
	// pass.
	DecrementStock(ctx context.Context, id uuid.UUID, qty int) (bool, error)

	// IncrementStock restores stock, used to compensate a partially applied
	// multi-line checkout.
	IncrementStock(ctx context.Context, id uuid.UUID, qty int) error
}

func NewProductRepository(db *gorm.DB) ProductCatalog {
	return &ProductRepository{db: db}
}

type ProductRepository struct {
	db *gorm.DB
}

func (p *ProductRepository) GetProduct(ctx context.Context, id uuid.UUID) (*db_models.Product, error) {
	var product db_models.Product
	err := p.db.WithContext(ctx).Where("id = ?", id).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

func (p *ProductRepository) DecrementStock(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	res := p.db.WithContext(ctx).Model(&db_models.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (p *ProductRepository) IncrementStock(ctx context.Context, id uuid.UUID, qty int) error {
	return p.db.WithContext(ctx).Model(&db_models.Product{}).
		Where("id = ?", id).
		UpdateColumn("stock", gorm.Expr("stock + ?", qty)).Error
}
