package product

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hoangdh1/eCommerce/pkg/db/models"
)

// StockStore exposes transaction-scoped product reads and stock writes to the
// inventory reconciler.
type StockStore struct {
	repo *Repository
}

// NewStockStore wraps the catalog repository.
func NewStockStore(repo *Repository) *StockStore {
	return &StockStore{repo: repo}
}

func (s *StockStore) FindProduct(ctx context.Context, tx *gorm.DB, id uuid.UUID, includeDeleted bool) (*models.Product, error) {
	if includeDeleted {
		return s.repo.WithTx(tx).FindByIDUnscoped(ctx, id)
	}
	return s.repo.WithTx(tx).FindByID(ctx, id)
}

func (s *StockStore) DecrementStock(ctx context.Context, tx *gorm.DB, id uuid.UUID, qty int) (int64, error) {
	return s.repo.WithTx(tx).DecrementStock(ctx, id, qty)
}

func (s *StockStore) IncrementStock(ctx context.Context, tx *gorm.DB, id uuid.UUID, qty int) (int64, error) {
	return s.repo.WithTx(tx).IncrementStock(ctx, id, qty)
}
