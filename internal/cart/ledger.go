package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hoangdh1/eCommerce/internal/inventory"
	"github.com/hoangdh1/eCommerce/pkg/db/models"
	pkgerrors "github.com/hoangdh1/eCommerce/pkg/errors"
)

// ledger adapts a single cart to the inventory reconciler. Carts never
// reserve stock; they only track a running total.
type ledger struct {
	repo   *Repository
	cartID uuid.UUID
}

var _ inventory.Ledger = (*ledger)(nil)

func newLedger(repo *Repository, cartID uuid.UUID) *ledger {
	return &ledger{repo: repo, cartID: cartID}
}

func (l *ledger) Name() string        { return "cart" }
func (l *ledger) ConsumesStock() bool { return false }

func (l *ledger) CheckParent(ctx context.Context, tx *gorm.DB, parentID uuid.UUID) error {
	if parentID != l.cartID {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
	}
	if _, err := l.repo.WithTx(tx).FindByID(ctx, parentID); err != nil {
		return translate(err, "cart")
	}
	return nil
}

func (l *ledger) FindItem(ctx context.Context, tx *gorm.DB, itemID uuid.UUID) (*inventory.LineItem, error) {
	item, err := l.repo.WithTx(tx).FindItem(ctx, l.cartID, itemID)
	if err != nil {
		return nil, err
	}
	return toLineItem(item), nil
}

func (l *ledger) CreateItem(ctx context.Context, tx *gorm.DB, parentID, productID uuid.UUID, count int) (*inventory.LineItem, error) {
	item, err := l.repo.WithTx(tx).CreateItem(ctx, &models.CartItem{
		CartID:    parentID,
		ProductID: productID,
		Count:     count,
	})
	if err != nil {
		return nil, err
	}
	return toLineItem(item), nil
}

func (l *ledger) CompareAndSetCount(ctx context.Context, tx *gorm.DB, itemID uuid.UUID, oldCount, newCount int) (int64, error) {
	return l.repo.WithTx(tx).CompareAndSetCount(ctx, itemID, oldCount, newCount)
}

func (l *ledger) DeleteItem(ctx context.Context, tx *gorm.DB, itemID uuid.UUID) (int64, error) {
	return l.repo.WithTx(tx).DeleteItem(ctx, itemID)
}

func (l *ledger) AdjustTotal(ctx context.Context, tx *gorm.DB, parentID uuid.UUID, delta int64) (int64, error) {
	return l.repo.WithTx(tx).AdjustTotal(ctx, parentID, delta)
}

func toLineItem(item *models.CartItem) *inventory.LineItem {
	return &inventory.LineItem{
		ID:        item.ID,
		ParentID:  item.CartID,
		ProductID: item.ProductID,
		Count:     item.Count,
	}
}
