package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hoangdh1/eCommerce/internal/inventory"
	"github.com/hoangdh1/eCommerce/internal/repo"
	"github.com/hoangdh1/eCommerce/pkg/db/models"
	"github.com/hoangdh1/eCommerce/pkg/enums"
	pkgerrors "github.com/hoangdh1/eCommerce/pkg/errors"
)

// ledger adapts one order to the inventory reconciler. Order items reserve
// stock, and items may only change while the order is still inStock.
type ledger struct {
	repo    Repository
	orderID uuid.UUID
}

var _ inventory.Ledger = (*ledger)(nil)

func newLedger(repo Repository, orderID uuid.UUID) *ledger {
	return &ledger{repo: repo, orderID: orderID}
}

func (l *ledger) Name() string        { return "order" }
func (l *ledger) ConsumesStock() bool { return true }

func (l *ledger) CheckParent(ctx context.Context, tx *gorm.DB, parentID uuid.UUID) error {
	if parentID != l.orderID {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	order, err := l.repo.WithTx(tx).FindByID(ctx, parentID)
	if err != nil {
		return repo.Translate(err, "order")
	}
	if order.Status != enums.OrderStatusInStock {
		return pkgerrors.New(pkgerrors.CodeInvalidState,
			fmt.Sprintf("order items are locked once the order is %s", order.Status))
	}
	return nil
}

func (l *ledger) FindItem(ctx context.Context, tx *gorm.DB, itemID uuid.UUID) (*inventory.LineItem, error) {
	item, err := l.repo.WithTx(tx).FindItem(ctx, l.orderID, itemID)
	if err != nil {
		return nil, err
	}
	return toLineItem(item), nil
}

func (l *ledger) CreateItem(ctx context.Context, tx *gorm.DB, parentID, productID uuid.UUID, count int) (*inventory.LineItem, error) {
	item, err := l.repo.WithTx(tx).CreateItem(ctx, &models.OrderItem{
		OrderID:   parentID,
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

func toLineItem(item *models.OrderItem) *inventory.LineItem {
	return &inventory.LineItem{
		ID:        item.ID,
		ParentID:  item.OrderID,
		ProductID: item.ProductID,
		Count:     item.Count,
	}
}
