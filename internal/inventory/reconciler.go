// Package inventory keeps product stock and ledger totals consistent while
// line items are added, resized or removed. Every call runs inside the
// caller's transaction; any error leaves the transaction to be rolled back.
package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hoangdh1/eCommerce/internal/repo"
	"github.com/hoangdh1/eCommerce/pkg/db/models"
	pkgerrors "github.com/hoangdh1/eCommerce/pkg/errors"
)

// LineItem is the ledger-agnostic view of a cart or order item.
type LineItem struct {
	ID        uuid.UUID
	ParentID  uuid.UUID
	ProductID uuid.UUID
	Count     int
}

// Ledger is an aggregate (cart or order) owning line items and a derived total.
type Ledger interface {
	Name() string
	// ConsumesStock reports whether item counts are reserved out of product quantity.
	ConsumesStock() bool
	// CheckParent fails when the aggregate is missing or does not accept item changes.
	CheckParent(ctx context.Context, tx *gorm.DB, parentID uuid.UUID) error
	FindItem(ctx context.Context, tx *gorm.DB, itemID uuid.UUID) (*LineItem, error)
	CreateItem(ctx context.Context, tx *gorm.DB, parentID, productID uuid.UUID, count int) (*LineItem, error)
	CompareAndSetCount(ctx context.Context, tx *gorm.DB, itemID uuid.UUID, oldCount, newCount int) (int64, error)
	DeleteItem(ctx context.Context, tx *gorm.DB, itemID uuid.UUID) (int64, error)
	AdjustTotal(ctx context.Context, tx *gorm.DB, parentID uuid.UUID, delta int64) (int64, error)
}

// Catalog is the product side of a reconciliation.
type Catalog interface {
	FindProduct(ctx context.Context, tx *gorm.DB, id uuid.UUID, includeDeleted bool) (*models.Product, error)
	DecrementStock(ctx context.Context, tx *gorm.DB, id uuid.UUID, qty int) (int64, error)
	IncrementStock(ctx context.Context, tx *gorm.DB, id uuid.UUID, qty int) (int64, error)
}

// Reconciler applies line-item mutations against a ledger and the catalog.
type Reconciler struct {
	catalog Catalog
}

func NewReconciler(catalog Catalog) (*Reconciler, error) {
	if catalog == nil {
		return nil, fmt.Errorf("catalog required")
	}
	return &Reconciler{catalog: catalog}, nil
}

// AddLineItem creates a line item of count units, adding price × count to the
// parent total and, for stock-consuming ledgers, taking count units of stock.
func (r *Reconciler) AddLineItem(ctx context.Context, tx *gorm.DB, ledger Ledger, parentID, productID uuid.UUID, count int) (*LineItem, error) {
	if count <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "count must be positive")
	}
	if err := ledger.CheckParent(ctx, tx, parentID); err != nil {
		return nil, err
	}
	product, err := r.catalog.FindProduct(ctx, tx, productID, false)
	if err != nil {
		return nil, repo.Translate(err, "product")
	}
	if product.Quantity < count {
		return nil, outOfStock(product, count)
	}

	if ledger.ConsumesStock() {
		if err := r.take(ctx, tx, product, count); err != nil {
			return nil, err
		}
	}
	if err := r.adjustTotal(ctx, tx, ledger, parentID, product.Price*int64(count)); err != nil {
		return nil, err
	}
	item, err := ledger.CreateItem(ctx, tx, parentID, productID, count)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("create %s item", ledger.Name()))
	}
	return item, nil
}

// UpdateLineItemCount resizes a line item. The parent total moves by
// price × (newCount − oldCount); stock-consuming ledgers take or return the
// same delta. Ledgers that do not reserve stock need the whole new count on
// hand.
func (r *Reconciler) UpdateLineItemCount(ctx context.Context, tx *gorm.DB, ledger Ledger, itemID uuid.UUID, newCount int) (*LineItem, error) {
	if newCount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "count must be positive")
	}
	item, err := ledger.FindItem(ctx, tx, itemID)
	if err != nil {
		return nil, repo.Translate(err, ledger.Name()+" item")
	}
	if err := ledger.CheckParent(ctx, tx, item.ParentID); err != nil {
		return nil, err
	}
	product, err := r.catalog.FindProduct(ctx, tx, item.ProductID, false)
	if err != nil {
		return nil, repo.Translate(err, "product")
	}

	delta := newCount - item.Count
	if delta == 0 {
		return item, nil
	}
	if err := checkResize(ledger, product, delta, newCount); err != nil {
		return nil, err
	}

	rows, err := ledger.CompareAndSetCount(ctx, tx, item.ID, item.Count, newCount)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("update %s item", ledger.Name()))
	}
	if rows == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("%s item changed concurrently", ledger.Name()))
	}

	if ledger.ConsumesStock() {
		if delta > 0 {
			err = r.take(ctx, tx, product, delta)
		} else {
			err = r.give(ctx, tx, product, -delta)
		}
		if err != nil {
			return nil, err
		}
	}
	if err := r.adjustTotal(ctx, tx, ledger, item.ParentID, product.Price*int64(delta)); err != nil {
		return nil, err
	}

	item.Count = newCount
	return item, nil
}

// RemoveLineItem soft-deletes a line item, subtracting price × count from the
// parent total and returning stock for stock-consuming ledgers. Products that
// were soft-deleted since the item was added still receive their stock back.
func (r *Reconciler) RemoveLineItem(ctx context.Context, tx *gorm.DB, ledger Ledger, itemID uuid.UUID) (*LineItem, error) {
	item, err := ledger.FindItem(ctx, tx, itemID)
	if err != nil {
		return nil, repo.Translate(err, ledger.Name()+" item")
	}
	if err := ledger.CheckParent(ctx, tx, item.ParentID); err != nil {
		return nil, err
	}
	product, err := r.catalog.FindProduct(ctx, tx, item.ProductID, true)
	if err != nil {
		return nil, repo.Translate(err, "product")
	}

	rows, err := ledger.DeleteItem(ctx, tx, item.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("delete %s item", ledger.Name()))
	}
	if rows == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("%s item removed concurrently", ledger.Name()))
	}

	if ledger.ConsumesStock() {
		if err := r.give(ctx, tx, product, item.Count); err != nil {
			return nil, err
		}
	}
	if err := r.adjustTotal(ctx, tx, ledger, item.ParentID, -product.Price*int64(item.Count)); err != nil {
		return nil, err
	}
	return item, nil
}

// checkResize fails when stock cannot cover the resized item. Reserved units
// already left product quantity, so only growth is checked against it.
func checkResize(ledger Ledger, product *models.Product, delta, newCount int) error {
	if !ledger.ConsumesStock() {
		if product.Quantity < newCount {
			return outOfStock(product, newCount)
		}
		return nil
	}
	if delta > 0 && product.Quantity < delta {
		return outOfStock(product, delta)
	}
	return nil
}

func (r *Reconciler) take(ctx context.Context, tx *gorm.DB, product *models.Product, qty int) error {
	rows, err := r.catalog.DecrementStock(ctx, tx, product.ID, qty)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
	}
	if rows == 0 {
		// the guarded update lost a race against another reservation
		return outOfStock(product, qty)
	}
	return nil
}

func (r *Reconciler) give(ctx context.Context, tx *gorm.DB, product *models.Product, qty int) error {
	rows, err := r.catalog.IncrementStock(ctx, tx, product.ID, qty)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment stock")
	}
	if rows == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

func (r *Reconciler) adjustTotal(ctx context.Context, tx *gorm.DB, ledger Ledger, parentID uuid.UUID, delta int64) error {
	if delta == 0 {
		return nil
	}
	rows, err := ledger.AdjustTotal(ctx, tx, parentID, delta)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("adjust %s total", ledger.Name()))
	}
	if rows == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, ledger.Name()+" not found")
	}
	return nil
}

func outOfStock(product *models.Product, requested int) error {
	return pkgerrors.New(pkgerrors.CodeOutOfStock, fmt.Sprintf("product %s has insufficient stock", product.ID)).
		WithDetails(map[string]any{
			"product_id": product.ID,
			"available":  product.Quantity,
			"requested":  requested,
		})
}
