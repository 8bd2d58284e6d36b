package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hoangdh1/eCommerce/internal/inventory"
	"github.com/hoangdh1/eCommerce/internal/repo"
	"github.com/hoangdh1/eCommerce/pkg/db"
	"github.com/hoangdh1/eCommerce/pkg/db/models"
	pkgerrors "github.com/hoangdh1/eCommerce/pkg/errors"
)

// Service manages a customer's cart. Every mutation runs as one transaction
// through the inventory reconciler.
type Service interface {
	GetCart(ctx context.Context, customerID uuid.UUID) (*CartDTO, error)
	AddItem(ctx context.Context, customerID, productID uuid.UUID, count int) (*CartDTO, error)
	UpdateItem(ctx context.Context, customerID, itemID uuid.UUID, count int) (*CartDTO, error)
	RemoveItem(ctx context.Context, customerID, itemID uuid.UUID) (*CartDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type customerLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
}

type service struct {
	repo       *Repository
	tx         txRunner
	customers  customerLoader
	reconciler *inventory.Reconciler
}

func NewService(repo *Repository, tx txRunner, customers customerLoader, reconciler *inventory.Reconciler) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if customers == nil {
		return nil, fmt.Errorf("customer repository required")
	}
	if reconciler == nil {
		return nil, fmt.Errorf("inventory reconciler required")
	}
	return &service{repo: repo, tx: tx, customers: customers, reconciler: reconciler}, nil
}

func (s *service) GetCart(ctx context.Context, customerID uuid.UUID) (*CartDTO, error) {
	var out *CartDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cart, err := s.ensureCart(ctx, tx, customerID)
		if err != nil {
			return err
		}
		out = mapCartDTO(cart)
		return nil
	})
	return out, err
}

func (s *service) AddItem(ctx context.Context, customerID, productID uuid.UUID, count int) (*CartDTO, error) {
	return s.mutate(ctx, customerID, func(tx *gorm.DB, l *ledger) error {
		_, err := s.reconciler.AddLineItem(ctx, tx, l, l.cartID, productID, count)
		return err
	})
}

func (s *service) UpdateItem(ctx context.Context, customerID, itemID uuid.UUID, count int) (*CartDTO, error) {
	return s.mutate(ctx, customerID, func(tx *gorm.DB, l *ledger) error {
		_, err := s.reconciler.UpdateLineItemCount(ctx, tx, l, itemID, count)
		return err
	})
}

func (s *service) RemoveItem(ctx context.Context, customerID, itemID uuid.UUID) (*CartDTO, error) {
	return s.mutate(ctx, customerID, func(tx *gorm.DB, l *ledger) error {
		_, err := s.reconciler.RemoveLineItem(ctx, tx, l, itemID)
		return err
	})
}

func (s *service) mutate(ctx context.Context, customerID uuid.UUID, fn func(tx *gorm.DB, l *ledger) error) (*CartDTO, error) {
	var out *CartDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cart, err := s.ensureCart(ctx, tx, customerID)
		if err != nil {
			return err
		}
		if err := fn(tx, newLedger(s.repo, cart.ID)); err != nil {
			return err
		}
		fresh, err := s.repo.WithTx(tx).FindByCustomer(ctx, customerID)
		if err != nil {
			return translate(err, "cart")
		}
		out = mapCartDTO(fresh)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ensureCart returns the customer's cart, creating an empty one on first use.
func (s *service) ensureCart(ctx context.Context, tx *gorm.DB, customerID uuid.UUID) (*models.Cart, error) {
	txRepo := s.repo.WithTx(tx)
	cart, err := txRepo.FindByCustomer(ctx, customerID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	if _, err := s.customers.FindByID(ctx, customerID); err != nil {
		return nil, translate(err, "customer")
	}
	cart = &models.Cart{CustomerID: customerID, Items: []models.CartItem{}}
	if _, err := txRepo.Create(ctx, cart); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "cart created concurrently; retry")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
	}
	return cart, nil
}

func translate(err error, entity string) error {
	return repo.Translate(err, entity)
}
