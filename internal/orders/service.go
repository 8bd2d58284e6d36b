package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hoangdh1/eCommerce/internal/inventory"
	"github.com/hoangdh1/eCommerce/internal/repo"
	"github.com/hoangdh1/eCommerce/pkg/cache"
	"github.com/hoangdh1/eCommerce/pkg/db/models"
	"github.com/hoangdh1/eCommerce/pkg/enums"
	pkgerrors "github.com/hoangdh1/eCommerce/pkg/errors"
	"github.com/hoangdh1/eCommerce/pkg/logger"
	"github.com/hoangdh1/eCommerce/pkg/types"
)

const defaultMaxUnitsPerOrder = 500

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the order ledger and its status state machine.
type Service interface {
	CreateOrder(ctx context.Context, actor types.Actor, input CreateOrderInput) (*OrderDTO, error)
	GetOrder(ctx context.Context, actor types.Actor, orderID uuid.UUID) (*OrderDTO, error)
	ListCustomerOrders(ctx context.Context, actor types.Actor) ([]OrderDTO, error)
	ListShipperOrders(ctx context.Context, actor types.Actor, shipperID uuid.UUID) ([]OrderDTO, error)
	AddItem(ctx context.Context, actor types.Actor, orderID, productID uuid.UUID, count int) (*OrderDTO, error)
	UpdateItem(ctx context.Context, actor types.Actor, orderID, itemID uuid.UUID, count int) (*OrderDTO, error)
	RemoveItem(ctx context.Context, actor types.Actor, orderID, itemID uuid.UUID) (*OrderDTO, error)
	ExportOrder(ctx context.Context, actor types.Actor, orderID uuid.UUID, status enums.OrderStatus) (*OrderDTO, error)
	AssignShipper(ctx context.Context, actor types.Actor, orderID, shipperID uuid.UUID) (*OrderDTO, error)
	UpdateStatusOrder(ctx context.Context, actor types.Actor, orderID, shipperID uuid.UUID, status enums.OrderStatus) (*OrderDTO, error)
}

// ServiceParams groups the order service dependencies.
type ServiceParams struct {
	Repo             Repository
	Tx               txRunner
	Customers        customerLoader
	Shippers         shipperLoader
	Reconciler       *inventory.Reconciler
	Cache            *cache.Cache
	Logger           *logger.Logger
	MaxUnitsPerOrder int
}

type service struct {
	repo       Repository
	tx         txRunner
	customers  customerLoader
	shippers   shipperLoader
	reconciler *inventory.Reconciler
	cache      *cache.Cache
	logg       *logger.Logger
	maxUnits   int
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Customers == nil {
		return nil, fmt.Errorf("customer repository required")
	}
	if params.Shippers == nil {
		return nil, fmt.Errorf("shipper repository required")
	}
	if params.Reconciler == nil {
		return nil, fmt.Errorf("inventory reconciler required")
	}
	if params.Cache == nil {
		return nil, fmt.Errorf("cache required")
	}
	maxUnits := params.MaxUnitsPerOrder
	if maxUnits <= 0 {
		maxUnits = defaultMaxUnitsPerOrder
	}
	return &service{
		repo:       params.Repo,
		tx:         params.Tx,
		customers:  params.Customers,
		shippers:   params.Shippers,
		reconciler: params.Reconciler,
		cache:      params.Cache,
		logg:       params.Logger,
		maxUnits:   maxUnits,
	}, nil
}

func (s *service) CreateOrder(ctx context.Context, actor types.Actor, input CreateOrderInput) (*OrderDTO, error) {
	customerID := input.CustomerID
	switch actor.Role {
	case enums.ActorRoleCustomer:
		customerID = actor.ID
	case enums.ActorRoleAdmin:
		if customerID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer_id is required")
		}
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only customers and admins create orders")
	}

	if _, err := s.customers.FindByID(ctx, customerID); err != nil {
		return nil, repo.Translate(err, "customer")
	}
	if input.ShipperID != nil {
		if _, err := s.shippers.FindByID(ctx, *input.ShipperID); err != nil {
			return nil, repo.Translate(err, "shipper")
		}
	}

	order := &models.Order{
		CustomerID: customerID,
		ShipperID:  input.ShipperID,
		Status:     enums.OrderStatusInStock,
	}
	if _, err := s.repo.Create(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}
	if order.ShipperID != nil {
		s.cache.Invalidate(ctx, s.cache.ShipperOrdersKey(order.ShipperID.String()))
	}
	return mapOrderDTO(order), nil
}

func (s *service) GetOrder(ctx context.Context, actor types.Actor, orderID uuid.UUID) (*OrderDTO, error) {
	key := s.cache.OrderKey(orderID.String())

	var dto *OrderDTO
	var cached OrderDTO
	if hit, err := s.cache.GetJSON(ctx, key, &cached); err == nil && hit {
		dto = &cached
	} else {
		order, err := s.repo.FindDetail(ctx, orderID)
		if err != nil {
			return nil, repo.Translate(err, "order")
		}
		dto = mapOrderDTO(order)
		s.cache.Remember(ctx, key, dto)
	}

	if !dto.visibleTo(actor.ID, actor.Role) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order not visible to caller")
	}
	return dto, nil
}

func (s *service) ListCustomerOrders(ctx context.Context, actor types.Actor) ([]OrderDTO, error) {
	if err := requireRole(actor, enums.ActorRoleCustomer); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByCustomer(ctx, actor.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return mapOrderList(rows), nil
}

// ListShipperOrders returns the orders assigned to a shipper. The list is
// cached per shipper; availability is checked on every call.
func (s *service) ListShipperOrders(ctx context.Context, actor types.Actor, shipperID uuid.UUID) ([]OrderDTO, error) {
	switch {
	case actor.Is(enums.ActorRoleAdmin):
	case actor.Is(enums.ActorRoleShipper) && actor.ID == shipperID:
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order list not visible to caller")
	}
	if _, err := s.activeShipper(ctx, nil, shipperID); err != nil {
		return nil, err
	}

	key := s.cache.ShipperOrdersKey(shipperID.String())
	var cached []OrderDTO
	if hit, err := s.cache.GetJSON(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	rows, err := s.repo.ListByShipper(ctx, shipperID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list shipper orders")
	}
	list := mapOrderList(rows)
	s.cache.Remember(ctx, key, list)
	return list, nil
}

func (s *service) AddItem(ctx context.Context, actor types.Actor, orderID, productID uuid.UUID, count int) (*OrderDTO, error) {
	return s.mutateItems(ctx, actor, orderID, func(tx *gorm.DB, txRepo Repository, l *ledger) (*inventory.LineItem, error) {
		if err := s.checkPurchaseLimit(ctx, txRepo, orderID, count); err != nil {
			return nil, err
		}
		return s.reconciler.AddLineItem(ctx, tx, l, orderID, productID, count)
	})
}

func (s *service) UpdateItem(ctx context.Context, actor types.Actor, orderID, itemID uuid.UUID, count int) (*OrderDTO, error) {
	return s.mutateItems(ctx, actor, orderID, func(tx *gorm.DB, txRepo Repository, l *ledger) (*inventory.LineItem, error) {
		item, err := txRepo.FindItem(ctx, orderID, itemID)
		if err != nil {
			return nil, repo.Translate(err, "order item")
		}
		if grow := count - item.Count; grow > 0 {
			if err := s.checkPurchaseLimit(ctx, txRepo, orderID, grow); err != nil {
				return nil, err
			}
		}
		return s.reconciler.UpdateLineItemCount(ctx, tx, l, itemID, count)
	})
}

func (s *service) RemoveItem(ctx context.Context, actor types.Actor, orderID, itemID uuid.UUID) (*OrderDTO, error) {
	return s.mutateItems(ctx, actor, orderID, func(tx *gorm.DB, _ Repository, l *ledger) (*inventory.LineItem, error) {
		return s.reconciler.RemoveLineItem(ctx, tx, l, itemID)
	})
}

// mutateItems runs fn with the order version claimed, so the purchase limit
// and the reconciler see a stable item set. The touched product is evicted
// from cache with the order because its stock moved.
func (s *service) mutateItems(ctx context.Context, actor types.Actor, orderID uuid.UUID, fn func(tx *gorm.DB, txRepo Repository, l *ledger) (*inventory.LineItem, error)) (*OrderDTO, error) {
	var updated *models.Order
	var item *inventory.LineItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		order, err := txRepo.FindByID(ctx, orderID)
		if err != nil {
			return repo.Translate(err, "order")
		}
		if !canEditItems(actor, order) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order items not editable by caller")
		}
		rows, err := txRepo.ClaimVersion(ctx, orderID, order.Version)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim order version")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "order changed concurrently")
		}
		if item, err = fn(tx, txRepo, newLedger(s.repo, orderID)); err != nil {
			return err
		}
		updated, err = txRepo.FindDetail(ctx, orderID)
		return repo.Translate(err, "order")
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, updated.ID, updated.ShipperID)
	if item != nil {
		s.cache.Invalidate(ctx, s.cache.ProductKey(item.ProductID.String()))
	}
	return mapOrderDTO(updated), nil
}

// checkPurchaseLimit caps the number of units a single order may hold.
func (s *service) checkPurchaseLimit(ctx context.Context, txRepo Repository, orderID uuid.UUID, adding int) error {
	current, err := txRepo.SumItemCounts(ctx, orderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum order items")
	}
	if current+adding > s.maxUnits {
		return pkgerrors.New(pkgerrors.CodeValidation, "exceeds purchase limit").
			WithDetails(map[string]any{"limit": s.maxUnits, "current": current, "requested": adding})
	}
	return nil
}

func canEditItems(actor types.Actor, order *models.Order) bool {
	switch actor.Role {
	case enums.ActorRoleAdmin:
		return true
	case enums.ActorRoleCustomer:
		return order.CustomerID == actor.ID
	default:
		return false
	}
}

func (s *service) invalidate(ctx context.Context, orderID uuid.UUID, shipperIDs ...*uuid.UUID) {
	keys := []string{s.cache.OrderKey(orderID.String())}
	seen := map[uuid.UUID]bool{}
	for _, id := range shipperIDs {
		if id == nil || seen[*id] {
			continue
		}
		seen[*id] = true
		keys = append(keys, s.cache.ShipperOrdersKey(id.String()))
	}
	s.cache.Invalidate(ctx, keys...)
}
