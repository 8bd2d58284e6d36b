package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hoangdh1/eCommerce/internal/repo"
	"github.com/hoangdh1/eCommerce/pkg/db/models"
	"github.com/hoangdh1/eCommerce/pkg/enums"
	pkgerrors "github.com/hoangdh1/eCommerce/pkg/errors"
	"github.com/hoangdh1/eCommerce/pkg/types"
)

// Lifecycle: inStock -> exported -> shipped -> {completed, canceled, recalled}.
// Admins export and assign; the assigned shipper drives everything after.

func checkExport(current, requested enums.OrderStatus) error {
	if current != enums.OrderStatusInStock {
		return pkgerrors.New(pkgerrors.CodeInvalidState,
			fmt.Sprintf("only inStock orders can be exported; order is %s", current))
	}
	if requested != enums.OrderStatusExported {
		return pkgerrors.New(pkgerrors.CodeInvalidTransition,
			fmt.Sprintf("export must target %s, got %s", enums.OrderStatusExported, requested))
	}
	return nil
}

func checkAssign(current enums.OrderStatus) error {
	if current != enums.OrderStatusExported {
		return pkgerrors.New(pkgerrors.CodeInvalidState,
			fmt.Sprintf("shippers can only be assigned to exported orders; order is %s", current))
	}
	return nil
}

func checkShipperTransition(current, requested enums.OrderStatus) error {
	switch {
	case current == enums.OrderStatusInStock:
		return pkgerrors.New(pkgerrors.CodeInvalidTransition, "order has not been exported yet")
	case current == enums.OrderStatusExported:
		if requested != enums.OrderStatusShipped {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition,
				fmt.Sprintf("exported orders can only move to %s", enums.OrderStatusShipped))
		}
		return nil
	case current == enums.OrderStatusShipped:
		return nil
	case current.IsTerminal():
		return pkgerrors.New(pkgerrors.CodeInvalidTransition,
			fmt.Sprintf("order is %s and accepts no further transitions", current))
	default:
		return pkgerrors.New(pkgerrors.CodeInvalidState, fmt.Sprintf("unknown order status %s", current))
	}
}

func requireRole(actor types.Actor, role enums.ActorRole) error {
	if !actor.Is(role) {
		return pkgerrors.New(pkgerrors.CodeForbidden, fmt.Sprintf("%s role required", role))
	}
	return nil
}

// ExportOrder moves an inStock order to exported.
func (s *service) ExportOrder(ctx context.Context, actor types.Actor, orderID uuid.UUID, status enums.OrderStatus) (*OrderDTO, error) {
	if err := requireRole(actor, enums.ActorRoleAdmin); err != nil {
		return nil, err
	}

	var before, after *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		order, err := txRepo.FindByID(ctx, orderID)
		if err != nil {
			return repo.Translate(err, "order")
		}
		if err := checkExport(order.Status, status); err != nil {
			return err
		}
		if err := s.setStatus(ctx, txRepo, order, status); err != nil {
			return err
		}
		before = order
		after, err = txRepo.FindDetail(ctx, orderID)
		return repo.Translate(err, "order")
	})
	if err != nil {
		return nil, err
	}

	s.afterTransition(ctx, before, after)
	return mapOrderDTO(after), nil
}

// AssignShipper attaches an active shipper to an exported order without
// changing its status.
func (s *service) AssignShipper(ctx context.Context, actor types.Actor, orderID, shipperID uuid.UUID) (*OrderDTO, error) {
	if err := requireRole(actor, enums.ActorRoleAdmin); err != nil {
		return nil, err
	}

	var before, after *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		order, err := txRepo.FindByID(ctx, orderID)
		if err != nil {
			return repo.Translate(err, "order")
		}
		if err := checkAssign(order.Status); err != nil {
			return err
		}
		if _, err := s.activeShipper(ctx, tx, shipperID); err != nil {
			return err
		}
		rows, err := txRepo.AssignShipper(ctx, orderID, shipperID, enums.OrderStatusExported)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign shipper")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "order changed concurrently")
		}
		before = order
		after, err = txRepo.FindDetail(ctx, orderID)
		return repo.Translate(err, "order")
	})
	if err != nil {
		return nil, err
	}

	s.afterTransition(ctx, before, after)
	return mapOrderDTO(after), nil
}

// UpdateStatusOrder lets the assigned shipper advance an order that has left
// the warehouse.
func (s *service) UpdateStatusOrder(ctx context.Context, actor types.Actor, orderID, shipperID uuid.UUID, status enums.OrderStatus) (*OrderDTO, error) {
	if err := requireRole(actor, enums.ActorRoleShipper); err != nil {
		return nil, err
	}
	if actor.ID != shipperID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "shippers may only act for themselves")
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown order status %q", status))
	}

	var before, after *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.activeShipper(ctx, tx, shipperID); err != nil {
			return err
		}
		txRepo := s.repo.WithTx(tx)
		order, err := txRepo.FindByID(ctx, orderID)
		if err != nil {
			return repo.Translate(err, "order")
		}
		if err := checkShipperTransition(order.Status, status); err != nil {
			return err
		}
		if !order.AssignedTo(shipperID) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order is not assigned to this shipper")
		}
		if err := s.setStatus(ctx, txRepo, order, status); err != nil {
			return err
		}
		before = order
		after, err = txRepo.FindDetail(ctx, orderID)
		return repo.Translate(err, "order")
	})
	if err != nil {
		return nil, err
	}

	s.afterTransition(ctx, before, after)
	return mapOrderDTO(after), nil
}

func (s *service) setStatus(ctx context.Context, txRepo Repository, order *models.Order, to enums.OrderStatus) error {
	rows, err := txRepo.CompareAndSetStatus(ctx, order.ID, order.Status, to)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	if rows == 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "order changed concurrently")
	}
	return nil
}

// activeShipper loads the shipper through tx, or outside any transaction when
// tx is nil, and fails unless it is available.
func (s *service) activeShipper(ctx context.Context, tx *gorm.DB, shipperID uuid.UUID) (*models.Shipper, error) {
	shipper, err := s.shippers.FindByIDTx(ctx, tx, shipperID)
	if err != nil {
		return nil, repo.Translate(err, "shipper")
	}
	if !shipper.IsActive() {
		return nil, pkgerrors.New(pkgerrors.CodeShipperUnavailable, "shipper is disabled")
	}
	return shipper, nil
}

func (s *service) afterTransition(ctx context.Context, before, after *models.Order) {
	s.invalidate(ctx, after.ID, before.ShipperID, after.ShipperID)
	if s.logg == nil {
		return
	}
	fields := map[string]any{
		"order_id":    after.ID.String(),
		"from_status": before.Status.String(),
		"to_status":   after.Status.String(),
	}
	if after.ShipperID != nil {
		fields["shipper_id"] = after.ShipperID.String()
	}
	s.logg.Info(s.logg.WithFields(ctx, fields), "order transition applied")
}
