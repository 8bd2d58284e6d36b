package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/hoangdh1/eCommerce/pkg/db/models"
	"github.com/hoangdh1/eCommerce/pkg/enums"
)

// OrderDTO is the representation returned to callers and stored in the cache.
type OrderDTO struct {
	ID         uuid.UUID         `json:"id"`
	CustomerID uuid.UUID         `json:"customer_id"`
	ShipperID  *uuid.UUID        `json:"shipper_id,omitempty"`
	Total      int64             `json:"total"`
	Status     enums.OrderStatus `json:"status"`
	Items      []OrderItemDTO    `json:"items,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

type OrderItemDTO struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	Count     int       `json:"count"`
}

// CreateOrderInput opens an empty inStock order.
type CreateOrderInput struct {
	// CustomerID is only honored for admins; customers always order for themselves.
	CustomerID uuid.UUID
	ShipperID  *uuid.UUID
}

// visibleTo reports whether the actor may read the order.
func (o *OrderDTO) visibleTo(actorID uuid.UUID, role enums.ActorRole) bool {
	switch role {
	case enums.ActorRoleAdmin:
		return true
	case enums.ActorRoleCustomer:
		return o.CustomerID == actorID
	case enums.ActorRoleShipper:
		return o.ShipperID != nil && *o.ShipperID == actorID
	default:
		return false
	}
}

func mapOrderDTO(o *models.Order) *OrderDTO {
	dto := &OrderDTO{
		ID:         o.ID,
		CustomerID: o.CustomerID,
		ShipperID:  o.ShipperID,
		Total:      o.Total,
		Status:     o.Status,
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
	if len(o.Items) > 0 {
		dto.Items = make([]OrderItemDTO, 0, len(o.Items))
		for _, item := range o.Items {
			dto.Items = append(dto.Items, OrderItemDTO{ID: item.ID, ProductID: item.ProductID, Count: item.Count})
		}
	}
	return dto
}

func mapOrderList(rows []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *mapOrderDTO(&rows[i]))
	}
	return out
}
